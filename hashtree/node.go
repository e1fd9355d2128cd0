// Copyright 2026 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hashtree

import (
	"bytes"
	"crypto/sha256"
)

// Hash is the output of the hash function used throughout the tree.
type Hash = [sha256.Size]byte

// Node is a node in a witness tree. A witness is a partial view of a tree in which
// any subtree not needed by the verifier has been replaced by its hash.
//
// The concrete types are Empty, Fork, Labeled, Leaf and Pruned.
type Node interface {
	isNode()
}

// Empty is the tree with no entries.
type Empty struct{}

// Fork joins two subtrees.
type Fork struct {
	Left, Right Node
}

// Labeled attaches a label to a subtree. Labels within a Fork chain are sorted.
type Labeled struct {
	Label []byte
	Tree  Node
}

// Leaf holds a revealed value.
type Leaf struct {
	Value []byte
}

// Pruned stands in for a subtree whose contents are not revealed.
type Pruned struct {
	Hash Hash
}

func (Empty) isNode()   {}
func (Fork) isNode()    {}
func (Labeled) isNode() {}
func (Leaf) isNode()    {}
func (Pruned) isNode()  {}

const (
	sepEmpty   = "ic-hashtree-empty"
	sepFork    = "ic-hashtree-fork"
	sepLabeled = "ic-hashtree-labeled"
	sepLeaf    = "ic-hashtree-leaf"
)

// domainHash hashes the length-prefixed separator followed by parts.
func domainHash(sep string, parts ...[]byte) Hash {
	h := sha256.New()
	h.Write([]byte{byte(len(sep))})
	h.Write([]byte(sep))
	for _, p := range parts {
		h.Write(p)
	}
	return Hash(h.Sum(nil))
}

// EmptyHash returns the root hash of the empty tree.
func EmptyHash() Hash {
	return domainHash(sepEmpty)
}

// ForkHash returns the hash of a Fork with children hashing to l and r.
func ForkHash(l, r Hash) Hash {
	return domainHash(sepFork, l[:], r[:])
}

// LabeledHash returns the hash of a Labeled node over a subtree hashing to h.
func LabeledHash(label []byte, h Hash) Hash {
	return domainHash(sepLabeled, label, h[:])
}

// LeafHash returns the hash of a Leaf holding v.
func LeafHash(v []byte) Hash {
	return domainHash(sepLeaf, v)
}

// Reconstruct returns the root hash of the full tree that n is a witness for.
func Reconstruct(n Node) Hash {
	switch t := n.(type) {
	case Empty:
		return EmptyHash()
	case Fork:
		return ForkHash(Reconstruct(t.Left), Reconstruct(t.Right))
	case Labeled:
		return LabeledHash(t.Label, Reconstruct(t.Tree))
	case Leaf:
		return LeafHash(t.Value)
	case Pruned:
		return t.Hash
	}
	panic("hashtree: unknown node type")
}

// LookupStatus describes what a witness says about a path.
type LookupStatus int

const (
	// Unknown means the witness does not contain enough information, e.g. the
	// path runs into a pruned subtree.
	Unknown LookupStatus = iota
	// Absent means the witness proves that the path does not exist.
	Absent
	// Found means the witness reveals the value at the path.
	Found
)

func (s LookupStatus) String() string {
	switch s {
	case Absent:
		return "absent"
	case Found:
		return "found"
	}
	return "unknown"
}

// LookupResult is the outcome of Lookup. Value is only set when Status is Found.
type LookupResult struct {
	Status LookupStatus
	Value  []byte
}

// Lookup follows the labels in path through the witness n.
func Lookup(n Node, path ...[]byte) LookupResult {
	if len(path) == 0 {
		switch t := n.(type) {
		case Leaf:
			return LookupResult{Status: Found, Value: t.Value}
		case Empty:
			return LookupResult{Status: Absent}
		}
		return LookupResult{Status: Unknown}
	}
	sub, status := findLabel(path[0], flatten(n, nil))
	if status != Found {
		return LookupResult{Status: status}
	}
	return Lookup(sub, path[1:]...)
}

// flatten appends the non-Fork nodes reachable through Forks, in order. Empty nodes
// contribute nothing.
func flatten(n Node, out []Node) []Node {
	switch t := n.(type) {
	case Empty:
		return out
	case Fork:
		return flatten(t.Right, flatten(t.Left, out))
	}
	return append(out, n)
}

// findLabel searches for label in a flattened, label-sorted list of nodes.
// Absence is only proven when the label falls between two adjacent Labeled nodes,
// or before the first or after the last one with nothing else in between.
func findLabel(label []byte, nodes []Node) (Node, LookupStatus) {
	for i, n := range nodes {
		l, ok := n.(Labeled)
		if !ok {
			continue
		}
		switch c := bytes.Compare(label, l.Label); {
		case c == 0:
			return l.Tree, Found
		case c < 0:
			if i == 0 {
				return nil, Absent
			}
			if _, ok := nodes[i-1].(Labeled); ok {
				return nil, Absent
			}
			return nil, Unknown
		}
	}
	if len(nodes) == 0 {
		return nil, Absent
	}
	if _, ok := nodes[len(nodes)-1].(Labeled); ok {
		return nil, Absent
	}
	return nil, Unknown
}
