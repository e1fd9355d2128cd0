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

// hashtree contains a sorted Merkle tree mapping byte string keys to hashes,
// and the witness format used to prove the value (or absence) of a single key
// against the tree's root hash.
//
// The tree is a treap whose node priorities are the SHA256 of the key. This makes
// the shape of the tree, and hence its root hash, a function of the set of keys
// only: inserting the same entries in any order yields the same root.
package hashtree

import (
	"bytes"
	"crypto/sha256"
)

// Tree is a Merkle tree keyed by byte strings. The zero value is an empty tree.
// Tree is not safe for concurrent mutation.
type Tree struct {
	root *node
	size int
}

type node struct {
	key      []byte
	value    Hash
	priority Hash

	left, right *node

	// dataHash commits to key and value. subtreeHash commits to this node and
	// both children. Both are kept up to date on every insert.
	dataHash    Hash
	subtreeHash Hash
}

// Insert sets the value for key, overwriting any existing value.
func (t *Tree) Insert(key []byte, value Hash) {
	var added bool
	t.root, added = insert(t.root, key, value)
	if added {
		t.size++
	}
}

// Get returns the value stored at key.
func (t *Tree) Get(key []byte) (Hash, bool) {
	n := t.root
	for n != nil {
		switch c := bytes.Compare(key, n.key); {
		case c < 0:
			n = n.left
		case c > 0:
			n = n.right
		default:
			return n.value, true
		}
	}
	return Hash{}, false
}

// Len returns the number of keys in the tree.
func (t *Tree) Len() int {
	return t.size
}

// RootHash returns the hash committing to every entry in the tree.
func (t *Tree) RootHash() Hash {
	if t.root == nil {
		return EmptyHash()
	}
	return t.root.subtreeHash
}

// Witness returns a witness tree for key.
//
// If key is present, the witness reveals its value and nothing else. Otherwise it
// reveals the keys immediately before and after where key would be, with their
// values pruned, which is enough for a verifier to conclude absence.
func (t *Tree) Witness(key []byte) Node {
	if t.root == nil {
		return Empty{}
	}
	if _, ok := t.Get(key); ok {
		return t.root.witness([][]byte{key}, true)
	}
	var bounds [][]byte
	if lo := t.root.predecessor(key); lo != nil {
		bounds = append(bounds, lo.key)
	}
	if hi := t.root.successor(key); hi != nil {
		bounds = append(bounds, hi.key)
	}
	return t.root.witness(bounds, false)
}

func insert(n *node, key []byte, value Hash) (*node, bool) {
	if n == nil {
		k := bytes.Clone(key)
		nn := &node{
			key:      k,
			value:    value,
			priority: sha256.Sum256(k),
		}
		nn.update()
		return nn, true
	}
	var added bool
	switch c := bytes.Compare(key, n.key); {
	case c < 0:
		n.left, added = insert(n.left, key, value)
		if bytes.Compare(n.left.priority[:], n.priority[:]) > 0 {
			n = rotateRight(n)
		}
	case c > 0:
		n.right, added = insert(n.right, key, value)
		if bytes.Compare(n.right.priority[:], n.priority[:]) > 0 {
			n = rotateLeft(n)
		}
	default:
		n.value = value
	}
	n.update()
	return n, added
}

// rotateRight lifts n.left above n. The caller must update the returned node.
func rotateRight(n *node) *node {
	l := n.left
	n.left = l.right
	l.right = n
	n.update()
	return l
}

// rotateLeft lifts n.right above n. The caller must update the returned node.
func rotateLeft(n *node) *node {
	r := n.right
	n.right = r.left
	r.left = n
	n.update()
	return r
}

func (n *node) update() {
	n.dataHash = LabeledHash(n.key, LeafHash(n.value[:]))
	switch {
	case n.left == nil && n.right == nil:
		n.subtreeHash = n.dataHash
	case n.right == nil:
		n.subtreeHash = ForkHash(n.left.subtreeHash, n.dataHash)
	case n.left == nil:
		n.subtreeHash = ForkHash(n.dataHash, n.right.subtreeHash)
	default:
		n.subtreeHash = ForkHash(n.left.subtreeHash, ForkHash(n.dataHash, n.right.subtreeHash))
	}
}

// predecessor returns the node with the largest key less than key.
func (n *node) predecessor(key []byte) *node {
	var best *node
	for n != nil {
		if bytes.Compare(n.key, key) < 0 {
			best = n
			n = n.right
		} else {
			n = n.left
		}
	}
	return best
}

// successor returns the node with the smallest key greater than key.
func (n *node) successor(key []byte) *node {
	var best *node
	for n != nil {
		if bytes.Compare(n.key, key) > 0 {
			best = n
			n = n.left
		} else {
			n = n.right
		}
	}
	return best
}

// witness builds the witness for the subtree at n revealing the labels of all keys
// in reveal, which must be present in the subtree. Values are revealed only when
// withValue is set; otherwise revealed keys have their value pruned.
// The shape mirrors update, so the witness reconstructs to n.subtreeHash.
func (n *node) witness(reveal [][]byte, withValue bool) Node {
	if len(reveal) == 0 {
		return Pruned{Hash: n.subtreeHash}
	}
	var lower, upper [][]byte
	var here bool
	for _, k := range reveal {
		switch c := bytes.Compare(k, n.key); {
		case c < 0:
			lower = append(lower, k)
		case c > 0:
			upper = append(upper, k)
		default:
			here = true
		}
	}

	var data Node = Pruned{Hash: n.dataHash}
	if here {
		if withValue {
			data = Labeled{Label: bytes.Clone(n.key), Tree: Leaf{Value: bytes.Clone(n.value[:])}}
		} else {
			data = Labeled{Label: bytes.Clone(n.key), Tree: Pruned{Hash: LeafHash(n.value[:])}}
		}
	}

	switch {
	case n.left == nil && n.right == nil:
		return data
	case n.right == nil:
		return Fork{Left: n.left.witness(lower, withValue), Right: data}
	case n.left == nil:
		return Fork{Left: data, Right: n.right.witness(upper, withValue)}
	default:
		return Fork{
			Left:  n.left.witness(lower, withValue),
			Right: Fork{Left: data, Right: n.right.witness(upper, withValue)},
		}
	}
}
