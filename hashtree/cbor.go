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
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// The wire format of a witness is frozen: verifiers in the wild decode exactly
// this, and any change here is a compatibility break.
//
//	Empty   = [0]
//	Fork    = [1, left, right]
//	Labeled = [2, label: bstr, tree]
//	Leaf    = [3, value: bstr]
//	Pruned  = [4, hash: bstr .size 32]
//
// The whole tree is wrapped in the self-described CBOR tag.
const (
	tagEmpty uint64 = iota
	tagFork
	tagLabeled
	tagLeaf
	tagPruned
)

const selfDescribedTag = 55799

// selfDescribedPrefix is the encoding of the head of tag 55799.
var selfDescribedPrefix = []byte{0xd9, 0xd9, 0xf7}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	// Core Deterministic Encoding gives the same bytes for the same tree.
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("hashtree: failed to create CBOR encoder: %v", err))
	}
	decMode, err = cbor.DecOptions{
		MaxNestedLevels: 256,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("hashtree: failed to create CBOR decoder: %v", err))
	}
}

// Marshal returns the canonical encoding of the witness tree n.
func Marshal(n Node) ([]byte, error) {
	v, err := toCBOR(n)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(cbor.Tag{Number: selfDescribedTag, Content: v})
}

// Unmarshal parses a witness tree previously encoded with Marshal.
func Unmarshal(data []byte) (Node, error) {
	if !bytes.HasPrefix(data, selfDescribedPrefix) {
		return nil, errors.New("missing self-described CBOR tag")
	}
	return fromCBOR(data[len(selfDescribedPrefix):])
}

func toCBOR(n Node) ([]any, error) {
	switch t := n.(type) {
	case Empty:
		return []any{tagEmpty}, nil
	case Fork:
		l, err := toCBOR(t.Left)
		if err != nil {
			return nil, err
		}
		r, err := toCBOR(t.Right)
		if err != nil {
			return nil, err
		}
		return []any{tagFork, l, r}, nil
	case Labeled:
		sub, err := toCBOR(t.Tree)
		if err != nil {
			return nil, err
		}
		return []any{tagLabeled, nonNil(t.Label), sub}, nil
	case Leaf:
		return []any{tagLeaf, nonNil(t.Value)}, nil
	case Pruned:
		return []any{tagPruned, t.Hash[:]}, nil
	case nil:
		return nil, errors.New("nil node")
	}
	return nil, fmt.Errorf("unknown node type %T", n)
}

// nonNil ensures that empty byte strings encode as bstr rather than null.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

func fromCBOR(data []byte) (Node, error) {
	var items []cbor.RawMessage
	if err := decMode.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode node: %v", err)
	}
	if len(items) == 0 {
		return nil, errors.New("empty node array")
	}
	var tag uint64
	if err := decMode.Unmarshal(items[0], &tag); err != nil {
		return nil, fmt.Errorf("failed to decode node tag: %v", err)
	}
	want := map[uint64]int{tagEmpty: 1, tagFork: 3, tagLabeled: 3, tagLeaf: 2, tagPruned: 2}
	if n, ok := want[tag]; !ok {
		return nil, fmt.Errorf("unknown node tag %d", tag)
	} else if len(items) != n {
		return nil, fmt.Errorf("node tag %d has %d items, want %d", tag, len(items), n)
	}

	switch tag {
	case tagEmpty:
		return Empty{}, nil
	case tagFork:
		l, err := fromCBOR(items[1])
		if err != nil {
			return nil, err
		}
		r, err := fromCBOR(items[2])
		if err != nil {
			return nil, err
		}
		return Fork{Left: l, Right: r}, nil
	case tagLabeled:
		var label []byte
		if err := decMode.Unmarshal(items[1], &label); err != nil {
			return nil, fmt.Errorf("failed to decode label: %v", err)
		}
		sub, err := fromCBOR(items[2])
		if err != nil {
			return nil, err
		}
		return Labeled{Label: nonNil(label), Tree: sub}, nil
	case tagLeaf:
		var v []byte
		if err := decMode.Unmarshal(items[1], &v); err != nil {
			return nil, fmt.Errorf("failed to decode leaf: %v", err)
		}
		return Leaf{Value: nonNil(v)}, nil
	default:
		var h []byte
		if err := decMode.Unmarshal(items[1], &h); err != nil {
			return nil, fmt.Errorf("failed to decode pruned hash: %v", err)
		}
		if len(h) != len(Hash{}) {
			return nil, fmt.Errorf("pruned hash has %d bytes, want %d", len(h), len(Hash{}))
		}
		return Pruned{Hash: Hash(h)}, nil
	}
}
