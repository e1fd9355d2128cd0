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

package assets

import (
	"bytes"
	"slices"

	"github.com/google/btree"
	"github.com/transparency-dev/certassets/assets/api"
)

// Asset is a payload served verbatim, along with headers specific to it.
//
// Headers that can be derived from the path, such as Content-Type, or that apply to
// every response, such as the certification header, are added when serving and
// should not be stored here.
type Asset struct {
	Headers []api.HeaderField
	Bytes   []byte
}

// NewAsset returns an asset with the given body and no headers.
func NewAsset(b []byte) Asset {
	return Asset{Bytes: b}
}

// WithHeader returns a copy of a with the header appended.
func (a Asset) WithHeader(name, value string) Asset {
	a.Headers = append(slices.Clone(a.Headers), api.Header(name, value))
	return a
}

// Clone returns a deep copy of a.
func (a Asset) Clone() Asset {
	return Asset{
		Headers: slices.Clone(a.Headers),
		Bytes:   bytes.Clone(a.Bytes),
	}
}

// Equal reports whether a and b have the same headers and bytes.
func (a Asset) Equal(b Asset) bool {
	return slices.Equal(a.Headers, b.Headers) && bytes.Equal(a.Bytes, b.Bytes)
}

const degree = 8

type storeEntry struct {
	path  string
	asset Asset
}

func lessEntry(a, b storeEntry) bool {
	return a.path < b.path
}

// Store maps paths to assets. Paths are matched exactly: there is no directory
// index resolution here, see State.InsertAsset for how aliases are materialized.
//
// Store is not safe for concurrent mutation; State is only ever touched from
// within host calls, which provide the necessary exclusion.
type Store struct {
	t *btree.BTreeG[storeEntry]
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{t: btree.NewG(degree, lessEntry)}
}

// Insert stores a at path, replacing any existing asset.
func (s *Store) Insert(path string, a Asset) {
	s.t.ReplaceOrInsert(storeEntry{path: path, asset: a.Clone()})
}

// Get returns a copy of the asset at path.
func (s *Store) Get(path string) (Asset, bool) {
	e, ok := s.t.Get(storeEntry{path: path})
	if !ok {
		return Asset{}, false
	}
	return e.asset.Clone(), true
}

// Len returns the number of paths in the store.
func (s *Store) Len() int {
	return s.t.Len()
}

// Paths returns all paths in the store in ascending order.
func (s *Store) Paths() []string {
	ps := make([]string, 0, s.t.Len())
	s.t.Ascend(func(e storeEntry) bool {
		ps = append(ps, e.path)
		return true
	})
	return ps
}
