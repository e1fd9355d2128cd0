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

// assets serves static content as certified HTTP responses.
//
// Every asset path is a leaf in a Merkle tree whose value is the SHA256 of the
// asset's bytes. The labeled root of that tree is handed to the host as certified
// data after every insertion, and every response carries the host's certificate
// along with a witness for the requested path, so a client can check the body
// (or the absence of an asset) against the certified root.
package assets

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/transparency-dev/certassets/assets/api"
	"github.com/transparency-dev/certassets/hashtree"
	"github.com/transparency-dev/certassets/host"
	"k8s.io/klog/v2"
)

const indexFile = "index.html"

// State is the certified asset state: the store and the hash tree over it.
//
// The two must always agree, so State is only modified through InsertAsset, which
// requires an UpdateContext, and only read through methods requiring a
// QueryContext or from within an update. The host guarantees that updates are
// exclusive, which is what makes an insertion atomic for readers.
type State struct {
	store *Store
	tree  hashtree.Tree
}

// NewState returns an empty state.
func NewState() *State {
	return &State{store: NewStore()}
}

// InsertAsset stores a at path and publishes the new root hash before returning.
//
// If the last segment of path is index.html, the asset is also stored at the
// directory path with a trailing slash (e.g. /docs/index.html is also served at
// /docs/). Relative links in a page only resolve correctly against a URL ending
// in a slash. Both paths get their own leaf in the tree.
func (s *State) InsertAsset(u host.UpdateContext, path string, a Asset) error {
	klog.V(1).Infof("Inserting asset %s", path)
	h := sha256.Sum256(a.Bytes)

	if dir, ok := indexAlias(path); ok {
		s.tree.Insert([]byte(dir), h)
		s.store.Insert(dir, a)
	}
	s.tree.Insert([]byte(path), h)
	s.store.Insert(path, a)

	if err := PublishRoot(u, &s.tree); err != nil {
		return fmt.Errorf("failed to publish root after inserting %q: %v", path, err)
	}
	return nil
}

// indexAlias returns the directory path that an index page is also served at.
func indexAlias(path string) (string, bool) {
	i := strings.LastIndexByte(path, '/')
	if path[i+1:] != indexFile {
		return "", false
	}
	return path[:len(path)-len(indexFile)], true
}

// Get returns a copy of the asset stored at exactly path.
func (s *State) Get(path string) (Asset, bool) {
	return s.store.Get(path)
}

// Paths returns all paths with an asset, including index aliases, in order.
func (s *State) Paths() []string {
	return s.store.Paths()
}

// Len returns the number of paths with an asset.
func (s *State) Len() int {
	return s.store.Len()
}

// RootHash returns the root hash of the asset tree, before labeling.
func (s *State) RootHash() hashtree.Hash {
	return s.tree.RootHash()
}

// PublishRoot hands the labeled root hash of t to the host as its certified data.
// This must be called after every change to t.
func PublishRoot(u host.UpdateContext, t *hashtree.Tree) error {
	root := LabeledRoot(t.RootHash())
	return u.SetCertifiedData(root[:])
}

// LabeledRoot returns the value the host certifies for an asset tree root.
func LabeledRoot(root hashtree.Hash) hashtree.Hash {
	return hashtree.LabeledHash([]byte(api.AssetsLabel), root)
}
