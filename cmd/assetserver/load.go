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

package main

import (
	"io/fs"

	"github.com/transparency-dev/certassets/assets"
	"github.com/transparency-dev/certassets/host"
	"k8s.io/klog/v2"
)

// loadDir inserts every regular file in fsys as an asset at its slash-separated
// path below the root, in a single update. It returns the number of files loaded.
func loadDir(h host.Host, s *assets.State, fsys fs.FS) (int, error) {
	n := 0
	err := h.Update(func(u host.UpdateContext) error {
		return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() {
				if !d.IsDir() {
					klog.Warningf("Skipping %q: not a regular file", p)
				}
				return nil
			}
			b, err := fs.ReadFile(fsys, p)
			if err != nil {
				return err
			}
			n++
			return s.InsertAsset(u, "/"+p, assets.NewAsset(b))
		})
	})
	return n, err
}
