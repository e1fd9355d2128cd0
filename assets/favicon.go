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
	_ "embed"

	"github.com/transparency-dev/certassets/host"
)

const faviconPath = "/favicon.ico"

//go:embed favicon.ico
var defaultFavicon []byte

// InsertFavicon certifies a default favicon unless one has already been inserted.
// Browsers request one unprompted, and an uncertified 404 for it shows up as a
// verification error in their consoles.
func (s *State) InsertFavicon(u host.UpdateContext) error {
	if _, ok := s.store.Get(faviconPath); ok {
		return nil
	}
	return s.InsertAsset(u, faviconPath, NewAsset(defaultFavicon))
}
