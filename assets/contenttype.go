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

import "strings"

var contentTypes = map[string]string{
	"css":   "text/css",
	"html":  "text/html",
	"xml":   "application/xml",
	"js":    "application/javascript",
	"json":  "application/json",
	"svg":   "image/svg+xml",
	"png":   "image/png",
	"jpeg":  "image/jpeg",
	"jpg":   "image/jpeg",
	"ico":   "image/x-icon",
	"ttf":   "font/ttf",
	"woff2": "font/woff2",
	"txt":   "text/plain",
}

// ContentType returns the Content-Type served for path, if one is known.
// Directory paths, ending in a slash, are served their index page and so are HTML.
// Matching on the extension is case sensitive.
func ContentType(path string) (string, bool) {
	if strings.HasSuffix(path, "/") {
		return "text/html", true
	}
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return "", false
	}
	ct, ok := contentTypes[path[i+1:]]
	return ct, ok
}
