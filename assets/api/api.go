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

// api contains the request and response types exchanged with the certified
// asset server, and the names that clients need to verify its responses.
package api

import "strings"

const (
	// CertificateHeader is the response header carrying the host certificate and
	// the witness for the requested path. Its value has the form:
	//
	//	certificate=:<base64 certificate>:, tree=:<base64 witness>:
	CertificateHeader = "IC-Certificate"

	// AssetsLabel is the label under which the asset tree is placed in the
	// certified state. The host certifies LabeledHash(AssetsLabel, root).
	AssetsLabel = "http_assets"
)

// HeaderField is a single HTTP header. Order is significant and names may repeat.
type HeaderField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Header returns a HeaderField with the given name and value.
func Header(name, value string) HeaderField {
	return HeaderField{Name: name, Value: value}
}

// HTTPRequest is an HTTP request as handed over by the host.
type HTTPRequest struct {
	// Method is the HTTP method, such as "GET".
	Method string `json:"method"`
	// URL is the path and query string, e.g. "/some/path?foo=bar". It does not
	// contain the scheme, host or port. The path is percent-decoded, so a file
	// named "my file.txt" is requested as "/my file.txt".
	URL     string        `json:"url"`
	Headers []HeaderField `json:"headers"`
	Body    []byte        `json:"body"`
}

// HTTPResponse is an HTTP response to be returned through the host.
type HTTPResponse struct {
	StatusCode uint16        `json:"status_code"`
	Headers    []HeaderField `json:"headers"`
	Body       []byte        `json:"body"`
}

// Get returns the value of the first header with the given name, compared
// case-insensitively as HTTP requires.
func (r HTTPResponse) Get(name string) (string, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}
