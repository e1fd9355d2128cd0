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
	"fmt"
	"net/http"
	"strings"

	"github.com/transparency-dev/certassets/assets/api"
	"github.com/transparency-dev/certassets/host"
	"k8s.io/klog/v2"
)

// securityHeaders returns the headers attached to every response.
// See https://owasp.org/www-project-secure-headers/.
func securityHeaders() []api.HeaderField {
	return []api.HeaderField{
		api.Header("X-Frame-Options", "DENY"),
		api.Header("X-Content-Type-Options", "nosniff"),
		api.Header("Strict-Transport-Security", "max-age=31536000 ; includeSubDomains"),
		// no-referrer would be stricter but breaks local development.
		api.Header("Referrer-Policy", "same-origin"),
	}
}

// HTTPRequest answers req from the certified state.
//
// The query string is ignored. Every response, including a 404, carries the
// security headers and a certification header for the requested path. The method
// and request body are not interpreted.
//
// An error means no response may be sent: the request must be failed without
// returning any of the certified state.
func (s *State) HTTPRequest(q host.QueryContext, req api.HTTPRequest) (api.HTTPResponse, error) {
	path, _, _ := strings.Cut(req.URL, "?")
	klog.V(2).Infof("%s %s", req.Method, path)

	headers := securityHeaders()
	cert, err := CertificateHeader(q, &s.tree, path)
	if err != nil {
		return api.HTTPResponse{}, err
	}
	headers = append(headers, cert)

	a, ok := s.store.Get(path)
	if !ok {
		return api.HTTPResponse{
			StatusCode: http.StatusNotFound,
			Headers:    headers,
			Body:       fmt.Appendf(nil, "Asset %s not found.", path),
		}, nil
	}
	headers = append(headers, a.Headers...)
	if ct, ok := ContentType(path); ok {
		headers = append(headers, api.Header("Content-Type", ct))
	}
	return api.HTTPResponse{
		StatusCode: http.StatusOK,
		Headers:    headers,
		Body:       a.Bytes,
	}, nil
}
