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
	"io"
	"net/http"
	"net/url"

	"github.com/transparency-dev/certassets/assets/api"
	"github.com/transparency-dev/certassets/host"
	"k8s.io/klog/v2"
)

// maxBodySize bounds how much of a request body is read. Bodies are not
// interpreted, so this only needs to be large enough to drain typical requests.
const maxBodySize = 1 << 20

// NewHandler returns an http.Handler serving s through the host h.
//
// Each request is answered inside a single host query, so the certificate and
// witness in the response are computed against the same state as the body.
// If the response cannot be built, a bare 500 is returned.
func NewHandler(h host.Host, s *State) http.Handler {
	return &handler{h: h, s: s}
}

// ResponseObserver is notified of the status code of every response before it is
// written. It is called concurrently from all requests.
type ResponseObserver func(status int)

// NewObservedHandler is like NewHandler but reports every response status to o.
func NewObservedHandler(h host.Host, s *State, o ResponseObserver) http.Handler {
	return &handler{h: h, s: s, observe: o}
}

type handler struct {
	h       host.Host
	s       *State
	observe ResponseObserver
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		klog.Warningf("Failed to read request body for %s: %v", r.URL, err)
		h.fail(w)
		return
	}
	req := api.HTTPRequest{
		Method: r.Method,
		URL:    requestURL(r.URL),
		Body:   body,
	}
	for name, vs := range r.Header {
		for _, v := range vs {
			req.Headers = append(req.Headers, api.Header(name, v))
		}
	}

	var resp api.HTTPResponse
	if err := h.h.Query(func(q host.QueryContext) error {
		var err error
		resp, err = h.s.HTTPRequest(q, req)
		return err
	}); err != nil {
		klog.Errorf("Failed to serve %s: %v", req.URL, err)
		h.fail(w)
		return
	}

	for _, f := range resp.Headers {
		w.Header().Add(f.Name, f.Value)
	}
	if _, ok := resp.Get("Content-Type"); !ok {
		// Stops net/http from sniffing one from the body.
		w.Header()["Content-Type"] = nil
	}
	status := int(resp.StatusCode)
	if h.observe != nil {
		h.observe(status)
	}
	w.WriteHeader(status)
	if _, err := w.Write(resp.Body); err != nil {
		klog.Warningf("Failed to write response for %s: %v", req.URL, err)
	}
}

// requestURL returns the decoded path of u followed by its raw query, if any.
// Assets are stored under decoded paths, as they appear on disk.
func requestURL(u *url.URL) string {
	if u.RawQuery == "" && !u.ForceQuery {
		return u.Path
	}
	return u.Path + "?" + u.RawQuery
}

func (h *handler) fail(w http.ResponseWriter) {
	if h.observe != nil {
		h.observe(http.StatusInternalServerError)
	}
	w.Header()["Content-Type"] = nil
	w.WriteHeader(http.StatusInternalServerError)
}
