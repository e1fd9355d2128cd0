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
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/gorilla/mux"
	"github.com/transparency-dev/certassets/assets"
	"github.com/transparency-dev/certassets/assets/api"
	"github.com/transparency-dev/certassets/host"
	"github.com/transparency-dev/certassets/journal"
	"k8s.io/klog/v2"
)

const (
	// assetHeaderPrefix marks upload request headers that are stored with the
	// asset, without the prefix. X-Asset-Cache-Control becomes Cache-Control.
	assetHeaderPrefix = "X-Asset-"
	maxUploadSize     = 32 << 20
)

func newAdminServer(h host.Host, s *assets.State, j journal.Journal, m *metrics) *adminServer {
	return &adminServer{h: h, s: s, j: j, m: m}
}

// adminServer accepts uploads of new assets. It must never be exposed publicly.
type adminServer struct {
	h host.Host
	s *assets.State
	j journal.Journal // may be nil
	m *metrics
}

func (a *adminServer) registerHandlers(r *mux.Router) {
	r.HandleFunc("/assets", a.handleList).Methods(http.MethodGet)
	r.HandleFunc("/assets/{path:.*}", a.handlePut).Methods(http.MethodPut)
	r.Handle("/metrics", a.m.handler())
}

// handlePut inserts the request body as an asset at the path following /assets.
func (a *adminServer) handlePut(w http.ResponseWriter, r *http.Request) {
	path := "/" + mux.Vars(r)["path"]
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadSize))
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read body: %v", err), http.StatusBadRequest)
		return
	}
	e := journal.Entry{Path: path, Headers: assetHeaders(r.Header), Bytes: body}

	err = a.h.Update(func(u host.UpdateContext) error {
		if a.j != nil {
			if err := a.j.Append(e); err != nil {
				return fmt.Errorf("failed to journal %q: %v", path, err)
			}
		}
		if err := a.s.InsertAsset(u, e.Path, e.Asset()); err != nil {
			return err
		}
		a.m.assets.Set(float64(a.s.Len()))
		return nil
	})
	if err != nil {
		klog.Errorf("Upload of %q failed: %v", path, err)
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}
	a.m.insertions.Inc()
	klog.Infof("Uploaded %d bytes to %q", len(body), path)
	w.WriteHeader(http.StatusNoContent)
}

// handleList writes the paths of all assets as a JSON array.
func (a *adminServer) handleList(w http.ResponseWriter, r *http.Request) {
	var paths []string
	if err := a.h.Query(func(host.QueryContext) error {
		paths = a.s.Paths()
		return nil
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(paths); err != nil {
		klog.Warningf("Failed to write asset list: %v", err)
	}
}

// assetHeaders returns the headers to store with an uploaded asset, in name order.
func assetHeaders(h http.Header) []api.HeaderField {
	var fs []api.HeaderField
	for _, name := range slices.Sorted(maps.Keys(h)) {
		n, ok := strings.CutPrefix(name, assetHeaderPrefix)
		if !ok || n == "" {
			continue
		}
		for _, v := range h[name] {
			fs = append(fs, api.Header(n, v))
		}
	}
	return fs
}
