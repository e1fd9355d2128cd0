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

package client_test

import (
	"crypto/rand"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/transparency-dev/certassets/assets"
	"github.com/transparency-dev/certassets/assets/api"
	"github.com/transparency-dev/certassets/assets/client"
	"github.com/transparency-dev/certassets/host"
	fnote "github.com/transparency-dev/formats/note"
	"golang.org/x/mod/sumdb/note"
)

func mustSignerVerifier(t *testing.T, name string) (note.Signer, note.Verifier) {
	t.Helper()
	skey, _, err := note.GenerateKey(rand.Reader, name)
	if err != nil {
		t.Fatal(err)
	}
	s, v, err := fnote.NewEd25519SignerVerifier(skey)
	if err != nil {
		t.Fatal(err)
	}
	return s, v
}

func newServer(t *testing.T, opts ...host.LocalOption) (*host.LocalHost, *assets.State, note.Verifier) {
	t.Helper()
	s, v := mustSignerVerifier(t, "example.com/host")
	h := host.NewLocalHost(s, opts...)
	st := assets.NewState()
	for p, b := range map[string]string{
		"/index.html":  "<html>home</html>",
		"/app.js":      "console.log(1)",
		"/my file.txt": "spaced",
	} {
		if err := h.Update(func(u host.UpdateContext) error {
			return st.InsertAsset(u, p, assets.NewAsset([]byte(b)))
		}); err != nil {
			t.Fatal(err)
		}
	}
	return h, st, v
}

func TestClient_Get(t *testing.T) {
	h, st, v := newServer(t)
	srv := httptest.NewServer(assets.NewHandler(h, st))
	defer srv.Close()

	c, err := client.New(srv.URL, v, srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	testCases := []struct {
		desc       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			desc:       "asset",
			path:       "/app.js",
			wantStatus: http.StatusOK,
			wantBody:   "console.log(1)",
		}, {
			desc:       "index alias",
			path:       "/",
			wantStatus: http.StatusOK,
			wantBody:   "<html>home</html>",
		}, {
			desc:       "with query",
			path:       "/app.js?cache=bust",
			wantStatus: http.StatusOK,
			wantBody:   "console.log(1)",
		}, {
			desc:       "path with space",
			path:       "/my file.txt",
			wantStatus: http.StatusOK,
			wantBody:   "spaced",
		}, {
			desc:       "missing",
			path:       "/style.css",
			wantStatus: http.StatusNotFound,
			wantBody:   "Asset /style.css not found.",
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			resp, err := c.Get(t.Context(), tC.path)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tC.wantStatus {
				t.Errorf("status %d, want %d", resp.StatusCode, tC.wantStatus)
			}
			if got := string(resp.Body); got != tC.wantBody {
				t.Errorf("body %q, want %q", got, tC.wantBody)
			}
			if got, want := resp.Checkpoint.Size, h.Revision(); got != want {
				t.Errorf("certified revision %d, want %d", got, want)
			}
		})
	}
}

func TestClient_Get_wrongKey(t *testing.T) {
	h, st, _ := newServer(t)
	srv := httptest.NewServer(assets.NewHandler(h, st))
	defer srv.Close()

	_, otherV := mustSignerVerifier(t, "example.com/host")
	c, err := client.New(srv.URL, otherV, srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(t.Context(), "/app.js"); err == nil {
		t.Error("Get() succeeded with the wrong host key")
	}
}

func TestVerifyResponse(t *testing.T) {
	h, st, v := newServer(t)
	get := func(path string) api.HTTPResponse {
		var resp api.HTTPResponse
		if err := h.Query(func(q host.QueryContext) error {
			var err error
			resp, err = st.HTTPRequest(q, api.HTTPRequest{Method: "GET", URL: path})
			return err
		}); err != nil {
			t.Fatal(err)
		}
		return resp
	}
	found, missing := get("/app.js"), get("/nope")

	testCases := []struct {
		desc    string
		path    string
		status  int
		headers []api.HeaderField
		body    string
		wantErr error
	}{
		{
			desc:    "valid 200",
			path:    "/app.js",
			status:  200,
			headers: found.Headers,
			body:    string(found.Body),
		}, {
			desc:    "valid 404",
			path:    "/nope",
			status:  404,
			headers: missing.Headers,
			body:    string(missing.Body),
		}, {
			desc:    "tampered body",
			path:    "/app.js",
			status:  200,
			headers: found.Headers,
			body:    "alert(1)",
			wantErr: client.ErrNotCertified,
		}, {
			desc:    "witness for another path",
			path:    "/index.html",
			status:  200,
			headers: found.Headers,
			body:    string(found.Body),
			wantErr: client.ErrNotCertified,
		}, {
			desc:    "404 for present asset",
			path:    "/app.js",
			status:  404,
			headers: found.Headers,
			wantErr: client.ErrNotCertified,
		}, {
			desc:    "200 for absent asset",
			path:    "/nope",
			status:  200,
			headers: missing.Headers,
			body:    "",
			wantErr: client.ErrNotCertified,
		}, {
			desc:    "no certification header",
			path:    "/app.js",
			status:  200,
			body:    string(found.Body),
			wantErr: client.ErrNotCertified,
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			_, err := client.VerifyResponse(tC.path, tC.status, tC.headers, []byte(tC.body), v)
			if tC.wantErr == nil {
				if err != nil {
					t.Fatalf("VerifyResponse() = %v", err)
				}
				return
			}
			if !errors.Is(err, tC.wantErr) {
				t.Errorf("VerifyResponse() = %v, want %v", err, tC.wantErr)
			}
		})
	}
}
