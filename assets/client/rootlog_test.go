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
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/transparency-dev/certassets/assets/client"
	"github.com/transparency-dev/certassets/host"
	"github.com/transparency-dev/formats/log"
)

func TestRootLogClient_VerifyLogged(t *testing.T) {
	ctx := t.Context()
	dir := t.TempDir()
	ls, lv := mustSignerVerifier(t, "example.com/rootlog")
	rl, closer, err := host.NewRootLog(ctx, dir, ls, lv)
	if err != nil {
		t.Fatal(err)
	}
	defer closer()

	var certs [][]byte
	hook := rl.Hook(ctx)
	h, _, v := newServer(t, host.WithCommitHook(func(c host.Commit) {
		hook(c)
		certs = append(certs, c.Certificate)
	}))
	if got, want := len(certs), int(h.Revision()); got != want {
		t.Fatalf("got %d commits, want %d", got, want)
	}
	waitForSize(t, rl, h.Revision())

	srv := httptest.NewServer(http.FileServer(http.Dir(dir)))
	defer srv.Close()
	c, err := client.NewRootLogClient(srv.URL+"/", lv, srv.Client())
	if err != nil {
		t.Fatal(err)
	}

	for _, cert := range certs {
		cp, err := host.VerifyCertificate(cert, v)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := c.VerifyLogged(ctx, cp); err != nil {
			t.Errorf("VerifyLogged(revision %d) = %v", cp.Size, err)
		}
	}

	forged := &log.Checkpoint{Origin: v.Name(), Size: 1, Hash: make([]byte, 32)}
	if _, err := c.VerifyLogged(ctx, forged); err == nil {
		t.Error("VerifyLogged() succeeded for data that was never certified")
	}
	future := &log.Checkpoint{Origin: v.Name(), Size: h.Revision() + 1, Hash: make([]byte, 32)}
	if _, err := c.VerifyLogged(ctx, future); err == nil {
		t.Error("VerifyLogged() succeeded for a revision beyond the log")
	}
}

// waitForSize blocks until the published checkpoint of l covers size entries.
func waitForSize(t *testing.T, l *host.RootLog, size uint64) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for {
		got, err := l.Size(t.Context())
		if err == nil && got >= size {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("root log size %d after 10s (err %v), want %d", got, err, size)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
