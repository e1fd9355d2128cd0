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

package journal_test

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/transparency-dev/certassets/assets"
	"github.com/transparency-dev/certassets/assets/api"
	"github.com/transparency-dev/certassets/host"
	"github.com/transparency-dev/certassets/journal"
	fnote "github.com/transparency-dev/formats/note"
	"golang.org/x/mod/sumdb/note"
)

type opener struct {
	desc string
	open func(t *testing.T, dir string) journal.Journal
}

var backends = []opener{
	{
		desc: "wal",
		open: func(t *testing.T, dir string) journal.Journal {
			t.Helper()
			j, err := journal.OpenWAL(filepath.Join(dir, "journal.wal"))
			if err != nil {
				t.Fatal(err)
			}
			return j
		},
	}, {
		desc: "pebble",
		open: func(t *testing.T, dir string) journal.Journal {
			t.Helper()
			j, err := journal.OpenPebble(filepath.Join(dir, "journal.db"))
			if err != nil {
				t.Fatal(err)
			}
			return j
		},
	},
}

func testEntries(n int) []journal.Entry {
	es := make([]journal.Entry, 0, n)
	for i := range n {
		e := journal.Entry{
			Path:  fmt.Sprintf("/file%d.txt", i),
			Bytes: fmt.Appendf(nil, "contents of %d", i),
		}
		if i%2 == 0 {
			e.Headers = []api.HeaderField{api.Header("Cache-Control", "no-cache")}
		}
		es = append(es, e)
	}
	// Empty bodies must survive too.
	es = append(es, journal.Entry{Path: "/empty.txt"})
	return es
}

func replayAll(t *testing.T, j journal.Journal) []journal.Entry {
	t.Helper()
	var got []journal.Entry
	if err := j.Replay(func(e journal.Entry) error {
		got = append(got, e)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	return got
}

func TestJournal_roundtrip(t *testing.T) {
	for _, b := range backends {
		t.Run(b.desc, func(t *testing.T) {
			dir := t.TempDir()
			want := testEntries(20)

			j := b.open(t, dir)
			for _, e := range want[:10] {
				if err := j.Append(e); err != nil {
					t.Fatal(err)
				}
			}
			if err := j.Close(); err != nil {
				t.Fatal(err)
			}

			// Reopening continues the sequence.
			j = b.open(t, dir)
			defer func() {
				_ = j.Close()
			}()
			for _, e := range want[10:] {
				if err := j.Append(e); err != nil {
					t.Fatal(err)
				}
			}

			if diff := cmp.Diff(want, replayAll(t, j), cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("replayed entries diff (-want +got):\n%s", diff)
			}
		})
	}
}

func TestJournal_replayStopsOnError(t *testing.T) {
	for _, b := range backends {
		t.Run(b.desc, func(t *testing.T) {
			j := b.open(t, t.TempDir())
			defer func() {
				_ = j.Close()
			}()
			for _, e := range testEntries(5) {
				if err := j.Append(e); err != nil {
					t.Fatal(err)
				}
			}
			calls := 0
			err := j.Replay(func(journal.Entry) error {
				calls++
				if calls == 2 {
					return fmt.Errorf("stop")
				}
				return nil
			})
			if err == nil {
				t.Fatal("Replay() succeeded, want error")
			}
			if calls != 2 {
				t.Errorf("fn called %d times, want 2", calls)
			}
		})
	}
}

func TestOpenWAL_validate(t *testing.T) {
	lines := func(n int) string {
		path := filepath.Join(t.TempDir(), "src.wal")
		j, err := journal.OpenWAL(path)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range testEntries(n)[:n] {
			if err := j.Append(e); err != nil {
				t.Fatal(err)
			}
		}
		if err := j.Close(); err != nil {
			t.Fatal(err)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		return string(b)
	}

	testCases := []struct {
		desc         string
		fileContents string
		wantEntries  int
		wantErr      bool
	}{
		{
			desc:         "empty file",
			fileContents: "",
			wantEntries:  0,
		}, {
			desc:         "single entry",
			fileContents: lines(1),
			wantEntries:  1,
		}, {
			desc:         "several entries",
			fileContents: lines(3),
			wantEntries:  3,
		}, {
			desc:         "no trailing newline",
			fileContents: lines(2) + "2 oQ",
			wantErr:      true,
		}, {
			desc:         "lots of newlines",
			fileContents: lines(2) + "\n",
			wantErr:      true,
		}, {
			desc:         "corrupt last line",
			fileContents: lines(2) + "2 !!!\n",
			wantErr:      true,
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "journal.wal")
			if err := os.WriteFile(path, []byte(tC.fileContents), 0o644); err != nil {
				t.Fatal(err)
			}
			j, err := journal.OpenWAL(path)
			if gotErr := err != nil; gotErr != tC.wantErr {
				t.Fatalf("wantErr != gotErr (%t != %t) %v", tC.wantErr, gotErr, err)
			}
			if tC.wantErr {
				return
			}
			defer func() {
				_ = j.Close()
			}()
			if got := len(replayAll(t, j)); got != tC.wantEntries {
				t.Errorf("replayed %d entries, want %d", got, tC.wantEntries)
			}
			// The next append must follow on from the existing entries.
			if err := j.Append(journal.Entry{Path: "/next"}); err != nil {
				t.Fatal(err)
			}
			if got := len(replayAll(t, j)); got != tC.wantEntries+1 {
				t.Errorf("replayed %d entries after append, want %d", got, tC.wantEntries+1)
			}
		})
	}
}

func newHost(t *testing.T) *host.LocalHost {
	t.Helper()
	skey, _, err := note.GenerateKey(rand.Reader, "example.com/journal")
	if err != nil {
		t.Fatal(err)
	}
	s, _, err := fnote.NewEd25519SignerVerifier(skey)
	if err != nil {
		t.Fatal(err)
	}
	return host.NewLocalHost(s)
}

func TestRestore_reproducesRoot(t *testing.T) {
	for _, b := range backends {
		t.Run(b.desc, func(t *testing.T) {
			dir := t.TempDir()
			entries := append(testEntries(10), journal.Entry{Path: "/docs/index.html", Bytes: []byte("<html></html>")})

			h := newHost(t)
			live := assets.NewState()
			j := b.open(t, dir)
			for _, e := range entries {
				if err := h.Update(func(u host.UpdateContext) error {
					return live.InsertAsset(u, e.Path, e.Asset())
				}); err != nil {
					t.Fatal(err)
				}
				if err := j.Append(e); err != nil {
					t.Fatal(err)
				}
			}
			if err := j.Close(); err != nil {
				t.Fatal(err)
			}

			j = b.open(t, dir)
			defer func() {
				_ = j.Close()
			}()
			restored := assets.NewState()
			n, err := journal.Restore(j, newHost(t), restored)
			if err != nil {
				t.Fatal(err)
			}
			if got, want := n, len(entries); got != want {
				t.Errorf("restored %d entries, want %d", got, want)
			}
			if got, want := restored.RootHash(), live.RootHash(); got != want {
				t.Errorf("restored root %x, want %x", got, want)
			}
			if diff := cmp.Diff(live.Paths(), restored.Paths()); diff != "" {
				t.Errorf("paths diff (-want +got):\n%s", diff)
			}
		})
	}
}
