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

package host_test

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"testing"
	"time"

	"github.com/transparency-dev/certassets/host"
)

func TestRootLog_Hook(t *testing.T) {
	s, v := mustSignerVerifier(t, "example.com/rootlog")
	testCases := []struct {
		desc      string
		revisions int
	}{
		{
			desc:      "single revision",
			revisions: 1,
		}, {
			desc:      "multiple revisions",
			revisions: 3,
		},
	}
	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			l, closer, err := host.NewRootLog(t.Context(), t.TempDir(), s, v)
			if err != nil {
				t.Fatal(err)
			}
			defer closer()

			hook := l.Hook(t.Context())
			for i := range tC.revisions {
				data := sha256.Sum256(fmt.Appendf(nil, "root %d", i))
				hook(host.Commit{Revision: uint64(i + 1), Data: data[:]})
			}

			want := uint64(tC.revisions)
			deadline := time.Now().Add(10 * time.Second)
			for {
				got, err := l.Size(t.Context())
				if err == nil && got == want {
					break
				}
				if time.Now().After(deadline) {
					t.Fatalf("Size() = %d, %v after 10s, want %d", got, err, want)
				}
				time.Sleep(100 * time.Millisecond)
			}
		})
	}
}

func TestRootLeafRoundtrip(t *testing.T) {
	in := sha256.Sum256([]byte("test123"))
	leaf := host.MarshalRootLeaf(42, in[:])

	rev, out, err := host.UnmarshalRootLeaf(leaf)
	if err != nil {
		t.Fatal(err)
	}
	if rev != 42 {
		t.Errorf("expected revision 42 but got %d", rev)
	}
	if !bytes.Equal(in[:], out) {
		t.Errorf("expected %x but got %x", in, out)
	}
	if _, _, err := host.UnmarshalRootLeaf([]byte("42\nzz\n")); err == nil {
		t.Error("expected error for invalid hex")
	}
}
