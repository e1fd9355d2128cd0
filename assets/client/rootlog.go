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

package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/transparency-dev/certassets/host"
	"github.com/transparency-dev/formats/log"
	"github.com/transparency-dev/merkle/proof"
	"github.com/transparency-dev/merkle/rfc6962"
	"github.com/transparency-dev/tessera/api/layout"
	"github.com/transparency-dev/tessera/client"
	"golang.org/x/mod/sumdb/note"
)

// NewRootLogClient returns a client for the root log published at rootLogURL,
// whose checkpoints are signed by v.
func NewRootLogClient(rootLogURL string, v note.Verifier, hc *http.Client) (*RootLogClient, error) {
	u, err := url.Parse(rootLogURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %v", err)
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	f, err := client.NewHTTPFetcher(u, hc)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP fetcher for %q: %v", u, err)
	}
	return &RootLogClient{v: v, lc: f}, nil
}

// RootLogClient checks that certificates were recorded in the root log.
type RootLogClient struct {
	v  note.Verifier
	lc logClient
}

// VerifyLogged checks that the certified data in cp was committed to the root log
// at its revision. Revision r is recorded at index r-1. The root log checkpoint the
// inclusion was proven against is returned.
func (c *RootLogClient) VerifyLogged(ctx context.Context, cp *log.Checkpoint) (*log.Checkpoint, error) {
	if cp.Size == 0 {
		return nil, fmt.Errorf("revision 0 is never certified")
	}
	rawCp, err := c.lc.ReadCheckpoint(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read root log checkpoint: %v", err)
	}
	logCp, _, _, err := log.ParseCheckpoint(rawCp, c.v.Name(), c.v)
	if err != nil {
		return nil, fmt.Errorf("failed to parse root log checkpoint: %v", err)
	}
	idx := cp.Size - 1
	if idx >= logCp.Size {
		return nil, fmt.Errorf("revision %d not yet in root log of size %d", cp.Size, logCp.Size)
	}

	pb, err := client.NewProofBuilder(ctx, logCp.Size, c.lc.ReadTile)
	if err != nil {
		return nil, fmt.Errorf("failed to create proof builder: %v", err)
	}
	ip, err := pb.InclusionProof(ctx, idx)
	if err != nil {
		return nil, fmt.Errorf("failed to get inclusion proof: %v", err)
	}
	bundle, err := client.GetEntryBundle(ctx, c.lc.ReadEntryBundle, idx/layout.EntryBundleWidth, logCp.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to get entry bundle: %v", err)
	}
	leaf := bundle.Entries[idx%layout.EntryBundleWidth]
	if want := host.MarshalRootLeaf(cp.Size, cp.Hash); !bytes.Equal(leaf, want) {
		return nil, fmt.Errorf("root log has %q at index %d, want %q", leaf, idx, want)
	}

	lh := rfc6962.DefaultHasher.HashLeaf(leaf)
	if err := proof.VerifyInclusion(rfc6962.DefaultHasher, idx, logCp.Size, lh, ip, logCp.Hash); err != nil {
		return nil, fmt.Errorf("failed to verify inclusion proof: %v", err)
	}
	return logCp, nil
}

// logClient describes what we need from a log client.
type logClient interface {
	ReadCheckpoint(ctx context.Context) ([]byte, error)
	ReadTile(ctx context.Context, l, i uint64, p uint8) ([]byte, error)
	ReadEntryBundle(ctx context.Context, i uint64, p uint8) ([]byte, error)
}
