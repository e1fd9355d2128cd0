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

package host

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/transparency-dev/formats/log"
	"github.com/transparency-dev/tessera"
	"github.com/transparency-dev/tessera/storage/posix"
	"golang.org/x/mod/sumdb/note"
	"k8s.io/klog/v2"
)

// RootLog is a transparency log of every value certified by a host. Each leaf
// records a revision and the certified data at that revision, which lets auditors
// check that a host never certified two different values for the same revision.
type RootLog struct {
	a *tessera.Appender
	r tessera.LogReader
	v note.Verifier
}

// NewRootLog returns a root log stored as a POSIX tile log in the given directory.
// The log's checkpoints are signed with s, which must not be the host's
// certificate key.
func NewRootLog(ctx context.Context, dir string, s note.Signer, v note.Verifier) (*RootLog, func(), error) {
	driver, err := posix.New(ctx, posix.Config{Path: dir})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create root log storage: %v", err)
	}

	appender, shutdown, reader, err := tessera.NewAppender(ctx, driver, tessera.NewAppendOptions().
		WithCheckpointSigner(s).
		WithCheckpointInterval(1*time.Second).
		WithBatching(1, time.Second))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get appender: %v", err)
	}

	l := &RootLog{
		a: appender,
		r: reader,
		v: v,
	}
	return l, func() {
		_ = shutdown(ctx)
	}, nil
}

// Hook returns a commit hook for a LocalHost that records every commit in this log.
// Entries are queued without waiting for them to be integrated.
func (l *RootLog) Hook(ctx context.Context) func(Commit) {
	return func(c Commit) {
		f := l.a.Add(ctx, tessera.NewEntry(MarshalRootLeaf(c.Revision, c.Data)))
		go func() {
			idx, err := f()
			if err != nil {
				klog.Warningf("Failed to add revision %d to root log: %v", c.Revision, err)
				return
			}
			klog.V(1).Infof("Added revision %d to root log at index %d", c.Revision, idx.Index)
		}()
	}
}

// Checkpoint returns the latest published checkpoint of the log.
func (l *RootLog) Checkpoint(ctx context.Context) ([]byte, error) {
	return l.r.ReadCheckpoint(ctx)
}

// Parse verifies and parses a checkpoint of this log.
func (l *RootLog) Parse(cpRaw []byte) (*log.Checkpoint, error) {
	cp, _, _, err := log.ParseCheckpoint(cpRaw, l.v.Name(), l.v)
	return cp, err
}

// Size returns the size of the log at its latest checkpoint, or 0 if no checkpoint
// has been published yet.
func (l *RootLog) Size(ctx context.Context) (uint64, error) {
	raw, err := l.Checkpoint(ctx)
	if err != nil {
		return 0, err
	}
	cp, err := l.Parse(raw)
	if err != nil {
		return 0, err
	}
	return cp.Size, nil
}

// MarshalRootLeaf returns the root log leaf recording data as certified at rev.
func MarshalRootLeaf(rev uint64, data []byte) []byte {
	m := strconv.AppendUint(nil, rev, 10)
	m = append(m, '\n')
	m = append(hex.AppendEncode(m, data), '\n')
	return m
}

// UnmarshalRootLeaf is the reverse of MarshalRootLeaf.
func UnmarshalRootLeaf(leaf []byte) (uint64, []byte, error) {
	lines := strings.Split(string(leaf), "\n")
	if len(lines) != 3 || lines[2] != "" {
		return 0, nil, fmt.Errorf("failed to parse root log leaf: %q", leaf)
	}
	rev, err := strconv.ParseUint(lines[0], 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to parse revision: %v", err)
	}
	data, err := hex.DecodeString(lines[1])
	if err != nil {
		return 0, nil, fmt.Errorf("failed to decode certified data: %v", err)
	}
	return rev, data, nil
}
