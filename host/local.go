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
	"bytes"
	"fmt"
	"sync"

	"github.com/transparency-dev/formats/log"
	"golang.org/x/mod/sumdb/note"
	"k8s.io/klog/v2"
)

// Commit describes a newly certified value of the certified data slot.
type Commit struct {
	// Revision increases by one every time the certified data changes.
	Revision uint64
	// Data is the certified data.
	Data []byte
	// Certificate is the signed statement binding Revision and Data.
	Certificate []byte
}

// LocalOption configures a LocalHost.
type LocalOption func(*LocalHost)

// WithCommitHook registers f to be called with every new certificate. Hooks run
// while the host is still locked, in revision order, and must not block.
func WithCommitHook(f func(Commit)) LocalOption {
	return func(h *LocalHost) {
		h.hooks = append(h.hooks, f)
	}
}

// WithRevision sets the revision of the last certificate issued by a previous
// instance of this host, so that revisions keep increasing across restarts.
func WithRevision(rev uint64) LocalOption {
	return func(h *LocalHost) {
		h.revision = rev
	}
}

// NewLocalHost returns a host that runs calls in-process and certifies its data
// by signing a checkpoint with s.
//
// The certificate is a signed note in the checkpoint format: the origin line is the
// signer's name, the size line is the revision, and the hash line is the certified
// data. Verify it with VerifyCertificate.
func NewLocalHost(s note.Signer, opts ...LocalOption) *LocalHost {
	h := &LocalHost{signer: s}
	for _, o := range opts {
		o(h)
	}
	return h
}

// LocalHost is an in-process Host.
type LocalHost struct {
	signer note.Signer
	hooks  []func(Commit)

	mu       sync.RWMutex // covers everything below
	data     []byte
	revision uint64
	cert     []byte
}

// Update implements Host.
func (h *LocalHost) Update(fn func(UpdateContext) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	u := &updateContext{data: h.data}
	defer u.close()
	if err := fn(u); err != nil {
		return err
	}
	if !u.dirty || (h.cert != nil && bytes.Equal(u.data, h.data)) {
		return nil
	}

	rev := h.revision + 1
	cert, err := h.certify(rev, u.data)
	if err != nil {
		return fmt.Errorf("failed to certify data: %v", err)
	}
	h.data, h.revision, h.cert = u.data, rev, cert
	klog.V(1).Infof("Certified data at revision %d: %x", rev, u.data)

	c := Commit{Revision: rev, Data: bytes.Clone(u.data), Certificate: bytes.Clone(cert)}
	for _, f := range h.hooks {
		f(c)
	}
	return nil
}

// Query implements Host.
func (h *LocalHost) Query(fn func(QueryContext) error) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	q := &queryContext{cert: h.cert}
	defer q.close()
	return fn(q)
}

// Revision returns the revision of the latest certificate.
func (h *LocalHost) Revision() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.revision
}

func (h *LocalHost) certify(rev uint64, data []byte) ([]byte, error) {
	cp := log.Checkpoint{
		Origin: h.signer.Name(),
		Size:   rev,
		Hash:   data,
	}
	return note.Sign(&note.Note{Text: string(cp.Marshal())}, h.signer)
}

type updateContext struct {
	mu     sync.Mutex
	closed bool
	dirty  bool
	data   []byte
}

func (u *updateContext) SetCertifiedData(data []byte) error {
	if len(data) > MaxCertifiedDataSize {
		return fmt.Errorf("certified data is %d bytes, max %d", len(data), MaxCertifiedDataSize)
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return ErrClosed
	}
	u.data = bytes.Clone(data)
	u.dirty = true
	return nil
}

func (u *updateContext) close() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.closed = true
}

type queryContext struct {
	mu     sync.Mutex
	closed bool
	cert   []byte
}

func (q *queryContext) DataCertificate() ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || q.cert == nil {
		return nil, false
	}
	return bytes.Clone(q.cert), true
}

func (q *queryContext) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

// VerifyCertificate checks that cert was issued by the host holding the key for v,
// and returns the certified statement. The certified data is in the Hash field and
// the revision in Size.
func VerifyCertificate(cert []byte, v note.Verifier) (*log.Checkpoint, error) {
	cp, _, _, err := log.ParseCheckpoint(cert, v.Name(), v)
	if err != nil {
		return nil, fmt.Errorf("failed to verify certificate: %v", err)
	}
	return cp, nil
}
