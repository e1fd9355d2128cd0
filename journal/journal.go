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

// journal persists inserted assets so that a server can rebuild its certified
// state after a restart.
//
// The certified state is a pure function of the sequence of insertions, so
// replaying the journal in order through assets.State.InsertAsset reproduces the
// same tree and root hash.
package journal

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/transparency-dev/certassets/assets"
	"github.com/transparency-dev/certassets/assets/api"
	"github.com/transparency-dev/certassets/host"
	"k8s.io/klog/v2"
)

// Entry is a single recorded insertion.
type Entry struct {
	Path    string
	Headers []api.HeaderField
	Bytes   []byte
}

// Asset returns the asset that was inserted.
func (e Entry) Asset() assets.Asset {
	return assets.Asset{Headers: e.Headers, Bytes: e.Bytes}
}

// Journal is an append-only record of insertions.
type Journal interface {
	// Append durably records e after all previously appended entries.
	Append(e Entry) error
	// Replay calls fn with every entry in the order they were appended.
	// It stops at the first error returned by fn.
	Replay(fn func(Entry) error) error
	Close() error
}

// Restore replays every entry in j into s within a single update on h, and
// returns the number of entries replayed.
func Restore(j Journal, h host.Host, s *assets.State) (int, error) {
	n := 0
	err := h.Update(func(u host.UpdateContext) error {
		return j.Replay(func(e Entry) error {
			n++
			return s.InsertAsset(u, e.Path, e.Asset())
		})
	})
	if err != nil {
		return 0, fmt.Errorf("failed to restore from journal after %d entries: %v", n, err)
	}
	klog.Infof("Restored %d assets from journal", n)
	return n, nil
}

type wireHeader struct {
	_     struct{} `cbor:",toarray"`
	Name  string
	Value string
}

type wireEntry struct {
	_       struct{} `cbor:",toarray"`
	Path    string
	Headers []wireHeader
	Bytes   []byte
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic(err)
	}
}

// marshalEntry encodes e as a CBOR array of path, headers and bytes.
func marshalEntry(e Entry) ([]byte, error) {
	w := wireEntry{Path: e.Path, Bytes: e.Bytes}
	if w.Bytes == nil {
		w.Bytes = []byte{}
	}
	w.Headers = make([]wireHeader, 0, len(e.Headers))
	for _, h := range e.Headers {
		w.Headers = append(w.Headers, wireHeader{Name: h.Name, Value: h.Value})
	}
	return encMode.Marshal(w)
}

// unmarshalEntry is the reverse of marshalEntry.
func unmarshalEntry(b []byte) (Entry, error) {
	var w wireEntry
	if err := decMode.Unmarshal(b, &w); err != nil {
		return Entry{}, fmt.Errorf("failed to decode entry: %v", err)
	}
	e := Entry{Path: w.Path, Bytes: w.Bytes}
	for _, h := range w.Headers {
		e.Headers = append(e.Headers, api.Header(h.Name, h.Value))
	}
	return e, nil
}
