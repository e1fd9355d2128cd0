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

package journal

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// Pebble is a Journal stored in a Pebble database, keyed by the big-endian
// sequence number of each entry so that iteration order is append order.
type Pebble struct {
	db   *pebble.DB
	next uint64
}

// OpenPebble opens or creates a Pebble journal in dir.
func OpenPebble(dir string) (*Pebble, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble db at %q: %v", dir, err)
	}
	p := &Pebble{db: db}
	it, err := db.NewIter(nil)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create iterator: %v", err), db.Close())
	}
	if it.Last() {
		seq, err := parseKey(it.Key())
		if err != nil {
			return nil, errors.Join(err, it.Close(), db.Close())
		}
		p.next = seq + 1
	}
	if err := it.Close(); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	return p, nil
}

func seqKey(seq uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, seq)
}

func parseKey(k []byte) (uint64, error) {
	if len(k) != 8 {
		return 0, fmt.Errorf("unexpected key length %d", len(k))
	}
	return binary.BigEndian.Uint64(k), nil
}

// Append implements Journal.
func (p *Pebble) Append(e Entry) error {
	b, err := marshalEntry(e)
	if err != nil {
		return fmt.Errorf("failed to marshal entry %d: %v", p.next, err)
	}
	if err := p.db.Set(seqKey(p.next), b, pebble.Sync); err != nil {
		return fmt.Errorf("failed to write entry %d: %v", p.next, err)
	}
	p.next++
	return nil
}

// Replay implements Journal.
func (p *Pebble) Replay(fn func(Entry) error) (err error) {
	it, err := p.db.NewIter(nil)
	if err != nil {
		return fmt.Errorf("failed to create iterator: %v", err)
	}
	defer func() {
		err = errors.Join(err, it.Close())
	}()

	want := uint64(0)
	for valid := it.First(); valid; valid = it.Next() {
		seq, err := parseKey(it.Key())
		if err != nil {
			return err
		}
		if seq != want {
			return fmt.Errorf("expected entry %d but found %d", want, seq)
		}
		e, err := unmarshalEntry(it.Value())
		if err != nil {
			return fmt.Errorf("entry %d: %v", seq, err)
		}
		if err := fn(e); err != nil {
			return err
		}
		want++
	}
	return nil
}

// Close implements Journal.
func (p *Pebble) Close() error {
	return p.db.Close()
}
