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
	"bufio"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// WAL is a Journal stored in a single text file, one entry per line. Each line is
// the sequence number of the entry followed by a space and the base64 encoding of
// the CBOR entry.
type WAL struct {
	path string
	f    *os.File
	out  io.Writer
	next uint64
}

// OpenWAL opens the WAL at path for appending, creating it if it does not exist.
//
// The existing file is validated first: it must end with a newline, and its last
// line must be a well formed entry. A torn final write is reported as an error
// rather than silently dropped, as the entry may already have been served.
func OpenWAL(path string) (*WAL, error) {
	ffs := os.O_WRONLY | os.O_APPEND
	w := &WAL{path: path}

	last, err := w.validate()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		ffs |= os.O_CREATE | os.O_EXCL
	} else {
		w.next = last + 1
	}
	w.f, err = os.OpenFile(path, ffs, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file for writing: %s", err)
	}
	w.out = w.f
	return w, nil
}

// validate reads the file and returns the sequence number of its last entry.
func (w *WAL) validate() (uint64, error) {
	f, err := os.Open(w.path)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = f.Close()
	}()
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}

	size := fi.Size()
	if size == 0 {
		if err := os.Remove(w.path); err != nil {
			return 0, fmt.Errorf("failed to delete empty file: %s", err)
		}
		return 0, os.ErrNotExist
	}

	lastChar := make([]byte, 1)
	if _, err := f.ReadAt(lastChar, size-1); err != nil {
		return 0, err
	}
	if lastChar[0] != '\n' {
		return 0, fmt.Errorf("expected final newline but got '%x'", lastChar[0])
	}

	// Read from the end of the file in stripes until another newline or the start
	// of the file is found.
	var lastLine string
	const stripeSize = 1024
	readStripe := make([]byte, stripeSize)
	currOffset := size - 1 - stripeSize

	for {
		if currOffset < 0 {
			readStripe = readStripe[:stripeSize+currOffset]
			currOffset = 0
		}
		if _, err := f.ReadAt(readStripe, currOffset); err != nil {
			return 0, err
		}
		lastLine = string(readStripe) + lastLine
		if idx := strings.LastIndexByte(lastLine, '\n'); idx >= 0 {
			lastLine = lastLine[idx+1:]
			break
		}
		if currOffset == 0 {
			break
		}
		currOffset = currOffset - stripeSize
	}

	seq, _, err := unmarshalWALLine(lastLine)
	return seq, err
}

// Append implements Journal.
//
// A failed write is truncated away, so the file never holds part of a line.
func (w *WAL) Append(e Entry) error {
	line, err := marshalWALLine(w.next, e)
	if err != nil {
		return fmt.Errorf("failed to marshal entry %d: %v", w.next, err)
	}
	fi, err := w.f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %v", err)
	}
	if _, err := io.WriteString(w.out, line+"\n"); err != nil {
		return errors.Join(fmt.Errorf("failed to write entry %d: %v", w.next, err), w.truncate(fi.Size()))
	}
	if err := w.f.Sync(); err != nil {
		return errors.Join(fmt.Errorf("failed to sync entry %d: %v", w.next, err), w.truncate(fi.Size()))
	}
	w.next++
	return nil
}

// truncate discards everything after the first size bytes of the file.
func (w *WAL) truncate(size int64) error {
	if err := w.f.Truncate(size); err != nil {
		return fmt.Errorf("failed to truncate to %d bytes: %v", size, err)
	}
	return nil
}

// Replay implements Journal.
func (w *WAL) Replay(fn func(Entry) error) error {
	f, err := os.Open(w.path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	r := bufio.NewReader(f)
	for want := uint64(0); ; want++ {
		line, err := r.ReadString('\n')
		if err != nil {
			if err == io.EOF && line == "" {
				return nil
			}
			return fmt.Errorf("failed to read entry %d: %v", want, err)
		}
		seq, e, err := unmarshalWALLine(line[:len(line)-1])
		if err != nil {
			return err
		}
		if seq != want {
			return fmt.Errorf("expected entry %d but found %d", want, seq)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
}

// Close implements Journal.
func (w *WAL) Close() error {
	return w.f.Close()
}

// marshalWALLine converts a sequence number and entry into a line for the WAL,
// without the trailing newline.
func marshalWALLine(seq uint64, e Entry) (string, error) {
	b, err := marshalEntry(e)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(seq, 10) + " " + base64.StdEncoding.EncodeToString(b), nil
}

// unmarshalWALLine is the reverse of marshalWALLine.
func unmarshalWALLine(line string) (uint64, Entry, error) {
	seqStr, enc, ok := strings.Cut(line, " ")
	if !ok {
		return 0, Entry{}, fmt.Errorf("malformed line %q", line)
	}
	seq, err := strconv.ParseUint(seqStr, 10, 64)
	if err != nil {
		return 0, Entry{}, fmt.Errorf("failed to parse sequence number from %q", seqStr)
	}
	b, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return 0, Entry{}, fmt.Errorf("failed to decode entry %d: %v", seq, err)
	}
	e, err := unmarshalEntry(b)
	if err != nil {
		return 0, Entry{}, fmt.Errorf("entry %d: %v", seq, err)
	}
	return seq, e, nil
}
