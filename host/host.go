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

// host describes the execution environment that certified state runs inside.
//
// The host serializes all state changing calls (updates), lets read-only calls
// (queries) run concurrently with each other, and maintains a single certified
// data slot that it attests to. The attestation, a certificate, is only available
// to queries: during an update the new certified data has not been committed yet.
//
// Access to each side of the API is only possible through the context handed to
// the callback of Update or Query, so asking for a certificate while mutating
// state is a compile error rather than a runtime failure.
package host

import "errors"

// MaxCertifiedDataSize is the size of the host's certified data slot.
const MaxCertifiedDataSize = 32

// ErrClosed is returned when a context is used after its callback has returned.
var ErrClosed = errors.New("host context used outside of its call")

// UpdateContext is the capability handed to state changing calls.
type UpdateContext interface {
	// SetCertifiedData replaces the contents of the certified data slot.
	// The new value is certified once the update returns successfully.
	SetCertifiedData(data []byte) error
}

// QueryContext is the capability handed to read-only calls.
type QueryContext interface {
	// DataCertificate returns the host's certificate over the current
	// certified data, if one has been issued.
	DataCertificate() ([]byte, bool)
}

// Host runs calls against the state it hosts.
type Host interface {
	// Update runs fn exclusively. If fn returns an error, any change it made to
	// the certified data is discarded.
	Update(fn func(UpdateContext) error) error
	// Query runs fn concurrently with other queries, but never with an update.
	Query(fn func(QueryContext) error) error
}
