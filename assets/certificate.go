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

package assets

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/transparency-dev/certassets/assets/api"
	"github.com/transparency-dev/certassets/hashtree"
	"github.com/transparency-dev/certassets/host"
)

var (
	// ErrContractViolation is returned when the host does not provide what the
	// request pipeline requires of it, such as a data certificate in a query.
	ErrContractViolation = errors.New("host contract violation")
	// ErrSerialization is returned when a witness cannot be encoded.
	ErrSerialization = errors.New("witness serialization failed")
)

// CertificateHeader builds the certification header for a response to path.
//
// The header carries the host's data certificate and a witness revealing the
// leaf for path if t has one, or proving its absence otherwise. The witness is
// wrapped under the assets label so that it reconstructs to the certified data.
func CertificateHeader(q host.QueryContext, t *hashtree.Tree, path string) (api.HeaderField, error) {
	cert, ok := q.DataCertificate()
	if !ok {
		return api.HeaderField{}, fmt.Errorf("%w: data certificate is only available in query calls", ErrContractViolation)
	}
	witness := hashtree.Labeled{
		Label: []byte(api.AssetsLabel),
		Tree:  t.Witness([]byte(path)),
	}
	tree, err := hashtree.Marshal(witness)
	if err != nil {
		return api.HeaderField{}, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return api.Header(api.CertificateHeader, fmt.Sprintf("certificate=:%s:, tree=:%s:",
		base64.StdEncoding.EncodeToString(cert),
		base64.StdEncoding.EncodeToString(tree))), nil
}
