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

// client verifies responses from a certified asset server.
package client

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/transparency-dev/certassets/assets/api"
	"github.com/transparency-dev/certassets/hashtree"
	"github.com/transparency-dev/certassets/host"
	"github.com/transparency-dev/formats/log"
	"golang.org/x/mod/sumdb/note"
	"k8s.io/klog/v2"
)

// ErrNotCertified is returned when a response does not match the certified state.
var ErrNotCertified = errors.New("response is not certified")

// VerifyResponse checks a response to a request for path against the host key v.
//
// The certification header must carry a certificate signed by v and a witness
// that reconstructs to the certified data. A 200 response is accepted only if the
// witness reveals sha256(body) for path, and a 404 only if the witness proves that
// path has no asset. On success the verified certificate is returned.
func VerifyResponse(path string, status int, headers []api.HeaderField, body []byte, v note.Verifier) (*log.Checkpoint, error) {
	path, _, _ = strings.Cut(path, "?")

	var hdr string
	var found bool
	for _, h := range headers {
		if strings.EqualFold(h.Name, api.CertificateHeader) {
			hdr, found = h.Value, true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: no %s header", ErrNotCertified, api.CertificateHeader)
	}
	cert, rawTree, err := parseCertificateHeader(hdr)
	if err != nil {
		return nil, err
	}

	cp, err := host.VerifyCertificate(cert, v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotCertified, err)
	}
	tree, err := hashtree.Unmarshal(rawTree)
	if err != nil {
		return nil, fmt.Errorf("failed to decode witness: %v", err)
	}
	if root := hashtree.Reconstruct(tree); !bytes.Equal(root[:], cp.Hash) {
		return nil, fmt.Errorf("%w: witness root %x does not match certified data %x", ErrNotCertified, root, cp.Hash)
	}

	r := hashtree.Lookup(tree, []byte(api.AssetsLabel), []byte(path))
	switch status {
	case http.StatusOK:
		if r.Status != hashtree.Found {
			return nil, fmt.Errorf("%w: witness for %q is %v, want %v", ErrNotCertified, path, r.Status, hashtree.Found)
		}
		if h := sha256.Sum256(body); !bytes.Equal(r.Value, h[:]) {
			return nil, fmt.Errorf("%w: body hash %x, certified %x", ErrNotCertified, h, r.Value)
		}
	case http.StatusNotFound:
		if r.Status != hashtree.Absent {
			return nil, fmt.Errorf("%w: witness for %q is %v, want %v", ErrNotCertified, path, r.Status, hashtree.Absent)
		}
	default:
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrNotCertified, status)
	}
	return cp, nil
}

// parseCertificateHeader splits a certification header value into the raw
// certificate and the encoded witness.
func parseCertificateHeader(v string) ([]byte, []byte, error) {
	rest, ok := strings.CutPrefix(v, "certificate=:")
	if !ok {
		return nil, nil, fmt.Errorf("malformed certification header %q", v)
	}
	certB64, rest, ok := strings.Cut(rest, ":, tree=:")
	if !ok {
		return nil, nil, fmt.Errorf("malformed certification header %q", v)
	}
	treeB64, ok := strings.CutSuffix(rest, ":")
	if !ok {
		return nil, nil, fmt.Errorf("malformed certification header %q", v)
	}
	cert, err := base64.StdEncoding.DecodeString(certB64)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode certificate: %v", err)
	}
	tree, err := base64.StdEncoding.DecodeString(treeB64)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode tree: %v", err)
	}
	return cert, tree, nil
}

// New returns a client fetching assets from the server at baseURL, whose
// responses must be certified by the host key v.
func New(baseURL string, v note.Verifier, hc *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %v", err)
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: u, v: v, hc: hc}, nil
}

// Client fetches and verifies assets.
type Client struct {
	base *url.URL
	v    note.Verifier
	hc   *http.Client
}

// Response is a verified response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// Checkpoint is the verified certificate the response was checked against.
	// Its Hash is the certified data and its Size the host revision.
	Checkpoint *log.Checkpoint
}

// Get fetches path and verifies the response. A verified 404 is not an error.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse path %q: %v", path, err)
	}
	u := c.base.ResolveReference(ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	klog.V(1).Infof("Making request to %q", u.String())

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get URL %q: %v", u, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}

	var headers []api.HeaderField
	for _, v := range resp.Header.Values(api.CertificateHeader) {
		headers = append(headers, api.Header(api.CertificateHeader, v))
	}
	cp, err := VerifyResponse(u.Path, resp.StatusCode, headers, body, c.v)
	if err != nil {
		return nil, fmt.Errorf("failed to verify response for %q: %v", path, err)
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Checkpoint: cp,
	}, nil
}
