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

// assetclient fetches an asset from a certified asset server and writes it to
// stdout, only if the response verifies against the host key. Optionally, it also
// checks that the certified root was recorded in the server's root log.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/transparency-dev/certassets/assets/client"
	"golang.org/x/mod/sumdb/note"
	"k8s.io/klog/v2"
)

var (
	baseURL       = flag.String("base_url", "", "The base URL of the asset server.")
	path          = flag.String("path", "/", "The path of the asset to fetch.")
	hostPubKey    = flag.String("host_pub_key", "", "The public key to use to verify certificates.")
	rootLogURL    = flag.String("root_log_url", "", "The URL of the root log. If set, the certified root must be included in it.")
	rootLogPubKey = flag.String("root_log_pub_key", "", "The public key to use to verify root log checkpoints.")
	allowNotFound = flag.Bool("allow_not_found", false, "Exit successfully on a verified 404.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if err := run(context.Background()); err != nil {
		klog.Exitf("run failed: %v", err)
	}
}

func run(ctx context.Context) error {
	if *baseURL == "" {
		return errors.New("base_url flag must be provided")
	}
	if *hostPubKey == "" {
		return errors.New("host_pub_key flag must be provided")
	}
	v, err := note.NewVerifier(*hostPubKey)
	if err != nil {
		return fmt.Errorf("failed to construct host verifier: %v", err)
	}
	c, err := client.New(*baseURL, v, http.DefaultClient)
	if err != nil {
		return err
	}

	resp, err := c.Get(ctx, *path)
	if err != nil {
		return err
	}
	klog.Infof("Verified %d response for %q at revision %d", resp.StatusCode, *path, resp.Checkpoint.Size)

	if *rootLogURL != "" {
		if err := verifyLogged(ctx, resp); err != nil {
			return err
		}
	}

	if resp.StatusCode == http.StatusNotFound {
		if *allowNotFound {
			return nil
		}
		return fmt.Errorf("asset %q does not exist", *path)
	}
	_, err = os.Stdout.Write(resp.Body)
	return err
}

func verifyLogged(ctx context.Context, resp *client.Response) error {
	if *rootLogPubKey == "" {
		return errors.New("root_log_pub_key must be provided with root_log_url")
	}
	lv, err := note.NewVerifier(*rootLogPubKey)
	if err != nil {
		return fmt.Errorf("failed to construct root log verifier: %v", err)
	}
	rc, err := client.NewRootLogClient(*rootLogURL, lv, http.DefaultClient)
	if err != nil {
		return err
	}
	logCp, err := rc.VerifyLogged(ctx, resp.Checkpoint)
	if err != nil {
		return fmt.Errorf("certified root not found in root log: %v", err)
	}
	klog.Infof("Revision %d is included in root log of size %d", resp.Checkpoint.Size, logCp.Size)
	return nil
}
