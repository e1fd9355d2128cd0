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

// assetserver serves a directory of static files, and any assets uploaded to it
// afterwards, as certified HTTP responses.
//
// Every response carries a certificate signed with the host key, and a witness
// that ties the response to the certified root of all assets. Optionally, every
// certified root is recorded in a Tessera POSIX log which is served alongside the
// assets so that clients can audit the history of the host.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/transparency-dev/certassets/assets"
	"github.com/transparency-dev/certassets/host"
	"github.com/transparency-dev/certassets/journal"
	fnote "github.com/transparency-dev/formats/note"
	"golang.org/x/mod/sumdb/note"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

var (
	listen             = flag.String("listen", ":8080", "Address to serve certified assets on")
	adminListen        = flag.String("admin_listen", "localhost:8081", "Address to serve the admin API and metrics on")
	assetDir           = flag.String("asset_dir", "", "Directory of files to certify and serve at startup. Optional.")
	journalPath        = flag.String("journal", "", "Location of the journal of uploaded assets. If unset, uploads are lost on restart.")
	journalType        = flag.String("journal_type", "wal", "Journal backend, one of wal or pebble. A wal journal is a file, a pebble journal is a directory.")
	rootLogDir         = flag.String("root_log_dir", "", "Directory to store the log of certified roots in. If unset, no root log is kept.")
	hostPrivKeyFile    = flag.String("host_private_key", "", "Location of private key file used to sign certificates. If unset, uses the contents of the HOST_PRIVATE_KEY environment variable.")
	rootLogPrivKeyFile = flag.String("root_log_private_key", "", "Location of private key file for the root log. If unset, uses the contents of the ROOT_LOG_PRIVATE_KEY environment variable.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		klog.Exitf("Run failed: %v", err)
	}
}

func run(ctx context.Context) error {
	hs, hv := signerVerifierOrDie(*hostPrivKeyFile, "HOST_PRIVATE_KEY", "--host_private_key")
	klog.Infof("Certifying as %q", hv.Name())

	m := newMetrics()
	opts := []host.LocalOption{host.WithCommitHook(m.observeCommit)}
	public := mux.NewRouter()

	if *rootLogDir != "" {
		ls, lv := signerVerifierOrDie(*rootLogPrivKeyFile, "ROOT_LOG_PRIVATE_KEY", "--root_log_private_key")
		if ls.Name() == hs.Name() {
			return errors.New("root log and host keys must have different names")
		}
		if err := os.MkdirAll(*rootLogDir, 0o755); err != nil {
			return fmt.Errorf("failed to create root log directory: %v", err)
		}
		rl, closer, err := host.NewRootLog(ctx, *rootLogDir, ls, lv)
		if err != nil {
			return err
		}
		defer closer()
		size, err := rl.Size(ctx)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read root log size: %v", err)
		}
		// Revisions continue from the log so that revision r stays at index r-1.
		opts = append(opts, host.WithRevision(size), host.WithCommitHook(rl.Hook(ctx)))
		public.PathPrefix("/rootlog/").Handler(http.StripPrefix("/rootlog/", http.FileServer(http.Dir(*rootLogDir))))
		klog.Infof("Recording certified roots in %q from revision %d", *rootLogDir, size+1)
	}

	h := host.NewLocalHost(hs, opts...)
	s := assets.NewState()

	if *assetDir != "" {
		n, err := loadDir(h, s, os.DirFS(*assetDir))
		if err != nil {
			return fmt.Errorf("failed to load %q: %v", *assetDir, err)
		}
		klog.Infof("Loaded %d files from %q", n, *assetDir)
	}

	j, err := openJournal()
	if err != nil {
		return err
	}
	if j != nil {
		defer func() {
			if err := j.Close(); err != nil {
				klog.Warningf("Failed to close journal: %v", err)
			}
		}()
		if _, err := journal.Restore(j, h, s); err != nil {
			return err
		}
	}
	if err := h.Update(func(u host.UpdateContext) error {
		if err := s.InsertFavicon(u); err != nil {
			return err
		}
		m.assets.Set(float64(s.Len()))
		return nil
	}); err != nil {
		return fmt.Errorf("failed to insert favicon: %v", err)
	}

	public.PathPrefix("/").Handler(assets.NewObservedHandler(h, s, m.observeResponse))
	admin := mux.NewRouter()
	newAdminServer(h, s, j, m).registerHandlers(admin)

	return serve(ctx, map[string]http.Handler{
		*listen:      public,
		*adminListen: admin,
	})
}

// serve runs an HTTP server for each address until ctx is done or one fails.
func serve(ctx context.Context, handlers map[string]http.Handler) error {
	eg, ctx := errgroup.WithContext(ctx)
	for addr, handler := range handlers {
		srv := &http.Server{
			Addr:    addr,
			Handler: handler,
		}
		eg.Go(func() error {
			klog.Infof("Started HTTP server listening on %s", addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server on %s failed: %v", addr, err)
			}
			return nil
		})
		eg.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}
	return eg.Wait()
}

// openJournal opens the journal configured by flags, or returns nil if there is none.
func openJournal() (journal.Journal, error) {
	if *journalPath == "" {
		return nil, nil
	}
	switch *journalType {
	case "wal":
		return journal.OpenWAL(*journalPath)
	case "pebble":
		return journal.OpenPebble(*journalPath)
	}
	return nil, fmt.Errorf("unknown journal_type %q", *journalType)
}

// Read a private key from file or environment variable and generate the note
// Signer and Verifier pair for it.
func signerVerifierOrDie(keyFile, env, flagName string) (note.Signer, note.Verifier) {
	var privKey string
	var err error
	if len(keyFile) > 0 {
		privKey, err = getKeyFile(keyFile)
		if err != nil {
			klog.Exitf("Unable to get private key: %v", err)
		}
	} else {
		privKey = os.Getenv(env)
		if len(privKey) == 0 {
			klog.Exitf("Supply private key file path using %s or set %s environment variable", flagName, env)
		}
	}
	s, v, err := fnote.NewEd25519SignerVerifier(privKey)
	if err != nil {
		klog.Exitf("Failed to get signer/verifier: %v", err)
	}
	return s, v
}

func getKeyFile(path string) (string, error) {
	k, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read key file: %w", err)
	}
	return string(k), nil
}
