// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bardcheck/bardscan/internal/lockfile"
	"github.com/bardcheck/bardscan/internal/osv"
)

// dbOptions holds the flags shared by db update.
type dbOptions struct {
	outDir  string
	osvURL  string
	privacy string
}

func newDBCommand() *cobra.Command {
	opts := &dbOptions{}

	db := &cobra.Command{
		Use:   "db",
		Short: "Manage the local advisory cache",
	}

	update := &cobra.Command{
		Use:   "update [path]",
		Short: "Warm the advisory cache for a project's lockfile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) == 1 {
				target = args[0]
			}
			return runDBUpdate(cmd, target, opts)
		},
	}

	flags := update.Flags()
	flags.StringVar(&opts.outDir, "out-dir", "./.bardcheck", "Cache root directory")
	flags.StringVar(&opts.osvURL, "osv-url", defaultOSVURL, "Override the OSV mirror base URL")
	flags.StringVar(&opts.privacy, "privacy", "strict", "Privacy preset: strict|standard")

	db.AddCommand(update)
	return db
}

// runDBUpdate primes the advisory cache for every dependency in the target's
// lockfile. It never fails the process for network or advisory-availability
// reasons: a cache warm is best-effort, matching the batch cache's
// write-once, read-many semantics.
func runDBUpdate(cmd *cobra.Command, target string, opts *dbOptions) error {
	preset := resolvePrivacyPreset(opts.privacy)

	lock, err := lockfile.Resolve(target)
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return &ExitError{Code: 2, Message: fmt.Sprintf("creating out-dir: %v", err)}
	}

	cacheDir := filepath.Join(opts.outDir, ".cache", "osv")
	client := osv.NewClient(cacheDir, false, false, opts.osvURL, preset.fallbackCalls, &http.Client{})

	if _, err := client.BatchQuery(cmd.Context(), lock.Nodes); err != nil {
		fmt.Fprintf(os.Stderr, "warning: db update: %v\n", err)
		return nil
	}

	fmt.Fprintf(os.Stdout, "cache warmed for %d dependencies\n", lock.Len())
	return nil
}
