// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

// ExitError signals a non-zero exit code with an optional message.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

// NewRootCommand creates the root cobra command with its two verbs: scan
// and db update. The root itself takes no action.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bardscan",
		Short:   "Scan npm lockfiles for known dependency vulnerabilities",
		Version: Version,
		Long: `bardscan resolves an npm, pnpm, yarn, or bun lockfile, matches every
dependency against the OSV advisory database, and writes a deterministic
vulnerability report in JSON, Markdown, and/or SARIF.

Usage:
  bardscan scan .
  bardscan scan . --privacy standard --fail-on critical`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newScanCommand())
	cmd.AddCommand(newDBCommand())

	return cmd
}
