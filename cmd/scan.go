// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bardcheck/bardscan/internal/lockfile"
	"github.com/bardcheck/bardscan/internal/output"
	"github.com/bardcheck/bardscan/internal/report"
	"github.com/bardcheck/bardscan/internal/scan"
	"github.com/bardcheck/bardscan/internal/types"
)

const defaultOSVURL = "https://api.osv.dev"

// scanOptions holds all flag values for the scan verb.
type scanOptions struct {
	format         string
	outDir         string
	failOn         string
	offline        bool
	unknownAs      string
	refreshCache   bool
	listFindings   string
	findingsJSON   string
	privacy        string
	fallbackCalls  bool
	redactPaths    bool
	evidence       string
	failOnUnknown  bool
	osvURL         string
}

func newScanCommand() *cobra.Command {
	opts := &scanOptions{}

	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a project's lockfile for known vulnerabilities",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "."
			if len(args) == 1 {
				target = args[0]
			}
			return runScan(cmd, target, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.format, "format", "both", "Report format: json|md|sarif|both")
	flags.StringVar(&opts.outDir, "out-dir", "./.bardcheck", "Report and cache root directory")
	flags.StringVar(&opts.failOn, "fail-on", "high", "Minimum severity that triggers exit 1: critical|high|medium|low|none")
	flags.BoolVar(&opts.offline, "offline", false, "Cache-only: never query OSV for missing entries")
	flags.StringVar(&opts.unknownAs, "unknown-as", "unknown", "Re-classify unresolved findings to this severity")
	flags.BoolVar(&opts.refreshCache, "refresh-cache", false, "Ignore cache reads, re-fetch every advisory")
	flags.StringVar(&opts.listFindings, "list-findings", "none", "Console listing filter: none|critical-high|medium-up|all")
	flags.StringVar(&opts.findingsJSON, "findings-json", "", "Write the filtered findings list as JSON to this path")
	flags.StringVar(&opts.privacy, "privacy", "strict", "Privacy preset: strict|standard")
	flags.BoolVar(&opts.fallbackCalls, "fallback-calls", false, "Enable the OSV detail/NVD/GHSA enrichment chain")
	flags.BoolVar(&opts.redactPaths, "redact-paths", false, "Strip target/evidence paths from reports")
	flags.StringVar(&opts.evidence, "evidence", "none", "Evidence collection mode: none|imports")
	flags.BoolVar(&opts.failOnUnknown, "fail-on-unknown", false, "Also exit 1 if any finding could not be resolved")
	flags.StringVar(&opts.osvURL, "osv-url", defaultOSVURL, "Override the OSV mirror base URL")

	return cmd
}

func runScan(cmd *cobra.Command, target string, opts *scanOptions) error {
	preset := resolvePrivacyPreset(opts.privacy)
	changed := cmd.Flags().Changed

	if !changed("offline") {
		opts.offline = preset.offline
	}
	if !changed("fallback-calls") {
		opts.fallbackCalls = preset.fallbackCalls
	}
	if !changed("redact-paths") {
		opts.redactPaths = preset.redactPaths
	}
	if !changed("evidence") {
		opts.evidence = string(preset.evidence)
	}

	if opts.privacy == "strict" && changed("offline") && !opts.offline {
		return &ExitError{Code: 2, Message: "config conflict: --offline=false is not permitted under --privacy strict"}
	}

	failOn, err := parseFailOn(opts.failOn)
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	unknownAs := types.ParseSeverity(opts.unknownAs)
	if opts.unknownAs != "unknown" && unknownAs == types.SeverityUnknown {
		return &ExitError{Code: 2, Message: fmt.Sprintf("invalid --unknown-as value: %q", opts.unknownAs)}
	}

	evidenceMode, err := parseEvidenceMode(opts.evidence)
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}

	switch opts.format {
	case "json", "md", "sarif", "both":
	default:
		return &ExitError{Code: 2, Message: fmt.Sprintf("invalid --format value: %q", opts.format)}
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return &ExitError{Code: 2, Message: fmt.Sprintf("creating out-dir: %v", err)}
	}

	scanResult, err := scan.Run(cmd.Context(), scan.Options{
		TargetPath:             target,
		OutDir:                 opts.outDir,
		FailOn:                 failOn,
		FailOnUnknown:          opts.failOnUnknown,
		Offline:                opts.offline,
		RefreshCache:           opts.refreshCache,
		UnknownAs:              unknownAs,
		OSVURL:                 opts.osvURL,
		EnableNetworkFallbacks: opts.fallbackCalls,
		EvidenceMode:           evidenceMode,
		HTTPClient:             &http.Client{},
	})
	if err != nil {
		return mapScanError(err)
	}

	writeReport := *scanResult
	if opts.redactPaths {
		writeReport = report.Redact(writeReport)
	}

	if err := writeReportFiles(opts.outDir, opts.format, &writeReport); err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}

	if opts.findingsJSON != "" {
		if err := writeFilteredFindingsJSON(opts.findingsJSON, opts.listFindings, writeReport.Findings); err != nil {
			return &ExitError{Code: 2, Message: err.Error()}
		}
	}

	isTerminal := output.IsOutputToTerminal(os.Stdout)
	output.WriteSummary(os.Stdout, &writeReport, failOn, opts.failOnUnknown, isTerminal)

	if opts.listFindings != "none" {
		filtered := filterFindings(writeReport.Findings, opts.listFindings)
		fmt.Fprintln(os.Stdout)
		output.WriteFindingsTable(os.Stdout, filtered, isTerminal)
	}

	if scan.ShouldFail(scanResult, failOn, opts.failOnUnknown) {
		return &ExitError{Code: 1}
	}
	return nil
}

func mapScanError(err error) error {
	if errors.Is(err, lockfile.ErrNoLockfile) {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	var corrupt *lockfile.CorruptError
	if errors.As(err, &corrupt) {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	return &ExitError{Code: 2, Message: err.Error()}
}

func parseFailOn(value string) (types.Severity, error) {
	switch value {
	case "critical", "high", "medium", "low", "none":
		return types.Severity(value), nil
	default:
		return "", fmt.Errorf("invalid --fail-on value: %q", value)
	}
}

func parseEvidenceMode(value string) (scan.EvidenceMode, error) {
	switch value {
	case "none":
		return scan.EvidenceModeNone, nil
	case "imports":
		return scan.EvidenceModeImports, nil
	default:
		return "", fmt.Errorf("invalid --evidence value: %q", value)
	}
}

// filterFindings implements the --list-findings console filter.
func filterFindings(findings []types.Finding, filter string) []types.Finding {
	switch filter {
	case "all":
		return findings
	case "critical-high":
		return filterBySeverity(findings, types.SeverityHigh)
	case "medium-up":
		return filterBySeverity(findings, types.SeverityMedium)
	default:
		return nil
	}
}

func filterBySeverity(findings []types.Finding, minimum types.Severity) []types.Finding {
	threshold := minimum.Rank()
	out := make([]types.Finding, 0, len(findings))
	for _, f := range findings {
		if f.Severity != types.SeverityUnknown && f.Severity.Rank() >= threshold {
			out = append(out, f)
		}
	}
	return out
}

func writeReportFiles(outDir, format string, scanReport *types.ScanReport) error {
	writeJSON := format == "json" || format == "both"
	writeMD := format == "md" || format == "both"
	writeSARIF := format == "sarif"

	if writeJSON {
		if err := writeReportFile(filepath.Join(outDir, "report.json"), func(f *os.File) error {
			return report.WriteJSON(f, scanReport)
		}); err != nil {
			return err
		}
	}
	if writeMD {
		if err := writeReportFile(filepath.Join(outDir, "report.md"), func(f *os.File) error {
			return report.WriteMarkdown(f, scanReport)
		}); err != nil {
			return err
		}
	}
	if writeSARIF {
		if err := writeReportFile(filepath.Join(outDir, "report.sarif"), func(f *os.File) error {
			return report.WriteSARIF(f, scanReport)
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeReportFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := write(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func writeFilteredFindingsJSON(path, filter string, findings []types.Finding) error {
	filtered := filterFindings(findings, filter)
	if filtered == nil {
		filtered = []types.Finding{}
	}
	return writeReportFile(path, func(f *os.File) error {
		return report.WriteJSON(f, filtered)
	})
}
