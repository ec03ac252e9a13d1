// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

// Package output prints a scan's results to a terminal: a severity/
// confidence histogram, policy-verdict lines, and an optional per-finding
// listing table.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/aquasecurity/tml"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/bardcheck/bardscan/internal/types"
)

// IsOutputToTerminal returns true if the writer is stdout connected to a TTY.
func IsOutputToTerminal(w io.Writer) bool {
	return w == os.Stdout && term.IsTerminal(int(os.Stdout.Fd()))
}

// severityOrder fixes the histogram's row order, highest severity first.
var severityOrder = []types.Severity{
	types.SeverityCritical,
	types.SeverityHigh,
	types.SeverityMedium,
	types.SeverityLow,
	types.SeverityUnknown,
}

var confidenceOrder = []types.Confidence{
	types.ConfidenceHigh,
	types.ConfidenceMedium,
	types.ConfidenceLow,
	types.ConfidenceUnknown,
}

// WriteSummary prints the histogram and policy-verdict lines for a completed
// scan report.
func WriteSummary(w io.Writer, report *types.ScanReport, failOn types.Severity, failOnUnknown bool, isTerminal bool) {
	target := report.TargetPath
	if isTerminal {
		_ = tml.Fprintf(w, "<bold>bardscan</bold> %s\n\n", target)
	} else {
		fmt.Fprintf(w, "bardscan %s\n\n", target)
	}

	fmt.Fprintf(w, "Dependencies scanned: %d\n", report.Summary.DependencyCount)
	fmt.Fprintf(w, "Findings: %d\n\n", report.Summary.FindingsCount)

	fmt.Fprintln(w, "Severity:")
	for _, sev := range severityOrder {
		writeHistogramRow(w, string(sev), report.Summary.BySeverity[sev], isTerminal, severityColor(sev))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Confidence:")
	for _, conf := range confidenceOrder {
		writeHistogramRow(w, string(conf), report.Summary.ByConfidence[conf], isTerminal, nil)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "threshold hit: %s\n", yesNo(thresholdHit(report, failOn)))
	fmt.Fprintf(w, "unknown hit: %s\n", yesNo(unknownHit(report, failOnUnknown)))
}

func writeHistogramRow(w io.Writer, label string, count int, isTerminal bool, colorFn func(a ...any) string) {
	if isTerminal && colorFn != nil {
		label = colorFn(label)
	}
	fmt.Fprintf(w, "  %-10s %d\n", label, count)
}

// severityColors mirrors Trivy's severity palette.
var severityColors = map[types.Severity]func(a ...any) string{
	types.SeverityCritical: color.New(color.FgRed).SprintFunc(),
	types.SeverityHigh:     color.New(color.FgHiRed).SprintFunc(),
	types.SeverityMedium:   color.New(color.FgYellow).SprintFunc(),
	types.SeverityLow:      color.New(color.FgBlue).SprintFunc(),
	types.SeverityUnknown:  color.New(color.FgCyan).SprintFunc(),
}

func severityColor(s types.Severity) func(a ...any) string {
	return severityColors[s]
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// thresholdHit reports whether any finding meets the fail-on severity
// threshold, independent of fail-on-unknown.
func thresholdHit(report *types.ScanReport, failOn types.Severity) bool {
	if failOn == "" || failOn == "none" {
		return false
	}
	threshold := types.ParseSeverity(string(failOn)).Rank()
	for _, f := range report.Findings {
		if f.Severity != types.SeverityUnknown && f.Severity.Rank() >= threshold {
			return true
		}
	}
	return false
}

// unknownHit reports whether any finding is still unresolved, gated on
// fail-on-unknown being requested. Keyed on UnknownReason rather than
// SeveritySource so a --unknown-as substitution doesn't mask an unresolved
// lookup.
func unknownHit(report *types.ScanReport, failOnUnknown bool) bool {
	if !failOnUnknown {
		return false
	}
	for _, f := range report.Findings {
		if f.UnknownReason != "" {
			return true
		}
	}
	return false
}
