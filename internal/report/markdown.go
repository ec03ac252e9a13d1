// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/bardcheck/bardscan/internal/types"
)

const maxMarkdownReferences = 3

// WriteMarkdown renders a ScanReport as a human-readable Markdown document:
// a summary header followed by one section per finding.
func WriteMarkdown(w io.Writer, report *types.ScanReport) error {
	if _, err := fmt.Fprintf(w, "# bardscan report\n\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "- Target: `%s`\n", report.TargetPath); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "- Generated: %s\n", report.GeneratedAt); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "- Dependencies scanned: %d\n", report.Summary.DependencyCount); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "- Findings: %d\n\n", report.Summary.FindingsCount); err != nil {
		return err
	}

	for _, finding := range report.Findings {
		if err := writeMarkdownFinding(w, finding); err != nil {
			return err
		}
	}
	return nil
}

func writeMarkdownFinding(w io.Writer, finding types.Finding) error {
	if _, err := fmt.Fprintf(w, "## %s@%s\n\n", finding.PackageName, finding.Version); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "- Severity: **%s** (%s)\n", finding.Severity, finding.SeveritySource); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "- Confidence: %s\n", finding.Confidence); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "- Direct dependency: %t\n\n", finding.Direct); err != nil {
		return err
	}

	for _, vuln := range finding.Vulnerabilities {
		line := fmt.Sprintf("- [%s](%s): %s", vuln.ID, AdvisoryURL(vuln.ID), vuln.Summary)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		if vuln.FixedVersion != "" {
			if _, err := fmt.Fprintf(w, "  - Remediation: upgrade to %s\n", vuln.FixedVersion); err != nil {
				return err
			}
		}
		refs := vuln.References
		if len(refs) > maxMarkdownReferences {
			refs = refs[:maxMarkdownReferences]
		}
		for _, ref := range refs {
			if _, err := fmt.Fprintf(w, "  - %s\n", ref); err != nil {
				return err
			}
		}
	}

	if len(finding.Evidence) > 0 {
		if _, err := fmt.Fprintf(w, "\nEvidence: %s\n", strings.Join(finding.Evidence, ", ")); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return nil
}
