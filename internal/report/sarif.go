// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/bardcheck/bardscan/internal/types"
)

const toolName = "bardcheck/bardscan"
const toolInformationURI = "https://github.com/bardcheck/bardscan"

// WriteSARIF encodes a ScanReport as a SARIF 2.1.0 log with one run: one
// rule per unique advisory id, one result per (finding, vulnerability) pair.
func WriteSARIF(w io.Writer, report *types.ScanReport) error {
	doc, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("creating SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(toolName, toolInformationURI)

	rules := make(map[string]bool)
	for _, finding := range report.Findings {
		for _, vuln := range finding.Vulnerabilities {
			if rules[vuln.ID] {
				continue
			}
			rules[vuln.ID] = true

			rule := run.AddRule(vuln.ID).WithHelpURI(AdvisoryURL(vuln.ID))
			if vuln.Summary != "" {
				rule = rule.WithShortDescription(sarif.NewMultiformatMessageString(vuln.Summary))
			}
		}
	}

	locationTarget := report.TargetPath

	for _, finding := range report.Findings {
		artifactPath := locationTarget
		if len(finding.Evidence) > 0 {
			artifactPath = finding.Evidence[0]
		}
		location := sarif.NewLocationWithPhysicalLocation(
			sarif.NewPhysicalLocation().WithArtifactLocation(
				sarif.NewSimpleArtifactLocation(artifactPath),
			),
		)

		for _, vuln := range finding.Vulnerabilities {
			message := fmt.Sprintf("%s@%s: %s (%s)", finding.PackageName, finding.Version, vuln.ID, finding.Severity)
			if vuln.Summary != "" {
				message = fmt.Sprintf("%s@%s: %s", finding.PackageName, finding.Version, vuln.Summary)
			}

			run.CreateResultForRule(vuln.ID).
				WithLevel(sarifLevel(finding.Severity)).
				WithMessage(sarif.NewTextMessage(message)).
				WithLocations([]*sarif.Location{location})
		}
	}

	doc.AddRun(run)

	if err := doc.Write(w); err != nil {
		return fmt.Errorf("writing SARIF report: %w", err)
	}
	return nil
}

// sarifLevel maps a normalized severity to the SARIF result levels: critical
// and high are error, medium and low are warning, unknown is note.
func sarifLevel(s types.Severity) string {
	switch s {
	case types.SeverityCritical, types.SeverityHigh:
		return "error"
	case types.SeverityMedium, types.SeverityLow:
		return "warning"
	default:
		return "note"
	}
}
