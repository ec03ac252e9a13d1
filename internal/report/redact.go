// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package report

import "github.com/bardcheck/bardscan/internal/types"

const redactedPath = "<redacted>"

// Redact returns a copy of report with TargetPath and every finding's
// evidence paths replaced by a placeholder, for the strict privacy preset.
func Redact(report types.ScanReport) types.ScanReport {
	report.TargetPath = redactedPath
	findings := make([]types.Finding, len(report.Findings))
	for i, f := range report.Findings {
		if len(f.Evidence) > 0 {
			f.Evidence = []string{redactedPath}
		}
		findings[i] = f
	}
	report.Findings = findings
	return report
}
