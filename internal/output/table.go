// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"io"
	"strings"

	aqtable "github.com/aquasecurity/table"

	"github.com/bardcheck/bardscan/internal/types"
)

// WriteFindingsTable renders one row per finding: package, version,
// severity, confidence, source, and matched advisory ids.
func WriteFindingsTable(w io.Writer, findings []types.Finding, isTerminal bool) {
	tw := aqtable.New(w)
	if isTerminal {
		tw.SetHeaderStyle(aqtable.StyleBold)
		tw.SetLineStyle(aqtable.StyleDim)
	}
	tw.SetBorders(true)
	tw.SetAutoMerge(true)
	tw.SetRowLines(true)
	tw.SetHeaders("Package", "Version", "Severity", "Confidence", "Source", "Advisories")

	for _, f := range findings {
		severity := string(f.Severity)
		if isTerminal {
			if fn := severityColor(f.Severity); fn != nil {
				severity = fn(severity)
			}
		}
		tw.AddRow(f.PackageName, f.Version, severity, string(f.Confidence), string(f.Source), advisoryIDs(f.Vulnerabilities))
	}
	tw.Render()
}

func advisoryIDs(vulns []types.Vulnerability) string {
	ids := make([]string, len(vulns))
	for i, v := range vulns {
		ids[i] = v.ID
	}
	return strings.Join(ids, ", ")
}
