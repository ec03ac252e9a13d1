// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bardcheck/bardscan/internal/types"
)

func TestWriteMarkdown_SummaryAndFindingSections(t *testing.T) {
	r := &types.ScanReport{
		TargetPath:  "/project",
		GeneratedAt: "2026-08-03T00:00:00Z",
		Summary:     types.NewSummary(3, 5, []types.Finding{{}}),
		Findings: []types.Finding{
			{
				PackageName:    "lodash",
				Version:        "4.17.21",
				Direct:         true,
				Severity:       types.SeverityCritical,
				SeveritySource: types.SeveritySourceOSVCVSS,
				Confidence:     types.ConfidenceHigh,
				Evidence:       []string{"src/index.js", "src/util.js"},
				Vulnerabilities: []types.Vulnerability{
					{
						ID:           "GHSA-p6mc-m468-83gw",
						Summary:      "prototype pollution",
						FixedVersion: "4.17.21",
						References: []string{
							"https://example.com/a",
							"https://example.com/b",
							"https://example.com/c",
							"https://example.com/d",
						},
					},
				},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, r))
	out := buf.String()

	assert.Contains(t, out, "Target: `/project`")
	assert.Contains(t, out, "Dependencies scanned: 3")
	assert.Contains(t, out, "## lodash@4.17.21")
	assert.Contains(t, out, "Severity: **critical** (osv_cvss)")
	assert.Contains(t, out, "Confidence: high")
	assert.Contains(t, out, "[GHSA-p6mc-m468-83gw](https://github.com/advisories/GHSA-p6mc-m468-83gw): prototype pollution")
	assert.Contains(t, out, "Remediation: upgrade to 4.17.21")
	assert.Contains(t, out, "Evidence: src/index.js, src/util.js")

	assert.NotContains(t, out, "example.com/d")
}
