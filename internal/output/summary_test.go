// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bardcheck/bardscan/internal/types"
)

func buildReport() *types.ScanReport {
	findings := []types.Finding{
		{PackageName: "lodash", Severity: types.SeverityCritical, Confidence: types.ConfidenceHigh, SeveritySource: types.SeveritySourceOSVCVSS},
		{PackageName: "ansi-styles", Severity: types.SeverityUnknown, Confidence: types.ConfidenceUnknown, SeveritySource: types.SeveritySourceUnknown, UnknownReason: types.UnknownReasonLookupFailed},
	}
	return &types.ScanReport{
		TargetPath: "/project",
		Summary:    types.NewSummary(2, 0, findings),
		Findings:   findings,
	}
}

func TestWriteSummary_ThresholdHit(t *testing.T) {
	var buf bytes.Buffer
	report := buildReport()
	WriteSummary(&buf, report, types.SeverityHigh, false, false)
	out := buf.String()
	assert.Contains(t, out, "threshold hit: yes")
	assert.Contains(t, out, "unknown hit: no")
}

func TestWriteSummary_UnknownHitRequiresFailOnUnknown(t *testing.T) {
	var buf bytes.Buffer
	report := buildReport()
	WriteSummary(&buf, report, types.SeverityCritical, true, false)
	out := buf.String()
	assert.Contains(t, out, "unknown hit: yes")
}

func TestThresholdHit_NoneNeverHits(t *testing.T) {
	report := buildReport()
	assert.False(t, thresholdHit(report, "none"))
}

func TestUnknownHit_SurvivesUnknownAsOverride(t *testing.T) {
	report := &types.ScanReport{
		Findings: []types.Finding{
			{
				PackageName:    "left-pad",
				Severity:       types.SeverityLow,
				SeveritySource: types.SeveritySourcePolicyOverride,
				UnknownReason:  types.UnknownReasonLookupFailed,
			},
		},
	}
	assert.True(t, unknownHit(report, true))
	assert.False(t, unknownHit(report, false))
}
