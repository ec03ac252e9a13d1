// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bardcheck/bardscan/internal/types"
)

func TestSortFindings_HighestSeverityFirst(t *testing.T) {
	findings := []types.Finding{
		{PackageName: "b", Version: "1.0.0", Severity: types.SeverityLow},
		{PackageName: "a", Version: "1.0.0", Severity: types.SeverityCritical},
		{PackageName: "c", Version: "1.0.0", Severity: types.SeverityMedium},
	}
	sortFindings(findings)

	names := []string{findings[0].PackageName, findings[1].PackageName, findings[2].PackageName}
	assert.Equal(t, []string{"a", "c", "b"}, names)
}

func TestSortFindings_TiesByNameThenVersion(t *testing.T) {
	findings := []types.Finding{
		{PackageName: "b", Version: "2.0.0", Severity: types.SeverityHigh},
		{PackageName: "a", Version: "1.0.0", Severity: types.SeverityHigh},
		{PackageName: "a", Version: "0.5.0", Severity: types.SeverityHigh},
	}
	sortFindings(findings)

	assert.Equal(t, "a", findings[0].PackageName)
	assert.Equal(t, "0.5.0", findings[0].Version)
	assert.Equal(t, "a", findings[1].PackageName)
	assert.Equal(t, "1.0.0", findings[1].Version)
	assert.Equal(t, "b", findings[2].PackageName)
}

func TestSortFindings_StableOnFullTie(t *testing.T) {
	findings := []types.Finding{
		{PackageName: "a", Version: "1.0.0", Severity: types.SeverityHigh, Confidence: types.ConfidenceHigh},
		{PackageName: "a", Version: "1.0.0", Severity: types.SeverityHigh, Confidence: types.ConfidenceLow},
	}
	sortFindings(findings)
	assert.Equal(t, types.ConfidenceHigh, findings[0].Confidence)
	assert.Equal(t, types.ConfidenceLow, findings[1].Confidence)
}
