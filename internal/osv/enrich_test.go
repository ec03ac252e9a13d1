// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package osv

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bardcheck/bardscan/internal/types"
)

func TestGhsaCandidates_DedupesAndFilters(t *testing.T) {
	v := types.Vulnerability{
		ID:      "GHSA-1",
		Aliases: []string{"CVE-2024-1", "GHSA-1", "GHSA-2"},
	}
	assert.Equal(t, []string{"GHSA-1", "GHSA-2"}, ghsaCandidates(v))
}

func TestGhsaCandidates_NoneWhenNoIDIsGHSA(t *testing.T) {
	v := types.Vulnerability{ID: "OSV-1", Aliases: []string{"CVE-2024-1"}}
	assert.Empty(t, ghsaCandidates(v))
}

func TestMergeEnriched_ResolvedOverwrites(t *testing.T) {
	original := types.Vulnerability{Severity: types.SeverityUnknown, SeveritySource: types.SeveritySourceUnknown, UnknownReason: types.UnknownReasonMissingScore}
	enriched := types.Vulnerability{Severity: types.SeverityHigh, SeveritySource: types.SeveritySourceGHSALabel}

	merged := mergeEnriched(original, enriched)
	assert.Equal(t, types.SeverityHigh, merged.Severity)
	assert.Equal(t, types.SeveritySourceGHSALabel, merged.SeveritySource)
	assert.Empty(t, merged.UnknownReason)
}

func TestMergeEnriched_StillUnknownStampsLookupFailed(t *testing.T) {
	original := types.Vulnerability{Severity: types.SeverityUnknown}
	enriched := types.Vulnerability{Severity: types.SeverityUnknown}

	merged := mergeEnriched(original, enriched)
	assert.Equal(t, types.SeverityUnknown, merged.Severity)
	assert.Equal(t, types.UnknownReasonLookupFailed, merged.UnknownReason)
}

func TestFirstBaseScore_PrefersV31ThenV30ThenV2(t *testing.T) {
	v31 := []nvdCvssMetric{{}}
	v31[0].CvssData.BaseScore = 9.1
	v30 := []nvdCvssMetric{{}}
	v30[0].CvssData.BaseScore = 8.0

	score, ok := firstBaseScore(v31, v30, nil)
	assert.True(t, ok)
	assert.Equal(t, 9.1, score)

	score, ok = firstBaseScore(nil, v30, nil)
	assert.True(t, ok)
	assert.Equal(t, 8.0, score)
}

func TestFirstBaseScore_NoneAvailable(t *testing.T) {
	_, ok := firstBaseScore(nil, nil, nil)
	assert.False(t, ok)
}
