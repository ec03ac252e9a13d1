// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bardcheck/bardscan/internal/types"
)

// stubDoer always returns the same fixed response, regardless of request
// content.
type stubDoer struct {
	status int
	body   string
}

func (s stubDoer) Do(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(bytes.NewReader([]byte(s.body))),
		Header:     make(http.Header),
	}, nil
}

// byNameDoer answers POST /v1/querybatch by looking up each queried
// package name in a fixed table and aligning the response positionally with
// the request, independent of the lockfile resolver's (map-derived, hence
// unordered) iteration order.
type byNameDoer struct {
	vulnsByName map[string][]json.RawMessage
}

func (d byNameDoer) Do(req *http.Request) (*http.Response, error) {
	var body struct {
		Queries []struct {
			Package struct {
				Name string `json:"name"`
			} `json:"package"`
		} `json:"queries"`
	}
	_ = json.NewDecoder(req.Body).Decode(&body)

	results := make([]map[string]any, len(body.Queries))
	for i, q := range body.Queries {
		vulns := d.vulnsByName[q.Package.Name]
		if vulns == nil {
			vulns = []json.RawMessage{}
		}
		results[i] = map[string]any{"vulns": vulns}
	}
	payload, _ := json.Marshal(map[string]any{"results": results})
	return &http.Response{
		StatusCode: 200,
		Body:       io.NopCloser(bytes.NewReader(payload)),
		Header:     make(http.Header),
	}, nil
}

const npmLockFixture = `{
  "lockfileVersion": 3,
  "packages": {
    "": {"name": "demo"},
    "node_modules/lodash": {"version": "4.17.21"},
    "node_modules/chalk": {"version": "5.0.0"},
    "node_modules/chalk/node_modules/ansi-styles": {"version": "6.2.1"}
  }
}`

func writeNPMFixture(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package-lock.json"), []byte(npmLockFixture), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lodash.js"), []byte(`import _ from "lodash"`), 0o644))
}

func TestRun_SeedScenario1(t *testing.T) {
	dir := t.TempDir()
	writeNPMFixture(t, dir)

	doer := byNameDoer{vulnsByName: map[string][]json.RawMessage{
		"lodash":      {json.RawMessage(`{"id":"GHSA-lodash","severity":[{"type":"CVSS_V3","score":"9.8"}]}`)},
		"ansi-styles": {json.RawMessage(`{"id":"GHSA-ansi","database_specific":{"severity":"medium"}}`)},
	}}

	report, err := Run(context.Background(), Options{
		TargetPath:   dir,
		OutDir:       t.TempDir(),
		FailOn:       types.SeverityHigh,
		UnknownAs:    types.SeverityUnknown,
		OSVURL:       "https://api.osv.dev",
		EvidenceMode: EvidenceModeImports,
		HTTPClient:   doer,
	})
	require.NoError(t, err)
	require.Len(t, report.Findings, 2)

	byName := map[string]types.Finding{}
	for _, f := range report.Findings {
		byName[f.PackageName] = f
	}

	lodash := byName["lodash"]
	assert.Equal(t, types.SeverityCritical, lodash.Severity)
	assert.Equal(t, types.SeveritySourceOSVCVSS, lodash.SeveritySource)
	assert.Equal(t, types.ConfidenceHigh, lodash.Confidence)

	ansi := byName["ansi-styles"]
	assert.Equal(t, types.SeverityMedium, ansi.Severity)
	assert.Equal(t, types.SeveritySourceOSVLabel, ansi.SeveritySource)
	// ansi-styles is transitive and has no import evidence in this fixture
	// (only "lodash" is imported), so per the confidence table it lands on
	// unknown rather than low.
	assert.Equal(t, types.ConfidenceUnknown, ansi.Confidence)

	assert.Equal(t, 1, report.Summary.BySeverity[types.SeverityCritical])
	assert.Equal(t, 1, report.Summary.BySeverity[types.SeverityMedium])
	assert.Equal(t, 0, report.Summary.BySeverity[types.SeverityHigh])
}

func TestRun_OfflineMissingCache_AllUnknown(t *testing.T) {
	dir := t.TempDir()
	writeNPMFixture(t, dir)

	report, err := Run(context.Background(), Options{
		TargetPath:   dir,
		OutDir:       t.TempDir(),
		FailOn:       types.SeverityHigh,
		UnknownAs:    types.SeverityUnknown,
		Offline:      true,
		OSVURL:       "https://api.osv.dev",
		EvidenceMode: EvidenceModeNone,
		HTTPClient:   stubDoer{status: 200, body: `{}`},
	})
	require.NoError(t, err)
	require.Len(t, report.Findings, 3)
	for _, f := range report.Findings {
		assert.Equal(t, types.SeverityUnknown, f.Severity)
		assert.Equal(t, types.ConfidenceUnknown, f.Confidence)
		assert.Equal(t, types.SourceUnknown, f.Source)
		assert.Equal(t, types.UnknownReasonLookupFailed, f.UnknownReason)
	}
}

func TestRun_UnknownAsPolicyOverride(t *testing.T) {
	dir := t.TempDir()
	writeNPMFixture(t, dir)

	report, err := Run(context.Background(), Options{
		TargetPath:   dir,
		OutDir:       t.TempDir(),
		FailOn:       types.SeverityHigh,
		UnknownAs:    types.SeverityHigh,
		Offline:      true,
		OSVURL:       "https://api.osv.dev",
		EvidenceMode: EvidenceModeNone,
		HTTPClient:   stubDoer{status: 200, body: `{}`},
	})
	require.NoError(t, err)
	for _, f := range report.Findings {
		assert.Equal(t, types.SeverityHigh, f.Severity)
		assert.Equal(t, types.SeveritySourcePolicyOverride, f.SeveritySource)
		assert.Equal(t, types.UnknownReasonLookupFailed, f.UnknownReason)
	}
	assert.True(t, ShouldFail(report, types.SeverityHigh, false))
}

func TestShouldFail_UnknownOnlyCountsWithFailOnUnknown(t *testing.T) {
	report := &types.ScanReport{
		Findings: []types.Finding{
			{
				Severity:       types.SeverityUnknown,
				SeveritySource: types.SeveritySourceUnknown,
				UnknownReason:  types.UnknownReasonLookupFailed,
			},
		},
	}
	assert.False(t, ShouldFail(report, types.SeverityHigh, false))
	assert.True(t, ShouldFail(report, types.SeverityHigh, true))
}

func TestShouldFail_UnknownAsOverrideStillCountsAsUnknownHit(t *testing.T) {
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
	assert.False(t, ShouldFail(report, types.SeverityCritical, false))
	assert.True(t, ShouldFail(report, types.SeverityCritical, true))
}

func TestShouldFail_NoneThresholdNeverFails(t *testing.T) {
	report := &types.ScanReport{
		Findings: []types.Finding{{Severity: types.SeverityCritical}},
	}
	assert.False(t, ShouldFail(report, "none", false))
}
