// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package osv

import "encoding/json"

// rawQuery is a single entry in a querybatch request body.
type rawQuery struct {
	Package rawPackage `json:"package"`
	Version string     `json:"version"`
}

type rawPackage struct {
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem"`
}

// batchRequest is the body of POST /v1/querybatch.
type batchRequest struct {
	Queries []rawQuery `json:"queries"`
}

// batchResponse aligns positionally with batchRequest.Queries.
type batchResponse struct {
	Results []batchResult `json:"results"`
}

type batchResult struct {
	Vulns []rawVuln `json:"vulns"`
}

// rawVuln is a single OSV vulnerability record as returned by either the
// querybatch endpoint or the per-id detail endpoint. Only fields this
// package inspects are typed; everything else is preserved via Extras so a
// cached document round-trips without loss.
type rawVuln struct {
	ID               string          `json:"id"`
	Summary          string          `json:"summary,omitempty"`
	Aliases          []string        `json:"aliases,omitempty"`
	Modified         string          `json:"modified,omitempty"`
	Severity         []rawSeverity   `json:"severity,omitempty"`
	References       []rawReference  `json:"references,omitempty"`
	Affected         []rawAffected   `json:"affected,omitempty"`
	DatabaseSpecific json.RawMessage `json:"database_specific,omitempty"`
	Extras           map[string]json.RawMessage `json:"-"`
}

var rawVulnKnownFields = map[string]bool{
	"id":                true,
	"summary":           true,
	"aliases":           true,
	"modified":          true,
	"severity":          true,
	"references":        true,
	"affected":          true,
	"database_specific": true,
}

func (v *rawVuln) UnmarshalJSON(data []byte) error {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	get := func(key string, dst any) error {
		raw, ok := all[key]
		if !ok {
			return nil
		}
		return json.Unmarshal(raw, dst)
	}

	if err := get("id", &v.ID); err != nil {
		return err
	}
	if err := get("summary", &v.Summary); err != nil {
		return err
	}
	if err := get("aliases", &v.Aliases); err != nil {
		return err
	}
	if err := get("modified", &v.Modified); err != nil {
		return err
	}
	if err := get("severity", &v.Severity); err != nil {
		return err
	}
	if err := get("references", &v.References); err != nil {
		return err
	}
	if err := get("affected", &v.Affected); err != nil {
		return err
	}
	if raw, ok := all["database_specific"]; ok {
		v.DatabaseSpecific = raw
	}

	extras := make(map[string]json.RawMessage)
	for k, val := range all {
		if !rawVulnKnownFields[k] {
			extras[k] = val
		}
	}
	if len(extras) > 0 {
		v.Extras = extras
	}
	return nil
}

func (v rawVuln) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(v.Extras)+8)
	for k, val := range v.Extras {
		m[k] = val
	}
	m["id"] = v.ID
	if v.Summary != "" {
		m["summary"] = v.Summary
	}
	if len(v.Aliases) > 0 {
		m["aliases"] = v.Aliases
	}
	if v.Modified != "" {
		m["modified"] = v.Modified
	}
	if len(v.Severity) > 0 {
		m["severity"] = v.Severity
	}
	if len(v.References) > 0 {
		m["references"] = v.References
	}
	if len(v.Affected) > 0 {
		m["affected"] = v.Affected
	}
	if v.DatabaseSpecific != nil {
		m["database_specific"] = v.DatabaseSpecific
	}
	return json.Marshal(m)
}

type rawSeverity struct {
	Type  string `json:"type"`
	Score string `json:"score"`
}

type rawReference struct {
	URL string `json:"url"`
}

type rawAffected struct {
	Ranges []rawRange `json:"ranges,omitempty"`
}

type rawRange struct {
	Events []rawEvent `json:"events,omitempty"`
}

type rawEvent struct {
	Introduced string `json:"introduced,omitempty"`
	Fixed      string `json:"fixed,omitempty"`
}

// databaseSpecificSeverity extracts the "severity" label from a raw
// database_specific blob, tolerating its absence or a non-object shape.
func databaseSpecificSeverity(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v struct {
		Severity string `json:"severity"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return v.Severity
}

// nvdResponse is the shape this package reads out of the NVD CVE 2.0 API.
type nvdResponse struct {
	Vulnerabilities []struct {
		Cve struct {
			Metrics struct {
				CvssMetricV31 []nvdCvssMetric `json:"cvssMetricV31"`
				CvssMetricV30 []nvdCvssMetric `json:"cvssMetricV30"`
				CvssMetricV2  []nvdCvssMetric `json:"cvssMetricV2"`
			} `json:"metrics"`
		} `json:"cve"`
	} `json:"vulnerabilities"`
}

type nvdCvssMetric struct {
	CvssData struct {
		BaseScore float64 `json:"baseScore"`
	} `json:"cvssData"`
}

// ghsaAdvisory is the shape this package reads out of the GitHub advisories
// REST endpoint.
type ghsaAdvisory struct {
	Severity string `json:"severity"`
	CVSS     struct {
		Score float64 `json:"score"`
	} `json:"cvss"`
}
