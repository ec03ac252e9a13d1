// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package osv

import (
	"strconv"
	"strings"

	"github.com/bardcheck/bardscan/internal/types"
)

// cvssScoreToSeverity applies the band table: >=9.0 critical, >=7.0 high,
// >=4.0 medium, else low. It never returns unknown; a missing score is the
// caller's concern.
func cvssScoreToSeverity(score float64) types.Severity {
	switch {
	case score >= 9.0:
		return types.SeverityCritical
	case score >= 7.0:
		return types.SeverityHigh
	case score >= 4.0:
		return types.SeverityMedium
	default:
		return types.SeverityLow
	}
}

// parseCVSSScore extracts a numeric score from a severity[] entry whose type
// contains "cvss". The score may be a bare float or a full vector string
// (e.g. "CVSS:3.1/AV:N/.../A:H/5.4"), in which case the last slash-separated
// token is taken as the numeric value.
func parseCVSSScore(entries []rawSeverity) (float64, bool) {
	for _, e := range entries {
		if !strings.Contains(strings.ToLower(e.Type), "cvss") {
			continue
		}
		if score, err := strconv.ParseFloat(e.Score, 64); err == nil {
			return score, true
		}
		parts := strings.Split(e.Score, "/")
		if last := parts[len(parts)-1]; last != "" {
			if score, err := strconv.ParseFloat(last, 64); err == nil {
				return score, true
			}
		}
	}
	return 0, false
}

// labelToSeverity maps a free-text database_specific.severity label by
// substring, case-insensitively. "moderate" is treated as medium.
func labelToSeverity(label string) (types.Severity, bool) {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "critical"):
		return types.SeverityCritical, true
	case strings.Contains(l, "high"):
		return types.SeverityHigh, true
	case strings.Contains(l, "medium"), strings.Contains(l, "moderate"):
		return types.SeverityMedium, true
	case strings.Contains(l, "low"):
		return types.SeverityLow, true
	default:
		return types.SeverityUnknown, false
	}
}

// mapSeverity implements the normalization rule shared by the querybatch
// response and the detail endpoint: prefer a parseable CVSS score, then a
// database_specific-style label, else unknown. context names the caller for
// source-tag construction ("osv", "osv_detail").
func mapSeverity(entries []rawSeverity, label string, context string) (types.Severity, types.SeveritySource, types.UnknownReason) {
	if score, ok := parseCVSSScore(entries); ok {
		return cvssScoreToSeverity(score), types.SeveritySource(context + "_cvss"), ""
	}
	if sev, ok := labelToSeverity(label); ok {
		return sev, types.SeveritySource(context + "_label"), ""
	}
	return types.SeverityUnknown, types.SeveritySourceUnknown, types.UnknownReasonMissingScore
}

// fixedVersion returns the lexicographically smallest "fixed" event value
// across every affected range, or "" if none exists.
func fixedVersion(affected []rawAffected) string {
	var best string
	for _, a := range affected {
		for _, r := range a.Ranges {
			for _, ev := range r.Events {
				if ev.Fixed == "" {
					continue
				}
				if best == "" || ev.Fixed < best {
					best = ev.Fixed
				}
			}
		}
	}
	return best
}

// dedupeReferences returns the deduplicated, order-preserving list of
// non-empty reference URLs.
func dedupeReferences(refs []rawReference) []string {
	seen := make(map[string]struct{}, len(refs))
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if r.URL == "" {
			continue
		}
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = struct{}{}
		out = append(out, r.URL)
	}
	return out
}

// normalizeVuln converts a raw OSV vulnerability document into the public
// Vulnerability shape, applying mapSeverity with the given source-tag
// context.
func normalizeVuln(v rawVuln, context string) types.Vulnerability {
	sev, source, reason := mapSeverity(v.Severity, databaseSpecificSeverity(v.DatabaseSpecific), context)
	return types.Vulnerability{
		ID:             v.ID,
		Summary:        v.Summary,
		Aliases:        v.Aliases,
		Severity:       sev,
		SeveritySource: source,
		UnknownReason:  reason,
		Modified:       v.Modified,
		References:     dedupeReferences(v.References),
		FixedVersion:   fixedVersion(v.Affected),
	}
}
