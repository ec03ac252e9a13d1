// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package scan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bardcheck/bardscan/internal/types"
)

// keyedFinding pairs a finding with its precomputed ordering key so the key
// travels with the finding through every swap; sorting key and finding
// separately would desync them after the first swap.
type keyedFinding struct {
	key     string
	finding types.Finding
}

// sortFindings orders findings by severity (highest first), then name,
// version, and advisory id sequence, with a stable tie-break on original
// index (sort.SliceStable preserves the input order of equal keys).
func sortFindings(findings []types.Finding) {
	keyed := make([]keyedFinding, len(findings))
	for i, f := range findings {
		keyed[i] = keyedFinding{key: orderingKey(f), finding: f}
	}
	sort.SliceStable(keyed, func(i, j int) bool {
		return keyed[i].key < keyed[j].key
	})
	for i, kf := range keyed {
		findings[i] = kf.finding
	}
}

// orderingKey concatenates "<9-severityRank>:<name>:<version>:<ids>" so an
// ascending string sort yields highest severity first.
func orderingKey(f types.Finding) string {
	ids := make([]string, len(f.Vulnerabilities))
	for i, v := range f.Vulnerabilities {
		ids[i] = v.ID
	}
	return fmt.Sprintf("%d:%s:%s:%s", 9-f.Severity.Rank(), f.PackageName, f.Version, strings.Join(ids, ","))
}
