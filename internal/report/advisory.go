// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package report

import "strings"

// AdvisoryURL maps an advisory identifier to its canonical detail page.
func AdvisoryURL(id string) string {
	switch {
	case strings.HasPrefix(id, "GHSA-"):
		return "https://github.com/advisories/" + id
	case strings.HasPrefix(id, "CVE-"):
		return "https://nvd.nist.gov/vuln/detail/" + id
	default:
		return "https://osv.dev/vulnerability/" + id
	}
}
