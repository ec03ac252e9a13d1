// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package cmd

import "github.com/bardcheck/bardscan/internal/scan"

// privacyPreset bundles the flag defaults implied by a --privacy value.
type privacyPreset struct {
	offline       bool
	fallbackCalls bool
	redactPaths   bool
	evidence      scan.EvidenceMode
}

var privacyPresets = map[string]privacyPreset{
	"strict": {
		offline:       true,
		fallbackCalls: false,
		redactPaths:   true,
		evidence:      scan.EvidenceModeNone,
	},
	"standard": {
		offline:       true,
		fallbackCalls: true,
		redactPaths:   false,
		evidence:      scan.EvidenceModeImports,
	},
}

// resolvePrivacyPreset returns the preset for name, defaulting to strict
// for an empty or unrecognized name.
func resolvePrivacyPreset(name string) privacyPreset {
	if preset, ok := privacyPresets[name]; ok {
		return preset
	}
	return privacyPresets["strict"]
}
