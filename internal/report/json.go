// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

// Package report formats a completed ScanReport as JSON, Markdown, and
// SARIF 2.1.0.
package report

import (
	"encoding/json"
	"fmt"
	"io"
)

// WriteJSON encodes data with two-space indentation and unescaped HTML so
// report.json output is stable and human-readable.
func WriteJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON report: %w", err)
	}
	return nil
}
