// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

// Package lockfile detects and parses npm, pnpm, yarn, and bun lockfiles
// into a normalized types.ParsedLock.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bardcheck/bardscan/internal/types"
)

// ErrNoLockfile is returned when none of the four supported lockfile
// dialects is present in the target directory.
var ErrNoLockfile = errors.New("no supported lockfile found")

// CorruptError wraps a dialect-specific parse failure.
type CorruptError struct {
	Dialect string
	Detail  string
	Err     error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("%s lockfile corrupt: %s: %v", e.Dialect, e.Detail, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// dialect pairs a lockfile's filename with the parser that understands it.
// Probing happens in this slice's order; the first file that exists wins.
type dialect struct {
	filename string
	parse    func(root, path string) (*types.ParsedLock, error)
}

var dialects = []dialect{
	{"package-lock.json", parseNPM},
	{"pnpm-lock.yaml", parsePNPM},
	{"yarn.lock", parseYarn},
	{"bun.lock", parseBun},
	{"bun.lockb", parseBun},
}

// Resolve detects the lockfile dialect present under root and parses it into
// a normalized dependency set. It returns ErrNoLockfile if none of the four
// dialects is present, or a *CorruptError if the detected file cannot be
// parsed.
func Resolve(root string) (*types.ParsedLock, error) {
	for _, d := range dialects {
		path := filepath.Join(root, d.filename)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		return d.parse(root, path)
	}
	return nil, ErrNoLockfile
}
