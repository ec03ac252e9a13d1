// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package lockfile

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bardcheck/bardscan/internal/types"
)

type pnpmLockfile struct {
	Importers map[string]pnpmImporter `yaml:"importers"`
	Packages  map[string]any          `yaml:"packages"`
}

type pnpmImporter struct {
	Dependencies         map[string]any `yaml:"dependencies"`
	DevDependencies      map[string]any `yaml:"devDependencies"`
	OptionalDependencies map[string]any `yaml:"optionalDependencies"`
}

// parsePNPM implements the pnpm-lock.yaml dialect: direct names are the
// union of every importer's dependency maps, and every "packages" key is
// classified direct iff its name appears in that union.
func parsePNPM(_, path string) (*types.ParsedLock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CorruptError{Dialect: "pnpm", Detail: "reading file", Err: err}
	}

	var lf pnpmLockfile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, &CorruptError{Dialect: "pnpm", Detail: "parsing YAML", Err: err}
	}

	direct := make(map[string]struct{})
	for _, importer := range lf.Importers {
		for name := range importer.Dependencies {
			direct[name] = struct{}{}
		}
		for name := range importer.DevDependencies {
			direct[name] = struct{}{}
		}
		for name := range importer.OptionalDependencies {
			direct[name] = struct{}{}
		}
	}

	lock := types.NewParsedLock()
	for key := range lf.Packages {
		name, version, ok := pnpmParsePackageKey(key)
		if !ok {
			continue
		}
		_, isDirect := direct[name]
		lock.Add(types.DependencyNode{Name: name, Version: version, Direct: isDirect})
	}
	return lock, nil
}

// pnpmParsePackageKey parses a "packages" key of shape "/name@version(peer…)"
// or "name@version(peer…)", splitting name and version at the LAST "@" so
// that scoped names ("@scope/name@version") are handled correctly.
func pnpmParsePackageKey(key string) (name, version string, ok bool) {
	key = strings.TrimPrefix(key, "/")
	if idx := strings.Index(key, "("); idx != -1 {
		key = key[:idx]
	}

	at := strings.LastIndex(key, "@")
	if at <= 0 {
		return "", "", false
	}
	return key[:at], key[at+1:], true
}
