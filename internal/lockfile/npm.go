// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package lockfile

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/bardcheck/bardscan/internal/types"
)

type npmLockfile struct {
	LockfileVersion int                        `json:"lockfileVersion"`
	Packages        map[string]npmPackageEntry `json:"packages"`
	Dependencies    map[string]npmLegacyDep    `json:"dependencies"`
}

type npmPackageEntry struct {
	Version string `json:"version"`
}

type npmLegacyDep struct {
	Version      string                  `json:"version"`
	Dependencies map[string]npmLegacyDep `json:"dependencies"`
}

// parseNPM implements the package-lock.json dialect described in the
// lockfile resolver design: the v2+ "packages" map keyed by node_modules
// paths when present, falling back to the legacy recursive "dependencies"
// tree otherwise.
func parseNPM(_, path string) (*types.ParsedLock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CorruptError{Dialect: "npm", Detail: "reading file", Err: err}
	}

	var lf npmLockfile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, &CorruptError{Dialect: "npm", Detail: "parsing JSON", Err: err}
	}

	lock := types.NewParsedLock()

	if lf.LockfileVersion >= 2 && len(lf.Packages) > 0 {
		for key, entry := range lf.Packages {
			if key == "" {
				continue // root entry
			}
			name, direct := npmNameFromKey(key)
			if name == "" {
				continue
			}
			lock.Add(types.DependencyNode{
				Name:    name,
				Version: entry.Version,
				Direct:  direct,
			})
		}
		return lock, nil
	}

	for name, dep := range lf.Dependencies {
		walkNPMLegacy(lock, name, dep, true)
	}
	return lock, nil
}

// npmNameFromKey extracts the package name and direct classification from a
// "packages" map key such as "node_modules/chalk" or
// "node_modules/chalk/node_modules/ansi-styles". Scoped packages consume two
// path segments after the last "node_modules/" occurrence.
func npmNameFromKey(key string) (name string, direct bool) {
	const marker = "node_modules/"
	idx := strings.LastIndex(key, marker)
	if idx == -1 {
		return "", false
	}
	prefix := key[:idx]
	rest := key[idx+len(marker):]

	segments := strings.Split(rest, "/")
	if len(segments) == 0 || segments[0] == "" {
		return "", false
	}

	if strings.HasPrefix(segments[0], "@") && len(segments) >= 2 {
		name = segments[0] + "/" + segments[1]
		direct = prefix == "" && len(segments) == 2
	} else {
		name = segments[0]
		direct = prefix == "" && len(segments) == 1
	}
	return name, direct
}

// walkNPMLegacy recursively walks the legacy "dependencies" tree, where
// top-level entries are direct and nested entries are transitive.
func walkNPMLegacy(lock *types.ParsedLock, name string, dep npmLegacyDep, direct bool) {
	lock.Add(types.DependencyNode{Name: name, Version: dep.Version, Direct: direct})
	for childName, child := range dep.Dependencies {
		walkNPMLegacy(lock, childName, child, false)
	}
}
