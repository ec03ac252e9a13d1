// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package lockfile

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/bardcheck/bardscan/internal/types"
)

var bunVersionPattern = regexp.MustCompile(`\d+\.\d+\.\d+(?:[-+][0-9A-Za-z.-]+)?`)

// parseBun deliberately does not parse the bun.lock/bun.lockb binary-ish
// format. Instead it reads the manifest (and any workspace manifests) and
// emits one DependencyNode per declared dependency, all marked direct: this
// is a known, documented fidelity loss, since transitive closure is not
// recoverable from the manifest alone.
func parseBun(root, _ string) (*types.ParsedLock, error) {
	lock := types.NewParsedLock()

	rootManifest, err := readYarnManifest(filepath.Join(root, "package.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return lock, nil
		}
		return nil, &CorruptError{Dialect: "bun", Detail: "reading manifest", Err: err}
	}
	addBunManifestDeps(lock, rootManifest)

	for _, pattern := range yarnWorkspacePatterns(rootManifest.Workspaces) {
		matches, _ := filepath.Glob(filepath.Join(root, pattern, "package.json"))
		for _, m := range matches {
			wsManifest, err := readYarnManifest(m)
			if err != nil {
				continue
			}
			addBunManifestDeps(lock, wsManifest)
		}
	}

	return lock, nil
}

func addBunManifestDeps(lock *types.ParsedLock, m yarnManifest) {
	addBunSpecMap(lock, m.Dependencies)
	addBunSpecMap(lock, m.DevDependencies)
	addBunSpecMap(lock, m.OptionalDependencies)
}

func addBunSpecMap(lock *types.ParsedLock, specs map[string]string) {
	for name, spec := range specs {
		lock.Add(types.DependencyNode{
			Name:    name,
			Version: bunNormalizeVersion(spec),
			Direct:  true,
		})
	}
}

// bunNormalizeVersion extracts the first semver-shaped substring from a
// dependency specifier, passing the spec through unchanged if none is
// found.
func bunNormalizeVersion(spec string) string {
	if m := bunVersionPattern.FindString(spec); m != "" {
		return m
	}
	return spec
}
