// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package lockfile

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/bardcheck/bardscan/internal/types"
)

// parseYarn implements the yarn.lock dialect: direct names come from the
// root (and any workspace) package.json manifests; the lock itself is
// parsed line-oriented rather than as a structured format, since yarn.lock
// is not valid YAML or JSON.
func parseYarn(root, path string) (*types.ParsedLock, error) {
	direct, err := collectYarnDirectNames(root)
	if err != nil {
		return nil, &CorruptError{Dialect: "yarn", Detail: "reading manifests", Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &CorruptError{Dialect: "yarn", Detail: "reading file", Err: err}
	}
	defer f.Close()

	lock := types.NewParsedLock()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var pendingNames []string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue
		case len(line) > 0 && line[0] != ' ' && strings.HasSuffix(strings.TrimRight(line, " "), ":"):
			pendingNames = yarnParseSelectorGroup(strings.TrimSuffix(strings.TrimRight(line, " "), ":"))
		case strings.HasPrefix(strings.TrimSpace(line), "version "):
			version := yarnExtractQuoted(strings.TrimSpace(line))
			for _, sel := range pendingNames {
				name := yarnNameFromSelector(sel)
				if name == "" {
					continue
				}
				_, isDirect := direct[name]
				lock.Add(types.DependencyNode{Name: name, Version: version, Direct: isDirect})
			}
			pendingNames = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &CorruptError{Dialect: "yarn", Detail: "scanning file", Err: err}
	}

	return lock, nil
}

// yarnParseSelectorGroup splits a comma-separated selector group line (with
// its trailing ":" already stripped) into individual selectors, honoring
// quoted selectors that may themselves contain commas.
func yarnParseSelectorGroup(line string) []string {
	var selectors []string
	var cur strings.Builder
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			cur.WriteRune(r)
		case r == ',' && !inQuotes:
			selectors = append(selectors, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		selectors = append(selectors, strings.TrimSpace(cur.String()))
	}
	return selectors
}

// yarnNameFromSelector extracts the package name from a selector of the form
// "name@range" or "name@npm:range", honoring an optional leading quote and a
// leading "@scope/" segment that itself contains an "@".
func yarnNameFromSelector(selector string) string {
	selector = strings.Trim(selector, `"`)

	scoped := strings.HasPrefix(selector, "@")
	search := selector
	if scoped {
		search = selector[1:]
	}

	at := strings.Index(search, "@")
	if at == -1 {
		return ""
	}
	name := selector[:at+boolToInt(scoped)]
	return strings.TrimSuffix(name, "@")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// yarnExtractQuoted pulls the quoted literal out of a line like
// `version "1.2.3"`.
func yarnExtractQuoted(line string) string {
	first := strings.Index(line, `"`)
	if first == -1 {
		return ""
	}
	last := strings.LastIndex(line, `"`)
	if last <= first {
		return ""
	}
	return line[first+1 : last]
}

// yarnManifest is the subset of package.json fields relevant to direct
// dependency collection.
type yarnManifest struct {
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
	Workspaces           json.RawMessage   `json:"workspaces"`
}

// collectYarnDirectNames reads the root manifest and any workspace manifests
// it declares, unioning their dependency-map keys.
func collectYarnDirectNames(root string) (map[string]struct{}, error) {
	names := make(map[string]struct{})

	rootManifest, err := readYarnManifest(filepath.Join(root, "package.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return names, nil
		}
		return nil, err
	}
	addYarnManifestNames(names, rootManifest)

	for _, pattern := range yarnWorkspacePatterns(rootManifest.Workspaces) {
		matches, _ := filepath.Glob(filepath.Join(root, pattern, "package.json"))
		for _, m := range matches {
			wsManifest, err := readYarnManifest(m)
			if err != nil {
				continue
			}
			addYarnManifestNames(names, wsManifest)
		}
	}

	return names, nil
}

func readYarnManifest(path string) (yarnManifest, error) {
	var m yarnManifest
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, err
	}
	return m, nil
}

func addYarnManifestNames(dst map[string]struct{}, m yarnManifest) {
	for name := range m.Dependencies {
		dst[name] = struct{}{}
	}
	for name := range m.DevDependencies {
		dst[name] = struct{}{}
	}
	for name := range m.OptionalDependencies {
		dst[name] = struct{}{}
	}
}

// yarnWorkspacePatterns normalizes the "workspaces" manifest field, which
// may be either a bare array or an object with a "packages" array.
func yarnWorkspacePatterns(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Packages
	}
	return nil
}
