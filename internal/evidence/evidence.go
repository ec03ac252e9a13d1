// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

// Package evidence walks a project tree and maps imported package names to
// the source files that import them.
package evidence

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/bardcheck/bardscan/internal/types"
)

var (
	scannedExtensions = map[string]bool{
		".ts": true, ".tsx": true, ".js": true, ".jsx": true,
		".mjs": true, ".cjs": true, ".vue": true,
	}
	excludedDirs = map[string]bool{"node_modules": true, "dist": true, ".next": true}

	staticImportPattern  = regexp.MustCompile(`(?:import(?:\s+[^'"]*?\s+from)?|require\()\s*['"]([^'"]+)['"]`)
	dynamicImportPattern = regexp.MustCompile(`import\(\s*['"]([^'"]+)['"]\s*\)`)

	// scannerWorkers matches the enrichment stage's fixed pool size, since
	// both are I/O-bound fan-outs over an unbounded input set.
	scannerWorkers = 6
)

// Build walks root and returns the evidence index described by the scan
// specification. If root does not exist the walk simply finds nothing.
func Build(root string) (*types.EvidenceIndex, error) {
	files, err := collectFiles(root)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		byPkg   = make(map[string]map[string]struct{})
		scanned int
	)

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < scannerWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				rel, err := filepath.Rel(root, path)
				if err != nil {
					continue
				}
				rel = filepath.ToSlash(rel)

				data, err := os.ReadFile(path)
				if err != nil {
					continue
				}
				names := extractPackageNames(string(data))

				mu.Lock()
				scanned++
				for _, name := range names {
					set, ok := byPkg[name]
					if !ok {
						set = make(map[string]struct{})
						byPkg[name] = set
					}
					set[rel] = struct{}{}
				}
				mu.Unlock()
			}
		}()
	}
	for _, f := range files {
		jobs <- f
	}
	close(jobs)
	wg.Wait()

	result := &types.EvidenceIndex{
		ScannedFiles: scanned,
		ByPackage:    make(map[string][]string, len(byPkg)),
	}
	for name, set := range byPkg {
		paths := make([]string, 0, len(set))
		for p := range set {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		result.ByPackage[name] = paths
	}
	return result, nil
}

// Empty returns the zero-valued evidence index used when evidenceMode=none.
func Empty() *types.EvidenceIndex {
	return &types.EvidenceIndex{ByPackage: map[string][]string{}}
}

func collectFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if excludedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if scannedExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// extractPackageNames runs the static and dynamic import patterns over a
// file's full text and normalizes each matched specifier into a package
// name, deduplicating within the file.
func extractPackageNames(text string) []string {
	seen := make(map[string]struct{})
	add := func(spec string) {
		if name := normalizeSpecifier(spec); name != "" {
			seen[name] = struct{}{}
		}
	}
	for _, m := range staticImportPattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range dynamicImportPattern.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	return names
}

// normalizeSpecifier drops relative/absolute specifiers and reduces scoped
// or bare specifiers to their package name.
func normalizeSpecifier(spec string) string {
	if spec == "" || strings.HasPrefix(spec, ".") || strings.HasPrefix(spec, "/") {
		return ""
	}
	segments := strings.SplitN(spec, "/", 3)
	if strings.HasPrefix(spec, "@") {
		if len(segments) < 2 {
			return spec
		}
		return segments[0] + "/" + segments[1]
	}
	return segments[0]
}
