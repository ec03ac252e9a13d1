// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package types

import "fmt"

// DependencyNode is a single (name, version) pair declared by a lockfile.
// Identity is (Name, Version); Direct records whether any lockfile entry for
// this pair was reachable from the root/workspace manifest without crossing
// a transitive edge.
type DependencyNode struct {
	Name    string
	Version string
	Direct  bool
}

// Key returns the "name@version" identity string used to key ParsedLock and
// advisory lookup maps.
func (d DependencyNode) Key() string {
	return fmt.Sprintf("%s@%s", d.Name, d.Version)
}

// ParsedLock is the normalized dependency set produced by a lockfile
// resolver. Nodes holds the nodes in the order of their first Add call,
// which the orchestrator iterates over when synthesizing findings; byKey
// supports O(1) dedup during construction. The yarn parser adds nodes in file
// order; the npm, pnpm, and bun parsers add them in Go map iteration order,
// so for those dialects Nodes does not follow the file's order.
type ParsedLock struct {
	Nodes []DependencyNode
	byKey map[string]int
}

// NewParsedLock returns an empty ParsedLock ready for Add calls.
func NewParsedLock() *ParsedLock {
	return &ParsedLock{byKey: make(map[string]int)}
}

// Add inserts a dependency node, merging with any existing node sharing the
// same (name, version) key. A merge keeps Direct=true if either occurrence
// was direct.
func (p *ParsedLock) Add(node DependencyNode) {
	key := node.Key()
	if idx, ok := p.byKey[key]; ok {
		if node.Direct {
			p.Nodes[idx].Direct = true
		}
		return
	}
	p.byKey[key] = len(p.Nodes)
	p.Nodes = append(p.Nodes, node)
}

// Len returns the number of distinct dependency nodes.
func (p *ParsedLock) Len() int {
	return len(p.Nodes)
}

// EvidenceIndex maps packages to the sorted, deduplicated list of project
// files whose import/require specifiers name them.
type EvidenceIndex struct {
	ScannedFiles int
	ByPackage    map[string][]string
}

// Lookup returns the evidence paths for a package, or nil if none.
func (e *EvidenceIndex) Lookup(name string) []string {
	if e == nil || e.ByPackage == nil {
		return nil
	}
	return e.ByPackage[name]
}

// Vulnerability is a single advisory matched against a dependency.
type Vulnerability struct {
	ID             string         `json:"id"`
	Summary        string         `json:"summary,omitempty"`
	Aliases        []string       `json:"aliases,omitempty"`
	Severity       Severity       `json:"severity"`
	SeveritySource SeveritySource `json:"severitySource"`
	UnknownReason  UnknownReason  `json:"unknownReason,omitempty"`
	Modified       string         `json:"modified,omitempty"`
	References     []string       `json:"references,omitempty"`
	FixedVersion   string         `json:"fixedVersion,omitempty"`
}

// Finding is the scan's unit of report output: one per dependency that
// either matched at least one vulnerability or whose advisory lookup could
// not be resolved.
type Finding struct {
	PackageName     string          `json:"packageName"`
	Version         string          `json:"version"`
	Direct          bool            `json:"direct"`
	Severity        Severity        `json:"severity"`
	SeveritySource  SeveritySource  `json:"severitySource"`
	UnknownReason   UnknownReason   `json:"unknownReason,omitempty"`
	Confidence      Confidence      `json:"confidence"`
	Evidence        []string        `json:"evidence"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
	Source          Source          `json:"source"`
}

// Summary holds the counted histograms that accompany a ScanReport.
type Summary struct {
	DependencyCount int                    `json:"dependencyCount"`
	ScannedFiles    int                    `json:"scannedFiles"`
	FindingsCount   int                    `json:"findingsCount"`
	BySeverity      map[Severity]int       `json:"bySeverity"`
	ByConfidence    map[Confidence]int     `json:"byConfidence"`
}

// ScanReport is the top-level, deterministic output of a scan run.
type ScanReport struct {
	TargetPath  string    `json:"targetPath"`
	GeneratedAt string    `json:"generatedAt"`
	FailOn      string    `json:"failOn"`
	Summary     Summary   `json:"summary"`
	Findings    []Finding `json:"findings"`
}

// NewSummary computes the summary histograms for a findings slice. It always
// initializes every severity/confidence key so that JSON output is stable
// even when a bucket's count is zero.
func NewSummary(dependencyCount, scannedFiles int, findings []Finding) Summary {
	s := Summary{
		DependencyCount: dependencyCount,
		ScannedFiles:    scannedFiles,
		FindingsCount:   len(findings),
		BySeverity: map[Severity]int{
			SeverityCritical: 0,
			SeverityHigh:     0,
			SeverityMedium:   0,
			SeverityLow:      0,
			SeverityUnknown:  0,
		},
		ByConfidence: map[Confidence]int{
			ConfidenceHigh:    0,
			ConfidenceMedium:  0,
			ConfidenceLow:     0,
			ConfidenceUnknown: 0,
		},
	}
	for _, f := range findings {
		s.BySeverity[f.Severity]++
		s.ByConfidence[f.Confidence]++
	}
	return s
}
