// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

// Package scan composes the lockfile resolver, evidence indexer, and OSV
// client into a deterministic, stably-ordered scan report.
package scan

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bardcheck/bardscan/internal/evidence"
	"github.com/bardcheck/bardscan/internal/lockfile"
	"github.com/bardcheck/bardscan/internal/osv"
	"github.com/bardcheck/bardscan/internal/types"
)

// EvidenceMode selects whether the orchestrator greps the project tree for
// import evidence.
type EvidenceMode string

const (
	EvidenceModeNone    EvidenceMode = "none"
	EvidenceModeImports EvidenceMode = "imports"
)

// Options configures a single scan run.
type Options struct {
	TargetPath             string
	OutDir                 string
	FailOn                 types.Severity
	FailOnUnknown          bool
	Offline                bool
	RefreshCache           bool
	UnknownAs              types.Severity
	OSVURL                 string
	EnableNetworkFallbacks bool
	EvidenceMode           EvidenceMode
	HTTPClient             osv.Doer
}

// Run executes the seven-step scan pipeline and returns a completed report.
func Run(ctx context.Context, opts Options) (*types.ScanReport, error) {
	lock, err := lockfile.Resolve(opts.TargetPath)
	if err != nil {
		return nil, err
	}

	var evidenceIndex *types.EvidenceIndex
	if opts.EvidenceMode == EvidenceModeImports {
		evidenceIndex, err = evidence.Build(opts.TargetPath)
		if err != nil {
			return nil, fmt.Errorf("collecting evidence: %w", err)
		}
	} else {
		evidenceIndex = evidence.Empty()
	}

	cacheDir := filepath.Join(opts.OutDir, ".cache", "osv")
	client := osv.NewClient(cacheDir, opts.Offline, opts.RefreshCache, opts.OSVURL, opts.EnableNetworkFallbacks, opts.HTTPClient)

	lookups, err := client.BatchQuery(ctx, lock.Nodes)
	if err != nil {
		return nil, fmt.Errorf("resolving advisories: %w", err)
	}

	findings := make([]types.Finding, 0, len(lock.Nodes))
	for _, dep := range lock.Nodes {
		result := lookups[dep.Key()]
		evidencePaths := evidenceIndex.Lookup(dep.Name)

		finding, ok := synthesizeFinding(dep, result, evidencePaths)
		if !ok {
			continue
		}
		findings = append(findings, finding)
	}

	applyUnknownAsPolicy(findings, opts.UnknownAs)
	sortFindings(findings)

	return &types.ScanReport{
		TargetPath:  opts.TargetPath,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		FailOn:      string(opts.FailOn),
		Summary:     types.NewSummary(lock.Len(), evidenceIndex.ScannedFiles, findings),
		Findings:    findings,
	}, nil
}

// synthesizeFinding implements step 4 of the pipeline. ok is false when the
// dependency has zero matched vulnerabilities and a resolved lookup, in
// which case it contributes no finding.
func synthesizeFinding(dep types.DependencyNode, result osv.PackageResult, evidencePaths []string) (types.Finding, bool) {
	confidence := types.DeriveConfidence(dep.Direct, len(evidencePaths) > 0)

	if result.Source == types.SourceUnknown {
		return types.Finding{
			PackageName:     dep.Name,
			Version:         dep.Version,
			Direct:          dep.Direct,
			Severity:        types.SeverityUnknown,
			SeveritySource:  types.SeveritySourceUnknown,
			UnknownReason:   types.UnknownReasonLookupFailed,
			Confidence:      types.ConfidenceUnknown,
			Evidence:        evidencePaths,
			Vulnerabilities: []types.Vulnerability{},
			Source:          types.SourceUnknown,
		}, true
	}

	if len(result.Vulnerabilities) == 0 {
		return types.Finding{}, false
	}

	top := highestSeverity(result.Vulnerabilities)
	return types.Finding{
		PackageName:     dep.Name,
		Version:         dep.Version,
		Direct:          dep.Direct,
		Severity:        top.Severity,
		SeveritySource:  top.SeveritySource,
		UnknownReason:   top.UnknownReason,
		Confidence:      confidence,
		Evidence:        evidencePaths,
		Vulnerabilities: result.Vulnerabilities,
		Source:          result.Source,
	}, true
}

// highestSeverity returns the vulnerability with the highest severity rank,
// breaking ties by list order (first occurrence wins).
func highestSeverity(vulns []types.Vulnerability) types.Vulnerability {
	best := vulns[0]
	for _, v := range vulns[1:] {
		if v.Severity.Rank() > best.Severity.Rank() {
			best = v
		}
	}
	return best
}

// applyUnknownAsPolicy implements step 5: every unknown finding is
// reclassified to unknownAs (when it is not itself "unknown"), retaining
// unknownReason and stamping severitySource=policy_override.
func applyUnknownAsPolicy(findings []types.Finding, unknownAs types.Severity) {
	if unknownAs == types.SeverityUnknown || unknownAs == "" {
		return
	}
	for i := range findings {
		if findings[i].Severity != types.SeverityUnknown {
			continue
		}
		findings[i].Severity = unknownAs
		findings[i].SeveritySource = types.SeveritySourcePolicyOverride
	}
}

// ShouldFail evaluates the exit-code policy: threshold met or (fail-on-unknown
// and any finding is still unresolved after policy substitution).
func ShouldFail(report *types.ScanReport, failOn types.Severity, failOnUnknown bool) bool {
	if failOnUnknown {
		for _, f := range report.Findings {
			if f.UnknownReason != "" {
				return true
			}
		}
	}
	if failOn == "" || failOn == "none" {
		return false
	}
	threshold := types.ParseSeverity(string(failOn)).Rank()
	for _, f := range report.Findings {
		if f.Severity.Rank() >= threshold && f.Severity != types.SeverityUnknown {
			return true
		}
	}
	return false
}
