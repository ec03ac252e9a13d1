// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package osv

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/bardcheck/bardscan/internal/cache"
	"github.com/bardcheck/bardscan/internal/types"
)

// enrichJob identifies one still-unknown vulnerability to resolve, by its
// position in fetched so the result can be written back in place.
type enrichJob struct {
	pkgIndex  int
	vulnIndex int
	vuln      types.Vulnerability
}

// enrich runs the bounded-concurrency fallback chain over every vuln in
// fetched whose severity is still unknown, mutating fetched in place.
// Workers pull from a shared job channel and self-terminate when it closes,
// mirroring a fixed worker pool draining a FIFO queue.
func (c *Client) enrich(ctx context.Context, fetched [][]types.Vulnerability) {
	var jobList []enrichJob
	for i, vulns := range fetched {
		for j, v := range vulns {
			if v.Severity == types.SeverityUnknown {
				jobList = append(jobList, enrichJob{pkgIndex: i, vulnIndex: j, vuln: v})
			}
		}
	}
	if len(jobList) == 0 {
		return
	}

	jobs := make(chan enrichJob)
	var wg sync.WaitGroup
	for w := 0; w < enrichWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				resolved := c.resolveUnknown(ctx, job.vuln)
				fetched[job.pkgIndex][job.vulnIndex] = mergeEnriched(fetched[job.pkgIndex][job.vulnIndex], resolved)
			}
		}()
	}
	for _, job := range jobList {
		jobs <- job
	}
	close(jobs)
	wg.Wait()
}

// mergeEnriched applies step 6 of the enrichment merge rule: a resolved
// severity overwrites severity/severitySource and clears unknownReason; an
// unresolved one is stamped lookup_failed.
func mergeEnriched(original, enriched types.Vulnerability) types.Vulnerability {
	if enriched.Severity != types.SeverityUnknown {
		original.Severity = enriched.Severity
		original.SeveritySource = enriched.SeveritySource
		original.UnknownReason = ""
		return original
	}
	original.SeveritySource = types.SeveritySourceUnknown
	original.UnknownReason = types.UnknownReasonLookupFailed
	return original
}

// resolveUnknown runs the sequential detail -> NVD -> GHSA fallback chain
// for a single vulnerability. If no step resolves (including when a step
// fails), it returns the vulnerability still unknown, with severitySource
// unknown and unknownReason lookup_failed.
func (c *Client) resolveUnknown(ctx context.Context, v types.Vulnerability) types.Vulnerability {
	if sev, source, ok := c.fetchDetailSeverity(ctx, v.ID); ok {
		v.Severity = sev
		v.SeveritySource = source
		v.UnknownReason = ""
		return v
	}

	for _, alias := range v.Aliases {
		if !strings.HasPrefix(alias, "CVE-") {
			continue
		}
		if score, ok := c.fetchNVDScore(ctx, alias); ok {
			v.Severity = cvssScoreToSeverity(score)
			v.SeveritySource = types.SeveritySourceAliasCVSS
			v.UnknownReason = ""
			return v
		}
	}

	for _, id := range ghsaCandidates(v) {
		if sev, source, ok := c.fetchGHSASeverity(ctx, id); ok {
			v.Severity = sev
			v.SeveritySource = source
			v.UnknownReason = ""
			return v
		}
	}

	v.SeveritySource = types.SeveritySourceUnknown
	v.UnknownReason = types.UnknownReasonLookupFailed
	return v
}

// ghsaCandidates returns the original id plus every alias that starts with
// "GHSA-", deduplicated in encounter order.
func ghsaCandidates(v types.Vulnerability) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(id string) {
		if !strings.HasPrefix(id, "GHSA-") {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	add(v.ID)
	for _, alias := range v.Aliases {
		add(alias)
	}
	return out
}

func (c *Client) fetchDetailSeverity(ctx context.Context, id string) (types.Severity, types.SeveritySource, bool) {
	cacheKey, err := cache.Key(struct {
		ID string `json:"id"`
	}{ID: id})
	if err == nil && !c.refreshCache {
		if data, ok := c.cache.Get(cache.NamespaceDetail, cacheKey); ok {
			var raw rawVuln
			if json.Unmarshal(data, &raw) == nil {
				sev, source, _ := mapSeverity(raw.Severity, databaseSpecificSeverity(raw.DatabaseSpecific), "osv_detail")
				if sev != types.SeverityUnknown {
					return sev, source, true
				}
			}
			return "", "", false
		}
	}

	endpoint, err := url.JoinPath(c.osvURL, "v1", "vulns", id)
	if err != nil {
		return "", "", false
	}
	data, ok := c.doGET(ctx, endpoint, nil)
	if !ok {
		return "", "", false
	}
	if cacheKey != "" {
		_ = c.cache.Put(cache.NamespaceDetail, cacheKey, data)
	}

	var raw rawVuln
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", "", false
	}
	sev, source, _ := mapSeverity(raw.Severity, databaseSpecificSeverity(raw.DatabaseSpecific), "osv_detail")
	return sev, source, sev != types.SeverityUnknown
}

func (c *Client) fetchNVDScore(ctx context.Context, cveID string) (float64, bool) {
	cacheKey, err := cache.Key(struct {
		CveID string `json:"cveId"`
	}{CveID: cveID})
	if err == nil && !c.refreshCache {
		if data, ok := c.cache.Get(cache.NamespaceNVD, cacheKey); ok {
			var cached struct {
				Score float64 `json:"score"`
			}
			if json.Unmarshal(data, &cached) == nil {
				return cached.Score, true
			}
			return 0, false
		}
	}

	endpoint := "https://services.nvd.nist.gov/rest/json/cves/2.0?cveId=" + url.QueryEscape(cveID)
	data, ok := c.doGET(ctx, endpoint, nil)
	if !ok {
		return 0, false
	}

	var decoded nvdResponse
	if err := json.Unmarshal(data, &decoded); err != nil || len(decoded.Vulnerabilities) == 0 {
		return 0, false
	}

	metrics := decoded.Vulnerabilities[0].Cve.Metrics
	score, ok := firstBaseScore(metrics.CvssMetricV31, metrics.CvssMetricV30, metrics.CvssMetricV2)
	if !ok {
		return 0, false
	}

	if cacheKey != "" {
		payload, err := json.Marshal(struct {
			Score float64 `json:"score"`
		}{Score: score})
		if err == nil {
			_ = c.cache.Put(cache.NamespaceNVD, cacheKey, payload)
		}
	}
	return score, true
}

func firstBaseScore(groups ...[]nvdCvssMetric) (float64, bool) {
	for _, g := range groups {
		if len(g) > 0 {
			return g[0].CvssData.BaseScore, true
		}
	}
	return 0, false
}

func (c *Client) fetchGHSASeverity(ctx context.Context, ghsaID string) (types.Severity, types.SeveritySource, bool) {
	cacheKey, err := cache.Key(struct {
		GhsaID string `json:"ghsaId"`
	}{GhsaID: ghsaID})
	if err == nil && !c.refreshCache {
		if data, ok := c.cache.Get(cache.NamespaceGHSA, cacheKey); ok {
			var cached struct {
				Severity       types.Severity       `json:"severity"`
				SeveritySource types.SeveritySource `json:"severitySource"`
			}
			if json.Unmarshal(data, &cached) == nil && cached.Severity != types.SeverityUnknown {
				return cached.Severity, cached.SeveritySource, true
			}
			return "", "", false
		}
	}

	endpoint, err := url.JoinPath("https://api.github.com", "advisories", ghsaID)
	if err != nil {
		return "", "", false
	}
	headers := map[string]string{
		"Accept":     ghsaAccept,
		"User-Agent": ghsaUserAgent,
	}
	data, ok := c.doGET(ctx, endpoint, headers)
	if !ok {
		return "", "", false
	}

	var advisory ghsaAdvisory
	if err := json.Unmarshal(data, &advisory); err != nil {
		return "", "", false
	}

	var sev types.Severity
	var source types.SeveritySource
	switch {
	case advisory.CVSS.Score > 0:
		sev, source = cvssScoreToSeverity(advisory.CVSS.Score), types.SeveritySourceGHSACVSS
	default:
		if parsed, ok := labelToSeverity(advisory.Severity); ok {
			sev, source = parsed, types.SeveritySourceGHSALabel
		}
	}
	if sev == "" {
		return "", "", false
	}

	if cacheKey != "" {
		payload, err := json.Marshal(struct {
			Severity       types.Severity       `json:"severity"`
			SeveritySource types.SeveritySource `json:"severitySource"`
		}{Severity: sev, SeveritySource: source})
		if err == nil {
			_ = c.cache.Put(cache.NamespaceGHSA, cacheKey, payload)
		}
	}
	return sev, source, true
}

func (c *Client) doGET(ctx context.Context, endpoint string, headers map[string]string) ([]byte, bool) {
	reqCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, false
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false
	}
	return data, true
}
