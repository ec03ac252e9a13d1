// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

// Package osv implements the batched OSV advisory lookup and its
// network-fallback enrichment chain (OSV detail -> NVD CVSS -> GHSA
// advisory label), backed by the on-disk cache in internal/cache.
package osv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bardcheck/bardscan/internal/cache"
	"github.com/bardcheck/bardscan/internal/types"
)

const (
	batchTimeout    = 15 * time.Second
	fetchTimeout    = 15 * time.Second
	enrichWorkers   = 6
	ecosystemNPM    = "npm"
	ghsaAccept      = "application/vnd.github+json"
	ghsaUserAgent   = "bardscan/1.0 (+https://github.com/bardcheck/bardscan)"
)

// Doer is the subset of *http.Client the OSV client depends on. Injecting it
// lets tests supply a deterministic routing stub instead of patching a
// process-global HTTP client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client resolves OSV advisories for npm packages, consulting the on-disk
// cache before falling back to the network, and enriching unknown
// severities when network fallbacks are permitted.
type Client struct {
	cache                  *cache.Cache
	offline                bool
	refreshCache           bool
	osvURL                 string
	enableNetworkFallbacks bool
	http                   Doer
}

// NewClient constructs an OSV client rooted at cacheDir.
func NewClient(cacheDir string, offline, refreshCache bool, osvURL string, enableNetworkFallbacks bool, httpClient Doer) *Client {
	return &Client{
		cache:                  cache.New(cacheDir),
		offline:                offline,
		refreshCache:           refreshCache,
		osvURL:                 osvURL,
		enableNetworkFallbacks: enableNetworkFallbacks,
		http:                   httpClient,
	}
}

// PackageResult is the outcome of resolving a single (name, version) pair.
type PackageResult struct {
	Source          types.Source
	Vulnerabilities []types.Vulnerability
}

type cacheKeyInput struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// BatchQuery resolves advisories for every distinct (name, version) pair
// among packages, following the cache-first, single-batch-POST,
// bounded-concurrency-enrichment pipeline.
func (c *Client) BatchQuery(ctx context.Context, packages []types.DependencyNode) (map[string]PackageResult, error) {
	if err := c.cache.EnsureRoot(); err != nil {
		return nil, fmt.Errorf("preparing advisory cache: %w", err)
	}
	if !c.offline {
		c.cache.Prune()
	}

	results := make(map[string]PackageResult)
	var fetchQueue []types.DependencyNode

	for _, pkg := range packages {
		key := pkg.Key()
		if _, ok := results[key]; ok {
			continue
		}

		cacheKey, err := cache.Key(cacheKeyInput{Name: pkg.Name, Version: pkg.Version})
		if err != nil {
			return nil, fmt.Errorf("hashing cache key for %s: %w", key, err)
		}

		if !c.refreshCache {
			if data, ok := c.cache.Get(cache.NamespaceBatch, cacheKey); ok {
				vulns, err := decodeCachedVulns(data)
				if err == nil {
					results[key] = PackageResult{Source: types.SourceCache, Vulnerabilities: vulns}
					continue
				}
			}
		}

		if c.offline {
			results[key] = PackageResult{Source: types.SourceUnknown, Vulnerabilities: nil}
			continue
		}

		fetchQueue = append(fetchQueue, pkg)
	}

	if len(fetchQueue) == 0 {
		return results, nil
	}

	fetched, ok := c.batchFetch(ctx, fetchQueue)
	if !ok {
		for _, pkg := range fetchQueue {
			results[pkg.Key()] = PackageResult{Source: types.SourceUnknown, Vulnerabilities: nil}
		}
		return results, nil
	}

	for i, pkg := range fetchQueue {
		results[pkg.Key()] = PackageResult{Source: types.SourceOSV, Vulnerabilities: fetched[i]}
	}

	if c.enableNetworkFallbacks {
		c.enrich(ctx, fetched)
		for i, pkg := range fetchQueue {
			results[pkg.Key()] = PackageResult{Source: types.SourceOSV, Vulnerabilities: fetched[i]}
		}
	}

	for i, pkg := range fetchQueue {
		cacheKey, err := cache.Key(cacheKeyInput{Name: pkg.Name, Version: pkg.Version})
		if err != nil {
			continue
		}
		data, err := json.Marshal(fetched[i])
		if err != nil {
			continue
		}
		_ = c.cache.Put(cache.NamespaceBatch, cacheKey, data)
	}

	return results, nil
}

// batchFetch issues the single querybatch POST and normalizes the aligned
// response. ok is false when the whole batch must be treated as unknown.
func (c *Client) batchFetch(ctx context.Context, queue []types.DependencyNode) ([][]types.Vulnerability, bool) {
	body := batchRequest{Queries: make([]rawQuery, len(queue))}
	for i, pkg := range queue {
		body.Queries[i] = rawQuery{
			Package: rawPackage{Name: pkg.Name, Ecosystem: ecosystemNPM},
			Version: pkg.Version,
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, false
	}

	reqCtx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	endpoint, err := url.JoinPath(c.osvURL, "v1", "querybatch")
	if err != nil {
		return nil, false
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, false
	}

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false
	}

	var decoded batchResponse
	if err := json.Unmarshal(respData, &decoded); err != nil {
		return nil, false
	}
	if len(decoded.Results) != len(queue) {
		return nil, false
	}

	out := make([][]types.Vulnerability, len(queue))
	for i, result := range decoded.Results {
		vulns := make([]types.Vulnerability, len(result.Vulns))
		for j, raw := range result.Vulns {
			vulns[j] = normalizeVuln(raw, "osv")
		}
		out[i] = vulns
	}
	return out, true
}

// decodeCachedVulns unmarshals a cached batch entry, migrating older records
// that predate the severitySource field.
func decodeCachedVulns(data []byte) ([]types.Vulnerability, error) {
	var vulns []types.Vulnerability
	if err := json.Unmarshal(data, &vulns); err != nil {
		return nil, err
	}
	for i := range vulns {
		if vulns[i].SeveritySource != "" {
			continue
		}
		if vulns[i].Severity == types.SeverityUnknown {
			vulns[i].SeveritySource = types.SeveritySourceUnknown
			if vulns[i].UnknownReason == "" {
				vulns[i].UnknownReason = types.UnknownReasonMissingScore
			}
		} else {
			vulns[i].SeveritySource = types.SeveritySourceOSVLabel
		}
	}
	return vulns, nil
}
