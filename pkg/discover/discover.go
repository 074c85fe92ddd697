// Package discover builds a candidate URL list for a domain from sitemaps,
// robots.txt, common content paths, and a search-engine fallback. Every
// stage's failure is isolated: a broken sitemap or exhausted search quota
// never aborts the remaining stages.
package discover

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"scrapecheck/pkg/config"
	"scrapecheck/pkg/fetch"
	"scrapecheck/pkg/models"
	"scrapecheck/pkg/parse"
	"scrapecheck/pkg/robots"
)

const (
	maxSitemapBodySize  = 20 << 20 // 20MB
	commonPathBatchSize = 5
	searchFallbackFloor = 10 // Search stage runs only below this many URLs
)

// standardSitemapPaths are probed independently of robots.txt directives
var standardSitemapPaths = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/sitemap-index.xml",
	"/wp-sitemap.xml",
}

// commonContentPaths are HEAD-probed for presence, five at a time
var commonContentPaths = []string{
	"/about",
	"/blog",
	"/products",
	"/services",
	"/contact",
	"/pricing",
	"/docs",
	"/news",
	"/faq",
	"/api",
}

// Discoverer runs the discovery stages for one domain
type Discoverer struct {
	fetcher *fetch.Fetcher
	robots  *robots.Interpreter
	search  *SearchClient
	cfg     *config.AppConfig
	log     *logrus.Entry
}

// NewDiscoverer creates a Discoverer. The search client may be nil when the
// search stage is unconfigured.
func NewDiscoverer(fetcher *fetch.Fetcher, robotsInterpreter *robots.Interpreter, search *SearchClient, cfg *config.AppConfig, log *logrus.Logger) *Discoverer {
	return &Discoverer{
		fetcher: fetcher,
		robots:  robotsInterpreter,
		search:  search,
		cfg:     cfg,
		log:     log.WithField("component", "discover"),
	}
}

// accumulator collects discovered URLs across stages, deduplicating by
// trailing-slash-insensitive equality while preserving insertion order
type accumulator struct {
	urls []models.DiscoveredURL
	seen map[string]bool
}

func newAccumulator() *accumulator {
	return &accumulator{seen: make(map[string]bool)}
}

func (acc *accumulator) add(rawURL string, source models.DiscoverySourceType) bool {
	key := parse.CanonicalKey(rawURL)
	if key == "" || acc.seen[key] {
		return false
	}
	acc.seen[key] = true
	acc.urls = append(acc.urls, models.DiscoveredURL{URL: rawURL, Source: source})
	return true
}

// Discover normalizes the domain and runs all stages in fixed order.
// The bare root URL is always present in the returned list.
func (d *Discoverer) Discover(ctx context.Context, rawDomain string) (*models.DomainDiscoveryResult, error) {
	domain, err := parse.NormalizeDomain(rawDomain)
	if err != nil {
		return nil, err
	}
	domainLog := d.log.WithField("domain", domain)
	rootURL := "https://" + domain

	result := &models.DomainDiscoveryResult{Domain: domain}
	acc := newAccumulator()
	acc.add(rootURL, models.SourceCommonPath) // Root is always a candidate

	// Stage 1: root accessibility
	if resp, headErr := d.fetcher.Head(ctx, rootURL, d.cfg.Analyzer.ProbeTimeout); headErr == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		result.RootStatus = resp.StatusCode
		result.RootAccessible = resp.StatusCode >= 200 && resp.StatusCode < 400
	} else {
		domainLog.Debugf("Root HEAD failed: %v", headErr)
	}

	// Stage 2: robots.txt sitemap directives
	d.discoverFromRobots(ctx, rootURL, acc, result)

	// Stage 3: standard sitemap locations
	for _, path := range standardSitemapPaths {
		sitemapURL := rootURL + path
		found := d.fetchSitemap(ctx, sitemapURL, acc, models.SourceSitemap, true)
		if found > 0 {
			result.Sources = append(result.Sources, models.DiscoverySource{
				Type: models.SourceSitemap, OriginURL: sitemapURL, URLsFound: found,
			})
		}
	}

	// Stage 4: common content paths
	if !d.cfg.Discovery.SkipCommonPaths {
		found := d.probeCommonPaths(ctx, rootURL, acc)
		result.Sources = append(result.Sources, models.DiscoverySource{
			Type: models.SourceCommonPath, OriginURL: rootURL, URLsFound: found,
		})
	}

	// Stage 5: search-engine fallback, only when little else was found
	if len(acc.urls) < searchFallbackFloor && d.search != nil && d.search.Configured() {
		found, quotaExceeded := d.discoverFromSearch(ctx, domain, acc)
		result.QuotaExceeded = quotaExceeded
		result.Sources = append(result.Sources, models.DiscoverySource{
			Type: models.SourceGoogleIndex, OriginURL: domain, URLsFound: found,
		})
	}

	// Cap the total; the root URL was inserted first so it always survives
	if len(acc.urls) > d.cfg.Discovery.MaxURLs {
		acc.urls = acc.urls[:d.cfg.Discovery.MaxURLs]
	}
	result.DiscoveredURLs = acc.urls

	domainLog.WithFields(logrus.Fields{
		"urls": len(result.DiscoveredURLs), "sources": len(result.Sources), "root_status": result.RootStatus,
	}).Info("Domain discovery complete")
	return result, nil
}

// discoverFromRobots fetches robots.txt and follows every sitemap directive
func (d *Discoverer) discoverFromRobots(ctx context.Context, rootURL string, acc *accumulator, result *models.DomainDiscoveryResult) {
	parsedRoot, err := url.Parse(rootURL)
	if err != nil {
		return
	}
	robotsResult := d.robots.Check(ctx, parsedRoot)
	if robotsResult == nil || !robotsResult.Exists {
		return
	}

	robotsFound := 0
	for _, sitemapURL := range robotsResult.Sitemaps {
		found := d.fetchSitemap(ctx, sitemapURL, acc, models.SourceRobotsTxt, true)
		robotsFound += found
	}
	result.Sources = append(result.Sources, models.DiscoverySource{
		Type: models.SourceRobotsTxt, OriginURL: rootURL + "/robots.txt", URLsFound: robotsFound,
	})
}

// fetchSitemap retrieves one sitemap and accumulates its page URLs. A
// <sitemapindex> document has its entries fetched the same way, but only one
// level deep: nested indexes are not followed further.
func (d *Discoverer) fetchSitemap(ctx context.Context, sitemapURL string, acc *accumulator, source models.DiscoverySourceType, followIndex bool) int {
	sitemapLog := d.log.WithField("sitemap_url", sitemapURL)

	resp, err := d.fetcher.Get(ctx, sitemapURL, d.cfg.Analyzer.ProbeTimeout)
	if err != nil {
		sitemapLog.Debugf("Sitemap fetch failed: %v", err)
		return 0
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return 0
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSitemapBodySize))
	if err != nil {
		sitemapLog.Debugf("Sitemap body read failed: %v", err)
		return 0
	}

	doc, err := parse.ParseSitemapDocument(body)
	if err != nil {
		sitemapLog.Debugf("Sitemap parse failed: %v", err)
		return 0
	}

	found := 0
	if doc.IsIndex {
		if !followIndex {
			return 0
		}
		for _, nested := range doc.Sitemaps {
			found += d.fetchSitemap(ctx, nested, acc, models.SourceSitemapIndex, false)
		}
		return found
	}

	for _, pageURL := range doc.PageURLs {
		if acc.add(pageURL, source) {
			found++
		}
	}
	return found
}

// probeCommonPaths HEADs well-known content paths concurrently in small
// batches, keeping only those that answer successfully
func (d *Discoverer) probeCommonPaths(ctx context.Context, rootURL string, acc *accumulator) int {
	sem := semaphore.NewWeighted(commonPathBatchSize)
	var mu sync.Mutex
	var wg sync.WaitGroup
	found := 0

	for _, path := range commonContentPaths {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(probeURL string) {
			defer wg.Done()
			defer sem.Release(1)

			resp, err := d.fetcher.Head(ctx, probeURL, d.cfg.Analyzer.ProbeTimeout)
			if err != nil {
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 400 {
				mu.Lock()
				if acc.add(probeURL, models.SourceCommonPath) {
					found++
				}
				mu.Unlock()
			}
		}(rootURL + path)
	}
	wg.Wait()
	return found
}

// discoverFromSearch queries the search API with a site: query, filtering
// results to the target domain and its subdomains. Quota exhaustion is a
// soft stop: partial results are kept.
func (d *Discoverer) discoverFromSearch(ctx context.Context, domain string, acc *accumulator) (int, bool) {
	remaining := d.cfg.Discovery.MaxURLs - len(acc.urls)
	results, quotaExceeded, err := d.search.SiteQuery(ctx, domain, remaining)
	if err != nil {
		d.log.WithField("domain", domain).Debugf("Search fallback failed: %v", err)
		return 0, quotaExceeded
	}

	found := 0
	for _, resultURL := range results {
		parsed, parseErr := url.Parse(resultURL)
		if parseErr != nil || !parse.SameDomainOrSub(parsed.Hostname(), domain) {
			continue
		}
		if acc.add(resultURL, models.SourceGoogleIndex) {
			found++
		}
	}
	return found, quotaExceeded
}
