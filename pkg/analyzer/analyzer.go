// Package analyzer probes a single URL and extracts scrapability signals:
// redirect chain, JS-rendering requirement, bot-protection middleware,
// robots.txt policy, rate limiting, and UTM parameter flow.
package analyzer

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"scrapecheck/pkg/config"
	"scrapecheck/pkg/fetch"
	"scrapecheck/pkg/models"
	"scrapecheck/pkg/paramflow"
	"scrapecheck/pkg/parse"
	"scrapecheck/pkg/probe"
	"scrapecheck/pkg/robots"
	"scrapecheck/pkg/utils"
)

const maxBodySize = 10 << 20 // 10MB page body cap

// Analyzer orchestrates a single-URL analysis
type Analyzer struct {
	fetcher *fetch.Fetcher
	robots  *robots.Interpreter
	prober  *probe.Prober
	cfg     *config.AppConfig
	log     *logrus.Entry
}

// NewAnalyzer creates an Analyzer
func NewAnalyzer(fetcher *fetch.Fetcher, robotsInterpreter *robots.Interpreter, prober *probe.Prober, cfg *config.AppConfig, log *logrus.Logger) *Analyzer {
	return &Analyzer{
		fetcher: fetcher,
		robots:  robotsInterpreter,
		prober:  prober,
		cfg:     cfg,
		log:     log.WithField("component", "analyzer"),
	}
}

// Analyze probes rawURL and returns a complete result. The only hard error
// is URL-normalization failure (ErrInvalidURL); network failures are
// captured in the result (Status=0, Error set) because a blocked or dead
// endpoint is itself a valid analysis outcome.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (*models.AnalysisResult, error) {
	normalized, _, err := parse.NormalizeURLString(rawURL)
	if err != nil {
		return nil, err
	}
	urlLog := a.log.WithField("url", normalized)

	result := &models.AnalysisResult{
		URL:      normalized,
		FinalURL: normalized,
	}

	start := time.Now()
	resp, hops, fetchErr := a.fetcher.GetWithRedirects(ctx, normalized, a.cfg.Analyzer.FetchTimeout, a.cfg.Analyzer.MaxRedirects)
	result.ResponseTimeMs = time.Since(start).Milliseconds()
	result.Redirects = hops
	if len(hops) > 0 {
		result.FinalURL = hops[len(hops)-1].To
	}

	var html string
	if fetchErr != nil {
		urlLog.WithField("category", utils.CategorizeError(fetchErr)).Debugf("Main fetch failed: %v", fetchErr)
		result.Status = 0
		result.Error = fetchErr.Error()
	} else {
		result.Status = resp.StatusCode
		result.FinalURL = resp.Request.URL.String()
		result.ContentType = resp.Header.Get("Content-Type")
		result.Headers = flattenHeaders(resp.Header)

		// A body that cannot be read yields empty HTML; detectors simply
		// find nothing
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		resp.Body.Close()
		if readErr != nil {
			urlLog.Debugf("Reading body failed: %v", readErr)
		} else {
			html = string(body)
		}

		var doc *goquery.Document
		if html != "" {
			doc, _ = goquery.NewDocumentFromReader(strings.NewReader(html))
		}
		jsRequired, signal := DetectJSRequired(doc, html)
		result.JSRequired = jsRequired
		if jsRequired {
			urlLog.WithField("signal", signal).Debug("JS rendering required")
		}
		result.BotProtections = DetectBotProtections(html, resp.Header)
	}

	result.UTMFlow = paramflow.Analyze(redirectChain(normalized, hops, result.FinalURL))

	// Auxiliary signals run concurrently after the main fetch; each is
	// best-effort and degrades to absent on failure
	if finalURL, parseErr := url.Parse(result.FinalURL); parseErr == nil && finalURL.Host != "" {
		var group errgroup.Group
		group.Go(func() error {
			result.RobotsTxt = a.robots.Check(ctx, finalURL)
			return nil
		})
		group.Go(func() error {
			result.RateLimit = a.prober.Probe(ctx, result.FinalURL)
			return nil
		})
		group.Wait()
	}

	urlLog.WithFields(logrus.Fields{
		"status":      result.Status,
		"redirects":   len(result.Redirects),
		"js_required": result.JSRequired,
		"protections": len(result.BotProtections),
		"elapsed_ms":  result.ResponseTimeMs,
	}).Info("Analysis complete")

	return result, nil
}

// redirectChain builds the ordered URL sequence of the analysis: the
// original request plus every hop target, ending at the terminal URL
func redirectChain(first string, hops []models.Redirect, finalURL string) []string {
	chain := []string{first}
	for _, hop := range hops {
		chain = append(chain, hop.To)
	}
	if chain[len(chain)-1] != finalURL && finalURL != "" {
		chain[len(chain)-1] = finalURL
	}
	return chain
}

// flattenHeaders lowers header names into a flat map for case-insensitive
// consumption; multi-valued headers keep their first value
func flattenHeaders(headers http.Header) map[string]string {
	flat := make(map[string]string, len(headers))
	for name, values := range headers {
		if len(values) > 0 {
			flat[strings.ToLower(name)] = values[0]
		}
	}
	return flat
}
