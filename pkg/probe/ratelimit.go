// Package probe infers rate limiting by bursting a small number of HEAD
// requests at one URL and inspecting statuses, headers and latencies.
package probe

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"scrapecheck/pkg/config"
	"scrapecheck/pkg/fetch"
	"scrapecheck/pkg/models"
)

const (
	burstSize       = 5
	interRequestGap = 100 * time.Millisecond

	// Implicit-detection heuristic: approximate and tunable, can false-positive
	// on any slow server
	minResponsesForImplicit = 3
	latencySlowdownFactor   = 2.0
)

// rateLimitHeaders are the response header names that signal explicit rate
// limiting, matched case-insensitively
var rateLimitHeaders = []string{
	"x-ratelimit-limit",
	"x-ratelimit-remaining",
	"x-ratelimit-reset",
	"x-rate-limit-limit",
	"x-rate-limit-remaining",
	"ratelimit-limit",
	"ratelimit-remaining",
	"ratelimit-reset",
	"retry-after",
}

// sample is one probe request's outcome
type sample struct {
	status    int // 0 on request failure
	headers   map[string]string
	elapsedMs int64
}

// Prober runs rate-limit probe bursts
type Prober struct {
	fetcher *fetch.Fetcher
	cfg     *config.AppConfig
	log     *logrus.Entry
}

// NewProber creates a Prober
func NewProber(fetcher *fetch.Fetcher, cfg *config.AppConfig, log *logrus.Logger) *Prober {
	return &Prober{
		fetcher: fetcher,
		cfg:     cfg,
		log:     log.WithField("component", "ratelimit_probe"),
	}
}

// Probe bursts HEAD requests at urlStr with a fixed gap between them.
// Per-request failures are counted toward RequestsMade without aborting the
// burst; the burst itself never returns an error.
func (p *Prober) Probe(ctx context.Context, urlStr string) *models.RateLimitResult {
	result := &models.RateLimitResult{}
	probeLog := p.log.WithField("url", urlStr)

	var samples []sample
	for n := 0; n < burstSize; n++ {
		if n > 0 {
			select {
			case <-time.After(interRequestGap):
			case <-ctx.Done():
				probeLog.Debugf("Probe burst cut short: %v", ctx.Err())
				p.evaluate(result, samples)
				return result
			}
		}

		start := time.Now()
		resp, err := p.fetcher.Head(ctx, urlStr, p.cfg.Analyzer.ProbeTimeout)
		elapsed := time.Since(start).Milliseconds()
		result.RequestsMade++

		if err != nil {
			probeLog.Debugf("Probe request %d failed: %v", n+1, err)
			samples = append(samples, sample{status: 0, elapsedMs: elapsed})
			continue
		}

		headers := make(map[string]string, len(resp.Header))
		for name, values := range resp.Header {
			if len(values) > 0 {
				headers[strings.ToLower(name)] = values[0]
			}
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode < 400 {
			result.RequestsSucceeded++
		}
		samples = append(samples, sample{status: resp.StatusCode, headers: headers, elapsedMs: elapsed})
	}

	p.evaluate(result, samples)
	return result
}

// evaluate applies the detection rules over the collected samples
func (p *Prober) evaluate(result *models.RateLimitResult, samples []sample) {
	seen := make(map[string]bool)

	for _, s := range samples {
		if s.status == http.StatusTooManyRequests || s.status == http.StatusServiceUnavailable {
			result.Detected = true
		}
		for _, name := range rateLimitHeaders {
			if _, ok := s.headers[name]; ok && !seen[name] {
				seen[name] = true
				result.Detected = true
			}
		}

		if result.EstimatedLimit == 0 {
			for _, name := range []string{"x-ratelimit-limit", "ratelimit-limit"} {
				if v, ok := s.headers[name]; ok {
					if limit, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && limit > 0 {
						result.EstimatedLimit = limit
						break
					}
				}
			}
		}
		if result.ResetWindowSeconds == 0 {
			if v, ok := s.headers["retry-after"]; ok {
				if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
					result.ResetWindowSeconds = secs
				}
			}
		}
	}

	for name := range seen {
		result.HeadersFound = append(result.HeadersFound, name)
	}
	sort.Strings(result.HeadersFound)

	// Implicit detection only when no explicit signal fired
	if !result.Detected && len(samples) >= minResponsesForImplicit {
		result.Detected = latencyDoubled(samples) || lateFailure(samples)
	}
}

// latencyDoubled reports whether the second half of the burst averaged more
// than latencySlowdownFactor times the first half
func latencyDoubled(samples []sample) bool {
	half := len(samples) / 2
	firstAvg := meanLatency(samples[:half])
	secondAvg := meanLatency(samples[len(samples)-half:])
	return firstAvg > 0 && secondAvg > firstAvg*latencySlowdownFactor
}

// lateFailure reports whether any failure occurred strictly after the first
// two requests
func lateFailure(samples []sample) bool {
	for n, s := range samples {
		if n >= 2 && (s.status == 0 || s.status >= 400) {
			return true
		}
	}
	return false
}

func meanLatency(samples []sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var total int64
	for _, s := range samples {
		total += s.elapsedMs
	}
	return float64(total) / float64(len(samples))
}
