// Package robots fetches and interprets robots.txt for an analyzed URL.
// Every failure path fails open: an unreachable or unparseable document is
// reported as Exists=false, Allowed=true, never as an error.
package robots

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"

	"scrapecheck/pkg/config"
	"scrapecheck/pkg/fetch"
	"scrapecheck/pkg/models"
)

const maxRobotsBodySize = 1 << 20 // 1MB; larger documents are truncated

// Interpreter fetches and evaluates robots.txt documents
type Interpreter struct {
	fetcher *fetch.Fetcher
	cfg     *config.AppConfig
	log     *logrus.Entry
}

// NewInterpreter creates an Interpreter
func NewInterpreter(fetcher *fetch.Fetcher, cfg *config.AppConfig, log *logrus.Logger) *Interpreter {
	return &Interpreter{
		fetcher: fetcher,
		cfg:     cfg,
		log:     log.WithField("component", "robots"),
	}
}

// Check fetches {origin}/robots.txt for targetURL and evaluates whether the
// target path is allowed for the wildcard agent. Only the "*" group is
// consulted for allowance; specific agents are parsed into Rules but not
// matched against.
func (i *Interpreter) Check(ctx context.Context, targetURL *url.URL) *models.RobotsTxtResult {
	absent := &models.RobotsTxtResult{Exists: false, Allowed: true}

	robotsURL := &url.URL{Scheme: targetURL.Scheme, Host: targetURL.Host, Path: "/robots.txt"}
	if robotsURL.Scheme != "http" && robotsURL.Scheme != "https" {
		robotsURL.Scheme = "https"
	}
	robotsLog := i.log.WithField("robots_url", robotsURL.String())

	resp, err := i.fetcher.Get(ctx, robotsURL.String(), i.cfg.Analyzer.ProbeTimeout)
	if err != nil {
		robotsLog.Debugf("Fetching robots.txt failed: %v", err)
		return absent
	}
	defer resp.Body.Close()

	// 404 or any other non-200 means "no robots.txt", not an error
	if resp.StatusCode != http.StatusOK {
		robotsLog.WithField("status", resp.StatusCode).Debug("No usable robots.txt")
		io.Copy(io.Discard, resp.Body)
		return absent
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBodySize))
	if err != nil {
		robotsLog.Debugf("Reading robots.txt body failed: %v", err)
		return absent
	}

	result := parseRobots(body)
	result.Exists = true
	result.Allowed = true

	// Allowance matching (wildcards, $ anchors, longest-match allow wins)
	// is delegated to the robotstxt library against the "*" group
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		robotsLog.Debugf("Parsing robots.txt failed: %v", err)
		return absent
	}
	path := targetURL.RequestURI()
	result.Allowed = data.TestAgent(path, "*")

	if group := data.FindGroup("*"); group != nil && group.CrawlDelay > 0 {
		result.CrawlDelaySeconds = group.CrawlDelay.Seconds()
	}

	robotsLog.WithFields(logrus.Fields{
		"allowed": result.Allowed, "rules": len(result.Rules), "sitemaps": len(result.Sitemaps),
	}).Debug("Parsed robots.txt")
	return result
}

// parseRobots builds the ordered rule-group view of a robots.txt document.
// User-agent starts a new group (flushing the previous one), Allow/Disallow
// append to the current group, Sitemap is global, Crawl-delay sets a float.
// Blank lines and comments are skipped.
func parseRobots(body []byte) *models.RobotsTxtResult {
	result := &models.RobotsTxtResult{}

	var current *models.RobotsRule
	flush := func() {
		if current != nil {
			result.Rules = append(result.Rules, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			flush()
			current = &models.RobotsRule{UserAgent: value}
		case "disallow":
			if current != nil && value != "" {
				current.Disallow = append(current.Disallow, value)
			}
		case "allow":
			if current != nil && value != "" {
				current.Allow = append(current.Allow, value)
			}
		case "sitemap":
			if value != "" {
				result.Sitemaps = append(result.Sitemaps, value)
			}
		case "crawl-delay":
			if delay, err := strconv.ParseFloat(value, 64); err == nil && delay > 0 {
				result.CrawlDelaySeconds = delay
			}
		}
	}
	flush()

	return result
}
