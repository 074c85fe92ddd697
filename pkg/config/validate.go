package config

import (
	"fmt"

	"scrapecheck/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// UserAgent
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}

	// Analyzer timeouts
	if c.Analyzer.FetchTimeout <= 0 {
		c.Analyzer.FetchTimeout = DefaultFetchTimeout
	}
	if c.Analyzer.ProbeTimeout <= 0 {
		c.Analyzer.ProbeTimeout = DefaultProbeTimeout
	}
	if c.Analyzer.MaxRedirects < 0 {
		warnings = append(warnings, "analyzer.max_redirects cannot be negative, using default")
		c.Analyzer.MaxRedirects = 0
	}
	if c.Analyzer.MaxRedirects == 0 {
		c.Analyzer.MaxRedirects = DefaultMaxRedirects
	}

	// Audit settings
	if c.Audit.BatchSize <= 0 {
		c.Audit.BatchSize = DefaultAuditBatchSize
	}
	if c.Audit.BatchSize > 50 {
		warnings = append(warnings, fmt.Sprintf(
			"audit.batch_size %d is aggressive for target servers, consider <= 50", c.Audit.BatchSize))
	}
	if c.Audit.BatchDelay < 0 {
		warnings = append(warnings, "audit.batch_delay cannot be negative, using default")
		c.Audit.BatchDelay = DefaultAuditBatchDelay
	}
	if c.Audit.BatchDelay == 0 {
		c.Audit.BatchDelay = DefaultAuditBatchDelay
	}
	if c.Audit.MaxURLs <= 0 {
		c.Audit.MaxURLs = DefaultAuditMaxURLs
	}
	if c.Audit.MaxURLs > DefaultAuditMaxURLs {
		warnings = append(warnings, fmt.Sprintf(
			"audit.max_urls capped at %d (was %d)", DefaultAuditMaxURLs, c.Audit.MaxURLs))
		c.Audit.MaxURLs = DefaultAuditMaxURLs
	}

	// Discovery settings
	if c.Discovery.MaxURLs <= 0 {
		c.Discovery.MaxURLs = DefaultDiscoveryMaxURLs
	}
	if c.Discovery.SearchAPIKey != "" && c.Discovery.SearchEngineID == "" {
		warnings = append(warnings, "discovery.search_api_key set without search_engine_id, search stage will be skipped")
	}
	if c.Discovery.SearchEngineID != "" && c.Discovery.SearchAPIKey == "" {
		warnings = append(warnings, "discovery.search_engine_id set without search_api_key, search stage will be skipped")
	}

	// HTTP client settings
	if c.HTTPClientSettings.Timeout < 0 {
		return warnings, utils.WrapErrorf(utils.ErrConfigValidation, "http_client_settings.timeout cannot be negative")
	}

	return warnings, nil
}
