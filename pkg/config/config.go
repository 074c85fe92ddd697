package config

import (
	"os"
	"time"
)

// Default values applied by Validate when the corresponding field is unset
const (
	DefaultUserAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultFetchTimeout     = 10 * time.Second
	DefaultProbeTimeout     = 5 * time.Second
	DefaultMaxRedirects     = 10
	DefaultAuditBatchSize   = 5
	DefaultAuditBatchDelay  = 500 * time.Millisecond
	DefaultAuditMaxURLs     = 500
	DefaultDiscoveryMaxURLs = 100
)

// HTTPClientConfig holds settings for the shared HTTP transport
type HTTPClientConfig struct {
	Timeout               time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"` // Timeout for 100-continue
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"`     // nil=default, true=force, false=disable
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}

// AnalyzerConfig holds settings for single-URL analysis
type AnalyzerConfig struct {
	FetchTimeout time.Duration `yaml:"fetch_timeout,omitempty"` // Main page GET (default 10s)
	ProbeTimeout time.Duration `yaml:"probe_timeout,omitempty"` // robots.txt / rate-limit probes (default 5s)
	MaxRedirects int           `yaml:"max_redirects,omitempty"` // Redirect cap for the main fetch (default 10)
}

// AuditConfig holds settings for batch auditing
type AuditConfig struct {
	BatchSize  int           `yaml:"batch_size,omitempty"`  // Concurrent URLs per batch (default 5)
	BatchDelay time.Duration `yaml:"batch_delay,omitempty"` // Delay between batches (default 500ms)
	MaxURLs    int           `yaml:"max_urls,omitempty"`    // Hard cap on audited URLs (default 500)
}

// DiscoveryConfig holds settings for domain discovery
type DiscoveryConfig struct {
	MaxURLs          int    `yaml:"max_urls,omitempty"`           // Cap on discovered URLs (default 100)
	SkipCommonPaths  bool   `yaml:"skip_common_paths,omitempty"`  // Disable the common-path probing stage
	SearchAPIKey     string `yaml:"search_api_key,omitempty"`     // Google Custom Search API key
	SearchEngineID   string `yaml:"search_engine_id,omitempty"`   // Google Custom Search engine id (cx)
	SearchAPIBaseURL string `yaml:"search_api_base_url,omitempty"` // Override for tests
}

// AppConfig holds the global application configuration
type AppConfig struct {
	UserAgent          string           `yaml:"user_agent,omitempty"`
	HTTPClientSettings HTTPClientConfig `yaml:"http_client_settings,omitempty"`
	Analyzer           AnalyzerConfig   `yaml:"analyzer,omitempty"`
	Audit              AuditConfig      `yaml:"audit,omitempty"`
	Discovery          DiscoveryConfig  `yaml:"discovery,omitempty"`
}

// SearchConfigured reports whether the search-engine discovery stage can run.
// Both the API key and the engine id are required; absence of either causes
// the stage to be skipped silently.
func (c *AppConfig) SearchConfigured() bool {
	return c.Discovery.SearchAPIKey != "" && c.Discovery.SearchEngineID != ""
}

// ApplyEnvOverrides fills search credentials from the environment when the
// config file leaves them empty.
func (c *AppConfig) ApplyEnvOverrides() {
	if c.Discovery.SearchAPIKey == "" {
		c.Discovery.SearchAPIKey = os.Getenv("SCRAPECHECK_SEARCH_API_KEY")
	}
	if c.Discovery.SearchEngineID == "" {
		c.Discovery.SearchEngineID = os.Getenv("SCRAPECHECK_SEARCH_ENGINE_ID")
	}
}
