package models

// Redirect records a single hop in a redirect chain
type Redirect struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Status int    `json:"status"`
}

// ProtectionType identifies a class of bot-protection middleware
type ProtectionType string

const (
	ProtectionCloudflare     ProtectionType = "cloudflare"
	ProtectionRecaptcha      ProtectionType = "recaptcha"
	ProtectionHcaptcha       ProtectionType = "hcaptcha"
	ProtectionDataDome       ProtectionType = "datadome"
	ProtectionAkamai         ProtectionType = "akamai"
	ProtectionImperva        ProtectionType = "imperva"
	ProtectionPerimeterX     ProtectionType = "perimeterx"
	ProtectionFingerprinting ProtectionType = "fingerprinting"
	ProtectionRateLimiting   ProtectionType = "rate_limiting"
	ProtectionUnknown        ProtectionType = "unknown"
)

// Confidence expresses how certain a heuristic detection is
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// BotProtection is one detected protection layer. An analysis holds at most
// one entry per Type (first signature match wins)
type BotProtection struct {
	Type       ProtectionType `json:"type"`
	Confidence Confidence     `json:"confidence"`
	Detail     string         `json:"detail"`
}

// RobotsRule is one user-agent group parsed from robots.txt, in document order
type RobotsRule struct {
	UserAgent string   `json:"user_agent"`
	Allow     []string `json:"allow,omitempty"`
	Disallow  []string `json:"disallow,omitempty"`
}

// RobotsTxtResult describes a site's robots.txt as it applies to the analyzed
// path. A missing or unreachable document yields Exists=false, Allowed=true
type RobotsTxtResult struct {
	Exists            bool         `json:"exists"`
	Allowed           bool         `json:"allowed"`
	CrawlDelaySeconds float64      `json:"crawl_delay_seconds,omitempty"`
	Sitemaps          []string     `json:"sitemaps,omitempty"`
	Rules             []RobotsRule `json:"rules,omitempty"`
}

// RateLimitResult summarizes a short probe burst against one URL
type RateLimitResult struct {
	Detected           bool     `json:"detected"`
	RequestsMade       int      `json:"requests_made"`
	RequestsSucceeded  int      `json:"requests_succeeded"`
	EstimatedLimit     int      `json:"estimated_limit,omitempty"`
	ResetWindowSeconds int      `json:"reset_window_seconds,omitempty"`
	HeadersFound       []string `json:"headers_found,omitempty"`
}

// ParamChange classifies one query parameter across one redirect step
type ParamChange string

const (
	ParamPreserved ParamChange = "preserved"
	ParamAdded     ParamChange = "added"
	ParamRemoved   ParamChange = "removed"
	ParamModified  ParamChange = "modified"
)

// ParamStep is the parameter state at one URL of a redirect chain.
// Changes is empty for step 0 (nothing to diff against)
type ParamStep struct {
	URL     string                 `json:"url"`
	Params  map[string]string      `json:"params"`
	Changes map[string]ParamChange `json:"changes,omitempty"`
}

// IssueSeverity grades a parameter-flow finding
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
	SeverityInfo    IssueSeverity = "info"
)

// FlowIssue is one derived finding about parameter handling across a chain
type FlowIssue struct {
	Severity       IssueSeverity `json:"severity"`
	Message        string        `json:"message"`
	AffectedParams []string      `json:"affected_params,omitempty"`
	Step           int           `json:"step,omitempty"`
}

// ParameterFlowResult tracks query parameters across a redirect chain.
// Steps has one entry per chain URL including first and last; the overall
// added/removed/modified sets diff step 0 directly against the final step
type ParameterFlowResult struct {
	HasUTMParams   bool              `json:"has_utm_params"`
	UTMPreserved   bool              `json:"utm_preserved"`
	UTMLostAt      int               `json:"utm_lost_at,omitempty"` // 1-indexed step, 0 = never
	InitialParams  map[string]string `json:"initial_params"`
	FinalParams    map[string]string `json:"final_params"`
	Steps          []ParamStep       `json:"parameter_flow"`
	ParamsAdded    []string          `json:"params_added,omitempty"`
	ParamsRemoved  []string          `json:"params_removed,omitempty"`
	ParamsModified []string          `json:"params_modified,omitempty"`
	Issues         []FlowIssue       `json:"issues,omitempty"`
}

// AnalysisResult is the outcome of probing a single URL. Status is 0 and
// Error is set on network failure; the analyzer never returns an error for a
// syntactically valid URL
type AnalysisResult struct {
	URL            string               `json:"url"`
	FinalURL       string               `json:"final_url"`
	Status         int                  `json:"status"`
	Redirects      []Redirect           `json:"redirects,omitempty"`
	JSRequired     bool                 `json:"js_required"`
	BotProtections []BotProtection      `json:"bot_protections,omitempty"`
	ResponseTimeMs int64                `json:"response_time_ms"`
	ContentType    string               `json:"content_type,omitempty"`
	Headers        map[string]string    `json:"headers,omitempty"`
	RobotsTxt      *RobotsTxtResult     `json:"robots_txt,omitempty"`
	RateLimit      *RateLimitResult     `json:"rate_limit,omitempty"`
	UTMFlow        *ParameterFlowResult `json:"utm_flow,omitempty"`
	Error          string               `json:"error,omitempty"`
}

// ScoreBreakdown decomposes a scrapability score. FinalScore is always
// recomputable from the AnalysisResult that produced it
type ScoreBreakdown struct {
	BaseScore            int     `json:"base_score"`
	StatusPenalty        int     `json:"status_penalty"`
	RedirectPenalty      int     `json:"redirect_penalty"`
	JSPenalty            int     `json:"js_penalty"`
	BotProtectionPenalty float64 `json:"bot_protection_penalty"`
	FinalScore           int     `json:"final_score"`
	Recommendation       string  `json:"recommendation"`
}

// DiscoverySourceType is the method by which a candidate URL was found
type DiscoverySourceType string

const (
	SourceRobotsTxt    DiscoverySourceType = "robots_txt"
	SourceSitemap      DiscoverySourceType = "sitemap"
	SourceSitemapIndex DiscoverySourceType = "sitemap_index"
	SourceCommonPath   DiscoverySourceType = "common_path"
	SourceGoogleIndex  DiscoverySourceType = "google_index"
)

// DiscoveredURL pairs a candidate URL with how it was found
type DiscoveredURL struct {
	URL    string              `json:"url"`
	Source DiscoverySourceType `json:"source"`
}

// DiscoverySource records one discovery stage's contribution, in stage order
type DiscoverySource struct {
	Type      DiscoverySourceType `json:"type"`
	OriginURL string              `json:"origin_url"`
	URLsFound int                 `json:"urls_found"`
}

// DomainDiscoveryResult is the accumulated output of all discovery stages.
// DiscoveredURLs is deduplicated by trailing-slash-insensitive equality and
// always contains the bare root URL
type DomainDiscoveryResult struct {
	Domain         string            `json:"domain"`
	RootAccessible bool              `json:"root_accessible"`
	RootStatus     int               `json:"root_status,omitempty"`
	DiscoveredURLs []DiscoveredURL   `json:"discovered_urls"`
	Sources        []DiscoverySource `json:"sources"`
	QuotaExceeded  bool              `json:"quota_exceeded,omitempty"`
}

// Recommendation buckets an audited URL for scraper planning
type Recommendation string

const (
	RecommendBestEntryPoint Recommendation = "best_entry_point"
	RecommendGood           Recommendation = "good"
	RecommendModerate       Recommendation = "moderate"
	RecommendChallenging    Recommendation = "challenging"
	RecommendBlocked        Recommendation = "blocked"
)

// AuditResult is one URL's outcome within a batch audit
type AuditResult struct {
	AnalysisResult
	Accessible            bool           `json:"accessible"`
	ScrapeLikelihoodScore int            `json:"scrape_likelihood_score"`
	Recommendation        Recommendation `json:"recommendation"`
	BlockedReason         string         `json:"blocked_reason,omitempty"`
}

// AuditProgress is a snapshot passed to the progress callback before and
// after every batch, plus once at completion
type AuditProgress struct {
	Completed    int           `json:"completed"`
	Total        int           `json:"total"`
	CurrentBatch int           `json:"current_batch"`
	TotalBatches int           `json:"total_batches"`
	Percent      float64       `json:"percent"`
	BatchResults []AuditResult `json:"batch_results,omitempty"`
}

// AuditSummary aggregates a completed audit. Purely derived from the result
// list, never stored independently of it
type AuditSummary struct {
	TotalURLs         int                    `json:"total_urls"`
	Accessible        int                    `json:"accessible"`
	Blocked           int                    `json:"blocked"`
	JSRequired        int                    `json:"js_required"`
	AverageScore      float64                `json:"average_score"` // over accessible URLs only
	Recommendations   map[Recommendation]int `json:"recommendations"`
	BestEntryPoints   []string               `json:"best_entry_points,omitempty"`
	TopBotProtections []ProtectionTypeCount  `json:"top_bot_protections,omitempty"`
}

// ProtectionTypeCount is one row of the bot-protection frequency table
type ProtectionTypeCount struct {
	Type  ProtectionType `json:"type"`
	Count int            `json:"count"`
}
