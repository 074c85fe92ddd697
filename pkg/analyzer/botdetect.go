package analyzer

import (
	"net/http"
	"regexp"
	"strings"

	"scrapecheck/pkg/models"
)

// headerMatch matches a response header by lowercase name and optional
// case-insensitive value substring (empty value = presence is enough)
type headerMatch struct {
	Name  string
	Value string
}

// protectionSignature defines detection patterns for one bot-protection
// vendor. A signature fires when any HTML pattern or any header pattern
// matches. Order matters: the first signature per type wins.
type protectionSignature struct {
	Type         models.ProtectionType
	Confidence   models.Confidence
	Detail       string
	HTMLPatterns []*regexp.Regexp
	Headers      []headerMatch
}

func htmlPatterns(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		compiled = append(compiled, regexp.MustCompile("(?i)"+pattern))
	}
	return compiled
}

// protectionSignatures contains detection patterns for known protection
// middleware, checked in order against HTML body and response headers
var protectionSignatures = []protectionSignature{
	{
		Type:       models.ProtectionCloudflare,
		Confidence: models.ConfidenceHigh,
		Detail:     "Cloudflare challenge or managed protection",
		HTMLPatterns: htmlPatterns(
			`checking your browser`,
			`cf-browser-verification`,
			`cf_chl_`,
			`challenge-platform`,
			`attention required!.{0,10}cloudflare`,
			`just a moment\.\.\.`,
		),
		Headers: []headerMatch{
			{Name: "cf-ray"},
			{Name: "cf-cache-status"},
			{Name: "cf-mitigated"},
			{Name: "server", Value: "cloudflare"},
		},
	},
	{
		Type:       models.ProtectionDataDome,
		Confidence: models.ConfidenceHigh,
		Detail:     "DataDome bot mitigation",
		HTMLPatterns: htmlPatterns(
			`datadome`,
			`dd_cookie`,
			`geo\.captcha-delivery\.com`,
		),
		Headers: []headerMatch{
			{Name: "x-datadome"},
			{Name: "x-datadome-cid"},
			{Name: "set-cookie", Value: "datadome"},
		},
	},
	{
		Type:       models.ProtectionImperva,
		Confidence: models.ConfidenceHigh,
		Detail:     "Imperva Incapsula protection",
		HTMLPatterns: htmlPatterns(
			`incapsula`,
			`_incap_`,
			`visid_incap`,
			`incident id`,
		),
		Headers: []headerMatch{
			{Name: "x-iinfo"},
			{Name: "x-cdn", Value: "incapsula"},
			{Name: "set-cookie", Value: "incap_ses"},
		},
	},
	{
		Type:       models.ProtectionAkamai,
		Confidence: models.ConfidenceMedium,
		Detail:     "Akamai Bot Manager",
		HTMLPatterns: htmlPatterns(
			`_abck`,
			`ak_bmsc`,
			`akamai`,
			`bm_sz`,
		),
		Headers: []headerMatch{
			{Name: "akamai-grn"},
			{Name: "server", Value: "akamaighost"},
			{Name: "set-cookie", Value: "ak_bmsc"},
		},
	},
	{
		Type:       models.ProtectionPerimeterX,
		Confidence: models.ConfidenceHigh,
		Detail:     "PerimeterX / HUMAN bot defense",
		HTMLPatterns: htmlPatterns(
			`perimeterx`,
			`px-captcha`,
			`_pxhd`,
			`window\._pxappid`,
		),
		Headers: []headerMatch{
			{Name: "x-px-authorization"},
			{Name: "set-cookie", Value: "_pxvid"},
		},
	},
	{
		Type:       models.ProtectionRecaptcha,
		Confidence: models.ConfidenceHigh,
		Detail:     "Google reCAPTCHA widget present",
		HTMLPatterns: htmlPatterns(
			`www\.google\.com/recaptcha`,
			`grecaptcha`,
			`g-recaptcha`,
		),
	},
	{
		Type:       models.ProtectionHcaptcha,
		Confidence: models.ConfidenceHigh,
		Detail:     "hCaptcha widget present",
		HTMLPatterns: htmlPatterns(
			`hcaptcha\.com`,
			`h-captcha`,
		),
	},
	{
		Type:       models.ProtectionFingerprinting,
		Confidence: models.ConfidenceMedium,
		Detail:     "Browser fingerprinting script detected",
		HTMLPatterns: htmlPatterns(
			`fingerprintjs`,
			`fpjs\.io`,
			`canvas fingerprint`,
			`creepjs`,
		),
	},
}

// rateLimitSignalHeaders add a rate_limiting protection entry when present
// on the main response, independent of the probe burst
var rateLimitSignalHeaders = []string{
	"x-ratelimit-limit",
	"x-ratelimit-remaining",
	"ratelimit-limit",
	"retry-after",
	"x-rate-limit-limit",
}

// DetectBotProtections scans HTML and response headers against the signature
// table. At most one entry per type is recorded; the first signature for a
// type wins.
func DetectBotProtections(html string, headers http.Header) []models.BotProtection {
	var detected []models.BotProtection
	seen := make(map[models.ProtectionType]bool)

	for _, sig := range protectionSignatures {
		if seen[sig.Type] {
			continue
		}
		if sig.matches(html, headers) {
			seen[sig.Type] = true
			detected = append(detected, models.BotProtection{
				Type:       sig.Type,
				Confidence: sig.Confidence,
				Detail:     sig.Detail,
			})
		}
	}

	if !seen[models.ProtectionRateLimiting] {
		for _, name := range rateLimitSignalHeaders {
			if headers.Get(name) != "" {
				detected = append(detected, models.BotProtection{
					Type:       models.ProtectionRateLimiting,
					Confidence: models.ConfidenceMedium,
					Detail:     "Rate-limit headers present on response",
				})
				break
			}
		}
	}

	return detected
}

func (sig *protectionSignature) matches(html string, headers http.Header) bool {
	for _, pattern := range sig.HTMLPatterns {
		if pattern.MatchString(html) {
			return true
		}
	}
	for _, match := range sig.Headers {
		value := headers.Get(match.Name)
		if value == "" {
			continue
		}
		if match.Value == "" || strings.Contains(strings.ToLower(value), match.Value) {
			return true
		}
	}
	return false
}
