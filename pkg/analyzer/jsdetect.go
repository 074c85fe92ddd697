package analyzer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	noscriptMinLength    = 50
	visibleTextThreshold = 200
	appRootTextThreshold = 50
	scriptCountThreshold = 15
)

// noscriptPhrases inside a <noscript> block indicate the page demands JS
// regardless of the block's length
var noscriptPhrases = []string{
	"javascript required",
	"enable javascript",
	"javascript is required",
	"javascript is disabled",
	"requires javascript",
}

// appRootSelectors are containers SPA frameworks hydrate into. A nearly
// empty one alongside sparse body text indicates client-side rendering.
var appRootSelectors = []string{
	"#root",
	"#app",
	"#__next",
	"#___gatsby",
	"#svelte",
	"#q-app",
	"[data-reactroot]",
	"[data-server-rendered]",
}

// spaFingerprints are raw-HTML markers of client-side rendering: hydration
// payloads, dynamic-import patterns, and XHR/fetch usage markers
var spaFingerprints = []string{
	"__NEXT_DATA__",
	"window.__NUXT__",
	"window.__INITIAL_STATE__",
	"window.__PRELOADED_STATE__",
	"__sveltekit",
	"ng-version=",
	"data-reactroot",
	"ReactDOM.hydrate",
	"hydrateRoot(",
	"webpackJsonp",
	"import(",
	"fetch(",
	"XMLHttpRequest",
}

// DetectJSRequired applies the JS-rendering heuristics in fixed order, first
// match short-circuiting. Returns the verdict and the matched signal for
// logging. A nil document (unparseable body) only leaves the raw-HTML checks.
func DetectJSRequired(doc *goquery.Document, html string) (bool, string) {
	if doc != nil {
		// Large or explicit noscript fallback content
		verdict := false
		signal := ""
		doc.Find("noscript").EachWithBreak(func(i int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			if len(text) > noscriptMinLength {
				verdict, signal = true, "noscript_block"
				return false
			}
			lower := strings.ToLower(text)
			for _, phrase := range noscriptPhrases {
				if strings.Contains(lower, phrase) {
					verdict, signal = true, "noscript_phrase"
					return false
				}
			}
			return true
		})
		if verdict {
			return true, signal
		}

		// Sparse visible text with an empty framework app-root container
		bodyText := strings.TrimSpace(doc.Find("body").Text())
		if len(bodyText) < visibleTextThreshold {
			for _, selector := range appRootSelectors {
				container := doc.Find(selector)
				if container.Length() > 0 && len(strings.TrimSpace(container.First().Text())) < appRootTextThreshold {
					return true, "empty_app_root"
				}
			}
		}
	}

	for _, fingerprint := range spaFingerprints {
		if strings.Contains(html, fingerprint) {
			return true, "spa_fingerprint:" + fingerprint
		}
	}

	if doc != nil && doc.Find("script").Length() > scriptCountThreshold {
		return true, "script_count"
	}

	return false, ""
}
