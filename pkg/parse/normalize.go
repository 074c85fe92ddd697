package parse

import (
	"net"
	"net/url"
	"strings"

	"scrapecheck/pkg/utils"
)

// NormalizeURLString prepares a user-supplied URL for analysis.
// A missing scheme defaults to https. Returns the normalized string, the
// parsed URL, or ErrInvalidURL for input that cannot form a valid absolute
// HTTP(S) URL. This is the only hard error in the analysis path.
func NormalizeURLString(raw string) (string, *url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil, utils.WrapErrorf(utils.ErrInvalidURL, "empty URL")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.ParseRequestURI(trimmed) // Stricter parsing
	if err != nil {
		return "", nil, utils.WrapErrorf(utils.ErrInvalidURL, "%q: %v", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", nil, utils.WrapErrorf(utils.ErrInvalidURL, "%q: unsupported scheme %q", raw, parsed.Scheme)
	}
	if parsed.Host == "" || !strings.Contains(parsed.Host, ".") && parsed.Hostname() != "localhost" {
		return "", nil, utils.WrapErrorf(utils.ErrInvalidURL, "%q: missing or invalid host", raw)
	}
	if parsed.Path == "" {
		parsed.Path = "/"
	}
	return parsed.String(), parsed, nil
}

// NormalizeDomain reduces a domain string to a bare lowercase host,
// stripping scheme, path, query, fragment and trailing slashes.
func NormalizeDomain(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", utils.WrapErrorf(utils.ErrInvalidDomain, "empty domain")
	}
	if strings.Contains(trimmed, "://") {
		parsed, err := url.Parse(trimmed)
		if err != nil {
			return "", utils.WrapErrorf(utils.ErrInvalidDomain, "%q: %v", raw, err)
		}
		trimmed = parsed.Host
	} else {
		// Drop any path component of a bare "example.com/foo" input
		if idx := strings.IndexAny(trimmed, "/?#"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
	}
	trimmed = strings.ToLower(strings.TrimSuffix(trimmed, "."))
	if trimmed == "" || !strings.Contains(trimmed, ".") {
		return "", utils.WrapErrorf(utils.ErrInvalidDomain, "%q: not a plausible domain", raw)
	}
	return trimmed, nil
}

// CanonicalKey produces a trailing-slash-insensitive comparison key for
// deduplicating discovered URLs.
func CanonicalKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.TrimSuffix(rawURL, "/")
	}
	normalized := *u

	normalized.Scheme = strings.ToLower(normalized.Scheme)
	normalized.Host = strings.ToLower(normalized.Host)

	// Remove default ports
	host, port, err := net.SplitHostPort(normalized.Host)
	if err == nil {
		if (normalized.Scheme == "http" && port == "80") ||
			(normalized.Scheme == "https" && port == "443") {
			normalized.Host = host
		}
	}

	if len(normalized.Path) > 0 && strings.HasSuffix(normalized.Path, "/") {
		normalized.Path = strings.TrimSuffix(normalized.Path, "/")
	}
	normalized.Fragment = ""

	return normalized.String()
}

// SameDomainOrSub reports whether host belongs to domain or one of its
// subdomains. Used to filter search results to the discovery target.
func SameDomainOrSub(host, domain string) bool {
	host = strings.ToLower(host)
	domain = strings.ToLower(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}
