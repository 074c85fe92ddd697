package parse

import (
	"errors"
	"testing"

	"scrapecheck/pkg/utils"
)

func TestNormalizeURLString(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    string
		expectError bool
	}{
		{
			name:     "SchemeAdded",
			input:    "example.com",
			expected: "https://example.com/",
		},
		{
			name:     "SchemePreserved",
			input:    "http://example.com/page",
			expected: "http://example.com/page",
		},
		{
			name:     "QueryPreserved",
			input:    "example.com/page?utm_source=x",
			expected: "https://example.com/page?utm_source=x",
		},
		{
			name:     "WhitespaceTrimmed",
			input:    "  example.com  ",
			expected: "https://example.com/",
		},
		{
			name:        "Empty",
			input:       "",
			expectError: true,
		},
		{
			name:        "SpacesInside",
			input:       "not a url",
			expectError: true,
		},
		{
			name:        "UnsupportedScheme",
			input:       "ftp://example.com/file",
			expectError: true,
		},
		{
			name:        "NoHost",
			input:       "https:///path",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			normalized, _, err := NormalizeURLString(tt.input)
			if tt.expectError {
				if err == nil {
					t.Fatalf("NormalizeURLString(%q) expected error, got %q", tt.input, normalized)
				}
				if !errors.Is(err, utils.ErrInvalidURL) {
					t.Errorf("error = %v, want ErrInvalidURL", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeURLString(%q) error = %v", tt.input, err)
			}
			if normalized != tt.expected {
				t.Errorf("NormalizeURLString(%q) = %q, want %q", tt.input, normalized, tt.expected)
			}
		})
	}
}

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    string
		expectError bool
	}{
		{"Bare", "example.com", "example.com", false},
		{"SchemeStripped", "https://example.com", "example.com", false},
		{"PathStripped", "example.com/about/team", "example.com", false},
		{"SchemeAndPath", "http://example.com/blog/", "example.com", false},
		{"Lowercased", "EXAMPLE.com", "example.com", false},
		{"Subdomain", "docs.example.com", "docs.example.com", false},
		{"TrailingDot", "example.com.", "example.com", false},
		{"Empty", "", "", true},
		{"NoTLD", "localhost", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			domain, err := NormalizeDomain(tt.input)
			if tt.expectError {
				if err == nil {
					t.Fatalf("NormalizeDomain(%q) expected error, got %q", tt.input, domain)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeDomain(%q) error = %v", tt.input, err)
			}
			if domain != tt.expected {
				t.Errorf("NormalizeDomain(%q) = %q, want %q", tt.input, domain, tt.expected)
			}
		})
	}
}

func TestCanonicalKey_TrailingSlashInsensitive(t *testing.T) {
	tests := []struct {
		a, b  string
		equal bool
	}{
		{"https://example.com/about", "https://example.com/about/", true},
		{"https://example.com", "https://example.com/", true},
		{"https://EXAMPLE.com/about", "https://example.com/about", true},
		{"https://example.com:443/about", "https://example.com/about", true},
		{"http://example.com:80/x", "http://example.com/x", true},
		{"https://example.com/about", "https://example.com/blog", false},
		{"https://example.com/a?p=1", "https://example.com/a", false},
	}

	for _, tt := range tests {
		got := CanonicalKey(tt.a) == CanonicalKey(tt.b)
		if got != tt.equal {
			t.Errorf("CanonicalKey(%q) == CanonicalKey(%q): got %v, want %v", tt.a, tt.b, got, tt.equal)
		}
	}
}

func TestSameDomainOrSub(t *testing.T) {
	tests := []struct {
		host     string
		domain   string
		expected bool
	}{
		{"example.com", "example.com", true},
		{"www.example.com", "example.com", true},
		{"deep.sub.example.com", "example.com", true},
		{"EXAMPLE.com", "example.com", true},
		{"notexample.com", "example.com", false},
		{"example.com.evil.com", "example.com", false},
	}

	for _, tt := range tests {
		if got := SameDomainOrSub(tt.host, tt.domain); got != tt.expected {
			t.Errorf("SameDomainOrSub(%q, %q) = %v, want %v", tt.host, tt.domain, got, tt.expected)
		}
	}
}
