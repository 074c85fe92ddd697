package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapErrorf(t *testing.T) {
	err := WrapErrorf(ErrInvalidURL, "input %q", "bad input")
	assert.ErrorIs(t, err, ErrInvalidURL)
	assert.Contains(t, err.Error(), `"bad input"`)

	assert.Nil(t, WrapErrorf(nil, "ignored"))
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, "None"},
		{"invalid url", WrapErrorf(ErrInvalidURL, "x"), "Input_InvalidURL"},
		{"invalid domain", ErrInvalidDomain, "Input_InvalidDomain"},
		{"quota", WrapErrorf(ErrQuotaExceeded, "429"), "Search_QuotaExceeded"},
		{"cancelled audit", ErrAuditCancelled, "System_AuditCancelled"},
		{"config", ErrConfigValidation, "Config_Validation"},
		{"context cancel", context.Canceled, "System_ContextCanceled"},
		{"context deadline", context.DeadlineExceeded, "System_ContextDeadlineExceeded"},
		{"wrapped deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), "System_ContextDeadlineExceeded"},
		{"refused", errors.New("dial tcp 127.0.0.1:80: connect: connection refused"), "Network_ConnectionRefused"},
		{"dns", errors.New("lookup nope.invalid: no such host"), "Network_DNSLookup"},
		{"tls", errors.New("x509: certificate signed by unknown authority"), "Network_TLS"},
		{"redirect cap", errors.New(`Get "https://x": stopped after 10 redirects`), "Network_TooManyRedirects"},
		{"unknown", errors.New("something odd"), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CategorizeError(tt.err))
		})
	}
}
