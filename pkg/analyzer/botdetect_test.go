package analyzer

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrapecheck/pkg/models"
)

func TestDetectBotProtections_CloudflareHeader(t *testing.T) {
	headers := http.Header{}
	headers.Set("Cf-Ray", "8a1b2c3d4e5f-FRA")

	detected := DetectBotProtections("<html><body>ok</body></html>", headers)
	require.Len(t, detected, 1)
	assert.Equal(t, models.ProtectionCloudflare, detected[0].Type)
	assert.Equal(t, models.ConfidenceHigh, detected[0].Confidence)
}

func TestDetectBotProtections_CloudflareChallengePage(t *testing.T) {
	html := `<html><head><title>Just a moment...</title></head>
<body>Checking your browser before accessing example.com</body></html>`

	detected := DetectBotProtections(html, http.Header{})
	require.Len(t, detected, 1, "HTML and title both match, but one entry per type")
	assert.Equal(t, models.ProtectionCloudflare, detected[0].Type)
}

func TestDetectBotProtections_HeaderValueSubstring(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		value    string
		expected models.ProtectionType
	}{
		{"cloudflare server", "Server", "cloudflare", models.ProtectionCloudflare},
		{"datadome cookie", "Set-Cookie", "datadome=v4.2~abc; Path=/", models.ProtectionDataDome},
		{"incapsula session cookie", "Set-Cookie", "incap_ses_123=xyz; Path=/", models.ProtectionImperva},
		{"akamai bot cookie", "Set-Cookie", "ak_bmsc=tok; Path=/", models.ProtectionAkamai},
		{"perimeterx cookie", "Set-Cookie", "_pxvid=abc; Path=/", models.ProtectionPerimeterX},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			headers.Set(tt.header, tt.value)
			detected := DetectBotProtections("", headers)
			require.Len(t, detected, 1)
			assert.Equal(t, tt.expected, detected[0].Type)
		})
	}
}

func TestDetectBotProtections_CaptchaWidgets(t *testing.T) {
	recaptcha := DetectBotProtections(`<div class="g-recaptcha" data-sitekey="k"></div>`, http.Header{})
	require.Len(t, recaptcha, 1)
	assert.Equal(t, models.ProtectionRecaptcha, recaptcha[0].Type)

	hcaptcha := DetectBotProtections(`<script src="https://hcaptcha.com/1/api.js"></script>`, http.Header{})
	require.Len(t, hcaptcha, 1)
	assert.Equal(t, models.ProtectionHcaptcha, hcaptcha[0].Type)
}

func TestDetectBotProtections_MultipleVendorsKeepSignatureOrder(t *testing.T) {
	headers := http.Header{}
	headers.Set("Cf-Ray", "abc")
	html := `<script src="https://www.google.com/recaptcha/api.js"></script>`

	detected := DetectBotProtections(html, headers)
	require.Len(t, detected, 2)
	assert.Equal(t, models.ProtectionCloudflare, detected[0].Type)
	assert.Equal(t, models.ProtectionRecaptcha, detected[1].Type)
}

func TestDetectBotProtections_RateLimitHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("X-RateLimit-Limit", "60")

	detected := DetectBotProtections("<html></html>", headers)
	require.Len(t, detected, 1)
	assert.Equal(t, models.ProtectionRateLimiting, detected[0].Type)
	assert.Equal(t, models.ConfidenceMedium, detected[0].Confidence)
}

func TestDetectBotProtections_CleanResponse(t *testing.T) {
	headers := http.Header{}
	headers.Set("Server", "nginx/1.25.3")
	headers.Set("Content-Type", "text/html")

	detected := DetectBotProtections(`<html><body><h1>Plain page</h1></body></html>`, headers)
	assert.Empty(t, detected)
}

func TestDetectBotProtections_FingerprintingScript(t *testing.T) {
	html := `<script src="https://cdn.jsdelivr.net/npm/@fingerprintjs/fingerprintjs"></script>`
	detected := DetectBotProtections(html, http.Header{})
	require.Len(t, detected, 1)
	assert.Equal(t, models.ProtectionFingerprinting, detected[0].Type)
	assert.Equal(t, models.ConfidenceMedium, detected[0].Confidence)
}
