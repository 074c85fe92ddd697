package discover

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrapecheck/pkg/config"
)

func newTestSearchClient(t *testing.T, baseURL string) *SearchClient {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.AppConfig{
		Analyzer: config.AnalyzerConfig{ProbeTimeout: 2 * time.Second},
		Discovery: config.DiscoveryConfig{
			SearchAPIKey:     "test-key",
			SearchEngineID:   "test-cx",
			SearchAPIBaseURL: baseURL,
		},
	}
	return NewSearchClient(cfg, log)
}

func itemsJSON(links ...string) string {
	quoted := make([]string, 0, len(links))
	for _, link := range links {
		quoted = append(quoted, fmt.Sprintf(`{"link": %q}`, link))
	}
	return `{"items": [` + strings.Join(quoted, ",") + `]}`
}

func pageOfLinks(prefix string, n int) []string {
	links := make([]string, 0, n)
	for i := 0; i < n; i++ {
		links = append(links, fmt.Sprintf("https://example.com/%s-%d", prefix, i))
	}
	return links
}

func TestSiteQuery_Unconfigured(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	client := NewSearchClient(&config.AppConfig{}, log)

	results, quotaExceeded, err := client.SiteQuery(context.Background(), "example.com", 50)
	assert.NoError(t, err)
	assert.False(t, quotaExceeded)
	assert.Nil(t, results)
}

func TestSiteQuery_PagesUntilShortPage(t *testing.T) {
	var starts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		assert.Equal(t, "test-key", query.Get("key"))
		assert.Equal(t, "test-cx", query.Get("cx"))
		assert.Equal(t, "site:example.com", query.Get("q"))
		starts = append(starts, query.Get("start"))

		switch query.Get("start") {
		case "1":
			io.WriteString(w, itemsJSON(pageOfLinks("a", searchPageSize)...))
		case "11":
			io.WriteString(w, itemsJSON(pageOfLinks("b", 3)...))
		default:
			t.Errorf("unexpected page start %q", query.Get("start"))
		}
	}))
	defer server.Close()

	results, quotaExceeded, err := newTestSearchClient(t, server.URL).SiteQuery(context.Background(), "example.com", 50)
	require.NoError(t, err)
	assert.False(t, quotaExceeded)
	assert.Len(t, results, searchPageSize+3)
	assert.Equal(t, []string{"1", "11"}, starts, "a short page ends the pagination")
}

func TestSiteQuery_MaxResultsCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, itemsJSON(pageOfLinks("x", searchPageSize)...))
	}))
	defer server.Close()

	results, _, err := newTestSearchClient(t, server.URL).SiteQuery(context.Background(), "example.com", 7)
	require.NoError(t, err)
	assert.Len(t, results, 7)
}

func TestSiteQuery_ThreePageCeiling(t *testing.T) {
	var pages int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		io.WriteString(w, itemsJSON(pageOfLinks(r.URL.Query().Get("start"), searchPageSize)...))
	}))
	defer server.Close()

	results, _, err := newTestSearchClient(t, server.URL).SiteQuery(context.Background(), "example.com", 1000)
	require.NoError(t, err)
	assert.Equal(t, searchMaxPages, pages)
	assert.Len(t, results, searchMaxPages*searchPageSize)
}

func TestSiteQuery_QuotaSoftStop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("start") == "1" {
			io.WriteString(w, itemsJSON(pageOfLinks("first", searchPageSize)...))
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	results, quotaExceeded, err := newTestSearchClient(t, server.URL).SiteQuery(context.Background(), "example.com", 50)
	require.NoError(t, err, "quota exhaustion is a soft stop, not an error")
	assert.True(t, quotaExceeded)
	assert.Len(t, results, searchPageSize, "partial results from before the quota hit are kept")
}

func TestSiteQuery_QuotaErrorInBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"error": {"code": 429, "message": "Quota exceeded", "status": "RESOURCE_EXHAUSTED"}}`)
	}))
	defer server.Close()

	results, quotaExceeded, err := newTestSearchClient(t, server.URL).SiteQuery(context.Background(), "example.com", 50)
	require.NoError(t, err)
	assert.True(t, quotaExceeded)
	assert.Empty(t, results)
}

func TestSiteQuery_APIErrorPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"error": {"code": 400, "message": "Invalid cx", "status": "INVALID_ARGUMENT"}}`)
	}))
	defer server.Close()

	_, quotaExceeded, err := newTestSearchClient(t, server.URL).SiteQuery(context.Background(), "example.com", 50)
	assert.Error(t, err)
	assert.False(t, quotaExceeded)
}
