package discover

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"

	"scrapecheck/pkg/config"
	"scrapecheck/pkg/utils"
)

const (
	defaultSearchBaseURL = "https://www.googleapis.com/customsearch/v1"
	searchPageSize       = 10
	searchMaxPages       = 3
)

// SearchClient queries the Google Custom Search JSON API for site: results
type SearchClient struct {
	httpClient *http.Client
	apiKey     string
	engineID   string
	baseURL    string
	log        *logrus.Entry
}

// NewSearchClient creates a SearchClient from the discovery configuration
func NewSearchClient(cfg *config.AppConfig, log *logrus.Logger) *SearchClient {
	baseURL := cfg.Discovery.SearchAPIBaseURL
	if baseURL == "" {
		baseURL = defaultSearchBaseURL
	}
	return &SearchClient{
		httpClient: &http.Client{Timeout: cfg.Analyzer.ProbeTimeout},
		apiKey:     cfg.Discovery.SearchAPIKey,
		engineID:   cfg.Discovery.SearchEngineID,
		baseURL:    baseURL,
		log:        log.WithField("component", "search"),
	}
}

// Configured reports whether both credentials are present
func (s *SearchClient) Configured() bool {
	return s.apiKey != "" && s.engineID != ""
}

// searchResponse is the subset of the API response we consume
type searchResponse struct {
	Items []struct {
		Link string `json:"link"`
	} `json:"items"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// SiteQuery pages through `site:domain` results, up to three pages of ten,
// capped by maxResults. A 429 or quota error is a soft stop: accumulated
// results are returned with quotaExceeded=true and no error.
func (s *SearchClient) SiteQuery(ctx context.Context, domain string, maxResults int) (results []string, quotaExceeded bool, err error) {
	if !s.Configured() {
		return nil, false, nil
	}
	if maxResults <= 0 {
		return nil, false, nil
	}

	for page := 0; page < searchMaxPages && len(results) < maxResults; page++ {
		pageResults, pageErr := s.fetchPage(ctx, domain, page*searchPageSize+1)
		if pageErr != nil {
			if isQuotaError(pageErr) {
				s.log.WithField("domain", domain).Warn("Search API quota exceeded, returning partial results")
				return results, true, nil
			}
			return results, false, pageErr
		}
		if len(pageResults) == 0 {
			break
		}
		for _, link := range pageResults {
			if len(results) >= maxResults {
				break
			}
			results = append(results, link)
		}
		if len(pageResults) < searchPageSize {
			break // Last page of results
		}
	}
	return results, false, nil
}

// fetchPage requests one page of results starting at the 1-based index
func (s *SearchClient) fetchPage(ctx context.Context, domain string, start int) ([]string, error) {
	query := url.Values{}
	query.Set("key", s.apiKey)
	query.Set("cx", s.engineID)
	query.Set("q", "site:"+domain)
	query.Set("num", strconv.Itoa(searchPageSize))
	query.Set("start", strconv.Itoa(start))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, utils.WrapErrorf(utils.ErrRequestCreation, "search page %d: %v", start, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return nil, utils.WrapErrorf(utils.ErrQuotaExceeded, "status 429")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, utils.WrapErrorf(utils.ErrResponseBodyRead, "search page %d: %v", start, err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	if parsed.Error != nil {
		if parsed.Error.Code == http.StatusTooManyRequests || parsed.Error.Status == "RESOURCE_EXHAUSTED" {
			return nil, utils.WrapErrorf(utils.ErrQuotaExceeded, "%s", parsed.Error.Message)
		}
		return nil, utils.WrapErrorf(utils.ErrRequestCreation, "search API error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}

	links := make([]string, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.Link != "" {
			links = append(links, item.Link)
		}
	}
	return links, nil
}

func isQuotaError(err error) bool {
	return errors.Is(err, utils.ErrQuotaExceeded)
}
