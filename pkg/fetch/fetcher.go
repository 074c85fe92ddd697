package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"scrapecheck/pkg/config"
	"scrapecheck/pkg/models"
	"scrapecheck/pkg/utils"
)

// Fetcher issues outbound requests with the configured User-Agent and
// per-purpose timeouts, over one shared transport.
type Fetcher struct {
	transport *http.Transport
	cfg       *config.AppConfig
	log       *logrus.Logger
}

// NewFetcher creates a new Fetcher instance
func NewFetcher(transport *http.Transport, cfg *config.AppConfig, log *logrus.Logger) *Fetcher {
	return &Fetcher{
		transport: transport,
		cfg:       cfg,
		log:       log,
	}
}

// UserAgent returns the configured outbound User-Agent string.
func (f *Fetcher) UserAgent() string {
	return f.cfg.UserAgent
}

// newRequest builds a request carrying the configured User-Agent.
func (f *Fetcher) newRequest(ctx context.Context, method, urlStr string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, urlStr, nil)
	if err != nil {
		return nil, utils.WrapErrorf(utils.ErrRequestCreation, "%s %s: %v", method, urlStr, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	return req, nil
}

// Get performs a GET with the given timeout, following redirects silently up
// to the standard cap. Caller must close the response body.
func (f *Fetcher) Get(ctx context.Context, urlStr string, timeout time.Duration) (*http.Response, error) {
	req, err := f.newRequest(ctx, http.MethodGet, urlStr)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Transport: f.transport, Timeout: timeout}
	return client.Do(req)
}

// Head performs a HEAD with the given timeout. Caller must close the
// response body.
func (f *Fetcher) Head(ctx context.Context, urlStr string, timeout time.Duration) (*http.Response, error) {
	req, err := f.newRequest(ctx, http.MethodHead, urlStr)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Transport: f.transport, Timeout: timeout}
	return client.Do(req)
}

// GetWithRedirects performs a GET recording every redirect hop in traversal
// order. The chain is capped at maxRedirects; exceeding the cap aborts the
// request with an error. The recorded hops are returned even when the final
// request fails, so a partially traversed chain is still observable.
// Caller must close the response body on success.
func (f *Fetcher) GetWithRedirects(ctx context.Context, urlStr string, timeout time.Duration, maxRedirects int) (*http.Response, []models.Redirect, error) {
	req, err := f.newRequest(ctx, http.MethodGet, urlStr)
	if err != nil {
		return nil, nil, err
	}

	// Hops are captured by a per-call CheckRedirect closure; the client value
	// is throwaway, the transport is shared.
	var hops []models.Redirect
	client := &http.Client{
		Transport: f.transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			prev := via[len(via)-1]
			status := 0
			if req.Response != nil {
				status = req.Response.StatusCode
			}
			hops = append(hops, models.Redirect{
				From:   prev.URL.String(),
				To:     req.URL.String(),
				Status: status,
			})
			f.log.WithFields(logrus.Fields{
				"from": prev.URL.String(), "to": req.URL.String(), "hop": len(via),
			}).Debug("Following redirect")
			return nil
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, hops, err
	}
	return resp, hops, nil
}
