package fetch

import (
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"scrapecheck/pkg/config"
)

// NewTransport creates the shared HTTP transport based on the provided configuration.
func NewTransport(cfg config.HTTPClientConfig, log *logrus.Logger) *http.Transport {
	log.Debug("Initializing HTTP transport...")

	dialerTimeout := cfg.DialerTimeout
	if dialerTimeout <= 0 {
		dialerTimeout = 10 * time.Second
	}
	dialerKeepAlive := cfg.DialerKeepAlive
	if dialerKeepAlive <= 0 {
		dialerKeepAlive = 30 * time.Second
	}

	// Create custom dialer with configured timeouts
	dialer := &net.Dialer{
		Timeout:   dialerTimeout,
		KeepAlive: dialerKeepAlive,
	}

	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 100
	}
	maxIdlePerHost := cfg.MaxIdleConnsPerHost
	if maxIdlePerHost <= 0 {
		maxIdlePerHost = 10
	}
	idleConnTimeout := cfg.IdleConnTimeout
	if idleConnTimeout <= 0 {
		idleConnTimeout = 90 * time.Second
	}
	tlsHandshakeTimeout := cfg.TLSHandshakeTimeout
	if tlsHandshakeTimeout <= 0 {
		tlsHandshakeTimeout = 10 * time.Second
	}
	expectContinueTimeout := cfg.ExpectContinueTimeout
	if expectContinueTimeout <= 0 {
		expectContinueTimeout = 1 * time.Second
	}

	transport := &http.Transport{
		Proxy:                  http.ProxyFromEnvironment, // Use system proxy settings
		DialContext:            dialer.DialContext,        // Use our custom dialer
		ForceAttemptHTTP2:      true,
		MaxIdleConns:           maxIdle,
		MaxIdleConnsPerHost:    maxIdlePerHost,
		IdleConnTimeout:        idleConnTimeout,
		TLSHandshakeTimeout:    tlsHandshakeTimeout,
		ExpectContinueTimeout:  expectContinueTimeout,
		MaxResponseHeaderBytes: 1 << 20, // 1MB max header size
	}
	// Handle explicit setting for ForceAttemptHTTP2 if provided
	if cfg.ForceAttemptHTTP2 != nil {
		transport.ForceAttemptHTTP2 = *cfg.ForceAttemptHTTP2
	}

	return transport
}
