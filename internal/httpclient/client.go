// Package httpclient builds the transport used to probe URLs.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Config holds settings for the probe transport.
type Config struct {
	// DialTimeout bounds TCP connect. The probe applies its own header deadline.
	DialTimeout time.Duration
	UserAgent   string
	Proxy       func(*http.Request) (*url.URL, error)
	Headers     http.Header
	Insecure    bool
	// Transport replaces the default transport, mainly for tests.
	Transport http.RoundTripper
}

// headerRoundTripper wraps a base RoundTripper to inject the user agent and
// extra headers. It never retries: a probe is exactly one attempt.
type headerRoundTripper struct {
	base      http.RoundTripper
	userAgent string
	headers   http.Header
}

func (h *headerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, vs := range h.headers {
		r.Header.Del(k)
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	if h.userAgent != "" {
		r.Header.Set("User-Agent", h.userAgent)
	}
	return h.base.RoundTrip(r)
}

// NewTransport returns the RoundTripper probes are sent through. It performs
// exactly one exchange per call and never follows redirects; Location is left
// for the caller to interpret.
func NewTransport(cfg Config) http.RoundTripper {
	base := cfg.Transport
	if base == nil {
		base = &http.Transport{
			Proxy:           cfg.Proxy,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.Insecure},
			DialContext: (&net.Dialer{
				Timeout:   cfg.DialTimeout,
				KeepAlive: -1,
			}).DialContext,
			DisableKeepAlives: true,
			ForceAttemptHTTP2: true,
		}
	}
	return &headerRoundTripper{
		base:      base,
		userAgent: cfg.UserAgent,
		headers:   cfg.Headers,
	}
}
