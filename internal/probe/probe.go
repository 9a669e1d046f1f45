// Package probe issues single no-body GET requests to observe how a URL
// redirects.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/selimozcann/RedirectResolver/internal/netguard"
)

var (
	// ErrTimeout means no response headers arrived before the deadline.
	ErrTimeout = errors.New("probe timeout")
	// ErrNetwork covers DNS, connect, reset and malformed-target failures.
	ErrNetwork = errors.New("probe network error")
)

// Kind classifies a successful probe.
type Kind int

const (
	Terminal Kind = iota
	Redirect
)

func (k Kind) String() string {
	if k == Redirect {
		return "redirect"
	}
	return "terminal"
}

// Outcome is what a probe observed from the response headers.
type Outcome struct {
	Kind   Kind
	Status int
	// Location is the absolute redirect target when Kind is Redirect.
	Location string
}

// Config holds probe settings.
type Config struct {
	Timeout       time.Duration
	BlockInternal bool
}

// Prober performs probes. It is immutable and safe for concurrent use.
type Prober struct {
	transport     http.RoundTripper
	timeout       time.Duration
	blockInternal bool
}

// New creates a Prober that sends every request through transport as a single
// exchange. Redirects are never followed and Location is only interpreted here.
func New(transport http.RoundTripper, cfg Config) *Prober {
	return &Prober{transport: transport, timeout: cfg.Timeout, blockInternal: cfg.BlockInternal}
}

type reply struct {
	resp *http.Response
	err  error
}

// Probe sends one GET to target and classifies the response from its status
// line and headers. The body is never read.
func (p *Prober) Probe(ctx context.Context, target string) (Outcome, error) {
	u, err := url.Parse(target)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Outcome{}, fmt.Errorf("%w: unsupported scheme %q", ErrNetwork, u.Scheme)
	}
	if p.blockInternal {
		if err := netguard.Check(u); err != nil {
			return Outcome{}, err
		}
	}

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	replies := make(chan reply, 1)
	go func() {
		resp, err := p.transport.RoundTrip(req)
		replies <- reply{resp: resp, err: err}
	}()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case r := <-replies:
		timer.Stop()
		if r.err != nil {
			if ctx.Err() != nil {
				return Outcome{}, ctx.Err()
			}
			return Outcome{}, fmt.Errorf("%w: %v", ErrNetwork, r.err)
		}
		return classify(req.URL, r.resp), nil
	case <-timer.C:
		cancel()
		release(replies)
		return Outcome{}, fmt.Errorf("%w: no response headers within %s", ErrTimeout, p.timeout)
	case <-ctx.Done():
		cancel()
		release(replies)
		return Outcome{}, ctx.Err()
	}
}

// release waits for the aborted request to unwind so its connection is
// closed before the probe returns.
func release(replies <-chan reply) {
	r := <-replies
	if r.resp != nil && r.resp.Body != nil {
		_ = r.resp.Body.Close()
	}
}

func classify(base *url.URL, resp *http.Response) Outcome {
	// Closing an unread body drops the connection instead of draining it.
	if resp.Body != nil {
		_ = resp.Body.Close()
	}

	out := Outcome{Kind: Terminal, Status: resp.StatusCode}
	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		return out
	}
	loc := resp.Header.Get("Location")
	if loc == "" {
		return out
	}
	ref, err := url.Parse(loc)
	if err != nil {
		return out
	}
	out.Kind = Redirect
	out.Location = base.ResolveReference(ref).String()
	return out
}
