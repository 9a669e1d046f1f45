// Package trace walks redirect chains one probe at a time.
package trace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/selimozcann/RedirectResolver/internal/extract"
	"github.com/selimozcann/RedirectResolver/internal/model"
	"github.com/selimozcann/RedirectResolver/internal/netguard"
	"github.com/selimozcann/RedirectResolver/internal/probe"
)

// DefaultMaxRedirects bounds the number of probes that may yield a redirect.
const DefaultMaxRedirects = 10

// Prober observes how a single URL responds.
type Prober interface {
	Probe(ctx context.Context, target string) (probe.Outcome, error)
}

// Recorder receives per-probe and per-walk observations.
type Recorder interface {
	ObserveProbe(outcome string, elapsed time.Duration)
	ObserveWalk(stop model.StopReason, chainLen int, elapsed time.Duration)
}

// Config holds walker settings.
type Config struct {
	MaxRedirects int
	// Schemes recognized when scanning Location values; http and https when empty.
	Schemes []string
}

// Tracer performs manual redirect tracing. Its configuration is fixed at
// construction; concurrent walks share nothing else.
type Tracer struct {
	prober       Prober
	matcher      *extract.Matcher
	maxRedirects int
	logger       *zap.Logger
	recorder     Recorder
}

// Option customizes a Tracer.
type Option func(*Tracer)

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tracer) { t.logger = l }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(t *Tracer) { t.recorder = r }
}

// New creates a new Tracer.
func New(p Prober, cfg Config, opts ...Option) (*Tracer, error) {
	if cfg.MaxRedirects < 0 {
		return nil, fmt.Errorf("max redirects must be >= 0 (got %d)", cfg.MaxRedirects)
	}
	m, err := extract.New(cfg.Schemes...)
	if err != nil {
		return nil, err
	}
	t := &Tracer{
		prober:       p,
		matcher:      m,
		maxRedirects: cfg.MaxRedirects,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Resolve returns the deduplicated chain of URLs visited from seed. It never
// fails: probe failures end the walk and the chain observed so far is
// returned.
func (t *Tracer) Resolve(ctx context.Context, seed string) []string {
	return t.Trace(ctx, seed).Chain
}

// Trace follows redirects starting from seed and records every probe.
func (t *Tracer) Trace(ctx context.Context, seed string) model.Result {
	res := model.Result{Target: seed, StartedAt: time.Now(), Stop: model.StopMaxRedirects}
	urls := []string{seed}

	for hops := 0; hops < t.maxRedirects; {
		current := urls[len(urls)-1]
		start := time.Now()
		out, err := t.prober.Probe(ctx, current)
		elapsed := time.Since(start)

		hop := model.Hop{Index: len(res.Hops), URL: current, Status: out.Status, TimeMs: elapsed.Milliseconds()}
		switch {
		case err != nil:
			hop.Outcome = failureOutcome(err)
			hop.Error = err.Error()
		case out.Kind == probe.Terminal:
			hop.Outcome = model.OutcomeTerminal
		default:
			hop.Outcome = model.OutcomeRedirect
			hop.Location = out.Location
			hop.Found = t.matcher.Find(out.Location)
		}
		res.Hops = append(res.Hops, hop)
		t.observeProbe(hop, elapsed)

		if hop.Outcome != model.OutcomeRedirect {
			res.Stop = model.StopReason(hop.Outcome)
			break
		}
		// one probe is one hop, however many URLs its Location held
		urls = append(urls, hop.Found...)
		hops++
		if len(hop.Found) == 0 {
			res.Stop = model.StopNoTarget
			break
		}
	}

	res.Chain = Dedup(urls)
	elapsed := time.Since(res.StartedAt)
	res.DurationMs = elapsed.Milliseconds()

	t.logger.Debug("Resolved redirect chain",
		zap.String("target", seed),
		zap.Int("hops", len(res.Hops)),
		zap.Int("chain_len", len(res.Chain)),
		zap.String("stop", string(res.Stop)),
		zap.Duration("elapsed", elapsed),
	)
	if t.recorder != nil {
		t.recorder.ObserveWalk(res.Stop, len(res.Chain), elapsed)
	}
	return res
}

func (t *Tracer) observeProbe(hop model.Hop, elapsed time.Duration) {
	fields := []zap.Field{
		zap.Int("index", hop.Index),
		zap.String("url", hop.URL),
		zap.String("outcome", hop.Outcome),
		zap.Duration("elapsed", elapsed),
	}
	if hop.Status != 0 {
		fields = append(fields, zap.Int("status", hop.Status))
	}
	if hop.Location != "" {
		fields = append(fields, zap.String("location", hop.Location))
	}
	if hop.Error != "" {
		fields = append(fields, zap.String("error", hop.Error))
	}
	t.logger.Debug("Probe finished", fields...)
	if t.recorder != nil {
		t.recorder.ObserveProbe(hop.Outcome, elapsed)
	}
}

func failureOutcome(err error) string {
	switch {
	case errors.Is(err, probe.ErrTimeout):
		return model.OutcomeTimeout
	case errors.Is(err, netguard.ErrBlocked):
		return model.OutcomeBlocked
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return model.OutcomeCanceled
	default:
		return model.OutcomeNetwork
	}
}

// Dedup removes repeated entries, keeping the first occurrence of each and
// the relative order of the rest.
func Dedup(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
