package runner

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/selimozcann/RedirectResolver/internal/model"
)

// Tracer resolves a single seed into a detailed result.
type Tracer interface {
	Trace(ctx context.Context, seed string) model.Result
}

// Config holds settings for the runner.
type Config struct {
	Threads   int
	RateLimit float64 // chain walks started per second, 0 = unlimited
}

// Runner coordinates concurrent resolves.
type Runner struct {
	cfg     Config
	tracer  Tracer
	limiter *rate.Limiter

	// OnResult, when set, is called once per finished target in completion
	// order. Calls are serialized.
	OnResult func(model.Result)
}

// New creates a new Runner.
func New(cfg Config, tracer Tracer) *Runner {
	if cfg.Threads < 1 {
		cfg.Threads = 1
	}
	r := &Runner{cfg: cfg, tracer: tracer}
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return r
}

// Run resolves targets and returns results in input order. Targets that were
// never started because ctx ended still get a result holding only the seed.
func (r *Runner) Run(ctx context.Context, targets []string) []model.Result {
	out := make([]model.Result, len(targets))
	done := make([]bool, len(targets))
	mu := &sync.Mutex{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Threads)

	for i, target := range targets {
		if gctx.Err() != nil {
			break
		}
		i, target := i, target
		g.Go(func() error {
			if r.limiter != nil {
				if err := r.limiter.Wait(gctx); err != nil {
					return nil
				}
			}
			res := r.tracer.Trace(gctx, target)
			mu.Lock()
			out[i] = res
			done[i] = true
			if r.OnResult != nil {
				r.OnResult(res)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for i, target := range targets {
		if !done[i] {
			out[i] = model.Result{
				Target:    target,
				Chain:     []string{target},
				Stop:      model.StopCanceled,
				StartedAt: time.Now(),
			}
		}
	}
	return out
}
