package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/selimozcann/RedirectResolver/internal/config"
	"github.com/selimozcann/RedirectResolver/internal/logging"
	"github.com/selimozcann/RedirectResolver/internal/model"
	"github.com/selimozcann/RedirectResolver/internal/output"
	"github.com/selimozcann/RedirectResolver/internal/runner"
)

type resolveOptions struct {
	file          string
	threads       int
	rateLimit     float64
	timeout       time.Duration
	maxRedirects  int
	userAgent     string
	headers       []string
	proxy         string
	insecure      bool
	blockInternal bool
	outputJSONL   string
	json          bool
	silent        bool
	noColor       bool
	verbose       bool
}

func newResolveCmd() *cobra.Command {
	opts := &resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve [url...]",
		Short: "Print the redirect chain of each URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "File with one URL per line (- for stdin)")
	f.IntVarP(&opts.threads, "threads", "t", 10, "Concurrent chains")
	f.Float64Var(&opts.rateLimit, "rl", 0, "Chains started per second (0 = unlimited)")
	f.DurationVar(&opts.timeout, "timeout", 5*time.Second, "Per-probe header timeout")
	f.IntVar(&opts.maxRedirects, "max-redirects", 10, "Maximum redirect hops per chain")
	f.StringVar(&opts.userAgent, "user-agent", config.DefaultUserAgent, "User-Agent sent on every probe")
	f.StringArrayVarP(&opts.headers, "header", "H", nil, "Extra HTTP header (repeatable)")
	f.StringVar(&opts.proxy, "proxy", "", "HTTP(S) proxy URL")
	f.BoolVar(&opts.insecure, "insecure", false, "Skip TLS verification")
	f.BoolVar(&opts.blockInternal, "block-internal", false, "Refuse to probe private and loopback hosts")
	f.StringVarP(&opts.outputJSONL, "output", "o", "", "JSONL output file")
	f.BoolVar(&opts.json, "json", false, "Print each chain as a JSON array")
	f.BoolVar(&opts.silent, "silent", false, "Suppress console output")
	f.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Log every probe to stderr")
	return cmd
}

// apply overrides env-derived settings with the flags the user set.
func (o *resolveOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("timeout") {
		cfg.Resolver.TimeoutMS = int(o.timeout.Milliseconds())
	}
	if f.Changed("max-redirects") {
		cfg.Resolver.MaxRedirects = o.maxRedirects
	}
	if f.Changed("user-agent") {
		cfg.Resolver.UserAgent = o.userAgent
	}
	if f.Changed("proxy") {
		cfg.Resolver.Proxy = o.proxy
	}
	if f.Changed("insecure") {
		cfg.Resolver.Insecure = o.insecure
	}
	if f.Changed("block-internal") {
		cfg.Resolver.BlockInternal = o.blockInternal
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
}

func runResolve(cmd *cobra.Command, args []string, opts *resolveOptions) error {
	if opts.threads <= 0 {
		return fmt.Errorf("-t must be greater than zero (got %d)", opts.threads)
	}
	if opts.rateLimit < 0 {
		return fmt.Errorf("--rl must be >= 0 (got %v)", opts.rateLimit)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	opts.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	headers, err := toHeader(opts.headers)
	if err != nil {
		return err
	}
	targets, err := loadTargets(args, opts.file, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return errors.New("no targets: pass URLs as arguments or use -f")
	}

	logger, closeLog, err := logging.New(cfg.Log, logging.Options{Console: cmd.ErrOrStderr(), Quiet: !opts.verbose})
	if err != nil {
		return err
	}
	defer closeLog()

	tracer, err := buildTracer(cfg.Resolver, headers, logger, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var jsonl *output.JSONLWriter
	if opts.outputJSONL != "" {
		if err := ensureDir(opts.outputJSONL); err != nil {
			return fmt.Errorf("create JSONL directory: %w", err)
		}
		f, err := os.Create(opts.outputJSONL)
		if err != nil {
			return fmt.Errorf("create JSONL file: %w", err)
		}
		jsonl = output.NewJSONLWriter(f)
		defer func() {
			if jsonl != nil {
				_ = jsonl.Close()
			}
		}()
	}

	human := !opts.silent && !opts.json
	if human {
		output.PrintBanner(cmd.ErrOrStderr())
	}
	logger.Debug("Starting resolve",
		zap.Int("targets", len(targets)),
		zap.Int("threads", opts.threads),
		zap.Float64("rate_limit", opts.rateLimit),
		zap.Duration("timeout", cfg.Resolver.Timeout()),
		zap.Int("max_redirects", cfg.Resolver.MaxRedirects),
	)

	printer := output.NewPrinter(cmd.OutOrStdout(), opts.noColor)
	r := runner.New(runner.Config{Threads: opts.threads, RateLimit: opts.rateLimit}, tracer)
	r.OnResult = func(res model.Result) {
		if human {
			printer.PrintResult(res)
		}
		if jsonl != nil {
			if err := jsonl.Write(res); err != nil {
				logger.Warn("Failed to write JSONL record", zap.String("target", res.Target), zap.Error(err))
			}
		}
	}
	results := r.Run(ctx, targets)

	if opts.json && !opts.silent {
		for _, res := range results {
			if err := printer.PrintChain(res); err != nil {
				return err
			}
		}
	}
	if human && len(results) > 1 {
		printer.PrintSummary(output.Summarize(results))
	}
	if jsonl != nil {
		if err := jsonl.Close(); err != nil {
			return fmt.Errorf("write JSONL: %w", err)
		}
		jsonl = nil
	}
	return nil
}
