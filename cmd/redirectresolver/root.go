package main

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/selimozcann/RedirectResolver/internal/config"
	"github.com/selimozcann/RedirectResolver/internal/httpclient"
	"github.com/selimozcann/RedirectResolver/internal/probe"
	"github.com/selimozcann/RedirectResolver/internal/trace"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "redirectresolver",
		Short:         "Resolve HTTP redirect chains without downloading bodies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newResolveCmd(), newServeCmd())
	return root
}

// buildTracer wires client, prober and walker from resolver settings.
func buildTracer(cfg config.ResolverConfig, headers http.Header, logger *zap.Logger, rec trace.Recorder) (*trace.Tracer, error) {
	var proxyFunc func(*http.Request) (*url.URL, error)
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL: %w", err)
		}
		proxyFunc = http.ProxyURL(proxyURL)
	}

	transport := httpclient.NewTransport(httpclient.Config{
		DialTimeout: cfg.Timeout(),
		UserAgent:   cfg.UserAgent,
		Proxy:       proxyFunc,
		Headers:     headers,
		Insecure:    cfg.Insecure,
	})
	prober := probe.New(transport, probe.Config{Timeout: cfg.Timeout(), BlockInternal: cfg.BlockInternal})

	opts := []trace.Option{trace.WithLogger(logger.With(zap.String("component", "trace")))}
	if rec != nil {
		opts = append(opts, trace.WithRecorder(rec))
	}
	return trace.New(prober, trace.Config{MaxRedirects: cfg.MaxRedirects}, opts...)
}

// loadTargets merges positional URLs with those read from file ("-" is stdin).
// Blank lines and lines starting with # are skipped.
func loadTargets(args []string, file string, stdin io.Reader) ([]string, error) {
	targets := make([]string, 0, len(args))
	for _, a := range args {
		if a = strings.TrimSpace(a); a != "" {
			targets = append(targets, a)
		}
	}
	if file == "" {
		return targets, nil
	}

	var r io.Reader
	if file == "-" {
		r = stdin
	} else {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open target file %q: %w", file, err)
		}
		defer f.Close()
		r = f
	}

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("target file read error: %w", err)
	}
	return targets, nil
}

func toHeader(headers []string) (http.Header, error) {
	hdr := make(http.Header)
	for _, h := range headers {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid header %q (expected Key: Value)", h)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			return nil, fmt.Errorf("invalid header %q (empty key)", h)
		}
		hdr.Add(key, value)
	}
	return hdr, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
