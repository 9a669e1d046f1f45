// Package api exposes the resolver over HTTP.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/selimozcann/RedirectResolver/internal/config"
	"github.com/selimozcann/RedirectResolver/internal/metrics"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	router  *gin.Engine
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewServer wires middleware and routes around resolver.
func NewServer(cfg *config.Config, resolver Resolver, logger *zap.Logger, m *metrics.Metrics) *Server {
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(RequestID())
	router.Use(Recovery(logger))
	router.Use(Logger(logger))
	if m != nil {
		router.Use(Metrics(m))
	}
	if cfg.CORS.Enabled {
		router.Use(CORS(cfg.CORS))
	}

	h := NewHandlers(resolver)
	router.GET("/health", h.Health)
	router.GET("/swagger", h.Swagger)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	resolve := []gin.HandlerFunc{h.RedirectionChain}
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Float64("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		resolve = append([]gin.HandlerFunc{RateLimit(cfg.RateLimit)}, resolve...)
	}
	router.GET("/redirection-chain", resolve...)
	router.NoRoute(h.NotFound)

	return &Server{router: router, cfg: cfg, logger: logger, metrics: m}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server", zap.Duration("timeout", s.cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
