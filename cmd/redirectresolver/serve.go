package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/selimozcann/RedirectResolver/internal/api"
	"github.com/selimozcann/RedirectResolver/internal/config"
	"github.com/selimozcann/RedirectResolver/internal/logging"
	"github.com/selimozcann/RedirectResolver/internal/metrics"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the redirection chain API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, closeLog, err := logging.New(cfg.Log, logging.Options{Console: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer closeLog()

			logger.Info("Initializing redirect resolver server",
				zap.String("addr", cfg.Server.Addr),
				zap.Int("timeout_ms", cfg.Resolver.TimeoutMS),
				zap.Int("max_redirects", cfg.Resolver.MaxRedirects),
				zap.Bool("block_internal", cfg.Resolver.BlockInternal),
			)

			m := metrics.New()
			tracer, err := buildTracer(cfg.Resolver, nil, logger, m)
			if err != nil {
				return err
			}
			srv := api.NewServer(cfg, tracer, logger.With(zap.String("component", "api")), m)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.Run(ctx); err != nil {
				logger.Error("Server stopped", zap.Error(err))
				return err
			}
			logger.Info("Server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address (overrides SERVER_ADDR)")
	return cmd
}
