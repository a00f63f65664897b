package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/geo38"
	"github.com/kailas-cloud/geo38/internal/config"
	logpkg "github.com/kailas-cloud/geo38/internal/logger"
	"github.com/kailas-cloud/geo38/internal/metrics"
	chiTransport "github.com/kailas-cloud/geo38/internal/transport/chi"
	"github.com/kailas-cloud/geo38/internal/version"
)

func serveCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		Long: `Run the HTTP gateway. Configuration is read from config/<ENV>.yaml
unless --config is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env := config.GetEnv()

			var (
				cfg config.Config
				err error
			)
			if configPath != "" {
				cfg, err = config.LoadFile(configPath)
			} else {
				cfg, err = config.Load(env)
			}
			if err != nil {
				return err
			}

			logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, env, logger)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	return cmd
}

func serve(ctx context.Context, cfg config.Config, env string, logger *zap.Logger) error {
	logger.Info("Starting geo38 gateway",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	conn, err := geo38.NewTransport(cfg.Database.Driver, cfg.Database.Addrs, cfg.Database.Username, cfg.Database.Password)
	if err != nil {
		return err
	}
	client, err := geo38.New(ctx,
		geo38.WithTransport(conn),
		geo38.WithReadinessTimeout(cfg.Database.Readiness()),
		geo38.WithLogger(logger),
		geo38.WithPrometheus(reg),
	)
	if err != nil {
		return err
	}
	defer client.Close()
	logger.Info("Connected to database")

	srv := chiTransport.NewServer(client, metrics.NewHTTP(reg), logger, int64(cfg.HTTP.MaxBodyBytes)).
		WithSearchLimits(cfg.Search.DefaultLimit, cfg.Search.MaxLimit)

	addr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Routes(cfg.Auth.APIKeys, reg),
		ReadTimeout:       cfg.HTTP.ReadTimeout(),
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout(),
		WriteTimeout:      cfg.HTTP.WriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout())
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
