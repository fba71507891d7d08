// Package main provides the entry point for the OpenAlex explorer dashboard.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/helixir/openalex-explorer/internal/cache"
	"github.com/helixir/openalex-explorer/internal/config"
	"github.com/helixir/openalex-explorer/internal/observability"
	"github.com/helixir/openalex-explorer/internal/openalex"
	httpserver "github.com/helixir/openalex-explorer/internal/server/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; anything else is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("openalex-explorer starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	// Connect to Redis when the response cache is enabled.
	var responseCache cache.Cache = cache.NopCache{}
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			PoolSize: cfg.Cache.PoolSize,
		}, logger)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		responseCache = redisCache
		logger.Info().Str("addr", cfg.Cache.Addr).Msg("redis cache connected")
	}
	defer func() {
		if closeErr := responseCache.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close cache")
		}
	}()

	client := openalex.New(openalex.Config{
		BaseURL:     cfg.OpenAlex.BaseURL,
		Email:       cfg.OpenAlex.Email,
		Timeout:     cfg.OpenAlex.Timeout,
		RateLimit:   cfg.OpenAlex.RateLimit,
		BurstSize:   cfg.OpenAlex.Burst,
		MaxRetries:  cfg.OpenAlex.ClientMaxRetries(),
		RetryDelay:  cfg.OpenAlex.RetryDelay,
		DetailTTL:   cfg.Cache.DetailTTL,
		ListTTL:     cfg.Cache.ListTTL,
		Concurrency: cfg.OpenAlex.Concurrency,
	},
		openalex.WithCache(cache.NewLoader(responseCache, metrics, logger)),
		openalex.WithMetrics(metrics),
		openalex.WithLogger(logger),
	)

	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		PerPage:         cfg.UI.PerPage,
		RelatedWorks:    cfg.UI.RelatedWorks,
		OverviewWorks:   cfg.UI.OverviewWorks,
	}
	httpSrv := httpserver.NewServer(httpCfg, client, metrics, logger)

	// Set up Prometheus metrics handler on a separate port if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}

	// Channel to collect server errors.
	errCh := make(chan error, 2)

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if metricsServer != nil {
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().
		Str("http_address", httpCfg.Address).
		Str("openalex", cfg.OpenAlex.BaseURL).
		Bool("cache", cfg.Cache.Enabled)
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("openalex-explorer is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	logger.Info().Msg("shutting down openalex-explorer")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("openalex-explorer shutdown complete")
	return nil
}
