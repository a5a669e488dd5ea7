package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/bikeshare-trip-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/bikeshare-trip-etl/internal/adapter/kafka"
	"github.com/couchcryptid/bikeshare-trip-etl/internal/clean"
	"github.com/couchcryptid/bikeshare-trip-etl/internal/config"
	"github.com/couchcryptid/bikeshare-trip-etl/internal/ingest"
	"github.com/couchcryptid/bikeshare-trip-etl/internal/observability"
	"github.com/couchcryptid/bikeshare-trip-etl/internal/pipeline"
	"github.com/couchcryptid/bikeshare-trip-etl/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	cleaner := clean.New(logger, metrics,
		clean.WithDurationWindow(cfg.MinDurationMinutes, cfg.MaxDurationMinutes))

	trips := ingest.NewTripFetcher(cfg.DownloadTimeout, logger)
	stations := ingest.NewStationFetcher(30*time.Second, logger)
	weather := ingest.NewWeatherClient(30*time.Second, logger)

	// Cleaned-trip Kafka sink (feature-flagged via KAFKA_BROKERS / KAFKA_ENABLED).
	var publisher pipeline.TripPublisher
	if cfg.KafkaEnabled {
		kp := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger, metrics)
		defer kp.Close()
		publisher = kp
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres sink for the merged dataset (feature-flagged via DATABASE_URL).
	var store pipeline.MergedStore
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.Ping(ctx, db); err != nil {
			logger.Error("database unreachable", "error", err)
			os.Exit(1)
		}
		store = postgres.NewRepository(db, logger)
		logger.Info("postgres storage enabled")
	} else {
		logger.Info("postgres storage disabled")
	}

	p := pipeline.New(cfg, cleaner, trips, stations, weather, publisher, store, logger, metrics)

	// Admin HTTP server, useful when the batch runs under an orchestrator
	// that scrapes metrics and probes readiness.
	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	if err := p.Run(ctx); err != nil {
		logger.Error("pipeline failed", "error", err)
		os.Exit(1)
	}
}
