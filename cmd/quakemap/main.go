package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/quake-map-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/quake-map-service/internal/adapter/kafka"
	"github.com/couchcryptid/quake-map-service/internal/adapter/mapbox"
	"github.com/couchcryptid/quake-map-service/internal/adapter/sqlite"
	"github.com/couchcryptid/quake-map-service/internal/adapter/usgs"
	"github.com/couchcryptid/quake-map-service/internal/config"
	"github.com/couchcryptid/quake-map-service/internal/mapview"
	"github.com/couchcryptid/quake-map-service/internal/observability"
	"github.com/couchcryptid/quake-map-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	opts := pipeline.Options{
		Interval:   cfg.FeedRefreshInterval,
		MaxRetries: cfg.FeedMaxRetries,
	}

	// Reverse geocoding for unlabelled events (MAPBOX_ENABLED / MAPBOX_TOKEN).
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		opts.Geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	var store *sqlite.Store
	if cfg.SnapshotDBPath != "" {
		store, err = sqlite.Open(cfg.SnapshotDBPath)
		if err != nil {
			logger.Error("failed to open snapshot store", "path", cfg.SnapshotDBPath, "error", err)
			os.Exit(1)
		}
		opts.Store = store
		logger.Info("snapshot store enabled", "path", cfg.SnapshotDBPath)
	}

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		opts.Publisher = writer
		logger.Info("kafka marker publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	feed := usgs.NewClient(cfg.FeedURL, cfg.FeedTimeout, logger)
	composer := mapview.NewComposer(mapview.Options{
		Center: cfg.MapCenter,
		Zoom:   cfg.MapZoom,
		Scale:  cfg.DepthBuckets,
	})

	refresher := pipeline.New(feed, composer, logger, metrics, opts)
	srv := httpadapter.NewServer(cfg.HTTPAddr, refresher, composer, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	refresherDone := make(chan struct{})
	go func() {
		defer close(refresherDone)
		if err := refresher.Run(ctx); err != nil {
			logger.Error("refresher error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	select {
	case <-refresherDone:
	case <-shutdownCtx.Done():
		logger.Warn("refresher did not stop before shutdown timeout")
	}

	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("snapshot store close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
