package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	httpadapter "github.com/couchcryptid/outage-insights-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/outage-insights-service/internal/adapter/kafka"
	"github.com/couchcryptid/outage-insights-service/internal/adapter/nesfeed"
	"github.com/couchcryptid/outage-insights-service/internal/adapter/nominatim"
	"github.com/couchcryptid/outage-insights-service/internal/config"
	"github.com/couchcryptid/outage-insights-service/internal/domain"
	"github.com/couchcryptid/outage-insights-service/internal/geocache"
	"github.com/couchcryptid/outage-insights-service/internal/observability"
	"github.com/couchcryptid/outage-insights-service/internal/pipeline"
	"github.com/couchcryptid/outage-insights-service/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("invalid timezone", "error", err)
		os.Exit(1)
	}
	domain.SetLocation(loc)

	store, err := storage.New(cfg.StorageOptions(), logger)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	cache := geocache.NewMemo(geocache.New(store, cfg.GeocodeCacheKey), cfg.GeocodeMemoSize)

	// Reverse geocoding is feature-flagged via GEOCODER_ENABLED.
	var geocoder domain.ZipGeocoder
	if cfg.GeocoderEnabled {
		client := nominatim.NewClient(cfg.GeocoderBaseURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout, logger, metrics)
		geocoder = nominatim.NewRateLimited(client, cfg.GeocoderRateLimit)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("reverse geocoding enabled", "base_url", cfg.GeocoderBaseURL, "rate_limit", cfg.GeocoderRateLimit)
	} else {
		logger.Info("reverse geocoding disabled")
	}

	registry := domain.DefaultRegistry()
	resolver := domain.NewZipResolver(registry, geocoder, cache, logger,
		domain.WithResolveHook(func(src domain.ResolveSource) {
			metrics.ZipResolutions.WithLabelValues(string(src)).Inc()
		}),
	)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(resolver, registry, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	feed := nesfeed.NewClient(cfg.FeedURL, cfg.FeedUserAgent, cfg.FeedTimeout, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger,
		httpadapter.WithRegistry(registry),
		httpadapter.WithFeedHealth(feed),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return p.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("service error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
