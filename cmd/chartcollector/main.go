// Command chartcollector records one chart point for the current 10-minute
// interval and exits. It is meant to run from a scheduler such as cron.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/outage-insights-service/internal/adapter/nesfeed"
	"github.com/couchcryptid/outage-insights-service/internal/chart"
	"github.com/couchcryptid/outage-insights-service/internal/config"
	"github.com/couchcryptid/outage-insights-service/internal/observability"
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

	store, err := storage.New(cfg.StorageOptions(), logger)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}

	feed := nesfeed.NewClient(cfg.FeedURL, cfg.FeedUserAgent, cfg.FeedTimeout, logger, metrics)
	collector := chart.NewCollector(feed, store, cfg.ChartObjectKey, cfg.ChartRetention, clockwork.NewRealClock(), logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	point, err := collector.Collect(ctx)
	if err != nil {
		logger.Error("chart collection failed", "error", err)
		os.Exit(1)
	}
	logger.Info("chart point recorded",
		"timestamp", point.Timestamp,
		"num_people", point.NumPeople,
		"event_count", point.EventCount,
	)
}
