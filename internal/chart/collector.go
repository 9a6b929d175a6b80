package chart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/outage-insights-service/internal/domain"
	"github.com/couchcryptid/outage-insights-service/internal/observability"
	"github.com/couchcryptid/outage-insights-service/internal/storage"
)

const (
	DefaultObjectKey = "chart-data.json"
	DefaultRetention = 60 * 24 * time.Hour
)

// EventSource provides the current outage events.
type EventSource interface {
	FetchEvents(ctx context.Context) ([]domain.OutageEvent, error)
}

// Collector appends the current feed aggregate to the persisted series.
type Collector struct {
	source    EventSource
	store     storage.Store
	key       string
	retention time.Duration
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewCollector creates a collector. Empty key and zero retention use the defaults.
func NewCollector(source EventSource, store storage.Store, key string, retention time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Collector {
	if key == "" {
		key = DefaultObjectKey
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Collector{
		source:    source,
		store:     store,
		key:       key,
		retention: retention,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// Collect fetches the feed, records the point for the current interval, and
// persists the trimmed series. An unreadable stored series is replaced.
func (c *Collector) Collect(ctx context.Context) (Point, error) {
	events, err := c.source.FetchEvents(ctx)
	if err != nil {
		return Point{}, fmt.Errorf("fetch events: %w", err)
	}

	now := c.clock.Now()
	point := ComputePoint(events, now)

	series := c.load(ctx)
	series = series.Upsert(point).Trim(now, c.retention)

	data, err := json.Marshal(series)
	if err != nil {
		return Point{}, fmt.Errorf("encode chart series: %w", err)
	}
	if err := c.store.Put(ctx, c.key, data); err != nil {
		return Point{}, fmt.Errorf("persist chart series: %w", err)
	}

	c.metrics.ChartPointsWritten.Inc()
	c.metrics.ChartSeriesLength.Set(float64(len(series)))
	c.logger.Info("chart series updated",
		"key", c.key,
		"points", len(series),
		"interval", point.Timestamp.Format(time.RFC3339),
		"events", point.EventCount,
	)
	return point, nil
}

// Series returns the persisted series, or an empty one if none is stored.
func (c *Collector) Series(ctx context.Context) (Series, error) {
	data, err := c.store.Get(ctx, c.key)
	if errors.Is(err, storage.ErrNotFound) {
		return Series{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load chart series: %w", err)
	}
	var s Series
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode chart series: %w", err)
	}
	return s.normalize(), nil
}

func (c *Collector) load(ctx context.Context) Series {
	s, err := c.Series(ctx)
	if err != nil {
		c.logger.Warn("could not load existing chart series", "key", c.key, "error", err)
		return Series{}
	}
	return s
}
