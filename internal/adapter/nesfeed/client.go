// Package nesfeed reads the Nashville Electric Service public outage feed.
package nesfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker/v2"

	"github.com/couchcryptid/outage-insights-service/internal/domain"
	"github.com/couchcryptid/outage-insights-service/internal/observability"
)

const (
	DefaultURL       = "https://utilisocial.io/datacapable/v2/p/NES/map/events"
	DefaultUserAgent = "NES-Outage-Checker/1.0"
)

// errDecode marks a feed body that was fetched but could not be parsed.
var errDecode = errors.New("decode feed")

// Client fetches the current outage events. Requests go through a circuit
// breaker; transport errors and non-200 responses count as failures.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	url        string
	userAgent  string
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithClock sets the clock used for health report timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(cl *Client) {
		cl.clock = c
	}
}

// WithBreakerSettings replaces the default circuit breaker settings.
func WithBreakerSettings(st gobreaker.Settings) Option {
	return func(cl *Client) {
		cl.breaker = gobreaker.NewCircuitBreaker[[]byte](st)
	}
}

// NewClient creates a feed client.
func NewClient(url, userAgent string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Client {
	if url == "" {
		url = DefaultURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        "nes-feed",
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
		}),
		url:       url,
		userAgent: userAgent,
		clock:     clockwork.NewRealClock(),
		logger:    logger,
		metrics:   metrics,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchEvents returns every event currently in the feed.
func (c *Client) FetchEvents(ctx context.Context) ([]domain.OutageEvent, error) {
	body, err := c.fetch(ctx)
	if err != nil {
		c.metrics.FeedFetches.WithLabelValues("error").Inc()
		return nil, err
	}
	records, err := decode(body)
	if err != nil {
		c.metrics.FeedFetches.WithLabelValues("error").Inc()
		return nil, err
	}

	c.metrics.FeedFetches.WithLabelValues("success").Inc()
	c.metrics.FeedEvents.Set(float64(len(records)))

	events := make([]domain.OutageEvent, len(records))
	for i, r := range records {
		events[i] = r.Event()
	}
	c.logger.Debug("fetched outage feed", "events", len(events))
	return events, nil
}

func (c *Client) fetch(ctx context.Context) ([]byte, error) {
	return c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("feed request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, &StatusError{Code: resp.StatusCode}
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read feed body: %w", err)
		}
		return body, nil
	})
}

func decode(body []byte) ([]domain.FeedEvent, error) {
	var records []domain.FeedEvent
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", errDecode, err)
	}
	return records, nil
}

// StatusError reports a non-200 feed response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("feed returned status %d", e.Code)
}
