// Package nominatim reverse geocodes coordinates to US zip codes with the
// OpenStreetMap Nominatim API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/outage-insights-service/internal/domain"
	"github.com/couchcryptid/outage-insights-service/internal/observability"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "NES-Outage-Checker/1.0"
)

// Client implements domain.ZipGeocoder. It issues exactly one request per
// call with no retries; rate limiting is left to RateLimited.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

var _ domain.ZipGeocoder = (*Client)(nil)

// NewClient creates a Nominatim client. A zero timeout means no timeout.
func NewClient(baseURL, userAgent string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		userAgent:  userAgent,
		metrics:    metrics,
		logger:     logger,
	}
}

// ReverseGeocode returns the postcode at (lat, lon). Any failure is logged
// and reported as ok == false.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (string, bool) {
	start := time.Now()
	zip, err := c.reverse(ctx, lat, lon)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		c.logger.Warn("reverse geocoding failed", "lat", lat, "lon", lon, "error", err)
		return "", false
	case zip == "":
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		c.logger.Debug("reverse geocoding returned no postcode", "lat", lat, "lon", lon)
		return "", false
	}
	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	return zip, true
}

func (c *Client) reverse(ctx context.Context, lat, lon float64) (string, error) {
	params := url.Values{
		"format": {"json"},
		"lat":    {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(lon, 'f', -1, 64)},
	}
	fullURL := c.baseURL + "/reverse?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if r.Address == nil {
		return "", nil
	}
	return r.Address.Postcode, nil
}

// Nominatim API response types.

type response struct {
	Address *address `json:"address"`
}

type address struct {
	Postcode string `json:"postcode"`
}
