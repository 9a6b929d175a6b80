package nominatim

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/outage-insights-service/internal/domain"
)

// RateLimited spaces calls to the wrapped geocoder at least interval apart.
// Nominatim's usage policy allows one request per second.
type RateLimited struct {
	inner   domain.ZipGeocoder
	limiter *rate.Limiter
}

var _ domain.ZipGeocoder = (*RateLimited)(nil)

// NewRateLimited wraps inner. A zero interval disables limiting.
func NewRateLimited(inner domain.ZipGeocoder, interval time.Duration) *RateLimited {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &RateLimited{inner: inner, limiter: rate.NewLimiter(limit, 1)}
}

// ReverseGeocode waits for the limiter, then delegates. A cancelled wait is
// reported as ok == false without calling the wrapped geocoder.
func (r *RateLimited) ReverseGeocode(ctx context.Context, lat, lon float64) (string, bool) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", false
	}
	return r.inner.ReverseGeocode(ctx, lat, lon)
}
