package domain

import (
	"context"
	"log/slog"
)

// ResolveSource names the step of the fallback chain that produced a zip.
type ResolveSource string

const (
	SourceEvent    ResolveSource = "event"
	SourceCache    ResolveSource = "cache"
	SourceGeocoder ResolveSource = "geocoder"
	SourceNearest  ResolveSource = "nearest"
	SourceNone     ResolveSource = "none"
)

// CacheKey builds the geocode cache key for a coordinate: each component
// rounded to 4 decimal places (ties away from zero), joined by a comma.
func CacheKey(lat, lon float64) string {
	return toFixed(lat, 4) + "," + toFixed(lon, 4)
}

// ZipResolver assigns zip codes to outage events through the chain
// event zip -> cache -> reverse geocoder -> nearest registered zip.
type ZipResolver struct {
	registry *ZipRegistry
	geocoder ZipGeocoder
	cache    GeocodeCache
	logger   *slog.Logger
	onResult func(ResolveSource)
}

// ResolverOption configures a ZipResolver.
type ResolverOption func(*ZipResolver)

// WithResolveHook registers fn to be called with the source of every resolution.
func WithResolveHook(fn func(ResolveSource)) ResolverOption {
	return func(r *ZipResolver) {
		r.onResult = fn
	}
}

// NewZipResolver creates a resolver. A nil geocoder skips straight to the
// nearest-zip fallback; a nil cache disables caching.
func NewZipResolver(registry *ZipRegistry, geocoder ZipGeocoder, cache GeocodeCache, logger *slog.Logger, opts ...ResolverOption) *ZipResolver {
	r := &ZipResolver{
		registry: registry,
		geocoder: geocoder,
		cache:    cache,
		logger:   logger,
		onResult: func(ResolveSource) {},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveZip returns the zip code for event, or ok == false when none can be
// determined. Resolved values (including failures) are written to the cache;
// a cached failure is returned as-is and never retried.
func (r *ZipResolver) ResolveZip(ctx context.Context, event OutageEvent) (string, bool) {
	if event.ZipCode != nil {
		r.onResult(SourceEvent)
		return *event.ZipCode, true
	}
	if !event.HasCoordinates() {
		r.onResult(SourceNone)
		return "", false
	}

	lat, lon := *event.Latitude, *event.Longitude
	key := CacheKey(lat, lon)

	if r.cache != nil {
		value, found, err := r.cache.Lookup(ctx, key)
		switch {
		case err != nil:
			r.logger.Warn("geocode cache read failed", "key", key, "error", err)
		case found:
			r.onResult(SourceCache)
			if value == nil {
				return "", false
			}
			return *value, true
		}
	}

	if r.geocoder != nil {
		if zip, ok := r.geocoder.ReverseGeocode(ctx, lat, lon); ok {
			r.store(ctx, key, &zip)
			r.onResult(SourceGeocoder)
			return zip, true
		}
	}

	// A geocoder miss caused by cancellation says nothing about the location.
	if ctx.Err() != nil {
		return "", false
	}

	zip, ok := r.registry.ClosestZip(lat, lon)
	if !ok {
		r.store(ctx, key, nil)
		r.onResult(SourceNone)
		return "", false
	}
	r.logger.Debug("using nearest registered zip", "event_id", event.ID, "lat", lat, "lon", lon, "zip", zip)
	r.store(ctx, key, &zip)
	r.onResult(SourceNearest)
	return zip, true
}

// ResolveAll returns a copy of events with zip codes filled in where they can
// be resolved. Events are processed in order, one at a time. Once ctx is done
// the remaining events are copied unresolved.
func (r *ZipResolver) ResolveAll(ctx context.Context, events []OutageEvent) []OutageEvent {
	out := make([]OutageEvent, len(events))
	for i, event := range events {
		if event.ZipCode == nil && ctx.Err() == nil {
			if zip, ok := r.ResolveZip(ctx, event); ok {
				event.ZipCode = &zip
			}
		}
		out[i] = event
	}
	return out
}

func (r *ZipResolver) store(ctx context.Context, key string, value *string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Store(ctx, key, value); err != nil {
		r.logger.Warn("geocode cache write failed", "key", key, "error", err)
	}
}
