package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockGeocoder struct {
	zip   string
	ok    bool
	calls int
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (string, bool) {
	m.calls++
	return m.zip, m.ok
}

// ctxGeocoder fails once its context is done, like the rate-limited client.
type ctxGeocoder struct {
	zip   string
	calls int
}

func (g *ctxGeocoder) ReverseGeocode(ctx context.Context, _, _ float64) (string, bool) {
	if ctx.Err() != nil {
		return "", false
	}
	g.calls++
	return g.zip, true
}

type mapCache struct {
	entries map[string]*string
	reads   int
	writes  int
	readErr error
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]*string)}
}

func (c *mapCache) Lookup(_ context.Context, key string) (*string, bool, error) {
	c.reads++
	if c.readErr != nil {
		return nil, false, c.readErr
	}
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *mapCache) Store(_ context.Context, key string, value *string) error {
	c.writes++
	c.entries[key] = value
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

func eventAt(lat, lon float64) OutageEvent {
	return OutageEvent{ID: 1, Latitude: ptr(lat), Longitude: ptr(lon)}
}

// --- tests ---

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "36.1627,-86.7816", CacheKey(36.1627, -86.7816))
	assert.Equal(t, "36.1628,-86.7816", CacheKey(36.16275001, -86.78160001))
	assert.Equal(t, "36.0000,-86.5000", CacheKey(36, -86.5))
	// Exact binary ties round away from zero.
	assert.Equal(t, "36.0313,-86.5313", CacheKey(36.03125, -86.53125))
}

func TestResolveZip_EventZipUnchanged(t *testing.T) {
	geo := &mockGeocoder{zip: "37999", ok: true}
	cache := newMapCache()
	r := NewZipResolver(DefaultRegistry(), geo, cache, discardLogger())

	event := eventAt(36.16, -86.78)
	event.ZipCode = ptr("37203-1234")

	zip, ok := r.ResolveZip(context.Background(), event)

	require.True(t, ok)
	assert.Equal(t, "37203-1234", zip)
	assert.Equal(t, 0, cache.reads)
	assert.Equal(t, 0, cache.writes)
	assert.Equal(t, 0, geo.calls)
}

func TestResolveZip_MissingCoordinates(t *testing.T) {
	geo := &mockGeocoder{zip: "37203", ok: true}
	cache := newMapCache()
	r := NewZipResolver(DefaultRegistry(), geo, cache, discardLogger())

	tests := []struct {
		name  string
		event OutageEvent
	}{
		{"no coordinates", OutageEvent{ID: 1}},
		{"latitude only", OutageEvent{ID: 2, Latitude: ptr(36.1)}},
		{"longitude only", OutageEvent{ID: 3, Longitude: ptr(-86.7)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zip, ok := r.ResolveZip(context.Background(), tt.event)
			assert.False(t, ok)
			assert.Empty(t, zip)
		})
	}
	assert.Equal(t, 0, geo.calls)
	assert.Equal(t, 0, cache.reads)
}

func TestResolveZip_ZeroCoordinatesArePresent(t *testing.T) {
	geo := &mockGeocoder{zip: "00000", ok: true}
	r := NewZipResolver(DefaultRegistry(), geo, newMapCache(), discardLogger())

	zip, ok := r.ResolveZip(context.Background(), eventAt(0, 0))

	require.True(t, ok)
	assert.Equal(t, "00000", zip)
	assert.Equal(t, 1, geo.calls)
}

func TestResolveZip_GeocoderSuccessIsCached(t *testing.T) {
	geo := &mockGeocoder{zip: "37203", ok: true}
	cache := newMapCache()
	r := NewZipResolver(DefaultRegistry(), geo, cache, discardLogger())

	first, ok := r.ResolveZip(context.Background(), eventAt(36.16331, -86.75204))
	require.True(t, ok)
	// Rounds to the same 4-decimal key.
	second, ok := r.ResolveZip(context.Background(), eventAt(36.16329, -86.75196))
	require.True(t, ok)

	assert.Equal(t, "37203", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, geo.calls, "second call should be a cache hit")
	require.Contains(t, cache.entries, "36.1633,-86.7520")
	assert.Equal(t, "37203", *cache.entries["36.1633,-86.7520"])
}

func TestResolveZip_FallsBackToNearest(t *testing.T) {
	geo := &mockGeocoder{ok: false}
	cache := newMapCache()
	r := NewZipResolver(DefaultRegistry(), geo, cache, discardLogger())

	zip, ok := r.ResolveZip(context.Background(), eventAt(36.1633, -86.7520))

	require.True(t, ok)
	assert.Equal(t, "37203", zip)
	assert.Equal(t, 1, geo.calls)
	assert.Equal(t, "37203", *cache.entries["36.1633,-86.7520"])
}

func TestResolveZip_NilGeocoderUsesNearest(t *testing.T) {
	r := NewZipResolver(DefaultRegistry(), nil, nil, discardLogger())

	zip, ok := r.ResolveZip(context.Background(), eventAt(36.3167, -86.6950))

	require.True(t, ok)
	assert.Equal(t, "37229", zip)
}

func TestResolveZip_EmptyRegistryCachesNull(t *testing.T) {
	geo := &mockGeocoder{ok: false}
	cache := newMapCache()
	r := NewZipResolver(NewZipRegistry(nil), geo, cache, discardLogger())

	zip, ok := r.ResolveZip(context.Background(), eventAt(36.1, -86.7))
	assert.False(t, ok)
	assert.Empty(t, zip)

	value, found := cache.entries["36.1000,-86.7000"]
	require.True(t, found, "failed resolution should be cached")
	assert.Nil(t, value)
}

func TestResolveZip_CachedNullIsNotRetried(t *testing.T) {
	geo := &mockGeocoder{zip: "37203", ok: true}
	cache := newMapCache()
	cache.entries["36.1000,-86.7000"] = nil
	r := NewZipResolver(DefaultRegistry(), geo, cache, discardLogger())

	zip, ok := r.ResolveZip(context.Background(), eventAt(36.1, -86.7))

	assert.False(t, ok)
	assert.Empty(t, zip)
	assert.Equal(t, 0, geo.calls)
	assert.Equal(t, 0, cache.writes)
}

func TestResolveZip_CacheReadErrorFallsThrough(t *testing.T) {
	geo := &mockGeocoder{zip: "37206", ok: true}
	cache := newMapCache()
	cache.readErr = errors.New("disk on fire")
	r := NewZipResolver(DefaultRegistry(), geo, cache, discardLogger())

	zip, ok := r.ResolveZip(context.Background(), eventAt(36.15, -86.71))

	require.True(t, ok)
	assert.Equal(t, "37206", zip)
	assert.Equal(t, 1, geo.calls)
}

func TestResolveZip_Hook(t *testing.T) {
	var sources []ResolveSource
	geo := &mockGeocoder{zip: "37203", ok: true}
	r := NewZipResolver(DefaultRegistry(), geo, newMapCache(), discardLogger(),
		WithResolveHook(func(s ResolveSource) { sources = append(sources, s) }))

	withZip := eventAt(36.16, -86.75)
	withZip.ZipCode = ptr("37201")

	r.ResolveZip(context.Background(), withZip)
	r.ResolveZip(context.Background(), OutageEvent{})
	r.ResolveZip(context.Background(), eventAt(36.16, -86.75))
	r.ResolveZip(context.Background(), eventAt(36.16, -86.75))

	assert.Equal(t, []ResolveSource{SourceEvent, SourceNone, SourceGeocoder, SourceCache}, sources)
}

func TestResolveAll(t *testing.T) {
	r := NewZipResolver(DefaultRegistry(), nil, newMapCache(), discardLogger())

	withZip := eventAt(36.16, -86.75)
	withZip.ZipCode = ptr("37212")
	events := []OutageEvent{withZip, eventAt(36.1933, -86.7333), {ID: 9}}

	resolved := r.ResolveAll(context.Background(), events)

	require.Len(t, resolved, 3)
	assert.Equal(t, "37212", resolved[0].Zip())
	assert.Equal(t, "37232", resolved[1].Zip())
	assert.Nil(t, resolved[2].ZipCode)
	assert.Nil(t, events[1].ZipCode, "input should not be mutated")
}

func TestResolveZip_CancelledContextNotCached(t *testing.T) {
	geo := &ctxGeocoder{zip: "37206"}
	cache := newMapCache()
	r := NewZipResolver(DefaultRegistry(), geo, cache, discardLogger())
	event := eventAt(36.17, -86.74)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	zip, ok := r.ResolveZip(ctx, event)
	assert.False(t, ok)
	assert.Empty(t, zip)
	assert.Empty(t, cache.entries)

	zip, ok = r.ResolveZip(context.Background(), event)
	require.True(t, ok)
	assert.Equal(t, "37206", zip)
	assert.Equal(t, 1, geo.calls)
	assert.Equal(t, "37206", *cache.entries[CacheKey(36.17, -86.74)])
}

func TestResolveAll_StopsWhenCancelled(t *testing.T) {
	geo := &mockGeocoder{zip: "37203", ok: true}
	cache := newMapCache()
	r := NewZipResolver(DefaultRegistry(), geo, cache, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := []OutageEvent{eventAt(36.16, -86.78), eventAt(36.10, -86.70)}
	out := r.ResolveAll(ctx, events)

	require.Len(t, out, 2)
	assert.Nil(t, out[0].ZipCode)
	assert.Nil(t, out[1].ZipCode)
	assert.Equal(t, 0, geo.calls)
	assert.Equal(t, 0, cache.reads)
	assert.Empty(t, cache.entries)
}
