package nominatim

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingGeocoder struct {
	mu    sync.Mutex
	calls []time.Time
}

func (g *countingGeocoder) ReverseGeocode(context.Context, float64, float64) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, time.Now())
	return "37203", true
}

func TestRateLimited_SpacesCalls(t *testing.T) {
	inner := &countingGeocoder{}
	r := NewRateLimited(inner, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		zip, ok := r.ReverseGeocode(context.Background(), 36.0, -86.0)
		assert.True(t, ok)
		assert.Equal(t, "37203", zip)
	}

	assert.Len(t, inner.calls, 3)
	assert.GreaterOrEqual(t, inner.calls[2].Sub(inner.calls[0]), 90*time.Millisecond)
}

func TestRateLimited_CancelledWait(t *testing.T) {
	inner := &countingGeocoder{}
	r := NewRateLimited(inner, time.Hour)

	_, ok := r.ReverseGeocode(context.Background(), 36.0, -86.0)
	assert.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	zip, ok := r.ReverseGeocode(ctx, 36.0, -86.0)

	assert.False(t, ok)
	assert.Empty(t, zip)
	assert.Len(t, inner.calls, 1)
}

func TestRateLimited_ZeroIntervalDisablesLimit(t *testing.T) {
	inner := &countingGeocoder{}
	r := NewRateLimited(inner, 0)

	start := time.Now()
	for i := 0; i < 5; i++ {
		r.ReverseGeocode(context.Background(), 36.0, -86.0)
	}

	assert.Len(t, inner.calls, 5)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}
