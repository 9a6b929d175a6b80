// Package geocache persists reverse-geocoding results as a single JSON object
// mapping rounded coordinates to a zip code, or null when none was found.
package geocache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/couchcryptid/outage-insights-service/internal/domain"
	"github.com/couchcryptid/outage-insights-service/internal/storage"
)

// DefaultKey is the object name the cache is stored under.
const DefaultKey = "nes-geocoding-cache"

var errCorrupt = errors.New("decode geocode cache")

// Cache is a persistent, unbounded geocode cache. Every Store rewrites the
// whole object.
type Cache struct {
	store storage.Store
	key   string
	mu    sync.Mutex
}

var _ domain.GeocodeCache = (*Cache)(nil)

// New creates a cache backed by store under key. An empty key uses DefaultKey.
func New(store storage.Store, key string) *Cache {
	if key == "" {
		key = DefaultKey
	}
	return &Cache{store: store, key: key}
}

// Key returns the cache key for a coordinate.
func Key(lat, lon float64) string {
	return domain.CacheKey(lat, lon)
}

// Lookup returns the cached value for key. found is false when key has never
// been stored; a found nil value is a cached failure.
func (c *Cache) Lookup(ctx context.Context, key string) (*string, bool, error) {
	entries, err := c.load(ctx)
	if err != nil {
		return nil, false, err
	}
	value, found := entries[key]
	return value, found, nil
}

// Store records value for key and persists the cache.
func (c *Cache) Store(ctx context.Context, key string, value *string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := c.load(ctx)
	if err != nil {
		// An unreadable cache is replaced rather than blocking new writes.
		if !errors.Is(err, errCorrupt) {
			return err
		}
		entries = map[string]*string{}
	}
	entries[key] = value

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode geocode cache: %w", err)
	}
	if err := c.store.Put(ctx, c.key, data); err != nil {
		return fmt.Errorf("persist geocode cache: %w", err)
	}
	return nil
}

// Entries returns every cached entry.
func (c *Cache) Entries(ctx context.Context) (map[string]*string, error) {
	return c.load(ctx)
}

func (c *Cache) load(ctx context.Context) (map[string]*string, error) {
	data, err := c.store.Get(ctx, c.key)
	if errors.Is(err, storage.ErrNotFound) {
		return map[string]*string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load geocode cache: %w", err)
	}

	entries := map[string]*string{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %w", errCorrupt, err)
	}
	return entries, nil
}
