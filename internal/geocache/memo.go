package geocache

import (
	"container/list"
	"context"
	"sync"

	"github.com/couchcryptid/outage-insights-service/internal/domain"
)

// Memo is an in-process LRU in front of a GeocodeCache. Hits, including cached
// failures, are served without reading the backing object.
type Memo struct {
	inner      domain.GeocodeCache
	maxEntries int

	mu      sync.Mutex
	order   *list.List // front is most recently used
	entries map[string]*list.Element
}

type memoEntry struct {
	key   string
	value *string
}

var _ domain.GeocodeCache = (*Memo)(nil)

// NewMemo wraps inner with an LRU holding at most maxEntries keys. A
// non-positive maxEntries returns inner unchanged.
func NewMemo(inner domain.GeocodeCache, maxEntries int) domain.GeocodeCache {
	if maxEntries <= 0 {
		return inner
	}
	return &Memo{
		inner:      inner,
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (m *Memo) Lookup(ctx context.Context, key string) (*string, bool, error) {
	if value, ok := m.get(key); ok {
		return value, true, nil
	}
	value, found, err := m.inner.Lookup(ctx, key)
	if err != nil || !found {
		return value, found, err
	}
	m.put(key, value)
	return value, true, nil
}

// Store writes through to the backing cache; the entry is memoized only once
// the write succeeds.
func (m *Memo) Store(ctx context.Context, key string, value *string) error {
	if err := m.inner.Store(ctx, key, value); err != nil {
		return err
	}
	m.put(key, value)
	return nil
}

// Len returns the number of memoized keys.
func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

func (m *Memo) get(key string) (*string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	m.order.MoveToFront(el)
	return el.Value.(*memoEntry).value, true
}

func (m *Memo) put(key string, value *string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.entries[key]; ok {
		el.Value.(*memoEntry).value = value
		m.order.MoveToFront(el)
		return
	}

	m.entries[key] = m.order.PushFront(&memoEntry{key: key, value: value})
	if m.order.Len() > m.maxEntries {
		oldest := m.order.Back()
		m.order.Remove(oldest)
		delete(m.entries, oldest.Value.(*memoEntry).key)
	}
}
