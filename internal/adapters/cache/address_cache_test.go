package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
)

type memStore struct {
	entries  map[string]domain.CacheEntry
	writeErr error
	readErr  error
	writes   int
}

func newMemStore() *memStore {
	return &memStore{entries: map[string]domain.CacheEntry{}}
}

func (m *memStore) ReadAll(ctx context.Context) (map[string]domain.CacheEntry, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	out := make(map[string]domain.CacheEntry, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) PutMany(ctx context.Context, entries map[string]domain.CacheEntry) error {
	m.writes++
	if m.writeErr != nil {
		return m.writeErr
	}
	for k, v := range entries {
		m.entries[k] = v
	}
	return nil
}

func (m *memStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, nil
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestAddressCacheLoadDropsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ttl := 30 * 24 * time.Hour

	store := newMemStore()
	store.entries["FRESH"] = domain.CacheEntry{Lat: 31, Lng: 121, CachedAt: now.Add(-time.Hour)}
	store.entries["STALE"] = domain.CacheEntry{Lat: 32, Lng: 122, CachedAt: now.Add(-ttl - time.Millisecond)}

	c := NewAddressCache(store, ttl, WithClock(fixedClock(now)))
	require.NoError(t, c.Load(context.Background()))

	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("FRESH")
	assert.True(t, ok)
	_, ok = c.Get("STALE")
	assert.False(t, ok)
}

func TestAddressCacheGetTreatsExpiredAsMiss(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ttl := 24 * time.Hour
	clock := now

	c := NewAddressCache(nil, ttl, WithClock(func() time.Time { return clock }))
	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Put(context.Background(), "K", domain.CacheEntry{Lat: 1, Lng: 2, CachedAt: now}))

	_, ok := c.Get("K")
	assert.True(t, ok)

	clock = now.Add(ttl + time.Millisecond)
	_, ok = c.Get("K")
	assert.False(t, ok, "entry older than ttl must be a miss")
}

func TestAddressCachePutKeepsEntryWhenPersistFails(t *testing.T) {
	store := newMemStore()
	store.writeErr = errors.New("quota exceeded")

	c := NewAddressCache(store, time.Hour)
	require.NoError(t, c.Load(context.Background()))

	err := c.Put(context.Background(), "K", domain.CacheEntry{Lat: 1, Lng: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.writeErr)

	e, ok := c.Get("K")
	require.True(t, ok, "in-memory entry must survive a persistence failure")
	assert.Equal(t, 1.0, e.Lat)
	assert.False(t, e.CachedAt.IsZero())
}

func TestAddressCacheFlush(t *testing.T) {
	store := newMemStore()
	c := NewAddressCache(store, time.Hour)

	require.ErrorIs(t, c.Flush(context.Background()), errNotLoaded)

	require.NoError(t, c.Load(context.Background()))
	store.writeErr = errors.New("disk full")
	_ = c.Put(context.Background(), "A", domain.CacheEntry{Lat: 1, Lng: 1})
	_ = c.Put(context.Background(), "B", domain.CacheEntry{Lat: 2, Lng: 2})
	assert.Empty(t, store.entries)

	store.writeErr = nil
	require.NoError(t, c.Flush(context.Background()))
	assert.Len(t, store.entries, 2)
}

func TestAddressCacheLoadError(t *testing.T) {
	store := newMemStore()
	store.readErr = errors.New("boom")

	c := NewAddressCache(store, time.Hour)
	err := c.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load address cache")
}
