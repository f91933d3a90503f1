package cache

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/platform/obs"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/ports"
)

var errNotLoaded = errors.New("address cache: Load has not been called")

// AddressCache is the in-memory geocode cache consulted before any lookup.
// It is loaded once from its store, written through on every Put, and
// flushed as a whole on shutdown. Entries older than the TTL are never
// returned.
//
// A nil store keeps the cache purely in memory.
type AddressCache struct {
	store ports.CacheStore
	ttl   time.Duration
	now   func() time.Time
	log   zerolog.Logger

	mu      sync.RWMutex
	entries map[string]domain.CacheEntry
	loaded  bool
}

type Option func(*AddressCache)

// WithClock overrides the time source used for TTL checks.
func WithClock(now func() time.Time) Option {
	return func(c *AddressCache) { c.now = now }
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *AddressCache) { c.log = log }
}

func NewAddressCache(store ports.CacheStore, ttl time.Duration, opts ...Option) *AddressCache {
	c := &AddressCache{
		store:   store,
		ttl:     ttl,
		now:     time.Now,
		log:     zerolog.Nop(),
		entries: make(map[string]domain.CacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *AddressCache) TTL() time.Duration { return c.ttl }

// Load replaces the in-memory entries with the fresh entries held by the store.
func (c *AddressCache) Load(ctx context.Context) (err error) {
	defer obs.Time(ctx, c.log, "cache.Load")(&err)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store == nil {
		c.loaded = true
		return nil
	}

	stored, err := c.store.ReadAll(ctx)
	if err != nil {
		return fmt.Errorf("load address cache: %w", err)
	}

	now := c.now()
	entries := make(map[string]domain.CacheEntry, len(stored))
	expired := 0
	for k, e := range stored {
		if !e.Fresh(now, c.ttl) {
			expired++
			continue
		}
		entries[k] = e
	}

	c.entries = entries
	c.loaded = true
	c.log.Info().Int("entries", len(entries)).Int("expired", expired).Msg("address cache loaded")

	return nil
}

// Get returns the entry for key if it is present and within the TTL.
func (c *AddressCache) Get(key string) (domain.CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !e.Fresh(c.now(), c.ttl) {
		return domain.CacheEntry{}, false
	}
	return e, true
}

// Put stores the entry in memory and writes it through to the store.
// The in-memory entry is kept even when persisting fails; the returned error
// only reports the persistence failure.
func (c *AddressCache) Put(ctx context.Context, key string, entry domain.CacheEntry) error {
	if key == "" {
		return errors.New("put address cache: empty key")
	}
	if entry.CachedAt.IsZero() {
		entry.CachedAt = c.now()
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	if err := c.store.PutMany(ctx, map[string]domain.CacheEntry{key: entry}); err != nil {
		return fmt.Errorf("put address cache key=%q: %w", key, err)
	}
	return nil
}

// Flush writes every fresh in-memory entry to the store.
func (c *AddressCache) Flush(ctx context.Context) (err error) {
	defer obs.Time(ctx, c.log, "cache.Flush")(&err)

	if c.store == nil {
		return nil
	}

	c.mu.RLock()
	if !c.loaded {
		c.mu.RUnlock()
		return errNotLoaded
	}
	now := c.now()
	snapshot := make(map[string]domain.CacheEntry, len(c.entries))
	for k, e := range c.entries {
		if e.Fresh(now, c.ttl) {
			snapshot[k] = e
		}
	}
	c.mu.RUnlock()

	if err := c.store.PutMany(ctx, snapshot); err != nil {
		return fmt.Errorf("flush address cache: %w", err)
	}
	return nil
}

func (c *AddressCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Snapshot returns a copy of the in-memory entries.
func (c *AddressCache) Snapshot() map[string]domain.CacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.entries)
}
