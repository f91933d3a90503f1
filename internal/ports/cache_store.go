package ports

import (
	"context"
	"time"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
)

// Port: durable storage behind the address cache. Every backend keeps its
// entries under a single namespace identifier.
type CacheStore interface {
	// Return every stored entry keyed by normalized address.
	ReadAll(ctx context.Context) (map[string]domain.CacheEntry, error)
	// Insert or replace the given entries.
	PutMany(ctx context.Context, entries map[string]domain.CacheEntry) error
	// Remove entries cached before the cutoff. Returns the number removed.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Port: the in-memory geocode table consulted before any external lookup.
// Put keeps the entry in memory even when it returns a persistence error.
type AddressCache interface {
	Get(key string) (domain.CacheEntry, bool)
	Put(ctx context.Context, key string, entry domain.CacheEntry) error
}
