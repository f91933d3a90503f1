package domain

import "time"

// Where a geocode came from.
type GeoSource string

const (
	SourceCache    GeoSource = "cache"
	SourceLive     GeoSource = "live"
	SourceOffline  GeoSource = "offline"
	SourceFallback GeoSource = "fallback"
)

// Outcome of resolving one address.
type GeoResult struct {
	Location         Coordinates
	Faulted          bool
	Level            string
	FormattedAddress string
	ResolvedAt       time.Time
	Source           GeoSource
	// Attempts is the number of external lookups made; zero for cache hits
	// and offline approximations.
	Attempts int
}

// A persisted geocode keyed by normalized address.
type CacheEntry struct {
	Lat              float64   `json:"lat"`
	Lng              float64   `json:"lng"`
	CachedAt         time.Time `json:"timestamp"`
	Level            string    `json:"level,omitempty"`
	FormattedAddress string    `json:"formatted_address,omitempty"`
}

// Fresh reports whether the entry is still within ttl at now.
// Entries older than ttl must be treated as absent.
func (e CacheEntry) Fresh(now time.Time, ttl time.Duration) bool {
	if e.CachedAt.IsZero() {
		return false
	}
	return now.Sub(e.CachedAt) < ttl
}

func (e CacheEntry) Point() Coordinates { return Coordinates{Lat: e.Lat, Lng: e.Lng} }
