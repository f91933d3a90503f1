package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/adapters/cache"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/adapters/geocode"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/platform/metrics"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/ports"
)

const addr = "苏州市工业园区星湖街328号"

var addrKey = cache.NormalizeKey(addr)

type fixedRandom struct{ v float64 }

func (f fixedRandom) Float64() float64 { return f.v }

type failingStore struct{}

func (failingStore) ReadAll(context.Context) (map[string]domain.CacheEntry, error) {
	return map[string]domain.CacheEntry{}, nil
}

func (failingStore) PutMany(context.Context, map[string]domain.CacheEntry) error {
	return errors.New("quota exceeded")
}

func (failingStore) PurgeBefore(context.Context, time.Time) (int, error) { return 0, nil }

type resolverFixture struct {
	lookup *geocode.MockLookup
	cache  *cache.AddressCache
	sink   *recordingSink
	delays []time.Duration
	rec    *metrics.Recorder
	reg    *prometheus.Registry
}

func newResolver(t *testing.T, cfg ResolverConfig, store ports.CacheStore, extra ...ResolverOption) (*GeocodeResolver, *resolverFixture) {
	t.Helper()

	reg := prometheus.NewRegistry()
	rec, err := metrics.NewRecorder(reg)
	require.NoError(t, err)

	f := &resolverFixture{
		lookup: geocode.NewMockLookup(),
		cache:  cache.NewAddressCache(store, 30*24*time.Hour),
		sink:   &recordingSink{},
		rec:    rec,
		reg:    reg,
	}
	require.NoError(t, f.cache.Load(context.Background()))

	opts := []ResolverOption{
		WithEvents(f.sink),
		WithMetrics(rec),
		WithRandomSource(NewRandomSource(7)),
		WithSleep(func(ctx context.Context, d time.Duration) error {
			f.delays = append(f.delays, d)
			return nil
		}),
	}
	return NewGeocodeResolver(f.lookup, f.cache, cfg, append(opts, extra...)...), f
}

func liveConfig() ResolverConfig {
	cfg := DefaultResolverConfig()
	cfg.Credential = "KEY"
	return cfg
}

func match(lat, lng float64) geocode.MockStep {
	return geocode.MockStep{Result: ports.LookupResult{
		Status:   ports.StatusMatch,
		Location: domain.Coordinates{Lat: lat, Lng: lng},
		Level:    "门牌号",
	}}
}

// within allows float slack: 31.0 - 0.05 is not exactly representable.
func within(t *testing.T, got, center domain.Coordinates, halfWidth float64) {
	t.Helper()
	const eps = 1e-9
	assert.LessOrEqual(t, math.Abs(got.Lat-center.Lat), halfWidth+eps, "lat %v", got.Lat)
	assert.LessOrEqual(t, math.Abs(got.Lng-center.Lng), halfWidth+eps, "lng %v", got.Lng)
}

func TestResolverCacheIdempotence(t *testing.T) {
	r, f := newResolver(t, liveConfig(), nil)
	f.lookup.Script(addrKey, match(31.3, 120.6))
	ctx := context.Background()

	first := r.Resolve(ctx, addr, testDepot.Point())
	second := r.Resolve(ctx, "  "+addr+" ", testDepot.Point())

	assert.False(t, first.Faulted)
	assert.Equal(t, domain.SourceLive, first.Source)
	assert.Equal(t, domain.SourceCache, second.Source)
	assert.Equal(t, first.Location, second.Location)
	assert.Equal(t, 1, f.lookup.TotalCalls(), "cache hit must not reach the network")
	assert.NoError(t, testutil.GatherAndCompare(f.reg, strings.NewReader(`
# HELP geocode_cache_lookups_total Address cache lookups by result
# TYPE geocode_cache_lookups_total counter
geocode_cache_lookups_total{result="hit"} 1
geocode_cache_lookups_total{result="miss"} 1
`), "geocode_cache_lookups_total"))
}

func TestResolverExpiredEntryIsRefreshed(t *testing.T) {
	now := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	ttl := 30 * 24 * time.Hour

	r, f := newResolver(t, liveConfig(), nil, WithResolverClock(func() time.Time { return now }))
	f.cache = cache.NewAddressCache(nil, ttl, cache.WithClock(func() time.Time { return now }))
	require.NoError(t, f.cache.Load(context.Background()))
	r.cache = f.cache

	require.NoError(t, f.cache.Put(context.Background(), addrKey, domain.CacheEntry{Lat: 1, Lng: 1, CachedAt: now.Add(-ttl - time.Millisecond)}))
	f.lookup.Script(addrKey, match(31.3, 120.6))

	res := r.Resolve(context.Background(), addr, testDepot.Point())

	assert.Equal(t, domain.SourceLive, res.Source)
	assert.Equal(t, 1, f.lookup.TotalCalls())

	e, ok := f.cache.Get(addrKey)
	require.True(t, ok)
	assert.Equal(t, 31.3, e.Lat, "stale entry must be overwritten")
}

func TestResolverOfflineNeverCallsLookup(t *testing.T) {
	cfg := DefaultResolverConfig()
	cfg.Offline = true
	cfg.Credential = "KEY"
	r, f := newResolver(t, cfg, nil)

	for range 200 {
		res := r.Resolve(context.Background(), addr, testDepot.Point())
		require.True(t, res.Faulted)
		assert.Equal(t, domain.SourceOffline, res.Source)
		within(t, res.Location, testDepot.Point(), 0.2)
	}
	assert.Zero(t, f.lookup.TotalCalls())

	cfg.Offline = false
	cfg.Credential = ""
	r, f = newResolver(t, cfg, nil)
	res := r.Resolve(context.Background(), addr, testDepot.Point())
	assert.True(t, res.Faulted)
	assert.Zero(t, f.lookup.TotalCalls(), "missing credential behaves as offline")
}

func TestResolverTransportFailuresFallBack(t *testing.T) {
	r, f := newResolver(t, liveConfig(), nil)
	netErr := &geocode.TransportError{Provider: "amap", Err: errors.New("connection reset")}
	f.lookup.Script(addrKey, geocode.MockStep{Err: netErr})

	res := r.Resolve(context.Background(), addr, testDepot.Point())

	assert.True(t, res.Faulted)
	assert.Equal(t, domain.SourceFallback, res.Source)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 3, f.lookup.Calls(addrKey))
	within(t, res.Location, testDepot.Point(), 0.05)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, f.delays)

	assert.Len(t, f.sink.byMessage("lookup attempt"), 3)
	assert.Len(t, f.sink.byMessage("lookup failed, using approximate location"), 1)
	_, cached := f.cache.Get(addrKey)
	assert.False(t, cached, "approximations are never cached")
}

func TestResolverFallbackJitterBounds(t *testing.T) {
	cfg := liveConfig()
	cfg.MaxRetries = 0

	for _, v := range []float64{0, 0.5, 0.9999999} {
		r, f := newResolver(t, cfg, nil, WithRandomSource(fixedRandom{v}))
		f.lookup.Default = geocode.MockStep{Err: errors.New("down")}

		res := r.Resolve(context.Background(), addr, testDepot.Point())
		within(t, res.Location, testDepot.Point(), 0.05)
	}
}

func TestResolverTerminalStatusStopsRetrying(t *testing.T) {
	for _, st := range []ports.LookupStatus{ports.StatusNoMatch, ports.StatusInvalidCredential, ports.StatusQuotaExhausted} {
		t.Run(st.String(), func(t *testing.T) {
			r, f := newResolver(t, liveConfig(), nil)
			f.lookup.Script(addrKey, geocode.MockStep{Result: ports.LookupResult{Status: st}})

			res := r.Resolve(context.Background(), addr, testDepot.Point())

			assert.True(t, res.Faulted)
			assert.Equal(t, 1, f.lookup.Calls(addrKey))
			assert.Empty(t, f.delays)
		})
	}
}

func TestResolverRetriesRateLimitThenMatches(t *testing.T) {
	r, f := newResolver(t, liveConfig(), nil)
	f.lookup.Script(addrKey,
		geocode.MockStep{Result: ports.LookupResult{Status: ports.StatusRateLimited}},
		geocode.MockStep{Err: errors.New("timeout")},
		match(31.2, 120.7),
	)

	res := r.Resolve(context.Background(), addr, testDepot.Point())

	assert.False(t, res.Faulted)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, domain.Coordinates{Lat: 31.2, Lng: 120.7}, res.Location)
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, f.delays)
}

func TestResolverPersistFailureKeepsResult(t *testing.T) {
	r, f := newResolver(t, liveConfig(), failingStore{})
	f.lookup.Script(addrKey, match(31.3, 120.6))

	res := r.Resolve(context.Background(), addr, testDepot.Point())
	assert.False(t, res.Faulted)
	assert.Equal(t, 31.3, res.Location.Lat)

	assert.Len(t, f.sink.byMessage("cache write failed"), 1)
	assert.NoError(t, testutil.GatherAndCompare(f.reg, strings.NewReader(`
# HELP geocode_cache_persist_failures_total Cache writes that failed and were ignored
# TYPE geocode_cache_persist_failures_total counter
geocode_cache_persist_failures_total 1
`), "geocode_cache_persist_failures_total"))

	again := r.Resolve(context.Background(), addr, testDepot.Point())
	assert.Equal(t, domain.SourceCache, again.Source)
	assert.Equal(t, 1, f.lookup.TotalCalls())
}

func TestResolverIgnoresCallerCancellationMidFlight(t *testing.T) {
	r, f := newResolver(t, liveConfig(), nil)
	f.lookup.Script(addrKey, match(31.3, 120.6))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := r.Resolve(ctx, addr, testDepot.Point())
	assert.False(t, res.Faulted)
	assert.Equal(t, 1, f.lookup.TotalCalls())
}
