package services

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/adapters/cache"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/platform/metrics"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/platform/obs"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/ports"
)

// RandomSource yields values in [0, 1) for coordinate jitter.
type RandomSource interface {
	Float64() float64
}

// NewRandomSource returns a PCG source. A zero seed draws a random one.
func NewRandomSource(seed uint64) RandomSource {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type ResolverConfig struct {
	// Offline skips external lookups entirely.
	Offline    bool
	Credential string
	Region     string

	MaxRetries     int
	BaseDelay      time.Duration
	AttemptTimeout time.Duration

	// Full width of the jitter box around the depot, in degrees.
	OfflineJitterDeg  float64
	FallbackJitterDeg float64
}

func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		MaxRetries:        2,
		BaseDelay:         500 * time.Millisecond,
		AttemptTimeout:    5 * time.Second,
		OfflineJitterDeg:  0.4,
		FallbackJitterDeg: 0.1,
	}
}

// GeocodeResolver turns free-text addresses into coordinates. It never fails:
// an address that cannot be confirmed gets an approximate coordinate near the
// depot with Faulted set.
//
// Resolutions must not run concurrently; the Solver serializes them.
type GeocodeResolver struct {
	lookup  ports.GeocodeLookup
	cache   ports.AddressCache
	cfg     ResolverConfig
	rnd     RandomSource
	sleep   func(ctx context.Context, d time.Duration) error
	now     func() time.Time
	events  obs.EventSink
	metrics *metrics.Recorder
	log     zerolog.Logger
}

type ResolverOption func(*GeocodeResolver)

func WithRandomSource(r RandomSource) ResolverOption {
	return func(g *GeocodeResolver) { g.rnd = r }
}

// WithSleep replaces the backoff wait.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) ResolverOption {
	return func(g *GeocodeResolver) { g.sleep = sleep }
}

func WithResolverClock(now func() time.Time) ResolverOption {
	return func(g *GeocodeResolver) { g.now = now }
}

func WithEvents(sink obs.EventSink) ResolverOption {
	return func(g *GeocodeResolver) { g.events = sink }
}

func WithMetrics(m *metrics.Recorder) ResolverOption {
	return func(g *GeocodeResolver) { g.metrics = m }
}

func WithResolverLogger(log zerolog.Logger) ResolverOption {
	return func(g *GeocodeResolver) { g.log = log }
}

// NewGeocodeResolver wires a resolver. lookup may be nil when cfg.Offline is set.
func NewGeocodeResolver(lookup ports.GeocodeLookup, addressCache ports.AddressCache, cfg ResolverConfig, opts ...ResolverOption) *GeocodeResolver {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 5 * time.Second
	}

	g := &GeocodeResolver{
		lookup: lookup,
		cache:  addressCache,
		cfg:    cfg,
		rnd:    NewRandomSource(0),
		sleep:  sleepContext,
		now:    time.Now,
		events: obs.NopSink{},
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Resolve returns the coordinate for address. Cancellation of ctx does not
// interrupt a resolution that has already started.
func (g *GeocodeResolver) Resolve(ctx context.Context, address string, depot domain.Coordinates) domain.GeoResult {
	key := cache.NormalizeKey(address)

	if e, ok := g.cache.Get(key); ok {
		g.metrics.CacheLookup(true)
		g.emit(obs.Event{Level: obs.LevelInfo, Module: obs.ModuleCache, Message: "cache hit",
			Details: map[string]any{"address": key}})
		return domain.GeoResult{
			Location:         e.Point(),
			Level:            e.Level,
			FormattedAddress: e.FormattedAddress,
			ResolvedAt:       e.CachedAt,
			Source:           domain.SourceCache,
		}
	}
	g.metrics.CacheLookup(false)

	if g.cfg.Offline || g.cfg.Credential == "" || g.lookup == nil {
		g.metrics.Fallback("offline")
		g.emit(obs.Event{Level: obs.LevelWarn, Module: obs.ModuleGeocoder, Message: "offline approximation",
			Details: map[string]any{"address": key}})
		return g.approximate(depot, g.cfg.OfflineJitterDeg, domain.SourceOffline, 0)
	}

	ctx = context.WithoutCancel(ctx)
	reason := "exhausted"
	attempts := 0

	for attempt := 1; attempt <= g.cfg.MaxRetries+1; attempt++ {
		attempts = attempt

		res, took, err := g.attempt(ctx, key)

		outcome := "error"
		if err == nil {
			outcome = res.Status.String()
		}
		g.metrics.LookupAttempt(outcome, took)

		details := map[string]any{"address": key, "attempt": attempt, "outcome": outcome}
		if err != nil {
			details["error"] = err.Error()
		} else if res.Info != "" {
			details["info"] = res.Info
		}
		g.emit(obs.Event{Level: obs.LevelAPI, Module: obs.ModuleGeocoder, Message: "lookup attempt", Details: details}.Cost(took))

		if err == nil && res.Status == ports.StatusMatch {
			return g.accept(ctx, key, res, attempt)
		}
		if err == nil && res.Status.Terminal() {
			reason = res.Status.String()
			break
		}

		if attempt > g.cfg.MaxRetries {
			break
		}
		backoff := g.cfg.BaseDelay << (attempt - 1)
		if err := g.sleep(ctx, backoff); err != nil {
			break
		}
	}

	g.metrics.Fallback(reason)
	g.emit(obs.Event{Level: obs.LevelWarn, Module: obs.ModuleGeocoder, Message: "lookup failed, using approximate location",
		Details: map[string]any{"address": key, "attempts": attempts, "reason": reason}})

	return g.approximate(depot, g.cfg.FallbackJitterDeg, domain.SourceFallback, attempts)
}

func (g *GeocodeResolver) attempt(ctx context.Context, key string) (ports.LookupResult, time.Duration, error) {
	actx, cancel := context.WithTimeout(ctx, g.cfg.AttemptTimeout)
	defer cancel()

	start := g.now()
	res, err := g.lookup.Lookup(actx, ports.LookupRequest{
		Address:    key,
		Credential: g.cfg.Credential,
		Region:     g.cfg.Region,
	})
	return res, g.now().Sub(start), err
}

func (g *GeocodeResolver) accept(ctx context.Context, key string, res ports.LookupResult, attempts int) domain.GeoResult {
	now := g.now()
	entry := domain.CacheEntry{
		Lat:              res.Location.Lat,
		Lng:              res.Location.Lng,
		CachedAt:         now,
		Level:            res.Level,
		FormattedAddress: res.FormattedAddress,
	}

	if err := g.cache.Put(ctx, key, entry); err != nil {
		g.metrics.PersistFailure()
		g.emit(obs.Event{Level: obs.LevelWarn, Module: obs.ModuleCache, Message: "cache write failed",
			Details: map[string]any{"address": key, "error": err.Error()}})
	}

	return domain.GeoResult{
		Location:         res.Location,
		Level:            res.Level,
		FormattedAddress: res.FormattedAddress,
		ResolvedAt:       now,
		Source:           domain.SourceLive,
		Attempts:         attempts,
	}
}

// approximate places a point uniformly inside a box of widthDeg around depot.
func (g *GeocodeResolver) approximate(depot domain.Coordinates, widthDeg float64, src domain.GeoSource, attempts int) domain.GeoResult {
	lat := depot.Lat + (g.rnd.Float64()-0.5)*widthDeg
	lng := depot.Lng + (g.rnd.Float64()-0.5)*widthDeg

	return domain.GeoResult{
		Location:   domain.Coordinates{Lat: lat, Lng: lng},
		Faulted:    true,
		ResolvedAt: g.now(),
		Source:     src,
		Attempts:   attempts,
	}
}

func (g *GeocodeResolver) emit(ev obs.Event) {
	g.events.Emit(ev)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
