// Package app builds the dispatch object graph from configuration. Both the
// HTTP server and the CLI start from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/adapters/cache"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/adapters/geocode"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/config"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/platform/db"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/platform/metrics"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/platform/obs"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/ports"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/services"
)

type App struct {
	Config   *config.Config
	Log      zerolog.Logger
	Journal  *obs.Journal
	Registry *prometheus.Registry
	Metrics  *metrics.Recorder
	Store    ports.CacheStore
	Cache    *cache.AddressCache
	Resolver *services.GeocodeResolver
	Solver   *services.Solver

	closeStore func() error
}

// New wires the cache, resolver and solver and loads the address cache.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec, err := metrics.NewRecorder(reg)
	if err != nil {
		return nil, fmt.Errorf("app: metrics: %w", err)
	}

	store, closeStore, err := OpenStore(ctx, cfg.Cache, obs.Component(log, "cache"))
	if err != nil {
		return nil, err
	}

	addressCache := cache.NewAddressCache(store, cfg.Cache.TTL, cache.WithLogger(obs.Component(log, "cache")))
	if err := addressCache.Load(ctx); err != nil {
		// A broken cache only costs lookups; start empty.
		log.Warn().Err(err).Msg("address cache unavailable, starting empty")
	}

	journal := obs.NewJournal(cfg.Logging.JournalSize, obs.Component(log, "journal"))

	resolver := services.NewGeocodeResolver(
		NewLookup(cfg.Geocoder, obs.Component(log, "geocoder")),
		addressCache,
		cfg.Geocoder.Resolver(),
		services.WithRandomSource(services.NewRandomSource(cfg.Geocoder.Seed)),
		services.WithEvents(journal),
		services.WithMetrics(rec),
		services.WithResolverLogger(obs.Component(log, "resolver")),
	)

	solver := services.NewSolver(resolver,
		services.WithSolverEvents(journal),
		services.WithSolverMetrics(rec),
		services.WithSolverLogger(obs.Component(log, "solver")),
	)

	return &App{
		Config:     cfg,
		Log:        log,
		Journal:    journal,
		Registry:   reg,
		Metrics:    rec,
		Store:      store,
		Cache:      addressCache,
		Resolver:   resolver,
		Solver:     solver,
		closeStore: closeStore,
	}, nil
}

// Close flushes the address cache and releases the store.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Cache.Flush(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.closeStore != nil {
		if err := a.closeStore(); err != nil {
			errs = append(errs, fmt.Errorf("close cache store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// NewLookup returns the live lookup adapter for the configured vendor, or nil
// when the geocoder runs offline.
func NewLookup(cfg config.GeocoderConfig, log zerolog.Logger) ports.GeocodeLookup {
	if cfg.Provider == config.ProviderOffline {
		return nil
	}
	session := &http.Client{Timeout: cfg.Timeout}
	switch cfg.Vendor {
	case config.VendorORS:
		return geocode.NewORSLookup(cfg.BaseURL, session, log)
	default:
		return geocode.NewAMapLookup(cfg.BaseURL, session, log)
	}
}

// OpenStore opens the configured cache backend. The memory backend returns a
// nil store.
func OpenStore(ctx context.Context, cfg config.CacheConfig, log zerolog.Logger) (ports.CacheStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendMemory:
		return nil, noop, nil

	case config.BackendFile:
		return cache.NewFileStore(cfg.Path, cfg.Namespace), noop, nil

	case config.BackendSQLite:
		conn, err := db.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		if err := cache.InitSchema(conn, cache.DialectSQLite); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return cache.NewSQLiteStore(conn, cfg.Namespace), conn.Close, nil

	case config.BackendPostgres:
		conn, err := db.Open(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := cache.InitSchema(conn, cache.DialectPostgres); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return cache.NewSQLStore(conn, cfg.Namespace, log), conn.Close, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("open redis cache %s: %w", cfg.RedisAddr, err)
		}
		return cache.NewRedisStore(client, cfg.Namespace), client.Close, nil

	default:
		return nil, nil, fmt.Errorf("open cache store: unknown backend %q", cfg.Backend)
	}
}
