package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/services"
)

type ServerConfig struct {
	Port              string        `json:"port"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout"`
	ReadTimeout       time.Duration `json:"read_timeout"`
	// Long enough for a cold-cache solve of a full batch.
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Minute
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 15 * time.Second
	}
}

func (c ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	return nil
}

type DispatchConfig struct {
	MaxStops        int     `json:"max_stops"`
	StartTime       string  `json:"start_time"`
	Deadline        string  `json:"deadline"`
	AverageSpeedKmh float64 `json:"average_speed_kmh"`
	ServiceMinutes  float64 `json:"service_minutes"`
	DetourFactor    float64 `json:"detour_factor"`
}

func (c *DispatchConfig) SetDefaults() {
	if c.MaxStops == 0 {
		c.MaxStops = 8
	}
	if c.StartTime == "" {
		c.StartTime = "07:00"
	}
	if c.Deadline == "" {
		c.Deadline = "20:00"
	}
	if c.AverageSpeedKmh == 0 {
		c.AverageSpeedKmh = 48
	}
	if c.ServiceMinutes == 0 {
		c.ServiceMinutes = 25
	}
	if c.DetourFactor == 0 {
		c.DetourFactor = 1.32
	}
}

func (c DispatchConfig) Validate() error {
	if c.MaxStops < 1 {
		return domain.ErrInvalidMaxStops
	}
	if c.AverageSpeedKmh <= 0 {
		return fmt.Errorf("average_speed_kmh must be positive, got %v", c.AverageSpeedKmh)
	}
	if c.ServiceMinutes < 0 {
		return fmt.Errorf("service_minutes cannot be negative, got %v", c.ServiceMinutes)
	}
	if c.DetourFactor < 1 {
		return fmt.Errorf("detour_factor must be at least 1, got %v", c.DetourFactor)
	}
	_, err := c.Route(time.Now())
	return err
}

// Route builds routing parameters for a solve on day.
func (c DispatchConfig) Route(day time.Time) (services.RouteParams, error) {
	start, err := services.ClockOn(day, c.StartTime)
	if err != nil {
		return services.RouteParams{}, fmt.Errorf("start_time: %w", err)
	}
	p := services.RouteParams{
		Start:           start,
		AverageSpeedKmh: c.AverageSpeedKmh,
		ServicePerStop:  time.Duration(c.ServiceMinutes * float64(time.Minute)),
		DetourFactor:    c.DetourFactor,
	}
	if c.Deadline != "" {
		if p.Deadline, err = services.ClockOn(day, c.Deadline); err != nil {
			return services.RouteParams{}, fmt.Errorf("deadline: %w", err)
		}
	}
	return p, nil
}

type DepotConfig struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

func (c DepotConfig) Validate() error {
	if c.Lat < -90 || c.Lat > 90 || c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("depot %q: coordinates out of range", c.ID)
	}
	if c.Lat == 0 && c.Lng == 0 {
		return fmt.Errorf("depot %q: coordinates are required", c.ID)
	}
	return nil
}

func (c DepotConfig) Depot() domain.Depot {
	return domain.Depot{ID: c.ID, Name: c.Name, Address: c.Address, Lat: c.Lat, Lng: c.Lng}
}

func DefaultDepot() DepotConfig {
	return DepotConfig{
		ID:      "depot-primary",
		Name:    "苏州工业园区中心仓",
		Address: "江苏省苏州市工业园区",
		Lat:     31.3167,
		Lng:     120.7217,
	}
}

func DefaultFleet() map[string]domain.FleetConfigItem {
	return map[string]domain.FleetConfigItem{
		"4.2M": {MaxKg: 2000, Slots: 6, CostBase: 300, CostKm: 2.5},
		"7.6M": {MaxKg: 8000, Slots: 12, CostBase: 500, CostKm: 3.5},
		"9.6M": {MaxKg: 15000, Slots: 16, CostBase: 800, CostKm: 4.5},
	}
}

const (
	ProviderLive    = "live"
	ProviderOffline = "offline"

	VendorAMap = "amap"
	VendorORS  = "ors"
)

type GeocoderConfig struct {
	Provider string `json:"provider"`
	Vendor   string `json:"vendor"`
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url"`
	// Region is passed to the vendor as-is: an AMap city filter or an ORS country code.
	Region            string        `json:"region"`
	Timeout           time.Duration `json:"timeout"`
	MaxRetries        *int          `json:"max_retries"`
	BaseDelay         time.Duration `json:"base_delay"`
	OfflineJitterDeg  float64       `json:"offline_jitter_deg"`
	FallbackJitterDeg float64       `json:"fallback_jitter_deg"`
	// Seed for jitter; 0 picks a random seed.
	Seed uint64 `json:"seed"`
}

func (c *GeocoderConfig) SetDefaults() {
	d := services.DefaultResolverConfig()
	if c.Provider == "" {
		c.Provider = ProviderLive
	}
	if c.Vendor == "" {
		c.Vendor = VendorAMap
	}
	if c.Region == "" && c.Vendor == VendorAMap {
		c.Region = "江苏|上海"
	}
	if c.Timeout == 0 {
		c.Timeout = d.AttemptTimeout
	}
	if c.MaxRetries == nil {
		n := d.MaxRetries
		c.MaxRetries = &n
	}
	if c.BaseDelay == 0 {
		c.BaseDelay = d.BaseDelay
	}
	if c.OfflineJitterDeg == 0 {
		c.OfflineJitterDeg = d.OfflineJitterDeg
	}
	if c.FallbackJitterDeg == 0 {
		c.FallbackJitterDeg = d.FallbackJitterDeg
	}
}

func (c GeocoderConfig) Validate() error {
	if c.Provider != ProviderLive && c.Provider != ProviderOffline {
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.Vendor != VendorAMap && c.Vendor != VendorORS {
		return fmt.Errorf("unknown vendor %q", c.Vendor)
	}
	if c.MaxRetries != nil && *c.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.FallbackJitterDeg > c.OfflineJitterDeg {
		return fmt.Errorf("fallback_jitter_deg (%v) must not exceed offline_jitter_deg (%v)", c.FallbackJitterDeg, c.OfflineJitterDeg)
	}
	return nil
}

func (c GeocoderConfig) Resolver() services.ResolverConfig {
	retries := 0
	if c.MaxRetries != nil {
		retries = *c.MaxRetries
	}
	return services.ResolverConfig{
		Offline:           c.Provider == ProviderOffline,
		Credential:        c.APIKey,
		Region:            c.Region,
		MaxRetries:        retries,
		BaseDelay:         c.BaseDelay,
		AttemptTimeout:    c.Timeout,
		OfflineJitterDeg:  c.OfflineJitterDeg,
		FallbackJitterDeg: c.FallbackJitterDeg,
	}
}

const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

type CacheConfig struct {
	Backend   string        `json:"backend"`
	TTL       time.Duration `json:"ttl"`
	Namespace string        `json:"namespace"`
	// Path is the JSON file or SQLite database location.
	Path          string `json:"path"`
	DSN           string `json:"dsn"`
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       int    `json:"redis_db"`
}

func (c *CacheConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = BackendFile
	}
	if c.TTL == 0 {
		c.TTL = 30 * 24 * time.Hour
	}
	if c.Namespace == "" {
		c.Namespace = "NANO_LOGISTICS_GEO_CACHE_V5_STABLE"
	}
	if c.Path == "" {
		switch c.Backend {
		case BackendFile:
			c.Path = "data/geocache.json"
		case BackendSQLite:
			c.Path = "data/geocache.db"
		}
	}
	if c.RedisAddr == "" && c.Backend == BackendRedis {
		c.RedisAddr = "localhost:6379"
	}
}

func (c CacheConfig) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendFile, BackendSQLite:
		if c.Path == "" {
			return fmt.Errorf("path is required for %s backend", c.Backend)
		}
	case BackendPostgres:
		if c.DSN == "" {
			return errors.New("dsn is required for postgres backend")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("redis_addr is required for redis backend")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("ttl must be positive, got %v", c.TTL)
	}
	return nil
}

type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
	// JournalSize is how many dispatch events GET /logs can return.
	JournalSize int `json:"journal_size"`
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
	if c.JournalSize == 0 {
		c.JournalSize = 500
	}
}

func (c LoggingConfig) Validate() error {
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("unknown format %q", c.Format)
	}
	if c.JournalSize < 0 {
		return fmt.Errorf("journal_size cannot be negative")
	}
	return nil
}

type MetricsConfig struct {
	Enabled *bool  `json:"enabled"`
	Path    string `json:"path"`
}

func (c *MetricsConfig) SetDefaults() {
	if c.Enabled == nil {
		on := true
		c.Enabled = &on
	}
	if c.Path == "" {
		c.Path = "/metrics"
	}
}

func (c MetricsConfig) On() bool { return c.Enabled != nil && *c.Enabled }
