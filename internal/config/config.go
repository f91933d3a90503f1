package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/seekiingforhappiness-glitch/Nano-dispatcher/internal/domain"
)

// EnvPrefix marks environment overrides. Nested keys use "__":
// DISPATCH_GEOCODER__API_KEY sets geocoder.api_key.
const EnvPrefix = "DISPATCH_"

type Config struct {
	Server   ServerConfig                      `json:"server"`
	Dispatch DispatchConfig                    `json:"dispatch"`
	Fleet    map[string]domain.FleetConfigItem `json:"fleet"`
	Depots   []DepotConfig                     `json:"depots"`
	Geocoder GeocoderConfig                    `json:"geocoder"`
	Cache    CacheConfig                       `json:"cache"`
	Logging  LoggingConfig                     `json:"logging"`
	Metrics  MetricsConfig                     `json:"metrics"`
}

// Load reads the config file at path (yaml or json) when path is not empty,
// applies DISPATCH_ environment overrides, fills defaults and validates.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		var parser koanf.Parser
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("load config: unsupported format %q", filepath.Ext(path))
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load config %q: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load config: env overrides: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("load config: decode: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Dispatch.SetDefaults()
	c.Geocoder.SetDefaults()
	c.Cache.SetDefaults()
	c.Logging.SetDefaults()
	c.Metrics.SetDefaults()

	if len(c.Fleet) == 0 {
		c.Fleet = DefaultFleet()
	}
	if len(c.Depots) == 0 {
		c.Depots = []DepotConfig{DefaultDepot()}
	}
	for i := range c.Depots {
		if c.Depots[i].ID == "" {
			c.Depots[i].ID = fmt.Sprintf("depot-%d", i+1)
		}
	}
}

func (c Config) Validate() error {
	var errs []error

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}
	if err := c.Dispatch.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("dispatch: %w", err))
	}
	if err := c.Geocoder.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("geocoder: %w", err))
	}
	if err := c.Cache.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("cache: %w", err))
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	if _, err := domain.NewFleet(c.Fleet); err != nil {
		errs = append(errs, err)
	}
	for i, d := range c.Depots {
		if err := d.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("depots[%d]: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

// ResolveFleet turns the fleet section into an ordered fleet.
func (c Config) ResolveFleet() (domain.Fleet, error) {
	return domain.NewFleet(c.Fleet)
}

// PrimaryDepot is the first configured depot, the one every solve runs against.
func (c Config) PrimaryDepot() domain.Depot {
	if len(c.Depots) == 0 {
		return DefaultDepot().Depot()
	}
	return c.Depots[0].Depot()
}

// Env returns the value of key, or fallback when it is unset or empty.
func Env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
