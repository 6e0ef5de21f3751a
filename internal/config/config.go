// Package config loads the server configuration from YAML and applies
// environment variable overrides for credentials and paths.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the analytics server.
type Config struct {
	IntervalMinutes int      `yaml:"interval"`
	Server          Server   `yaml:"server"`
	Sources         Sources  `yaml:"sources"`
	Snapshot        Snapshot `yaml:"snapshot"`
	Logging         Logging  `yaml:"logging"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Sources configures the two quote providers and the fetch discipline
// applied around them.
type Sources struct {
	Historical      Provider `yaml:"historical"`
	Live            Provider `yaml:"live"`
	Alpaca          Alpaca   `yaml:"alpaca"`
	RateLimitPerMin int      `yaml:"rate_limit_per_min"`
	MaxRetries      int      `yaml:"max_retries"`
}

// Provider selects and parameterises one data-source variant.
type Provider struct {
	Name string `yaml:"provider"` // "alphavantage", "finnhub", or "alpaca"
	URL  string `yaml:"url"`
	Key  string `yaml:"key"`
}

// Alpaca holds credentials for the Alpaca market-data API, used when either
// provider selects the "alpaca" variant.
type Alpaca struct {
	APIKey    string `yaml:"key"`
	APISecret string `yaml:"secret"`
	DataURL   string `yaml:"data_url"`
}

// Snapshot configures the report snapshot written after startup and after
// every report refresh.
type Snapshot struct {
	Format string `yaml:"format"` // "csv", "parquet", or "sqlite"
	Path   string `yaml:"path"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// intervals the analytics window is defined for.
var validIntervals = map[int]bool{5: true, 10: true, 15: true, 30: true, 60: true}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it,
// applies environment variable overrides, and validates the result. A
// missing file is not an error; the defaults and environment carry the
// full configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Sources.Historical.Name == "" {
		cfg.Sources.Historical.Name = "alphavantage"
	}
	if cfg.Sources.Live.Name == "" {
		cfg.Sources.Live.Name = "finnhub"
	}
	if cfg.Sources.RateLimitPerMin == 0 {
		cfg.Sources.RateLimitPerMin = 60
	}
	if cfg.Sources.MaxRetries == 0 {
		cfg.Sources.MaxRetries = 3
	}
	if cfg.Snapshot.Format == "" {
		cfg.Snapshot.Format = "csv"
	}
	if cfg.Snapshot.Path == "" {
		cfg.Snapshot.Path = "report.csv"
	}
	if cfg.IntervalMinutes == 0 {
		cfg.IntervalMinutes = 30
	}
}

func (cfg *Config) validate() error {
	if !validIntervals[cfg.IntervalMinutes] {
		return fmt.Errorf("config: interval %d not one of 5/10/15/30/60 minutes", cfg.IntervalMinutes)
	}
	switch cfg.Snapshot.Format {
	case "csv", "parquet", "sqlite":
	default:
		return fmt.Errorf("config: unknown snapshot format %q", cfg.Snapshot.Format)
	}
	return nil
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AV_KEY"); v != "" {
		cfg.Sources.Historical.Key = v
	}
	if v := os.Getenv("AV_URL"); v != "" {
		cfg.Sources.Historical.URL = v
	}
	if v := os.Getenv("FH_TOKEN"); v != "" {
		cfg.Sources.Live.Key = v
	}
	if v := os.Getenv("FH_URL"); v != "" {
		cfg.Sources.Live.URL = v
	}
	if v := os.Getenv("SNAPSHOT_PATH"); v != "" {
		cfg.Snapshot.Path = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Canonical Alpaca env vars used by the SDK.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Sources.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Sources.Alpaca.APISecret = v
	}
}
