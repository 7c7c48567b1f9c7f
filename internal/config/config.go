package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all flightdeck configuration.
type Config struct {
	// Source databases (owned by other apps, opened read-only)
	Flighty FlightyConfig `yaml:"flighty"`
	Tripsy  TripsyConfig  `yaml:"tripsy"`

	// Live tracking API
	Radar RadarConfig `yaml:"radar"`

	// Airfare search
	Search SearchConfig `yaml:"search"`

	// HTML tracker map
	Map MapConfig `yaml:"map"`

	// Local HTTP API
	Server ServerConfig `yaml:"server"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// FlightyConfig locates the Flighty database.
type FlightyConfig struct {
	DatabasePath string `yaml:"database_path"`
	// Fallback zone for airports without a timeZoneIdentifier. Empty = local.
	TimeZone string `yaml:"time_zone"`
}

// TripsyConfig locates the Tripsy database.
type TripsyConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// RadarConfig configures the FlightRadar24 client.
type RadarConfig struct {
	FeedURL     string `yaml:"feed_url"`
	DetailsURL  string `yaml:"details_url"`
	UserAgent   string `yaml:"user_agent"`
	Timeout     string `yaml:"timeout"`
	Concurrency int    `yaml:"concurrency"`
}

// SearchConfig configures airfare search.
type SearchConfig struct {
	BaseURL  string `yaml:"base_url"`
	Currency string `yaml:"currency"`
	Language string `yaml:"language"`
	// FetchMode is one of common, fallback, local.
	FetchMode     string `yaml:"fetch_mode"`
	Retries       int    `yaml:"retries"`
	Timeout       string `yaml:"timeout"`
	BrowserBinary string `yaml:"browser_binary"`
}

// MapConfig configures map generation.
type MapConfig struct {
	TileURL   string `yaml:"tile_url"`
	OutputDir string `yaml:"output_dir"`
}

// ServerConfig configures `deck serve`.
type ServerConfig struct {
	ListenAddr     string   `yaml:"listen_addr"`
	CORSOrigins    []string `yaml:"cors_origins"`
	RefreshSeconds int      `yaml:"refresh_seconds"`
}

// FetchModes lists the supported search fetch modes.
var FetchModes = []string{"common", "fallback", "local"}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		Flighty: FlightyConfig{
			DatabasePath: filepath.Join(home, "Library", "Containers", "com.flightyapp.flighty",
				"Data", "Documents", "MainFlightyDatabase.db"),
		},
		Tripsy: TripsyConfig{
			DatabasePath: filepath.Join(home, "Library", "Group Containers",
				"group.app.tripsy.ios", "Tripsy.sqlite"),
		},
		Radar: RadarConfig{
			FeedURL:     "https://data-cloud.flightradar24.com/zones/fcgi/feed.js",
			DetailsURL:  "https://data-live.flightradar24.com/clickhandler/",
			UserAgent:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			Timeout:     "15s",
			Concurrency: 4,
		},
		Search: SearchConfig{
			BaseURL:   "https://www.google.com/travel/flights",
			Currency:  "",
			Language:  "en",
			FetchMode: "common",
			Retries:   2,
			Timeout:   "30s",
		},
		Map: MapConfig{
			TileURL: "https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}{r}.png",
		},
		Server: ServerConfig{
			ListenAddr:     "127.0.0.1:8787",
			CORSOrigins:    []string{"*"},
			RefreshSeconds: 30,
		},
		Logging: LoggingConfig{
			Level:     "info",
			DebugMode: false,
			Dir:       filepath.Join(home, ".flightdeck", "logs"),
		},
	}
}

// DefaultPath returns ~/.flightdeck/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".flightdeck", "config.yaml")
	}
	return filepath.Join(home, ".flightdeck", "config.yaml")
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Defaults, still subject to env overrides
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("FLIGHTY_DB"); path != "" {
		c.Flighty.DatabasePath = path
	}
	if path := os.Getenv("TRIPSY_DB"); path != "" {
		c.Tripsy.DatabasePath = path
	}

	if url := os.Getenv("FR24_FEED_URL"); url != "" {
		c.Radar.FeedURL = url
	}
	if url := os.Getenv("FR24_DETAILS_URL"); url != "" {
		c.Radar.DetailsURL = url
	}

	if addr := os.Getenv("DECK_LISTEN_ADDR"); addr != "" {
		c.Server.ListenAddr = addr
	}
	if lvl := os.Getenv("DECK_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = strings.ToLower(lvl)
	}
	if cur := os.Getenv("DECK_CURRENCY"); cur != "" {
		c.Search.Currency = strings.ToUpper(cur)
	}
}

// GetRadarTimeout returns the FR24 request timeout as a duration.
func (c *Config) GetRadarTimeout() time.Duration {
	d, err := time.ParseDuration(c.Radar.Timeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// GetSearchTimeout returns the fare search timeout as a duration.
func (c *Config) GetSearchTimeout() time.Duration {
	d, err := time.ParseDuration(c.Search.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetRefreshInterval returns the map/watch refresh interval.
func (c *Config) GetRefreshInterval() time.Duration {
	if c.Server.RefreshSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Server.RefreshSeconds) * time.Second
}

// GetFlightyLocation returns the fallback zone for date bucketing.
func (c *Config) GetFlightyLocation() *time.Location {
	if c.Flighty.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Flighty.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validMode := false
	for _, m := range FetchModes {
		if c.Search.FetchMode == m {
			validMode = true
			break
		}
	}
	if !validMode {
		return fmt.Errorf("invalid search fetch_mode: %s (valid: %v)", c.Search.FetchMode, FetchModes)
	}

	for name, raw := range map[string]string{"radar.timeout": c.Radar.Timeout, "search.timeout": c.Search.Timeout} {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, raw, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, raw)
		}
	}

	if c.Radar.Concurrency <= 0 {
		return fmt.Errorf("radar.concurrency must be positive, got %d", c.Radar.Concurrency)
	}
	if c.Search.Retries < 0 {
		return fmt.Errorf("search.retries must not be negative, got %d", c.Search.Retries)
	}

	return nil
}
