package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"FLIGHTY_DB", "TRIPSY_DB", "FR24_FEED_URL", "FR24_DETAILS_URL",
		"DECK_LISTEN_ADDR", "DECK_LOG_LEVEL", "DECK_CURRENCY"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "common", cfg.Search.FetchMode)
	assert.Equal(t, 4, cfg.Radar.Concurrency)
	assert.Contains(t, cfg.Flighty.DatabasePath, "MainFlightyDatabase.db")
	assert.Contains(t, cfg.Tripsy.DatabasePath, "Tripsy.sqlite")
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Radar.FeedURL, cfg.Radar.FeedURL)
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Flighty.DatabasePath = "/tmp/flighty.db"
	cfg.Search.Currency = "EUR"
	cfg.Logging.Categories = map[string]bool{"radar": false}

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/flighty.db", loaded.Flighty.DatabasePath)
	assert.Equal(t, "EUR", loaded.Search.Currency)
	assert.False(t, loaded.Logging.IsCategoryEnabled("radar"))
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("radar:\n  concurrency: 8\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Radar.Concurrency)
	assert.Equal(t, "15s", cfg.Radar.Timeout)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("radar: [\n"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FLIGHTY_DB", "/env/flighty.db")
	t.Setenv("TRIPSY_DB", "/env/tripsy.sqlite")
	t.Setenv("FR24_FEED_URL", "http://feed.local")
	t.Setenv("FR24_DETAILS_URL", "http://details.local")
	t.Setenv("DECK_LISTEN_ADDR", ":9000")
	t.Setenv("DECK_LOG_LEVEL", "DEBUG")
	t.Setenv("DECK_CURRENCY", "usd")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "/env/flighty.db", cfg.Flighty.DatabasePath)
	assert.Equal(t, "/env/tripsy.sqlite", cfg.Tripsy.DatabasePath)
	assert.Equal(t, "http://feed.local", cfg.Radar.FeedURL)
	assert.Equal(t, "http://details.local", cfg.Radar.DetailsURL)
	assert.Equal(t, ":9000", cfg.Server.ListenAddr)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "USD", cfg.Search.Currency)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad fetch mode", func(c *Config) { c.Search.FetchMode = "carrier-pigeon" }, "fetch_mode"},
		{"zero timeout", func(c *Config) { c.Radar.Timeout = "0s" }, "radar.timeout"},
		{"unparseable timeout", func(c *Config) { c.Search.Timeout = "soon" }, "search.timeout"},
		{"zero concurrency", func(c *Config) { c.Radar.Concurrency = 0 }, "concurrency"},
		{"negative retries", func(c *Config) { c.Search.Retries = -1 }, "retries"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}
}

func TestConfig_DurationGetters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Radar.Timeout = "garbage"
	cfg.Search.Timeout = "5s"
	cfg.Server.RefreshSeconds = 0

	assert.Equal(t, 15*time.Second, cfg.GetRadarTimeout())
	assert.Equal(t, 5*time.Second, cfg.GetSearchTimeout())
	assert.Equal(t, 30*time.Second, cfg.GetRefreshInterval())
}

func TestConfig_FlightyLocation(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, time.Local, cfg.GetFlightyLocation())

	cfg.Flighty.TimeZone = "Asia/Tokyo"
	assert.Equal(t, "Asia/Tokyo", cfg.GetFlightyLocation().String())

	cfg.Flighty.TimeZone = "Mars/Olympus"
	assert.Equal(t, time.Local, cfg.GetFlightyLocation())
}

func TestLoggingConfig_LoggerConfig(t *testing.T) {
	lc := LoggingConfig{Level: "debug", DebugMode: true, Dir: "/tmp/logs", JSON: true}
	got := lc.LoggerConfig()
	assert.True(t, got.DebugMode)
	assert.True(t, got.JSONFormat)
	assert.Equal(t, "/tmp/logs", got.Dir)
	assert.True(t, lc.IsCategoryEnabled("anything"))
}
