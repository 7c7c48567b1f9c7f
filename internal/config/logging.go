package config

import "flightdeck/internal/logging"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`      // debug, info, warn, error
	DebugMode  bool            `yaml:"debug_mode"` // Master toggle - false = no file logging
	Dir        string          `yaml:"dir"`
	JSON       bool            `yaml:"json"`
	Categories map[string]bool `yaml:"categories"` // Per-category toggles
}

// IsCategoryEnabled returns whether logging is enabled for a category.
// Returns false if debug_mode is false (production mode).
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if !c.DebugMode {
		return false
	}
	if c.Categories == nil {
		return true
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true
	}
	return enabled
}

// LoggerConfig converts the YAML section into the logging package's config.
func (c LoggingConfig) LoggerConfig() logging.Config {
	return logging.Config{
		Dir:        c.Dir,
		Level:      c.Level,
		DebugMode:  c.DebugMode,
		JSONFormat: c.JSON,
		Categories: c.Categories,
	}
}
