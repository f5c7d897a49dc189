// Package config loads the playground configuration from a YAML file,
// filling defaults for anything left unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config configures the playground.
type Config struct {
	// ModulePath is the path to the compiled query module.
	ModulePath string `yaml:"module_path"`

	// HistoryDB is the path to the session database. ":memory:" keeps
	// history for the process lifetime only.
	HistoryDB string `yaml:"history_db"`

	// SettleTimeout bounds the wait for the loaded module to publish
	// its call surface.
	SettleTimeout time.Duration `yaml:"settle_timeout"`

	// DebounceWindow is the quiescence window between the last
	// keystroke and query execution.
	DebounceWindow time.Duration `yaml:"debounce_window"`

	// LogLevel is a zap level name: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

func (c *Config) defaults() {
	if c.ModulePath == "" {
		c.ModulePath = "querypath.wasm"
	}
	if c.HistoryDB == "" {
		c.HistoryDB = "playground.db"
	}
	if c.SettleTimeout <= 0 {
		c.SettleTimeout = 2 * time.Second
	}
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = 500 * time.Millisecond
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

// Default returns the configuration with every field at its default.
func Default() *Config {
	c := &Config{}
	c.defaults()
	return c
}

// Load reads a YAML configuration file and applies defaults. A missing
// file is not an error: the defaults are returned.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.defaults()
	return &c, nil
}
