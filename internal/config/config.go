// Package config loads the service configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/roach88/signedstore/internal/record"
)

// Config is the service configuration. Missing keys keep their defaults.
type Config struct {
	// Database is the SQLite file path.
	Database string `yaml:"database"`
	// LogLevel is a zap level name: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
	// KindsFile replaces the embedded kind declarations when set.
	KindsFile string `yaml:"kinds_file"`
	// MetricsFile receives Prometheus metrics in text format after each
	// command when set.
	MetricsFile string   `yaml:"metrics_file"`
	Page        Page     `yaml:"page"`
	Throttle    Throttle `yaml:"throttle"`
}

// Page bounds list page sizes.
type Page struct {
	DefaultSize int `yaml:"default_size"`
	MaxSize     int `yaml:"max_size"`
}

// Throttle overrides the per-kind throttle windows for every kind. Nil keeps
// the declared window.
type Throttle struct {
	Create *time.Duration `yaml:"create"`
	Update *time.Duration `yaml:"update"`
	Delete *time.Duration `yaml:"delete"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: "signedstore.db",
		LogLevel: "info",
		Page: Page{
			DefaultSize: record.DefaultPageSize,
			MaxSize:     record.MaxPageSize,
		},
	}
}

// Load reads path over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.Page.DefaultSize <= 0 || c.Page.MaxSize <= 0 {
		return fmt.Errorf("page sizes must be positive")
	}
	if c.Page.DefaultSize > c.Page.MaxSize {
		return fmt.Errorf("page.default_size %d exceeds page.max_size %d", c.Page.DefaultSize, c.Page.MaxSize)
	}
	for name, d := range map[string]*time.Duration{
		"create": c.Throttle.Create,
		"update": c.Throttle.Update,
		"delete": c.Throttle.Delete,
	} {
		if d != nil && *d < 0 {
			return fmt.Errorf("throttle.%s must not be negative", name)
		}
	}
	return nil
}

// Paging converts the page settings for list queries.
func (c Config) Paging() record.Paging {
	return record.Paging{DefaultSize: c.Page.DefaultSize, MaxSize: c.Page.MaxSize}
}

// Level returns the parsed log level. Validate has already checked it.
func (c Config) Level() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
