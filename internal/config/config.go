// Package config loads engine and CLI configuration from YAML, using
// goccy/go-yaml for decoding.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Config is the top-level engine/CLI configuration document.
type Config struct {
	// Strict enables strict-mode join evaluation by default.
	Strict bool `yaml:"strict"`
	// LogLevel is a logrus level name ("debug", "info", "warn", "error").
	LogLevel string `yaml:"log_level"`
	// Sources maps a table name to a default driver/dsn pair for its COPY
	// traffic. It is only decoded here: backend/copyio takes driver and dsn
	// from the statement's own WITH (...) options and does not read Sources.
	Sources map[string]Source `yaml:"sources"`
}

// Source names the default driver/dsn pair for one table's COPY traffic.
type Source struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Default returns the default configuration: non-strict, info logging,
// no preconfigured sources.
func Default() Config {
	return Config{Strict: false, LogLevel: "info", Sources: map[string]Source{}}
}

// Load reads and decodes a YAML configuration file at path.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
