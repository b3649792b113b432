// Package config loads bridge configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all bridge configuration.
type Config struct {
	Bridge    BridgeConfig
	RelayHost RelayHostConfig
	Logging   LogConfig
}

// BridgeConfig holds messaging layer configuration. Wire marker strings are
// deliberately not configurable: both sides of the relay must agree on them.
type BridgeConfig struct {
	DefaultTimeout time.Duration `envconfig:"BRIDGE_TIMEOUT" default:"10s"`
	LongTimeout    time.Duration `envconfig:"BRIDGE_LONG_TIMEOUT" default:"30s"`
	ExtensionID    string        `envconfig:"BRIDGE_EXTENSION_ID" default:""`
}

// RelayHostConfig holds the relay harness server configuration.
type RelayHostConfig struct {
	Host           string   `envconfig:"RELAY_HOST" default:"127.0.0.1"`
	Port           string   `envconfig:"RELAY_PORT" default:"8787"`
	AllowedOrigins []string `envconfig:"RELAY_ALLOWED_ORIGINS" default:"*"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Bridge: BridgeConfig{
			DefaultTimeout: 10 * time.Second,
			LongTimeout:    30 * time.Second,
		},
		RelayHost: RelayHostConfig{
			Host:           "127.0.0.1",
			Port:           "8787",
			AllowedOrigins: []string{"*"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
