package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Bridge config
	assert.Equal(t, 10*time.Second, cfg.Bridge.DefaultTimeout)
	assert.Equal(t, 30*time.Second, cfg.Bridge.LongTimeout)
	assert.Empty(t, cfg.Bridge.ExtensionID)

	// Relay host config
	assert.Equal(t, "127.0.0.1", cfg.RelayHost.Host)
	assert.Equal(t, "8787", cfg.RelayHost.Port)
	assert.Equal(t, []string{"*"}, cfg.RelayHost.AllowedOrigins)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)
}

func TestLoadOrDefault(t *testing.T) {
	// Should return default when no env vars set
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, 10*time.Second, cfg.Bridge.DefaultTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"BRIDGE_TIMEOUT":        "5s",
		"BRIDGE_LONG_TIMEOUT":   "45s",
		"BRIDGE_EXTENSION_ID":   "abcdefghijklmnop",
		"RELAY_HOST":            "0.0.0.0",
		"RELAY_PORT":            "9999",
		"RELAY_ALLOWED_ORIGINS": "http://localhost:3000,http://localhost:4000",
		"LOG_LEVEL":             "debug",
		"LOG_DEV":               "true",
	}

	for key, value := range envVars {
		os.Setenv(key, value)
	}
	defer func() {
		for key := range envVars {
			os.Unsetenv(key)
		}
	}()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Bridge.DefaultTimeout)
	assert.Equal(t, 45*time.Second, cfg.Bridge.LongTimeout)
	assert.Equal(t, "abcdefghijklmnop", cfg.Bridge.ExtensionID)
	assert.Equal(t, "0.0.0.0", cfg.RelayHost.Host)
	assert.Equal(t, "9999", cfg.RelayHost.Port)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:4000"}, cfg.RelayHost.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
}

func TestLoadInvalidDuration(t *testing.T) {
	os.Setenv("BRIDGE_TIMEOUT", "not-a-duration")
	defer os.Unsetenv("BRIDGE_TIMEOUT")

	_, err := Load()
	assert.Error(t, err)
}
