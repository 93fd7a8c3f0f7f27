// Package config loads taweb configuration from TOML files, environment
// variables, and CLI flags.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/RustColeone/TradingAgents-web-managed/internal/common"
)

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig         `toml:"server"`
	Storage    StorageConfig        `toml:"storage"`
	Engine     EngineConfig         `toml:"engine"`
	MarketData MarketDataConfig     `toml:"marketdata"`
	Schedule   ScheduleConfig       `toml:"schedule"`
	Logging    common.LoggingConfig `toml:"logging"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// StorageConfig contains the post store settings.
type StorageConfig struct {
	Path string `toml:"path"` // path to the posts JSON file
}

// EngineConfig contains the trading-agents engine client settings.
// An empty URL disables the engine; analysis requests then report the
// engine as unavailable instead of failing at startup.
type EngineConfig struct {
	URL      string         `toml:"url"`
	APIKey   string         `toml:"api_key"`
	Timeout  string         `toml:"timeout"`
	Defaults map[string]any `toml:"defaults"` // baseline engine options, overridden per post
}

// GetTimeout parses and returns the engine request timeout.
// Agent graph runs can take minutes, so the default is generous.
func (c *EngineConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// MarketDataConfig contains the price feed client settings.
type MarketDataConfig struct {
	BaseURL  string `toml:"base_url"`
	Timeout  string `toml:"timeout"`
	CacheTTL string `toml:"cache_ttl"` // chart response cache TTL
	Disabled bool   `toml:"disabled"`
}

// GetTimeout parses and returns the price feed request timeout.
func (c *MarketDataConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// GetCacheTTL parses and returns the chart response cache TTL.
func (c *MarketDataConfig) GetCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil || d <= 0 {
		return 1 * time.Minute
	}
	return d
}

// ScheduleConfig contains the daily auto-regeneration settings.
// Hour and Minute are wall-clock values in Timezone.
type ScheduleConfig struct {
	Enabled  bool   `toml:"enabled"`
	Hour     int    `toml:"hour"`
	Minute   int    `toml:"minute"`
	Timezone string `toml:"timezone"`
}

// Location resolves the configured timezone, falling back to UTC when the
// name cannot be loaded.
func (c *ScheduleConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies TAWEB_* environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if port := os.Getenv("TAWEB_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("TAWEB_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if path := os.Getenv("TAWEB_STORAGE_PATH"); path != "" {
		config.Storage.Path = path
	}
	if url := os.Getenv("TAWEB_ENGINE_URL"); url != "" {
		config.Engine.URL = url
	}
	if key := os.Getenv("TAWEB_ENGINE_API_KEY"); key != "" {
		config.Engine.APIKey = key
	}
	if tz := os.Getenv("TAWEB_SCHEDULE_TIMEZONE"); tz != "" {
		config.Schedule.Timezone = tz
	}
	if enabled := os.Getenv("TAWEB_SCHEDULE_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Schedule.Enabled = b
		}
	}
	if level := os.Getenv("TAWEB_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks mandatory fields and value ranges, returning one message
// per issue found.
func (c *Config) Validate() []string {
	var issues []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		issues = append(issues, fmt.Sprintf("server.port must be between 1 and 65535 (got %d)", c.Server.Port))
	}
	if c.Storage.Path == "" {
		issues = append(issues, "storage.path is required")
	}
	if c.Schedule.Hour < 0 || c.Schedule.Hour > 23 {
		issues = append(issues, fmt.Sprintf("schedule.hour must be between 0 and 23 (got %d)", c.Schedule.Hour))
	}
	if c.Schedule.Minute < 0 || c.Schedule.Minute > 59 {
		issues = append(issues, fmt.Sprintf("schedule.minute must be between 0 and 59 (got %d)", c.Schedule.Minute))
	}
	if c.Schedule.Timezone != "" {
		if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
			issues = append(issues, fmt.Sprintf("schedule.timezone %q is not a valid IANA timezone", c.Schedule.Timezone))
		}
	}

	return issues
}
