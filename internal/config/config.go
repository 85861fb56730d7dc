// Package config loads runtime configuration for the freshscan binary.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig is the environment-driven configuration.
type AppConfig struct {
	// APIKey is the YouTube Data API v3 key.
	APIKey string `envconfig:"YT_API_KEY"`

	// ThresholdDays is the staleness cutoff in days.
	ThresholdDays int `envconfig:"THRESHOLD_DAYS" default:"365"`

	// CacheTTLHours is how long scan results stay fresh.
	CacheTTLHours int `envconfig:"CACHE_TTL_HOURS" default:"24"`

	// Concurrency bounds parallel detail fetches (1-20).
	Concurrency int `envconfig:"SCAN_CONCURRENCY" default:"6"`

	// RedisURL enables the Redis-backed cache and quota meter when set
	// (host:port). Empty runs with the in-memory cache only.
	RedisURL string `envconfig:"REDIS_URL"`

	// Watchlist is the path to the YAML channel list.
	Watchlist string `envconfig:"WATCHLIST" default:"watchlist.yaml"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// Load reads AppConfig from the environment.
func Load() (*AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	return &cfg, nil
}
