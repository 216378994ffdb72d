// Package config holds the engine's tunable parameters: cache sizing,
// the default gap strategy, provider timeouts, and the optional Redis
// cache tier. Config carries the per-date cache size and TTL, the
// default gap strategy, and the location provider timeout.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/yusufkaya/waqt/internal/schedule"
)

// Config holds process-wide tunables for the cache, location
// resolution, and default scheduling policy.
type Config struct {
	// ScheduleCacheSize and ScheduleCacheTTL size the mandatory
	// in-memory per-date cache (default 1000 entries, 6h TTL).
	ScheduleCacheSize int
	ScheduleCacheTTL  time.Duration

	// DefaultGapStrategy is used when a caller does not specify one.
	DefaultGapStrategy schedule.GapStrategy

	// LocationProviderTimeout holds the external location provider
	// timeout setting (3s default). The location package's HTTP client
	// uses its own fixed 3s timeout and does not read this field.
	LocationProviderTimeout time.Duration

	// RedisAddr, RedisTTL configure the optional second cache tier.
	// RedisAddr empty disables it.
	RedisAddr string
	RedisTTL  time.Duration

	// gapStrategyFlag holds the pflag-bound string form of
	// DefaultGapStrategy until ResolveFlags translates it back.
	gapStrategyFlag string
}

// DefaultConfig returns the engine's default configuration.
func DefaultConfig() Config {
	return Config{
		ScheduleCacheSize:       1000,
		ScheduleCacheTTL:        6 * time.Hour,
		DefaultGapStrategy:      schedule.Projected45,
		LocationProviderTimeout: 3 * time.Second,
		RedisAddr:               "",
		RedisTTL:                6 * time.Hour,
	}
}

// BindFlags registers this Config's fields on fs, using the current
// field values as defaults (call FromEnv first so `--help` output
// shows the env-overridden default). Call ResolveFlags after fs.Parse
// to translate the string-typed gap-strategy flag back into the enum.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.ScheduleCacheSize, "cache-size", c.ScheduleCacheSize, "maximum per-date schedule cache entries")
	fs.DurationVar(&c.ScheduleCacheTTL, "cache-ttl", c.ScheduleCacheTTL, "per-date schedule cache entry lifetime")
	fs.DurationVar(&c.LocationProviderTimeout, "location-timeout", c.LocationProviderTimeout, "timeout setting for external location provider calls (not read by the location providers, which use a fixed 3s timeout)")
	fs.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "optional Redis address for the second cache tier (empty disables it)")
	fs.DurationVar(&c.RedisTTL, "redis-ttl", c.RedisTTL, "Redis cache tier entry lifetime")

	c.gapStrategyFlag = c.DefaultGapStrategy.String()
	fs.StringVar(&c.gapStrategyFlag, "gap-strategy", c.gapStrategyFlag, "default gap strategy: strict|projected45")
}

// ResolveFlags must be called after fs.Parse to translate the
// string-typed gap-strategy flag back into DefaultGapStrategy.
func (c *Config) ResolveFlags() {
	switch c.gapStrategyFlag {
	case "strict", "Strict":
		c.DefaultGapStrategy = schedule.Strict
	case "projected45", "Projected45", "":
		c.DefaultGapStrategy = schedule.Projected45
	}
}

// FromEnv applies WAQT_*-prefixed environment variable overrides on
// top of c. Flags (bound afterward) take final precedence over env,
// which takes precedence over built-in defaults.
func (c *Config) FromEnv() {
	if v, ok := os.LookupEnv("WAQT_CACHE_SIZE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.ScheduleCacheSize = n
		}
	}
	if v, ok := os.LookupEnv("WAQT_CACHE_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.ScheduleCacheTTL = d
		}
	}
	if v, ok := os.LookupEnv("WAQT_LOCATION_TIMEOUT"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.LocationProviderTimeout = d
		}
	}
	if v, ok := os.LookupEnv("WAQT_REDIS_ADDR"); ok {
		c.RedisAddr = v
	}
	if v, ok := os.LookupEnv("WAQT_REDIS_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			c.RedisTTL = d
		}
	}
	if v, ok := os.LookupEnv("WAQT_GAP_STRATEGY"); ok {
		switch v {
		case "strict", "Strict":
			c.DefaultGapStrategy = schedule.Strict
		case "projected45", "Projected45":
			c.DefaultGapStrategy = schedule.Projected45
		}
	}
}
