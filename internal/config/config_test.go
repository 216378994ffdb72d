package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"

	"github.com/yusufkaya/waqt/internal/schedule"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1000, cfg.ScheduleCacheSize)
	assert.Equal(t, 6*time.Hour, cfg.ScheduleCacheTTL)
	assert.Equal(t, schedule.Projected45, cfg.DefaultGapStrategy)
	assert.Equal(t, 3*time.Second, cfg.LocationProviderTimeout)
	assert.Equal(t, "", cfg.RedisAddr)
}

func TestFromEnvOverrides(t *testing.T) {
	os.Setenv("WAQT_CACHE_SIZE", "500")
	os.Setenv("WAQT_GAP_STRATEGY", "strict")
	os.Setenv("WAQT_REDIS_ADDR", "localhost:6379")
	defer os.Unsetenv("WAQT_CACHE_SIZE")
	defer os.Unsetenv("WAQT_GAP_STRATEGY")
	defer os.Unsetenv("WAQT_REDIS_ADDR")

	cfg := DefaultConfig()
	cfg.FromEnv()

	assert.Equal(t, 500, cfg.ScheduleCacheSize)
	assert.Equal(t, schedule.Strict, cfg.DefaultGapStrategy)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestBindFlagsOverridesDefault(t *testing.T) {
	cfg := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)

	err := fs.Parse([]string{"--cache-size=42", "--gap-strategy=strict"})
	assert.NoError(t, err)
	cfg.ResolveFlags()

	assert.Equal(t, 42, cfg.ScheduleCacheSize)
	assert.Equal(t, schedule.Strict, cfg.DefaultGapStrategy)
}

func TestResolveFlagsDefaultsToProjected45(t *testing.T) {
	cfg := DefaultConfig()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)

	assert.NoError(t, fs.Parse(nil))
	cfg.ResolveFlags()

	assert.Equal(t, schedule.Projected45, cfg.DefaultGapStrategy)
}
