package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadBookingDefaults(t *testing.T) {
	t.Setenv("HOLD_TTL", "")
	t.Setenv("REAPER_INTERVAL", "")
	t.Setenv("REAPER_ENABLED", "")

	cfg := LoadBooking()
	assert.Equal(t, 10*time.Minute, cfg.HoldTTL)
	assert.Equal(t, 60*time.Second, cfg.ReaperInterval)
	assert.True(t, cfg.ReaperEnabled)
}

func TestLoadBookingOverrides(t *testing.T) {
	t.Setenv("HOLD_TTL", "2m")
	t.Setenv("REAPER_INTERVAL", "-5s")
	t.Setenv("REAPER_ENABLED", "off")

	cfg := LoadBooking()
	assert.Equal(t, 2*time.Minute, cfg.HoldTTL)
	assert.Equal(t, 60*time.Second, cfg.ReaperInterval, "non-positive interval falls back")
	assert.False(t, cfg.ReaperEnabled)
}

func TestLoad(t *testing.T) {
	for k, v := range map[string]string{
		"APP_ENV": "test", "APP_PORT": "8080", "DB_USER": "app", "DB_HOST": "localhost",
		"DB_PORT": "3306", "DB_NAME": "cinema", "JWT_SECRET": "s3cret",
		"DB_PASS": "", "ACCESS_TOKEN_TTL_MIN": "", "RABBITMQ_URL": "", "AMQP_URL": "amqp://broker:5672/",
	} {
		t.Setenv(k, v)
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "cinema", cfg.DB.Name)
	assert.Empty(t, cfg.DB.Pass)
	assert.Equal(t, 60, cfg.AccessTTLMin)
	assert.Equal(t, "amqp://broker:5672/", cfg.Events.RabbitMQURL)
	assert.Equal(t, "logs", cfg.Events.LogDir)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("AVAILABILITY_CACHE_ENABLED", "")
	t.Setenv("AVAILABILITY_CACHE_TTL", "")
	t.Setenv("AVAILABILITY_CACHE_PREFIX", "")
	cfg := LoadCacheConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 5*time.Second, cfg.TTL)
	assert.Equal(t, "avail", cfg.Prefix)

	t.Setenv("AVAILABILITY_CACHE_TTL", "0s")
	assert.False(t, LoadCacheConfig().Enabled)
}

func TestLoadRateLimitConfig(t *testing.T) {
	for _, k := range []string{
		"RATE_LIMIT_ENABLED", "RATE_LIMIT_CAPACITY", "RATE_LIMIT_REFILL_TOKENS", "RATE_LIMIT_REFILL_INTERVAL",
		"RATE_LIMIT_TTL", "RATE_LIMIT_KEY_STRATEGY", "RATE_LIMIT_PREFIX", "RATE_LIMIT_DEBUG",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "1m")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 5, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, time.Minute, cfg.RefillInterval)
	assert.Equal(t, 10*time.Minute, cfg.TTL)
	assert.Equal(t, "user_route", cfg.KeyStrategy)
}

func TestLoadRedisConfig(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_ADDR", "ignored:1")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REDIS_TLS", "1")

	cfg := LoadRedisConfig()
	assert.Equal(t, "cache:6380", cfg.Addr)
	assert.Equal(t, 2, cfg.DB)
	assert.True(t, cfg.TLS)
}
