package config

import (
    "os"
    "strconv"
    "time"
)

// CacheConfig defines settings for the Redis availability cache.  When
// Enabled is false or no Redis client is configured, availability is always
// computed from the database.  TTL caps the lifetime of a snapshot; the
// service shortens it further so no snapshot outlives the earliest hold it
// contains.  Prefix namespaces the keys.
type CacheConfig struct {
    Enabled bool
    TTL     time.Duration
    Prefix  string
}

// LoadCacheConfig reads the AVAILABILITY_CACHE_* variables.  Defaults are
// used when variables are not set.
func LoadCacheConfig() CacheConfig {
    cfg := CacheConfig{
        Enabled: getenv("AVAILABILITY_CACHE_ENABLED", "true") == "true",
        TTL:     parseDur(getenv("AVAILABILITY_CACHE_TTL", "5s")),
        Prefix:  getenv("AVAILABILITY_CACHE_PREFIX", "avail"),
    }
    if cfg.TTL <= 0 {
        cfg.Enabled = false
    }
    return cfg
}

// Helper functions reused from redis.go and ratelimit.go
func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func atoi(s string) int {
    i, _ := strconv.Atoi(s)
    return i
}

func parseDur(s string) time.Duration {
    d, err := time.ParseDuration(s)
    if err != nil {
        return time.Second
    }
    return d
}
