package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching is
// disabled.  Only GET responses with status 200 are ever cached.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

func (l *loader) loadCache() CacheConfig {
	c := CacheConfig{
		Enabled:      l.envBool("CACHE_ENABLED", true),
		TTL:          l.envDur("CACHE_TTL", 5*time.Minute),
		Prefix:       strings.TrimSuffix(getenv("CACHE_PREFIX", "cache"), ":"),
		MaxBodyBytes: l.envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	return c
}
