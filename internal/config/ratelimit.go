package config

import "time"

// RateLimitConfig configures the contact form's fixed-window limiter.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	// Store is memory or redis.  redis degrades to memory when Redis is
	// unreachable at startup.
	Store  string
	Prefix string
	// Sweep is the cron spec for dropping expired in-memory windows.
	Sweep string
}

func (l *loader) loadRateLimit() RateLimitConfig {
	c := RateLimitConfig{
		Limit:  l.envInt("CONTACT_RATE_LIMIT", 5),
		Window: l.envDur("CONTACT_RATE_WINDOW", time.Hour),
		Store:  l.oneOf("RATE_LIMIT_STORE", "memory", "memory", "redis"),
		Prefix: getenv("RATE_LIMIT_PREFIX", "rl:contact"),
		Sweep:  getenv("RATE_LIMIT_SWEEP", "@every 10m"),
	}
	if c.Limit < 1 {
		c.Limit = 1
	}
	if c.Window <= 0 {
		c.Window = time.Hour
	}
	return c
}
