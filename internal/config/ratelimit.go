package config

import "time"

// RateLimitConfig controls the Redis token-bucket limiter applied to the
// API. Capacity is the bucket size, RefillTokens/RefillInterval the refill
// rate, TTL how long idle buckets survive in Redis. KeyStrategy chooses
// which request attributes form the bucket key.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
}

// LoadRateLimitConfig reads the RATE_LIMIT_* environment variables and
// normalizes obviously broken values instead of failing: a limiter that
// cannot be configured should fall back to something safe, not take the
// API down.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL: envDur("RATE_LIMIT_TTL", 10*time.Minute),
		// The global limiter runs before authentication, where the user id
		// is not known yet, so the default key is ip+route. User-keyed
		// strategies are for limiters registered inside authenticated
		// route groups.
		KeyStrategy: envStr("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
		Prefix:      envStr("RATE_LIMIT_PREFIX", "rl"),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	// Keep buckets alive for a few refill cycles at minimum so slow
	// clients do not reset their own bucket.
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}
