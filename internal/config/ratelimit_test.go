package config

import (
	"testing"
	"time"
)

func TestLoadRateLimitConfigDefaults(t *testing.T) {
	for _, k := range []string{
		"RATE_LIMIT_ENABLED", "RATE_LIMIT_CAPACITY", "RATE_LIMIT_REFILL_TOKENS",
		"RATE_LIMIT_REFILL_INTERVAL", "RATE_LIMIT_TTL", "RATE_LIMIT_KEY_STRATEGY",
		"RATE_LIMIT_PREFIX",
	} {
		t.Setenv(k, "")
	}

	cfg := LoadRateLimitConfig()
	if !cfg.Enabled {
		t.Error("Enabled = false, want true")
	}
	if cfg.Capacity != 60 {
		t.Errorf("Capacity = %d, want 60", cfg.Capacity)
	}
	// The limiter sits in front of authentication, so the default key must
	// not include the user dimension.
	if cfg.KeyStrategy != "ip_route" {
		t.Errorf("KeyStrategy = %q, want ip_route", cfg.KeyStrategy)
	}
	if cfg.Prefix != "rl" {
		t.Errorf("Prefix = %q, want rl", cfg.Prefix)
	}
}

func TestLoadRateLimitConfigNormalizesBrokenValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_CAPACITY", "-3")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("RATE_LIMIT_KEY_STRATEGY", "ip")
	t.Setenv("RATE_LIMIT_PREFIX", "")

	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 {
		t.Errorf("Capacity = %d, want 1", cfg.Capacity)
	}
	if cfg.RefillTokens != 1 {
		t.Errorf("RefillTokens = %d, want 1", cfg.RefillTokens)
	}
	if want := 10 * time.Second; cfg.TTL != want {
		t.Errorf("TTL = %v, want %v (five refill intervals)", cfg.TTL, want)
	}
	if cfg.KeyStrategy != "ip" {
		t.Errorf("KeyStrategy = %q, want ip", cfg.KeyStrategy)
	}
}
