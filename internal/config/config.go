package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time is used for duration-typed settings
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. The types reflect how the values are used in the
// application: strings for identifiers and secrets, ints for costs and
// counters, durations for anything time-based. Secrets are required and the
// process refuses to start without them; there are no committed defaults.
type Config struct {
	Env              string        // application environment (e.g. "dev", "prod")
	Port             string        // HTTP port to listen on
	DBUser           string        // database username
	DBPass           string        // database password (optional)
	DBHost           string        // database host address
	DBPort           string        // database port number
	DBName           string        // database name
	AccessSecret     string        // secret used to sign access JWTs
	RefreshSecret    string        // secret used to sign refresh JWTs (distinct from AccessSecret)
	AccessTTL        time.Duration // access token time-to-live
	RefreshTTL       time.Duration // refresh token time-to-live
	BcryptCost       int           // bcrypt cost for password hashing
	LockoutThreshold int           // failed logins before an account is locked
	LockoutWindow    time.Duration // how long a locked account stays locked
}

// PollConfig groups the knobs of the update-polling endpoints. The interval
// values are hints returned to clients; the server stays correct whether or
// not a client honours them.
type PollConfig struct {
	FirstPollLimit int           // max events returned when no watermark is supplied
	FastInterval   int           // seconds, suggested while order/payment activity is recent
	NormalInterval int           // seconds, the default suggestion
	SlowInterval   int           // seconds, suggested for idle users
	FastLookback   time.Duration // how far back "recent activity" reaches
	IdleAfter      time.Duration // newest event older than this counts as idle
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values cause
// the program to exit with a fatal log message. TTLs use Go duration syntax
// (e.g. "24h", "168h").
func Load() Config {
	cfg := Config{
		Env:              must("APP_ENV"),
		Port:             must("APP_PORT"),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"), // empty password allowed for local setups
		DBHost:           must("DB_HOST"),
		DBPort:           must("DB_PORT"),
		DBName:           must("DB_NAME"),
		AccessSecret:     must("JWT_ACCESS_SECRET"),
		RefreshSecret:    must("JWT_REFRESH_SECRET"),
		AccessTTL:        mustDur("ACCESS_TOKEN_TTL"),
		RefreshTTL:       mustDur("REFRESH_TOKEN_TTL"),
		BcryptCost:       mustInt("BCRYPT_COST"),
		LockoutThreshold: envInt("LOCKOUT_THRESHOLD", 5),
		LockoutWindow:    envDur("LOCKOUT_WINDOW", 15*time.Minute),
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		log.Fatal("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	return cfg
}

// LoadPollConfig builds a PollConfig from the environment. Every value has a
// default so the polling endpoints work out of the box.
func LoadPollConfig() PollConfig {
	return PollConfig{
		FirstPollLimit: envInt("POLL_FIRST_LIMIT", 50),
		FastInterval:   envInt("POLL_FAST_INTERVAL", 5),
		NormalInterval: envInt("POLL_NORMAL_INTERVAL", 30),
		SlowInterval:   envInt("POLL_SLOW_INTERVAL", 60),
		FastLookback:   envDur("POLL_FAST_LOOKBACK", 2*time.Minute),
		IdleAfter:      envDur("POLL_IDLE_AFTER", 30*time.Minute),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// mustDur is like must() but parses a Go duration string.
func mustDur(key string) time.Duration {
	s := must(key)
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q", key, s)
	}
	return d
}
