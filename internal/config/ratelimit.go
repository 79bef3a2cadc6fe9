package config

import (
	"strconv"
	"time"
)

// RateLimitConfig controls the fixed-window limiter applied to the password
// endpoints (login and cancel-pay). Attempts counts per client IP within
// Window; when exceeded, requests are rejected until the window rolls over.
type RateLimitConfig struct {
	Enabled  bool
	Attempts int
	Window   time.Duration
}

// LoadRateLimitConfig reads RATELIMIT_* environment variables with defaults
// suited to a human retyping a password, not an API client.
func LoadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:  getenv("RATELIMIT_ENABLED", "true") == "true",
		Attempts: rlAtoi(getenv("RATELIMIT_ATTEMPTS", "10")),
		Window:   rlDur(getenv("RATELIMIT_WINDOW", "1m")),
	}
}

func rlAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 10
	}
	return n
}

func rlDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}
