// Package ratelimit keeps outbound traffic to the SCJN service polite.
//
// It provides the concurrency Gate used by the pagination engine and a
// Redis-backed cooldown Tracker that shares server throttling signals
// (429/503 with Retry-After) across client instances.
package ratelimit

import (
	"net/http"
	"strconv"
	"time"
)

// Redis keys for cooldown state storage.
const (
	RedisKeyCooldownUntil = "scjn:rate_limit:cooldown_until"
	RedisKeyLastThrottle  = "scjn:rate_limit:last_throttle"
)

const (
	// DefaultCooldown is used when a throttling response carries no usable Retry-After.
	DefaultCooldown = 5 * time.Second

	// MaxCooldown caps any server-provided Retry-After.
	MaxCooldown = 5 * time.Minute
)

// CooldownState represents the shared throttling state of the SCJN backend.
type CooldownState struct {
	// Until is the instant before which no request should be sent.
	Until time.Time `json:"until"`

	// LastThrottle is when the backend last answered with a throttling status.
	LastThrottle time.Time `json:"last_throttle"`
}

// Active reports whether the cooldown window is still open.
func (s *CooldownState) Active() bool {
	return time.Now().Before(s.Until)
}

// Remaining returns the time left in the cooldown window, or 0.
func (s *CooldownState) Remaining() time.Duration {
	d := time.Until(s.Until)
	if d < 0 {
		return 0
	}
	return d
}

// ParseRetryAfter reads the Retry-After header as delta-seconds or an HTTP
// date. Missing or malformed values yield DefaultCooldown; results are
// clamped to [0, MaxCooldown].
func ParseRetryAfter(headers http.Header, now time.Time) time.Duration {
	value := headers.Get("Retry-After")
	if value == "" {
		return DefaultCooldown
	}

	var d time.Duration
	if secs, err := strconv.Atoi(value); err == nil {
		d = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(value); err == nil {
		d = at.Sub(now)
	} else {
		return DefaultCooldown
	}

	switch {
	case d < 0:
		return 0
	case d > MaxCooldown:
		return MaxCooldown
	default:
		return d
	}
}
