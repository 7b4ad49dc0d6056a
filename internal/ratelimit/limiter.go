// Package ratelimit limits invitation-token response attempts. Tokens are
// bearer credentials, so unauthenticated accept/reject endpoints need a cap
// on guessing.
package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

// realClock implements Clock using the system time.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds rate limit configuration.
type Config struct {
	// MaxPerWindow is the number of respond attempts allowed per client
	// per window (default: 30).
	MaxPerWindow int
	// Window is the rolling window size (default: 15m).
	Window time.Duration

	// Clock for testing (nil uses real time)
	Clock Clock
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxPerWindow: 30,
		Window:       15 * time.Minute,
	}
}

// LimitResult contains the result of a rate limit check.
type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
}

// entry tracks request counts and timestamps.
type entry struct {
	count   int
	firstAt time.Time // First request in window
}

// Limiter caps respond attempts per client key.
type Limiter struct {
	config *Config
	clock  Clock
	mu     sync.Mutex
	// Keyed by hash of the client identifier
	byKey map[string]*entry
}

// New creates a new rate limiter with the given config.
func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	return &Limiter{
		config: cfg,
		clock:  clock,
		byKey:  make(map[string]*entry),
	}
}

// Allow records a respond attempt for the client key and reports whether it
// is within the limit. Expired entries are swept opportunistically.
func (l *Limiter) Allow(key string) LimitResult {
	now := l.clock.Now()
	hashed := hashKey(key)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	e, ok := l.byKey[hashed]
	if !ok || now.Sub(e.firstAt) >= l.config.Window {
		l.byKey[hashed] = &entry{count: 1, firstAt: now}
		return LimitResult{Allowed: true}
	}

	if e.count >= l.config.MaxPerWindow {
		return LimitResult{
			Allowed:    false,
			RetryAfter: l.config.Window - now.Sub(e.firstAt),
		}
	}

	e.count++
	return LimitResult{Allowed: true}
}

// sweep drops entries whose window has passed. Caller holds the lock.
func (l *Limiter) sweep(now time.Time) {
	for key, e := range l.byKey {
		if now.Sub(e.firstAt) >= l.config.Window {
			delete(l.byKey, key)
		}
	}
}

// hashKey avoids storing raw client identifiers in memory.
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
