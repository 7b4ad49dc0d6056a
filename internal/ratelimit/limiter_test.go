// internal/ratelimit/limiter_test.go
package ratelimit

import (
	"testing"
	"time"
)

type mockClock struct {
	now time.Time
}

func (c *mockClock) Now() time.Time { return c.now }

func (c *mockClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(max int, window time.Duration) (*Limiter, *mockClock) {
	clock := &mockClock{now: time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)}
	return New(&Config{MaxPerWindow: max, Window: window, Clock: clock}), clock
}

func TestAllowWithinLimit(t *testing.T) {
	limiter, _ := newTestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if result := limiter.Allow("10.0.0.1"); !result.Allowed {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	result := limiter.Allow("10.0.0.1")
	if result.Allowed {
		t.Fatal("fourth attempt should be refused")
	}
	if result.RetryAfter <= 0 || result.RetryAfter > time.Minute {
		t.Fatalf("unexpected retry-after %v", result.RetryAfter)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	limiter, _ := newTestLimiter(1, time.Minute)

	if result := limiter.Allow("10.0.0.1"); !result.Allowed {
		t.Fatal("first key should be allowed")
	}
	if result := limiter.Allow("10.0.0.1"); result.Allowed {
		t.Fatal("first key should now be refused")
	}
	if result := limiter.Allow("10.0.0.2"); !result.Allowed {
		t.Fatal("second key must not share the first key's budget")
	}
}

func TestWindowResets(t *testing.T) {
	limiter, clock := newTestLimiter(1, time.Minute)

	if result := limiter.Allow("10.0.0.1"); !result.Allowed {
		t.Fatal("first attempt should be allowed")
	}
	if result := limiter.Allow("10.0.0.1"); result.Allowed {
		t.Fatal("second attempt should be refused")
	}

	clock.advance(time.Minute)
	if result := limiter.Allow("10.0.0.1"); !result.Allowed {
		t.Fatal("attempt after window should be allowed")
	}
}

func TestSweepDropsExpiredEntries(t *testing.T) {
	limiter, clock := newTestLimiter(1, time.Minute)

	limiter.Allow("10.0.0.1")
	limiter.Allow("10.0.0.2")
	clock.advance(2 * time.Minute)

	// Any call sweeps; afterwards only the fresh entry remains.
	limiter.Allow("10.0.0.3")

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if len(limiter.byKey) != 1 {
		t.Fatalf("expected 1 tracked key after sweep, got %d", len(limiter.byKey))
	}
}
