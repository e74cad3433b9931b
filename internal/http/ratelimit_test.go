package http

import (
	"testing"
	"time"
)

func TestRateLimiterEnforcesConfiguredLimit(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)
	defer rl.stop()

	for i := 0; i < 3; i++ {
		if !rl.allow("10.0.0.1") {
			t.Fatalf("request %d denied under the limit", i+1)
		}
	}
	if rl.allow("10.0.0.1") {
		t.Fatal("request over the limit was allowed")
	}
	if !rl.allow("10.0.0.2") {
		t.Fatal("another client must have its own bucket")
	}
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	defer rl.stop()

	base := time.Now()
	rl.now = func() time.Time { return base }
	if !rl.allow("10.0.0.1") {
		t.Fatal("first request denied")
	}
	if rl.allow("10.0.0.1") {
		t.Fatal("second request in the same window was allowed")
	}

	rl.now = func() time.Time { return base.Add(2 * time.Minute) }
	if !rl.allow("10.0.0.1") {
		t.Fatal("request after the window elapsed was denied")
	}
}

func TestRateLimiterSweepsStaleClients(t *testing.T) {
	rl := newRateLimiter(10, time.Minute)
	defer rl.stop()

	base := time.Now()
	rl.now = func() time.Time { return base }
	rl.allow("10.0.0.1")

	rl.now = func() time.Time { return base.Add(limiterStaleAfter + time.Minute) }
	rl.cleanupStaleEntries()

	rl.mu.Lock()
	n := len(rl.clients)
	rl.mu.Unlock()
	if n != 0 {
		t.Fatalf("stale clients remaining = %d, want 0", n)
	}
}

func TestRateLimiterZeroConfigFallsBackToDefaults(t *testing.T) {
	rl := newRateLimiter(0, 0)
	defer rl.stop()

	if rl.limit != defaultWriteLimit || rl.window != time.Minute {
		t.Fatalf("defaults = %d/%v", rl.limit, rl.window)
	}
}
