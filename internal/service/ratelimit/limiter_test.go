package ratelimit

import (
	"testing"
	"time"
)

func TestLimiterAllow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewWithClock(func() time.Time { return now })

	for i := 0; i < 2; i++ {
		if !l.Allow("run", 2, 0.5) {
			t.Fatalf("call %d should pass", i)
		}
	}
	if l.Allow("run", 2, 0.5) {
		t.Fatalf("bucket should be empty")
	}
	if !l.Allow("other", 2, 0.5) {
		t.Fatalf("keys must not share a bucket")
	}

	now = now.Add(2 * time.Second)
	if !l.Allow("run", 2, 0.5) {
		t.Fatalf("one token should have refilled")
	}
	if l.Allow("run", 2, 0.5) {
		t.Fatalf("only one token should have refilled")
	}

	now = now.Add(time.Hour)
	for i := 0; i < 2; i++ {
		if !l.Allow("run", 2, 0.5) {
			t.Fatalf("refill should cap at capacity, call %d", i)
		}
	}
	if l.Allow("run", 2, 0.5) {
		t.Fatalf("refill exceeded capacity")
	}
}
