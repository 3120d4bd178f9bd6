package util

import (
	"context"
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	// 10 tokens per second, burst of 2
	l := NewLimiter(10, 2)

	if !l.Allow(1) {
		t.Error("expected first token to be allowed")
	}
	if !l.Allow(1) {
		t.Error("expected second token to be allowed (burst)")
	}
	if l.Allow(1) {
		t.Error("expected third token to be rejected (burst exhausted)")
	}

	time.Sleep(150 * time.Millisecond)
	if !l.Allow(1) {
		t.Error("expected token to be refilled after wait")
	}
}

func TestIntervalLimiter(t *testing.T) {
	l := NewIntervalLimiter(time.Hour)
	if !l.Allow(1) {
		t.Fatal("first event must pass")
	}
	if l.Allow(1) {
		t.Fatal("second event within the interval must be throttled")
	}

	unlimited := NewIntervalLimiter(0)
	for i := 0; i < 5; i++ {
		if !unlimited.Allow(1) {
			t.Fatal("zero interval must never throttle")
		}
	}
}

func TestLimiterWait(t *testing.T) {
	l := NewIntervalLimiter(20 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	if err := l.Wait(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := l.Wait(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("second wait should have been delayed")
	}

	canceled, stop := context.WithCancel(context.Background())
	stop()
	if err := NewIntervalLimiter(time.Hour).Wait(canceled, 2); err == nil {
		t.Error("expected error for canceled context or burst overflow")
	}
}
