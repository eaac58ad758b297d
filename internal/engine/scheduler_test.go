package engine

import (
	"sync/atomic"
	"testing"
	"time"
)

// TestTickSchedulerDelivers tests that frames arrive with timestamps.
func TestTickSchedulerDelivers(t *testing.T) {
	s := NewTickScheduler(5 * time.Millisecond)

	var count atomic.Int64
	var lastTS atomic.Value

	s.Start(func(ts time.Time) {
		count.Add(1)
		lastTS.Store(ts)
	})
	defer s.Stop()

	deadline := time.Now().Add(time.Second)
	for count.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if count.Load() < 3 {
		t.Fatalf("Expected at least 3 frames, got %d", count.Load())
	}
	ts, ok := lastTS.Load().(time.Time)
	if !ok || ts.IsZero() {
		t.Error("Expected non-zero frame timestamps")
	}
}

// TestTickSchedulerStop tests that no callbacks run after Stop returns.
func TestTickSchedulerStop(t *testing.T) {
	s := NewTickScheduler(time.Millisecond)

	var count atomic.Int64
	s.Start(func(time.Time) { count.Add(1) })

	time.Sleep(20 * time.Millisecond)
	s.Stop()
	after := count.Load()

	time.Sleep(20 * time.Millisecond)
	if count.Load() != after {
		t.Errorf("Expected no frames after Stop, got %d more", count.Load()-after)
	}

	// Stopping twice is safe.
	s.Stop()
}

// TestTickSchedulerDefaultInterval tests the sub-millisecond floor.
func TestTickSchedulerDefaultInterval(t *testing.T) {
	s := NewTickScheduler(0)
	if s.interval != time.Second/60 {
		t.Errorf("Expected ~60Hz default, got %v", s.interval)
	}
}
