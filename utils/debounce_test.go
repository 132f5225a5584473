package utils

import (
	"testing"
	"time"
)

func TestDebouncerCoalescesBurst(t *testing.T) {
	clock := NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	calls := 0
	d := NewDebouncer(clock, 100*time.Millisecond, func() { calls++ })

	for i := 0; i < 5; i++ {
		d.Trigger()
		clock.Advance(60 * time.Millisecond)
	}
	if calls != 0 {
		t.Fatalf("calls = %d during the burst, want 0", calls)
	}
	clock.Advance(40 * time.Millisecond)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
	if clock.Pending() != 0 {
		t.Fatalf("pending = %d, want 0", clock.Pending())
	}
}

func TestDebouncerStop(t *testing.T) {
	clock := NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	calls := 0
	d := NewDebouncer(clock, 100*time.Millisecond, func() { calls++ })

	d.Trigger()
	d.Stop()
	d.Trigger()
	clock.Advance(time.Second)
	if calls != 0 {
		t.Fatalf("calls = %d after Stop, want 0", calls)
	}
}
