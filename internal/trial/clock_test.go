package trial

import "testing"

func TestClock_ThreeTicksExpireExactlyOnce(t *testing.T) {
	var c Clock
	if !c.Start(3) {
		t.Fatalf("start should succeed on an idle clock")
	}

	if c.Tick() {
		t.Fatalf("tick 1: expired too early, remaining=%d", c.Remaining())
	}
	if c.Tick() {
		t.Fatalf("tick 2: expired too early, remaining=%d", c.Remaining())
	}
	if !c.Tick() {
		t.Fatalf("tick 3: expected expiry")
	}
	if c.Remaining() != 0 {
		t.Fatalf("want remaining=0, got %d", c.Remaining())
	}

	// Expiry fires once, not per-tick.
	if c.Tick() {
		t.Fatalf("tick 4: expiry reported twice")
	}
}

func TestClock_StartWhileRunningIsNoOp(t *testing.T) {
	var c Clock
	c.Start(10)
	c.Tick()

	if c.Start(99) {
		t.Fatalf("second start should be a no-op while running")
	}
	if c.Remaining() != 9 {
		t.Fatalf("second start clobbered remaining: %d", c.Remaining())
	}
}

func TestClock_StartRejectsNonPositive(t *testing.T) {
	var c Clock
	if c.Start(0) || c.Running {
		t.Fatalf("zero-second start should not run")
	}
	if c.Tick() {
		t.Fatalf("idle clock must not expire")
	}
}
