package stp_test

import (
	"testing"

	"github.com/vlanspan/pvstd/internal/stp"
)

func TestTimerStartStop(t *testing.T) {
	t.Parallel()

	var tm stp.Timer
	if tm.Active() {
		t.Fatal("zero-value Timer should not be active")
	}

	tm.Start(0)
	if !tm.Active() {
		t.Fatal("Start should arm the timer")
	}

	tm.Stop()
	if tm.Active() {
		t.Fatal("Stop should disarm the timer")
	}
}

func TestTimerTickExpiry(t *testing.T) {
	t.Parallel()

	var tm stp.Timer
	tm.Start(0)

	for i := 0; i < 4; i++ {
		if tm.Tick(5) {
			t.Fatalf("Tick %d expired early at value %d", i, tm.Value())
		}
	}
	if !tm.Tick(5) {
		t.Fatal("5th tick against limit 5 should expire")
	}
	if tm.Active() {
		t.Fatal("timer should deactivate on expiry")
	}
}

func TestTimerTickInactiveIsNoop(t *testing.T) {
	t.Parallel()

	var tm stp.Timer
	if tm.Tick(1) {
		t.Fatal("Tick on an inactive timer should never report expiry")
	}
	if tm.Value() != 0 {
		t.Fatal("Tick on an inactive timer should not advance value")
	}
}
