package stp_test

import (
	"testing"

	"github.com/vlanspan/pvstd/internal/stp"
)

func newGuardTestEngine(t *testing.T) *stp.Engine {
	t.Helper()
	e, err := stp.NewEngine(stp.DefaultEngineConfig(), nil, nil, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestBpduGuardArmAndTrip(t *testing.T) {
	t.Parallel()

	e := newGuardTestEngine(t)
	e.SetBpduGuard(1, true, true)

	armed, doDisable := e.BpduGuardCheck(1)
	if !armed || !doDisable {
		t.Fatalf("BpduGuardCheck = (%v, %v), want (true, true)", armed, doDisable)
	}

	e.TripBpduGuard(1)
	if !e.BpduGuardTripped(1) {
		t.Fatal("port should be reported tripped after TripBpduGuard")
	}

	e.ClearBpduGuardTrip(1)
	if e.BpduGuardTripped(1) {
		t.Fatal("port should no longer be tripped after ClearBpduGuardTrip")
	}
}

func TestBpduGuardDisarm(t *testing.T) {
	t.Parallel()

	e := newGuardTestEngine(t)
	e.SetBpduGuard(1, true, false)
	e.SetBpduGuard(1, false, false)

	armed, doDisable := e.BpduGuardCheck(1)
	if armed || doDisable {
		t.Fatalf("BpduGuardCheck after disarm = (%v, %v), want (false, false)", armed, doDisable)
	}
}

func TestRootGuardArm(t *testing.T) {
	t.Parallel()

	e := newGuardTestEngine(t)
	if e.RootGuardArmed(1) {
		t.Fatal("root guard should start disarmed")
	}
	e.SetRootGuard(1, true)
	if !e.RootGuardArmed(1) {
		t.Fatal("root guard should be armed after SetRootGuard(true)")
	}
	e.SetRootGuard(1, false)
	if e.RootGuardArmed(1) {
		t.Fatal("root guard should be disarmed after SetRootGuard(false)")
	}
}

func TestEngineEnabledLifecycle(t *testing.T) {
	t.Parallel()

	e := newGuardTestEngine(t)
	if e.EngineEnabledOperational(1) {
		t.Fatal("engine enable should start operationally down")
	}
	e.SetEngineEnabled(1, true)
	e.SetEngineEnabled(1, false)
	if e.EngineEnabledOperational(1) {
		t.Fatal("disabling admin should clear the operational flag too")
	}
}
