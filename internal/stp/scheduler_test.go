package stp_test

import (
	"context"
	"testing"
	"time"

	"github.com/vlanspan/pvstd/internal/stp"
	"go.uber.org/goleak"
)

// TestRunStopsCleanly verifies the dispatch loop exits promptly on
// context cancellation and leaves no goroutine behind, the same
// leak-detection discipline the teacher applies to its session manager.
func TestRunStopsCleanly(t *testing.T) {
	defer goleak.VerifyNone(t)

	e, err := stp.NewEngine(stp.DefaultEngineConfig(), nil, nil, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

// TestSnapshotRoundTripsThroughDispatchLoop verifies Snapshot observes a
// running engine's state without racing the tick goroutine.
func TestSnapshotRoundTripsThroughDispatchLoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	e, err := stp.NewEngine(stp.DefaultEngineConfig(), nil, nil, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	idx, err := e.CreateVlan(1, 0x8000)
	if err != nil {
		t.Fatalf("CreateVlan: %v", err)
	}
	e.EnablePort(idx, 1, 0x80, stp.Speed1G)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	snap := e.Snapshot()
	if len(snap.Instances) != 1 {
		t.Fatalf("Snapshot returned %d instances, want 1", len(snap.Instances))
	}
	if snap.Instances[0].VlanID != 1 {
		t.Fatalf("Instances[0].VlanID = %d, want 1", snap.Instances[0].VlanID)
	}
}
