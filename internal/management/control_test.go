package management_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vlanspan/pvstd/internal/management"
)

// runEngine starts the adapter's engine dispatch loop in the background
// and returns a stop func. Controller.Submit/Snapshot round-trip through
// the low-priority queue, so nothing progresses until Run is pumping it.
func runEngine(t *testing.T, a *management.Adapter) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = a.Engine().Run(ctx)
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}

func TestControllerSubmitCreatesVlan(t *testing.T) {
	a, _ := newTestAdapter(t)
	stop := runEngine(t, a)
	defer stop()

	c := management.NewController(a)

	err := c.Submit(management.Message{
		Kind:         management.KindVlanConfig,
		Opcode:       management.OpcodeSet,
		NewInstance:  true,
		VlanID:       10,
		Priority:     32768,
		MaxAge:       20,
		HelloTime:    2,
		ForwardDelay: 15,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	snap := c.Snapshot()
	if len(snap.Instances) != 1 || snap.Instances[0].VlanID != 10 {
		t.Fatalf("want one instance for vlan 10, got %+v", snap.Instances)
	}
}

func TestControllerSubmitRejectsInvalidMessage(t *testing.T) {
	a, _ := newTestAdapter(t)
	stop := runEngine(t, a)
	defer stop()

	c := management.NewController(a)

	err := c.Submit(management.Message{
		Kind:   management.KindVlanConfig,
		VlanID: 0, // invalid
	})
	if err == nil {
		t.Fatal("want error for invalid vlan id")
	}
}

func TestControllerSnapshotBeforeInit(t *testing.T) {
	sender := &fakeSender{}
	a := management.NewAdapter(nil, nil, sender)
	c := management.NewController(a)

	snap := c.Snapshot()
	if len(snap.Instances) != 0 {
		t.Fatalf("want empty snapshot before Init, got %+v", snap.Instances)
	}
}

func TestControllerSubmitTimelyEnough(t *testing.T) {
	a, _ := newTestAdapter(t)
	stop := runEngine(t, a)
	defer stop()

	c := management.NewController(a)

	start := time.Now()
	if err := c.Submit(management.Message{Kind: management.KindPortConfig, IfName: "eth0"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Submit took %v, want under one second", elapsed)
	}
}
