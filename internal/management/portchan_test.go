package management_test

import (
	"testing"

	"github.com/vlanspan/pvstd/internal/management"
	"github.com/vlanspan/pvstd/internal/stp"
)

func TestPortChannelRegistryAcquireIsIdempotent(t *testing.T) {
	engine, err := stp.NewEngine(stp.DefaultEngineConfig(), nil, nil, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	reg := management.NewPortChannelRegistry(engine)

	id1, err := reg.Acquire("Port-channel1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	id2, err := reg.Acquire("Port-channel1")
	if err != nil {
		t.Fatalf("acquire again: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("want stable id across repeated Acquire, got %d then %d", id1, id2)
	}
}

func TestPortChannelRegistryReleaseFreesID(t *testing.T) {
	engine, err := stp.NewEngine(stp.DefaultEngineConfig(), nil, nil, nil)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	reg := management.NewPortChannelRegistry(engine)

	id, err := reg.Acquire("Port-channel1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	reg.Release("Port-channel1")

	if _, ok := reg.Lookup("Port-channel1"); ok {
		t.Fatal("want Lookup to miss after Release")
	}

	id2, err := reg.Acquire("Port-channel2")
	if err != nil {
		t.Fatalf("acquire second name: %v", err)
	}
	if id2 != id {
		t.Fatalf("want released id %d reused, got %d", id, id2)
	}
}
