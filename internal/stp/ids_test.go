package stp_test

import (
	"errors"
	"testing"

	"github.com/vlanspan/pvstd/internal/stp"
)

func TestIDPoolAllocateSequential(t *testing.T) {
	t.Parallel()

	pool := stp.NewIDPool(4)
	for want := uint16(0); want < 4; want++ {
		got, err := pool.Allocate()
		if err != nil {
			t.Fatalf("Allocate: unexpected error: %v", err)
		}
		if got != want {
			t.Fatalf("Allocate() = %d, want %d", got, want)
		}
	}
}

func TestIDPoolExhaustion(t *testing.T) {
	t.Parallel()

	pool := stp.NewIDPool(2)
	if _, err := pool.Allocate(); err != nil {
		t.Fatalf("first Allocate: %v", err)
	}
	if _, err := pool.Allocate(); err != nil {
		t.Fatalf("second Allocate: %v", err)
	}
	if _, err := pool.Allocate(); !errors.Is(err, stp.ErrResourceExhausted) {
		t.Fatalf("Allocate on exhausted pool: got %v, want ErrResourceExhausted", err)
	}
}

func TestIDPoolReleaseReuse(t *testing.T) {
	t.Parallel()

	pool := stp.NewIDPool(2)
	first, _ := pool.Allocate()
	pool.Release(first)
	if pool.IsAllocated(first) {
		t.Fatal("id should no longer be allocated after Release")
	}
	got, err := pool.Allocate()
	if err != nil {
		t.Fatalf("Allocate after Release: %v", err)
	}
	if got != first {
		t.Fatalf("Allocate after Release = %d, want reused id %d", got, first)
	}
}
