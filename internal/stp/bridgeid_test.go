package stp_test

import (
	"testing"

	"github.com/vlanspan/pvstd/internal/stp"
)

func TestNewBridgeIdPacking(t *testing.T) {
	t.Parallel()

	mac := [6]byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	b := stp.NewBridgeId(0x8000, 0x064, mac)

	if b.Priority != 0x8064 {
		t.Fatalf("Priority = %#04x, want 0x8064", b.Priority)
	}
	if b.Mac != mac {
		t.Fatalf("Mac = %v, want %v", b.Mac, mac)
	}
}

func TestNewBridgeIdMasksSystemID(t *testing.T) {
	t.Parallel()

	mac := [6]byte{}
	b := stp.NewBridgeId(0x1234, 0xFFFF, mac)

	// Priority class keeps only its top nibble, system id only its bottom
	// 12 bits, regardless of what garbage the caller passes in either.
	if b.Priority != 0x1FFF {
		t.Fatalf("Priority = %#04x, want 0x1fff", b.Priority)
	}
}

func TestBridgeIdLessByPriorityThenMac(t *testing.T) {
	t.Parallel()

	lowPrio := stp.NewBridgeId(0x1000, 1, [6]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
	highPrio := stp.NewBridgeId(0x8000, 1, [6]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00})

	if !lowPrio.Less(highPrio) {
		t.Fatal("lower priority word should be Less")
	}
	if highPrio.Less(lowPrio) {
		t.Fatal("higher priority word should not be Less")
	}

	samePrioLowMac := stp.NewBridgeId(0x8000, 1, [6]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x01})
	samePrioHighMac := stp.NewBridgeId(0x8000, 1, [6]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x02})

	if !samePrioLowMac.Less(samePrioHighMac) {
		t.Fatal("equal priority, lower MAC should be Less")
	}
	if samePrioLowMac.Less(samePrioLowMac) {
		t.Fatal("a value should not be Less than itself")
	}
}

func TestBridgeIdEqual(t *testing.T) {
	t.Parallel()

	mac := [6]byte{1, 2, 3, 4, 5, 6}
	a := stp.NewBridgeId(0x8000, 7, mac)
	b := stp.NewBridgeId(0x8000, 7, mac)
	c := stp.NewBridgeId(0x8000, 8, mac)

	if !a.Equal(b) {
		t.Fatal("identically constructed BridgeIds should be Equal")
	}
	if a.Equal(c) {
		t.Fatal("different system id should not be Equal")
	}
}

func TestBridgeIdString(t *testing.T) {
	t.Parallel()

	mac := [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	b := stp.NewBridgeId(0x8000, 0x001, mac)

	want := "8001AABBCCDDEEFF"
	if got := b.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
