package stp_test

import (
	"testing"

	"github.com/vlanspan/pvstd/internal/stp"
)

func TestDefaultPathCostTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		speed      stp.Speed
		extended   uint32
		legacy     uint32
	}{
		{stp.Speed10M, 2_000_000, 100},
		{stp.Speed100M, 200_000, 19},
		{stp.Speed1G, 20_000, 4},
		{stp.Speed10G, 2_000, 2},
		{stp.Speed25G, 800, 1},
		{stp.Speed40G, 500, 1},
		{stp.Speed100G, 200, 1},
		{stp.Speed400G, 50, 1},
	}

	for _, tt := range tests {
		if got := stp.DefaultPathCost(tt.speed, true); got != tt.extended {
			t.Errorf("DefaultPathCost(%v, true) = %d, want %d", tt.speed, got, tt.extended)
		}
		if got := stp.DefaultPathCost(tt.speed, false); got != tt.legacy {
			t.Errorf("DefaultPathCost(%v, false) = %d, want %d", tt.speed, got, tt.legacy)
		}
	}
}

func TestMaxPathCost(t *testing.T) {
	t.Parallel()

	if got := stp.MaxPathCost(true); got != 200_000_000 {
		t.Errorf("MaxPathCost(true) = %d, want 200000000", got)
	}
	if got := stp.MaxPathCost(false); got != 65535 {
		t.Errorf("MaxPathCost(false) = %d, want 65535", got)
	}
}
