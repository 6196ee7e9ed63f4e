package stp

// Speed enumerates the link speeds the path-cost table (spec §6.4) knows
// about. The management adapter derives this from transport.LinkMonitor's
// port_speed(p) input.
type Speed uint8

const (
	Speed10M Speed = iota
	Speed100M
	Speed1G
	Speed10G
	Speed25G
	Speed40G
	Speed100G
	Speed400G
)

// pathCostEntry holds the extended (802.1t) and legacy (802.1D-1998)
// default path cost for one link speed.
type pathCostEntry struct {
	extended uint32
	legacy   uint32
}

var pathCostTable = map[Speed]pathCostEntry{
	Speed10M:   {extended: 2_000_000, legacy: 100},
	Speed100M:  {extended: 200_000, legacy: 19},
	Speed1G:    {extended: 20_000, legacy: 4},
	Speed10G:   {extended: 2_000, legacy: 2},
	Speed25G:   {extended: 800, legacy: 1},
	Speed40G:   {extended: 500, legacy: 1},
	Speed100G:  {extended: 200, legacy: 1},
	Speed400G:  {extended: 50, legacy: 1},
}

// DefaultPathCost returns the default path cost for a link of the given
// speed, selecting the extended (802.1t) or legacy (802.1D-1998) table per
// extendMode.
func DefaultPathCost(speed Speed, extendMode bool) uint32 {
	entry, ok := pathCostTable[speed]
	if !ok {
		entry = pathCostTable[Speed1G]
	}
	if extendMode {
		return entry.extended
	}
	return entry.legacy
}

// MaxPathCost returns the upper bound a configured path cost must respect
// (spec §6.1 parameter bounds).
func MaxPathCost(extendMode bool) uint32 {
	if extendMode {
		return 200_000_000
	}
	return 65535
}
