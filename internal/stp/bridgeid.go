package stp

import "fmt"

// BridgeId is a 16-bit priority word concatenated with a 48-bit MAC
// address (spec: DATA MODEL). In "extend" mode the bottom 12 bits of the
// priority word carry the VLAN id instead of an operator-supplied system
// id; the top 4 bits are always the configurable priority class.
type BridgeId struct {
	Priority uint16
	Mac      [6]byte
}

const (
	bridgePriorityClassMask uint16 = 0xF000
	bridgeSystemIDMask      uint16 = 0x0FFF
)

// NewBridgeId packs a priority class and system id (or VLAN id, in extend
// mode) into a BridgeId with the given MAC.
func NewBridgeId(priorityClass uint16, systemID uint16, mac [6]byte) BridgeId {
	return BridgeId{
		Priority: (priorityClass & bridgePriorityClassMask) | (systemID & bridgeSystemIDMask),
		Mac:      mac,
	}
}

// Less implements the total lexicographic order of spec §3: compare the
// priority word first, then the MAC bytes.
func (b BridgeId) Less(o BridgeId) bool {
	if b.Priority != o.Priority {
		return b.Priority < o.Priority
	}
	for i := range b.Mac {
		if b.Mac[i] != o.Mac[i] {
			return b.Mac[i] < o.Mac[i]
		}
	}
	return false
}

// Equal reports whether b and o carry the same priority word and MAC.
func (b BridgeId) Equal(o BridgeId) bool {
	return b.Priority == o.Priority && b.Mac == o.Mac
}

// String renders the bridge id as the 16-hex-digit form used in published
// records: PPPPMMMMMMMMMMMM (priority word, then MAC, both hex).
func (b BridgeId) String() string {
	return fmt.Sprintf("%04X%02X%02X%02X%02X%02X%02X",
		b.Priority, b.Mac[0], b.Mac[1], b.Mac[2], b.Mac[3], b.Mac[4], b.Mac[5])
}
