package stp

// PortId packs a 4-bit priority and a 12-bit port number into one 16-bit
// word (spec §3). The packed word is itself the total order: compare it
// directly.
type PortId uint16

const (
	portIDPriorityShift = 12
	portIDPriorityMask  = 0x0F
	portIDNumberMask    = 0x0FFF
)

// NewPortId packs priority and number into a PortId.
func NewPortId(priority uint8, number uint16) PortId {
	return PortId(uint16(priority&portIDPriorityMask)<<portIDPriorityShift | (number & portIDNumberMask))
}

// Priority returns the 4-bit priority field.
func (p PortId) Priority() uint8 {
	return uint8(p>>portIDPriorityShift) & portIDPriorityMask
}

// Number returns the 12-bit port number field.
func (p PortId) Number() uint16 {
	return uint16(p) & portIDNumberMask
}

// Less compares two PortIds on their packed word, which is already the
// priority-then-number lexicographic order spec §3 requires.
func (p PortId) Less(o PortId) bool {
	return p < o
}

// PortNumber is an unpacked port index into the engine's per-port dense
// arrays, distinct from the wire-level PortId.
type PortNumber = uint16
