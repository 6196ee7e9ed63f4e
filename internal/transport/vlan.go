package transport

import "encoding/binary"

const (
	tpid8021Q = 0x8100
	vlanIDMax = 0x0FFF
	vlanTagLen = 4
	ethAddrLen = 12 // destination(6) + source(6) MAC, before length/ethertype
)

// insertVlanTag splices an 802.1Q tag carrying vlanID into an untagged
// Ethernet frame, between the source/destination MAC addresses and the
// length/ethertype field.
func insertVlanTag(frame []byte, vlanID uint16) []byte {
	out := make([]byte, len(frame)+vlanTagLen)
	copy(out, frame[:ethAddrLen])
	binary.BigEndian.PutUint16(out[ethAddrLen:ethAddrLen+2], tpid8021Q)
	binary.BigEndian.PutUint16(out[ethAddrLen+2:ethAddrLen+4], vlanID&vlanIDMax)
	copy(out[ethAddrLen+vlanTagLen:], frame[ethAddrLen:])
	return out
}

// stripVlanTag detects and removes a leading 802.1Q tag from a received
// frame, reporting the VLAN id carried if one was present.
func stripVlanTag(frame []byte) Frame {
	if len(frame) < ethAddrLen+vlanTagLen {
		return Frame{Data: frame}
	}
	if binary.BigEndian.Uint16(frame[ethAddrLen:ethAddrLen+2]) != tpid8021Q {
		return Frame{Data: frame}
	}

	vlanID := binary.BigEndian.Uint16(frame[ethAddrLen+2:ethAddrLen+4]) & vlanIDMax
	out := make([]byte, len(frame)-vlanTagLen)
	copy(out, frame[:ethAddrLen])
	copy(out[ethAddrLen:], frame[ethAddrLen+vlanTagLen:])
	return Frame{VlanID: vlanID, Tagged: true, Data: out}
}
