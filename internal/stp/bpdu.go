package stp

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// Wire-format constants (spec §4.2, §6.2). The codec is the only
// component in this repository that touches network byte order; once a
// frame is decoded into a BPDU, every field is host order.
const (
	ethHeaderLen = 14 // DA(6) + SA(6) + length/ethertype(2)
	llcLen       = 3  // DSAP + SSAP + control
	snapLen      = 8  // LLC(3) + OUI(3) + protocol id(2)
	stpPayloadLen = 35 // protocol id(2) version(1) type(1) flags(1) root id(8)
	// root path cost(4) bridge id(8) port id(2) message_age(2) max_age(2)
	// hello_time(2) forward_delay(2)
	tcnPaddingLen     = 3
	pvstTLVLen        = 4  // tlv length(2) + vlan id(2)
	pvstTCNPaddingLen = 38

	llcDSAP    byte = 0x42
	llcSSAP    byte = 0x42
	llcControl byte = 0x03

	snapDSAP byte = 0xAA
	snapSSAP byte = 0xAA

	bpduTypeConfig uint8 = 0x00
	bpduTypeTCN    uint8 = 0x80

	flagTopologyChange        uint8 = 0x01
	flagTopologyChangeAck     uint8 = 0x80

	minVlanID uint16 = 1
	maxVlanID uint16 = 4094
)

// StpDstMac is the classic STP destination multicast MAC (spec §6.2).
var StpDstMac = [6]byte{0x01, 0x80, 0xC2, 0x00, 0x00, 0x00}

// PvstDstMac is the PVST+ destination multicast MAC (spec §6.2).
var PvstDstMac = [6]byte{0x01, 0x00, 0x0C, 0xCC, 0xCC, 0xCD}

// pvstOUI is the SNAP OUI (Cisco) used by PVST+ frames.
var pvstOUI = [3]byte{0x00, 0x00, 0x0C}

const pvstProtocolID uint16 = 0x010B

// Kind distinguishes the four wire shapes spec §4.2 names.
type Kind uint8

const (
	KindSTPConfig Kind = iota
	KindSTPTCN
	KindPVSTConfig
	KindPVSTTCN
)

func (k Kind) String() string {
	switch k {
	case KindSTPConfig:
		return "STPConfig"
	case KindSTPTCN:
		return "STPTCN"
	case KindPVSTConfig:
		return "PVSTConfig"
	case KindPVSTTCN:
		return "PVSTTCN"
	default:
		return "Unknown"
	}
}

// BPDU is the decoded, host-order form of any of the four wire shapes.
// Fields unused by a given Kind are zero.
type BPDU struct {
	Kind Kind

	SrcMac [6]byte

	ProtocolVersion uint8

	TopologyChange            bool
	TopologyChangeAcknowledge bool

	RootID       BridgeId
	RootPathCost uint32
	BridgeID     BridgeId
	PortID       PortId

	// MessageAge, MaxAge, HelloTime, ForwardDelay are seconds, after the
	// codec has shifted the wire's 1/256s units down by 8.
	MessageAge   uint8
	MaxAge       uint8
	HelloTime    uint8
	ForwardDelay uint8

	// VlanID is set for PVST+ frames only.
	VlanID uint16
}

// bufferPool backs BPDU encoding the way the teacher's bfd.PacketPool
// does: callers borrow a buffer, Marshal into it, and return it when
// done. Unmarshal reads the caller's frame directly and does not use it.
var bufferPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 128)
		return &buf
	},
}

// GetBuffer borrows a scratch frame buffer from the pool.
func GetBuffer() *[]byte {
	bufp, _ := bufferPool.Get().(*[]byte)
	return bufp
}

// PutBuffer returns a scratch frame buffer to the pool.
func PutBuffer(bufp *[]byte) {
	bufferPool.Put(bufp)
}

// Unmarshal decodes a raw Ethernet frame into a BPDU. It classifies
// classic-vs-PVST+ by destination MAC (second byte 0x80 is STP's, per
// §4.6) and dispatches to the config or TCN layout by the BPDU type
// field. Any malformed frame yields a wrapped ErrInvalidBpdu, and a config
// BPDU whose message age has reached its max age a wrapped ErrStaleBpdu;
// callers drop-and-count rather than propagate either further.
func Unmarshal(frame []byte) (*BPDU, error) {
	if len(frame) < ethHeaderLen+llcLen+2 {
		return nil, fmt.Errorf("frame too short (%d bytes): %w", len(frame), ErrInvalidBpdu)
	}

	dst := frame[0:6]
	src := frame[6:12]

	pvst := dst[1] != 0x80

	var bpdu BPDU
	copy(bpdu.SrcMac[:], src)

	if pvst {
		return unmarshalPVST(frame, &bpdu)
	}
	return unmarshalClassic(frame, &bpdu)
}

func unmarshalClassic(frame []byte, bpdu *BPDU) (*BPDU, error) {
	off := ethHeaderLen
	if frame[off] != llcDSAP || frame[off+1] != llcSSAP {
		return nil, fmt.Errorf("bad classic LLC header: %w", ErrInvalidBpdu)
	}
	off += llcLen

	if len(frame) < off+4 {
		return nil, fmt.Errorf("classic payload too short: %w", ErrInvalidBpdu)
	}

	// protocol id(2) must be 0x0000.
	if binary.BigEndian.Uint16(frame[off:off+2]) != 0 {
		return nil, fmt.Errorf("bad protocol id: %w", ErrInvalidBpdu)
	}
	bpdu.ProtocolVersion = frame[off+2]
	bpduType := frame[off+3]
	off += 4

	switch bpduType {
	case bpduTypeConfig:
		bpdu.Kind = KindSTPConfig
		return decodeConfigBody(frame, off, bpdu)
	case bpduTypeTCN:
		bpdu.Kind = KindSTPTCN
		return bpdu, nil
	default:
		return nil, fmt.Errorf("unknown bpdu type 0x%02x: %w", bpduType, ErrInvalidBpdu)
	}
}

func unmarshalPVST(frame []byte, bpdu *BPDU) (*BPDU, error) {
	off := ethHeaderLen
	if len(frame) < off+snapLen {
		return nil, fmt.Errorf("pvst frame too short for snap header: %w", ErrInvalidBpdu)
	}
	if frame[off] != snapDSAP || frame[off+1] != snapSSAP {
		return nil, fmt.Errorf("bad pvst snap header: %w", ErrInvalidBpdu)
	}
	oui := frame[off+3 : off+6]
	if oui[0] != pvstOUI[0] || oui[1] != pvstOUI[1] || oui[2] != pvstOUI[2] {
		return nil, fmt.Errorf("unexpected snap oui: %w", ErrInvalidBpdu)
	}
	if binary.BigEndian.Uint16(frame[off+6:off+8]) != pvstProtocolID {
		return nil, fmt.Errorf("unexpected snap protocol id: %w", ErrInvalidBpdu)
	}
	off += snapLen

	if len(frame) < off+4 {
		return nil, fmt.Errorf("pvst payload too short: %w", ErrInvalidBpdu)
	}
	if binary.BigEndian.Uint16(frame[off:off+2]) != 0 {
		return nil, fmt.Errorf("bad protocol id: %w", ErrInvalidBpdu)
	}
	bpdu.ProtocolVersion = frame[off+2]
	bpduType := frame[off+3]
	off += 4

	switch bpduType {
	case bpduTypeConfig:
		bpdu.Kind = KindPVSTConfig
		if _, err := decodeConfigBody(frame, off, bpdu); err != nil {
			return nil, err
		}
		// off already points past protocol id/version/type; decodeConfigBody
		// consumes stpPayloadLen-4 more bytes of body fields from there.
		off += stpPayloadLen - 4
		return decodePvstTLV(frame, off, bpdu)
	case bpduTypeTCN:
		bpdu.Kind = KindPVSTTCN
		// TCN carries no TLV in this wire format (spec §4.2: fixed
		// padding only); VlanID is left at 0. The management adapter
		// resolves the instance from the frame's 802.1Q tag, or from the
		// receive port's untagged VLAN when the frame arrived untagged.
		return bpdu, nil
	default:
		return nil, fmt.Errorf("unknown bpdu type 0x%02x: %w", bpduType, ErrInvalidBpdu)
	}
}

func decodeConfigBody(frame []byte, off int, bpdu *BPDU) (*BPDU, error) {
	if len(frame) < off+stpPayloadLen-4 {
		return nil, fmt.Errorf("config payload too short: %w", ErrInvalidBpdu)
	}
	flags := frame[off]
	bpdu.TopologyChange = flags&flagTopologyChange != 0
	bpdu.TopologyChangeAcknowledge = flags&flagTopologyChangeAck != 0
	off++

	bpdu.RootID = decodeBridgeID(frame[off : off+8])
	off += 8
	bpdu.RootPathCost = binary.BigEndian.Uint32(frame[off : off+4])
	off += 4
	bpdu.BridgeID = decodeBridgeID(frame[off : off+8])
	off += 8
	bpdu.PortID = PortId(binary.BigEndian.Uint16(frame[off : off+2]))
	off += 2

	messageAge := binary.BigEndian.Uint16(frame[off : off+2])
	off += 2
	maxAge := binary.BigEndian.Uint16(frame[off : off+2])
	off += 2
	helloTime := binary.BigEndian.Uint16(frame[off : off+2])
	off += 2
	forwardDelay := binary.BigEndian.Uint16(frame[off : off+2])

	// Wire units are 1/256s; host order is whole seconds (spec §4.2).
	bpdu.MessageAge = uint8(messageAge >> 8)
	bpdu.MaxAge = uint8(maxAge >> 8)
	bpdu.HelloTime = uint8(helloTime >> 8)
	if bpdu.HelloTime < MinHelloTime {
		bpdu.HelloTime = DefaultHelloTime
	}
	bpdu.ForwardDelay = uint8(forwardDelay >> 8)

	if bpdu.MessageAge >= bpdu.MaxAge {
		return nil, fmt.Errorf("message age %d >= max age %d: %w", bpdu.MessageAge, bpdu.MaxAge, ErrStaleBpdu)
	}

	return bpdu, nil
}

func decodePvstTLV(frame []byte, off int, bpdu *BPDU) (*BPDU, error) {
	if len(frame) < off+pvstTLVLen {
		return nil, fmt.Errorf("missing pvst vlan tlv: %w", ErrInvalidBpdu)
	}
	tlvLen := binary.BigEndian.Uint16(frame[off : off+2])
	if tlvLen != 2 {
		return nil, fmt.Errorf("bad pvst tlv length %d: %w", tlvLen, ErrInvalidBpdu)
	}
	vlan := binary.BigEndian.Uint16(frame[off+2 : off+4])
	if vlan < minVlanID || vlan > maxVlanID {
		return nil, fmt.Errorf("vlan id %d out of range: %w", vlan, ErrInvalidBpdu)
	}
	bpdu.VlanID = vlan
	return bpdu, nil
}

func decodeBridgeID(b []byte) BridgeId {
	var id BridgeId
	id.Priority = binary.BigEndian.Uint16(b[0:2])
	copy(id.Mac[:], b[2:8])
	return id
}

func encodeBridgeID(b []byte, id BridgeId) {
	binary.BigEndian.PutUint16(b[0:2], id.Priority)
	copy(b[2:8], id.Mac[:])
}

// Marshal encodes bpdu as a full Ethernet frame into buf, returning the
// number of bytes written. buf must have capacity for the widest shape
// (PVST+ TCN, 14+8+4+38 = 64 bytes).
func Marshal(bpdu *BPDU, srcMac [6]byte, buf []byte) (int, error) {
	switch bpdu.Kind {
	case KindSTPConfig:
		return marshalClassicConfig(bpdu, srcMac, buf)
	case KindSTPTCN:
		return marshalClassicTCN(bpdu, srcMac, buf)
	case KindPVSTConfig:
		return marshalPvstConfig(bpdu, srcMac, buf)
	case KindPVSTTCN:
		return marshalPvstTCN(bpdu, srcMac, buf)
	default:
		return 0, fmt.Errorf("unknown kind %d: %w", bpdu.Kind, ErrInvalidBpdu)
	}
}

func marshalEthHeader(buf []byte, dst, src [6]byte, length uint16) {
	copy(buf[0:6], dst[:])
	copy(buf[6:12], src[:])
	binary.BigEndian.PutUint16(buf[12:14], length)
}

func marshalConfigBody(buf []byte, off int, bpdu *BPDU) int {
	binary.BigEndian.PutUint16(buf[off:off+2], 0) // protocol id
	buf[off+2] = bpdu.ProtocolVersion
	buf[off+3] = bpduTypeConfig
	off += 4

	var flags uint8
	if bpdu.TopologyChange {
		flags |= flagTopologyChange
	}
	if bpdu.TopologyChangeAcknowledge {
		flags |= flagTopologyChangeAck
	}
	buf[off] = flags
	off++

	encodeBridgeID(buf[off:off+8], bpdu.RootID)
	off += 8
	binary.BigEndian.PutUint32(buf[off:off+4], bpdu.RootPathCost)
	off += 4
	encodeBridgeID(buf[off:off+8], bpdu.BridgeID)
	off += 8
	binary.BigEndian.PutUint16(buf[off:off+2], uint16(bpdu.PortID))
	off += 2

	binary.BigEndian.PutUint16(buf[off:off+2], uint16(bpdu.MessageAge)<<8)
	off += 2
	binary.BigEndian.PutUint16(buf[off:off+2], uint16(bpdu.MaxAge)<<8)
	off += 2
	binary.BigEndian.PutUint16(buf[off:off+2], uint16(bpdu.HelloTime)<<8)
	off += 2
	binary.BigEndian.PutUint16(buf[off:off+2], uint16(bpdu.ForwardDelay)<<8)
	off += 2

	return off
}

func marshalClassicConfig(bpdu *BPDU, srcMac [6]byte, buf []byte) (int, error) {
	total := ethHeaderLen + llcLen + stpPayloadLen
	if len(buf) < total {
		return 0, fmt.Errorf("buffer too small for classic config bpdu: %w", ErrInvalidBpdu)
	}
	marshalEthHeader(buf, StpDstMac, srcMac, uint16(llcLen+stpPayloadLen))
	off := ethHeaderLen
	buf[off] = llcDSAP
	buf[off+1] = llcSSAP
	buf[off+2] = llcControl
	off += llcLen
	marshalConfigBody(buf, off, bpdu)
	return total, nil
}

func marshalClassicTCN(bpdu *BPDU, srcMac [6]byte, buf []byte) (int, error) {
	payload := 4 + tcnPaddingLen
	total := ethHeaderLen + llcLen + payload
	if len(buf) < total {
		return 0, fmt.Errorf("buffer too small for classic tcn bpdu: %w", ErrInvalidBpdu)
	}
	marshalEthHeader(buf, StpDstMac, srcMac, uint16(llcLen+payload))
	off := ethHeaderLen
	buf[off] = llcDSAP
	buf[off+1] = llcSSAP
	buf[off+2] = llcControl
	off += llcLen
	binary.BigEndian.PutUint16(buf[off:off+2], 0)
	buf[off+2] = bpdu.ProtocolVersion
	buf[off+3] = bpduTypeTCN
	off += 4
	for i := 0; i < tcnPaddingLen; i++ {
		buf[off+i] = 0
	}
	return total, nil
}

func marshalSnapHeader(buf []byte, off int) int {
	buf[off] = snapDSAP
	buf[off+1] = snapSSAP
	buf[off+2] = llcControl
	copy(buf[off+3:off+6], pvstOUI[:])
	binary.BigEndian.PutUint16(buf[off+6:off+8], pvstProtocolID)
	return off + snapLen
}

func marshalPvstConfig(bpdu *BPDU, srcMac [6]byte, buf []byte) (int, error) {
	total := ethHeaderLen + snapLen + stpPayloadLen + pvstTLVLen
	if len(buf) < total {
		return 0, fmt.Errorf("buffer too small for pvst config bpdu: %w", ErrInvalidBpdu)
	}
	marshalEthHeader(buf, PvstDstMac, srcMac, uint16(snapLen+stpPayloadLen+pvstTLVLen))
	off := marshalSnapHeader(buf, ethHeaderLen)
	off = marshalConfigBody(buf, off, bpdu)
	binary.BigEndian.PutUint16(buf[off:off+2], 2)
	binary.BigEndian.PutUint16(buf[off+2:off+4], bpdu.VlanID)
	return total, nil
}

func marshalPvstTCN(bpdu *BPDU, srcMac [6]byte, buf []byte) (int, error) {
	payload := 4 + pvstTCNPaddingLen
	total := ethHeaderLen + snapLen + payload
	if len(buf) < total {
		return 0, fmt.Errorf("buffer too small for pvst tcn bpdu: %w", ErrInvalidBpdu)
	}
	marshalEthHeader(buf, PvstDstMac, srcMac, uint16(snapLen+payload))
	off := marshalSnapHeader(buf, ethHeaderLen)
	binary.BigEndian.PutUint16(buf[off:off+2], 0)
	buf[off+2] = bpdu.ProtocolVersion
	buf[off+3] = bpduTypeTCN
	off += 4
	for i := 0; i < pvstTCNPaddingLen; i++ {
		buf[off+i] = 0
	}
	return total, nil
}
