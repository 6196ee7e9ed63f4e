package transport

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrSocketClosed indicates an operation on a closed Conn.
	ErrSocketClosed = errors.New("transport: socket closed")

	// ErrUnknownInterface indicates a Hub.Send for an interface with no
	// registered Conn.
	ErrUnknownInterface = errors.New("transport: unknown interface")
)

// Frame is a single Ethernet frame, already stripped of any 802.1Q tag by
// the Conn that received it. VlanID and Tagged are zero/false for a
// classic untagged BPDU frame.
type Frame struct {
	VlanID uint16
	Tagged bool
	Data   []byte
}

// Conn is a per-interface raw packet socket carrying BPDU frames. TX
// inserts (or omits) an 802.1Q tag carrying vlanID around an already
// fully framed Ethernet payload; Recv strips any such tag back off
// before returning. Grounded on the teacher's netio.PacketConn: a thin
// interface minimal enough to admit a non-privileged test double, but
// reshaped from UDP datagrams addressed by netip.Addr to raw Ethernet
// frames addressed by nothing more than the bound interface.
type Conn interface {
	// IfName returns the interface this Conn is bound to.
	IfName() string

	// TX writes frame to the wire, tagging it with vlanID when tagged is
	// true.
	TX(vlanID uint16, frame []byte, tagged bool) error

	// Recv blocks until a frame arrives or ctx is cancelled.
	Recv(ctx context.Context) (Frame, error)

	// Close releases the underlying socket.
	Close() error
}

// framePool supplies RawConn.Recv's read buffer the way
// stp.GetBuffer/PutBuffer supply BPDU encode scratch space; Recv copies
// each frame out of it before returning. A raw Ethernet frame never
// exceeds the standard 1518-byte MTU plus one 802.1Q tag.
var framePool = sync.Pool{
	New: func() any {
		buf := make([]byte, 1522)
		return &buf
	},
}

func getFrameBuf() *[]byte {
	bufp, _ := framePool.Get().(*[]byte)
	return bufp
}

func putFrameBuf(bufp *[]byte) {
	framePool.Put(bufp)
}
