//go:build linux

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// ethPAll is ETH_P_ALL: bind captures every frame the interface sees, so
// a single socket receives both classic STP and PVST+ multicasts without
// joining either destination address explicitly.
const ethPAll = 0x0003

// RawConn is a Linux AF_PACKET/SOCK_RAW socket bound to a single switch
// port, carrying full Ethernet frames instead of UDP datagrams. Grounded
// on rawsock_linux.go's LinuxPacketConn: the same "open socket, bind to
// one interface, read/write raw bytes" shape, but built on AF_PACKET
// rather than a UDP/GTSM transport, since BPDUs have no IP layer at all.
type RawConn struct {
	fd      int
	ifName  string
	ifIndex int
}

// NewRawConn opens a raw packet socket bound to ifName.
func NewRawConn(ifName string) (*RawConn, error) {
	iface, err := net.InterfaceByName(ifName)
	if err != nil {
		return nil, fmt.Errorf("lookup interface %s: %w", ifName, err)
	}

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(ethPAll)))
	if err != nil {
		return nil, fmt.Errorf("open raw socket on %s: %w", ifName, err)
	}

	addr := &unix.SockaddrLinklayer{
		Protocol: htons(ethPAll),
		Ifindex:  iface.Index,
	}
	if err := unix.Bind(fd, addr); err != nil {
		return nil, fmt.Errorf("bind raw socket to %s: %w", ifName, errors.Join(err, unix.Close(fd)))
	}

	return &RawConn{fd: fd, ifName: ifName, ifIndex: iface.Index}, nil
}

// IfName implements Conn.
func (c *RawConn) IfName() string { return c.ifName }

// TX inserts an 802.1Q tag carrying vlanID when tagged is true, then
// writes the frame to the wire.
func (c *RawConn) TX(vlanID uint16, frame []byte, tagged bool) error {
	out := frame
	if tagged {
		out = insertVlanTag(frame, vlanID)
	}

	addr := &unix.SockaddrLinklayer{Ifindex: c.ifIndex}
	if err := unix.Sendto(c.fd, out, 0, addr); err != nil {
		return fmt.Errorf("send frame on %s: %w", c.ifName, err)
	}
	return nil
}

// Recv blocks until a frame arrives or ctx is cancelled, stripping any
// 802.1Q tag back off before returning it.
func (c *RawConn) Recv(ctx context.Context) (Frame, error) {
	bufp := getFrameBuf()
	defer putFrameBuf(bufp)

	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, fmt.Errorf("recv on %s: %w", c.ifName, err)
		}

		n, _, err := unix.Recvfrom(c.fd, *bufp, 0)
		if err != nil {
			if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
				continue
			}
			return Frame{}, fmt.Errorf("recv on %s: %w", c.ifName, err)
		}

		f := stripVlanTag((*bufp)[:n])
		f.Data = append([]byte(nil), f.Data...)
		return f, nil
	}
}

// Close releases the underlying socket.
func (c *RawConn) Close() error {
	if err := unix.Close(c.fd); err != nil {
		return fmt.Errorf("close raw socket on %s: %w", c.ifName, err)
	}
	return nil
}

func htons(v uint16) uint16 {
	return (v<<8)&0xff00 | (v>>8)&0x00ff
}
