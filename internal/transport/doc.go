// Package transport provides raw Ethernet frame abstractions for BPDU I/O.
//
// Linux-specific implementation uses golang.org/x/sys/unix to open AF_PACKET
// sockets bound to individual switch ports, carrying classic IEEE 802.1D and
// PVST+ (SNAP + VLAN TLV) BPDU frames instead of a UDP transport.
package transport
