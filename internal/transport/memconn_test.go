package transport

import (
	"context"
	"testing"
	"time"
)

func TestMemConnTXRecordsSentFrame(t *testing.T) {
	c := NewMemConn("eth0")
	defer c.Close()

	if err := c.TX(10, []byte{1, 2, 3}, true); err != nil {
		t.Fatalf("tx: %v", err)
	}

	sent := c.Sent()
	if len(sent) != 1 {
		t.Fatalf("want 1 sent frame, got %d", len(sent))
	}
	if sent[0].VlanID != 10 || !sent[0].Tagged {
		t.Fatalf("want vlan 10 tagged, got %+v", sent[0])
	}
}

func TestMemConnRecvReturnsInjectedFrame(t *testing.T) {
	c := NewMemConn("eth0")
	defer c.Close()

	c.Inject(Frame{VlanID: 5, Tagged: true, Data: []byte{9, 9}})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	f, err := c.Recv(ctx)
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if f.VlanID != 5 {
		t.Fatalf("want vlan 5, got %d", f.VlanID)
	}
}

func TestMemConnTXAfterCloseFails(t *testing.T) {
	c := NewMemConn("eth0")
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.TX(0, []byte{1}, false); err == nil {
		t.Fatal("want error on TX after close")
	}
}

func TestMemConnRecvReturnsClosedAfterClose(t *testing.T) {
	c := NewMemConn("eth0")
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := c.Recv(ctx); err == nil {
		t.Fatal("want error from Recv on closed conn")
	}
}
