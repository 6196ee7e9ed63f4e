package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vlanspan/pvstd/internal/management"
)

// Hub multiplexes a set of per-interface Conns behind a single
// management.FrameSender and fans their receive loops into one callback.
// Grounded on the teacher's manager.go, which owns one netio.Listener per
// BFD session; here there is one Conn per switch port instead of per
// session.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]Conn
	log   *slog.Logger
}

var _ management.FrameSender = (*Hub)(nil)

// NewHub creates an empty Hub.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		conns: make(map[string]Conn),
		log:   log.With(slog.String("component", "transport.hub")),
	}
}

// Add registers conn, replacing any existing Conn for the same interface.
func (h *Hub) Add(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn.IfName()] = conn
}

// Remove closes and drops the Conn for ifName, if any.
func (h *Hub) Remove(ifName string) {
	h.mu.Lock()
	conn, ok := h.conns[ifName]
	delete(h.conns, ifName)
	h.mu.Unlock()

	if ok {
		if err := conn.Close(); err != nil {
			h.log.Warn("close conn", "interface", ifName, "error", err)
		}
	}
}

// Send implements management.FrameSender by dispatching to the Conn
// registered for ifName.
func (h *Hub) Send(ifName string, frame []byte, vlanID uint16, tagged bool) error {
	h.mu.RLock()
	conn, ok := h.conns[ifName]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("send on %s: %w", ifName, ErrUnknownInterface)
	}
	return conn.TX(vlanID, frame, tagged)
}

// Run starts a receive loop for every Conn registered at call time and
// blocks until ctx is cancelled and every loop has returned. Each received
// frame is delivered to onFrame(ifName, data, vlanID, tagged) — the same
// shape management.Adapter.ReceivedFrame expects.
func (h *Hub) Run(ctx context.Context, onFrame func(ifName string, frame []byte, vlanID uint16, tagged bool)) {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	var wg sync.WaitGroup
	for _, c := range conns {
		wg.Add(1)
		go func(c Conn) {
			defer wg.Done()
			l := NewListener(c)
			err := l.Run(ctx, func(f Frame) {
				onFrame(c.IfName(), f.Data, f.VlanID, f.Tagged)
			})
			if err != nil {
				h.log.Warn("listener stopped", "interface", c.IfName(), "error", err)
			}
		}(c)
	}
	wg.Wait()
}
