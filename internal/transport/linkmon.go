package transport

import (
	"context"
	"log/slog"
)

// LinkEvent reports a switch port's link state transition. Grounded on
// the teacher's netio.InterfaceEvent, with BFD's IfIndex dropped (this
// repository keys everything off the interface name via
// management.Adapter.RegisterInterface) and Speed added, since
// port_speed feeds the path cost default (spec §6.4).
type LinkEvent struct {
	IfName string
	Up     bool
	Speed  uint64 // bits per second; 0 if unknown
}

// LinkMonitor watches for interface state changes and emits LinkEvents.
// Kept as an interface with a no-op stub: subscribing to real netlink
// link events is outside the protocol engine's concern and belongs to
// whatever process wires a LinkMonitor into management.Adapter's
// RegisterInterface/UnregisterInterface calls.
type LinkMonitor interface {
	// Run starts monitoring and blocks until ctx is cancelled. Must be
	// called at most once.
	Run(ctx context.Context) error

	// Events returns the channel LinkEvents are delivered on. Closed when
	// Run returns.
	Events() <-chan LinkEvent

	// Close releases any resources held by the monitor.
	Close() error
}

// StubLinkMonitor is a no-op LinkMonitor, grounded on the teacher's
// StubInterfaceMonitor: used when no platform-specific monitor is wired
// up, or link state is instead driven manually through a CLI.
type StubLinkMonitor struct {
	events chan LinkEvent
	log    *slog.Logger
}

// NewStubLinkMonitor creates a no-op link monitor.
func NewStubLinkMonitor(log *slog.Logger) *StubLinkMonitor {
	return &StubLinkMonitor{
		events: make(chan LinkEvent, 16),
		log:    log.With(slog.String("component", "transport.linkmon.stub")),
	}
}

// Run blocks until ctx is cancelled, emitting no events.
func (m *StubLinkMonitor) Run(ctx context.Context) error {
	m.log.Info("stub link monitor started (no-op)")
	<-ctx.Done()
	close(m.events)
	m.log.Info("stub link monitor stopped")
	return nil
}

// Events returns the (always empty) event channel.
func (m *StubLinkMonitor) Events() <-chan LinkEvent { return m.events }

// Close is a no-op for the stub monitor.
func (m *StubLinkMonitor) Close() error { return nil }
