package management

import (
	"github.com/vlanspan/pvstd/internal/stp"
)

// Controller is the control channel's entry point (spec §4.6/§6.6): it
// submits configuration messages onto the engine's single dispatch
// goroutine and waits for the apply result, and exposes the read-only
// debug-query snapshot. cmd/pvstd wires one Controller per process; the
// Unix-socket listener is its only caller.
type Controller struct {
	adapter *Adapter
}

// NewController wraps adapter for use from outside the dispatch goroutine.
func NewController(adapter *Adapter) *Controller {
	return &Controller{adapter: adapter}
}

// Submit applies msg on the engine's dispatch goroutine and returns the
// result synchronously. Safe to call from any goroutine (spec §5: the
// control channel is one of the low-priority sources the dispatch loop
// multiplexes behind the 100ms timer queue).
//
// Before the Init message has been applied there is no engine and
// therefore no dispatch goroutine to race with, so Init is applied
// directly.
func (c *Controller) Submit(msg Message) error {
	engine := c.adapter.Engine()
	if engine == nil {
		return c.adapter.Apply(msg)
	}

	idx := c.resolveIdx(engine, msg)
	result := make(chan error, 1)
	engine.Submit(idx, func() {
		result <- c.adapter.Apply(msg)
	})
	return <-result
}

// resolveIdx picks the StpIndex the scheduler should flush dirty fields
// for after applying msg. Messages that name a VLAN resolve to that
// VLAN's instance; everything else (Init, PortConfig, BridgeConfig)
// defaults to index 0, which is harmless even when unrelated — an
// instance with nothing dirty is a no-op flush, and the real change
// surfaces on the instance's own next scheduled tick regardless (spec
// §4.5: every active instance updates at least every 500ms).
func (c *Controller) resolveIdx(engine *stp.Engine, msg Message) stp.StpIndex {
	switch msg.Kind {
	case KindVlanConfig, KindVlanPortConfig, KindVlanMemberConfig:
		if idx, ok := engine.LookupVlan(msg.VlanID); ok {
			return idx
		}
	}
	return 0
}

// Snapshot returns the engine's current read-only state for debug
// queries. Returns the zero value if no engine has been constructed yet.
func (c *Controller) Snapshot() stp.EngineSnapshot {
	engine := c.adapter.Engine()
	if engine == nil {
		return stp.EngineSnapshot{}
	}
	return engine.Snapshot()
}
