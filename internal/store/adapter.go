package store

import (
	"context"
	"log/slog"

	"github.com/vlanspan/pvstd/internal/stp"
)

// EngineAdapter implements stp.Publisher by forwarding every record to an
// underlying Publisher, synchronously, from inside the engine's single
// dispatch goroutine. stp.Publisher carries no error return — a failed
// publish is logged and dropped rather than propagated, matching spec §7's
// policy that state-publication failures never perturb protocol state.
type EngineAdapter struct {
	pub Publisher
	log *slog.Logger
}

var _ stp.Publisher = (*EngineAdapter)(nil)

// NewEngineAdapter wraps pub as an stp.Publisher.
func NewEngineAdapter(pub Publisher, log *slog.Logger) *EngineAdapter {
	return &EngineAdapter{
		pub: pub,
		log: log.With(slog.String("component", "store.adapter")),
	}
}

// Publish implements stp.Publisher.
func (a *EngineAdapter) Publish(rec stp.PublishedRecord) {
	if err := a.pub.Publish(context.Background(), rec); err != nil {
		a.log.Warn("publish state record failed",
			"vlan", rec.VlanID, "interface", rec.IfName, "error", err)
	}
}
