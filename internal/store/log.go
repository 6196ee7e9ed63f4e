package store

import (
	"context"
	"log/slog"

	"github.com/vlanspan/pvstd/internal/stp"
)

// LogPublisher renders every published record as a structured log line.
// It is the default Publisher when no external store is configured:
// always available, no external dependency.
type LogPublisher struct {
	log *slog.Logger
}

// NewLogPublisher creates a LogPublisher writing through log.
func NewLogPublisher(log *slog.Logger) *LogPublisher {
	return &LogPublisher{log: log.With(slog.String("component", "store.log"))}
}

// Publish implements Publisher.
func (p *LogPublisher) Publish(_ context.Context, rec stp.PublishedRecord) error {
	p.log.Info("pvst state",
		slog.Uint64("vlan", uint64(rec.VlanID)),
		slog.String("interface", rec.IfName),
		slog.String("bridge_id", rec.BridgeID),
		slog.String("root_id", rec.RootID),
		slog.Uint64("root_path_cost", uint64(rec.RootPathCost)),
		slog.String("root_port", rec.RootPort),
		slog.String("port_state", rec.PortState),
		slog.String("status", rec.Status),
		slog.Uint64("topology_change_count", uint64(rec.TopologyChangeCount)),
	)
	return nil
}
