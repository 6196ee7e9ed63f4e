package management

import (
	"fmt"

	"github.com/vlanspan/pvstd/internal/stp"
)

// PortChannelRegistry maps LAG interface names to the deterministic ids
// claimed from stp.Engine's port-channel id pool (spec §5). It is the
// generalization of the teacher's discriminator.go bitmap allocator idea
// from a randomized 32-bit space to a small, interface-scoped id space.
type PortChannelRegistry struct {
	engine *stp.Engine
	ids    map[string]uint16
}

// NewPortChannelRegistry returns a registry backed by engine's id pool.
func NewPortChannelRegistry(engine *stp.Engine) *PortChannelRegistry {
	return &PortChannelRegistry{
		engine: engine,
		ids:    make(map[string]uint16),
	}
}

// Acquire returns ifName's port-channel id, allocating one on first use.
func (r *PortChannelRegistry) Acquire(ifName string) (uint16, error) {
	if id, ok := r.ids[ifName]; ok {
		return id, nil
	}
	id, err := r.engine.AllocatePortChannelID()
	if err != nil {
		return 0, fmt.Errorf("acquire port-channel id for %s: %w", ifName, err)
	}
	r.ids[ifName] = id
	return id, nil
}

// Release returns ifName's port-channel id to the pool, if one was
// claimed.
func (r *PortChannelRegistry) Release(ifName string) {
	id, ok := r.ids[ifName]
	if !ok {
		return
	}
	r.engine.ReleasePortChannelID(id)
	delete(r.ids, ifName)
}

// Lookup returns ifName's currently held id, if any.
func (r *PortChannelRegistry) Lookup(ifName string) (uint16, bool) {
	id, ok := r.ids[ifName]
	return id, ok
}
