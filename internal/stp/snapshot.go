package stp

// PortSnapshot is a read-only copy of one port's externally interesting
// state, returned by Engine.Snapshot for the control channel's debug
// queries (spec §5/§6.6).
type PortSnapshot struct {
	IfName string
	State  PortState
	Role   PortRole
}

// InstanceSnapshot is a read-only copy of one VLAN instance.
type InstanceSnapshot struct {
	VlanID       uint16
	State        InstanceState
	BridgeID     string
	RootID       string
	RootPathCost uint32
	Ports        []PortSnapshot
}

// EngineSnapshot is the full read-only view Snapshot returns.
type EngineSnapshot struct {
	Instances []InstanceSnapshot
	DropSTP   uint32
	DropTCN   uint32
	DropPVST  uint32
}

// Snapshot copies out every non-Free instance's externally visible
// state. It is implemented as a round trip through the low-priority
// queue so it never races with a tick: the snapshot is itself just
// another low-priority item, guaranteeing it observes a consistent
// state between two dispatch steps rather than mid-update.
func (e *Engine) Snapshot() EngineSnapshot {
	e.ensureQueue()
	result := make(chan EngineSnapshot, 1)

	e.lowPriority <- workItem{idx: 0, fn: func() {
		result <- e.snapshotNow()
	}}

	return <-result
}

func (e *Engine) snapshotNow() EngineSnapshot {
	var snap EngineSnapshot
	snap.DropSTP, snap.DropTCN, snap.DropPVST = e.DropCounters()
	for i := 0; i < e.table.Len(); i++ {
		inst := e.table.At(StpIndex(i))
		if inst.State == InstanceFree {
			continue
		}
		is := InstanceSnapshot{
			VlanID:       inst.VlanID,
			State:        inst.State,
			BridgeID:     inst.Bridge.BridgeID.String(),
			RootID:       inst.Bridge.RootID.String(),
			RootPathCost: inst.Bridge.RootPathCost,
		}
		for p, ok := inst.ControlMask.FirstSet(); ok; p, ok = inst.ControlMask.NextSet(p + 1) {
			sp := &inst.Ports[p]
			is.Ports = append(is.Ports, PortSnapshot{
				IfName: e.portNameOf(p),
				State:  sp.State,
				Role:   sp.Role,
			})
		}
		snap.Instances = append(snap.Instances, is)
	}
	return snap
}
