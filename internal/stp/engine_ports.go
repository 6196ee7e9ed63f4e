package stp

// rootCandidate is the lexicographic key port selection compares
// (spec §4.4 configuration_update): {designated_root, designated_cost +
// path_cost, designated_bridge, designated_port, port_id}.
type rootCandidate struct {
	root   BridgeId
	cost   uint32
	bridge BridgeId
	port   PortId
	portID PortId
}

func (a rootCandidate) less(b rootCandidate) bool {
	if !a.root.Equal(b.root) {
		return a.root.Less(b.root)
	}
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	if !a.bridge.Equal(b.bridge) {
		return a.bridge.Less(b.bridge)
	}
	if a.port != b.port {
		return a.port.Less(b.port)
	}
	return a.portID.Less(b.portID)
}

// configurationUpdate implements spec §4.4 configuration_update: perform
// root selection, then for every non-root designated port overwrite
// designated_* with the bridge's own values.
func (e *Engine) configurationUpdate(idx StpIndex) {
	inst := e.table.At(idx)

	selfCandidate := rootCandidate{
		root:   inst.Bridge.BridgeID,
		cost:   0,
		bridge: inst.Bridge.BridgeID,
	}

	best := selfCandidate
	bestPort := NoPort

	for p, ok := inst.EnableMask.FirstSet(); ok; p, ok = inst.EnableMask.NextSet(p + 1) {
		sp := &inst.Ports[p]
		cand := rootCandidate{
			root:   sp.DesignatedRoot,
			cost:   sp.DesignatedCost + sp.PathCost,
			bridge: sp.DesignatedBridge,
			port:   sp.DesignatedPort,
			portID: sp.PortID,
		}
		if cand.less(best) {
			best = cand
			bestPort = p
		}
	}

	if bestPort == NoPort {
		inst.Bridge.RootID = inst.Bridge.BridgeID
		inst.Bridge.RootPathCost = 0
		inst.Bridge.RootPort = NoPort
	} else {
		inst.Bridge.RootID = best.root
		inst.Bridge.RootPathCost = best.cost
		inst.Bridge.RootPort = bestPort
	}
	inst.Bridge.Modified |= FieldRootID | FieldRootPathCost | FieldRootPort

	for p, ok := inst.EnableMask.FirstSet(); ok; p, ok = inst.EnableMask.NextSet(p + 1) {
		if p == inst.Bridge.RootPort {
			continue
		}
		sp := &inst.Ports[p]
		cand := rootCandidate{
			root:   sp.DesignatedRoot,
			cost:   sp.DesignatedCost + sp.PathCost,
			bridge: sp.DesignatedBridge,
			port:   sp.DesignatedPort,
			portID: sp.PortID,
		}
		self := rootCandidate{
			root:   inst.Bridge.RootID,
			cost:   inst.Bridge.RootPathCost,
			bridge: inst.Bridge.BridgeID,
			port:   sp.PortID,
			portID: sp.PortID,
		}
		if !cand.less(self) {
			sp.DesignatedRoot = inst.Bridge.RootID
			sp.DesignatedCost = inst.Bridge.RootPathCost
			sp.DesignatedBridge = inst.Bridge.BridgeID
			sp.DesignatedPort = sp.PortID
			sp.Modified |= FieldDesignated
		}
	}
}

// becomeDesignated resets a single port's held designated data back to
// the bridge's own values, used by disable_port so stale peer
// information does not survive a down/up flap (spec §4.4 disable_port).
func (e *Engine) becomeDesignated(idx StpIndex, port PortNumber) {
	inst := e.table.At(idx)
	sp := &inst.Ports[port]
	sp.DesignatedRoot = inst.Bridge.RootID
	sp.DesignatedCost = inst.Bridge.RootPathCost
	sp.DesignatedBridge = inst.Bridge.BridgeID
	sp.DesignatedPort = sp.PortID
	sp.Modified |= FieldDesignated
}

// uplinkFastEligible reports whether no other enabled port on inst is
// both UplinkFast-admin and non-Blocking/non-Disabled, the condition
// spec §4.4 attaches to FASTUPLINK_FORWARD_DELAY.
func (e *Engine) uplinkFastEligible(idx StpIndex, port PortNumber) bool {
	if !e.uplinkFastAdminMask.Has(port) {
		return false
	}
	inst := e.table.At(idx)
	for p, ok := inst.EnableMask.FirstSet(); ok; p, ok = inst.EnableMask.NextSet(p + 1) {
		if p == port {
			continue
		}
		if !e.uplinkFastAdminMask.Has(p) {
			continue
		}
		st := inst.Ports[p].State
		if st != PortBlocking && st != PortDisabled {
			return false
		}
	}
	return true
}

// operativeForwardDelay implements spec §4.4's three-way forward-delay
// selection: bridge_forward_delay normally, FASTSPAN_FORWARD_DELAY if
// PortFast is operationally active, FASTUPLINK_FORWARD_DELAY if
// UplinkFast conditions hold.
func (e *Engine) operativeForwardDelay(idx StpIndex, port PortNumber) uint8 {
	if e.portFastOperMask.Has(port) {
		return FastspanForwardDelay
	}
	if e.uplinkFastEligible(idx, port) {
		return FastuplinkForwardDelay
	}
	return e.table.At(idx).Bridge.ForwardDelay
}

// portStateSelection implements spec §4.4 port_state_selection: assign
// each enabled port's role (root, designated, alternate) from the
// designated_* data configuration_update just settled, then drive state
// via the forward-delay walk (or an immediate PortFast jump to
// Forwarding).
func (e *Engine) portStateSelection(idx StpIndex) {
	inst := e.table.At(idx)

	for p, ok := inst.EnableMask.FirstSet(); ok; p, ok = inst.EnableMask.NextSet(p + 1) {
		sp := &inst.Ports[p]
		prevRole := sp.Role

		var role PortRole
		switch {
		case p == inst.Bridge.RootPort:
			role = RoleRoot
		case sp.DesignatedBridge.Equal(inst.Bridge.BridgeID) && sp.DesignatedPort == sp.PortID:
			role = RoleDesignated
		default:
			role = RoleAlternate
		}
		sp.Role = role

		switch role {
		case RoleRoot, RoleDesignated:
			// A PortFast-operational port jumping to Forwarding keeps its
			// role unchanged, so it never trips this guard; scenario S6's
			// walk-back to Listening on BPDU receipt is forced directly
			// by ReceivedConfigBpdu before configurationUpdate runs.
			if prevRole != RoleRoot && prevRole != RoleDesignated {
				if e.portFastOperMask.Has(p) {
					sp.State, _ = ApplyPortEvent(sp.State, eventPortFastForward)
					sp.ForwardDelay.Stop()
				} else {
					sp.State = PortListening
					sp.ForwardDelay.Start(0)
				}
			}
		default:
			if sp.State != PortBlocking {
				sp.State, _ = ApplyPortEvent(sp.State, eventBecomeBlocking)
			}
			sp.ForwardDelay.Stop()
		}
		sp.Modified |= FieldPortRole | FieldPortState
	}
}

// topologyChangeDetection implements spec §4.4: signal a topology
// change once, then either start the root's topology_change_timer or
// propagate a TCN toward the root immediately.
func (e *Engine) topologyChangeDetection(idx StpIndex) {
	inst := e.table.At(idx)
	if inst.Bridge.TopologyChangeDetected {
		return
	}
	inst.Bridge.TopologyChangeDetected = true
	inst.Bridge.TopologyChangeCount++
	inst.FastAging = true
	inst.Bridge.Modified |= FieldTopologyChange

	if inst.Bridge.RootPort == NoPort {
		inst.Bridge.TopologyChange = true
		inst.TopologyChangeTimer.Start(0)
		return
	}

	inst.TcnTimer.Start(0)
	e.sendTCN(idx, inst.Bridge.RootPort)
}

// configBpduGeneration sends a config BPDU on every designated port of
// idx, used by the hello timer handler and by disable_port when this
// bridge has just become root.
func (e *Engine) configBpduGeneration(idx StpIndex) {
	inst := e.table.At(idx)
	for p, ok := inst.EnableMask.FirstSet(); ok; p, ok = inst.EnableMask.NextSet(p + 1) {
		sp := &inst.Ports[p]
		if sp.Role != RoleDesignated && sp.Role != RoleRoot {
			continue
		}
		e.sendConfig(idx, p)
	}
}
