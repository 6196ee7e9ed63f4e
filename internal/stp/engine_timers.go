package stp

// topologyChangeWindowTicks is the classic 802.1D topology_change_time:
// max_age + forward_delay, after which a root bridge clears the
// topology-change signal it originated.
func topologyChangeWindowTicks(inst *StpInstance) uint16 {
	return secondsToTicks(inst.Bridge.MaxAge) + secondsToTicks(inst.Bridge.ForwardDelay)
}

// Update runs every instance timer and every port timer for idx exactly
// once (spec §4.5: "call update(i) which runs all instance timers and
// all port timers once"). The scheduler calls Update on one fifth of the
// active instances per 100ms tick, so each instance is updated every
// 500ms — the classic 802.1D half-second tick.
func (e *Engine) Update(idx StpIndex) {
	inst := e.table.At(idx)
	if inst.State != InstanceActive {
		return
	}

	e.tickHello(idx)
	e.tickTCN(idx)
	e.tickTopologyChange(idx)

	for p, ok := inst.ControlMask.FirstSet(); ok; p, ok = inst.ControlMask.NextSet(p + 1) {
		e.tickPort(idx, p)
	}
}

func (e *Engine) tickHello(idx StpIndex) {
	inst := e.table.At(idx)
	limit := secondsToTicks(inst.Bridge.HelloTime)
	if limit == 0 {
		limit = secondsToTicks(DefaultHelloTime)
	}
	if !inst.HelloTimer.Active() {
		inst.HelloTimer.Start(0)
	}
	if inst.HelloTimer.Tick(limit) {
		inst.HelloTimer.Start(0)
		if inst.Bridge.RootPort == NoPort {
			e.configBpduGeneration(idx)
		}
	}
}

func (e *Engine) tickTCN(idx StpIndex) {
	inst := e.table.At(idx)
	if !inst.TcnTimer.Active() {
		return
	}
	limit := secondsToTicks(inst.Bridge.HelloTime)
	if inst.TcnTimer.Tick(limit) {
		inst.TcnTimer.Start(0)
		if inst.Bridge.RootPort != NoPort {
			e.sendTCN(idx, inst.Bridge.RootPort)
		}
	}
}

func (e *Engine) tickTopologyChange(idx StpIndex) {
	inst := e.table.At(idx)
	if !inst.TopologyChangeTimer.Active() {
		return
	}
	if inst.TopologyChangeTimer.Tick(topologyChangeWindowTicks(inst)) {
		inst.Bridge.TopologyChange = false
		inst.Bridge.TopologyChangeDetected = false
		inst.FastAging = false
		inst.Bridge.Modified |= FieldTopologyChange
	}
}

func (e *Engine) tickPort(idx StpIndex, port PortNumber) {
	inst := e.table.At(idx)
	sp := &inst.Ports[port]

	e.tickMessageAge(idx, port)
	e.tickForwardDelay(idx, port)
	sp.Hold.Tick(secondsToTicks(inst.Bridge.HoldTime))
	e.tickRootProtect(idx, port)
}

func (e *Engine) tickMessageAge(idx StpIndex, port PortNumber) {
	inst := e.table.At(idx)
	sp := &inst.Ports[port]
	if !sp.MessageAge.Active() {
		return
	}
	if sp.MessageAge.Tick(secondsToTicks(inst.Bridge.MaxAge)) {
		// The peer's advertised information has aged out: fall back to
		// being designated for this segment ourselves and re-run
		// selection (classic 802.1D aging of received configuration).
		e.becomeDesignated(idx, port)
		e.configurationUpdate(idx)
		e.portStateSelection(idx)
		e.topologyChangeDetection(idx)
	}
}

func (e *Engine) tickForwardDelay(idx StpIndex, port PortNumber) {
	inst := e.table.At(idx)
	sp := &inst.Ports[port]
	if !sp.ForwardDelay.Active() {
		return
	}
	limit := secondsToTicks(e.operativeForwardDelay(idx, port))
	if limit == 0 {
		limit = 1
	}
	if !sp.ForwardDelay.Tick(limit) {
		return
	}
	next, changed := ApplyPortEvent(sp.State, eventForwardDelayExpiry)
	if !changed {
		return
	}
	sp.State = next
	sp.Modified |= FieldPortState
	if sp.State == PortForwarding {
		sp.ForwardTransitions++
		sp.Modified |= FieldCounters
		return
	}
	sp.ForwardDelay.Start(0)
}

func (e *Engine) tickRootProtect(idx StpIndex, port PortNumber) {
	inst := e.table.At(idx)
	sp := &inst.Ports[port]
	if !sp.RootProtect.Active() {
		return
	}
	if sp.RootProtect.Tick(e.rootProtectTimeoutTicks) {
		e.log.Info("root guard: consistent (timeout)",
			"vlan", inst.VlanID, "port", e.portNameOf(port))
		e.portStateSelection(idx)
	}
}
