package stp

// ReceivedConfigBpdu implements spec §4.4 received_config_bpdu. Root
// Guard is honoured first: if the frame strictly supersedes the port's
// held info and Root Guard is armed, the port is blocked and the
// root-protect timer starts; processing stops there (scenario S2).
func (e *Engine) ReceivedConfigBpdu(idx StpIndex, port PortNumber, bpdu *BPDU) {
	inst := e.table.At(idx)
	sp := &inst.Ports[port]

	incoming := rootCandidate{
		root:   bpdu.RootID,
		cost:   bpdu.RootPathCost,
		bridge: bpdu.BridgeID,
		port:   bpdu.PortID,
		portID: sp.PortID,
	}
	held := rootCandidate{
		root:   sp.DesignatedRoot,
		cost:   sp.DesignatedCost,
		bridge: sp.DesignatedBridge,
		port:   sp.DesignatedPort,
		portID: sp.PortID,
	}
	supersedes := incoming.less(held)

	if supersedes && e.RootGuardArmed(port) {
		sp.State, _ = ApplyPortEvent(sp.State, eventBecomeBlocking)
		sp.Role = RoleAlternate
		sp.RootProtect.Start(0)
		sp.Modified |= FieldPortState | FieldPortRole
		e.log.Warn("root guard: received superior bpdu",
			"vlan", inst.VlanID, "port", e.portNameOf(port))
		return
	}

	// Scenario S6: receipt of any valid config BPDU, classic or RSTP
	// versioned, clears PortFast operational on this port and walks it
	// back into Listening if it had jumped straight to Forwarding. Role
	// is unaffected, only state.
	if e.portFastOperMask.Has(port) {
		e.clearPortFastOperational(port)
		if sp.State == PortLearning || sp.State == PortForwarding {
			sp.State = PortListening
			sp.ForwardDelay.Start(0)
			sp.Modified |= FieldPortState
		}
	}

	inst.LastBpduRxTime = e.nowTick

	sameSource := bpdu.BridgeID.Equal(sp.DesignatedBridge) && bpdu.PortID == sp.DesignatedPort
	if supersedes || sameSource {
		sp.DesignatedRoot = bpdu.RootID
		sp.DesignatedCost = bpdu.RootPathCost
		sp.DesignatedBridge = bpdu.BridgeID
		sp.DesignatedPort = bpdu.PortID
		sp.Modified |= FieldDesignated

		limit := secondsToTicks(inst.Bridge.MaxAge)
		startValue := secondsToTicks(bpdu.MessageAge)
		if startValue > limit {
			startValue = limit
		}
		sp.MessageAge.Start(startValue)

		e.configurationUpdate(idx)
		e.portStateSelection(idx)
	}

	if bpdu.TopologyChangeAcknowledge {
		inst.TcnTimer.Stop()
	}
	if bpdu.TopologyChange {
		inst.FastAging = true
	}

	sp.RxConfigBpdu++
	sp.Modified |= FieldCounters
}

// ReceivedTcnBpdu implements spec §4.4 received_tcn_bpdu: only
// designated ports accept TCN.
func (e *Engine) ReceivedTcnBpdu(idx StpIndex, port PortNumber) {
	inst := e.table.At(idx)
	sp := &inst.Ports[port]
	if sp.Role != RoleDesignated {
		return
	}

	inst.Bridge.TopologyChangeDetected = true
	inst.Bridge.Modified |= FieldTopologyChange
	if inst.Bridge.RootPort == NoPort {
		inst.Bridge.TopologyChange = true
		inst.TopologyChangeTimer.Start(0)
	} else {
		inst.TcnTimer.Start(0)
	}

	sp.TopologyChangeAcknowledge = true
	sp.RxTcnBpdu++
	sp.Modified |= FieldCounters
}

// sendConfig builds and transmits a config BPDU reflecting port's
// current designated_* fields.
func (e *Engine) sendConfig(idx StpIndex, port PortNumber) {
	inst := e.table.At(idx)
	sp := &inst.Ports[port]

	bpdu := &BPDU{
		Kind:                      KindPVSTConfig,
		ProtocolVersion:           inst.Bridge.ProtocolVersion,
		TopologyChange:            inst.Bridge.TopologyChange,
		TopologyChangeAcknowledge: sp.TopologyChangeAcknowledge,
		RootID:                    inst.Bridge.RootID,
		RootPathCost:              inst.Bridge.RootPathCost,
		BridgeID:                  sp.DesignatedBridge,
		PortID:                    sp.PortID,
		MessageAge:                0,
		MaxAge:                    inst.Bridge.MaxAge,
		HelloTime:                 inst.Bridge.HelloTime,
		ForwardDelay:              inst.Bridge.ForwardDelay,
		VlanID:                    inst.VlanID,
	}
	sp.TopologyChangeAcknowledge = false
	sp.TxConfigBpdu++
	sp.Modified |= FieldCounters

	e.tx.Transmit(idx, port, bpdu)
}

// sendTCN builds and transmits a TCN BPDU on port.
func (e *Engine) sendTCN(idx StpIndex, port PortNumber) {
	inst := e.table.At(idx)
	sp := &inst.Ports[port]

	bpdu := &BPDU{
		Kind:            KindPVSTTCN,
		ProtocolVersion: inst.Bridge.ProtocolVersion,
		VlanID:          inst.VlanID,
	}
	sp.TxTcnBpdu++
	sp.Modified |= FieldCounters

	e.tx.Transmit(idx, port, bpdu)
}
