package stp

import "fmt"

// ModifiedField is a bitmask of which BridgeData/StpPort attributes have
// changed since the last publication (spec §3 "modified-fields bitmask").
// The scheduler flushes dirty fields to the management adapter on every
// instance-update step; ModifiedField lets it publish only what actually
// changed instead of the whole record.
type ModifiedField uint32

const (
	FieldRootID ModifiedField = 1 << iota
	FieldRootPathCost
	FieldRootPort
	FieldTimers
	FieldTopologyChange
	FieldPortState
	FieldPortRole
	FieldDesignated
	FieldCounters
	FieldKernelState
)

// Dirty reports whether any of the given fields are marked modified.
func (m ModifiedField) Dirty(fields ModifiedField) bool {
	return m&fields != 0
}

// portStateNames renders PortState as the enumerated strings published
// records use (spec §6.3).
var portStateNames = [...]string{
	PortDisabled:   "DISABLED",
	PortBlocking:   "BLOCKING",
	PortListening:  "LISTENING",
	PortLearning:   "LEARNING",
	PortForwarding: "FORWARDING",
}

// String renders a PortState as its published-record name.
func (s PortState) String() string {
	if int(s) < len(portStateNames) {
		return portStateNames[s]
	}
	return fmt.Sprintf("PortState(%d)", s)
}

// PublishedRecord is the structured, modified-fields-only record pushed to
// the state-publication collaborator on every instance or port change
// (spec §6.3). VlanId/IfName are the human-readable identifiers; BridgeID
// is formatted PPPPMMMMMMMMMMMM.
type PublishedRecord struct {
	VlanID   uint16
	IfName   string
	Modified ModifiedField

	BridgeID     string
	RootID       string
	RootPathCost uint32
	RootPort     string

	PortState string
	// Status carries "ROOT-INC" when the port is Blocking with an active
	// root-protect timer, "BPDU-DIS" when disabled by BPDU guard, and is
	// empty otherwise.
	Status string

	TopologyChangeCount uint32
	RxConfigBpdu        uint32
	TxConfigBpdu        uint32
	RxTcnBpdu           uint32
	TxTcnBpdu           uint32
	ForwardTransitions  uint32
}

// flushDirty publishes any instance- or port-level record whose
// modified-fields bitmask is nonzero, then clears it (spec §4.5: "all
// instances in Active or Config publish dirty fields via the management
// adapter each time they are touched"). It also settles KernelState to
// the invariant spec §3 requires: Forwarding iff kernel_state = Forward.
func (e *Engine) flushDirty(idx StpIndex) {
	inst := e.table.At(idx)
	if inst.State == InstanceFree {
		return
	}

	if inst.Bridge.Modified != 0 {
		e.pub.Publish(e.bridgeRecord(idx))
		inst.Bridge.Modified = 0
	}

	for p, ok := inst.ControlMask.FirstSet(); ok; p, ok = inst.ControlMask.NextSet(p + 1) {
		sp := &inst.Ports[p]
		if sp.Modified == 0 {
			continue
		}
		e.pub.Publish(e.portRecord(idx, p))
		sp.Modified = 0
		sp.KernelState = sp.State
	}
}

// publishCounters flushes BPDU counters and the topology-change clock
// for idx, driven by the scheduler's 1s cadence (spec §4.5).
func (e *Engine) publishCounters(idx StpIndex) {
	inst := e.table.At(idx)
	for p, ok := inst.ControlMask.FirstSet(); ok; p, ok = inst.ControlMask.NextSet(p + 1) {
		e.pub.Publish(e.portRecord(idx, p))
	}
}

func (e *Engine) bridgeRecord(idx StpIndex) PublishedRecord {
	inst := e.table.At(idx)
	rootPort := "none"
	if inst.Bridge.RootPort != NoPort {
		rootPort = e.portNameOf(inst.Bridge.RootPort)
	}
	return PublishedRecord{
		VlanID:              inst.VlanID,
		Modified:            inst.Bridge.Modified,
		BridgeID:            inst.Bridge.BridgeID.String(),
		RootID:              inst.Bridge.RootID.String(),
		RootPathCost:        inst.Bridge.RootPathCost,
		RootPort:            rootPort,
		TopologyChangeCount: inst.Bridge.TopologyChangeCount,
	}
}

func (e *Engine) portRecord(idx StpIndex, port PortNumber) PublishedRecord {
	inst := e.table.At(idx)
	sp := &inst.Ports[port]

	status := ""
	switch {
	case sp.State == PortBlocking && sp.RootProtect.Active():
		status = "ROOT-INC"
	case e.BpduGuardTripped(port):
		status = "BPDU-DIS"
	}

	return PublishedRecord{
		VlanID:              inst.VlanID,
		IfName:              e.portNameOf(port),
		Modified:            sp.Modified,
		BridgeID:            inst.Bridge.BridgeID.String(),
		PortState:           sp.State.String(),
		Status:              status,
		TopologyChangeCount: inst.Bridge.TopologyChangeCount,
		RxConfigBpdu:        sp.RxConfigBpdu,
		TxConfigBpdu:        sp.TxConfigBpdu,
		RxTcnBpdu:           sp.RxTcnBpdu,
		TxTcnBpdu:           sp.TxTcnBpdu,
		ForwardTransitions:  sp.ForwardTransitions,
	}
}
