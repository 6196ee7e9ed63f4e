package management

import (
	"github.com/vlanspan/pvstd/internal/stp"
)

// FrameSender is implemented by the transport collaborator: it owns the
// physical send, including whether to push an 802.1Q tag (spec §4.6:
// "computes the egress tag mode from the untag mask, and forwards the
// frame via the transport collaborator"). vlanID is meaningless when
// tagged is false.
type FrameSender interface {
	Send(ifName string, frame []byte, vlanID uint16, tagged bool) error
}

// Transmit implements stp.Transmitter (spec §4.4/§4.6 BPDU-transmit).
// Called synchronously from the engine's dispatch goroutine: the engine
// always hands over a KindPVSTConfig/KindPVSTTCN BPDU stamped with the
// instance's VLAN id, and this method decides the actual wire shape from
// the transmit port's untagged membership. A port that is the untagged member of
// this instance gets the classic, untagged frame; VLAN 1 additionally
// gets the tagged PVST+ frame for interoperability with devices that
// expect it on every trunk (scenario S5).
func (a *Adapter) Transmit(idx stp.StpIndex, port stp.PortNumber, bpdu *stp.BPDU) {
	ifName, ok := a.portToIfName[port]
	if !ok {
		return
	}
	vlanID := a.engine.VlanID(idx)

	if a.isUntaggedMember(idx, port) {
		a.sendClassic(ifName, bpdu)
		if vlanID == 1 {
			a.sendPvst(ifName, bpdu, vlanID)
		}
		return
	}
	a.sendPvst(ifName, bpdu, vlanID)
}

func (a *Adapter) isUntaggedMember(idx stp.StpIndex, port stp.PortNumber) bool {
	untaggedIdx, ok := a.engine.UntaggedVlanForPort(port)
	return ok && untaggedIdx == idx
}

func (a *Adapter) sendClassic(ifName string, bpdu *stp.BPDU) {
	classic := *bpdu
	if classic.Kind == stp.KindPVSTConfig {
		classic.Kind = stp.KindSTPConfig
	} else {
		classic.Kind = stp.KindSTPTCN
	}
	classic.VlanID = 0
	a.marshalAndSend(ifName, &classic, 0, false)
}

func (a *Adapter) sendPvst(ifName string, bpdu *stp.BPDU, vlanID uint16) {
	pvst := *bpdu
	if pvst.Kind == stp.KindSTPConfig {
		pvst.Kind = stp.KindPVSTConfig
	} else if pvst.Kind == stp.KindSTPTCN {
		pvst.Kind = stp.KindPVSTTCN
	}
	pvst.VlanID = vlanID
	a.marshalAndSend(ifName, &pvst, vlanID, true)
}

func (a *Adapter) marshalAndSend(ifName string, bpdu *stp.BPDU, vlanID uint16, tagged bool) {
	if a.sender == nil {
		return
	}
	bufp := stp.GetBuffer()
	defer stp.PutBuffer(bufp)

	srcMAC := a.portMAC[a.ifNameToPort[ifName]]
	n, err := stp.Marshal(bpdu, srcMAC, *bufp)
	if err != nil {
		a.log.Error("marshal bpdu for transmit", "interface", ifName, "error", err)
		return
	}
	if err := a.sender.Send(ifName, (*bufp)[:n], vlanID, tagged); err != nil {
		a.log.Warn("send bpdu", "interface", ifName, "error", err)
	}
}

// ReceivedFrame is the transport collaborator's BPDU-ingress entry point
// (spec §4.6 "Global BPDU-receive path"). vlanID/tagged describe the
// 802.1Q tag the transport layer stripped, if any; classic STP frames
// always arrive untagged. ifName must already be registered via
// RegisterInterface. The caller is responsible for invoking this on the
// engine's dispatch goroutine (e.g. via stp.Engine.Submit), matching the
// rest of the adapter's single-threaded discipline.
func (a *Adapter) ReceivedFrame(ifName string, frame []byte, vlanID uint16, tagged bool) {
	if a.engine == nil || a.stpMode == StpModeNone {
		return
	}
	port, ok := a.ifNameToPort[ifName]
	if !ok {
		return
	}

	if armed, doDisable := a.engine.BpduGuardCheck(port); armed {
		a.tripOrDropForGuard(port, doDisable)
		return
	}

	bpdu, err := stp.Unmarshal(frame)
	if err != nil {
		a.engine.RecordDrop(dropReasonFor(frame))
		return
	}

	switch bpdu.Kind {
	case stp.KindSTPConfig:
		idx, ok := a.resolveUntaggedInstance(port)
		if !ok {
			a.engine.RecordDrop(stp.DropInvalidSTP)
			return
		}
		a.engine.ReceivedConfigBpdu(idx, port, bpdu)
	case stp.KindSTPTCN:
		idx, ok := a.resolveUntaggedInstance(port)
		if !ok {
			a.engine.RecordDrop(stp.DropInvalidTCN)
			return
		}
		a.engine.ReceivedTcnBpdu(idx, port)
	case stp.KindPVSTConfig:
		idx, ok := a.resolvePvstInstance(port, bpdu.VlanID)
		if !ok {
			a.engine.RecordDrop(stp.DropInvalidPVST)
			return
		}
		a.engine.ReceivedConfigBpdu(idx, port, bpdu)
	case stp.KindPVSTTCN:
		idx, ok := a.resolveUntaggedOrTaggedVlan(port, vlanID, tagged)
		if !ok {
			a.engine.RecordDrop(stp.DropInvalidPVST)
			return
		}
		a.engine.ReceivedTcnBpdu(idx, port)
	}
}

func dropReasonFor(frame []byte) stp.DropReason {
	if len(frame) >= 6 && frame[1] != 0x80 {
		return stp.DropInvalidPVST
	}
	return stp.DropInvalidSTP
}

// resolveUntaggedInstance resolves a classic (no VLAN TLV) BPDU against
// the receive port's untagged VLAN (spec §4.6).
func (a *Adapter) resolveUntaggedInstance(port stp.PortNumber) (stp.StpIndex, bool) {
	return a.engine.UntaggedVlanForPort(port)
}

// resolvePvstInstance resolves a PVST+ config BPDU. A PVST+ frame
// carrying VLAN 1 on a port whose untagged VLAN is also VLAN 1 is
// dropped: the port is expected to use the untagged classic BPDU instead
// (spec §4.6, the mirror image of scenario S5's transmit-side
// coexistence).
func (a *Adapter) resolvePvstInstance(port stp.PortNumber, vlanID uint16) (stp.StpIndex, bool) {
	if vlanID == 1 {
		if untaggedIdx, ok := a.engine.UntaggedVlanForPort(port); ok && a.engine.VlanID(untaggedIdx) == 1 {
			return 0, false
		}
	}
	return a.engine.LookupVlan(vlanID)
}

func (a *Adapter) resolveUntaggedOrTaggedVlan(port stp.PortNumber, vlanID uint16, tagged bool) (stp.StpIndex, bool) {
	if !tagged {
		return a.engine.UntaggedVlanForPort(port)
	}
	return a.engine.LookupVlan(vlanID)
}

// tripOrDropForGuard implements the BPDU Guard branch of spec §4.6's
// receive path (scenario S3): do-disable shuts the port down across every
// VLAN it is a member of and marks it guard-tripped; otherwise the frame
// is silently dropped and counted.
func (a *Adapter) tripOrDropForGuard(port stp.PortNumber, doDisable bool) {
	if !doDisable {
		a.engine.RecordDrop(stp.DropInvalidSTP)
		return
	}
	if a.engine.BpduGuardTripped(port) {
		return
	}
	a.engine.TripBpduGuard(port)
	a.engine.SetEngineEnabled(port, false)
	for i := 0; i < a.engine.InstanceCount(); i++ {
		idx := stp.StpIndex(i)
		if a.engine.HasControlPort(idx, port) {
			a.engine.DisablePort(idx, port)
		}
	}
	a.log.Warn("bpdu guard: disabling port", "interface", a.portToIfName[port])
}
