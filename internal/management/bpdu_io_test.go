package management_test

import (
	"testing"

	"github.com/vlanspan/pvstd/internal/management"
	"github.com/vlanspan/pvstd/internal/stp"
)

func vlanSetup(t *testing.T, a *management.Adapter, vlanID uint16, ifName string, untagged bool) stp.StpIndex {
	t.Helper()
	mode := management.PortModeTagged
	if untagged {
		mode = management.PortModeUntagged
	}
	msg := management.Message{
		Kind: management.KindVlanConfig, Opcode: management.OpcodeSet,
		NewInstance: true, VlanID: vlanID, MaxAge: 20, HelloTime: 2, ForwardDelay: 15, Priority: 32768,
		Interfaces: []management.VlanInterfaceAttr{{IfName: ifName, Mode: mode, Enabled: true}},
	}
	if err := a.Apply(msg); err != nil {
		t.Fatalf("vlan setup: %v", err)
	}
	idx, ok := a.Engine().LookupVlan(vlanID)
	if !ok {
		t.Fatalf("vlan %d not created", vlanID)
	}
	return idx
}

func marshalFrame(t *testing.T, bpdu *stp.BPDU) []byte {
	t.Helper()
	buf := make([]byte, 128)
	n, err := stp.Marshal(bpdu, [6]byte{0xaa, 0, 0, 0, 0, 9}, buf)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return buf[:n]
}

// Scenario S5: on a VLAN-1 untagged port, a config BPDU transmit produces
// one tagged PVST+ frame on VLAN 1 and one untagged classic IEEE BPDU.
func TestTransmitVlan1UntaggedSendsBothFrames(t *testing.T) {
	a, sender := newTestAdapter(t)
	idx := vlanSetup(t, a, 1, "eth0", true)

	bpdu := &stp.BPDU{Kind: stp.KindPVSTConfig, VlanID: 1, MaxAge: 20, HelloTime: 2, ForwardDelay: 15}
	a.Transmit(idx, 0, bpdu)

	if got := sender.count(); got != 2 {
		t.Fatalf("want 2 frames sent (tagged pvst + untagged classic), got %d", got)
	}
	var sawTagged, sawUntagged bool
	for _, s := range sender.sends {
		if s.tagged && s.vlanID == 1 {
			sawTagged = true
		}
		if !s.tagged {
			sawUntagged = true
		}
	}
	if !sawTagged || !sawUntagged {
		t.Fatalf("want both tagged and untagged frames, sends=%+v", sender.sends)
	}
}

func TestTransmitTaggedVlanSendsOnlyPvst(t *testing.T) {
	a, sender := newTestAdapter(t)
	idx := vlanSetup(t, a, 20, "eth0", false)

	bpdu := &stp.BPDU{Kind: stp.KindPVSTConfig, VlanID: 20, MaxAge: 20, HelloTime: 2, ForwardDelay: 15}
	a.Transmit(idx, 0, bpdu)

	if got := sender.count(); got != 1 {
		t.Fatalf("want exactly 1 frame for a tagged-only port, got %d", got)
	}
	if !sender.sends[0].tagged || sender.sends[0].vlanID != 20 {
		t.Fatalf("want tagged vlan 20 frame, got %+v", sender.sends[0])
	}
}

// Scenario S3: BPDU Guard with do-disable shuts the port down on any
// inbound BPDU without running STP processing on the frame.
func TestReceivedFrameBpduGuardDoDisable(t *testing.T) {
	a, _ := newTestAdapter(t)
	idx := vlanSetup(t, a, 10, "eth0", false)
	if err := a.Apply(management.Message{
		Kind: management.KindPortConfig, IfName: "eth0",
		BpduGuard: true, BpduGuardDoDisable: true, Enabled: true,
	}); err != nil {
		t.Fatalf("apply port config: %v", err)
	}
	if err := a.Apply(management.Message{Kind: management.KindBridgeConfig, StpMode: management.StpModePvstp, RootGuardTimeout: 30}); err != nil {
		t.Fatalf("apply bridge config: %v", err)
	}

	frame := marshalFrame(t, &stp.BPDU{Kind: stp.KindPVSTConfig, VlanID: 10})
	a.ReceivedFrame("eth0", frame, 10, true)

	if !a.Engine().BpduGuardTripped(0) {
		t.Fatal("want bpdu guard tripped")
	}
	if got := a.Engine().PortState(idx, 0); got != stp.PortDisabled {
		t.Fatalf("want port state Disabled after guard trip, got %v", got)
	}
}

func TestReceivedFrameClassicResolvesUntaggedVlan(t *testing.T) {
	a, _ := newTestAdapter(t)
	vlanSetup(t, a, 10, "eth0", true)
	if err := a.Apply(management.Message{Kind: management.KindBridgeConfig, StpMode: management.StpModePvstp, RootGuardTimeout: 30}); err != nil {
		t.Fatalf("apply bridge config: %v", err)
	}

	frame := marshalFrame(t, &stp.BPDU{Kind: stp.KindSTPConfig, MaxAge: 20, HelloTime: 2, ForwardDelay: 15})
	a.ReceivedFrame("eth0", frame, 0, false)

	stpCount, _, _ := a.Engine().DropCounters()
	if stpCount != 0 {
		t.Fatalf("want no drops for valid classic bpdu on untagged vlan, got %d", stpCount)
	}
}

// Mirror of S5 on ingress: a PVST+ frame carrying VLAN 1 on a port whose
// untagged VLAN is VLAN 1 is dropped rather than processed.
func TestReceivedFramePvstVlan1DroppedOnNativePort(t *testing.T) {
	a, _ := newTestAdapter(t)
	vlanSetup(t, a, 1, "eth0", true)
	if err := a.Apply(management.Message{Kind: management.KindBridgeConfig, StpMode: management.StpModePvstp, RootGuardTimeout: 30}); err != nil {
		t.Fatalf("apply bridge config: %v", err)
	}

	frame := marshalFrame(t, &stp.BPDU{Kind: stp.KindPVSTConfig, VlanID: 1, MaxAge: 20, HelloTime: 2, ForwardDelay: 15})
	a.ReceivedFrame("eth0", frame, 1, true)

	_, _, pvstCount := a.Engine().DropCounters()
	if pvstCount != 1 {
		t.Fatalf("want 1 pvst drop for vlan1-on-native-port, got %d", pvstCount)
	}
}

func TestReceivedFrameIgnoredWhenStpModeNone(t *testing.T) {
	a, _ := newTestAdapter(t)
	vlanSetup(t, a, 10, "eth0", true)
	// StpMode defaults to StpModeNone until a BridgeConfig message sets it.
	frame := marshalFrame(t, &stp.BPDU{Kind: stp.KindSTPConfig, MaxAge: 20, HelloTime: 2, ForwardDelay: 15})
	a.ReceivedFrame("eth0", frame, 0, false)

	stpCount, _, _ := a.Engine().DropCounters()
	if stpCount != 0 {
		t.Fatalf("want frame silently ignored (not even counted) in StpModeNone, got %d drops", stpCount)
	}
}
