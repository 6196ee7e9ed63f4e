package management_test

import (
	"sync"
	"testing"

	"github.com/vlanspan/pvstd/internal/management"
	"github.com/vlanspan/pvstd/internal/stp"
)

type fakeSender struct {
	mu    sync.Mutex
	sends []sentFrame
}

type sentFrame struct {
	ifName string
	frame  []byte
	vlanID uint16
	tagged bool
}

func (f *fakeSender) Send(ifName string, frame []byte, vlanID uint16, tagged bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(frame))
	copy(cp, frame)
	f.sends = append(f.sends, sentFrame{ifName: ifName, frame: cp, vlanID: vlanID, tagged: tagged})
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

func newTestAdapter(t *testing.T) (*management.Adapter, *fakeSender) {
	t.Helper()
	sender := &fakeSender{}
	a := management.NewAdapter(nil, nil, sender)
	if err := a.Apply(management.Message{Kind: management.KindInit, MaxStpInstances: 8}); err != nil {
		t.Fatalf("apply init: %v", err)
	}
	var mac [6]byte
	copy(mac[:], []byte{0xaa, 0, 0, 0, 0, 1})
	a.RegisterInterface("eth0", 0, mac, stp.Speed1G)
	copy(mac[:], []byte{0xaa, 0, 0, 0, 0, 2})
	a.RegisterInterface("eth1", 1, mac, stp.Speed1G)
	return a, sender
}

func TestApplyInitRejectsSecondCall(t *testing.T) {
	a, _ := newTestAdapter(t)
	err := a.Apply(management.Message{Kind: management.KindInit, MaxStpInstances: 4})
	if err == nil {
		t.Fatal("want error on second Init")
	}
}

func TestApplyVlanConfigCreatesInstanceAndMembers(t *testing.T) {
	a, _ := newTestAdapter(t)
	msg := management.Message{
		Kind: management.KindVlanConfig, Opcode: management.OpcodeSet,
		NewInstance: true, VlanID: 10, MaxAge: 20, HelloTime: 2, ForwardDelay: 15, Priority: 32768,
		Interfaces: []management.VlanInterfaceAttr{
			{IfName: "eth0", Mode: management.PortModeTagged, Enabled: true},
		},
	}
	if err := a.Apply(msg); err != nil {
		t.Fatalf("apply vlan config: %v", err)
	}

	idx, ok := a.Engine().LookupVlan(10)
	if !ok {
		t.Fatal("vlan 10 not created")
	}
	if !a.Engine().HasControlPort(idx, 0) {
		t.Fatal("eth0 not in control mask")
	}
}

func TestApplyVlanConfigUnknownInterfaceRejected(t *testing.T) {
	a, _ := newTestAdapter(t)
	msg := management.Message{
		Kind: management.KindVlanConfig, Opcode: management.OpcodeSet,
		NewInstance: true, VlanID: 20, MaxAge: 20, HelloTime: 2, ForwardDelay: 15,
		Interfaces: []management.VlanInterfaceAttr{{IfName: "ghost", Enabled: true}},
	}
	if err := a.Apply(msg); err == nil {
		t.Fatal("want error for unregistered interface")
	}
}

func TestApplyVlanPortConfigUnknownVlanRejected(t *testing.T) {
	a, _ := newTestAdapter(t)
	msg := management.Message{
		Kind: management.KindVlanPortConfig, Opcode: management.OpcodeSet,
		VlanID: 999, IfName: "eth0", VlanPortPriority: management.UnsetPriority,
	}
	if err := a.Apply(msg); err == nil {
		t.Fatal("want error for unknown vlan")
	}
}

func TestApplyPortConfigSetsGuards(t *testing.T) {
	a, _ := newTestAdapter(t)
	msg := management.Message{
		Kind: management.KindPortConfig, IfName: "eth0",
		RootGuard: true, BpduGuard: true, BpduGuardDoDisable: true, Enabled: true,
	}
	if err := a.Apply(msg); err != nil {
		t.Fatalf("apply port config: %v", err)
	}
	if !a.Engine().RootGuardArmed(0) {
		t.Fatal("root guard not armed")
	}
	armed, doDisable := a.Engine().BpduGuardCheck(0)
	if !armed || !doDisable {
		t.Fatalf("bpdu guard not armed do-disable, got armed=%v doDisable=%v", armed, doDisable)
	}
}

func TestApplyBridgeConfigUpdatesBaseMACAndTimeout(t *testing.T) {
	a, _ := newTestAdapter(t)
	msg := management.Message{
		Kind: management.KindBridgeConfig, StpMode: management.StpModePvstp, RootGuardTimeout: 45,
	}
	if err := a.Apply(msg); err != nil {
		t.Fatalf("apply bridge config: %v", err)
	}
}
