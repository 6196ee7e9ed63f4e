package management

import (
	"fmt"
	"log/slog"

	"github.com/vlanspan/pvstd/internal/stp"
)

const defaultPortIDPriority uint8 = 0x80

// portDefaults holds the per-port attributes a PortConfig message sets
// globally, applied whenever a VlanPortConfig/VlanMemberConfig message
// leaves priority/path_cost unset (spec §6.1: "priority = -1 means
// unset").
type portDefaults struct {
	priority int32 // UnsetPriority if never configured
	pathCost uint32
}

// Adapter is the management adapter of spec §4.6: it owns interface-name
// resolution, bridge-wide guard/fast state, and the translation from the
// five configuration message kinds into stp.Engine calls. Every exported
// method is a short run-to-completion step meant to execute on the
// engine's single dispatch goroutine — callers route Apply/received
// frames through stp.Engine.Submit themselves, the same discipline
// Engine's own exported methods rely on.
type Adapter struct {
	log    *slog.Logger
	pub    stp.Publisher
	sender FrameSender

	engine     *stp.Engine
	extendMode bool
	stpMode    StpMode

	ifNameToPort map[string]stp.PortNumber
	portToIfName map[stp.PortNumber]string
	portSpeed    map[stp.PortNumber]stp.Speed
	portMAC      map[stp.PortNumber][6]byte
	portDefaults map[stp.PortNumber]portDefaults

	portChannels *PortChannelRegistry
}

// NewAdapter returns an Adapter with no engine yet constructed; a Kind =
// Init message finishes construction once max_stp_instances is known
// (spec §4.3: "Fixed-size array sized at engine init by the management
// adapter"). sender is the transport collaborator BPDU-transmit forwards
// frames to (spec §4.6); the Adapter itself implements stp.Transmitter
// and is handed to the engine at Init time.
func NewAdapter(log *slog.Logger, pub stp.Publisher, sender FrameSender) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		log:          log.With(slog.String("component", "management.adapter")),
		pub:          pub,
		sender:       sender,
		extendMode:   true,
		ifNameToPort: make(map[string]stp.PortNumber),
		portToIfName: make(map[stp.PortNumber]string),
		portSpeed:    make(map[stp.PortNumber]stp.Speed),
		portMAC:      make(map[stp.PortNumber][6]byte),
		portDefaults: make(map[stp.PortNumber]portDefaults),
	}
}

// Engine returns the underlying engine, nil until an Init message has
// been applied.
func (a *Adapter) Engine() *stp.Engine {
	return a.engine
}

// RegisterInterface records the (name, port, mac, speed) quadruple for an
// interface the transport/link-state collaborator has discovered. Must be
// called before any configuration message names ifName.
func (a *Adapter) RegisterInterface(name string, port stp.PortNumber, mac [6]byte, speed stp.Speed) {
	a.ifNameToPort[name] = port
	a.portToIfName[port] = name
	a.portSpeed[port] = speed
	a.portMAC[port] = mac
	a.engineSetPortName(port, name)
}

func (a *Adapter) engineSetPortName(port stp.PortNumber, name string) {
	if a.engine != nil {
		a.engine.SetPortName(port, name)
	}
}

// UnregisterInterface forgets an interface that has been removed.
func (a *Adapter) UnregisterInterface(name string) {
	port, ok := a.ifNameToPort[name]
	if !ok {
		return
	}
	delete(a.ifNameToPort, name)
	delete(a.portToIfName, port)
	delete(a.portSpeed, port)
	delete(a.portMAC, port)
	delete(a.portDefaults, port)
	if a.portChannels != nil {
		a.portChannels.Release(name)
	}
}

func (a *Adapter) portFor(ifName string) (stp.PortNumber, error) {
	port, ok := a.ifNameToPort[ifName]
	if !ok {
		return 0, fmt.Errorf("%s: %w", ifName, ErrUnknownInterface)
	}
	return port, nil
}

// Apply validates and applies one configuration message (spec §4.6).
// Validation never mutates engine state (spec §7); a rejected message
// returns a wrapped stp.ErrConfigRejected and the adapter/engine are left
// exactly as they were.
func (a *Adapter) Apply(msg Message) error {
	if err := msg.Validate(a.extendMode); err != nil {
		return err
	}

	switch msg.Kind {
	case KindInit:
		return a.applyInit(msg)
	case KindBridgeConfig:
		return a.applyBridgeConfig(msg)
	case KindVlanConfig:
		return a.applyVlanConfig(msg)
	case KindVlanPortConfig:
		return a.applyVlanPortConfig(msg)
	case KindPortConfig:
		return a.applyPortConfig(msg)
	case KindVlanMemberConfig:
		return a.applyVlanMemberConfig(msg)
	case KindControl:
		// The control channel's debug-query path is handled directly by
		// stp.Engine.Snapshot; Control messages reach here only for
		// operations that need the adapter's name resolution (e.g.
		// "show interface <name>"), which cmd/pvstdctl does not yet use.
		return nil
	default:
		return fmt.Errorf("unhandled message kind %v: %w", msg.Kind, stp.ErrConfigRejected)
	}
}

func (a *Adapter) applyInit(msg Message) error {
	if a.engine != nil {
		return fmt.Errorf("adapter already initialized: %w", stp.ErrConfigRejected)
	}
	cfg := stp.DefaultEngineConfig()
	cfg.MaxInstances = msg.MaxStpInstances
	cfg.ExtendMode = a.extendMode

	engine, err := stp.NewEngine(cfg, a.log, a.pub, a)
	if err != nil {
		return err
	}
	a.engine = engine
	a.portChannels = NewPortChannelRegistry(engine)
	for port, name := range a.portToIfName {
		engine.SetPortName(port, name)
	}
	return nil
}

func (a *Adapter) requireEngine() error {
	if a.engine == nil {
		return fmt.Errorf("adapter not initialized (no Init message applied yet): %w", stp.ErrConfigRejected)
	}
	return nil
}

func (a *Adapter) applyBridgeConfig(msg Message) error {
	if err := a.requireEngine(); err != nil {
		return err
	}
	a.stpMode = msg.StpMode
	a.engine.SetBaseMAC(msg.BaseMAC)
	a.engine.SetRootProtectTimeout(uint16(msg.RootGuardTimeout))
	return nil
}

func (a *Adapter) applyVlanConfig(msg Message) error {
	if err := a.requireEngine(); err != nil {
		return err
	}

	var idx stp.StpIndex
	if msg.NewInstance {
		var err error
		idx, err = a.engine.CreateVlan(msg.VlanID, msg.Priority)
		if err != nil {
			return err
		}
	} else {
		var ok bool
		idx, ok = a.engine.LookupVlan(msg.VlanID)
		if !ok {
			return fmt.Errorf("vlan %d: %w", msg.VlanID, ErrUnknownVlan)
		}
	}

	if msg.Opcode == OpcodeDel {
		a.engine.DeleteVlan(idx)
		return nil
	}

	if !msg.NewInstance {
		a.engine.SetBridgePriority(idx, msg.Priority)
	}
	a.engine.SetBridgeTimers(idx, msg.MaxAge, msg.HelloTime, msg.ForwardDelay)

	for _, attr := range msg.Interfaces {
		port, err := a.portFor(attr.IfName)
		if err != nil {
			return err
		}
		if err := a.applyMembership(idx, port, attr.Enabled, attr.Mode, 0, UnsetPriority); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) applyVlanPortConfig(msg Message) error {
	if err := a.requireEngine(); err != nil {
		return err
	}
	idx, ok := a.engine.LookupVlan(msg.VlanID)
	if !ok {
		return fmt.Errorf("vlan %d: %w", msg.VlanID, ErrUnknownVlan)
	}
	port, err := a.portFor(msg.IfName)
	if err != nil {
		return err
	}
	if msg.Opcode == OpcodeDel {
		a.engine.LeaveControlMask(idx, port)
		return nil
	}
	return a.applyMembership(idx, port, true, PortModeTagged, msg.PathCost, msg.VlanPortPriority)
}

func (a *Adapter) applyVlanMemberConfig(msg Message) error {
	if err := a.requireEngine(); err != nil {
		return err
	}
	idx, ok := a.engine.LookupVlan(msg.VlanID)
	if !ok {
		return fmt.Errorf("vlan %d: %w", msg.VlanID, ErrUnknownVlan)
	}
	port, err := a.portFor(msg.IfName)
	if err != nil {
		return err
	}
	if msg.Opcode == OpcodeDel {
		a.engine.LeaveControlMask(idx, port)
		return nil
	}
	return a.applyMembership(idx, port, msg.Enabled, PortModeTagged, msg.PathCost, msg.VlanPortPriority)
}

// applyMembership is the shared path behind VlanConfig's interface list,
// VlanPortConfig, VlanMemberConfig and PortConfig's VlanAttrs list: add
// port to idx's control mask, set its untagged/tagged membership, apply
// any path-cost/priority override, and enable or disable it.
func (a *Adapter) applyMembership(idx stp.StpIndex, port stp.PortNumber, enabled bool, mode PortMode, pathCost uint32, priority int32) error {
	speed := a.portSpeed[port]
	portPriority := defaultPortIDPriority
	if priority != UnsetPriority {
		portPriority = uint8(priority)
	} else if def, ok := a.portDefaults[port]; ok && def.priority != UnsetPriority {
		portPriority = uint8(def.priority)
	}

	if !a.engine.HasControlPort(idx, port) {
		a.engine.EnterControlMask(idx, port, portPriority, speed)
	}
	a.engine.SetUntagged(idx, port, mode == PortModeUntagged)
	if priority != UnsetPriority {
		a.engine.SetPortPriority(idx, port, portPriority)
	}

	if enabled {
		a.engine.EnablePort(idx, port, portPriority, speed)
	} else {
		a.engine.DisablePort(idx, port)
	}

	// EnablePort re-initializes the port record, so the path-cost override
	// is applied after it.
	if pathCost == 0 {
		if def, ok := a.portDefaults[port]; ok {
			pathCost = def.pathCost
		}
	}
	if pathCost != 0 {
		a.engine.SetPortPathCost(idx, port, pathCost, speed)
	}
	return nil
}

func (a *Adapter) applyPortConfig(msg Message) error {
	if err := a.requireEngine(); err != nil {
		return err
	}
	port, err := a.portFor(msg.IfName)
	if err != nil {
		return err
	}

	// PortConfig carries no dedicated priority field of its own (spec
	// §6.1); per-VLAN priority only arrives via VlanAttrs or
	// VlanPortConfig/VlanMemberConfig. The port-wide default record below
	// lets those messages omit priority and inherit this port's path cost.
	a.portDefaults[port] = portDefaults{priority: UnsetPriority, pathCost: msg.PathCost}

	a.engine.SetRootGuard(port, msg.RootGuard)
	a.engine.SetBpduGuard(port, msg.BpduGuard, msg.BpduGuardDoDisable)
	a.engine.SetPortFastAdmin(port, msg.PortFast)
	a.engine.SetUplinkFastAdmin(port, msg.UplinkFast)
	a.engine.SetEngineEnabled(port, msg.Enabled)

	for _, attr := range msg.VlanAttrs {
		idx, ok := a.engine.LookupVlan(attr.VlanID)
		if !ok {
			return fmt.Errorf("vlan %d: %w", attr.VlanID, ErrUnknownVlan)
		}
		if err := a.applyMembership(idx, port, attr.Enabled, attr.Mode, attr.PathCost, attr.Priority); err != nil {
			return err
		}
	}
	return nil
}
