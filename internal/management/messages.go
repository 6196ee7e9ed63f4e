// Package management is the adapter between the outside world —
// configuration messages, raw BPDU frames, link-state events — and the
// single-threaded stp.Engine (spec §4.6). Every exported entry point here
// is meant to run on the engine's dispatch goroutine, the same way
// stp.Engine's own exported methods do: callers are expected to route a
// Message or a received frame through stp.Engine.Submit themselves.
package management

import (
	"errors"
	"fmt"

	"github.com/vlanspan/pvstd/internal/stp"
)

// Kind identifies which of the five configuration message shapes (plus
// Init) an envelope carries (spec §6.1).
type Kind uint8

const (
	KindInit Kind = iota
	KindBridgeConfig
	KindVlanConfig
	KindVlanPortConfig
	KindPortConfig
	KindVlanMemberConfig
	KindControl
)

func (k Kind) String() string {
	switch k {
	case KindInit:
		return "Init"
	case KindBridgeConfig:
		return "BridgeConfig"
	case KindVlanConfig:
		return "VlanConfig"
	case KindVlanPortConfig:
		return "VlanPortConfig"
	case KindPortConfig:
		return "PortConfig"
	case KindVlanMemberConfig:
		return "VlanMemberConfig"
	case KindControl:
		return "Control"
	default:
		return "Unknown"
	}
}

// Opcode distinguishes Set from Del for every configuration payload
// (spec §6.1: "opcode ∈ {Set=1, Del=0}").
type Opcode uint8

const (
	OpcodeDel Opcode = 0
	OpcodeSet Opcode = 1
)

func (o Opcode) String() string {
	if o == OpcodeSet {
		return "Set"
	}
	return "Del"
}

// StpMode is the bridge-wide protocol mode (spec §6.1 BridgeConfig).
type StpMode uint8

const (
	StpModeNone StpMode = iota
	StpModePvstp
)

// PortMode distinguishes an untagged from a tagged VLAN membership on a
// port (spec §6.1 VlanConfig's per-interface list).
type PortMode uint8

const (
	PortModeUntagged PortMode = iota
	PortModeTagged
)

// UnsetPriority is VlanPortConfig's sentinel for "leave priority as-is"
// (spec §6.1: "priority = -1 means unset").
const UnsetPriority int32 = -1

// VlanInterfaceAttr is one entry of VlanConfig's per-interface list.
type VlanInterfaceAttr struct {
	IfName  string
	Mode    PortMode
	Enabled bool
}

// PortVlanAttr is one entry of PortConfig's per-VLAN attribute list:
// the subset of VlanMemberConfig fields that can be set inline while
// configuring the physical port itself.
type PortVlanAttr struct {
	VlanID   uint16
	Enabled  bool
	Mode     PortMode
	PathCost uint32
	Priority int32 // UnsetPriority means "use the port/instance default"
}

// Message is the tagged envelope every configuration input arrives in
// (spec §6.1). Only the fields relevant to Kind are meaningful; this
// mirrors the teacher's single `SessionConfig` struct passed in full even
// though not every session uses every field, rather than one Go type per
// message kind — kept as one type here because the five kinds share a
// dispatch point and a single Validate pass.
type Message struct {
	Kind   Kind
	Opcode Opcode

	// Init
	MaxStpInstances uint16

	// BridgeConfig
	StpMode          StpMode
	RootGuardTimeout int32 // seconds, bounds [5, 600]
	BaseMAC          [6]byte

	// VlanConfig
	NewInstance  bool
	VlanID       uint16
	InstID       uint16
	ForwardDelay uint8
	HelloTime    uint8
	MaxAge       uint8
	Priority     uint16
	Interfaces   []VlanInterfaceAttr

	// VlanPortConfig
	IfName           string
	VlanPortPriority int32 // UnsetPriority means unset
	PathCost         uint32

	// PortConfig
	Enabled            bool
	RootGuard          bool
	BpduGuard          bool
	BpduGuardDoDisable bool
	PortFast           bool
	UplinkFast         bool
	VlanAttrs          []PortVlanAttr

	// Control (§6.6): opaque debug-query payload, carried through
	// unvalidated; Adapter.Apply accepts a Control message without
	// reading ControlQuery.
	ControlQuery string
}

// Validate checks field-level invariants per spec §6.1/§7, without
// touching any engine state (spec §7: "configuration errors are reported
// to the sender... and never mutate engine state"). It mirrors the
// teacher's validateSessionConfig fail-closed, single-pass style.
func (m Message) Validate(extendMode bool) error {
	switch m.Kind {
	case KindInit:
		if m.MaxStpInstances == 0 {
			return fmt.Errorf("max_stp_instances must be > 0: %w", stp.ErrConfigRejected)
		}
	case KindBridgeConfig:
		if m.StpMode != StpModeNone && m.StpMode != StpModePvstp {
			return fmt.Errorf("stp_mode %d: %w", m.StpMode, stp.ErrConfigRejected)
		}
		if m.RootGuardTimeout < 5 || m.RootGuardTimeout > 600 {
			return fmt.Errorf("rootguard_timeout %d out of [5,600]: %w", m.RootGuardTimeout, stp.ErrConfigRejected)
		}
	case KindVlanConfig:
		if err := validateVlanID(m.VlanID); err != nil {
			return err
		}
		if err := validateTimers(m.MaxAge, m.HelloTime, m.ForwardDelay); err != nil {
			return err
		}
	case KindVlanPortConfig:
		if err := validateVlanID(m.VlanID); err != nil {
			return err
		}
		if m.IfName == "" {
			return fmt.Errorf("intf_name must not be empty: %w", stp.ErrConfigRejected)
		}
		if err := validatePathCost(m.PathCost, extendMode); err != nil {
			return err
		}
		if err := validatePriority(m.VlanPortPriority); err != nil {
			return err
		}
	case KindPortConfig:
		if m.IfName == "" {
			return fmt.Errorf("intf_name must not be empty: %w", stp.ErrConfigRejected)
		}
		if err := validatePathCost(m.PathCost, extendMode); err != nil {
			return err
		}
		for _, attr := range m.VlanAttrs {
			if err := validateVlanID(attr.VlanID); err != nil {
				return err
			}
			if err := validatePathCost(attr.PathCost, extendMode); err != nil {
				return err
			}
			if err := validatePriority(attr.Priority); err != nil {
				return err
			}
		}
	case KindVlanMemberConfig:
		if err := validateVlanID(m.VlanID); err != nil {
			return err
		}
		if m.IfName == "" {
			return fmt.Errorf("intf_name must not be empty: %w", stp.ErrConfigRejected)
		}
		if err := validatePathCost(m.PathCost, extendMode); err != nil {
			return err
		}
		if err := validatePriority(m.VlanPortPriority); err != nil {
			return err
		}
	case KindControl:
		// opaque; ControlQuery is not validated.
	default:
		return fmt.Errorf("unknown message kind %d: %w", m.Kind, stp.ErrConfigRejected)
	}
	return nil
}

func validateVlanID(vlanID uint16) error {
	if vlanID < 1 || vlanID > 4094 {
		return fmt.Errorf("vlan_id %d out of [1,4094]: %w", vlanID, stp.ErrConfigRejected)
	}
	return nil
}

func validateTimers(maxAge, helloTime, forwardDelay uint8) error {
	if maxAge < 6 || maxAge > 40 {
		return fmt.Errorf("max_age %d out of [6,40]: %w", maxAge, stp.ErrConfigRejected)
	}
	if helloTime < stp.MinHelloTime || helloTime > 10 {
		return fmt.Errorf("hello_time %d out of [%d,10]: %w", helloTime, stp.MinHelloTime, stp.ErrConfigRejected)
	}
	if forwardDelay < 4 || forwardDelay > 30 {
		return fmt.Errorf("forward_delay %d out of [4,30]: %w", forwardDelay, stp.ErrConfigRejected)
	}
	return nil
}

func validatePathCost(cost uint32, extendMode bool) error {
	if cost == 0 {
		return nil // 0 means "use the speed-derived default"
	}
	if cost > stp.MaxPathCost(extendMode) {
		return fmt.Errorf("path_cost %d exceeds max %d: %w", cost, stp.MaxPathCost(extendMode), stp.ErrConfigRejected)
	}
	return nil
}

func validatePriority(priority int32) error {
	if priority == UnsetPriority {
		return nil
	}
	if priority < 0 || priority > 255 {
		return fmt.Errorf("priority %d out of [0,255] (or -1 for unset): %w", priority, stp.ErrConfigRejected)
	}
	return nil
}

// ErrUnknownVlan is returned when a message references a vlan_id with no
// configured instance.
var ErrUnknownVlan = errors.New("management: unknown vlan_id")

// ErrUnknownInterface is returned when a message references an interface
// the adapter has never seen a link-state event for.
var ErrUnknownInterface = errors.New("management: unknown interface")
