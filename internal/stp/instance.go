package stp

// InstanceState is the lifecycle of a StpInstance (spec §3 Lifecycles):
// Free -> Config when the VLAN is first configured, Config -> Active when
// at least one control port is enabled and operationally up, Active ->
// Config when the enable mask empties, * -> Free on explicit VLAN delete.
type InstanceState uint8

const (
	InstanceFree InstanceState = iota
	InstanceConfig
	InstanceActive
)

func (s InstanceState) String() string {
	switch s {
	case InstanceFree:
		return "Free"
	case InstanceConfig:
		return "Config"
	case InstanceActive:
		return "Active"
	default:
		return "Unknown"
	}
}

// PortState is one of the five 802.1D port states.
type PortState uint8

const (
	PortDisabled PortState = iota
	PortBlocking
	PortListening
	PortLearning
	PortForwarding
)

// PortRole is the role port_state_selection assigns an enabled port.
type PortRole uint8

const (
	RoleDisabled PortRole = iota
	RoleRoot
	RoleDesignated
	RoleAlternate
)

func (r PortRole) String() string {
	switch r {
	case RoleRoot:
		return "Root"
	case RoleDesignated:
		return "Designated"
	case RoleAlternate:
		return "Alternate"
	default:
		return "Disabled"
	}
}

// NoPort is the sentinel PortNumber meaning "no port" (spec: root_port
// "PortId or None"). Arrays are indexed by small integers rather than
// pointers, so None is encoded as an out-of-range port number instead of
// a nil pointer.
const NoPort PortNumber = 0xFFFF

// Protocol version ids recognised on the wire (spec §4.2, §1 Non-goals).
const (
	ProtocolVersionClassic uint8 = 0
	ProtocolVersionRSTP    uint8 = 2
)

// Default timer values in seconds (spec §4.4 initialize_stp_class).
const (
	DefaultMaxAge       uint8 = 20
	DefaultHelloTime    uint8 = 2
	DefaultForwardDelay uint8 = 15
	DefaultHoldTime     uint8 = 1

	// FastspanForwardDelay is the PortFast-operational forward delay
	// (spec §4.4 port_state_selection).
	FastspanForwardDelay uint8 = 2
	// FastuplinkForwardDelay is the UplinkFast forward delay.
	FastuplinkForwardDelay uint8 = 1

	// MinHelloTime is the floor below which a received hello_time field
	// is silently repaired to DefaultHelloTime (spec §4.2).
	MinHelloTime uint8 = 1
)

// BridgeData is the per-VLAN bridge state (spec §3).
type BridgeData struct {
	BridgeID BridgeId

	RootID       BridgeId
	RootPathCost uint32
	RootPort     PortNumber // NoPort if this bridge is the root

	MaxAge       uint8
	HelloTime    uint8
	ForwardDelay uint8
	HoldTime     uint8

	BridgeMaxAge       uint8
	BridgeHelloTime    uint8
	BridgeForwardDelay uint8

	// ProtocolVersion mirrors the protocol_version_id the bridge
	// originates on its own BPDUs; it is pinned to
	// ProtocolVersionRSTP while the instance is not Active (see
	// DESIGN.md Open Question 2) and ProtocolVersionClassic once Active.
	ProtocolVersion uint8

	TopologyChangeCount    uint32
	TopologyChangeTick     uint32
	TopologyChangeTime     uint64
	TopologyChangeDetected bool
	TopologyChange         bool

	Modified ModifiedField
}

// StpPort is the per-(instance, port) state (spec §3).
type StpPort struct {
	PortID     PortId
	PortNumber PortNumber
	State      PortState
	Role       PortRole

	PathCost uint32

	DesignatedRoot   BridgeId
	DesignatedCost   uint32
	DesignatedBridge BridgeId
	DesignatedPort   PortId

	MessageAge   Timer
	ForwardDelay Timer
	Hold         Timer
	RootProtect  Timer

	TopologyChangeAcknowledge bool
	ConfigPending             bool
	ChangeDetectionEnabled    bool
	SelfLoop                  bool
	AutoConfig                bool
	OperEdge                  bool

	// KernelState shadows the last state pushed to the management
	// adapter, to avoid redundant publication (spec §3 invariant).
	KernelState PortState

	RxConfigBpdu       uint32
	TxConfigBpdu       uint32
	RxTcnBpdu          uint32
	TxTcnBpdu          uint32
	ForwardTransitions uint32
	RxDropBpdu         uint32

	Modified ModifiedField
}

// StpIndex indexes the fixed-capacity instance table.
type StpIndex uint16

// StpInstance holds one VLAN's bridge data, timers, port masks and
// per-port array (spec §3).
type StpInstance struct {
	VlanID uint16
	State  InstanceState

	Bridge BridgeData

	EnableMask  Set
	ControlMask Set
	UntagMask   Set

	HelloTimer          Timer
	TcnTimer            Timer
	TopologyChangeTimer Timer

	RxDropBpdu     uint32
	FastAging      bool
	LastBpduRxTime uint64

	Ports [maxPorts]StpPort
}

// reset zeroes an instance back to its Free-state shape (spec invariant:
// "A StpInstance with state = Free has empty masks, zeroed timers, and
// must not appear in tick processing").
func (inst *StpInstance) reset() {
	*inst = StpInstance{}
}

// Table is the fixed-capacity per-VLAN instance table (spec §4.3),
// indexed by StpIndex, plus a vlan_id -> StpIndex secondary index.
type Table struct {
	instances []StpInstance
	byVlan    map[uint16]StpIndex
}

// NewTable allocates a table with room for capacity instances, all
// initially Free.
func NewTable(capacity uint16) *Table {
	return &Table{
		instances: make([]StpInstance, capacity),
		byVlan:    make(map[uint16]StpIndex, capacity),
	}
}

// Len returns the table's fixed capacity.
func (t *Table) Len() int {
	return len(t.instances)
}

// At returns a pointer to the instance at idx. Callers must not retain
// the pointer beyond the current dispatch step.
func (t *Table) At(idx StpIndex) *StpInstance {
	return &t.instances[idx]
}

// Lookup returns the index of the instance for vlanID, if one exists.
func (t *Table) Lookup(vlanID uint16) (StpIndex, bool) {
	idx, ok := t.byVlan[vlanID]
	return idx, ok
}

// Alloc chooses a free slot for vlanID and marks it Config. It returns
// ErrResourceExhausted if no Free slot remains.
func (t *Table) Alloc(vlanID uint16) (StpIndex, error) {
	if _, exists := t.byVlan[vlanID]; exists {
		return 0, ErrConfigRejected
	}
	for i := range t.instances {
		if t.instances[i].State == InstanceFree {
			idx := StpIndex(i)
			t.instances[i].VlanID = vlanID
			t.instances[i].State = InstanceConfig
			t.byVlan[vlanID] = idx
			return idx, nil
		}
	}
	return 0, ErrResourceExhausted
}

// Free releases idx back to the Free state and removes it from the vlan
// index.
func (t *Table) Free(idx StpIndex) {
	vlanID := t.instances[idx].VlanID
	t.instances[idx].reset()
	delete(t.byVlan, vlanID)
}

// Active calls fn for every instance currently in InstanceActive state.
func (t *Table) Active(fn func(idx StpIndex, inst *StpInstance)) {
	for i := range t.instances {
		if t.instances[i].State == InstanceActive {
			fn(StpIndex(i), &t.instances[i])
		}
	}
}
