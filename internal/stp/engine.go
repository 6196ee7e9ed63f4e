package stp

import (
	"fmt"
	"log/slog"
)

// ticksPerSecond is the classic 802.1D "half-second tick": every
// configured second value is converted to ticks by doubling (spec §4.5).
const ticksPerSecond = 2

func secondsToTicks(seconds uint8) uint16 {
	return uint16(seconds) * ticksPerSecond
}

// EngineConfig carries construction-time parameters, generalizing the
// teacher's validated-config-struct pattern (bfd.SessionConfig) to engine
// construction.
type EngineConfig struct {
	MaxInstances       uint16
	BaseMAC            [6]byte
	RootProtectTimeout uint16 // seconds, bounds [5, 600] per spec §6.1
	ExtendMode         bool
	PortChannelIDs     uint16
}

// DefaultEngineConfig returns sensible defaults for a freestanding engine.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxInstances:       64,
		RootProtectTimeout: 30,
		ExtendMode:         true,
		PortChannelIDs:     128,
	}
}

func (c EngineConfig) validate() error {
	if c.MaxInstances == 0 {
		return fmt.Errorf("max_instances must be > 0: %w", ErrConfigRejected)
	}
	if c.RootProtectTimeout < 5 || c.RootProtectTimeout > 600 {
		return fmt.Errorf("root_protect_timeout %d out of [5,600]: %w", c.RootProtectTimeout, ErrConfigRejected)
	}
	return nil
}

// Publisher is implemented by the state-publication collaborator (spec
// §6.3). The engine calls it synchronously from inside the single
// dispatch goroutine after every instance-update step; a no-op default
// is used when the caller supplies none.
type Publisher interface {
	Publish(rec PublishedRecord)
}

type noopPublisher struct{}

func (noopPublisher) Publish(PublishedRecord) {}

// Transmitter is implemented by the management adapter's BPDU-transmit
// path (spec §4.6): the engine never touches the transport collaborator
// directly, it only decides what to send and on which port.
type Transmitter interface {
	Transmit(idx StpIndex, port PortNumber, bpdu *BPDU)
}

type noopTransmitter struct{}

func (noopTransmitter) Transmit(StpIndex, PortNumber, *BPDU) {}

// Engine owns every piece of state the 802.1D core touches: the instance
// table, the global port-wide guard/fast masks, drop counters, the
// extend-mode flag and the base MAC. There are no ambient globals (spec
// §9): everything lives on this value, whose lifecycle is
// init -> run -> shutdown.
type Engine struct {
	cfg    EngineConfig
	log    *slog.Logger
	pub    Publisher
	tx     Transmitter
	table  *Table
	idPool *IDPool

	bpduGuardMask         Set
	bpduGuardShutdownMask Set
	bpduGuardTrippedMask  Set
	rootGuardMask         Set
	portFastAdminMask     Set
	portFastOperMask      Set
	uplinkFastAdminMask   Set
	engineEnabledAdmin    Set
	engineEnabledOper     Set

	rootProtectTimeoutTicks uint16

	dropSTP  uint32
	dropTCN  uint32
	dropPVST uint32

	// nowTick counts scheduler ticks since Run started; used only to
	// stamp last_bpdu_rx_time, never for timer expiry (timers carry
	// their own limits).
	nowTick uint64

	// portName maps a PortNumber to the interface name used in published
	// records and guard log lines.
	portName map[PortNumber]string

	lowPriority chan workItem
}

// NewEngine validates cfg and returns an Engine ready for Init.
func NewEngine(cfg EngineConfig, log *slog.Logger, pub Publisher, tx Transmitter) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	if pub == nil {
		pub = noopPublisher{}
	}
	if tx == nil {
		tx = noopTransmitter{}
	}
	return &Engine{
		cfg:                     cfg,
		log:                     log.With(slog.String("component", "stp.engine")),
		pub:                     pub,
		tx:                      tx,
		table:                   NewTable(cfg.MaxInstances),
		idPool:                  NewIDPool(cfg.PortChannelIDs),
		rootProtectTimeoutTicks: secondsToTicks(clampSeconds(cfg.RootProtectTimeout)),
		portName:                make(map[PortNumber]string),
		lowPriority:             make(chan workItem, 1024),
	}, nil
}

func clampSeconds(v uint16) uint8 {
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// SetBaseMAC updates the MAC component every new bridge_id is built from
// (spec §6.1 BridgeConfig.base_mac). It only affects instances created
// afterward; existing instances keep their bridge_id.
func (e *Engine) SetBaseMAC(mac [6]byte) {
	e.cfg.BaseMAC = mac
}

// SetRootProtectTimeout updates the root-protect timeout applied to
// future Root Guard trips (spec §6.1 BridgeConfig.rootguard_timeout,
// bounds [5, 600] enforced by the caller).
func (e *Engine) SetRootProtectTimeout(seconds uint16) {
	e.cfg.RootProtectTimeout = seconds
	e.rootProtectTimeoutTicks = secondsToTicks(clampSeconds(seconds))
}

// SetPortName records the interface name for port, used only for
// published records and log lines.
func (e *Engine) SetPortName(port PortNumber, name string) {
	e.portName[port] = name
}

// DropReason classifies a frame the management adapter discarded before
// it ever reached the engine's FSM (spec §4.6: "invalid frame drop
// counters").
type DropReason uint8

const (
	DropInvalidSTP DropReason = iota
	DropInvalidTCN
	DropInvalidPVST
)

// RecordDrop increments the counter for reason. Called by the management
// adapter's BPDU-receive path on a decode failure or a guard/coexistence
// discard, on the same dispatch goroutine as everything else.
func (e *Engine) RecordDrop(reason DropReason) {
	switch reason {
	case DropInvalidSTP:
		e.dropSTP++
	case DropInvalidTCN:
		e.dropTCN++
	case DropInvalidPVST:
		e.dropPVST++
	}
}

// DropCounters returns the accumulated invalid-frame counts.
func (e *Engine) DropCounters() (stpCount, tcnCount, pvstCount uint32) {
	return e.dropSTP, e.dropTCN, e.dropPVST
}

func (e *Engine) portNameOf(port PortNumber) string {
	if name, ok := e.portName[port]; ok {
		return name
	}
	return fmt.Sprintf("port%d", port)
}

// CreateVlan allocates a free instance slot for vlanID and runs
// initialize_stp_class (spec §4.4). It returns ErrResourceExhausted if no
// slot is free and ErrConfigRejected if vlanID is already configured.
func (e *Engine) CreateVlan(vlanID uint16, priorityClass uint16) (StpIndex, error) {
	idx, err := e.table.Alloc(vlanID)
	if err != nil {
		return 0, err
	}
	e.initializeStpClass(idx, priorityClass)
	return idx, nil
}

// SetPortPathCost overrides (idx, port)'s path cost (spec §6.1
// VlanPortConfig.path_cost / PortConfig.path_cost). A cost of 0 restores
// the speed-derived default.
func (e *Engine) SetPortPathCost(idx StpIndex, port PortNumber, cost uint32, speed Speed) {
	inst := e.table.At(idx)
	sp := &inst.Ports[port]
	if cost == 0 {
		sp.PathCost = DefaultPathCost(speed, e.cfg.ExtendMode)
	} else {
		sp.PathCost = cost
	}
	sp.Modified |= FieldDesignated
}

// SetPortPriority rebuilds (idx, port)'s port_id with a new priority,
// keeping the same port number (spec §6.1 VlanPortConfig.priority /
// VlanMemberConfig.priority, -1 meaning "leave unset").
func (e *Engine) SetPortPriority(idx StpIndex, port PortNumber, priority uint8) {
	inst := e.table.At(idx)
	sp := &inst.Ports[port]
	sp.PortID = NewPortId(priority>>4, port)
	sp.Modified |= FieldDesignated
}

// SetBridgeTimers updates idx's configured max_age/hello_time/
// forward_delay (spec §6.1 VlanConfig). Zero leaves a field unchanged.
func (e *Engine) SetBridgeTimers(idx StpIndex, maxAge, helloTime, forwardDelay uint8) {
	inst := e.table.At(idx)
	if maxAge != 0 {
		inst.Bridge.BridgeMaxAge = maxAge
		inst.Bridge.MaxAge = maxAge
	}
	if helloTime != 0 {
		inst.Bridge.BridgeHelloTime = helloTime
		inst.Bridge.HelloTime = helloTime
	}
	if forwardDelay != 0 {
		inst.Bridge.BridgeForwardDelay = forwardDelay
		inst.Bridge.ForwardDelay = forwardDelay
	}
	inst.Bridge.Modified |= FieldTimers
}

// SetBridgePriority rebuilds idx's bridge_id with a new priority class,
// keeping the same system id/VLAN component and MAC (spec §6.1
// VlanConfig.priority). Root selection is left to the next
// configuration_update; the caller should follow with a re-run of
// port_state_selection if the instance is Active.
func (e *Engine) SetBridgePriority(idx StpIndex, priorityClass uint16) {
	inst := e.table.At(idx)
	systemID := inst.Bridge.BridgeID.Priority & bridgeSystemIDMask
	mac := inst.Bridge.BridgeID.Mac
	inst.Bridge.BridgeID = NewBridgeId(priorityClass, uint16(systemID), mac)
	if inst.Bridge.RootPort == NoPort {
		inst.Bridge.RootID = inst.Bridge.BridgeID
	}
	inst.Bridge.Modified |= FieldRootID
}

// AllocatePortChannelID claims the lowest unused port-channel id from the
// pool sized at construction time (spec §5 "a pool of port-channel ids is
// allocated at init time as a bitmap whose first-unset-bit is claimed on
// demand"). management.PortChannelRegistry.Acquire calls this the first
// time it is asked for a LAG interface's id.
func (e *Engine) AllocatePortChannelID() (uint16, error) {
	return e.idPool.Allocate()
}

// ReleasePortChannelID returns a port-channel id to the pool.
func (e *Engine) ReleasePortChannelID(id uint16) {
	e.idPool.Release(id)
}

// DeleteVlan cancels every per-instance and per-port timer for idx and
// returns the slot to Free (spec §5 "Configuration deletes immediately
// cancel all per-port and per-instance timers for the affected scope").
func (e *Engine) DeleteVlan(idx StpIndex) {
	e.table.Free(idx)
}

// initializeStpClass implements spec §4.4 initialize_stp_class: set
// bridge_id from (priority, vlan, base_mac), apply defaults, make this
// bridge its own root, and mark every field dirty.
func (e *Engine) initializeStpClass(idx StpIndex, priorityClass uint16) {
	inst := e.table.At(idx)
	systemID := inst.VlanID
	if !e.cfg.ExtendMode {
		systemID = 0
	}
	bridgeID := NewBridgeId(priorityClass, systemID, e.cfg.BaseMAC)

	inst.Bridge = BridgeData{
		BridgeID:           bridgeID,
		RootID:             bridgeID,
		RootPathCost:       0,
		RootPort:           NoPort,
		MaxAge:             DefaultMaxAge,
		HelloTime:          DefaultHelloTime,
		ForwardDelay:       DefaultForwardDelay,
		HoldTime:           DefaultHoldTime,
		BridgeMaxAge:       DefaultMaxAge,
		BridgeHelloTime:    DefaultHelloTime,
		BridgeForwardDelay: DefaultForwardDelay,
		ProtocolVersion:    ProtocolVersionRSTP, // not yet Active; see DESIGN.md Open Question 2
		Modified:           ^ModifiedField(0),
	}
}

// initializeControlPort implements spec §4.4 initialize_control_port:
// zero the port record, set its identifiers and speed-derived default
// path cost, and enable change detection and auto-config.
func (e *Engine) initializeControlPort(idx StpIndex, port PortNumber, priority uint8, speed Speed) {
	inst := e.table.At(idx)
	p := &inst.Ports[port]
	*p = StpPort{}
	p.PortNumber = port
	p.PortID = NewPortId(priority>>4, port)
	p.PathCost = DefaultPathCost(speed, e.cfg.ExtendMode)
	p.ChangeDetectionEnabled = true
	p.AutoConfig = true
	// A port that has not yet heard a BPDU is designated for its own
	// segment by default, so root selection never prefers it over the
	// bridge itself until a peer's BPDU proves otherwise.
	p.DesignatedRoot = inst.Bridge.RootID
	p.DesignatedCost = inst.Bridge.RootPathCost
	p.DesignatedBridge = inst.Bridge.BridgeID
	p.DesignatedPort = p.PortID
	p.Modified = ^ModifiedField(0)
}

// enablePort implements spec §4.4 enable_port: add the port to the
// enable mask, (re)initialize it, and run port_state_selection.
func (e *Engine) enablePort(idx StpIndex, port PortNumber) {
	inst := e.table.At(idx)
	// Invariant (spec §3): every enable_mask bit has its control_mask
	// bit set too.
	inst.ControlMask.Set(port)
	inst.EnableMask.Set(port)
	e.portStateSelection(idx)
	e.maybeActivate(idx)
}

// disablePort implements spec §4.4 disable_port.
func (e *Engine) disablePort(idx StpIndex, port PortNumber) {
	inst := e.table.At(idx)
	p := &inst.Ports[port]

	p.State = PortDisabled
	e.becomeDesignated(idx, port)
	inst.EnableMask.Clear(port)
	p.MessageAge.Stop()
	p.ForwardDelay.Stop()
	p.Hold.Stop()
	p.RootProtect.Stop()

	e.configurationUpdate(idx)
	e.portStateSelection(idx)

	if inst.Bridge.RootPort == NoPort {
		inst.HelloTimer.Start(0)
		e.configBpduGeneration(idx)
	}
	e.topologyChangeDetection(idx)
	e.maybeDeactivate(idx)
}

// EnablePort runs enable_port on idx/port (spec §4.4): marks the port
// operationally up and runs selection. Intended to be called from
// inside a Submit callback so it executes on the dispatch goroutine.
func (e *Engine) EnablePort(idx StpIndex, port PortNumber, priority uint8, speed Speed) {
	e.initializeControlPort(idx, port, priority, speed)
	e.enablePort(idx, port)
}

// DisablePort runs disable_port on idx/port (spec §4.4).
func (e *Engine) DisablePort(idx StpIndex, port PortNumber) {
	e.disablePort(idx, port)
}

// EnterControlMask adds port to idx's control mask without enabling it
// operationally (spec lifecycle: "entered into control_mask on
// configuration"). enable_mask membership additionally requires
// EnablePort once the link comes up.
func (e *Engine) EnterControlMask(idx StpIndex, port PortNumber, priority uint8, speed Speed) {
	inst := e.table.At(idx)
	inst.ControlMask.Set(port)
	e.initializeControlPort(idx, port, priority, speed)
}

// LeaveControlMask removes port from idx's control and enable masks and
// zeroes its record (spec lifecycle: "fully zeroed on control-mask
// removal").
func (e *Engine) LeaveControlMask(idx StpIndex, port PortNumber) {
	inst := e.table.At(idx)
	if inst.EnableMask.Has(port) {
		e.disablePort(idx, port)
	}
	inst.ControlMask.Clear(port)
	inst.Ports[port] = StpPort{PortNumber: port}
}

// maybeActivate implements the Config -> Active lifecycle transition:
// at least one control port enabled and operationally up.
func (e *Engine) maybeActivate(idx StpIndex) {
	inst := e.table.At(idx)
	if inst.State == InstanceConfig && !inst.EnableMask.Empty() {
		inst.State = InstanceActive
		inst.Bridge.ProtocolVersion = ProtocolVersionClassic
	}
}

// maybeDeactivate implements the Active -> Config transition: the enable
// mask has emptied.
func (e *Engine) maybeDeactivate(idx StpIndex) {
	inst := e.table.At(idx)
	if inst.State == InstanceActive && inst.EnableMask.Empty() {
		inst.State = InstanceConfig
		inst.Bridge.ProtocolVersion = ProtocolVersionRSTP
	}
}
