package stp

// portEvent is one driver of a port's Blocking/Listening/Learning/
// Forwarding walk (spec §4.4 port_state_selection). The walk itself is a
// pure function over a transition table, the same shape as the teacher's
// BFD session-state machine, generalized from BFD's single flat 4-state
// machine to the role-gated walk 802.1D defines: only Root and
// Designated ports advance past Blocking.
type portEvent uint8

const (
	// eventBecomeBlocking fires when port_state_selection assigns a
	// port the Disabled or Alternate role; the port drops straight to
	// Blocking from any state.
	eventBecomeBlocking portEvent = iota
	// eventForwardDelayExpiry fires when a Root or Designated port's
	// forward_delay timer expires, advancing it one step.
	eventForwardDelayExpiry
	// eventPortFastForward fires once, when a Root or Designated port
	// is first assigned its role while PortFast is operationally
	// active, skipping the walk entirely (spec scenario S6).
	eventPortFastForward
	// eventDisable drops a port to Disabled from any state; disable_port
	// sets PortDisabled directly rather than applying this event.
	eventDisable
)

func (e portEvent) String() string {
	switch e {
	case eventBecomeBlocking:
		return "BecomeBlocking"
	case eventForwardDelayExpiry:
		return "ForwardDelayExpiry"
	case eventPortFastForward:
		return "PortFastForward"
	case eventDisable:
		return "Disable"
	default:
		return "Unknown"
	}
}

type portStateEvent struct {
	state PortState
	event portEvent
}

// portFsmTable is the Listening->Learning->Forwarding walk plus the
// PortFast shortcut to Forwarding; the always-applicable
// Disable/BecomeBlocking transitions live in ApplyPortEvent. Entries not
// present leave the port in its current state (ApplyPortEvent returns
// changed=false), mirroring the teacher's fsm.go "no entry found" default.
var portFsmTable = map[portStateEvent]PortState{
	{PortBlocking, eventForwardDelayExpiry}:  PortListening,
	{PortListening, eventForwardDelayExpiry}: PortLearning,
	{PortLearning, eventForwardDelayExpiry}:  PortForwarding,

	{PortDisabled, eventPortFastForward}:  PortForwarding,
	{PortBlocking, eventPortFastForward}:  PortForwarding,
	{PortListening, eventPortFastForward}: PortForwarding,
	{PortLearning, eventPortFastForward}:  PortForwarding,
}

// ApplyPortEvent looks up the transition for (state, event) and returns
// the resulting state and whether it changed. eventBecomeBlocking and
// eventDisable are handled outside the table since they apply
// unconditionally from any state.
func ApplyPortEvent(state PortState, event portEvent) (PortState, bool) {
	switch event {
	case eventBecomeBlocking:
		return PortBlocking, state != PortBlocking
	case eventDisable:
		return PortDisabled, state != PortDisabled
	}

	next, ok := portFsmTable[portStateEvent{state, event}]
	if !ok {
		return state, false
	}
	return next, true
}
