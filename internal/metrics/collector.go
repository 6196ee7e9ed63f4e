package stpmetrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// -------------------------------------------------------------------------
// Prometheus Metric Constants
// -------------------------------------------------------------------------

const (
	namespace = "pvstd"
	subsystem = "stp"
)

// Label names for STP metrics.
const (
	labelVlan      = "vlan"
	labelIface     = "interface"
	labelFromState = "from_state"
	labelToState   = "to_state"
	labelClass     = "class"
)

// -------------------------------------------------------------------------
// Collector — Prometheus PVST+ Metrics
// -------------------------------------------------------------------------

// Collector holds all PVST+ Prometheus metrics.
//
// Metrics are designed for switch-fleet monitoring:
//   - Instances tracks the number of currently running per-VLAN STP
//     instances.
//   - BPDU counters track TX/RX/drop volumes per VLAN and interface.
//   - PortState gauges expose the current port state per VLAN/interface
//     for dashboards (0=Disabled..4=Forwarding, see stp.PortState).
//   - TopologyChanges counts TCN events for flap alerting.
//   - StateTransitions counts port-role FSM transitions for alerting.
type Collector struct {
	// Instances tracks the number of currently running STP instances
	// (one per active VLAN). Incremented on instance creation, decremented
	// on instance teardown.
	Instances prometheus.Gauge

	// BpdusSent counts BPDUs transmitted, labeled by VLAN and interface.
	BpdusSent *prometheus.CounterVec

	// BpdusReceived counts BPDUs received, labeled by VLAN and interface.
	BpdusReceived *prometheus.CounterVec

	// BpdusDropped counts BPDUs dropped, labeled by VLAN, interface, and
	// drop class (e.g., "bpdu_guard", "malformed", "vlan_mismatch").
	BpdusDropped *prometheus.CounterVec

	// PortState exposes the current numeric port state per VLAN/interface,
	// matching stp.PortState's ordinal encoding.
	PortState *prometheus.GaugeVec

	// TopologyChanges counts topology change notifications seen per VLAN.
	TopologyChanges *prometheus.CounterVec

	// StateTransitions counts port-role/state FSM transitions. Each counter
	// is labeled with the old and new state for precise alerting (e.g.,
	// Blocking->Forwarding).
	StateTransitions *prometheus.CounterVec
}

// NewCollector creates a Collector with all PVST+ metrics registered
// against the provided prometheus.Registerer. If reg is nil,
// prometheus.DefaultRegisterer is used.
//
// All metrics are created with the "pvstd_stp_" prefix (namespace_subsystem)
// to avoid collisions with other exporters.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.Instances,
		c.BpdusSent,
		c.BpdusReceived,
		c.BpdusDropped,
		c.PortState,
		c.TopologyChanges,
		c.StateTransitions,
	)

	return c
}

// newMetrics creates all Prometheus metric vectors without registering them.
func newMetrics() *Collector {
	portLabels := []string{labelVlan, labelIface}
	dropLabels := []string{labelVlan, labelIface, labelClass}
	tcLabels := []string{labelVlan}
	transitionLabels := []string{labelVlan, labelIface, labelFromState, labelToState}

	return &Collector{
		Instances: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "instances",
			Help:      "Number of currently active per-VLAN STP instances.",
		}),

		BpdusSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bpdus_sent_total",
			Help:      "Total BPDUs transmitted.",
		}, portLabels),

		BpdusReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bpdus_received_total",
			Help:      "Total BPDUs received.",
		}, portLabels),

		BpdusDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bpdus_dropped_total",
			Help:      "Total BPDUs dropped, by class (bpdu_guard, malformed, vlan_mismatch, ...).",
		}, dropLabels),

		PortState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "port_state",
			Help:      "Current port state per VLAN/interface (0=Disabled, 1=Blocking, 2=Listening, 3=Learning, 4=Forwarding).",
		}, portLabels),

		TopologyChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "topology_changes_total",
			Help:      "Total topology change notifications observed per VLAN.",
		}, tcLabels),

		StateTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "state_transitions_total",
			Help:      "Total port state FSM transitions.",
		}, transitionLabels),
	}
}

// -------------------------------------------------------------------------
// Instance Lifecycle
// -------------------------------------------------------------------------

// RegisterInstance increments the active instances gauge.
// Called when a new per-VLAN STP instance is created.
func (c *Collector) RegisterInstance() {
	c.Instances.Inc()
}

// UnregisterInstance decrements the active instances gauge.
// Called when a per-VLAN STP instance is torn down.
func (c *Collector) UnregisterInstance() {
	c.Instances.Dec()
}

// -------------------------------------------------------------------------
// BPDU Counters
// -------------------------------------------------------------------------

// IncBpdusSent increments the transmitted BPDU counter for the given
// VLAN and interface.
func (c *Collector) IncBpdusSent(vlanID uint16, iface string) {
	c.BpdusSent.WithLabelValues(vlanLabel(vlanID), iface).Inc()
}

// IncBpdusReceived increments the received BPDU counter for the given
// VLAN and interface.
func (c *Collector) IncBpdusReceived(vlanID uint16, iface string) {
	c.BpdusReceived.WithLabelValues(vlanLabel(vlanID), iface).Inc()
}

// IncBpdusDropped increments the dropped BPDU counter for the given VLAN,
// interface, and drop class.
func (c *Collector) IncBpdusDropped(vlanID uint16, iface, class string) {
	c.BpdusDropped.WithLabelValues(vlanLabel(vlanID), iface, class).Inc()
}

// -------------------------------------------------------------------------
// Port State
// -------------------------------------------------------------------------

// SetPortState records the current numeric port state for a VLAN/interface
// pair, matching stp.PortState's ordinal encoding.
func (c *Collector) SetPortState(vlanID uint16, iface string, state int) {
	c.PortState.WithLabelValues(vlanLabel(vlanID), iface).Set(float64(state))
}

// -------------------------------------------------------------------------
// Topology Changes and State Transitions
// -------------------------------------------------------------------------

// IncTopologyChanges increments the topology change counter for a VLAN.
// Called when the engine observes or originates a TCN (spec §4.6).
func (c *Collector) IncTopologyChanges(vlanID uint16) {
	c.TopologyChanges.WithLabelValues(vlanLabel(vlanID)).Inc()
}

// RecordStateTransition increments the state transition counter with the
// old and new port state labels.
func (c *Collector) RecordStateTransition(vlanID uint16, iface, from, to string) {
	c.StateTransitions.WithLabelValues(vlanLabel(vlanID), iface, from, to).Inc()
}

// vlanLabel formats a VLAN id as a Prometheus label value.
func vlanLabel(vlanID uint16) string {
	return strconv.FormatUint(uint64(vlanID), 10)
}
