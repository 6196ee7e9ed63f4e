package stp

// LookupVlan returns the instance index configured for vlanID, if any.
// Exported for the management adapter's BPDU-ingress VLAN resolution
// (spec §4.6).
func (e *Engine) LookupVlan(vlanID uint16) (StpIndex, bool) {
	return e.table.Lookup(vlanID)
}

// VlanID returns the VLAN id of the instance at idx.
func (e *Engine) VlanID(idx StpIndex) uint16 {
	return e.table.At(idx).VlanID
}

// InstanceCount returns the configured instance-table capacity, for
// callers that need to range over every possible StpIndex (e.g. the
// management adapter's BPDU Guard port-wide disable).
func (e *Engine) InstanceCount() int {
	return e.table.Len()
}

// HasControlPort reports whether port is a member of idx's control mask.
func (e *Engine) HasControlPort(idx StpIndex, port PortNumber) bool {
	return e.table.At(idx).ControlMask.Has(port)
}

// SetUntagged adds or removes port from idx's untag mask (spec §4.6: "the
// port's untagged VLAN" resolves classic, untagged BPDU ingress). A port
// belongs to at most one untagged VLAN at a time; the management adapter
// is responsible for clearing the previous one before setting a new one.
func (e *Engine) SetUntagged(idx StpIndex, port PortNumber, member bool) {
	inst := e.table.At(idx)
	if member {
		inst.UntagMask.Set(port)
	} else {
		inst.UntagMask.Clear(port)
	}
}

// UntaggedVlanForPort returns the instance for which port is an untagged
// member, if any. Used to resolve classic (non-PVST) BPDU ingress, which
// carries no VLAN tag of its own.
func (e *Engine) UntaggedVlanForPort(port PortNumber) (StpIndex, bool) {
	for i := 0; i < e.table.Len(); i++ {
		idx := StpIndex(i)
		inst := e.table.At(idx)
		if inst.State == InstanceFree {
			continue
		}
		if inst.UntagMask.Has(port) {
			return idx, true
		}
	}
	return 0, false
}

// PortRole returns the current role of (idx, port), RoleDisabled if the
// port is not enabled.
func (e *Engine) PortRole(idx StpIndex, port PortNumber) PortRole {
	return e.table.At(idx).Ports[port].Role
}

// PortState returns the current 802.1D state of (idx, port).
func (e *Engine) PortState(idx StpIndex, port PortNumber) PortState {
	return e.table.At(idx).Ports[port].State
}

// RootPathCost returns the VLAN's current root path cost, for use when
// building a template BPDU outside the dispatch loop's own send path
// (e.g. an adapter-level debug dump).
func (e *Engine) RootPathCost(idx StpIndex) uint32 {
	return e.table.At(idx).Bridge.RootPathCost
}
