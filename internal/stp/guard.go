package stp

// Guard and fast-extension state is global per physical port, not
// per-VLAN-instance (spec §3 "Global engine state... port-wide masks for
// BPDU Guard / Root Guard / PortFast / UplinkFast"). These setters back
// the management adapter's PortConfig handling.

// SetBpduGuard arms or disarms BPDU Guard on port, and whether a
// violation disables the port (do-disable) versus only drops the frame.
func (e *Engine) SetBpduGuard(port PortNumber, enabled, doDisable bool) {
	if enabled {
		e.bpduGuardMask.Set(port)
	} else {
		e.bpduGuardMask.Clear(port)
	}
	if doDisable {
		e.bpduGuardShutdownMask.Set(port)
	} else {
		e.bpduGuardShutdownMask.Clear(port)
	}
}

// BpduGuardCheck reports whether port has BPDU Guard armed and, if so,
// whether a violation should disable the port outright rather than just
// drop the offending frame and count it (spec §4.6, scenario S3).
func (e *Engine) BpduGuardCheck(port PortNumber) (armed bool, doDisable bool) {
	return e.bpduGuardMask.Has(port), e.bpduGuardShutdownMask.Has(port)
}

// TripBpduGuard marks port as shut down by BPDU Guard.
func (e *Engine) TripBpduGuard(port PortNumber) {
	e.bpduGuardTrippedMask.Set(port)
}

// BpduGuardTripped reports whether port was shut down by BPDU Guard.
func (e *Engine) BpduGuardTripped(port PortNumber) bool {
	return e.bpduGuardTrippedMask.Has(port)
}

// ClearBpduGuardTrip releases a BPDU-Guard-tripped port (operator
// re-enable).
func (e *Engine) ClearBpduGuardTrip(port PortNumber) {
	e.bpduGuardTrippedMask.Clear(port)
}

// SetRootGuard arms or disarms Root Guard on port.
func (e *Engine) SetRootGuard(port PortNumber, enabled bool) {
	if enabled {
		e.rootGuardMask.Set(port)
	} else {
		e.rootGuardMask.Clear(port)
	}
}

// RootGuardArmed reports whether Root Guard is configured on port.
func (e *Engine) RootGuardArmed(port PortNumber) bool {
	return e.rootGuardMask.Has(port)
}

// SetPortFastAdmin sets the administrative PortFast flag for port. The
// operational flag tracks it until a config BPDU is received on the
// port (spec scenario S6).
func (e *Engine) SetPortFastAdmin(port PortNumber, enabled bool) {
	if enabled {
		e.portFastAdminMask.Set(port)
		e.portFastOperMask.Set(port)
	} else {
		e.portFastAdminMask.Clear(port)
		e.portFastOperMask.Clear(port)
	}
}

// clearPortFastOperational disables PortFast operationally on port
// without touching the admin flag, used when a BPDU is received on a
// PortFast-operational port (spec scenario S6, and RSTP-version BPDUs
// per spec §4.4 received_config_bpdu).
func (e *Engine) clearPortFastOperational(port PortNumber) {
	e.portFastOperMask.Clear(port)
}

// SetUplinkFastAdmin arms or disarms UplinkFast eligibility for port.
func (e *Engine) SetUplinkFastAdmin(port PortNumber, enabled bool) {
	if enabled {
		e.uplinkFastAdminMask.Set(port)
	} else {
		e.uplinkFastAdminMask.Clear(port)
	}
}

// SetEngineEnabled sets the administrative global-enable flag for port;
// clearing it also clears the operational flag. It never sets the
// operational flag.
func (e *Engine) SetEngineEnabled(port PortNumber, admin bool) {
	if admin {
		e.engineEnabledAdmin.Set(port)
	} else {
		e.engineEnabledAdmin.Clear(port)
		e.engineEnabledOper.Clear(port)
	}
}

// EngineEnabledOperational reports whether STP processing is globally
// active on port.
func (e *Engine) EngineEnabledOperational(port PortNumber) bool {
	return e.engineEnabledOper.Has(port)
}
