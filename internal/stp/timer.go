package stp

// Timer is a small counter with an active flag (spec §4.1). It increments
// on every protocol tick; the caller supplies the expiry limit at check
// time so limits can change dynamically (e.g. an operator lowering
// max_age while a message-age timer is running).
type Timer struct {
	active bool
	value  uint16
}

// Start arms the timer at the given initial value.
func (t *Timer) Start(value uint16) {
	t.active = true
	t.value = value
}

// Stop disarms the timer. Value is left as-is for inspection.
func (t *Timer) Stop() {
	t.active = false
}

// Active reports whether the timer is currently running.
func (t *Timer) Active() bool {
	return t.active
}

// Value returns the current counter value.
func (t *Timer) Value() uint16 {
	return t.value
}

// Tick advances an active timer by one and reports whether it just
// expired against limit. An inactive timer is untouched and never
// reported as expired. On expiry the timer is deactivated.
func (t *Timer) Tick(limit uint16) bool {
	if !t.active {
		return false
	}
	t.value++
	if t.value >= limit {
		t.active = false
		return true
	}
	return false
}
