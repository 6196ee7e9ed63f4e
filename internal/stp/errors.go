package stp

import "errors"

// Error kinds (spec §7). Frame-level errors are recovered locally
// (drop-and-count, never thrown past the codec/engine boundary);
// configuration errors are reported to the sender as ErrConfigRejected
// without mutating engine state; resource exhaustion is fatal at startup
// and surfaces as ErrConfigRejected at runtime; timer expiries cannot
// fail; guard violations are not errors to upstream callers, they log and
// transition port state.
var (
	// ErrInvalidBpdu covers format errors, unknown BPDU types, and
	// out-of-range fields.
	ErrInvalidBpdu = errors.New("stp: invalid bpdu")

	// ErrStaleBpdu is returned when message_age >= max_age on a non-TCN
	// BPDU.
	ErrStaleBpdu = errors.New("stp: stale bpdu")

	// ErrGuardViolation covers a Root Guard superior-BPDU trip or a BPDU
	// Guard trigger. Not propagated as an error to callers; defined here
	// for use in logging and tests.
	ErrGuardViolation = errors.New("stp: guard violation")

	// ErrConfigRejected covers bad priority/timer/path-cost ranges, or
	// references to an unknown VLAN or port.
	ErrConfigRejected = errors.New("stp: configuration rejected")

	// ErrResourceExhausted covers an empty instance-slot table or an
	// exhausted port-channel id pool.
	ErrResourceExhausted = errors.New("stp: resource exhausted")
)
