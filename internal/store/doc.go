// Package store persists the per-VLAN, per-port state records the engine
// publishes on every change, and adapts the engine's synchronous
// publication callback to an external, fallible Publisher.
package store
