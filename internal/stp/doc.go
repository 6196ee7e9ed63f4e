// Package stp implements the per-VLAN Spanning Tree (PVST+) protocol core:
// the per-VLAN instance table, the BPDU codec, the 802.1D state-transition
// operations, and the fixed-rate scheduler that drives every timer.
//
// The engine is strictly single-threaded cooperative: a single goroutine
// runs Engine.Run and owns every field reachable from it. Callers on other
// goroutines interact only through channels drained by that loop.
package stp
