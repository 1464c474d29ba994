// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package air

// BusKind distinguishes a multiset (cumulative product) bus from a
// logup (logarithmic-derivative) bus (spec.md §4.4), mirroring the MIR
// level's own BusKind.
type BusKind int

// Bus kinds.
const (
	BusMultiset BusKind = iota
	BusLogup
)

// BusOpKind distinguishes inserting a tuple into a bus from removing
// one (spec.md §4.4's T(op) term).
type BusOpKind int

// Bus operation kinds.
const (
	BusInsert BusOpKind = iota
	BusRemove
)

// BusOp is one row's contribution to a bus: a tuple of column values
// gated by a latch (0/1 selector) that decides whether the row
// participates at all.
type BusOp struct {
	Kind    BusOpKind
	Columns []NodeIndex
	Latch   NodeIndex
}

// BusBoundaryKind classifies what a bus's first/last row must equal
// (spec.md §4.4): the running accumulator starts at the bus's identity
// (Null, meaning "unconstrained by this pass, fill in the identity
// element"), is left entirely Unconstrained, must match a bound
// public-input table's accumulated value, or was already pinned to an
// ordinary expression by an explicit lowered constraint (Explicit) —
// distinct from the Null zero value so bus expansion knows not to also
// emit its own default identity constraint on top of it.
type BusBoundaryKind int

// Bus boundary kinds.
const (
	BusBoundaryNull BusBoundaryKind = iota
	BusBoundaryUnconstrained
	BusBoundaryTable
	BusBoundaryExplicit
)

// BusBoundary is a bus's first-row or last-row requirement.
type BusBoundary struct {
	Kind      BusBoundaryKind
	TableName string
}

// Bus is the AIR-level description of a multiset/logup lookup
// argument: the set of per-row operations that feed its running
// accumulator column, and the boundary values that column must take at
// the first and last row (spec.md §4.4).
type Bus struct {
	Name string
	Kind BusKind
	Ops  []BusOp
	First,
	Last BusBoundary

	// Column is the auxiliary-segment column holding this bus's running
	// accumulator (p for a multiset bus, q for a logup bus), assigned by
	// MIR→AIR lowering before bus expansion runs.
	Column uint16
}
