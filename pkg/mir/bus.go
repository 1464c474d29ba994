// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package mir

// BusKind distinguishes a multiset (cumulative product) bus from a
// logarithmic-derivative (cumulative sum of reciprocals) one.
type BusKind int

// Bus kinds.
const (
	BusMultiset BusKind = iota
	BusLogup
)

// Bus is a virtual column representing a multiset equality or a logup
// lookup (spec.md §3.2 "Bus entity"). Columns[i] is always a BusOp node
// and Latches[i] its selector/multiplicity, added by bus_enforce
// statements (spec.md §4.3).
type Bus struct {
	Name    string
	Kind    BusKind
	Columns []NodeRef
	Latches []NodeRef
	First   NodeRef
	Last    NodeRef
}
