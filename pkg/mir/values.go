// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package mir

import (
	"github.com/airscript-lang/airscript/pkg/field"
	"github.com/airscript-lang/airscript/pkg/graph"
)

// Value is the sum type of MIR leaf values (spec.md §3.2 "Value
// variants"). Unlike Operation, a Value carries no child operands of its
// own — it is pure leaf data, possibly parameterized by constants.
type Value interface {
	isValue()
}

type valueBase struct{}

func (valueBase) isValue() {}

// ConstFelt is a scalar field-element constant.
type ConstFelt struct {
	valueBase
	V field.Felt
}

// ConstVector is a constant vector of field elements.
type ConstVector struct {
	valueBase
	V []field.Felt
}

// ConstMatrix is a constant matrix of field elements.
type ConstMatrix struct {
	valueBase
	V [][]field.Felt
}

// TraceAccess reads a single trace cell: segment/column at the current
// row shifted by RowOffset.
type TraceAccess struct {
	valueBase
	Segment   uint8
	Column    uint16
	RowOffset int
}

// TraceAccessBinding names a contiguous run of columns within a segment,
// used when an evaluator parameter binds to a column group rather than a
// single column.
type TraceAccessBinding struct {
	valueBase
	Segment uint8
	Offset  uint16
	Size    uint16
}

// PeriodicColumn references a declared periodic column by name; Cycle is
// its literal value sequence (length a power of two, >= 2).
type PeriodicColumn struct {
	valueBase
	Name  string
	Cycle []field.Felt
}

// PublicInput references a (vector-shaped) public input, optionally
// indexed.
type PublicInput struct {
	valueBase
	Name  string
	Index int
}

// PublicInputTable references a table-shaped public input. BoundBusName
// is set by the translator's bus back-patching post-pass (spec.md §4.3
// step 6) when this table is bound to a bus's first/last boundary.
type PublicInputTable struct {
	valueBase
	Name         string
	NumCols      int
	BoundBusName string
	BoundBus     graph.Ref[Bus]
}

// RandomValue references the i'th verifier-supplied challenge, `$rand[i]`.
type RandomValue struct {
	valueBase
	Index int
}

// BusAccess reads the running bus column's value, optionally shifted.
type BusAccess struct {
	valueBase
	Bus       graph.Ref[Bus]
	RowOffset int
}

// Null denotes an explicitly empty boundary value (`p.last = null`).
type Null struct{ valueBase }

// Unconstrained denotes a boundary left deliberately unconstrained.
type Unconstrained struct{ valueBase }
