// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

// Package ast defines the shape of a fully-parsed AirScript program: the
// boundary the real parser/lexer (an external collaborator, spec.md §1)
// is assumed to produce. By the time a Program reaches this compiler,
// imports have been resolved, AST-level constant propagation has already
// run, and every identifier has been classified (spec.md §4.3).
package ast

import (
	"github.com/airscript-lang/airscript/pkg/field"
	"github.com/airscript-lang/airscript/pkg/source"
)

// Type is the surface type system: felt, vector[N], matrix[R,C] (spec.md
// §6.1).
type Type struct {
	Kind TypeKind
	Rows int
	Cols int
}

// TypeKind distinguishes the three surface types.
type TypeKind int

// Surface type kinds.
const (
	TypeFelt TypeKind = iota
	TypeVector
	TypeMatrix
)

// Felt is the scalar surface type.
var Felt = Type{Kind: TypeFelt}

// Vector constructs a vector[n] surface type.
func Vector(n int) Type { return Type{Kind: TypeVector, Rows: n} }

// Matrix constructs a matrix[r,c] surface type.
func Matrix(r, c int) Type { return Type{Kind: TypeMatrix, Rows: r, Cols: c} }

// TraceSegment is a trace-segment declaration ("main" or "aux"), naming
// its columns. A column may itself be a group (width > 1), as in
// `c1[3]`.
type TraceSegment struct {
	Name    string
	Columns []ColumnDecl
}

// ColumnDecl declares one (possibly grouped) trace column.
type ColumnDecl struct {
	Name  string
	Width int // 1 for a scalar column, >1 for a group
	Span  source.Span
}

// PublicInputKind distinguishes a vector public input from a table one.
type PublicInputKind int

// Public input kinds.
const (
	PublicInputVector PublicInputKind = iota
	PublicInputTable
)

// PublicInputDecl declares one public input.
type PublicInputDecl struct {
	Name string
	Kind PublicInputKind
	// Size is the vector length (PublicInputVector) or the number of
	// columns (PublicInputTable).
	Size int
	Span source.Span
}

// BusKind distinguishes a multiset bus from a logarithmic-derivative one.
type BusKind int

// Bus kinds.
const (
	BusMultiset BusKind = iota
	BusLogup
)

// BusDecl declares one bus.
type BusDecl struct {
	Name string
	Kind BusKind
	Span source.Span
}

// PeriodicColumnDecl declares one periodic column; Values length must be
// a power of two, at least 2.
type PeriodicColumnDecl struct {
	Name   string
	Values []field.Felt
	Span   source.Span
}

// Param is a function/evaluator formal parameter. For an evaluator, Type
// names the trace-column group it binds (its Width matters, not a
// felt/vector/matrix shape).
type Param struct {
	Name string
	Type Type
	Span source.Span
}

// FunctionDecl is a pure `fn` declaration.
type FunctionDecl struct {
	Name       string
	Params     []Param
	ReturnType Type
	Body       []Statement
	Span       source.Span
}

// EvaluatorDecl is an `ev` declaration. Params are grouped per trace
// segment the evaluator consumes (e.g. `ev foo([main_cols], [aux_cols])`).
type EvaluatorDecl struct {
	Name   string
	Params [][]Param
	Body   []Statement
	Span   source.Span
}

// Module is a single compiled unit: either a root `def` module (which may
// declare trace columns, public inputs, buses, periodic columns, and
// constraint blocks) or a library `mod` module (which may only export
// constants, functions, and evaluators).
type Module struct {
	Name   string
	IsRoot bool

	TraceSegments   []TraceSegment
	PublicInputs    []PublicInputDecl
	Buses           []BusDecl
	PeriodicColumns []PeriodicColumnDecl

	Functions  []FunctionDecl
	Evaluators []EvaluatorDecl

	BoundaryConstraints  []Statement
	IntegrityConstraints []Statement

	Span source.Span
}
