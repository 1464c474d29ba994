// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package ast

import (
	"github.com/airscript-lang/airscript/pkg/field"
	"github.com/airscript-lang/airscript/pkg/source"
)

// Expr is the surface expression sum type.
type Expr interface {
	Span() source.Span
	isExpr()
}

type exprBase struct {
	span source.Span
}

func (e exprBase) Span() source.Span { return e.span }
func (exprBase) isExpr()             {}

// ConstFelt is a literal field-element constant.
type ConstFelt struct {
	exprBase
	Value field.Felt
}

// NewConstFelt constructs a felt literal.
func NewConstFelt(span source.Span, v field.Felt) *ConstFelt {
	return &ConstFelt{exprBase{span}, v}
}

// VectorLit is a vector literal/aggregate `[a, b, c]`.
type VectorLit struct {
	exprBase
	Elements []Expr
}

// NewVectorLit constructs a vector literal.
func NewVectorLit(span source.Span, elems []Expr) *VectorLit {
	return &VectorLit{exprBase{span}, elems}
}

// MatrixLit is a matrix literal `[[a,b],[c,d]]`.
type MatrixLit struct {
	exprBase
	Rows [][]Expr
}

// NewMatrixLit constructs a matrix literal.
func NewMatrixLit(span source.Span, rows [][]Expr) *MatrixLit {
	return &MatrixLit{exprBase{span}, rows}
}

// BinOpKind enumerates surface binary operators.
type BinOpKind int

// Surface binary operators.
const (
	BinAdd BinOpKind = iota
	BinSub
	BinMul
	BinExp // `**`, right operand must be a constant
	BinEq  // `=`, lowers to Enf(Sub(lhs,rhs))
)

// BinOp is a binary expression.
type BinOp struct {
	exprBase
	Op          BinOpKind
	Left, Right Expr
}

// NewBinOp constructs a binary expression.
func NewBinOp(span source.Span, op BinOpKind, l, r Expr) *BinOp {
	return &BinOp{exprBase{span}, op, l, r}
}

// SymbolKind classifies how a SymbolAccess was resolved by the (external)
// semantic analyzer, per spec.md §4.3's identifier lookup order.
type SymbolKind int

// Symbol kinds, in the lookup order the spec prescribes.
const (
	// SymbolTraceSegment addresses `$main`/`$aux`-style trace segments.
	SymbolTraceSegment SymbolKind = iota
	// SymbolLocal is a lexically bound let/comprehension/parameter variable.
	SymbolLocal
	// SymbolTraceColumn is a direct trace-column binding.
	SymbolTraceColumn
	// SymbolPublicInput addresses a declared public input.
	SymbolPublicInput
	// SymbolRandomValue addresses `$rand[i]`.
	SymbolRandomValue
	// SymbolPeriodicColumn addresses a declared periodic column.
	SymbolPeriodicColumn
	// SymbolBus addresses a declared bus.
	SymbolBus
	// SymbolFunction addresses a declared function.
	SymbolFunction
	// SymbolEvaluator addresses a declared evaluator.
	SymbolEvaluator
)

// SymbolAccess is a resolved identifier reference.
type SymbolAccess struct {
	exprBase
	Kind SymbolKind
	Name string
	// Index is used for $rand[i] (SymbolRandomValue), for a public-input
	// vector index, and is -1 otherwise.
	Index int
	// Segment and Column apply to SymbolTraceColumn.
	Segment uint8
	Column  uint16
}

// NewSymbolAccess constructs a resolved symbol reference.
func NewSymbolAccess(span source.Span, kind SymbolKind, name string) *SymbolAccess {
	return &SymbolAccess{exprBase{span}, kind, name, -1, 0, 0}
}

// BoundaryEdge distinguishes `col.first` from `col.last`.
type BoundaryEdge int

// Boundary edges.
const (
	BoundaryFirst BoundaryEdge = iota
	BoundaryLast
)

// BoundedSymbolAccess is `col.first` / `col.last` / `bus.first` /
// `bus.last`.
type BoundedSymbolAccess struct {
	exprBase
	Symbol *SymbolAccess
	Edge   BoundaryEdge
}

// NewBoundedSymbolAccess constructs a `.first`/`.last` access.
func NewBoundedSymbolAccess(span source.Span, sym *SymbolAccess, edge BoundaryEdge) *BoundedSymbolAccess {
	return &BoundedSymbolAccess{exprBase{span}, sym, edge}
}

// AccessKind distinguishes a plain access from an indexed or sliced one.
type AccessKind int

// Accessor kinds.
const (
	AccessDefault AccessKind = iota
	AccessIndex
	AccessSlice
)

// Access is `base[i]`, `base[lo..hi]`, or a bare `base` carrying an
// explicit row offset, e.g. `col'` (next row).
type Access struct {
	exprBase
	Base       Expr
	Kind       AccessKind
	Index      int // AccessIndex
	RangeLo    int // AccessSlice
	RangeHi    int // AccessSlice, exclusive
	RowOffset  int
}

// NewAccess constructs an accessor expression.
func NewAccess(span source.Span, base Expr, kind AccessKind, rowOffset int) *Access {
	return &Access{exprBase{span}, base, kind, 0, 0, 0, rowOffset}
}

// Callee identifies what a Call invokes.
type CalleeKind int

// Callee kinds.
const (
	CalleeFunction CalleeKind = iota
	CalleeEvaluator
	CalleeBuiltinSum
	CalleeBuiltinProd
)

// NullLit is the `null` literal used on a boundary constraint's
// right-hand side (`enf p.last = null;`).
type NullLit struct{ exprBase }

// NewNullLit constructs a null literal.
func NewNullLit(span source.Span) *NullLit { return &NullLit{exprBase{span}} }

// UnconstrainedLit is the `unconstrained` literal, leaving a boundary
// deliberately unconstrained.
type UnconstrainedLit struct{ exprBase }

// NewUnconstrainedLit constructs an unconstrained literal.
func NewUnconstrainedLit(span source.Span) *UnconstrainedLit { return &UnconstrainedLit{exprBase{span}} }

// RangeLit is a `lo..hi` range literal, used as a comprehension's
// iterable source when it ranges over integers (and, via
// bus_enforce's mandated `0..1` range, as a sanity-checked singleton
// iteration domain).
type RangeLit struct {
	exprBase
	Lo, Hi int
}

// NewRangeLit constructs an integer range literal.
func NewRangeLit(span source.Span, lo, hi int) *RangeLit { return &RangeLit{exprBase{span}, lo, hi} }

// Call is a function/evaluator/builtin invocation.
type Call struct {
	exprBase
	Callee CalleeKind
	Name   string // empty for builtins
	Args   []Expr
}

// NewCall constructs a call expression.
func NewCall(span source.Span, callee CalleeKind, name string, args []Expr) *Call {
	return &Call{exprBase{span}, callee, name, args}
}

// Iterable is one `x in iterable` clause of a comprehension.
type Iterable struct {
	Binder string
	Source Expr
}

// Comprehension captures `for`/`list comprehension` syntax shared by
// `enforce ... for ...`, `enforce all ...`, and `bus_enforce ...`.
type Comprehension struct {
	exprBase
	Iterables []Iterable
	Body      Expr
	// Selector is the optional `when`/guard expression.
	Selector Expr
}

// NewComprehension constructs a comprehension.
func NewComprehension(span source.Span, iterables []Iterable, body, selector Expr) *Comprehension {
	return &Comprehension{exprBase{span}, iterables, body, selector}
}

// BusCallKind distinguishes `.insert(...)` from `.remove(...)`.
type BusCallKind int

// Bus operation kinds at the surface.
const (
	BusInsert BusCallKind = iota
	BusRemove
)

// BusCall is `bus.insert(args) when selector` / `bus.remove(args) with
// multiplicity`.
type BusCall struct {
	exprBase
	Bus      string
	Kind     BusCallKind
	Args     []Expr
	Selector Expr // the `when`/`with multiplicity` expression
}

// NewBusCall constructs a bus operation call.
func NewBusCall(span source.Span, bus string, kind BusCallKind, args []Expr, selector Expr) *BusCall {
	return &BusCall{exprBase{span}, bus, kind, args, selector}
}
