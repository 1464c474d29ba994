// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package mir

import (
	"github.com/airscript-lang/airscript/pkg/graph"
	"github.com/airscript-lang/airscript/pkg/source"
)

// ValueOp lifts a leaf Value into an Operation. It is the only variant
// with no operands.
type ValueOp struct {
	V Value
}

// Children implements Operation.
func (ValueOp) Children() []NodeRef { return nil }

// NewValue wraps a leaf Value as a node.
func NewValue(span source.Span, v Value) NodeRef {
	return NewNode(ValueOp{V: v}, span)
}

// RootKind distinguishes the two kinds of root a Parameter may belong to.
type RootKind int

// Root kinds a Parameter may be attached to.
const (
	RootFunction RootKind = iota
	RootEvaluator
	// RootComprehension marks a comprehension loop binder (`x` in `for x
	// in ...`). It reuses the Parameter variant rather than adding a new
	// one to the operation set, since a loop binder is structurally
	// identical leaf bookkeeping; the unroll pass (passes/unroll.go)
	// substitutes it exactly like a function parameter.
	RootComprehension
)

// Parameter is a formal parameter of a function or evaluator. Once
// attached to a root it records its Position and which root it belongs
// to (spec.md §3.2's "weak reference to that root" is realized here as
// plain metadata rather than a literal graph.Ref, since a Parameter's
// root never needs to be rewritten in place the way an expression child
// does — see DESIGN.md).
type Parameter struct {
	Name     string
	Position int
	Root     RootKind
	RootName string
}

// Children implements Operation.
func (Parameter) Children() []NodeRef { return nil }

// NewParameter constructs a parameter leaf node.
func NewParameter(span source.Span, name string, position int, root RootKind, rootName string) NodeRef {
	return NewNode(Parameter{Name: name, Position: position, Root: root, RootName: rootName}, span)
}

// Add is n-ary addition; the translator always builds binary Adds, but
// constant-folding and the bus-expansion pass both synthesize wider
// sums, so the representation supports arbitrary arity.
type Add struct{ baseOperands }

// NewAdd constructs an addition node over two or more operands.
func NewAdd(span source.Span, operands ...NodeRef) NodeRef {
	op := &Add{baseOperands{operands}}
	self := NewNode(op, span)
	attach(self, operands...)

	return self
}

// Sub is binary subtraction.
type Sub struct{ baseOperands }

// NewSub constructs lhs - rhs.
func NewSub(span source.Span, lhs, rhs NodeRef) NodeRef {
	op := &Sub{baseOperands{[]NodeRef{lhs, rhs}}}
	self := NewNode(op, span)
	attach(self, lhs, rhs)

	return self
}

// Mul is n-ary multiplication (see Add's arity note).
type Mul struct{ baseOperands }

// NewMul constructs a multiplication node over two or more operands.
func NewMul(span source.Span, operands ...NodeRef) NodeRef {
	op := &Mul{baseOperands{operands}}
	self := NewNode(op, span)
	attach(self, operands...)

	return self
}

// Exp raises its sole operand to a constant power.
type Exp struct {
	baseOperands
	Exponent uint64
}

// NewExp constructs base^exponent.
func NewExp(span source.Span, base NodeRef, exponent uint64) NodeRef {
	op := &Exp{baseOperands{[]NodeRef{base}}, exponent}
	self := NewNode(op, span)
	attach(self, base)

	return self
}

// Vector is a fixed-length aggregate of expressions.
type Vector struct{ baseOperands }

// NewVector constructs a vector aggregate.
func NewVector(span source.Span, elements ...NodeRef) NodeRef {
	op := &Vector{baseOperands{elements}}
	self := NewNode(op, span)
	attach(self, elements...)

	return self
}

// Matrix is a fixed-shape aggregate of expressions, row-major.
type Matrix struct {
	Rows int
	Cols int
	baseOperands // flattened row-major
}

// NewMatrix constructs a matrix aggregate from row-major elements.
func NewMatrix(span source.Span, rows, cols int, elements []NodeRef) NodeRef {
	op := &Matrix{Rows: rows, Cols: cols, baseOperands: baseOperands{elements}}
	self := NewNode(op, span)
	attach(self, elements...)

	return self
}

// At returns the element at (row, col) of a Matrix.
func (m *Matrix) At(row, col int) NodeRef {
	return m.Operands[row*m.Cols+col]
}

// AccessKind distinguishes the three forms an Accessor may take.
type AccessKind int

// Accessor kinds.
const (
	AccessDefault AccessKind = iota
	AccessIndex
	AccessSlice
)

// Accessor reads into an indexable (vector/matrix/trace-binding) child,
// optionally with a constant index or range, and/or a row-shift Offset
// for trace accesses (spec.md §3.2).
type Accessor struct {
	baseOperands // Operands[0] = indexable
	Kind         AccessKind
	Index        int
	RangeLo      int
	RangeHi      int
	Offset       int
}

// NewAccessor constructs an accessor node over indexable.
func NewAccessor(span source.Span, indexable NodeRef, kind AccessKind, index, rangeLo, rangeHi, offset int) NodeRef {
	op := &Accessor{
		baseOperands: baseOperands{[]NodeRef{indexable}},
		Kind:         kind,
		Index:        index,
		RangeLo:      rangeLo,
		RangeHi:      rangeHi,
		Offset:       offset,
	}
	self := NewNode(op, span)
	attach(self, indexable)

	return self
}

// If is a conditional expression/body.
type If struct{ baseOperands } // Operands: [cond, then, else]

// NewIf constructs a conditional node.
func NewIf(span source.Span, cond, then, els NodeRef) NodeRef {
	op := &If{baseOperands{[]NodeRef{cond, then, els}}}
	self := NewNode(op, span)
	attach(self, cond, then, els)

	return self
}

// For represents an (unrolled at compile time) iteration/comprehension.
// Operands holds the iterables, then each iterable's binder Parameter
// (RootComprehension-tagged) in the same order, then the body, with an
// optional guard selector appended last; use the accessor methods below
// rather than indexing Operands directly. The binders are carried as
// real operands (not just metadata) so the unroll pass can read back
// each Parameter's Name without having to re-walk the body looking for
// it.
type For struct {
	baseOperands
	numIterables int
	hasSelector  bool
}

// NewFor constructs a comprehension node. binders[i] must be the
// Parameter node translate.go bound iterables[i]'s binder to.
func NewFor(span source.Span, iterables []NodeRef, binders []NodeRef, body NodeRef, selector NodeRef) NodeRef {
	operands := make([]NodeRef, 0, 2*len(iterables)+2)
	operands = append(operands, iterables...)
	operands = append(operands, binders...)
	operands = append(operands, body)

	hasSelector := selector.Valid()
	if hasSelector {
		operands = append(operands, selector)
	}

	op := &For{baseOperands{operands}, len(iterables), hasSelector}
	self := NewNode(op, span)
	attach(self, operands...)

	return self
}

// Iterables returns the comprehension's iterable expressions.
func (f *For) Iterables() []NodeRef { return f.Operands[:f.numIterables] }

// Binders returns each iterable's binder Parameter node, in the same
// order as Iterables.
func (f *For) Binders() []NodeRef {
	return f.Operands[f.numIterables : 2*f.numIterables]
}

// Body returns the comprehension's body expression.
func (f *For) Body() NodeRef { return f.Operands[2*f.numIterables] }

// Selector returns the comprehension's guard, and whether one is
// present.
func (f *For) Selector() (NodeRef, bool) {
	if !f.hasSelector {
		return NodeRef{}, false
	}

	return f.Operands[2*f.numIterables+1], true
}

// CalleeKind distinguishes what a Call invokes.
type CalleeKind int

// Callee kinds.
const (
	CalleeFunction CalleeKind = iota
	CalleeEvaluator
	CalleeBuiltinSum
	CalleeBuiltinProd
)

// Call invokes a function, evaluator, or builtin fold over Args.
type Call struct {
	baseOperands
	Callee CalleeKind
	Name   string
}

// NewCall constructs a call node.
func NewCall(span source.Span, callee CalleeKind, name string, args ...NodeRef) NodeRef {
	op := &Call{baseOperands{args}, callee, name}
	self := NewNode(op, span)
	attach(self, args...)

	return self
}

// FoldOp is the reduction operator a Fold applies.
type FoldOp int

// Fold operators.
const (
	FoldAdd FoldOp = iota
	FoldMul
)

// Fold reduces Iterator with Op, starting from Init. This is the
// lowering target of the `sum`/`prod` builtins (spec.md §4.3).
type Fold struct {
	baseOperands // Operands: [iterator, init]
	Op           FoldOp
}

// NewFold constructs a fold node.
func NewFold(span source.Span, iterator NodeRef, op FoldOp, init NodeRef) NodeRef {
	node := &Fold{baseOperands{[]NodeRef{iterator, init}}, op}
	self := NewNode(node, span)
	attach(self, iterator, init)

	return self
}

// Iterator returns the sequence being folded.
func (f *Fold) Iterator() NodeRef { return f.Operands[0] }

// Init returns the fold's initial accumulator value.
func (f *Fold) Init() NodeRef { return f.Operands[1] }

// Enf enforces that its sole operand evaluates to zero. Enf nodes only
// ever appear as constraint roots (spec.md §3.2 invariant).
type Enf struct{ baseOperands }

// NewEnf constructs an Enf(expr) root.
func NewEnf(span source.Span, expr NodeRef) NodeRef {
	op := &Enf{baseOperands{[]NodeRef{expr}}}
	self := NewNode(op, span)
	attach(self, expr)

	return self
}

// BoundaryKind distinguishes `.first` from `.last`.
type BoundaryKind int

// Boundary kinds.
const (
	BoundaryFirst BoundaryKind = iota
	BoundaryLast
)

// Boundary pins expr to hold only at the first or last row. Boundary
// nodes only ever appear inside boundary constraints (spec.md §3.2
// invariant); the lowering pass rejects one found while lowering
// integrity constraints.
type Boundary struct {
	baseOperands
	Kind BoundaryKind
}

// NewBoundary constructs a boundary node.
func NewBoundary(span source.Span, kind BoundaryKind, expr NodeRef) NodeRef {
	op := &Boundary{baseOperands{[]NodeRef{expr}}, kind}
	self := NewNode(op, span)
	attach(self, expr)

	return self
}

// BusOpKind distinguishes `.insert` from `.remove`.
type BusOpKind int

// Bus operation kinds.
const (
	BusInsert BusOpKind = iota
	BusRemove
)

// BusOp represents one insertion/removal contributed to a Bus. Its
// Operands hold the column values (Args) followed by the Latch selector
// last; Bus is always a weak reference to a registered Bus in the owning
// graph (spec.md §3.2 invariant).
type BusOp struct {
	baseOperands // Operands: Args..., Latch
	Bus          graph.Ref[Bus]
	Kind         BusOpKind
	numArgs      int
}

// NewBusOp constructs a bus operation node.
func NewBusOp(span source.Span, bus graph.Ref[Bus], kind BusOpKind, args []NodeRef, latch NodeRef) NodeRef {
	operands := make([]NodeRef, 0, len(args)+1)
	operands = append(operands, args...)
	operands = append(operands, latch)

	op := &BusOp{baseOperands{operands}, bus, kind, len(args)}
	self := NewNode(op, span)
	attach(self, operands...)

	return self
}

// Args returns the bus operation's column-value expressions.
func (b *BusOp) Args() []NodeRef { return b.Operands[:b.numArgs] }

// Latch returns the bus operation's selector/multiplicity expression.
func (b *BusOp) Latch() NodeRef { return b.Operands[b.numArgs] }
