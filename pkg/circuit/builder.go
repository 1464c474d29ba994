// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package circuit

import (
	"fmt"

	"github.com/airscript-lang/airscript/pkg/air"
	"github.com/airscript-lang/airscript/pkg/field"
)

// Builder is the only way to construct a Circuit. It guarantees the
// circuit it produces has no dangling references, no cycles, no
// duplicated nodes, and that every operation node refers only to
// already-built nodes — the same properties
// original_source/codegen/ace/src/builder.rs's CircuitBuilder documents
// for its own graph.
type Builder struct {
	layout Layout

	// optimize gates the builder's operand-reordering and
	// identity-elimination simplifications (spec.md §4.6's
	// "normalizes"/"eliminates identities" bullets) — the part of the
	// builder's work that is a genuine optimization rather than a
	// correctness requirement, mirroring go-corset's OptimisationConfig
	// gating aggressiveness of AIR-level simplification
	// (pkg/ir/mir/optimiser.go). Deduplication and constant-folding stay
	// on regardless: those prevent outright duplicate work, not just
	// smaller output.
	optimize bool

	constants      []field.Felt
	constantsCache map[field.Felt]Node

	operations []OperationNode
	opsCache   map[OperationNode]Node

	// airNodeCache memoizes AIR NodeIndex -> circuit Node. Since AIR-IR
	// is itself already value-numbered (air.Graph.InsertNode), this
	// single map is sufficient to prevent re-expanding a shared AIR
	// subexpression, unlike the Rust original's cache keyed by the AIR
	// Operation value.
	airNodeCache map[air.NodeIndex]Node

	periodicCache map[string]Node
	periodicCols  map[string][]uint64
	maxCycleLen   int
}

// NewBuilder initializes a Builder for a lowered, bus-expanded AIR
// graph. optimize controls whether Add/Sub/Mul normalize operand order
// and eliminate identities (spec.md §4.6); a caller that wants a
// literal, unsimplified translation of the AIR graph (e.g. for
// debugging circuit-size regressions introduced by a simplification)
// passes false.
func NewBuilder(ag *air.Graph, optimize bool) *Builder {
	periodicCols := ag.PeriodicColumns()

	maxLen := 0
	for _, cycle := range periodicCols {
		if len(cycle) > maxLen {
			maxLen = len(cycle)
		}
	}

	return &Builder{
		layout:         NewLayout(ag),
		optimize:       optimize,
		constantsCache: map[field.Felt]Node{},
		opsCache:       map[OperationNode]Node{},
		airNodeCache:   map[air.NodeIndex]Node{},
		periodicCache:  map[string]Node{},
		periodicCols:   periodicCols,
		maxCycleLen:    maxLen,
	}
}

// Layout returns the input layout the builder computed from the AIR
// graph it was constructed from.
func (b *Builder) Layout() Layout {
	return b.layout
}

// Build finalizes the circuit.
func (b *Builder) Build() Circuit {
	return Circuit{
		Layout:     b.layout,
		Constants:  append([]field.Felt(nil), b.constants...),
		Operations: append([]OperationNode(nil), b.operations...),
	}
}

// Constant returns the Node for a circuit constant, inserting it if
// this is the first time c is seen.
func (b *Builder) Constant(c field.Felt) Node {
	if n, ok := b.constantsCache[c]; ok {
		return n
	}

	n := Node{Kind: NodeConstant, Index: len(b.constants)}
	b.constants = append(b.constants, c)
	b.constantsCache[c] = n

	return n
}

// ConstantUint64 is a convenience wrapper over Constant for the common
// case of a small literal.
func (b *Builder) ConstantUint64(c uint64) Node {
	return b.Constant(field.NewFelt(c))
}

func (b *Builder) constFelt(n Node) (field.Felt, bool) {
	if n.Kind != NodeConstant {
		return field.Felt{}, false
	}

	return b.constants[n.Index], true
}

// pushOp returns the Node for op, deduplicating against an identical
// previously inserted operation and constant-folding when both operands
// are already constants.
func (b *Builder) pushOp(op ArithmeticOp, l, r Node) Node {
	key := OperationNode{Op: op, Left: l, Right: r}
	if n, ok := b.opsCache[key]; ok {
		return n
	}

	var n Node

	if cl, okL := b.constFelt(l); okL {
		if cr, okR := b.constFelt(r); okR {
			var folded field.Felt

			switch op {
			case OpAdd:
				folded = field.Add(cl, cr)
			case OpSub:
				folded = field.Sub(cl, cr)
			case OpMul:
				folded = field.Mul(cl, cr)
			}

			n = b.Constant(folded)
			b.opsCache[key] = n

			return n
		}
	}

	n = Node{Kind: NodeOperation, Index: len(b.operations)}
	b.operations = append(b.operations, key)
	b.opsCache[key] = n

	return n
}

// Add returns l+r, normalizing operand order (addition is commutative)
// and eliminating the x+0 / 0+x identity when the builder is optimizing.
func (b *Builder) Add(l, r Node) Node {
	if !b.optimize {
		return b.pushOp(OpAdd, l, r)
	}

	if r.Less(l) {
		l, r = r, l
	}

	zero := b.Constant(field.Zero())
	if l == zero {
		return r
	}

	if r == zero {
		return l
	}

	return b.pushOp(OpAdd, l, r)
}

// Mul returns l*r, normalizing operand order and eliminating the
// x*0 / 0*x / x*1 / 1*x identities when the builder is optimizing.
func (b *Builder) Mul(l, r Node) Node {
	if !b.optimize {
		return b.pushOp(OpMul, l, r)
	}

	if r.Less(l) {
		l, r = r, l
	}

	zero := b.Constant(field.Zero())
	if l == zero || r == zero {
		return zero
	}

	one := b.Constant(field.One())
	if l == one {
		return r
	}

	if r == one {
		return l
	}

	return b.pushOp(OpMul, l, r)
}

// Sub returns l-r, eliminating the x-0 and x-x identities when the
// builder is optimizing. Subtraction is not commutative so, unlike Add
// and Mul, operands are never reordered.
func (b *Builder) Sub(l, r Node) Node {
	if !b.optimize {
		return b.pushOp(OpSub, l, r)
	}

	zero := b.Constant(field.Zero())
	if r == zero {
		return l
	}

	if l == r {
		return zero
	}

	return b.pushOp(OpSub, l, r)
}

// Sum returns the left-fold addition of els, or the constant 0 for an
// empty slice.
func (b *Builder) Sum(els []Node) Node {
	if len(els) == 0 {
		return b.Constant(field.Zero())
	}

	acc := els[0]
	for _, n := range els[1:] {
		acc = b.Add(acc, n)
	}

	return acc
}

// Prod returns the left-fold multiplication of els, or the constant 1
// for an empty slice.
func (b *Builder) Prod(els []Node) Node {
	if len(els) == 0 {
		return b.Constant(field.One())
	}

	acc := els[0]
	for _, n := range els[1:] {
		acc = b.Mul(acc, n)
	}

	return acc
}

// HornerEval evaluates sum(coeffs[n-i-1] * point^i) via Horner's method,
// walking coeffs from its highest-degree coefficient to its constant
// term.
func (b *Builder) HornerEval(point Node, coeffs []Node) Node {
	if len(coeffs) == 0 {
		return b.Constant(field.Zero())
	}

	acc := coeffs[0]
	for _, coeff := range coeffs[1:] {
		acc = b.Add(coeff, b.Mul(point, acc))
	}

	return acc
}

// PolyEval evaluates sum(coeffs[i] * point^i), i.e. coeffs in ascending
// degree order — the natural order a polynomial's coefficient vector is
// stored in.
func (b *Builder) PolyEval(point Node, coeffs []Node) Node {
	reversed := make([]Node, len(coeffs))
	for i, c := range coeffs {
		reversed[len(coeffs)-1-i] = c
	}

	return b.HornerEval(point, reversed)
}

// FromAir recursively maps an AIR NodeIndex to a circuit Node, caching
// results so a shared AIR subexpression is expanded into the circuit
// exactly once.
func (b *Builder) FromAir(ag *air.Graph, idx air.NodeIndex) Node {
	if n, ok := b.airNodeCache[idx]; ok {
		return n
	}

	var n Node

	switch op := ag.Node(idx).(type) {
	case air.Constant:
		n = b.ConstantUint64(op.V)
	case air.TraceAccess:
		tn, ok := b.layout.TraceAccessNode(op.Segment, op.Column, clampRowOffset(op.RowOffset))
		if !ok {
			panic(fmt.Sprintf("circuit: trace access out of layout bounds: %+v", op))
		}

		n = tn
	case air.PeriodicColumn:
		n = b.periodicColumn(op.Name)
	case air.PublicInput:
		pn, ok := b.layout.PublicInputNode(op.Name, op.Index)
		if !ok {
			panic(fmt.Sprintf("circuit: public input out of layout bounds: %+v", op))
		}

		n = pn
	case air.PublicInputTable:
		panic(fmt.Sprintf("circuit: unresolved public-input-table access %q reached the circuit builder; bus expansion must bind it to a concrete accumulator first", op.Name))
	case air.RandomValue:
		rn, ok := b.layout.RandomValueNode(op.Index)
		if !ok {
			panic(fmt.Sprintf("circuit: random value out of layout bounds: %+v", op))
		}

		n = rn
	case air.Add:
		n = b.Add(b.FromAir(ag, op.L), b.FromAir(ag, op.R))
	case air.Sub:
		n = b.Sub(b.FromAir(ag, op.L), b.FromAir(ag, op.R))
	case air.Mul:
		n = b.Mul(b.FromAir(ag, op.L), b.FromAir(ag, op.R))
	default:
		panic(fmt.Sprintf("circuit: unhandled AIR op %T", op))
	}

	b.airNodeCache[idx] = n

	return n
}

// clampRowOffset maps an AIR RowOffset (which the rest of the compiler
// treats as a small signed int, e.g. -1/0/1 for prior/current/next row)
// onto the circuit layout's two addressable rows. Lowering only ever
// produces 0 or 1 by the time a constraint reaches the circuit builder,
// by construction of how the surface language's row-shift syntax
// resolves (spec.md §3.2); any other value is a structural bug upstream.
func clampRowOffset(offset int) int {
	if offset != 0 && offset != 1 {
		panic(fmt.Sprintf("circuit: row offset %d outside the two addressable rows", offset))
	}

	return offset
}

// periodicColumn returns the Node for a periodic column's value at the
// circuit's out-of-domain evaluation point, computing and caching its
// interpolated-polynomial evaluation the first time the column is
// referenced.
func (b *Builder) periodicColumn(name string) Node {
	if n, ok := b.periodicCache[name]; ok {
		return n
	}

	cycle, ok := b.periodicCols[name]
	if !ok {
		panic(fmt.Sprintf("circuit: unknown periodic column %q", name))
	}

	coeffs := interpolate(cycle)

	coeffNodes := make([]Node, len(coeffs))
	for i, c := range coeffs {
		coeffNodes[i] = b.Constant(c)
	}

	// The evaluation point for a column of length L, given the longest
	// column's length maxCycleLen, is z^(maxCycleLen/L) — computed by
	// repeated squaring of z^(trace_len/maxCycleLen) since that ratio is
	// itself a power of two (periodic column lengths are all powers of
	// two, spec.md §6.1).
	zMaxCycle := b.layout.StarkVarNode(StarkZMaxCycle)

	squarings := log2(b.maxCycleLen / len(cycle))

	zCol := zMaxCycle
	for i := 0; i < squarings; i++ {
		zCol = b.Mul(zCol, zCol)
	}

	result := b.PolyEval(zCol, coeffNodes)
	b.periodicCache[name] = result

	return result
}

func log2(v int) int {
	n := 0
	for v > 1 {
		v >>= 1
		n++
	}

	return n
}

// LinearCombination accumulates sum(alpha^(offset+i) * els[i]) across
// successive calls, carrying the running power of alpha forward so that
// a second call's coefficients continue where the first left off — used
// to fold many integrity/boundary constraints into the single
// random-linear-combination check a STARK verifier performs.
type LinearCombination struct {
	alpha     Node
	prevAlpha *Node
}

// NewLinearCombination starts an accumulation keyed on challenge alpha.
func NewLinearCombination(alpha Node) *LinearCombination {
	return &LinearCombination{alpha: alpha}
}

// Next folds els in with the next len(els) powers of alpha and returns
// their weighted sum.
func (lc *LinearCombination) Next(b *Builder, els []Node) Node {
	acc := b.Constant(field.Zero())

	for _, n := range els {
		var alpha Node
		if lc.prevAlpha == nil {
			alpha = b.Constant(field.One())
		} else {
			alpha = b.Mul(*lc.prevAlpha, lc.alpha)
		}

		lc.prevAlpha = &alpha

		acc = b.Add(acc, b.Mul(alpha, n))
	}

	return acc
}
