// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

// Package passes implements the MIR-to-MIR rewrite pipeline (spec.md
// §4.4, §5): constant propagation, call inlining, and comprehension
// unrolling, run in that fixed order over every root the graph owns.
package passes

import (
	"github.com/airscript-lang/airscript/pkg/field"
	"github.com/airscript-lang/airscript/pkg/graph"
	"github.com/airscript-lang/airscript/pkg/mir"
)

// ConstantPropagation folds arithmetic over literal operands and
// collapses constant-indexed accessors into their resolved element,
// repeating until a full sweep makes no further change (spec.md §4.4).
// It mutates g's graph in place and never fails: an unresolvable
// structural case (e.g. an out-of-bounds constant index) is left for
// the lowering pass to report as a diagnostic instead. It reports
// whether it changed anything, so a caller driving the whole MIR pass
// pipeline to a fixed point can tell whether another round is needed.
func ConstantPropagation(g *mir.Graph) bool {
	return mir.VisitFixedPoint(g.AllRoots(), func(n mir.NodeRef) bool {
		return foldArithmetic(n) || foldAccessor(n)
	})
}

func constFelt(n mir.NodeRef) (field.Felt, bool) {
	v, ok := n.Get().Op.(mir.ValueOp)
	if !ok {
		return field.Felt{}, false
	}

	c, ok := v.V.(mir.ConstFelt)
	if !ok {
		return field.Felt{}, false
	}

	return c.V, true
}

func constOperands(children []mir.NodeRef) ([]field.Felt, bool) {
	vals := make([]field.Felt, len(children))

	for i, c := range children {
		v, ok := constFelt(c)
		if !ok {
			return nil, false
		}

		vals[i] = v
	}

	return vals, true
}

// foldArithmetic rewrites an Add/Sub/Mul/Exp node whose operands are all
// literal constants into a single ValueOp(ConstFelt), using Node.Set
// since this changes the node's own variant rather than one of its
// children (spec.md §4.1's variant-rewrite mechanism). When only some
// operands are constant it still eliminates the additive/multiplicative
// identities (x+0, x*1, x*0, x-0, x-x and their mirrors) in place, since
// spec.md §4.4 requires these to fold even when the other operand is a
// trace column or other non-constant expression — the guard-selector
// idiom unroll.go builds (`elem * selector`) depends on the x*0 case
// folding away an unselected iteration's contribution.
func foldArithmetic(n mir.NodeRef) bool {
	switch op := n.Get().Op.(type) {
	case *mir.Add:
		if vals, ok := constOperands(op.Operands); ok {
			acc := field.Zero()
			for _, v := range vals {
				acc = field.Add(acc, v)
			}

			n.Get().Set(n, mir.ValueOp{V: mir.ConstFelt{V: acc}})

			return true
		}

		return foldAdditiveIdentity(n, op.Operands)
	case *mir.Sub:
		if vals, ok := constOperands(op.Operands); ok && len(vals) == 2 {
			n.Get().Set(n, mir.ValueOp{V: mir.ConstFelt{V: field.Sub(vals[0], vals[1])}})

			return true
		}

		return foldSubtractiveIdentity(n, op.Operands)
	case *mir.Mul:
		if vals, ok := constOperands(op.Operands); ok {
			acc := field.One()
			for _, v := range vals {
				acc = field.Mul(acc, v)
			}

			n.Get().Set(n, mir.ValueOp{V: mir.ConstFelt{V: acc}})

			return true
		}

		return foldMultiplicativeIdentity(n, op.Operands)
	case *mir.Exp:
		base, ok := constFelt(op.Operands[0])
		if !ok {
			return false
		}

		n.Get().Set(n, mir.ValueOp{V: mir.ConstFelt{V: field.Exp(base, op.Exponent)}})

		return true
	default:
		return false
	}
}

// foldAdditiveIdentity collapses a binary x+0 or 0+x into x, leaving n's
// own variant untouched (x may be referenced elsewhere) and redirecting
// n's parents to x directly instead, the same way foldAccessor does for
// a resolved accessor. Only the binary case is handled: an n-ary sum with
// a mix of constant and non-constant operands still needs every operand
// literal before the full fold above applies.
func foldAdditiveIdentity(n mir.NodeRef, operands []mir.NodeRef) bool {
	if len(operands) != 2 {
		return false
	}

	for i, o := range operands {
		if v, ok := constFelt(o); ok && field.IsZero(v) {
			return redirectParents(n, operands[1-i])
		}
	}

	return false
}

// foldSubtractiveIdentity collapses x-0 into x, and x-x (the same node
// referenced on both sides) into the constant zero.
func foldSubtractiveIdentity(n mir.NodeRef, operands []mir.NodeRef) bool {
	lhs, rhs := operands[0], operands[1]

	if v, ok := constFelt(rhs); ok && field.IsZero(v) {
		return redirectParents(n, lhs)
	}

	if graph.Same(lhs, rhs) {
		n.Get().Set(n, mir.ValueOp{V: mir.ConstFelt{V: field.Zero()}})

		return true
	}

	return false
}

// foldMultiplicativeIdentity collapses a binary x*0 or 0*x into the
// constant zero, and x*1 or 1*x into x.
func foldMultiplicativeIdentity(n mir.NodeRef, operands []mir.NodeRef) bool {
	if len(operands) != 2 {
		return false
	}

	for i, o := range operands {
		v, ok := constFelt(o)
		if !ok {
			continue
		}

		if field.IsZero(v) {
			n.Get().Set(n, mir.ValueOp{V: mir.ConstFelt{V: field.Zero()}})

			return true
		}

		if field.Equal(v, field.One()) {
			return redirectParents(n, operands[1-i])
		}
	}

	return false
}

// redirectParents points every current parent of n at target instead,
// leaving n itself untouched since it may still be legitimately
// referenced elsewhere with its own identity (foldAccessor's precedent).
func redirectParents(n, target mir.NodeRef) bool {
	if graph.Same(n, target) {
		return false
	}

	parents := n.Get().Parents()
	if len(parents) == 0 {
		return false
	}

	for _, p := range parents {
		replaceChild(p, n, target)
	}

	return true
}

// foldAccessor collapses a constant-indexed Accessor over a literal
// Vector into its addressed element, per spec.md §4.2's
// indexed_accessor helper. Unlike foldArithmetic this does not rewrite
// n's own operation: n may still be reachable from elsewhere (another
// parent that legitimately wants the Accessor, not its resolved
// target), so the rewrite instead redirects each of n's current parents
// to point at the resolved node directly.
func foldAccessor(n mir.NodeRef) bool {
	acc, ok := n.Get().Op.(*mir.Accessor)
	if !ok || acc.Kind != mir.AccessIndex {
		return false
	}

	resolved, err := mir.IndexedAccessor(n)
	if err != nil {
		return false
	}

	return redirectParents(n, resolved)
}

// replaceChild redirects one operand slot of parent from old to new,
// using the fact that every Operation's Children() shares the backing
// array of its own operand storage (node.go's Children doc comment):
// writing through the returned slice is visible to the operation
// itself without needing a full Node.Set.
func replaceChild(parent, old, new mir.NodeRef) {
	children := parent.Get().Children()

	for i, c := range children {
		if graph.Same(c, old) {
			children[i] = new
			new.Get().AddParent(parent)
			old.Get().RemoveParent(parent)

			return
		}
	}
}
