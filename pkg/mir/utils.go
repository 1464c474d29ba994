// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package mir

import (
	"fmt"

	"github.com/airscript-lang/airscript/pkg/source"
)

// ErrIndexOutOfBounds is returned by IndexedAccessor when a constant
// index exceeds the length of the vector it indexes.
type ErrIndexOutOfBounds struct {
	Index  int
	Length int
}

func (e ErrIndexOutOfBounds) Error() string {
	return fmt.Sprintf("index %d out of bounds (length %d)", e.Index, e.Length)
}

// IndexedAccessor implements spec.md §4.2's `indexed_accessor` helper:
// if n is `Accessor(Index(i), Vector(v))`, it returns v[i]; otherwise n
// is returned unchanged. Both constant propagation and unrolling use this
// to collapse an indexed access into its element as soon as the
// indexable resolves to a literal Vector aggregate.
func IndexedAccessor(n NodeRef) (NodeRef, error) {
	acc, ok := n.Get().Op.(*Accessor)
	if !ok || acc.Kind != AccessIndex {
		return n, nil
	}

	vec, ok := acc.Operands[0].Get().Op.(*Vector)
	if !ok {
		return n, nil
	}

	if acc.Index < 0 || acc.Index >= len(vec.Operands) {
		return NodeRef{}, ErrIndexOutOfBounds{Index: acc.Index, Length: len(vec.Operands)}
	}

	return vec.Operands[acc.Index], nil
}

// VecToScalar implements spec.md §4.2's `vec_to_scalar` helper: unwraps a
// singleton (length-1) Vector to its sole child, recursively. It panics
// if a non-singleton vector reaches this call, since by the point this
// helper is used (after unrolling) every vector-shaped intermediate must
// have already been reduced to a scalar — a surviving multi-element
// vector there is a structural invariant violation, not a user error
// (spec.md §7's "Failed" fatal-error category covers the case where a
// caller wants to recover instead of panicking; see mir/passes for that
// wrapper).
func VecToScalar(n NodeRef) NodeRef {
	for {
		vec, ok := n.Get().Op.(*Vector)
		if !ok {
			return n
		}

		if len(vec.Operands) != 1 {
			panic(fmt.Sprintf("vec_to_scalar: non-singleton vector of length %d survived unrolling", len(vec.Operands)))
		}

		n = vec.Operands[0]
	}
}

// DuplicateNode deep-clones the subgraph rooted at n, preserving
// structural sharing *within* the clone (two parents of the same shared
// subexpression in the original still share one clone) but never sharing
// with anything outside the clone (spec.md §4.4 inlining). cache maps an
// original node to its already-produced clone and must be fresh for
// each top-level call that should not share with a prior one (e.g. two
// separate inlined call sites never share nodes with each other).
func DuplicateNode(n NodeRef, cache map[*Node]NodeRef) NodeRef {
	if clone, ok := cache[n.Get()]; ok {
		return clone
	}

	op := n.Get().Op
	children := op.Children()
	clonedChildren := make([]NodeRef, len(children))

	for i, c := range children {
		clonedChildren[i] = DuplicateNode(c, cache)
	}

	clonedOp := cloneOperation(op, clonedChildren)
	clone := NewNode(clonedOp, n.Get().Span())
	attach(clone, clonedChildren...)
	cache[n.Get()] = clone

	return clone
}

// cloneOperation rebuilds an operation variant with newChildren standing
// in for its original operand list, preserving every non-operand field
// (exponent, access kind, bus reference, ...).
func cloneOperation(op Operation, newChildren []NodeRef) Operation {
	switch o := op.(type) {
	case ValueOp:
		return o
	case Parameter:
		return o
	case *Add:
		return &Add{baseOperands{newChildren}}
	case *Sub:
		return &Sub{baseOperands{newChildren}}
	case *Mul:
		return &Mul{baseOperands{newChildren}}
	case *Exp:
		return &Exp{baseOperands{newChildren}, o.Exponent}
	case *Vector:
		return &Vector{baseOperands{newChildren}}
	case *Matrix:
		return &Matrix{Rows: o.Rows, Cols: o.Cols, baseOperands: baseOperands{newChildren}}
	case *Accessor:
		return &Accessor{
			baseOperands: baseOperands{newChildren},
			Kind:         o.Kind,
			Index:        o.Index,
			RangeLo:      o.RangeLo,
			RangeHi:      o.RangeHi,
			Offset:       o.Offset,
		}
	case *If:
		return &If{baseOperands{newChildren}}
	case *For:
		return &For{baseOperands{newChildren}, o.numIterables, o.hasSelector}
	case *Call:
		return &Call{baseOperands{newChildren}, o.Callee, o.Name}
	case *Fold:
		return &Fold{baseOperands{newChildren}, o.Op}
	case *Enf:
		return &Enf{baseOperands{newChildren}}
	case *Boundary:
		return &Boundary{baseOperands{newChildren}, o.Kind}
	case *BusOp:
		return &BusOp{baseOperands{newChildren}, o.Bus, o.Kind, o.numArgs}
	default:
		panic(fmt.Sprintf("cloneOperation: unhandled operation %T", op))
	}
}

// substitution carries the parameter->argument bindings used while
// cloning an inlined function body.
type substitution = map[string]NodeRef

// SubstituteParameters clones n, replacing every Parameter leaf whose
// Name is a key of subs with the corresponding argument expression,
// preserving internal sharing exactly like DuplicateNode (which this is
// built on: it is DuplicateNode with Parameter leaves redirected instead
// of cloned).
func SubstituteParameters(n NodeRef, subs map[string]NodeRef) NodeRef {
	cache := map[*Node]NodeRef{}
	return substituteRec(n, subs, cache)
}

func substituteRec(n NodeRef, subs substitution, cache map[*Node]NodeRef) NodeRef {
	if clone, ok := cache[n.Get()]; ok {
		return clone
	}

	if param, ok := n.Get().Op.(Parameter); ok {
		if replacement, ok := subs[param.Name]; ok {
			cache[n.Get()] = replacement
			return replacement
		}
	}

	op := n.Get().Op
	children := op.Children()
	clonedChildren := make([]NodeRef, len(children))

	for i, c := range children {
		clonedChildren[i] = substituteRec(c, subs, cache)
	}

	clonedOp := cloneOperation(op, clonedChildren)
	clone := NewNode(clonedOp, n.Get().Span())
	attach(clone, clonedChildren...)
	cache[n.Get()] = clone

	return clone
}

// spanOrUnknown is a small convenience used by passes synthesizing new
// nodes from an existing one (e.g. unrolling a For into N clones).
func spanOrUnknown(n NodeRef) source.Span {
	if !n.Valid() {
		return source.Unknown
	}

	return n.Get().Span()
}
