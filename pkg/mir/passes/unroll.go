// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package passes

import (
	"github.com/airscript-lang/airscript/pkg/mir"
)

// UnrollComprehensions expands every For node into its compile-time
// unrolling (spec.md §4.4): a `for`/`enforce all`/list-comprehension
// form whose iterables have all resolved to literal Vectors of a common
// length N produces N substituted copies of its body. A top-level
// `enforce ... for ...`/`enforce all ...` root (Enf(For(...))) explodes
// into N sibling Enf roots, since each iteration must independently
// hold; a For used as an ordinary expression (a sum/prod argument, or a
// nested list comprehension) collapses in place into a literal Vector
// of N elements.
//
// This pass should run after constant propagation and inlining have had
// a chance to resolve the iterables to literal Vectors; a For whose
// iterables are not yet literal is left untouched for a later sweep.
func UnrollComprehensions(g *mir.Graph) bool {
	changed := false

	for unrollEnforceForRoots(g) {
		changed = true
	}

	if mir.VisitFixedPoint(g.AllRoots(), func(n mir.NodeRef) bool {
		return unrollExprFor(n)
	}) {
		changed = true
	}

	return changed
}

// guardedElements computes, for a resolved For node, the N substituted
// body expressions (one per common iterable length), each multiplied by
// the substituted selector when the comprehension carries one — the
// standard AIR guard idiom of gating a per-iteration expression by a
// 0/1 selector rather than branching (spec.md §3.2's Selector field).
func guardedElements(forNode *mir.For) ([]mir.NodeRef, bool) {
	iterables := forNode.Iterables()
	binders := forNode.Binders()

	if len(iterables) == 0 {
		return nil, false
	}

	n := -1
	vecs := make([]*mir.Vector, len(iterables))

	for i, it := range iterables {
		vec, ok := it.Get().Op.(*mir.Vector)
		if !ok {
			return nil, false
		}

		if n == -1 {
			n = len(vec.Operands)
		} else if len(vec.Operands) != n {
			return nil, false
		}

		vecs[i] = vec
	}

	body := forNode.Body()
	selector, hasSelector := forNode.Selector()

	elements := make([]mir.NodeRef, n)

	for k := 0; k < n; k++ {
		subs := make(map[string]mir.NodeRef, len(binders))

		for i, b := range binders {
			param, ok := b.Get().Op.(mir.Parameter)
			if !ok {
				return nil, false
			}

			subs[param.Name] = vecs[i].Operands[k]
		}

		elem := mir.SubstituteParameters(body, subs)

		if hasSelector {
			guard := mir.SubstituteParameters(selector, subs)
			elem = mir.NewMul(elem.Get().Span(), elem, guard)
		}

		elements[k] = elem
	}

	return elements, true
}

func unrollEnforceForRoots(g *mir.Graph) bool {
	if expanded := unrollRootList(&g.BoundaryRoots); expanded {
		return true
	}

	return unrollRootList(&g.IntegrityRoots)
}

func unrollRootList(roots *[]mir.NodeRef) bool {
	for i, root := range *roots {
		enf, ok := root.Get().Op.(*mir.Enf)
		if !ok || len(enf.Operands) != 1 {
			continue
		}

		forNode, ok := enf.Operands[0].Get().Op.(*mir.For)
		if !ok {
			continue
		}

		elements, ok := guardedElements(forNode)
		if !ok {
			continue
		}

		expanded := make([]mir.NodeRef, len(elements))
		for j, e := range elements {
			expanded[j] = mir.NewEnf(e.Get().Span(), e)
		}

		next := make([]mir.NodeRef, 0, len(*roots)-1+len(expanded))
		next = append(next, (*roots)[:i]...)
		next = append(next, expanded...)
		next = append(next, (*roots)[i+1:]...)
		*roots = next

		return true
	}

	return false
}

// unrollExprFor collapses a For node used as an ordinary expression (not
// a top-level enforce) into a literal Vector of its unrolled elements,
// in place via Node.Set — the generic variant-rewrite mechanism, since
// nothing about this node's identity needs to survive except as "this
// is now a Vector" (spec.md §4.1).
func unrollExprFor(n mir.NodeRef) bool {
	forNode, ok := n.Get().Op.(*mir.For)
	if !ok {
		return false
	}

	elements, ok := guardedElements(forNode)
	if !ok {
		return false
	}

	vec := mir.NewVector(n.Get().Span(), elements...)
	n.Get().Set(n, vec.Get().Op)

	return true
}
