// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package passes

import (
	"github.com/airscript-lang/airscript/pkg/mir"
)

// InlineCalls expands every function and evaluator Call in g into its
// substituted body, run to a fixed point so that a function calling
// another function ends up fully flattened (spec.md §4.4). Function
// calls are pure expressions and are expanded wherever they appear, in
// place, via Node.Set — exactly the "turning an unevaluated Call into
// its inlined body" case node.go's Set doc comment anticipates.
// Evaluator calls only ever appear as the sole argument of a top-level
// `enforce`, since an evaluator contributes a whole batch of
// constraints rather than a single value; those are expanded
// separately by inlineEvaluatorRoots, which splices each evaluator's
// substituted body roots into the graph's root lists in place of the
// single Enf(Call(...)) root that invoked it.
func InlineCalls(g *mir.Graph) bool {
	changed := mir.VisitFixedPoint(g.AllRoots(), func(n mir.NodeRef) bool {
		return inlineFunctionCall(g, n)
	})

	for inlineEvaluatorRoots(g) {
		changed = true
	}

	return changed
}

func inlineFunctionCall(g *mir.Graph, n mir.NodeRef) bool {
	call, ok := n.Get().Op.(*mir.Call)
	if !ok || call.Callee != mir.CalleeFunction {
		return false
	}

	fn, ok := g.Functions[call.Name]
	if !ok {
		return false
	}

	subs := paramSubstitution(fn.Parameters, call.Operands)
	cloned := mir.SubstituteParameters(fn.Body, subs)
	n.Get().Set(n, cloned.Get().Op)

	return true
}

// inlineEvaluatorRoots scans every boundary/integrity root once; if it
// finds Enf(Call(evaluator, args...)), it replaces that single root with
// the evaluator's own (substituted) body roots and reports that it
// changed the root lists, so the caller can re-scan — an evaluator body
// may itself invoke another evaluator.
func inlineEvaluatorRoots(g *mir.Graph) bool {
	if expanded := expandRoots(g, &g.BoundaryRoots); expanded {
		return true
	}

	return expandRoots(g, &g.IntegrityRoots)
}

func expandRoots(g *mir.Graph, roots *[]mir.NodeRef) bool {
	for i, root := range *roots {
		ev, args, ok := evaluatorCallOf(g, root)
		if !ok {
			continue
		}

		subs := paramSubstitution(ev.Parameters, args)

		expanded := make([]mir.NodeRef, len(ev.Body))
		for j, stmt := range ev.Body {
			expanded[j] = mir.SubstituteParameters(stmt, subs)
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

// evaluatorCallOf recognizes the Enf(Call(evaluator, ...)) shape an
// `enforce my_evaluator(...)` statement lowers to, and resolves the
// named evaluator.
func evaluatorCallOf(g *mir.Graph, root mir.NodeRef) (*mir.Evaluator, []mir.NodeRef, bool) {
	enf, ok := root.Get().Op.(*mir.Enf)
	if !ok || len(enf.Operands) != 1 {
		return nil, nil, false
	}

	call, ok := enf.Operands[0].Get().Op.(*mir.Call)
	if !ok || call.Callee != mir.CalleeEvaluator {
		return nil, nil, false
	}

	ev, ok := g.Evaluators[call.Name]
	if !ok {
		return nil, nil, false
	}

	return ev, call.Operands, true
}

func paramSubstitution(params []mir.NodeRef, args []mir.NodeRef) map[string]mir.NodeRef {
	subs := make(map[string]mir.NodeRef, len(params))

	for i, p := range params {
		param, ok := p.Get().Op.(mir.Parameter)
		if !ok || i >= len(args) {
			continue
		}

		subs[param.Name] = args[i]
	}

	return subs
}
