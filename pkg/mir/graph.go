// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package mir

import "github.com/airscript-lang/airscript/pkg/ast"

// Graph owns the full MIR for one compiled root module: named functions,
// named evaluators, boundary-constraint roots, integrity-constraint
// roots, and named buses (spec.md §3.2). Nodes are never explicitly
// deleted; an unreferenced subgraph simply becomes collectable once its
// last owning NodeRef is dropped.
type Graph struct {
	TraceSegments   []ast.TraceSegment
	PublicInputs    []ast.PublicInputDecl
	PeriodicColumns []ast.PeriodicColumnDecl

	Functions  map[string]*Function
	Evaluators map[string]*Evaluator
	Buses      map[string]*Bus

	BoundaryRoots  []NodeRef // each an Enf(Boundary(...)) node
	IntegrityRoots []NodeRef // each an Enf(...) node
}

// NewGraph constructs an empty MIR graph.
func NewGraph() *Graph {
	return &Graph{
		Functions:  map[string]*Function{},
		Evaluators: map[string]*Evaluator{},
		Buses:      map[string]*Bus{},
	}
}

// AddBoundaryRoot registers a lowered boundary constraint.
func (g *Graph) AddBoundaryRoot(n NodeRef) {
	g.BoundaryRoots = append(g.BoundaryRoots, n)
}

// AddIntegrityRoot registers a lowered integrity constraint.
func (g *Graph) AddIntegrityRoot(n NodeRef) {
	g.IntegrityRoots = append(g.IntegrityRoots, n)
}

// ExtractBoundaryRoots returns the graph's boundary-constraint roots, the
// seed list passes use to walk the boundary side of the graph (spec.md
// §4.4's "visitor supplies a seed list ... via extract_*_roots(graph)").
func ExtractBoundaryRoots(g *Graph) []NodeRef {
	return append([]NodeRef(nil), g.BoundaryRoots...)
}

// ExtractIntegrityRoots returns the graph's integrity-constraint roots.
func ExtractIntegrityRoots(g *Graph) []NodeRef {
	return append([]NodeRef(nil), g.IntegrityRoots...)
}

// ExtractFunctionRoots returns every function body, for passes (like
// constant propagation) that must also normalize function bodies
// in-place, even though function bodies are not constraint roots
// themselves.
func ExtractFunctionRoots(g *Graph) []NodeRef {
	roots := make([]NodeRef, 0, len(g.Functions))
	for _, fn := range g.Functions {
		roots = append(roots, fn.Body)
	}

	return roots
}

// ExtractEvaluatorRoots returns every evaluator body statement.
func ExtractEvaluatorRoots(g *Graph) []NodeRef {
	var roots []NodeRef
	for _, ev := range g.Evaluators {
		roots = append(roots, ev.Body...)
	}

	return roots
}

// AllRoots returns every root the graph owns: function bodies, evaluator
// bodies, and boundary/integrity constraints. Used by passes that must
// run to a fixed point over the whole graph (e.g. constant propagation).
func (g *Graph) AllRoots() []NodeRef {
	var roots []NodeRef
	roots = append(roots, ExtractFunctionRoots(g)...)
	roots = append(roots, ExtractEvaluatorRoots(g)...)
	roots = append(roots, ExtractBoundaryRoots(g)...)
	roots = append(roots, ExtractIntegrityRoots(g)...)

	return roots
}
