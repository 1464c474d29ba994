// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"testing"

	"github.com/airscript-lang/airscript/pkg/ast"
	"github.com/airscript-lang/airscript/pkg/diag"
	"github.com/airscript-lang/airscript/pkg/field"
	"github.com/airscript-lang/airscript/pkg/source"
)

// fibonacciModule builds the textbook two-column AIR (a.first=0,
// b.first=1, a'=b, b'=a+b) directly with pkg/ast's constructors, the
// same shape cmd/airscriptc's example registry uses, since there is no
// parser in this module to build it from source text.
func fibonacciModule() *ast.Module {
	a := ast.NewSymbolAccess(source.Unknown, ast.SymbolTraceColumn, "a")
	a.Segment, a.Column = 0, 0

	b := ast.NewSymbolAccess(source.Unknown, ast.SymbolTraceColumn, "b")
	b.Segment, b.Column = 0, 1

	eq := func(l, r ast.Expr) *ast.EnforceStmt {
		return ast.NewEnforceStmt(source.Unknown, ast.NewBinOp(source.Unknown, ast.BinEq, l, r))
	}
	felt := func(v uint64) *ast.ConstFelt { return ast.NewConstFelt(source.Unknown, field.NewFelt(v)) }
	next := func(sym *ast.SymbolAccess) *ast.Access { return ast.NewAccess(source.Unknown, sym, ast.AccessDefault, 1) }

	return &ast.Module{
		Name:   "fibonacci",
		IsRoot: true,
		TraceSegments: []ast.TraceSegment{
			{Name: "main", Columns: []ast.ColumnDecl{{Name: "a", Width: 1}, {Name: "b", Width: 1}}},
		},
		BoundaryConstraints: []ast.Statement{
			eq(ast.NewBoundedSymbolAccess(source.Unknown, a, ast.BoundaryFirst), felt(0)),
			eq(ast.NewBoundedSymbolAccess(source.Unknown, b, ast.BoundaryFirst), felt(1)),
		},
		IntegrityConstraints: []ast.Statement{
			eq(next(a), b),
			eq(next(b), ast.NewBinOp(source.Unknown, ast.BinAdd, a, b)),
		},
	}
}

func busModule() *ast.Module {
	v := ast.NewSymbolAccess(source.Unknown, ast.SymbolTraceColumn, "v")
	v.Segment, v.Column = 0, 0

	insert := ast.NewBusCall(source.Unknown, "p", ast.BusInsert, []ast.Expr{v}, ast.NewConstFelt(source.Unknown, field.One()))
	comp := ast.NewComprehension(source.Unknown, []ast.Iterable{{Binder: "_", Source: ast.NewRangeLit(source.Unknown, 0, 1)}}, insert, nil)

	return &ast.Module{
		Name:   "bus",
		IsRoot: true,
		TraceSegments: []ast.TraceSegment{
			{Name: "main", Columns: []ast.ColumnDecl{{Name: "v", Width: 1}}},
		},
		Buses:                []ast.BusDecl{{Name: "p", Kind: ast.BusMultiset}},
		IntegrityConstraints: []ast.Statement{ast.NewBusEnforceStmt(source.Unknown, comp)},
	}
}

func TestCompileFibonacciProducesIntegrityAndBoundaryRoots(t *testing.T) {
	diags := &diag.CollectingHandler{}

	ag, cerr := Compile(fibonacciModule(), Config{Pipeline: PipelineMIR, Optimize: true}, diags)
	if cerr != nil {
		t.Fatalf("Compile failed: %s", cerr.Error())
	}

	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", diags.Diagnostics)
	}

	seg, ok := ag.Segments[0]
	if !ok {
		t.Fatal("expected constraints registered against the main segment")
	}

	if len(seg.BoundaryFirst) != 2 {
		t.Errorf("got %d first-row boundary roots, want 2", len(seg.BoundaryFirst))
	}

	if len(seg.Integrity) != 2 {
		t.Errorf("got %d integrity roots, want 2", len(seg.Integrity))
	}
}

func TestCompileLegacyPipelineRejectsBuses(t *testing.T) {
	diags := &diag.CollectingHandler{}

	_, cerr := Compile(busModule(), Config{Pipeline: PipelineLegacy}, diags)
	if cerr == nil {
		t.Fatal("expected the legacy pipeline to reject a bus-declaring module")
	}

	if !diags.HasErrors() {
		t.Fatal("expected a diagnostic reporting the rejection")
	}

	got := diags.Diagnostics[0].Message
	want := "buses are not implemented for this Pipeline"
	if got != want {
		t.Errorf("diagnostic message = %q, want %q", got, want)
	}
}

func TestCompileMIRPipelineExpandsBuses(t *testing.T) {
	diags := &diag.CollectingHandler{}

	ag, cerr := Compile(busModule(), Config{Pipeline: PipelineMIR}, diags)
	if cerr != nil {
		t.Fatalf("Compile failed: %s", cerr.Error())
	}

	if len(ag.Buses) != 1 {
		t.Fatalf("got %d buses, want 1", len(ag.Buses))
	}

	if _, ok := ag.Buses["p"]; !ok {
		t.Error("expected bus \"p\" to survive into the AIR graph")
	}

	if _, ok := ag.Segments[0]; ok {
		t.Errorf("bus expansion registered constraints under the main segment: %+v", ag.Segments[0])
	}

	seg, ok := ag.Segments[1]
	if !ok || len(seg.Integrity) == 0 {
		t.Error("expected the bus's integrity root to be registered under the aux segment")
	}
}

func TestRunMirPassesReachesFixedPoint(t *testing.T) {
	diags := &diag.CollectingHandler{}

	mod := fibonacciModule()

	ag, cerr := Compile(mod, Config{Pipeline: PipelineMIR}, diags)
	if cerr != nil {
		t.Fatalf("Compile failed: %s", cerr.Error())
	}

	// A second compile of the same module must produce a structurally
	// identical graph: the pass pipeline has no hidden non-determinism
	// (spec.md §5's "AST->MIR is deterministic in declaration order").
	ag2, cerr := Compile(fibonacciModule(), Config{Pipeline: PipelineMIR}, &diag.CollectingHandler{})
	if cerr != nil {
		t.Fatalf("second Compile failed: %s", cerr.Error())
	}

	if ag.NumNodes() != ag2.NumNodes() {
		t.Errorf("got %d nodes on first compile, %d on second; expected determinism", ag.NumNodes(), ag2.NumNodes())
	}
}
