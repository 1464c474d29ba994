// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/airscript-lang/airscript/pkg/ast"
	"github.com/airscript-lang/airscript/pkg/field"
	"github.com/airscript-lang/airscript/pkg/source"
)

// examples registers the small set of modules this CLI can compile. A
// real AirScript front end would hand Compile an *ast.Module parsed from
// source text; since the surface grammar/parser is an external
// collaborator (spec.md §1) this module never implements, these act as
// the fixtures a parser's output would take the shape of, exercising the
// whole pipeline end to end the same way cmd/testgen builds its fixtures
// programmatically rather than from text.
var examples = map[string]func() *ast.Module{
	"fibonacci": fibonacciExample,
	"periodic":  periodicExample,
	"bus":       busExample,
}

func exampleNames() []string {
	names := make([]string, 0, len(examples))
	for name := range examples {
		names = append(names, name)
	}

	return names
}

func col(sym *ast.SymbolAccess, segment uint8, column uint16) *ast.SymbolAccess {
	sym.Segment = segment
	sym.Column = column

	return sym
}

func traceColumn(name string, segment uint8, column uint16) *ast.SymbolAccess {
	return col(ast.NewSymbolAccess(source.Unknown, ast.SymbolTraceColumn, name), segment, column)
}

func nextRow(sym *ast.SymbolAccess) *ast.Access {
	return ast.NewAccess(source.Unknown, sym, ast.AccessDefault, 1)
}

func eq(lhs, rhs ast.Expr) *ast.EnforceStmt {
	return ast.NewEnforceStmt(source.Unknown, ast.NewBinOp(source.Unknown, ast.BinEq, lhs, rhs))
}

func feltLit(v uint64) *ast.ConstFelt {
	return ast.NewConstFelt(source.Unknown, field.NewFelt(v))
}

// fibonacciExample is the textbook two-column AIR: a' = b, b' = a + b,
// seeded by a.first = 0, b.first = 1.
func fibonacciExample() *ast.Module {
	a := traceColumn("a", 0, 0)
	b := traceColumn("b", 0, 1)

	return &ast.Module{
		Name:   "fibonacci",
		IsRoot: true,
		TraceSegments: []ast.TraceSegment{
			{Name: "main", Columns: []ast.ColumnDecl{{Name: "a", Width: 1}, {Name: "b", Width: 1}}},
		},
		BoundaryConstraints: []ast.Statement{
			eq(ast.NewBoundedSymbolAccess(source.Unknown, a, ast.BoundaryFirst), feltLit(0)),
			eq(ast.NewBoundedSymbolAccess(source.Unknown, b, ast.BoundaryFirst), feltLit(1)),
		},
		IntegrityConstraints: []ast.Statement{
			eq(nextRow(a), b),
			eq(nextRow(b), ast.NewBinOp(source.Unknown, ast.BinAdd, a, b)),
		},
	}
}

// periodicExample adds a periodic selector column gating the fibonacci
// step, so the circuit builder's periodic-column interpolation path
// (spec.md §4.6) is reachable from the CLI.
func periodicExample() *ast.Module {
	mod := fibonacciExample()
	mod.Name = "periodic"
	mod.PeriodicColumns = []ast.PeriodicColumnDecl{
		{Name: "k", Values: []field.Felt{field.One(), field.One(), field.One(), field.Zero()}},
	}

	a := traceColumn("a", 0, 0)
	b := traceColumn("b", 0, 1)
	k := ast.NewSymbolAccess(source.Unknown, ast.SymbolPeriodicColumn, "k")

	mod.IntegrityConstraints = []ast.Statement{
		eq(nextRow(a), ast.NewBinOp(source.Unknown, ast.BinMul, k, b)),
		eq(nextRow(b), ast.NewBinOp(source.Unknown, ast.BinAdd, a, b)),
	}

	return mod
}

// busExample declares a multiset bus and inserts/removes a single value
// across two rows, exercising pkg/air/passes/busexpand.go from the CLI.
func busExample() *ast.Module {
	mod := &ast.Module{
		Name:   "bus",
		IsRoot: true,
		TraceSegments: []ast.TraceSegment{
			{Name: "main", Columns: []ast.ColumnDecl{{Name: "v", Width: 1}}},
		},
		Buses: []ast.BusDecl{{Name: "p", Kind: ast.BusMultiset}},
	}

	v := traceColumn("v", 0, 0)
	one := feltLit(1)

	insert := ast.NewBusCall(source.Unknown, "p", ast.BusInsert, []ast.Expr{v}, one)
	comprehension := ast.NewComprehension(source.Unknown, []ast.Iterable{{Binder: "_", Source: ast.NewRangeLit(source.Unknown, 0, 1)}}, insert, nil)

	mod.IntegrityConstraints = []ast.Statement{
		ast.NewBusEnforceStmt(source.Unknown, comprehension),
	}

	return mod
}

func exampleModule(name string) (*ast.Module, error) {
	build, ok := examples[name]
	if !ok {
		return nil, fmt.Errorf("unknown example %q (available: %v)", name, exampleNames())
	}

	return build(), nil
}
