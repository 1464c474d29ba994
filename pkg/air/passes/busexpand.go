// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

// Package passes implements the AIR-level compiler passes that run
// after MIR→AIR lowering (spec.md §4.4's "bus-op expansion", performed
// at the AIR level once bus operations have been flattened onto a
// dedicated auxiliary column per bus).
package passes

import "github.com/airscript-lang/airscript/pkg/air"

// ExpandBuses turns every bus's aggregated Insert/Remove operations
// into a single integrity constraint over its accumulator column, plus
// whatever boundary constraints its first/last requirements demand
// (spec.md §4.4 "Bus-op expansion"). It allocates the random challenges
// each bus's linear combination needs as it goes, growing g's random
// value budget.
func ExpandBuses(g *air.Graph) {
	for _, bus := range g.Buses {
		alphas := allocChallenges(g, bus)

		switch bus.Kind {
		case air.BusMultiset:
			expandMultiset(g, bus, alphas)
		case air.BusLogup:
			expandLogup(g, bus, alphas)
		}

		expandBoundary(g, bus, bus.First, g.AddBoundaryFirstConstraint)
		expandBoundary(g, bus, bus.Last, g.AddBoundaryLastConstraint)
	}
}

// allocChallenges reserves one shared block of random-value indices per
// bus, wide enough for its widest operation's tuple plus the constant
// term α₀ (spec.md §4.4: "the maximum number of random challenges
// required is max_op(|columns|+1) across all bus ops").
func allocChallenges(g *air.Graph, bus *air.Bus) []air.NodeIndex {
	width := 0
	for _, op := range bus.Ops {
		if len(op.Columns) > width {
			width = len(op.Columns)
		}
	}

	base := g.NumRandomValues
	g.NumRandomValues += width + 1

	alphas := make([]air.NodeIndex, width+1)
	for i := range alphas {
		alphas[i] = g.InsertNode(air.RandomValue{Index: base + i})
	}

	return alphas
}

// linearCombination builds α₀ + Σᵢ αᵢ·cᵢ over an operation's columns.
func linearCombination(g *air.Graph, alphas []air.NodeIndex, columns []air.NodeIndex) air.NodeIndex {
	sum := alphas[0]
	for i, c := range columns {
		term := g.InsertNode(air.Mul{L: alphas[i+1], R: c})
		sum = g.InsertNode(air.Add{L: sum, R: term})
	}

	return sum
}

// auxSegment is the trace segment a bus's accumulator column and its
// integrity/boundary roots live in, matching pkg/compiler/lower.go's own
// auxSegment convention and the Rust original's AUX_SEGMENT
// (original_source/air/src/passes/expand_buses.rs).
const auxSegment air.TraceSegmentID = 1

func accumulatorAccess(bus *air.Bus, rowOffset int) air.TraceAccess {
	return air.TraceAccess{Segment: uint8(auxSegment), Column: bus.Column, RowOffset: rowOffset}
}

// expandMultiset emits `P·p − P′·p′ = 0`, where `P`/`P′` are the
// products of `T(op) = s·(α₀ + Σᵢ αᵢ·cᵢ) + (1−s)` over the bus's insert
// and remove operations respectively (spec.md §4.4).
func expandMultiset(g *air.Graph, bus *air.Bus, alphas []air.NodeIndex) {
	one := g.InsertNode(air.Constant{V: 1})

	pTerm := func(kind air.BusOpKind) air.NodeIndex {
		acc := one
		for _, op := range bus.Ops {
			if op.Kind != kind {
				continue
			}

			lc := linearCombination(g, alphas, op.Columns)
			sLc := g.InsertNode(air.Mul{L: op.Latch, R: lc})
			oneMinusS := g.InsertNode(air.Sub{L: one, R: op.Latch})
			t := g.InsertNode(air.Add{L: sLc, R: oneMinusS})
			acc = g.InsertNode(air.Mul{L: acc, R: t})
		}

		return acc
	}

	p := g.InsertNode(accumulatorAccess(bus, 0))
	pNext := g.InsertNode(accumulatorAccess(bus, 1))

	bigP := pTerm(air.BusInsert)
	bigPPrime := pTerm(air.BusRemove)

	lhs := g.InsertNode(air.Mul{L: bigP, R: p})
	rhs := g.InsertNode(air.Mul{L: bigPPrime, R: pNext})
	root := g.InsertNode(air.Sub{L: lhs, R: rhs})

	g.AddIntegrityConstraint(auxSegment, root, air.ConstraintDomain{Kind: air.EveryRow})
}

// expandLogup emits `Π·q + Σ_Insert Aᵢ − Π·q′ − Σ_Remove Bᵢ = 0`, where
// `Fᵢ(op) = α₀ + Σⱼ αⱼ·c_{i,j}`, `Π = ∏ᵢ Fᵢ`, and `Aᵢ`/`Bᵢ` are `sᵢ`
// times the product of every other operation's `F` (spec.md §4.4).
func expandLogup(g *air.Graph, bus *air.Bus, alphas []air.NodeIndex) {
	fs := make([]air.NodeIndex, len(bus.Ops))
	for i, op := range bus.Ops {
		fs[i] = linearCombination(g, alphas, op.Columns)
	}

	bigPi := fs[0]
	for _, f := range fs[1:] {
		bigPi = g.InsertNode(air.Mul{L: bigPi, R: f})
	}

	if len(fs) == 0 {
		bigPi = g.InsertNode(air.Constant{V: 1})
	}

	otherProduct := func(skip int) air.NodeIndex {
		acc := g.InsertNode(air.Constant{V: 1})
		for i, f := range fs {
			if i == skip {
				continue
			}

			acc = g.InsertNode(air.Mul{L: acc, R: f})
		}

		return acc
	}

	var insertSum, removeSum air.NodeIndex

	zero := g.InsertNode(air.Constant{V: 0})
	insertSum, removeSum = zero, zero

	for i, op := range bus.Ops {
		term := g.InsertNode(air.Mul{L: op.Latch, R: otherProduct(i)})
		if op.Kind == air.BusInsert {
			insertSum = g.InsertNode(air.Add{L: insertSum, R: term})
		} else {
			removeSum = g.InsertNode(air.Add{L: removeSum, R: term})
		}
	}

	q := g.InsertNode(accumulatorAccess(bus, 0))
	qNext := g.InsertNode(accumulatorAccess(bus, 1))

	lhs := g.InsertNode(air.Add{L: g.InsertNode(air.Mul{L: bigPi, R: q}), R: insertSum})
	rhsProd := g.InsertNode(air.Mul{L: bigPi, R: qNext})
	rhs := g.InsertNode(air.Add{L: rhsProd, R: removeSum})
	root := g.InsertNode(air.Sub{L: lhs, R: rhs})

	g.AddIntegrityConstraint(auxSegment, root, air.ConstraintDomain{Kind: air.EveryRow})
}

// expandBoundary emits the first/last-row requirement a bus's boundary
// demands. A Table boundary is left for codegen to resolve against the
// bound public-input table (spec.md's Open Question on PublicInputTable
// boundary semantics); Unconstrained emits nothing.
func expandBoundary(g *air.Graph, bus *air.Bus, boundary air.BusBoundary, add func(air.TraceSegmentID, air.NodeIndex)) {
	if boundary.Kind != air.BusBoundaryNull {
		return
	}

	identity := uint64(1)
	if bus.Kind == air.BusLogup {
		identity = 0
	}

	acc := g.InsertNode(accumulatorAccess(bus, 0))
	id := g.InsertNode(air.Constant{V: identity})
	root := g.InsertNode(air.Sub{L: acc, R: id})

	add(auxSegment, root)
}
