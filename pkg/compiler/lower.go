// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"fmt"
	"sort"

	"github.com/airscript-lang/airscript/pkg/air"
	"github.com/airscript-lang/airscript/pkg/ast"
	"github.com/airscript-lang/airscript/pkg/diag"
	"github.com/airscript-lang/airscript/pkg/mir"
	"github.com/airscript-lang/airscript/pkg/source"
)

// auxSegment is the trace segment index bus accumulator columns and
// randomness-dependent values live in, mirroring the surface language's
// `$aux` segment.
const auxSegment = 1

// lowerer holds the state of one MIR -> AIR-IR lowering pass (spec.md
// §4.5, grounded on `translate_from_mir.rs`'s AirBuilder). Nearly every
// MIR node the translator produces has already been reduced to the
// four-operator closed set by the pass pipeline (constant propagation,
// inlining, unrolling); insertMirOperation's default case is reached
// only if that invariant was violated upstream.
type lowerer struct {
	diags     diag.Handler
	ag        *air.Graph
	busColumn map[string]uint16
	failed    bool
}

// Lower translates a fully-passed MIR graph into the AIR-IR (spec.md
// §4.5, `original_source/air/src/passes/translate_from_mir.rs`). Callers
// must run constant propagation, inlining, and unrolling to a fixed
// point first — Lower panics on any MIR shape those passes are meant to
// eliminate (Call, For, a non-singleton Vector reaching a scalar
// position), since that indicates a structural invariant violation
// rather than a user error (spec.md §7).
func Lower(mg *mir.Graph, diags diag.Handler) (*air.Graph, *CompileError) {
	ag := air.NewGraph()

	ag.TraceSegmentWidths = append(ag.TraceSegmentWidths, uint16(segmentWidth(mg, "main")))

	auxUserWidth := segmentWidth(mg, "aux")

	busNames := make([]string, 0, len(mg.Buses))
	for name := range mg.Buses {
		busNames = append(busNames, name)
	}

	// Sorted so bus->column assignment is deterministic across runs
	// rather than depending on Go's randomized map iteration order.
	sort.Strings(busNames)

	busColumn := make(map[string]uint16, len(busNames))
	for i, name := range busNames {
		busColumn[name] = uint16(auxUserWidth + i)
	}

	if auxUserWidth > 0 || len(busNames) > 0 {
		ag.TraceSegmentWidths = append(ag.TraceSegmentWidths, uint16(auxUserWidth+len(busNames)))
	}

	ag.NumRandomValues = highestRandomIndex(mg) + 1

	for _, pi := range mg.PublicInputs {
		kind := air.PublicInputKindVector
		if pi.Kind == ast.PublicInputTable {
			kind = air.PublicInputKindTable
		}

		ag.PublicInputs = append(ag.PublicInputs, air.PublicInputDecl{Name: pi.Name, Kind: kind, Size: pi.Size})
	}

	lw := &lowerer{diags: diags, ag: ag, busColumn: busColumn}

	for _, name := range busNames {
		lw.buildBus(mg.Buses[name])
	}

	for _, root := range mg.BoundaryRoots {
		lw.buildBoundaryConstraint(root)
	}

	for _, root := range mg.IntegrityRoots {
		lw.buildIntegrityConstraint(root)
	}

	if lw.failed {
		return ag, Failed()
	}

	return ag, nil
}

// segmentWidth sums the declared column widths of the user trace segment
// named name ("main" or "aux"), 0 if the module declares no such
// segment (an aux-free module with no buses never allocates segment 1
// at all).
func segmentWidth(mg *mir.Graph, name string) int {
	for _, seg := range mg.TraceSegments {
		if seg.Name != name {
			continue
		}

		width := 0
		for _, col := range seg.Columns {
			width += col.Width
		}

		return width
	}

	return 0
}

// highestRandomIndex walks every MIR root looking for the largest
// `$rand[i]` index referenced, so Lower can size the AIR's declared
// random-value budget before bus expansion allocates its own additional
// challenges on top.
func highestRandomIndex(mg *mir.Graph) int {
	highest := -1

	mir.Visit(mg.AllRoots(), func(n mir.NodeRef) bool {
		if v, ok := n.Get().Op.(mir.ValueOp); ok {
			if rv, ok := v.V.(mir.RandomValue); ok && rv.Index > highest {
				highest = rv.Index
			}
		}

		return true
	})

	return highest
}

func (lw *lowerer) report(d diag.Diagnostic) {
	lw.diags.Report(d)
	lw.failed = true
}

// insertMirOperation recursively lowers a MIR expression into the flat
// AIR-IR, resolving away the two constructs that can still wrap a
// scalar value this late in the pipeline: an indexed access into a
// literal Vector, and a singleton Vector wrapper (spec.md §4.2's
// `indexed_accessor`/`vec_to_scalar` helpers).
func (lw *lowerer) insertMirOperation(n mir.NodeRef) air.NodeIndex {
	resolved, err := mir.IndexedAccessor(n)
	if err != nil {
		lw.report(diag.Errorf(n.Get().Span(), "%s", err))
		return 0
	}

	resolved = mir.VecToScalar(resolved)

	switch op := resolved.Get().Op.(type) {
	case mir.ValueOp:
		return lw.ag.InsertNode(lw.valueOp(op.V, valueRowOffset(op.V)))
	case *mir.Add:
		return lw.insertAssoc(resolved.Get().Children(), func(l, r air.NodeIndex) air.Op { return air.Add{L: l, R: r} })
	case *mir.Mul:
		return lw.insertAssoc(resolved.Get().Children(), func(l, r air.NodeIndex) air.Op { return air.Mul{L: l, R: r} })
	case *mir.Sub:
		ch := resolved.Get().Children()
		l := lw.insertMirOperation(ch[0])
		r := lw.insertMirOperation(ch[1])

		return lw.ag.InsertNode(air.Sub{L: l, R: r})
	case *mir.Exp:
		base := lw.insertMirOperation(resolved.Get().Children()[0])
		return lw.expandExp(base, op.Exponent)
	case *mir.Enf:
		return lw.insertMirOperation(resolved.Get().Children()[0])
	case *mir.Accessor:
		return lw.insertAccessor(op)
	case *mir.Fold:
		return lw.insertFold(op)
	default:
		panic(fmt.Sprintf("insertMirOperation: unexpected MIR operation %T reached AIR lowering", op))
	}
}

func valueRowOffset(v mir.Value) int {
	switch vv := v.(type) {
	case mir.TraceAccess:
		return vv.RowOffset
	case mir.BusAccess:
		return vv.RowOffset
	default:
		return 0
	}
}

// insertAssoc left-folds a variable-arity Add/Mul's operands into a
// chain of binary AIR nodes.
func (lw *lowerer) insertAssoc(children []mir.NodeRef, combine func(l, r air.NodeIndex) air.Op) air.NodeIndex {
	acc := lw.insertMirOperation(children[0])
	for _, c := range children[1:] {
		acc = lw.ag.InsertNode(combine(acc, lw.insertMirOperation(c)))
	}

	return acc
}

// expandExp expands base^exponent via square-and-multiply, mirroring
// `translate_from_mir.rs`'s `expand_exp` (the AIR-IR has no native power
// operator).
func (lw *lowerer) expandExp(base air.NodeIndex, exponent uint64) air.NodeIndex {
	switch {
	case exponent == 0:
		return lw.ag.InsertNode(air.Constant{V: 1})
	case exponent == 1:
		return base
	case exponent%2 == 0:
		square := lw.ag.InsertNode(air.Mul{L: base, R: base})
		return lw.expandExp(square, exponent/2)
	default:
		square := lw.ag.InsertNode(air.Mul{L: base, R: base})
		rec := lw.expandExp(square, (exponent-1)/2)

		return lw.ag.InsertNode(air.Mul{L: base, R: rec})
	}
}

// insertAccessor resolves an Accessor's indexable child to a leaf Value
// and re-lowers it with the accessor's own Offset standing in for the
// child's row offset — at the point an Accessor survives to this pass,
// the shift always lives on the accessor, never baked into the child
// (spec.md §4.3's translate.go never nests the two).
func (lw *lowerer) insertAccessor(acc *mir.Accessor) air.NodeIndex {
	resolved, err := mir.IndexedAccessor(acc.Operands[0])
	if err != nil {
		lw.report(diag.Errorf(acc.Operands[0].Get().Span(), "%s", err))
		return 0
	}

	val, ok := resolved.Get().Op.(mir.ValueOp)
	if !ok {
		panic(fmt.Sprintf("insertAccessor: expected a leaf value, found %T", resolved.Get().Op))
	}

	return lw.ag.InsertNode(lw.valueOp(val.V, acc.Offset))
}

// insertFold expands a `sum`/`prod` builtin call over its (by this point
// fully unrolled) iterator into a left-associative chain of Add/Mul
// nodes seeded by Init.
func (lw *lowerer) insertFold(f *mir.Fold) air.NodeIndex {
	iter, err := mir.IndexedAccessor(f.Iterator())
	if err != nil {
		lw.report(diag.Errorf(f.Iterator().Get().Span(), "%s", err))
		return 0
	}

	if _, ok := iter.Get().Op.(*mir.Vector); !ok {
		panic(fmt.Sprintf("insertFold: fold iterator did not unroll to a Vector, found %T", iter.Get().Op))
	}

	acc := lw.insertMirOperation(f.Init())

	for _, el := range iter.Get().Children() {
		idx := lw.insertMirOperation(el)

		switch f.Op {
		case mir.FoldAdd:
			acc = lw.ag.InsertNode(air.Add{L: acc, R: idx})
		case mir.FoldMul:
			acc = lw.ag.InsertNode(air.Mul{L: acc, R: idx})
		}
	}

	return acc
}

// valueOp translates a single MIR leaf Value into its AIR-IR Op,
// applying rowOffset in place of whatever offset the value itself
// carries (the caller decides which one is authoritative).
func (lw *lowerer) valueOp(v mir.Value, rowOffset int) air.Op {
	switch val := v.(type) {
	case mir.ConstFelt:
		f := val.V
		return air.Constant{V: f.Uint64()}
	case mir.TraceAccess:
		return air.TraceAccess{Segment: val.Segment, Column: val.Column, RowOffset: rowOffset}
	case mir.TraceAccessBinding:
		if val.Size != 1 {
			panic("valueOp: multi-column trace access binding reached a scalar position")
		}

		return air.TraceAccess{Segment: val.Segment, Column: val.Offset, RowOffset: rowOffset}
	case mir.BusAccess:
		busRef, ok := val.Bus.Strong()
		if !ok {
			panic("valueOp: dangling bus reference")
		}

		column, ok := lw.busColumn[busRef.Get().Name]
		if !ok {
			panic("valueOp: bus column binding missing for " + busRef.Get().Name)
		}

		return air.TraceAccess{Segment: auxSegment, Column: column, RowOffset: rowOffset}
	case mir.PeriodicColumn:
		cycle := make([]uint64, len(val.Cycle))
		for i, f := range val.Cycle {
			cycle[i] = f.Uint64()
		}

		return air.PeriodicColumn{Name: val.Name, Cycle: cycle}
	case mir.PublicInput:
		return air.PublicInput{Name: val.Name, Index: val.Index}
	case mir.PublicInputTable:
		return air.PublicInputTable{Name: val.Name}
	case mir.RandomValue:
		return air.RandomValue{Index: val.Index}
	default:
		panic(fmt.Sprintf("valueOp: unexpected MIR value %T reached AIR lowering", v))
	}
}

// buildBus translates an MIR bus's aggregated operations into the
// AIR-level Bus record `pkg/air/passes/busexpand.go` later expands into
// integrity/boundary constraints.
func (lw *lowerer) buildBus(bus *mir.Bus) {
	kind := air.BusMultiset
	if bus.Kind == mir.BusLogup {
		kind = air.BusLogup
	}

	ops := make([]air.BusOp, 0, len(bus.Columns))

	for _, node := range bus.Columns {
		busOp, ok := node.Get().Op.(*mir.BusOp)
		if !ok {
			panic(fmt.Sprintf("buildBus: bus column was not a BusOp, found %T", node.Get().Op))
		}

		args := busOp.Args()
		columns := make([]air.NodeIndex, len(args))

		for i, a := range args {
			columns[i] = lw.insertMirOperation(a)
		}

		opKind := air.BusInsert
		if busOp.Kind == mir.BusRemove {
			opKind = air.BusRemove
		}

		ops = append(ops, air.BusOp{Kind: opKind, Columns: columns, Latch: lw.insertMirOperation(busOp.Latch())})
	}

	lw.ag.Buses[bus.Name] = &air.Bus{
		Name:   bus.Name,
		Kind:   kind,
		Ops:    ops,
		Column: lw.busColumn[bus.Name],
	}
}

// buildBoundaryConstraint lowers one `Enf(Sub(Boundary(kind, lhs),
// rhs))` root (spec.md §4.3's boundary-root shape). A bus boundary whose
// rhs is Null, Unconstrained, or a PublicInputTable is recorded on the
// AIR Bus instead of emitting a constraint directly — bus expansion
// (spec.md §4.4) or codegen (for Table) handles those.
func (lw *lowerer) buildBoundaryConstraint(root mir.NodeRef) {
	enf, ok := root.Get().Op.(*mir.Enf)
	if !ok {
		panic(fmt.Sprintf("buildBoundaryConstraint: root was not Enf, found %T", root.Get().Op))
	}

	sub, ok := enf.Operands[0].Get().Op.(*mir.Sub)
	if !ok {
		lw.report(diag.Errorf(root.Get().Span(), "a boundary constraint must take the form target.first/last = expr"))
		return
	}

	boundary, ok := sub.Operands[0].Get().Op.(*mir.Boundary)
	if !ok {
		lw.report(diag.Errorf(root.Get().Span(), "a boundary constraint's left-hand side must be a .first or .last access"))
		return
	}

	lhsVal, ok := boundary.Operands[0].Get().Op.(mir.ValueOp)
	if !ok {
		panic(fmt.Sprintf("buildBoundaryConstraint: Boundary child was not a leaf value, found %T", boundary.Operands[0].Get().Op))
	}

	rhs := sub.Operands[1]

	if busAccess, ok := lhsVal.V.(mir.BusAccess); ok {
		lw.buildBusBoundaryConstraint(root.Get().Span(), busAccess, boundary.Kind, rhs)
		return
	}

	var segment uint8

	var column uint16

	switch lv := lhsVal.V.(type) {
	case mir.TraceAccess:
		segment, column = lv.Segment, lv.Column
	case mir.TraceAccessBinding:
		if lv.Size != 1 {
			lw.report(diag.Errorf(root.Get().Span(), "boundary constraints require both sides to be single columns"))
			return
		}

		segment, column = lv.Segment, lv.Offset
	default:
		lw.report(diag.Errorf(root.Get().Span(), "boundary constraints may only target a trace column or a bus"))
		return
	}

	domain := air.ConstraintDomain{Kind: air.FirstRow}
	if boundary.Kind == mir.BoundaryLast {
		domain = air.ConstraintDomain{Kind: air.LastRow}
	}

	lhsIdx := lw.ag.InsertNode(air.TraceAccess{Segment: segment, Column: column, RowOffset: 0})
	rhsIdx := lw.insertMirOperation(rhs)

	lw.checkBoundaryDomains(root.Get().Span(), lhsIdx, rhsIdx, domain)

	constraintRoot := lw.ag.InsertNode(air.Sub{L: lhsIdx, R: rhsIdx})

	switch boundary.Kind {
	case mir.BoundaryFirst:
		lw.ag.AddBoundaryFirstConstraint(air.TraceSegmentID(segment), constraintRoot)
	case mir.BoundaryLast:
		lw.ag.AddBoundaryLastConstraint(air.TraceSegmentID(segment), constraintRoot)
	}
}

// buildBusBoundaryConstraint handles the bus-valued case of
// buildBoundaryConstraint: it classifies rhs and either records a
// deferred boundary marker on the bus or emits an ordinary constraint,
// exactly like a trace-column boundary.
func (lw *lowerer) buildBusBoundaryConstraint(span source.Span, busAccess mir.BusAccess, kind mir.BoundaryKind, rhs mir.NodeRef) {
	busRef, ok := busAccess.Bus.Strong()
	if !ok {
		panic("buildBusBoundaryConstraint: dangling bus reference")
	}

	bus, ok := lw.ag.Buses[busRef.Get().Name]
	if !ok {
		panic("buildBusBoundaryConstraint: bus not yet registered: " + busRef.Get().Name)
	}

	column := lw.busColumn[busRef.Get().Name]

	rhsVal, isLeaf := rhs.Get().Op.(mir.ValueOp)
	if isLeaf {
		switch v := rhsVal.V.(type) {
		case mir.Null:
			setBusBoundary(bus, kind, air.BusBoundary{Kind: air.BusBoundaryNull})
			return
		case mir.Unconstrained:
			setBusBoundary(bus, kind, air.BusBoundary{Kind: air.BusBoundaryUnconstrained})
			return
		case mir.PublicInputTable:
			setBusBoundary(bus, kind, air.BusBoundary{Kind: air.BusBoundaryTable, TableName: v.Name})
			return
		}
	}

	domain := air.ConstraintDomain{Kind: air.FirstRow}
	if kind == mir.BoundaryLast {
		domain = air.ConstraintDomain{Kind: air.LastRow}
	}

	lhsIdx := lw.ag.InsertNode(air.TraceAccess{Segment: auxSegment, Column: column, RowOffset: 0})
	rhsIdx := lw.insertMirOperation(rhs)

	lw.checkBoundaryDomains(span, lhsIdx, rhsIdx, domain)

	root := lw.ag.InsertNode(air.Sub{L: lhsIdx, R: rhsIdx})

	switch kind {
	case mir.BoundaryFirst:
		lw.ag.AddBoundaryFirstConstraint(auxSegment, root)
	case mir.BoundaryLast:
		lw.ag.AddBoundaryLastConstraint(auxSegment, root)
	}

	setBusBoundary(bus, kind, air.BusBoundary{Kind: air.BusBoundaryExplicit})
}

func setBusBoundary(bus *air.Bus, kind mir.BoundaryKind, boundary air.BusBoundary) {
	if kind == mir.BoundaryFirst {
		bus.First = boundary
	} else {
		bus.Last = boundary
	}
}

func (lw *lowerer) checkBoundaryDomains(span source.Span, lhsIdx, rhsIdx air.NodeIndex, domain air.ConstraintDomain) {
	lhsSeg, lhsDomain, err := air.NodeDetails(lw.ag, lhsIdx, domain, true)
	if err != nil {
		lw.reportConstraintError(span, err)
		return
	}

	rhsSeg, rhsDomain, err := air.NodeDetails(lw.ag, rhsIdx, domain, true)
	if err != nil {
		lw.reportConstraintError(span, err)
		return
	}

	if lhsSeg < rhsSeg {
		lw.report(diag.Errorf(span, "boundary constraint spans mismatched trace segments"))
		return
	}

	if lhsDomain != rhsDomain {
		lw.report(diag.Errorf(span, "boundary constraint sides disagree on constraint domain"))
	}
}

// buildIntegrityConstraint lowers one `Enf(expr)` integrity root
// (spec.md §4.3's integrity-root shape). expr is usually a top-level
// `Sub(lhs, rhs)` from a surface `lhs = rhs` constraint, but
// lowerConstraintExpr also enforces other zero-residual shapes directly
// (e.g. an evaluator call's residual), so this does not assume Sub.
func (lw *lowerer) buildIntegrityConstraint(root mir.NodeRef) {
	enf, ok := root.Get().Op.(*mir.Enf)
	if !ok {
		panic(fmt.Sprintf("buildIntegrityConstraint: root was not Enf, found %T", root.Get().Op))
	}

	constraintRoot := lw.insertMirOperation(enf.Operands[0])

	seg, domain, err := air.NodeDetails(lw.ag, constraintRoot, air.ConstraintDomain{Kind: air.EveryRow}, false)
	if err != nil {
		lw.reportConstraintError(root.Get().Span(), err)
		return
	}

	lw.ag.AddIntegrityConstraint(seg, constraintRoot, domain)
}

func (lw *lowerer) reportConstraintError(span source.Span, err error) {
	lw.report(diag.Errorf(span, "%s", err))
}
