// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package mir

import (
	"fmt"

	"github.com/airscript-lang/airscript/pkg/ast"
	"github.com/airscript-lang/airscript/pkg/diag"
	"github.com/airscript-lang/airscript/pkg/field"
	"github.com/airscript-lang/airscript/pkg/graph"
	"github.com/airscript-lang/airscript/pkg/source"
)

// translator holds the state of one AST -> MIR lowering pass (spec.md
// §4.3). It is not exported: callers use Translate.
type translator struct {
	graph      *Graph
	scope      *Scope
	diags      diag.Handler
	inBoundary bool
	failed     bool
}

// Translate lowers a fully-parsed, fully-resolved root module into an
// MIR graph (spec.md §4.3). Diagnostics are reported through diags;
// Translate returns a non-nil error only for a structural invariant
// violation (an unreachable case the external semantic analyzer should
// already have ruled out) — ordinary semantic errors are reported via
// diags and reflected by diags.HasErrors() after Translate returns.
func Translate(mod *ast.Module, diags diag.Handler) (*Graph, error) {
	t := &translator{
		graph: NewGraph(),
		scope: NewScope(),
		diags: diags,
	}

	// Step 1: copy trace-segment declarations, periodic columns, and
	// public inputs by reference.
	t.graph.TraceSegments = mod.TraceSegments
	t.graph.PeriodicColumns = mod.PeriodicColumns
	t.graph.PublicInputs = mod.PublicInputs

	// Step 2: create empty Bus records for each bus declaration.
	for _, b := range mod.Buses {
		kind := BusMultiset
		if b.Kind == ast.BusLogup {
			kind = BusLogup
		}

		t.graph.Buses[b.Name] = &Bus{Name: b.Name, Kind: kind}
	}

	// Step 3: register function/evaluator signatures so recursive bodies
	// can refer to siblings by name.
	for _, fn := range mod.Functions {
		t.graph.Functions[fn.Name] = &Function{Name: fn.Name, ReturnType: fn.ReturnType}
	}

	for _, ev := range mod.Evaluators {
		t.graph.Evaluators[ev.Name] = &Evaluator{Name: ev.Name}
	}

	// Step 4: lower each function/evaluator body in a fresh scope.
	for _, fn := range mod.Functions {
		t.lowerFunction(fn)
	}

	for _, ev := range mod.Evaluators {
		t.lowerEvaluator(ev)
	}

	// Step 5: lower boundary constraints, then integrity constraints.
	t.inBoundary = true

	for _, stmt := range mod.BoundaryConstraints {
		t.lowerTopLevelStatement(stmt)
	}

	t.inBoundary = false

	for _, stmt := range mod.IntegrityConstraints {
		t.lowerTopLevelStatement(stmt)
	}

	// Step 6: back-patch PublicInputTable bus bindings.
	t.backpatchBusTables()

	if t.failed {
		return t.graph, fmt.Errorf("translate: semantic errors reported")
	}

	return t.graph, nil
}

func (t *translator) report(d diag.Diagnostic) {
	t.diags.Report(d)
	if d.Severity == diag.SeverityError {
		t.failed = true
	}
}

// --- function / evaluator signatures -------------------------------------

func (t *translator) lowerFunction(fn *ast.FunctionDecl) {
	root := t.graph.Functions[fn.Name]
	t.scope.Push()

	params := make([]NodeRef, len(fn.Params))

	for i, p := range fn.Params {
		node := NewParameter(p.Span, p.Name, i, RootFunction, fn.Name)
		params[i] = node
		t.scope.Bind(p.Name, node)
	}

	root.Parameters = params
	root.Body = t.lowerFunctionBody(fn.Body)
	t.scope.Pop()
}

func (t *translator) lowerFunctionBody(stmts []ast.Statement) NodeRef {
	var result NodeRef

	for _, s := range stmts {
		switch st := s.(type) {
		case *ast.LetStmt:
			v := t.lowerExpr(st.Expr)
			t.scope.Bind(st.Name, v)
		case *ast.ReturnStmt:
			result = t.lowerExpr(st.Expr)
		case *ast.ExprStmt:
			result = t.lowerExpr(st.Expr)
		default:
			t.report(diag.Errorf(s.Span(), "statement not valid inside a function body"))
		}
	}

	return result
}

func (t *translator) lowerEvaluator(ev *ast.EvaluatorDecl) {
	root := t.graph.Evaluators[ev.Name]
	t.scope.Push()

	var (
		params []NodeRef
		groups []int
		pos    int
	)

	for _, group := range ev.Params {
		groups = append(groups, len(group))

		for _, p := range group {
			node := NewParameter(p.Span, p.Name, pos, RootEvaluator, ev.Name)
			params = append(params, node)
			t.scope.Bind(p.Name, node)
			pos++
		}
	}

	root.Parameters = params
	root.ParamGroups = groups
	root.Body = t.lowerEvaluatorBody(ev.Body)
	t.scope.Pop()
}

func (t *translator) lowerEvaluatorBody(stmts []ast.Statement) []NodeRef {
	var body []NodeRef

	for _, s := range stmts {
		switch st := s.(type) {
		case *ast.LetStmt:
			v := t.lowerExpr(st.Expr)
			t.scope.Bind(st.Name, v)
		case *ast.EnforceStmt:
			body = append(body, t.lowerEnforce(st.Expr, st.Span()))
		case *ast.EnforceForStmt:
			if n, ok := t.lowerEnforceFor(st); ok {
				body = append(body, n)
			}
		case *ast.BusEnforceStmt:
			t.lowerBusEnforce(st)
		default:
			t.report(diag.Errorf(s.Span(), "statement not valid inside an evaluator body"))
		}
	}

	return body
}

// --- top-level (boundary/integrity) statements ---------------------------

func (t *translator) lowerTopLevelStatement(s ast.Statement) {
	switch st := s.(type) {
	case *ast.LetStmt:
		v := t.lowerExpr(st.Expr)
		t.scope.Bind(st.Name, v)
	case *ast.EnforceStmt:
		root := t.lowerEnforce(st.Expr, st.Span())
		t.addRoot(root)
	case *ast.EnforceForStmt:
		if root, ok := t.lowerEnforceFor(st); ok {
			t.addRoot(root)
		}
	case *ast.BusEnforceStmt:
		if !t.inBoundary {
			t.lowerBusEnforce(st)
		} else {
			t.report(diag.Errorf(st.Span(), "bus_enforce is not valid inside boundary_constraints"))
		}
	default:
		t.report(diag.Errorf(s.Span(), "statement not valid at this position"))
	}
}

func (t *translator) addRoot(root NodeRef) {
	if !root.Valid() {
		return
	}

	if t.inBoundary {
		t.checkOverlap(root)
		t.graph.AddBoundaryRoot(root)
	} else {
		t.graph.AddIntegrityRoot(root)
	}
}

// checkOverlap implements the "overlapping boundary constraints"
// diagnostic (spec.md §8 scenario 2): two boundary roots that pin the
// exact same (column, edge) pair.
func (t *translator) checkOverlap(root NodeRef) {
	key, ok := boundaryKey(root)
	if !ok {
		return
	}

	for _, existing := range t.graph.BoundaryRoots {
		existingKey, ok := boundaryKey(existing)
		if ok && existingKey == key {
			t.report(diag.ErrorWithSecondary(
				root.Get().Span(),
				diag.Label{Span: existing.Get().Span(), Message: "first constrained here"},
				"overlapping boundary constraints for %s", key,
			))

			return
		}
	}
}

func boundaryKey(root NodeRef) (string, bool) {
	enf, ok := root.Get().Op.(*Enf)
	if !ok {
		return "", false
	}

	sub, ok := enf.Operands[0].Get().Op.(*Sub)
	if !ok || len(sub.Operands) != 2 {
		return "", false
	}

	b, ok := sub.Operands[0].Get().Op.(*Boundary)
	if !ok {
		return "", false
	}

	inner := b.Operands[0].Get().Op

	switch v := inner.(type) {
	case ValueOp:
		switch vv := v.V.(type) {
		case TraceAccess:
			return fmt.Sprintf("trace(%d,%d)/%d", vv.Segment, vv.Column, b.Kind), true
		case BusAccess:
			return fmt.Sprintf("bus/%d", b.Kind), true
		}
	}

	return "", false
}

// --- enforce lowering ------------------------------------------------------

// lowerEnforce lowers a plain `enforce expr;` into an Enf root. Binary
// `=` is special-cased to Enf(Sub(lhs,rhs)) (spec.md §4.3); every other
// expression shape is enforced directly (e.g. the residual of an
// evaluator call, already zero-shaped).
func (t *translator) lowerEnforce(e ast.Expr, span source.Span) NodeRef {
	return NewEnf(span, t.lowerConstraintExpr(e))
}

// lowerConstraintExpr produces the zero-residual expression a constraint
// enforces, without wrapping it in Enf — used both for plain enforce
// statements and for the body of a comprehension enforce, which is
// wrapped in a For before the Enf is applied.
func (t *translator) lowerConstraintExpr(e ast.Expr) NodeRef {
	if bin, ok := e.(*ast.BinOp); ok && bin.Op == ast.BinEq {
		l := t.lowerExpr(bin.Left)
		r := t.lowerExpr(bin.Right)

		return NewSub(bin.Span(), l, r)
	}

	return t.lowerExpr(e)
}

func (t *translator) lowerEnforceFor(st *ast.EnforceForStmt) (NodeRef, bool) {
	c := st.Comprehension
	t.scope.Push()
	defer t.scope.Pop()

	iterables := make([]NodeRef, len(c.Iterables))
	binders := make([]NodeRef, len(c.Iterables))

	for i, it := range c.Iterables {
		iterables[i] = t.lowerExpr(it.Source)
		binders[i] = NewParameter(st.Span(), it.Binder, i, RootComprehension, "")
		t.scope.Bind(it.Binder, binders[i])
	}

	body := t.lowerConstraintExpr(c.Body)

	var selector NodeRef
	if c.Selector != nil {
		selector = t.lowerExpr(c.Selector)
	}

	forNode := NewFor(st.Span(), iterables, binders, body, selector)

	return NewEnf(st.Span(), forNode), true
}

func (t *translator) lowerBusEnforce(st *ast.BusEnforceStmt) {
	c := st.Comprehension

	if len(c.Iterables) != 1 {
		t.report(diag.Errorf(st.Span(), "bus_enforce requires exactly one iterable over 0..1"))
		return
	}

	if r, ok := c.Iterables[0].Source.(*ast.RangeLit); !ok || r.Lo != 0 || r.Hi != 1 {
		t.report(diag.Errorf(st.Span(), "bus_enforce requires exactly one iterable over 0..1"))
		return
	}

	call, ok := c.Body.(*ast.BusCall)
	if !ok {
		t.report(diag.Errorf(st.Span(), "bus_enforce body must be a bus operation"))
		return
	}

	bus, ok := t.graph.Buses[call.Bus]
	if !ok {
		t.report(diag.Errorf(st.Span(), "unknown bus %q", call.Bus))
		return
	}

	if call.Selector == nil {
		t.report(diag.Errorf(st.Span(), "bus operation requires a selector/multiplicity"))
		return
	}

	args := make([]NodeRef, len(call.Args))
	for i, a := range call.Args {
		args[i] = t.lowerExpr(a)
	}

	latch := t.lowerExpr(call.Selector)

	kind := BusInsert
	if call.Kind == ast.BusRemove {
		kind = BusRemove
	}

	busRef := graph.WeakFromPtr(bus)
	op := NewBusOp(st.Span(), busRef, kind, args, latch)

	bus.Columns = append(bus.Columns, op)
	bus.Latches = append(bus.Latches, latch)
}

// --- expression lowering ---------------------------------------------------

func (t *translator) lowerExpr(e ast.Expr) NodeRef {
	switch ex := e.(type) {
	case *ast.ConstFelt:
		return NewValue(ex.Span(), ConstFelt{V: ex.Value})
	case *ast.NullLit:
		return NewValue(ex.Span(), Null{})
	case *ast.UnconstrainedLit:
		return NewValue(ex.Span(), Unconstrained{})
	case *ast.RangeLit:
		// A finite integer range used as a comprehension's iterable
		// source lowers directly to its materialized Vector of index
		// constants; the unroll pass (passes/unroll.go) needs the
		// concrete element count to know how many clones to produce.
		elems := make([]NodeRef, 0, ex.Hi-ex.Lo)
		for i := ex.Lo; i < ex.Hi; i++ {
			elems = append(elems, NewValue(ex.Span(), ConstFelt{V: field.NewFelt(uint64(i))}))
		}

		return NewVector(ex.Span(), elems...)
	case *ast.VectorLit:
		elems := make([]NodeRef, len(ex.Elements))
		for i, el := range ex.Elements {
			elems[i] = t.lowerExpr(el)
		}

		return NewVector(ex.Span(), elems...)
	case *ast.MatrixLit:
		rows := len(ex.Rows)
		cols := 0

		if rows > 0 {
			cols = len(ex.Rows[0])
		}

		flat := make([]NodeRef, 0, rows*cols)

		for _, row := range ex.Rows {
			for _, el := range row {
				flat = append(flat, t.lowerExpr(el))
			}
		}

		return NewMatrix(ex.Span(), rows, cols, flat)
	case *ast.BinOp:
		return t.lowerBinOp(ex)
	case *ast.SymbolAccess:
		return t.lowerSymbolAccess(ex, 0)
	case *ast.BoundedSymbolAccess:
		return t.lowerBoundedSymbolAccess(ex)
	case *ast.Access:
		return t.lowerAccess(ex)
	case *ast.Call:
		return t.lowerCall(ex)
	case *ast.Comprehension:
		return t.lowerComprehensionExpr(ex)
	default:
		t.report(diag.Errorf(e.Span(), "unsupported expression form %T", e))
		return NodeRef{}
	}
}

func (t *translator) lowerBinOp(ex *ast.BinOp) NodeRef {
	switch ex.Op {
	case ast.BinAdd:
		return NewAdd(ex.Span(), t.lowerExpr(ex.Left), t.lowerExpr(ex.Right))
	case ast.BinSub:
		return NewSub(ex.Span(), t.lowerExpr(ex.Left), t.lowerExpr(ex.Right))
	case ast.BinMul:
		return NewMul(ex.Span(), t.lowerExpr(ex.Left), t.lowerExpr(ex.Right))
	case ast.BinExp:
		base := t.lowerExpr(ex.Left)
		rhsConst, ok := ex.Right.(*ast.ConstFelt)

		if !ok {
			t.report(diag.Errorf(ex.Right.Span(), "exponent must be a constant"))
			return base
		}

		exponent := rhsConst.Value.Uint64()

		return NewExp(ex.Span(), base, exponent)
	case ast.BinEq:
		return NewSub(ex.Span(), t.lowerExpr(ex.Left), t.lowerExpr(ex.Right))
	default:
		t.report(diag.Errorf(ex.Span(), "unsupported binary operator"))
		return NodeRef{}
	}
}

// lowerSymbolAccess resolves an identifier per spec.md §4.3's lookup
// order: trace-segment names, then lexical bindings, then trace
// bindings, then public inputs. The external semantic analyzer has
// already classified which of these sym.Kind names; this function does
// the corresponding MIR construction, including the scope lookup that
// only the MIR builder (not the semantic analyzer) can perform since it
// needs the actual NodeRef bound at this point in translation.
func (t *translator) lowerSymbolAccess(sym *ast.SymbolAccess, rowOffset int) NodeRef {
	switch sym.Kind {
	case ast.SymbolLocal:
		v, ok := t.scope.Lookup(sym.Name)
		if !ok {
			t.report(diag.Errorf(sym.Span(), "undeclared identifier %q", sym.Name))
			return NodeRef{}
		}

		return v
	case ast.SymbolTraceColumn:
		return NewValue(sym.Span(), TraceAccess{Segment: sym.Segment, Column: sym.Column, RowOffset: rowOffset})
	case ast.SymbolPublicInput:
		if decl, ok := t.publicInputDecl(sym.Name); ok && decl.Kind == ast.PublicInputTable {
			return NewValue(sym.Span(), PublicInputTable{Name: sym.Name, NumCols: decl.Size})
		}

		return NewValue(sym.Span(), PublicInput{Name: sym.Name, Index: sym.Index})
	case ast.SymbolRandomValue:
		return NewValue(sym.Span(), RandomValue{Index: sym.Index})
	case ast.SymbolPeriodicColumn:
		if t.inBoundary {
			t.report(diag.Errorf(sym.Span(), "periodic column %q is not valid in a boundary constraint", sym.Name))
			return NodeRef{}
		}

		return NewValue(sym.Span(), PeriodicColumn{Name: sym.Name, Cycle: t.periodicColumnValues(sym.Name)})
	case ast.SymbolBus:
		bus, ok := t.graph.Buses[sym.Name]
		if !ok {
			t.report(diag.Errorf(sym.Span(), "unknown bus %q", sym.Name))
			return NodeRef{}
		}

		return NewValue(sym.Span(), BusAccess{Bus: graph.WeakFromPtr(bus), RowOffset: rowOffset})
	default:
		t.report(diag.Errorf(sym.Span(), "identifier %q is not valid in an expression", sym.Name))
		return NodeRef{}
	}
}

func (t *translator) periodicColumnValues(name string) []field.Felt {
	for _, pc := range t.graph.PeriodicColumns {
		if pc.Name == name {
			return pc.Values
		}
	}

	return nil
}

func (t *translator) publicInputDecl(name string) (ast.PublicInputDecl, bool) {
	for _, pi := range t.graph.PublicInputs {
		if pi.Name == name {
			return pi, true
		}
	}

	return ast.PublicInputDecl{}, false
}

func (t *translator) lowerBoundedSymbolAccess(ex *ast.BoundedSymbolAccess) NodeRef {
	if !t.inBoundary {
		t.report(diag.Errorf(ex.Span(), "%s is only valid in boundary_constraints", ex.Symbol.Name))
		return NodeRef{}
	}

	inner := t.lowerSymbolAccess(ex.Symbol, 0)
	if !inner.Valid() {
		return NodeRef{}
	}

	kind := BoundaryFirst
	if ex.Edge == ast.BoundaryLast {
		kind = BoundaryLast
	}

	return NewBoundary(ex.Span(), kind, inner)
}

func (t *translator) lowerAccess(ex *ast.Access) NodeRef {
	// `$main[i]` / `$aux[i]`-style direct segment indexing: resolved
	// directly to a TraceAccess rather than going through a generic
	// Accessor, since the segment identity is known at translate time.
	if sym, ok := ex.Base.(*ast.SymbolAccess); ok && sym.Kind == ast.SymbolTraceSegment {
		segment := uint8(0)
		if sym.Name == "$aux" {
			segment = 1
		}

		if ex.Kind != ast.AccessIndex {
			t.report(diag.Errorf(ex.Span(), "trace segment must be indexed"))
			return NodeRef{}
		}

		return NewValue(ex.Span(), TraceAccess{Segment: segment, Column: uint16(ex.Index), RowOffset: ex.RowOffset})
	}

	// A bare row-shift of a symbol we already know how to resolve
	// directly (trace column / bus) folds the shift straight into the
	// leaf value rather than wrapping it in an Accessor.
	if ex.Kind == ast.AccessDefault {
		if sym, ok := ex.Base.(*ast.SymbolAccess); ok {
			switch sym.Kind {
			case ast.SymbolTraceColumn, ast.SymbolBus:
				return t.lowerSymbolAccess(sym, ex.RowOffset)
			}
		}
	}

	base := t.lowerExpr(ex.Base)
	if !base.Valid() {
		return NodeRef{}
	}

	switch ex.Kind {
	case ast.AccessIndex:
		acc := NewAccessor(ex.Span(), base, AccessIndex, ex.Index, 0, 0, ex.RowOffset)
		// Fold immediately when the indexable is already a literal
		// Vector; otherwise the accessor is preserved verbatim for
		// later unrolling (spec.md §3.2 invariant, §4.2's
		// indexed_accessor helper).
		if folded, err := IndexedAccessor(acc); err == nil {
			return folded
		}

		return acc
	case ast.AccessSlice:
		return NewAccessor(ex.Span(), base, AccessSlice, 0, ex.RangeLo, ex.RangeHi, ex.RowOffset)
	default:
		return NewAccessor(ex.Span(), base, AccessDefault, 0, 0, 0, ex.RowOffset)
	}
}

func (t *translator) lowerCall(ex *ast.Call) NodeRef {
	switch ex.Callee {
	case ast.CalleeFunction:
		args := make([]NodeRef, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = t.lowerExpr(a)
		}

		return NewCall(ex.Span(), CalleeFunction, ex.Name, args...)
	case ast.CalleeEvaluator:
		args := make([]NodeRef, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = t.lowerExpr(a)
		}

		return NewCall(ex.Span(), CalleeEvaluator, ex.Name, args...)
	case ast.CalleeBuiltinSum, ast.CalleeBuiltinProd:
		if len(ex.Args) != 1 {
			t.report(diag.Errorf(ex.Span(), "%s expects a single comprehension argument", builtinName(ex.Callee)))
			return NodeRef{}
		}

		comp, ok := ex.Args[0].(*ast.Comprehension)
		if !ok {
			t.report(diag.Errorf(ex.Span(), "%s expects a comprehension argument", builtinName(ex.Callee)))
			return NodeRef{}
		}

		iterator := t.lowerComprehensionExpr(comp)

		op := FoldAdd
		init := NewValue(ex.Span(), ConstFelt{V: field.Zero()})

		if ex.Callee == ast.CalleeBuiltinProd {
			op = FoldMul
			init = NewValue(ex.Span(), ConstFelt{V: field.One()})
		}

		return NewFold(ex.Span(), iterator, op, init)
	default:
		t.report(diag.Errorf(ex.Span(), "unsupported callee"))
		return NodeRef{}
	}
}

func builtinName(k ast.CalleeKind) string {
	if k == ast.CalleeBuiltinProd {
		return "prod"
	}

	return "sum"
}

// lowerComprehensionExpr lowers a bare comprehension used as an
// expression (the `sum`/`prod` argument, or a list-comprehension vector
// literal) to a For node whose body is the comprehension's own
// expression (not enforced to zero — this is a value-producing
// comprehension, unlike enforce-for's constraint comprehension).
func (t *translator) lowerComprehensionExpr(c *ast.Comprehension) NodeRef {
	t.scope.Push()
	defer t.scope.Pop()

	iterables := make([]NodeRef, len(c.Iterables))
	binders := make([]NodeRef, len(c.Iterables))

	for i, it := range c.Iterables {
		iterables[i] = t.lowerExpr(it.Source)
		binders[i] = NewParameter(c.Span(), it.Binder, i, RootComprehension, "")
		t.scope.Bind(it.Binder, binders[i])
	}

	body := t.lowerExpr(c.Body)

	var selector NodeRef
	if c.Selector != nil {
		selector = t.lowerExpr(c.Selector)
	}

	return NewFor(c.Span(), iterables, binders, body, selector)
}

// --- post-pass: bus table back-patching ------------------------------------

func (t *translator) backpatchBusTables() {
	for _, root := range t.graph.BoundaryRoots {
		enf, ok := root.Get().Op.(*Enf)
		if !ok {
			continue
		}

		sub, ok := enf.Operands[0].Get().Op.(*Sub)
		if !ok || len(sub.Operands) != 2 {
			continue
		}

		boundary, ok := sub.Operands[0].Get().Op.(*Boundary)
		if !ok {
			continue
		}

		busVal, ok := boundary.Operands[0].Get().Op.(ValueOp)
		if !ok {
			continue
		}

		busAccess, ok := busVal.V.(BusAccess)
		if !ok {
			continue
		}

		rhsVal, ok := sub.Operands[1].Get().Op.(ValueOp)
		if !ok {
			continue
		}

		table, ok := rhsVal.V.(PublicInputTable)
		if !ok {
			continue
		}

		if busRef, ok := busAccess.Bus.Strong(); ok {
			table.BoundBusName = busRef.Get().Name
			table.BoundBus = busAccess.Bus
			rhs := sub.Operands[1]
			rhs.Get().Set(rhs, ValueOp{V: table})
		}
	}
}
