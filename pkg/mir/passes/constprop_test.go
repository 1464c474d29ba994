// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package passes

import (
	"testing"

	"github.com/airscript-lang/airscript/pkg/field"
	"github.com/airscript-lang/airscript/pkg/graph"
	"github.com/airscript-lang/airscript/pkg/mir"
	"github.com/airscript-lang/airscript/pkg/source"
)

func constFeltNode(v uint64) mir.NodeRef {
	return mir.NewValue(source.Unknown, mir.ConstFelt{V: field.NewFelt(v)})
}

func traceColumn(col uint16) mir.NodeRef {
	return mir.NewValue(source.Unknown, mir.TraceAccess{Segment: 0, Column: col, RowOffset: 0})
}

func runConstantPropagation(roots ...mir.NodeRef) {
	g := mir.NewGraph()
	for _, r := range roots {
		g.AddIntegrityRoot(r)
	}

	for ConstantPropagation(g) {
	}
}

func asConstFelt(t *testing.T, n mir.NodeRef) field.Felt {
	t.Helper()

	v, ok := constFelt(n)
	if !ok {
		t.Fatalf("expected %v to fold to a constant, got %#v", n, n.Get().Op)
	}

	return v
}

// TestFoldArithmeticAdditiveIdentity exercises spec.md §8.3's literal
// scenario: `a + 0` must collapse to `a` even though `a` is a trace
// column, not a literal.
func TestFoldArithmeticAdditiveIdentity(t *testing.T) {
	a := traceColumn(0)
	sum := mir.NewAdd(source.Unknown, a, constFeltNode(0))
	enf := mir.NewEnf(source.Unknown, sum)

	runConstantPropagation(enf)

	if got := enf.Get().Op.(*mir.Enf).Operands[0]; !graph.Same(got, a) {
		t.Errorf("Enf operand = %#v, want the original trace-column node", got.Get().Op)
	}
}

// TestFoldArithmeticScenario3 reproduces spec.md §8.3 scenario 3:
// `enf a + 0 = a * 1;` must reduce to a constant-zero root once a single
// shared reference to the trace column `a` is used on both sides.
func TestFoldArithmeticScenario3(t *testing.T) {
	a := traceColumn(0)
	lhs := mir.NewAdd(source.Unknown, a, constFeltNode(0))
	rhs := mir.NewMul(source.Unknown, a, constFeltNode(1))
	diff := mir.NewSub(source.Unknown, lhs, rhs)
	enf := mir.NewEnf(source.Unknown, diff)

	runConstantPropagation(enf)

	got := asConstFelt(t, enf.Get().Op.(*mir.Enf).Operands[0])
	if !field.IsZero(got) {
		t.Errorf("scenario-3 root folded to %v, want the constant zero", got)
	}
}

func TestFoldArithmeticMultiplicativeIdentity(t *testing.T) {
	a := traceColumn(0)

	timesOne := mir.NewMul(source.Unknown, constFeltNode(1), a)
	enfOne := mir.NewEnf(source.Unknown, timesOne)

	timesZero := mir.NewMul(source.Unknown, a, constFeltNode(0))
	enfZero := mir.NewEnf(source.Unknown, timesZero)

	runConstantPropagation(enfOne, enfZero)

	if got := enfOne.Get().Op.(*mir.Enf).Operands[0]; !graph.Same(got, a) {
		t.Errorf("1*a operand = %#v, want the original trace-column node", got.Get().Op)
	}

	if got := asConstFelt(t, enfZero.Get().Op.(*mir.Enf).Operands[0]); !field.IsZero(got) {
		t.Errorf("a*0 folded to %v, want the constant zero", got)
	}
}

func TestFoldArithmeticSubtractiveIdentity(t *testing.T) {
	a := traceColumn(0)

	minusZero := mir.NewSub(source.Unknown, a, constFeltNode(0))
	enfMinusZero := mir.NewEnf(source.Unknown, minusZero)

	selfMinus := mir.NewSub(source.Unknown, a, a)
	enfSelfMinus := mir.NewEnf(source.Unknown, selfMinus)

	runConstantPropagation(enfMinusZero, enfSelfMinus)

	if got := enfMinusZero.Get().Op.(*mir.Enf).Operands[0]; !graph.Same(got, a) {
		t.Errorf("a-0 operand = %#v, want the original trace-column node", got.Get().Op)
	}

	if got := asConstFelt(t, enfSelfMinus.Get().Op.(*mir.Enf).Operands[0]); !field.IsZero(got) {
		t.Errorf("a-a folded to %v, want the constant zero", got)
	}
}

// TestFoldArithmeticLeavesNonIdentityAlone guards against over-eager
// folding: an addition with a non-constant, non-identity second operand
// must survive untouched.
func TestFoldArithmeticLeavesNonIdentityAlone(t *testing.T) {
	a, b := traceColumn(0), traceColumn(1)
	sum := mir.NewAdd(source.Unknown, a, b)
	enf := mir.NewEnf(source.Unknown, sum)

	runConstantPropagation(enf)

	got, ok := enf.Get().Op.(*mir.Enf).Operands[0].Get().Op.(*mir.Add)
	if !ok {
		t.Fatalf("a+b was rewritten, want it left as an Add node")
	}

	if len(got.Operands) != 2 {
		t.Errorf("got %d operands, want 2", len(got.Operands))
	}
}
