// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package circuit

import (
	"testing"

	"github.com/airscript-lang/airscript/pkg/air"
)

func TestLayoutRegionsAreAlignedAndDisjoint(t *testing.T) {
	ag := air.NewGraph()
	ag.TraceSegmentWidths = []uint16{5, 3}
	ag.NumRandomValues = 2
	ag.PublicInputs = []air.PublicInputDecl{
		{Name: "b", Kind: air.PublicInputKindVector, Size: 1},
		{Name: "a", Kind: air.PublicInputKindVector, Size: 3},
	}

	l := NewLayout(ag)

	regions := []InputRegion{
		l.PublicInputs["a"],
		l.PublicInputs["b"],
		l.RandomValues,
		l.TraceSegments[0][0],
		l.TraceSegments[0][1],
		l.TraceSegments[0][2],
		l.TraceSegments[1][0],
		l.TraceSegments[1][1],
		l.TraceSegments[1][2],
		l.StarkVars,
	}

	for _, r := range regions {
		if r.Offset%hashAlignment != 0 {
			t.Errorf("region %+v is not %d-aligned", r, hashAlignment)
		}
	}

	for i, r := range regions {
		for j, s := range regions {
			if i == j {
				continue
			}

			if r.Offset < s.Offset+nextMultipleOf(s.Width, hashAlignment) && s.Offset < r.Offset+nextMultipleOf(r.Width, hashAlignment) {
				t.Errorf("regions %+v and %+v overlap", r, s)
			}
		}
	}

	if l.NumInputs != regions[len(regions)-1].Offset+nextMultipleOf(regions[len(regions)-1].Width, hashAlignment) {
		t.Errorf("NumInputs = %d, does not cover the last region", l.NumInputs)
	}
}

func TestLayoutPublicInputsSortedByName(t *testing.T) {
	ag := air.NewGraph()
	ag.PublicInputs = []air.PublicInputDecl{
		{Name: "zeta", Kind: air.PublicInputKindVector, Size: 1},
		{Name: "alpha", Kind: air.PublicInputKindVector, Size: 1},
	}

	l := NewLayout(ag)

	alpha := l.PublicInputs["alpha"]
	zeta := l.PublicInputs["zeta"]

	if alpha.Offset >= zeta.Offset {
		t.Errorf("expected alpha's region before zeta's; got alpha=%d zeta=%d", alpha.Offset, zeta.Offset)
	}
}

func TestLayoutTraceAccessRejectsOutOfRangeSegment(t *testing.T) {
	ag := air.NewGraph()
	ag.TraceSegmentWidths = []uint16{1}

	l := NewLayout(ag)

	if _, ok := l.TraceAccessNode(2, 0, 0); ok {
		t.Errorf("expected segment 2 (beyond main/aux) to be rejected")
	}

	if _, ok := l.TraceAccessNode(0, 5, 0); ok {
		t.Errorf("expected out-of-width column to be rejected")
	}
}

func TestLayoutQuotientNodesCountMatchesReservedParts(t *testing.T) {
	l := NewLayout(air.NewGraph())

	if got := len(l.QuotientNodes()); got != numQuotientParts {
		t.Errorf("len(QuotientNodes()) = %d, want %d", got, numQuotientParts)
	}
}
