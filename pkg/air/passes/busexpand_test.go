// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package passes

import (
	"testing"

	"github.com/airscript-lang/airscript/pkg/air"
)

func multisetBusGraph() (*air.Graph, *air.Bus) {
	g := air.NewGraph()

	col := g.InsertNode(air.TraceAccess{Segment: 0, Column: 0, RowOffset: 0})
	latch := g.InsertNode(air.Constant{V: 1})

	bus := &air.Bus{
		Name:   "p",
		Kind:   air.BusMultiset,
		Ops:    []air.BusOp{{Kind: air.BusInsert, Columns: []air.NodeIndex{col}, Latch: latch}},
		First:  air.BusBoundary{Kind: air.BusBoundaryNull},
		Last:   air.BusBoundary{Kind: air.BusBoundaryUnconstrained},
		Column: 0,
	}
	g.Buses["p"] = bus

	return g, bus
}

// TestExpandBusesRegistersUnderAuxSegment guards against the bus pass
// mis-filing its integrity/boundary roots under the main segment: the
// accumulator column it reads back (accumulatorAccess) lives in the aux
// segment, so the constraints built from it must too.
func TestExpandBusesRegistersUnderAuxSegment(t *testing.T) {
	g, _ := multisetBusGraph()

	ExpandBuses(g)

	if _, ok := g.Segments[0]; ok {
		t.Fatalf("bus expansion registered constraints under the main segment: %+v", g.Segments[0])
	}

	seg, ok := g.Segments[auxSegment]
	if !ok {
		t.Fatal("expected bus expansion to register constraints under the aux segment")
	}

	if len(seg.Integrity) != 1 {
		t.Errorf("got %d integrity roots, want 1", len(seg.Integrity))
	}

	if len(seg.BoundaryFirst) != 1 {
		t.Errorf("got %d first-row boundary roots, want 1", len(seg.BoundaryFirst))
	}

	if len(seg.BoundaryLast) != 0 {
		t.Errorf("got %d last-row boundary roots, want 0 (Unconstrained emits nothing)", len(seg.BoundaryLast))
	}
}

func TestAccumulatorAccessUsesAuxSegment(t *testing.T) {
	bus := &air.Bus{Column: 3}

	access := accumulatorAccess(bus, 1)
	if access.Segment != uint8(auxSegment) {
		t.Errorf("accumulatorAccess segment = %d, want %d", access.Segment, auxSegment)
	}

	if access.Column != 3 || access.RowOffset != 1 {
		t.Errorf("accumulatorAccess = %+v, want Column=3 RowOffset=1", access)
	}
}
