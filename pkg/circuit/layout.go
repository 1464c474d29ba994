// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package circuit

import (
	"sort"

	"github.com/airscript-lang/airscript/pkg/air"
)

// hashAlignment is the element width every input region is padded to,
// so that each region starts at a word-aligned offset a verifier can
// unhash transcript data directly into (spec.md §4.6).
const hashAlignment = 4

// numQuotientParts is the fixed number of quotient-polynomial chunks
// the layout reserves room for, matching the degree-9 bound this
// module's backends are built against (original_source/codegen/ace
// carries the same constant pending a generic per-Air degree derivation).
const numQuotientParts = 8

// StarkVar names one of the verifier-supplied scalars the circuit
// consumes outside the trace/public-input/random-value inputs: trace
// domain generators, the random linear-combination challenge, and the
// out-of-domain evaluation point and its derived powers.
type StarkVar int

// STARK verifier scalar variables.
const (
	StarkGenPenultimate StarkVar = iota
	StarkGenLast
	StarkAlpha
	StarkZ
	StarkZPowN
	StarkZMaxCycle
	numStarkVars
)

// InputRegion is a contiguous range within the circuit's flat input
// vector, reserved for one logical group of runtime inputs (one public
// input's elements, the random values, one trace segment at one row
// offset, or the STARK scalars).
type InputRegion struct {
	Offset, Width int
}

// node returns the Input node for index within the region, or false if
// index is out of range.
func (r InputRegion) node(index int) (Node, bool) {
	if index < 0 || index >= r.Width {
		return Node{}, false
	}

	return Node{Kind: NodeInput, Index: r.Offset + index}, true
}

// nodes returns every Input node in the region, in order.
func (r InputRegion) nodes() []Node {
	out := make([]Node, r.Width)
	for i := range out {
		out[i] = Node{Kind: NodeInput, Index: r.Offset + i}
	}

	return out
}

// Layout describes where a circuit's runtime inputs live within its
// flat input vector (spec.md §4.6). Every region is rounded up to
// hashAlignment elements so that a verifier can unhash each region from
// its proof transcript independently.
//
// Trace inputs are laid out as row offset outermost, segment innermost
// — main, aux, quotient at row 0, then the same three at row 1 — which
// is what lets a verifier compute the DEEP composition polynomial
// uniformly across all three "traces" (original_source/codegen/ace/src/
// layout.rs's Layout::trace_segments documents the same ordering).
type Layout struct {
	PublicInputs  map[string]InputRegion
	RandomValues  InputRegion
	TraceSegments [2][3]InputRegion // [rowOffset][main|aux|quotient]
	StarkVars     InputRegion
	NumInputs     int
}

// NewLayout computes a Layout from a lowered, bus-expanded AIR graph.
func NewLayout(ag *air.Graph) Layout {
	var offset int

	next := func(width int) InputRegion {
		r := InputRegion{Offset: offset, Width: width}
		offset += nextMultipleOf(width, hashAlignment)

		return r
	}

	names := make([]string, 0, len(ag.PublicInputs))
	byName := make(map[string]air.PublicInputDecl, len(ag.PublicInputs))

	for _, pi := range ag.PublicInputs {
		names = append(names, pi.Name)
		byName[pi.Name] = pi
	}

	sort.Strings(names)

	publicInputs := make(map[string]InputRegion, len(names))
	for _, name := range names {
		publicInputs[name] = next(byName[name].Size)
	}

	randomValues := next(ag.NumRandomValues)

	mainWidth := 0
	if len(ag.TraceSegmentWidths) > 0 {
		mainWidth = int(ag.TraceSegmentWidths[0])
	}

	auxWidth := 0
	if len(ag.TraceSegmentWidths) > 1 {
		auxWidth = int(ag.TraceSegmentWidths[1])
	}

	segmentWidths := [3]int{mainWidth, auxWidth, numQuotientParts}

	var traceSegments [2][3]InputRegion
	for rowOffset := range traceSegments {
		for seg, width := range segmentWidths {
			traceSegments[rowOffset][seg] = next(width)
		}
	}

	starkVars := next(int(numStarkVars))

	return Layout{
		PublicInputs:  publicInputs,
		RandomValues:  randomValues,
		TraceSegments: traceSegments,
		StarkVars:     starkVars,
		NumInputs:     offset,
	}
}

func nextMultipleOf(v, m int) int {
	if v%m == 0 {
		return v
	}

	return v + (m - v%m)
}

// PublicInputNode returns the Input node for index within the named
// public input's region.
func (l *Layout) PublicInputNode(name string, index int) (Node, bool) {
	r, ok := l.PublicInputs[name]
	if !ok {
		return Node{}, false
	}

	return r.node(index)
}

// TraceAccessNode returns the Input node for a trace cell. Only the
// main (0) and aux (1) segments are addressable this way; the quotient
// segment is populated by quotientNodes, not by trace accesses.
func (l *Layout) TraceAccessNode(segment uint8, column uint16, rowOffset int) (Node, bool) {
	if segment > 1 || rowOffset < 0 || rowOffset > 1 {
		return Node{}, false
	}

	return l.TraceSegments[rowOffset][segment].node(int(column))
}

// RandomValueNode returns the Input node for the index'th verifier
// challenge.
func (l *Layout) RandomValueNode(index int) (Node, bool) {
	return l.RandomValues.node(index)
}

// QuotientNodes returns the Input nodes holding the quotient
// polynomial's coefficients at row 0.
func (l *Layout) QuotientNodes() []Node {
	return l.TraceSegments[0][2].nodes()
}

// StarkVarNode returns the Input node for one verifier scalar.
func (l *Layout) StarkVarNode(v StarkVar) Node {
	n, _ := l.StarkVars.node(int(v))
	return n
}
