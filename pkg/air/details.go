// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package air

import "github.com/bits-and-blooms/bitset"

// NodeDetails infers idx's (TraceSegmentID, ConstraintDomain) by
// traversing the subgraph rooted at it (spec.md §4.5): child segments
// are dominated by the parent's (max), child domains merge to the
// parent's. defaultDomain seeds the traversal for boundary lowering
// (First/Last) or ordinary integrity lowering (EveryRow); inBoundary
// additionally restricts which leaf kinds are legal (PeriodicColumn is
// rejected in boundary mode, PublicInput is rejected outside it).
func NodeDetails(g *Graph, idx NodeIndex, defaultDomain ConstraintDomain, inBoundary bool) (TraceSegmentID, ConstraintDomain, error) {
	return nodeDetails(g, idx, defaultDomain, inBoundary, bitset.New(uint(g.NumNodes())))
}

// nodeDetails carries the recursion-stack bitset that guards the AIR
// graph's acyclicity invariant (spec.md §3.3): InsertNode's value
// numbering can never itself create a cycle, but a malformed lowering
// pass could wire a node's operand back to one of its own ancestors,
// and node_details is the first full graph traversal a compile runs —
// the natural place to catch that before it causes unbounded recursion.
func nodeDetails(g *Graph, idx NodeIndex, defaultDomain ConstraintDomain, inBoundary bool, onStack *bitset.BitSet) (TraceSegmentID, ConstraintDomain, error) {
	if onStack.Test(uint(idx)) {
		return 0, ConstraintDomain{}, ConstraintError{Kind: ErrCyclicGraph, Node: idx, Msg: "cycle detected while inferring segment/domain"}
	}

	onStack.Set(uint(idx))
	defer onStack.Clear(uint(idx))

	switch op := g.Node(idx).(type) {
	case Constant:
		return 0, defaultDomain, nil
	case PublicInput:
		if !inBoundary {
			return 0, ConstraintDomain{}, ConstraintError{Kind: ErrPublicInputInIntegrity, Node: idx, Msg: "public input referenced from an integrity constraint"}
		}

		return 0, defaultDomain, nil
	case PublicInputTable:
		if !inBoundary {
			return 0, ConstraintDomain{}, ConstraintError{Kind: ErrPublicInputInIntegrity, Node: idx, Msg: "public input table referenced from an integrity constraint"}
		}

		return 0, defaultDomain, nil
	case RandomValue:
		return 1, defaultDomain, nil
	case PeriodicColumn:
		if inBoundary {
			return 0, ConstraintDomain{}, ConstraintError{Kind: ErrPeriodicColumnInBoundary, Node: idx, Msg: "periodic column referenced from a boundary constraint"}
		}

		return 0, ConstraintDomain{Kind: EveryRow}, nil
	case TraceAccess:
		if inBoundary {
			if op.RowOffset != 0 {
				return 0, ConstraintDomain{}, ConstraintError{Kind: ErrNonZeroBoundaryOffset, Node: idx, Msg: "non-zero row offset inside a boundary constraint"}
			}

			return TraceSegmentID(op.Segment), defaultDomain, nil
		}

		return TraceSegmentID(op.Segment), FromOffset(op.RowOffset), nil
	case Add:
		return binaryDetails(g, op.L, op.R, defaultDomain, inBoundary, idx, onStack)
	case Sub:
		return binaryDetails(g, op.L, op.R, defaultDomain, inBoundary, idx, onStack)
	case Mul:
		return binaryDetails(g, op.L, op.R, defaultDomain, inBoundary, idx, onStack)
	default:
		return 0, defaultDomain, nil
	}
}

func binaryDetails(g *Graph, l, r NodeIndex, defaultDomain ConstraintDomain, inBoundary bool, self NodeIndex, onStack *bitset.BitSet) (TraceSegmentID, ConstraintDomain, error) {
	lSeg, lDom, err := nodeDetails(g, l, defaultDomain, inBoundary, onStack)
	if err != nil {
		return 0, ConstraintDomain{}, err
	}

	rSeg, rDom, err := nodeDetails(g, r, defaultDomain, inBoundary, onStack)
	if err != nil {
		return 0, ConstraintDomain{}, err
	}

	domain, err := Merge(lDom, rDom)
	if err != nil {
		return 0, ConstraintDomain{}, ConstraintError{Kind: ErrIncompatibleDomains, Node: self, Msg: err.Error()}
	}

	seg := lSeg
	if rSeg > seg {
		seg = rSeg
	}

	return seg, domain, nil
}
