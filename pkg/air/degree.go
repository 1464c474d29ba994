// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package air

// IntegrityConstraintDegree is a constraint's polynomial degree,
// together with the periodic-column cycle lengths it touches (spec.md
// §3.4), so a backend can choose an appropriate quotient-polynomial
// blowup factor.
type IntegrityConstraintDegree struct {
	Base   int
	Cycles []int
}

// Degree computes idx's degree bottom-up (spec.md §3.4): constants,
// public inputs, and random values contribute 0; trace accesses
// contribute 1; periodic columns contribute 0 but register their cycle
// length; Add/Sub take the max of their operands' base degree; Mul sums
// them. Cycle multisets are concatenated at every binary node, since a
// composite constraint may depend on more than one periodic column.
func Degree(g *Graph, idx NodeIndex) IntegrityConstraintDegree {
	return degree(g, idx, map[NodeIndex]IntegrityConstraintDegree{})
}

func degree(g *Graph, idx NodeIndex, memo map[NodeIndex]IntegrityConstraintDegree) IntegrityConstraintDegree {
	if d, ok := memo[idx]; ok {
		return d
	}

	var d IntegrityConstraintDegree

	switch op := g.Node(idx).(type) {
	case Constant, PublicInput, PublicInputTable, RandomValue:
		d = IntegrityConstraintDegree{Base: 0}
	case TraceAccess:
		d = IntegrityConstraintDegree{Base: 1}
	case PeriodicColumn:
		d = IntegrityConstraintDegree{Base: 0, Cycles: []int{len(op.Cycle)}}
	case Add:
		l, r := degree(g, op.L, memo), degree(g, op.R, memo)
		d = IntegrityConstraintDegree{Base: max(l.Base, r.Base), Cycles: concatCycles(l, r)}
	case Sub:
		l, r := degree(g, op.L, memo), degree(g, op.R, memo)
		d = IntegrityConstraintDegree{Base: max(l.Base, r.Base), Cycles: concatCycles(l, r)}
	case Mul:
		l, r := degree(g, op.L, memo), degree(g, op.R, memo)
		d = IntegrityConstraintDegree{Base: l.Base + r.Base, Cycles: concatCycles(l, r)}
	}

	memo[idx] = d

	return d
}

func concatCycles(l, r IntegrityConstraintDegree) []int {
	if len(l.Cycles) == 0 && len(r.Cycles) == 0 {
		return nil
	}

	out := make([]int, 0, len(l.Cycles)+len(r.Cycles))
	out = append(out, l.Cycles...)
	out = append(out, r.Cycles...)

	return out
}
