// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package mir

// Visit implements the shared visitor protocol every MIR pass builds on
// (spec.md §4.4): starting from a seed list of roots, pop a node off a
// work stack, dispatch it to callback, and push its children unless the
// callback says not to descend. Children are enqueued before callback
// runs so that a callback which mutates the node's own operand list
// (e.g. replacing a Call with its inlined body) does not race with the
// traversal's own bookkeeping — the concurrency model (spec.md §5)
// requires this ordering since there is only ever one active mutation at
// a time.
//
// callback returns true to have Visit continue into this node's
// children, false to skip them (e.g. a pass that fully replaces a
// subtree and wants to re-visit the replacement from the seed list on
// its next fixed-point sweep instead of right now).
func Visit(seeds []NodeRef, callback func(NodeRef) bool) {
	visited := map[*Node]bool{}
	stack := append([]NodeRef(nil), seeds...)

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[n.Get()] {
			continue
		}

		visited[n.Get()] = true

		descend := callback(n)
		if !descend {
			continue
		}

		stack = append(stack, n.Get().Children()...)
	}
}

// VisitFixedPoint repeatedly runs a full Visit sweep over seeds until a
// sweep makes no further changes, as constant propagation requires
// (spec.md §4.4). step reports whether it changed anything; it is called
// once per node per sweep exactly like callback in Visit. VisitFixedPoint
// itself reports whether any sweep changed anything, so a caller driving
// several such passes in sequence can tell whether another round across
// all of them is worth running.
func VisitFixedPoint(seeds []NodeRef, step func(NodeRef) bool) bool {
	changedEver := false

	for {
		changed := false

		Visit(seeds, func(n NodeRef) bool {
			if step(n) {
				changed = true
			}

			return true
		})

		if !changed {
			return changedEver
		}

		changedEver = true
	}
}
