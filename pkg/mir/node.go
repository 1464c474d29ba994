// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

// Package mir implements the mid-level intermediate representation
// (spec.md §3.2, §4.2): a directed graph of operation nodes with
// sharable subexpressions and bidirectional parent/child links.
package mir

import (
	"github.com/airscript-lang/airscript/pkg/graph"
	"github.com/airscript-lang/airscript/pkg/source"
)

// Operation is the closed set of MIR operation variants (spec.md §3.2).
// Every variant exposes its operands uniformly so that the shared
// visitor (visitor.go) and the generic passes (passes/) never need a
// type switch to walk the graph; only the passes that actually rewrite a
// specific variant do.
type Operation interface {
	// Children returns this operation's operand list. The returned slice
	// shares a backing array with the operation's own storage: indexing
	// into it and reassigning an element (e.g. `children[0] = newChild`)
	// is visible to the node itself, which is how passes replace a
	// child in place. Appending to the returned slice is not meaningful
	// for fixed-arity variants; variable-arity variants (Vector, Call,
	// For's iterables) expose the full live backing slice.
	Children() []NodeRef
}

// Node is the mutable box every MIR graph node lives in. Its Op field is
// an interface value that a pass may *replace* (e.g. turning an Add into
// a Mul, or turning an unevaluated Call into its inlined body) without
// changing the Node's own identity: every NodeRef/Ref alias of this node
// observes the new Op immediately, because Go pointers already alias.
// This is the "Singleton" variant-rewriting mechanism from spec.md §4.1,
// realized without a dedicated wrapper type — see DESIGN.md.
type Node struct {
	Op      Operation
	parents []graph.Ref[Node]
	span    source.Span
}

// NodeRef is an owning reference to a Node (spec.md's "Owned<Op>").
type NodeRef = graph.Cell[Node]

// NewNode allocates a fresh node wrapping op, with the given source span.
func NewNode(op Operation, span source.Span) NodeRef {
	return graph.NewCell(Node{Op: op, span: span})
}

// Span returns the node's source location, used for diagnostics.
func (n *Node) Span() source.Span { return n.span }

// SetSpan overrides the node's source location; used when a pass
// synthesizes a node that should be blamed on a specific surface
// construct (e.g. an unrolled comprehension body inherits its original
// For node's span).
func (n *Node) SetSpan(s source.Span) { n.span = s }

// AddParent records a weak back-reference from n to one of its parents.
func (n *Node) AddParent(parent NodeRef) {
	n.parents = append(n.parents, parent.Weak())
}

// RemoveParent drops the (first) weak back-reference to parent, if
// present. Used when a pass detaches a child from one of its parents
// (e.g. replacing a Call's sole former use).
func (n *Node) RemoveParent(parent NodeRef) {
	for i, p := range n.parents {
		if strong, ok := p.Strong(); ok && graph.Same(strong, parent) {
			n.parents = append(n.parents[:i], n.parents[i+1:]...)
			return
		}
	}
}

// Parents returns the still-live parents of n, pruning any that have
// since been collected.
func (n *Node) Parents() []NodeRef {
	live := n.parents[:0]
	result := make([]NodeRef, 0, len(n.parents))

	for _, p := range n.parents {
		if strong, ok := p.Strong(); ok {
			live = append(live, p)
			result = append(result, strong)
		}
	}

	n.parents = live

	return result
}

// Children delegates to the current operation's operand list.
func (n *Node) Children() []NodeRef {
	return n.Op.Children()
}

// Set replaces n's operation in place, re-parenting every new child onto
// n and removing n as a parent of every child that the old operation
// referenced but the new one does not. This is the "variant rewrite"
// entry point every pass must use (spec.md §4.1/§5) instead of writing
// n.Op directly, so that the parent/child invariants stay consistent.
func (n *Node) Set(self NodeRef, newOp Operation) {
	oldChildren := map[*Node]bool{}

	for _, c := range n.Op.Children() {
		oldChildren[c.Get()] = true
	}

	newChildren := map[*Node]bool{}

	for _, c := range newOp.Children() {
		newChildren[c.Get()] = true

		if !oldChildren[c.Get()] {
			c.Get().AddParent(self)
		}
	}

	for _, c := range n.Op.Children() {
		if !newChildren[c.Get()] {
			c.Get().RemoveParent(self)
		}
	}

	n.Op = newOp
}

// baseOperands is embedded by every fixed- or variable-arity operation
// variant that simply holds a flat operand list (Add, Sub, Mul, Vector,
// Enf, Boundary, and so on). Variants with additional structure (Exp's
// exponent, Accessor's access-type tag, BusOp's bus reference) embed this
// and add their own fields alongside it.
type baseOperands struct {
	Operands []NodeRef
}

// Children implements Operation.
func (b *baseOperands) Children() []NodeRef { return b.Operands }

// attach wires each child's weak parent pointer back to self. Variant
// constructors call this once after building their Operands slice (or,
// for pointer-identity variants like Call/Parameter, their own child
// fields).
func attach(self NodeRef, children ...NodeRef) {
	for _, c := range children {
		c.Get().AddParent(self)
	}
}
