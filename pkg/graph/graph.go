// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

// Package graph provides the two pointer kinds the MIR needs to build a
// cyclic, shared-ownership graph without leaking memory (spec.md §3.1,
// §4.1): an owning Cell and a non-owning weak Ref used for parent links.
//
// The original design (translated from a Rust Rc<RefCell<_>> + Weak<_>
// shape) additionally calls for a "Singleton" wrapper so that a node's
// variant (e.g. "this is currently an Add") can be rewritten in place
// without invalidating external references to it. In Go that capability
// falls directly out of Cell: a node's operation is stored as an
// interface-typed field on the pointee struct, so every Cell alias of
// that pointee observes a mutation to the field immediately. No separate
// wrapper type is needed; see DESIGN.md for the recorded rationale.
package graph

import "weak"

// Cell is an owning, interior-mutable reference to a T. Multiple Cells may
// point at the same underlying value; the value is kept alive by the Go
// garbage collector for as long as any Cell (or Ref, see below) is
// reachable. Cell is just a named pointer type: the "owning" behavior is
// Go's ordinary pointer semantics, named here to make the graph code's
// intent legible against the specification it implements.
type Cell[T any] struct {
	ptr *T
}

// NewCell allocates a new cell holding v.
func NewCell[T any](v T) Cell[T] {
	return Cell[T]{ptr: &v}
}

// Get returns the underlying pointer, allowing in-place mutation that is
// visible to every other Cell/Ref aliasing the same node.
func (c Cell[T]) Get() *T {
	return c.ptr
}

// Valid reports whether this cell has been initialized.
func (c Cell[T]) Valid() bool {
	return c.ptr != nil
}

// Weak downgrades this owning cell to a non-owning back-reference.
func (c Cell[T]) Weak() Ref[T] {
	return Ref[T]{w: weak.Make(c.ptr)}
}

// Same reports whether two cells refer to the same underlying node.
func Same[T any](a, b Cell[T]) bool {
	return a.ptr == b.ptr
}

// WeakFromPtr builds a Ref directly from a plain pointer, for values that
// are never wrapped in a Cell of their own (e.g. a Bus, which is owned by
// a Graph's map rather than by any single NodeRef).
func WeakFromPtr[T any](p *T) Ref[T] {
	return Ref[T]{w: weak.Make(p)}
}

// Ref is a non-owning, weak back-reference to a node, used for parent
// links. A Ref never keeps its target alive, and — per spec.md §3.1 —
// compares equal under any structural comparison performed over a node
// that embeds it (parents are ignored by equality/hashing so that cyclic
// parent/child graphs do not defeat comparison or hashing). In this Go
// translation that invariant is upheld simply by never including Ref
// fields in any equality or hash computation the compiler performs: AIR's
// value-numbering works over a parent-free flat op representation, and
// MIR never compares nodes structurally (it shares them by pointer
// identity instead). Ref therefore carries no Equal/Hash method of its
// own; it is a plain, inert value type.
type Ref[T any] struct {
	w weak.Pointer[T]
}

// Strong attempts to recover an owning Cell from this weak reference. It
// returns false if the referenced node has since been collected (which,
// for a live compile session, only happens for genuinely orphaned
// subgraphs — e.g. a clone that was discarded before being attached).
func (r Ref[T]) Strong() (Cell[T], bool) {
	p := r.w.Value()
	if p == nil {
		return Cell[T]{}, false
	}

	return Cell[T]{ptr: p}, true
}

// Valid reports whether this ref was ever bound to a target.
func (r Ref[T]) Valid() bool {
	return r.w != weak.Pointer[T]{}
}
