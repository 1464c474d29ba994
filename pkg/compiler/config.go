// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package compiler

// Pipeline selects which constraint-lowering path Compile takes
// (spec.md §9 Open Question: MIR vs. legacy pipeline).
type Pipeline int

// Pipeline kinds.
const (
	// PipelineMIR is the full pipeline this package implements: AST ->
	// MIR -> (constant propagation, inlining, unrolling) -> AIR-IR ->
	// bus expansion. Buses are fully supported.
	PipelineMIR Pipeline = iota
	// PipelineLegacy rejects any module declaring a bus: the legacy
	// path predates bus support and spec.md §9 requires it to fail
	// loudly rather than silently drop bus semantics. Everything else
	// about a bus-free module lowers identically to PipelineMIR, since
	// the MIR/AIR-IR machinery degrades to exactly the legacy path's
	// behavior once no Bus is ever constructed — there is no separate
	// AST-to-AIR shortcut to maintain.
	PipelineLegacy
)

// Config configures one Compile invocation.
type Config struct {
	Pipeline Pipeline
	// Optimize controls the circuit builder's operand-reordering and
	// identity-elimination simplifications (spec.md §4.6), mirroring
	// go-corset's --opt flag (pkg/ir/mir/optimiser.go's
	// OptimisationConfig). It has no effect on the MIR pass pipeline
	// itself: constant propagation, inlining, and unrolling are run to a
	// fixed point regardless, since they resolve comprehensions and
	// calls into the literal form later stages require rather than
	// merely shrinking the graph.
	Optimize bool
}
