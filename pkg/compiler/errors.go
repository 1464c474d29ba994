// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

// Package compiler orchestrates the AirScript pass pipeline (spec.md
// §5): AST → MIR, MIR passes, MIR → AIR-IR lowering, AIR-level bus
// expansion, and handoff to a backend (circuit builder or textual
// codegen).
package compiler

import "fmt"

// ErrorKind classifies a compile failure (spec.md §7).
type ErrorKind int

// Error kinds.
const (
	// ErrParse reports malformed syntax from the external parser.
	ErrParse ErrorKind = iota
	// ErrSemanticAnalysis reports an undeclared identifier, mismatched
	// trace segment, invalid expression position, overlapping boundary
	// constraint, or a bus operation used on the wrong pipeline.
	ErrSemanticAnalysis
	// ErrInvalidConstraint reports incompatible constraint domains, a
	// periodic column in a boundary constraint, or a public input in an
	// integrity constraint.
	ErrInvalidConstraint
	// ErrFailed reports that an earlier stage already emitted
	// diagnostics and the pipeline is aborting without a new one.
	ErrFailed
)

// CompileError is the top-level error compile returns. A diagnostics
// handler has already received one or more labeled reports by the time
// this is returned; Msg is a short summary for callers that don't have
// access to the handler's output (e.g. a test assertion).
type CompileError struct {
	Kind ErrorKind
	Msg  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s", e.Msg)
}

// Failed constructs the sentinel error a pass returns once it has
// already reported its diagnostics and is merely unwinding.
func Failed() *CompileError {
	return &CompileError{Kind: ErrFailed, Msg: "compilation failed, see diagnostics"}
}
