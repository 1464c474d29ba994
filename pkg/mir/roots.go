// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package mir

import "github.com/airscript-lang/airscript/pkg/ast"

// Function is a pure mapping from felt/vector/matrix inputs to a
// felt/vector/matrix output (spec.md §3.2).
type Function struct {
	Name       string
	Parameters []NodeRef // Parameter nodes, in declaration order
	ReturnType ast.Type
	Body       NodeRef
}

// Evaluator is a reusable constraint subroutine consuming one or more
// trace-column groups (spec.md §3.2). Parameters are flattened across
// the evaluator's trace-segment argument groups.
type Evaluator struct {
	Name       string
	Parameters []NodeRef
	// ParamGroups records, for each original argument group, how many of
	// Parameters it flattened into — needed to re-bind arguments at a
	// call site (spec.md §4.3 evaluator call lowering).
	ParamGroups []int
	Body        []NodeRef
}
