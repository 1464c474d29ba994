// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package ast

import "github.com/airscript-lang/airscript/pkg/source"

// Statement is the surface statement sum type.
type Statement interface {
	Span() source.Span
	isStmt()
}

type stmtBase struct {
	span source.Span
}

func (s stmtBase) Span() source.Span { return s.span }
func (stmtBase) isStmt()             {}

// LetStmt is `let x = e;` followed by the rest of the enclosing body.
type LetStmt struct {
	stmtBase
	Name string
	Expr Expr
}

// NewLetStmt constructs a let-binding statement.
func NewLetStmt(span source.Span, name string, e Expr) *LetStmt {
	return &LetStmt{stmtBase{span}, name, e}
}

// ReturnStmt is `return expr;`, terminating a function body.
type ReturnStmt struct {
	stmtBase
	Expr Expr
}

// NewReturnStmt constructs a return statement.
func NewReturnStmt(span source.Span, e Expr) *ReturnStmt {
	return &ReturnStmt{stmtBase{span}, e}
}

// EnforceStmt is a plain `enforce expr;`.
type EnforceStmt struct {
	stmtBase
	Expr Expr
}

// NewEnforceStmt constructs an enforce statement.
func NewEnforceStmt(span source.Span, e Expr) *EnforceStmt {
	return &EnforceStmt{stmtBase{span}, e}
}

// EnforceForStmt is `enforce expr for <comprehension>;` / `enforce all
// <comprehension>;`. All is a lowering hint: both forms wrap the body in
// a For node per spec.md §4.3; `all` additionally requires the body
// itself to already be boolean-shaped (a constraint), which the external
// semantic analyzer has already checked.
type EnforceForStmt struct {
	stmtBase
	Comprehension *Comprehension
	All           bool
}

// NewEnforceForStmt constructs a comprehension-enforce statement.
func NewEnforceForStmt(span source.Span, c *Comprehension, all bool) *EnforceForStmt {
	return &EnforceForStmt{stmtBase{span}, c, all}
}

// BusEnforceStmt is `bus_enforce <comprehension over 0..1>;` whose body
// must be a BusCall.
type BusEnforceStmt struct {
	stmtBase
	Comprehension *Comprehension
}

// NewBusEnforceStmt constructs a bus_enforce statement.
func NewBusEnforceStmt(span source.Span, c *Comprehension) *BusEnforceStmt {
	return &BusEnforceStmt{stmtBase{span}, c}
}

// ExprStmt lifts a bare trailing expression (a function body's final
// value, or a let-body's last statement) into statement position.
type ExprStmt struct {
	stmtBase
	Expr Expr
}

// NewExprStmt constructs an expression statement.
func NewExprStmt(span source.Span, e Expr) *ExprStmt {
	return &ExprStmt{stmtBase{span}, e}
}
