// Package ast defines the typed tree consumed by the compiler.
//
// Trees are normally produced by a front end that parses source text. Hosts
// and tests may also build them directly; every node carries the source
// position that compile errors report.
package ast

import (
	"fmt"
	"strings"
)

// Position is a 1-based line and column in the source text. The zero value
// means the position is unknown.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node represents a portion of the syntax tree.
type Node interface {
	// Pos returns the position of the first character belonging to the node.
	Pos() Position

	// String returns a human friendly representation of the Node. This should
	// be similar to the original source code, but not necessarily identical.
	String() string
}

// Stmt represents a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr represents an expression node. Expressions evaluate to a value
// and may be embedded within other expressions.
type Expr interface {
	Node
	exprNode()
}

// Program is the root of a tree: a sequence of top-level statements.
// Attribute, uniform and function declarations may only appear here.
type Program struct {
	Stmts []Stmt
}

func (p *Program) Pos() Position {
	if len(p.Stmts) > 0 {
		return p.Stmts[0].Pos()
	}
	return Position{}
}

func (p *Program) String() string {
	var b strings.Builder
	for _, s := range p.Stmts {
		b.WriteString(s.String())
		b.WriteString("\n")
	}
	return b.String()
}
