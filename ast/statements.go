package ast

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/lanevm/types"
)

// AttributeDecl declares a per-instance read-write value.
type AttributeDecl struct {
	At   Position
	Name string
	Type types.Type
}

func (s *AttributeDecl) stmtNode()     {}
func (s *AttributeDecl) Pos() Position { return s.At }
func (s *AttributeDecl) String() string {
	return fmt.Sprintf("attribute %s: %s;", s.Name, s.Type)
}

// UniformDecl declares a read-only value broadcast to every instance.
type UniformDecl struct {
	At   Position
	Name string
	Type types.Type
}

func (s *UniformDecl) stmtNode()     {}
func (s *UniformDecl) Pos() Position { return s.At }
func (s *UniformDecl) String() string {
	return fmt.Sprintf("uniform %s: %s;", s.Name, s.Type)
}

// VarDecl declares a variable. Without an initializer the variable starts at
// zero. Type may be types.Invalid when an initializer is present, in which
// case the initializer's type is used.
type VarDecl struct {
	At    Position
	Name  string
	Type  types.Type
	Value Expr
}

func (s *VarDecl) stmtNode()     {}
func (s *VarDecl) Pos() Position { return s.At }
func (s *VarDecl) String() string {
	var b strings.Builder
	b.WriteString("var ")
	b.WriteString(s.Name)
	if s.Type != types.Invalid {
		b.WriteString(": ")
		b.WriteString(s.Type.String())
	}
	if s.Value != nil {
		b.WriteString(" = ")
		b.WriteString(s.Value.String())
	}
	b.WriteString(";")
	return b.String()
}

// Param is a typed function parameter.
type Param struct {
	Name string
	Type types.Type
}

// FuncDecl declares a function. Result is types.Void for functions that
// return nothing.
type FuncDecl struct {
	At     Position
	Name   string
	Params []Param
	Result types.Type
	Body   *Block
}

func (s *FuncDecl) stmtNode()     {}
func (s *FuncDecl) Pos() Position { return s.At }
func (s *FuncDecl) String() string {
	params := make([]string, 0, len(s.Params))
	for _, p := range s.Params {
		params = append(params, p.Name+": "+p.Type.String())
	}
	result := ""
	if s.Result != types.Void && s.Result != types.Invalid {
		result = ": " + s.Result.String()
	}
	return fmt.Sprintf("func %s(%s)%s %s", s.Name, strings.Join(params, ", "), result, s.Body)
}

// Signature returns the function's parameter types in order.
func (s *FuncDecl) Signature() []types.Type {
	sig := make([]types.Type, len(s.Params))
	for i, p := range s.Params {
		sig[i] = p.Type
	}
	return sig
}

// Block is a braced statement list that opens a new scope.
type Block struct {
	At    Position
	Stmts []Stmt
}

func (s *Block) stmtNode()     {}
func (s *Block) Pos() Position { return s.At }
func (s *Block) String() string {
	if s == nil || len(s.Stmts) == 0 {
		return "{ }"
	}
	parts := make([]string, 0, len(s.Stmts))
	for _, st := range s.Stmts {
		parts = append(parts, st.String())
	}
	return "{ " + strings.Join(parts, " ") + " }"
}

// Assign stores a value into a variable or attribute. Target is an *Ident or
// a *Member selecting components of one.
type Assign struct {
	At     Position
	Target Expr
	Value  Expr
}

func (s *Assign) stmtNode()     {}
func (s *Assign) Pos() Position { return s.At }
func (s *Assign) String() string {
	return fmt.Sprintf("%s = %s;", s.Target, s.Value)
}

// If runs Body for the instances where Cond is true.
type If struct {
	At   Position
	Cond Expr
	Body *Block
}

func (s *If) stmtNode()     {}
func (s *If) Pos() Position { return s.At }
func (s *If) String() string {
	return fmt.Sprintf("if %s %s", s.Cond, s.Body)
}

// While repeats Body for each instance until Cond is false for it.
type While struct {
	At   Position
	Cond Expr
	Body *Block
}

func (s *While) stmtNode()     {}
func (s *While) Pos() Position { return s.At }
func (s *While) String() string {
	return fmt.Sprintf("while %s %s", s.Cond, s.Body)
}

// For is a loop with an init statement, a condition and a step statement.
// Init and Step may be nil; the init statement is scoped to the loop.
type For struct {
	At   Position
	Init Stmt
	Cond Expr
	Step Stmt
	Body *Block
}

func (s *For) stmtNode()     {}
func (s *For) Pos() Position { return s.At }
func (s *For) String() string {
	init, step := "", ""
	if s.Init != nil {
		init = strings.TrimSuffix(s.Init.String(), ";")
	}
	if s.Step != nil {
		step = strings.TrimSuffix(s.Step.String(), ";")
	}
	return fmt.Sprintf("for %s; %s; %s %s", init, s.Cond, step, s.Body)
}

// Return ends a function. Value is nil in void functions.
type Return struct {
	At    Position
	Value Expr
}

func (s *Return) stmtNode()     {}
func (s *Return) Pos() Position { return s.At }
func (s *Return) String() string {
	if s.Value == nil {
		return "return;"
	}
	return fmt.Sprintf("return %s;", s.Value)
}

// ExprStmt evaluates an expression for its effects, typically a call to a
// void function.
type ExprStmt struct {
	At Position
	X  Expr
}

func (s *ExprStmt) stmtNode()     {}
func (s *ExprStmt) Pos() Position { return s.At }
func (s *ExprStmt) String() string {
	return s.X.String() + ";"
}
