// Package asttest builds typed trees for tests. Nodes get increasing line
// numbers so errors point at distinct positions.
package asttest

import (
	"sync/atomic"

	"github.com/deepnoodle-ai/lanevm/ast"
	"github.com/deepnoodle-ai/lanevm/types"
)

var line atomic.Int64

func pos() ast.Position {
	return ast.Position{Line: int(line.Add(1)), Column: 1}
}

func Program(stmts ...ast.Stmt) *ast.Program { return &ast.Program{Stmts: stmts} }

func Attribute(name string, t types.Type) *ast.AttributeDecl {
	return &ast.AttributeDecl{At: pos(), Name: name, Type: t}
}

func Uniform(name string, t types.Type) *ast.UniformDecl {
	return &ast.UniformDecl{At: pos(), Name: name, Type: t}
}

// Var declares a variable. Pass types.Invalid to infer the type.
func Var(name string, t types.Type, value ast.Expr) *ast.VarDecl {
	return &ast.VarDecl{At: pos(), Name: name, Type: t, Value: value}
}

func Func(name string, params []ast.Param, result types.Type, body ...ast.Stmt) *ast.FuncDecl {
	return &ast.FuncDecl{At: pos(), Name: name, Params: params, Result: result, Body: Block(body...)}
}

func Param(name string, t types.Type) ast.Param { return ast.Param{Name: name, Type: t} }

func Block(stmts ...ast.Stmt) *ast.Block { return &ast.Block{At: pos(), Stmts: stmts} }

func Assign(target, value ast.Expr) *ast.Assign {
	return &ast.Assign{At: pos(), Target: target, Value: value}
}

func If(cond ast.Expr, body ...ast.Stmt) *ast.If {
	return &ast.If{At: pos(), Cond: cond, Body: Block(body...)}
}

func While(cond ast.Expr, body ...ast.Stmt) *ast.While {
	return &ast.While{At: pos(), Cond: cond, Body: Block(body...)}
}

func For(init ast.Stmt, cond ast.Expr, step ast.Stmt, body ...ast.Stmt) *ast.For {
	return &ast.For{At: pos(), Init: init, Cond: cond, Step: step, Body: Block(body...)}
}

func Return(value ast.Expr) *ast.Return { return &ast.Return{At: pos(), Value: value} }

func Expr(x ast.Expr) *ast.ExprStmt { return &ast.ExprStmt{At: pos(), X: x} }

func Num(v float32) *ast.Number { return &ast.Number{At: pos(), Value: v} }

func Bool(v bool) *ast.Bool { return &ast.Bool{At: pos(), Value: v} }

func Ident(name string) *ast.Ident { return &ast.Ident{At: pos(), Name: name} }

// Member selects components, e.g. Member("v", "xy") for v.xy.
func Member(name, swizzle string) *ast.Member {
	return &ast.Member{At: pos(), X: Ident(name), Swizzle: swizzle}
}

func Binary(op ast.BinaryOp, x, y ast.Expr) *ast.Binary {
	return &ast.Binary{At: pos(), Op: op, X: x, Y: y}
}

func Add(x, y ast.Expr) *ast.Binary     { return Binary(ast.OpAdd, x, y) }
func Sub(x, y ast.Expr) *ast.Binary     { return Binary(ast.OpSub, x, y) }
func Mul(x, y ast.Expr) *ast.Binary     { return Binary(ast.OpMul, x, y) }
func Div(x, y ast.Expr) *ast.Binary     { return Binary(ast.OpDiv, x, y) }
func Pow(x, y ast.Expr) *ast.Binary     { return Binary(ast.OpPow, x, y) }
func Less(x, y ast.Expr) *ast.Binary    { return Binary(ast.OpLess, x, y) }
func Greater(x, y ast.Expr) *ast.Binary { return Binary(ast.OpGreater, x, y) }
func Equal(x, y ast.Expr) *ast.Binary   { return Binary(ast.OpEqual, x, y) }
func And(x, y ast.Expr) *ast.Binary     { return Binary(ast.OpAnd, x, y) }
func Or(x, y ast.Expr) *ast.Binary      { return Binary(ast.OpOr, x, y) }

func Neg(x ast.Expr) *ast.Unary { return &ast.Unary{At: pos(), Op: ast.OpNeg, X: x} }
func Not(x ast.Expr) *ast.Unary { return &ast.Unary{At: pos(), Op: ast.OpNot, X: x} }

func Call(name string, args ...ast.Expr) *ast.Call {
	return &ast.Call{At: pos(), Name: name, Args: args}
}
