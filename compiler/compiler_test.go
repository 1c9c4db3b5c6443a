package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/lanevm/ast"
	"github.com/deepnoodle-ai/lanevm/bytecode"
	"github.com/deepnoodle-ai/lanevm/errors"
	"github.com/deepnoodle-ai/lanevm/op"
	"github.com/deepnoodle-ai/lanevm/types"
)

var at = ast.Position{Line: 1, Column: 1}

func num(v float32) *ast.Number          { return &ast.Number{At: at, Value: v} }
func boolean(v bool) *ast.Bool           { return &ast.Bool{At: at, Value: v} }
func ident(name string) *ast.Ident       { return &ast.Ident{At: at, Name: name} }
func block(stmts ...ast.Stmt) *ast.Block { return &ast.Block{At: at, Stmts: stmts} }

func member(x ast.Expr, s string) *ast.Member {
	return &ast.Member{At: at, X: x, Swizzle: s}
}

func bin(o ast.BinaryOp, x, y ast.Expr) *ast.Binary {
	return &ast.Binary{At: at, Op: o, X: x, Y: y}
}

func call(name string, args ...ast.Expr) *ast.Call {
	return &ast.Call{At: at, Name: name, Args: args}
}

func assign(target, v ast.Expr) *ast.Assign {
	return &ast.Assign{At: at, Target: target, Value: v}
}

func attribute(name string, t types.Type) *ast.AttributeDecl {
	return &ast.AttributeDecl{At: at, Name: name, Type: t}
}

func uniform(name string, t types.Type) *ast.UniformDecl {
	return &ast.UniformDecl{At: at, Name: name, Type: t}
}

func program(stmts ...ast.Stmt) *ast.Program {
	return &ast.Program{Stmts: stmts}
}

func compile(t *testing.T, prog *ast.Program, opts ...Option) *bytecode.Module {
	t.Helper()
	m, err := Compile(prog, opts...)
	require.NoError(t, err)
	return m
}

func instructions(m *bytecode.Module) []bytecode.Instruction {
	return m.Params().Instructions
}

func compileErr(t *testing.T, prog *ast.Program, code errors.ErrorCode) *errors.CompileError {
	t.Helper()
	_, err := Compile(prog)
	require.Error(t, err)
	cerr, ok := err.(*errors.CompileError)
	require.True(t, ok, "expected a compile error, got %T: %v", err, err)
	require.Equal(t, code, cerr.Code, cerr.Error())
	return cerr
}

func TestCompileIncrement(t *testing.T) {
	m := compile(t, program(
		attribute("v", types.Float),
		assign(ident("v"), bin(ast.OpAdd, ident("v"), num(1))),
	))
	require.Equal(t, []bytecode.Instruction{
		bytecode.MovF(1, 1),
		bytecode.Binary(op.Add, 2, 0, 1),
		bytecode.Unary(op.Mov, 0, 2),
	}, instructions(m))
	require.Equal(t, 3, m.RegisterCount())
	require.Equal(t, 1, m.AttributeCount())
}

func TestCompileTemporariesAreReused(t *testing.T) {
	inc := assign(ident("v"), bin(ast.OpAdd, ident("v"), num(1)))
	m := compile(t, program(attribute("v", types.Float), inc, inc))
	require.Len(t, instructions(m), 6)
	require.Equal(t, 3, m.RegisterCount())
}

func TestCompileConstantFolding(t *testing.T) {
	m := compile(t, program(
		attribute("v", types.Float),
		assign(ident("v"), bin(ast.OpAdd, bin(ast.OpMul, num(2), num(3)), call("sqrt", num(4)))),
	))
	require.Equal(t, []bytecode.Instruction{bytecode.MovF(0, 8)}, instructions(m))
	require.Equal(t, 1, m.RegisterCount())
}

func TestCompileNotChainFolds(t *testing.T) {
	var x ast.Expr = boolean(false)
	for i := 0; i < 10; i++ {
		x = &ast.Unary{At: at, Op: ast.OpNot, X: x}
	}
	m := compile(t, program(attribute("b", types.Bool), assign(ident("b"), x)))
	require.Equal(t, []bytecode.Instruction{bytecode.MovF(0, 0)}, instructions(m))
}

func TestCompileSwizzleHazard(t *testing.T) {
	m := compile(t, program(
		attribute("v", types.Vec3),
		assign(member(ident("v"), "xzy"), member(ident("v"), "yzx")),
	))
	require.Equal(t, []bytecode.Instruction{
		bytecode.Unary(op.Mov, 3, 1),
		bytecode.Unary(op.Mov, 4, 2),
		bytecode.Unary(op.Mov, 5, 0),
		bytecode.Unary(op.Mov, 0, 3),
		bytecode.Unary(op.Mov, 2, 4),
		bytecode.Unary(op.Mov, 1, 5),
	}, instructions(m))
}

func TestCompileSwizzleWithoutHazard(t *testing.T) {
	m := compile(t, program(
		attribute("v", types.Vec3),
		attribute("w", types.Vec2),
		assign(member(ident("v"), "zx"), member(ident("w"), "yx")),
	))
	require.Equal(t, []bytecode.Instruction{
		bytecode.Unary(op.Mov, 2, 4),
		bytecode.Unary(op.Mov, 0, 3),
	}, instructions(m))
}

func TestCompileGlobalsOrder(t *testing.T) {
	m := compile(t, program(
		attribute("a", types.Vec2),
		uniform("u", types.Float),
		attribute("b", types.Float),
	))
	u, ok := m.Uniform("u")
	require.True(t, ok)
	require.Equal(t, []types.Reg{0}, u.Regs)
	a, _ := m.Attribute("a")
	require.Equal(t, []types.Reg{1, 2}, a.Regs)
	b, _ := m.Attribute("b")
	require.Equal(t, []types.Reg{3}, b.Regs)
	require.Equal(t, "a", m.AttributeAt(0).Name)
}

func TestCompileIf(t *testing.T) {
	m := compile(t, program(
		attribute("v", types.Float),
		&ast.If{At: at, Cond: bin(ast.OpGreater, ident("v"), num(1)), Body: block(
			assign(ident("v"), num(0)),
		)},
	))
	require.Equal(t, []bytecode.Instruction{
		bytecode.MovF(1, 1),
		bytecode.Binary(op.Greater, 2, 0, 1),
		bytecode.BeginIf(2, 6, types.RegRange{Lo: 0, Hi: 0}),
		bytecode.MovF(0, 0),
		bytecode.Marker(op.EndIf),
	}, instructions(m))
}

func TestCompileWhile(t *testing.T) {
	vx := member(ident("v"), "x")
	m := compile(t, program(
		attribute("v", types.Vec4),
		&ast.While{At: at, Cond: bin(ast.OpLess, vx, num(5)), Body: block(
			assign(vx, bin(ast.OpAdd, vx, num(1))),
		)},
	))
	require.Equal(t, []bytecode.Instruction{
		bytecode.BeginWhile(5, 10, types.RegRange{Lo: 4, Hi: 5}, 13, types.RegRange{Lo: 0, Hi: 7}),
		bytecode.MovF(4, 5),
		bytecode.Binary(op.Less, 5, 0, 4),
		bytecode.Marker(op.EndWhileCond),
		bytecode.MovF(6, 1),
		bytecode.Binary(op.Add, 7, 0, 6),
		bytecode.Unary(op.Mov, 0, 7),
		bytecode.Marker(op.EndWhile),
	}, instructions(m))
}

func TestCompileFor(t *testing.T) {
	m := compile(t, program(
		attribute("v", types.Float),
		&ast.For{
			At:   at,
			Init: &ast.VarDecl{At: at, Name: "i", Value: num(0)},
			Cond: bin(ast.OpLess, ident("i"), num(3)),
			Step: assign(ident("i"), bin(ast.OpAdd, ident("i"), num(1))),
			Body: block(assign(ident("v"), bin(ast.OpMul, ident("v"), num(2)))),
		},
	))
	ins := instructions(m)
	require.Equal(t, bytecode.MovF(1, 0), ins[0])
	require.Equal(t, op.BeginWhile, ins[1].Op)
	require.Equal(t, op.EndWhile, ins[len(ins)-1].Op)
	// The loop variable is out of scope after the loop.
	compileErr(t, program(
		&ast.For{At: at, Init: &ast.VarDecl{At: at, Name: "i", Value: num(0)}, Cond: boolean(false), Body: block()},
		&ast.ExprStmt{At: at, X: ident("i")},
	), errors.E2001)
}

func TestCompileConstantConditions(t *testing.T) {
	m := compile(t, program(
		attribute("v", types.Float),
		&ast.If{At: at, Cond: boolean(true), Body: block(assign(ident("v"), num(2)))},
		&ast.If{At: at, Cond: boolean(false), Body: block(assign(ident("v"), num(3)))},
		&ast.While{At: at, Cond: bin(ast.OpLess, num(2), num(1)), Body: block(assign(ident("v"), num(4)))},
	))
	require.Equal(t, []bytecode.Instruction{bytecode.MovF(0, 2)}, instructions(m))

	// Dropped bodies are still checked.
	compileErr(t, program(
		attribute("v", types.Float),
		&ast.If{At: at, Cond: boolean(false), Body: block(assign(ident("v"), boolean(true)))},
	), errors.E2003)
}

func TestCompileFalseConditionKeepsSideEffects(t *testing.T) {
	bump := &ast.FuncDecl{
		At: at, Name: "bump", Result: types.Bool,
		Body: block(
			assign(ident("v"), bin(ast.OpAdd, ident("v"), num(1))),
			&ast.Return{At: at, Value: boolean(false)},
		),
	}
	body := func() *ast.Block { return block(assign(ident("v"), num(100))) }
	tests := []struct {
		name string
		stmt ast.Stmt
	}{
		{"if", &ast.If{At: at, Cond: call("bump"), Body: body()}},
		{"while", &ast.While{At: at, Cond: call("bump"), Body: body()}},
		{"for", &ast.For{At: at, Cond: call("bump"), Step: assign(ident("v"), num(7)), Body: body()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := compile(t, program(bump, attribute("v", types.Float), tt.stmt))
			require.Equal(t, []bytecode.Instruction{
				bytecode.MovF(1, 1),
				bytecode.Binary(op.Add, 2, 0, 1),
				bytecode.Unary(op.Mov, 0, 2),
			}, instructions(m))
		})
	}
}

func TestCompileInline(t *testing.T) {
	double := &ast.FuncDecl{
		At:     at,
		Name:   "double",
		Params: []ast.Param{{Name: "x", Type: types.Float}},
		Result: types.Float,
		Body:   block(&ast.Return{At: at, Value: bin(ast.OpMul, ident("x"), num(2))}),
	}
	m := compile(t, program(
		double,
		attribute("v", types.Float),
		assign(ident("v"), call("double", ident("v"))),
	))
	require.Equal(t, []bytecode.Instruction{
		bytecode.Unary(op.Mov, 1, 0),
		bytecode.MovF(2, 2),
		bytecode.Binary(op.Mul, 3, 1, 2),
		bytecode.Unary(op.Mov, 0, 3),
	}, instructions(m))
}

func TestCompileOverloads(t *testing.T) {
	f := func(param types.Type, k float32) *ast.FuncDecl {
		return &ast.FuncDecl{
			At:     at,
			Name:   "scale",
			Params: []ast.Param{{Name: "x", Type: param}},
			Result: param,
			Body:   block(&ast.Return{At: at, Value: bin(ast.OpMul, ident("x"), num(k))}),
		}
	}
	m := compile(t, program(
		f(types.Float, 2), f(types.Vec2, 3),
		attribute("a", types.Float),
		attribute("b", types.Vec2),
		assign(ident("a"), call("scale", ident("a"))),
		assign(ident("b"), call("scale", ident("b"))),
	))
	var imms []float32
	for _, ins := range instructions(m) {
		if ins.Op == op.MovF {
			imms = append(imms, ins.Imm)
		}
	}
	require.Equal(t, []float32{2, 3}, imms)

	cerr := compileErr(t, program(
		f(types.Float, 2),
		attribute("b", types.BVec2),
		&ast.ExprStmt{At: at, X: call("scale", ident("b"))},
	), errors.E2002)
	require.Contains(t, cerr.Note, "scale(float)")

	compileErr(t, program(f(types.Float, 2), f(types.Float, 3)), errors.E2006)
}

func TestCompileUserFunctionShadowsIntrinsic(t *testing.T) {
	m := compile(t, program(
		&ast.FuncDecl{
			At: at, Name: "floor",
			Params: []ast.Param{{Name: "x", Type: types.Float}},
			Result: types.Float,
			Body:   block(&ast.Return{At: at, Value: num(42)}),
		},
		attribute("v", types.Float),
		assign(ident("v"), call("floor", ident("v"))),
	))
	ins := instructions(m)
	require.Equal(t, bytecode.MovF(0, 42), ins[len(ins)-1])
}

func TestCompileVoidFunctionWritesAttribute(t *testing.T) {
	m := compile(t, program(
		&ast.FuncDecl{
			At: at, Name: "reset", Result: types.Void,
			Body: block(assign(ident("v"), num(0))),
		},
		attribute("v", types.Float),
		&ast.ExprStmt{At: at, X: call("reset")},
	))
	require.Equal(t, []bytecode.Instruction{bytecode.MovF(0, 0)}, instructions(m))
}

func TestCompileIntrinsics(t *testing.T) {
	tests := []struct {
		name string
		expr ast.Expr
		typ  types.Type
	}{
		{"min", call("min", ident("a"), num(1)), types.Float},
		{"max", call("max", ident("v"), ident("a")), types.Vec3},
		{"clamp", call("clamp", ident("v"), num(0), num(1)), types.Vec3},
		{"saturate", call("saturate", ident("a")), types.Float},
		{"ceil", call("ceil", ident("v")), types.Vec3},
		{"fract", call("fract", ident("a")), types.Float},
		{"round", call("round", ident("a")), types.Float},
		{"abs", call("abs", ident("v")), types.Vec3},
		{"length", call("length", ident("v")), types.Float},
		{"dot", call("dot", ident("v"), ident("v")), types.Float},
		{"distance", call("distance", ident("v"), ident("v")), types.Float},
		{"normalize", call("normalize", ident("v")), types.Vec3},
		{"mix", call("mix", ident("v"), ident("v"), num(0.5)), types.Vec3},
		{"step", call("step", num(0.5), ident("a")), types.Float},
		{"pow", call("pow", ident("a"), num(2)), types.Float},
		{"sel", call("sel", ident("v"), ident("v"), bin(ast.OpLess, ident("a"), num(1))), types.Vec3},
		{"rand", call("rand"), types.Float},
		{"vec3", call("vec3", ident("a"), member(ident("v"), "xy")), types.Vec3},
		{"vec3 broadcast", call("vec3", ident("a")), types.Vec3},
		{"bvec2", call("bvec2", boolean(true), bin(ast.OpLess, ident("a"), num(1))), types.BVec2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compile(t, program(
				attribute("a", types.Float),
				attribute("v", types.Vec3),
				&ast.VarDecl{At: at, Name: "r", Type: tt.typ, Value: tt.expr},
			))
		})
	}
}

func TestCompileRandIsNotFolded(t *testing.T) {
	m := compile(t, program(
		attribute("a", types.Float),
		assign(ident("a"), bin(ast.OpMul, call("rand"), num(0))),
	))
	require.Equal(t, op.Rand, instructions(m)[0].Op)
}

func TestCompileInferredVariable(t *testing.T) {
	m := compile(t, program(
		attribute("v", types.Vec2),
		&ast.VarDecl{At: at, Name: "t", Value: bin(ast.OpMul, ident("v"), num(2))},
		assign(ident("v"), ident("t")),
	))
	// t occupies r2..r3 below the temporaries used to initialize it.
	require.Equal(t, []bytecode.Instruction{
		bytecode.MovF(4, 2),
		bytecode.Binary(op.Mul, 5, 0, 4),
		bytecode.Binary(op.Mul, 6, 1, 4),
		bytecode.Unary(op.Mov, 2, 5),
		bytecode.Unary(op.Mov, 3, 6),
		bytecode.Unary(op.Mov, 0, 2),
		bytecode.Unary(op.Mov, 1, 3),
	}, instructions(m))
}

func TestCompileUninitializedVariableIsZero(t *testing.T) {
	m := compile(t, program(&ast.VarDecl{At: at, Name: "t", Type: types.Vec2}))
	require.Equal(t, []bytecode.Instruction{bytecode.MovF(0, 0), bytecode.MovF(1, 0)}, instructions(m))
}

func TestCompileBoolEquality(t *testing.T) {
	m := compile(t, program(
		attribute("a", types.Bool),
		attribute("b", types.Bool),
		assign(ident("a"), bin(ast.OpEqual, ident("a"), ident("b"))),
	))
	require.Equal(t, []bytecode.Instruction{
		bytecode.Unary(op.Not, 2, 0),
		bytecode.Unary(op.Not, 3, 1),
		bytecode.Binary(op.Equal, 4, 2, 3),
		bytecode.Unary(op.Mov, 0, 4),
	}, instructions(m))
}

func TestCompileDerivedComparisons(t *testing.T) {
	m := compile(t, program(
		attribute("a", types.Float),
		attribute("b", types.Bool),
		assign(ident("b"), bin(ast.OpLessEqual, ident("a"), ident("a"))),
	))
	require.Equal(t, []bytecode.Instruction{
		bytecode.Binary(op.Greater, 2, 0, 0),
		bytecode.Unary(op.Not, 3, 2),
		bytecode.Unary(op.Mov, 1, 3),
	}, instructions(m))
}

func TestCompileErrors(t *testing.T) {
	ret := func(x ast.Expr) *ast.Return { return &ast.Return{At: at, Value: x} }
	fn := func(name string, result types.Type, body ...ast.Stmt) *ast.FuncDecl {
		return &ast.FuncDecl{At: at, Name: name, Result: result, Body: block(body...)}
	}
	tests := []struct {
		name string
		prog *ast.Program
		code errors.ErrorCode
	}{
		{"undefined variable", program(assign(ident("nope"), num(1))), errors.E2001},
		{"undefined function", program(&ast.ExprStmt{At: at, X: call("nope")}), errors.E2002},
		{"type mismatch", program(attribute("v", types.Vec2), assign(ident("v"), num(1))), errors.E2003},
		{"bool arithmetic", program(attribute("b", types.Bool), assign(ident("b"), bin(ast.OpAdd, ident("b"), ident("b")))), errors.E2003},
		{"vector width", program(attribute("v", types.Vec2), attribute("w", types.Vec3), &ast.ExprStmt{At: at, X: bin(ast.OpAdd, ident("v"), ident("w"))}), errors.E2003},
		{"non-bool condition", program(&ast.If{At: at, Cond: num(1), Body: block()}), errors.E2004},
		{"vector condition", program(attribute("b", types.BVec2), &ast.While{At: at, Cond: ident("b"), Body: block()}), errors.E2004},
		{"return outside function", program(ret(nil)), errors.E2005},
		{"nested return", program(fn("f", types.Float, &ast.If{At: at, Cond: boolean(true), Body: block(ret(num(1)))}, ret(num(2)))), errors.E2005},
		{"void returns value", program(fn("f", types.Void, ret(num(1)))), errors.E2005},
		{"duplicate attribute", program(attribute("v", types.Float), uniform("v", types.Float)), errors.E2006},
		{"duplicate variable", program(&ast.VarDecl{At: at, Name: "x", Type: types.Float}, &ast.VarDecl{At: at, Name: "x", Type: types.Float}), errors.E2006},
		{"invalid swizzle", program(attribute("v", types.Vec2), &ast.ExprStmt{At: at, X: member(ident("v"), "z")}), errors.E2008},
		{"repeated target component", program(attribute("v", types.Vec2), assign(member(ident("v"), "xx"), member(ident("v"), "xy"))), errors.E2008},
		{"swizzle scalar", program(attribute("v", types.Float), &ast.ExprStmt{At: at, X: member(ident("v"), "x")}), errors.E2009},
		{"assign uniform", program(uniform("u", types.Float), assign(ident("u"), num(1))), errors.E2010},
		{"wrong arg count", program(&ast.ExprStmt{At: at, X: call("sqrt", num(1), num(2))}), errors.E2012},
		{"missing return", program(fn("f", types.Float)), errors.E2013},
		{"nested declaration", program(&ast.If{At: at, Cond: boolean(true), Body: block(attribute("v", types.Float))}), errors.E2014},
		{"untyped variable", program(&ast.VarDecl{At: at, Name: "x"}), errors.E2014},
		{"assign to expression", program(assign(call("rand"), num(1))), errors.E2015},
		{"return type", program(fn("f", types.Float, ret(boolean(true)))), errors.E2003},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compileErr(t, tt.prog, tt.code)
		})
	}
}

func TestCompileRecursionCycle(t *testing.T) {
	f := &ast.FuncDecl{At: at, Name: "f", Result: types.Float, Body: block(&ast.Return{At: at, Value: call("g")})}
	g := &ast.FuncDecl{At: at, Name: "g", Result: types.Float, Body: block(&ast.Return{At: at, Value: call("f")})}
	cerr := compileErr(t, program(f, g), errors.E2011)
	require.Contains(t, cerr.Message, "f -> g -> f")
}

func TestCompileRegisterExhaustion(t *testing.T) {
	_, err := Compile(program(attribute("v", types.Vec4)), WithMaxRegisters(3))
	require.Equal(t, errors.E2007, errors.CodeOf(err))

	// Temporaries count against the same budget.
	_, err = Compile(program(
		attribute("v", types.Vec2),
		assign(ident("v"), bin(ast.OpMul, ident("v"), ident("v"))),
	), WithMaxRegisters(3))
	require.Equal(t, errors.E2007, errors.CodeOf(err))
}

func TestCompileUndefinedSuggestions(t *testing.T) {
	cerr := compileErr(t, program(
		attribute("velocity", types.Float),
		assign(ident("velocty"), num(1)),
	), errors.E2001)
	require.NotEmpty(t, cerr.Suggestions)
	require.Equal(t, "velocity", cerr.Suggestions[0].Value)
}

func TestCompileSwizzleSuggestions(t *testing.T) {
	cerr := compileErr(t, program(
		attribute("c", types.Vec4),
		&ast.ExprStmt{At: at, X: member(ident("c"), "rgb")},
	), errors.E2008)
	require.Equal(t, "xyz", cerr.Suggestions[0].Value)

	cerr = compileErr(t, program(
		attribute("c", types.Vec2),
		assign(member(ident("c"), "ST"), member(ident("c"), "yx")),
	), errors.E2008)
	require.Equal(t, "xy", cerr.Suggestions[0].Value)

	cerr = compileErr(t, program(
		attribute("c", types.Vec2),
		&ast.ExprStmt{At: at, X: member(ident("c"), "b")},
	), errors.E2008)
	require.Empty(t, cerr.Suggestions)
}
