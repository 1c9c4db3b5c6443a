package compiler

import (
	"strings"

	"github.com/deepnoodle-ai/lanevm/ast"
	"github.com/deepnoodle-ai/lanevm/op"
	"github.com/deepnoodle-ai/lanevm/types"
)

var binaryCodes = map[ast.BinaryOp]op.Code{
	ast.OpAdd:     op.Add,
	ast.OpSub:     op.Sub,
	ast.OpMul:     op.Mul,
	ast.OpDiv:     op.Div,
	ast.OpPow:     op.Pow,
	ast.OpLess:    op.Less,
	ast.OpGreater: op.Greater,
	ast.OpEqual:   op.Equal,
	ast.OpAnd:     op.And,
	ast.OpOr:      op.Or,
}

// Comparisons without an opcode are the negation of one that has one.
var negatedCodes = map[ast.BinaryOp]op.Code{
	ast.OpNotEqual:     op.Equal,
	ast.OpLessEqual:    op.Greater,
	ast.OpGreaterEqual: op.Less,
}

// expr lowers an expression and returns its value.
func (c *Compiler) expr(e ast.Expr) (value, error) {
	if e == nil {
		return voidValue, c.errorf(typeMismatch, c.pos, "missing expression")
	}
	switch e := e.(type) {
	case *ast.Number:
		return constant(types.Float, e.Value), nil
	case *ast.Bool:
		return constant(types.Bool, op.Truth(e.Value)), nil
	case *ast.Ident:
		sym, ok := c.scope.Resolve(e.Name)
		if !ok {
			return voidValue, c.undefined(undefinedVariable, e.Pos(), "variable", e.Name, c.scope.VisibleNames())
		}
		return sym.value, nil
	case *ast.Member:
		return c.member(e)
	case *ast.Binary:
		return c.binaryExpr(e)
	case *ast.Unary:
		return c.unaryExpr(e)
	case *ast.Call:
		return c.call(e)
	default:
		return voidValue, c.errorf(typeMismatch, e.Pos(), "unsupported expression %s", e)
	}
}

func (c *Compiler) member(e *ast.Member) (value, error) {
	x, err := c.expr(e.X)
	if err != nil {
		return voidValue, err
	}
	if !x.typ.IsVector() {
		return voidValue, c.errorf(swizzleNonVector, e.Pos(), "cannot swizzle %s of type %s", e.X, x.typ)
	}
	s, err := types.ParseSwizzle(e.Swizzle, x.components())
	if err != nil {
		return voidValue, c.badSwizzle(e.Pos(), err, e.Swizzle, x.components())
	}
	return x.swizzle(s), nil
}

func (c *Compiler) binaryExpr(e *ast.Binary) (value, error) {
	x, err := c.expr(e.X)
	if err != nil {
		return voidValue, err
	}
	if hasUserCall(c, e.Y) {
		x = c.snapshot(x)
	}
	y, err := c.expr(e.Y)
	if err != nil {
		return voidValue, err
	}
	c.pos = e.Pos()

	mismatch := func() error {
		return c.errorf(typeMismatch, e.Pos(), "invalid operation: %s %s %s", x.typ, e.Op, y.typ)
	}
	if !broadcastable(x, y) {
		return voidValue, mismatch()
	}
	switch {
	case e.Op.IsArithmetic():
		if !x.typ.IsFloat() || !y.typ.IsFloat() {
			return voidValue, mismatch()
		}
	case e.Op == ast.OpEqual || e.Op == ast.OpNotEqual:
		if !x.typ.Valid() || x.typ.Scalar() != y.typ.Scalar() {
			return voidValue, mismatch()
		}
		if x.typ.IsBool() {
			// Any nonzero value is true, so compare normalized truth values.
			x, y = c.unary(op.Not, x), c.unary(op.Not, y)
		}
	case e.Op.IsComparison():
		if !x.typ.IsFloat() || !y.typ.IsFloat() {
			return voidValue, mismatch()
		}
	case e.Op.IsLogical():
		if !x.typ.IsBool() || !y.typ.IsBool() {
			return voidValue, mismatch()
		}
	default:
		return voidValue, c.errorf(typeMismatch, e.Pos(), "unknown operator %s", e.Op)
	}

	if code, ok := negatedCodes[e.Op]; ok {
		return c.unary(op.Not, c.binary(code, x, y)), nil
	}
	return c.binary(binaryCodes[e.Op], x, y), nil
}

func (c *Compiler) unaryExpr(e *ast.Unary) (value, error) {
	x, err := c.expr(e.X)
	if err != nil {
		return voidValue, err
	}
	c.pos = e.Pos()
	switch e.Op {
	case ast.OpNeg:
		if !x.typ.IsFloat() {
			return voidValue, c.errorf(typeMismatch, e.Pos(), "invalid operation: -%s", x.typ)
		}
		return c.neg(x), nil
	case ast.OpNot:
		if !x.typ.IsBool() {
			return voidValue, c.errorf(typeMismatch, e.Pos(), "invalid operation: !%s", x.typ)
		}
		return c.unary(op.Not, x), nil
	default:
		return voidValue, c.errorf(typeMismatch, e.Pos(), "unknown operator %s", e.Op)
	}
}

// args lowers call arguments left to right. An argument followed by a user
// call is copied first, since the inlined body may assign to what it reads.
func (c *Compiler) args(exprs []ast.Expr) ([]value, error) {
	vals := make([]value, len(exprs))
	for i, e := range exprs {
		v, err := c.expr(e)
		if err != nil {
			return nil, err
		}
		for _, later := range exprs[i+1:] {
			if hasUserCall(c, later) {
				v = c.snapshot(v)
				break
			}
		}
		vals[i] = v
	}
	return vals, nil
}

// call resolves a call by name and argument types. A matching user overload
// takes precedence over an intrinsic of the same name.
func (c *Compiler) call(e *ast.Call) (value, error) {
	args, err := c.args(e.Args)
	if err != nil {
		return voidValue, err
	}
	c.pos = e.Pos()
	if fn, ok := c.lookupFunction(e.Name, args); ok {
		return c.inline(fn, args)
	}
	if intrinsic, ok := intrinsics[e.Name]; ok {
		return intrinsic(c, e, args)
	}
	overloads, ok := c.functions[e.Name]
	if !ok {
		return voidValue, c.undefined(undefinedFunction, e.Pos(), "function", e.Name, c.functionNames())
	}
	arity := false
	for _, fn := range overloads {
		if len(fn.params) == len(args) {
			arity = true
		}
	}
	if !arity {
		return voidValue, c.errorf(wrongArgCount, e.Pos(), "%s called with %d argument(s), no overload takes that many",
			e.Name, len(args))
	}
	argTypes := make([]types.Type, len(args))
	for i, a := range args {
		argTypes[i] = a.typ
	}
	cerr := c.errorf(undefinedFunction, e.Pos(), "no overload of %s matches (%s)", e.Name, typeList(argTypes))
	candidates := make([]string, len(overloads))
	for i, fn := range overloads {
		candidates[i] = e.Name + "(" + typeList(fn.params) + ")"
	}
	cerr.Note = "candidates: " + strings.Join(candidates, ", ")
	return voidValue, cerr
}

// hasUserCall reports whether e calls a user function anywhere.
func hasUserCall(c *Compiler, e ast.Expr) bool {
	found := false
	ast.Inspect(e, func(n ast.Node) bool {
		if call, ok := n.(*ast.Call); ok {
			if _, user := c.functions[call.Name]; user {
				found = true
			}
		}
		return !found
	})
	return found
}
