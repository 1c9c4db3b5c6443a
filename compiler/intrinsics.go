package compiler

import (
	"github.com/deepnoodle-ai/lanevm/ast"
	"github.com/deepnoodle-ai/lanevm/bytecode"
	"github.com/deepnoodle-ai/lanevm/op"
	"github.com/deepnoodle-ai/lanevm/types"
)

// intrinsicFunc expands a builtin call into primitive instructions. The
// arguments have already been lowered.
type intrinsicFunc func(c *Compiler, call *ast.Call, args []value) (value, error)

var intrinsics map[string]intrinsicFunc

func init() {
	intrinsics = map[string]intrinsicFunc{
		"sqrt":      unaryIntrinsic(op.Sqrt),
		"floor":     unaryIntrinsic(op.Floor),
		"ceil":      floatIntrinsic(1, func(c *Compiler, a []value) value { return c.neg(c.unary(op.Floor, c.neg(a[0]))) }),
		"fract":     floatIntrinsic(1, func(c *Compiler, a []value) value { return c.binary(op.Sub, a[0], c.unary(op.Floor, a[0])) }),
		"round":     floatIntrinsic(1, func(c *Compiler, a []value) value { return c.round(a[0]) }),
		"abs":       floatIntrinsic(1, func(c *Compiler, a []value) value { return c.abs(a[0]) }),
		"min":       floatIntrinsic(2, func(c *Compiler, a []value) value { return c.min(a[0], a[1]) }),
		"max":       floatIntrinsic(2, func(c *Compiler, a []value) value { return c.max(a[0], a[1]) }),
		"pow":       floatIntrinsic(2, func(c *Compiler, a []value) value { return c.binary(op.Pow, a[0], a[1]) }),
		"step":      floatIntrinsic(2, func(c *Compiler, a []value) value { return c.step(a[0], a[1]) }),
		"clamp":     floatIntrinsic(3, func(c *Compiler, a []value) value { return c.min(c.max(a[0], a[1]), a[2]) }),
		"mix":       floatIntrinsic(3, func(c *Compiler, a []value) value { return c.mix(a[0], a[1], a[2]) }),
		"saturate":  floatIntrinsic(1, func(c *Compiler, a []value) value { return c.saturate(a[0]) }),
		"length":    floatIntrinsic(1, func(c *Compiler, a []value) value { return c.length(a[0]) }),
		"normalize": floatIntrinsic(1, func(c *Compiler, a []value) value { return c.binary(op.Div, a[0], c.length(a[0])) }),
		"dot":       sameIntrinsic(func(c *Compiler, a []value) value { return c.sum(c.binary(op.Mul, a[0], a[1])) }),
		"distance":  sameIntrinsic(func(c *Compiler, a []value) value { return c.length(c.binary(op.Sub, a[0], a[1])) }),
		"sel":       selIntrinsic,
		"rand":      randIntrinsic,
		"vec2":      constructor(types.Vec2),
		"vec3":      constructor(types.Vec3),
		"vec4":      constructor(types.Vec4),
		"bvec2":     constructor(types.BVec2),
		"bvec3":     constructor(types.BVec3),
		"bvec4":     constructor(types.BVec4),
	}
}

func (c *Compiler) min(a, b value) value {
	return c.sel(a, b, c.binary(op.Less, a, b))
}

func (c *Compiler) max(a, b value) value {
	return c.sel(a, b, c.binary(op.Greater, a, b))
}

func (c *Compiler) round(x value) value {
	return c.unary(op.Floor, c.binary(op.Add, x, constant(types.Float, 0.5)))
}

func (c *Compiler) abs(x value) value {
	return c.sel(x, c.neg(x), c.binary(op.Greater, x, zero(types.Float)))
}

func (c *Compiler) saturate(x value) value {
	return c.min(c.max(x, zero(types.Float)), constant(types.Float, 1))
}

func (c *Compiler) length(v value) value {
	return c.unary(op.Sqrt, c.sum(c.binary(op.Mul, v, v)))
}

func (c *Compiler) mix(a, b, t value) value {
	return c.binary(op.Add, a, c.binary(op.Mul, c.binary(op.Sub, b, a), t))
}

// step is 0 where x < edge and 1 elsewhere.
func (c *Compiler) step(edge, x value) value {
	return c.sel(zero(types.Float), constant(types.Float, 1), c.binary(op.Less, x, edge))
}

func (c *Compiler) checkArgCount(call *ast.Call, args []value, n int) error {
	if len(args) != n {
		return c.errorf(wrongArgCount, call.Pos(), "%s expects %d argument(s), got %d", call.Name, n, len(args))
	}
	return nil
}

// broadcastable reports whether values can be combined component-wise: they
// have the same width or all but one are scalars.
func broadcastable(vals ...value) bool {
	n := broadcastWidth(vals...)
	for _, v := range vals {
		if k := v.components(); k != 1 && k != n {
			return false
		}
	}
	return true
}

func (c *Compiler) argTypeError(call *ast.Call, args []value) error {
	argTypes := make([]types.Type, len(args))
	for i, a := range args {
		argTypes[i] = a.typ
	}
	return c.errorf(typeMismatch, call.Pos(), "no overload of %s accepts (%s)", call.Name, typeList(argTypes))
}

func unaryIntrinsic(code op.Code) intrinsicFunc {
	return floatIntrinsic(1, func(c *Compiler, a []value) value { return c.unary(code, a[0]) })
}

// floatIntrinsic wraps an expansion over n float arguments of matching or
// scalar width.
func floatIntrinsic(n int, expand func(c *Compiler, args []value) value) intrinsicFunc {
	return func(c *Compiler, call *ast.Call, args []value) (value, error) {
		if err := c.checkArgCount(call, args, n); err != nil {
			return voidValue, err
		}
		for _, a := range args {
			if !a.typ.IsFloat() {
				return voidValue, c.argTypeError(call, args)
			}
		}
		if !broadcastable(args...) {
			return voidValue, c.argTypeError(call, args)
		}
		return expand(c, args), nil
	}
}

// sameIntrinsic wraps an expansion over two float arguments of the same type.
func sameIntrinsic(expand func(c *Compiler, args []value) value) intrinsicFunc {
	return func(c *Compiler, call *ast.Call, args []value) (value, error) {
		if err := c.checkArgCount(call, args, 2); err != nil {
			return voidValue, err
		}
		if !args[0].typ.IsFloat() || args[0].typ != args[1].typ {
			return voidValue, c.argTypeError(call, args)
		}
		return expand(c, args), nil
	}
}

func selIntrinsic(c *Compiler, call *ast.Call, args []value) (value, error) {
	if err := c.checkArgCount(call, args, 3); err != nil {
		return voidValue, err
	}
	a, b, cond := args[0], args[1], args[2]
	if a.typ != b.typ || !a.typ.Valid() || !cond.typ.IsBool() {
		return voidValue, c.argTypeError(call, args)
	}
	if k := cond.components(); k != 1 && k != a.components() {
		return voidValue, c.argTypeError(call, args)
	}
	return c.sel(a, b, cond), nil
}

// randIntrinsic is never folded: every evaluation draws a new value per lane.
func randIntrinsic(c *Compiler, call *ast.Call, args []value) (value, error) {
	if err := c.checkArgCount(call, args, 0); err != nil {
		return voidValue, err
	}
	r := c.temp()
	c.emit(bytecode.Rand(r))
	return value{typ: types.Float, regs: []types.Reg{r}}, nil
}

// constructor builds a vector from the components of its arguments, or
// broadcasts a single scalar.
func constructor(t types.Type) intrinsicFunc {
	return func(c *Compiler, call *ast.Call, args []value) (value, error) {
		if len(args) == 0 {
			return voidValue, c.errorf(wrongArgCount, call.Pos(), "%s expects at least one argument", call.Name)
		}
		var parts []value
		for _, a := range args {
			if a.typ.Scalar() != t.Scalar() {
				return voidValue, c.argTypeError(call, args)
			}
			for i := 0; i < a.components(); i++ {
				parts = append(parts, a.component(i))
			}
		}
		if len(parts) == 1 {
			for len(parts) < t.Components() {
				parts = append(parts, parts[0])
			}
		}
		if len(parts) != t.Components() {
			return voidValue, c.errorf(wrongArgCount, call.Pos(), "%s needs %d components, got %d",
				call.Name, t.Components(), len(parts))
		}
		return c.join(t, parts), nil
	}
}
