package compiler

import (
	"github.com/deepnoodle-ai/lanevm/bytecode"
	"github.com/deepnoodle-ai/lanevm/op"
	"github.com/deepnoodle-ai/lanevm/types"
)

// value is the result of lowering an expression. It is either a
// compile-time constant (consts set, regs nil) or a list of registers, one per
// component. Register lists may alias variable storage; callers that need a
// private copy use snapshot.
type value struct {
	typ    types.Type
	regs   []types.Reg
	consts []float32
}

var voidValue = value{typ: types.Void}

func constant(t types.Type, consts ...float32) value {
	return value{typ: t, consts: consts}
}

func (v value) isConst() bool {
	return v.regs == nil && v.consts != nil
}

func (v value) components() int {
	return v.typ.Components()
}

// component returns a scalar view of component i. Scalars broadcast, so any
// index selects their single component.
func (v value) component(i int) value {
	if v.components() == 1 {
		i = 0
	}
	scalar := v.typ.Scalar()
	if v.isConst() {
		return constant(scalar, v.consts[i])
	}
	return value{typ: scalar, regs: []types.Reg{v.regs[i]}}
}

// swizzle reorders components.
func (v value) swizzle(s types.Swizzle) value {
	t := v.typ.WithComponents(len(s))
	if v.isConst() {
		consts := make([]float32, len(s))
		for i, c := range s {
			consts[i] = v.consts[c]
		}
		return constant(t, consts...)
	}
	regs := make([]types.Reg, len(s))
	for i, c := range s {
		regs[i] = v.regs[c]
	}
	return value{typ: t, regs: regs}
}

func broadcastWidth(vals ...value) int {
	n := 1
	for _, v := range vals {
		n = max(n, v.components())
	}
	return n
}

// emit appends an instruction to the current stream.
func (c *Compiler) emit(ins bytecode.Instruction) {
	c.instrs = append(c.instrs, ins)
}

// temp allocates a register. Exhaustion is recorded on the compiler and
// reported when the current statement finishes.
func (c *Compiler) temp() types.Reg {
	reg, ok := c.regs.alloc()
	if !ok && c.failure == nil {
		c.failure = c.errorf(registerExhausted, c.pos, "program needs more than %d registers", c.regs.limit)
	}
	return reg
}

// reg returns a register holding component i of v, loading constants with
// movf as needed.
func (c *Compiler) reg(v value, i int) types.Reg {
	v = v.component(i)
	if v.isConst() {
		r := c.temp()
		c.emit(bytecode.MovF(r, v.consts[0]))
		return r
	}
	return v.regs[0]
}

// materialize returns v with every component in a register.
func (c *Compiler) materialize(v value) value {
	if !v.isConst() {
		return v
	}
	regs := make([]types.Reg, v.components())
	for i := range regs {
		regs[i] = c.reg(v, i)
	}
	return value{typ: v.typ, regs: regs}
}

// snapshot copies v into fresh registers so later writes to the registers
// it aliases cannot change it.
func (c *Compiler) snapshot(v value) value {
	if v.isConst() || v.typ == types.Void {
		return v
	}
	regs := make([]types.Reg, len(v.regs))
	for i, src := range v.regs {
		regs[i] = c.temp()
		c.emit(bytecode.Unary(op.Mov, regs[i], src))
	}
	return value{typ: v.typ, regs: regs}
}

// store writes v into dst, one register per component.
func (c *Compiler) store(dst []types.Reg, v value) {
	for i, d := range dst {
		src := v.component(i)
		if src.isConst() {
			c.emit(bytecode.MovF(d, src.consts[0]))
		} else if src.regs[0] != d {
			c.emit(bytecode.Unary(op.Mov, d, src.regs[0]))
		}
	}
}

// zero returns a constant of type t with every component set to 0.
func zero(t types.Type) value {
	return constant(t, make([]float32, t.Components())...)
}

// binary applies a two-operand opcode component-wise, broadcasting scalars.
// Constant operands are folded.
func (c *Compiler) binary(code op.Code, a, b value) value {
	n := broadcastWidth(a, b)
	t := types.Float.WithComponents(n)
	if op.ProducesBool(code) {
		t = types.Bool.WithComponents(n)
	}
	if a.isConst() && b.isConst() {
		consts := make([]float32, n)
		for i := range consts {
			consts[i], _ = op.EvalBinary(code, a.component(i).consts[0], b.component(i).consts[0])
		}
		return constant(t, consts...)
	}
	a, b = c.materialize(a), c.materialize(b)
	regs := make([]types.Reg, n)
	for i := range regs {
		ra, rb := c.reg(a, i), c.reg(b, i)
		regs[i] = c.temp()
		c.emit(bytecode.Binary(code, regs[i], ra, rb))
	}
	return value{typ: t, regs: regs}
}

// unary applies a one-operand opcode component-wise.
func (c *Compiler) unary(code op.Code, a value) value {
	t := a.typ
	if op.ProducesBool(code) {
		t = a.typ.Boolean()
	}
	if a.isConst() {
		consts := make([]float32, len(a.consts))
		for i, x := range a.consts {
			consts[i], _ = op.EvalUnary(code, x)
		}
		return constant(t, consts...)
	}
	regs := make([]types.Reg, len(a.regs))
	for i, src := range a.regs {
		regs[i] = c.temp()
		c.emit(bytecode.Unary(code, regs[i], src))
	}
	return value{typ: t, regs: regs}
}

// neg negates a float value. There is no negate opcode, so it subtracts from
// a zero register.
func (c *Compiler) neg(a value) value {
	if a.isConst() {
		consts := make([]float32, len(a.consts))
		for i, x := range a.consts {
			consts[i] = -x
		}
		return constant(a.typ, consts...)
	}
	return c.binary(op.Sub, zero(types.Float), a)
}

// sel picks a where cond is true and b elsewhere, component-wise. The result
// has the type of a; cond broadcasts when scalar.
func (c *Compiler) sel(a, b, cond value) value {
	n := broadcastWidth(a, b, cond)
	t := a.typ.WithComponents(n)
	if cond.isConst() {
		parts := make([]value, n)
		for i := range parts {
			if cond.component(i).consts[0] != 0 {
				parts[i] = a.component(i)
			} else {
				parts[i] = b.component(i)
			}
		}
		return c.join(t, parts)
	}
	a, b, cond = c.materialize(a), c.materialize(b), c.materialize(cond)
	regs := make([]types.Reg, n)
	for i := range regs {
		ra, rb, rc := c.reg(a, i), c.reg(b, i), c.reg(cond, i)
		regs[i] = c.temp()
		c.emit(bytecode.Sel(regs[i], ra, rb, rc))
	}
	return value{typ: t, regs: regs}
}

// join assembles scalar parts into a value of type t. Constant parts stay
// constant when every part is constant; otherwise they are loaded.
func (c *Compiler) join(t types.Type, parts []value) value {
	consts := make([]float32, 0, len(parts))
	for _, p := range parts {
		if !p.isConst() {
			break
		}
		consts = append(consts, p.consts[0])
	}
	if len(consts) == len(parts) {
		return constant(t, consts...)
	}
	regs := make([]types.Reg, len(parts))
	for i, p := range parts {
		regs[i] = c.reg(p, 0)
	}
	return value{typ: t, regs: regs}
}

// sum adds the components of v into a scalar.
func (c *Compiler) sum(v value) value {
	total := v.component(0)
	for i := 1; i < v.components(); i++ {
		total = c.binary(op.Add, total, v.component(i))
	}
	return total
}
