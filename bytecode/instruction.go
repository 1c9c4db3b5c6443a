package bytecode

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/lanevm/op"
	"github.com/deepnoodle-ai/lanevm/types"
)

// Instruction is a single decoded instruction. Which fields are meaningful
// depends on the opcode's layout:
//
//	unary:     Dst, A
//	binary:    Dst, A, B
//	sel:       Dst, A, B, Cond
//	movf:      Dst, Imm
//	rand:      Dst
//	beginif:   Cond, BodyLen, BodyRange
//	beginwhile Cond, CondLen, CondRange, BodyLen, BodyRange
//
// Unused fields are zero, which keeps instructions comparable with ==.
type Instruction struct {
	Op   op.Code
	Dst  types.Reg
	A    types.Reg
	B    types.Reg
	Cond types.Reg
	Imm  float32

	CondLen   uint32
	CondRange types.RegRange
	BodyLen   uint32
	BodyRange types.RegRange
}

// Binary returns a two-operand instruction such as add or less.
func Binary(code op.Code, dst, a, b types.Reg) Instruction {
	return Instruction{Op: code, Dst: dst, A: a, B: b}
}

// Unary returns a one-operand instruction such as sqrt, not, floor or mov.
func Unary(code op.Code, dst, src types.Reg) Instruction {
	return Instruction{Op: code, Dst: dst, A: src}
}

// MovF returns an instruction loading an immediate into dst.
func MovF(dst types.Reg, imm float32) Instruction {
	return Instruction{Op: op.MovF, Dst: dst, Imm: imm}
}

// Sel returns an instruction storing a where cond is true and b elsewhere.
func Sel(dst, a, b, cond types.Reg) Instruction {
	return Instruction{Op: op.Sel, Dst: dst, A: a, B: b, Cond: cond}
}

// Rand returns an instruction storing a random value in [0, 1) into dst.
func Rand(dst types.Reg) Instruction {
	return Instruction{Op: op.Rand, Dst: dst}
}

// BeginIf returns an if header. Lengths and ranges are normally patched in
// by the compiler once the body is known.
func BeginIf(cond types.Reg, bodyLen uint32, body types.RegRange) Instruction {
	return Instruction{Op: op.BeginIf, Cond: cond, BodyLen: bodyLen, BodyRange: body}
}

// BeginWhile returns a while header.
func BeginWhile(cond types.Reg, condLen uint32, condRange types.RegRange, bodyLen uint32, body types.RegRange) Instruction {
	return Instruction{
		Op:        op.BeginWhile,
		Cond:      cond,
		CondLen:   condLen,
		CondRange: condRange,
		BodyLen:   bodyLen,
		BodyRange: body,
	}
}

// Marker returns one of the operand-less block markers.
func Marker(code op.Code) Instruction {
	return Instruction{Op: code}
}

// Size returns the encoded size of the instruction in bytes.
func (i Instruction) Size() int {
	return op.GetInfo(i.Op).Size()
}

// Writes reports whether the instruction produces a value into Dst.
func (i Instruction) Writes() bool {
	return op.GetInfo(i.Op).Writes
}

// Registers returns every register index the instruction encodes, including
// the bounds of non-empty block ranges.
func (i Instruction) Registers() []types.Reg {
	switch op.GetInfo(i.Op).Layout {
	case op.LayoutDst, op.LayoutImmediate:
		return []types.Reg{i.Dst}
	case op.LayoutUnary:
		return []types.Reg{i.Dst, i.A}
	case op.LayoutBinary:
		return []types.Reg{i.Dst, i.A, i.B}
	case op.LayoutSelect:
		return []types.Reg{i.Dst, i.A, i.B, i.Cond}
	case op.LayoutIf:
		return []types.Reg{i.Cond, i.BodyRange.Lo, i.BodyRange.Hi}
	case op.LayoutWhile:
		return []types.Reg{i.Cond, i.CondRange.Lo, i.CondRange.Hi, i.BodyRange.Lo, i.BodyRange.Hi}
	default:
		return nil
	}
}

func (i Instruction) String() string {
	info := op.GetInfo(i.Op)
	var args []string
	switch info.Layout {
	case op.LayoutImmediate:
		args = []string{i.Dst.String(), fmt.Sprintf("%g", i.Imm)}
	case op.LayoutIf:
		args = []string{i.Cond.String(), fmt.Sprintf("body=%d[%d..%d]", i.BodyLen, i.BodyRange.Lo, i.BodyRange.Hi)}
	case op.LayoutWhile:
		args = []string{
			i.Cond.String(),
			fmt.Sprintf("cond=%d[%d..%d]", i.CondLen, i.CondRange.Lo, i.CondRange.Hi),
			fmt.Sprintf("body=%d[%d..%d]", i.BodyLen, i.BodyRange.Lo, i.BodyRange.Hi),
		}
	default:
		for _, r := range i.Registers() {
			args = append(args, r.String())
		}
	}
	if len(args) == 0 {
		return i.Op.String()
	}
	return i.Op.String() + " " + strings.Join(args, ", ")
}

// StreamSize returns the encoded size of a sequence of instructions.
func StreamSize(instrs []Instruction) int {
	size := 0
	for _, ins := range instrs {
		size += ins.Size()
	}
	return size
}

// WrittenRange returns the lowest and highest destination register among the
// value-producing instructions in instrs, or the zero range if none write.
func WrittenRange(instrs []Instruction) types.RegRange {
	var r types.RegRange
	first := true
	for _, ins := range instrs {
		if !ins.Writes() {
			continue
		}
		r = r.Extend(ins.Dst, first)
		first = false
	}
	return r
}
