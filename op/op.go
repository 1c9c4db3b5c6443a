// Package op defines opcodes used by the lanevm compiler and virtual machine.
package op

// Code is a single-byte opcode that indicates an operation to execute.
type Code uint8

const (
	// Arithmetic
	Add  Code = 0
	Sub  Code = 1
	Mul  Code = 2
	Div  Code = 3
	Pow  Code = 4
	MovF Code = 5
	Sqrt Code = 6
	// 7 is reserved

	// Comparison and logic. Results are 1.0 (true) or 0.0 (false).
	Less    Code = 8
	Greater Code = 9
	Equal   Code = 10
	And     Code = 11
	Or      Code = 12
	Not     Code = 13
	Sel     Code = 14

	// Structured control flow
	BeginIf      Code = 15
	EndIf        Code = 16
	BeginWhile   Code = 17
	EndWhileCond Code = 18
	EndWhile     Code = 19
	// 20 and 21 are reserved

	// Misc
	Rand  Code = 22
	Floor Code = 23
	Mov   Code = 24
)

// Layout describes how the operands of an instruction are encoded.
type Layout uint8

const (
	// LayoutNone has no operands.
	LayoutNone Layout = iota
	// LayoutDst is a single destination register.
	LayoutDst
	// LayoutUnary is a destination and one source register.
	LayoutUnary
	// LayoutBinary is a destination and two source registers.
	LayoutBinary
	// LayoutSelect is a destination, two sources and a condition register.
	LayoutSelect
	// LayoutImmediate is a destination and a little-endian float32.
	LayoutImmediate
	// LayoutIf is a condition register, a u32 body length and two range bytes.
	LayoutIf
	// LayoutWhile is a condition register followed by two (u32 length,
	// two range bytes) groups for the condition and the body.
	LayoutWhile
)

// Size returns the encoded size of the operands for this layout in bytes.
func (l Layout) Size() int {
	switch l {
	case LayoutDst:
		return 1
	case LayoutUnary:
		return 2
	case LayoutBinary:
		return 3
	case LayoutSelect:
		return 4
	case LayoutImmediate:
		return 5
	case LayoutIf:
		return 7
	case LayoutWhile:
		return 13
	default:
		return 0
	}
}

// Info contains information about an opcode.
type Info struct {
	Code   Code
	Name   string
	Layout Layout
	// Writes is true for instructions that produce a value into a register.
	Writes bool
	// Valid is false for reserved and unknown opcodes.
	Valid bool
}

// Size returns the total encoded size of the instruction, opcode included.
func (i Info) Size() int {
	return 1 + i.Layout.Size()
}

var infos [256]Info

func init() {
	type opInfo struct {
		op     Code
		name   string
		layout Layout
		writes bool
	}
	ops := []opInfo{
		{Add, "add", LayoutBinary, true},
		{Sub, "sub", LayoutBinary, true},
		{Mul, "mul", LayoutBinary, true},
		{Div, "div", LayoutBinary, true},
		{Pow, "pow", LayoutBinary, true},
		{MovF, "movf", LayoutImmediate, true},
		{Sqrt, "sqrt", LayoutUnary, true},
		{Less, "less", LayoutBinary, true},
		{Greater, "greater", LayoutBinary, true},
		{Equal, "equal", LayoutBinary, true},
		{And, "and", LayoutBinary, true},
		{Or, "or", LayoutBinary, true},
		{Not, "not", LayoutUnary, true},
		{Sel, "sel", LayoutSelect, true},
		{BeginIf, "beginif", LayoutIf, false},
		{EndIf, "endif", LayoutNone, false},
		{BeginWhile, "beginwhile", LayoutWhile, false},
		{EndWhileCond, "endwhilecond", LayoutNone, false},
		{EndWhile, "endwhile", LayoutNone, false},
		{Rand, "rand", LayoutDst, true},
		{Floor, "floor", LayoutUnary, true},
		{Mov, "mov", LayoutUnary, true},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Code:   o.op,
			Name:   o.name,
			Layout: o.layout,
			Writes: o.writes,
			Valid:  true,
		}
	}
}

// GetInfo returns information about the given opcode. Reserved or unknown
// opcodes return an Info with Valid set to false.
func GetInfo(op Code) Info {
	return infos[op]
}

// String returns the mnemonic of the opcode.
func (c Code) String() string {
	if info := infos[c]; info.Valid {
		return info.Name
	}
	return "invalid"
}
