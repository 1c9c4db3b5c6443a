package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/deepnoodle-ai/lanevm/op"
)

// AppendInstruction appends the encoding of ins to buf.
func AppendInstruction(buf []byte, ins Instruction) []byte {
	buf = append(buf, byte(ins.Op))
	switch op.GetInfo(ins.Op).Layout {
	case op.LayoutDst:
		buf = append(buf, byte(ins.Dst))
	case op.LayoutUnary:
		buf = append(buf, byte(ins.Dst), byte(ins.A))
	case op.LayoutBinary:
		buf = append(buf, byte(ins.Dst), byte(ins.A), byte(ins.B))
	case op.LayoutSelect:
		buf = append(buf, byte(ins.Dst), byte(ins.A), byte(ins.B), byte(ins.Cond))
	case op.LayoutImmediate:
		buf = append(buf, byte(ins.Dst))
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(ins.Imm))
	case op.LayoutIf:
		buf = append(buf, byte(ins.Cond))
		buf = binary.LittleEndian.AppendUint32(buf, ins.BodyLen)
		buf = append(buf, byte(ins.BodyRange.Lo), byte(ins.BodyRange.Hi))
	case op.LayoutWhile:
		buf = append(buf, byte(ins.Cond))
		buf = binary.LittleEndian.AppendUint32(buf, ins.CondLen)
		buf = append(buf, byte(ins.CondRange.Lo), byte(ins.CondRange.Hi))
		buf = binary.LittleEndian.AppendUint32(buf, ins.BodyLen)
		buf = append(buf, byte(ins.BodyRange.Lo), byte(ins.BodyRange.Hi))
	}
	return buf
}

// EncodeInstructions encodes a bare instruction stream.
func EncodeInstructions(instrs []Instruction) []byte {
	buf := make([]byte, 0, StreamSize(instrs))
	for _, ins := range instrs {
		buf = AppendInstruction(buf, ins)
	}
	return buf
}

// Encode serializes a module. The output is deterministic: equal modules
// always produce identical bytes.
func Encode(m *Module) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("encode: nil module")
	}
	size := headerSize + 1 + 4 + m.streamSize
	for _, d := range m.attributes {
		size += d.encodedSize()
	}
	for _, d := range m.uniforms {
		size += d.encodedSize()
	}
	buf := make([]byte, 0, size)
	buf = append(buf, Version...)
	buf = append(buf, byte(len(m.attributes)), byte(len(m.uniforms)))
	for _, decls := range [][]Declaration{m.attributes, m.uniforms} {
		for _, d := range decls {
			buf = append(buf, byte(len(d.Name)))
			buf = append(buf, d.Name...)
			buf = append(buf, byte(d.Type))
			for _, reg := range d.Regs {
				buf = append(buf, byte(reg))
			}
		}
	}
	buf = append(buf, byte(m.registerCount-1))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(m.streamSize))
	for _, ins := range m.instructions {
		buf = AppendInstruction(buf, ins)
	}
	return buf, nil
}
