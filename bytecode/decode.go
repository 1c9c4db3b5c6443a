package bytecode

import (
	"encoding/binary"
	"math"

	"github.com/deepnoodle-ai/lanevm/errors"
	"github.com/deepnoodle-ai/lanevm/op"
	"github.com/deepnoodle-ai/lanevm/types"
)

// reader walks an encoded module, reporting truncation at the offset where
// the missing bytes were expected.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) next(n int, what string) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, errors.FormatErrorf(errors.E4002, len(r.data),
			"truncated module: expected %s at offset %d", what, r.pos)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) byte(what string) (byte, error) {
	b, err := r.next(1, what)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Decode parses and validates an encoded module. All failures are returned
// as *errors.FormatError carrying the offending byte offset.
func Decode(data []byte) (*Module, error) {
	r := &reader{data: data}
	version, err := r.next(len(Version), "version")
	if err != nil {
		return nil, err
	}
	if string(version) != Version {
		return nil, errors.FormatErrorf(errors.E4001, 0, "unsupported version %q", version)
	}
	attrCount, err := r.byte("attribute count")
	if err != nil {
		return nil, err
	}
	uniCount, err := r.byte("uniform count")
	if err != nil {
		return nil, err
	}
	attributes, err := r.declarations(int(attrCount))
	if err != nil {
		return nil, err
	}
	uniforms, err := r.declarations(int(uniCount))
	if err != nil {
		return nil, err
	}
	regByte, err := r.byte("register count")
	if err != nil {
		return nil, err
	}
	lenBytes, err := r.next(4, "stream length")
	if err != nil {
		return nil, err
	}
	streamLen := int(binary.LittleEndian.Uint32(lenBytes))
	streamBase := r.pos
	if remaining := len(data) - streamBase; remaining > streamLen {
		return nil, errors.FormatErrorf(errors.E4006, streamBase+streamLen,
			"%d trailing bytes after instruction stream", remaining-streamLen)
	}
	stream, err := r.next(streamLen, "instruction stream")
	if err != nil {
		return nil, err
	}
	instrs, err := decodeStream(stream, streamBase)
	if err != nil {
		return nil, err
	}
	return NewModule(ModuleParams{
		Attributes:    attributes,
		Uniforms:      uniforms,
		RegisterCount: int(regByte) + 1,
		Instructions:  instrs,
	})
}

func (r *reader) declarations(count int) ([]Declaration, error) {
	if count == 0 {
		return nil, nil
	}
	decls := make([]Declaration, 0, count)
	for i := 0; i < count; i++ {
		start := r.pos
		nameLen, err := r.byte("declaration name length")
		if err != nil {
			return nil, err
		}
		if nameLen == 0 {
			return nil, errors.FormatErrorf(errors.E4007, start, "empty declaration name")
		}
		name, err := r.next(int(nameLen), "declaration name")
		if err != nil {
			return nil, err
		}
		tagOffset := r.pos
		tag, err := r.byte("type tag")
		if err != nil {
			return nil, err
		}
		typ := types.Type(tag)
		if !typ.Valid() {
			return nil, errors.FormatErrorf(errors.E4007, tagOffset,
				"invalid type tag %d for %q", tag, name)
		}
		regBytes, err := r.next(typ.Components(), "declaration registers")
		if err != nil {
			return nil, err
		}
		regs := make([]types.Reg, len(regBytes))
		for j, b := range regBytes {
			regs[j] = types.Reg(b)
		}
		decls = append(decls, Declaration{Name: string(name), Type: typ, Regs: regs})
	}
	return decls, nil
}

// DecodeInstructions decodes a bare instruction stream. Only the encoding is
// checked here; block structure and register bounds are checked by NewModule.
func DecodeInstructions(stream []byte) ([]Instruction, error) {
	return decodeStream(stream, 0)
}

func decodeStream(stream []byte, base int) ([]Instruction, error) {
	var instrs []Instruction
	for pos := 0; pos < len(stream); {
		code := op.Code(stream[pos])
		info := op.GetInfo(code)
		if !info.Valid {
			return nil, errors.FormatErrorf(errors.E4003, base+pos, "unknown opcode %d", uint8(code))
		}
		size := info.Size()
		if pos+size > len(stream) {
			return nil, errors.FormatErrorf(errors.E4002, base+len(stream),
				"truncated %s instruction at offset %d", info.Name, base+pos)
		}
		instrs = append(instrs, decodeInstruction(info, stream[pos:pos+size]))
		pos += size
	}
	return instrs, nil
}

// decodeInstruction decodes one instruction; b holds exactly info.Size() bytes.
func decodeInstruction(info op.Info, b []byte) Instruction {
	ins := Instruction{Op: info.Code}
	reg := func(i int) types.Reg { return types.Reg(b[i]) }
	switch info.Layout {
	case op.LayoutDst:
		ins.Dst = reg(1)
	case op.LayoutUnary:
		ins.Dst, ins.A = reg(1), reg(2)
	case op.LayoutBinary:
		ins.Dst, ins.A, ins.B = reg(1), reg(2), reg(3)
	case op.LayoutSelect:
		ins.Dst, ins.A, ins.B, ins.Cond = reg(1), reg(2), reg(3), reg(4)
	case op.LayoutImmediate:
		ins.Dst = reg(1)
		ins.Imm = math.Float32frombits(binary.LittleEndian.Uint32(b[2:6]))
	case op.LayoutIf:
		ins.Cond = reg(1)
		ins.BodyLen = binary.LittleEndian.Uint32(b[2:6])
		ins.BodyRange = types.RegRange{Lo: reg(6), Hi: reg(7)}
	case op.LayoutWhile:
		ins.Cond = reg(1)
		ins.CondLen = binary.LittleEndian.Uint32(b[2:6])
		ins.CondRange = types.RegRange{Lo: reg(6), Hi: reg(7)}
		ins.BodyLen = binary.LittleEndian.Uint32(b[8:12])
		ins.BodyRange = types.RegRange{Lo: reg(12), Hi: reg(13)}
	}
	return ins
}
