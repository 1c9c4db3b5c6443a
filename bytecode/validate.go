package bytecode

import (
	"github.com/deepnoodle-ai/lanevm/errors"
	"github.com/deepnoodle-ai/lanevm/op"
	"github.com/deepnoodle-ai/lanevm/types"
)

const maxDeclarations = 255

// validate checks every module invariant and builds the block tree. Offsets
// in returned errors are positions in the encoded module.
func validate(p ModuleParams) ([]int, *Block, error) {
	if len(p.Attributes) > maxDeclarations {
		return nil, nil, errors.FormatErrorf(errors.E4007, len(Version),
			"too many attributes: %d", len(p.Attributes))
	}
	if len(p.Uniforms) > maxDeclarations {
		return nil, nil, errors.FormatErrorf(errors.E4007, len(Version)+1,
			"too many uniforms: %d", len(p.Uniforms))
	}

	offset := headerSize
	for _, d := range append(append([]Declaration(nil), p.Attributes...), p.Uniforms...) {
		offset += d.encodedSize()
	}
	if p.RegisterCount < 1 || p.RegisterCount > types.MaxRegisters {
		return nil, nil, errors.FormatErrorf(errors.E4005, offset,
			"register count %d out of range", p.RegisterCount)
	}
	if err := validateDeclarations(p); err != nil {
		return nil, nil, err
	}

	streamBase := offset + 1 + 4
	offsets := make([]int, len(p.Instructions))
	pos := 0
	for i, ins := range p.Instructions {
		offsets[i] = pos
		if err := validateInstruction(ins, p.RegisterCount, streamBase+pos); err != nil {
			return nil, nil, err
		}
		pos += ins.Size()
	}

	tb := &treeBuilder{
		instrs:  p.Instructions,
		offsets: offsets,
		base:    streamBase,
		end:     pos,
	}
	root, err := tb.block(blockTop)
	if err != nil {
		return nil, nil, err
	}
	return offsets, root, nil
}

func validateDeclarations(p ModuleParams) error {
	offset := headerSize
	names := map[string]bool{}
	owners := map[types.Reg]string{}
	for _, d := range append(append([]Declaration(nil), p.Attributes...), p.Uniforms...) {
		if len(d.Name) == 0 || len(d.Name) > 255 {
			return errors.FormatErrorf(errors.E4007, offset,
				"declaration name must be 1 to 255 bytes, got %d", len(d.Name))
		}
		if names[d.Name] {
			return errors.FormatErrorf(errors.E4007, offset+1, "duplicate declaration %q", d.Name)
		}
		names[d.Name] = true
		tagOffset := offset + 1 + len(d.Name)
		if !d.Type.Valid() {
			return errors.FormatErrorf(errors.E4007, tagOffset,
				"invalid type tag %d for %q", uint8(d.Type), d.Name)
		}
		if len(d.Regs) != d.Type.Components() {
			return errors.FormatErrorf(errors.E4007, tagOffset,
				"%q has type %s but %d registers", d.Name, d.Type, len(d.Regs))
		}
		for i, reg := range d.Regs {
			key := types.ComponentKey(d.Name, i)
			if int(reg) >= p.RegisterCount {
				return errors.FormatErrorf(errors.E4005, tagOffset+1+i,
					"register %d for %s out of range (register count %d)", reg, key, p.RegisterCount)
			}
			if other, ok := owners[reg]; ok {
				return errors.FormatErrorf(errors.E4007, tagOffset+1+i,
					"register %d bound to both %s and %s", reg, other, key)
			}
			owners[reg] = key
		}
		offset += d.encodedSize()
	}
	return nil
}

func validateInstruction(ins Instruction, registerCount, offset int) error {
	info := op.GetInfo(ins.Op)
	if !info.Valid {
		return errors.FormatErrorf(errors.E4003, offset, "unknown opcode %d", uint8(ins.Op))
	}
	for _, reg := range ins.Registers() {
		if int(reg) >= registerCount {
			return errors.FormatErrorf(errors.E4005, offset,
				"%s references register %d (register count %d)", info.Name, reg, registerCount)
		}
	}
	if ins.CondRange.Lo > ins.CondRange.Hi || ins.BodyRange.Lo > ins.BodyRange.Hi {
		return errors.FormatErrorf(errors.E4004, offset, "%s has an inverted register range", info.Name)
	}
	return nil
}

// blockTop marks the outermost block, which ends at the end of the stream.
const blockTop = op.Code(0xff)

type treeBuilder struct {
	instrs  []Instruction
	offsets []int
	base    int
	end     int
	pos     int
}

// block consumes nodes until the stop marker, which is left for the caller.
func (tb *treeBuilder) block(stop op.Code) (*Block, error) {
	b := &Block{}
	var seq *Seq
	for tb.pos < len(tb.instrs) {
		ins := tb.instrs[tb.pos]
		offset := tb.offsets[tb.pos]
		switch ins.Op {
		case op.EndIf, op.EndWhileCond, op.EndWhile:
			if ins.Op == stop {
				return b, nil
			}
			return nil, errors.FormatErrorf(errors.E4008, tb.base+offset, "unexpected %s", ins.Op)
		case op.BeginIf:
			seq = nil
			tb.pos++
			body, err := tb.region(op.EndIf, offset+ins.Size(), ins.BodyLen, offset)
			if err != nil {
				return nil, err
			}
			b.Nodes = append(b.Nodes, &If{Offset: offset, Header: ins, Body: body})
		case op.BeginWhile:
			seq = nil
			tb.pos++
			cond, err := tb.region(op.EndWhileCond, offset+ins.Size(), ins.CondLen, offset)
			if err != nil {
				return nil, err
			}
			bodyStart := tb.offsets[tb.pos-1] + 1
			body, err := tb.region(op.EndWhile, bodyStart, ins.BodyLen, offset)
			if err != nil {
				return nil, err
			}
			b.Nodes = append(b.Nodes, &While{Offset: offset, Header: ins, Cond: cond, Body: body})
		default:
			if seq == nil {
				seq = &Seq{}
				b.Nodes = append(b.Nodes, seq)
			}
			seq.Offsets = append(seq.Offsets, offset)
			seq.Instructions = append(seq.Instructions, ins)
			tb.pos++
		}
	}
	if stop != blockTop {
		return nil, errors.FormatErrorf(errors.E4008, tb.base+tb.end, "missing %s", stop)
	}
	return b, nil
}

// region parses a block that starts at byte start and must end with the
// stop marker exactly length bytes later. The marker is consumed.
func (tb *treeBuilder) region(stop op.Code, start int, length uint32, header int) (*Block, error) {
	body, err := tb.block(stop)
	if err != nil {
		return nil, err
	}
	actual := tb.offsets[tb.pos] - start
	if actual != int(length) {
		return nil, errors.FormatErrorf(errors.E4004, tb.base+header,
			"%s region declares %d bytes but spans %d", stop, length, actual)
	}
	tb.pos++
	return body, nil
}
