// Package dis supports analysis of lanevm bytecode by disassembling it.
package dis

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/deepnoodle-ai/lanevm/bytecode"
	"github.com/deepnoodle-ai/lanevm/internal/table"
	"github.com/deepnoodle-ai/lanevm/op"
	"github.com/deepnoodle-ai/lanevm/types"
)

// Instruction represents a single bytecode instruction and its operands.
type Instruction struct {
	Offset     int
	Depth      int
	Name       string
	Opcode     op.Code
	Operands   []string
	Annotation string
}

// Disassemble returns a parsed representation of the module's instruction
// stream. Offsets are relative to the start of the stream. Depth is the
// block nesting level: if bodies, while conditions and while bodies are
// one level deeper than their markers.
func Disassemble(m *bytecode.Module) []Instruction {
	names := m.RegisterNames()
	instructions := make([]Instruction, 0, m.InstructionCount())
	depth := 0
	for i := 0; i < m.InstructionCount(); i++ {
		ins := m.InstructionAt(i)
		switch ins.Op {
		case op.EndIf, op.EndWhileCond, op.EndWhile:
			depth = max(depth-1, 0)
		}
		instructions = append(instructions, Instruction{
			Offset:     m.OffsetAt(i),
			Depth:      depth,
			Name:       ins.Op.String(),
			Opcode:     ins.Op,
			Operands:   operands(ins),
			Annotation: annotate(ins, names),
		})
		switch ins.Op {
		case op.BeginIf, op.BeginWhile, op.EndWhileCond:
			depth++
		}
	}
	return instructions
}

func operands(ins bytecode.Instruction) []string {
	switch op.GetInfo(ins.Op).Layout {
	case op.LayoutImmediate:
		return []string{ins.Dst.String(), fmt.Sprintf("%g", ins.Imm)}
	case op.LayoutIf:
		return []string{ins.Cond.String(), fmt.Sprint(ins.BodyLen), formatRange(ins.BodyRange)}
	case op.LayoutWhile:
		return []string{
			ins.Cond.String(),
			fmt.Sprint(ins.CondLen), formatRange(ins.CondRange),
			fmt.Sprint(ins.BodyLen), formatRange(ins.BodyRange),
		}
	}
	var ops []string
	for _, r := range ins.Registers() {
		ops = append(ops, r.String())
	}
	return ops
}

func formatRange(r types.RegRange) string {
	return fmt.Sprintf("%s..%s", r.Lo, r.Hi)
}

// annotate names the declared components an instruction touches, e.g.
// "r0=v.x r3=nv.x".
func annotate(ins bytecode.Instruction, names map[types.Reg]string) string {
	var regs []types.Reg
	switch op.GetInfo(ins.Op).Layout {
	case op.LayoutIf, op.LayoutWhile:
		regs = []types.Reg{ins.Cond}
	default:
		regs = ins.Registers()
	}
	seen := map[types.Reg]bool{}
	var parts []string
	for _, r := range regs {
		name, ok := names[r]
		if !ok || seen[r] {
			continue
		}
		seen[r] = true
		parts = append(parts, fmt.Sprintf("%s=%s", r, name))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

var (
	colorOpcode     = color.New(color.Bold)
	colorBlock      = color.New(color.FgMagenta, color.Bold)
	colorImmediate  = color.New(color.FgYellow)
	colorAnnotation = color.New(color.FgHiCyan)
)

// Print a string representation of the given instructions to the given
// writer. Color follows the fatih/color package settings.
func Print(instructions []Instruction, writer io.Writer) {
	var lines [][]string
	for _, instr := range instructions {
		name := strings.Repeat("  ", instr.Depth) + instr.Name
		switch op.GetInfo(instr.Opcode).Layout {
		case op.LayoutIf, op.LayoutWhile, op.LayoutNone:
			name = colorBlock.Sprint(name)
		default:
			name = colorOpcode.Sprint(name)
		}
		ops := instr.Operands
		if instr.Opcode == op.MovF && len(ops) == 2 {
			ops = []string{ops[0], colorImmediate.Sprint(ops[1])}
		}
		info := ""
		if instr.Annotation != "" {
			info = colorAnnotation.Sprint(instr.Annotation)
		}
		lines = append(lines, []string{
			fmt.Sprintf("%d", instr.Offset),
			name,
			strings.Join(ops, ", "),
			info,
		})
	}

	table.NewTable(writer).
		WithHeader([]string{"OFFSET", "OPCODE", "OPERANDS", "INFO"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignLeft,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(lines).
		Render()
}
