package bytecode

import (
	"github.com/deepnoodle-ai/lanevm/types"
)

// Version is the literal every encoded module starts with.
const Version = "SIMv0.0"

// headerSize covers the version literal and the two declaration counts.
const headerSize = len(Version) + 2

// Module is a compiled program. It is immutable after creation and safe for
// concurrent use.
type Module struct {
	attributes    []Declaration
	uniforms      []Declaration
	registerCount int
	instructions  []Instruction
	offsets       []int
	streamSize    int
	root          *Block
}

// ModuleParams contains parameters for creating a new Module.
type ModuleParams struct {
	Attributes    []Declaration
	Uniforms      []Declaration
	RegisterCount int
	Instructions  []Instruction
}

// NewModule validates params and creates an immutable Module. Input slices
// are copied. Validation failures are reported as *errors.FormatError with
// the offset the offending item would have in the encoded module.
func NewModule(params ModuleParams) (*Module, error) {
	params = ModuleParams{
		Attributes:    cloneDeclarations(params.Attributes),
		Uniforms:      cloneDeclarations(params.Uniforms),
		RegisterCount: params.RegisterCount,
		Instructions:  copyInstructions(params.Instructions),
	}
	offsets, root, err := validate(params)
	if err != nil {
		return nil, err
	}
	return &Module{
		attributes:    params.Attributes,
		uniforms:      params.Uniforms,
		registerCount: params.RegisterCount,
		instructions:  params.Instructions,
		offsets:       offsets,
		streamSize:    StreamSize(params.Instructions),
		root:          root,
	}, nil
}

// RegisterCount returns the number of registers the program uses.
func (m *Module) RegisterCount() int {
	return m.registerCount
}

// AttributeCount returns the number of attribute declarations.
func (m *Module) AttributeCount() int {
	return len(m.attributes)
}

// AttributeAt returns a copy of the attribute declaration at the given index.
func (m *Module) AttributeAt(index int) Declaration {
	return m.attributes[index].clone()
}

// Attribute looks up an attribute declaration by name.
func (m *Module) Attribute(name string) (Declaration, bool) {
	return lookup(m.attributes, name)
}

// UniformCount returns the number of uniform declarations.
func (m *Module) UniformCount() int {
	return len(m.uniforms)
}

// UniformAt returns a copy of the uniform declaration at the given index.
func (m *Module) UniformAt(index int) Declaration {
	return m.uniforms[index].clone()
}

// Uniform looks up a uniform declaration by name.
func (m *Module) Uniform(name string) (Declaration, bool) {
	return lookup(m.uniforms, name)
}

// InstructionCount returns the number of instructions.
func (m *Module) InstructionCount() int {
	return len(m.instructions)
}

// InstructionAt returns the instruction at the given index.
func (m *Module) InstructionAt(index int) Instruction {
	return m.instructions[index]
}

// OffsetAt returns the byte offset of the instruction at the given index,
// relative to the start of the instruction stream.
func (m *Module) OffsetAt(index int) int {
	return m.offsets[index]
}

// StreamSize returns the encoded size of the instruction stream.
func (m *Module) StreamSize() int {
	return m.streamSize
}

// Root returns the instruction stream as a tree of blocks. The tree is
// shared and must not be modified.
func (m *Module) Root() *Block {
	return m.root
}

// Params returns a copy of the parameters the module was built from.
func (m *Module) Params() ModuleParams {
	return ModuleParams{
		Attributes:    cloneDeclarations(m.attributes),
		Uniforms:      cloneDeclarations(m.uniforms),
		RegisterCount: m.registerCount,
		Instructions:  copyInstructions(m.instructions),
	}
}

// RegisterNames maps registers bound to attributes and uniforms to their
// component keys, e.g. r3 -> "v.y".
func (m *Module) RegisterNames() map[types.Reg]string {
	names := map[types.Reg]string{}
	for _, decls := range [][]Declaration{m.attributes, m.uniforms} {
		for _, d := range decls {
			for i := range d.Regs {
				key, reg := d.Component(i)
				names[reg] = key
			}
		}
	}
	return names
}

func lookup(decls []Declaration, name string) (Declaration, bool) {
	for _, d := range decls {
		if d.Name == name {
			return d.clone(), true
		}
	}
	return Declaration{}, false
}

func copyInstructions(src []Instruction) []Instruction {
	if src == nil {
		return nil
	}
	dst := make([]Instruction, len(src))
	copy(dst, src)
	return dst
}
