package bytecode

import (
	"fmt"

	"github.com/deepnoodle-ai/lanevm/types"
)

// Declaration binds a named attribute or uniform to one register per
// component.
type Declaration struct {
	Name string
	Type types.Type
	Regs []types.Reg
}

// Component returns the host-facing key and register of component i,
// e.g. ("v.y", r3).
func (d Declaration) Component(i int) (string, types.Reg) {
	return types.ComponentKey(d.Name, i), d.Regs[i]
}

// Keys returns the host-facing key of every component.
func (d Declaration) Keys() []string {
	keys := make([]string, len(d.Regs))
	for i := range d.Regs {
		keys[i] = types.ComponentKey(d.Name, i)
	}
	return keys
}

func (d Declaration) String() string {
	return fmt.Sprintf("%s: %s %v", d.Name, d.Type, d.Regs)
}

func (d Declaration) clone() Declaration {
	regs := make([]types.Reg, len(d.Regs))
	copy(regs, d.Regs)
	return Declaration{Name: d.Name, Type: d.Type, Regs: regs}
}

// encodedSize is the number of bytes the declaration occupies in a module.
func (d Declaration) encodedSize() int {
	return 1 + len(d.Name) + 1 + len(d.Regs)
}

func cloneDeclarations(src []Declaration) []Declaration {
	if src == nil {
		return nil
	}
	dst := make([]Declaration, len(src))
	for i, d := range src {
		dst[i] = d.clone()
	}
	return dst
}
