package types

import "fmt"

// MaxRegisters is the number of registers addressable by a single-byte index.
const MaxRegisters = 256

// Reg is the index of a scalar register.
type Reg uint8

func (r Reg) String() string {
	return fmt.Sprintf("r%d", uint8(r))
}

// RegRange is an inclusive range of registers. The zero value is used for
// regions that write no registers.
type RegRange struct {
	Lo Reg
	Hi Reg
}

// Empty reports whether the range is the encoding used for "no registers".
func (r RegRange) Empty() bool {
	return r.Lo == 0 && r.Hi == 0
}

// Extend returns the smallest range covering both r and reg. When first is
// true the receiver is ignored.
func (r RegRange) Extend(reg Reg, first bool) RegRange {
	if first {
		return RegRange{Lo: reg, Hi: reg}
	}
	if reg < r.Lo {
		r.Lo = reg
	}
	if reg > r.Hi {
		r.Hi = reg
	}
	return r
}
