package compiler

import "github.com/deepnoodle-ai/lanevm/types"

// registers hands out register indices in stack order. Globals are allocated
// first and never released; scopes and statements take a mark when they
// start and release back to it when they end.
type registers struct {
	limit int
	next  int
	high  int
}

func newRegisters(limit int) *registers {
	if limit <= 0 || limit > types.MaxRegisters {
		limit = types.MaxRegisters
	}
	return &registers{limit: limit}
}

// alloc returns the next free register, or false if the limit is reached.
func (r *registers) alloc() (types.Reg, bool) {
	if r.next >= r.limit {
		return 0, false
	}
	reg := types.Reg(r.next)
	r.next++
	if r.next > r.high {
		r.high = r.next
	}
	return reg, true
}

func (r *registers) mark() int {
	return r.next
}

func (r *registers) release(mark int) {
	r.next = mark
}

// count is the number of registers a module needs. Every module has at least
// one register so that the encoded count fits in a byte.
func (r *registers) count() int {
	if r.high == 0 {
		return 1
	}
	return r.high
}
