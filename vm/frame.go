package vm

import (
	"math/rand/v2"

	"github.com/deepnoodle-ai/lanevm/bytecode"
	"github.com/deepnoodle-ai/lanevm/errors"
	"github.com/deepnoodle-ai/lanevm/op"
)

// frame is the private state of one partition: a register file with one
// lane per instance and a stack of predicate masks.
type frame struct {
	partition     int
	lanes         int
	regs          [][]float32
	masks         [][]bool
	free          [][]bool
	rng           *rand.Rand
	maxIterations int
	observer      Observer
}

func newFrame(cfg *config, partition, registers, lanes int) *frame {
	regs := make([][]float32, registers)
	backing := make([]float32, registers*lanes)
	for i := range regs {
		regs[i] = backing[i*lanes : (i+1)*lanes : (i+1)*lanes]
	}
	all := make([]bool, lanes)
	for i := range all {
		all[i] = true
	}
	var src rand.Source
	if cfg.seeded {
		src = rand.NewPCG(cfg.seed, uint64(partition))
	} else {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &frame{
		partition:     partition,
		lanes:         lanes,
		regs:          regs,
		masks:         [][]bool{all},
		rng:           rand.New(src),
		maxIterations: cfg.maxIterations,
		observer:      cfg.observer,
	}
}

func (f *frame) top() []bool {
	return f.masks[len(f.masks)-1]
}

func (f *frame) push(mask []bool) {
	f.masks = append(f.masks, mask)
}

func (f *frame) pop() {
	f.masks = f.masks[:len(f.masks)-1]
}

// acquire returns a mask buffer from the free list.
func (f *frame) acquire() []bool {
	if n := len(f.free); n > 0 {
		m := f.free[n-1]
		f.free = f.free[:n-1]
		return m
	}
	return make([]bool, f.lanes)
}

func (f *frame) release(mask []bool) {
	f.free = append(f.free, mask)
}

// notify reports a step to the observer, if any.
func (f *frame) notify(offset int, code op.Code, mask []bool) error {
	if f.observer == nil {
		return nil
	}
	active := 0
	for _, on := range mask {
		if on {
			active++
		}
	}
	ok := f.observer.OnStep(StepEvent{
		Partition:   f.partition,
		Offset:      offset,
		Opcode:      code,
		OpcodeName:  code.String(),
		ActiveLanes: active,
		Depth:       len(f.masks) - 1,
	})
	if !ok {
		return errors.ExecutionErrorf(errors.E3004, offset, "halted by observer")
	}
	return nil
}

// block runs the nodes of b in order under the current mask.
func (f *frame) block(b *bytecode.Block) error {
	for _, n := range b.Nodes {
		var err error
		switch n := n.(type) {
		case *bytecode.Seq:
			err = f.seq(n)
		case *bytecode.If:
			err = f.ifBlock(n)
		case *bytecode.While:
			err = f.whileBlock(n)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *frame) seq(s *bytecode.Seq) error {
	mask := f.top()
	for i, ins := range s.Instructions {
		if err := f.notify(s.Offsets[i], ins.Op, mask); err != nil {
			return err
		}
		f.exec(ins, mask)
	}
	return nil
}

func (f *frame) ifBlock(n *bytecode.If) error {
	outer := f.top()
	if err := f.notify(n.Offset, op.BeginIf, outer); err != nil {
		return err
	}
	cond := f.regs[n.Header.Cond]
	mask := f.acquire()
	defer f.release(mask)
	active := false
	for i, on := range outer {
		mask[i] = on && cond[i] != 0
		active = active || mask[i]
	}
	if !active {
		return nil
	}
	f.push(mask)
	defer f.pop()
	return f.block(n.Body)
}

// whileBlock runs a loop. The set of looping lanes starts as the outer mask
// and only shrinks: a lane whose condition was false once never re-enters,
// and neither region writes to it afterwards.
func (f *frame) whileBlock(n *bytecode.While) error {
	active := f.acquire()
	defer f.release(active)
	copy(active, f.top())
	f.push(active)
	defer f.pop()

	for iteration := 0; ; iteration++ {
		if err := f.notify(n.Offset, op.BeginWhile, active); err != nil {
			return err
		}
		if err := f.block(n.Cond); err != nil {
			return err
		}
		cond := f.regs[n.Header.Cond]
		looping := false
		for i, on := range active {
			active[i] = on && cond[i] != 0
			looping = looping || active[i]
		}
		if !looping {
			return nil
		}
		if iteration >= f.maxIterations {
			return errors.ExecutionErrorf(errors.E3002, n.Offset,
				"while loop exceeded %d iterations", f.maxIterations)
		}
		if err := f.block(n.Body); err != nil {
			return err
		}
	}
}

// exec runs one value-producing instruction on the active lanes.
func (f *frame) exec(ins bytecode.Instruction, mask []bool) {
	dst := f.regs[ins.Dst]
	switch ins.Op {
	case op.MovF:
		for i, on := range mask {
			if on {
				dst[i] = ins.Imm
			}
		}
		return
	case op.Rand:
		for i, on := range mask {
			if on {
				dst[i] = f.rng.Float32()
			}
		}
		return
	}

	a, b := f.regs[ins.A], f.regs[ins.B]
	switch ins.Op {
	case op.Mov:
		for i, on := range mask {
			if on {
				dst[i] = a[i]
			}
		}
	case op.Sqrt:
		for i, on := range mask {
			if on {
				dst[i] = op.SqrtF32(a[i])
			}
		}
	case op.Floor:
		for i, on := range mask {
			if on {
				dst[i] = op.FloorF32(a[i])
			}
		}
	case op.Not:
		for i, on := range mask {
			if on {
				dst[i] = op.Truth(a[i] == 0)
			}
		}
	case op.Add:
		for i, on := range mask {
			if on {
				dst[i] = a[i] + b[i]
			}
		}
	case op.Sub:
		for i, on := range mask {
			if on {
				dst[i] = a[i] - b[i]
			}
		}
	case op.Mul:
		for i, on := range mask {
			if on {
				dst[i] = a[i] * b[i]
			}
		}
	case op.Div:
		for i, on := range mask {
			if on {
				dst[i] = a[i] / b[i]
			}
		}
	case op.Pow:
		for i, on := range mask {
			if on {
				dst[i] = op.PowF32(a[i], b[i])
			}
		}
	case op.Less:
		for i, on := range mask {
			if on {
				dst[i] = op.Truth(a[i] < b[i])
			}
		}
	case op.Greater:
		for i, on := range mask {
			if on {
				dst[i] = op.Truth(a[i] > b[i])
			}
		}
	case op.Equal:
		for i, on := range mask {
			if on {
				dst[i] = op.Truth(a[i] == b[i])
			}
		}
	case op.And:
		for i, on := range mask {
			if on {
				dst[i] = op.Truth(a[i] != 0 && b[i] != 0)
			}
		}
	case op.Or:
		for i, on := range mask {
			if on {
				dst[i] = op.Truth(a[i] != 0 || b[i] != 0)
			}
		}
	case op.Sel:
		cond := f.regs[ins.Cond]
		for i, on := range mask {
			if on {
				dst[i] = op.EvalSel(a[i], b[i], cond[i])
			}
		}
	}
}
