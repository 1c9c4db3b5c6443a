// Package vm executes bytecode modules over batches of instances.
//
// Every register holds one float32 lane per instance. Instructions are
// applied to all lanes at once under a predicate mask: a lane whose mask bit
// is false keeps its register values. if and while blocks narrow the mask
// instead of branching, so every lane runs the same instruction sequence.
//
// A batch can be split into partitions that run concurrently. Each partition
// owns a private register file and mask stack; results are copied back to
// the buffer only after every partition has succeeded.
package vm

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/deepnoodle-ai/lanevm/buffer"
	"github.com/deepnoodle-ai/lanevm/bytecode"
	"github.com/deepnoodle-ai/lanevm/errors"
)

// VirtualMachine runs one module. It holds no per-run state and is safe
// for concurrent use.
type VirtualMachine struct {
	module *bytecode.Module
	cfg    config
}

// New creates a Virtual Machine for m.
func New(m *bytecode.Module, options ...Option) *VirtualMachine {
	return &VirtualMachine{module: m, cfg: newConfig(options)}
}

// Run runs the module once over every instance in buf. On error the
// attribute arrays in buf are left unchanged.
func Run(ctx context.Context, m *bytecode.Module, buf *buffer.Buffer, options ...Option) error {
	return New(m, options...).Run(ctx, buf)
}

// partition is a half-open range of instances.
type partition struct {
	lo, hi int
}

// Run runs the module over every instance in buf.
func (vm *VirtualMachine) Run(ctx context.Context, buf *buffer.Buffer) error {
	if vm.module == nil {
		return fmt.Errorf("vm: no module")
	}
	runID := uuid.Must(uuid.NewV4())
	logger := vm.cfg.logger.With().Str("run_id", runID.String()).Logger()

	binding, err := buf.Bind(vm.module)
	if err != nil {
		return &errors.ExecutionError{
			Code:    errors.E3003,
			Offset:  -1,
			Message: "invalid instance data",
			Err:     err,
		}
	}
	if err := vm.checkRegisters(binding); err != nil {
		return err
	}

	parts := vm.partitions(binding.Count())
	logger.Debug().
		Int("instances", binding.Count()).
		Int("partitions", len(parts)).
		Int("workers", vm.cfg.workers).
		Msg("run started")
	start := time.Now()

	root := vm.module.Root()
	frames := make([]*frame, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(vm.cfg.workers)
	for i, p := range parts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f := newFrame(&vm.cfg, i, vm.module.RegisterCount(), p.hi-p.lo)
			binding.Load(f.regs, p.lo, p.hi)
			if err := f.block(root); err != nil {
				return err
			}
			frames[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Debug().Err(err).Msg("run failed")
		return err
	}
	for i, p := range parts {
		binding.Store(frames[i].regs, p.lo, p.hi)
	}
	logger.Debug().Dur("elapsed", time.Since(start)).Msg("run finished")
	return nil
}

// checkRegisters verifies that every register the binding or the program
// uses exists, so the execution loop can index registers unchecked.
func (vm *VirtualMachine) checkRegisters(binding *buffer.Binding) error {
	count := vm.module.RegisterCount()
	for _, reg := range binding.Registers() {
		if int(reg) >= count {
			return errors.ExecutionErrorf(errors.E3001, -1,
				"bound register %s out of range (register count %d)", reg, count)
		}
	}
	for i := 0; i < vm.module.InstructionCount(); i++ {
		for _, reg := range vm.module.InstructionAt(i).Registers() {
			if int(reg) >= count {
				return errors.ExecutionErrorf(errors.E3001, vm.module.OffsetAt(i),
					"register %s out of range (register count %d)", reg, count)
			}
		}
	}
	return nil
}

// partitions splits n instances into ranges. Without an explicit partition
// size the batch is split evenly across the workers.
func (vm *VirtualMachine) partitions(n int) []partition {
	if n == 0 {
		return nil
	}
	size := vm.cfg.partitionSize
	if size <= 0 {
		size = (n + vm.cfg.workers - 1) / vm.cfg.workers
	}
	parts := make([]partition, 0, (n+size-1)/size)
	for lo := 0; lo < n; lo += size {
		parts = append(parts, partition{lo: lo, hi: min(lo+size, n)})
	}
	return parts
}
