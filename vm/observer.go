package vm

import "github.com/deepnoodle-ai/lanevm/op"

// Observer receives execution events. It can be used for tracing, profiling
// and coverage tools without modifying the executor.
//
// Observer methods are called synchronously from the goroutine running a
// partition. When a run has more than one partition, OnStep is called
// concurrently and implementations must be safe for concurrent use.
type Observer interface {
	// OnStep is called before each value-producing instruction and each
	// block header. Returning false halts the run.
	OnStep(event StepEvent) bool
}

// StepEvent describes one executed instruction.
type StepEvent struct {
	// Partition is the index of the instance range being executed.
	Partition int

	// Offset is the byte offset of the instruction in the instruction stream.
	Offset int

	// Opcode is the operation being executed.
	Opcode op.Code

	// OpcodeName is the mnemonic of the opcode.
	OpcodeName string

	// ActiveLanes is the number of instances the instruction may write.
	ActiveLanes int

	// Depth is the number of enclosing if/while blocks.
	Depth int
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(event StepEvent) bool

func (f ObserverFunc) OnStep(event StepEvent) bool { return f(event) }

// NoOpObserver is an Observer implementation that does nothing.
type NoOpObserver struct{}

func (NoOpObserver) OnStep(StepEvent) bool { return true }

// Ensure NoOpObserver implements Observer.
var _ Observer = NoOpObserver{}
