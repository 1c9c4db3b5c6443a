// Package lanevm compiles vector expression programs to SIMv0.0 bytecode
// and runs them over batches of instances.
//
// A typical host compiles a program once, then executes the module for each
// batch:
//
//	m, err := lanevm.Compile(prog)
//	...
//	out, err := lanevm.Execute(ctx, m,
//		map[string][]float32{"v.x": xs, "v.y": ys},
//		map[string]float32{"speed.x": 2})
//
// Compiled modules are immutable and safe for concurrent use. Encoded
// modules can be stored with bytecode.Encode and read back with Load, or
// through a Cache when the same bytes are loaded repeatedly.
package lanevm

import (
	"context"
	"fmt"
	"sort"

	"github.com/deepnoodle-ai/lanevm/ast"
	"github.com/deepnoodle-ai/lanevm/buffer"
	"github.com/deepnoodle-ai/lanevm/bytecode"
	"github.com/deepnoodle-ai/lanevm/compiler"
	"github.com/deepnoodle-ai/lanevm/vm"
)

// Compile lowers a type-annotated program into an executable module.
func Compile(prog *ast.Program, opts ...compiler.Option) (*bytecode.Module, error) {
	return compiler.Compile(prog, opts...)
}

// Load decodes and validates an encoded module.
func Load(data []byte) (*bytecode.Module, error) {
	return bytecode.Decode(data)
}

// Execute runs m once over the batch described by attrs and returns the
// final value of every attribute component the module declares. The
// instance count is the length of the attribute arrays, which must all be
// equal. The caller's slices are not modified. Attribute keys not declared
// by the module are ignored. Uniform keys must name a declared component;
// declared uniforms that are not given read as zero.
func Execute(
	ctx context.Context,
	m *bytecode.Module,
	attrs map[string][]float32,
	uniforms map[string]float32,
	opts ...vm.Option,
) (map[string][]float32, error) {
	if m == nil {
		return nil, fmt.Errorf("execute: nil module")
	}
	count, err := batchSize(attrs)
	if err != nil {
		return nil, err
	}
	buf := buffer.New(count)
	for key, values := range attrs {
		if err := buf.SetAttribute(key, append([]float32(nil), values...)); err != nil {
			return nil, err
		}
	}
	for key, v := range uniforms {
		buf.SetUniform(key, v)
	}
	if err := vm.Run(ctx, m, buf, opts...); err != nil {
		return nil, err
	}
	out := map[string][]float32{}
	for i := 0; i < m.AttributeCount(); i++ {
		for _, key := range m.AttributeAt(i).Keys() {
			values, _ := buf.Attribute(key)
			out[key] = values
		}
	}
	return out, nil
}

// batchSize returns the common length of the attribute arrays.
func batchSize(attrs map[string][]float32) (int, error) {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	count := -1
	var first string
	for _, k := range keys {
		n := len(attrs[k])
		if count < 0 {
			count, first = n, k
			continue
		}
		if n != count {
			return 0, fmt.Errorf("execute: attribute %q has %d values but %q has %d", k, n, first, count)
		}
	}
	return max(count, 0), nil
}
