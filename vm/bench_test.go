package vm

import (
	"context"
	"testing"

	"github.com/deepnoodle-ai/lanevm/ast"
	"github.com/deepnoodle-ai/lanevm/buffer"
	"github.com/deepnoodle-ai/lanevm/compiler"
	. "github.com/deepnoodle-ai/lanevm/internal/asttest"
	"github.com/deepnoodle-ai/lanevm/types"
)

func benchmarkProgram(b *testing.B, prog *ast.Program, count int, opts ...Option) {
	m, err := compiler.Compile(prog)
	if err != nil {
		b.Fatal(err)
	}
	buf := buffer.New(count)
	for i := 0; i < m.AttributeCount(); i++ {
		for _, key := range m.AttributeAt(i).Keys() {
			values := make([]float32, count)
			for j := range values {
				values[j] = float32(j % 17)
			}
			if err := buf.SetAttribute(key, values); err != nil {
				b.Fatal(err)
			}
		}
	}
	ctx := context.Background()
	machine := New(m, opts...)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := machine.Run(ctx, buf); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkArithmetic(b *testing.B) {
	prog := Program(
		Attribute("v", types.Vec4),
		Assign(Ident("v"), Call("fract", Add(Mul(Ident("v"), Num(1.5)), Num(0.25)))),
	)
	b.Run("workers=1", func(b *testing.B) { benchmarkProgram(b, prog, 1<<14, WithWorkers(1)) })
	b.Run("workers=4", func(b *testing.B) { benchmarkProgram(b, prog, 1<<14, WithWorkers(4)) })
}

func BenchmarkDivergentLoop(b *testing.B) {
	prog := Program(
		Attribute("v", types.Vec2),
		Assign(Member("v", "y"), Num(0)),
		While(Less(Member("v", "y"), Member("v", "x")),
			Assign(Member("v", "y"), Add(Member("v", "y"), Num(1))),
		),
	)
	benchmarkProgram(b, prog, 1<<12)
}
