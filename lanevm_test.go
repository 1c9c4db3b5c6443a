package lanevm

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/lanevm/ast"
	"github.com/deepnoodle-ai/lanevm/bytecode"
	"github.com/deepnoodle-ai/lanevm/compiler"
	"github.com/deepnoodle-ai/lanevm/errors"
	. "github.com/deepnoodle-ai/lanevm/internal/asttest"
	"github.com/deepnoodle-ai/lanevm/types"
	"github.com/deepnoodle-ai/lanevm/vm"
)

func gravity() *ast.Program {
	return Program(
		Attribute("pos", types.Vec2),
		Attribute("vel", types.Vec2),
		Uniform("dt", types.Float),
		Assign(Member("vel", "y"), Sub(Member("vel", "y"), Mul(Num(10), Ident("dt")))),
		Assign(Ident("pos"), Add(Ident("pos"), Mul(Ident("vel"), Ident("dt")))),
		If(Less(Member("pos", "y"), Num(0)),
			Assign(Member("pos", "y"), Num(0)),
			Assign(Member("vel", "y"), Neg(Member("vel", "y"))),
		),
	)
}

func TestCompileAndExecute(t *testing.T) {
	m, err := Compile(gravity())
	require.NoError(t, err)

	attrs := map[string][]float32{
		"pos.x": {0, 1},
		"pos.y": {10, 0.5},
		"vel.x": {1, 0},
		"vel.y": {0, -5},
	}
	out, err := Execute(context.Background(), m, attrs, map[string]float32{"dt.x": 0.5})
	require.NoError(t, err)

	require.Equal(t, []float32{0.5, 1}, out["pos.x"])
	require.Equal(t, []float32{7.5, 0}, out["pos.y"])
	require.Equal(t, []float32{1, 0}, out["vel.x"])
	require.Equal(t, []float32{-5, 10}, out["vel.y"])
	require.Len(t, out, 4)

	// The caller's arrays are untouched.
	require.Equal(t, []float32{10, 0.5}, attrs["pos.y"])
}

func TestExecuteEncodedModule(t *testing.T) {
	m, err := Compile(gravity())
	require.NoError(t, err)
	data, err := bytecode.Encode(m)
	require.NoError(t, err)

	loaded, err := Load(data)
	require.NoError(t, err)
	attrs := map[string][]float32{"pos.x": {0}, "pos.y": {1}, "vel.x": {2}, "vel.y": {0}}
	uniforms := map[string]float32{"dt.x": 0.1}
	a, err := Execute(context.Background(), m, attrs, uniforms)
	require.NoError(t, err)
	b, err := Execute(context.Background(), loaded, attrs, uniforms)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestExecuteErrors(t *testing.T) {
	m, err := Compile(gravity())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = Execute(ctx, nil, nil, nil)
	require.ErrorContains(t, err, "nil module")

	_, err = Execute(ctx, m, map[string][]float32{"pos.x": {1, 2}, "pos.y": {1}}, nil)
	require.ErrorContains(t, err, "has 1 values")

	_, err = Execute(ctx, m, map[string][]float32{"pos.x": {1}, "pos.y": {1}}, nil)
	require.Equal(t, errors.E3003, errors.CodeOf(err))

	full := map[string][]float32{"pos.x": {1}, "pos.y": {1}, "vel.x": {0}, "vel.y": {0}}
	_, err = Execute(ctx, m, full, map[string]float32{"dt": 0.1})
	require.Equal(t, errors.E3003, errors.CodeOf(err))
	require.ErrorContains(t, err, `uniform "dt"`)

	_, err = Load([]byte("SIMv0.1"))
	require.Error(t, err)
	var ferr *errors.FormatError
	require.ErrorAs(t, err, &ferr)
}

func TestExecuteWithOptions(t *testing.T) {
	m, err := Compile(Program(
		Attribute("v", types.Float),
		While(Bool(true), Assign(Ident("v"), Add(Ident("v"), Num(1)))),
	), compiler.WithMaxRegisters(16))
	require.NoError(t, err)
	_, err = Execute(context.Background(), m, map[string][]float32{"v.x": {0}}, nil, vm.WithMaxIterations(3))
	require.Equal(t, errors.E3002, errors.CodeOf(err))
}

func TestExecuteEmptyBatch(t *testing.T) {
	m, err := Compile(Program(Attribute("v", types.Float), Assign(Ident("v"), Num(1))))
	require.NoError(t, err)
	out, err := Execute(context.Background(), m, map[string][]float32{"v.x": {}}, nil)
	require.NoError(t, err)
	require.Empty(t, out["v.x"])
}

func TestCache(t *testing.T) {
	m, err := Compile(gravity())
	require.NoError(t, err)
	data, err := bytecode.Encode(m)
	require.NoError(t, err)

	cache := NewCache(2)
	first, err := cache.Load(data)
	require.NoError(t, err)
	second, err := cache.Load(append([]byte(nil), data...))
	require.NoError(t, err)
	require.Same(t, first, second)
	require.True(t, cache.Contains(DigestOf(data)))
	require.Equal(t, CacheStats{Hits: 1, Misses: 1, Len: 1}, cache.Stats())

	_, err = cache.Load(data[:len(data)-1])
	require.Error(t, err)
	require.Equal(t, 1, cache.Stats().Len)

	cache.Purge()
	require.False(t, cache.Contains(DigestOf(data)))
}

func TestCacheEviction(t *testing.T) {
	cache := NewCache(1)
	var encoded [][]byte
	for _, n := range []float32{1, 2} {
		m, err := Compile(Program(Attribute("v", types.Float), Assign(Ident("v"), Num(n))))
		require.NoError(t, err)
		data, err := bytecode.Encode(m)
		require.NoError(t, err)
		encoded = append(encoded, data)
		_, err = cache.Load(data)
		require.NoError(t, err)
	}
	require.False(t, cache.Contains(DigestOf(encoded[0])))
	require.True(t, cache.Contains(DigestOf(encoded[1])))
}

func TestCacheConcurrentLoads(t *testing.T) {
	m, err := Compile(gravity())
	require.NoError(t, err)
	data, err := bytecode.Encode(m)
	require.NoError(t, err)

	cache := NewCache(0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loaded, err := cache.Load(data)
			require.NoError(t, err)
			require.Equal(t, m.InstructionCount(), loaded.InstructionCount())
		}()
	}
	wg.Wait()
	stats := cache.Stats()
	require.Equal(t, int64(8), stats.Hits+stats.Misses)
	require.Equal(t, 1, stats.Len)
}

func TestDigestString(t *testing.T) {
	d := DigestOf([]byte("SIMv0.0"))
	require.Len(t, d.String(), 64)
	require.Equal(t, d, DigestOf([]byte("SIMv0.0")))
}
