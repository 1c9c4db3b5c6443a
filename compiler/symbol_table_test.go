package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/lanevm/types"
)

func TestSymbolTableScopes(t *testing.T) {
	root := NewSymbolTable()
	require.True(t, root.IsGlobal())
	require.Equal(t, "root", root.ID())

	_, err := root.Insert("v", Attribute, value{typ: types.Vec2, regs: []types.Reg{0, 1}}, at)
	require.NoError(t, err)
	_, err = root.Insert("v", Variable, value{typ: types.Float}, at)
	require.Error(t, err)

	blk := root.NewBlock()
	require.Equal(t, "root.0", blk.ID())
	_, err = blk.Insert("v", Variable, value{typ: types.Float, regs: []types.Reg{2}}, at)
	require.NoError(t, err, "shadowing an outer symbol is allowed")
	sym, ok := blk.Resolve("v")
	require.True(t, ok)
	require.Equal(t, Variable, sym.Kind())

	_, err = blk.Insert("local", Variable, value{typ: types.Float}, at)
	require.NoError(t, err)
	inner := blk.NewBlock()
	_, ok = inner.Resolve("local")
	require.True(t, ok)
	require.Equal(t, []string{"local", "v"}, inner.VisibleNames())

	// A function scope sees the globals but not the block it was created from.
	fn := inner.NewChild()
	require.Same(t, root, fn.Parent())
	_, ok = fn.Resolve("local")
	require.False(t, ok)
	sym, ok = fn.Resolve("v")
	require.True(t, ok)
	require.Equal(t, Attribute, sym.Kind())
	require.Equal(t, 0, fn.Count())
}

func TestRegistersStackDiscipline(t *testing.T) {
	r := newRegisters(0)
	require.Equal(t, types.MaxRegisters, r.limit)
	require.Equal(t, 1, r.count())

	a, ok := r.alloc()
	require.True(t, ok)
	require.Equal(t, types.Reg(0), a)
	mark := r.mark()
	r.alloc()
	r.alloc()
	r.release(mark)
	b, _ := r.alloc()
	require.Equal(t, types.Reg(1), b)
	require.Equal(t, 3, r.count())

	small := newRegisters(1)
	_, ok = small.alloc()
	require.True(t, ok)
	_, ok = small.alloc()
	require.False(t, ok)
}
