package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComponents(t *testing.T) {
	tests := []struct {
		typ   Type
		comps int
		name  string
	}{
		{Float, 1, "float"},
		{Vec2, 2, "vec2"},
		{Vec3, 3, "vec3"},
		{Vec4, 4, "vec4"},
		{Bool, 1, "bool"},
		{BVec2, 2, "bvec2"},
		{BVec3, 3, "bvec3"},
		{BVec4, 4, "bvec4"},
		{Void, 0, "void"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.comps, tt.typ.Components(), tt.name)
		require.Equal(t, tt.name, tt.typ.String())
		parsed, ok := Parse(tt.name)
		require.Equal(t, tt.typ.Valid(), ok, tt.name)
		if ok {
			require.Equal(t, tt.typ, parsed)
		}
	}
	for _, name := range []string{"mat4", "void", "invalid(0)", ""} {
		parsed, ok := Parse(name)
		require.False(t, ok, name)
		require.Equal(t, Invalid, parsed)
	}
}

func TestWithComponents(t *testing.T) {
	require.Equal(t, Vec3, Float.WithComponents(3))
	require.Equal(t, Float, Vec4.WithComponents(1))
	require.Equal(t, BVec2, Bool.WithComponents(2))
	require.Equal(t, BVec4, Vec4.Boolean())
	require.Equal(t, Invalid, Void.WithComponents(2))
	require.Equal(t, Invalid, Float.WithComponents(5))
}

func TestParseSwizzle(t *testing.T) {
	s, err := ParseSwizzle("xzy", 3)
	require.NoError(t, err)
	require.Equal(t, Swizzle{0, 2, 1}, s)
	require.Equal(t, "xzy", s.String())
	require.False(t, s.HasDuplicates())

	s, err = ParseSwizzle("xxw", 4)
	require.NoError(t, err)
	require.True(t, s.HasDuplicates())

	_, err = ParseSwizzle("w", 3)
	require.ErrorContains(t, err, "out of range")

	_, err = ParseSwizzle("xyzwx", 4)
	require.Error(t, err)

	_, err = ParseSwizzle("q", 4)
	require.ErrorContains(t, err, "unknown component")

	_, err = ParseSwizzle("", 4)
	require.Error(t, err)
}

func TestComponentKey(t *testing.T) {
	require.Equal(t, "v.x", ComponentKey("v", 0))
	require.Equal(t, "pos.w", ComponentKey("pos", 3))
}

func TestRegRange(t *testing.T) {
	var r RegRange
	require.True(t, r.Empty())
	r = r.Extend(5, true)
	r = r.Extend(2, false)
	r = r.Extend(9, false)
	require.Equal(t, RegRange{Lo: 2, Hi: 9}, r)
	require.Equal(t, "r9", r.Hi.String())
}
