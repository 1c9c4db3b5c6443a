// Package types defines the value and register model shared by the compiler
// and the virtual machine.
//
// Every value is either a float32 scalar or a vector of two to four float32
// components. Booleans use the same representation: 0.0 is false and any
// other value is true. The virtual machine never sees vectors; the compiler
// flattens each vector into one register per component, in component order.
package types

import (
	"fmt"
	"strings"
)

// Type identifies the static type of a value. The numeric value doubles as
// the type tag stored in encoded modules.
type Type uint8

const (
	Invalid Type = 0
	Float   Type = 1
	Vec2    Type = 2
	Vec3    Type = 3
	Vec4    Type = 4
	Bool    Type = 5
	BVec2   Type = 6
	BVec3   Type = 7
	BVec4   Type = 8

	// Void is the result type of functions that return nothing. It is never
	// encoded and never declared on a variable.
	Void Type = 255
)

var typeNames = map[Type]string{
	Float: "float",
	Vec2:  "vec2",
	Vec3:  "vec3",
	Vec4:  "vec4",
	Bool:  "bool",
	BVec2: "bvec2",
	BVec3: "bvec3",
	BVec4: "bvec4",
	Void:  "void",
}

// String returns the source-level name of the type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("invalid(%d)", uint8(t))
}

// Parse returns the value type with the given source-level name. Only types
// that may be declared parse, so "void" does not.
func Parse(name string) (Type, bool) {
	for t, n := range typeNames {
		if n == name && t.Valid() {
			return t, true
		}
	}
	return Invalid, false
}

// Valid reports whether t is a value type that may be declared and encoded.
func (t Type) Valid() bool {
	return t >= Float && t <= BVec4
}

// Components returns the number of scalar components, or 0 for Void and
// invalid types.
func (t Type) Components() int {
	switch t {
	case Float, Bool:
		return 1
	case Vec2, BVec2:
		return 2
	case Vec3, BVec3:
		return 3
	case Vec4, BVec4:
		return 4
	default:
		return 0
	}
}

// IsBool reports whether t is bool or a boolean vector.
func (t Type) IsBool() bool {
	return t >= Bool && t <= BVec4
}

// IsFloat reports whether t is float or a float vector.
func (t Type) IsFloat() bool {
	return t >= Float && t <= Vec4
}

// IsVector reports whether t has more than one component.
func (t Type) IsVector() bool {
	return t.Components() > 1
}

// Scalar returns the single-component type with the same base as t.
func (t Type) Scalar() Type {
	if t.IsBool() {
		return Bool
	}
	if t.IsFloat() {
		return Float
	}
	return Invalid
}

// WithComponents returns the type with the same base as t and n components.
func (t Type) WithComponents(n int) Type {
	if n < 1 || n > 4 {
		return Invalid
	}
	switch t.Scalar() {
	case Float:
		return Float + Type(n-1)
	case Bool:
		return Bool + Type(n-1)
	default:
		return Invalid
	}
}

// Boolean returns the boolean type with the same component count as t.
func (t Type) Boolean() Type {
	return Bool.WithComponents(t.Components())
}

// ComponentNames lists the component selectors in order.
const ComponentNames = "xyzw"

// ComponentName returns the selector for the component at index i.
func ComponentName(i int) string {
	return ComponentNames[i : i+1]
}

// Swizzle is a parsed component selector such as "xzy".
type Swizzle []int

// ParseSwizzle parses a selector against a value with the given number of
// components. Each letter must name a component that exists.
func ParseSwizzle(s string, components int) (Swizzle, error) {
	if len(s) < 1 || len(s) > 4 {
		return nil, fmt.Errorf("invalid swizzle %q: must select 1 to 4 components", s)
	}
	result := make(Swizzle, len(s))
	for i := 0; i < len(s); i++ {
		idx := strings.IndexByte(ComponentNames, s[i])
		if idx < 0 {
			return nil, fmt.Errorf("invalid swizzle %q: unknown component %q", s, s[i])
		}
		if idx >= components {
			return nil, fmt.Errorf("invalid swizzle %q: component %q out of range for %d components",
				s, s[i], components)
		}
		result[i] = idx
	}
	return result, nil
}

// HasDuplicates reports whether any component is selected more than once.
// Such swizzles may be read but never assigned to.
func (s Swizzle) HasDuplicates() bool {
	var seen [4]bool
	for _, c := range s {
		if seen[c] {
			return true
		}
		seen[c] = true
	}
	return false
}

// String returns the selector letters.
func (s Swizzle) String() string {
	var b strings.Builder
	for _, c := range s {
		b.WriteByte(ComponentNames[c])
	}
	return b.String()
}

// ComponentKey returns the host-facing name of one component of a named
// value, e.g. ComponentKey("v", 2) == "v.z".
func ComponentKey(name string, component int) string {
	return name + "." + ComponentName(component)
}
