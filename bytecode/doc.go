// Package bytecode provides the immutable compiled form of a program and its
// binary encoding.
//
// A [Module] holds the attribute and uniform declaration tables, the number
// of registers the compiler allocated, and the flat instruction stream. The
// stream is also available as a tree of [If] and [While] nodes so that the
// virtual machine recurses over structure instead of re-reading byte offsets
// on every run.
//
// # Immutability Guarantees
//
// Modules are immutable after construction and safe to share across
// goroutines and concurrent runs:
//
//   - Constructors copy input slices to prevent caller mutation
//   - Accessors return copies or values, never internal slices
//   - Construction validates the module once, so executors can skip bounds
//     checks in their hot loops
//
// # Wire Format
//
//	"SIMv0.0"             7 bytes
//	attribute count       u8
//	uniform count         u8
//	declarations          per attribute, then per uniform:
//	                        name length u8, name, type tag u8,
//	                        one register u8 per component
//	register count - 1    u8
//	stream length         u32 little-endian
//	stream                instructions, no trailing bytes
//
// Block headers carry the byte length of the region up to, but not
// including, the closing marker, followed by the lowest and highest register
// written inside that region (0, 0 when nothing is written).
package bytecode
