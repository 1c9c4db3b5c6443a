// Package buffer holds the host-side data of a batch: one array of values
// per attribute component, shared by every instance index, plus the batch's
// uniform values.
//
// Components are addressed by key, the declaration name and a component
// selector joined by a dot: "v.x", "v.y". Scalars use "v.x" as well.
package buffer

import (
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/hashicorp/go-multierror"

	"github.com/deepnoodle-ai/lanevm/bytecode"
	"github.com/deepnoodle-ai/lanevm/types"
)

// Buffer is the structure-of-arrays storage for one batch of instances. It
// is not safe for concurrent mutation; a run reads and writes disjoint
// instance ranges of its arrays.
type Buffer struct {
	count      int
	attributes map[string][]float32
	uniforms   map[string]float32
}

// New returns an empty buffer for count instances.
func New(count int) *Buffer {
	if count < 0 {
		count = 0
	}
	return &Buffer{
		count:      count,
		attributes: map[string][]float32{},
		uniforms:   map[string]float32{},
	}
}

// Count returns the number of instances in the batch.
func (b *Buffer) Count() int {
	return b.count
}

// SetAttribute stores the per-instance values of one attribute component.
// The buffer keeps the slice; runs update it in place.
func (b *Buffer) SetAttribute(key string, values []float32) error {
	if len(values) != b.count {
		return fmt.Errorf("attribute %q: got %d values for %d instances", key, len(values), b.count)
	}
	b.attributes[key] = values
	return nil
}

// Attribute returns the values of one attribute component.
func (b *Buffer) Attribute(key string) ([]float32, bool) {
	values, ok := b.attributes[key]
	return values, ok
}

// SetUniform sets one uniform component. Uniforms that are never set read
// as zero.
func (b *Buffer) SetUniform(key string, value float32) {
	b.uniforms[key] = value
}

// Uniform returns one uniform component.
func (b *Buffer) Uniform(key string) (float32, bool) {
	v, ok := b.uniforms[key]
	return v, ok
}

// AttributeKeys returns the sorted keys of every attribute component set.
func (b *Buffer) AttributeKeys() []string {
	keys := make([]string, 0, len(b.attributes))
	for k := range b.attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (b *Buffer) uniformKeys() []string {
	keys := make([]string, 0, len(b.uniforms))
	for k := range b.uniforms {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// slot connects one component array to its register.
type slot struct {
	key    string
	reg    types.Reg
	values []float32
}

// Binding maps a module's declarations onto a buffer. It is created once per
// module and batch and then used by every partition of a run.
type Binding struct {
	count      int
	attributes []slot
	uniforms   []slot
}

// Bind resolves every declaration of m against the buffer. Missing or
// mis-sized attribute arrays and uniform keys that name no declared
// component are reported together.
func (b *Buffer) Bind(m *bytecode.Module) (*Binding, error) {
	binding := &Binding{count: b.count}
	var result *multierror.Error
	for i := 0; i < m.AttributeCount(); i++ {
		decl := m.AttributeAt(i)
		for c := range decl.Regs {
			key, reg := decl.Component(c)
			values, ok := b.attributes[key]
			switch {
			case !ok:
				result = multierror.Append(result, fmt.Errorf("attribute %q is not set", key))
			case len(values) != b.count:
				result = multierror.Append(result, fmt.Errorf("attribute %q has %d values, expected %d",
					key, len(values), b.count))
			default:
				binding.attributes = append(binding.attributes, slot{key: key, reg: reg, values: values})
			}
		}
	}
	declared := map[string]bool{}
	for i := 0; i < m.UniformCount(); i++ {
		decl := m.UniformAt(i)
		for c := range decl.Regs {
			key, reg := decl.Component(c)
			declared[key] = true
			binding.uniforms = append(binding.uniforms, slot{key: key, reg: reg, values: []float32{b.uniforms[key]}})
		}
	}
	for _, key := range b.uniformKeys() {
		if !declared[key] {
			result = multierror.Append(result, fmt.Errorf("uniform %q matches no declared component", key))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return binding, nil
}

// Count returns the number of instances bound.
func (b *Binding) Count() int {
	return b.count
}

// Registers returns every register the binding reads or writes.
func (b *Binding) Registers() []types.Reg {
	regs := make([]types.Reg, 0, len(b.attributes)+len(b.uniforms))
	for _, s := range b.attributes {
		regs = append(regs, s.reg)
	}
	for _, s := range b.uniforms {
		regs = append(regs, s.reg)
	}
	return regs
}

// Load fills regs for instances [lo, hi). Each register slice holds hi-lo
// lanes. Uniforms are broadcast to every lane.
func (b *Binding) Load(regs [][]float32, lo, hi int) {
	for _, s := range b.attributes {
		copy(regs[s.reg], s.values[lo:hi])
	}
	for _, s := range b.uniforms {
		lanes := regs[s.reg][:hi-lo]
		for i := range lanes {
			lanes[i] = s.values[0]
		}
	}
}

// Store copies attribute registers back to the buffer for instances
// [lo, hi).
func (b *Binding) Store(regs [][]float32, lo, hi int) {
	for _, s := range b.attributes {
		copy(s.values[lo:hi], regs[s.reg][:hi-lo])
	}
}

// snapshot is the serialized form of a Buffer.
type snapshot struct {
	Count      int                  `cbor:"count"`
	Attributes map[string][]float32 `cbor:"attributes"`
	Uniforms   map[string]float32   `cbor:"uniforms"`
}

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("buffer: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// MarshalBinary encodes the buffer as canonical CBOR, so equal buffers
// encode to equal bytes.
func (b *Buffer) MarshalBinary() ([]byte, error) {
	return encMode.Marshal(snapshot{
		Count:      b.count,
		Attributes: b.attributes,
		Uniforms:   b.uniforms,
	})
}

// UnmarshalBinary replaces the buffer's contents with a snapshot produced by
// MarshalBinary.
func (b *Buffer) UnmarshalBinary(data []byte) error {
	var s snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("buffer: unmarshal: %w", err)
	}
	if s.Count < 0 {
		return fmt.Errorf("buffer: unmarshal: negative instance count %d", s.Count)
	}
	for key, values := range s.Attributes {
		if len(values) != s.Count {
			return fmt.Errorf("buffer: unmarshal: attribute %q has %d values, expected %d", key, len(values), s.Count)
		}
	}
	b.count = s.Count
	b.attributes = s.Attributes
	b.uniforms = s.Uniforms
	if b.attributes == nil {
		b.attributes = map[string][]float32{}
	}
	if b.uniforms == nil {
		b.uniforms = map[string]float32{}
	}
	return nil
}
