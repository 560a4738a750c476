// Package resource is the registry of semantic GPU resource names.
//
// Every binding the engine creates is requested by name ("camera", "baseMap",
// "shadowMap", ...). The Table resolves a name to its binding kind, the stages
// that may see it and the kind-specific layout, so bind group layouts can be
// derived from an ordered name list alone.
package resource

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
)

// ErrUnknownAttribute is returned when a name is not registered in the table.
var ErrUnknownAttribute = errors.New("unknown resource attribute")

// Kind is the binding kind of a resource.
type Kind int

const (
	KindBuffer Kind = iota
	KindSampler
	KindTexture
	KindTextureArray
	KindCubeTexture
)

func (k Kind) String() string {
	switch k {
	case KindBuffer:
		return "buffer"
	case KindSampler:
		return "sampler"
	case KindTexture:
		return "texture"
	case KindTextureArray:
		return "texture-array"
	case KindCubeTexture:
		return "cube-texture"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// IsTexture reports whether the kind binds a texture view.
func (k Kind) IsTexture() bool {
	return k == KindTexture || k == KindTextureArray || k == KindCubeTexture
}

// Descriptor describes how one named resource is bound.
// Exactly one of Buffer, Sampler, Texture or StorageTexture is set, matching Kind.
type Descriptor struct {
	Name       string
	Kind       Kind
	Visibility device.ShaderStage

	Buffer         *device.BufferBindingLayout
	Sampler        *device.SamplerBindingLayout
	Texture        *device.TextureBindingLayout
	StorageTexture *device.StorageTextureBindingLayout

	// ViewFormat forces the format of views created for texture kinds.
	// Undefined falls back to the texture's native format.
	ViewFormat device.TextureFormat
}

// ViewDimension returns the view dimension declared by the texture layout, or
// Undefined for non-texture kinds.
func (d Descriptor) ViewDimension() device.TextureViewDimension {
	switch {
	case d.StorageTexture != nil:
		return d.StorageTexture.ViewDimension
	case d.Texture != nil:
		return d.Texture.ViewDimension
	default:
		return device.TextureViewDimensionUndefined
	}
}

// Table is an immutable name to Descriptor registry.
type Table struct {
	descriptors map[string]Descriptor
}

// NewTable builds a table from the given descriptors. A later descriptor with a
// duplicate name replaces the earlier one.
//
// Parameters:
//   - descriptors: the resource descriptors to register
//
// Returns:
//   - *Table: the immutable table
func NewTable(descriptors ...Descriptor) *Table {
	t := &Table{descriptors: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		t.descriptors[d.Name] = d
	}
	return t
}

// Lookup resolves a resource name.
//
// Parameters:
//   - name: the semantic resource name
//
// Returns:
//   - Descriptor: the registered descriptor
//   - error: an error wrapping ErrUnknownAttribute if the name is not registered
func (t *Table) Lookup(name string) (Descriptor, error) {
	d, ok := t.descriptors[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownAttribute, name)
	}
	return d, nil
}

// Names returns every registered name in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.descriptors))
	for n := range t.descriptors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// With returns a new table holding the receiver's descriptors plus the extra ones.
func (t *Table) With(extra ...Descriptor) *Table {
	all := make([]Descriptor, 0, len(t.descriptors)+len(extra))
	for _, n := range t.Names() {
		all = append(all, t.descriptors[n])
	}
	return NewTable(append(all, extra...)...)
}
