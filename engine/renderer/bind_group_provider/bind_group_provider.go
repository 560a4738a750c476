package bind_group_provider

import (
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// layout is the slot schema the bind group was realised against. It is owned only when ownsLayout is set.
	layout     *Layout
	ownsLayout bool

	// bindGroup is the realised bind group.
	bindGroup device.BindGroup

	// buffers holds the bound buffers keyed by binding index. They are owned by the caller.
	buffers map[int]device.Buffer
	// textureViews holds the views bound to texture bindings, keyed by binding index.
	textureViews map[int]device.TextureView
	// ownedViews marks the views the factory created, which are released with the provider.
	ownedViews map[int]bool
	// samplers holds the bound samplers keyed by binding index. They are owned by the caller.
	samplers map[int]device.Sampler
}

// BindGroupProvider is a realised bind group together with the handles bound into it.
//
// The provider holds non-owning references to the buffers, samplers and textures it was
// created from. It owns the views it created and, when the layout was derived rather
// than supplied, the layout.
//
// Usage pattern:
//  1. A drawable asks the Factory for a provider from an ordered resource-name list
//  2. The drawable binds BindGroup() at its group index while recording a bundle
//  3. Per frame, the drawable queues BufferWrite values against Buffer(binding)
//  4. Release() is called when the drawable is destroyed
type BindGroupProvider interface {
	// Release releases the views and layout owned by this provider and the bind group itself.
	// Buffers, samplers and textures supplied by the caller are left untouched.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Layout returns the layout the bind group was realised against.
	//
	// Returns:
	//   - *Layout: the layout
	Layout() *Layout

	// BindGroup returns the realised bind group.
	//
	// Returns:
	//   - device.BindGroup: the bind group
	BindGroup() device.BindGroup

	// Binding returns the slot index of a resource name.
	//
	// Parameters:
	//   - name: the resource name
	//
	// Returns:
	//   - int: the binding index
	//   - bool: false if the name is not part of the layout
	Binding(name string) (int, bool)

	// Buffer returns the buffer bound at a binding, or nil if none.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - device.Buffer: the buffer or nil
	Buffer(binding int) device.Buffer

	// Buffers returns every bound buffer keyed by binding index.
	//
	// Returns:
	//   - map[int]device.Buffer: the buffers keyed by binding index
	Buffers() map[int]device.Buffer

	// TextureView returns the view bound at a binding, or nil if none.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - device.TextureView: the view or nil
	TextureView(binding int) device.TextureView

	// TextureViews returns every bound view keyed by binding index.
	//
	// Returns:
	//   - map[int]device.TextureView: the views keyed by binding index
	TextureViews() map[int]device.TextureView

	// Sampler returns the sampler bound at a binding, or nil if none.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - device.Sampler: the sampler or nil
	Sampler(binding int) device.Sampler
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
// Most callers obtain providers from Factory.Create instead.
//
// Parameters:
//   - label: the debug label
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		buffers:      make(map[int]device.Buffer),
		textureViews: make(map[int]device.TextureView),
		ownedViews:   make(map[int]bool),
		samplers:     make(map[int]device.Sampler),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Layout() *Layout {
	return p.layout
}

func (p *bindGroupProvider) BindGroup() device.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) Binding(name string) (int, bool) {
	if p.layout == nil {
		return 0, false
	}
	for i, n := range p.layout.Names {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

func (p *bindGroupProvider) Buffer(binding int) device.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) Buffers() map[int]device.Buffer {
	return p.buffers
}

func (p *bindGroupProvider) TextureView(binding int) device.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) TextureViews() map[int]device.TextureView {
	return p.textureViews
}

func (p *bindGroupProvider) Sampler(binding int) device.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) Release() {
	for i, tv := range p.textureViews {
		if tv != nil && p.ownedViews[i] {
			tv.Release()
		}
		delete(p.textureViews, i)
	}
	clear(p.ownedViews)
	clear(p.buffers)
	clear(p.samplers)

	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.ownsLayout && p.layout != nil {
		p.layout.Release()
	}
	p.layout = nil
}
