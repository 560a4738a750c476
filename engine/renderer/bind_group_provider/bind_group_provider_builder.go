package bind_group_provider

import (
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/resource"
)

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBindGroup sets the bind group for this provider.
//
// Parameters:
//   - bg: the bind group to set for this provider
//
// Returns:
//   - BindGroupProviderOption: a function that sets the bind group for this provider
func WithBindGroup(bg device.BindGroup) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.bindGroup = bg
	}
}

// WithLayout sets the layout for this provider. An owned layout is released with the provider.
//
// Parameters:
//   - layout: the layout the bind group was realised against
//   - owned: whether the provider releases the layout
//
// Returns:
//   - BindGroupProviderOption: a function that sets the layout for this provider
func WithLayout(layout *Layout, owned bool) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.layout = layout
		p.ownsLayout = owned
	}
}

// WithBuffer sets a buffer for a specific binding index.
//
// Parameters:
//   - binding: the binding index for this buffer
//   - buf: the buffer to associate with this binding
//
// Returns:
//   - BindGroupProviderOption: a function that sets the buffer for the specified binding
func WithBuffer(binding int, buf device.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffers[binding] = buf
	}
}

// WithTextureView sets a texture view for a specific binding index. An owned view is released with the provider.
func WithTextureView(binding int, view device.TextureView, owned bool) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.textureViews[binding] = view
		p.ownedViews[binding] = owned
	}
}

// WithSampler sets a sampler for a specific binding index.
func WithSampler(binding int, s device.Sampler) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.samplers[binding] = s
	}
}

// FactoryOption is a functional option used to configure a Factory during construction.
type FactoryOption func(*Factory)

// WithTable replaces the resource table the factory resolves names against.
// The default is resource.DefaultTable().
//
// Parameters:
//   - table: the resource table
//
// Returns:
//   - FactoryOption: a function that sets the table
func WithTable(table *resource.Table) FactoryOption {
	return func(f *Factory) {
		if table != nil {
			f.table = table
		}
	}
}
