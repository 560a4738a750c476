package bind_group_provider

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/resource"
)

var (
	// ErrMissingResource is returned when a name in the list has no usable entry in the resource map.
	ErrMissingResource = errors.New("missing resource")
	// ErrUnsupportedKind is returned when a descriptor carries a kind the factory cannot bind.
	ErrUnsupportedKind = errors.New("unsupported resource kind")
	// ErrLayoutMismatch is returned when a supplied layout was derived from a different name list.
	ErrLayoutMismatch = errors.New("bind group layout mismatch")
)

// Resources maps resource names to the handles bound under them. Values are
// device.Buffer for buffer kinds, device.Sampler for sampler kinds, and either
// device.Texture (the factory creates the view) or device.TextureView (bound as is)
// for texture kinds.
type Resources map[string]any

// Layout is a bind group layout derived from an ordered resource-name list.
// Slot i holds Names[i].
type Layout struct {
	Names      []string
	Descriptor device.BindGroupLayoutDescriptor
	handle     device.BindGroupLayout
}

// Handle returns the device layout.
func (l *Layout) Handle() device.BindGroupLayout {
	return l.handle
}

// Release releases the device layout.
func (l *Layout) Release() {
	if l.handle != nil {
		l.handle.Release()
		l.handle = nil
	}
}

// Factory derives bind group layouts from resource-name lists and realises bind groups against them.
// A Factory is safe for concurrent use as long as its device is.
type Factory struct {
	device device.Device
	table  *resource.Table

	mu     sync.Mutex
	shared map[string]*Layout
}

// NewFactory creates a factory resolving names against resource.DefaultTable() unless WithTable is given.
//
// Parameters:
//   - dev: the device layouts and bind groups are created on
//   - options: a variadic list of options to configure the factory
//
// Returns:
//   - *Factory: the factory
func NewFactory(dev device.Device, options ...FactoryOption) *Factory {
	if dev == nil {
		panic("bind_group_provider: nil device")
	}
	f := &Factory{device: dev, table: resource.DefaultTable(), shared: make(map[string]*Layout)}
	for _, opt := range options {
		opt(f)
	}
	return f
}

// Table returns the resource table the factory resolves names against.
func (f *Factory) Table() *resource.Table {
	return f.table
}

// LayoutDescriptor derives the layout descriptor for an ordered name list without creating it on the device.
// Slot indices equal list positions, starting at 0 and contiguous.
//
// Parameters:
//   - names: the ordered resource names
//
// Returns:
//   - device.BindGroupLayoutDescriptor: the derived descriptor
//   - error: error if a name is unknown or its kind is unsupported
func (f *Factory) LayoutDescriptor(names []string) (device.BindGroupLayoutDescriptor, error) {
	desc := device.BindGroupLayoutDescriptor{
		Label:   strings.Join(names, ","),
		Entries: make([]device.BindGroupLayoutEntry, 0, len(names)),
	}
	for i, name := range names {
		d, err := f.table.Lookup(name)
		if err != nil {
			return device.BindGroupLayoutDescriptor{}, err
		}
		entry := device.BindGroupLayoutEntry{
			Binding:    uint32(i),
			Visibility: d.Visibility,
		}
		switch {
		case d.Kind == resource.KindBuffer:
			entry.Buffer = d.Buffer
		case d.Kind == resource.KindSampler:
			entry.Sampler = d.Sampler
		case d.Kind.IsTexture():
			entry.Texture = d.Texture
			entry.StorageTexture = d.StorageTexture
		default:
			return device.BindGroupLayoutDescriptor{}, fmt.Errorf("%w: %s is %s", ErrUnsupportedKind, name, d.Kind)
		}
		desc.Entries = append(desc.Entries, entry)
	}
	return desc, nil
}

// CreateLayout derives a layout from an ordered name list and creates it on the device.
//
// Parameters:
//   - names: the ordered resource names
//
// Returns:
//   - *Layout: the created layout
//   - error: error if a name is unknown, its kind is unsupported or the device fails
func (f *Factory) CreateLayout(names []string) (*Layout, error) {
	desc, err := f.LayoutDescriptor(names)
	if err != nil {
		return nil, err
	}
	handle, err := f.device.CreateBindGroupLayout(desc)
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group layout %q: %w", desc.Label, err)
	}
	return &Layout{
		Names:      append([]string(nil), names...),
		Descriptor: desc,
		handle:     handle,
	}, nil
}

// SharedLayout returns the layout for an ordered name list, creating it on first use.
// Every caller asking for the same list gets the same layout, so the groups realised
// against it can share one pipeline. Shared layouts live until ReleaseShared.
//
// Parameters:
//   - names: the ordered resource names
//
// Returns:
//   - *Layout: the shared layout
//   - error: error if the layout cannot be derived or created
func (f *Factory) SharedLayout(names []string) (*Layout, error) {
	key := strings.Join(names, ",")
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.shared[key]; ok {
		return l, nil
	}
	l, err := f.CreateLayout(names)
	if err != nil {
		return nil, err
	}
	f.shared[key] = l
	return l, nil
}

// ReleaseShared releases every layout handed out by SharedLayout.
func (f *Factory) ReleaseShared() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, l := range f.shared {
		l.Release()
		delete(f.shared, key)
	}
}

// Create realises a bind group for an ordered name list.
//
// When existing is non-nil it is reused and no layout is derived, so every group
// created against it is compatible with the same pipeline. Otherwise a layout is
// derived with CreateLayout and owned by the returned provider.
//
// Texture kinds get a view created here, with the descriptor's ViewFormat falling back to
// the texture's native format and its view dimension falling back to 2D. The provider owns
// those views; it never owns the textures, buffers or samplers it was given.
//
// Parameters:
//   - names: the ordered resource names
//   - resources: the handles to bind, keyed by name
//   - existing: an optional layout to reuse
//   - label: an optional debug label
//
// Returns:
//   - BindGroupProvider: the realised provider
//   - error: error if a name is unknown, a resource is missing or of the wrong type, or the device fails
func (f *Factory) Create(names []string, resources Resources, existing *Layout, label string) (BindGroupProvider, error) {
	layout := existing
	owned := false
	if layout == nil {
		var err error
		if layout, err = f.CreateLayout(names); err != nil {
			return nil, err
		}
		owned = true
	} else if len(layout.Names) != len(names) {
		return nil, fmt.Errorf("%w: layout has %d slots, %d names given", ErrLayoutMismatch, len(layout.Names), len(names))
	}

	opts := []BindGroupProviderOption{WithLayout(layout, owned)}
	entries := make([]device.BindGroupEntry, 0, len(names))
	views := make([]device.TextureView, 0)
	fail := func(err error) (BindGroupProvider, error) {
		for _, v := range views {
			v.Release()
		}
		if owned {
			layout.Release()
		}
		return nil, err
	}

	for i, name := range names {
		d, err := f.table.Lookup(name)
		if err != nil {
			return fail(err)
		}
		value, ok := resources[name]
		if !ok || value == nil {
			return fail(fmt.Errorf("%w: %s", ErrMissingResource, name))
		}
		entry := device.BindGroupEntry{Binding: uint32(i)}

		switch {
		case d.Kind == resource.KindBuffer:
			buf, ok := value.(device.Buffer)
			if !ok {
				return fail(fmt.Errorf("%w: %s (slot %d) expects a buffer, got %T", ErrMissingResource, name, i, value))
			}
			entry.Buffer = buf
			opts = append(opts, WithBuffer(i, buf))
		case d.Kind == resource.KindSampler:
			s, ok := value.(device.Sampler)
			if !ok {
				return fail(fmt.Errorf("%w: %s (slot %d) expects a sampler, got %T", ErrMissingResource, name, i, value))
			}
			entry.Sampler = s
			opts = append(opts, WithSampler(i, s))
		case d.Kind.IsTexture():
			switch v := value.(type) {
			case device.Texture:
				view, err := v.CreateView(&device.TextureViewDescriptor{
					Label:     name,
					Format:    common.Coalesce(d.ViewFormat, v.Format()),
					Dimension: common.Coalesce(d.ViewDimension(), device.TextureViewDimension2D),
				})
				if err != nil {
					return fail(fmt.Errorf("failed to create view for %s: %w", name, err))
				}
				views = append(views, view)
				entry.TextureView = view
				opts = append(opts, WithTextureView(i, view, true))
			case device.TextureView:
				entry.TextureView = v
				opts = append(opts, WithTextureView(i, v, false))
			default:
				return fail(fmt.Errorf("%w: %s (slot %d) expects a texture, got %T", ErrMissingResource, name, i, value))
			}
		default:
			return fail(fmt.Errorf("%w: %s is %s", ErrUnsupportedKind, name, d.Kind))
		}
		entries = append(entries, entry)
	}

	label = common.Coalesce(label, layout.Descriptor.Label)
	group, err := f.device.CreateBindGroup(device.BindGroupDescriptor{
		Label:   label,
		Layout:  layout.handle,
		Entries: entries,
	})
	if err != nil {
		return fail(fmt.Errorf("failed to create bind group %q: %w", label, err))
	}
	opts = append(opts, WithBindGroup(group))
	return NewBindGroupProvider(label, opts...), nil
}
