package bind_group_provider

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device/devicetest"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFixture(t *testing.T) (*devicetest.Device, *Factory, Resources) {
	t.Helper()
	dev := devicetest.New()
	f := NewFactory(dev)

	camera, err := dev.CreateBuffer(device.BufferDescriptor{Label: "camera", Size: resource.CameraSize})
	require.NoError(t, err)
	transform, err := dev.CreateBuffer(device.BufferDescriptor{Label: "transform", Size: resource.TransformSize})
	require.NoError(t, err)
	sampler, err := dev.CreateSampler(device.SamplerDescriptor{Label: "linear"})
	require.NoError(t, err)
	base, err := dev.CreateTexture(device.TextureDescriptor{
		Label:  "base",
		Size:   device.Extent3D{Width: 4, Height: 4, DepthOrArrayLayers: 1},
		Format: device.TextureFormatRGBA8UnormSrgb,
	})
	require.NoError(t, err)
	env, err := dev.CreateTexture(device.TextureDescriptor{
		Label:         "env",
		Size:          device.Extent3D{Width: 8, Height: 8, DepthOrArrayLayers: 6},
		Format:        device.TextureFormatRGBA8Unorm,
		MipLevelCount: 4,
	})
	require.NoError(t, err)

	return dev, f, Resources{
		resource.Camera:         camera,
		resource.Transform:      transform,
		resource.TextureSampler: sampler,
		resource.BaseMap:        base,
		resource.EnvMap:         env,
	}
}

func TestCreateLayoutContiguousSlots(t *testing.T) {
	_, f, _ := newFixture(t)
	names := []string{resource.Camera, resource.Transform, resource.TextureSampler, resource.BaseMap, resource.ShadowMap}

	layout, err := f.CreateLayout(names)
	require.NoError(t, err)
	require.Len(t, layout.Descriptor.Entries, len(names))
	for i, e := range layout.Descriptor.Entries {
		assert.Equal(t, uint32(i), e.Binding)
	}
	assert.NotNil(t, layout.Descriptor.Entries[0].Buffer)
	assert.NotNil(t, layout.Descriptor.Entries[2].Sampler)
	assert.NotNil(t, layout.Descriptor.Entries[3].Texture)
	assert.Equal(t, device.TextureSampleTypeDepth, layout.Descriptor.Entries[4].Texture.SampleType)
	assert.Equal(t, device.ShaderStageVertex, layout.Descriptor.Entries[1].Visibility)
}

func TestCreateLayoutIsStructurallyStable(t *testing.T) {
	_, f, _ := newFixture(t)
	names := []string{resource.Light, resource.ShadowMapSampler, resource.EnvMap}

	a, err := f.CreateLayout(names)
	require.NoError(t, err)
	b, err := f.CreateLayout(names)
	require.NoError(t, err)
	assert.Equal(t, a.Descriptor, b.Descriptor)
	assert.NotSame(t, a.Handle(), b.Handle())
}

func TestCreateLayoutUnknownName(t *testing.T) {
	dev, f, _ := newFixture(t)
	_, err := f.CreateLayout([]string{resource.Camera, "glitter"})
	require.ErrorIs(t, err, resource.ErrUnknownAttribute)
	assert.Contains(t, err.Error(), "glitter")
	assert.Empty(t, dev.BindGroupLayouts)
}

func TestCreateLayoutUnsupportedKind(t *testing.T) {
	dev := devicetest.New()
	f := NewFactory(dev, WithTable(resource.NewTable(resource.Descriptor{Name: "odd", Kind: resource.Kind(99)})))
	_, err := f.CreateLayout([]string{"odd"})
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestCreateBindsEverySlot(t *testing.T) {
	dev, f, res := newFixture(t)
	names := []string{resource.Camera, resource.TextureSampler, resource.BaseMap, resource.EnvMap}

	p, err := f.Create(names, res, nil, "object")
	require.NoError(t, err)
	assert.Equal(t, "object", p.Label())

	group := p.BindGroup().(*devicetest.BindGroup)
	require.Len(t, group.Desc.Entries, 4)
	assert.Same(t, res[resource.Camera], group.Desc.Entries[0].Buffer)
	assert.Same(t, res[resource.TextureSampler], group.Desc.Entries[1].Sampler)
	assert.Same(t, p.Layout().Handle(), group.Desc.Layout)

	idx, ok := p.Binding(resource.BaseMap)
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	_, ok = p.Binding(resource.Light)
	assert.False(t, ok)
	assert.Same(t, res[resource.Camera], p.Buffer(0))
	assert.Len(t, dev.BindGroups, 1)
}

func TestCreateViewFallbacks(t *testing.T) {
	_, f, res := newFixture(t)

	p, err := f.Create([]string{resource.BaseMap, resource.EnvMap}, res, nil, "")
	require.NoError(t, err)

	base := p.TextureView(0).(*devicetest.TextureView)
	// No forced view format: native format; declared 2D dimension.
	assert.Equal(t, device.TextureFormatRGBA8UnormSrgb, base.Desc.Format)
	assert.Equal(t, device.TextureViewDimension2D, base.Desc.Dimension)

	env := p.TextureView(1).(*devicetest.TextureView)
	assert.Equal(t, device.TextureFormatRGBA8Unorm, env.Desc.Format)
	assert.Equal(t, device.TextureViewDimensionCube, env.Desc.Dimension)
	assert.Equal(t, resource.BaseMap+","+resource.EnvMap, p.Label())
}

func TestCreateDimensionFallsBackTo2D(t *testing.T) {
	dev := devicetest.New()
	table := resource.NewTable(resource.Descriptor{
		Name:    "plain",
		Kind:    resource.KindTexture,
		Texture: &device.TextureBindingLayout{SampleType: device.TextureSampleTypeFloat},
	})
	f := NewFactory(dev, WithTable(table))
	tex, err := dev.CreateTexture(device.TextureDescriptor{
		Size:   device.Extent3D{Width: 2, Height: 2, DepthOrArrayLayers: 6},
		Format: device.TextureFormatRGBA8Unorm,
	})
	require.NoError(t, err)

	p, err := f.Create([]string{"plain"}, Resources{"plain": tex}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, device.TextureViewDimension2D, p.TextureView(0).(*devicetest.TextureView).Desc.Dimension)
}

func TestCreateMissingResource(t *testing.T) {
	dev, f, res := newFixture(t)
	delete(res, resource.BaseMap)

	_, err := f.Create([]string{resource.Camera, resource.EnvMap, resource.BaseMap}, res, nil, "")
	require.ErrorIs(t, err, ErrMissingResource)
	assert.Contains(t, err.Error(), "missing resource: baseMap")
	assert.Empty(t, dev.BindGroups)

	// The env view created before the failure is released along with the derived layout.
	env := res[resource.EnvMap].(*devicetest.Texture)
	require.Len(t, env.Views(), 1)
	assert.True(t, env.Views()[0].Released())
	assert.True(t, dev.BindGroupLayouts[0].Released())
}

func TestCreateWrongHandleType(t *testing.T) {
	_, f, res := newFixture(t)
	res[resource.Camera] = res[resource.BaseMap]
	_, err := f.Create([]string{resource.Camera}, res, nil, "")
	assert.ErrorIs(t, err, ErrMissingResource)

	res[resource.TextureSampler] = res[resource.Transform]
	_, err = f.Create([]string{resource.TextureSampler}, res, nil, "")
	assert.ErrorIs(t, err, ErrMissingResource)

	res[resource.BaseMap] = res[resource.Transform]
	_, err = f.Create([]string{resource.BaseMap}, res, nil, "")
	assert.ErrorIs(t, err, ErrMissingResource)
}

func TestCreateRejectsSamplerAndViewSwaps(t *testing.T) {
	dev, f, res := newFixture(t)
	sampler := res[resource.TextureSampler]
	view, err := res[resource.EnvMap].(device.Texture).CreateView(nil)
	require.NoError(t, err)

	res[resource.BaseMap] = sampler
	_, err = f.Create([]string{resource.BaseMap}, res, nil, "")
	require.ErrorIs(t, err, ErrMissingResource)
	assert.Contains(t, err.Error(), "baseMap (slot 0) expects a texture")

	res[resource.TextureSampler] = view
	_, err = f.Create([]string{resource.Camera, resource.TextureSampler}, res, nil, "")
	require.ErrorIs(t, err, ErrMissingResource)
	assert.Contains(t, err.Error(), "textureSampler (slot 1) expects a sampler")
	assert.Empty(t, dev.BindGroups)
}

func TestCreateReusesExistingLayout(t *testing.T) {
	dev, f, res := newFixture(t)
	names := []string{resource.Transform, resource.BaseMap}

	shared, err := f.CreateLayout(names)
	require.NoError(t, err)

	a, err := f.Create(names, res, shared, "a")
	require.NoError(t, err)
	b, err := f.Create(names, res, shared, "b")
	require.NoError(t, err)

	assert.Len(t, dev.BindGroupLayouts, 1)
	assert.Same(t, shared, a.Layout())
	assert.Same(t, shared, b.Layout())
	assert.NotSame(t, a.BindGroup(), b.BindGroup())

	// Releasing a provider never releases a shared layout.
	a.Release()
	assert.False(t, dev.BindGroupLayouts[0].Released())

	_, err = f.Create([]string{resource.Transform}, res, shared, "c")
	assert.ErrorIs(t, err, ErrLayoutMismatch)
}

func TestCreateAcceptsPrebuiltView(t *testing.T) {
	_, f, res := newFixture(t)
	view, err := res[resource.BaseMap].(device.Texture).CreateView(nil)
	require.NoError(t, err)
	res[resource.ShadowMap] = view

	p, err := f.Create([]string{resource.ShadowMap}, res, nil, "")
	require.NoError(t, err)
	assert.Same(t, view, p.TextureView(0))

	p.Release()
	assert.False(t, view.(*devicetest.TextureView).Released())
}

func TestReleaseOwnedOnly(t *testing.T) {
	dev, f, res := newFixture(t)
	p, err := f.Create([]string{resource.Camera, resource.BaseMap}, res, nil, "")
	require.NoError(t, err)
	view := p.TextureView(1).(*devicetest.TextureView)

	p.Release()
	assert.True(t, view.Released())
	assert.True(t, dev.BindGroups[0].Released())
	assert.True(t, dev.BindGroupLayouts[0].Released())
	assert.False(t, res[resource.Camera].(*devicetest.Buffer).Released())
	assert.False(t, res[resource.BaseMap].(*devicetest.Texture).Released())
	assert.Nil(t, p.BindGroup())
}

func TestCreateDeviceFailure(t *testing.T) {
	dev, f, res := newFixture(t)
	boom := errors.New("device lost")
	dev.Fail["CreateBindGroup"] = boom

	_, err := f.Create([]string{resource.Camera}, res, nil, "x")
	assert.ErrorIs(t, err, boom)
}

func TestFlushWrites(t *testing.T) {
	dev, f, res := newFixture(t)
	p, err := f.Create([]string{resource.Camera, resource.Transform}, res, nil, "")
	require.NoError(t, err)

	err = FlushWrites(dev, []BufferWrite{
		{Provider: p, Binding: 1, Offset: 4, Data: []byte{1, 2, 3, 4}},
	})
	require.NoError(t, err)
	buf := res[resource.Transform].(*devicetest.Buffer)
	assert.Equal(t, 1, buf.Writes())
	assert.Equal(t, []byte{1, 2, 3, 4}, buf.Data()[4:8])

	err = FlushWrites(dev, []BufferWrite{{Provider: p, Binding: 5}})
	assert.Error(t, err)

	boom := errors.New("queue lost")
	dev.Fail["WriteBuffer"] = boom
	err = FlushWrites(dev, []BufferWrite{{Provider: p, Binding: 0, Data: []byte{1}}})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, buf.Writes())
}

func TestSharedLayoutIsCreatedOnce(t *testing.T) {
	dev, f, _ := newFixture(t)
	names := []string{resource.Camera, resource.Transform}

	a, err := f.SharedLayout(names)
	require.NoError(t, err)
	b, err := f.SharedLayout(append([]string(nil), names...))
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Len(t, dev.BindGroupLayouts, 1)

	_, err = f.SharedLayout([]string{resource.Camera, "nope"})
	require.Error(t, err)

	f.ReleaseShared()
	assert.True(t, dev.BindGroupLayouts[0].Released())
	c, err := f.SharedLayout(names)
	require.NoError(t, err)
	assert.NotSame(t, a, c)
}
