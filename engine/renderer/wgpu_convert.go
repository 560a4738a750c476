package renderer

import (
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/cogentcore/webgpu/wgpu"
)

var wgpuTextureFormats = map[device.TextureFormat]wgpu.TextureFormat{
	device.TextureFormatUndefined:      wgpu.TextureFormatUndefined,
	device.TextureFormatRGBA8Unorm:     wgpu.TextureFormatRGBA8Unorm,
	device.TextureFormatRGBA8UnormSrgb: wgpu.TextureFormatRGBA8UnormSrgb,
	device.TextureFormatBGRA8Unorm:     wgpu.TextureFormatBGRA8Unorm,
	device.TextureFormatBGRA8UnormSrgb: wgpu.TextureFormatBGRA8UnormSrgb,
	device.TextureFormatRGBA16Float:    wgpu.TextureFormatRGBA16Float,
	device.TextureFormatRGBA32Float:    wgpu.TextureFormatRGBA32Float,
	device.TextureFormatDepth32Float:   wgpu.TextureFormatDepth32Float,
}

// toWGPUTextureFormat maps a device format onto its WebGPU counterpart.
// Unknown formats map to TextureFormatUndefined.
func toWGPUTextureFormat(f device.TextureFormat) wgpu.TextureFormat {
	if wf, ok := wgpuTextureFormats[f]; ok {
		return wf
	}
	return wgpu.TextureFormatUndefined
}

// fromWGPUTextureFormat is the inverse of toWGPUTextureFormat.
func fromWGPUTextureFormat(wf wgpu.TextureFormat) device.TextureFormat {
	for f, candidate := range wgpuTextureFormats {
		if candidate == wf {
			return f
		}
	}
	return device.TextureFormatUndefined
}

func toWGPUShaderStage(s device.ShaderStage) wgpu.ShaderStage {
	out := wgpu.ShaderStageNone
	if s.Has(device.ShaderStageVertex) {
		out |= wgpu.ShaderStageVertex
	}
	if s.Has(device.ShaderStageFragment) {
		out |= wgpu.ShaderStageFragment
	}
	if s.Has(device.ShaderStageCompute) {
		out |= wgpu.ShaderStageCompute
	}
	return out
}

func toWGPUBufferUsage(u device.BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	pairs := []struct {
		from device.BufferUsage
		to   wgpu.BufferUsage
	}{
		{device.BufferUsageCopyDst, wgpu.BufferUsageCopyDst},
		{device.BufferUsageCopySrc, wgpu.BufferUsageCopySrc},
		{device.BufferUsageUniform, wgpu.BufferUsageUniform},
		{device.BufferUsageStorage, wgpu.BufferUsageStorage},
		{device.BufferUsageVertex, wgpu.BufferUsageVertex},
		{device.BufferUsageIndex, wgpu.BufferUsageIndex},
	}
	for _, p := range pairs {
		if u&p.from != 0 {
			out |= p.to
		}
	}
	return out
}

func toWGPUTextureUsage(u device.TextureUsage) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	pairs := []struct {
		from device.TextureUsage
		to   wgpu.TextureUsage
	}{
		{device.TextureUsageCopyDst, wgpu.TextureUsageCopyDst},
		{device.TextureUsageCopySrc, wgpu.TextureUsageCopySrc},
		{device.TextureUsageTextureBinding, wgpu.TextureUsageTextureBinding},
		{device.TextureUsageStorageBinding, wgpu.TextureUsageStorageBinding},
		{device.TextureUsageRenderAttachment, wgpu.TextureUsageRenderAttachment},
	}
	for _, p := range pairs {
		if u&p.from != 0 {
			out |= p.to
		}
	}
	return out
}

func toWGPUViewDimension(d device.TextureViewDimension) wgpu.TextureViewDimension {
	switch d {
	case device.TextureViewDimension2D:
		return wgpu.TextureViewDimension2D
	case device.TextureViewDimension2DArray:
		return wgpu.TextureViewDimension2DArray
	case device.TextureViewDimensionCube:
		return wgpu.TextureViewDimensionCube
	case device.TextureViewDimensionCubeArray:
		return wgpu.TextureViewDimensionCubeArray
	default:
		return wgpu.TextureViewDimensionUndefined
	}
}

func toWGPUSampleType(t device.TextureSampleType) wgpu.TextureSampleType {
	switch t {
	case device.TextureSampleTypeFloat:
		return wgpu.TextureSampleTypeFloat
	case device.TextureSampleTypeUnfilterableFloat:
		return wgpu.TextureSampleTypeUnfilterableFloat
	case device.TextureSampleTypeDepth:
		return wgpu.TextureSampleTypeDepth
	default:
		return wgpu.TextureSampleTypeUndefined
	}
}

func toWGPUSamplerBindingType(t device.SamplerBindingType) wgpu.SamplerBindingType {
	switch t {
	case device.SamplerBindingTypeFiltering:
		return wgpu.SamplerBindingTypeFiltering
	case device.SamplerBindingTypeNonFiltering:
		return wgpu.SamplerBindingTypeNonFiltering
	case device.SamplerBindingTypeComparison:
		return wgpu.SamplerBindingTypeComparison
	default:
		return wgpu.SamplerBindingTypeUndefined
	}
}

func toWGPUBufferBindingType(t device.BufferBindingType) wgpu.BufferBindingType {
	switch t {
	case device.BufferBindingTypeUniform:
		return wgpu.BufferBindingTypeUniform
	case device.BufferBindingTypeStorage:
		return wgpu.BufferBindingTypeStorage
	case device.BufferBindingTypeReadOnlyStorage:
		return wgpu.BufferBindingTypeReadOnlyStorage
	default:
		return wgpu.BufferBindingTypeUndefined
	}
}

func toWGPUStorageAccess(a device.StorageTextureAccess) wgpu.StorageTextureAccess {
	switch a {
	case device.StorageTextureAccessWriteOnly:
		return wgpu.StorageTextureAccessWriteOnly
	case device.StorageTextureAccessReadOnly:
		return wgpu.StorageTextureAccessReadOnly
	default:
		return wgpu.StorageTextureAccessUndefined
	}
}

func toWGPUVertexFormat(f device.VertexFormat) wgpu.VertexFormat {
	switch f {
	case device.VertexFormatFloat32:
		return wgpu.VertexFormatFloat32
	case device.VertexFormatFloat32x2:
		return wgpu.VertexFormatFloat32x2
	case device.VertexFormatFloat32x3:
		return wgpu.VertexFormatFloat32x3
	case device.VertexFormatFloat32x4:
		return wgpu.VertexFormatFloat32x4
	case device.VertexFormatUint32:
		return wgpu.VertexFormatUint32
	case device.VertexFormatUint32x4:
		return wgpu.VertexFormatUint32x4
	default:
		return wgpu.VertexFormatSint32
	}
}

func toWGPUCullMode(c device.CullMode) wgpu.CullMode {
	switch c {
	case device.CullModeFront:
		return wgpu.CullModeFront
	case device.CullModeBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

func toWGPUCompare(c device.CompareFunction) wgpu.CompareFunction {
	switch c {
	case device.CompareFunctionLess:
		return wgpu.CompareFunctionLess
	case device.CompareFunctionLessEqual:
		return wgpu.CompareFunctionLessEqual
	case device.CompareFunctionAlways:
		return wgpu.CompareFunctionAlways
	default:
		return wgpu.CompareFunctionUndefined
	}
}

func toWGPUAddressMode(m device.AddressMode) wgpu.AddressMode {
	switch m {
	case device.AddressModeClampToEdge:
		return wgpu.AddressModeClampToEdge
	case device.AddressModeMirrorRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeRepeat
	}
}

func toWGPUFilterMode(m device.FilterMode) wgpu.FilterMode {
	if m == device.FilterModeNearest {
		return wgpu.FilterModeNearest
	}
	return wgpu.FilterModeLinear
}

func toWGPUMipmapFilterMode(m device.FilterMode) wgpu.MipmapFilterMode {
	if m == device.FilterModeNearest {
		return wgpu.MipmapFilterModeNearest
	}
	return wgpu.MipmapFilterModeLinear
}

func toWGPUIndexFormat(f device.IndexFormat) wgpu.IndexFormat {
	if f == device.IndexFormatUint16 {
		return wgpu.IndexFormatUint16
	}
	return wgpu.IndexFormatUint32
}

// toWGPULayoutEntry converts one layout slot. Exactly one of the binding layouts is
// expected to be set; the others stay zero, which WebGPU reads as "not this kind".
func toWGPULayoutEntry(e device.BindGroupLayoutEntry) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    e.Binding,
		Visibility: toWGPUShaderStage(e.Visibility),
	}
	switch {
	case e.Buffer != nil:
		entry.Buffer = wgpu.BufferBindingLayout{
			Type:           toWGPUBufferBindingType(e.Buffer.Type),
			MinBindingSize: e.Buffer.MinBindingSize,
		}
	case e.Sampler != nil:
		entry.Sampler = wgpu.SamplerBindingLayout{Type: toWGPUSamplerBindingType(e.Sampler.Type)}
	case e.Texture != nil:
		entry.Texture = wgpu.TextureBindingLayout{
			SampleType:    toWGPUSampleType(e.Texture.SampleType),
			ViewDimension: toWGPUViewDimension(e.Texture.ViewDimension),
		}
	case e.StorageTexture != nil:
		entry.StorageTexture = wgpu.StorageTextureBindingLayout{
			Access:        toWGPUStorageAccess(e.StorageTexture.Access),
			Format:        toWGPUTextureFormat(e.StorageTexture.Format),
			ViewDimension: toWGPUViewDimension(e.StorageTexture.ViewDimension),
		}
	}
	return entry
}

func toWGPUVertexBuffers(layouts []device.VertexBufferLayout) []wgpu.VertexBufferLayout {
	out := make([]wgpu.VertexBufferLayout, 0, len(layouts))
	for _, l := range layouts {
		attrs := make([]wgpu.VertexAttribute, 0, len(l.Attributes))
		for _, a := range l.Attributes {
			attrs = append(attrs, wgpu.VertexAttribute{
				Format:         toWGPUVertexFormat(a.Format),
				Offset:         a.Offset,
				ShaderLocation: a.ShaderLocation,
			})
		}
		out = append(out, wgpu.VertexBufferLayout{
			ArrayStride: l.ArrayStride,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes:  attrs,
		})
	}
	return out
}

func toWGPUTextureFormats(formats []device.TextureFormat) []wgpu.TextureFormat {
	out := make([]wgpu.TextureFormat, len(formats))
	for i, f := range formats {
		out[i] = toWGPUTextureFormat(f)
	}
	return out
}
