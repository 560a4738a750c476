package renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestTextureFormatRoundTrip(t *testing.T) {
	for f := range wgpuTextureFormats {
		assert.Equal(t, f, fromWGPUTextureFormat(toWGPUTextureFormat(f)), f.String())
	}
	assert.Equal(t, device.TextureFormatUndefined, fromWGPUTextureFormat(wgpu.TextureFormatR8Unorm))
}

func TestUsageBitsetsCombine(t *testing.T) {
	assert.Equal(t,
		wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst,
		toWGPUBufferUsage(device.BufferUsageUniform|device.BufferUsageCopyDst))
	assert.Equal(t,
		wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding,
		toWGPUTextureUsage(device.TextureUsageRenderAttachment|device.TextureUsageTextureBinding))
	assert.Equal(t,
		wgpu.ShaderStageVertex|wgpu.ShaderStageFragment,
		toWGPUShaderStage(device.ShaderStageVertex|device.ShaderStageFragment))
}

func TestLayoutEntrySetsOneKind(t *testing.T) {
	entry := toWGPULayoutEntry(device.BindGroupLayoutEntry{
		Binding:    3,
		Visibility: device.ShaderStageFragment,
		Texture: &device.TextureBindingLayout{
			SampleType:    device.TextureSampleTypeDepth,
			ViewDimension: device.TextureViewDimension2D,
		},
	})
	assert.Equal(t, uint32(3), entry.Binding)
	assert.Equal(t, wgpu.TextureSampleTypeDepth, entry.Texture.SampleType)
	assert.Equal(t, wgpu.BufferBindingTypeUndefined, entry.Buffer.Type)
	assert.Equal(t, wgpu.SamplerBindingTypeUndefined, entry.Sampler.Type)

	sampler := toWGPULayoutEntry(device.BindGroupLayoutEntry{
		Sampler: &device.SamplerBindingLayout{Type: device.SamplerBindingTypeComparison},
	})
	assert.Equal(t, wgpu.SamplerBindingTypeComparison, sampler.Sampler.Type)
}

func TestVertexBuffersKeepAttributeOrder(t *testing.T) {
	out := toWGPUVertexBuffers([]device.VertexBufferLayout{{
		ArrayStride: 32,
		Attributes: []device.VertexAttribute{
			{Format: device.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: device.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: device.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
		},
	}})
	if assert.Len(t, out, 1) {
		assert.Equal(t, uint64(32), out[0].ArrayStride)
		assert.Equal(t, wgpu.VertexStepModeVertex, out[0].StepMode)
		assert.Equal(t, uint64(24), out[0].Attributes[2].Offset)
		assert.Equal(t, wgpu.VertexFormatFloat32x2, out[0].Attributes[2].Format)
	}
}

func TestCompareAndSamplerModes(t *testing.T) {
	assert.Equal(t, wgpu.CompareFunctionLessEqual, toWGPUCompare(device.CompareFunctionLessEqual))
	assert.Equal(t, wgpu.CompareFunctionUndefined, toWGPUCompare(device.CompareFunctionUndefined))
	assert.Equal(t, wgpu.AddressModeClampToEdge, toWGPUAddressMode(device.AddressModeClampToEdge))
	assert.Equal(t, wgpu.MipmapFilterModeNearest, toWGPUMipmapFilterMode(device.FilterModeNearest))
	assert.Equal(t, wgpu.CullModeBack, toWGPUCullMode(device.CullModeBack))
}
