package ibl

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/shader"
)

// PrefilterParamsSize is the byte size of the per-mip specular uniform block.
const PrefilterParamsSize = 16

var (
	tableOnce sync.Once
	table     *resource.Table
)

// Table returns the resource table of the precompute programs: the engine defaults plus
// the compute-only storage output, source and parameter bindings.
func Table() *resource.Table {
	tableOnce.Do(func() {
		table = precomputeTable()
	})
	return table
}

func precomputeTable() *resource.Table {
	return resource.DefaultTable().With(
		resource.Descriptor{
			Name:       shader.PrecomputeOutput,
			Kind:       resource.KindTextureArray,
			Visibility: device.ShaderStageCompute,
			StorageTexture: &device.StorageTextureBindingLayout{
				Access:        device.StorageTextureAccessWriteOnly,
				Format:        device.TextureFormatRGBA8Unorm,
				ViewDimension: device.TextureViewDimension2DArray,
			},
		},
		resource.Descriptor{
			Name:       shader.PrecomputeSource,
			Kind:       resource.KindTextureArray,
			Visibility: device.ShaderStageCompute,
			Texture: &device.TextureBindingLayout{
				SampleType:    device.TextureSampleTypeFloat,
				ViewDimension: device.TextureViewDimension2DArray,
			},
		},
		resource.Descriptor{
			Name:       shader.PrefilterParams,
			Kind:       resource.KindBuffer,
			Visibility: device.ShaderStageCompute,
			Buffer:     &device.BufferBindingLayout{Type: device.BufferBindingTypeUniform, MinBindingSize: PrefilterParamsSize},
		},
		resource.Descriptor{
			Name:       shader.BRDFLutOutput,
			Kind:       resource.KindTexture,
			Visibility: device.ShaderStageCompute,
			StorageTexture: &device.StorageTextureBindingLayout{
				Access:        device.StorageTextureAccessWriteOnly,
				Format:        device.TextureFormatRGBA8Unorm,
				ViewDimension: device.TextureViewDimension2D,
			},
		},
	)
}
