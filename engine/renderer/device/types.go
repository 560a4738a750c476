package device

// ShaderStage is a bit set of the pipeline stages that may access a binding.
type ShaderStage uint32

const ShaderStageNone ShaderStage = 0

const (
	ShaderStageVertex ShaderStage = 1 << iota
	ShaderStageFragment
	ShaderStageCompute
)

// Has reports whether every stage in other is also set in s.
func (s ShaderStage) Has(other ShaderStage) bool {
	return s&other == other
}

// TextureFormat identifies a texel format understood by the device.
type TextureFormat int

const (
	TextureFormatUndefined TextureFormat = iota
	TextureFormatRGBA8Unorm
	TextureFormatRGBA8UnormSrgb
	TextureFormatBGRA8Unorm
	TextureFormatBGRA8UnormSrgb
	TextureFormatRGBA16Float
	TextureFormatRGBA32Float
	TextureFormatDepth32Float
)

var textureFormatNames = map[TextureFormat]string{
	TextureFormatUndefined:      "undefined",
	TextureFormatRGBA8Unorm:     "rgba8unorm",
	TextureFormatRGBA8UnormSrgb: "rgba8unorm-srgb",
	TextureFormatBGRA8Unorm:     "bgra8unorm",
	TextureFormatBGRA8UnormSrgb: "bgra8unorm-srgb",
	TextureFormatRGBA16Float:    "rgba16float",
	TextureFormatRGBA32Float:    "rgba32float",
	TextureFormatDepth32Float:   "depth32float",
}

func (f TextureFormat) String() string {
	if name, ok := textureFormatNames[f]; ok {
		return name
	}
	return "unknown"
}

// BytesPerTexel returns the size of one texel, or 0 for formats that cannot be uploaded from the CPU.
func (f TextureFormat) BytesPerTexel() uint32 {
	switch f {
	case TextureFormatRGBA8Unorm, TextureFormatRGBA8UnormSrgb, TextureFormatBGRA8Unorm, TextureFormatBGRA8UnormSrgb:
		return 4
	case TextureFormatRGBA16Float:
		return 8
	case TextureFormatRGBA32Float:
		return 16
	default:
		return 0
	}
}

// TextureViewDimension is the dimensionality a texture view exposes to shaders.
type TextureViewDimension int

const (
	TextureViewDimensionUndefined TextureViewDimension = iota
	TextureViewDimension2D
	TextureViewDimension2DArray
	TextureViewDimensionCube
	TextureViewDimensionCubeArray
)

func (d TextureViewDimension) String() string {
	switch d {
	case TextureViewDimension2D:
		return "2d"
	case TextureViewDimension2DArray:
		return "2d-array"
	case TextureViewDimensionCube:
		return "cube"
	case TextureViewDimensionCubeArray:
		return "cube-array"
	default:
		return "undefined"
	}
}

// TextureSampleType is the sample type a texture binding declares.
type TextureSampleType int

const (
	TextureSampleTypeUndefined TextureSampleType = iota
	TextureSampleTypeFloat
	TextureSampleTypeUnfilterableFloat
	TextureSampleTypeDepth
)

// SamplerBindingType is the sampler variant a sampler binding declares.
type SamplerBindingType int

const (
	SamplerBindingTypeUndefined SamplerBindingType = iota
	SamplerBindingTypeFiltering
	SamplerBindingTypeNonFiltering
	SamplerBindingTypeComparison
)

// BufferBindingType is the address space a buffer binding declares.
type BufferBindingType int

const (
	BufferBindingTypeUndefined BufferBindingType = iota
	BufferBindingTypeUniform
	BufferBindingTypeStorage
	BufferBindingTypeReadOnlyStorage
)

// StorageTextureAccess is the access mode of a storage texture binding.
type StorageTextureAccess int

const (
	StorageTextureAccessUndefined StorageTextureAccess = iota
	StorageTextureAccessWriteOnly
	StorageTextureAccessReadOnly
)

// BufferUsage is a bit set of the ways a buffer may be used.
type BufferUsage uint32

const (
	BufferUsageCopyDst BufferUsage = 1 << iota
	BufferUsageCopySrc
	BufferUsageUniform
	BufferUsageStorage
	BufferUsageVertex
	BufferUsageIndex
)

// TextureUsage is a bit set of the ways a texture may be used.
type TextureUsage uint32

const (
	TextureUsageCopyDst TextureUsage = 1 << iota
	TextureUsageCopySrc
	TextureUsageTextureBinding
	TextureUsageStorageBinding
	TextureUsageRenderAttachment
)

// IndexFormat is the element type of an index buffer.
type IndexFormat int

const (
	IndexFormatUint32 IndexFormat = iota
	IndexFormatUint16
)

// VertexFormat is the type of a single vertex attribute.
type VertexFormat int

const (
	VertexFormatFloat32 VertexFormat = iota
	VertexFormatFloat32x2
	VertexFormatFloat32x3
	VertexFormatFloat32x4
	VertexFormatUint32
	VertexFormatUint32x4
	VertexFormatSint32
)

// Size returns the byte size of one attribute of the format.
func (f VertexFormat) Size() uint64 {
	switch f {
	case VertexFormatFloat32, VertexFormatUint32, VertexFormatSint32:
		return 4
	case VertexFormatFloat32x2:
		return 8
	case VertexFormatFloat32x3:
		return 12
	case VertexFormatFloat32x4, VertexFormatUint32x4:
		return 16
	default:
		return 0
	}
}

// CullMode selects which triangle faces are discarded.
type CullMode int

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

// CompareFunction is a depth or sampler comparison.
type CompareFunction int

const (
	CompareFunctionUndefined CompareFunction = iota
	CompareFunctionLess
	CompareFunctionLessEqual
	CompareFunctionAlways
)

// AddressMode is the sampler addressing mode outside [0, 1].
type AddressMode int

const (
	AddressModeRepeat AddressMode = iota
	AddressModeClampToEdge
	AddressModeMirrorRepeat
)

// FilterMode is the sampler filtering mode.
type FilterMode int

const (
	FilterModeLinear FilterMode = iota
	FilterModeNearest
)
