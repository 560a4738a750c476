package device

// Extent3D is the size of a texture or copy region.
type Extent3D struct {
	Width              uint32
	Height             uint32
	DepthOrArrayLayers uint32
}

// Origin3D is the texel origin of a copy region.
type Origin3D struct {
	X, Y, Z uint32
}

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage BufferUsage
}

// TextureDescriptor describes a 2D (optionally layered and mip-chained) texture to create.
type TextureDescriptor struct {
	Label         string
	Size          Extent3D
	Format        TextureFormat
	MipLevelCount uint32
	Usage         TextureUsage
}

// TextureViewDescriptor describes a view over a subset of a texture.
// Zero counts mean "all remaining" mip levels or layers.
type TextureViewDescriptor struct {
	Label           string
	Format          TextureFormat
	Dimension       TextureViewDimension
	BaseMipLevel    uint32
	MipLevelCount   uint32
	BaseArrayLayer  uint32
	ArrayLayerCount uint32
}

// SamplerDescriptor describes a sampler to create.
type SamplerDescriptor struct {
	Label        string
	AddressMode  AddressMode
	MagFilter    FilterMode
	MinFilter    FilterMode
	MipmapFilter FilterMode
	LodMaxClamp  float32
	Compare      CompareFunction
}

// ShaderModuleDescriptor carries WGSL program text.
type ShaderModuleDescriptor struct {
	Label string
	Code  string
}

// BufferBindingLayout is the layout of a buffer binding.
type BufferBindingLayout struct {
	Type           BufferBindingType
	MinBindingSize uint64
}

// SamplerBindingLayout is the layout of a sampler binding.
type SamplerBindingLayout struct {
	Type SamplerBindingType
}

// TextureBindingLayout is the layout of a sampled texture binding.
type TextureBindingLayout struct {
	SampleType    TextureSampleType
	ViewDimension TextureViewDimension
}

// StorageTextureBindingLayout is the layout of a storage texture binding.
type StorageTextureBindingLayout struct {
	Access        StorageTextureAccess
	Format        TextureFormat
	ViewDimension TextureViewDimension
}

// BindGroupLayoutEntry is one slot of a bind group layout. Exactly one of the
// binding layouts is set.
type BindGroupLayoutEntry struct {
	Binding        uint32
	Visibility     ShaderStage
	Buffer         *BufferBindingLayout
	Sampler        *SamplerBindingLayout
	Texture        *TextureBindingLayout
	StorageTexture *StorageTextureBindingLayout
}

// BindGroupLayoutDescriptor describes an ordered set of binding slots.
type BindGroupLayoutDescriptor struct {
	Label   string
	Entries []BindGroupLayoutEntry
}

// BindGroupEntry binds one concrete resource to a slot. Exactly one resource is set.
type BindGroupEntry struct {
	Binding     uint32
	Buffer      Buffer
	Sampler     Sampler
	TextureView TextureView
}

// BindGroupDescriptor describes a bind group realised against a layout.
type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

// PipelineLayoutDescriptor lists the bind group layouts of a pipeline, indexed by group.
type PipelineLayoutDescriptor struct {
	Label            string
	BindGroupLayouts []BindGroupLayout
}

// VertexAttribute is one attribute inside a vertex buffer.
type VertexAttribute struct {
	Format         VertexFormat
	Offset         uint64
	ShaderLocation uint32
}

// VertexBufferLayout describes one interleaved vertex buffer.
type VertexBufferLayout struct {
	ArrayStride uint64
	Attributes  []VertexAttribute
}

// DepthStencilState configures depth testing for a render pipeline.
type DepthStencilState struct {
	Format              TextureFormat
	DepthWriteEnabled   bool
	DepthCompare        CompareFunction
	DepthBias           int32
	DepthBiasSlopeScale float32
}

// RenderPipelineDescriptor describes a render pipeline. A nil Fragment
// module makes a depth-only pipeline with no color targets.
type RenderPipelineDescriptor struct {
	Label            string
	Layout           PipelineLayout
	VertexModule     ShaderModule
	VertexEntryPoint string
	VertexBuffers    []VertexBufferLayout
	FragmentModule   ShaderModule
	FragmentEntry    string
	ColorFormats     []TextureFormat
	CullMode         CullMode
	DepthStencil     *DepthStencilState
}

// ComputePipelineDescriptor describes a compute pipeline.
type ComputePipelineDescriptor struct {
	Label      string
	Layout     PipelineLayout
	Module     ShaderModule
	EntryPoint string
}

// RenderBundleEncoderDescriptor declares the attachment formats a bundle is compatible with.
type RenderBundleEncoderDescriptor struct {
	Label              string
	ColorFormats       []TextureFormat
	DepthStencilFormat TextureFormat
	SampleCount        uint32
}

// TextureCopy addresses one mip level and layer origin of a texture for copies and uploads.
type TextureCopy struct {
	Texture  Texture
	MipLevel uint32
	Origin   Origin3D
}

// TextureDataLayout describes the CPU-side layout of texture upload data.
type TextureDataLayout struct {
	Offset       uint64
	BytesPerRow  uint32
	RowsPerImage uint32
}
