// Package device declares the graphics-device surface the engine core consumes.
//
// The core never talks to a concrete GPU API. Everything it needs (layouts, bind
// groups, programs, pipelines, command and bundle encoders, submission and the
// completion wait) goes through the Device interface and the opaque handle
// interfaces below. The renderer package provides the WebGPU implementation and
// devicetest provides a recording fake.
package device

// Releasable is implemented by every GPU handle.
type Releasable interface {
	Release()
}

// Buffer is a GPU buffer handle.
type Buffer interface {
	Releasable
	Label() string
	Size() uint64
}

// Texture is a GPU texture handle. Views are created from it on demand.
type Texture interface {
	Releasable
	Label() string
	Format() TextureFormat
	Size() Extent3D
	MipLevelCount() uint32

	// CreateView creates a view over the texture. A nil descriptor views the
	// whole texture with its native format and dimension.
	CreateView(desc *TextureViewDescriptor) (TextureView, error)
}

// TextureView is a view over a texture subresource range.
type TextureView interface {
	Releasable
	ViewDimension() TextureViewDimension
}

// Sampler is a GPU sampler handle.
type Sampler interface {
	Releasable
	Comparison() bool
}

// ShaderModule is a compiled program handle.
type ShaderModule interface {
	Releasable
}

// BindGroupLayout is a realised bind group layout.
type BindGroupLayout interface {
	Releasable
}

// BindGroup is a realised set of resource bindings.
type BindGroup interface {
	Releasable
}

// PipelineLayout is the ordered set of bind group layouts of a pipeline.
type PipelineLayout interface {
	Releasable
}

// RenderPipeline is a compiled render pipeline.
type RenderPipeline interface {
	Releasable
}

// ComputePipeline is a compiled compute pipeline.
type ComputePipeline interface {
	Releasable
}

// CommandBuffer is a finished, submittable command stream.
type CommandBuffer interface {
	Releasable
}

// RenderBundle is an immutable, replayable draw-command stream.
type RenderBundle interface {
	Releasable
	Label() string
}

// ComputePassEncoder records compute dispatches.
type ComputePassEncoder interface {
	SetPipeline(p ComputePipeline)
	SetBindGroup(index uint32, group BindGroup)
	DispatchWorkgroups(x, y, z uint32)
	End()
}

// CommandEncoder records passes and copies into a command buffer.
type CommandEncoder interface {
	Releasable
	BeginComputePass(label string) ComputePassEncoder
	CopyTextureToTexture(src, dst TextureCopy, size Extent3D) error
	Finish(label string) (CommandBuffer, error)
}

// RenderBundleEncoder records draw commands into a RenderBundle.
type RenderBundleEncoder interface {
	SetPipeline(p RenderPipeline)
	SetBindGroup(index uint32, group BindGroup)
	SetVertexBuffer(slot uint32, buf Buffer)
	SetIndexBuffer(buf Buffer, format IndexFormat)
	Draw(vertexCount, instanceCount uint32)
	DrawIndexed(indexCount, instanceCount uint32)
	Finish(label string) (RenderBundle, error)
}

// Device is the graphics-device collaborator.
//
// Create* methods are synchronous. Callers that want asynchronous pipeline
// compilation submit the synchronous call to a worker pool and await the
// returned handle, so implementations must be safe for concurrent use.
type Device interface {
	// PreferredFormat returns the color format of the presentation surface.
	PreferredFormat() TextureFormat

	CreateBuffer(desc BufferDescriptor) (Buffer, error)
	WriteBuffer(buf Buffer, offset uint64, data []byte) error
	CreateTexture(desc TextureDescriptor) (Texture, error)
	WriteTexture(dst TextureCopy, data []byte, layout TextureDataLayout, size Extent3D) error
	CreateSampler(desc SamplerDescriptor) (Sampler, error)
	CreateShaderModule(desc ShaderModuleDescriptor) (ShaderModule, error)
	CreateBindGroupLayout(desc BindGroupLayoutDescriptor) (BindGroupLayout, error)
	CreateBindGroup(desc BindGroupDescriptor) (BindGroup, error)
	CreatePipelineLayout(desc PipelineLayoutDescriptor) (PipelineLayout, error)
	CreateRenderPipeline(desc RenderPipelineDescriptor) (RenderPipeline, error)
	CreateComputePipeline(desc ComputePipelineDescriptor) (ComputePipeline, error)
	CreateCommandEncoder(label string) (CommandEncoder, error)
	CreateRenderBundleEncoder(desc RenderBundleEncoderDescriptor) (RenderBundleEncoder, error)

	// Submit queues finished command buffers for execution.
	Submit(buffers ...CommandBuffer)

	// WaitIdle blocks until all submitted work has completed.
	WaitIdle() error
}
