package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/cogentcore/webgpu/wgpu"
)

// The wrappers below carry the WebGPU objects behind the device handle interfaces.
// Labels and sizes are kept on the Go side so callers never query the native object.

type wgpuBuffer struct {
	buffer *wgpu.Buffer
	label  string
	size   uint64
}

func (b *wgpuBuffer) Label() string { return b.label }
func (b *wgpuBuffer) Size() uint64  { return b.size }
func (b *wgpuBuffer) Release()      { b.buffer.Release() }

type wgpuTexture struct {
	texture *wgpu.Texture
	desc    device.TextureDescriptor
}

func (t *wgpuTexture) Label() string                { return t.desc.Label }
func (t *wgpuTexture) Format() device.TextureFormat { return t.desc.Format }
func (t *wgpuTexture) Size() device.Extent3D        { return t.desc.Size }
func (t *wgpuTexture) MipLevelCount() uint32        { return t.desc.MipLevelCount }
func (t *wgpuTexture) Release()                     { t.texture.Release() }

// CreateView creates a view over the texture. A nil descriptor views the whole texture.
func (t *wgpuTexture) CreateView(desc *device.TextureViewDescriptor) (device.TextureView, error) {
	if desc == nil {
		view, err := t.texture.CreateView(nil)
		if err != nil {
			return nil, err
		}
		dim := device.TextureViewDimension2D
		if t.desc.Size.DepthOrArrayLayers > 1 {
			dim = device.TextureViewDimension2DArray
		}
		return &wgpuTextureView{view: view, dimension: dim}, nil
	}

	mips := desc.MipLevelCount
	if mips == 0 {
		mips = t.desc.MipLevelCount - desc.BaseMipLevel
	}
	layers := desc.ArrayLayerCount
	if layers == 0 {
		layers = t.desc.Size.DepthOrArrayLayers - desc.BaseArrayLayer
	}
	format := desc.Format
	if format == device.TextureFormatUndefined {
		format = t.desc.Format
	}
	view, err := t.texture.CreateView(&wgpu.TextureViewDescriptor{
		Label:           desc.Label,
		Format:          toWGPUTextureFormat(format),
		Dimension:       toWGPUViewDimension(desc.Dimension),
		BaseMipLevel:    desc.BaseMipLevel,
		MipLevelCount:   mips,
		BaseArrayLayer:  desc.BaseArrayLayer,
		ArrayLayerCount: layers,
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuTextureView{view: view, dimension: desc.Dimension}, nil
}

type wgpuTextureView struct {
	view      *wgpu.TextureView
	dimension device.TextureViewDimension
}

func (v *wgpuTextureView) ViewDimension() device.TextureViewDimension { return v.dimension }
func (v *wgpuTextureView) Release()                                   { v.view.Release() }

type wgpuSampler struct {
	sampler    *wgpu.Sampler
	comparison bool
}

func (s *wgpuSampler) Comparison() bool { return s.comparison }
func (s *wgpuSampler) Release()         { s.sampler.Release() }

type wgpuShaderModule struct{ module *wgpu.ShaderModule }

func (m *wgpuShaderModule) Release() { m.module.Release() }

type wgpuBindGroupLayout struct{ layout *wgpu.BindGroupLayout }

func (l *wgpuBindGroupLayout) Release() { l.layout.Release() }

type wgpuBindGroup struct{ group *wgpu.BindGroup }

func (g *wgpuBindGroup) Release() { g.group.Release() }

type wgpuPipelineLayout struct{ layout *wgpu.PipelineLayout }

func (l *wgpuPipelineLayout) Release() { l.layout.Release() }

type wgpuRenderPipeline struct{ pipeline *wgpu.RenderPipeline }

func (p *wgpuRenderPipeline) Release() { p.pipeline.Release() }

type wgpuComputePipeline struct{ pipeline *wgpu.ComputePipeline }

func (p *wgpuComputePipeline) Release() { p.pipeline.Release() }

type wgpuCommandBuffer struct{ buffer *wgpu.CommandBuffer }

func (c *wgpuCommandBuffer) Release() { c.buffer.Release() }

type wgpuRenderBundle struct {
	bundle *wgpu.RenderBundle
	label  string
}

func (b *wgpuRenderBundle) Label() string { return b.label }
func (b *wgpuRenderBundle) Release()      { b.bundle.Release() }

type wgpuComputePass struct{ pass *wgpu.ComputePassEncoder }

func (p *wgpuComputePass) SetPipeline(pipeline device.ComputePipeline) {
	p.pass.SetPipeline(pipeline.(*wgpuComputePipeline).pipeline)
}

func (p *wgpuComputePass) SetBindGroup(index uint32, group device.BindGroup) {
	p.pass.SetBindGroup(index, group.(*wgpuBindGroup).group, nil)
}

func (p *wgpuComputePass) DispatchWorkgroups(x, y, z uint32) {
	p.pass.DispatchWorkgroups(x, y, z)
}

func (p *wgpuComputePass) End() {
	p.pass.End()
	p.pass.Release()
}

type wgpuCommandEncoder struct{ encoder *wgpu.CommandEncoder }

func (e *wgpuCommandEncoder) Release() {
	if e.encoder != nil {
		e.encoder.Release()
		e.encoder = nil
	}
}

func (e *wgpuCommandEncoder) BeginComputePass(label string) device.ComputePassEncoder {
	return &wgpuComputePass{pass: e.encoder.BeginComputePass(&wgpu.ComputePassDescriptor{Label: label})}
}

func (e *wgpuCommandEncoder) CopyTextureToTexture(src, dst device.TextureCopy, size device.Extent3D) error {
	if err := e.encoder.CopyTextureToTexture(toWGPUImageCopy(src), toWGPUImageCopy(dst), toWGPUExtent(size)); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src.Texture.Label(), dst.Texture.Label(), err)
	}
	return nil
}

func (e *wgpuCommandEncoder) Finish(label string) (device.CommandBuffer, error) {
	cmd, err := e.encoder.Finish(&wgpu.CommandBufferDescriptor{Label: label})
	if err != nil {
		return nil, err
	}
	e.Release()
	return &wgpuCommandBuffer{buffer: cmd}, nil
}

type wgpuBundleEncoder struct{ encoder *wgpu.RenderBundleEncoder }

func (e *wgpuBundleEncoder) SetPipeline(p device.RenderPipeline) {
	e.encoder.SetPipeline(p.(*wgpuRenderPipeline).pipeline)
}

func (e *wgpuBundleEncoder) SetBindGroup(index uint32, group device.BindGroup) {
	e.encoder.SetBindGroup(index, group.(*wgpuBindGroup).group, nil)
}

func (e *wgpuBundleEncoder) SetVertexBuffer(slot uint32, buf device.Buffer) {
	e.encoder.SetVertexBuffer(slot, buf.(*wgpuBuffer).buffer, 0, wgpu.WholeSize)
}

func (e *wgpuBundleEncoder) SetIndexBuffer(buf device.Buffer, format device.IndexFormat) {
	e.encoder.SetIndexBuffer(buf.(*wgpuBuffer).buffer, toWGPUIndexFormat(format), 0, wgpu.WholeSize)
}

func (e *wgpuBundleEncoder) Draw(vertexCount, instanceCount uint32) {
	e.encoder.Draw(vertexCount, instanceCount, 0, 0)
}

func (e *wgpuBundleEncoder) DrawIndexed(indexCount, instanceCount uint32) {
	e.encoder.DrawIndexed(indexCount, instanceCount, 0, 0, 0)
}

func (e *wgpuBundleEncoder) Finish(label string) (device.RenderBundle, error) {
	bundle := e.encoder.Finish(&wgpu.RenderBundleDescriptor{Label: label})
	e.encoder.Release()
	return &wgpuRenderBundle{bundle: bundle, label: label}, nil
}

func toWGPUImageCopy(c device.TextureCopy) *wgpu.ImageCopyTexture {
	return &wgpu.ImageCopyTexture{
		Texture:  c.Texture.(*wgpuTexture).texture,
		MipLevel: c.MipLevel,
		Origin:   wgpu.Origin3D{X: c.Origin.X, Y: c.Origin.Y, Z: c.Origin.Z},
		Aspect:   wgpu.TextureAspectAll,
	}
}

func toWGPUExtent(e device.Extent3D) *wgpu.Extent3D {
	return &wgpu.Extent3D{Width: e.Width, Height: e.Height, DepthOrArrayLayers: e.DepthOrArrayLayers}
}

var (
	_ device.Buffer              = &wgpuBuffer{}
	_ device.Texture             = &wgpuTexture{}
	_ device.TextureView         = &wgpuTextureView{}
	_ device.Sampler             = &wgpuSampler{}
	_ device.RenderBundle        = &wgpuRenderBundle{}
	_ device.CommandEncoder      = &wgpuCommandEncoder{}
	_ device.RenderBundleEncoder = &wgpuBundleEncoder{}
	_ device.ComputePassEncoder  = &wgpuComputePass{}
)
