package renderer

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuDevice implements device.Device on top of a WebGPU device and its queue.
// Object creation is forwarded as-is; queue access is serialised with mu.
type wgpuDevice struct {
	mu        sync.Mutex
	device    *wgpu.Device
	queue     *wgpu.Queue
	preferred device.TextureFormat
}

var _ device.Device = &wgpuDevice{}

func newWGPUDevice(d *wgpu.Device, preferred device.TextureFormat) *wgpuDevice {
	return &wgpuDevice{
		device:    d,
		queue:     d.GetQueue(),
		preferred: preferred,
	}
}

func (d *wgpuDevice) PreferredFormat() device.TextureFormat {
	return d.preferred
}

func (d *wgpuDevice) CreateBuffer(desc device.BufferDescriptor) (device.Buffer, error) {
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: toWGPUBufferUsage(desc.Usage),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer %q: %w", desc.Label, err)
	}
	return &wgpuBuffer{buffer: buf, label: desc.Label, size: desc.Size}, nil
}

func (d *wgpuDevice) WriteBuffer(buf device.Buffer, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.queue.WriteBuffer(buf.(*wgpuBuffer).buffer, offset, data); err != nil {
		return fmt.Errorf("failed to write buffer %q: %w", buf.Label(), err)
	}
	return nil
}

func (d *wgpuDevice) CreateTexture(desc device.TextureDescriptor) (device.Texture, error) {
	mips := max(desc.MipLevelCount, 1)
	desc.MipLevelCount = mips
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              desc.Size.Width,
			Height:             desc.Size.Height,
			DepthOrArrayLayers: max(desc.Size.DepthOrArrayLayers, 1),
		},
		MipLevelCount: mips,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        toWGPUTextureFormat(desc.Format),
		Usage:         toWGPUTextureUsage(desc.Usage),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %q: %w", desc.Label, err)
	}
	return &wgpuTexture{texture: tex, desc: desc}, nil
}

func (d *wgpuDevice) WriteTexture(dst device.TextureCopy, data []byte, layout device.TextureDataLayout, size device.Extent3D) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.queue.WriteTexture(
		toWGPUImageCopy(dst),
		data,
		&wgpu.TextureDataLayout{
			Offset:       layout.Offset,
			BytesPerRow:  layout.BytesPerRow,
			RowsPerImage: layout.RowsPerImage,
		},
		toWGPUExtent(size),
	)
	if err != nil {
		return fmt.Errorf("failed to write texture %q: %w", dst.Texture.Label(), err)
	}
	return nil
}

func (d *wgpuDevice) CreateSampler(desc device.SamplerDescriptor) (device.Sampler, error) {
	mode := toWGPUAddressMode(desc.AddressMode)
	lodMax := desc.LodMaxClamp
	if lodMax == 0 {
		lodMax = 32
	}
	s, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         desc.Label,
		AddressModeU:  mode,
		AddressModeV:  mode,
		AddressModeW:  mode,
		MagFilter:     toWGPUFilterMode(desc.MagFilter),
		MinFilter:     toWGPUFilterMode(desc.MinFilter),
		MipmapFilter:  toWGPUMipmapFilterMode(desc.MipmapFilter),
		LodMinClamp:   0,
		LodMaxClamp:   lodMax,
		Compare:       toWGPUCompare(desc.Compare),
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler %q: %w", desc.Label, err)
	}
	return &wgpuSampler{sampler: s, comparison: desc.Compare != device.CompareFunctionUndefined}, nil
}

func (d *wgpuDevice) CreateShaderModule(desc device.ShaderModuleDescriptor) (device.ShaderModule, error) {
	m, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: desc.Code},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create shader module %q: %w", desc.Label, err)
	}
	return &wgpuShaderModule{module: m}, nil
}

func (d *wgpuDevice) CreateBindGroupLayout(desc device.BindGroupLayoutDescriptor) (device.BindGroupLayout, error) {
	entries := make([]wgpu.BindGroupLayoutEntry, 0, len(desc.Entries))
	for _, e := range desc.Entries {
		entries = append(entries, toWGPULayoutEntry(e))
	}
	l, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group layout %q: %w", desc.Label, err)
	}
	return &wgpuBindGroupLayout{layout: l}, nil
}

func (d *wgpuDevice) CreateBindGroup(desc device.BindGroupDescriptor) (device.BindGroup, error) {
	entries := make([]wgpu.BindGroupEntry, 0, len(desc.Entries))
	for _, e := range desc.Entries {
		entry := wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Buffer != nil:
			entry.Buffer = e.Buffer.(*wgpuBuffer).buffer
			entry.Size = wgpu.WholeSize
		case e.Sampler != nil:
			entry.Sampler = e.Sampler.(*wgpuSampler).sampler
		case e.TextureView != nil:
			entry.TextureView = e.TextureView.(*wgpuTextureView).view
		}
		entries = append(entries, entry)
	}
	g, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  desc.Layout.(*wgpuBindGroupLayout).layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bind group %q: %w", desc.Label, err)
	}
	return &wgpuBindGroup{group: g}, nil
}

func (d *wgpuDevice) CreatePipelineLayout(desc device.PipelineLayoutDescriptor) (device.PipelineLayout, error) {
	layouts := make([]*wgpu.BindGroupLayout, len(desc.BindGroupLayouts))
	for i, l := range desc.BindGroupLayouts {
		layouts[i] = l.(*wgpuBindGroupLayout).layout
	}
	l, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline layout %q: %w", desc.Label, err)
	}
	return &wgpuPipelineLayout{layout: l}, nil
}

func (d *wgpuDevice) CreateRenderPipeline(desc device.RenderPipelineDescriptor) (device.RenderPipeline, error) {
	rp := &wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: desc.Layout.(*wgpuPipelineLayout).layout,
		Vertex: wgpu.VertexState{
			Module:     desc.VertexModule.(*wgpuShaderModule).module,
			EntryPoint: desc.VertexEntryPoint,
			Buffers:    toWGPUVertexBuffers(desc.VertexBuffers),
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  toWGPUCullMode(desc.CullMode),
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}

	// No fragment module means a depth-only pipeline with no color targets.
	if desc.FragmentModule != nil {
		targets := make([]wgpu.ColorTargetState, 0, len(desc.ColorFormats))
		for _, f := range desc.ColorFormats {
			targets = append(targets, wgpu.ColorTargetState{
				Format:    toWGPUTextureFormat(f),
				WriteMask: wgpu.ColorWriteMaskAll,
			})
		}
		rp.Fragment = &wgpu.FragmentState{
			Module:     desc.FragmentModule.(*wgpuShaderModule).module,
			EntryPoint: desc.FragmentEntry,
			Targets:    targets,
		}
	}

	if ds := desc.DepthStencil; ds != nil {
		rp.DepthStencil = &wgpu.DepthStencilState{
			Format:              toWGPUTextureFormat(ds.Format),
			DepthWriteEnabled:   ds.DepthWriteEnabled,
			DepthCompare:        toWGPUCompare(ds.DepthCompare),
			DepthBias:           ds.DepthBias,
			DepthBiasSlopeScale: ds.DepthBiasSlopeScale,
			StencilFront:        wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:         wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}

	p, err := d.device.CreateRenderPipeline(rp)
	if err != nil {
		return nil, fmt.Errorf("failed to create render pipeline %q: %w", desc.Label, err)
	}
	return &wgpuRenderPipeline{pipeline: p}, nil
}

func (d *wgpuDevice) CreateComputePipeline(desc device.ComputePipelineDescriptor) (device.ComputePipeline, error) {
	p, err := d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  desc.Label,
		Layout: desc.Layout.(*wgpuPipelineLayout).layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     desc.Module.(*wgpuShaderModule).module,
			EntryPoint: desc.EntryPoint,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create compute pipeline %q: %w", desc.Label, err)
	}
	return &wgpuComputePipeline{pipeline: p}, nil
}

func (d *wgpuDevice) CreateCommandEncoder(label string) (device.CommandEncoder, error) {
	enc, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("failed to create command encoder %q: %w", label, err)
	}
	return &wgpuCommandEncoder{encoder: enc}, nil
}

func (d *wgpuDevice) CreateRenderBundleEncoder(desc device.RenderBundleEncoderDescriptor) (device.RenderBundleEncoder, error) {
	enc, err := d.device.CreateRenderBundleEncoder(&wgpu.RenderBundleEncoderDescriptor{
		Label:              desc.Label,
		ColorFormats:       toWGPUTextureFormats(desc.ColorFormats),
		DepthStencilFormat: toWGPUTextureFormat(desc.DepthStencilFormat),
		SampleCount:        max(desc.SampleCount, 1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create render bundle encoder %q: %w", desc.Label, err)
	}
	return &wgpuBundleEncoder{encoder: enc}, nil
}

// Submit queues the command buffers and releases them once queued.
func (d *wgpuDevice) Submit(buffers ...device.CommandBuffer) {
	if len(buffers) == 0 {
		return
	}
	cmds := make([]*wgpu.CommandBuffer, len(buffers))
	for i, b := range buffers {
		cmds[i] = b.(*wgpuCommandBuffer).buffer
	}

	d.mu.Lock()
	d.queue.Submit(cmds...)
	d.mu.Unlock()

	for _, b := range buffers {
		b.Release()
	}
}

// WaitIdle blocks on the device until every submitted command buffer has completed.
func (d *wgpuDevice) WaitIdle() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.device.Poll(true, nil)
	return nil
}

// Release drops the queue and device.
func (d *wgpuDevice) Release() {
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
}
