// Package devicetest provides a recording device.Device for tests.
//
// Every handle it returns is a concrete pointer type carrying the descriptor it
// was created from, and every encoder records its commands, so tests can assert
// on layouts, bind groups, dispatch sizes and bundle draw order without a GPU.
package devicetest

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
)

// Op names a recorded encoder command.
type Op string

const (
	OpSetPipeline     Op = "setPipeline"
	OpSetBindGroup    Op = "setBindGroup"
	OpSetVertexBuffer Op = "setVertexBuffer"
	OpSetIndexBuffer  Op = "setIndexBuffer"
	OpDraw            Op = "draw"
	OpDrawIndexed     Op = "drawIndexed"
	OpBeginCompute    Op = "beginComputePass"
	OpDispatch        Op = "dispatch"
	OpEndCompute      Op = "endComputePass"
	OpCopyTexture     Op = "copyTextureToTexture"
)

// Command is one recorded encoder command.
type Command struct {
	Op        Op
	Index     uint32
	Pipeline  any
	BindGroup *BindGroup
	Buffer    *Buffer
	Counts    [3]uint32
	Src, Dst  device.TextureCopy
	Size      device.Extent3D
}

type released struct {
	mu       sync.Mutex
	released bool
}

func (r *released) Release() {
	r.mu.Lock()
	r.released = true
	r.mu.Unlock()
}

// Released reports whether Release has been called on the handle.
func (r *released) Released() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}

// Buffer is a recorded buffer. Data holds every byte written through WriteBuffer.
type Buffer struct {
	released
	Desc   device.BufferDescriptor
	mu     sync.Mutex
	data   []byte
	writes int
}

func (b *Buffer) Label() string { return b.Desc.Label }
func (b *Buffer) Size() uint64  { return b.Desc.Size }

// Data returns a copy of the buffer contents.
func (b *Buffer) Data() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.data...)
}

// Writes returns how many WriteBuffer calls targeted this buffer.
func (b *Buffer) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

// Texture is a recorded texture.
type Texture struct {
	released
	Desc  device.TextureDescriptor
	mu    sync.Mutex
	views []*TextureView
}

func (t *Texture) Label() string                { return t.Desc.Label }
func (t *Texture) Format() device.TextureFormat { return t.Desc.Format }
func (t *Texture) Size() device.Extent3D        { return t.Desc.Size }

func (t *Texture) MipLevelCount() uint32 {
	if t.Desc.MipLevelCount == 0 {
		return 1
	}
	return t.Desc.MipLevelCount
}

func (t *Texture) CreateView(desc *device.TextureViewDescriptor) (device.TextureView, error) {
	resolved := device.TextureViewDescriptor{}
	if desc != nil {
		resolved = *desc
	}
	if resolved.Format == device.TextureFormatUndefined {
		resolved.Format = t.Desc.Format
	}
	if resolved.Dimension == device.TextureViewDimensionUndefined {
		resolved.Dimension = device.TextureViewDimension2D
		if t.Desc.Size.DepthOrArrayLayers > 1 {
			resolved.Dimension = device.TextureViewDimension2DArray
		}
	}
	v := &TextureView{Texture: t, Desc: resolved}
	t.mu.Lock()
	t.views = append(t.views, v)
	t.mu.Unlock()
	return v, nil
}

// Views returns every view created from the texture.
func (t *Texture) Views() []*TextureView {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*TextureView(nil), t.views...)
}

// TextureView is a recorded view with its resolved descriptor.
type TextureView struct {
	released
	Texture *Texture
	Desc    device.TextureViewDescriptor
}

func (v *TextureView) ViewDimension() device.TextureViewDimension { return v.Desc.Dimension }

// Sampler is a recorded sampler.
type Sampler struct {
	released
	Desc device.SamplerDescriptor
}

func (s *Sampler) Comparison() bool { return s.Desc.Compare != device.CompareFunctionUndefined }

// ShaderModule is a recorded program.
type ShaderModule struct {
	released
	Desc device.ShaderModuleDescriptor
}

// BindGroupLayout is a recorded layout.
type BindGroupLayout struct {
	released
	Desc device.BindGroupLayoutDescriptor
}

// BindGroup is a recorded bind group.
type BindGroup struct {
	released
	Desc device.BindGroupDescriptor
}

// PipelineLayout is a recorded pipeline layout.
type PipelineLayout struct {
	released
	Desc device.PipelineLayoutDescriptor
}

// RenderPipeline is a recorded render pipeline.
type RenderPipeline struct {
	released
	Desc device.RenderPipelineDescriptor
}

// ComputePipeline is a recorded compute pipeline.
type ComputePipeline struct {
	released
	Desc device.ComputePipelineDescriptor
}

// CommandBuffer is a finished command encoder recording.
type CommandBuffer struct {
	released
	Label    string
	Commands []Command
}

// RenderBundle is a finished bundle recording.
type RenderBundle struct {
	released
	Desc     device.RenderBundleEncoderDescriptor
	label    string
	Commands []Command
}

func (b *RenderBundle) Label() string { return b.label }

// Draws returns the draw commands of the bundle in recorded order.
func (b *RenderBundle) Draws() []Command {
	out := make([]Command, 0)
	for _, c := range b.Commands {
		if c.Op == OpDraw || c.Op == OpDrawIndexed {
			out = append(out, c)
		}
	}
	return out
}

// Dispatches returns the dispatch commands of the command buffer in recorded order.
func (c *CommandBuffer) Dispatches() []Command {
	out := make([]Command, 0)
	for _, cmd := range c.Commands {
		if cmd.Op == OpDispatch {
			out = append(out, cmd)
		}
	}
	return out
}

// Device is a thread-safe recording implementation of device.Device.
type Device struct {
	mu sync.Mutex

	// Format is returned by PreferredFormat.
	Format device.TextureFormat

	// Fail makes the named method (e.g. "CreateComputePipeline", "WriteTexture" or the
	// encoder's "CopyTextureToTexture") return the mapped error.
	Fail map[string]error

	Buffers          []*Buffer
	Textures         []*Texture
	Samplers         []*Sampler
	ShaderModules    []*ShaderModule
	BindGroupLayouts []*BindGroupLayout
	BindGroups       []*BindGroup
	PipelineLayouts  []*PipelineLayout
	RenderPipelines  []*RenderPipeline
	ComputePipelines []*ComputePipeline
	Bundles          []*RenderBundle
	Submitted        []*CommandBuffer
	TextureWrites    int
	WaitCount        int
}

var _ device.Device = &Device{}

// New creates a recording device presenting to bgra8unorm.
func New() *Device {
	return &Device{Format: device.TextureFormatBGRA8Unorm, Fail: map[string]error{}}
}

func (d *Device) fail(method string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err, ok := d.Fail[method]; ok {
		return fmt.Errorf("devicetest: %s: %w", method, err)
	}
	return nil
}

func (d *Device) PreferredFormat() device.TextureFormat { return d.Format }

func (d *Device) CreateBuffer(desc device.BufferDescriptor) (device.Buffer, error) {
	if err := d.fail("CreateBuffer"); err != nil {
		return nil, err
	}
	b := &Buffer{Desc: desc, data: make([]byte, desc.Size)}
	d.mu.Lock()
	d.Buffers = append(d.Buffers, b)
	d.mu.Unlock()
	return b, nil
}

func (d *Device) WriteBuffer(buf device.Buffer, offset uint64, data []byte) error {
	if err := d.fail("WriteBuffer"); err != nil {
		return err
	}
	b, ok := buf.(*Buffer)
	if !ok {
		return fmt.Errorf("devicetest: WriteBuffer: unexpected buffer type %T", buf)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	end := offset + uint64(len(data))
	if end > uint64(len(b.data)) {
		grown := make([]byte, end)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[offset:end], data)
	b.writes++
	return nil
}

func (d *Device) CreateTexture(desc device.TextureDescriptor) (device.Texture, error) {
	if err := d.fail("CreateTexture"); err != nil {
		return nil, err
	}
	t := &Texture{Desc: desc}
	d.mu.Lock()
	d.Textures = append(d.Textures, t)
	d.mu.Unlock()
	return t, nil
}

func (d *Device) WriteTexture(dst device.TextureCopy, data []byte, layout device.TextureDataLayout, size device.Extent3D) error {
	if err := d.fail("WriteTexture"); err != nil {
		return err
	}
	d.mu.Lock()
	d.TextureWrites++
	d.mu.Unlock()
	return nil
}

func (d *Device) CreateSampler(desc device.SamplerDescriptor) (device.Sampler, error) {
	if err := d.fail("CreateSampler"); err != nil {
		return nil, err
	}
	s := &Sampler{Desc: desc}
	d.mu.Lock()
	d.Samplers = append(d.Samplers, s)
	d.mu.Unlock()
	return s, nil
}

func (d *Device) CreateShaderModule(desc device.ShaderModuleDescriptor) (device.ShaderModule, error) {
	if err := d.fail("CreateShaderModule"); err != nil {
		return nil, err
	}
	m := &ShaderModule{Desc: desc}
	d.mu.Lock()
	d.ShaderModules = append(d.ShaderModules, m)
	d.mu.Unlock()
	return m, nil
}

func (d *Device) CreateBindGroupLayout(desc device.BindGroupLayoutDescriptor) (device.BindGroupLayout, error) {
	if err := d.fail("CreateBindGroupLayout"); err != nil {
		return nil, err
	}
	l := &BindGroupLayout{Desc: desc}
	d.mu.Lock()
	d.BindGroupLayouts = append(d.BindGroupLayouts, l)
	d.mu.Unlock()
	return l, nil
}

func (d *Device) CreateBindGroup(desc device.BindGroupDescriptor) (device.BindGroup, error) {
	if err := d.fail("CreateBindGroup"); err != nil {
		return nil, err
	}
	g := &BindGroup{Desc: desc}
	d.mu.Lock()
	d.BindGroups = append(d.BindGroups, g)
	d.mu.Unlock()
	return g, nil
}

func (d *Device) CreatePipelineLayout(desc device.PipelineLayoutDescriptor) (device.PipelineLayout, error) {
	if err := d.fail("CreatePipelineLayout"); err != nil {
		return nil, err
	}
	l := &PipelineLayout{Desc: desc}
	d.mu.Lock()
	d.PipelineLayouts = append(d.PipelineLayouts, l)
	d.mu.Unlock()
	return l, nil
}

func (d *Device) CreateRenderPipeline(desc device.RenderPipelineDescriptor) (device.RenderPipeline, error) {
	if err := d.fail("CreateRenderPipeline"); err != nil {
		return nil, err
	}
	p := &RenderPipeline{Desc: desc}
	d.mu.Lock()
	d.RenderPipelines = append(d.RenderPipelines, p)
	d.mu.Unlock()
	return p, nil
}

func (d *Device) CreateComputePipeline(desc device.ComputePipelineDescriptor) (device.ComputePipeline, error) {
	if err := d.fail("CreateComputePipeline"); err != nil {
		return nil, err
	}
	p := &ComputePipeline{Desc: desc}
	d.mu.Lock()
	d.ComputePipelines = append(d.ComputePipelines, p)
	d.mu.Unlock()
	return p, nil
}

func (d *Device) CreateCommandEncoder(label string) (device.CommandEncoder, error) {
	if err := d.fail("CreateCommandEncoder"); err != nil {
		return nil, err
	}
	return &commandEncoder{device: d, label: label}, nil
}

func (d *Device) CreateRenderBundleEncoder(desc device.RenderBundleEncoderDescriptor) (device.RenderBundleEncoder, error) {
	if err := d.fail("CreateRenderBundleEncoder"); err != nil {
		return nil, err
	}
	return &bundleEncoder{device: d, desc: desc}, nil
}

func (d *Device) Submit(buffers ...device.CommandBuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, b := range buffers {
		if cb, ok := b.(*CommandBuffer); ok {
			d.Submitted = append(d.Submitted, cb)
		}
	}
}

func (d *Device) WaitIdle() error {
	if err := d.fail("WaitIdle"); err != nil {
		return err
	}
	d.mu.Lock()
	d.WaitCount++
	d.mu.Unlock()
	return nil
}

// BuffersLabelled returns every buffer whose label matches.
func (d *Device) BuffersLabelled(label string) []*Buffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Buffer, 0)
	for _, b := range d.Buffers {
		if b.Desc.Label == label {
			out = append(out, b)
		}
	}
	return out
}

type commandEncoder struct {
	released
	device   *Device
	label    string
	commands []Command
}

func (e *commandEncoder) BeginComputePass(label string) device.ComputePassEncoder {
	e.commands = append(e.commands, Command{Op: OpBeginCompute})
	return &computePass{encoder: e}
}

func (e *commandEncoder) CopyTextureToTexture(src, dst device.TextureCopy, size device.Extent3D) error {
	if err := e.device.fail("CopyTextureToTexture"); err != nil {
		return err
	}
	e.commands = append(e.commands, Command{Op: OpCopyTexture, Src: src, Dst: dst, Size: size})
	return nil
}

func (e *commandEncoder) Finish(label string) (device.CommandBuffer, error) {
	if label == "" {
		label = e.label
	}
	return &CommandBuffer{Label: label, Commands: e.commands}, nil
}

type computePass struct {
	encoder *commandEncoder
}

func (p *computePass) SetPipeline(pipeline device.ComputePipeline) {
	p.encoder.commands = append(p.encoder.commands, Command{Op: OpSetPipeline, Pipeline: pipeline})
}

func (p *computePass) SetBindGroup(index uint32, group device.BindGroup) {
	bg, _ := group.(*BindGroup)
	p.encoder.commands = append(p.encoder.commands, Command{Op: OpSetBindGroup, Index: index, BindGroup: bg})
}

func (p *computePass) DispatchWorkgroups(x, y, z uint32) {
	p.encoder.commands = append(p.encoder.commands, Command{Op: OpDispatch, Counts: [3]uint32{x, y, z}})
}

func (p *computePass) End() {
	p.encoder.commands = append(p.encoder.commands, Command{Op: OpEndCompute})
}

type bundleEncoder struct {
	device   *Device
	desc     device.RenderBundleEncoderDescriptor
	commands []Command
}

func (e *bundleEncoder) SetPipeline(p device.RenderPipeline) {
	e.commands = append(e.commands, Command{Op: OpSetPipeline, Pipeline: p})
}

func (e *bundleEncoder) SetBindGroup(index uint32, group device.BindGroup) {
	bg, _ := group.(*BindGroup)
	e.commands = append(e.commands, Command{Op: OpSetBindGroup, Index: index, BindGroup: bg})
}

func (e *bundleEncoder) SetVertexBuffer(slot uint32, buf device.Buffer) {
	b, _ := buf.(*Buffer)
	e.commands = append(e.commands, Command{Op: OpSetVertexBuffer, Index: slot, Buffer: b})
}

func (e *bundleEncoder) SetIndexBuffer(buf device.Buffer, format device.IndexFormat) {
	b, _ := buf.(*Buffer)
	e.commands = append(e.commands, Command{Op: OpSetIndexBuffer, Buffer: b})
}

func (e *bundleEncoder) Draw(vertexCount, instanceCount uint32) {
	e.commands = append(e.commands, Command{Op: OpDraw, Counts: [3]uint32{vertexCount, instanceCount, 0}})
}

func (e *bundleEncoder) DrawIndexed(indexCount, instanceCount uint32) {
	e.commands = append(e.commands, Command{Op: OpDrawIndexed, Counts: [3]uint32{indexCount, instanceCount, 0}})
}

func (e *bundleEncoder) Finish(label string) (device.RenderBundle, error) {
	if label == "" {
		label = e.desc.Label
	}
	b := &RenderBundle{Desc: e.desc, label: label, Commands: e.commands}
	e.device.mu.Lock()
	e.device.Bundles = append(e.device.Bundles, b)
	e.device.mu.Unlock()
	return b, nil
}
