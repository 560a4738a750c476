package ibl

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/Carmen-Shannon/oxy-pbr/engine/logging"
	bgp "github.com/Carmen-Shannon/oxy-pbr/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/shader"
)

// LutResolution is the edge size of the split-sum BRDF table.
const LutResolution = 512

// BRDFLut precomputes the split-sum environment BRDF: x is NoV, y is roughness, and the
// red and green channels hold the Fresnel scale and bias.
// It follows the same Uninitialized -> PipelinesBuilt -> Executed lifecycle as Engine.
type BRDFLut struct {
	device   device.Device
	composer *shader.Composer
	factory  *bgp.Factory
	logger   logging.Logger
	state    State

	texture  device.Texture
	pipeline pipeline.Pipeline
	layout   *bgp.Layout
	group    bgp.BindGroupProvider
	dispatch Dispatch
}

// NewBRDFLut creates the LUT precompute. A nil logger uses the default logger.
func NewBRDFLut(dev device.Device, composer *shader.Composer, logger logging.Logger) *BRDFLut {
	if dev == nil || composer == nil {
		panic("ibl: NewBRDFLut requires a device and a composer")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BRDFLut{
		device:   dev,
		composer: composer,
		factory:  bgp.NewFactory(dev, bgp.WithTable(Table())),
		logger:   logger.With("IBL"),
	}
}

// State returns the lifecycle stage.
func (l *BRDFLut) State() State {
	return l.state
}

// Texture returns the LUT texture, or nil before InitComputePipeline.
func (l *BRDFLut) Texture() device.Texture {
	return l.texture
}

// Plan returns the single LUT dispatch.
func (l *BRDFLut) Plan() Dispatch {
	return l.dispatch
}

// InitComputePipeline creates the LUT texture, the compute pipeline and its bind group.
//
// Returns:
//   - error: ErrInvalidState if called twice, or the first device or composition failure
func (l *BRDFLut) InitComputePipeline() error {
	if l.state != StateUninitialized {
		return fmt.Errorf("%w: InitComputePipeline in state %s", ErrInvalidState, l.state)
	}

	prog, err := l.composer.ComposePrecompute(shader.PrecomputeBRDF)
	if err != nil {
		return err
	}
	if l.layout, err = l.factory.CreateLayout(prog.Bindings); err != nil {
		return fmt.Errorf("failed to create BRDF LUT layout: %w", err)
	}
	l.pipeline = pipeline.NewPipeline(prog.Key, pipeline.PipelineTypeCompute, pipeline.WithComputeShader(prog.Compute))
	if err := l.pipeline.Build(l.device, l.layout.Handle()); err != nil {
		return err
	}

	l.texture, err = l.device.CreateTexture(device.TextureDescriptor{
		Label:         "brdf lut",
		Size:          device.Extent3D{Width: LutResolution, Height: LutResolution, DepthOrArrayLayers: 1},
		Format:        device.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		Usage:         device.TextureUsageStorageBinding | device.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("failed to create BRDF LUT texture: %w", err)
	}
	l.group, err = l.factory.Create(prog.Bindings, bgp.Resources{shader.BRDFLutOutput: l.texture}, l.layout, "brdf lut")
	if err != nil {
		return fmt.Errorf("failed to create BRDF LUT bind group: %w", err)
	}

	groups := common.CeilDiv(LutResolution, WorkgroupSize)
	l.dispatch = Dispatch{Kind: shader.PrecomputeBRDF, Resolution: LutResolution, X: groups, Y: groups, Z: 1}
	l.state = StatePipelinesBuilt
	return nil
}

// Run records the LUT dispatch and returns the command buffer for the caller to submit.
//
// Returns:
//   - device.CommandBuffer: the finished command buffer
//   - error: ErrInvalidState unless the pipeline is built, or an encoder failure
func (l *BRDFLut) Run() (device.CommandBuffer, error) {
	if l.state != StatePipelinesBuilt {
		return nil, fmt.Errorf("%w: Run in state %s", ErrInvalidState, l.state)
	}
	encoder, err := l.device.CreateCommandEncoder("brdf lut")
	if err != nil {
		return nil, fmt.Errorf("failed to create BRDF LUT command encoder: %w", err)
	}
	pass := encoder.BeginComputePass("brdf lut")
	pass.SetPipeline(l.pipeline.Compute())
	pass.SetBindGroup(0, l.group.BindGroup())
	pass.DispatchWorkgroups(l.dispatch.X, l.dispatch.Y, l.dispatch.Z)
	pass.End()

	cmd, err := encoder.Finish("brdf lut")
	if err != nil {
		return nil, fmt.Errorf("failed to finish BRDF LUT commands: %w", err)
	}
	l.state = StateExecuted
	l.logger.Debugf("recorded BRDF LUT dispatch %dx%d", l.dispatch.X, l.dispatch.Y)
	return cmd, nil
}

// Release frees the pipeline and bind group. The LUT texture is released too unless
// keepTexture is set, which is how the controller keeps the table bound after setup.
func (l *BRDFLut) Release(keepTexture bool) {
	if l.group != nil {
		l.group.Release()
		l.group = nil
	}
	if l.layout != nil {
		l.layout.Release()
		l.layout = nil
	}
	if l.pipeline != nil {
		l.pipeline.Release()
		l.pipeline = nil
	}
	if !keepTexture && l.texture != nil {
		l.texture.Release()
		l.texture = nil
	}
}
