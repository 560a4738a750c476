// Package ibl precomputes the image-based lighting data of an environment cube map.
//
// The Engine convolves the environment map into a diffuse irradiance cube and a
// roughness-indexed specular mip chain, each with its own compute pipeline. Run
// records the work into a command buffer that the caller submits and waits on.
// BRDFLut precomputes the split-sum scale/bias table the same way, and Reference
// evaluates the same math on the CPU.
package ibl

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/Carmen-Shannon/oxy-pbr/engine/logging"
	bgp "github.com/Carmen-Shannon/oxy-pbr/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/shader"
)

const (
	// DiffuseEnvMapResolution is the edge size of the diffuse irradiance cube, independent of the source.
	DiffuseEnvMapResolution = 256
	// EnvMapMipLevelCount is the upper bound of the specular mip chain, mip 0 included.
	EnvMapMipLevelCount = 5
	// SampleCount is the number of Hammersley samples per texel.
	SampleCount = shader.PrecomputeSampleCount
	// WorkgroupSize is the edge of the square compute workgroup.
	WorkgroupSize = shader.PrecomputeWorkgroupSize
)

// ErrInvalidState is returned when an operation is called out of order.
var ErrInvalidState = errors.New("invalid IBL state")

// State is the lifecycle stage of an Engine or BRDFLut.
type State int

const (
	StateUninitialized State = iota
	StatePipelinesBuilt
	StateExecuted
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StatePipelinesBuilt:
		return "pipelines-built"
	case StateExecuted:
		return "executed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Sources are the cube textures the engine reads and writes. EnvMap holds the radiance
// in mip 0 and receives the prefiltered specular chain in mips 1..n-1. DiffuseEnvMap
// receives the irradiance. Both are rgba8unorm 2D arrays of six layers.
type Sources struct {
	EnvMap        device.Texture
	DiffuseEnvMap device.Texture
}

// Dispatch is one recorded compute dispatch.
type Dispatch struct {
	Kind       shader.PrecomputeKind
	Mip        uint32
	Resolution uint32
	X, Y, Z    uint32
}

type dispatchGroup struct {
	Dispatch
	pipeline pipeline.Pipeline
	group    bgp.BindGroupProvider
}

// Engine precomputes the diffuse and specular environment maps.
// It moves Uninitialized -> PipelinesBuilt -> Executed and is not reusable.
type Engine struct {
	device   device.Device
	composer *shader.Composer
	factory  *bgp.Factory
	logger   logging.Logger

	maxMipCount uint32
	mipCount    uint32
	state       State

	src      Sources
	diffuse  pipeline.Pipeline
	specular pipeline.Pipeline
	layouts  []*bgp.Layout
	temp     device.Texture
	views    []device.TextureView
	buffers  []device.Buffer
	dispatch []dispatchGroup
}

// NewEngine creates an IBL engine.
//
// Parameters:
//   - dev: the device the pipelines and textures are created on
//   - composer: the composer supplying the precompute programs
//   - options: a variadic list of options to configure the engine
//
// Returns:
//   - *Engine: the engine in StateUninitialized
func NewEngine(dev device.Device, composer *shader.Composer, options ...EngineOption) *Engine {
	if dev == nil || composer == nil {
		panic("ibl: NewEngine requires a device and a composer")
	}
	e := &Engine{
		device:      dev,
		composer:    composer,
		factory:     bgp.NewFactory(dev, bgp.WithTable(Table())),
		logger:      logging.Default().With("IBL"),
		maxMipCount: EnvMapMipLevelCount,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// State returns the lifecycle stage.
func (e *Engine) State() State {
	return e.state
}

// MipCount returns the number of environment map mips the engine fills, mip 0 included.
// It is zero before InitComputePipeline.
func (e *Engine) MipCount() uint32 {
	return e.mipCount
}

// InitComputePipeline builds the diffuse and specular compute pipelines, their bind groups
// and the temporary specular texture.
//
// Parameters:
//   - src: the environment textures
//
// Returns:
//   - error: ErrInvalidState if called twice, or the first device or composition failure
func (e *Engine) InitComputePipeline(src Sources) error {
	if e.state != StateUninitialized {
		return fmt.Errorf("%w: InitComputePipeline in state %s", ErrInvalidState, e.state)
	}
	if src.EnvMap == nil || src.DiffuseEnvMap == nil {
		return fmt.Errorf("ibl: both environment textures are required")
	}
	e.src = src
	e.mipCount = min(e.maxMipCount, EnvMapMipLevelCount, src.EnvMap.MipLevelCount())

	if err := e.initDiffuse(); err != nil {
		return err
	}
	if e.mipCount > 1 {
		if err := e.initSpecular(); err != nil {
			return err
		}
	} else {
		e.logger.Warnf("environment map has a single mip, skipping the specular prefilter")
	}

	e.state = StatePipelinesBuilt
	e.logger.Debugf("built precompute pipelines: %d dispatches over %d mips", len(e.dispatch), e.mipCount)
	return nil
}

func (e *Engine) initDiffuse() error {
	p, layout, err := e.buildPipeline(shader.PrecomputeDiffuse)
	if err != nil {
		return err
	}
	e.diffuse = p

	output, err := e.view(e.src.DiffuseEnvMap, 0)
	if err != nil {
		return err
	}
	source, err := e.view(e.src.EnvMap, 0)
	if err != nil {
		return err
	}
	group, err := e.factory.Create(
		[]string{shader.PrecomputeOutput, shader.PrecomputeSource},
		bgp.Resources{shader.PrecomputeOutput: output, shader.PrecomputeSource: source},
		layout, "ibl diffuse",
	)
	if err != nil {
		return fmt.Errorf("failed to create diffuse bind group: %w", err)
	}

	res := e.src.DiffuseEnvMap.Size().Width
	e.dispatch = append(e.dispatch, dispatchGroup{
		Dispatch: dispatchFor(shader.PrecomputeDiffuse, 0, res),
		pipeline: p,
		group:    group,
	})
	return nil
}

func (e *Engine) initSpecular() error {
	p, layout, err := e.buildPipeline(shader.PrecomputeSpecular)
	if err != nil {
		return err
	}
	e.specular = p

	base := e.src.EnvMap.Size().Width
	temp, err := e.device.CreateTexture(device.TextureDescriptor{
		Label:         "ibl specular temp",
		Size:          device.Extent3D{Width: max(base/2, 1), Height: max(base/2, 1), DepthOrArrayLayers: 6 * (e.mipCount - 1)},
		Format:        device.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
		Usage:         device.TextureUsageStorageBinding | device.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("failed to create specular temp texture: %w", err)
	}
	e.temp = temp

	output, err := e.view(temp, 0)
	if err != nil {
		return err
	}
	source, err := e.view(e.src.EnvMap, 0)
	if err != nil {
		return err
	}

	names := []string{shader.PrecomputeOutput, shader.PrecomputeSource, shader.PrefilterParams}
	for mip := uint32(1); mip < e.mipCount; mip++ {
		params, err := e.device.CreateBuffer(device.BufferDescriptor{
			Label: fmt.Sprintf("ibl prefilter params mip %d", mip),
			Size:  PrefilterParamsSize,
			Usage: device.BufferUsageUniform | device.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("failed to create prefilter params for mip %d: %w", mip, err)
		}
		e.buffers = append(e.buffers, params)
		if err := e.device.WriteBuffer(params, 0, prefilterParams(mip, e.mipCount, base)); err != nil {
			return fmt.Errorf("failed to write prefilter params for mip %d: %w", mip, err)
		}

		group, err := e.factory.Create(names, bgp.Resources{
			shader.PrecomputeOutput: output,
			shader.PrecomputeSource: source,
			shader.PrefilterParams:  params,
		}, layout, fmt.Sprintf("ibl specular mip %d", mip))
		if err != nil {
			return fmt.Errorf("failed to create specular bind group for mip %d: %w", mip, err)
		}
		e.dispatch = append(e.dispatch, dispatchGroup{
			Dispatch: dispatchFor(shader.PrecomputeSpecular, mip, max(base>>mip, 1)),
			pipeline: p,
			group:    group,
		})
	}
	return nil
}

// buildPipeline composes a precompute program, derives its layout from the program's
// binding list and builds the compute pipeline against it.
func (e *Engine) buildPipeline(kind shader.PrecomputeKind) (pipeline.Pipeline, *bgp.Layout, error) {
	prog, err := e.composer.ComposePrecompute(kind)
	if err != nil {
		return nil, nil, err
	}
	layout, err := e.factory.CreateLayout(prog.Bindings)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s layout: %w", kind, err)
	}
	e.layouts = append(e.layouts, layout)

	p := pipeline.NewPipeline(prog.Key, pipeline.PipelineTypeCompute, pipeline.WithComputeShader(prog.Compute))
	if err := p.Build(e.device, layout.Handle()); err != nil {
		return nil, nil, err
	}
	return p, layout, nil
}

// view creates a single-mip 2D-array view over all six (or more) layers of a texture.
func (e *Engine) view(t device.Texture, mip uint32) (device.TextureView, error) {
	v, err := t.CreateView(&device.TextureViewDescriptor{
		Label:         t.Label(),
		Format:        t.Format(),
		Dimension:     device.TextureViewDimension2DArray,
		BaseMipLevel:  mip,
		MipLevelCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create view of %s: %w", t.Label(), err)
	}
	e.views = append(e.views, v)
	return v, nil
}

// Plan returns the dispatches Run records, diffuse first then one per specular mip.
func (e *Engine) Plan() []Dispatch {
	out := make([]Dispatch, len(e.dispatch))
	for i, d := range e.dispatch {
		out[i] = d.Dispatch
	}
	return out
}

// Run records every dispatch into one compute pass, then copies each prefiltered mip
// from the temporary texture into the environment map mip chain. The returned command
// buffer must be submitted by the caller, who then waits for completion.
//
// Returns:
//   - device.CommandBuffer: the finished command buffer
//   - error: ErrInvalidState unless pipelines are built, or an encoder or copy failure
func (e *Engine) Run() (device.CommandBuffer, error) {
	if e.state != StatePipelinesBuilt {
		return nil, fmt.Errorf("%w: Run in state %s", ErrInvalidState, e.state)
	}
	encoder, err := e.device.CreateCommandEncoder("ibl")
	if err != nil {
		return nil, fmt.Errorf("failed to create IBL command encoder: %w", err)
	}

	pass := encoder.BeginComputePass("ibl precompute")
	for _, d := range e.dispatch {
		pass.SetPipeline(d.pipeline.Compute())
		pass.SetBindGroup(0, d.group.BindGroup())
		pass.DispatchWorkgroups(d.X, d.Y, d.Z)
	}
	pass.End()

	base := e.src.EnvMap.Size().Width
	for mip := uint32(1); mip < e.mipCount; mip++ {
		res := max(base>>mip, 1)
		if err := encoder.CopyTextureToTexture(
			device.TextureCopy{Texture: e.temp, Origin: device.Origin3D{Z: (mip - 1) * 6}},
			device.TextureCopy{Texture: e.src.EnvMap, MipLevel: mip},
			device.Extent3D{Width: res, Height: res, DepthOrArrayLayers: 6},
		); err != nil {
			encoder.Release()
			return nil, fmt.Errorf("failed to copy prefiltered mip %d: %w", mip, err)
		}
	}

	cmd, err := encoder.Finish("ibl")
	if err != nil {
		return nil, fmt.Errorf("failed to finish IBL commands: %w", err)
	}
	e.state = StateExecuted
	e.logger.Infof("recorded %d precompute dispatches", len(e.dispatch))
	return cmd, nil
}

// Release frees every object the engine created. The source textures are left untouched.
// The command buffer returned by Run must have completed first.
func (e *Engine) Release() {
	for _, d := range e.dispatch {
		d.group.Release()
	}
	e.dispatch = nil
	for _, v := range e.views {
		v.Release()
	}
	e.views = nil
	for _, b := range e.buffers {
		b.Release()
	}
	e.buffers = nil
	for _, l := range e.layouts {
		l.Release()
	}
	e.layouts = nil
	for _, p := range []pipeline.Pipeline{e.diffuse, e.specular} {
		if p != nil {
			p.Release()
		}
	}
	if e.temp != nil {
		e.temp.Release()
		e.temp = nil
	}
}

func dispatchFor(kind shader.PrecomputeKind, mip, res uint32) Dispatch {
	groups := common.CeilDiv(res, WorkgroupSize)
	return Dispatch{Kind: kind, Mip: mip, Resolution: res, X: groups, Y: groups, Z: 6}
}

func prefilterParams(mip, mipCount, baseSize uint32) []byte {
	buf := make([]byte, PrefilterParamsSize)
	binary.LittleEndian.PutUint32(buf[0:], mip)
	binary.LittleEndian.PutUint32(buf[4:], mipCount)
	binary.LittleEndian.PutUint32(buf[8:], baseSize)
	return buf
}
