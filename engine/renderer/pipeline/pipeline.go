package pipeline

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/shader"
)

// PipelineType identifies whether a pipeline is a compute pipeline or a render pipeline.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline with a single compute shader entry point.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender indicates a render pipeline with vertex and fragment shader entry points.
	PipelineTypeRender
)

func (t PipelineType) String() string {
	if t == PipelineTypeCompute {
		return "compute"
	}
	return "render"
}

// pipeline is the implementation of the Pipeline interface.
// It holds the realised device pipeline and the state used to create it.
type pipeline struct {
	mu sync.Mutex

	// pipelineType indicates the type of pipeline this is; compute or render
	pipelineType PipelineType
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	// the following shader references are used for pipeline creation, they are required to be set before building a pipeline.
	// A render pipeline without a fragment shader is depth-only.

	vertexShader, fragmentShader, computeShader shader.Shader

	renderPipeline  device.RenderPipeline
	computePipeline device.ComputePipeline
	layout          device.PipelineLayout
	modules         []device.ShaderModule

	// The following properties configure render pipelines and are set with the builder options.
	// Compute pipelines ignore them.

	colorFormats        []device.TextureFormat
	depthFormat         device.TextureFormat
	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthCompare        device.CompareFunction
	depthBias           int32
	depthBiasSlopeScale float32
	cullMode            device.CullMode
}

// Pipeline defines the interface for a GPU pipeline, encapsulating either a render pipeline
// (vertex + optional fragment program) or a compute pipeline (compute program). It holds the
// configuration required for creation and, once built, the realised device pipeline.
type Pipeline interface {
	// Type returns the type of the pipeline
	//
	// Returns:
	//   - PipelineType: the type of the pipeline (render or compute)
	Type() PipelineType

	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader associated with the specified type if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the type of shader to retrieve (vertex, fragment, or compute)
	//
	// Returns:
	//   - shader.Shader: the shader associated with the specified type, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// Build creates the shader modules, the pipeline layout and the device pipeline.
	// The layouts are indexed by bind group number.
	//
	// Parameters:
	//   - dev: the device to create the pipeline on
	//   - layouts: the bind group layouts of the pipeline, by group index
	//
	// Returns:
	//   - error: error if a required shader is missing or a device call fails
	Build(dev device.Device, layouts ...device.BindGroupLayout) error

	// Render returns the realised render pipeline, or nil before Build or for compute pipelines.
	Render() device.RenderPipeline

	// Compute returns the realised compute pipeline, or nil before Build or for render pipelines.
	Compute() device.ComputePipeline

	// ColorFormats returns the color target formats; empty for depth-only pipelines.
	ColorFormats() []device.TextureFormat

	// DepthFormat returns the depth attachment format.
	DepthFormat() device.TextureFormat

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	DepthWriteEnabled() bool

	// DepthCompare returns the depth comparison function.
	DepthCompare() device.CompareFunction

	// DepthBias returns the constant depth bias configured for this pipeline.
	DepthBias() int32

	// DepthBiasSlopeScale returns the depth bias slope scale configured for this pipeline.
	DepthBiasSlopeScale() float32

	// CullMode returns the cull mode configured for this pipeline.
	CullMode() device.CullMode

	// Release frees the device pipeline, its layout and its shader modules.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline interface. A PipelineType must be specified and provided upon creation.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - pipelineType: the type of pipeline to create (render or compute)
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified type and configuration
func NewPipeline(pipelineKey string, pipelineType PipelineType, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		pipelineType:      pipelineType,
		depthFormat:       device.TextureFormatDepth32Float,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		depthCompare:      device.CompareFunctionLess,
		cullMode:          device.CullModeNone,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Type() PipelineType {
	return p.pipelineType
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	case shader.ShaderTypeCompute:
		return p.computeShader
	default:
		return nil
	}
}

func (p *pipeline) Build(dev device.Device, layouts ...device.BindGroupLayout) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	layout, err := dev.CreatePipelineLayout(device.PipelineLayoutDescriptor{
		Label:            p.pipelineKey,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return fmt.Errorf("failed to create pipeline layout for %s: %w", p.pipelineKey, err)
	}
	p.layout = layout

	switch p.pipelineType {
	case PipelineTypeCompute:
		return p.buildCompute(dev)
	case PipelineTypeRender:
		return p.buildRender(dev)
	default:
		return fmt.Errorf("unknown pipeline type %d for %s", int(p.pipelineType), p.pipelineKey)
	}
}

func (p *pipeline) buildCompute(dev device.Device) error {
	if p.computeShader == nil {
		return fmt.Errorf("compute pipeline %s has no compute shader", p.pipelineKey)
	}
	module, err := p.createModule(dev, p.computeShader)
	if err != nil {
		return err
	}
	cp, err := dev.CreateComputePipeline(device.ComputePipelineDescriptor{
		Label:      p.pipelineKey,
		Layout:     p.layout,
		Module:     module,
		EntryPoint: p.computeShader.EntryPoint(),
	})
	if err != nil {
		return fmt.Errorf("failed to create compute pipeline %s: %w", p.pipelineKey, err)
	}
	p.computePipeline = cp
	return nil
}

func (p *pipeline) buildRender(dev device.Device) error {
	if p.vertexShader == nil {
		return fmt.Errorf("render pipeline %s has no vertex shader", p.pipelineKey)
	}
	vertexModule, err := p.createModule(dev, p.vertexShader)
	if err != nil {
		return err
	}

	desc := device.RenderPipelineDescriptor{
		Label:            p.pipelineKey,
		Layout:           p.layout,
		VertexModule:     vertexModule,
		VertexEntryPoint: p.vertexShader.EntryPoint(),
		VertexBuffers:    p.vertexShader.VertexLayouts(),
		CullMode:         p.cullMode,
	}
	if p.fragmentShader != nil {
		fragmentModule, err := p.createModule(dev, p.fragmentShader)
		if err != nil {
			return err
		}
		desc.FragmentModule = fragmentModule
		desc.FragmentEntry = p.fragmentShader.EntryPoint()
		desc.ColorFormats = p.colorFormats
	}
	if p.depthTestEnabled {
		desc.DepthStencil = &device.DepthStencilState{
			Format:              p.depthFormat,
			DepthWriteEnabled:   p.depthWriteEnabled,
			DepthCompare:        p.depthCompare,
			DepthBias:           p.depthBias,
			DepthBiasSlopeScale: p.depthBiasSlopeScale,
		}
	}

	rp, err := dev.CreateRenderPipeline(desc)
	if err != nil {
		return fmt.Errorf("failed to create render pipeline %s: %w", p.pipelineKey, err)
	}
	p.renderPipeline = rp
	return nil
}

func (p *pipeline) createModule(dev device.Device, s shader.Shader) (device.ShaderModule, error) {
	module, err := dev.CreateShaderModule(s.Module())
	if err != nil {
		return nil, fmt.Errorf("failed to create shader module %s: %w", s.Key(), err)
	}
	p.modules = append(p.modules, module)
	return module, nil
}

func (p *pipeline) Render() device.RenderPipeline {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.renderPipeline
}

func (p *pipeline) Compute() device.ComputePipeline {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.computePipeline
}

func (p *pipeline) ColorFormats() []device.TextureFormat {
	if p.fragmentShader == nil {
		return nil
	}
	return p.colorFormats
}

func (p *pipeline) DepthFormat() device.TextureFormat {
	return p.depthFormat
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthCompare() device.CompareFunction {
	return p.depthCompare
}

func (p *pipeline) DepthBias() int32 {
	return p.depthBias
}

func (p *pipeline) DepthBiasSlopeScale() float32 {
	return p.depthBiasSlopeScale
}

func (p *pipeline) CullMode() device.CullMode {
	return p.cullMode
}

func (p *pipeline) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	if p.computePipeline != nil {
		p.computePipeline.Release()
		p.computePipeline = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
	for _, m := range p.modules {
		m.Release()
	}
	p.modules = nil
}
