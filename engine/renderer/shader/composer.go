package shader

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/Carmen-Shannon/oxy-pbr/engine/logging"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/resource"
)

// Precompute program constants.
const (
	PrecomputeWorkgroupSize = 16
	PrecomputeSampleCount   = 256
)

// Program is a composed set of render programs for one feature set and shading model.
type Program struct {
	Key      string
	Features FeatureSet
	Model    ShadingModel

	Vertex       Shader
	Fragment     Shader
	ShadowVertex Shader

	ColorBindings  []string
	ShadowBindings []string
}

// PrecomputeKind selects one of the image-based lighting precompute programs.
type PrecomputeKind int

const (
	PrecomputeDiffuse PrecomputeKind = iota
	PrecomputeSpecular
	PrecomputeBRDF
)

func (k PrecomputeKind) String() string {
	switch k {
	case PrecomputeDiffuse:
		return "diffuse"
	case PrecomputeSpecular:
		return "specular"
	case PrecomputeBRDF:
		return "brdf"
	default:
		return "unknown"
	}
}

// ComputeProgram is a composed compute program and the resource names it binds in group 0.
type ComputeProgram struct {
	Key      string
	Compute  Shader
	Bindings []string
}

// Composer builds WGSL programs from embedded chunks and caches them by key.
// It is safe for concurrent use.
type Composer struct {
	mu         sync.Mutex
	programs   map[string]*Program
	precompute map[PrecomputeKind]*ComputeProgram
	validate   bool
	logger     logging.Logger
}

// NewComposer creates a Composer.
//
// Parameters:
//   - options: a variadic list of options to configure the composer
//
// Returns:
//   - *Composer: the composer
func NewComposer(options ...ComposerOption) *Composer {
	c := &Composer{
		programs:   make(map[string]*Program),
		precompute: make(map[PrecomputeKind]*ComputeProgram),
		logger:     logging.Default().With("Shader"),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// ProgramKey returns the cache key of a feature set and shading model.
func ProgramKey(features FeatureSet, model ShadingModel) string {
	return model.String() + "|" + features.Key()
}

// Compose returns the program for a feature set and shading model, composing it on
// first use. Identical inputs return the same cached program, and composition itself
// is deterministic, so equal flag sets always produce byte-identical text.
//
// Parameters:
//   - features: the program features
//   - model: the surface shading model
//
// Returns:
//   - *Program: the composed program
//   - error: error if a chunk fails to render or validation is enabled and fails
func (c *Composer) Compose(features FeatureSet, model ShadingModel) (*Program, error) {
	key := ProgramKey(features, model)

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.programs[key]; ok {
		return p, nil
	}

	plan := Plan(features, model)
	params := chunkParams{
		VertexInputs: plan.VertexInputs,
		Varyings:     plan.Varyings,
		LightStruct:  "DirectionalLight",
		LightField:   "direction",
	}
	if features.Has(FeaturePointLight) {
		params.LightStruct, params.LightField = "PointLight", "position"
	}

	vertex, err := c.build(key+"/vertex", ShaderTypeVertex, plan.Vertex, params, plan.ColorBindings)
	if err != nil {
		return nil, err
	}
	fragment, err := c.build(key+"/fragment", ShaderTypeFragment, plan.Fragment, params, plan.ColorBindings)
	if err != nil {
		return nil, err
	}
	shadow, err := c.build(key+"/shadow", ShaderTypeVertex, plan.ShadowVertex, params, plan.ShadowBindings)
	if err != nil {
		return nil, err
	}

	p := &Program{
		Key:            key,
		Features:       features,
		Model:          model,
		Vertex:         vertex,
		Fragment:       fragment,
		ShadowVertex:   shadow,
		ColorBindings:  plan.ColorBindings,
		ShadowBindings: plan.ShadowBindings,
	}
	c.programs[key] = p
	c.logger.Debugf("composed program %s (%d color bindings)", key, len(p.ColorBindings))
	return p, nil
}

// ComposeBackdrop returns the program drawing the environment map behind the scene as
// a full-screen triangle. It has no shadow stage and no vertex buffer.
//
// Returns:
//   - *Program: the composed program
//   - error: error if a chunk fails to render or validation fails
func (c *Composer) ComposeBackdrop() (*Program, error) {
	const key = "backdrop"

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.programs[key]; ok {
		return p, nil
	}

	bindings := BackdropBindings()
	vertex, err := c.build(key+"/vertex", ShaderTypeVertex,
		[]ChunkKey{ChunkBackdropIO, ChunkBackdropVertex}, chunkParams{}, nil)
	if err != nil {
		return nil, err
	}
	fragment, err := c.build(key+"/fragment", ShaderTypeFragment,
		stageChunks(bindings, device.ShaderStageFragment, ChunkBackdropIO, ChunkToneMap, ChunkBackdropFragment),
		chunkParams{}, bindings)
	if err != nil {
		return nil, err
	}

	p := &Program{
		Key:           key,
		Vertex:        vertex,
		Fragment:      fragment,
		ColorBindings: bindings,
	}
	c.programs[key] = p
	return p, nil
}

// ComposePrecompute returns one of the image-based lighting compute programs.
//
// Parameters:
//   - kind: the precompute program to compose
//
// Returns:
//   - *ComputeProgram: the composed program and its bindings
//   - error: error if kind is unknown, a chunk fails to render or validation fails
func (c *Composer) ComposePrecompute(kind PrecomputeKind) (*ComputeProgram, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.precompute[kind]; ok {
		return p, nil
	}

	var bindings []string
	var body []ChunkKey
	switch kind {
	case PrecomputeDiffuse:
		bindings = []string{PrecomputeOutput, PrecomputeSource}
		body = []ChunkKey{ChunkSampling, ChunkCubeFaces, ChunkPrecomputeDiffuse}
	case PrecomputeSpecular:
		bindings = []string{PrecomputeOutput, PrecomputeSource, PrefilterParams}
		body = []ChunkKey{ChunkSampling, ChunkCubeFaces, ChunkPrecomputeSpecular}
	case PrecomputeBRDF:
		bindings = []string{BRDFLutOutput}
		body = []ChunkKey{ChunkSampling, ChunkPrecomputeBRDF}
	default:
		return nil, fmt.Errorf("unknown precompute program %d", int(kind))
	}

	key := "precompute/" + kind.String()
	params := chunkParams{
		WorkgroupSize: PrecomputeWorkgroupSize,
		SampleCount:   PrecomputeSampleCount,
		CubeFaces:     common.CubeFaceMatrices,
	}
	s, err := c.build(key, ShaderTypeCompute, stageChunks(bindings, device.ShaderStageCompute, body...), params, bindings)
	if err != nil {
		return nil, err
	}

	p := &ComputeProgram{Key: key, Compute: s, Bindings: bindings}
	c.precompute[kind] = p
	return p, nil
}

// build renders a chunk list with the bindings the stage reads and wraps the source as a Shader.
func (c *Composer) build(key string, shaderType ShaderType, chunks []ChunkKey, params chunkParams, bindings []string) (Shader, error) {
	var err error
	if params.Bindings, err = stageBindings(bindings, shaderType.stage(), params.LightStruct); err != nil {
		return nil, fmt.Errorf("failed to compose %s: %w", key, err)
	}
	source, err := renderChunks(chunks, params)
	if err != nil {
		return nil, fmt.Errorf("failed to compose %s: %w", key, err)
	}
	if c.validate {
		if err := Validate(source); err != nil {
			return nil, fmt.Errorf("failed to compose %s: %w", key, err)
		}
	}
	return NewShader(key, shaderType, source), nil
}

// stageBindings selects the declarations a stage reads while keeping each name's
// position in the full list as its binding index. A name without a declaration fails
// with resource.ErrUnknownAttribute.
func stageBindings(names []string, stage device.ShaderStage, lightStruct string) ([]bindingParam, error) {
	params := make([]bindingParam, 0, len(names))
	for i, name := range names {
		decl, ok := bindingRegistry[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", resource.ErrUnknownAttribute, name)
		}
		if !decl.Stages.Has(stage) {
			continue
		}
		typ := decl.Type
		if decl.Struct == ChunkStructLight {
			typ = lightStruct
		}
		params = append(params, bindingParam{Index: i, Var: decl.Var, Space: decl.Space, Type: typ})
	}
	return params, nil
}
