package game_object

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-pbr/engine/model"
	bgp "github.com/Carmen-Shannon/oxy-pbr/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-pbr/engine/scene"
	"github.com/google/uuid"
)

// ErrNotInitialized is returned when a drawable is used before its resources exist.
var ErrNotInitialized = errors.New("drawable not initialized")

// mesh is the drawable of a scene mesh node. Static and skinned meshes share it; the
// skinned variant adds the joint matrix buffer and samples its pose on every Update.
type mesh struct {
	mu          sync.Mutex
	node        *scene.MeshNode
	kind        Kind
	castsShadow bool
	features    shader.FeatureSet

	vertexBuffer device.Buffer
	indexBuffer  device.Buffer
	vertexCount  uint32
	indexCount   uint32

	transformBuffer device.Buffer
	materialBuffer  device.Buffer
	jointBuffer     device.Buffer
	textures        []device.Texture
	pose            *model.Pose

	program     *shader.Program
	colorGroup  bgp.BindGroupProvider
	shadowGroup bgp.BindGroupProvider
	colorPipe   pipeline.Pipeline
	shadowPipe  pipeline.Pipeline
}

// NewStaticMesh creates the drawable of a mesh node without skinning.
//
// Parameters:
//   - node: the scene node holding the geometry and material
//   - options: a variadic list of options to configure the drawable
//
// Returns:
//   - Drawable: the drawable
func NewStaticMesh(node *scene.MeshNode, options ...DrawableOption) Drawable {
	return newMesh(node, KindStaticMesh, options...)
}

// NewSkinnedMesh creates the drawable of a skinned mesh node. The node's model must carry a skeleton.
//
// Parameters:
//   - node: the scene node holding the geometry, skeleton and material
//   - options: a variadic list of options to configure the drawable
//
// Returns:
//   - Drawable: the drawable
func NewSkinnedMesh(node *scene.MeshNode, options ...DrawableOption) Drawable {
	return newMesh(node, KindSkinnedMesh, options...)
}

// FromMeshNode picks the static or skinned variant from the node's model.
func FromMeshNode(node *scene.MeshNode, options ...DrawableOption) Drawable {
	if node.Model().Skinned() {
		return NewSkinnedMesh(node, options...)
	}
	return NewStaticMesh(node, options...)
}

func newMesh(node *scene.MeshNode, kind Kind, options ...DrawableOption) *mesh {
	cfg := newDrawableConfig(options...)
	m := &mesh{node: node, kind: kind, castsShadow: cfg.castsShadow}

	features := shader.FeatureSet{}.With(node.Model().Features()...).With(node.Material().Features()...)
	if kind == KindSkinnedMesh {
		features = features.With(shader.FeatureSkinned)
		m.pose = model.NewPose(node.Model().Skeleton())
	}
	m.features = features
	return m
}

func (m *mesh) ID() uuid.UUID {
	return m.node.ID()
}

func (m *mesh) Name() string {
	return m.node.Name()
}

func (m *mesh) Kind() Kind {
	return m.kind
}

func (m *mesh) Features() shader.FeatureSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.features
}

// Node returns the scene node the drawable renders.
func (m *mesh) Node() *scene.MeshNode {
	return m.node
}

func (m *mesh) InitVertexBuffer(dev device.Device) error {
	geo := m.node.Model()
	data, _, err := model.Interleave(geo, shader.VertexInputs(m.Features()))
	if err != nil {
		return fmt.Errorf("%s: %w", m.Name(), err)
	}
	vb, err := dev.CreateBuffer(device.BufferDescriptor{
		Label: m.Name() + " vertices",
		Size:  uint64(len(data)),
		Usage: device.BufferUsageVertex | device.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("failed to create vertex buffer for %s: %w", m.Name(), err)
	}
	if err := dev.WriteBuffer(vb, 0, data); err != nil {
		vb.Release()
		return fmt.Errorf("failed to upload vertices for %s: %w", m.Name(), err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.vertexBuffer = vb
	m.vertexCount = uint32(len(geo.Vertices()))

	if indices := model.IndexData(geo); len(indices) > 0 {
		ib, err := dev.CreateBuffer(device.BufferDescriptor{
			Label: m.Name() + " indices",
			Size:  uint64(len(indices)),
			Usage: device.BufferUsageIndex | device.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("failed to create index buffer for %s: %w", m.Name(), err)
		}
		m.indexBuffer = ib
		if err := dev.WriteBuffer(ib, 0, indices); err != nil {
			return fmt.Errorf("failed to upload indices for %s: %w", m.Name(), err)
		}
		m.indexCount = uint32(len(geo.Indices()))
	}
	return nil
}

func (m *mesh) InitGroupResource(ctx *GroupContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vertexBuffer == nil {
		return fmt.Errorf("%w: %s has no vertex buffer", ErrNotInitialized, m.node.Name())
	}

	mat := m.node.Material()
	m.features = m.features.With(ctx.Features.Flags()...)
	prog, err := ctx.Composer.Compose(m.features, mat.Model())
	if err != nil {
		return fmt.Errorf("failed to compose program for %s: %w", m.node.Name(), err)
	}
	m.program = prog

	res, err := m.createResources(ctx.Device, mat)
	if err != nil {
		return err
	}
	for name, v := range ctx.Shared {
		res[name] = v
	}

	if m.colorGroup, err = m.createGroup(ctx, prog.ColorBindings, res, "color"); err != nil {
		return err
	}
	m.colorPipe, err = m.awaitPipeline(ctx, prog.Key+"/color", prog.ColorBindings,
		pipeline.WithVertexShader(prog.Vertex),
		pipeline.WithFragmentShader(prog.Fragment),
		pipeline.WithColorFormats(ctx.ColorFormat),
		pipeline.WithDepthFormat(ctx.DepthFormat),
		pipeline.WithCullMode(device.CullModeBack),
	)
	if err != nil {
		return err
	}

	if !m.castsShadow {
		return nil
	}
	if m.shadowGroup, err = m.createGroup(ctx, prog.ShadowBindings, res, "shadow"); err != nil {
		return err
	}
	m.shadowPipe, err = m.awaitPipeline(ctx, prog.Key+"/shadow", prog.ShadowBindings,
		pipeline.WithVertexShader(prog.ShadowVertex),
		pipeline.WithDepthFormat(device.TextureFormatDepth32Float),
		pipeline.WithDepthBias(2, 2),
	)
	return err
}

// createResources creates the per-object uniforms and uploads the material maps.
func (m *mesh) createResources(dev device.Device, mat material.Material) (bgp.Resources, error) {
	res := bgp.Resources{}
	uniform := func(label string, size uint64, usage device.BufferUsage) (device.Buffer, error) {
		buf, err := dev.CreateBuffer(device.BufferDescriptor{Label: m.node.Name() + " " + label, Size: size, Usage: usage | device.BufferUsageCopyDst})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s buffer for %s: %w", label, m.node.Name(), err)
		}
		return buf, nil
	}

	var err error
	if m.transformBuffer, err = uniform(resource.Transform, resource.TransformSize, device.BufferUsageUniform); err != nil {
		return nil, err
	}
	res[resource.Transform] = m.transformBuffer
	res[resource.SkinnedTransform] = m.transformBuffer

	uniformData := mat.Uniform()
	if m.materialBuffer, err = uniform(mat.UniformName(), uint64(len(uniformData)), device.BufferUsageUniform); err != nil {
		return nil, err
	}
	if err := dev.WriteBuffer(m.materialBuffer, 0, uniformData); err != nil {
		return nil, fmt.Errorf("failed to upload material for %s: %w", m.node.Name(), err)
	}
	res[mat.UniformName()] = m.materialBuffer

	if m.pose != nil {
		joints := m.pose.Marshal()
		if m.jointBuffer, err = uniform(resource.JointMatrices, uint64(len(joints)), device.BufferUsageStorage); err != nil {
			return nil, err
		}
		if err := dev.WriteBuffer(m.jointBuffer, 0, joints); err != nil {
			return nil, fmt.Errorf("failed to upload joints for %s: %w", m.node.Name(), err)
		}
		res[resource.JointMatrices] = m.jointBuffer
	}

	for _, name := range mat.MapNames() {
		tex, err := uploadMap(dev, m.node.Name()+" "+name, mat.Map(name))
		if err != nil {
			return nil, err
		}
		m.textures = append(m.textures, tex)
		res[name] = tex
	}
	return res, nil
}

func (m *mesh) createGroup(ctx *GroupContext, names []string, res bgp.Resources, pass string) (bgp.BindGroupProvider, error) {
	layout, err := ctx.Factory.SharedLayout(names)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s layout for %s: %w", pass, m.node.Name(), err)
	}
	group, err := ctx.Factory.Create(names, res, layout, m.node.Name()+" "+pass)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s bind group for %s: %w", pass, m.node.Name(), err)
	}
	return group, nil
}

// awaitPipeline fetches the pipeline of key from the cache, building it on first request.
func (m *mesh) awaitPipeline(ctx *GroupContext, key string, names []string, opts ...pipeline.PipelineBuilderOption) (pipeline.Pipeline, error) {
	pending := ctx.Pipelines.Submit(key, func() (pipeline.Pipeline, error) {
		layout, err := ctx.Factory.SharedLayout(names)
		if err != nil {
			return nil, err
		}
		p := pipeline.NewPipeline(key, pipeline.PipelineTypeRender, opts...)
		if err := p.Build(ctx.Device, layout.Handle()); err != nil {
			return nil, err
		}
		ctx.logger().Debugf("built pipeline %s", key)
		return p, nil
	})
	p, err := pending.Await()
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline for %s: %w", m.node.Name(), err)
	}
	return p, nil
}

func (m *mesh) RecordShadow(enc device.RenderBundleEncoder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shadowPipe == nil || m.shadowGroup == nil {
		return
	}
	m.record(enc, m.shadowPipe, m.shadowGroup)
}

func (m *mesh) RecordColor(enc device.RenderBundleEncoder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.colorPipe == nil || m.colorGroup == nil {
		return
	}
	m.record(enc, m.colorPipe, m.colorGroup)
}

func (m *mesh) record(enc device.RenderBundleEncoder, p pipeline.Pipeline, group bgp.BindGroupProvider) {
	enc.SetPipeline(p.Render())
	enc.SetBindGroup(0, group.BindGroup())
	enc.SetVertexBuffer(0, m.vertexBuffer)
	if m.indexBuffer != nil {
		enc.SetIndexBuffer(m.indexBuffer, device.IndexFormatUint32)
		enc.DrawIndexed(m.indexCount, 1)
		return
	}
	enc.Draw(m.vertexCount, 1)
}

func (m *mesh) Update(dev device.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.colorGroup == nil {
		return fmt.Errorf("%w: %s", ErrNotInitialized, m.node.Name())
	}

	transform := NewGPUTransform(m.node.World())
	name := resource.Transform
	if m.kind == KindSkinnedMesh {
		name = resource.SkinnedTransform
	}
	binding, _ := m.colorGroup.Binding(name)
	writes := []bgp.BufferWrite{{Provider: m.colorGroup, Binding: binding, Data: transform.Marshal()}}

	if m.pose != nil {
		if clip, t := m.node.Animation(); clip != nil {
			m.pose.Sample(clip, t)
		} else {
			m.pose.Reset()
		}
		binding, _ := m.colorGroup.Binding(resource.JointMatrices)
		writes = append(writes, bgp.BufferWrite{Provider: m.colorGroup, Binding: binding, Data: m.pose.Marshal()})
	}
	return bgp.FlushWrites(dev, writes)
}

func (m *mesh) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range []bgp.BindGroupProvider{m.colorGroup, m.shadowGroup} {
		if g != nil {
			g.Release()
		}
	}
	m.colorGroup, m.shadowGroup = nil, nil
	for _, b := range []device.Buffer{m.vertexBuffer, m.indexBuffer, m.transformBuffer, m.materialBuffer, m.jointBuffer} {
		if b != nil {
			b.Release()
		}
	}
	m.vertexBuffer, m.indexBuffer, m.transformBuffer, m.materialBuffer, m.jointBuffer = nil, nil, nil, nil, nil
	for _, t := range m.textures {
		t.Release()
	}
	m.textures = nil
	m.colorPipe, m.shadowPipe = nil, nil
}
