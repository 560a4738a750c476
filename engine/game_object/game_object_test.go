package game_object

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/Carmen-Shannon/oxy-pbr/engine/model"
	bgp "github.com/Carmen-Shannon/oxy-pbr/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device/devicetest"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-pbr/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(t *testing.T) (*devicetest.Device, *GroupContext) {
	t.Helper()
	dev := devicetest.New()

	buffer := func(label string, size uint64) device.Buffer {
		b, err := dev.CreateBuffer(device.BufferDescriptor{Label: label, Size: size, Usage: device.BufferUsageUniform})
		require.NoError(t, err)
		return b
	}
	texture := func(label string, size, layers, mips uint32, format device.TextureFormat) device.Texture {
		tex, err := dev.CreateTexture(device.TextureDescriptor{
			Label:         label,
			Size:          device.Extent3D{Width: size, Height: size, DepthOrArrayLayers: layers},
			Format:        format,
			MipLevelCount: mips,
			Usage:         device.TextureUsageTextureBinding,
		})
		require.NoError(t, err)
		return tex
	}
	sampler := func(label string) device.Sampler {
		s, err := dev.CreateSampler(device.SamplerDescriptor{Label: label})
		require.NoError(t, err)
		return s
	}

	ctx := &GroupContext{
		Device:    dev,
		Factory:   bgp.NewFactory(dev),
		Composer:  shader.NewComposer(),
		Pipelines: pipeline.NewCache(nil),
		Shared: bgp.Resources{
			resource.Camera:           buffer("camera", resource.CameraSize),
			resource.Light:            buffer("light", resource.LightSize),
			resource.ShadowCamera:     buffer("shadow camera", resource.ShadowCameraSize),
			resource.ShadowMapSampler: sampler("shadow"),
			resource.TextureSampler:   sampler("texture"),
			resource.EnvSampler:       sampler("env"),
			resource.ShadowMap:        texture("shadow map", 16, 1, 1, device.TextureFormatDepth32Float),
			resource.EnvMap:           texture("env map", 8, 6, 4, device.TextureFormatRGBA8Unorm),
			resource.DiffuseEnvMap:    texture("diffuse env map", 4, 6, 1, device.TextureFormatRGBA8Unorm),
			resource.BRDFLut:          texture("brdf lut", 4, 1, 1, device.TextureFormatRGBA8Unorm),
		},
		Features:    shader.FeatureSet{}.With(shader.FeatureEnvMap),
		ColorFormat: dev.PreferredFormat(),
		DepthFormat: device.TextureFormatDepth32Float,
	}
	return dev, ctx
}

func initDrawable(t *testing.T, ctx *GroupContext, d Drawable) {
	t.Helper()
	require.NoError(t, d.InitVertexBuffer(ctx.Device))
	require.NoError(t, d.InitGroupResource(ctx))
}

func record(t *testing.T, dev *devicetest.Device, fn func(device.RenderBundleEncoder)) *devicetest.RenderBundle {
	t.Helper()
	enc, err := dev.CreateRenderBundleEncoder(device.RenderBundleEncoderDescriptor{Label: "test"})
	require.NoError(t, err)
	fn(enc)
	b, err := enc.Finish("test")
	require.NoError(t, err)
	return b.(*devicetest.RenderBundle)
}

func TestStaticMeshRecordsIndexedDraws(t *testing.T) {
	dev, ctx := newContext(t)
	cube := scene.NewMeshNode("cube", model.NewCube("cube", 1), nil)
	d := NewStaticMesh(cube)
	initDrawable(t, ctx, d)

	assert.Equal(t, KindStaticMesh, d.Kind())
	assert.Equal(t, cube.ID(), d.ID())
	assert.True(t, d.Features().Has(shader.FeatureEnvMap))

	color := record(t, dev, d.RecordColor)
	require.Len(t, color.Draws(), 1)
	assert.Equal(t, devicetest.OpDrawIndexed, color.Draws()[0].Op)
	assert.Equal(t, uint32(len(cube.Model().Indices())), color.Draws()[0].Counts[0])
	assert.Equal(t, "cube color", color.Commands[1].BindGroup.Desc.Label)

	shadow := record(t, dev, d.RecordShadow)
	require.Len(t, shadow.Draws(), 1)
	assert.Equal(t, "cube shadow", shadow.Commands[1].BindGroup.Desc.Label)
}

func TestMeshesWithSameProgramSharePipelines(t *testing.T) {
	dev, ctx := newContext(t)
	a := NewStaticMesh(scene.NewMeshNode("a", model.NewCube("a", 1), nil))
	b := NewStaticMesh(scene.NewMeshNode("b", model.NewSphere("b", 1, 8, 4), nil))
	initDrawable(t, ctx, a)
	initDrawable(t, ctx, b)

	assert.Equal(t, 2, ctx.Pipelines.Len())
	assert.Len(t, dev.RenderPipelines, 2)
}

func TestInitGroupResourceRequiresVertexBuffer(t *testing.T) {
	_, ctx := newContext(t)
	d := NewStaticMesh(scene.NewMeshNode("cube", model.NewCube("cube", 1), nil))
	err := d.InitGroupResource(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestInitGroupResourceReportsDeviceFailure(t *testing.T) {
	dev, ctx := newContext(t)
	d := NewStaticMesh(scene.NewMeshNode("cube", model.NewCube("cube", 1), nil))
	require.NoError(t, d.InitVertexBuffer(dev))

	boom := errors.New("boom")
	dev.Fail["CreateRenderPipeline"] = boom
	assert.ErrorIs(t, d.InitGroupResource(ctx), boom)
}

func TestMeshWithoutShadowRecordsNothing(t *testing.T) {
	dev, ctx := newContext(t)
	d := NewStaticMesh(scene.NewMeshNode("plane", model.NewPlane("plane", 10), nil), WithCastsShadow(false))
	initDrawable(t, ctx, d)

	assert.Empty(t, record(t, dev, d.RecordShadow).Commands)
	assert.Len(t, record(t, dev, d.RecordColor).Draws(), 1)
	assert.Equal(t, 1, ctx.Pipelines.Len())
}

func TestMaterialMapsAreUploaded(t *testing.T) {
	dev, ctx := newContext(t)
	pixels := make([]byte, 4*2*2)
	mat := material.NewMaterial(material.WithBaseMap(&common.TextureStagingData{Pixels: pixels, Width: 2, Height: 2}))
	d := NewStaticMesh(scene.NewMeshNode("crate", model.NewCube("crate", 1), mat))
	initDrawable(t, ctx, d)

	assert.True(t, d.Features().Has(shader.FeatureBaseMap))
	assert.Equal(t, 1, dev.TextureWrites)
}

func TestUpdateWritesWorldTransform(t *testing.T) {
	dev, ctx := newContext(t)
	node := scene.NewMeshNode("cube", model.NewCube("cube", 1), nil)
	local := model.IdentityTransform()
	local.Translation = mgl32.Vec3{1, 2, 3}
	node.SetLocal(local)
	sc := scene.NewScene("test", scene.WithNodes(node), scene.WithEnvironmentSize(4))
	sc.UpdateWorld()

	d := NewStaticMesh(node)
	initDrawable(t, ctx, d)
	require.NoError(t, d.Update(dev))

	buffers := dev.BuffersLabelled("cube transform")
	require.Len(t, buffers, 1)
	expected := NewGPUTransform(mgl32.Translate3D(1, 2, 3))
	assert.Equal(t, expected.Marshal(), buffers[0].Data())
}

func TestUpdateBeforeInit(t *testing.T) {
	dev, _ := newContext(t)
	d := NewStaticMesh(scene.NewMeshNode("cube", model.NewCube("cube", 1), nil))
	assert.ErrorIs(t, d.Update(dev), ErrNotInitialized)
}

func TestSkinnedMeshSamplesAnimation(t *testing.T) {
	dev, ctx := newContext(t)
	skeleton := &model.Skeleton{Bones: []model.Bone{
		{Name: "root", ParentIndex: -1, InverseBindMatrix: mgl32.Ident4(), LocalTransform: model.IdentityTransform()},
	}}
	clip := &model.AnimationClip{Name: "lift", Duration: 1, Channels: []model.AnimationChannel{{
		BoneIndex:    0,
		PositionKeys: []model.VectorKeyframe{{Time: 0}, {Time: 1, Value: mgl32.Vec3{0, 2, 0}}},
	}}}
	cube := model.NewCube("arm", 1)
	geo := model.NewModel(
		model.WithName("arm"),
		model.WithVertices(cube.Vertices()),
		model.WithIndices(cube.Indices()),
		model.WithTangents(true),
		model.WithSkeleton(skeleton),
		model.WithAnimations(clip),
	)
	node := scene.NewMeshNode("arm", geo, nil)

	d := FromMeshNode(node)
	assert.Equal(t, KindSkinnedMesh, d.Kind())
	initDrawable(t, ctx, d)
	assert.True(t, d.Features().Has(shader.FeatureSkinned))

	require.True(t, node.Play("lift"))
	node.Advance(0.5)
	require.NoError(t, d.Update(dev))

	expected := model.NewPose(skeleton)
	expected.Sample(clip, 0.5)
	joints := dev.BuffersLabelled("arm jointMatrices")
	require.Len(t, joints, 1)
	assert.Equal(t, expected.Marshal(), joints[0].Data())
	assert.Len(t, dev.BuffersLabelled("arm transform"), 1)
}

func TestBackdropDrawsFullScreenTriangle(t *testing.T) {
	dev, ctx := newContext(t)
	d := NewBackdrop()
	initDrawable(t, ctx, d)

	assert.Empty(t, record(t, dev, d.RecordShadow).Commands)
	color := record(t, dev, d.RecordColor)
	require.Len(t, color.Draws(), 1)
	assert.Equal(t, devicetest.OpDraw, color.Draws()[0].Op)
	assert.Equal(t, [3]uint32{3, 1, 0}, color.Draws()[0].Counts)

	require.Len(t, dev.RenderPipelines, 1)
	depth := dev.RenderPipelines[0].Desc.DepthStencil
	require.NotNil(t, depth)
	assert.Equal(t, device.CompareFunctionLessEqual, depth.DepthCompare)
	assert.False(t, depth.DepthWriteEnabled)
	assert.Empty(t, dev.RenderPipelines[0].Desc.VertexBuffers)
}

func TestReleaseFreesOwnedResources(t *testing.T) {
	dev, ctx := newContext(t)
	d := NewStaticMesh(scene.NewMeshNode("cube", model.NewCube("cube", 1), nil))
	initDrawable(t, ctx, d)
	d.Release()

	for _, label := range []string{"cube vertices", "cube indices", "cube transform"} {
		buffers := dev.BuffersLabelled(label)
		require.Len(t, buffers, 1, label)
		assert.True(t, buffers[0].Released(), label)
	}
	assert.False(t, dev.BuffersLabelled("camera")[0].Released())
}
