package ibl

import (
	"encoding/binary"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/Carmen-Shannon/oxy-pbr/engine/logging"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device/devicetest"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSources(t *testing.T, dev *devicetest.Device, size, mips uint32) Sources {
	t.Helper()
	env, err := dev.CreateTexture(device.TextureDescriptor{
		Label:         "env",
		Size:          device.Extent3D{Width: size, Height: size, DepthOrArrayLayers: 6},
		Format:        device.TextureFormatRGBA8Unorm,
		MipLevelCount: mips,
	})
	require.NoError(t, err)
	diffuse, err := dev.CreateTexture(device.TextureDescriptor{
		Label:         "diffuse env",
		Size:          device.Extent3D{Width: DiffuseEnvMapResolution, Height: DiffuseEnvMapResolution, DepthOrArrayLayers: 6},
		Format:        device.TextureFormatRGBA8Unorm,
		MipLevelCount: 1,
	})
	require.NoError(t, err)
	return Sources{EnvMap: env, DiffuseEnvMap: diffuse}
}

func newEngine(dev device.Device, options ...EngineOption) *Engine {
	composer := shader.NewComposer(shader.WithLogger(logging.Discard()))
	return NewEngine(dev, composer, append([]EngineOption{WithLogger(logging.Discard())}, options...)...)
}

func TestEngineStateMachine(t *testing.T) {
	dev := devicetest.New()
	e := newEngine(dev)
	assert.Equal(t, StateUninitialized, e.State())

	_, err := e.Run()
	require.ErrorIs(t, err, ErrInvalidState)

	src := newSources(t, dev, 512, 5)
	require.NoError(t, e.InitComputePipeline(src))
	assert.Equal(t, StatePipelinesBuilt, e.State())
	require.ErrorIs(t, e.InitComputePipeline(src), ErrInvalidState)

	cmd, err := e.Run()
	require.NoError(t, err)
	require.NotNil(t, cmd)
	assert.Equal(t, StateExecuted, e.State())

	_, err = e.Run()
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Empty(t, dev.Submitted, "the engine never submits on its own")
	assert.Zero(t, dev.WaitCount)
}

func TestEngineDispatchPlan(t *testing.T) {
	dev := devicetest.New()
	e := newEngine(dev)
	require.NoError(t, e.InitComputePipeline(newSources(t, dev, 512, 5)))

	assert.Equal(t, uint32(5), e.MipCount())
	assert.Equal(t, []Dispatch{
		{Kind: shader.PrecomputeDiffuse, Mip: 0, Resolution: 256, X: 16, Y: 16, Z: 6},
		{Kind: shader.PrecomputeSpecular, Mip: 1, Resolution: 256, X: 16, Y: 16, Z: 6},
		{Kind: shader.PrecomputeSpecular, Mip: 2, Resolution: 128, X: 8, Y: 8, Z: 6},
		{Kind: shader.PrecomputeSpecular, Mip: 3, Resolution: 64, X: 4, Y: 4, Z: 6},
		{Kind: shader.PrecomputeSpecular, Mip: 4, Resolution: 32, X: 2, Y: 2, Z: 6},
	}, e.Plan())

	cmdBuf, err := e.Run()
	require.NoError(t, err)
	cmd := cmdBuf.(*devicetest.CommandBuffer)

	dispatches := cmd.Dispatches()
	require.Len(t, dispatches, 5)
	for i, d := range e.Plan() {
		assert.Equal(t, [3]uint32{d.X, d.Y, d.Z}, dispatches[i].Counts)
	}
}

func TestEngineBindingsAndTempTexture(t *testing.T) {
	dev := devicetest.New()
	e := newEngine(dev)
	src := newSources(t, dev, 512, 5)
	require.NoError(t, e.InitComputePipeline(src))

	require.Len(t, dev.ComputePipelines, 2)
	require.Len(t, dev.Textures, 3)
	temp := dev.Textures[2]
	assert.Equal(t, device.Extent3D{Width: 256, Height: 256, DepthOrArrayLayers: 24}, temp.Desc.Size)
	assert.Equal(t, device.TextureUsageStorageBinding|device.TextureUsageCopySrc, temp.Desc.Usage)

	// Diffuse layout: storage output then sampled source.
	diffuseLayout := dev.BindGroupLayouts[0].Desc.Entries
	require.Len(t, diffuseLayout, 2)
	require.NotNil(t, diffuseLayout[0].StorageTexture)
	assert.Equal(t, device.StorageTextureAccessWriteOnly, diffuseLayout[0].StorageTexture.Access)
	require.NotNil(t, diffuseLayout[1].Texture)
	assert.Equal(t, device.ShaderStageCompute, diffuseLayout[1].Visibility)

	require.Len(t, dev.BindGroups, 5)
	diffuseGroup := dev.BindGroups[0].Desc.Entries
	assert.Same(t, src.DiffuseEnvMap, diffuseGroup[0].TextureView.(*devicetest.TextureView).Texture)
	assert.Same(t, src.EnvMap, diffuseGroup[1].TextureView.(*devicetest.TextureView).Texture)

	for i, g := range dev.BindGroups[1:] {
		mip := uint32(i + 1)
		entries := g.Desc.Entries
		require.Len(t, entries, 3)
		assert.Same(t, temp, entries[0].TextureView.(*devicetest.TextureView).Texture)
		params := entries[2].Buffer.(*devicetest.Buffer).Data()
		assert.Equal(t, mip, binary.LittleEndian.Uint32(params[0:]))
		assert.Equal(t, uint32(5), binary.LittleEndian.Uint32(params[4:]))
		assert.Equal(t, uint32(512), binary.LittleEndian.Uint32(params[8:]))
	}
}

func TestEngineCopiesTempSlices(t *testing.T) {
	dev := devicetest.New()
	e := newEngine(dev)
	src := newSources(t, dev, 512, 5)
	require.NoError(t, e.InitComputePipeline(src))
	cmdBuf, err := e.Run()
	require.NoError(t, err)

	var copies []devicetest.Command
	for _, c := range cmdBuf.(*devicetest.CommandBuffer).Commands {
		if c.Op == devicetest.OpCopyTexture {
			copies = append(copies, c)
		}
	}
	require.Len(t, copies, 4)
	for i, c := range copies {
		mip := uint32(i + 1)
		assert.Equal(t, (mip-1)*6, c.Src.Origin.Z)
		assert.Equal(t, mip, c.Dst.MipLevel)
		assert.Same(t, src.EnvMap, c.Dst.Texture)
		assert.Equal(t, uint32(512)>>mip, c.Size.Width)
		assert.Equal(t, uint32(6), c.Size.DepthOrArrayLayers)
	}
}

func TestEngineRunPropagatesCopyFailure(t *testing.T) {
	dev := devicetest.New()
	e := newEngine(dev)
	require.NoError(t, e.InitComputePipeline(newSources(t, dev, 64, 5)))

	boom := errors.New("copy rejected")
	dev.Fail["CopyTextureToTexture"] = boom
	cmd, err := e.Run()
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "mip 1")
	assert.Nil(t, cmd)
	assert.Equal(t, StatePipelinesBuilt, e.State())
}

func TestEngineInitPropagatesParamsWriteFailure(t *testing.T) {
	dev := devicetest.New()
	e := newEngine(dev)
	boom := errors.New("queue lost")
	dev.Fail["WriteBuffer"] = boom
	require.ErrorIs(t, e.InitComputePipeline(newSources(t, dev, 64, 5)), boom)
}

func TestEngineMipCountClamp(t *testing.T) {
	dev := devicetest.New()
	e := newEngine(dev)
	require.NoError(t, e.InitComputePipeline(newSources(t, dev, 512, 9)))
	assert.Equal(t, uint32(EnvMapMipLevelCount), e.MipCount())

	dev = devicetest.New()
	e = newEngine(dev)
	require.NoError(t, e.InitComputePipeline(newSources(t, dev, 512, 3)))
	assert.Equal(t, uint32(3), e.MipCount())
	assert.Len(t, e.Plan(), 3)

	dev = devicetest.New()
	e = newEngine(dev, WithMipCount(1))
	require.NoError(t, e.InitComputePipeline(newSources(t, dev, 512, 5)))
	assert.Len(t, e.Plan(), 1)
	assert.Len(t, dev.ComputePipelines, 1)
}

func TestEngineRelease(t *testing.T) {
	dev := devicetest.New()
	e := newEngine(dev)
	src := newSources(t, dev, 64, 5)
	require.NoError(t, e.InitComputePipeline(src))
	_, err := e.Run()
	require.NoError(t, err)
	e.Release()

	assert.True(t, dev.Textures[2].Released())
	assert.False(t, dev.Textures[0].Released(), "source textures are not owned")
	for _, g := range dev.BindGroups {
		assert.True(t, g.Released())
	}
}

func TestBRDFLut(t *testing.T) {
	dev := devicetest.New()
	lut := NewBRDFLut(dev, shader.NewComposer(shader.WithLogger(logging.Discard())), logging.Discard())

	_, err := lut.Run()
	require.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, lut.InitComputePipeline())
	assert.Equal(t, Dispatch{Kind: shader.PrecomputeBRDF, Resolution: LutResolution, X: 32, Y: 32, Z: 1}, lut.Plan())
	require.NotNil(t, lut.Texture())
	assert.Equal(t, uint32(LutResolution), lut.Texture().Size().Width)

	cmd, err := lut.Run()
	require.NoError(t, err)
	require.Len(t, cmd.(*devicetest.CommandBuffer).Dispatches(), 1)
	assert.Equal(t, StateExecuted, lut.State())

	lut.Release(true)
	assert.False(t, dev.Textures[0].Released())
}

func TestRadicalInverse(t *testing.T) {
	assert.Equal(t, float32(0), RadicalInverse(0))
	assert.Equal(t, float32(0.5), RadicalInverse(1))
	assert.Equal(t, float32(0.25), RadicalInverse(2))
	assert.Equal(t, float32(0.75), RadicalInverse(3))
	assert.Equal(t, mgl32.Vec2{0.25, 0.5}, Hammersley(1, 4))
}

func TestHemisphereSamplesAreUnitAndUpper(t *testing.T) {
	for i := uint32(0); i < SampleCount; i++ {
		s := HemisphereSampleCosine(Hammersley(i, SampleCount))
		assert.GreaterOrEqual(t, s[1], float32(0))
		assert.InDelta(t, 1, s.Len(), 1e-4)
	}
}

func TestTangentFrameDegenerateNormal(t *testing.T) {
	for _, N := range []mgl32.Vec3{{0, 1, 0}, {0, -1, 0}, {0, 0.9995, 0.0316}} {
		N = N.Normalize()
		frame := TangentFrame(N)
		T, n, B := frame.Col(0), frame.Col(1), frame.Col(2)
		assert.InDelta(t, 1, T.Len(), 1e-5)
		assert.InDelta(t, 1, B.Len(), 1e-5)
		assert.InDelta(t, 0, T.Dot(N), 1e-5)
		assert.InDelta(t, 0, B.Dot(N), 1e-5)
		assert.Equal(t, N, n)
		// The sampled pole maps onto N.
		assert.True(t, frame.Mul3x1(mgl32.Vec3{0, 1, 0}).ApproxEqualThreshold(N, 1e-5))
	}
	frame := TangentFrame(mgl32.Vec3{0, 1, 0})
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, frame.Col(0))
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, frame.Col(2))
}

// The reference is only meaningful while it evaluates the same estimator as the
// dispatched programs.
func TestReferenceMatchesPrecomputePrograms(t *testing.T) {
	c := shader.NewComposer(shader.WithLogger(logging.Discard()))
	diffuse, err := c.ComposePrecompute(shader.PrecomputeDiffuse)
	require.NoError(t, err)
	specular, err := c.ComposePrecompute(shader.PrecomputeSpecular)
	require.NoError(t, err)

	for _, src := range []string{diffuse.Compute.Source(), specular.Compute.Source()} {
		assert.Contains(t, src, fmt.Sprintf("const SAMPLE_COUNT: u32 = %du;", SampleCount))
		assert.Contains(t, src, fmt.Sprintf("if (abs(N.y) >= %g) {", TangentFrameThreshold))
		assert.Contains(t, src, "return mat3x3<f32>(T, N, B);")
		assert.Contains(t, src, "f32(reverseBits(i)) * 2.3283064365386963e-10")
	}

	// Diffuse is the plain mean of cosine-distributed samples, with no NoL weight.
	assert.Contains(t, diffuse.Compute.Source(), "sum = sum + sampleSource(L);")
	assert.Contains(t, diffuse.Compute.Source(), "sum / f32(SAMPLE_COUNT)")
	assert.NotContains(t, diffuse.Compute.Source(), "NoL")

	// Specular skips samples below the horizon and normalizes by the NoL weight.
	assert.Contains(t, specular.Compute.Source(), "if (NoL > 0.0) {")
	assert.Contains(t, specular.Compute.Source(), "sum = sum + sampleSource(L) * NoL;")
	assert.Contains(t, specular.Compute.Source(), "sum / max(weight, EPS)")
}

func TestReferenceDiffuseOfConstantRadiance(t *testing.T) {
	src := common.NewCubeStagingData(8)
	L := mgl32.Vec3{0.5, 0.25, 0.75}
	src.Fill(func(mgl32.Vec3) mgl32.Vec3 { return L })

	pool := worker.NewDynamicWorkerPool(3, 8, time.Second)
	ref := NewReference(WithPool(pool), WithSampleCount(64))
	out, err := ref.Diffuse(src, 4)
	require.NoError(t, err)
	require.Equal(t, uint32(4), out.Size)

	want := src.At(0, 0, 0)
	for face := 0; face < 6; face++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				got := out.At(face, x, y)
				for c := 0; c < 3; c++ {
					assert.InDelta(t, want[c], got[c], 1.0/255)
				}
			}
		}
	}
}

func TestReferenceSpecularRoughnessZeroIsMirror(t *testing.T) {
	src := common.NewCubeStagingData(8)
	src.Fill(func(dir mgl32.Vec3) mgl32.Vec3 {
		return dir.Add(mgl32.Vec3{1, 1, 1}).Mul(0.5)
	})
	ref := NewReference()

	for face := 0; face < 6; face++ {
		N := common.CubeTexelDirection(face, 3, 2, 8)
		got := ref.SpecularAt(src, N, 0)
		want := src.Sample(N)
		for c := 0; c < 3; c++ {
			assert.InDelta(t, want[c], got[c], 1e-4)
		}
	}
}

func TestReferenceSpecularMipRange(t *testing.T) {
	src := common.NewCubeStagingData(8)
	ref := NewReference(WithSampleCount(16))

	_, err := ref.Specular(src, 0, 5)
	assert.Error(t, err)
	_, err = ref.Specular(src, 5, 5)
	assert.Error(t, err)

	out, err := ref.Specular(src, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), out.Size)
}
