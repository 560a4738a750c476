package pipeline

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/Carmen-Shannon/oxy-pbr/engine/logging"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device/devicetest"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func composeDefault(t *testing.T) *shader.Program {
	t.Helper()
	c := shader.NewComposer(shader.WithLogger(logging.Discard()))
	p, err := c.Compose(shader.NewFeatureSet(), shader.ShadingModelPBR)
	require.NoError(t, err)
	return p
}

func TestBuildRenderPipeline(t *testing.T) {
	dev := devicetest.New()
	prog := composeDefault(t)

	p := NewPipeline(prog.Key+"/color", PipelineTypeRender,
		WithVertexShader(prog.Vertex),
		WithFragmentShader(prog.Fragment),
		WithColorFormats(dev.PreferredFormat()),
		WithCullMode(device.CullModeBack),
	)
	layout, err := dev.CreateBindGroupLayout(prog.Fragment.BindGroupLayoutDescriptor(0))
	require.NoError(t, err)
	require.NoError(t, p.Build(dev, layout))

	require.Len(t, dev.RenderPipelines, 1)
	desc := dev.RenderPipelines[0].Desc
	assert.Equal(t, "vs_main", desc.VertexEntryPoint)
	assert.Equal(t, "fs_main", desc.FragmentEntry)
	assert.Equal(t, []device.TextureFormat{device.TextureFormatBGRA8Unorm}, desc.ColorFormats)
	require.NotNil(t, desc.DepthStencil)
	assert.Equal(t, device.TextureFormatDepth32Float, desc.DepthStencil.Format)
	assert.Equal(t, device.CompareFunctionLess, desc.DepthStencil.DepthCompare)
	assert.True(t, desc.DepthStencil.DepthWriteEnabled)
	assert.Equal(t, device.CullModeBack, desc.CullMode)
	require.Len(t, desc.VertexBuffers, 1)
	assert.Equal(t, uint64(32), desc.VertexBuffers[0].ArrayStride)
	assert.Len(t, dev.ShaderModules, 2)
	assert.Same(t, dev.RenderPipelines[0], p.Render())
	assert.Nil(t, p.Compute())
}

func TestBuildDepthOnlyPipeline(t *testing.T) {
	dev := devicetest.New()
	prog := composeDefault(t)

	p := NewPipeline(prog.Key+"/shadow", PipelineTypeRender,
		WithVertexShader(prog.ShadowVertex),
		WithColorFormats(dev.PreferredFormat()),
		WithDepthBias(2, 2.0),
	)
	require.NoError(t, p.Build(dev))

	desc := dev.RenderPipelines[0].Desc
	assert.Nil(t, desc.FragmentModule)
	assert.Empty(t, desc.ColorFormats)
	assert.Empty(t, p.ColorFormats())
	assert.Equal(t, int32(2), desc.DepthStencil.DepthBias)
	assert.Equal(t, float32(2.0), desc.DepthStencil.DepthBiasSlopeScale)
}

func TestBuildComputePipeline(t *testing.T) {
	dev := devicetest.New()
	c := shader.NewComposer(shader.WithLogger(logging.Discard()))
	prog, err := c.ComposePrecompute(shader.PrecomputeDiffuse)
	require.NoError(t, err)

	p := NewPipeline(prog.Key, PipelineTypeCompute, WithComputeShader(prog.Compute))
	require.NoError(t, p.Build(dev))
	require.Len(t, dev.ComputePipelines, 1)
	assert.Equal(t, "cs_main", dev.ComputePipelines[0].Desc.EntryPoint)
	assert.Same(t, dev.ComputePipelines[0], p.Compute())

	p.Release()
	assert.True(t, dev.ComputePipelines[0].Released())
	assert.True(t, dev.PipelineLayouts[0].Released())
	assert.True(t, dev.ShaderModules[0].Released())
}

func TestBuildMissingShader(t *testing.T) {
	dev := devicetest.New()
	assert.Error(t, NewPipeline("empty", PipelineTypeCompute).Build(dev))
	assert.Error(t, NewPipeline("empty", PipelineTypeRender).Build(dev))
}

func TestBuildPropagatesDeviceError(t *testing.T) {
	dev := devicetest.New()
	boom := errors.New("boom")
	dev.Fail["CreateRenderPipeline"] = boom
	prog := composeDefault(t)

	err := NewPipeline("p", PipelineTypeRender, WithVertexShader(prog.Vertex)).Build(dev)
	require.ErrorIs(t, err, boom)
}

func TestCacheSharesBuild(t *testing.T) {
	pool := worker.NewDynamicWorkerPool(4, 64, time.Second)
	cache := NewCache(pool)

	var builds atomic.Int32
	release := make(chan struct{})
	build := func() (Pipeline, error) {
		builds.Add(1)
		<-release
		return NewPipeline("shared", PipelineTypeCompute), nil
	}

	var wg sync.WaitGroup
	results := make([]Pipeline, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h := cache.Submit("shared", build)
			results[i], _ = h.Await()
		}(i)
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), builds.Load())
	assert.Equal(t, 1, cache.Len())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestCacheKeepsErrors(t *testing.T) {
	cache := NewCache(nil)
	boom := errors.New("boom")
	calls := 0
	build := func() (Pipeline, error) {
		calls++
		return nil, boom
	}

	_, err := cache.Submit("k", build).Await()
	require.ErrorIs(t, err, boom)
	_, err = cache.Submit("k", build).Await()
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)

	h, ok := cache.Get("k")
	require.True(t, ok)
	assert.True(t, h.Done())
}

func TestCacheRelease(t *testing.T) {
	dev := devicetest.New()
	prog := composeDefault(t)
	cache := NewCache(nil)

	h := cache.Submit("shadow", func() (Pipeline, error) {
		p := NewPipeline("shadow", PipelineTypeRender, WithVertexShader(prog.ShadowVertex))
		return p, p.Build(dev)
	})
	_, err := h.Await()
	require.NoError(t, err)

	cache.Release()
	assert.Equal(t, 0, cache.Len())
	assert.True(t, dev.RenderPipelines[0].Released())
}

func TestCacheWithoutPoolSharesConcurrentBuild(t *testing.T) {
	cache := NewCache(nil)
	var builds atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	build := func() (Pipeline, error) {
		builds.Add(1)
		close(started)
		<-release
		return NewPipeline("shared", PipelineTypeCompute), nil
	}

	first := make(chan *common.Pending[Pipeline])
	go func() { first <- cache.Submit("shared", build) }()
	<-started

	second := cache.Submit("shared", build)
	assert.False(t, second.Done(), "the second requester shares the in-flight build")
	close(release)

	a, err := (<-first).Await()
	require.NoError(t, err)
	b, err := second.Await()
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, int32(1), builds.Load())
}

func TestCacheWithoutPoolRecoversPanic(t *testing.T) {
	cache := NewCache(nil)
	_, err := cache.Submit("bad", func() (Pipeline, error) { panic("boom") }).Await()
	assert.ErrorContains(t, err, "panicked")
}
