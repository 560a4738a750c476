package engine

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-pbr/engine/camera"
	"github.com/Carmen-Shannon/oxy-pbr/engine/controller"
	"github.com/Carmen-Shannon/oxy-pbr/engine/light"
	"github.com/Carmen-Shannon/oxy-pbr/engine/logging"
	"github.com/Carmen-Shannon/oxy-pbr/engine/model"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device/devicetest"
	"github.com/Carmen-Shannon/oxy-pbr/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRenderer records frames against a recording device instead of presenting them.
type fakeRenderer struct {
	mu       sync.Mutex
	dev      *devicetest.Device
	frames   []renderer.Frame
	resized  [][2]int
	released bool
}

func (r *fakeRenderer) Device() device.Device               { return r.dev }
func (r *fakeRenderer) SetPresentMode(renderer.PresentMode) {}

func (r *fakeRenderer) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resized = append(r.resized, [2]int{width, height})
}

func (r *fakeRenderer) RenderFrame(frame renderer.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
	return nil
}

func (r *fakeRenderer) FrameCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return uint64(len(r.frames))
}

func (r *fakeRenderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = true
}

func newTestEngine(t *testing.T) (*engine, *fakeRenderer) {
	t.Helper()
	r := &fakeRenderer{dev: devicetest.New()}
	e := NewEngine(WithRenderer(r), WithLogger(logging.Discard())).(*engine)
	return e, r
}

func testScene(withCamera bool) scene.Scene {
	nodes := []scene.Node{
		scene.NewLightNode("sun", light.NewLight(light.LightTypeDirectional,
			light.WithPosition(mgl32.Vec3{4, 8, 4}),
			light.WithShadowResolution(64),
		)),
		scene.NewMeshNode("cube", model.NewCube("cube", 1), nil),
	}
	if withCamera {
		nodes = append(nodes, scene.NewCameraNode("main", camera.NewCamera()))
	}
	return scene.NewScene("engine test", scene.WithEnvironmentSize(8), scene.WithNodes(nodes...))
}

func TestNewEngineRequiresRendererOrWindow(t *testing.T) {
	assert.Panics(t, func() { NewEngine(WithLogger(logging.Discard())) })
}

func TestLoadRunsControllerSetup(t *testing.T) {
	e, _ := newTestEngine(t)
	s := testScene(true)

	require.NoError(t, e.Load(s))
	assert.Equal(t, s, e.Scene())
	require.NotNil(t, e.Controller())
	assert.Equal(t, controller.StatePassesRecorded, e.Controller().State())
	assert.NotNil(t, e.Controller().ShadowBundle())
	assert.NotNil(t, e.Controller().RenderBundle())
}

func TestLoadFailureLeavesNoScene(t *testing.T) {
	e, _ := newTestEngine(t)

	err := e.Load(testScene(false))
	require.Error(t, err)
	assert.ErrorIs(t, err, controller.ErrSceneConfig)
	assert.Nil(t, e.Controller())
	assert.Nil(t, e.Scene())
}

func TestLoadReplacesPreviousScene(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Load(testScene(true)))
	first := e.Controller()

	require.NoError(t, e.Load(testScene(true)))
	assert.NotSame(t, first, e.Controller())
	assert.Empty(t, first.Objects())
}

func TestFrameReplaysRecordedBundles(t *testing.T) {
	e, r := newTestEngine(t)
	assert.ErrorIs(t, e.frame(0.016), ErrNoScene)

	require.NoError(t, e.Load(testScene(true)))
	var rendered int
	e.SetRenderCallback(func(float32) { rendered++ })

	require.NoError(t, e.frame(0.016))
	require.NoError(t, e.frame(0.016))

	c := e.Controller()
	assert.Equal(t, controller.StateLive, c.State())
	require.Len(t, r.frames, 2)
	assert.Equal(t, c.ShadowBundle(), r.frames[0].ShadowBundle)
	assert.Equal(t, c.ShadowMapView(), r.frames[0].ShadowView)
	assert.Equal(t, c.RenderBundle(), r.frames[1].ColorBundle)
	assert.Equal(t, 2, rendered)
}

func TestTickAdvancesSceneAndCallsBack(t *testing.T) {
	e, _ := newTestEngine(t)
	require.NoError(t, e.Load(testScene(true)))

	var got []float32
	e.SetTickCallback(func(dt float32) { got = append(got, dt) })
	e.tick(0.5)
	e.SetAnimate(false)
	assert.False(t, e.Animating())
	e.tick(0.25)

	assert.Equal(t, []float32{0.5, 0.25}, got)
}

func TestResizeUpdatesCameraAspect(t *testing.T) {
	e, r := newTestEngine(t)
	require.NoError(t, e.Load(testScene(true)))

	e.resize(800, 400)

	assert.Equal(t, [][2]int{{800, 400}}, r.resized)
	assert.InDelta(t, 2.0, e.camera.Aspect(), 1e-6)
}

func TestRunHeadlessStopsOnQuit(t *testing.T) {
	e, r := newTestEngine(t)
	require.NoError(t, e.Load(testScene(true)))
	e.SetRenderCallback(func(float32) { e.Quit() })

	e.Run()

	assert.True(t, r.released)
	assert.Nil(t, e.Controller())
	assert.GreaterOrEqual(t, r.FrameCount(), uint64(1))
}
