package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-pbr/engine/camera"
	"github.com/Carmen-Shannon/oxy-pbr/engine/controller"
	"github.com/Carmen-Shannon/oxy-pbr/engine/logging"
	"github.com/Carmen-Shannon/oxy-pbr/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pbr/engine/scene"
	"github.com/Carmen-Shannon/oxy-pbr/engine/window"
)

// ErrNoScene is returned when a frame is requested before a scene was loaded.
var ErrNoScene = errors.New("no scene loaded")

// engine implements the Engine interface.
// Coordinates the tick, render and window threads around one loaded scene.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window          window.Window
	renderer        renderer.Renderer
	rendererOptions []renderer.RendererBuilderOption
	logger          logging.Logger

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)
	animate        bool

	// sceneMu guards the scene graph between the tick thread, which moves nodes and
	// advances clips, and the render thread, which reads them in controller.Update.
	sceneMu           sync.Mutex
	scene             scene.Scene
	camera            camera.Camera
	controller        controller.Controller
	controllerOptions []controller.ControllerBuilderOption

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine is the main entry point for the engine.
// It owns the window and renderer, binds one scene to a render controller and drives
// the fixed-rate tick loop and the render loop.
type Engine interface {
	// Window returns the underlying window, or nil when the engine runs headless.
	Window() window.Window

	// Renderer returns the renderer the scene is drawn with.
	Renderer() renderer.Renderer

	// Load binds the scene to a new render controller and runs its whole setup: scene
	// binding, resource creation with the lighting precompute, and both bundle recordings.
	// A previously loaded scene is released first.
	//
	// Parameters:
	//   - s: the scene to load
	//
	// Returns:
	//   - error: the first setup failure; the engine then has no scene loaded
	Load(s scene.Scene) error

	// Scene returns the loaded scene, or nil.
	Scene() scene.Scene

	// Controller returns the render controller of the loaded scene, or nil.
	Controller() controller.Controller

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick, after the scene's
	// animation clips have been advanced. It may move scene nodes freely. The callback runs
	// under the scene lock, so it must not call back into Load, Scene, Controller, SetAnimate
	// or Animating.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each presented frame.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetAnimate toggles advancing the scene's animation clips on each tick.
	SetAnimate(enabled bool)

	// Animating reports whether animation clips advance on each tick.
	Animating() bool

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the main engine loop (blocks until window closes), then releases the
	// controller and the renderer.
	Run()

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// When a window is set and no renderer is, a WebGPU renderer is created on the window.
//
// Parameters:
//   - options: functional options for engine configuration (window, profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		running:         false,
		wg:              sync.WaitGroup{},
		engineTickRate:  time.Second / 60,
		animate:         true,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logging.Default()
	}
	e.logger = e.logger.With("Engine")
	e.profiler = profiler.NewProfiler(e.logger, time.Second)

	if e.window != nil {
		if e.renderer == nil {
			e.renderer = renderer.NewRenderer(renderer.BackendTypeWGPU, e.window, e.rendererOptions...)
		}
		e.window.SetResizeCallback(e.resize)
	}
	if e.renderer == nil {
		panic("engine: NewEngine requires a window or a renderer")
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Scene() scene.Scene {
	e.sceneMu.Lock()
	defer e.sceneMu.Unlock()
	return e.scene
}

func (e *engine) Controller() controller.Controller {
	e.sceneMu.Lock()
	defer e.sceneMu.Unlock()
	return e.controller
}

func (e *engine) Load(s scene.Scene) error {
	e.sceneMu.Lock()
	defer e.sceneMu.Unlock()

	e.unload()

	opts := append([]controller.ControllerBuilderOption{controller.WithLogger(e.logger)}, e.controllerOptions...)
	c := controller.NewController(e.renderer.Device(), opts...)
	steps := []struct {
		name string
		run  func() error
	}{
		{"scene", func() error { return c.InitScene(s) }},
		{"resources", c.InitResources},
		{"shadow pass", c.InitShadowPass},
		{"render pass", c.InitRenderPass},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			c.Release()
			return fmt.Errorf("failed to load scene %q (%s): %w", s.Name(), step.name, err)
		}
	}

	e.scene = s
	e.controller = c
	e.camera = findCamera(s)
	if e.window != nil && e.camera != nil && e.window.Height() > 0 {
		e.camera.SetAspect(float32(e.window.Width()) / float32(e.window.Height()))
	}
	e.logger.Infof("loaded scene %q with %d objects", s.Name(), len(c.Objects()))
	return nil
}

// unload releases the current controller. Callers hold sceneMu.
func (e *engine) unload() {
	if e.controller != nil {
		e.controller.Release()
	}
	e.controller = nil
	e.scene = nil
	e.camera = nil
}

func findCamera(s scene.Scene) camera.Camera {
	var cam camera.Camera
	_ = s.Traverse(func(n scene.Node) error {
		if c, ok := n.(*scene.CameraNode); ok && cam == nil {
			cam = c.Camera()
		}
		return nil
	})
	return cam
}

func (e *engine) resize(width, height int) {
	e.renderer.Resize(width, height)
	if height <= 0 {
		return
	}
	e.sceneMu.Lock()
	defer e.sceneMu.Unlock()
	if e.camera != nil {
		e.camera.SetAspect(float32(width) / float32(height))
	}
}

func (e *engine) Run() {
	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
	e.shutdown()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		close(e.quitChannel)
	})
}

func (e *engine) shutdown() {
	e.sceneMu.Lock()
	e.unload()
	e.sceneMu.Unlock()
	e.renderer.Release()
	if e.window != nil && e.window.IsRunning() {
		_ = e.window.Close()
	}
}

// handle launches the engine and render goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.running = true
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires tick at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			e.tick(dt)
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// tick advances the scene's clips and runs the tick callback under the scene lock.
func (e *engine) tick(dt float32) {
	e.sceneMu.Lock()
	defer e.sceneMu.Unlock()
	if e.scene != nil && e.animate {
		e.scene.Advance(dt)
	}
	if e.tickCallback != nil {
		e.tickCallback(dt)
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Errorf("render goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			if err := e.frame(dt); err != nil && !errors.Is(err, ErrNoScene) {
				e.logger.Warnf("frame skipped: %v", err)
			}

			// Frame rate limiting
			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// frame writes the per-frame uniforms and replays the recorded bundles.
func (e *engine) frame(dt float32) error {
	e.sceneMu.Lock()
	c := e.controller
	if c == nil {
		e.sceneMu.Unlock()
		return ErrNoScene
	}
	err := c.Update()
	e.sceneMu.Unlock()
	if err != nil {
		return err
	}

	if err := e.renderer.RenderFrame(renderer.Frame{
		ShadowBundle: c.ShadowBundle(),
		ShadowView:   c.ShadowMapView(),
		ColorBundle:  c.RenderBundle(),
	}); err != nil {
		return err
	}

	if e.renderCallback != nil {
		e.renderCallback(dt)
	}
	if e.profilingEnabled {
		e.profiler.Tick()
	}
	return nil
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Second / time.Duration(fps)

	if e.running {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

func (e *engine) SetAnimate(enabled bool) {
	e.sceneMu.Lock()
	defer e.sceneMu.Unlock()
	e.animate = enabled
}

func (e *engine) Animating() bool {
	e.sceneMu.Lock()
	defer e.sceneMu.Unlock()
	return e.animate
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Second / time.Duration(fps)
}
