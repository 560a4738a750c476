// Package controller drives a scene from its graph to two recorded render bundles.
//
// A Controller walks Unbound -> SceneBound -> ResourcesInitialized -> PassesRecorded -> Live:
// InitScene classifies the graph, InitResources creates every GPU resource and runs the
// image-based lighting precompute, InitShadowPass and InitRenderPass record the bundles
// once, and Update refreshes uniforms every frame without re-recording.
package controller

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/Carmen-Shannon/oxy-pbr/engine/game_object"
	"github.com/Carmen-Shannon/oxy-pbr/engine/logging"
	bgp "github.com/Carmen-Shannon/oxy-pbr/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/ibl"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-pbr/engine/scene"
)

var (
	// ErrSceneConfig is returned by InitScene when the graph does not hold exactly one camera and one light.
	ErrSceneConfig = errors.New("invalid scene configuration")
	// ErrInvalidState is returned when an operation is called out of order.
	ErrInvalidState = errors.New("invalid controller state")
)

// DepthFormat is the depth attachment format of both passes.
const DepthFormat = device.TextureFormatDepth32Float

// State is the lifecycle stage of a Controller.
type State int

const (
	StateUnbound State = iota
	StateSceneBound
	StateResourcesInitialized
	StatePassesRecorded
	StateLive
)

func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateSceneBound:
		return "scene-bound"
	case StateResourcesInitialized:
		return "resources-initialized"
	case StatePassesRecorded:
		return "passes-recorded"
	case StateLive:
		return "live"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// controller is the implementation of the Controller interface.
type controller struct {
	mu sync.Mutex

	device    device.Device
	composer  *shader.Composer
	factory   *bgp.Factory
	pipelines *pipeline.Cache
	pool      worker.DynamicWorkerPool
	ownsPool  bool
	logger    logging.Logger

	mipCount        uint32
	validateShaders bool
	state           State

	scene   scene.Scene
	camera  *scene.CameraNode
	light   *scene.LightNode
	objects []game_object.Drawable

	shared       *sharedResources
	shadowBundle device.RenderBundle
	renderBundle device.RenderBundle
}

// Controller defines the interface for the render controller of one scene.
//
// Every Init* operation must be called once, in order; calling one out of order returns
// ErrInvalidState. Setup errors are fatal: nothing is rolled back, and the controller
// should be released and discarded.
type Controller interface {
	// InitScene traverses the scene graph once, collecting the camera, the light and the
	// mesh nodes. Each mesh becomes a drawable in traversal order and the environment
	// backdrop is appended last.
	//
	// Parameters:
	//   - s: the scene to bind
	//
	// Returns:
	//   - error: ErrSceneConfig when the graph lacks exactly one camera and one light
	InitScene(s scene.Scene) error

	// InitResources creates the shared uniforms, the shadow map, the samplers and the
	// environment maps, then every drawable's vertex buffers and group resources, then
	// runs the image-based lighting precompute and waits for it to complete.
	//
	// Returns:
	//   - error: the first failure, after which the controller is unusable
	InitResources() error

	// InitShadowPass records the shadow bundle: depth only, every drawable in list order.
	//
	// Returns:
	//   - error: ErrInvalidState out of order, or a bundle encoder failure
	InitShadowPass() error

	// InitRenderPass records the color bundle against the device's preferred format,
	// every drawable in list order.
	//
	// Returns:
	//   - error: ErrInvalidState out of order, or a bundle encoder failure
	InitRenderPass() error

	// Update recomputes world transforms and the light camera, then writes the shared and
	// per-object uniforms. The recorded bundles are never touched.
	//
	// Returns:
	//   - error: ErrInvalidState before both passes are recorded, or a write failure
	Update() error

	// State returns the lifecycle stage.
	State() State

	// Objects returns the drawables in draw order.
	Objects() []game_object.Drawable

	// ShadowBundle returns the recorded shadow bundle, or nil before InitShadowPass.
	ShadowBundle() device.RenderBundle

	// RenderBundle returns the recorded color bundle, or nil before InitRenderPass.
	RenderBundle() device.RenderBundle

	// ShadowMapView returns the depth attachment the shadow bundle is replayed into.
	ShadowMapView() device.TextureView

	// Release frees every resource the controller created.
	Release()
}

// NewController creates a controller recording against the given device.
//
// Parameters:
//   - dev: the device every resource is created on
//   - options: a variadic list of options to configure the controller
//
// Returns:
//   - Controller: the controller in StateUnbound
func NewController(dev device.Device, options ...ControllerBuilderOption) Controller {
	if dev == nil {
		panic("controller: nil device")
	}
	c := &controller{
		device:   dev,
		logger:   logging.Default().With("Controller"),
		mipCount: ibl.EnvMapMipLevelCount,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.composer == nil {
		c.composer = shader.NewComposer(shader.WithLogger(c.logger), shader.WithValidation(c.validateShaders))
	}
	if c.pool == nil {
		c.pool = worker.NewDynamicWorkerPool(runtime.NumCPU(), 256, 1*time.Second)
		c.ownsPool = true
	}
	c.factory = bgp.NewFactory(dev)
	// Pipelines build on the worker that first requests them: group resources already
	// run on the pool and await their pipelines.
	c.pipelines = pipeline.NewCache(nil)
	return c
}

func (c *controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *controller) Objects() []game_object.Drawable {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]game_object.Drawable(nil), c.objects...)
}

func (c *controller) ShadowBundle() device.RenderBundle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shadowBundle
}

func (c *controller) RenderBundle() device.RenderBundle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderBundle
}

func (c *controller) ShadowMapView() device.TextureView {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shared == nil {
		return nil
	}
	return c.shared.shadowMapView
}

func (c *controller) expect(op string, states ...State) error {
	for _, s := range states {
		if c.state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s in state %s", ErrInvalidState, op, c.state)
}

func (c *controller) InitScene(s scene.Scene) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.expect("InitScene", StateUnbound); err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("%w: nil scene", ErrSceneConfig)
	}

	var cameras []*scene.CameraNode
	var lights []*scene.LightNode
	var meshes []*scene.MeshNode
	err := s.Traverse(func(n scene.Node) error {
		switch node := n.(type) {
		case *scene.CameraNode:
			cameras = append(cameras, node)
		case *scene.LightNode:
			lights = append(lights, node)
		case *scene.MeshNode:
			meshes = append(meshes, node)
		}
		return nil
	})
	if err != nil {
		return err
	}

	switch {
	case len(cameras) == 0:
		return fmt.Errorf("%w: no camera", ErrSceneConfig)
	case len(cameras) > 1:
		return fmt.Errorf("%w: more than one camera", ErrSceneConfig)
	case len(lights) == 0:
		return fmt.Errorf("%w: no light", ErrSceneConfig)
	case len(lights) > 1:
		return fmt.Errorf("%w: more than one light", ErrSceneConfig)
	}

	objects := make([]game_object.Drawable, 0, len(meshes)+1)
	for _, m := range meshes {
		objects = append(objects, game_object.FromMeshNode(m))
	}
	objects = append(objects, game_object.NewBackdrop())

	c.scene = s
	c.camera = cameras[0]
	c.light = lights[0]
	c.objects = objects
	c.state = StateSceneBound
	c.logger.Debugf("bound scene %s: %d meshes, %s light", s.Name(), len(meshes), c.light.Light().Type())
	return nil
}

func (c *controller) InitResources() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.expect("InitResources", StateSceneBound); err != nil {
		return err
	}

	c.scene.UpdateWorld()
	shared, err := newSharedResources(c.device, c.camera.Camera(), c.light.Light(), c.scene.Environment(), c.mipCount)
	if c.shared = shared; err != nil {
		return err
	}

	lut := ibl.NewBRDFLut(c.device, c.composer, c.logger)
	defer lut.Release(true)
	if err := lut.InitComputePipeline(); err != nil {
		return err
	}
	c.shared.brdfLut = lut.Texture()

	ctx := &game_object.GroupContext{
		Device:      c.device,
		Factory:     c.factory,
		Composer:    c.composer,
		Pipelines:   c.pipelines,
		Logger:      c.logger,
		Shared:      c.shared.resources(),
		Features:    shader.FeatureSet{}.With(shader.FeatureEnvMap).With(c.light.Light().Features()...),
		ColorFormat: c.device.PreferredFormat(),
		DepthFormat: DepthFormat,
	}
	if err := c.initObjects(ctx); err != nil {
		return err
	}

	engine := ibl.NewEngine(c.device, c.composer, ibl.WithLogger(c.logger), ibl.WithMipCount(c.mipCount))
	defer engine.Release()
	if err := engine.InitComputePipeline(ibl.Sources{EnvMap: c.shared.envMap, DiffuseEnvMap: c.shared.diffuseEnvMap}); err != nil {
		return err
	}
	lutCmd, err := lut.Run()
	if err != nil {
		return err
	}
	iblCmd, err := engine.Run()
	if err != nil {
		lutCmd.Release()
		return err
	}
	c.device.Submit(lutCmd, iblCmd)
	if err := c.device.WaitIdle(); err != nil {
		return fmt.Errorf("failed waiting for the IBL precompute: %w", err)
	}

	c.state = StateResourcesInitialized
	c.logger.Infof("initialized %d objects and %d pipelines", len(c.objects), c.pipelines.Len())
	return nil
}

// initObjects uploads every drawable's geometry in order, then builds the group
// resources of all drawables on the worker pool.
func (c *controller) initObjects(ctx *game_object.GroupContext) error {
	for _, obj := range c.objects {
		if err := obj.InitVertexBuffer(c.device); err != nil {
			return err
		}
	}

	pending := make([]*common.Pending[game_object.Drawable], len(c.objects))
	for i, obj := range c.objects {
		pending[i] = common.Submit(c.pool, i, func() (game_object.Drawable, error) {
			return obj, obj.InitGroupResource(ctx)
		})
	}
	_, err := common.AwaitAll(pending)
	return err
}

func (c *controller) InitShadowPass() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.expect("InitShadowPass", StateResourcesInitialized); err != nil {
		return err
	}
	if c.shadowBundle != nil {
		return fmt.Errorf("%w: shadow pass already recorded", ErrInvalidState)
	}

	bundle, err := c.record(device.RenderBundleEncoderDescriptor{
		Label:              "shadow pass",
		DepthStencilFormat: DepthFormat,
		SampleCount:        1,
	}, game_object.Drawable.RecordShadow)
	if err != nil {
		return err
	}
	c.shadowBundle = bundle
	return nil
}

func (c *controller) InitRenderPass() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.expect("InitRenderPass", StateResourcesInitialized); err != nil {
		return err
	}
	if c.shadowBundle == nil {
		return fmt.Errorf("%w: InitRenderPass before InitShadowPass", ErrInvalidState)
	}

	bundle, err := c.record(device.RenderBundleEncoderDescriptor{
		Label:              "render pass",
		ColorFormats:       []device.TextureFormat{c.device.PreferredFormat()},
		DepthStencilFormat: DepthFormat,
		SampleCount:        1,
	}, game_object.Drawable.RecordColor)
	if err != nil {
		return err
	}
	c.renderBundle = bundle
	c.state = StatePassesRecorded
	return nil
}

func (c *controller) record(desc device.RenderBundleEncoderDescriptor, rec func(game_object.Drawable, device.RenderBundleEncoder)) (device.RenderBundle, error) {
	enc, err := c.device.CreateRenderBundleEncoder(desc)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s encoder: %w", desc.Label, err)
	}
	for _, obj := range c.objects {
		rec(obj, enc)
	}
	bundle, err := enc.Finish(desc.Label)
	if err != nil {
		return nil, fmt.Errorf("failed to finish %s: %w", desc.Label, err)
	}
	c.logger.Debugf("recorded %s for %d objects", desc.Label, len(c.objects))
	return bundle, nil
}

func (c *controller) Update() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.expect("Update", StatePassesRecorded, StateLive); err != nil {
		return err
	}

	c.scene.UpdateWorld()
	if err := c.shared.write(c.device, c.camera.Camera(), c.light.Light()); err != nil {
		return fmt.Errorf("failed to write shared uniforms: %w", err)
	}
	for _, obj := range c.objects {
		if err := obj.Update(c.device); err != nil {
			return err
		}
	}
	c.state = StateLive
	return nil
}

func (c *controller) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, obj := range c.objects {
		obj.Release()
	}
	c.objects = nil
	for _, b := range []device.RenderBundle{c.shadowBundle, c.renderBundle} {
		if b != nil {
			b.Release()
		}
	}
	c.shadowBundle, c.renderBundle = nil, nil
	c.pipelines.Release()
	c.factory.ReleaseShared()
	if c.shared != nil {
		c.shared.release()
		c.shared = nil
	}
	if c.ownsPool {
		c.pool.Stop()
		c.ownsPool = false
	}
}

var _ Controller = &controller{}
