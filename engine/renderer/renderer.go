package renderer

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-pbr/engine/window"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingClearColor    *[3]float64

	frames uint64
}

// Renderer owns the presentation surface and the graphics device behind it.
//
// The Renderer does not record draw commands itself. Scene content is recorded once into
// render bundles by the controller against Device, and the Renderer replays those bundles
// every frame through RenderFrame.
type Renderer interface {
	// Device returns the graphics device every engine component creates its resources on.
	//
	// Returns:
	//   - device.Device: the device bound to the window surface
	Device() device.Device

	// Resize configures the underlying backend to handle a new surface size.
	// This should be called when re-sizing the window or when the surface size should change.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	// A call to Resize is required after changing this for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// RenderFrame replays the frame's bundles and presents the result.
	//
	// Parameters:
	//   - frame: the shadow and color bundles to replay
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired or the commands failed
	RenderFrame(frame Frame) error

	// FrameCount returns the number of frames presented so far.
	FrameCount() uint64

	// Release frees the device and the surface. Every resource created on Device must be
	// released before this is called.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type bound to the window's surface.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - window: the window providing the platform-specific surface descriptor and initial size
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	if c := r.pendingClearColor; c != nil {
		r.backend.SetClearColor(c[0], c[1], c[2])
	}

	r.backend.ConfigureSurface(window.Width(), window.Height())
	return r
}

func (r *renderer) Device() device.Device {
	return r.backend.Device()
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) RenderFrame(frame Frame) error {
	if err := r.backend.RenderFrame(frame); err != nil {
		return err
	}
	r.mu.Lock()
	r.frames++
	r.mu.Unlock()
	return nil
}

func (r *renderer) FrameCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func (r *renderer) Release() {
	r.backend.Release()
}
