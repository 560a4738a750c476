package renderer

import "github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// Frame is the set of pre-recorded work replayed for one presented image.
type Frame struct {
	// ShadowBundle is replayed into ShadowView before the color pass. Both may be nil.
	ShadowBundle device.RenderBundle
	ShadowView   device.TextureView

	// ColorBundle is replayed onto the surface with the backend's depth attachment.
	ColorBundle device.RenderBundle
}

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface for the selected GPU API.
type RendererBackend interface {
	wgpuRendererBackend
}
