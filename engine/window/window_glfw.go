package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// platformWindow is the native half of an engineWindow.
type platformWindow interface {
	surfaceDescriptor() *wgpu.SurfaceDescriptor
	running() bool
	poll() bool
	close() error
}

// glfwWindow backs an engineWindow with a GLFW window that has no client API, leaving
// the swap chain to WebGPU.
type glfwWindow struct {
	window *glfw.Window
	closed bool
}

var _ platformWindow = &glfwWindow{}

// newGLFWWindow initializes GLFW on the calling (locked) thread, opens the window and
// routes its key, scroll and framebuffer events into the owner's callbacks.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
//
// Parameters:
//   - owner: the engine window receiving events; its width and height are updated to the framebuffer size
//
// Returns:
//   - *glfwWindow: the native window
//   - error: error if GLFW or the window could not be created
func newGLFWWindow(owner *engineWindow) (*glfwWindow, error) {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	resizable := glfw.False
	if owner.resizable {
		resizable = glfw.True
	}
	glfw.WindowHint(glfw.Resizable, resizable)

	win, err := glfw.CreateWindow(owner.width, owner.height, owner.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create GLFW window %q: %w", owner.title, err)
	}
	gw := &glfwWindow{window: win}

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		if key == glfw.KeyEscape {
			win.SetShouldClose(true)
			return
		}
		owner.keyDown(uint32(key))
	})
	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		owner.scroll(float32(yoff))
	})

	// Framebuffer size, not window size: they differ on high-DPI displays and the surface is sized in pixels.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		owner.resized(width, height)
	})
	owner.width, owner.height = win.GetFramebufferSize()

	return gw, nil
}

// surfaceDescriptor uses the wgpuglfw bridge, which covers Windows, X11, Wayland and macOS.
func (g *glfwWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	if g.closed {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(g.window)
}

func (g *glfwWindow) running() bool {
	return !g.closed && !g.window.ShouldClose()
}

// poll drains pending events without blocking and reports whether the window is still open.
func (g *glfwWindow) poll() bool {
	glfw.PollEvents()
	return g.running()
}

func (g *glfwWindow) close() error {
	if g.closed {
		return fmt.Errorf("window already closed")
	}
	g.closed = true
	g.window.Destroy()
	glfw.Terminate()
	return nil
}
