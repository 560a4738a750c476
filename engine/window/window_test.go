package window

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedPlatform stays open for a fixed number of polls.
type scriptedPlatform struct {
	polls  int
	closed bool
}

func (p *scriptedPlatform) surfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (p *scriptedPlatform) running() bool                              { return !p.closed && p.polls > 0 }

func (p *scriptedPlatform) poll() bool {
	p.polls--
	return p.running()
}

func (p *scriptedPlatform) close() error {
	p.closed = true
	return nil
}

func TestProcessMessagesRunsUntilPlatformStops(t *testing.T) {
	p := &scriptedPlatform{polls: 4}
	w := &engineWindow{platform: p}
	var updates int
	w.SetUpdateCallback(func() { updates++ })

	w.ProcessMessages()

	assert.Equal(t, 3, updates)
	assert.False(t, w.IsRunning())
}

func TestEventsReachCallbacks(t *testing.T) {
	w := &engineWindow{platform: &scriptedPlatform{polls: 1}}

	// No callbacks registered yet.
	w.keyDown(32)
	w.scroll(1)
	w.resized(640, 480)
	assert.Equal(t, 640, w.Width())

	var keys []uint32
	var scrolls []float32
	var sizes [][2]int
	w.SetKeyDownCallback(func(k uint32) { keys = append(keys, k) })
	w.SetScrollCallback(func(d float32) { scrolls = append(scrolls, d) })
	w.SetResizeCallback(func(width, height int) { sizes = append(sizes, [2]int{width, height}) })

	w.keyDown(80)
	w.scroll(-0.5)
	w.resized(1920, 1080)

	assert.Equal(t, []uint32{80}, keys)
	assert.Equal(t, []float32{-0.5}, scrolls)
	assert.Equal(t, [][2]int{{1920, 1080}}, sizes)
	assert.Equal(t, 1920, w.Width())
	assert.Equal(t, 1080, w.Height())
}

func TestCloseWithoutPlatform(t *testing.T) {
	w := &engineWindow{}
	assert.Error(t, w.Close())
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())

	p := &scriptedPlatform{polls: 10}
	w.platform = p
	require.NoError(t, w.Close())
	assert.True(t, p.closed)
}

func TestBuilderOptions(t *testing.T) {
	w := &engineWindow{width: 1, height: 1}
	WithTitle("viewer")(w)
	WithSize(800, 600)(w)
	WithSize(0, 600)(w)
	WithResizable(false)(w)

	assert.Equal(t, "viewer", w.title)
	assert.Equal(t, 800, w.width)
	assert.Equal(t, 600, w.height)
	assert.False(t, w.resizable)
}
