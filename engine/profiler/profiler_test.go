package profiler

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pbr/engine/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickReportsOncePerInterval(t *testing.T) {
	var out bytes.Buffer
	p := NewProfiler(logging.New("", false, &out, io.Discard), time.Hour)

	_, reported := p.Tick()
	assert.False(t, reported)
	assert.Empty(t, out.String())

	p.lastTime = time.Now().Add(-2 * time.Hour)
	p.lastFrame = time.Now().Add(-250 * time.Millisecond)
	s, reported := p.Tick()
	require.True(t, reported)
	assert.Contains(t, out.String(), "[Profiler] INFO: FPS")
	assert.GreaterOrEqual(t, s.WorstFrame, 250*time.Millisecond)
	assert.Greater(t, s.FPS, 0.0)
	assert.Greater(t, s.SysMB, 0.0)

	assert.Equal(t, 0, p.frameCount)
	assert.Zero(t, p.worstFrame)
	assert.Equal(t, s.GCCount, p.lastGCCount)
}

func TestNewProfilerDefaults(t *testing.T) {
	p := NewProfiler(nil, 0)
	assert.Equal(t, time.Second, p.updateInterval)
	assert.NotNil(t, p.logger)
}
