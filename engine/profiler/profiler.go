package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-pbr/engine/logging"
)

// gcPauseRing is the length of runtime.MemStats.PauseNs.
const gcPauseRing = 256

// Stats is one reporting interval's worth of frame and memory figures.
type Stats struct {
	FPS float64

	// WorstFrame is the longest gap between two ticks within the interval.
	WorstFrame time.Duration

	HeapMB      float64
	AllocRateMB float64
	SysMB       float64

	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
}

// Profiler tracks frame rate and memory statistics for the render loop and logs them
// once per update interval.
type Profiler struct {
	logger         logging.Logger
	updateInterval time.Duration

	frameCount int
	lastTime   time.Time
	lastFrame  time.Time
	worstFrame time.Duration

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler reporting every interval. A non-positive interval
// defaults to 1 second and a nil logger to the default logger.
//
// Parameters:
//   - logger: the logger stats are written to, prefixed with [Profiler]
//   - interval: how often stats are reported
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(logger logging.Logger, interval time.Duration) *Profiler {
	if logger == nil {
		logger = logging.Default()
	}
	if interval <= 0 {
		interval = time.Second
	}
	now := time.Now()
	return &Profiler{
		logger:         logger.With("Profiler"),
		updateInterval: interval,
		lastTime:       now,
		lastFrame:      now,
	}
}

// Tick records one presented frame. When the update interval has elapsed it samples the
// runtime, logs a summary line and starts a new interval.
//
// Returns:
//   - Stats: the interval's figures, zero when nothing was reported
//   - bool: true if stats were logged this tick
func (p *Profiler) Tick() (Stats, bool) {
	now := time.Now()
	p.frameCount++
	if d := now.Sub(p.lastFrame); d > p.worstFrame {
		p.worstFrame = d
	}
	p.lastFrame = now

	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return Stats{}, false
	}

	s := p.sample(elapsed)
	p.logger.Infof("FPS: %.2f | worst frame: %.2f ms | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		s.FPS, float64(s.WorstFrame.Microseconds())/1000, s.HeapMB, s.AllocRateMB, s.GCCount, s.LastPauseUs, s.MaxPauseUs, s.SysMB)

	p.frameCount = 0
	p.worstFrame = 0
	p.lastTime = now
	p.lastGCCount = s.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return s, true
}

// sample reads the runtime memory statistics and derives the interval figures.
func (p *Profiler) sample(elapsed time.Duration) Stats {
	runtime.ReadMemStats(&p.memStats)
	const mb = 1024 * 1024
	s := Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		WorstFrame:  p.worstFrame,
		HeapMB:      float64(p.memStats.Alloc) / mb,
		SysMB:       float64(p.memStats.Sys) / mb,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / mb / elapsed.Seconds(),
		GCCount:     p.memStats.NumGC,
	}
	if s.GCCount == 0 {
		return s
	}

	s.LastPauseUs = p.memStats.PauseNs[(s.GCCount-1)%gcPauseRing] / 1000
	first := p.lastGCCount
	if s.GCCount-first > gcPauseRing {
		first = s.GCCount - gcPauseRing
	}
	for i := first; i < s.GCCount; i++ {
		s.MaxPauseUs = max(s.MaxPauseUs, p.memStats.PauseNs[i%gcPauseRing]/1000)
	}
	return s
}
