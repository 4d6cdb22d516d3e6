// Package profiler aggregates per-frame statistics and reports them through a
// structured logger at a fixed interval.
package profiler

import (
	"log/slog"
	"runtime"
	"time"
)

// Sample is what one rendered frame contributes to a report.
type Sample struct {
	GeometryDraws   int
	GeometryIndices int
	ResolveDraws    int
	Generation      uint64
}

// Report is one interval's aggregate.
type Report struct {
	Frames          int
	FPS             float64
	DrawsPerFrame   float64
	IndicesPerFrame float64
	// Generation is the G-buffer generation of the last frame in the interval.
	Generation uint64
	HeapMB     float64
	NumGC      uint32
	MaxPauseUs uint64
}

// Profiler tracks frame rate, draw statistics and memory, and logs a Report once
// per interval.
type Profiler struct {
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
	memStats bool

	frames      int
	draws       int
	indices     int
	generation  uint64
	last        time.Time
	lastGCCount uint32
	stats       runtime.MemStats
}

// NewProfiler creates a profiler reporting every second to slog.Default.
//
// Parameters:
//   - options: functional options for the profiler
//
// Returns:
//   - *Profiler: the profiler, with its interval starting now
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		logger:   slog.Default(),
		interval: time.Second,
		now:      time.Now,
		memStats: true,
	}
	for _, opt := range options {
		opt(p)
	}
	p.last = p.now()
	return p
}

// Tick records one frame. When the interval has elapsed it logs and returns the
// interval's report.
//
// Parameters:
//   - s: the frame's statistics
//
// Returns:
//   - Report: the report, valid only when ok is true
//   - bool: true if a report was produced this tick
func (p *Profiler) Tick(s Sample) (Report, bool) {
	p.frames++
	p.draws += s.GeometryDraws + s.ResolveDraws
	p.indices += s.GeometryIndices
	p.generation = s.Generation

	now := p.now()
	elapsed := now.Sub(p.last)
	if elapsed < p.interval {
		return Report{}, false
	}

	r := Report{
		Frames:          p.frames,
		FPS:             float64(p.frames) / elapsed.Seconds(),
		DrawsPerFrame:   float64(p.draws) / float64(p.frames),
		IndicesPerFrame: float64(p.indices) / float64(p.frames),
		Generation:      p.generation,
	}
	if p.memStats {
		runtime.ReadMemStats(&p.stats)
		r.HeapMB = float64(p.stats.Alloc) / 1024 / 1024
		r.NumGC = p.stats.NumGC
		r.MaxPauseUs = p.maxPause()
		p.lastGCCount = p.stats.NumGC
	}

	p.logger.Info("frame stats",
		"fps", r.FPS,
		"frames", r.Frames,
		"drawsPerFrame", r.DrawsPerFrame,
		"indicesPerFrame", r.IndicesPerFrame,
		"generation", r.Generation,
		"heapMB", r.HeapMB,
		"gc", r.NumGC,
		"maxPauseUs", r.MaxPauseUs,
	)

	p.frames, p.draws, p.indices = 0, 0, 0
	p.last = now
	return r, true
}

// maxPause returns the longest GC pause since the previous report. PauseNs is a
// ring of the last 256 pauses.
func (p *Profiler) maxPause() uint64 {
	gc := p.stats.NumGC
	start := p.lastGCCount
	if gc-start > 256 {
		start = gc - 256
	}
	var maxUs uint64
	for i := start; i < gc; i++ {
		if us := p.stats.PauseNs[i%256] / 1000; us > maxUs {
			maxUs = us
		}
	}
	return maxUs
}
