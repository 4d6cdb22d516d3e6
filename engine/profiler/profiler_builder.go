package profiler

import (
	"log/slog"
	"time"
)

// ProfilerBuilderOption is a functional option applied to a Profiler during NewProfiler.
type ProfilerBuilderOption func(*Profiler)

// WithLogger sets the logger reports are written to.
func WithLogger(l *slog.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithInterval sets how often a report is produced. Non-positive values are ignored.
//
// Parameters:
//   - d: the report interval
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithClock replaces time.Now as the profiler's time source.
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// WithMemStats controls whether reports include runtime memory statistics.
func WithMemStats(enabled bool) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.memStats = enabled
	}
}
