package engine

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/profiler"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
)

// EngineBuilderOption is a functional option for configuring an Engine.
type EngineBuilderOption func(*engine)

// WithWindow sets the window whose message loop drives Run and whose resize, key and
// scroll events the engine handles.
//
// Parameters:
//   - w: an open window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithLights sets the clustering stage advanced by Update each frame.
func WithLights(l light.ClusteredLights) EngineBuilderOption {
	return func(e *engine) {
		e.lights = l
	}
}

// WithScene sets the scene whose dirty transforms are uploaded each frame.
func WithScene(s scene.Graph) EngineBuilderOption {
	return func(e *engine) {
		e.scene = s
	}
}

// WithLogger sets the logger for skipped frames and failed resizes. Defaults to the
// renderer package logger.
func WithLogger(l *slog.Logger) EngineBuilderOption {
	return func(e *engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithProfiling enables or disables frame statistics reports.
//
// Parameters:
//   - enabled: if true, reports are logged once per profiler interval
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler replaces the default profiler.
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithLightAnimation sets whether the lights advance each frame. Defaults to true.
// Space toggles it while running.
func WithLightAnimation(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.animateLights.Store(enabled)
	}
}

// WithScrollZoom scales how far one scroll notch zooms the camera. Defaults to 1.
func WithScrollZoom(scale float32) EngineBuilderOption {
	return func(e *engine) {
		e.scrollZoom = scale
	}
}

// WithTickRate sets the tick callback rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithRenderFrameLimit caps the render loop in frames per second. 0 uncaps it.
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}
