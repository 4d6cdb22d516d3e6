package renderer

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/layout"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via
// NewClusteredDeferredRenderer.
type RendererBuilderOption func(*renderer)

// WithClearColor sets the color the resolve pass clears the surface to. Defaults to
// transparent black.
//
// Parameters:
//   - c: the clear color
//
// Returns:
//   - RendererBuilderOption: a function that applies the clear color option to a renderer
func WithClearColor(c wgpu.Color) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = c
	}
}

// WithLogger sets a per-renderer logger, overriding the package logger from SetLogger.
//
// Parameters:
//   - l: the logger to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(l *slog.Logger) RendererBuilderOption {
	return func(r *renderer) {
		r.logger = l
	}
}

// WithLabel sets the label prefix of every resource the renderer creates.
// Defaults to "renderer".
func WithLabel(label string) RendererBuilderOption {
	return func(r *renderer) {
		if label != "" {
			r.label = label
		}
	}
}

// WithShaderValidation compiles every pipeline shader with naga before the pipelines
// are created. A shader naga rejects aborts construction.
//
// Parameters:
//   - enabled: true to validate shaders at construction
//
// Returns:
//   - RendererBuilderOption: a function that applies the validation option to a renderer
func WithShaderValidation(enabled bool) RendererBuilderOption {
	return func(r *renderer) {
		r.validateShaders = enabled
	}
}

// WithRegistry makes the renderer use an existing layout registry instead of creating
// its own. The scene's model and material groups must be created against the same
// registry. The renderer does not release a registry passed in this way.
//
// Parameters:
//   - reg: the shared registry
//
// Returns:
//   - RendererBuilderOption: a function that applies the registry option to a renderer
func WithRegistry(reg *layout.Registry) RendererBuilderOption {
	return func(r *renderer) {
		r.reg = reg
		r.sharedRegistry = reg != nil
	}
}
