package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// PresentMode controls how frames are delivered to the display.
type PresentMode int

const (
	// PresentModeUncapped presents immediately without waiting for vertical blank.
	PresentModeUncapped PresentMode = iota
	// PresentModeVSync waits for vertical blank (FIFO).
	PresentModeVSync
)

// ContextBuilderOption is a functional option applied to a context during construction via NewWGPUContext.
type ContextBuilderOption func(*contextConfig)

type contextConfig struct {
	label                string
	forceFallbackAdapter bool
	maxBindGroups        uint32
	presentMode          wgpu.PresentMode
}

func newContextConfig() *contextConfig {
	return &contextConfig{
		label:         "Main Device",
		maxBindGroups: 4,
		presentMode:   wgpu.PresentModeFifo,
	}
}

// WithDeviceLabel sets the debug label of the requested device.
//
// Parameters:
//   - label: the device label
//
// Returns:
//   - ContextBuilderOption: a function that applies the label option to a context
func WithDeviceLabel(label string) ContextBuilderOption {
	return func(c *contextConfig) {
		c.label = label
	}
}

// WithForceFallbackAdapter requests the software fallback adapter.
//
// Parameters:
//   - force: true to force the fallback adapter
//
// Returns:
//   - ContextBuilderOption: a function that applies the fallback option to a context
func WithForceFallbackAdapter(force bool) ContextBuilderOption {
	return func(c *contextConfig) {
		c.forceFallbackAdapter = force
	}
}

// WithPresentMode sets the surface present mode. Defaults to PresentModeVSync.
//
// Parameters:
//   - mode: the PresentMode to use
//
// Returns:
//   - ContextBuilderOption: a function that applies the present mode option to a context
func WithPresentMode(mode PresentMode) ContextBuilderOption {
	return func(c *contextConfig) {
		switch mode {
		case PresentModeVSync:
			c.presentMode = wgpu.PresentModeFifo
		case PresentModeUncapped:
			fallthrough
		default:
			c.presentMode = wgpu.PresentModeImmediate
		}
	}
}

// WithMaxBindGroups raises the MaxBindGroups device limit. The renderer needs 3.
//
// Parameters:
//   - n: the number of bind groups to require
//
// Returns:
//   - ContextBuilderOption: a function that applies the limit option to a context
func WithMaxBindGroups(n uint32) ContextBuilderOption {
	return func(c *contextConfig) {
		if n > c.maxBindGroups {
			c.maxBindGroups = n
		}
	}
}
