package bind_group_provider

import "github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBuffer binds a buffer owned by the caller at a binding index. InitBindGroup
// uses it instead of creating one, and Release leaves it alone.
//
// Parameters:
//   - binding: the binding index for this buffer
//   - buf: the buffer to associate with this binding
//
// Returns:
//   - BindGroupProviderOption: a function that sets the buffer for the specified binding
func WithBuffer(binding int, buf gpu.Buffer) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.buffers[binding] = buf
		p.borrowed[binding] = true
	}
}

// WithTextureView binds a texture view owned by the caller at a binding index.
//
// Parameters:
//   - binding: the binding index for this view
//   - view: the view to associate with this binding
//
// Returns:
//   - BindGroupProviderOption: a function that sets the view for the specified binding
func WithTextureView(binding int, view gpu.TextureView) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.textureViews[binding] = view
		p.borrowed[binding] = true
	}
}

// WithSampler binds a sampler owned by the caller at a binding index.
func WithSampler(binding int, s gpu.Sampler) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.samplers[binding] = s
		p.borrowed[binding] = true
	}
}
