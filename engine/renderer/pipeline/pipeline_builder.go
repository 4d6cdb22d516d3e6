package pipeline

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption configures a pipeline before Register.
type PipelineBuilderOption func(*pipeline)

// WithVertexShader sets the vertex stage of a render pipeline.
//
// Parameters:
//   - s: a shader of type shader.ShaderTypeVertex
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithVertexShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexShader = s
	}
}

// WithFragmentShader sets the fragment stage of a render pipeline. Its outputs are
// written to the WithColorTargets attachments by location.
func WithFragmentShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentShader = s
	}
}

// WithComputeShader sets the only stage of a compute pipeline.
func WithComputeShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.computeShader = s
	}
}

// WithLayouts sets the bind group layouts. The layout at index i is bound at group i
// and must declare every binding the shaders use in that group.
//
// Parameters:
//   - layouts: the layouts in group order
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithLayouts(layouts ...*layout.Layout) PipelineBuilderOption {
	return func(p *pipeline) {
		p.layouts = layouts
	}
}

// WithVertexLayouts sets the vertex buffer layouts read by the vertex shader.
func WithVertexLayouts(layouts ...wgpu.VertexBufferLayout) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexLayouts = layouts
	}
}

// WithColorTargets sets the color attachment formats in attachment order.
//
// Parameters:
//   - formats: one format per fragment output location
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithColorTargets(formats ...wgpu.TextureFormat) PipelineBuilderOption {
	return func(p *pipeline) {
		p.colorTargets = formats
	}
}

// WithDepthFormat sets the depth attachment format. Pipelines without this option
// are created without a depth stencil state.
func WithDepthFormat(format wgpu.TextureFormat) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthFormat = format
	}
}

// WithDepthCompare sets the depth compare function. Defaults to wgpu.CompareFunctionLess.
func WithDepthCompare(compare wgpu.CompareFunction) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthCompare = compare
	}
}

// WithDepthWriteEnabled sets whether passing fragments write depth. Defaults to true.
func WithDepthWriteEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthWriteEnabled = enabled
	}
}

// WithCullMode sets which triangle faces are discarded. Defaults to wgpu.CullModeNone.
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}
