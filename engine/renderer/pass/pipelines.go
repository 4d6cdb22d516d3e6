package pass

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gbuffer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Pipeline keys, also the label prefix of the created pipelines.
const (
	GeometryPipelineKey = "geometry"
	ResolvePipelineKey  = "resolve"
)

// GeometryShaders loads the geometry pass vertex and fragment shaders.
func GeometryShaders() (vertex, fragment shader.Shader, err error) {
	vertex, err = shader.NewShader("geometry.vert", shader.ShaderTypeVertex, shader.GeometryVertexSource)
	if err != nil {
		return nil, nil, err
	}
	fragment, err = shader.NewShader("gbuffer.frag", shader.ShaderTypeFragment, shader.GBufferFragmentSource)
	if err != nil {
		return nil, nil, err
	}
	return vertex, fragment, nil
}

// ResolveShaders loads the resolve pass vertex and fragment shaders.
func ResolveShaders() (vertex, fragment shader.Shader, err error) {
	vertex, err = shader.NewShader("fullscreen.vert", shader.ShaderTypeVertex, shader.FullscreenVertexSource)
	if err != nil {
		return nil, nil, err
	}
	fragment, err = shader.NewShader("resolve.frag", shader.ShaderTypeFragment, shader.ResolveFragmentSource)
	if err != nil {
		return nil, nil, err
	}
	return vertex, fragment, nil
}

// NewGeometryPipeline configures the geometry pipeline: scene, model and material
// layouts at groups 0 to 2, the three G-buffer color targets, and depth24plus with
// compare less and writes on. Back faces are culled.
//
// Parameters:
//   - reg: the registry supplying the layouts
//   - vertex: the vertex shader
//   - fragment: the fragment shader
//
// Returns:
//   - pipeline.Pipeline: the unregistered pipeline
func NewGeometryPipeline(reg *layout.Registry, vertex, fragment shader.Shader) pipeline.Pipeline {
	return pipeline.NewPipeline(GeometryPipelineKey, pipeline.PipelineTypeRender,
		pipeline.WithVertexShader(vertex),
		pipeline.WithFragmentShader(fragment),
		pipeline.WithLayouts(reg.GeometryLayouts()...),
		pipeline.WithVertexLayouts(model.VertexLayout()),
		pipeline.WithColorTargets(gbuffer.ColorFormats()...),
		pipeline.WithDepthFormat(gbuffer.DepthFormat),
		pipeline.WithDepthCompare(wgpu.CompareFunctionLess),
		pipeline.WithDepthWriteEnabled(true),
		pipeline.WithCullMode(wgpu.CullModeBack),
	)
}

// NewResolvePipeline configures the resolve pipeline: scene and G-buffer layouts
// at groups 0 and 1, one color target in the surface format, and the same depth
// state as the geometry pipeline.
//
// Parameters:
//   - reg: the registry supplying the layouts
//   - surfaceFormat: the presentation surface format
//   - vertex: the vertex shader
//   - fragment: the fragment shader
//
// Returns:
//   - pipeline.Pipeline: the unregistered pipeline
func NewResolvePipeline(reg *layout.Registry, surfaceFormat wgpu.TextureFormat, vertex, fragment shader.Shader) pipeline.Pipeline {
	return pipeline.NewPipeline(ResolvePipelineKey, pipeline.PipelineTypeRender,
		pipeline.WithVertexShader(vertex),
		pipeline.WithFragmentShader(fragment),
		pipeline.WithLayouts(reg.ResolveLayouts()...),
		pipeline.WithVertexLayouts(model.VertexLayout()),
		pipeline.WithColorTargets(surfaceFormat),
		pipeline.WithDepthFormat(gbuffer.DepthFormat),
		pipeline.WithDepthCompare(wgpu.CompareFunctionLess),
		pipeline.WithDepthWriteEnabled(true),
	)
}
