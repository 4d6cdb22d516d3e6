// Package pipeline configures and creates the render and compute pipelines of the
// renderer. A pipeline is described with builder options, then created on a
// gpu.Context with Register, which first checks every binding its shaders declare
// against the layouts the pipeline is built with.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineType identifies whether a pipeline is a compute pipeline or a render pipeline.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline with a single compute shader entry point.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender indicates a render pipeline with vertex and fragment shader entry points.
	PipelineTypeRender
)

func (t PipelineType) String() string {
	if t == PipelineTypeCompute {
		return "compute"
	}
	return "render"
}

// ErrMissingShader is returned by Register when a stage the pipeline type needs has no shader.
var ErrMissingShader = errors.New("pipeline shader not set")

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	pipelineType PipelineType
	pipelineKey  string

	vertexShader, fragmentShader, computeShader shader.Shader

	// layouts are indexed by bind group; layouts[i] is bound at group i.
	layouts       []*layout.Layout
	vertexLayouts []wgpu.VertexBufferLayout
	colorTargets  []wgpu.TextureFormat
	// depthFormat is TextureFormatUndefined for pipelines without a depth attachment.
	depthFormat  wgpu.TextureFormat
	depthCompare wgpu.CompareFunction

	renderPipeline  gpu.RenderPipeline
	computePipeline gpu.ComputePipeline

	depthWriteEnabled bool
	cullMode          wgpu.CullMode
}

// Pipeline is a render pipeline (vertex + fragment shaders) or a compute pipeline
// (compute shader) together with every setting needed to create it.
type Pipeline interface {
	// Type returns the type of the pipeline
	//
	// Returns:
	//   - PipelineType: the type of the pipeline (render or compute)
	Type() PipelineType

	// PipelineKey returns the unique key associated with this pipeline, used as its label.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader associated with the specified type if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the type of shader to retrieve (vertex, fragment, or compute)
	//
	// Returns:
	//   - shader.Shader: the shader associated with the specified type, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// Layouts returns the bind group layouts in group order.
	Layouts() []*layout.Layout

	// VertexLayouts returns the vertex buffer layouts of a render pipeline.
	VertexLayouts() []wgpu.VertexBufferLayout

	// ColorTargets returns the color attachment formats of a render pipeline in attachment order.
	ColorTargets() []wgpu.TextureFormat

	// DepthFormat returns the depth attachment format, or wgpu.TextureFormatUndefined
	// if the pipeline has no depth attachment.
	DepthFormat() wgpu.TextureFormat

	// DepthCompare returns the depth compare function.
	DepthCompare() wgpu.CompareFunction

	DepthWriteEnabled() bool
	CullMode() wgpu.CullMode

	// CheckLayouts checks every binding declared by the pipeline's shaders against the
	// layout at the same group index. The binding must be declared by the layout, be of
	// the same kind, and be visible to the declaring stage.
	//
	// Returns:
	//   - error: nil, or a *layout.MismatchError for the first disagreement
	CheckLayouts() error

	// Register checks the layouts and creates the shader modules and the pipeline on the device.
	//
	// Parameters:
	//   - ctx: the GPU context to create the pipeline on
	//
	// Returns:
	//   - error: ErrMissingShader, a *layout.MismatchError, or a wrapped device error
	Register(ctx gpu.Context) error

	// Render returns the created render pipeline, nil before Register or for compute pipelines.
	Render() gpu.RenderPipeline

	// Compute returns the created compute pipeline, nil before Register or for render pipelines.
	Compute() gpu.ComputePipeline

	// Release releases the created pipeline.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline interface. A PipelineType must be specified and provided upon creation.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - pipelineType: the type of pipeline to create (render or compute)
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified type and configuration
func NewPipeline(pipelineKey string, pipelineType PipelineType, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		pipelineType:      pipelineType,
		depthFormat:       wgpu.TextureFormatUndefined,
		depthCompare:      wgpu.CompareFunctionLess,
		depthWriteEnabled: true,
		cullMode:          wgpu.CullModeNone,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Type() PipelineType {
	return p.pipelineType
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	case shader.ShaderTypeCompute:
		return p.computeShader
	default:
		return nil
	}
}

func (p *pipeline) Layouts() []*layout.Layout {
	return p.layouts
}

func (p *pipeline) VertexLayouts() []wgpu.VertexBufferLayout {
	return p.vertexLayouts
}

func (p *pipeline) ColorTargets() []wgpu.TextureFormat {
	return p.colorTargets
}

func (p *pipeline) DepthFormat() wgpu.TextureFormat {
	return p.depthFormat
}

func (p *pipeline) DepthCompare() wgpu.CompareFunction {
	return p.depthCompare
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Render() gpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) Compute() gpu.ComputePipeline {
	return p.computePipeline
}

// stages returns the shaders the pipeline type uses, in stage order.
func (p *pipeline) stages() []shader.Shader {
	if p.pipelineType == PipelineTypeCompute {
		return []shader.Shader{p.computeShader}
	}
	return []shader.Shader{p.vertexShader, p.fragmentShader}
}

func (p *pipeline) CheckLayouts() error {
	for _, s := range p.stages() {
		if s == nil {
			continue
		}
		stage := s.ShaderType().Stage()
		for _, b := range s.Bindings() {
			if int(b.Group) >= len(p.layouts) || p.layouts[b.Group] == nil {
				return &layout.MismatchError{
					Layout:  fmt.Sprintf("%s group %d", p.pipelineKey, b.Group),
					Binding: int(b.Entry.Binding),
					Reason:  fmt.Sprintf("%s shader %q binds %s but the pipeline has no layout at this group", s.ShaderType(), s.Key(), b.Name),
				}
			}
			l := p.layouts[b.Group]
			kind, ok := layout.KindOf(b.Entry)
			if !ok {
				return &layout.MismatchError{
					Layout:  l.Name(),
					Binding: int(b.Entry.Binding),
					Reason:  fmt.Sprintf("%s has unsupported resource type %s", b.Name, b.Type),
				}
			}
			if err := l.CheckBinding(b.Entry.Binding, kind, stage); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *pipeline) layoutHandles() []gpu.BindGroupLayout {
	handles := make([]gpu.BindGroupLayout, len(p.layouts))
	for i, l := range p.layouts {
		handles[i] = l.Handle()
	}
	return handles
}

func (p *pipeline) Register(ctx gpu.Context) error {
	for _, s := range p.stages() {
		if s == nil {
			return fmt.Errorf("register %s pipeline %q: %w", p.pipelineType, p.pipelineKey, ErrMissingShader)
		}
	}
	if err := p.CheckLayouts(); err != nil {
		return err
	}

	if p.pipelineType == PipelineTypeCompute {
		return p.registerCompute(ctx)
	}
	return p.registerRender(ctx)
}

func (p *pipeline) registerRender(ctx gpu.Context) error {
	vs, err := ctx.CreateShaderModule(p.vertexShader.Key(), p.vertexShader.Source())
	if err != nil {
		return fmt.Errorf("pipeline %q: vertex module: %w", p.pipelineKey, err)
	}
	defer vs.Release()

	fs, err := ctx.CreateShaderModule(p.fragmentShader.Key(), p.fragmentShader.Source())
	if err != nil {
		return fmt.Errorf("pipeline %q: fragment module: %w", p.pipelineKey, err)
	}
	defer fs.Release()

	// Every target is opaque: G-buffer channels are overwritten and the resolve output
	// is final.
	targets := make([]wgpu.ColorTargetState, len(p.colorTargets))
	for i, format := range p.colorTargets {
		targets[i] = wgpu.ColorTargetState{Format: format, WriteMask: wgpu.ColorWriteMaskAll}
	}

	var depthStencil *wgpu.DepthStencilState
	if p.depthFormat != wgpu.TextureFormatUndefined {
		depthStencil = &wgpu.DepthStencilState{
			Format:            p.depthFormat,
			DepthWriteEnabled: p.depthWriteEnabled,
			DepthCompare:      p.depthCompare,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}

	created, err := ctx.CreateRenderPipeline(gpu.RenderPipelineDescriptor{
		Label:            p.pipelineKey + " Render Pipeline",
		BindGroupLayouts: p.layoutHandles(),
		Vertex: gpu.ProgrammableStage{
			Module:     vs,
			EntryPoint: p.vertexShader.EntryPoint(),
		},
		VertexBuffers: p.vertexLayouts,
		Fragment: gpu.ProgrammableStage{
			Module:     fs,
			EntryPoint: p.fragmentShader.EntryPoint(),
		},
		Targets: targets,
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  p.cullMode,
		},
		DepthStencil: depthStencil,
	})
	if err != nil {
		return fmt.Errorf("pipeline %q: %w", p.pipelineKey, err)
	}

	p.Release()
	p.renderPipeline = created
	return nil
}

func (p *pipeline) registerCompute(ctx gpu.Context) error {
	cs, err := ctx.CreateShaderModule(p.computeShader.Key(), p.computeShader.Source())
	if err != nil {
		return fmt.Errorf("pipeline %q: compute module: %w", p.pipelineKey, err)
	}
	defer cs.Release()

	created, err := ctx.CreateComputePipeline(gpu.ComputePipelineDescriptor{
		Label:            p.pipelineKey + " Compute Pipeline",
		BindGroupLayouts: p.layoutHandles(),
		Compute: gpu.ProgrammableStage{
			Module:     cs,
			EntryPoint: p.computeShader.EntryPoint(),
		},
	})
	if err != nil {
		return fmt.Errorf("pipeline %q: %w", p.pipelineKey, err)
	}

	p.Release()
	p.computePipeline = created
	return nil
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	if p.computePipeline != nil {
		p.computePipeline.Release()
		p.computePipeline = nil
	}
}
