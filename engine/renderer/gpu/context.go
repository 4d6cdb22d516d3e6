// Package gpu holds the explicit GPU context every renderer component is handed at
// construction: device, queue and surface, plus the opaque handle types the renderer
// core passes around. The WebGPU implementation lives in wgpu_context.go. Tests use
// the recording fake in gpu/gputest.
package gpu

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNoSurface is returned when a surface operation is requested on a context that
// was created without a surface, or before the surface has been configured.
var ErrNoSurface = errors.New("gpu: no configured surface")

// Buffer is an opaque GPU buffer handle.
type Buffer interface {
	Label() string
	Size() uint64
	// Usage returns the usage flags the buffer was created with.
	Usage() wgpu.BufferUsage
	Release()
}

// Texture is an opaque GPU texture handle.
type Texture interface {
	Label() string
	Width() uint32
	Height() uint32
	Format() wgpu.TextureFormat

	// CreateView creates the default 2D view covering the whole texture.
	//
	// Returns:
	//   - TextureView: the new view, owned by the caller
	//   - error: an error if the view could not be created
	CreateView() (TextureView, error)
	Release()
}

// TextureView is an opaque GPU texture view handle.
type TextureView interface {
	Release()
}

// Sampler is an opaque GPU sampler handle.
type Sampler interface {
	Release()
}

// BindGroupLayout is an opaque GPU bind group layout handle.
type BindGroupLayout interface {
	Release()
}

// BindGroup is an opaque GPU bind group handle.
type BindGroup interface {
	Release()
}

// ShaderModule is an opaque compiled shader module handle.
type ShaderModule interface {
	Release()
}

// RenderPipeline is an opaque GPU render pipeline handle.
type RenderPipeline interface {
	Release()
}

// ComputePipeline is an opaque GPU compute pipeline handle.
type ComputePipeline interface {
	Release()
}

// CommandBuffer is a finished, submittable list of GPU commands.
type CommandBuffer interface {
	Release()
}

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage wgpu.BufferUsage
}

// TextureDescriptor describes a single-sample, single-mip 2D texture to create.
type TextureDescriptor struct {
	Label  string
	Width  uint32
	Height uint32
	Format wgpu.TextureFormat
	Usage  wgpu.TextureUsage
}

// BindGroupEntry binds exactly one resource to a binding index.
// Exactly one of Buffer, TextureView or Sampler must be set.
type BindGroupEntry struct {
	Binding     uint32
	Buffer      Buffer
	TextureView TextureView
	Sampler     Sampler
}

// BindGroupDescriptor describes a bind group to create against a layout.
type BindGroupDescriptor struct {
	Label   string
	Layout  BindGroupLayout
	Entries []BindGroupEntry
}

// ProgrammableStage names a shader module and its entry point.
type ProgrammableStage struct {
	Module     ShaderModule
	EntryPoint string
}

// RenderPipelineDescriptor describes a render pipeline. The pipeline layout is built
// from BindGroupLayouts, where index i is bind group i.
type RenderPipelineDescriptor struct {
	Label            string
	BindGroupLayouts []BindGroupLayout
	Vertex           ProgrammableStage
	VertexBuffers    []wgpu.VertexBufferLayout
	Fragment         ProgrammableStage
	Targets          []wgpu.ColorTargetState
	Primitive        wgpu.PrimitiveState
	DepthStencil     *wgpu.DepthStencilState
}

// ComputePipelineDescriptor describes a compute pipeline.
type ComputePipelineDescriptor struct {
	Label            string
	BindGroupLayouts []BindGroupLayout
	Compute          ProgrammableStage
}

// ColorAttachment is one color target of a render pass.
type ColorAttachment struct {
	View       TextureView
	LoadOp     wgpu.LoadOp
	StoreOp    wgpu.StoreOp
	ClearValue wgpu.Color
}

// DepthAttachment is the depth target of a render pass.
type DepthAttachment struct {
	View            TextureView
	DepthLoadOp     wgpu.LoadOp
	DepthStoreOp    wgpu.StoreOp
	DepthClearValue float32
}

// RenderPassDescriptor describes a render pass.
type RenderPassDescriptor struct {
	Label                  string
	ColorAttachments       []ColorAttachment
	DepthStencilAttachment *DepthAttachment
}

// Context is the GPU device, queue and surface a renderer is built against.
// It is passed explicitly to every component; nothing in the renderer reaches for
// global device state.
type Context interface {
	// SurfaceFormat returns the texture format of the presentation surface.
	// Valid once the context has a surface.
	SurfaceFormat() wgpu.TextureFormat

	// SurfaceSize returns the pixel size the surface was last configured with.
	SurfaceSize() (width, height int)

	// ConfigureSurface (re)configures the presentation surface for a new pixel size.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: ErrNoSurface if the context has no surface
	ConfigureSurface(width, height int) error

	// CurrentSurfaceView acquires the next surface texture and returns a view of it.
	// The view stays valid until Present or DiscardSurfaceView is called. Acquiring
	// again while a texture is held fails.
	//
	// Returns:
	//   - TextureView: the view of the acquired surface texture
	//   - error: an error if the surface texture could not be acquired
	CurrentSurfaceView() (TextureView, error)

	// Present presents the acquired surface texture and releases it.
	Present()

	// DiscardSurfaceView releases the acquired surface texture without presenting it,
	// so the next CurrentSurfaceView can acquire again. No-op when nothing is held.
	DiscardSurfaceView()

	// SupportsFormat reports whether a texture of the given format can be created
	// with the given usage on this device. The WebGPU backend answers from the core
	// format table widened by the format features the device was opened with, since
	// cogentcore/webgpu exposes no per-format adapter query. Adapter-specific format
	// extensions outside those features are reported as unsupported.
	//
	// Parameters:
	//   - format: the texture format to check
	//   - usage: the intended usage flags
	//
	// Returns:
	//   - bool: true if the format supports the usage
	SupportsFormat(format wgpu.TextureFormat, usage wgpu.TextureUsage) bool

	CreateBuffer(desc BufferDescriptor) (Buffer, error)

	// WriteBuffer schedules a queue write of data into buf at offset.
	WriteBuffer(buf Buffer, offset uint64, data []byte)

	CreateTexture(desc TextureDescriptor) (Texture, error)

	// WriteTexture uploads tightly packed RGBA8 pixel rows to the whole of tex.
	WriteTexture(tex Texture, pixels []byte)

	CreateSampler(label string, desc common.SamplerStagingData) (Sampler, error)
	CreateBindGroupLayout(desc wgpu.BindGroupLayoutDescriptor) (BindGroupLayout, error)
	CreateBindGroup(desc BindGroupDescriptor) (BindGroup, error)

	// CreateShaderModule compiles WGSL source into a shader module.
	CreateShaderModule(label, wgsl string) (ShaderModule, error)
	CreateRenderPipeline(desc RenderPipelineDescriptor) (RenderPipeline, error)
	CreateComputePipeline(desc ComputePipelineDescriptor) (ComputePipeline, error)
	CreateCommandEncoder(label string) (CommandEncoder, error)

	// Submit submits finished command buffers to the queue in order.
	Submit(buffers ...CommandBuffer)

	// Release releases the device, surface and instance.
	Release()
}

// CommandEncoder records passes into a command buffer.
type CommandEncoder interface {
	BeginRenderPass(desc RenderPassDescriptor) RenderPassEncoder
	BeginComputePass(label string) ComputePassEncoder

	// Finish ends recording and returns the command buffer to submit.
	Finish() (CommandBuffer, error)
	Release()
}

// RenderPassEncoder records commands of a single render pass.
type RenderPassEncoder interface {
	SetPipeline(p RenderPipeline)
	SetBindGroup(index uint32, group BindGroup)
	SetVertexBuffer(slot uint32, buf Buffer)
	SetIndexBuffer(buf Buffer, format wgpu.IndexFormat)
	DrawIndexed(indexCount, instanceCount uint32)
	Draw(vertexCount, instanceCount uint32)
	End()
}

// ComputePassEncoder records commands of a single compute pass.
type ComputePassEncoder interface {
	SetPipeline(p ComputePipeline)
	SetBindGroup(index uint32, group BindGroup)
	DispatchWorkgroups(x, y, z uint32)
	End()
}
