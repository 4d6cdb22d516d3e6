package pass

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gbuffer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

// ResolvePass shades the surface from the G-buffer and the clustered lights with a
// single full-screen draw.
type ResolvePass struct {
	ctx        gpu.Context
	pipeline   gpu.RenderPipeline
	sceneGroup gpu.BindGroup
	quad       scene.Primitive
	clearColor wgpu.Color
	label      string
}

// NewResolvePass creates a resolve pass over a registered resolve pipeline. The
// surface is cleared to transparent black unless SetClearColor is called.
//
// Parameters:
//   - ctx: the GPU context to acquire the surface from and submit to
//   - pipeline: the registered resolve render pipeline
//   - sceneGroup: the scene uniforms bind group, bound at group 0
//   - quad: the full-screen quad drawn once per pass
//
// Returns:
//   - *ResolvePass: the pass
func NewResolvePass(ctx gpu.Context, pipeline gpu.RenderPipeline, sceneGroup gpu.BindGroup, quad scene.Primitive) *ResolvePass {
	return &ResolvePass{
		ctx:        ctx,
		pipeline:   pipeline,
		sceneGroup: sceneGroup,
		quad:       quad,
		label:      "resolve pass",
	}
}

// SetClearColor sets the color the surface is cleared to before shading.
func (r *ResolvePass) SetClearColor(c wgpu.Color) {
	r.clearColor = c
}

// ClearColor returns the surface clear color.
func (r *ResolvePass) ClearColor() wgpu.Color {
	return r.clearColor
}

// Descriptor returns the render pass descriptor for a surface view: the surface
// cleared to the clear color and the shared depth target cleared to the far plane.
func (r *ResolvePass) Descriptor(surface gpu.TextureView, targets *gbuffer.Targets) gpu.RenderPassDescriptor {
	return gpu.RenderPassDescriptor{
		Label: r.label,
		ColorAttachments: []gpu.ColorAttachment{{
			View:       surface,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: r.clearColor,
		}},
		DepthStencilAttachment: &gpu.DepthAttachment{
			View:            targets.Views().Depth,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	}
}

// Encode records the pass into encoder: the G-buffer group at index 1, then the
// scene group at index 0, then one indexed draw of the quad.
//
// Parameters:
//   - encoder: the command encoder to record into
//   - surface: the acquired surface view
//   - targets: the G-buffer whose depth target is shared
//   - gbufferGroup: the resolve bind group built over targets
//
// Returns:
//   - Stats: the draws recorded
func (r *ResolvePass) Encode(encoder gpu.CommandEncoder, surface gpu.TextureView, targets *gbuffer.Targets, gbufferGroup gpu.BindGroup) Stats {
	rp := encoder.BeginRenderPass(r.Descriptor(surface, targets))
	rp.SetPipeline(r.pipeline)
	rp.SetBindGroup(layout.ResolveGroupGBuffer, gbufferGroup)
	rp.SetBindGroup(layout.ResolveGroupScene, r.sceneGroup)

	count := r.quad.IndexCount()
	rp.SetVertexBuffer(0, r.quad.VertexBuffer())
	rp.SetIndexBuffer(r.quad.IndexBuffer(), wgpu.IndexFormatUint32)
	rp.DrawIndexed(uint32(count), 1)
	rp.End()

	return Stats{Draws: 1, Indices: count}
}

// Run acquires the surface view, encodes the pass into its own command buffer and
// submits it. On success the surface is left acquired for the caller to present; if
// recording fails the surface texture is discarded so the next frame can acquire.
//
// Returns:
//   - Stats: the draws recorded
//   - error: the surface acquire error, or an error if the command buffer could not be recorded
func (r *ResolvePass) Run(targets *gbuffer.Targets, gbufferGroup gpu.BindGroup) (Stats, error) {
	surface, err := r.ctx.CurrentSurfaceView()
	if err != nil {
		return Stats{}, fmt.Errorf("%s: %w", r.label, err)
	}
	var stats Stats
	err = Submit(r.ctx, r.label, func(encoder gpu.CommandEncoder) {
		stats = r.Encode(encoder, surface, targets, gbufferGroup)
	})
	if err != nil {
		r.ctx.DiscardSurfaceView()
		return Stats{}, err
	}
	return stats, nil
}
