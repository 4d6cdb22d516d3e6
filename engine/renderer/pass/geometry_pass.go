package pass

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gbuffer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

// GeometryPass rasterizes every primitive the scene yields into the G-buffer.
type GeometryPass struct {
	ctx        gpu.Context
	pipeline   gpu.RenderPipeline
	sceneGroup gpu.BindGroup
	label      string
}

// NewGeometryPass creates a geometry pass over a registered geometry pipeline.
//
// Parameters:
//   - ctx: the GPU context to submit to
//   - pipeline: the registered geometry render pipeline
//   - sceneGroup: the scene uniforms bind group, bound once per pass at group 0
//
// Returns:
//   - *GeometryPass: the pass
func NewGeometryPass(ctx gpu.Context, pipeline gpu.RenderPipeline, sceneGroup gpu.BindGroup) *GeometryPass {
	return &GeometryPass{
		ctx:        ctx,
		pipeline:   pipeline,
		sceneGroup: sceneGroup,
		label:      "geometry pass",
	}
}

// Descriptor returns the render pass descriptor writing into targets: every color
// target cleared to zero, depth cleared to the far plane, all stored.
func (g *GeometryPass) Descriptor(targets *gbuffer.Targets) gpu.RenderPassDescriptor {
	views := targets.Views()
	colors := make([]gpu.ColorAttachment, len(views.Color))
	for i, v := range views.Color {
		colors[i] = gpu.ColorAttachment{
			View:       v,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{},
		}
	}
	return gpu.RenderPassDescriptor{
		Label:            g.label,
		ColorAttachments: colors,
		DepthStencilAttachment: &gpu.DepthAttachment{
			View:            views.Depth,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	}
}

// Encode records the pass into encoder. Nodes bind group 1 and materials group 2
// as the scene visits them; each primitive is one indexed draw of its full index
// count. An empty scene records a pass that only clears.
//
// Parameters:
//   - encoder: the command encoder to record into
//   - targets: the G-buffer to write
//   - s: the scene to draw
//
// Returns:
//   - Stats: the draws recorded
func (g *GeometryPass) Encode(encoder gpu.CommandEncoder, targets *gbuffer.Targets, s scene.Scene) Stats {
	var stats Stats
	rp := encoder.BeginRenderPass(g.Descriptor(targets))
	rp.SetPipeline(g.pipeline)
	rp.SetBindGroup(layout.GroupScene, g.sceneGroup)

	s.Iterate(
		func(n scene.Node) {
			rp.SetBindGroup(layout.GroupModel, n.ModelBindGroup())
		},
		func(m scene.Material) {
			rp.SetBindGroup(layout.GroupMaterial, m.MaterialBindGroup())
		},
		func(p scene.Primitive) {
			count := p.IndexCount()
			rp.SetVertexBuffer(0, p.VertexBuffer())
			rp.SetIndexBuffer(p.IndexBuffer(), wgpu.IndexFormatUint32)
			rp.DrawIndexed(uint32(count), 1)
			stats.Draws++
			stats.Indices += count
		},
	)

	rp.End()
	return stats
}

// Run encodes the pass into its own command buffer and submits it.
//
// Returns:
//   - Stats: the draws recorded
//   - error: an error if the command buffer could not be recorded
func (g *GeometryPass) Run(targets *gbuffer.Targets, s scene.Scene) (Stats, error) {
	var stats Stats
	err := Submit(g.ctx, g.label, func(encoder gpu.CommandEncoder) {
		stats = g.Encode(encoder, targets, s)
	})
	return stats, err
}
