package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuBuffer struct {
	buf   *wgpu.Buffer
	label string
	size  uint64
	usage wgpu.BufferUsage
}

func (b *wgpuBuffer) Label() string           { return b.label }
func (b *wgpuBuffer) Size() uint64            { return b.size }
func (b *wgpuBuffer) Usage() wgpu.BufferUsage { return b.usage }
func (b *wgpuBuffer) Release()                { b.buf.Release() }

type wgpuTexture struct {
	tex  *wgpu.Texture
	desc TextureDescriptor
}

func (t *wgpuTexture) Label() string              { return t.desc.Label }
func (t *wgpuTexture) Width() uint32              { return t.desc.Width }
func (t *wgpuTexture) Height() uint32             { return t.desc.Height }
func (t *wgpuTexture) Format() wgpu.TextureFormat { return t.desc.Format }
func (t *wgpuTexture) Release()                   { t.tex.Release() }

func (t *wgpuTexture) CreateView() (TextureView, error) {
	v, err := t.tex.CreateView(nil)
	if err != nil {
		return nil, err
	}
	return &wgpuTextureView{view: v}, nil
}

type wgpuTextureView struct {
	view *wgpu.TextureView
}

func (v *wgpuTextureView) Release() { v.view.Release() }

type wgpuSampler struct {
	sampler *wgpu.Sampler
}

func (s *wgpuSampler) Release() { s.sampler.Release() }

type wgpuBindGroupLayout struct {
	layout *wgpu.BindGroupLayout
}

func (l *wgpuBindGroupLayout) Release() { l.layout.Release() }

type wgpuBindGroup struct {
	group *wgpu.BindGroup
}

func (g *wgpuBindGroup) Release() { g.group.Release() }

type wgpuShaderModule struct {
	module *wgpu.ShaderModule
}

func (m *wgpuShaderModule) Release() { m.module.Release() }

type wgpuRenderPipeline struct {
	pipeline *wgpu.RenderPipeline
}

func (p *wgpuRenderPipeline) Release() { p.pipeline.Release() }

type wgpuComputePipeline struct {
	pipeline *wgpu.ComputePipeline
}

func (p *wgpuComputePipeline) Release() { p.pipeline.Release() }

type wgpuCommandBuffer struct {
	buffer *wgpu.CommandBuffer
}

func (b *wgpuCommandBuffer) Release() { b.buffer.Release() }

type wgpuCommandEncoder struct {
	encoder *wgpu.CommandEncoder
}

func (e *wgpuCommandEncoder) BeginRenderPass(desc RenderPassDescriptor) RenderPassEncoder {
	colors := make([]wgpu.RenderPassColorAttachment, len(desc.ColorAttachments))
	for i, a := range desc.ColorAttachments {
		colors[i] = wgpu.RenderPassColorAttachment{
			View:       a.View.(*wgpuTextureView).view,
			LoadOp:     a.LoadOp,
			StoreOp:    a.StoreOp,
			ClearValue: a.ClearValue,
		}
	}

	rpd := &wgpu.RenderPassDescriptor{
		Label:            desc.Label,
		ColorAttachments: colors,
	}
	if d := desc.DepthStencilAttachment; d != nil {
		rpd.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            d.View.(*wgpuTextureView).view,
			DepthLoadOp:     d.DepthLoadOp,
			DepthStoreOp:    d.DepthStoreOp,
			DepthClearValue: d.DepthClearValue,
		}
	}
	return &wgpuRenderPass{pass: e.encoder.BeginRenderPass(rpd)}
}

func (e *wgpuCommandEncoder) BeginComputePass(label string) ComputePassEncoder {
	return &wgpuComputePass{pass: e.encoder.BeginComputePass(&wgpu.ComputePassDescriptor{Label: label})}
}

func (e *wgpuCommandEncoder) Finish() (CommandBuffer, error) {
	cb, err := e.encoder.Finish(nil)
	if err != nil {
		return nil, err
	}
	return &wgpuCommandBuffer{buffer: cb}, nil
}

func (e *wgpuCommandEncoder) Release() { e.encoder.Release() }

type wgpuRenderPass struct {
	pass *wgpu.RenderPassEncoder
}

func (p *wgpuRenderPass) SetPipeline(rp RenderPipeline) {
	p.pass.SetPipeline(rp.(*wgpuRenderPipeline).pipeline)
}

func (p *wgpuRenderPass) SetBindGroup(index uint32, group BindGroup) {
	p.pass.SetBindGroup(index, group.(*wgpuBindGroup).group, nil)
}

func (p *wgpuRenderPass) SetVertexBuffer(slot uint32, buf Buffer) {
	p.pass.SetVertexBuffer(slot, buf.(*wgpuBuffer).buf, 0, wgpu.WholeSize)
}

func (p *wgpuRenderPass) SetIndexBuffer(buf Buffer, format wgpu.IndexFormat) {
	p.pass.SetIndexBuffer(buf.(*wgpuBuffer).buf, format, 0, wgpu.WholeSize)
}

func (p *wgpuRenderPass) DrawIndexed(indexCount, instanceCount uint32) {
	p.pass.DrawIndexed(indexCount, instanceCount, 0, 0, 0)
}

func (p *wgpuRenderPass) Draw(vertexCount, instanceCount uint32) {
	p.pass.Draw(vertexCount, instanceCount, 0, 0)
}

func (p *wgpuRenderPass) End() {
	p.pass.End()
	p.pass.Release()
}

type wgpuComputePass struct {
	pass *wgpu.ComputePassEncoder
}

func (p *wgpuComputePass) SetPipeline(cp ComputePipeline) {
	p.pass.SetPipeline(cp.(*wgpuComputePipeline).pipeline)
}

func (p *wgpuComputePass) SetBindGroup(index uint32, group BindGroup) {
	p.pass.SetBindGroup(index, group.(*wgpuBindGroup).group, nil)
}

func (p *wgpuComputePass) DispatchWorkgroups(x, y, z uint32) {
	p.pass.DispatchWorkgroups(x, y, z)
}

func (p *wgpuComputePass) End() {
	p.pass.End()
	p.pass.Release()
}
