// Package gputest provides a recording gpu.Context for tests. It creates no device:
// every handle is a plain Go value that remembers its descriptor and whether it was
// released, and every command encoder records its passes so tests can assert the
// exact sequence submitted to the queue.
package gputest

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// Op names a recorded pass command.
type Op string

const (
	OpSetPipeline     Op = "SetPipeline"
	OpSetBindGroup    Op = "SetBindGroup"
	OpSetVertexBuffer Op = "SetVertexBuffer"
	OpSetIndexBuffer  Op = "SetIndexBuffer"
	OpDrawIndexed     Op = "DrawIndexed"
	OpDraw            Op = "Draw"
	OpDispatch        Op = "DispatchWorkgroups"
)

// Command is one recorded pass command. Index carries the bind group index or
// vertex slot, Handle the bound object, Count the index or vertex count, and
// Workgroups the dispatch size.
type Command struct {
	Op          Op
	Index       uint32
	Handle      any
	Count       uint32
	IndexFormat wgpu.IndexFormat
	Workgroups  [3]uint32
}

// Pass is one recorded render or compute pass.
type Pass struct {
	Compute  bool
	Label    string
	Render   gpu.RenderPassDescriptor
	Commands []Command
	Ended    bool
}

// Ops returns the pass command names in order.
func (p *Pass) Ops() []Op {
	ops := make([]Op, len(p.Commands))
	for i, c := range p.Commands {
		ops[i] = c.Op
	}
	return ops
}

// Count returns the number of commands with the given op.
func (p *Pass) Count(op Op) int {
	n := 0
	for _, c := range p.Commands {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Submission is one command buffer handed to Submit.
type Submission struct {
	Label  string
	Passes []*Pass
}

// Buffer is a recorded buffer.
type Buffer struct {
	Desc     gpu.BufferDescriptor
	Data     []byte
	Writes   int
	Released bool
}

func (b *Buffer) Label() string           { return b.Desc.Label }
func (b *Buffer) Size() uint64            { return b.Desc.Size }
func (b *Buffer) Usage() wgpu.BufferUsage { return b.Desc.Usage }
func (b *Buffer) Release()                { b.Released = true }

// Texture is a recorded texture.
type Texture struct {
	Desc     gpu.TextureDescriptor
	Views    []*TextureView
	Pixels   []byte
	Released bool
	ctx      *Context
}

func (t *Texture) Label() string              { return t.Desc.Label }
func (t *Texture) Width() uint32              { return t.Desc.Width }
func (t *Texture) Height() uint32             { return t.Desc.Height }
func (t *Texture) Format() wgpu.TextureFormat { return t.Desc.Format }
func (t *Texture) Release()                   { t.Released = true }

func (t *Texture) CreateView() (gpu.TextureView, error) {
	if err := t.ctx.FailView[t.Desc.Label]; err != nil {
		return nil, err
	}
	v := &TextureView{Texture: t}
	t.Views = append(t.Views, v)
	return v, nil
}

// TextureView is a recorded texture view. Surface views have a nil Texture.
type TextureView struct {
	Texture  *Texture
	Surface  bool
	Released bool
}

func (v *TextureView) Release() { v.Released = true }

// Stale reports whether the view or its texture has been released.
func (v *TextureView) Stale() bool {
	return v.Released || (v.Texture != nil && v.Texture.Released)
}

// Sampler is a recorded sampler.
type Sampler struct {
	Label    string
	Desc     common.SamplerStagingData
	Released bool
}

func (s *Sampler) Release() { s.Released = true }

// BindGroupLayout is a recorded bind group layout.
type BindGroupLayout struct {
	Desc     wgpu.BindGroupLayoutDescriptor
	Released bool
}

func (l *BindGroupLayout) Release() { l.Released = true }

// BindGroup is a recorded bind group.
type BindGroup struct {
	Desc     gpu.BindGroupDescriptor
	Released bool
}

func (g *BindGroup) Release() { g.Released = true }

// ShaderModule is a recorded shader module.
type ShaderModule struct {
	Label    string
	Source   string
	Released bool
}

func (m *ShaderModule) Release() { m.Released = true }

// RenderPipeline is a recorded render pipeline.
type RenderPipeline struct {
	Desc     gpu.RenderPipelineDescriptor
	Released bool
}

func (p *RenderPipeline) Release() { p.Released = true }

// ComputePipeline is a recorded compute pipeline.
type ComputePipeline struct {
	Desc     gpu.ComputePipelineDescriptor
	Released bool
}

func (p *ComputePipeline) Release() { p.Released = true }

// CommandBuffer is a finished encoder.
type CommandBuffer struct {
	Submission *Submission
	Released   bool
}

func (b *CommandBuffer) Release() { b.Released = true }

// Context is a recording gpu.Context. The exported fields configure failures and
// expose everything the code under test created or submitted.
type Context struct {
	mu sync.Mutex

	Format        wgpu.TextureFormat
	Width, Height int

	// Unsupported marks formats SupportsFormat reports as unusable.
	Unsupported map[wgpu.TextureFormat]bool
	// FailTexture fails CreateTexture for the given labels.
	FailTexture map[string]error
	// FailView fails Texture.CreateView for the given texture labels.
	FailView map[string]error
	// FailBindGroup fails CreateBindGroup for the given labels.
	FailBindGroup map[string]error
	// FailSurface fails CurrentSurfaceView.
	FailSurface error
	// FailEncoder fails CreateCommandEncoder for the given labels.
	FailEncoder map[string]error

	Buffers          []*Buffer
	Textures         []*Texture
	Samplers         []*Sampler
	Layouts          []*BindGroupLayout
	BindGroups       []*BindGroup
	ShaderModules    []*ShaderModule
	RenderPipelines  []*RenderPipeline
	ComputePipelines []*ComputePipeline
	SurfaceViews     []*TextureView
	Submissions      []*Submission
	Configures       int
	Presents         int
	Discards         int
	Released         bool

	current *TextureView
}

var _ gpu.Context = &Context{}

// NewContext returns a recording context with a configured 800x600 BGRA8 surface.
func NewContext() *Context {
	return &Context{
		Format:        wgpu.TextureFormatBGRA8Unorm,
		Width:         800,
		Height:        600,
		Unsupported:   map[wgpu.TextureFormat]bool{},
		FailTexture:   map[string]error{},
		FailView:      map[string]error{},
		FailBindGroup: map[string]error{},
		FailEncoder:   map[string]error{},
	}
}

func (c *Context) SurfaceFormat() wgpu.TextureFormat { return c.Format }

func (c *Context) SurfaceSize() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Width, c.Height
}

func (c *Context) ConfigureSurface(width, height int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("configure surface %dx%d: invalid size", width, height)
	}
	c.Width, c.Height = width, height
	c.Configures++
	return nil
}

func (c *Context) CurrentSurfaceView() (gpu.TextureView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailSurface != nil {
		return nil, c.FailSurface
	}
	if c.current != nil {
		return nil, fmt.Errorf("previous surface texture not yet presented")
	}
	v := &TextureView{Surface: true}
	c.SurfaceViews = append(c.SurfaceViews, v)
	c.current = v
	return v, nil
}

func (c *Context) Present() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return
	}
	c.current.Released = true
	c.current = nil
	c.Presents++
}

func (c *Context) DiscardSurfaceView() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return
	}
	c.current.Released = true
	c.current = nil
	c.Discards++
}

// HoldsSurfaceView reports whether a surface view is acquired and not yet presented
// or discarded.
func (c *Context) HoldsSurfaceView() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

func (c *Context) SupportsFormat(format wgpu.TextureFormat, _ wgpu.TextureUsage) bool {
	return !c.Unsupported[format]
}

func (c *Context) CreateBuffer(desc gpu.BufferDescriptor) (gpu.Buffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := &Buffer{Desc: desc}
	c.Buffers = append(c.Buffers, b)
	return b, nil
}

func (c *Context) WriteBuffer(buf gpu.Buffer, offset uint64, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := buf.(*Buffer)
	end := offset + uint64(len(data))
	if uint64(len(b.Data)) < end {
		grown := make([]byte, end)
		copy(grown, b.Data)
		b.Data = grown
	}
	copy(b.Data[offset:], data)
	b.Writes++
}

func (c *Context) CreateTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.FailTexture[desc.Label]; err != nil {
		return nil, err
	}
	t := &Texture{Desc: desc, ctx: c}
	c.Textures = append(c.Textures, t)
	return t, nil
}

func (c *Context) WriteTexture(tex gpu.Texture, pixels []byte) {
	tex.(*Texture).Pixels = append([]byte(nil), pixels...)
}

func (c *Context) CreateSampler(label string, desc common.SamplerStagingData) (gpu.Sampler, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := &Sampler{Label: label, Desc: desc}
	c.Samplers = append(c.Samplers, s)
	return s, nil
}

func (c *Context) CreateBindGroupLayout(desc wgpu.BindGroupLayoutDescriptor) (gpu.BindGroupLayout, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := &BindGroupLayout{Desc: desc}
	c.Layouts = append(c.Layouts, l)
	return l, nil
}

func (c *Context) CreateBindGroup(desc gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.FailBindGroup[desc.Label]; err != nil {
		return nil, err
	}
	g := &BindGroup{Desc: desc}
	c.BindGroups = append(c.BindGroups, g)
	return g, nil
}

func (c *Context) CreateShaderModule(label, wgsl string) (gpu.ShaderModule, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := &ShaderModule{Label: label, Source: wgsl}
	c.ShaderModules = append(c.ShaderModules, m)
	return m, nil
}

func (c *Context) CreateRenderPipeline(desc gpu.RenderPipelineDescriptor) (gpu.RenderPipeline, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := &RenderPipeline{Desc: desc}
	c.RenderPipelines = append(c.RenderPipelines, p)
	return p, nil
}

func (c *Context) CreateComputePipeline(desc gpu.ComputePipelineDescriptor) (gpu.ComputePipeline, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := &ComputePipeline{Desc: desc}
	c.ComputePipelines = append(c.ComputePipelines, p)
	return p, nil
}

func (c *Context) CreateCommandEncoder(label string) (gpu.CommandEncoder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.FailEncoder[label]; err != nil {
		return nil, err
	}
	return &CommandEncoder{submission: &Submission{Label: label}}, nil
}

func (c *Context) Submit(buffers ...gpu.CommandBuffer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range buffers {
		c.Submissions = append(c.Submissions, b.(*CommandBuffer).Submission)
	}
}

func (c *Context) Release() { c.Released = true }

// Reset forgets recorded submissions and presents, keeping created resources.
func (c *Context) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Submissions = nil
	c.Presents = 0
	c.Discards = 0
}

// CommandEncoder records passes until Finish.
type CommandEncoder struct {
	submission *Submission
	finished   bool
	Released   bool
}

func (e *CommandEncoder) BeginRenderPass(desc gpu.RenderPassDescriptor) gpu.RenderPassEncoder {
	p := &Pass{Label: desc.Label, Render: desc}
	e.submission.Passes = append(e.submission.Passes, p)
	return &RenderPassEncoder{pass: p}
}

func (e *CommandEncoder) BeginComputePass(label string) gpu.ComputePassEncoder {
	p := &Pass{Compute: true, Label: label}
	e.submission.Passes = append(e.submission.Passes, p)
	return &ComputePassEncoder{pass: p}
}

func (e *CommandEncoder) Finish() (gpu.CommandBuffer, error) {
	if e.finished {
		return nil, fmt.Errorf("command encoder %q already finished", e.submission.Label)
	}
	for _, p := range e.submission.Passes {
		if !p.Ended {
			return nil, fmt.Errorf("command encoder %q: pass %q not ended", e.submission.Label, p.Label)
		}
	}
	e.finished = true
	return &CommandBuffer{Submission: e.submission}, nil
}

func (e *CommandEncoder) Release() { e.Released = true }

// RenderPassEncoder records into a Pass.
type RenderPassEncoder struct {
	pass *Pass
}

func (r *RenderPassEncoder) record(c Command) { r.pass.Commands = append(r.pass.Commands, c) }

func (r *RenderPassEncoder) SetPipeline(p gpu.RenderPipeline) {
	r.record(Command{Op: OpSetPipeline, Handle: p})
}

func (r *RenderPassEncoder) SetBindGroup(index uint32, group gpu.BindGroup) {
	r.record(Command{Op: OpSetBindGroup, Index: index, Handle: group})
}

func (r *RenderPassEncoder) SetVertexBuffer(slot uint32, buf gpu.Buffer) {
	r.record(Command{Op: OpSetVertexBuffer, Index: slot, Handle: buf})
}

func (r *RenderPassEncoder) SetIndexBuffer(buf gpu.Buffer, format wgpu.IndexFormat) {
	r.record(Command{Op: OpSetIndexBuffer, Handle: buf, IndexFormat: format})
}

func (r *RenderPassEncoder) DrawIndexed(indexCount, instanceCount uint32) {
	r.record(Command{Op: OpDrawIndexed, Count: indexCount})
}

func (r *RenderPassEncoder) Draw(vertexCount, instanceCount uint32) {
	r.record(Command{Op: OpDraw, Count: vertexCount})
}

func (r *RenderPassEncoder) End() { r.pass.Ended = true }

// ComputePassEncoder records into a Pass.
type ComputePassEncoder struct {
	pass *Pass
}

func (r *ComputePassEncoder) SetPipeline(p gpu.ComputePipeline) {
	r.pass.Commands = append(r.pass.Commands, Command{Op: OpSetPipeline, Handle: p})
}

func (r *ComputePassEncoder) SetBindGroup(index uint32, group gpu.BindGroup) {
	r.pass.Commands = append(r.pass.Commands, Command{Op: OpSetBindGroup, Index: index, Handle: group})
}

func (r *ComputePassEncoder) DispatchWorkgroups(x, y, z uint32) {
	r.pass.Commands = append(r.pass.Commands, Command{Op: OpDispatch, Workgroups: [3]uint32{x, y, z}})
}

func (r *ComputePassEncoder) End() { r.pass.Ended = true }
