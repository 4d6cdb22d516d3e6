package bind_group_provider

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// bindGroup is the GPU bind group created for this provider, or nil if not initialized.
	bindGroup gpu.BindGroup
	// buffers holds the GPU buffers bound by this provider, keyed by binding index.
	buffers map[int]gpu.Buffer
	// textures holds textures created by InitTextureView, keyed by the binding of their view.
	textures map[int]gpu.Texture
	// textureViews holds the GPU texture views bound by this provider, keyed by binding index.
	textureViews map[int]gpu.TextureView
	// samplers holds the GPU samplers bound by this provider, keyed by binding index.
	samplers map[int]gpu.Sampler
	// borrowed marks bindings whose resource is owned elsewhere. Release skips them.
	borrowed map[int]bool

	vertexBuffer gpu.Buffer
	indexBuffer  gpu.Buffer
	indexCount   int
}

// BindGroupProvider holds the bind group of one scene object together with the resources
// it binds. Components (nodes, materials, the renderer's frame resources) hold a
// provider, fill it through InitBindGroup, InitTextureView, InitSampler and
// InitMeshBuffers, and read BindGroup() when encoding draws.
//
// Resources set with the With* options are borrowed: they stay bound, but Release
// leaves them to their owner. Everything the Init* functions create is owned.
type BindGroupProvider interface {
	// Release releases the bind group and every owned resource held by this provider.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the created bind group for shader binding.
	// Returns nil if GPU resources have not been initialized.
	//
	// Returns:
	//   - gpu.BindGroup: the bind group or nil
	BindGroup() gpu.BindGroup

	// Buffer returns the buffer bound at the given binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - gpu.Buffer: the buffer or nil
	Buffer(binding int) gpu.Buffer

	// TextureView returns the GPU texture view for a specific binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - gpu.TextureView: the texture view or nil
	TextureView(binding int) gpu.TextureView

	// Sampler returns the GPU sampler for a specific binding, or nil if not set.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - gpu.Sampler: the sampler or nil
	Sampler(binding int) gpu.Sampler

	// VertexBuffer returns the GPU vertex buffer, or nil if not initialized.
	VertexBuffer() gpu.Buffer

	// IndexBuffer returns the GPU index buffer, or nil if not initialized.
	IndexBuffer() gpu.Buffer

	// IndexCount returns the number of indices for draw calls.
	IndexCount() int

	// SetBindGroup replaces the bind group, releasing the previous one.
	//
	// Parameters:
	//   - bg: the created bind group
	SetBindGroup(bg gpu.BindGroup)

	// SetBuffer stores an owned buffer for a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the created buffer
	SetBuffer(binding int, buf gpu.Buffer)

	// SetTexture stores an owned texture and its view for a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tex: the created texture
	//   - view: the view bound at the binding
	SetTexture(binding int, tex gpu.Texture, view gpu.TextureView)

	// SetSampler stores an owned sampler for a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - s: the sampler to store
	SetSampler(binding int, s gpu.Sampler)

	// SetMesh stores owned vertex and index buffers and the index count for draw calls.
	SetMesh(vertexBuffer, indexBuffer gpu.Buffer, indexCount int)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: the debug label, used as the prefix of every resource label
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		buffers:      make(map[int]gpu.Buffer),
		textures:     make(map[int]gpu.Texture),
		textureViews: make(map[int]gpu.TextureView),
		samplers:     make(map[int]gpu.Sampler),
		borrowed:     make(map[int]bool),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() gpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) Buffer(binding int) gpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) TextureView(binding int) gpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) Sampler(binding int) gpu.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) VertexBuffer() gpu.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) IndexBuffer() gpu.Buffer {
	return p.indexBuffer
}

func (p *bindGroupProvider) IndexCount() int {
	return p.indexCount
}

func (p *bindGroupProvider) SetBindGroup(bg gpu.BindGroup) {
	if p.bindGroup != nil && p.bindGroup != bg {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBuffer(binding int, buf gpu.Buffer) {
	p.releaseBinding(binding)
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) SetTexture(binding int, tex gpu.Texture, view gpu.TextureView) {
	p.releaseBinding(binding)
	p.textures[binding] = tex
	p.textureViews[binding] = view
}

func (p *bindGroupProvider) SetSampler(binding int, s gpu.Sampler) {
	p.releaseBinding(binding)
	p.samplers[binding] = s
}

func (p *bindGroupProvider) SetMesh(vertexBuffer, indexBuffer gpu.Buffer, indexCount int) {
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
	}
	p.vertexBuffer = vertexBuffer
	p.indexBuffer = indexBuffer
	p.indexCount = indexCount
}

// releaseBinding releases whatever the provider owns at a binding and forgets it.
func (p *bindGroupProvider) releaseBinding(binding int) {
	if !p.borrowed[binding] {
		if buf := p.buffers[binding]; buf != nil {
			buf.Release()
		}
		if tv := p.textureViews[binding]; tv != nil {
			tv.Release()
		}
		if tex := p.textures[binding]; tex != nil {
			tex.Release()
		}
		if s := p.samplers[binding]; s != nil {
			s.Release()
		}
	}
	delete(p.buffers, binding)
	delete(p.textureViews, binding)
	delete(p.textures, binding)
	delete(p.samplers, binding)
	delete(p.borrowed, binding)
}

func (p *bindGroupProvider) Release() {
	bindings := make(map[int]struct{})
	for i := range p.buffers {
		bindings[i] = struct{}{}
	}
	for i := range p.textureViews {
		bindings[i] = struct{}{}
	}
	for i := range p.samplers {
		bindings[i] = struct{}{}
	}
	for i := range bindings {
		p.releaseBinding(i)
	}

	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
	p.indexCount = 0
}
