package bind_group_provider

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/layout"
	"github.com/cogentcore/webgpu/wgpu"
)

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// WriteBuffers applies writes in order. Writes to a binding with no buffer are skipped.
//
// Parameters:
//   - ctx: the GPU context whose queue receives the writes
//   - writes: the writes to apply
func WriteBuffers(ctx gpu.Context, writes []BufferWrite) {
	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			continue
		}
		ctx.WriteBuffer(buf, w.Offset, w.Data)
	}
}

// InitBindGroup creates the provider's bind group against a registry layout. Buffer
// slots without a buffer get a new one sized from sizes; texture and sampler slots
// must already be filled through InitTextureView, InitSampler or the With* options.
//
// Parameters:
//   - ctx: the GPU context to create resources on
//   - provider: the provider receiving the buffers and bind group
//   - l: the layout the bind group is created against
//   - sizes: byte sizes for buffers InitBindGroup has to create, keyed by binding
//
// Returns:
//   - error: a *layout.MismatchError from validation, or an error naming the missing resource
func InitBindGroup(ctx gpu.Context, provider BindGroupProvider, l *layout.Layout, sizes map[int]uint64) error {
	slots := l.Slots()
	entries := make([]gpu.BindGroupEntry, 0, len(slots))
	for _, slot := range slots {
		binding := int(slot.Binding)
		entry := gpu.BindGroupEntry{Binding: slot.Binding}

		switch {
		case slot.Kind.IsBuffer():
			buf := provider.Buffer(binding)
			if buf == nil {
				size := sizes[binding]
				if size == 0 {
					return fmt.Errorf("%s: buffer binding %d has no buffer and no size", provider.Label(), binding)
				}
				var err error
				buf, err = ctx.CreateBuffer(gpu.BufferDescriptor{
					Label: fmt.Sprintf("%s Buffer %d", provider.Label(), binding),
					Size:  size,
					Usage: bufferUsage(slot.Kind),
				})
				if err != nil {
					return fmt.Errorf("%s: create buffer %d: %w", provider.Label(), binding, err)
				}
				provider.SetBuffer(binding, buf)
			}
			entry.Buffer = buf
		case slot.Kind == layout.KindSampledTexture:
			tv := provider.TextureView(binding)
			if tv == nil {
				return fmt.Errorf("%s: texture binding %d has no texture view, call InitTextureView first", provider.Label(), binding)
			}
			entry.TextureView = tv
		case slot.Kind == layout.KindSampler:
			s := provider.Sampler(binding)
			if s == nil {
				return fmt.Errorf("%s: sampler binding %d has no sampler, call InitSampler first", provider.Label(), binding)
			}
			entry.Sampler = s
		}
		entries = append(entries, entry)
	}

	bg, err := l.NewBindGroup(ctx, provider.Label()+" Bind Group", entries)
	if err != nil {
		return err
	}
	provider.SetBindGroup(bg)
	return nil
}

func bufferUsage(kind layout.Kind) wgpu.BufferUsage {
	if kind == layout.KindUniformBuffer {
		return wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	}
	return wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
}

// InitMeshBuffers uploads vertex and index data into new buffers owned by the provider.
//
// Parameters:
//   - ctx: the GPU context to create the buffers on
//   - provider: the provider receiving the buffers
//   - vertexData: the marshaled vertices
//   - indexData: the marshaled uint32 indices
//   - indexCount: the number of indices
//
// Returns:
//   - error: an error if either buffer cannot be created
func InitMeshBuffers(ctx gpu.Context, provider BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	if len(vertexData) == 0 || len(indexData) == 0 {
		return fmt.Errorf("%s: mesh needs vertex and index data", provider.Label())
	}

	vb, err := ctx.CreateBuffer(gpu.BufferDescriptor{
		Label: provider.Label() + " Vertex Buffer",
		Size:  uint64(len(vertexData)),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("%s: vertex buffer: %w", provider.Label(), err)
	}
	ib, err := ctx.CreateBuffer(gpu.BufferDescriptor{
		Label: provider.Label() + " Index Buffer",
		Size:  uint64(len(indexData)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		vb.Release()
		return fmt.Errorf("%s: index buffer: %w", provider.Label(), err)
	}

	ctx.WriteBuffer(vb, 0, vertexData)
	ctx.WriteBuffer(ib, 0, indexData)
	provider.SetMesh(vb, ib, indexCount)
	return nil
}

// InitTextureView uploads RGBA8 pixels into a new sampled texture and stores it with
// its view at the binding.
//
// Parameters:
//   - ctx: the GPU context to create the texture on
//   - provider: the provider receiving the texture
//   - binding: the binding index of the view
//   - stagingData: the decoded pixels
//
// Returns:
//   - error: an error if the texture or its view cannot be created
func InitTextureView(ctx gpu.Context, provider BindGroupProvider, binding int, stagingData common.TextureStagingData) error {
	if stagingData.Width == 0 || stagingData.Height == 0 || len(stagingData.Pixels) != int(stagingData.Width*stagingData.Height*4) {
		return fmt.Errorf("%s: texture %d: %d bytes for %dx%d RGBA8", provider.Label(), binding, len(stagingData.Pixels), stagingData.Width, stagingData.Height)
	}

	tex, err := ctx.CreateTexture(gpu.TextureDescriptor{
		Label:  fmt.Sprintf("%s Texture %d", provider.Label(), binding),
		Width:  stagingData.Width,
		Height: stagingData.Height,
		Format: wgpu.TextureFormatRGBA8UnormSrgb,
		Usage:  wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("%s: texture %d: %w", provider.Label(), binding, err)
	}
	ctx.WriteTexture(tex, stagingData.Pixels)

	view, err := tex.CreateView()
	if err != nil {
		tex.Release()
		return fmt.Errorf("%s: view of texture %d: %w", provider.Label(), binding, err)
	}
	provider.SetTexture(binding, tex, view)
	return nil
}

// InitSampler creates a sampler owned by the provider at the binding. Zero fields of
// samplerStagingData take the backend defaults (repeat, linear).
func InitSampler(ctx gpu.Context, provider BindGroupProvider, binding int, samplerStagingData common.SamplerStagingData) error {
	s, err := ctx.CreateSampler(fmt.Sprintf("%s Sampler %d", provider.Label(), binding), samplerStagingData)
	if err != nil {
		return fmt.Errorf("%s: sampler %d: %w", provider.Label(), binding, err)
	}
	provider.SetSampler(binding, s)
	return nil
}
