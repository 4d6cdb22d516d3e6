package gpu

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuContext struct {
	mu       sync.Mutex
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	width, height int
	configured    bool

	// frame state between CurrentSurfaceView and Present
	frameTexture *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ Context = &wgpuContext{}

// NewWGPUContext creates a WebGPU instance, requests an adapter compatible with the
// given surface and opens a device on it. The calling goroutine is locked to its OS
// thread, as the native surface requires.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor, usually from window.Window; may be nil for headless use
//   - options: functional options for the adapter, device and present mode
//
// Returns:
//   - Context: the ready GPU context; the surface still needs ConfigureSurface
//   - error: an error if no adapter or device could be acquired
func NewWGPUContext(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...ContextBuilderOption) (Context, error) {
	cfg := newContextConfig()
	for _, opt := range options {
		opt(cfg)
	}

	runtime.LockOSThread()
	c := &wgpuContext{
		instance:    wgpu.CreateInstance(nil),
		presentMode: cfg.presentMode,
	}
	if surfaceDescriptor != nil {
		c.surface = c.instance.CreateSurface(surfaceDescriptor)
	}

	a, err := c.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    c.surface,
	})
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	c.adapter = a

	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = cfg.maxBindGroups

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label:            cfg.label,
		RequiredFeatures: formatFeatures(a.HasFeature),
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		c.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	c.device = d
	c.queue = d.GetQueue()

	if c.surface != nil {
		capabilities := c.surface.GetCapabilities(c.adapter)
		if len(capabilities.Formats) == 0 {
			c.Release()
			return nil, fmt.Errorf("surface reports no formats: %w", ErrNoSurface)
		}
		c.surfaceFormat = capabilities.Formats[0]
	}

	return c, nil
}

func (c *wgpuContext) SurfaceFormat() wgpu.TextureFormat {
	return c.surfaceFormat
}

func (c *wgpuContext) SurfaceSize() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *wgpuContext) ConfigureSurface(width, height int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.surface == nil {
		return ErrNoSurface
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("configure surface %dx%d: invalid size", width, height)
	}

	capabilities := c.surface.GetCapabilities(c.adapter)
	c.surface.Configure(c.adapter, c.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      c.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: c.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	c.width, c.height = width, height
	c.configured = true
	return nil
}

func (c *wgpuContext) CurrentSurfaceView() (TextureView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.surface == nil || !c.configured {
		return nil, ErrNoSurface
	}
	// a texture still held from a previous frame must be presented first
	if c.frameTexture != nil {
		return nil, fmt.Errorf("previous surface texture not yet presented")
	}

	tex, err := c.surface.GetCurrentTexture()
	if err != nil {
		return nil, fmt.Errorf("acquire surface texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("create surface view: %w", err)
	}
	c.frameTexture = tex
	c.frameView = view
	return &wgpuTextureView{view: view}, nil
}

func (c *wgpuContext) Present() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frameTexture == nil {
		return
	}
	c.surface.Present()
	c.releaseFrame()
}

func (c *wgpuContext) DiscardSurfaceView() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseFrame()
}

// releaseFrame drops the held surface texture and view. Callers hold c.mu.
func (c *wgpuContext) releaseFrame() {
	if c.frameView != nil {
		c.frameView.Release()
		c.frameView = nil
	}
	if c.frameTexture != nil {
		c.frameTexture.Release()
		c.frameTexture = nil
	}
}

func (c *wgpuContext) SupportsFormat(format wgpu.TextureFormat, usage wgpu.TextureUsage) bool {
	return supportsFormat(format, usage, c.device.HasFeature)
}

func (c *wgpuContext) CreateBuffer(desc BufferDescriptor) (Buffer, error) {
	buf, err := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: desc.Usage,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuBuffer{buf: buf, label: desc.Label, size: desc.Size, usage: desc.Usage}, nil
}

func (c *wgpuContext) WriteBuffer(buf Buffer, offset uint64, data []byte) {
	if buf == nil || len(data) == 0 {
		return
	}
	c.queue.WriteBuffer(buf.(*wgpuBuffer).buf, offset, data)
}

func (c *wgpuContext) CreateTexture(desc TextureDescriptor) (Texture, error) {
	tex, err := c.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     desc.Label,
		Usage:     desc.Usage,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        desc.Format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuTexture{tex: tex, desc: desc}, nil
}

func (c *wgpuContext) WriteTexture(tex Texture, pixels []byte) {
	t := tex.(*wgpuTexture)
	c.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  t.desc.Width * 4,
			RowsPerImage: t.desc.Height,
		},
		&wgpu.Extent3D{
			Width:              t.desc.Width,
			Height:             t.desc.Height,
			DepthOrArrayLayers: 1,
		},
	)
}

func (c *wgpuContext) CreateSampler(label string, desc common.SamplerStagingData) (Sampler, error) {
	s, err := c.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  common.Coalesce(desc.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(desc.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(desc.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(desc.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(desc.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(desc.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   desc.LodMinClamp,
		LodMaxClamp:   common.Coalesce(desc.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(desc.MaxAnisotropy, 1),
		Compare:       desc.Compare,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuSampler{sampler: s}, nil
}

func (c *wgpuContext) CreateBindGroupLayout(desc wgpu.BindGroupLayoutDescriptor) (BindGroupLayout, error) {
	l, err := c.device.CreateBindGroupLayout(&desc)
	if err != nil {
		return nil, err
	}
	return &wgpuBindGroupLayout{layout: l}, nil
}

func (c *wgpuContext) CreateBindGroup(desc BindGroupDescriptor) (BindGroup, error) {
	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entry := wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Buffer != nil:
			entry.Buffer = e.Buffer.(*wgpuBuffer).buf
			entry.Offset = 0
			entry.Size = wgpu.WholeSize
		case e.TextureView != nil:
			entry.TextureView = e.TextureView.(*wgpuTextureView).view
		case e.Sampler != nil:
			entry.Sampler = e.Sampler.(*wgpuSampler).sampler
		default:
			return nil, fmt.Errorf("bind group %q: binding %d has no resource", desc.Label, e.Binding)
		}
		entries[i] = entry
	}

	bg, err := c.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  desc.Layout.(*wgpuBindGroupLayout).layout,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuBindGroup{group: bg}, nil
}

func (c *wgpuContext) CreateShaderModule(label, wgsl string) (ShaderModule, error) {
	m, err := c.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: wgsl,
		},
	})
	if err != nil {
		return nil, err
	}
	return &wgpuShaderModule{module: m}, nil
}

func (c *wgpuContext) pipelineLayout(label string, layouts []BindGroupLayout) (*wgpu.PipelineLayout, error) {
	bgls := make([]*wgpu.BindGroupLayout, len(layouts))
	for i, l := range layouts {
		bgls[i] = l.(*wgpuBindGroupLayout).layout
	}
	return c.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: bgls,
	})
}

func (c *wgpuContext) CreateRenderPipeline(desc RenderPipelineDescriptor) (RenderPipeline, error) {
	layout, err := c.pipelineLayout(desc.Label, desc.BindGroupLayouts)
	if err != nil {
		return nil, err
	}
	defer layout.Release()

	p, err := c.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     desc.Vertex.Module.(*wgpuShaderModule).module,
			EntryPoint: desc.Vertex.EntryPoint,
			Buffers:    desc.VertexBuffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     desc.Fragment.Module.(*wgpuShaderModule).module,
			EntryPoint: desc.Fragment.EntryPoint,
			Targets:    desc.Targets,
		},
		Primitive: desc.Primitive,
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: desc.DepthStencil,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuRenderPipeline{pipeline: p}, nil
}

func (c *wgpuContext) CreateComputePipeline(desc ComputePipelineDescriptor) (ComputePipeline, error) {
	layout, err := c.pipelineLayout(desc.Label, desc.BindGroupLayouts)
	if err != nil {
		return nil, err
	}
	defer layout.Release()

	p, err := c.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  desc.Label + " Compute Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     desc.Compute.Module.(*wgpuShaderModule).module,
			EntryPoint: desc.Compute.EntryPoint,
		},
	})
	if err != nil {
		return nil, err
	}
	return &wgpuComputePipeline{pipeline: p}, nil
}

func (c *wgpuContext) CreateCommandEncoder(label string) (CommandEncoder, error) {
	enc, err := c.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, err
	}
	return &wgpuCommandEncoder{encoder: enc}, nil
}

func (c *wgpuContext) Submit(buffers ...CommandBuffer) {
	for _, cb := range buffers {
		c.queue.Submit(cb.(*wgpuCommandBuffer).buffer)
	}
}

func (c *wgpuContext) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.releaseFrame()
	if c.queue != nil {
		c.queue.Release()
		c.queue = nil
	}
	if c.device != nil {
		c.device.Release()
		c.device = nil
	}
	if c.adapter != nil {
		c.adapter.Release()
		c.adapter = nil
	}
	if c.surface != nil {
		c.surface.Release()
		c.surface = nil
	}
	if c.instance != nil {
		c.instance.Release()
		c.instance = nil
	}
}
