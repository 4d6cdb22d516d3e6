// Package gbuffer allocates and owns the per-pixel G-buffer targets written by the
// geometry pass and read by the resolve pass.
package gbuffer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrUnsupportedFormat is wrapped by FormatError.
	ErrUnsupportedFormat = errors.New("unsupported texture format")
	// ErrAllocation is wrapped when a target texture or view cannot be created.
	ErrAllocation = errors.New("render target allocation failed")
	// ErrInvalidSize is returned for a zero or negative target size.
	ErrInvalidSize = errors.New("invalid render target size")
)

// FormatError reports a target format the device cannot use with the requested usage.
type FormatError struct {
	Target string
	Format wgpu.TextureFormat
	Usage  wgpu.TextureUsage
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("gbuffer target %q: format %v not supported for usage %v", e.Target, e.Format, e.Usage)
}

func (e *FormatError) Unwrap() error {
	return ErrUnsupportedFormat
}

// Target formats and usages.
const (
	AlbedoFormat   = wgpu.TextureFormatRGBA8Unorm
	NormalFormat   = wgpu.TextureFormatRGBA16Float
	PositionFormat = wgpu.TextureFormatRGBA16Float
	DepthFormat    = wgpu.TextureFormatDepth24Plus

	ColorUsage = wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding
	DepthUsage = wgpu.TextureUsageRenderAttachment
)

// Target is one allocated render target: a texture and the single view used both as
// render attachment and as sampled input.
type Target struct {
	Name    string
	Format  wgpu.TextureFormat
	Usage   wgpu.TextureUsage
	Width   uint32
	Height  uint32
	texture gpu.Texture
	view    gpu.TextureView
}

// Texture returns the target texture.
func (t *Target) Texture() gpu.Texture { return t.texture }

// RenderView returns the view used as a render pass attachment.
func (t *Target) RenderView() gpu.TextureView { return t.view }

// SampledView returns the view bound for sampling. It is the same handle as RenderView.
func (t *Target) SampledView() gpu.TextureView { return t.view }

func (t *Target) release() {
	if t.view != nil {
		t.view.Release()
	}
	if t.texture != nil {
		t.texture.Release()
	}
}

// Views is the set of views one frame binds. Color is in attachment order
// (albedo, normal, position).
type Views struct {
	Color [3]gpu.TextureView
	Depth gpu.TextureView
}

// Targets is one immutable allocation of the G-buffer. All targets share one size.
type Targets struct {
	Albedo     *Target
	Normal     *Target
	Position   *Target
	Depth      *Target
	generation uint64
	released   bool
}

// Views returns the views of every target.
func (t *Targets) Views() Views {
	return Views{
		Color: [3]gpu.TextureView{t.Albedo.view, t.Normal.view, t.Position.view},
		Depth: t.Depth.view,
	}
}

// Size returns the shared pixel size of the targets.
func (t *Targets) Size() (width, height int) {
	return int(t.Albedo.Width), int(t.Albedo.Height)
}

// Generation identifies the allocation. Every Allocate call produces a larger value.
func (t *Targets) Generation() uint64 {
	return t.generation
}

// Released reports whether Release has been called.
func (t *Targets) Released() bool {
	return t.released
}

// Release releases every target. Safe to call more than once.
func (t *Targets) Release() {
	if t == nil || t.released {
		return
	}
	for _, target := range []*Target{t.Albedo, t.Normal, t.Position, t.Depth} {
		if target != nil {
			target.release()
		}
	}
	t.released = true
}

// ColorFormats returns the color target formats in attachment order.
func ColorFormats() []wgpu.TextureFormat {
	return []wgpu.TextureFormat{AlbedoFormat, NormalFormat, PositionFormat}
}

type targetSpec struct {
	name   string
	format wgpu.TextureFormat
	usage  wgpu.TextureUsage
}

var targetSpecs = [4]targetSpec{
	{"albedo", AlbedoFormat, ColorUsage},
	{"normal", NormalFormat, ColorUsage},
	{"position", PositionFormat, ColorUsage},
	{"depth", DepthFormat, DepthUsage},
}

// Manager allocates G-buffer targets and tracks the current allocation.
type Manager struct {
	mu         sync.Mutex
	ctx        gpu.Context
	label      string
	generation uint64
	current    *Targets
}

// NewManager creates a manager allocating on the given context.
//
// Parameters:
//   - ctx: the GPU context to allocate on
//   - options: functional options for the manager
//
// Returns:
//   - *Manager: the manager, with no current allocation
func NewManager(ctx gpu.Context, options ...ManagerBuilderOption) *Manager {
	m := &Manager{
		ctx:   ctx,
		label: "gbuffer",
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Allocate creates a full set of targets at the given size. The result does not
// become current until Swap.
//
// Parameters:
//   - width: the target width in pixels
//   - height: the target height in pixels
//
// Returns:
//   - *Targets: the new targets
//   - error: ErrInvalidSize, a *FormatError, or an error wrapping ErrAllocation naming the target
func (m *Manager) Allocate(width, height int) (*Targets, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("allocate %dx%d: %w", width, height, ErrInvalidSize)
	}

	for _, s := range targetSpecs {
		if !m.ctx.SupportsFormat(s.format, s.usage) {
			return nil, &FormatError{Target: s.name, Format: s.format, Usage: s.usage}
		}
	}

	var created [4]*Target
	fail := func(err error) (*Targets, error) {
		for _, t := range created {
			if t != nil {
				t.release()
			}
		}
		return nil, err
	}

	for i, s := range targetSpecs {
		label := m.label + " " + s.name
		tex, err := m.ctx.CreateTexture(gpu.TextureDescriptor{
			Label:  label,
			Width:  uint32(width),
			Height: uint32(height),
			Format: s.format,
			Usage:  s.usage,
		})
		if err != nil {
			return fail(fmt.Errorf("%w: texture %q: %w", ErrAllocation, label, err))
		}
		target := &Target{
			Name:    s.name,
			Format:  s.format,
			Usage:   s.usage,
			Width:   uint32(width),
			Height:  uint32(height),
			texture: tex,
		}
		created[i] = target

		view, err := tex.CreateView()
		if err != nil {
			return fail(fmt.Errorf("%w: view of %q: %w", ErrAllocation, label, err))
		}
		target.view = view
	}

	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.mu.Unlock()

	return &Targets{
		Albedo:     created[0],
		Normal:     created[1],
		Position:   created[2],
		Depth:      created[3],
		generation: gen,
	}, nil
}

// Swap makes t current and returns the previous current allocation, which the
// caller releases once nothing binds it.
func (m *Manager) Swap(t *Targets) *Targets {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.current
	m.current = t
	return prev
}

// Current returns the current allocation, or nil before the first Swap.
func (m *Manager) Current() *Targets {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Release releases the current allocation.
func (m *Manager) Release() {
	if prev := m.Swap(nil); prev != nil {
		prev.Release()
	}
}
