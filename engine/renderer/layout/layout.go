// Package layout is the resource layout registry of the renderer: the fixed set of
// bind group layouts every pipeline and bind group is created against. A bind group
// is only ever created through Layout.NewBindGroup, which checks its entries against
// the declared slots before touching the device.
package layout

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrLayoutMismatch is wrapped by every MismatchError.
var ErrLayoutMismatch = errors.New("layout mismatch")

// MismatchError reports a bind group or shader binding that disagrees with a layout.
// Binding is -1 when the mismatch concerns the group as a whole.
type MismatchError struct {
	Layout  string
	Binding int
	Reason  string
}

func (e *MismatchError) Error() string {
	if e.Binding < 0 {
		return fmt.Sprintf("layout %q: %s", e.Layout, e.Reason)
	}
	return fmt.Sprintf("layout %q: binding %d: %s", e.Layout, e.Binding, e.Reason)
}

func (e *MismatchError) Unwrap() error {
	return ErrLayoutMismatch
}

// Kind is the resource kind a slot accepts.
type Kind int

const (
	KindUniformBuffer Kind = iota
	KindReadOnlyStorageBuffer
	KindStorageBuffer
	KindSampledTexture
	KindSampler
)

func (k Kind) String() string {
	switch k {
	case KindUniformBuffer:
		return "uniform buffer"
	case KindReadOnlyStorageBuffer:
		return "read-only storage buffer"
	case KindStorageBuffer:
		return "storage buffer"
	case KindSampledTexture:
		return "sampled texture"
	case KindSampler:
		return "sampler"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsBuffer reports whether the kind binds a buffer.
func (k Kind) IsBuffer() bool {
	return k == KindUniformBuffer || k == KindReadOnlyStorageBuffer || k == KindStorageBuffer
}

// KindOf classifies a WebGPU layout entry. It returns false for entries of a kind
// the renderer does not use (storage textures).
func KindOf(e wgpu.BindGroupLayoutEntry) (Kind, bool) {
	switch {
	case e.Buffer.Type == wgpu.BufferBindingTypeUniform:
		return KindUniformBuffer, true
	case e.Buffer.Type == wgpu.BufferBindingTypeReadOnlyStorage:
		return KindReadOnlyStorageBuffer, true
	case e.Buffer.Type == wgpu.BufferBindingTypeStorage:
		return KindStorageBuffer, true
	case e.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
		return KindSampledTexture, true
	case e.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
		return KindSampler, true
	}
	return 0, false
}

// Slot declares one binding of a layout.
type Slot struct {
	Binding    uint32
	Visibility wgpu.ShaderStage
	Kind       Kind
}

func (s Slot) entry() wgpu.BindGroupLayoutEntry {
	e := wgpu.BindGroupLayoutEntry{
		Binding:    s.Binding,
		Visibility: s.Visibility,
	}
	switch s.Kind {
	case KindUniformBuffer:
		e.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}
	case KindReadOnlyStorageBuffer:
		e.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage}
	case KindStorageBuffer:
		e.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}
	case KindSampledTexture:
		e.Texture = wgpu.TextureBindingLayout{
			SampleType:    wgpu.TextureSampleTypeFloat,
			ViewDimension: wgpu.TextureViewDimension2D,
			Multisampled:  false,
		}
	case KindSampler:
		e.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}
	}
	return e
}

// Layout is an immutable bind group layout created on the device.
type Layout struct {
	name   string
	slots  []Slot
	handle gpu.BindGroupLayout
}

// NewLayout creates a layout with the given slots on the device.
//
// Parameters:
//   - ctx: the GPU context to create the layout on
//   - name: the layout name, used in labels and errors
//   - slots: the declared bindings; binding indices must be unique
//
// Returns:
//   - *Layout: the created layout
//   - error: a MismatchError for duplicate bindings, or the device error wrapped with the name
func NewLayout(ctx gpu.Context, name string, slots ...Slot) (*Layout, error) {
	seen := make(map[uint32]bool, len(slots))
	entries := make([]wgpu.BindGroupLayoutEntry, 0, len(slots))
	for _, s := range slots {
		if seen[s.Binding] {
			return nil, &MismatchError{Layout: name, Binding: int(s.Binding), Reason: "declared twice"}
		}
		seen[s.Binding] = true
		entries = append(entries, s.entry())
	}

	handle, err := ctx.CreateBindGroupLayout(wgpu.BindGroupLayoutDescriptor{
		Label:   name,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("create layout %q: %w", name, err)
	}

	return &Layout{
		name:   name,
		slots:  slices.Clone(slots),
		handle: handle,
	}, nil
}

func (l *Layout) Name() string {
	return l.name
}

// Slots returns a copy of the declared slots in declaration order.
func (l *Layout) Slots() []Slot {
	return slices.Clone(l.slots)
}

// Slot looks up the slot at a binding index.
func (l *Layout) Slot(binding uint32) (Slot, bool) {
	for _, s := range l.slots {
		if s.Binding == binding {
			return s, true
		}
	}
	return Slot{}, false
}

// VisibleIn reports whether any slot of the layout is visible to the stage.
func (l *Layout) VisibleIn(stage wgpu.ShaderStage) bool {
	for _, s := range l.slots {
		if s.Visibility&stage != 0 {
			return true
		}
	}
	return false
}

// Handle returns the device layout for pipeline creation.
func (l *Layout) Handle() gpu.BindGroupLayout {
	return l.handle
}

// Validate checks bind group entries against the declared slots: same count, every
// binding declared exactly once, and each resource of the declared kind. Buffers
// must carry the usage flag their slot binds them with.
//
// Returns:
//   - error: nil, or a *MismatchError naming the first offending binding
func (l *Layout) Validate(entries []gpu.BindGroupEntry) error {
	if len(entries) != len(l.slots) {
		return &MismatchError{
			Layout:  l.name,
			Binding: -1,
			Reason:  fmt.Sprintf("got %d entries, layout declares %d", len(entries), len(l.slots)),
		}
	}

	seen := make(map[uint32]bool, len(entries))
	for _, e := range entries {
		slot, ok := l.Slot(e.Binding)
		if !ok {
			return &MismatchError{Layout: l.name, Binding: int(e.Binding), Reason: "not declared"}
		}
		if seen[e.Binding] {
			return &MismatchError{Layout: l.name, Binding: int(e.Binding), Reason: "bound twice"}
		}
		seen[e.Binding] = true

		kind, err := entryKind(e)
		if err != nil {
			return &MismatchError{Layout: l.name, Binding: int(e.Binding), Reason: err.Error()}
		}
		if kind != slot.Kind && !(kind.IsBuffer() && slot.Kind.IsBuffer()) {
			return &MismatchError{
				Layout:  l.name,
				Binding: int(e.Binding),
				Reason:  fmt.Sprintf("got %s, want %s", kind, slot.Kind),
			}
		}
		if slot.Kind.IsBuffer() {
			if want := slotUsage(slot.Kind); e.Buffer.Usage()&want == 0 {
				return &MismatchError{
					Layout:  l.name,
					Binding: int(e.Binding),
					Reason:  fmt.Sprintf("buffer %q lacks %s usage, want %s", e.Buffer.Label(), usageName(want), slot.Kind),
				}
			}
		}
	}
	return nil
}

// NewBindGroup validates entries and creates a bind group against the layout.
//
// Parameters:
//   - ctx: the GPU context to create the bind group on
//   - label: the bind group label
//   - entries: one entry per declared slot
//
// Returns:
//   - gpu.BindGroup: the created bind group
//   - error: a *MismatchError if the entries disagree with the layout, or the wrapped device error
func (l *Layout) NewBindGroup(ctx gpu.Context, label string, entries []gpu.BindGroupEntry) (gpu.BindGroup, error) {
	if err := l.Validate(entries); err != nil {
		return nil, err
	}

	bg, err := ctx.CreateBindGroup(gpu.BindGroupDescriptor{
		Label:   label,
		Layout:  l.handle,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group %q on layout %q: %w", label, l.name, err)
	}
	return bg, nil
}

// CheckBinding checks a shader-declared binding against the layout: it must be
// declared, of the same kind, and visible to the stage.
//
// Returns:
//   - error: nil, or a *MismatchError describing the disagreement
func (l *Layout) CheckBinding(binding uint32, kind Kind, stage wgpu.ShaderStage) error {
	slot, ok := l.Slot(binding)
	if !ok {
		return &MismatchError{Layout: l.name, Binding: int(binding), Reason: "used by shader but not declared"}
	}
	if slot.Kind != kind {
		return &MismatchError{
			Layout:  l.name,
			Binding: int(binding),
			Reason:  fmt.Sprintf("shader declares %s, layout declares %s", kind, slot.Kind),
		}
	}
	if slot.Visibility&stage == 0 {
		return &MismatchError{Layout: l.name, Binding: int(binding), Reason: "not visible to shader stage"}
	}
	return nil
}

// Release releases the device layout.
func (l *Layout) Release() {
	if l.handle != nil {
		l.handle.Release()
		l.handle = nil
	}
}

func slotUsage(kind Kind) wgpu.BufferUsage {
	if kind == KindUniformBuffer {
		return wgpu.BufferUsageUniform
	}
	return wgpu.BufferUsageStorage
}

func usageName(u wgpu.BufferUsage) string {
	if u == wgpu.BufferUsageUniform {
		return "uniform"
	}
	return "storage"
}

func entryKind(e gpu.BindGroupEntry) (Kind, error) {
	set := 0
	var kind Kind
	if e.Buffer != nil {
		set++
		kind = KindUniformBuffer
	}
	if e.TextureView != nil {
		set++
		kind = KindSampledTexture
	}
	if e.Sampler != nil {
		set++
		kind = KindSampler
	}
	switch set {
	case 0:
		return 0, errors.New("no resource")
	case 1:
		return kind, nil
	}
	return 0, errors.New("more than one resource")
}
