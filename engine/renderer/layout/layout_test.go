package layout

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu/gputest"
	"github.com/cogentcore/webgpu/wgpu"
)

func newRegistry(t *testing.T) (*gputest.Context, *Registry) {
	t.Helper()
	ctx := gputest.NewContext()
	r, err := NewRegistry(ctx)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return ctx, r
}

func resolveEntries(ctx *gputest.Context) []gpu.BindGroupEntry {
	view := func(label string) gpu.TextureView {
		tex, _ := ctx.CreateTexture(gpu.TextureDescriptor{Label: label, Width: 4, Height: 4, Format: wgpu.TextureFormatRGBA16Float})
		v, _ := tex.CreateView()
		return v
	}
	lights, _ := ctx.CreateBuffer(gpu.BufferDescriptor{Label: "lights", Size: 64, Usage: wgpu.BufferUsageStorage})
	clusters, _ := ctx.CreateBuffer(gpu.BufferDescriptor{Label: "clusters", Size: 64, Usage: wgpu.BufferUsageStorage})
	return []gpu.BindGroupEntry{
		{Binding: BindingLightSet, Buffer: lights},
		{Binding: BindingClusterSet, Buffer: clusters},
		{Binding: BindingAlbedo, TextureView: view("albedo")},
		{Binding: BindingNormal, TextureView: view("normal")},
		{Binding: BindingPosition, TextureView: view("position")},
	}
}

func TestRegistryLayouts(t *testing.T) {
	ctx, r := newRegistry(t)

	if got := len(ctx.Layouts); got != 4 {
		t.Fatalf("created %d layouts, want 4", got)
	}

	tests := []struct {
		name    string
		layout  *Layout
		binding uint32
		kind    Kind
		stage   wgpu.ShaderStage
	}{
		{"camera", r.SceneUniforms(), BindingCamera, KindUniformBuffer, wgpu.ShaderStageVertex | wgpu.ShaderStageFragment},
		{"model", r.Model(), BindingModel, KindUniformBuffer, wgpu.ShaderStageVertex},
		{"material texture", r.Material(), BindingMaterialTexture, KindSampledTexture, wgpu.ShaderStageFragment},
		{"material sampler", r.Material(), BindingMaterialSampler, KindSampler, wgpu.ShaderStageFragment},
		{"light set", r.Resolve(), BindingLightSet, KindReadOnlyStorageBuffer, wgpu.ShaderStageFragment},
		{"cluster set", r.Resolve(), BindingClusterSet, KindReadOnlyStorageBuffer, wgpu.ShaderStageFragment},
		{"albedo", r.Resolve(), BindingAlbedo, KindSampledTexture, wgpu.ShaderStageFragment},
		{"normal", r.Resolve(), BindingNormal, KindSampledTexture, wgpu.ShaderStageFragment},
		{"position", r.Resolve(), BindingPosition, KindSampledTexture, wgpu.ShaderStageFragment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := tt.layout.Slot(tt.binding)
			if !ok {
				t.Fatalf("binding %d not declared", tt.binding)
			}
			if s.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", s.Kind, tt.kind)
			}
			if s.Visibility != tt.stage {
				t.Errorf("Visibility = %v, want %v", s.Visibility, tt.stage)
			}
		})
	}

	if r.Resolve().VisibleIn(wgpu.ShaderStageVertex) {
		t.Error("resolve layout visible in vertex stage")
	}
	if got := len(r.Resolve().Slots()); got != 5 {
		t.Errorf("resolve layout has %d slots, want 5", got)
	}
}

func TestRegistryDescriptorEntries(t *testing.T) {
	ctx, _ := newRegistry(t)

	resolve := ctx.Layouts[3].Desc
	if resolve.Label != "gbuffer" {
		t.Fatalf("layout[3] = %q, want gbuffer", resolve.Label)
	}
	for _, e := range resolve.Entries {
		switch e.Binding {
		case BindingLightSet, BindingClusterSet:
			if e.Buffer.Type != wgpu.BufferBindingTypeReadOnlyStorage {
				t.Errorf("binding %d buffer type = %v, want read-only storage", e.Binding, e.Buffer.Type)
			}
		default:
			if e.Texture.SampleType != wgpu.TextureSampleTypeFloat {
				t.Errorf("binding %d sample type = %v, want float", e.Binding, e.Texture.SampleType)
			}
		}
	}
}

func TestNewBindGroup(t *testing.T) {
	ctx, r := newRegistry(t)

	bg, err := r.Resolve().NewBindGroup(ctx, "resolve", resolveEntries(ctx))
	if err != nil {
		t.Fatalf("NewBindGroup: %v", err)
	}
	if bg == nil || len(ctx.BindGroups) != 1 {
		t.Fatalf("bind groups created = %d, want 1", len(ctx.BindGroups))
	}
	if ctx.BindGroups[0].Desc.Layout != r.Resolve().Handle() {
		t.Error("bind group not created against the resolve layout")
	}
}

func TestNewBindGroupMissingEntry(t *testing.T) {
	ctx, r := newRegistry(t)

	entries := resolveEntries(ctx)[:4]
	_, err := r.Resolve().NewBindGroup(ctx, "resolve", entries)
	if !errors.Is(err, ErrLayoutMismatch) {
		t.Fatalf("err = %v, want ErrLayoutMismatch", err)
	}
	var me *MismatchError
	if !errors.As(err, &me) {
		t.Fatalf("err = %T, want *MismatchError", err)
	}
	if me.Layout != "gbuffer" || me.Binding != -1 {
		t.Errorf("MismatchError = %+v, want layout gbuffer, binding -1", me)
	}
	if len(ctx.BindGroups) != 0 {
		t.Errorf("device bind group created despite mismatch")
	}
}

func TestNewBindGroupInvalidEntries(t *testing.T) {
	ctx, r := newRegistry(t)
	sampler, _ := ctx.CreateSampler("sampler", common.SamplerStagingData{})
	extra, _ := ctx.CreateBuffer(gpu.BufferDescriptor{Label: "extra", Size: 16, Usage: wgpu.BufferUsageStorage})

	tests := []struct {
		name    string
		mutate  func([]gpu.BindGroupEntry) []gpu.BindGroupEntry
		binding int
	}{
		{
			name: "texture slot given a sampler",
			mutate: func(e []gpu.BindGroupEntry) []gpu.BindGroupEntry {
				e[2] = gpu.BindGroupEntry{Binding: BindingAlbedo, Sampler: sampler}
				return e
			},
			binding: BindingAlbedo,
		},
		{
			name: "buffer slot given a texture",
			mutate: func(e []gpu.BindGroupEntry) []gpu.BindGroupEntry {
				e[0] = gpu.BindGroupEntry{Binding: BindingLightSet, TextureView: e[2].TextureView}
				return e
			},
			binding: BindingLightSet,
		},
		{
			name: "undeclared binding",
			mutate: func(e []gpu.BindGroupEntry) []gpu.BindGroupEntry {
				e[4] = gpu.BindGroupEntry{Binding: 9, Buffer: extra}
				return e
			},
			binding: 9,
		},
		{
			name: "binding repeated",
			mutate: func(e []gpu.BindGroupEntry) []gpu.BindGroupEntry {
				e[1] = gpu.BindGroupEntry{Binding: BindingLightSet, Buffer: extra}
				return e
			},
			binding: BindingLightSet,
		},
		{
			name: "no resource",
			mutate: func(e []gpu.BindGroupEntry) []gpu.BindGroupEntry {
				e[3] = gpu.BindGroupEntry{Binding: BindingNormal}
				return e
			},
			binding: BindingNormal,
		},
		{
			name: "two resources",
			mutate: func(e []gpu.BindGroupEntry) []gpu.BindGroupEntry {
				e[3].Sampler = sampler
				return e
			},
			binding: BindingNormal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve().NewBindGroup(ctx, "resolve", tt.mutate(resolveEntries(ctx)))
			var me *MismatchError
			if !errors.As(err, &me) {
				t.Fatalf("err = %v, want *MismatchError", err)
			}
			if me.Binding != tt.binding {
				t.Errorf("Binding = %d, want %d", me.Binding, tt.binding)
			}
		})
	}
	if len(ctx.BindGroups) != 0 {
		t.Errorf("device bind groups created = %d, want 0", len(ctx.BindGroups))
	}
}

func TestNewBindGroupBufferUsage(t *testing.T) {
	ctx, r := newRegistry(t)
	uniform, _ := ctx.CreateBuffer(gpu.BufferDescriptor{Label: "camera", Size: 208, Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst})
	storage, _ := ctx.CreateBuffer(gpu.BufferDescriptor{Label: "lights", Size: 64, Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst})

	t.Run("uniform buffer in read-only storage slot", func(t *testing.T) {
		entries := resolveEntries(ctx)
		entries[0].Buffer = uniform
		_, err := r.Resolve().NewBindGroup(ctx, "resolve", entries)
		var me *MismatchError
		if !errors.As(err, &me) || !errors.Is(err, ErrLayoutMismatch) {
			t.Fatalf("err = %v, want *MismatchError", err)
		}
		if me.Binding != BindingLightSet {
			t.Errorf("Binding = %d, want %d", me.Binding, BindingLightSet)
		}
	})

	t.Run("storage buffer in uniform slot", func(t *testing.T) {
		_, err := r.SceneUniforms().NewBindGroup(ctx, "scene", []gpu.BindGroupEntry{{Binding: BindingCamera, Buffer: storage}})
		if !errors.Is(err, ErrLayoutMismatch) {
			t.Fatalf("err = %v, want ErrLayoutMismatch", err)
		}
	})

	if len(ctx.BindGroups) != 0 {
		t.Errorf("device bind groups created = %d, want 0", len(ctx.BindGroups))
	}

	if _, err := r.SceneUniforms().NewBindGroup(ctx, "scene", []gpu.BindGroupEntry{{Binding: BindingCamera, Buffer: uniform}}); err != nil {
		t.Errorf("uniform buffer in uniform slot: %v", err)
	}
}

func TestNewLayoutDuplicateBinding(t *testing.T) {
	ctx := gputest.NewContext()
	_, err := NewLayout(ctx, "dup",
		Slot{Binding: 0, Visibility: wgpu.ShaderStageFragment, Kind: KindUniformBuffer},
		Slot{Binding: 0, Visibility: wgpu.ShaderStageFragment, Kind: KindSampler},
	)
	if !errors.Is(err, ErrLayoutMismatch) {
		t.Fatalf("err = %v, want ErrLayoutMismatch", err)
	}
	if len(ctx.Layouts) != 0 {
		t.Error("device layout created despite duplicate binding")
	}
}

func TestCheckBinding(t *testing.T) {
	_, r := newRegistry(t)

	tests := []struct {
		name    string
		layout  *Layout
		binding uint32
		kind    Kind
		stage   wgpu.ShaderStage
		ok      bool
	}{
		{"camera in vertex", r.SceneUniforms(), BindingCamera, KindUniformBuffer, wgpu.ShaderStageVertex, true},
		{"camera in compute", r.SceneUniforms(), BindingCamera, KindUniformBuffer, wgpu.ShaderStageCompute, false},
		{"model kind mismatch", r.Model(), BindingModel, KindReadOnlyStorageBuffer, wgpu.ShaderStageVertex, false},
		{"albedo in fragment", r.Resolve(), BindingAlbedo, KindSampledTexture, wgpu.ShaderStageFragment, true},
		{"binding 0 on resolve", r.Resolve(), 0, KindUniformBuffer, wgpu.ShaderStageFragment, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.layout.CheckBinding(tt.binding, tt.kind, tt.stage)
			if tt.ok && err != nil {
				t.Errorf("CheckBinding = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrLayoutMismatch) {
				t.Errorf("CheckBinding = %v, want ErrLayoutMismatch", err)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		entry wgpu.BindGroupLayoutEntry
		want  Kind
		ok    bool
	}{
		{wgpu.BindGroupLayoutEntry{Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}}, KindUniformBuffer, true},
		{wgpu.BindGroupLayoutEntry{Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage}}, KindReadOnlyStorageBuffer, true},
		{wgpu.BindGroupLayoutEntry{Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}}, KindStorageBuffer, true},
		{wgpu.BindGroupLayoutEntry{Texture: wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeFloat}}, KindSampledTexture, true},
		{wgpu.BindGroupLayoutEntry{Sampler: wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}}, KindSampler, true},
		{wgpu.BindGroupLayoutEntry{}, 0, false},
	}
	for _, tt := range tests {
		got, ok := KindOf(tt.entry)
		if ok != tt.ok || got != tt.want {
			t.Errorf("KindOf(%+v) = %v, %v, want %v, %v", tt.entry, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMismatchErrorMessage(t *testing.T) {
	err := &MismatchError{Layout: "gbuffer", Binding: 3, Reason: "got sampler, want sampled texture"}
	want := `layout "gbuffer": binding 3: got sampler, want sampled texture`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
