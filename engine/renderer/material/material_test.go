package material

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/layout"
	"github.com/cogentcore/webgpu/wgpu"
)

func TestMaterialInitBaseColor(t *testing.T) {
	ctx := gputest.NewContext()
	reg, err := layout.NewRegistry(ctx)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	m := NewMaterial(WithName("red"), WithBaseColor([4]float32{1, 0, 0.5, 1}))

	if err := m.Init(ctx, reg.Material()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if len(ctx.Textures) != 1 {
		t.Fatalf("created %d textures, want 1", len(ctx.Textures))
	}
	if got, want := ctx.Textures[0].Pixels, []byte{255, 0, 128, 255}; string(got) != string(want) {
		t.Errorf("pixels = %v, want %v", got, want)
	}
	bg, ok := m.MaterialBindGroup().(*gputest.BindGroup)
	if !ok {
		t.Fatalf("MaterialBindGroup() = %T, want *gputest.BindGroup", m.MaterialBindGroup())
	}
	if bg.Desc.Layout != reg.Material().Handle() || len(bg.Desc.Entries) != 2 {
		t.Errorf("bind group = %+v, want two entries on the material layout", bg.Desc)
	}

	m.Release()
	if !bg.Released || !ctx.Textures[0].Released || !ctx.Samplers[0].Released {
		t.Error("Release left material resources alive")
	}
}

func TestMaterialInitTexture(t *testing.T) {
	ctx := gputest.NewContext()
	reg, err := layout.NewRegistry(ctx)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	tex := common.TextureStagingData{Pixels: make([]byte, 2*2*4), Width: 2, Height: 2}
	m := NewMaterial(
		WithName("checker"),
		WithDiffuseTexture(tex),
		WithSampler(common.SamplerStagingData{MagFilter: wgpu.FilterModeNearest}),
	)
	if err := m.Init(ctx, reg.Material()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if ctx.Textures[0].Desc.Width != 2 || ctx.Textures[0].Desc.Height != 2 {
		t.Errorf("texture size = %dx%d, want 2x2", ctx.Textures[0].Desc.Width, ctx.Textures[0].Desc.Height)
	}
	if ctx.Samplers[0].Desc.MagFilter != wgpu.FilterModeNearest {
		t.Errorf("sampler MagFilter = %v, want nearest", ctx.Samplers[0].Desc.MagFilter)
	}
}

func TestMaterialInitWrongLayout(t *testing.T) {
	ctx := gputest.NewContext()
	reg, err := layout.NewRegistry(ctx)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	m := NewMaterial(WithName("misplaced"))
	if err := m.Init(ctx, reg.Model()); err == nil {
		t.Error("Init against the model layout returned nil error")
	}
}
