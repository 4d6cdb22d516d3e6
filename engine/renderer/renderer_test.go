package renderer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gbuffer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

type fixture struct {
	ctx    *gputest.Context
	reg    *layout.Registry
	camera camera.Camera
	lights light.ClusteredLights
	scene  scene.Graph
}

func newFixture(t *testing.T, nodes ...scene.SceneNode) *fixture {
	t.Helper()
	ctx := gputest.NewContext()
	reg, err := layout.NewRegistry(ctx)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	cam := camera.NewCamera()
	if err := cam.Init(ctx); err != nil {
		t.Fatalf("camera Init: %v", err)
	}
	lights, err := light.NewClusteredLights(ctx, cam.UniformBuffer(),
		light.WithLights(light.NewLight(light.WithPosition(0, 2, 0))),
	)
	if err != nil {
		t.Fatalf("NewClusteredLights: %v", err)
	}
	graph := scene.NewScene("test", scene.WithNodes(nodes...))
	if err := graph.Init(ctx, reg); err != nil {
		t.Fatalf("scene Init: %v", err)
	}
	return &fixture{ctx: ctx, reg: reg, camera: cam, lights: lights, scene: graph}
}

func (f *fixture) renderer(t *testing.T, opts ...RendererBuilderOption) ClusteredDeferredRenderer {
	t.Helper()
	r, err := NewClusteredDeferredRenderer(f.ctx, f.scene, f.lights, f.camera, append([]RendererBuilderOption{WithRegistry(f.reg)}, opts...)...)
	if err != nil {
		t.Fatalf("NewClusteredDeferredRenderer: %v", err)
	}
	return r
}

func triangleNode() scene.SceneNode {
	vertices := []model.GPUVertex{
		{Position: [3]float32{0, 1, 0}, Normal: [3]float32{0, 0, 1}},
		{Position: [3]float32{-1, -1, 0}, Normal: [3]float32{0, 0, 1}},
		{Position: [3]float32{1, -1, 0}, Normal: [3]float32{0, 0, 1}},
	}
	n := scene.NewNode("triangle")
	n.AddPrimitive(material.NewMaterial(material.WithName("flat")),
		model.NewModel(model.WithName("triangle"), model.WithMesh(vertices, []uint32{0, 1, 2})))
	return n
}

func view(v gpu.TextureView) *gputest.TextureView {
	return v.(*gputest.TextureView)
}

func TestDrawOrder(t *testing.T) {
	f := newFixture(t)
	r := f.renderer(t)
	if len(f.ctx.Submissions) != 0 {
		t.Fatalf("construction submitted %d command buffers, want 0", len(f.ctx.Submissions))
	}

	if err := r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	subs := f.ctx.Submissions
	if len(subs) != 3 {
		t.Fatalf("got %d submissions, want 3", len(subs))
	}
	if p := subs[0].Passes; len(p) != 1 || !p[0].Compute {
		t.Errorf("submission 0 = %d passes, want one compute pass", len(p))
	}
	if p := subs[1].Passes; len(p) != 1 || p[0].Compute || len(p[0].Render.ColorAttachments) != 3 {
		t.Errorf("submission 1 is not the geometry pass")
	}
	if p := subs[2].Passes; len(p) != 1 || p[0].Compute || len(p[0].Render.ColorAttachments) != 1 {
		t.Errorf("submission 2 is not the resolve pass")
	}
	if f.ctx.Presents != 1 {
		t.Errorf("Presents = %d, want 1", f.ctx.Presents)
	}
	if !f.ctx.SurfaceViews[0].Released {
		t.Error("surface view still held after present")
	}
	if got := r.LastFrame().Submissions; got != 3 {
		t.Errorf("LastFrame().Submissions = %d, want 3", got)
	}
}

func TestDrawRepeatable(t *testing.T) {
	f := newFixture(t, triangleNode())
	r := f.renderer(t)

	const frames = 4
	for i := 0; i < frames; i++ {
		if err := r.Draw(); err != nil {
			t.Fatalf("Draw %d: %v", i, err)
		}
	}
	if len(f.ctx.Submissions) != 3*frames || f.ctx.Presents != frames {
		t.Fatalf("got %d submissions and %d presents, want %d and %d", len(f.ctx.Submissions), f.ctx.Presents, 3*frames, frames)
	}

	frameOps := func(i int) string {
		var ops []string
		for _, sub := range f.ctx.Submissions[3*i : 3*i+3] {
			for _, p := range sub.Passes {
				ops = append(ops, fmt.Sprint(p.Ops()))
			}
		}
		return strings.Join(ops, " | ")
	}
	first := frameOps(0)
	for i := 1; i < frames; i++ {
		if got := frameOps(i); got != first {
			t.Errorf("frame %d ops =\n  %s\nwant\n  %s", i, got, first)
		}
	}
}

func TestScenarioEmptyScene(t *testing.T) {
	f := newFixture(t)
	clear := wgpu.Color{R: 0.05, G: 0.05, B: 0.1, A: 1}
	r := f.renderer(t, WithClearColor(clear))

	if err := r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	stats := r.LastFrame()
	if stats.GeometryDraws != 0 || stats.ResolveDraws != 1 {
		t.Errorf("LastFrame() = %+v, want 0 geometry draws and 1 resolve draw", stats)
	}
	if n := f.ctx.Submissions[1].Passes[0].Count(gputest.OpDrawIndexed); n != 0 {
		t.Errorf("geometry pass recorded %d draws, want 0", n)
	}
	color := f.ctx.Submissions[2].Passes[0].Render.ColorAttachments[0]
	if color.ClearValue != clear || color.LoadOp != wgpu.LoadOpClear {
		t.Errorf("surface attachment = %+v, want cleared to %v", color, clear)
	}
}

func TestScenarioSinglePrimitive(t *testing.T) {
	f := newFixture(t, triangleNode())
	r := f.renderer(t)
	if err := r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	counts := func(p *gputest.Pass) []uint32 {
		var c []uint32
		for _, cmd := range p.Commands {
			if cmd.Op == gputest.OpDrawIndexed {
				c = append(c, cmd.Count)
			}
		}
		return c
	}
	if got := counts(f.ctx.Submissions[1].Passes[0]); fmt.Sprint(got) != "[3]" {
		t.Errorf("geometry draws = %v, want [3]", got)
	}
	if got := counts(f.ctx.Submissions[2].Passes[0]); fmt.Sprint(got) != "[6]" {
		t.Errorf("resolve draws = %v, want [6]", got)
	}
	if stats := r.LastFrame(); stats.GeometryDraws != 1 || stats.GeometryIndices != 3 {
		t.Errorf("LastFrame() = %+v, want 1 geometry draw of 3 indices", stats)
	}
}

func TestScenarioLayoutMismatch(t *testing.T) {
	f := newFixture(t)
	r := f.renderer(t)
	targets := r.Targets()

	entries := []gpu.BindGroupEntry{
		{Binding: layout.BindingLightSet, Buffer: f.lights.LightSetBuffer()},
		{Binding: layout.BindingClusterSet, Buffer: f.lights.ClusterBuffer()},
		{Binding: layout.BindingAlbedo, TextureView: targets.Albedo.SampledView()},
		{Binding: layout.BindingNormal, TextureView: targets.Normal.SampledView()},
	}
	groups := len(f.ctx.BindGroups)
	_, err := f.reg.Resolve().NewBindGroup(f.ctx, "short", entries)
	if !errors.Is(err, layout.ErrLayoutMismatch) {
		t.Fatalf("NewBindGroup with 4 of 5 entries = %v, want ErrLayoutMismatch", err)
	}
	if len(f.ctx.BindGroups) != groups {
		t.Error("bind group created despite the mismatch")
	}
	if len(f.ctx.Submissions) != 0 {
		t.Error("work submitted before any frame")
	}
}

func TestResize(t *testing.T) {
	f := newFixture(t, triangleNode())
	r := f.renderer(t)
	old := r.Targets()
	oldViews := old.Views()
	oldGroup := r.GBufferGroup()

	if err := r.Resize(1024, 768); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	targets := r.Targets()
	if w, h := targets.Size(); w != 1024 || h != 768 {
		t.Errorf("Size() = %dx%d, want 1024x768", w, h)
	}
	if targets.Generation() <= old.Generation() {
		t.Errorf("generation %d not after %d", targets.Generation(), old.Generation())
	}
	if !old.Released() || !view(oldViews.Color[0]).Stale() || !view(oldViews.Depth).Stale() {
		t.Error("previous targets not released")
	}
	if !oldGroup.(*gputest.BindGroup).Released {
		t.Error("previous resolve group not released")
	}
	if f.ctx.Configures != 1 || f.ctx.Width != 1024 || f.ctx.Height != 768 {
		t.Errorf("surface configured %d times to %dx%d, want once to 1024x768", f.ctx.Configures, f.ctx.Width, f.ctx.Height)
	}

	views := targets.Views()
	group := r.GBufferGroup().(*gputest.BindGroup)
	for _, e := range group.Desc.Entries {
		if e.TextureView == nil {
			continue
		}
		if view(e.TextureView).Stale() {
			t.Errorf("resolve group binding %d is stale", e.Binding)
		}
	}
	if group.Desc.Entries[2].TextureView != views.Color[0] {
		t.Error("resolve group does not sample the new albedo target")
	}

	if err := r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if r.LastFrame().Generation != targets.Generation() {
		t.Errorf("frame generation = %d, want %d", r.LastFrame().Generation, targets.Generation())
	}
	for _, sub := range f.ctx.Submissions[1:] {
		desc := sub.Passes[0].Render
		for _, a := range desc.ColorAttachments {
			if v := view(a.View); !v.Surface && v.Stale() {
				t.Error("bound a stale color view")
			}
		}
		if desc.DepthStencilAttachment.View != views.Depth {
			t.Error("pass did not use the new depth target")
		}
	}
	if sub := f.ctx.Submissions[2].Passes[0]; sub.Commands[1].Handle != gpu.BindGroup(group) {
		t.Error("resolve pass did not bind the rebuilt group")
	}
}

func TestResizeSameSize(t *testing.T) {
	f := newFixture(t)
	r := f.renderer(t)
	before := r.Targets()
	textures := len(f.ctx.Textures)

	if err := r.Resize(f.ctx.Width, f.ctx.Height); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if r.Targets() != before || len(f.ctx.Textures) != textures || f.ctx.Configures != 0 {
		t.Error("resize to the current size reallocated or reconfigured")
	}
}

func TestScenarioTwoResizes(t *testing.T) {
	f := newFixture(t, triangleNode())
	r := f.renderer(t)

	for _, size := range [][2]int{{640, 480}, {1920, 1080}} {
		if err := r.Resize(size[0], size[1]); err != nil {
			t.Fatalf("Resize(%v): %v", size, err)
		}
		f.ctx.Reset()
		if err := r.Draw(); err != nil {
			t.Fatalf("Draw after %v: %v", size, err)
		}
		for i, sub := range f.ctx.Submissions[1:] {
			desc := sub.Passes[0].Render
			attachments := []gpu.TextureView{desc.DepthStencilAttachment.View}
			if i == 0 {
				for _, a := range desc.ColorAttachments {
					attachments = append(attachments, a.View)
				}
			}
			for _, a := range attachments {
				tex := view(a).Texture
				if int(tex.Desc.Width) != size[0] || int(tex.Desc.Height) != size[1] {
					t.Errorf("after resize to %v, %q is %dx%d", size, tex.Desc.Label, tex.Desc.Width, tex.Desc.Height)
				}
			}
		}
		if r.LastFrame().Generation != r.Targets().Generation() {
			t.Errorf("frame generation %d, current %d", r.LastFrame().Generation, r.Targets().Generation())
		}
	}
}

func TestResizeFailureKeepsResources(t *testing.T) {
	f := newFixture(t)
	r := f.renderer(t)
	before := r.Targets()
	group := r.GBufferGroup()

	f.ctx.FailTexture["renderer gbuffer normal"] = errors.New("out of memory")
	err := r.Resize(1000, 1000)
	if !errors.Is(err, gbuffer.ErrAllocation) {
		t.Fatalf("Resize = %v, want ErrAllocation", err)
	}
	if r.Targets() != before || r.GBufferGroup() != group || before.Released() {
		t.Error("failed resize replaced or released the current resources")
	}
	if f.ctx.Configures != 0 {
		t.Error("failed resize reconfigured the surface")
	}
	for _, tex := range f.ctx.Textures {
		if tex.Desc.Width == 1000 && !tex.Released {
			t.Errorf("partial allocation %q leaked", tex.Desc.Label)
		}
	}

	if err := r.Resize(0, 10); !errors.Is(err, gbuffer.ErrInvalidSize) {
		t.Errorf("Resize(0, 10) = %v, want ErrInvalidSize", err)
	}
	if err := r.Draw(); err != nil {
		t.Errorf("Draw after failed resize: %v", err)
	}
}

func TestDrawSurfaceError(t *testing.T) {
	f := newFixture(t)
	r := f.renderer(t)
	f.ctx.FailSurface = errors.New("surface outdated")

	if err := r.Draw(); !errors.Is(err, f.ctx.FailSurface) {
		t.Fatalf("Draw = %v, want the surface error", err)
	}
	if f.ctx.Presents != 0 {
		t.Error("presented without a surface view")
	}
	if r.LastFrame() != (FrameStats{}) {
		t.Errorf("LastFrame() = %+v after a failed frame, want zero", r.LastFrame())
	}
}

func TestDrawRecoversAfterResolveError(t *testing.T) {
	f := newFixture(t)
	r := f.renderer(t)
	f.ctx.Reset()
	f.ctx.FailEncoder["resolve pass"] = errors.New("encoder lost")

	if err := r.Draw(); !errors.Is(err, f.ctx.FailEncoder["resolve pass"]) {
		t.Fatalf("Draw = %v, want the resolve encoder error", err)
	}
	if f.ctx.Presents != 0 || f.ctx.HoldsSurfaceView() {
		t.Errorf("presents=%d held=%v after a failed resolve, want the surface discarded", f.ctx.Presents, f.ctx.HoldsSurfaceView())
	}

	delete(f.ctx.FailEncoder, "resolve pass")
	for i := 0; i < 2; i++ {
		if err := r.Draw(); err != nil {
			t.Fatalf("Draw %d after recovery: %v", i, err)
		}
	}
	if f.ctx.Presents != 2 {
		t.Errorf("Presents = %d, want 2", f.ctx.Presents)
	}
	if r.LastFrame().ResolveDraws != 1 {
		t.Errorf("LastFrame().ResolveDraws = %d, want 1", r.LastFrame().ResolveDraws)
	}
}

func TestRelease(t *testing.T) {
	f := newFixture(t)
	r := f.renderer(t)
	targets := r.Targets()
	sceneGroup := r.SceneGroup().(*gputest.BindGroup)

	r.Release()
	if !targets.Released() || !sceneGroup.Released {
		t.Error("Release left owned resources alive")
	}
	for _, p := range f.ctx.RenderPipelines {
		if !p.Released {
			t.Error("Release left a render pipeline alive")
		}
	}
	if f.camera.UniformBuffer().(*gputest.Buffer).Released {
		t.Error("Release released the camera buffer")
	}
	if f.lights.ClusterBuffer().(*gputest.Buffer).Released {
		t.Error("Release released the cluster buffer")
	}
	if f.reg.Resolve().Handle().(*gputest.BindGroupLayout).Released {
		t.Error("Release released a shared registry")
	}

	if err := r.Draw(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Draw after Release = %v, want ErrNotInitialized", err)
	}
	if err := r.Resize(10, 10); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Resize after Release = %v, want ErrNotInitialized", err)
	}
}

func TestConstructionErrors(t *testing.T) {
	f := newFixture(t)

	if _, err := NewClusteredDeferredRenderer(f.ctx, f.scene, f.lights, camera.NewCamera()); err == nil {
		t.Error("camera without Init accepted")
	}
	if _, err := NewClusteredDeferredRenderer(f.ctx, nil, f.lights, f.camera); err == nil {
		t.Error("nil scene accepted")
	}

	f.ctx.Unsupported[gbuffer.NormalFormat] = true
	_, err := NewClusteredDeferredRenderer(f.ctx, f.scene, f.lights, f.camera)
	var fe *gbuffer.FormatError
	if !errors.As(err, &fe) || fe.Target != "normal" {
		t.Fatalf("err = %v, want a FormatError naming the normal target", err)
	}
	for _, p := range f.ctx.RenderPipelines {
		if !p.Released {
			t.Error("failed construction left a pipeline alive")
		}
	}
}

func TestShaderValidationOption(t *testing.T) {
	f := newFixture(t)
	r := f.renderer(t, WithShaderValidation(true))
	if err := r.Draw(); err != nil {
		t.Errorf("Draw: %v", err)
	}
}

func TestSetClearColor(t *testing.T) {
	f := newFixture(t)
	r := f.renderer(t)
	c := wgpu.Color{R: 1, A: 1}
	r.SetClearColor(c)
	if r.ClearColor() != c {
		t.Errorf("ClearColor() = %v, want %v", r.ClearColor(), c)
	}
	if err := r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if got := f.ctx.Submissions[2].Passes[0].Render.ColorAttachments[0].ClearValue; got != c {
		t.Errorf("surface cleared to %v, want %v", got, c)
	}
}

func TestLogger(t *testing.T) {
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("default logger is enabled")
	}

	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f := newFixture(t)
	r := f.renderer(t, WithLogger(l), WithLabel("main"))
	if err := r.Draw(); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"renderer initialized", "label=main", "msg=frame", "resolveDraws=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}

	SetLogger(l)
	if Logger() != l {
		t.Error("SetLogger did not install the logger")
	}
	SetLogger(nil)
	if Logger() == nil || Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) did not restore the silent logger")
	}
}
