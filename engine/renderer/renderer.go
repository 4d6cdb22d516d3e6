// Package renderer ties the clustered-deferred frame together. A renderer is built
// against an explicit gpu.Context, a scene, a light clustering stage and a camera, and
// renders one frame per Draw: light clustering, geometry pass, resolve pass, present.
package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gbuffer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pass"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNotInitialized is returned by Draw and Resize on a renderer that was released.
var ErrNotInitialized = errors.New("renderer: not initialized")

// Camera is what the renderer needs from a camera: the uniform buffer bound at group 0
// of both passes. The buffer must stay the same handle for the renderer's lifetime.
type Camera interface {
	UniformBuffer() gpu.Buffer
}

// FrameStats describes the last frame rendered by Draw.
type FrameStats struct {
	// Generation is the G-buffer allocation the frame rendered into.
	Generation uint64

	// Submissions is the number of command buffers submitted.
	Submissions int

	GeometryDraws   int
	GeometryIndices int
	ResolveDraws    int
}

// frameResources is everything that changes together on resize: the G-buffer targets
// and the resolve group that samples them.
type frameResources struct {
	targets         *gbuffer.Targets
	gbufferProvider bind_group_provider.BindGroupProvider
}

func (f *frameResources) release() {
	if f == nil {
		return
	}
	if f.gbufferProvider != nil {
		f.gbufferProvider.Release()
	}
	f.targets.Release()
}

// renderer is the implementation of the ClusteredDeferredRenderer interface.
type renderer struct {
	mu sync.Mutex

	ctx    gpu.Context
	scene  scene.Scene
	lights light.Lights
	camera Camera

	label           string
	logger          *slog.Logger
	clearColor      wgpu.Color
	validateShaders bool

	reg            *layout.Registry
	sharedRegistry bool
	sceneProvider  bind_group_provider.BindGroupProvider
	gbuffers       *gbuffer.Manager
	frame          *frameResources

	geometryPipeline pipeline.Pipeline
	resolvePipeline  pipeline.Pipeline
	quad             model.Model
	geometry         *pass.GeometryPass
	resolve          *pass.ResolvePass

	last FrameStats
}

// ClusteredDeferredRenderer renders a scene lit by clustered point lights through a
// G-buffer.
type ClusteredDeferredRenderer interface {
	// Draw renders one frame. The clustering stage, geometry pass and resolve pass are
	// each submitted in that order before the surface is presented.
	//
	// Returns:
	//   - error: ErrNotInitialized after Release, or the failing stage's error; nothing is presented on error
	Draw() error

	// Resize reallocates the G-buffer, rebuilds the resolve group and reconfigures the
	// surface. The new resources replace the old ones only if every step succeeds.
	// Resizing to the current size does nothing.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: the allocation, bind group or surface error; the previous resources stay current
	Resize(width, height int) error

	// Size returns the pixel size of the current G-buffer.
	Size() (width, height int)

	// Targets returns the current G-buffer allocation.
	Targets() *gbuffer.Targets

	// GBufferGroup returns the resolve group bound to the current targets.
	GBufferGroup() gpu.BindGroup

	// SceneGroup returns the camera group bound at group 0 in both passes.
	SceneGroup() gpu.BindGroup

	// Registry returns the layout registry the pipelines were built from.
	Registry() *layout.Registry

	// ClearColor returns the resolve pass clear color.
	ClearColor() wgpu.Color

	// SetClearColor sets the resolve pass clear color used from the next frame on.
	SetClearColor(c wgpu.Color)

	// LastFrame returns the statistics of the last successful Draw.
	LastFrame() FrameStats

	// Release releases every resource the renderer owns. The scene, lights and camera
	// are left alone.
	Release()
}

var _ ClusteredDeferredRenderer = &renderer{}

// NewClusteredDeferredRenderer builds the registry, scene group, G-buffer at the
// current surface size, both pipelines, the resolve group and the full-screen quad.
//
// Parameters:
//   - ctx: the GPU context to render with; its surface must be configured
//   - s: the scene drawn by the geometry pass
//   - lights: the clustering stage whose light set and cluster buffers the resolve pass reads
//   - cam: the camera whose uniform buffer is bound at group 0
//   - opts: functional options to configure the renderer
//
// Returns:
//   - ClusteredDeferredRenderer: the renderer, ready to Draw
//   - error: the first construction error; everything created so far is released
func NewClusteredDeferredRenderer(ctx gpu.Context, s scene.Scene, lights light.Lights, cam Camera, opts ...RendererBuilderOption) (ClusteredDeferredRenderer, error) {
	switch {
	case ctx == nil:
		return nil, errors.New("renderer: nil context")
	case s == nil:
		return nil, errors.New("renderer: nil scene")
	case lights == nil:
		return nil, errors.New("renderer: nil lights")
	case cam == nil || cam.UniformBuffer() == nil:
		return nil, errors.New("renderer: camera has no uniform buffer, call Init first")
	}

	r := &renderer{
		ctx:    ctx,
		scene:  s,
		lights: lights,
		camera: cam,
		label:  "renderer",
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.init(); err != nil {
		r.Release()
		return nil, fmt.Errorf("%s: %w", r.label, err)
	}

	w, h := r.Size()
	r.log().Info("renderer initialized",
		"label", r.label,
		"width", w,
		"height", h,
		"surfaceFormat", ctx.SurfaceFormat(),
		"generation", r.frame.targets.Generation(),
	)
	return r, nil
}

func (r *renderer) init() error {
	var err error
	if r.reg == nil {
		r.reg, err = layout.NewRegistry(r.ctx)
		if err != nil {
			return err
		}
	}

	r.sceneProvider = bind_group_provider.NewBindGroupProvider(r.label+" scene",
		bind_group_provider.WithBuffer(layout.BindingCamera, r.camera.UniformBuffer()),
	)
	if err := bind_group_provider.InitBindGroup(r.ctx, r.sceneProvider, r.reg.SceneUniforms(), nil); err != nil {
		return err
	}

	gv, gf, err := pass.GeometryShaders()
	if err != nil {
		return err
	}
	rv, rf, err := pass.ResolveShaders()
	if err != nil {
		return err
	}
	if r.validateShaders {
		for _, sh := range []shader.Shader{gv, gf, rv, rf} {
			if err := shader.Validate(sh); err != nil {
				return err
			}
		}
	}

	r.geometryPipeline = pass.NewGeometryPipeline(r.reg, gv, gf)
	if err := r.geometryPipeline.Register(r.ctx); err != nil {
		return err
	}
	r.resolvePipeline = pass.NewResolvePipeline(r.reg, r.ctx.SurfaceFormat(), rv, rf)
	if err := r.resolvePipeline.Register(r.ctx); err != nil {
		return err
	}

	r.gbuffers = gbuffer.NewManager(r.ctx, gbuffer.WithLabel(r.label+" gbuffer"))
	frame, err := r.newFrameResources(r.ctx.SurfaceSize())
	if err != nil {
		return err
	}
	r.gbuffers.Swap(frame.targets)
	r.frame = frame

	r.quad, err = pass.NewFullscreenQuad(r.ctx)
	if err != nil {
		return err
	}

	r.geometry = pass.NewGeometryPass(r.ctx, r.geometryPipeline.Render(), r.sceneProvider.BindGroup())
	r.resolve = pass.NewResolvePass(r.ctx, r.resolvePipeline.Render(), r.sceneProvider.BindGroup(), r.quad)
	r.resolve.SetClearColor(r.clearColor)
	return nil
}

// newFrameResources allocates targets at the given size and the resolve group reading
// them. Nothing is kept on failure.
func (r *renderer) newFrameResources(width, height int) (*frameResources, error) {
	targets, err := r.gbuffers.Allocate(width, height)
	if err != nil {
		return nil, err
	}

	provider := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("%s gbuffer %d", r.label, targets.Generation()),
		bind_group_provider.WithBuffer(layout.BindingLightSet, r.lights.LightSetBuffer()),
		bind_group_provider.WithBuffer(layout.BindingClusterSet, r.lights.ClusterBuffer()),
		bind_group_provider.WithTextureView(layout.BindingAlbedo, targets.Albedo.SampledView()),
		bind_group_provider.WithTextureView(layout.BindingNormal, targets.Normal.SampledView()),
		bind_group_provider.WithTextureView(layout.BindingPosition, targets.Position.SampledView()),
	)
	frame := &frameResources{targets: targets, gbufferProvider: provider}
	if err := bind_group_provider.InitBindGroup(r.ctx, provider, r.reg.Resolve(), nil); err != nil {
		frame.release()
		return nil, err
	}
	return frame, nil
}

func (r *renderer) Draw() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frame == nil {
		return ErrNotInitialized
	}
	frame := r.frame

	if err := pass.Submit(r.ctx, r.label+" light clustering", r.lights.DoLightClustering); err != nil {
		return fmt.Errorf("%s: %w", r.label, err)
	}
	geometry, err := r.geometry.Run(frame.targets, r.scene)
	if err != nil {
		return fmt.Errorf("%s: %w", r.label, err)
	}
	resolve, err := r.resolve.Run(frame.targets, frame.gbufferProvider.BindGroup())
	if err != nil {
		return fmt.Errorf("%s: %w", r.label, err)
	}
	r.ctx.Present()

	r.last = FrameStats{
		Generation:      frame.targets.Generation(),
		Submissions:     3,
		GeometryDraws:   geometry.Draws,
		GeometryIndices: geometry.Indices,
		ResolveDraws:    resolve.Draws,
	}
	r.log().Debug("frame",
		"generation", r.last.Generation,
		"submissions", r.last.Submissions,
		"geometryDraws", r.last.GeometryDraws,
		"geometryIndices", r.last.GeometryIndices,
		"resolveDraws", r.last.ResolveDraws,
	)
	return nil
}

func (r *renderer) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frame == nil {
		return ErrNotInitialized
	}
	if w, h := r.frame.targets.Size(); w == width && h == height {
		return nil
	}

	next, err := r.newFrameResources(width, height)
	if err != nil {
		return fmt.Errorf("%s: resize %dx%d: %w", r.label, width, height, err)
	}
	if err := r.ctx.ConfigureSurface(width, height); err != nil {
		next.release()
		return fmt.Errorf("%s: resize %dx%d: %w", r.label, width, height, err)
	}

	prev := r.frame
	r.frame = next
	r.gbuffers.Swap(next.targets)
	prev.release()

	r.log().Info("renderer resized",
		"label", r.label,
		"width", width,
		"height", height,
		"generation", next.targets.Generation(),
	)
	return nil
}

func (r *renderer) Size() (width, height int) {
	if t := r.Targets(); t != nil {
		return t.Size()
	}
	return 0, 0
}

func (r *renderer) Targets() *gbuffer.Targets {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frame == nil {
		return nil
	}
	return r.frame.targets
}

func (r *renderer) GBufferGroup() gpu.BindGroup {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frame == nil {
		return nil
	}
	return r.frame.gbufferProvider.BindGroup()
}

func (r *renderer) SceneGroup() gpu.BindGroup {
	if r.sceneProvider == nil {
		return nil
	}
	return r.sceneProvider.BindGroup()
}

func (r *renderer) Registry() *layout.Registry {
	return r.reg
}

func (r *renderer) ClearColor() wgpu.Color {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clearColor
}

func (r *renderer) SetClearColor(c wgpu.Color) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearColor = c
	if r.resolve != nil {
		r.resolve.SetClearColor(c)
	}
}

func (r *renderer) LastFrame() FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frame != nil {
		r.gbuffers.Swap(nil)
		r.frame.release()
		r.frame = nil
	}
	if r.quad != nil {
		r.quad.Release()
		r.quad = nil
	}
	for _, p := range []pipeline.Pipeline{r.geometryPipeline, r.resolvePipeline} {
		if p != nil {
			p.Release()
		}
	}
	r.geometryPipeline, r.resolvePipeline = nil, nil
	if r.sceneProvider != nil {
		r.sceneProvider.Release()
		r.sceneProvider = nil
	}
	if r.reg != nil && !r.sharedRegistry {
		r.reg.Release()
	}
	r.reg = nil
	r.geometry, r.resolve = nil, nil
}

func (r *renderer) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return Logger()
}
