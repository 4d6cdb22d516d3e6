// Package engine runs the frame loop: it feeds window input to the orbit camera,
// uploads the camera, animates the lights, uploads scene transforms and draws one
// clustered-deferred frame per message loop iteration.
package engine

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/input"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/profiler"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
)

// Window is the part of a window the engine drives. window.Window satisfies it.
type Window interface {
	SetUpdateCallback(callback func())
	SetResizeCallback(callback func(width, height int))
	SetScrollCallback(callback func(delta float32))
	SetKeyDownCallback(callback func(keyCode uint32))
	SetKeyUpCallback(callback func(keyCode uint32))
	ProcessMessages()
	Close() error
}

// engine implements the Engine interface.
type engine struct {
	ctx      gpu.Context
	renderer renderer.ClusteredDeferredRenderer
	camera   camera.Camera
	lights   light.ClusteredLights
	scene    scene.Graph
	window   Window
	logger   *slog.Logger

	keys          input.KeyState
	animateLights atomic.Bool
	scrollZoom    float32

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate   time.Duration
	tickRateChannel  chan time.Duration
	tickCallback     func(deltaTime float32)
	renderCallback   func(deltaTime float32)
	renderFrameLimit time.Duration

	running     atomic.Bool
	wg          sync.WaitGroup
	quitChannel chan struct{}
	quitOnce    sync.Once
	skipped     int
}

// Engine runs the render loop of one renderer against one window.
type Engine interface {
	// Renderer returns the renderer drawn each frame.
	Renderer() renderer.ClusteredDeferredRenderer

	// Camera returns the camera uploaded each frame.
	Camera() camera.Camera

	// Lights returns the clustering stage animated each frame, or nil.
	Lights() light.ClusteredLights

	// Window returns the window driving the loop, or nil in headless use.
	Window() Window

	// Step renders one frame: apply held keys to the camera, upload the camera, advance
	// the lights, upload dirty scene transforms, draw. A failed draw is logged and
	// returned; the next Step tries again.
	//
	// Parameters:
	//   - deltaTime: seconds since the previous frame
	//
	// Returns:
	//   - error: the renderer's draw error
	Step(deltaTime float32) error

	// Resize forwards a framebuffer size change to the renderer and the camera. Zero
	// sizes (a minimized window) are ignored.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: the renderer's resize error
	Resize(width, height int) error

	// EnableProfiler enables frame statistics reports through the profiler logger.
	EnableProfiler()

	// DisableProfiler disables frame statistics reports.
	DisableProfiler()

	// SetLightAnimation starts or stops advancing the lights each frame.
	SetLightAnimation(enabled bool)

	// SetTickRate sets the rate of the tick callback in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called at the tick rate on its own
	// goroutine. It must synchronize with anything the render loop reads.
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each successful frame on
	// the render goroutine.
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit caps the render loop in frames per second. 0 uncaps it.
	SetRenderFrameLimit(fps float64)

	// Run drives Step from the window message loop until the window closes or Quit is
	// called. It must be called from the goroutine that created the window.
	//
	// Returns:
	//   - error: an error if the engine has no window
	Run() error

	// Quit stops the loop and the tick goroutine. Safe to call more than once.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates an engine around a renderer and the camera it binds.
//
// Parameters:
//   - ctx: the GPU context the renderer was built against
//   - r: the renderer to draw each frame
//   - cam: the camera whose uniform buffer r binds
//   - options: functional options for the engine
//
// Returns:
//   - Engine: the engine, not yet running
//   - error: an error if a required collaborator is nil
func NewEngine(ctx gpu.Context, r renderer.ClusteredDeferredRenderer, cam camera.Camera, options ...EngineBuilderOption) (Engine, error) {
	switch {
	case ctx == nil:
		return nil, errors.New("engine: nil context")
	case r == nil:
		return nil, errors.New("engine: nil renderer")
	case cam == nil:
		return nil, errors.New("engine: nil camera")
	}

	e := &engine{
		ctx:             ctx,
		renderer:        r,
		camera:          cam,
		logger:          renderer.Logger(),
		scrollZoom:      1,
		engineTickRate:  time.Second / 60,
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
	}
	e.animateLights.Store(true)
	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))
	}
	if e.window != nil {
		e.bindWindow()
	}
	return e, nil
}

func (e *engine) bindWindow() {
	e.window.SetResizeCallback(func(width, height int) {
		_ = e.Resize(width, height)
	})
	e.window.SetKeyDownCallback(func(key uint32) {
		if key == common.KeySpace && !e.keys.Held(key) {
			e.SetLightAnimation(!e.animateLights.Load())
		}
		e.keys.Press(key)
	})
	e.window.SetKeyUpCallback(e.keys.Release)
	e.window.SetScrollCallback(func(delta float32) {
		e.camera.Controller().Zoom(delta * e.scrollZoom)
	})
}

func (e *engine) Renderer() renderer.ClusteredDeferredRenderer { return e.renderer }

func (e *engine) Camera() camera.Camera { return e.camera }

func (e *engine) Lights() light.ClusteredLights { return e.lights }

func (e *engine) Window() Window { return e.window }

func (e *engine) Step(deltaTime float32) error {
	if o := input.CameraOrbit(&e.keys); !o.Zero() {
		ctrl := e.camera.Controller()
		ctrl.Orbit(o.Azimuth, o.Elevation)
		ctrl.Zoom(o.Zoom)
	}
	e.camera.Upload(e.ctx)
	if e.lights != nil && e.animateLights.Load() {
		e.lights.Update(deltaTime)
	}
	if e.scene != nil {
		e.scene.UploadTransforms(e.ctx)
	}

	if err := e.renderer.Draw(); err != nil {
		e.skipped++
		e.logger.Warn("frame skipped", "error", err, "skipped", e.skipped)
		return err
	}

	if e.renderCallback != nil {
		e.renderCallback(deltaTime)
	}
	if e.profilingEnabled {
		s := e.renderer.LastFrame()
		e.profiler.Tick(profiler.Sample{
			GeometryDraws:   s.GeometryDraws,
			GeometryIndices: s.GeometryIndices,
			ResolveDraws:    s.ResolveDraws,
			Generation:      s.Generation,
		})
	}
	return nil
}

func (e *engine) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	if err := e.renderer.Resize(width, height); err != nil {
		e.logger.Warn("resize failed", "width", width, "height", height, "error", err)
		return err
	}
	e.camera.SetScreenSize(width, height)
	return nil
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetLightAnimation(enabled bool) {
	e.animateLights.Store(enabled)
}

// SetTickRate takes effect immediately when the engine is running.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if !e.running.Load() {
		e.engineTickRate = newRate
		return
	}
	// Replace a pending update instead of blocking.
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) Run() error {
	if e.window == nil {
		return errors.New("engine: Run without a window")
	}
	e.running.Store(true)
	e.wg.Add(1)
	go e.handleTick()

	lastFrame := time.Now()
	e.window.SetUpdateCallback(func() {
		select {
		case <-e.quitChannel:
			_ = e.window.Close()
			return
		default:
		}

		now := time.Now()
		dt := float32(now.Sub(lastFrame).Seconds())
		lastFrame = now

		if err := e.Step(dt); errors.Is(err, renderer.ErrNotInitialized) {
			e.Quit()
			return
		}

		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(now); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	})
	e.window.ProcessMessages()

	e.Quit()
	e.wg.Wait()
	return nil
}

// handleTick fires the tick callback at the tick rate until quit.
func (e *engine) handleTick() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()
	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quitChannel)
	})
}
