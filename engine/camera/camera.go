// Package camera provides the perspective camera whose uniform buffer is bound at
// group 0 of both render passes and read by the light clustering stage.
package camera

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/layout"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// cameraCount is an atomic counter used to generate unique provider labels for each camera instance.
var cameraCount atomic.Uint64

// clipCorrection maps the OpenGL clip depth range [-1, 1] produced by mgl32.Perspective
// onto the WebGPU range [0, 1].
var clipCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

type cameraImpl struct {
	mu sync.Mutex

	up mgl32.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32

	screenWidth  float32
	screenHeight float32

	view     mgl32.Mat4
	proj     mgl32.Mat4
	viewProj mgl32.Mat4
	invProj  mgl32.Mat4

	controller CameraController
	provider   bind_group_provider.BindGroupProvider
}

// Camera is a perspective camera positioned by a CameraController.
// Matrices are recomputed whenever a setting changes and on every Update.
type Camera interface {
	// Up returns the camera's up vector.
	Up() mgl32.Vec3

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// ScreenSize returns the surface size in pixels last set with SetScreenSize.
	ScreenSize() (width, height float32)

	// ViewMatrix returns the current world to view matrix.
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the current projection matrix, WebGPU clip depth.
	ProjectionMatrix() mgl32.Mat4

	// ViewProjectionMatrix returns ProjectionMatrix * ViewMatrix.
	ViewProjectionMatrix() mgl32.Mat4

	// InverseProjectionMatrix returns the inverse of ProjectionMatrix. The clustering
	// stage uses it to build view-space cluster bounds from screen tiles.
	InverseProjectionMatrix() mgl32.Mat4

	// Controller returns the attached controller.
	Controller() CameraController

	SetUp(up mgl32.Vec3)
	SetFov(fov float32)

	// SetAspect sets the aspect ratio (width / height) and recomputes matrices.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	SetNear(near float32)
	SetFar(far float32)

	// SetScreenSize records the surface size and derives the aspect ratio from it.
	// Sizes with a zero dimension are ignored.
	//
	// Parameters:
	//   - width: the surface width in pixels
	//   - height: the surface height in pixels
	SetScreenSize(width, height int)

	// SetController replaces the attached controller.
	SetController(ctrl CameraController)

	// Update reads position and target from the controller and recomputes matrices.
	// Should be called once per frame before Upload.
	Update()

	// Uniform returns the GPU representation of the current camera state.
	//
	// Returns:
	//   - GPUCameraUniform: the uniform data
	Uniform() GPUCameraUniform

	// Init creates the uniform buffer and uploads the current state.
	//
	// Parameters:
	//   - ctx: the GPU context to create the buffer on
	//
	// Returns:
	//   - error: an error if the buffer cannot be created
	Init(ctx gpu.Context) error

	// UniformBuffer returns the camera uniform buffer, or nil before Init.
	// The handle stays the same for the camera's lifetime so bind groups built
	// over it never go stale.
	UniformBuffer() gpu.Buffer

	// BindGroupProvider returns the provider holding the uniform buffer.
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// Upload updates the matrices and writes the uniform to its buffer.
	//
	// Parameters:
	//   - ctx: the GPU context whose queue receives the write
	Upload(ctx gpu.Context)

	// Release releases the uniform buffer.
	Release()
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with default perspective settings: 45 degree field
// of view, 16:9 aspect, near 0.1 and far 100. Without WithController the camera
// orbits the origin with the default controller settings.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		up:     mgl32.Vec3{0, 1, 0},
		fov:    mgl32.DegToRad(45),
		aspect: 16.0 / 9.0,
		near:   0.1,
		far:    100,
		provider: bind_group_provider.NewBindGroupProvider(
			"camera_" + strconv.FormatUint(cameraCount.Add(1)-1, 10),
		),
	}
	for _, option := range options {
		option(c)
	}
	if c.controller == nil {
		c.controller = NewCameraController()
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Up() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ScreenSize() (float32, float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.screenWidth, c.screenHeight
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.proj
}

func (c *cameraImpl) ViewProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProj
}

func (c *cameraImpl) InverseProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invProj
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetUp(up mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.up = up
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.updateMatrices()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateMatrices()
}

func (c *cameraImpl) SetScreenSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.screenWidth = float32(width)
	c.screenHeight = float32(height)
	c.aspect = c.screenWidth / c.screenHeight
	c.updateMatrices()
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.updateMatrices()
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateMatrices()
}

func (c *cameraImpl) Uniform() GPUCameraUniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uniform()
}

func (c *cameraImpl) uniform() GPUCameraUniform {
	return GPUCameraUniform{
		ViewProj:   c.viewProj,
		View:       c.view,
		InvProj:    c.invProj,
		ScreenSize: [2]float32{c.screenWidth, c.screenHeight},
		Near:       c.near,
		Far:        c.far,
	}
}

func (c *cameraImpl) Init(ctx gpu.Context) error {
	if c.provider.Buffer(layout.BindingCamera) != nil {
		return nil
	}
	if c.screenWidth == 0 {
		w, h := ctx.SurfaceSize()
		c.SetScreenSize(w, h)
	}
	buf, err := ctx.CreateBuffer(gpu.BufferDescriptor{
		Label: c.provider.Label() + " Uniform Buffer",
		Size:  GPUCameraUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("%s: uniform buffer: %w", c.provider.Label(), err)
	}
	c.provider.SetBuffer(layout.BindingCamera, buf)
	c.Upload(ctx)
	return nil
}

func (c *cameraImpl) UniformBuffer() gpu.Buffer {
	return c.provider.Buffer(layout.BindingCamera)
}

func (c *cameraImpl) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return c.provider
}

func (c *cameraImpl) Upload(ctx gpu.Context) {
	c.mu.Lock()
	c.updateMatrices()
	u := c.uniform()
	c.mu.Unlock()

	bind_group_provider.WriteBuffers(ctx, []bind_group_provider.BufferWrite{
		{Provider: c.provider, Binding: layout.BindingCamera, Data: u.Marshal()},
	})
}

func (c *cameraImpl) Release() {
	c.provider.Release()
}

// updateMatrices recalculates the view, projection, view-projection and inverse
// projection matrices from the controller's position and target.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	if c.controller != nil {
		c.view = mgl32.LookAtV(c.controller.Position(), c.controller.Target(), c.up)
	} else {
		c.view = mgl32.Ident4()
	}
	c.proj = clipCorrection.Mul4(mgl32.Perspective(c.fov, c.aspect, c.near, c.far))
	c.viewProj = c.proj.Mul4(c.view)
	c.invProj = c.proj.Inv()
}
