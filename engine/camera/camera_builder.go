package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraBuilderOption configures a camera in NewCamera.
type CameraBuilderOption func(*cameraImpl)

// WithUp sets the world up vector of the view matrix. Defaults to +Y.
func WithUp(x, y, z float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.up = mgl32.Vec3{x, y, z}
	}
}

// WithFov sets the vertical field of view.
//
// Parameters:
//   - degrees: the angle in degrees, stored in radians
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithFov(degrees float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = mgl32.DegToRad(degrees)
	}
}

// WithAspect sets width / height. SetScreenSize overwrites it on resize.
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.aspect = aspect
	}
}

// WithClipPlanes sets the near and far clipping plane distances. The clustering
// stage slices depth exponentially between them.
//
// Parameters:
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithClipPlanes(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
		c.far = far
	}
}

// WithScreenSize sets the initial surface size and derives the aspect ratio.
// Init reads the size from the context when this option is not given.
func WithScreenSize(width, height int) CameraBuilderOption {
	return func(c *cameraImpl) {
		if width <= 0 || height <= 0 {
			return
		}
		c.screenWidth = float32(width)
		c.screenHeight = float32(height)
		c.aspect = c.screenWidth / c.screenHeight
	}
}

// WithController replaces the default orbit controller that places the eye.
func WithController(ctrl CameraController) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.controller = ctrl
	}
}
