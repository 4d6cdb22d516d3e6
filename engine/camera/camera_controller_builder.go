package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraControllerOption configures the orbit controller in NewCameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithRadius sets the starting distance from the target, clamped to the radius bounds.
//
// Parameters:
//   - radius: world units between eye and target
//
// Returns:
//   - CameraControllerOption: option function to apply
func WithRadius(radius float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.radius = radius
	}
}

// WithAzimuth sets the initial horizontal angle around the Y axis in radians.
// Zero looks down the -Z axis from +Z.
func WithAzimuth(azimuth float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.azimuth = azimuth
	}
}

// WithElevation sets the initial vertical angle from the horizontal plane in radians.
func WithElevation(elevation float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.elevation = elevation
	}
}

// WithTarget sets the point the camera orbits and looks at. Defaults to the origin.
func WithTarget(x, y, z float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.target = mgl32.Vec3{x, y, z}
	}
}

// WithRadiusBounds limits how far Zoom can move the eye.
//
// Parameters:
//   - min: the closest the eye may get to the target
//   - max: the farthest the eye may get from the target
//
// Returns:
//   - CameraControllerOption: option function to apply
func WithRadiusBounds(min, max float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minRadius = min
		cc.maxRadius = max
	}
}

// WithElevationBounds limits Orbit's vertical angle, in radians. Keep both inside
// (-pi/2, pi/2) so the view never aligns with the up vector.
func WithElevationBounds(min, max float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minElevation = min
		cc.maxElevation = max
	}
}

// WithOrbitSpeed sets the angle in radians of one orbit step.
func WithOrbitSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.orbitSpeed = speed
	}
}

// WithZoomSpeed sets the distance of one zoom step.
func WithZoomSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.zoomSpeed = speed
	}
}
