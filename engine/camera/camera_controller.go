package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraController owns the camera's position and target. The camera reads both on
// every Update. The single implementation orbits the target on spherical
// coordinates (radius, azimuth, elevation).
type CameraController interface {
	// Position returns the camera's world-space position.
	Position() mgl32.Vec3

	// Target returns the look-at point.
	Target() mgl32.Vec3

	// SetTarget moves the orbit pivot and recomputes the position around it.
	//
	// Parameters:
	//   - target: the new world-space pivot
	SetTarget(target mgl32.Vec3)

	// Zoom moves the camera toward the target. Positive delta zooms in.
	// The radius is clamped to the controller's bounds.
	//
	// Parameters:
	//   - delta: zoom amount, scaled by the zoom speed
	Zoom(delta float32)

	// Orbit rotates the camera around the target by whole orbit speed steps.
	// Elevation is clamped to the controller's bounds.
	//
	// Parameters:
	//   - azimuthSteps: steps around the Y axis, positive to the right
	//   - elevationSteps: steps above the horizontal plane, positive upward
	Orbit(azimuthSteps, elevationSteps float32)

	Radius() float32
	Azimuth() float32
	Elevation() float32
}

type cameraControllerImpl struct {
	mu sync.Mutex

	position mgl32.Vec3
	target   mgl32.Vec3

	radius    float32
	azimuth   float32
	elevation float32

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	orbitSpeed float32
	zoomSpeed  float32
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates an orbit controller looking at the origin from 20
// units away, 30 degrees above the horizon.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		radius:       20,
		elevation:    float32(math.Pi / 6),
		minRadius:    2,
		maxRadius:    80,
		minElevation: -float32(math.Pi/2 - 0.05),
		maxElevation: float32(math.Pi/2 - 0.05),
		orbitSpeed:   0.03,
		zoomSpeed:    1,
	}
	for _, option := range options {
		option(cc)
	}
	cc.radius = mgl32.Clamp(cc.radius, cc.minRadius, cc.maxRadius)
	cc.elevation = mgl32.Clamp(cc.elevation, cc.minElevation, cc.maxElevation)
	cc.updatePosition()
	return cc
}

func (cc *cameraControllerImpl) Position() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *cameraControllerImpl) Target() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.target
}

func (cc *cameraControllerImpl) SetTarget(target mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = target
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.radius = mgl32.Clamp(cc.radius-delta*cc.zoomSpeed, cc.minRadius, cc.maxRadius)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Orbit(azimuthSteps, elevationSteps float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.azimuth += azimuthSteps * cc.orbitSpeed
	cc.elevation = mgl32.Clamp(cc.elevation+elevationSteps*cc.orbitSpeed, cc.minElevation, cc.maxElevation)
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Radius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.radius
}

func (cc *cameraControllerImpl) Azimuth() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.azimuth
}

func (cc *cameraControllerImpl) Elevation() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.elevation
}

// updatePosition recomputes the position from the spherical coordinates around target.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) updatePosition() {
	sinElev, cosElev := math.Sincos(float64(cc.elevation))
	sinAzim, cosAzim := math.Sincos(float64(cc.azimuth))
	offset := mgl32.Vec3{
		float32(cosElev * sinAzim),
		float32(sinElev),
		float32(cosElev * cosAzim),
	}
	cc.position = cc.target.Add(offset.Mul(cc.radius))
}
