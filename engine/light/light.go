// Package light holds the point lights of a scene and the compute stage that sorts
// them into view-space clusters before each frame.
package light

import "github.com/go-gl/mathgl/mgl32"

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	position   mgl32.Vec3
	color      mgl32.Vec3
	intensity  float32
	lightRange float32
	orbitSpeed float32
	enabled    bool
}

// Light is a point light. Lights are marshaled into the light set storage buffer
// read by both the clustering stage and the resolve pass.
type Light interface {
	// Position returns the world-space position of the light.
	//
	// Returns:
	//   - mgl32.Vec3: position as (x, y, z)
	Position() mgl32.Vec3

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - mgl32.Vec3: color as (r, g, b)
	Color() mgl32.Vec3

	// Intensity returns the scalar intensity multiplier for the light.
	Intensity() float32

	// Range returns the radius of the light's sphere of influence. Beyond it the
	// light contributes nothing and is left out of every cluster it does not touch.
	//
	// Returns:
	//   - float32: the range value
	Range() float32

	// OrbitSpeed returns the angular speed in radians per second at which Advance
	// rotates the light around the world Y axis.
	OrbitSpeed() float32

	// Enabled returns whether this light is active for rendering.
	// Disabled lights are skipped during GPU buffer marshaling.
	Enabled() bool

	SetPosition(x, y, z float32)
	SetColor(r, g, b float32)
	SetIntensity(intensity float32)
	SetRange(lightRange float32)
	SetEnabled(enabled bool)

	// Advance moves the light along its orbit by dt seconds.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Advance(dt float32)
}

var _ Light = &lightImpl{}

// NewLight creates a white point light at the origin with range 10.
//
// Parameters:
//   - opts: functional options to configure the light
//
// Returns:
//   - Light: the newly created light
func NewLight(opts ...LightBuilderOption) Light {
	l := &lightImpl{
		color:      mgl32.Vec3{1, 1, 1},
		intensity:  1.0,
		lightRange: 10.0,
		enabled:    true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Position() mgl32.Vec3 {
	return l.position
}

func (l *lightImpl) Color() mgl32.Vec3 {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Range() float32 {
	return l.lightRange
}

func (l *lightImpl) OrbitSpeed() float32 {
	return l.orbitSpeed
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) SetPosition(x, y, z float32) {
	l.position = mgl32.Vec3{x, y, z}
}

func (l *lightImpl) SetColor(r, g, b float32) {
	l.color = mgl32.Vec3{r, g, b}
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = intensity
}

func (l *lightImpl) SetRange(lightRange float32) {
	l.lightRange = lightRange
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}

func (l *lightImpl) Advance(dt float32) {
	if l.orbitSpeed == 0 {
		return
	}
	l.position = mgl32.Rotate3DY(l.orbitSpeed * dt).Mul3x1(l.position)
}
