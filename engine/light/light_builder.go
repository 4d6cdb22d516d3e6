package light

import "github.com/go-gl/mathgl/mgl32"

// LightBuilderOption configures a point light in NewLight.
type LightBuilderOption func(*lightImpl)

// WithPosition places the light in world space. An orbiting light circles the Y axis
// at the distance this position has from it.
//
// Parameters:
//   - x, y, z: world-space coordinates
//
// Returns:
//   - LightBuilderOption: option function to apply
func WithPosition(x, y, z float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.position = mgl32.Vec3{x, y, z}
	}
}

// WithColor sets the linear RGB color, scaled by the intensity in the resolve shader.
//
// Parameters:
//   - r, g, b: linear color components, usually in [0, 1]
//
// Returns:
//   - LightBuilderOption: option function to apply
func WithColor(r, g, b float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = mgl32.Vec3{r, g, b}
	}
}

// WithIntensity sets the color multiplier.
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.intensity = intensity
	}
}

// WithRange sets the radius past which the light contributes nothing and is not
// assigned to clusters. Non-positive values keep the default.
func WithRange(lightRange float32) LightBuilderOption {
	return func(l *lightImpl) {
		if lightRange > 0 {
			l.lightRange = lightRange
		}
	}
}

// WithOrbitSpeed makes the light circle the world Y axis at speed radians per second
// as the scene advances.
func WithOrbitSpeed(speed float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.orbitSpeed = speed
	}
}

// WithEnabled sets whether the light is uploaded. Disabled lights keep their slot in
// Lights() but are skipped when the light set is packed.
func WithEnabled(enabled bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.enabled = enabled
	}
}
