package material

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor is an option builder that sets the RGBA color used when the material
// has no diffuse texture.
//
// Parameters:
//   - color: the base color as RGBA float32 values in [0, 1]
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}

// WithDiffuseTexture is an option builder that sets the diffuse texture of the material.
//
// Parameters:
//   - tex: the RGBA8 pixels, for example from common.DecodeTexture
//
// Returns:
//   - MaterialBuilderOption: a function that applies the diffuse texture option to a material
func WithDiffuseTexture(tex common.TextureStagingData) MaterialBuilderOption {
	return func(m *material) {
		m.diffuseTexture = &tex
	}
}

// WithSampler is an option builder that sets the sampler of the material.
func WithSampler(s common.SamplerStagingData) MaterialBuilderOption {
	return func(m *material) {
		m.sampler = s
	}
}
