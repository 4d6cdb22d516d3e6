// Package material holds the surface inputs of the geometry pass: a diffuse texture
// and its sampler, bound together at the material group.
package material

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/layout"
)

// material is the implementation of the Material interface.
type material struct {
	name              string
	baseColor         [4]float32
	diffuseTexture    *common.TextureStagingData
	sampler           common.SamplerStagingData
	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Material is a render material. Surface properties are fixed at construction. Init
// uploads them and builds the material bind group the geometry pass binds at group 2.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the RGBA color used as a 1x1 texture when no diffuse texture is set.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	BaseColor() [4]float32

	// DiffuseTexture retrieves the diffuse texture pixels, or nil if none is set.
	DiffuseTexture() *common.TextureStagingData

	// Sampler retrieves the sampler settings. Zero fields take the backend defaults.
	Sampler() common.SamplerStagingData

	// BindGroupProvider retrieves the bind group provider holding GPU-side resources for this material.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the bind group provider
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// Init uploads the texture, creates the sampler and builds the bind group against the
	// material layout.
	//
	// Parameters:
	//   - ctx: the GPU context to create resources on
	//   - l: the material layout (texture at binding 0, sampler at binding 1)
	//
	// Returns:
	//   - error: an error naming the material if any resource cannot be created
	Init(ctx gpu.Context, l *layout.Layout) error

	// MaterialBindGroup returns the bind group created by Init, nil before.
	MaterialBindGroup() gpu.BindGroup

	// Release releases the GPU resources of the material.
	Release()
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		baseColor: [4]float32{1, 1, 1, 1},
	}
	for _, opt := range options {
		opt(m)
	}
	if m.bindGroupProvider == nil {
		m.bindGroupProvider = bind_group_provider.NewBindGroupProvider("material " + m.name)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	return m.baseColor
}

func (m *material) DiffuseTexture() *common.TextureStagingData {
	return m.diffuseTexture
}

func (m *material) Sampler() common.SamplerStagingData {
	return m.sampler
}

func (m *material) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return m.bindGroupProvider
}

// texture returns the staged diffuse texture, or the base color as a 1x1 texture.
func (m *material) texture() common.TextureStagingData {
	if m.diffuseTexture != nil {
		return *m.diffuseTexture
	}
	var rgba [4]uint8
	for i, c := range m.baseColor {
		rgba[i] = uint8(min(max(c, 0), 1)*255 + 0.5)
	}
	return common.SolidTexture(rgba)
}

func (m *material) Init(ctx gpu.Context, l *layout.Layout) error {
	p := m.bindGroupProvider
	if err := bind_group_provider.InitTextureView(ctx, p, layout.BindingMaterialTexture, m.texture()); err != nil {
		return fmt.Errorf("material %q: %w", m.name, err)
	}
	if err := bind_group_provider.InitSampler(ctx, p, layout.BindingMaterialSampler, m.sampler); err != nil {
		return fmt.Errorf("material %q: %w", m.name, err)
	}
	if err := bind_group_provider.InitBindGroup(ctx, p, l, nil); err != nil {
		return fmt.Errorf("material %q: %w", m.name, err)
	}
	return nil
}

func (m *material) MaterialBindGroup() gpu.BindGroup {
	return m.bindGroupProvider.BindGroup()
}

func (m *material) Release() {
	m.bindGroupProvider.Release()
}
