package layout

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu"
	"github.com/cogentcore/webgpu/wgpu"
)

// Bind group indices of the geometry pipeline.
const (
	GroupScene    = 0
	GroupModel    = 1
	GroupMaterial = 2
)

// Bind group indices of the resolve pipeline.
const (
	ResolveGroupScene   = 0
	ResolveGroupGBuffer = 1
)

// Binding indices within each registry layout.
const (
	BindingCamera = 0

	BindingModel = 0

	BindingMaterialTexture = 0
	BindingMaterialSampler = 1

	BindingLightSet   = 1
	BindingClusterSet = 2
	BindingAlbedo     = 3
	BindingNormal     = 4
	BindingPosition   = 5
)

// Registry owns the layouts shared by the geometry and resolve pipelines.
type Registry struct {
	sceneUniforms *Layout
	model         *Layout
	material      *Layout
	resolve       *Layout
}

// NewRegistry creates every registry layout on the device.
//
// Parameters:
//   - ctx: the GPU context to create the layouts on
//
// Returns:
//   - *Registry: the registry
//   - error: the first layout creation error, naming the layout
func NewRegistry(ctx gpu.Context) (*Registry, error) {
	r := &Registry{}
	var err error

	r.sceneUniforms, err = NewLayout(ctx, "scene uniforms",
		Slot{Binding: BindingCamera, Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment, Kind: KindUniformBuffer},
	)
	if err != nil {
		r.Release()
		return nil, err
	}

	r.model, err = NewLayout(ctx, "model",
		Slot{Binding: BindingModel, Visibility: wgpu.ShaderStageVertex, Kind: KindUniformBuffer},
	)
	if err != nil {
		r.Release()
		return nil, err
	}

	r.material, err = NewLayout(ctx, "material",
		Slot{Binding: BindingMaterialTexture, Visibility: wgpu.ShaderStageFragment, Kind: KindSampledTexture},
		Slot{Binding: BindingMaterialSampler, Visibility: wgpu.ShaderStageFragment, Kind: KindSampler},
	)
	if err != nil {
		r.Release()
		return nil, err
	}

	r.resolve, err = NewLayout(ctx, "gbuffer",
		Slot{Binding: BindingLightSet, Visibility: wgpu.ShaderStageFragment, Kind: KindReadOnlyStorageBuffer},
		Slot{Binding: BindingClusterSet, Visibility: wgpu.ShaderStageFragment, Kind: KindReadOnlyStorageBuffer},
		Slot{Binding: BindingAlbedo, Visibility: wgpu.ShaderStageFragment, Kind: KindSampledTexture},
		Slot{Binding: BindingNormal, Visibility: wgpu.ShaderStageFragment, Kind: KindSampledTexture},
		Slot{Binding: BindingPosition, Visibility: wgpu.ShaderStageFragment, Kind: KindSampledTexture},
	)
	if err != nil {
		r.Release()
		return nil, err
	}

	return r, nil
}

// SceneUniforms is the camera uniform layout, bound at group 0 in both passes.
func (r *Registry) SceneUniforms() *Layout { return r.sceneUniforms }

// Model is the per-node model matrix layout.
func (r *Registry) Model() *Layout { return r.model }

// Material is the per-material texture and sampler layout.
func (r *Registry) Material() *Layout { return r.material }

// Resolve is the G-buffer and light data layout read by the resolve pass.
func (r *Registry) Resolve() *Layout { return r.resolve }

// GeometryLayouts returns the geometry pipeline layouts ordered by group index.
func (r *Registry) GeometryLayouts() []*Layout {
	return []*Layout{r.sceneUniforms, r.model, r.material}
}

// ResolveLayouts returns the resolve pipeline layouts ordered by group index.
func (r *Registry) ResolveLayouts() []*Layout {
	return []*Layout{r.sceneUniforms, r.resolve}
}

// Release releases every layout created so far.
func (r *Registry) Release() {
	for _, l := range []*Layout{r.sceneUniforms, r.model, r.material, r.resolve} {
		if l != nil {
			l.Release()
		}
	}
}
