package light

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Binding indices of the clustering stage's own layout.
const (
	BindingClusterCamera   = 0
	BindingClusterLightSet = 1
	BindingClusterSet      = 2
)

// Lights is what a frame needs from the lighting side: a compute stage to record
// before the render passes, and the two buffers it fills.
type Lights interface {
	// DoLightClustering records the clustering work into encoder. The caller finishes
	// and submits the encoder before any pass that reads the cluster buffer.
	//
	// Parameters:
	//   - encoder: the command encoder to record into
	DoLightClustering(encoder gpu.CommandEncoder)

	// LightSetBuffer returns the light set storage buffer.
	LightSetBuffer() gpu.Buffer

	// ClusterBuffer returns the cluster set storage buffer.
	ClusterBuffer() gpu.Buffer
}

// ClusteredLights is the GPU light clustering stage together with the light list it
// clusters.
type ClusteredLights interface {
	Lights

	// Lights returns the current light list.
	Lights() []Light

	// SetLights replaces the light list and uploads it.
	//
	// Parameters:
	//   - lights: the new light list
	SetLights(lights ...Light)

	// AddLight appends a light and uploads the list.
	AddLight(l Light)

	// Update advances every light by dt seconds and uploads the list.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Update(dt float32)

	// Count returns the number of lights in the last upload.
	Count() int

	// Release releases the pipeline, layout, bind group and owned buffers.
	Release()
}

type clusteredLights struct {
	ctx      gpu.Context
	label    string
	lights   []Light
	count    int
	layout   *layout.Layout
	provider bind_group_provider.BindGroupProvider
	pipeline pipeline.Pipeline
}

var _ ClusteredLights = &clusteredLights{}

// NewClusteredLights creates the clustering stage. The camera buffer is borrowed:
// it must hold a GPUCameraUniform and outlive the stage.
//
// Parameters:
//   - ctx: the GPU context to create resources on
//   - cameraBuffer: the camera uniform buffer read by the clustering shader
//   - opts: functional options to configure the stage
//
// Returns:
//   - ClusteredLights: the stage with its lights uploaded
//   - error: an error naming the resource that could not be created
func NewClusteredLights(ctx gpu.Context, cameraBuffer gpu.Buffer, opts ...ClusteredLightsBuilderOption) (ClusteredLights, error) {
	if cameraBuffer == nil {
		return nil, fmt.Errorf("light clustering: nil camera buffer")
	}
	cl := &clusteredLights{ctx: ctx, label: "light clustering"}
	for _, opt := range opts {
		opt(cl)
	}

	var err error
	cl.layout, err = layout.NewLayout(ctx, cl.label,
		layout.Slot{Binding: BindingClusterCamera, Visibility: wgpu.ShaderStageCompute, Kind: layout.KindUniformBuffer},
		layout.Slot{Binding: BindingClusterLightSet, Visibility: wgpu.ShaderStageCompute, Kind: layout.KindReadOnlyStorageBuffer},
		layout.Slot{Binding: BindingClusterSet, Visibility: wgpu.ShaderStageCompute, Kind: layout.KindStorageBuffer},
	)
	if err != nil {
		return nil, err
	}

	cl.provider = bind_group_provider.NewBindGroupProvider(cl.label,
		bind_group_provider.WithBuffer(BindingClusterCamera, cameraBuffer),
	)
	err = bind_group_provider.InitBindGroup(ctx, cl.provider, cl.layout, map[int]uint64{
		BindingClusterLightSet: LightSetBufferSize,
		BindingClusterSet:      ClusterBufferSize,
	})
	if err != nil {
		cl.Release()
		return nil, err
	}

	cs, err := shader.NewShader("cluster.comp", shader.ShaderTypeCompute, shader.ClusterComputeSource)
	if err != nil {
		cl.Release()
		return nil, err
	}
	cl.pipeline = pipeline.NewPipeline(cl.label, pipeline.PipelineTypeCompute,
		pipeline.WithComputeShader(cs),
		pipeline.WithLayouts(cl.layout),
	)
	if err := cl.pipeline.Register(ctx); err != nil {
		cl.Release()
		return nil, err
	}

	cl.upload()
	return cl, nil
}

func (cl *clusteredLights) DoLightClustering(encoder gpu.CommandEncoder) {
	pass := encoder.BeginComputePass(cl.label)
	pass.SetPipeline(cl.pipeline.Compute())
	pass.SetBindGroup(0, cl.provider.BindGroup())
	pass.DispatchWorkgroups(WorkgroupCounts())
	pass.End()
}

func (cl *clusteredLights) LightSetBuffer() gpu.Buffer {
	return cl.provider.Buffer(BindingClusterLightSet)
}

func (cl *clusteredLights) ClusterBuffer() gpu.Buffer {
	return cl.provider.Buffer(BindingClusterSet)
}

func (cl *clusteredLights) Lights() []Light {
	return cl.lights
}

func (cl *clusteredLights) SetLights(lights ...Light) {
	cl.lights = append(cl.lights[:0], lights...)
	cl.upload()
}

func (cl *clusteredLights) AddLight(l Light) {
	cl.lights = append(cl.lights, l)
	cl.upload()
}

func (cl *clusteredLights) Update(dt float32) {
	for _, l := range cl.lights {
		l.Advance(dt)
	}
	cl.upload()
}

func (cl *clusteredLights) Count() int {
	return cl.count
}

func (cl *clusteredLights) upload() {
	data, n := MarshalLightBuffer(cl.lights)
	cl.count = n
	bind_group_provider.WriteBuffers(cl.ctx, []bind_group_provider.BufferWrite{
		{Provider: cl.provider, Binding: BindingClusterLightSet, Data: data},
	})
}

func (cl *clusteredLights) Release() {
	if cl.pipeline != nil {
		cl.pipeline.Release()
	}
	if cl.provider != nil {
		cl.provider.Release()
	}
	if cl.layout != nil {
		cl.layout.Release()
	}
}
