package model

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
)

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model. The name also
// labels the mesh buffers.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithMesh is an option builder that sets the vertices and triangle-list indices of the Model.
//
// Parameters:
//   - vertices: the mesh vertices
//   - indices: three indices per triangle, counter-clockwise front faces
//
// Returns:
//   - ModelBuilderOption: a function that applies the mesh option to a model
func WithMesh(vertices []GPUVertex, indices []uint32) ModelBuilderOption {
	return func(m *model) {
		m.vertices = vertices
		m.indices = indices
	}
}

// WithMeshProvider is an option builder that sets the BindGroupProvider for mesh GPU resources.
//
// Parameters:
//   - provider: the BindGroupProvider receiving the vertex and index buffers
//
// Returns:
//   - ModelBuilderOption: a function that applies the mesh provider option to a model
func WithMeshProvider(provider bind_group_provider.BindGroupProvider) ModelBuilderOption {
	return func(m *model) {
		m.meshProvider = provider
	}
}

// WithBoundingRadius is an option builder that manually sets the bounding sphere radius,
// overriding the value computed from the vertices.
func WithBoundingRadius(radius float32) ModelBuilderOption {
	return func(m *model) {
		m.boundingRadius = radius
	}
}
