// Package model holds the meshes drawn by the geometry pass: CPU vertex and index
// data in the shared vertex layout, and the GPU buffers uploaded from it.
package model

import (
	"errors"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu"
)

// ErrEmptyMesh is returned by Init for a model without vertices or indices.
var ErrEmptyMesh = errors.New("model has no vertices or indices")

// model is the implementation of the Model interface.
type model struct {
	name                  string
	vertices              []GPUVertex
	indices               []uint32
	meshProvider          bind_group_provider.BindGroupProvider
	boundingRadius        float32
	vertexData, indexData []byte
}

// Model is an indexed triangle mesh. After Init its vertex and index buffers are
// resident and it can be drawn as a scene primitive.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Vertices returns the CPU vertex data.
	Vertices() []GPUVertex

	// Indices returns the CPU index data.
	Indices() []uint32

	// VertexData returns the marshaled vertices.
	//
	// Returns:
	//   - []byte: the vertex data, 32 bytes per vertex
	VertexData() []byte

	// IndexData returns the marshaled uint32 indices.
	//
	// Returns:
	//   - []byte: the index data
	IndexData() []byte

	// IndexCount returns the number of indices in the model's mesh.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// BoundingRadius returns the maximum vertex distance from the model origin.
	BoundingRadius() float32

	// MeshProvider retrieves the BindGroupProvider holding GPU mesh resources.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the mesh provider
	MeshProvider() bind_group_provider.BindGroupProvider

	// Init uploads the mesh into new vertex and index buffers. Calling it again
	// replaces the buffers.
	//
	// Parameters:
	//   - ctx: the GPU context to create the buffers on
	//
	// Returns:
	//   - error: ErrEmptyMesh, or an error if a buffer cannot be created
	Init(ctx gpu.Context) error

	// VertexBuffer returns the uploaded vertex buffer, nil before Init.
	VertexBuffer() gpu.Buffer

	// IndexBuffer returns the uploaded uint32 index buffer, nil before Init.
	IndexBuffer() gpu.Buffer

	// Release releases the GPU buffers. The CPU data is kept.
	Release()
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	if m.meshProvider == nil {
		m.meshProvider = bind_group_provider.NewBindGroupProvider(m.name)
	}
	m.vertexData = MarshalVertices(m.vertices)
	m.indexData = MarshalIndices(m.indices)
	if m.boundingRadius == 0 {
		m.boundingRadius = ComputeBoundingRadius(m.vertices)
	}
	return m
}

// ComputeBoundingRadius returns the maximum distance from the origin across all vertex positions.
func ComputeBoundingRadius(vertices []GPUVertex) float32 {
	var maxDistSq float32
	for _, v := range vertices {
		p := v.Position
		distSq := p[0]*p[0] + p[1]*p[1] + p[2]*p[2]
		if distSq > maxDistSq {
			maxDistSq = distSq
		}
	}
	return float32(math.Sqrt(float64(maxDistSq)))
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Vertices() []GPUVertex {
	return m.vertices
}

func (m *model) Indices() []uint32 {
	return m.indices
}

func (m *model) VertexData() []byte {
	return m.vertexData
}

func (m *model) IndexData() []byte {
	return m.indexData
}

func (m *model) IndexCount() int {
	return len(m.indices)
}

func (m *model) BoundingRadius() float32 {
	return m.boundingRadius
}

func (m *model) MeshProvider() bind_group_provider.BindGroupProvider {
	return m.meshProvider
}

func (m *model) Init(ctx gpu.Context) error {
	if len(m.vertices) == 0 || len(m.indices) == 0 {
		return fmt.Errorf("model %q: %w", m.name, ErrEmptyMesh)
	}
	return bind_group_provider.InitMeshBuffers(ctx, m.meshProvider, m.vertexData, m.indexData, len(m.indices))
}

func (m *model) VertexBuffer() gpu.Buffer {
	return m.meshProvider.VertexBuffer()
}

func (m *model) IndexBuffer() gpu.Buffer {
	return m.meshProvider.IndexBuffer()
}

func (m *model) Release() {
	m.meshProvider.Release()
}
