package scene

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

// MaterialGroup is the primitives of a node drawn with one material.
type MaterialGroup struct {
	Material   material.Material
	Primitives []model.Model
}

// node is the implementation of the SceneNode interface.
type node struct {
	mu        sync.RWMutex
	name      string
	transform mgl32.Mat4
	groups    []MaterialGroup
	provider  bind_group_provider.BindGroupProvider
	dirty     bool
}

// SceneNode is a node of the in-memory scene: a transform and the material groups
// drawn with it.
type SceneNode interface {
	Node

	// Name returns the node name.
	Name() string

	// Transform returns the model-to-world matrix.
	Transform() mgl32.Mat4

	// SetTransform replaces the model-to-world matrix. The change reaches the GPU on the
	// next UploadTransforms.
	//
	// Parameters:
	//   - m: the new transform
	SetTransform(m mgl32.Mat4)

	// AddPrimitive appends a primitive to the group of its material, creating the group
	// at the end of the node if the material is new to the node.
	//
	// Parameters:
	//   - mat: the material the primitive is drawn with
	//   - prim: the primitive
	AddPrimitive(mat material.Material, prim model.Model)

	// Groups returns the material groups in insertion order.
	Groups() []MaterialGroup

	// ModelData returns the uniform data of the current transform.
	ModelData() model.GPUModelData

	// Provider returns the bind group provider holding the node uniform buffer.
	Provider() bind_group_provider.BindGroupProvider

	// Dirty reports whether the transform changed since the last upload.
	Dirty() bool

	// MarkDirty forces the next upload to write the node.
	MarkDirty()

	// ClearDirty marks the transform as uploaded.
	ClearDirty()
}

var _ SceneNode = &node{}

// NewNode creates a node with an identity transform.
//
// Parameters:
//   - name: the node name, also the label prefix of its GPU resources
//   - options: functional options for the node
//
// Returns:
//   - SceneNode: the new node
func NewNode(name string, options ...NodeBuilderOption) SceneNode {
	n := &node{
		name:      name,
		transform: mgl32.Ident4(),
		dirty:     true,
	}
	for _, opt := range options {
		opt(n)
	}
	if n.provider == nil {
		n.provider = bind_group_provider.NewBindGroupProvider("node " + name)
	}
	return n
}

func (n *node) Name() string {
	return n.name
}

func (n *node) Transform() mgl32.Mat4 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.transform
}

func (n *node) SetTransform(m mgl32.Mat4) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.transform = m
	n.dirty = true
}

func (n *node) AddPrimitive(mat material.Material, prim model.Model) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := range n.groups {
		if n.groups[i].Material == mat {
			n.groups[i].Primitives = append(n.groups[i].Primitives, prim)
			return
		}
	}
	n.groups = append(n.groups, MaterialGroup{Material: mat, Primitives: []model.Model{prim}})
}

func (n *node) Groups() []MaterialGroup {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.groups
}

func (n *node) ModelData() model.GPUModelData {
	m := n.Transform()
	normal := m.Inv().Transpose()
	if m.Det() == 0 {
		normal = mgl32.Ident4()
	}
	return model.GPUModelData{Model: m, Normal: normal}
}

func (n *node) Provider() bind_group_provider.BindGroupProvider {
	return n.provider
}

func (n *node) ModelBindGroup() gpu.BindGroup {
	return n.provider.BindGroup()
}

func (n *node) Dirty() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.dirty
}

func (n *node) MarkDirty() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dirty = true
}

func (n *node) ClearDirty() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dirty = false
}
