// Package scene defines what the geometry pass needs from a scene, and provides an
// in-memory scene graph implementing it.
//
// The geometry pass only sees the traversal contract: Scene.Iterate visits nodes in
// order, and within each node its materials and their primitives, handing out the
// bind groups and buffers to bind.
package scene

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
)

// Node is a scene node as seen by the geometry pass.
type Node interface {
	// ModelBindGroup returns the per-node uniform group bound at group 1.
	ModelBindGroup() gpu.BindGroup
}

// Material is a material as seen by the geometry pass.
type Material interface {
	// MaterialBindGroup returns the texture and sampler group bound at group 2.
	MaterialBindGroup() gpu.BindGroup
}

// Primitive is an indexed mesh as seen by the geometry pass. Indices are uint32.
type Primitive interface {
	VertexBuffer() gpu.Buffer
	IndexBuffer() gpu.Buffer
	IndexCount() int
}

// Scene is the traversal contract of the geometry pass.
type Scene interface {
	// Iterate visits every node in order. For each node it calls onNode, then for each
	// material of the node calls onMaterial followed by onPrimitive for each of that
	// material's primitives.
	//
	// Parameters:
	//   - onNode: called once per node before its materials
	//   - onMaterial: called once per material group of the node
	//   - onPrimitive: called once per primitive of the material group
	Iterate(onNode func(Node), onMaterial func(Material), onPrimitive func(Primitive))
}

// scene is the implementation of the Graph interface.
type scene struct {
	mu             sync.RWMutex
	name           string
	nodes          []SceneNode
	computeWorkers int
	computePool    worker.DynamicWorkerPool
	writePool      []bind_group_provider.BufferWrite
}

// Graph is an in-memory scene: an ordered list of nodes, each holding material groups
// of primitives. It owns the GPU resources of its nodes, materials and primitives.
type Graph interface {
	Scene

	// Name returns the scene name.
	Name() string

	// AddNode appends a node. Nodes are visited in insertion order.
	//
	// Parameters:
	//   - n: the node to append
	AddNode(n SceneNode)

	// Nodes returns a copy of the node list in visit order.
	Nodes() []SceneNode

	// Init creates the GPU resources of every node, material and primitive that has none
	// yet, then uploads the node transforms. It can be called again after adding nodes.
	//
	// Parameters:
	//   - ctx: the GPU context to create resources on
	//   - reg: the registry providing the model and material layouts
	//
	// Returns:
	//   - error: the first resource error, wrapped with the scene name
	Init(ctx gpu.Context, reg *layout.Registry) error

	// UploadTransforms marshals the model data of every node whose transform changed and
	// writes it to the node uniform buffers. Marshaling runs on the compute worker pool;
	// the buffer writes are issued from the calling goroutine.
	//
	// Parameters:
	//   - ctx: the GPU context whose queue receives the writes
	//
	// Returns:
	//   - int: the number of nodes written
	UploadTransforms(ctx gpu.Context) int

	// Release releases the GPU resources of every node, material and primitive.
	Release()
}

var _ Graph = &scene{}

// NewScene creates an empty scene.
//
// Parameters:
//   - name: the scene name, used in error messages
//   - options: functional options for the scene
//
// Returns:
//   - Graph: the new scene
func NewScene(name string, options ...SceneBuilderOption) Graph {
	s := &scene{
		name:           name,
		computeWorkers: max(runtime.NumCPU()-1, 1),
	}
	for _, option := range options {
		option(s)
	}

	// The pool is created after options so WithComputeWorkers can override the default.
	s.computePool = worker.NewDynamicWorkerPool(s.computeWorkers, 256, 1*time.Second)
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) AddNode(n SceneNode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = append(s.nodes, n)
}

func (s *scene) Nodes() []SceneNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]SceneNode(nil), s.nodes...)
}

func (s *scene) Iterate(onNode func(Node), onMaterial func(Material), onPrimitive func(Primitive)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.nodes {
		onNode(n)
		for _, g := range n.Groups() {
			onMaterial(g.Material)
			for _, p := range g.Primitives {
				onPrimitive(p)
			}
		}
	}
}

func (s *scene) Init(ctx gpu.Context, reg *layout.Registry) error {
	s.mu.RLock()
	nodes := append([]SceneNode(nil), s.nodes...)
	s.mu.RUnlock()

	initedMaterials := make(map[material.Material]bool)
	initedModels := make(map[model.Model]bool)
	for _, n := range nodes {
		if n.ModelBindGroup() == nil {
			sizes := map[int]uint64{layout.BindingModel: model.GPUModelDataSize}
			if err := bind_group_provider.InitBindGroup(ctx, n.Provider(), reg.Model(), sizes); err != nil {
				return fmt.Errorf("scene %q: node %q: %w", s.name, n.Name(), err)
			}
			n.MarkDirty()
		}
		for _, g := range n.Groups() {
			if g.Material.MaterialBindGroup() == nil && !initedMaterials[g.Material] {
				if err := g.Material.Init(ctx, reg.Material()); err != nil {
					return fmt.Errorf("scene %q: node %q: %w", s.name, n.Name(), err)
				}
			}
			initedMaterials[g.Material] = true
			for _, p := range g.Primitives {
				if p.VertexBuffer() == nil && !initedModels[p] {
					if err := p.Init(ctx); err != nil {
						return fmt.Errorf("scene %q: node %q: %w", s.name, n.Name(), err)
					}
				}
				initedModels[p] = true
			}
		}
	}

	s.UploadTransforms(ctx)
	return nil
}

func (s *scene) UploadTransforms(ctx gpu.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dirty := make([]SceneNode, 0, len(s.nodes))
	for _, n := range s.nodes {
		if n.Dirty() && n.ModelBindGroup() != nil {
			dirty = append(dirty, n)
		}
	}
	if len(dirty) == 0 {
		return 0
	}

	// Phase 1: marshal on the worker pool. A WaitGroup is the per-call barrier since the
	// pool's workers stay alive between calls.
	staged := make([][]byte, len(dirty))
	var wg sync.WaitGroup
	for i, n := range dirty {
		wg.Add(1)
		idx, nodeCap := i, n
		s.computePool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				data := nodeCap.ModelData()
				staged[idx] = data.Marshal()
				return nil, nil
			},
		})
	}
	wg.Wait()

	// Phase 2: one coalesced batch of queue writes.
	writes := s.writePool[:0]
	for i, n := range dirty {
		writes = append(writes, bind_group_provider.BufferWrite{
			Provider: n.Provider(),
			Binding:  layout.BindingModel,
			Data:     staged[i],
		})
		n.ClearDirty()
	}
	s.writePool = writes
	bind_group_provider.WriteBuffers(ctx, writes)
	return len(writes)
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	releasedMaterials := make(map[material.Material]bool)
	releasedModels := make(map[model.Model]bool)
	for _, n := range s.nodes {
		n.Provider().Release()
		for _, g := range n.Groups() {
			if !releasedMaterials[g.Material] {
				g.Material.Release()
				releasedMaterials[g.Material] = true
			}
			for _, p := range g.Primitives {
				if !releasedModels[p] {
					p.Release()
					releasedModels[p] = true
				}
			}
		}
	}
}
