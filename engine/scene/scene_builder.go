package scene

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithComputeWorkers sets the number of worker goroutines UploadTransforms marshals
// node data on. Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of compute workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithComputeWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.computeWorkers = n
	}
}

// WithNodes adds initial nodes to the scene in order.
//
// Parameters:
//   - nodes: the nodes to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithNodes(nodes ...SceneNode) SceneBuilderOption {
	return func(s *scene) {
		s.nodes = append(s.nodes, nodes...)
	}
}
