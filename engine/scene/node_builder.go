package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// NodeBuilderOption is a functional option for configuring a SceneNode.
type NodeBuilderOption func(n *node)

// WithTransform sets the initial model-to-world matrix of the node.
func WithTransform(m mgl32.Mat4) NodeBuilderOption {
	return func(n *node) {
		n.transform = m
	}
}

// WithTranslation sets the initial transform of the node to a translation.
//
// Parameters:
//   - x, y, z: the world position of the node origin
//
// Returns:
//   - NodeBuilderOption: option function to apply
func WithTranslation(x, y, z float32) NodeBuilderOption {
	return func(n *node) {
		n.transform = mgl32.Translate3D(x, y, z)
	}
}
