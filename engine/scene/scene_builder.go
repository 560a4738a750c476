package scene

import (
	"github.com/Carmen-Shannon/oxy-pbr/common"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithNodes attaches initial nodes below the root, in order.
//
// Parameters:
//   - nodes: the nodes to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithNodes(nodes ...Node) SceneBuilderOption {
	return func(s *scene) {
		s.root.AddChild(nodes...)
	}
}

// WithEnvironment sets the radiance cube lighting the scene.
//
// Parameters:
//   - env: the environment faces
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithEnvironment(env *common.CubeStagingData) SceneBuilderOption {
	return func(s *scene) {
		s.environment = env
	}
}

// WithEnvironmentSize sets the edge size of the generated sky used when no
// environment is supplied.
//
// Parameters:
//   - size: the face edge size
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithEnvironmentSize(size uint32) SceneBuilderOption {
	return func(s *scene) {
		if size > 0 {
			s.envSize = size
		}
	}
}
