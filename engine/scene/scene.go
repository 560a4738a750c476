package scene

import (
	"errors"
	"sync"

	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/go-gl/mathgl/mgl32"
)

// ErrStopTraversal can be returned from a Traverse callback to stop early without an error.
var ErrStopTraversal = errors.New("stop traversal")

// Scene defines the interface for a scene graph: a tree of camera, light, mesh and group
// nodes under one root, plus the environment map lighting it.
//
// The scene owns no GPU state. A render controller traverses it once to classify the
// nodes and then asks it to recompute world transforms every frame.
type Scene interface {
	// Name returns the scene name.
	//
	// Returns:
	//   - string: the scene name
	Name() string

	// Root returns the root group node.
	//
	// Returns:
	//   - *GroupNode: the root
	Root() *GroupNode

	// Add attaches nodes below the root.
	//
	// Parameters:
	//   - nodes: the nodes to attach
	Add(nodes ...Node)

	// Traverse visits every node depth-first in pre-order, children in insertion order,
	// starting at the root. A callback error stops the walk; ErrStopTraversal stops it
	// without reporting an error.
	//
	// Parameters:
	//   - fn: the visitor
	//
	// Returns:
	//   - error: the first callback error other than ErrStopTraversal
	Traverse(fn func(Node) error) error

	// UpdateWorld recomputes every world matrix and pushes node placement into the
	// cameras and lights, which recompute their matrices.
	UpdateWorld()

	// Advance moves the animation time of every mesh node forward.
	//
	// Parameters:
	//   - dt: the elapsed time in seconds
	Advance(dt float32)

	// Environment returns the radiance cube lighting the scene.
	//
	// Returns:
	//   - *common.CubeStagingData: the environment faces
	Environment() *common.CubeStagingData
}

type scene struct {
	mu *sync.RWMutex

	name        string
	root        *GroupNode
	environment *common.CubeStagingData
	envSize     uint32
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// DefaultEnvironmentSize is the edge size of the generated sky when no environment is supplied.
const DefaultEnvironmentSize = 512

// NewScene creates an empty Scene configured with the provided options. Without
// WithEnvironment the scene is lit by a generated sky gradient.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:      &sync.RWMutex{},
		name:    name,
		root:    NewGroupNode("root"),
		envSize: DefaultEnvironmentSize,
	}
	for _, option := range options {
		option(s)
	}
	if s.environment == nil {
		s.environment = SkyGradient(s.envSize)
	}
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Root() *GroupNode {
	return s.root
}

func (s *scene) Add(nodes ...Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root.AddChild(nodes...)
}

func (s *scene) Traverse(fn func(Node) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	err := traverse(s.root, fn)
	if errors.Is(err, ErrStopTraversal) {
		return nil
	}
	return err
}

func traverse(n Node, fn func(Node) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, c := range n.Children() {
		if err := traverse(c, fn); err != nil {
			return err
		}
	}
	return nil
}

func (s *scene) UpdateWorld() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.root.updateWorld(mgl32.Ident4())
}

func (s *scene) Advance(dt float32) {
	_ = s.Traverse(func(n Node) error {
		if m, ok := n.(*MeshNode); ok {
			m.Advance(dt)
		}
		return nil
	})
}

func (s *scene) Environment() *common.CubeStagingData {
	return s.environment
}

// SkyGradient generates a simple sky: a bright horizon fading to blue overhead and to a
// dark ground below.
//
// Parameters:
//   - size: the face edge size
//
// Returns:
//   - *common.CubeStagingData: the environment faces
func SkyGradient(size uint32) *common.CubeStagingData {
	zenith := mgl32.Vec3{0.25, 0.45, 0.85}
	horizon := mgl32.Vec3{0.9, 0.9, 0.85}
	ground := mgl32.Vec3{0.2, 0.18, 0.16}
	env := common.NewCubeStagingData(size)
	env.Fill(func(dir mgl32.Vec3) mgl32.Vec3 {
		y := dir.Normalize().Y()
		if y >= 0 {
			return horizon.Add(zenith.Sub(horizon).Mul(y))
		}
		return horizon.Add(ground.Sub(horizon).Mul(mgl32.Clamp(-y*4, 0, 1)))
	})
	return env
}
