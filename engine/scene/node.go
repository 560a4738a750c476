package scene

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-pbr/engine/camera"
	"github.com/Carmen-Shannon/oxy-pbr/engine/light"
	"github.com/Carmen-Shannon/oxy-pbr/engine/model"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// NodeKind tags a node with the role it plays in the scene.
type NodeKind int

const (
	NodeKindGroup NodeKind = iota
	NodeKindCamera
	NodeKindLight
	NodeKindMesh
)

func (k NodeKind) String() string {
	switch k {
	case NodeKindGroup:
		return "group"
	case NodeKindCamera:
		return "camera"
	case NodeKindLight:
		return "light"
	case NodeKindMesh:
		return "mesh"
	default:
		return "unknown"
	}
}

// Node is a scene graph node. The set of implementations is closed: *GroupNode,
// *CameraNode, *LightNode and *MeshNode. Consumers switch on the concrete type once
// when they classify the scene.
type Node interface {
	// ID returns the unique node identifier.
	ID() uuid.UUID

	// Name returns the node name.
	Name() string

	// Kind returns the node's role.
	Kind() NodeKind

	// Parent returns the parent node, or nil for the root and detached nodes.
	Parent() Node

	// Children returns a copy of the child list.
	Children() []Node

	// AddChild attaches nodes below this one, detaching them from any previous parent.
	AddChild(children ...Node)

	// Local returns the transform relative to the parent.
	Local() model.Transform

	// SetLocal replaces the transform relative to the parent. World matrices follow on the next UpdateWorld.
	SetLocal(t model.Transform)

	// World returns the world matrix computed by the last UpdateWorld.
	World() mgl32.Mat4

	base() *nodeBase
	worldUpdated()
}

// nodeBase holds the hierarchy and transform state shared by every node type.
type nodeBase struct {
	mu       sync.RWMutex
	self     Node
	id       uuid.UUID
	name     string
	kind     NodeKind
	parent   Node
	children []Node
	local    model.Transform
	world    mgl32.Mat4
}

func (n *nodeBase) init(self Node, name string, kind NodeKind) {
	n.self = self
	n.id = uuid.New()
	n.name = name
	n.kind = kind
	n.local = model.IdentityTransform()
	n.world = mgl32.Ident4()
}

func (n *nodeBase) ID() uuid.UUID {
	return n.id
}

func (n *nodeBase) Name() string {
	return n.name
}

func (n *nodeBase) Kind() NodeKind {
	return n.kind
}

func (n *nodeBase) Parent() Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.parent
}

func (n *nodeBase) Children() []Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]Node(nil), n.children...)
}

func (n *nodeBase) AddChild(children ...Node) {
	for _, c := range children {
		if c == nil || c == n.self {
			continue
		}
		cb := c.base()
		if old := cb.Parent(); old != nil {
			old.base().removeChild(c)
		}
		cb.mu.Lock()
		cb.parent = n.self
		cb.mu.Unlock()

		n.mu.Lock()
		n.children = append(n.children, c)
		n.mu.Unlock()
	}
}

func (n *nodeBase) removeChild(c Node) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, existing := range n.children {
		if existing == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

func (n *nodeBase) Local() model.Transform {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.local
}

func (n *nodeBase) SetLocal(t model.Transform) {
	n.mu.Lock()
	n.local = t
	n.mu.Unlock()
}

func (n *nodeBase) World() mgl32.Mat4 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.world
}

func (n *nodeBase) base() *nodeBase {
	return n
}

func (n *nodeBase) worldUpdated() {}

// updateWorld recomputes the world matrix from the parent's and recurses into the children.
func (n *nodeBase) updateWorld(parent mgl32.Mat4) {
	n.mu.Lock()
	n.world = parent.Mul4(n.local.Matrix())
	world := n.world
	children := append([]Node(nil), n.children...)
	n.mu.Unlock()

	n.self.worldUpdated()
	for _, c := range children {
		c.base().updateWorld(world)
	}
}

// setTranslation moves the node without touching its rotation or scale.
func (n *nodeBase) setTranslation(p mgl32.Vec3) {
	n.mu.Lock()
	n.local.Translation = p
	n.mu.Unlock()
}

// worldPosition returns the translation column of the world matrix.
func (n *nodeBase) worldPosition() mgl32.Vec3 {
	return n.World().Col(3).Vec3()
}

// GroupNode is a plain transform node used to organize the hierarchy.
type GroupNode struct {
	nodeBase
}

// NewGroupNode creates an empty group node.
func NewGroupNode(name string) *GroupNode {
	g := &GroupNode{}
	g.init(g, name, NodeKindGroup)
	return g
}

// CameraNode places a camera in the scene. The node's world translation drives the
// camera position; the camera keeps its own look-at target.
type CameraNode struct {
	nodeBase
	camera camera.Camera
}

// NewCameraNode creates a camera node whose local translation starts at the camera position.
//
// Parameters:
//   - name: the node name
//   - cam: the camera
//
// Returns:
//   - *CameraNode: the node
func NewCameraNode(name string, cam camera.Camera) *CameraNode {
	c := &CameraNode{camera: cam}
	c.init(c, name, NodeKindCamera)
	c.setTranslation(cam.Position())
	return c
}

// Camera returns the camera.
func (c *CameraNode) Camera() camera.Camera {
	return c.camera
}

func (c *CameraNode) worldUpdated() {
	c.camera.SetPosition(c.worldPosition())
}

// LightNode places a light in the scene. For point lights the node's world
// translation drives the light position.
type LightNode struct {
	nodeBase
	light light.Light
}

// NewLightNode creates a light node. A point light's position becomes the node's local translation.
//
// Parameters:
//   - name: the node name
//   - l: the light
//
// Returns:
//   - *LightNode: the node
func NewLightNode(name string, l light.Light) *LightNode {
	n := &LightNode{light: l}
	n.init(n, name, NodeKindLight)
	if l.Type() == light.LightTypePoint {
		n.setTranslation(l.Position())
	}
	return n
}

// Light returns the light.
func (n *LightNode) Light() light.Light {
	return n.light
}

func (n *LightNode) worldUpdated() {
	if n.light.Type() == light.LightTypePoint {
		n.light.SetPosition(n.worldPosition())
	}
	n.light.Update()
}

// MeshNode draws a model with a material. Skinned models are posed from the node's
// active clip at its animation time.
type MeshNode struct {
	nodeBase
	model    model.Model
	material material.Material

	animMu sync.Mutex
	clip   *model.AnimationClip
	time   float32
}

// NewMeshNode creates a mesh node.
//
// Parameters:
//   - name: the node name
//   - m: the geometry
//   - mat: the surface material, a default material when nil
//
// Returns:
//   - *MeshNode: the node
func NewMeshNode(name string, m model.Model, mat material.Material) *MeshNode {
	if mat == nil {
		mat = material.NewMaterial()
	}
	n := &MeshNode{model: m, material: mat}
	n.init(n, name, NodeKindMesh)
	return n
}

// Model returns the geometry.
func (n *MeshNode) Model() model.Model {
	return n.model
}

// Material returns the surface material.
func (n *MeshNode) Material() material.Material {
	return n.material
}

// Play selects the animation clip by name and rewinds it. An unknown name stops playback.
//
// Parameters:
//   - clip: the clip name
//
// Returns:
//   - bool: true if the clip exists
func (n *MeshNode) Play(clip string) bool {
	n.animMu.Lock()
	defer n.animMu.Unlock()
	n.clip = n.model.Animation(clip)
	n.time = 0
	return n.clip != nil
}

// Advance moves the animation time forward.
func (n *MeshNode) Advance(dt float32) {
	n.animMu.Lock()
	n.time += dt
	n.animMu.Unlock()
}

// Animation returns the active clip, or nil, and the current animation time.
func (n *MeshNode) Animation() (*model.AnimationClip, float32) {
	n.animMu.Lock()
	defer n.animMu.Unlock()
	return n.clip, n.time
}

var (
	_ Node = &GroupNode{}
	_ Node = &CameraNode{}
	_ Node = &LightNode{}
	_ Node = &MeshNode{}
)
