package model

import (
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/shader"
)

// model is the implementation of the Model interface.
type model struct {
	name        string
	vertices    []Vertex
	indices     []uint32
	hasTangents bool
	skeleton    *Skeleton
	animations  []*AnimationClip
}

// Model defines the interface for the raw geometry of a mesh node: vertices, indices,
// and for skinned meshes the skeleton and its animation clips.
//
// A Model is immutable once built and may be shared by many mesh nodes.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the name of the model
	Name() string

	// Vertices retrieves the vertex list.
	//
	// Returns:
	//   - []Vertex: the vertices
	Vertices() []Vertex

	// Indices retrieves the triangle list indices, or nil for a non-indexed mesh.
	//
	// Returns:
	//   - []uint32: the indices
	Indices() []uint32

	// HasTangents reports whether the vertices carry tangents.
	//
	// Returns:
	//   - bool: true if tangents are present
	HasTangents() bool

	// Skinned reports whether the model has a skeleton.
	//
	// Returns:
	//   - bool: true if the model is skinned
	Skinned() bool

	// Skeleton retrieves the bone hierarchy, or nil for static models.
	//
	// Returns:
	//   - *Skeleton: the skeleton or nil
	Skeleton() *Skeleton

	// Animations retrieves the animation clips.
	//
	// Returns:
	//   - []*AnimationClip: the clips
	Animations() []*AnimationClip

	// Animation retrieves a clip by name.
	//
	// Parameters:
	//   - name: the clip name
	//
	// Returns:
	//   - *AnimationClip: the clip, or nil if not found
	Animation(name string) *AnimationClip

	// Features retrieves the shader features the vertex attributes enable.
	//
	// Returns:
	//   - []shader.Feature: tangent and skinned features, as present
	Features() []shader.Feature
}

var _ Model = &model{}

// NewModel creates a new Model instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of ModelBuilderOption functions to configure the model
//
// Returns:
//   - Model: the new model
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Vertices() []Vertex {
	return m.vertices
}

func (m *model) Indices() []uint32 {
	return m.indices
}

func (m *model) HasTangents() bool {
	return m.hasTangents
}

func (m *model) Skinned() bool {
	return m.skeleton != nil && len(m.skeleton.Bones) > 0
}

func (m *model) Skeleton() *Skeleton {
	return m.skeleton
}

func (m *model) Animations() []*AnimationClip {
	return m.animations
}

func (m *model) Animation(name string) *AnimationClip {
	for _, clip := range m.animations {
		if clip.Name == name {
			return clip
		}
	}
	return nil
}

func (m *model) Features() []shader.Feature {
	var features []shader.Feature
	if m.hasTangents {
		features = append(features, shader.FeatureTangent)
	}
	if m.Skinned() {
		features = append(features, shader.FeatureSkinned)
	}
	return features
}
