package model

// ModelBuilderOption is a function that configures a model instance during construction.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the model.
//
// Parameters:
//   - name: the identifier for the model
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithVertices is an option builder that sets the vertex list.
//
// Parameters:
//   - vertices: the vertices
//
// Returns:
//   - ModelBuilderOption: a function that applies the vertices to a model
func WithVertices(vertices []Vertex) ModelBuilderOption {
	return func(m *model) {
		m.vertices = vertices
	}
}

// WithIndices is an option builder that sets the triangle list indices.
//
// Parameters:
//   - indices: the indices
//
// Returns:
//   - ModelBuilderOption: a function that applies the indices to a model
func WithIndices(indices []uint32) ModelBuilderOption {
	return func(m *model) {
		m.indices = indices
	}
}

// WithTangents is an option builder that marks the vertex tangents as valid.
// When the vertices carry no tangents, GenerateTangents can fill them in first.
//
// Parameters:
//   - hasTangents: whether tangents are present
//
// Returns:
//   - ModelBuilderOption: a function that applies the tangent flag to a model
func WithTangents(hasTangents bool) ModelBuilderOption {
	return func(m *model) {
		m.hasTangents = hasTangents
	}
}

// WithSkeleton is an option builder that sets the bone hierarchy for a skinned model.
//
// Parameters:
//   - skeleton: the skeleton
//
// Returns:
//   - ModelBuilderOption: a function that applies the skeleton to a model
func WithSkeleton(skeleton *Skeleton) ModelBuilderOption {
	return func(m *model) {
		m.skeleton = skeleton
	}
}

// WithAnimations is an option builder that sets the animation clips of a skinned model.
//
// Parameters:
//   - animations: the clips
//
// Returns:
//   - ModelBuilderOption: a function that applies the clips to a model
func WithAnimations(animations ...*AnimationClip) ModelBuilderOption {
	return func(m *model) {
		m.animations = animations
	}
}
