package model

import "github.com/go-gl/mathgl/mgl32"

// --- Vertex Types ---

// Vertex is one mesh vertex with every attribute a program may consume.
// Attributes a program does not read are dropped when the mesh is interleaved.
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
	// Tangent holds the tangent direction (xyz) and bitangent handedness (w).
	Tangent mgl32.Vec4
	// Joints indexes up to 4 influencing bones of the skeleton.
	Joints [4]uint32
	// Weights are the blend weights of Joints and sum to 1.
	Weights mgl32.Vec4
}

// --- Transform & Skeleton Types ---

// Transform represents a decomposed translation, rotation and scale.
type Transform struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

// IdentityTransform returns a transform with unit scale and no rotation or translation.
func IdentityTransform() Transform {
	return Transform{Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}
}

// Matrix composes the transform as T * R * S.
func (t Transform) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Translation[0], t.Translation[1], t.Translation[2]).
		Mul4(t.Rotation.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// Bone represents a single bone in a skeleton hierarchy.
type Bone struct {
	// Name is the bone's identifier (for debugging and animation targeting).
	Name string

	// ParentIndex is the index of the parent bone (-1 for root bones).
	// Parents always precede their children.
	ParentIndex int32

	// InverseBindMatrix transforms from model space to bone space at bind pose.
	InverseBindMatrix mgl32.Mat4

	// LocalTransform is the bone's rest transform relative to its parent.
	LocalTransform Transform
}

// Skeleton represents a bone hierarchy for skeletal animation.
type Skeleton struct {
	Bones []Bone
}

// --- Animation Types ---

// AnimationClip is a named set of per-bone keyframe channels.
type AnimationClip struct {
	Name     string
	Duration float32
	Channels []AnimationChannel
}

// AnimationChannel contains keyframe data for a single bone. Keys are sorted by time.
type AnimationChannel struct {
	BoneIndex    int32
	PositionKeys []VectorKeyframe
	RotationKeys []QuaternionKeyframe
	ScaleKeys    []VectorKeyframe
}

// VectorKeyframe stores a 3D vector value at a specific time in seconds.
type VectorKeyframe struct {
	Time  float32
	Value mgl32.Vec3
}

// QuaternionKeyframe stores a rotation at a specific time in seconds.
type QuaternionKeyframe struct {
	Time  float32
	Value mgl32.Quat
}
