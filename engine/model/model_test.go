package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f32(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func TestInterleaveFollowsProgramInputs(t *testing.T) {
	cube := NewCube("cube", 2)
	inputs := shader.VertexInputs(shader.FeatureSet{}.With(cube.Features()...))
	require.Len(t, inputs, 4, "position, normal, uv, tangent")

	data, stride, err := Interleave(cube, inputs)
	require.NoError(t, err)
	assert.Equal(t, uint64(48), stride)
	assert.Len(t, data, 24*48)

	v := cube.Vertices()[5]
	assert.Equal(t, v.Position[0], f32(data, 5*48))
	assert.Equal(t, v.UV[1], f32(data, 5*48+28))
	assert.Equal(t, v.Tangent[3], f32(data, 5*48+44))

	plain := shader.VertexInputs(shader.NewFeatureSet())
	data, stride, err = Interleave(cube, plain)
	require.NoError(t, err)
	assert.Equal(t, uint64(32), stride)
	assert.Len(t, data, 24*32)
}

func TestInterleaveRejectsMissingAttributes(t *testing.T) {
	m := NewModel(WithName("flat"), WithVertices(make([]Vertex, 3)))
	_, _, err := Interleave(m, shader.VertexInputs(shader.NewFeatureSet("tangent")))
	assert.ErrorContains(t, err, "no tangents")
	_, _, err = Interleave(m, shader.VertexInputs(shader.NewFeatureSet("skinned")))
	assert.ErrorContains(t, err, "not skinned")
}

func TestPrimitiveTangentsAreOrthonormal(t *testing.T) {
	for _, m := range []Model{NewPlane("plane", 1), NewCube("cube", 1), NewSphere("sphere", 1, 8, 6)} {
		for _, v := range m.Vertices() {
			tan := v.Tangent.Vec3()
			assert.InDelta(t, 1, tan.Len(), 1e-4, m.Name())
			assert.InDelta(t, 0, tan.Dot(v.Normal), 1e-4, m.Name())
		}
		for _, idx := range m.Indices() {
			assert.Less(t, int(idx), len(m.Vertices()))
		}
	}
	assert.InDelta(t, 1, ComputeBoundingRadius(NewSphere("s", 1, 8, 6).Vertices()), 1e-5)
}

func TestIndexData(t *testing.T) {
	data := IndexData(NewPlane("plane", 1))
	require.Len(t, data, 24)
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[8:]))
	assert.Nil(t, IndexData(NewModel()))
}

func twoBoneSkeleton() *Skeleton {
	child := IdentityTransform()
	child.Translation = mgl32.Vec3{0, 1, 0}
	return &Skeleton{Bones: []Bone{
		{Name: "root", ParentIndex: -1, InverseBindMatrix: mgl32.Ident4(), LocalTransform: IdentityTransform()},
		{Name: "tip", ParentIndex: 0, InverseBindMatrix: mgl32.Translate3D(0, -1, 0), LocalTransform: child},
	}}
}

func TestRestPoseJointsAreIdentity(t *testing.T) {
	p := NewPose(twoBoneSkeleton())
	for _, j := range p.JointMatrices() {
		assert.True(t, j.ApproxEqualThreshold(mgl32.Ident4(), 1e-5))
	}
	assert.Len(t, p.Marshal(), 2*resource.JointMatrixSize)
}

func TestPoseSampleInterpolatesAndPropagates(t *testing.T) {
	clip := &AnimationClip{
		Name:     "lift",
		Duration: 2,
		Channels: []AnimationChannel{{
			BoneIndex: 0,
			PositionKeys: []VectorKeyframe{
				{Time: 0, Value: mgl32.Vec3{0, 0, 0}},
				{Time: 2, Value: mgl32.Vec3{0, 2, 0}},
			},
		}},
	}
	m := NewModel(WithSkeleton(twoBoneSkeleton()), WithAnimations(clip))
	require.True(t, m.Skinned())
	require.Same(t, clip, m.Animation("lift"))

	p := NewPose(m.Skeleton())
	p.Sample(clip, 1)
	tip := p.JointMatrices()[1].Mul4x1(mgl32.Vec4{0, 1, 0, 1})
	assert.InDelta(t, 2, tip.Y(), 1e-5, "the child follows the root")

	p.Sample(clip, 3)
	again := p.JointMatrices()[0].Col(3)
	assert.InDelta(t, 1, again.Y(), 1e-5, "time wraps around the duration")
}
