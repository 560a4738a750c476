package scene

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-pbr/engine/camera"
	"github.com/Carmen-Shannon/oxy-pbr/engine/light"
	"github.com/Carmen-Shannon/oxy-pbr/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(t *testing.T, s Scene) []string {
	t.Helper()
	var out []string
	require.NoError(t, s.Traverse(func(n Node) error {
		out = append(out, n.Name())
		return nil
	}))
	return out
}

func TestTraverseIsDepthFirstPreOrder(t *testing.T) {
	group := NewGroupNode("group")
	a := NewMeshNode("a", model.NewCube("cube", 1), nil)
	b := NewMeshNode("b", model.NewCube("cube", 1), nil)
	group.AddChild(a)
	s := NewScene("test", WithEnvironmentSize(4), WithNodes(group, b))

	assert.Equal(t, []string{"root", "group", "a", "b"}, names(t, s))
	assert.Same(t, group, a.Parent())
}

func TestTraverseStops(t *testing.T) {
	s := NewScene("test", WithEnvironmentSize(4), WithNodes(NewGroupNode("a"), NewGroupNode("b")))

	var visited int
	err := s.Traverse(func(n Node) error {
		visited++
		if n.Name() == "a" {
			return ErrStopTraversal
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, visited)

	boom := errors.New("boom")
	assert.ErrorIs(t, s.Traverse(func(Node) error { return boom }), boom)
}

func TestAddChildReparents(t *testing.T) {
	a, b := NewGroupNode("a"), NewGroupNode("b")
	child := NewGroupNode("child")
	a.AddChild(child)
	b.AddChild(child)
	assert.Empty(t, a.Children())
	assert.Equal(t, []Node{child}, b.Children())
	assert.Same(t, b, child.Parent())
}

func TestUpdateWorldPropagatesToCameraAndLight(t *testing.T) {
	rig := NewGroupNode("rig")
	local := model.IdentityTransform()
	local.Translation = mgl32.Vec3{10, 0, 0}
	rig.SetLocal(local)

	cam := NewCameraNode("camera", camera.NewCamera(camera.WithPosition(mgl32.Vec3{0, 0, 5})))
	lamp := NewLightNode("lamp", light.NewLight(light.LightTypePoint, light.WithPosition(mgl32.Vec3{0, 3, 0})))
	rig.AddChild(cam, lamp)

	s := NewScene("test", WithEnvironmentSize(4), WithNodes(rig))
	s.UpdateWorld()

	assert.Equal(t, mgl32.Vec3{10, 0, 5}, cam.Camera().Position())
	assert.Equal(t, mgl32.Vec3{10, 3, 0}, lamp.Light().Position())
	assert.Equal(t, mgl32.Vec3{10, 3, 0}, lamp.World().Col(3).Vec3())
}

func TestMeshNodeAnimationClock(t *testing.T) {
	clip := &model.AnimationClip{Name: "idle", Duration: 1}
	n := NewMeshNode("m", model.NewModel(model.WithAnimations(clip)), nil)
	require.NotNil(t, n.Material())

	assert.False(t, n.Play("missing"))
	assert.True(t, n.Play("idle"))

	s := NewScene("test", WithEnvironmentSize(4), WithNodes(n))
	s.Advance(0.25)
	s.Advance(0.25)
	got, at := n.Animation()
	assert.Same(t, clip, got)
	assert.InDelta(t, 0.5, at, 1e-6)
}

func TestDefaultEnvironmentIsSky(t *testing.T) {
	env := NewScene("test", WithEnvironmentSize(8)).Environment()
	require.Equal(t, uint32(8), env.Size)
	up := env.Sample(mgl32.Vec3{0, 1, 0})
	down := env.Sample(mgl32.Vec3{0, -1, 0})
	assert.Greater(t, up.Z(), up.X(), "zenith is blue")
	assert.Less(t, down.Len(), up.Len())
}
