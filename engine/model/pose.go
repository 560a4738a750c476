package model

import (
	"math"
	"sort"

	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/resource"
	"github.com/go-gl/mathgl/mgl32"
)

// Pose is the animated state of a skeleton: one local transform per bone and the
// joint matrices derived from them. A Pose is not safe for concurrent use.
type Pose struct {
	skeleton *Skeleton
	locals   []Transform
	globals  []mgl32.Mat4
	joints   []mgl32.Mat4
}

// NewPose creates a pose of the skeleton at its rest transforms.
//
// Parameters:
//   - skeleton: the skeleton to pose
//
// Returns:
//   - *Pose: the rest pose
func NewPose(skeleton *Skeleton) *Pose {
	n := len(skeleton.Bones)
	p := &Pose{
		skeleton: skeleton,
		locals:   make([]Transform, n),
		globals:  make([]mgl32.Mat4, n),
		joints:   make([]mgl32.Mat4, n),
	}
	p.Reset()
	return p
}

// Reset restores the rest transforms.
func (p *Pose) Reset() {
	for i, b := range p.skeleton.Bones {
		p.locals[i] = b.LocalTransform
	}
	p.compute()
}

// Sample sets the pose to a clip evaluated at time t in seconds. Time wraps around the
// clip duration. Bones without a channel keep their rest transform.
//
// Parameters:
//   - clip: the clip to evaluate
//   - t: the playback time in seconds
func (p *Pose) Sample(clip *AnimationClip, t float32) {
	for i, b := range p.skeleton.Bones {
		p.locals[i] = b.LocalTransform
	}
	if clip != nil {
		if clip.Duration > 0 {
			t = float32(math.Mod(float64(t), float64(clip.Duration)))
			if t < 0 {
				t += clip.Duration
			}
		}
		for _, ch := range clip.Channels {
			if ch.BoneIndex < 0 || int(ch.BoneIndex) >= len(p.locals) {
				continue
			}
			local := &p.locals[ch.BoneIndex]
			if len(ch.PositionKeys) > 0 {
				local.Translation = sampleVector(ch.PositionKeys, t)
			}
			if len(ch.RotationKeys) > 0 {
				local.Rotation = sampleRotation(ch.RotationKeys, t)
			}
			if len(ch.ScaleKeys) > 0 {
				local.Scale = sampleVector(ch.ScaleKeys, t)
			}
		}
	}
	p.compute()
}

// JointMatrices returns the skinning matrices, global bone transform times inverse bind matrix.
func (p *Pose) JointMatrices() []mgl32.Mat4 {
	return p.joints
}

// Marshal serializes the joint matrices as an array<mat4x4<f32>>.
//
// Returns:
//   - []byte: the joint matrix bytes, at least one matrix long
func (p *Pose) Marshal() []byte {
	buf := make([]byte, max(len(p.joints), 1)*resource.JointMatrixSize)
	if len(p.joints) == 0 {
		common.PutMat4(buf, 0, mgl32.Ident4())
		return buf
	}
	off := 0
	for _, m := range p.joints {
		off = common.PutMat4(buf, off, m)
	}
	return buf
}

func (p *Pose) compute() {
	for i, b := range p.skeleton.Bones {
		local := p.locals[i].Matrix()
		if b.ParentIndex >= 0 && int(b.ParentIndex) < i {
			p.globals[i] = p.globals[b.ParentIndex].Mul4(local)
		} else {
			p.globals[i] = local
		}
		p.joints[i] = p.globals[i].Mul4(b.InverseBindMatrix)
	}
}

// keyIndex returns the index of the last key at or before t, and the blend factor toward the next key.
func keyIndex(n int, timeAt func(int) float32, t float32) (int, float32) {
	next := sort.Search(n, func(i int) bool { return timeAt(i) > t })
	if next == 0 {
		return 0, 0
	}
	if next == n {
		return n - 1, 0
	}
	t0, t1 := timeAt(next-1), timeAt(next)
	return next - 1, (t - t0) / (t1 - t0)
}

func sampleVector(keys []VectorKeyframe, t float32) mgl32.Vec3 {
	i, f := keyIndex(len(keys), func(i int) float32 { return keys[i].Time }, t)
	if f == 0 {
		return keys[i].Value
	}
	a, b := keys[i].Value, keys[i+1].Value
	return a.Add(b.Sub(a).Mul(f))
}

func sampleRotation(keys []QuaternionKeyframe, t float32) mgl32.Quat {
	i, f := keyIndex(len(keys), func(i int) float32 { return keys[i].Time }, t)
	if f == 0 {
		return keys[i].Value
	}
	return mgl32.QuatSlerp(keys[i].Value, keys[i+1].Value, f)
}
