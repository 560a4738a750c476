package model

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// attributeSizes maps the WGSL types of vertex inputs to their packed byte size.
var attributeSizes = map[string]int{
	"f32":       4,
	"vec2<f32>": 8,
	"vec3<f32>": 12,
	"vec4<f32>": 16,
	"vec4<u32>": 16,
}

// Stride returns the packed byte size of one vertex carrying the given inputs.
//
// Parameters:
//   - inputs: the program's vertex inputs in location order
//
// Returns:
//   - uint64: the vertex stride
//   - error: error if an input type has no known size
func Stride(inputs []shader.VertexAttribute) (uint64, error) {
	var stride int
	for _, in := range inputs {
		size, ok := attributeSizes[in.Type]
		if !ok {
			return 0, fmt.Errorf("vertex input %s has unsupported type %s", in.Name, in.Type)
		}
		stride += size
	}
	return uint64(stride), nil
}

// Interleave packs the vertices of a model into one buffer holding exactly the given
// inputs, in order and without padding, matching the vertex buffer layout reflected
// from the program.
//
// Parameters:
//   - m: the model to pack
//   - inputs: the program's vertex inputs in location order
//
// Returns:
//   - []byte: the packed vertex data
//   - uint64: the vertex stride
//   - error: error if an input is unknown or the model lacks it
func Interleave(m Model, inputs []shader.VertexAttribute) ([]byte, uint64, error) {
	stride, err := Stride(inputs)
	if err != nil {
		return nil, 0, err
	}
	for _, in := range inputs {
		switch in.Name {
		case "tangent":
			if !m.HasTangents() {
				return nil, 0, fmt.Errorf("model %s has no tangents", m.Name())
			}
		case "joints", "weights":
			if !m.Skinned() {
				return nil, 0, fmt.Errorf("model %s is not skinned", m.Name())
			}
		}
	}

	vertices := m.Vertices()
	buf := make([]byte, uint64(len(vertices))*stride)
	off := 0
	for _, v := range vertices {
		for _, in := range inputs {
			switch in.Name {
			case "position":
				off = common.PutFloats(buf, off, v.Position[:]...)
			case "normal":
				off = common.PutFloats(buf, off, v.Normal[:]...)
			case "uv":
				off = common.PutFloats(buf, off, v.UV[:]...)
			case "tangent":
				off = common.PutFloats(buf, off, v.Tangent[:]...)
			case "joints":
				for _, j := range v.Joints {
					binary.LittleEndian.PutUint32(buf[off:], j)
					off += 4
				}
			case "weights":
				off = common.PutFloats(buf, off, v.Weights[:]...)
			default:
				return nil, 0, fmt.Errorf("unknown vertex input %s", in.Name)
			}
		}
	}
	return buf, stride, nil
}

// IndexData serializes the indices of a model as little-endian uint32 values.
//
// Parameters:
//   - m: the model
//
// Returns:
//   - []byte: the index data, nil for a non-indexed model
func IndexData(m Model) []byte {
	indices := m.Indices()
	if len(indices) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(indices))
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

// ComputeBoundingRadius calculates the bounding sphere radius of a vertex list: the
// maximum distance from the origin across all vertices.
//
// Parameters:
//   - vertices: the vertex data to compute the bounding radius from
//
// Returns:
//   - float32: the maximum distance from the origin
func ComputeBoundingRadius(vertices []Vertex) float32 {
	var maxDistSq float32
	for _, v := range vertices {
		if d := v.Position.Dot(v.Position); d > maxDistSq {
			maxDistSq = d
		}
	}
	return float32(math.Sqrt(float64(maxDistSq)))
}

// GenerateTangents fills the Tangent of every vertex of an indexed triangle list from
// its UV gradients. The handedness in w is -1 where the UV mapping is mirrored.
// Vertices not referenced by any triangle keep a tangent orthogonal to their normal.
//
// Parameters:
//   - vertices: the vertices, modified in place
//   - indices: the triangle list indices
func GenerateTangents(vertices []Vertex, indices []uint32) {
	tan := make([]mgl32.Vec3, len(vertices))
	bitan := make([]mgl32.Vec3, len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		v0, v1, v2 := vertices[a], vertices[b], vertices[c]
		e1, e2 := v1.Position.Sub(v0.Position), v2.Position.Sub(v0.Position)
		d1, d2 := v1.UV.Sub(v0.UV), v2.UV.Sub(v0.UV)
		det := d1[0]*d2[1] - d2[0]*d1[1]
		if det == 0 {
			continue
		}
		r := 1 / det
		t := e1.Mul(d2[1]).Sub(e2.Mul(d1[1])).Mul(r)
		bt := e2.Mul(d1[0]).Sub(e1.Mul(d2[0])).Mul(r)
		for _, idx := range [3]uint32{a, b, c} {
			tan[idx] = tan[idx].Add(t)
			bitan[idx] = bitan[idx].Add(bt)
		}
	}
	for i := range vertices {
		n := vertices[i].Normal
		t := tan[i].Sub(n.Mul(n.Dot(tan[i])))
		if t.Len() < 1e-6 {
			t = orthogonal(n)
		}
		t = t.Normalize()
		w := float32(1)
		if n.Cross(t).Dot(bitan[i]) < 0 {
			w = -1
		}
		vertices[i].Tangent = t.Vec4(w)
	}
}

func orthogonal(n mgl32.Vec3) mgl32.Vec3 {
	if math.Abs(float64(n[0])) < 0.9 {
		return mgl32.Vec3{1, 0, 0}.Cross(n)
	}
	return mgl32.Vec3{0, 1, 0}.Cross(n)
}
