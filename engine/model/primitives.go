package model

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// NewPlane creates a size x size plane in the XZ plane facing +Y, with tangents.
//
// Parameters:
//   - name: the model name
//   - size: the edge length
//
// Returns:
//   - Model: the plane
func NewPlane(name string, size float32) Model {
	h := size / 2
	vertices := []Vertex{
		{Position: mgl32.Vec3{-h, 0, h}, Normal: mgl32.Vec3{0, 1, 0}, UV: mgl32.Vec2{0, 1}},
		{Position: mgl32.Vec3{h, 0, h}, Normal: mgl32.Vec3{0, 1, 0}, UV: mgl32.Vec2{1, 1}},
		{Position: mgl32.Vec3{h, 0, -h}, Normal: mgl32.Vec3{0, 1, 0}, UV: mgl32.Vec2{1, 0}},
		{Position: mgl32.Vec3{-h, 0, -h}, Normal: mgl32.Vec3{0, 1, 0}, UV: mgl32.Vec2{0, 0}},
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}
	GenerateTangents(vertices, indices)
	return NewModel(WithName(name), WithVertices(vertices), WithIndices(indices), WithTangents(true))
}

// cubeFaces lists the normal, right and up axes of each cube face.
var cubeFaces = [6][3]mgl32.Vec3{
	{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
	{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
	{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
	{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
}

// NewCube creates an axis-aligned cube centered on the origin with per-face normals and tangents.
//
// Parameters:
//   - name: the model name
//   - size: the edge length
//
// Returns:
//   - Model: the cube
func NewCube(name string, size float32) Model {
	h := size / 2
	vertices := make([]Vertex, 0, 24)
	indices := make([]uint32, 0, 36)
	corners := [4]mgl32.Vec2{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for _, f := range cubeFaces {
		n, r, u := f[0], f[1], f[2]
		base := uint32(len(vertices))
		for _, c := range corners {
			p := n.Add(r.Mul(c[0])).Add(u.Mul(c[1])).Mul(h)
			vertices = append(vertices, Vertex{
				Position: p,
				Normal:   n,
				UV:       mgl32.Vec2{(c[0] + 1) / 2, (1 - c[1]) / 2},
			})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	GenerateTangents(vertices, indices)
	return NewModel(WithName(name), WithVertices(vertices), WithIndices(indices), WithTangents(true))
}

// NewSphere creates a UV sphere centered on the origin with tangents.
//
// Parameters:
//   - name: the model name
//   - radius: the sphere radius
//   - segments: the number of longitudinal slices, at least 3
//   - rings: the number of latitudinal bands, at least 2
//
// Returns:
//   - Model: the sphere
func NewSphere(name string, radius float32, segments, rings int) Model {
	segments, rings = max(segments, 3), max(rings, 2)
	vertices := make([]Vertex, 0, (segments+1)*(rings+1))
	for r := 0; r <= rings; r++ {
		v := float64(r) / float64(rings)
		theta := v * math.Pi
		for s := 0; s <= segments; s++ {
			u := float64(s) / float64(segments)
			phi := u * 2 * math.Pi
			n := mgl32.Vec3{
				float32(-math.Cos(phi) * math.Sin(theta)),
				float32(math.Cos(theta)),
				float32(math.Sin(phi) * math.Sin(theta)),
			}
			vertices = append(vertices, Vertex{Position: n.Mul(radius), Normal: n, UV: mgl32.Vec2{float32(u), float32(v)}})
		}
	}

	indices := make([]uint32, 0, segments*rings*6)
	row := uint32(segments + 1)
	for r := uint32(0); r < uint32(rings); r++ {
		for s := uint32(0); s < uint32(segments); s++ {
			a := r*row + s
			b := a + row
			if r != 0 {
				indices = append(indices, a, b, a+1)
			}
			if r != uint32(rings)-1 {
				indices = append(indices, a+1, b, b+1)
			}
		}
	}
	GenerateTangents(vertices, indices)
	return NewModel(WithName(name), WithVertices(vertices), WithIndices(indices), WithTangents(true))
}
