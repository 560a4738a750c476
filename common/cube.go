package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// CubeFaceMatrices maps a face-local (u, v, 1) vector to a world direction for each
// cube face, ordered +X, -X, +Y, -Y, +Z, -Z. The matrices are column-major and are
// emitted verbatim into the precompute programs.
var CubeFaceMatrices = [6]mgl32.Mat3{
	{0, 0, -1, 0, -1, 0, 1, 0, 0},
	{0, 0, 1, 0, -1, 0, -1, 0, 0},
	{1, 0, 0, 0, 0, 1, 0, 1, 0},
	{1, 0, 0, 0, 0, -1, 0, -1, 0},
	{1, 0, 0, 0, -1, 0, 0, 0, 1},
	{-1, 0, 0, 0, -1, 0, 0, 0, -1},
}

// CubeTexelDirection reconstructs the normalized world direction through the center
// of texel (x, y) of the given face of a cube with edge size n.
//
// Parameters:
//   - face: the face index in [0, 6)
//   - x, y: the texel coordinates
//   - n: the face edge size in texels
//
// Returns:
//   - mgl32.Vec3: the unit direction
func CubeTexelDirection(face, x, y, n int) mgl32.Vec3 {
	half := float32(n) / 2
	u := (float32(x) + 0.5 - half) / half
	v := (float32(y) + 0.5 - half) / half
	return CubeFaceMatrices[face].Mul3x1(mgl32.Vec3{u, v, 1}).Normalize()
}

// CubeDirectionTexel is the inverse of CubeTexelDirection: it selects the face of the
// dominant axis and returns the texel containing the direction.
func CubeDirectionTexel(dir mgl32.Vec3, n int) (face, x, y int) {
	ax, ay, az := abs32(dir[0]), abs32(dir[1]), abs32(dir[2])
	var sc, tc, ma float32
	switch {
	case ax >= ay && ax >= az:
		ma = ax
		if dir[0] > 0 {
			face, sc, tc = 0, -dir[2], -dir[1]
		} else {
			face, sc, tc = 1, dir[2], -dir[1]
		}
	case ay >= az:
		ma = ay
		if dir[1] > 0 {
			face, sc, tc = 2, dir[0], dir[2]
		} else {
			face, sc, tc = 3, dir[0], -dir[2]
		}
	default:
		ma = az
		if dir[2] > 0 {
			face, sc, tc = 4, dir[0], -dir[1]
		} else {
			face, sc, tc = 5, -dir[0], -dir[1]
		}
	}
	half := float32(n) / 2
	x = clampInt(int(math.Floor(float64(sc/ma*half+half))), 0, n-1)
	y = clampInt(int(math.Floor(float64(tc/ma*half+half))), 0, n-1)
	return face, x, y
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
