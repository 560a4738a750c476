package ibl

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Reference evaluates the precompute programs on the CPU over in-memory cube maps.
// Every face is convolved as its own task on the worker pool when one is set.
type Reference struct {
	pool        worker.DynamicWorkerPool
	sampleCount uint32
}

// NewReference creates a CPU reference using SampleCount samples per texel.
//
// Parameters:
//   - options: a variadic list of options to configure the reference
//
// Returns:
//   - *Reference: the reference
func NewReference(options ...ReferenceOption) *Reference {
	r := &Reference{sampleCount: SampleCount}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Diffuse convolves src into a size x size irradiance cube: the plain mean of the source
// radiance over cosine-distributed hemisphere samples around each texel direction.
//
// Parameters:
//   - src: the source radiance cube
//   - size: the output edge size
//
// Returns:
//   - *common.CubeStagingData: the irradiance cube
//   - error: error if a face task fails
func (r *Reference) Diffuse(src *common.CubeStagingData, size uint32) (*common.CubeStagingData, error) {
	return r.convolve(size, func(N mgl32.Vec3) mgl32.Vec3 {
		return r.DiffuseAt(src, N)
	})
}

// DiffuseAt returns the irradiance of src around direction N.
func (r *Reference) DiffuseAt(src *common.CubeStagingData, N mgl32.Vec3) mgl32.Vec3 {
	frame := TangentFrame(N)
	var sum mgl32.Vec3
	for i := uint32(0); i < r.sampleCount; i++ {
		L := frame.Mul3x1(HemisphereSampleCosine(Hammersley(i, r.sampleCount))).Normalize()
		sum = sum.Add(src.Sample(L))
	}
	return sum.Mul(1 / float32(r.sampleCount))
}

// Specular prefilters src for one mip of the specular chain. The output edge size is
// src.Size >> mip and the roughness is mip / (mipCount - 1).
//
// Parameters:
//   - src: the source radiance cube (mip 0)
//   - mip: the mip level to produce, at least 1
//   - mipCount: the length of the mip chain, mip 0 included
//
// Returns:
//   - *common.CubeStagingData: the prefiltered cube
//   - error: error if the mip is out of range or a face task fails
func (r *Reference) Specular(src *common.CubeStagingData, mip, mipCount uint32) (*common.CubeStagingData, error) {
	if mipCount < 2 || mip == 0 || mip >= mipCount {
		return nil, fmt.Errorf("ibl: specular mip %d out of range for a chain of %d", mip, mipCount)
	}
	roughness := float32(mip) / float32(mipCount-1)
	return r.convolve(max(src.Size>>mip, 1), func(N mgl32.Vec3) mgl32.Vec3 {
		return r.SpecularAt(src, N, roughness)
	})
}

// SpecularAt returns the GGX-prefiltered radiance of src around N with V = N.
// Samples below the horizon are skipped and the rest are weighted by NoL.
func (r *Reference) SpecularAt(src *common.CubeStagingData, N mgl32.Vec3, roughness float32) mgl32.Vec3 {
	alpha := roughness * roughness
	frame := TangentFrame(N)
	V := N
	var sum mgl32.Vec3
	var weight float32
	for i := uint32(0); i < r.sampleCount; i++ {
		H := frame.Mul3x1(GGXImportanceSample(Hammersley(i, r.sampleCount), alpha)).Normalize()
		L := H.Mul(2 * V.Dot(H)).Sub(V).Normalize()
		NoL := N.Dot(L)
		if NoL <= 0 {
			continue
		}
		sum = sum.Add(src.Sample(L).Mul(NoL))
		weight += NoL
	}
	return sum.Mul(1 / max(weight, 1e-5))
}

// convolve evaluates fn at every texel direction of a size x size cube, one task per face.
func (r *Reference) convolve(size uint32, fn func(N mgl32.Vec3) mgl32.Vec3) (*common.CubeStagingData, error) {
	out := common.NewCubeStagingData(size)
	n := int(size)
	face := func(f int) (int, error) {
		for y := 0; y < n; y++ {
			for x := 0; x < n; x++ {
				out.Set(f, x, y, fn(common.CubeTexelDirection(f, x, y, n)))
			}
		}
		return f, nil
	}

	if r.pool == nil {
		for f := 0; f < 6; f++ {
			if _, err := face(f); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	pending := make([]*common.Pending[int], 6)
	for f := range pending {
		pending[f] = common.Submit(r.pool, f, func() (int, error) { return face(f) })
	}
	if _, err := common.AwaitAll(pending); err != nil {
		return nil, err
	}
	return out, nil
}

// RadicalInverse mirrors the bits of i around the binary point (Van der Corput, base 2).
func RadicalInverse(i uint32) float32 {
	return float32(float64(bits.Reverse32(i)) * 2.3283064365386963e-10)
}

// Hammersley returns the i-th point of an n-point Hammersley set in [0, 1)².
func Hammersley(i, n uint32) mgl32.Vec2 {
	return mgl32.Vec2{float32(i) / float32(n), RadicalInverse(i)}
}

// ConcentricDisk maps the unit square onto the unit disk preserving relative area.
func ConcentricDisk(u mgl32.Vec2) mgl32.Vec2 {
	ox, oy := 2*u[0]-1, 2*u[1]-1
	if ox == 0 && oy == 0 {
		return mgl32.Vec2{}
	}
	r := oy
	theta := math.Pi/2 - (math.Pi/4)*float64(ox/oy)
	if abs32(ox) > abs32(oy) {
		r = ox
		theta = (math.Pi / 4) * float64(oy/ox)
	}
	return mgl32.Vec2{r * float32(math.Cos(theta)), r * float32(math.Sin(theta))}
}

// HemisphereSampleCosine warps a unit-square sample onto the +Y hemisphere with a cosine distribution.
func HemisphereSampleCosine(u mgl32.Vec2) mgl32.Vec3 {
	d := ConcentricDisk(u)
	h := float32(math.Sqrt(math.Max(0, float64(1-d[0]*d[0]-d[1]*d[1]))))
	return mgl32.Vec3{d[0], h, d[1]}
}

// GGXImportanceSample returns a half vector around +Y distributed by the GGX NDF with the given alpha.
func GGXImportanceSample(u mgl32.Vec2, alpha float32) mgl32.Vec3 {
	alpha2 := float64(alpha * alpha)
	phi := 2 * math.Pi * float64(u[0])
	cosTheta := math.Sqrt((1 - float64(u[1])) / (1 + (alpha2-1)*float64(u[1])))
	sinTheta := math.Sqrt(math.Max(0, 1-cosTheta*cosTheta))
	return mgl32.Vec3{
		float32(sinTheta * math.Cos(phi)),
		float32(cosTheta),
		float32(sinTheta * math.Sin(phi)),
	}
}

// TangentFrameThreshold is the |N.y| at which TangentFrame switches its up vector.
const TangentFrameThreshold = 0.999

// TangentFrame returns the basis (T, N, B) as matrix columns, mapping +Y onto N.
// The up vector switches from +Y to +X once |N.y| reaches TangentFrameThreshold.
func TangentFrame(N mgl32.Vec3) mgl32.Mat3 {
	up := mgl32.Vec3{0, 1, 0}
	if abs32(N[1]) >= TangentFrameThreshold {
		up = mgl32.Vec3{1, 0, 0}
	}
	T := up.Cross(N).Normalize()
	B := N.Cross(T)
	return mgl32.Mat3FromCols(T, N, B)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
