package game_object

import (
	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/resource"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUTransform is the GPU-aligned representation of the per-object transform uniform.
// Matches the WGSL Transform struct layout exactly.
// Size: 128 bytes.
type GPUTransform struct {
	Model  mgl32.Mat4 // offset  0: object-to-world matrix
	Normal mgl32.Mat4 // offset 64: inverse-transpose of Model
}

// NewGPUTransform builds the transform uniform of a world matrix.
func NewGPUTransform(world mgl32.Mat4) GPUTransform {
	return GPUTransform{Model: world, Normal: common.NormalMatrix(world)}
}

// Size returns the size of the uniform in bytes.
func (g *GPUTransform) Size() int {
	return resource.TransformSize
}

// Marshal serializes the transform into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUTransform) Marshal() []byte {
	buf := make([]byte, g.Size())
	off := common.PutMat4(buf, 0, g.Model)
	common.PutMat4(buf, off, g.Normal)
	return buf
}
