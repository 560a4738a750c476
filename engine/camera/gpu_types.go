package camera

import (
	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/resource"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer.
// Matches the WGSL Camera struct layout exactly.
// Size: 144 bytes.
type GPUCameraUniform struct {
	Position   mgl32.Vec3 // offset   0: world-space eye position, padded to 16 bytes
	View       mgl32.Mat4 // offset  16: view matrix
	Projection mgl32.Mat4 // offset  80: projection matrix
}

// Size returns the size of the uniform in bytes.
//
// Returns:
//   - int: the uniform size in bytes (144)
func (g *GPUCameraUniform) Size() int {
	return resource.CameraSize
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	off := common.PutVec3(buf, 0, g.Position)
	off = common.PutMat4(buf, off, g.View)
	common.PutMat4(buf, off, g.Projection)
	return buf
}
