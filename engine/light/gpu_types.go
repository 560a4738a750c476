package light

import (
	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/resource"
	"github.com/go-gl/mathgl/mgl32"
)

// GPULight is the GPU-aligned representation of the light uniform.
// Matches the WGSL DirectionalLight and PointLight struct layouts exactly: the first
// member is the direction toward a directional light or the position of a point light.
// Size: 96 bytes.
type GPULight struct {
	Vector            mgl32.Vec3 // offset  0: direction or position, padded to 16 bytes
	Color             mgl32.Vec3 // offset 16: color premultiplied by intensity, padded to 16 bytes
	ViewProjectionMat mgl32.Mat4 // offset 32: shadow camera view-projection matrix
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes (96)
func (g *GPULight) Size() int {
	return resource.LightSize
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, g.Size())
	off := common.PutVec3(buf, 0, g.Vector)
	off = common.PutVec3(buf, off, g.Color)
	common.PutMat4(buf, off, g.ViewProjectionMat)
	return buf
}

// GPUShadowCamera is the GPU-aligned uniform of the shadow pass camera.
// Size: 64 bytes.
type GPUShadowCamera struct {
	ViewProjectionMat mgl32.Mat4 // offset 0
}

// Size returns the size of the GPUShadowCamera struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes (64)
func (g *GPUShadowCamera) Size() int {
	return resource.ShadowCameraSize
}

// Marshal serializes the GPUShadowCamera struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUShadowCamera) Marshal() []byte {
	buf := make([]byte, g.Size())
	common.PutMat4(buf, 0, g.ViewProjectionMat)
	return buf
}
