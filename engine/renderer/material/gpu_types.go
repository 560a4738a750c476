package material

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUMaterial is the GPU-aligned uniform of the physically based model.
// Matches the WGSL PBRMaterial struct layout exactly.
// Size: 32 bytes.
type GPUMaterial struct {
	Albedo    mgl32.Vec3 // offset 0
	Roughness float32    // offset 12
	Specular  mgl32.Vec3 // offset 16
	Metalness float32    // offset 28
}

// Size returns the size of the GPUMaterial struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUMaterial) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMaterial struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (g *GPUMaterial) Marshal() []byte {
	buf := make([]byte, g.Size())
	off := common.PutFloats(buf, 0, g.Albedo[0], g.Albedo[1], g.Albedo[2], g.Roughness)
	common.PutFloats(buf, off, g.Specular[0], g.Specular[1], g.Specular[2], g.Metalness)
	return buf
}

// GPUPhongMaterial is the GPU-aligned uniform of the Phong model.
// Matches the WGSL PhongMaterial struct layout exactly.
// Size: 32 bytes.
type GPUPhongMaterial struct {
	Albedo    mgl32.Vec3 // offset 0
	Shininess float32    // offset 12
	Specular  mgl32.Vec3 // offset 16
	_         float32    // offset 28: padding
}

// Size returns the size of the GPUPhongMaterial struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUPhongMaterial) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUPhongMaterial struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (g *GPUPhongMaterial) Marshal() []byte {
	buf := make([]byte, g.Size())
	off := common.PutFloats(buf, 0, g.Albedo[0], g.Albedo[1], g.Albedo[2], g.Shininess)
	common.PutFloats(buf, off, g.Specular[0], g.Specular[1], g.Specular[2], 0)
	return buf
}
