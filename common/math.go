package common

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// PerspectiveZO creates a right-handed perspective projection matrix mapping view-space
// depth to the WebGPU clip range [0, 1]. mgl32.Perspective targets the OpenGL [-1, 1]
// range and cannot be used directly for WebGPU depth buffers.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func PerspectiveZO(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1.0 / float32(math.Tan(float64(fovY)/2.0))
	var m mgl32.Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = far / (near - far)
	m[11] = -1.0
	m[14] = (near * far) / (near - far)
	return m
}

// OrthoZO creates a right-handed orthographic projection matrix mapping view-space
// depth to the WebGPU clip range [0, 1].
//
// Parameters:
//   - left, right, bottom, top: the view volume extents
//   - near, far: the clipping plane distances
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func OrthoZO(left, right, bottom, top, near, far float32) mgl32.Mat4 {
	w := 1.0 / (right - left)
	h := 1.0 / (top - bottom)
	p := 1.0 / (far - near)
	var m mgl32.Mat4
	m[0] = 2 * w
	m[5] = 2 * h
	m[10] = -p
	m[12] = -(right + left) * w
	m[13] = -(top + bottom) * h
	m[14] = -near * p
	m[15] = 1
	return m
}

// NormalMatrix returns the inverse-transpose of the model matrix, used to transform
// normals under non-uniform scale. A singular model matrix yields the identity.
//
// Parameters:
//   - model: the object's world matrix
//
// Returns:
//   - mgl32.Mat4: the normal matrix
func NormalMatrix(model mgl32.Mat4) mgl32.Mat4 {
	if model.Det() == 0 {
		return mgl32.Ident4()
	}
	return model.Inv().Transpose()
}

// PutFloats writes values into buf starting at offset as little-endian float32s.
//
// Parameters:
//   - buf: destination buffer (must hold offset + 4*len(values) bytes)
//   - offset: the byte offset to start writing at
//   - values: the floats to write
//
// Returns:
//   - int: the byte offset just past the last written value
func PutFloats(buf []byte, offset int, values ...float32) int {
	for _, v := range values {
		binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(v))
		offset += 4
	}
	return offset
}

// PutMat4 writes a column-major 4x4 matrix into buf at offset.
//
// Returns:
//   - int: the byte offset just past the matrix
func PutMat4(buf []byte, offset int, m mgl32.Mat4) int {
	return PutFloats(buf, offset, m[:]...)
}

// PutVec3 writes a vec3 padded to 16 bytes, matching WGSL vec3<f32> alignment
// when followed by another 16-byte aligned member.
//
// Returns:
//   - int: the byte offset just past the padded vector
func PutVec3(buf []byte, offset int, v mgl32.Vec3) int {
	offset = PutFloats(buf, offset, v[0], v[1], v[2])
	return offset + 4
}

// CeilDiv returns ceil(n / d) for positive integers.
func CeilDiv(n, d uint32) uint32 {
	return (n + d - 1) / d
}

// Coalesce picks the first argument that differs from the zero value of T, so option
// defaults can be written inline as Coalesce(configured, fallback).
func Coalesce[T comparable](values ...T) T {
	var zero T
	for i := range values {
		if values[i] != zero {
			return values[i]
		}
	}
	return zero
}
