package light

import (
	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/go-gl/mathgl/mgl32"
)

// ShadowMapResolution is the default width and height in texels of the shadow
// depth texture.
const ShadowMapResolution = 2048

// DefaultShadowHalfExtent is the default orthographic half-extent (in world units)
// used for the directional light shadow frustum.
const DefaultShadowHalfExtent float32 = 40.0

// DefaultShadowNear is the default near plane of the shadow projection.
const DefaultShadowNear float32 = 0.1

// DefaultShadowFar is the default far plane of the shadow projection.
const DefaultShadowFar float32 = 200.0

// directionalShadowCamera builds the orthographic shadow camera of a directional light.
// The eye sits half the far distance from center along the direction toward the light
// and looks back at center.
//
// Parameters:
//   - toLight: normalized direction from the scene toward the light
//   - center: world-space center of the shadow frustum
//   - halfExtent: half-size of the orthographic frustum in world units
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - mgl32.Mat4: the view matrix
//   - mgl32.Mat4: the projection matrix
func directionalShadowCamera(toLight, center mgl32.Vec3, halfExtent, near, far float32) (mgl32.Mat4, mgl32.Mat4) {
	eye := center.Add(toLight.Mul(far * 0.5))
	view := lookAt(eye, center)
	proj := common.OrthoZO(-halfExtent, halfExtent, -halfExtent, halfExtent, near, far)
	return view, proj
}
