package light

import "github.com/go-gl/mathgl/mgl32"

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithPosition is an option builder that sets the world-space position of the light.
//
// Parameters:
//   - position: the light position
//
// Returns:
//   - LightBuilderOption: a function that applies the position option to a lightImpl
func WithPosition(position mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.position = position
	}
}

// WithDirection is an option builder that sets the direction from the scene toward the light.
// The direction is normalized before storing; a zero vector is ignored.
//
// Parameters:
//   - direction: the direction toward the light
//
// Returns:
//   - LightBuilderOption: a function that applies the direction option to a lightImpl
func WithDirection(direction mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		if direction.Len() > 0 {
			l.direction = direction.Normalize()
		}
	}
}

// WithColor is an option builder that sets the RGB color of the light.
//
// Parameters:
//   - color: the light color
//
// Returns:
//   - LightBuilderOption: a function that applies the color option to a lightImpl
func WithColor(color mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = color
	}
}

// WithIntensity is an option builder that sets the scalar intensity multiplier.
//
// Parameters:
//   - intensity: the intensity value
//
// Returns:
//   - LightBuilderOption: a function that applies the intensity option to a lightImpl
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.intensity = intensity
	}
}

// WithShadowTarget is an option builder that sets the point the shadow camera is aimed at.
//
// Parameters:
//   - target: the world-space center of the shadow frustum
//
// Returns:
//   - LightBuilderOption: a function that applies the shadow target option to a lightImpl
func WithShadowTarget(target mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.shadowTarget = target
	}
}

// WithShadowFrustum is an option builder that sets the extent and depth range of the shadow camera.
// The half extent only applies to directional lights.
//
// Parameters:
//   - halfExtent: the orthographic half-size in world units
//   - near: the near plane distance
//   - far: the far plane distance
//
// Returns:
//   - LightBuilderOption: a function that applies the frustum option to a lightImpl
func WithShadowFrustum(halfExtent, near, far float32) LightBuilderOption {
	return func(l *lightImpl) {
		if halfExtent > 0 {
			l.shadowHalfExtent = halfExtent
		}
		if near > 0 && far > near {
			l.shadowNear, l.shadowFar = near, far
		}
	}
}

// WithShadowResolution is an option builder that sets the shadow map edge size in texels.
//
// Parameters:
//   - resolution: the shadow map resolution
//
// Returns:
//   - LightBuilderOption: a function that applies the resolution option to a lightImpl
func WithShadowResolution(resolution uint32) LightBuilderOption {
	return func(l *lightImpl) {
		if resolution > 0 {
			l.shadowResolution = resolution
		}
	}
}
