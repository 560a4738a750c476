package light

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Used for large distant sources like the sun. Affects all fragments uniformly
	// with no distance attenuation.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position.
	LightTypePoint
)

func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "directional"
	case LightTypePoint:
		return "point"
	default:
		return "unknown"
	}
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu *sync.Mutex

	lightType LightType
	position  mgl32.Vec3
	direction mgl32.Vec3
	color     mgl32.Vec3
	intensity float32

	shadowTarget     mgl32.Vec3
	shadowHalfExtent float32
	shadowNear       float32
	shadowFar        float32
	shadowResolution uint32

	shadowView       mgl32.Mat4
	shadowProjection mgl32.Mat4
}

// Light defines the interface for the single shadow-casting light of a scene.
//
// The light owns a shadow camera: an orthographic projection for directional lights
// and a perspective projection for point lights, both aimed at the shadow target.
// The shadow camera matrices are recomputed by Update once per frame.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type
	Type() LightType

	// Position returns the world-space position of the light.
	// Meaningless for directional lights.
	//
	// Returns:
	//   - mgl32.Vec3: the position
	Position() mgl32.Vec3

	// Direction returns the normalized direction from the scene toward the light.
	// Meaningless for point lights.
	//
	// Returns:
	//   - mgl32.Vec3: the direction
	Direction() mgl32.Vec3

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - mgl32.Vec3: the color
	Color() mgl32.Vec3

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Features returns the shader feature selecting this light's lighting chunk, if any.
	//
	// Returns:
	//   - []shader.Feature: the point-light feature, or nothing for a directional light
	Features() []shader.Feature

	// ShadowResolution returns the edge size of the shadow map in texels.
	//
	// Returns:
	//   - uint32: the shadow map resolution
	ShadowResolution() uint32

	// ShadowViewMatrix returns the view matrix of the shadow camera.
	//
	// Returns:
	//   - mgl32.Mat4: the shadow view matrix
	ShadowViewMatrix() mgl32.Mat4

	// ShadowProjectionMatrix returns the projection matrix of the shadow camera.
	//
	// Returns:
	//   - mgl32.Mat4: the shadow projection matrix
	ShadowProjectionMatrix() mgl32.Mat4

	// ShadowViewProjectionMatrix returns the combined shadow camera matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the shadow view-projection matrix
	ShadowViewProjectionMatrix() mgl32.Mat4

	// Uniform serializes the light into the layout of the light uniform.
	//
	// Returns:
	//   - []byte: the uniform bytes
	Uniform() []byte

	// ShadowUniform serializes the shadow camera into the layout of the shadow camera uniform.
	//
	// Returns:
	//   - []byte: the uniform bytes
	ShadowUniform() []byte

	// Update recomputes the shadow camera matrices.
	Update()

	// SetPosition moves a point light.
	//
	// Parameters:
	//   - position: the world-space position
	SetPosition(position mgl32.Vec3)

	// SetDirection changes the direction toward a directional light. The direction is normalized.
	//
	// Parameters:
	//   - direction: the direction toward the light
	SetDirection(direction mgl32.Vec3)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the given type configured with the provided options.
// Lights default to white, unit intensity, pointing down from above and aimed at the origin.
//
// Parameters:
//   - lightType: the kind of light source
//   - options: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: the new light
func NewLight(lightType LightType, options ...LightBuilderOption) Light {
	l := &lightImpl{
		mu:               &sync.Mutex{},
		lightType:        lightType,
		position:         mgl32.Vec3{0, 10, 0},
		direction:        mgl32.Vec3{0, 1, 0},
		color:            mgl32.Vec3{1, 1, 1},
		intensity:        1,
		shadowHalfExtent: DefaultShadowHalfExtent,
		shadowNear:       DefaultShadowNear,
		shadowFar:        DefaultShadowFar,
		shadowResolution: ShadowMapResolution,
	}
	for _, opt := range options {
		opt(l)
	}
	l.Update()
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.position
}

func (l *lightImpl) Direction() mgl32.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.direction
}

func (l *lightImpl) Color() mgl32.Vec3 {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Features() []shader.Feature {
	if l.lightType == LightTypePoint {
		return []shader.Feature{shader.FeaturePointLight}
	}
	return nil
}

func (l *lightImpl) ShadowResolution() uint32 {
	return l.shadowResolution
}

func (l *lightImpl) ShadowViewMatrix() mgl32.Mat4 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.shadowView
}

func (l *lightImpl) ShadowProjectionMatrix() mgl32.Mat4 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.shadowProjection
}

func (l *lightImpl) ShadowViewProjectionMatrix() mgl32.Mat4 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.shadowProjection.Mul4(l.shadowView)
}

func (l *lightImpl) Uniform() []byte {
	l.mu.Lock()
	u := GPULight{
		Color:             l.color.Mul(l.intensity),
		ViewProjectionMat: l.shadowProjection.Mul4(l.shadowView),
	}
	if l.lightType == LightTypePoint {
		u.Vector = l.position
	} else {
		u.Vector = l.direction
	}
	l.mu.Unlock()
	return u.Marshal()
}

func (l *lightImpl) ShadowUniform() []byte {
	u := GPUShadowCamera{ViewProjectionMat: l.ShadowViewProjectionMatrix()}
	return u.Marshal()
}

func (l *lightImpl) Update() {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.lightType {
	case LightTypePoint:
		eye := l.position
		if eye.Sub(l.shadowTarget).Len() < 1e-6 {
			eye = eye.Add(mgl32.Vec3{0, 1, 0})
		}
		l.shadowView = lookAt(eye, l.shadowTarget)
		l.shadowProjection = common.PerspectiveZO(math.Pi/2, 1, l.shadowNear, l.shadowFar)
	default:
		l.shadowView, l.shadowProjection = directionalShadowCamera(l.direction, l.shadowTarget,
			l.shadowHalfExtent, l.shadowNear, l.shadowFar)
	}
}

func (l *lightImpl) SetPosition(position mgl32.Vec3) {
	l.mu.Lock()
	l.position = position
	l.mu.Unlock()
}

func (l *lightImpl) SetDirection(direction mgl32.Vec3) {
	if direction.Len() == 0 {
		return
	}
	l.mu.Lock()
	l.direction = direction.Normalize()
	l.mu.Unlock()
}

// lookAt builds a view matrix from eye to center with an up vector that is never
// parallel to the view direction.
func lookAt(eye, center mgl32.Vec3) mgl32.Mat4 {
	up := mgl32.Vec3{0, 1, 0}
	if abs32(center.Sub(eye).Normalize().Y()) > 0.99 {
		up = mgl32.Vec3{1, 0, 0}
	}
	return mgl32.LookAtV(eye, center, up)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
