package material

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f32(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func TestPBRUniformLayout(t *testing.T) {
	m := NewMaterial(
		WithAlbedo(mgl32.Vec3{0.1, 0.2, 0.3}),
		WithRoughness(0.5),
		WithMetalness(2),
		WithSpecular(mgl32.Vec3{0.04, 0.05, 0.06}),
	)
	buf := m.Uniform()
	require.Len(t, buf, resource.MaterialSize)
	assert.Equal(t, resource.Material, m.UniformName())
	assert.InDelta(t, 0.3, f32(buf, 8), 1e-6)
	assert.InDelta(t, 0.5, f32(buf, 12), 1e-6)
	assert.InDelta(t, 0.04, f32(buf, 16), 1e-6)
	assert.InDelta(t, 1.0, f32(buf, 28), 1e-6, "metalness is clamped")
}

func TestPhongUniformLayout(t *testing.T) {
	m := NewMaterial(WithPhong(64), WithAlbedo(mgl32.Vec3{1, 0, 0}))
	buf := m.Uniform()
	require.Len(t, buf, resource.PhongMaterialSize)
	assert.Equal(t, resource.PhongMaterial, m.UniformName())
	assert.Equal(t, shader.ShadingModelPhong, m.Model())
	assert.InDelta(t, 1.0, f32(buf, 0), 1e-6)
	assert.InDelta(t, 64.0, f32(buf, 12), 1e-6)
	assert.Zero(t, f32(buf, 28))
}

func TestMapsDriveFeatures(t *testing.T) {
	tex := &common.TextureStagingData{Pixels: make([]byte, 4), Width: 1, Height: 1}
	m := NewMaterial(
		WithMap(resource.SpecularMap, tex),
		WithBaseMap(tex),
		WithMap("unknownMap", tex),
		WithNormalMap(nil),
	)
	assert.Equal(t, []string{resource.BaseMap, resource.SpecularMap}, m.MapNames())
	assert.Equal(t, []shader.Feature{shader.FeatureBaseMap, shader.FeatureSpecularMap}, m.Features())
	assert.Same(t, tex, m.Map(resource.BaseMap))
	assert.Nil(t, m.Map(resource.NormalMap))
}
