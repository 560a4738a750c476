package material

import (
	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// material is the implementation of the Material interface.
type material struct {
	name      string
	model     shader.ShadingModel
	albedo    mgl32.Vec3
	specular  mgl32.Vec3
	roughness float32
	metalness float32
	shininess float32
	maps      map[string]*common.TextureStagingData
}

// Material defines the surface description of a drawable: its shading model, the
// constant factors written to the material uniform, and the optional texture maps.
//
// A material is immutable once built. Which maps are present decides the shader
// features of every drawable using it, so two materials with the same shading model
// and the same set of maps share a program and a pipeline.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Model retrieves the shading model the material is drawn with.
	//
	// Returns:
	//   - shader.ShadingModel: the shading model
	Model() shader.ShadingModel

	// Albedo retrieves the base color of the material.
	//
	// Returns:
	//   - mgl32.Vec3: the linear RGB base color
	Albedo() mgl32.Vec3

	// Specular retrieves the specular color. For the physically based model it is the
	// dielectric reflectance at normal incidence (F0).
	//
	// Returns:
	//   - mgl32.Vec3: the specular color
	Specular() mgl32.Vec3

	// Roughness retrieves the perceptual roughness in [0, 1].
	//
	// Returns:
	//   - float32: the roughness factor
	Roughness() float32

	// Metalness retrieves the metalness in [0, 1].
	//
	// Returns:
	//   - float32: the metalness factor
	Metalness() float32

	// Shininess retrieves the Phong specular exponent.
	//
	// Returns:
	//   - float32: the specular exponent
	Shininess() float32

	// Map retrieves the texture bound under a resource name, or nil if none is set.
	//
	// Parameters:
	//   - name: one of resource.BaseMap, resource.NormalMap, resource.RoughnessMap, resource.MetalnessMap or resource.SpecularMap
	//
	// Returns:
	//   - *common.TextureStagingData: the texture pixels, or nil
	Map(name string) *common.TextureStagingData

	// MapNames retrieves the resource names of the maps that are set, in binding order.
	//
	// Returns:
	//   - []string: the map names
	MapNames() []string

	// Features retrieves the shader features this material contributes.
	//
	// Returns:
	//   - []shader.Feature: one feature per map that is set
	Features() []shader.Feature

	// UniformName retrieves the resource name the material uniform is bound under.
	//
	// Returns:
	//   - string: resource.Material or resource.PhongMaterial
	UniformName() string

	// Uniform serializes the constant factors into the layout of the shading model's uniform.
	//
	// Returns:
	//   - []byte: the uniform bytes
	Uniform() []byte
}

var _ Material = &material{}

// mapFeatures pairs every map resource name with the feature it enables, in binding order.
var mapFeatures = []struct {
	name    string
	feature shader.Feature
}{
	{resource.BaseMap, shader.FeatureBaseMap},
	{resource.NormalMap, shader.FeatureNormalMap},
	{resource.RoughnessMap, shader.FeatureRoughnessMap},
	{resource.MetalnessMap, shader.FeatureMetalnessMap},
	{resource.SpecularMap, shader.FeatureSpecularMap},
}

// NewMaterial creates a new Material instance configured with the provided options.
// The default is a white, fully rough dielectric with an F0 of 0.04.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		model:     shader.ShadingModelPBR,
		albedo:    mgl32.Vec3{1, 1, 1},
		specular:  mgl32.Vec3{0.04, 0.04, 0.04},
		roughness: 1.0,
		shininess: 32,
		maps:      make(map[string]*common.TextureStagingData),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Model() shader.ShadingModel {
	return m.model
}

func (m *material) Albedo() mgl32.Vec3 {
	return m.albedo
}

func (m *material) Specular() mgl32.Vec3 {
	return m.specular
}

func (m *material) Roughness() float32 {
	return m.roughness
}

func (m *material) Metalness() float32 {
	return m.metalness
}

func (m *material) Shininess() float32 {
	return m.shininess
}

func (m *material) Map(name string) *common.TextureStagingData {
	return m.maps[name]
}

func (m *material) MapNames() []string {
	names := make([]string, 0, len(m.maps))
	for _, mf := range mapFeatures {
		if _, ok := m.maps[mf.name]; ok {
			names = append(names, mf.name)
		}
	}
	return names
}

func (m *material) Features() []shader.Feature {
	features := make([]shader.Feature, 0, len(m.maps))
	for _, mf := range mapFeatures {
		if _, ok := m.maps[mf.name]; ok {
			features = append(features, mf.feature)
		}
	}
	return features
}

func (m *material) UniformName() string {
	if m.model == shader.ShadingModelPhong {
		return resource.PhongMaterial
	}
	return resource.Material
}

func (m *material) Uniform() []byte {
	if m.model == shader.ShadingModelPhong {
		u := GPUPhongMaterial{Albedo: m.albedo, Shininess: m.shininess, Specular: m.specular}
		return u.Marshal()
	}
	u := GPUMaterial{Albedo: m.albedo, Roughness: m.roughness, Specular: m.specular, Metalness: m.metalness}
	return u.Marshal()
}
