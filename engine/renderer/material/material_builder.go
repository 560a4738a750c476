package material

import (
	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/shader"
	"github.com/go-gl/mathgl/mgl32"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithPhong is an option builder that switches the material to the Phong shading model.
//
// Parameters:
//   - shininess: the specular exponent
//
// Returns:
//   - MaterialBuilderOption: a function that applies the Phong model to a material
func WithPhong(shininess float32) MaterialBuilderOption {
	return func(m *material) {
		m.model = shader.ShadingModelPhong
		m.shininess = shininess
	}
}

// WithAlbedo is an option builder that sets the base color of the material.
//
// Parameters:
//   - albedo: the linear RGB base color
//
// Returns:
//   - MaterialBuilderOption: a function that applies the albedo option to a material
func WithAlbedo(albedo mgl32.Vec3) MaterialBuilderOption {
	return func(m *material) {
		m.albedo = albedo
	}
}

// WithSpecular is an option builder that sets the specular color of the material.
//
// Parameters:
//   - specular: the specular color, F0 for the physically based model
//
// Returns:
//   - MaterialBuilderOption: a function that applies the specular option to a material
func WithSpecular(specular mgl32.Vec3) MaterialBuilderOption {
	return func(m *material) {
		m.specular = specular
	}
}

// WithRoughness is an option builder that sets the roughness factor of the material.
// The value is clamped to [0, 1].
//
// Parameters:
//   - roughness: the roughness factor (0.0 = smooth, 1.0 = rough)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the roughness option to a material
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.roughness = mgl32.Clamp(roughness, 0, 1)
	}
}

// WithMetalness is an option builder that sets the metalness factor of the material.
// The value is clamped to [0, 1].
//
// Parameters:
//   - metalness: the metalness factor (0.0 = dielectric, 1.0 = metal)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the metalness option to a material
func WithMetalness(metalness float32) MaterialBuilderOption {
	return func(m *material) {
		m.metalness = mgl32.Clamp(metalness, 0, 1)
	}
}

// WithMap is an option builder that attaches a texture map. Unknown names and nil
// textures are ignored.
//
// Parameters:
//   - name: the map's resource name, for example resource.BaseMap
//   - tex: the texture pixels
//
// Returns:
//   - MaterialBuilderOption: a function that attaches the map to a material
func WithMap(name string, tex *common.TextureStagingData) MaterialBuilderOption {
	return func(m *material) {
		if tex == nil {
			return
		}
		for _, mf := range mapFeatures {
			if mf.name == name {
				m.maps[name] = tex
				return
			}
		}
	}
}

// WithBaseMap is shorthand for WithMap(resource.BaseMap, tex).
func WithBaseMap(tex *common.TextureStagingData) MaterialBuilderOption {
	return WithMap(resource.BaseMap, tex)
}

// WithNormalMap is shorthand for WithMap(resource.NormalMap, tex).
func WithNormalMap(tex *common.TextureStagingData) MaterialBuilderOption {
	return WithMap(resource.NormalMap, tex)
}
