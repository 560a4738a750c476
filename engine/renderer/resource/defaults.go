package resource

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
)

// Semantic names of the engine's resources.
const (
	Camera           = "camera"
	Light            = "light"
	Transform        = "transform"
	SkinnedTransform = "skinnedTransform"
	JointMatrices    = "jointMatrices"
	Material         = "material"
	PhongMaterial    = "phongMaterial"
	ShadowCamera     = "shadowCamera"
	ShadowMapSampler = "shadowMapSampler"
	TextureSampler   = "textureSampler"
	ShadowMap        = "shadowMap"
	BaseMap          = "baseMap"
	NormalMap        = "normalMap"
	RoughnessMap     = "roughnessMap"
	MetalnessMap     = "metalnessMap"
	SpecularMap      = "specularMap"
	EnvMap           = "envMap"
	DiffuseEnvMap    = "diffuseEnvMap"
	BRDFLut          = "brdfLut"
	EnvSampler       = "envSampler"
)

// Uniform block sizes in bytes, matching the WGSL struct layouts.
const (
	CameraSize           = 144 // position vec3 (+pad), viewMat, projectionMat
	LightSize            = 96  // position|direction vec3 (+pad), color vec3 (+pad), viewProjectionMat
	TransformSize        = 128 // modelMat, normalMat
	MaterialSize         = 32  // albedo vec3, roughness, specular vec3, metalness
	PhongMaterialSize    = 32  // color vec3, shininess, specular vec3 (+pad)
	ShadowCameraSize     = 64
	JointMatrixSize      = 64
	defaultSamplerLayout = device.SamplerBindingTypeFiltering
)

var (
	defaultTableOnce sync.Once
	defaultTable     *Table
)

// DefaultTable returns the process-wide table holding every resource name the engine binds.
func DefaultTable() *Table {
	defaultTableOnce.Do(func() {
		defaultTable = NewTable(defaultDescriptors()...)
	})
	return defaultTable
}

func uniform(name string, vis device.ShaderStage, size uint64) Descriptor {
	return Descriptor{
		Name:       name,
		Kind:       KindBuffer,
		Visibility: vis,
		Buffer:     &device.BufferBindingLayout{Type: device.BufferBindingTypeUniform, MinBindingSize: size},
	}
}

func sampler(name string, t device.SamplerBindingType) Descriptor {
	return Descriptor{
		Name:       name,
		Kind:       KindSampler,
		Visibility: device.ShaderStageFragment,
		Sampler:    &device.SamplerBindingLayout{Type: t},
	}
}

func texture(name string, kind Kind, sample device.TextureSampleType, dim device.TextureViewDimension) Descriptor {
	return Descriptor{
		Name:       name,
		Kind:       kind,
		Visibility: device.ShaderStageFragment,
		Texture:    &device.TextureBindingLayout{SampleType: sample, ViewDimension: dim},
	}
}

func defaultDescriptors() []Descriptor {
	vf := device.ShaderStageVertex | device.ShaderStageFragment

	shadowMap := texture(ShadowMap, KindTexture, device.TextureSampleTypeDepth, device.TextureViewDimension2D)
	shadowMap.ViewFormat = device.TextureFormatDepth32Float

	envMap := texture(EnvMap, KindCubeTexture, device.TextureSampleTypeFloat, device.TextureViewDimensionCube)
	envMap.ViewFormat = device.TextureFormatRGBA8Unorm

	return []Descriptor{
		uniform(Camera, vf, CameraSize),
		uniform(Light, vf, LightSize),
		uniform(Transform, device.ShaderStageVertex, TransformSize),
		uniform(SkinnedTransform, device.ShaderStageVertex, TransformSize),
		{
			Name:       JointMatrices,
			Kind:       KindBuffer,
			Visibility: device.ShaderStageVertex,
			Buffer:     &device.BufferBindingLayout{Type: device.BufferBindingTypeReadOnlyStorage, MinBindingSize: JointMatrixSize},
		},
		uniform(Material, device.ShaderStageFragment, MaterialSize),
		uniform(PhongMaterial, device.ShaderStageFragment, PhongMaterialSize),
		uniform(ShadowCamera, device.ShaderStageVertex, ShadowCameraSize),
		sampler(ShadowMapSampler, device.SamplerBindingTypeComparison),
		sampler(TextureSampler, defaultSamplerLayout),
		sampler(EnvSampler, defaultSamplerLayout),
		shadowMap,
		texture(BaseMap, KindTexture, device.TextureSampleTypeFloat, device.TextureViewDimension2D),
		texture(NormalMap, KindTexture, device.TextureSampleTypeFloat, device.TextureViewDimension2D),
		texture(RoughnessMap, KindTexture, device.TextureSampleTypeFloat, device.TextureViewDimension2D),
		texture(MetalnessMap, KindTexture, device.TextureSampleTypeFloat, device.TextureViewDimension2D),
		texture(SpecularMap, KindTexture, device.TextureSampleTypeFloat, device.TextureViewDimension2D),
		envMap,
		texture(DiffuseEnvMap, KindCubeTexture, device.TextureSampleTypeFloat, device.TextureViewDimensionCube),
		texture(BRDFLut, KindTexture, device.TextureSampleTypeFloat, device.TextureViewDimension2D),
	}
}
