package shader

import (
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/resource"
)

// ProgramPlan is the chunk selection for one feature set and shading model.
// Each binding list is the ordered resource-name list whose positions are the
// @binding indices emitted in the program, so the same list feeds the bind group factory.
type ProgramPlan struct {
	Vertex       []ChunkKey
	Fragment     []ChunkKey
	ShadowVertex []ChunkKey

	ColorBindings  []string
	ShadowBindings []string

	VertexInputs []VertexAttribute
	Varyings     []VertexAttribute
}

// Plan maps a feature set and shading model to the ordered chunk lists of the color
// vertex, color fragment and shadow vertex programs. It is pure: the same input
// always yields the same plan.
//
// Parameters:
//   - features: the program features
//   - model: the surface shading model
//
// Returns:
//   - ProgramPlan: the chunk lists and binding lists
func Plan(features FeatureSet, model ShadingModel) ProgramPlan {
	plan := ProgramPlan{
		ColorBindings:  ColorBindings(features, model),
		ShadowBindings: ShadowBindings(features),
		VertexInputs:   VertexInputs(features),
		Varyings:       Varyings(features),
	}

	objectChunk := ChunkVertexStatic
	if features.Has(FeatureSkinned) {
		objectChunk = ChunkVertexSkinned
	}
	tangentChunk := ChunkVertexNoTangent
	normalChunk := ChunkNormalVertex
	if features.NormalMapped() {
		tangentChunk = ChunkVertexTangentFrame
		normalChunk = ChunkNormalMap
	}

	plan.Vertex = stageChunks(plan.ColorBindings, device.ShaderStageVertex,
		ChunkVertexInput, ChunkVertexOutput, objectChunk, tangentChunk, ChunkVertexMain)

	plan.ShadowVertex = stageChunks(plan.ShadowBindings, device.ShaderStageVertex,
		ChunkVertexInput, objectChunk, ChunkShadowMain)

	lightChunk := ChunkLightDirectional
	if features.Has(FeaturePointLight) {
		lightChunk = ChunkLightPoint
	}
	body := []ChunkKey{ChunkVertexOutput, ChunkUtils, normalChunk, lightChunk,
		pick(features.Has(FeatureBaseMap), ChunkAlbedoMap, ChunkAlbedoConst)}

	switch model {
	case ShadingModelPhong:
		body = append(body,
			pick(features.Has(FeatureSpecularMap), ChunkSpecularMap, ChunkSpecularConst),
			ChunkSurfacePhong,
			ChunkShadowPCF,
			ChunkBRDFPhong,
			pick(features.Has(FeatureEnvMap), ChunkAmbientPhongIBL, ChunkAmbientFlat),
		)
	default:
		body = append(body,
			pick(features.Has(FeatureRoughnessMap), ChunkRoughnessMap, ChunkRoughnessConst),
			pick(features.Has(FeatureMetalnessMap), ChunkMetalnessMap, ChunkMetalnessConst),
			pick(features.Has(FeatureSpecularMap), ChunkSpecularMap, ChunkSpecularConst),
			ChunkSurfacePBR,
			ChunkShadowPCF,
			ChunkBRDFPBR,
			pick(features.Has(FeatureEnvMap), ChunkAmbientPBRIBL, ChunkAmbientFlat),
		)
	}
	body = append(body, ChunkToneMap, ChunkFragmentMain)
	plan.Fragment = stageChunks(plan.ColorBindings, device.ShaderStageFragment, body...)

	return plan
}

// ColorBindings returns the ordered resource names bound by the color program.
//
// Parameters:
//   - features: the program features
//   - model: the surface shading model
//
// Returns:
//   - []string: the names; position i is @binding(i)
func ColorBindings(features FeatureSet, model ShadingModel) []string {
	material := resource.Material
	if model == ShadingModelPhong {
		material = resource.PhongMaterial
	}
	names := []string{
		resource.Camera,
		resource.Light,
		transformName(features),
		material,
		resource.ShadowMapSampler,
		resource.TextureSampler,
		resource.ShadowMap,
	}
	if features.Has(FeatureBaseMap) {
		names = append(names, resource.BaseMap)
	}
	if features.NormalMapped() {
		names = append(names, resource.NormalMap)
	}
	if model == ShadingModelPBR {
		if features.Has(FeatureRoughnessMap) {
			names = append(names, resource.RoughnessMap)
		}
		if features.Has(FeatureMetalnessMap) {
			names = append(names, resource.MetalnessMap)
		}
	}
	if features.Has(FeatureSpecularMap) {
		names = append(names, resource.SpecularMap)
	}
	if features.Has(FeatureSkinned) {
		names = append(names, resource.JointMatrices)
	}
	if features.Has(FeatureEnvMap) {
		names = append(names, resource.DiffuseEnvMap)
		if model == ShadingModelPBR {
			names = append(names, resource.EnvMap)
		}
	}
	// PBR reads the split-sum LUT for energy compensation with or without an environment.
	if model == ShadingModelPBR {
		names = append(names, resource.BRDFLut)
	}
	if features.Has(FeatureEnvMap) {
		names = append(names, resource.EnvSampler)
	}
	return names
}

// ShadowBindings returns the ordered resource names bound by the shadow program.
func ShadowBindings(features FeatureSet) []string {
	names := []string{resource.ShadowCamera, transformName(features)}
	if features.Has(FeatureSkinned) {
		names = append(names, resource.JointMatrices)
	}
	return names
}

// BackdropBindings returns the ordered resource names bound by the backdrop program.
func BackdropBindings() []string {
	return []string{resource.Camera, resource.EnvMap, resource.EnvSampler}
}

// VertexInputs returns the interleaved vertex attributes a feature set consumes, in
// buffer order: position, normal, uv, then tangent and joints/weights when enabled.
func VertexInputs(features FeatureSet) []VertexAttribute {
	attrs := []VertexAttribute{
		{Location: 0, Name: "position", Type: "vec3<f32>"},
		{Location: 1, Name: "normal", Type: "vec3<f32>"},
		{Location: 2, Name: "uv", Type: "vec2<f32>"},
	}
	next := uint32(len(attrs))
	add := func(name, typ string) {
		attrs = append(attrs, VertexAttribute{Location: next, Name: name, Type: typ})
		next++
	}
	if features.Has(FeatureTangent) {
		add("tangent", "vec4<f32>")
	}
	if features.Has(FeatureSkinned) {
		add("joints", "vec4<u32>")
		add("weights", "vec4<f32>")
	}
	return attrs
}

// Varyings returns the vertex-to-fragment interface of a feature set.
func Varyings(features FeatureSet) []VertexAttribute {
	attrs := []VertexAttribute{
		{Location: 0, Name: "worldPosition", Type: "vec3<f32>"},
		{Location: 1, Name: "normal", Type: "vec3<f32>"},
		{Location: 2, Name: "uv", Type: "vec2<f32>"},
		{Location: 3, Name: "shadowPosition", Type: "vec4<f32>"},
	}
	if features.NormalMapped() {
		attrs = append(attrs,
			VertexAttribute{Location: 4, Name: "tangent", Type: "vec3<f32>"},
			VertexAttribute{Location: 5, Name: "bitangent", Type: "vec3<f32>"},
		)
	}
	return attrs
}

func transformName(features FeatureSet) string {
	if features.Has(FeatureSkinned) {
		return resource.SkinnedTransform
	}
	return resource.Transform
}

// stageChunks prefixes body with the constants, the struct chunks of the bindings the
// stage reads and the binding declarations.
func stageChunks(bindings []string, stage device.ShaderStage, body ...ChunkKey) []ChunkKey {
	keys := []ChunkKey{ChunkConstants}
	seen := make(map[ChunkKey]bool)
	for _, name := range bindings {
		decl := bindingRegistry[name]
		if decl.Struct == "" || !decl.Stages.Has(stage) || seen[decl.Struct] {
			continue
		}
		seen[decl.Struct] = true
		keys = append(keys, decl.Struct)
	}
	keys = append(keys, ChunkBindings)
	return append(keys, body...)
}

func pick(cond bool, yes, no ChunkKey) ChunkKey {
	if cond {
		return yes
	}
	return no
}
