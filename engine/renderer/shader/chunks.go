package shader

import (
	"embed"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/resource"
	"github.com/go-gl/mathgl/mgl32"
)

//go:embed assets/chunks/*.wgsl
var chunkFS embed.FS

// ChunkKey names one WGSL chunk. Programs are the concatenation of an ordered chunk list.
type ChunkKey string

const (
	ChunkConstants    ChunkKey = "constants"
	ChunkBindings     ChunkKey = "bindings"
	ChunkUtils        ChunkKey = "utils"
	ChunkToneMap      ChunkKey = "tonemap"
	ChunkSampling     ChunkKey = "sampling"
	ChunkCubeFaces    ChunkKey = "cube_faces"
	ChunkVertexInput  ChunkKey = "vertex_input"
	ChunkVertexOutput ChunkKey = "vertex_output"

	ChunkStructCamera        ChunkKey = "struct_camera"
	ChunkStructLight         ChunkKey = "struct_light"
	ChunkStructTransform     ChunkKey = "struct_transform"
	ChunkStructPBRMaterial   ChunkKey = "struct_pbr_material"
	ChunkStructPhongMaterial ChunkKey = "struct_phong_material"
	ChunkStructShadowCamera  ChunkKey = "struct_shadow_camera"
	ChunkStructPrefilter     ChunkKey = "struct_prefilter"

	ChunkVertexStatic       ChunkKey = "vertex_static"
	ChunkVertexSkinned      ChunkKey = "vertex_skinned"
	ChunkVertexTangentFrame ChunkKey = "vertex_tangent_frame"
	ChunkVertexNoTangent    ChunkKey = "vertex_no_tangent_frame"
	ChunkVertexMain         ChunkKey = "vertex_main"
	ChunkShadowMain         ChunkKey = "shadow_main"

	ChunkNormalVertex     ChunkKey = "normal_vertex"
	ChunkNormalMap        ChunkKey = "normal_map"
	ChunkLightDirectional ChunkKey = "light_directional"
	ChunkLightPoint       ChunkKey = "light_point"
	ChunkAlbedoConst      ChunkKey = "albedo_const"
	ChunkAlbedoMap        ChunkKey = "albedo_map"
	ChunkRoughnessConst   ChunkKey = "roughness_const"
	ChunkRoughnessMap     ChunkKey = "roughness_map"
	ChunkMetalnessConst   ChunkKey = "metalness_const"
	ChunkMetalnessMap     ChunkKey = "metalness_map"
	ChunkSpecularConst    ChunkKey = "specular_const"
	ChunkSpecularMap      ChunkKey = "specular_map"
	ChunkSurfacePBR       ChunkKey = "surface_pbr"
	ChunkSurfacePhong     ChunkKey = "surface_phong"
	ChunkShadowPCF        ChunkKey = "shadow_pcf"
	ChunkBRDFPBR          ChunkKey = "brdf_pbr"
	ChunkBRDFPhong        ChunkKey = "brdf_phong"
	ChunkAmbientFlat      ChunkKey = "ambient_flat"
	ChunkAmbientPBRIBL    ChunkKey = "ambient_pbr_ibl"
	ChunkAmbientPhongIBL  ChunkKey = "ambient_phong_ibl"
	ChunkFragmentMain     ChunkKey = "fragment_main"

	ChunkBackdropIO       ChunkKey = "backdrop_io"
	ChunkBackdropVertex   ChunkKey = "backdrop_vertex"
	ChunkBackdropFragment ChunkKey = "backdrop_fragment"

	ChunkPrecomputeDiffuse  ChunkKey = "precompute_diffuse"
	ChunkPrecomputeSpecular ChunkKey = "precompute_specular"
	ChunkPrecomputeBRDF     ChunkKey = "precompute_brdf"
)

func (k ChunkKey) file() string {
	return string(k) + ".wgsl"
}

// Resource names bound by the precompute programs. They are not part of the
// default table; the precompute engine registers them on its own table.
const (
	PrecomputeOutput = "precomputeOutput"
	PrecomputeSource = "precomputeSource"
	PrefilterParams  = "prefilterParams"
	BRDFLutOutput    = "brdfLutOutput"
)

// bindingDecl is how a resource name is declared in WGSL.
type bindingDecl struct {
	// Var is the WGSL variable name.
	Var string
	// Space is the address space qualifier including brackets, empty for handle types.
	Space string
	// Type is the WGSL type; the light type is taken from the chunk parameters.
	Type string
	// Struct is the chunk declaring Type, if any.
	Struct ChunkKey
	// Stages are the program stages that read the variable.
	Stages device.ShaderStage
}

var (
	vertexOnly   = device.ShaderStageVertex
	fragmentOnly = device.ShaderStageFragment
	bothStages   = device.ShaderStageVertex | device.ShaderStageFragment
	computeOnly  = device.ShaderStageCompute
)

// bindingRegistry maps every resource name a program may bind to its declaration.
var bindingRegistry = map[string]bindingDecl{
	resource.Camera:           {Var: "camera", Space: "<uniform>", Type: "Camera", Struct: ChunkStructCamera, Stages: bothStages},
	resource.Light:            {Var: "light", Space: "<uniform>", Struct: ChunkStructLight, Stages: bothStages},
	resource.Transform:        {Var: "transform", Space: "<uniform>", Type: "Transform", Struct: ChunkStructTransform, Stages: vertexOnly},
	resource.SkinnedTransform: {Var: "transform", Space: "<uniform>", Type: "Transform", Struct: ChunkStructTransform, Stages: vertexOnly},
	resource.JointMatrices:    {Var: "jointMatrices", Space: "<storage, read>", Type: "array<mat4x4<f32>>", Stages: vertexOnly},
	resource.Material:         {Var: "material", Space: "<uniform>", Type: "PBRMaterial", Struct: ChunkStructPBRMaterial, Stages: fragmentOnly},
	resource.PhongMaterial:    {Var: "material", Space: "<uniform>", Type: "PhongMaterial", Struct: ChunkStructPhongMaterial, Stages: fragmentOnly},
	resource.ShadowCamera:     {Var: "shadowCamera", Space: "<uniform>", Type: "ShadowCamera", Struct: ChunkStructShadowCamera, Stages: vertexOnly},
	resource.ShadowMapSampler: {Var: "shadowMapSampler", Type: "sampler_comparison", Stages: fragmentOnly},
	resource.TextureSampler:   {Var: "textureSampler", Type: "sampler", Stages: fragmentOnly},
	resource.EnvSampler:       {Var: "envSampler", Type: "sampler", Stages: fragmentOnly},
	resource.ShadowMap:        {Var: "shadowMap", Type: "texture_depth_2d", Stages: fragmentOnly},
	resource.BaseMap:          {Var: "baseMap", Type: "texture_2d<f32>", Stages: fragmentOnly},
	resource.NormalMap:        {Var: "normalMap", Type: "texture_2d<f32>", Stages: fragmentOnly},
	resource.RoughnessMap:     {Var: "roughnessMap", Type: "texture_2d<f32>", Stages: fragmentOnly},
	resource.MetalnessMap:     {Var: "metalnessMap", Type: "texture_2d<f32>", Stages: fragmentOnly},
	resource.SpecularMap:      {Var: "specularMap", Type: "texture_2d<f32>", Stages: fragmentOnly},
	resource.EnvMap:           {Var: "envMap", Type: "texture_cube<f32>", Stages: fragmentOnly},
	resource.DiffuseEnvMap:    {Var: "diffuseEnvMap", Type: "texture_cube<f32>", Stages: fragmentOnly},
	resource.BRDFLut:          {Var: "brdfLut", Type: "texture_2d<f32>", Stages: fragmentOnly},

	PrecomputeOutput: {Var: "target_faces", Type: "texture_storage_2d_array<rgba8unorm, write>", Stages: computeOnly},
	PrecomputeSource: {Var: "source_faces", Type: "texture_2d_array<f32>", Stages: computeOnly},
	PrefilterParams:  {Var: "params", Space: "<uniform>", Type: "PrefilterParams", Struct: ChunkStructPrefilter, Stages: computeOnly},
	BRDFLutOutput:    {Var: "lut", Type: "texture_storage_2d<rgba8unorm, write>", Stages: computeOnly},
}

// VertexAttribute is one field of the VertexInput or VertexOutput struct.
type VertexAttribute struct {
	Location uint32
	Name     string
	Type     string
}

// bindingParam is one emitted @binding declaration.
type bindingParam struct {
	Index int
	Var   string
	Space string
	Type  string
}

// chunkParams is the typed parameter set every chunk template executes against.
type chunkParams struct {
	Group         int
	Bindings      []bindingParam
	LightStruct   string
	LightField    string
	VertexInputs  []VertexAttribute
	Varyings      []VertexAttribute
	WorkgroupSize uint32
	SampleCount   uint32
	CubeFaces     [6]mgl32.Mat3
}

var chunkTemplates = template.Must(
	template.New("chunks").
		Funcs(template.FuncMap{"mat3": wgslMat3}).
		ParseFS(chunkFS, "assets/chunks/*.wgsl"),
)

// renderChunks executes the chunk templates in order and joins them with blank lines.
func renderChunks(keys []ChunkKey, params chunkParams) (string, error) {
	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if err := chunkTemplates.ExecuteTemplate(&sb, k.file(), params); err != nil {
			return "", fmt.Errorf("failed to render chunk %s: %w", k, err)
		}
	}
	return sb.String(), nil
}

// wgslMat3 formats a column-major matrix as a WGSL mat3x3<f32> constructor.
func wgslMat3(m mgl32.Mat3) string {
	parts := make([]string, len(m))
	for i, v := range m {
		parts[i] = wgslFloat(v)
	}
	return "mat3x3<f32>(" + strings.Join(parts, ", ") + ")"
}

func wgslFloat(v float32) string {
	s := strconv.FormatFloat(float64(v), 'f', -1, 32)
	if s == "-0" {
		s = "0"
	}
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
