package shader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/device"
)

// ShaderType identifies the pipeline stage a shader provides.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeCompute:
		return "compute"
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

// stage returns the visibility bit of the shader type.
func (t ShaderType) stage() device.ShaderStage {
	switch t {
	case ShaderTypeVertex:
		return device.ShaderStageVertex
	case ShaderTypeFragment:
		return device.ShaderStageFragment
	case ShaderTypeCompute:
		return device.ShaderStageCompute
	default:
		return device.ShaderStageNone
	}
}

// shader is the implementation of the Shader interface.
// It holds the composed source and everything reflected from it.
type shader struct {
	key                        string
	source                     string
	shaderType                 ShaderType
	bindGroupLayoutDescriptors map[int]device.BindGroupLayoutDescriptor
	bindingVarNames            map[int]map[int]string
	vertexLayouts              []device.VertexBufferLayout
	structLayouts              map[string]wgslTypeLayout
	workGroupSize              [3]uint32
	entryPoint                 string
}

// Shader is one composed, single-stage WGSL program together with the metadata
// reflected from its source: entry point, bind group layouts, vertex buffer layout,
// workgroup size and struct layouts.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and labels.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType returns the stage this shader provides.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex, ShaderTypeFragment, or ShaderTypeCompute
	ShaderType() ShaderType

	// EntryPoint returns the entry point name for this shader.
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main")
	EntryPoint() string

	// BindGroupLayoutDescriptor retrieves the reflected layout descriptor of a bind group.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - device.BindGroupLayoutDescriptor: the descriptor, or an empty descriptor if the group is not declared
	BindGroupLayoutDescriptor(group int) device.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves all reflected layout descriptors keyed by group index.
	BindGroupLayoutDescriptors() map[int]device.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name declared at a group and binding index.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if not found
	BindGroupVarName(group, binding int) string

	// BindGroupFromVarName retrieves the binding index of a variable within a group.
	//
	// Parameters:
	//   - group: the bind group index
	//   - varName: the variable name within the group
	//
	// Returns:
	//   - int: the binding index, or -1 if not found
	//   - bool: true if the variable name was found
	BindGroupFromVarName(group int, varName string) (int, bool)

	// VertexLayouts retrieves the vertex buffer layouts reflected from vertex input structs.
	// Non-vertex shaders and vertex shaders without a vertex input struct return nil.
	VertexLayouts() []device.VertexBufferLayout

	// WorkgroupSize returns the workgroup size dimensions for compute shaders, and
	// [0, 0, 0] for render stages.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// StructSize returns the byte size of a struct declared in the source.
	//
	// Parameters:
	//   - name: the struct name
	//
	// Returns:
	//   - uint64: the size in bytes
	//   - bool: false if the struct is not declared or could not be resolved
	StructSize(name string) (uint64, bool)

	// Module returns the descriptor used to create the device shader module.
	//
	// Returns:
	//   - device.ShaderModuleDescriptor: the module descriptor labelled with the key
	Module() device.ShaderModuleDescriptor
}

var _ Shader = &shader{}

// NewShader creates a new Shader from WGSL source and reflects its metadata.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and labels
//   - shaderType: the stage the shader provides
//   - source: the WGSL source
//
// Returns:
//   - Shader: a new Shader instance
func NewShader(key string, shaderType ShaderType, source string) Shader {
	if source == "" {
		panic(fmt.Sprintf("shader: %s must have a non-empty source", key))
	}
	s := &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
	}
	s.reflect()
	return s
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) BindGroupLayoutDescriptor(group int) device.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]device.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	if s.bindingVarNames[group] == nil {
		return ""
	}
	return s.bindingVarNames[group][binding]
}

func (s *shader) BindGroupFromVarName(group int, varName string) (int, bool) {
	for binding, name := range s.bindingVarNames[group] {
		if name == varName {
			return binding, true
		}
	}
	return -1, false
}

func (s *shader) VertexLayouts() []device.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workGroupSize
}

func (s *shader) StructSize(name string) (uint64, bool) {
	l, ok := s.structLayouts[name]
	return l.size, ok
}

func (s *shader) Module() device.ShaderModuleDescriptor {
	return device.ShaderModuleDescriptor{Label: s.key, Code: s.source}
}

// reflect parses the entry point and the layout metadata appropriate for the shader type.
// Vertex shaders get vertex buffer layouts parsed. Compute shaders get workgroup size
// parsed. All shader types get bind group layout descriptors parsed.
func (s *shader) reflect() {
	s.entryPoint = parseEntryPoint(s.source, s.shaderType)
	s.structLayouts = computeStructSizes(parseStructBlocks(stripComments(s.source)))
	switch s.shaderType {
	case ShaderTypeVertex:
		s.vertexLayouts = parseVertexLayouts(s.source)
	case ShaderTypeCompute:
		s.workGroupSize = parseWorkgroupSize(s.source)
	}
	s.bindGroupLayoutDescriptors, s.bindingVarNames = parseBindGroupLayouts(s.source, s.shaderType.stage(), s.structLayouts)
}
