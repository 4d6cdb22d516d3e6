// Package shader loads the renderer's WGSL sources: it expands //@oxy:include lines,
// reflects entry points and resource bindings from the expanded source, and can
// compile-check the result with naga.
package shader

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies the pipeline stage a shader is written for.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is the vertex stage of a render pipeline.
	ShaderTypeVertex

	// ShaderTypeFragment is the fragment stage of a render pipeline.
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
	}
	return fmt.Sprintf("ShaderType(%d)", int(t))
}

// Stage returns the wgpu stage flag of the shader type.
func (t ShaderType) Stage() wgpu.ShaderStage {
	switch t {
	case ShaderTypeVertex:
		return wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		return wgpu.ShaderStageFragment
	case ShaderTypeCompute:
		return wgpu.ShaderStageCompute
	}
	return wgpu.ShaderStageNone
}

// shader is the implementation of the Shader interface.
type shader struct {
	key           string
	source        string
	shaderType    ShaderType
	entryPoint    string
	bindings      []Binding
	workgroupSize [3]uint32
}

// Shader is a pre-processed WGSL shader with its reflected entry point and bindings.
type Shader interface {
	// Key retrieves the unique identifier of the shader, used as its module label.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the expanded WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source with includes injected
	Source() string

	// ShaderType returns the stage the shader was loaded for.
	ShaderType() ShaderType

	// EntryPoint returns the name of the entry point for the shader's stage.
	EntryPoint() string

	// Bindings returns every @group/@binding declaration of the source, sorted by
	// group then binding. Each entry's visibility is the shader's stage.
	//
	// Returns:
	//   - []Binding: the reflected bindings
	Bindings() []Binding

	// WorkgroupSize returns the @workgroup_size of a compute shader, or [0, 0, 0]
	// for render stages.
	WorkgroupSize() [3]uint32
}

var _ Shader = &shader{}

// NewShader expands and reflects WGSL source for a single stage.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the stage the source is written for
//   - source: the raw WGSL source, possibly containing //@oxy:include lines
//
// Returns:
//   - Shader: the loaded shader
//   - error: an error if pre-processing fails or the source has no entry point for the stage
func NewShader(key string, shaderType ShaderType, source string) (Shader, error) {
	if source == "" {
		return nil, fmt.Errorf("shader %s: empty source", key)
	}

	expanded, err := PreProcess(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}

	s := &shader{
		key:        key,
		source:     expanded,
		shaderType: shaderType,
		entryPoint: parseEntryPoint(expanded, shaderType),
		bindings:   reflectBindings(expanded, shaderType.Stage()),
	}
	if s.entryPoint == "" {
		return nil, fmt.Errorf("shader %s: no @%s entry point", key, shaderType)
	}
	if shaderType == ShaderTypeCompute {
		s.workgroupSize = parseWorkgroupSize(expanded)
	}
	return s, nil
}

// MustShader is NewShader for the embedded sources, which are known to load.
// It panics on error.
func MustShader(key string, shaderType ShaderType, source string) Shader {
	s, err := NewShader(key, shaderType, source)
	if err != nil {
		panic(err)
	}
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

func (s *shader) Bindings() []Binding {
	return s.bindings
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workgroupSize
}
