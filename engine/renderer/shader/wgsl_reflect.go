package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// bindGroupDeclRegex captures group, binding, optional address space, variable name and type
	// from declarations like: @group(0) @binding(0) var<uniform> camera: CameraUniforms;
	// or handle types: @group(2) @binding(0) var diffuseTexture: texture_2d<f32>;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)

	vertexEntryRegex   = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)
	computeEntryRegex  = regexp.MustCompile(`(?s)@compute\b.*?\bfn\s+(\w+)`)

	// workgroupSizeRegex captures 1-3 integer dimensions from @workgroup_size(x[, y[, z]])
	workgroupSizeRegex = regexp.MustCompile(`@workgroup_size\(\s*(\d+)\s*(?:,\s*(\d+)\s*(?:,\s*(\d+)\s*)?)?\)`)
)

var sampledTextureDims = map[string]wgpu.TextureViewDimension{
	"texture_1d":         wgpu.TextureViewDimension1D,
	"texture_2d":         wgpu.TextureViewDimension2D,
	"texture_2d_array":   wgpu.TextureViewDimension2DArray,
	"texture_3d":         wgpu.TextureViewDimension3D,
	"texture_cube":       wgpu.TextureViewDimensionCube,
	"texture_cube_array": wgpu.TextureViewDimensionCubeArray,
}

var sampleTypes = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

// Binding is one resource declaration reflected from WGSL source.
type Binding struct {
	Group uint32
	Name  string
	Type  string
	// Entry is the layout entry the declaration implies, visible to the declaring stage.
	Entry wgpu.BindGroupLayoutEntry
}

// reflectBindings extracts every @group/@binding declaration, sorted by group then binding.
func reflectBindings(source string, visibility wgpu.ShaderStage) []Binding {
	cleaned := stripComments(source)
	matches := bindGroupDeclRegex.FindAllStringSubmatch(cleaned, -1)

	bindings := make([]Binding, 0, len(matches))
	for _, m := range matches {
		group, _ := strconv.ParseUint(m[1], 10, 32)
		binding, _ := strconv.ParseUint(m[2], 10, 32)
		typeName := strings.TrimSpace(m[5])
		bindings = append(bindings, Binding{
			Group: uint32(group),
			Name:  m[4],
			Type:  typeName,
			Entry: classifyResource(uint32(binding), visibility, strings.TrimSpace(m[3]), typeName),
		})
	}

	sort.Slice(bindings, func(i, j int) bool {
		if bindings[i].Group != bindings[j].Group {
			return bindings[i].Group < bindings[j].Group
		}
		return bindings[i].Entry.Binding < bindings[j].Entry.Binding
	})
	return bindings
}

// classifyResource builds the layout entry for a declaration from its address space
// (empty for handle types) and type name.
func classifyResource(binding uint32, visibility wgpu.ShaderStage, addressSpace, typeName string) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: visibility,
	}

	if addressSpace != "" {
		switch {
		case addressSpace == "uniform":
			entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		case strings.HasPrefix(addressSpace, "storage"):
			if strings.Contains(addressSpace, "read_write") {
				entry.Buffer.Type = wgpu.BufferBindingTypeStorage
			} else {
				entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
			}
		}
		return entry
	}

	switch {
	case typeName == "sampler":
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case typeName == "sampler_comparison":
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case strings.HasPrefix(typeName, "texture_depth_"):
		entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
	case strings.HasPrefix(typeName, "texture_") && !strings.HasPrefix(typeName, "texture_storage_"):
		base, param, _ := strings.Cut(typeName, "<")
		param = strings.TrimSpace(strings.TrimSuffix(param, ">"))
		entry.Texture.ViewDimension = sampledTextureDims[base]
		entry.Texture.SampleType = sampleTypes[param]
	}
	return entry
}

func parseEntryPoint(source string, shaderType ShaderType) string {
	var re *regexp.Regexp
	switch shaderType {
	case ShaderTypeVertex:
		re = vertexEntryRegex
	case ShaderTypeFragment:
		re = fragmentEntryRegex
	case ShaderTypeCompute:
		re = computeEntryRegex
	default:
		return ""
	}

	if m := re.FindStringSubmatch(stripComments(source)); m != nil {
		return m[1]
	}
	return ""
}

// parseWorkgroupSize returns the @workgroup_size dimensions, defaulting omitted ones to 1.
func parseWorkgroupSize(source string) [3]uint32 {
	result := [3]uint32{1, 1, 1}
	m := workgroupSizeRegex.FindStringSubmatch(stripComments(source))
	if m == nil {
		return result
	}
	for i := 0; i < 3; i++ {
		if m[i+1] == "" {
			continue
		}
		if v, err := strconv.ParseUint(m[i+1], 10, 32); err == nil {
			result[i] = uint32(v)
		}
	}
	return result
}

// stripComments removes line comments and nested block comments.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		if i+1 < len(source) {
			switch {
			case source[i] == '/' && source[i+1] == '*':
				depth++
				i++
				continue
			case source[i] == '*' && source[i+1] == '/' && depth > 0:
				depth--
				i++
				continue
			case depth == 0 && source[i] == '/' && source[i+1] == '/':
				for i < len(source) && source[i] != '\n' {
					i++
				}
				if i < len(source) {
					sb.WriteByte('\n')
				}
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
	}
	return sb.String()
}
