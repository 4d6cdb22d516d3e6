package model

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
)

// GPUVertex is the GPU-aligned representation of a single mesh vertex.
// Matches the WGSL VertexInput struct of the geometry and full-screen vertex shaders.
// Size: 32 bytes.
type GPUVertex struct {
	Position [3]float32 // offset  0: vertex position in model space (12 bytes)
	Normal   [3]float32 // offset 12: vertex normal (12 bytes)
	TexCoord [2]float32 // offset 24: UV texture coordinate (8 bytes)
}

// GPUVertexSize is the byte stride of GPUVertex.
const GPUVertexSize = 32

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, GPUVertexSize)
	g.put(buf)
	return buf
}

func (g *GPUVertex) put(buf []byte) {
	for i, f := range [8]float32{
		g.Position[0], g.Position[1], g.Position[2],
		g.Normal[0], g.Normal[1], g.Normal[2],
		g.TexCoord[0], g.TexCoord[1],
	} {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
}

// VertexLayout returns the vertex buffer layout of GPUVertex: position at location 0,
// normal at 1 and texture coordinate at 2.
func VertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: GPUVertexSize,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
		},
	}
}

// MarshalVertices packs vertices back to back.
func MarshalVertices(vertices []GPUVertex) []byte {
	buf := make([]byte, len(vertices)*GPUVertexSize)
	for i := range vertices {
		vertices[i].put(buf[i*GPUVertexSize:])
	}
	return buf
}

// MarshalIndices packs indices as little-endian uint32, the index format of every draw.
func MarshalIndices(indices []uint32) []byte {
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

// GPUModelData is the per-node uniform bound at group 1.
// Matches the WGSL ModelUniforms struct (model matrix, then the normal matrix).
// Size: 128 bytes.
type GPUModelData struct {
	Model  [16]float32 // offset  0: model-to-world transform (64 bytes)
	Normal [16]float32 // offset 64: inverse transpose of Model (64 bytes)
}

// GPUModelDataSize is the byte size of GPUModelData.
const GPUModelDataSize = 128

// Size returns the size of the GPUModelData struct in bytes.
func (g *GPUModelData) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUModelData struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 128-byte buffer ready for GPU upload.
func (g *GPUModelData) Marshal() []byte {
	buf := make([]byte, GPUModelDataSize)
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Model[i]))
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.Normal[i]))
	}
	return buf
}
