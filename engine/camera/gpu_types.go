package camera

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCameraUniformSize is the byte size of GPUCameraUniform, equal to the WGSL
// CameraUniforms struct in the shared shader include.
const GPUCameraUniformSize = 208

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer.
// Matches the WGSL CameraUniforms struct layout exactly.
// Size: 208 bytes.
type GPUCameraUniform struct {
	ViewProj   [16]float32 // offset   0: combined view-projection matrix (mat4x4<f32>)
	View       [16]float32 // offset  64: world to view matrix (mat4x4<f32>)
	InvProj    [16]float32 // offset 128: inverse projection matrix (mat4x4<f32>)
	ScreenSize [2]float32  // offset 192: surface size in pixels (vec2<f32>)
	Near       float32     // offset 200: near plane distance
	Far        float32     // offset 204: far plane distance
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (208)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, GPUCameraUniformSize)
	offset := 0
	put := func(f float32) {
		binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(f))
		offset += 4
	}
	for _, m := range [][16]float32{g.ViewProj, g.View, g.InvProj} {
		for _, f := range m {
			put(f)
		}
	}
	put(g.ScreenSize[0])
	put(g.ScreenSize[1])
	put(g.Near)
	put(g.Far)
	return buf
}
