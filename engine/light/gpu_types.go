package light

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// MaxGPULights is the number of light slots in the light set buffer. Enabled lights
// beyond it are dropped when marshaling.
const MaxGPULights = 1024

// GPULight is the GPU-aligned representation of a single point light.
// Matches the WGSL Light struct in the shared shader include.
// Size: 32 bytes.
type GPULight struct {
	Position  [3]float32 // offset  0: world-space position
	Radius    float32    // offset 12: range of influence
	Color     [3]float32 // offset 16: RGB color
	Intensity float32    // offset 28: scalar multiplier
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, g.Size())
	g.put(buf)
	return buf
}

func (g *GPULight) put(buf []byte) {
	for i, f := range [8]float32{
		g.Position[0], g.Position[1], g.Position[2], g.Radius,
		g.Color[0], g.Color[1], g.Color[2], g.Intensity,
	} {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
}

// GPULightHeader is the fixed head of the WGSL LightSet struct. The runtime-sized
// lights array starts after it at its 16-byte alignment.
// Size: 16 bytes.
type GPULightHeader struct {
	Count uint32    // offset 0: number of valid lights
	_pad  [3]uint32 // offset 4: padding to the array alignment
}

// Size returns the size of the GPULightHeader struct in bytes.
func (h *GPULightHeader) Size() int {
	return int(unsafe.Sizeof(*h))
}

// Marshal serializes the GPULightHeader struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (h *GPULightHeader) Marshal() []byte {
	buf := make([]byte, h.Size())
	binary.LittleEndian.PutUint32(buf[0:4], h.Count)
	return buf
}

// LightSetBufferSize is the byte size of a light set buffer holding MaxGPULights lights.
const LightSetBufferSize = 16 + MaxGPULights*32

// ToGPULight converts a Light into its GPU representation.
//
// Parameters:
//   - l: the Light to convert
//
// Returns:
//   - GPULight: the GPU-aligned representation
func ToGPULight(l Light) GPULight {
	return GPULight{
		Position:  l.Position(),
		Radius:    l.Range(),
		Color:     l.Color(),
		Intensity: l.Intensity(),
	}
}

// MarshalLightBuffer marshals the enabled lights into the light set layout:
//
//	[GPULightHeader (16 bytes)] [GPULight × count (32 bytes each)]
//
// Only enabled lights are included, up to MaxGPULights.
//
// Parameters:
//   - lights: the lights to marshal
//
// Returns:
//   - []byte: the marshaled buffer ready for GPU upload
//   - int: the number of lights written
func MarshalLightBuffer(lights []Light) ([]byte, int) {
	enabled := make([]GPULight, 0, min(len(lights), MaxGPULights))
	for _, l := range lights {
		if len(enabled) == MaxGPULights {
			break
		}
		if l.Enabled() {
			enabled = append(enabled, ToGPULight(l))
		}
	}

	header := GPULightHeader{Count: uint32(len(enabled))}
	headerSize := header.Size()
	lightSize := (&GPULight{}).Size()

	buf := make([]byte, headerSize+len(enabled)*lightSize)
	copy(buf, header.Marshal())
	for i := range enabled {
		enabled[i].put(buf[headerSize+i*lightSize:])
	}
	return buf, len(enabled)
}
