// package common contains plain data types and helpers shared by the engine packages.
package common

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds tightly packed RGBA8 pixel data pending GPU upload.
type TextureStagingData struct {
	// Pixels holds 4 bytes per pixel, row-major.
	Pixels []byte
	Width  uint32
	Height uint32
}

// SolidTexture returns a 1x1 texture of the given RGBA color.
//
// Parameters:
//   - rgba: the color, 0-255 per channel
//
// Returns:
//   - TextureStagingData: the staged 1x1 texture
func SolidTexture(rgba [4]uint8) TextureStagingData {
	return TextureStagingData{
		Pixels: []byte{rgba[0], rgba[1], rgba[2], rgba[3]},
		Width:  1,
		Height: 1,
	}
}

// DecodeTexture decodes a PNG or JPEG image into RGBA staging data.
//
// Parameters:
//   - r: the encoded image
//
// Returns:
//   - TextureStagingData: the decoded pixels
//   - error: an error if decoding fails
func DecodeTexture(r io.Reader) (TextureStagingData, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("decode texture: %w", err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
// Zero fields fall back to linear filtering with repeat addressing.
type SamplerStagingData struct {
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	MagFilter, MinFilter                     wgpu.FilterMode
	MipmapFilter                             wgpu.MipmapFilterMode
	LodMinClamp, LodMaxClamp                 float32
	// Compare is only set for comparison samplers.
	Compare       wgpu.CompareFunction
	MaxAnisotropy uint16
}
