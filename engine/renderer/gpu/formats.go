package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// formatCapabilities lists the usages WebGPU guarantees without optional features
// for the formats the renderer allocates. Formats outside the table are reported
// as unsupported unless a device feature adds them.
var formatCapabilities = map[wgpu.TextureFormat]wgpu.TextureUsage{
	wgpu.TextureFormatRGBA8Unorm:     wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst | wgpu.TextureUsageCopySrc | wgpu.TextureUsageStorageBinding,
	wgpu.TextureFormatRGBA8UnormSrgb: wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst | wgpu.TextureUsageCopySrc,
	wgpu.TextureFormatBGRA8Unorm:     wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst | wgpu.TextureUsageCopySrc,
	wgpu.TextureFormatBGRA8UnormSrgb: wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst | wgpu.TextureUsageCopySrc,
	wgpu.TextureFormatRG11B10Ufloat:  wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst | wgpu.TextureUsageCopySrc,
	wgpu.TextureFormatRGBA16Float:    wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst | wgpu.TextureUsageCopySrc | wgpu.TextureUsageStorageBinding,
	wgpu.TextureFormatRGBA32Float:    wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst | wgpu.TextureUsageCopySrc | wgpu.TextureUsageStorageBinding,
	wgpu.TextureFormatDepth24Plus:    wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	wgpu.TextureFormatDepth32Float:   wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopySrc,
}

// featureCapability is a usage a device feature adds to a format.
type featureCapability struct {
	feature wgpu.FeatureName
	format  wgpu.TextureFormat
	usage   wgpu.TextureUsage
}

var featureCapabilities = []featureCapability{
	{wgpu.FeatureNameBGRA8UnormStorage, wgpu.TextureFormatBGRA8Unorm, wgpu.TextureUsageStorageBinding},
	{wgpu.FeatureNameRG11B10UfloatRenderable, wgpu.TextureFormatRG11B10Ufloat, wgpu.TextureUsageRenderAttachment},
	{wgpu.FeatureNameDepth32FloatStencil8, wgpu.TextureFormatDepth32FloatStencil8, wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding},
}

// formatFeatures returns the format features the adapter offers, to be required
// when the device is opened.
func formatFeatures(hasFeature func(wgpu.FeatureName) bool) []wgpu.FeatureName {
	var out []wgpu.FeatureName
	for _, fc := range featureCapabilities {
		if hasFeature(fc.feature) {
			out = append(out, fc.feature)
		}
	}
	return out
}

// supportsFormat reports whether format allows every usage bit, counting the core
// table plus the usages of enabled device features. hasFeature may be nil.
func supportsFormat(format wgpu.TextureFormat, usage wgpu.TextureUsage, hasFeature func(wgpu.FeatureName) bool) bool {
	caps, ok := formatCapabilities[format]
	if hasFeature != nil {
		for _, fc := range featureCapabilities {
			if fc.format == format && hasFeature(fc.feature) {
				caps |= fc.usage
				ok = true
			}
		}
	}
	if !ok {
		return false
	}
	return caps&usage == usage
}
