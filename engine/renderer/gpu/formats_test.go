package gpu

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func features(names ...wgpu.FeatureName) func(wgpu.FeatureName) bool {
	return func(f wgpu.FeatureName) bool {
		for _, n := range names {
			if n == f {
				return true
			}
		}
		return false
	}
}

func TestSupportsFormat(t *testing.T) {
	tests := []struct {
		name    string
		format  wgpu.TextureFormat
		usage   wgpu.TextureUsage
		enabled func(wgpu.FeatureName) bool
		want    bool
	}{
		{"gbuffer target", wgpu.TextureFormatRGBA16Float, wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding, nil, true},
		{"depth target", wgpu.TextureFormatDepth24Plus, wgpu.TextureUsageRenderAttachment, nil, true},
		{"depth24plus storage", wgpu.TextureFormatDepth24Plus, wgpu.TextureUsageStorageBinding, nil, false},
		{"format outside table", wgpu.TextureFormatR8Snorm, wgpu.TextureUsageTextureBinding, nil, false},
		{"bgra8 storage without feature", wgpu.TextureFormatBGRA8Unorm, wgpu.TextureUsageStorageBinding, features(), false},
		{"bgra8 storage with feature", wgpu.TextureFormatBGRA8Unorm, wgpu.TextureUsageStorageBinding, features(wgpu.FeatureNameBGRA8UnormStorage), true},
		{"rg11b10 render without feature", wgpu.TextureFormatRG11B10Ufloat, wgpu.TextureUsageRenderAttachment, features(), false},
		{"rg11b10 sampled without feature", wgpu.TextureFormatRG11B10Ufloat, wgpu.TextureUsageTextureBinding, features(), true},
		{"rg11b10 render with feature", wgpu.TextureFormatRG11B10Ufloat, wgpu.TextureUsageRenderAttachment, features(wgpu.FeatureNameRG11B10UfloatRenderable), true},
		{"depth32 stencil8 without feature", wgpu.TextureFormatDepth32FloatStencil8, wgpu.TextureUsageRenderAttachment, features(), false},
		{"depth32 stencil8 with feature", wgpu.TextureFormatDepth32FloatStencil8, wgpu.TextureUsageRenderAttachment, features(wgpu.FeatureNameDepth32FloatStencil8), true},
		{"unrelated feature", wgpu.TextureFormatDepth32FloatStencil8, wgpu.TextureUsageRenderAttachment, features(wgpu.FeatureNameBGRA8UnormStorage), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := supportsFormat(tt.format, tt.usage, tt.enabled); got != tt.want {
				t.Errorf("supportsFormat(%v, %v) = %v, want %v", tt.format, tt.usage, got, tt.want)
			}
		})
	}
}

func TestFormatFeatures(t *testing.T) {
	got := formatFeatures(features(wgpu.FeatureNameRG11B10UfloatRenderable, wgpu.FeatureNameTimestampQuery))
	if len(got) != 1 || got[0] != wgpu.FeatureNameRG11B10UfloatRenderable {
		t.Errorf("formatFeatures = %v, want [%v]", got, wgpu.FeatureNameRG11B10UfloatRenderable)
	}
	if got := formatFeatures(features()); len(got) != 0 {
		t.Errorf("formatFeatures with no adapter features = %v, want none", got)
	}
}
