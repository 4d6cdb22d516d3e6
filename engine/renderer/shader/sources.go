package shader

import (
	_ "embed"
)

// CommonSource holds the WGSL structs and helpers shared by every renderer shader,
// injected by //@oxy:include common. Struct layouts match the GPU types in the
// camera, light and scene packages.
//
//go:embed assets/common.wgsl
var CommonSource string

// GeometryVertexSource transforms scene primitives into world and clip space.
//
//go:embed assets/geometry.vert.wgsl
var GeometryVertexSource string

// GBufferFragmentSource writes albedo, normal and world position to the G-buffer.
//
//go:embed assets/gbuffer.frag.wgsl
var GBufferFragmentSource string

// FullscreenVertexSource passes the full-screen quad through to clip space.
//
//go:embed assets/fullscreen.vert.wgsl
var FullscreenVertexSource string

// ResolveFragmentSource shades each pixel from the G-buffer and its cluster's lights.
//
//go:embed assets/resolve.frag.wgsl
var ResolveFragmentSource string

// ClusterComputeSource assigns lights to the view-space clusters read by the resolve pass.
//
//go:embed assets/cluster.comp.wgsl
var ClusterComputeSource string
