package model

// cubeFaces lists each face of the unit cube as its normal and the two axes spanning it,
// chosen so that u × v = normal and the winding is counter-clockwise from outside.
var cubeFaces = [6]struct {
	normal, u, v [3]float32
}{
	{[3]float32{1, 0, 0}, [3]float32{0, 0, -1}, [3]float32{0, 1, 0}},
	{[3]float32{-1, 0, 0}, [3]float32{0, 0, 1}, [3]float32{0, 1, 0}},
	{[3]float32{0, 1, 0}, [3]float32{1, 0, 0}, [3]float32{0, 0, -1}},
	{[3]float32{0, -1, 0}, [3]float32{1, 0, 0}, [3]float32{0, 0, 1}},
	{[3]float32{0, 0, 1}, [3]float32{1, 0, 0}, [3]float32{0, 1, 0}},
	{[3]float32{0, 0, -1}, [3]float32{-1, 0, 0}, [3]float32{0, 1, 0}},
}

// Cube returns a cube of the given edge length centered on the origin, with four
// vertices per face so each face carries its own normal and UVs.
//
// Parameters:
//   - size: the edge length
//
// Returns:
//   - []GPUVertex: 24 vertices
//   - []uint32: 36 indices
func Cube(size float32) ([]GPUVertex, []uint32) {
	h := size / 2
	vertices := make([]GPUVertex, 0, 24)
	indices := make([]uint32, 0, 36)
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	for _, f := range cubeFaces {
		base := uint32(len(vertices))
		for _, c := range corners {
			var pos [3]float32
			for i := 0; i < 3; i++ {
				pos[i] = (f.normal[i] + c[0]*f.u[i] + c[1]*f.v[i]) * h
			}
			vertices = append(vertices, GPUVertex{
				Position: pos,
				Normal:   f.normal,
				TexCoord: [2]float32{(c[0] + 1) / 2, (1 - c[1]) / 2},
			})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return vertices, indices
}

// Plane returns a square in the XZ plane facing +Y, centered on the origin.
//
// Parameters:
//   - size: the edge length
//
// Returns:
//   - []GPUVertex: 4 vertices
//   - []uint32: 6 indices
func Plane(size float32) ([]GPUVertex, []uint32) {
	h := size / 2
	up := [3]float32{0, 1, 0}
	return []GPUVertex{
			{Position: [3]float32{-h, 0, h}, Normal: up, TexCoord: [2]float32{0, 1}},
			{Position: [3]float32{h, 0, h}, Normal: up, TexCoord: [2]float32{1, 1}},
			{Position: [3]float32{h, 0, -h}, Normal: up, TexCoord: [2]float32{1, 0}},
			{Position: [3]float32{-h, 0, -h}, Normal: up, TexCoord: [2]float32{0, 0}},
		},
		[]uint32{0, 1, 2, 0, 2, 3}
}

// FullscreenQuad returns a quad covering clip space in xy, with UV origin at the
// top-left. The full-screen vertex shader passes xy through unchanged.
//
// Returns:
//   - []GPUVertex: 4 vertices
//   - []uint32: 6 indices
func FullscreenQuad() ([]GPUVertex, []uint32) {
	n := [3]float32{0, 0, 1}
	return []GPUVertex{
			{Position: [3]float32{-1, -1, 0}, Normal: n, TexCoord: [2]float32{0, 1}},
			{Position: [3]float32{1, -1, 0}, Normal: n, TexCoord: [2]float32{1, 1}},
			{Position: [3]float32{1, 1, 0}, Normal: n, TexCoord: [2]float32{1, 0}},
			{Position: [3]float32{-1, 1, 0}, Normal: n, TexCoord: [2]float32{0, 0}},
		},
		[]uint32{0, 1, 2, 0, 2, 3}
}
