package model

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu/gputest"
)

func TestGPUVertexMarshal(t *testing.T) {
	v := GPUVertex{
		Position: [3]float32{1, 2, 3},
		Normal:   [3]float32{0, 1, 0},
		TexCoord: [2]float32{0.25, 0.75},
	}
	if v.Size() != GPUVertexSize {
		t.Errorf("Size() = %d, want %d", v.Size(), GPUVertexSize)
	}
	buf := v.Marshal()
	want := []float32{1, 2, 3, 0, 1, 0, 0.25, 0.75}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		if got != w {
			t.Errorf("float %d = %v, want %v", i, got, w)
		}
	}
}

func TestVertexLayout(t *testing.T) {
	l := VertexLayout()
	if l.ArrayStride != GPUVertexSize {
		t.Errorf("ArrayStride = %d, want %d", l.ArrayStride, GPUVertexSize)
	}
	wantOffsets := []uint64{0, 12, 24}
	if len(l.Attributes) != len(wantOffsets) {
		t.Fatalf("attributes = %d, want %d", len(l.Attributes), len(wantOffsets))
	}
	for i, a := range l.Attributes {
		if a.Offset != wantOffsets[i] || a.ShaderLocation != uint32(i) {
			t.Errorf("attribute %d = offset %d location %d, want offset %d location %d", i, a.Offset, a.ShaderLocation, wantOffsets[i], i)
		}
	}
}

func TestGPUModelDataMarshal(t *testing.T) {
	var d GPUModelData
	d.Model[12] = 5
	d.Normal[0] = 2
	if d.Size() != GPUModelDataSize {
		t.Errorf("Size() = %d, want %d", d.Size(), GPUModelDataSize)
	}
	buf := d.Marshal()
	if len(buf) != GPUModelDataSize {
		t.Fatalf("len = %d, want %d", len(buf), GPUModelDataSize)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[48:])); got != 5 {
		t.Errorf("Model[12] = %v, want 5", got)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf[64:])); got != 2 {
		t.Errorf("Normal[0] = %v, want 2", got)
	}
}

func TestMarshalIndices(t *testing.T) {
	buf := MarshalIndices([]uint32{0, 1, 70000})
	if len(buf) != 12 {
		t.Fatalf("len = %d, want 12", len(buf))
	}
	if got := binary.LittleEndian.Uint32(buf[8:]); got != 70000 {
		t.Errorf("index 2 = %d, want 70000", got)
	}
}

func TestCube(t *testing.T) {
	vertices, indices := Cube(2)
	if len(vertices) != 24 || len(indices) != 36 {
		t.Fatalf("Cube = %d vertices, %d indices, want 24, 36", len(vertices), len(indices))
	}
	for i, v := range vertices {
		for axis := 0; axis < 3; axis++ {
			if p := v.Position[axis]; p != 1 && p != -1 {
				t.Fatalf("vertex %d position %v not on the cube corners", i, v.Position)
			}
		}
		// Every vertex lies on the face its normal points out of.
		var dot float32
		for axis := 0; axis < 3; axis++ {
			dot += v.Position[axis] * v.Normal[axis]
		}
		if dot != 1 {
			t.Errorf("vertex %d: position·normal = %v, want 1", i, dot)
		}
	}
	// Triangles wind counter-clockwise seen from outside.
	for tri := 0; tri < len(indices); tri += 3 {
		a, b, c := vertices[indices[tri]], vertices[indices[tri+1]], vertices[indices[tri+2]]
		n := cross(sub(b.Position, a.Position), sub(c.Position, a.Position))
		if dot3(n, a.Normal) <= 0 {
			t.Errorf("triangle %d winds clockwise", tri/3)
		}
	}
}

func TestPlaneAndQuad(t *testing.T) {
	for name, gen := range map[string]func() ([]GPUVertex, []uint32){
		"plane": func() ([]GPUVertex, []uint32) { return Plane(4) },
		"quad":  FullscreenQuad,
	} {
		vertices, indices := gen()
		if len(vertices) != 4 || len(indices) != 6 {
			t.Errorf("%s = %d vertices, %d indices, want 4, 6", name, len(vertices), len(indices))
		}
		a, b, c := vertices[indices[0]], vertices[indices[1]], vertices[indices[2]]
		if dot3(cross(sub(b.Position, a.Position), sub(c.Position, a.Position)), a.Normal) <= 0 {
			t.Errorf("%s first triangle winds clockwise", name)
		}
	}
}

func TestModelInit(t *testing.T) {
	ctx := gputest.NewContext()
	vertices, indices := Cube(1)
	m := NewModel(WithName("cube"), WithMesh(vertices, indices))

	if m.IndexCount() != 36 {
		t.Errorf("IndexCount() = %d, want 36", m.IndexCount())
	}
	if len(m.VertexData()) != 24*GPUVertexSize {
		t.Errorf("VertexData() = %d bytes, want %d", len(m.VertexData()), 24*GPUVertexSize)
	}
	if r := m.BoundingRadius(); math.Abs(float64(r)-math.Sqrt(0.75)) > 1e-6 {
		t.Errorf("BoundingRadius() = %v, want %v", r, math.Sqrt(0.75))
	}
	if m.VertexBuffer() != nil {
		t.Error("VertexBuffer() set before Init")
	}

	if err := m.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	vb := m.VertexBuffer().(*gputest.Buffer)
	if vb.Desc.Label != "cube Vertex Buffer" {
		t.Errorf("vertex buffer label = %q, want %q", vb.Desc.Label, "cube Vertex Buffer")
	}
	if m.MeshProvider().IndexCount() != 36 {
		t.Errorf("provider IndexCount() = %d, want 36", m.MeshProvider().IndexCount())
	}

	m.Release()
	if !vb.Released {
		t.Error("Release did not release the vertex buffer")
	}
}

func TestModelInitEmpty(t *testing.T) {
	err := NewModel(WithName("empty")).Init(gputest.NewContext())
	if !errors.Is(err, ErrEmptyMesh) {
		t.Errorf("Init error = %v, want ErrEmptyMesh", err)
	}
}

func sub(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{a[1]*b[2] - a[2]*b[1], a[2]*b[0] - a[0]*b[2], a[0]*b[1] - a[1]*b[0]}
}

func dot3(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}
