package scene

import (
	"encoding/binary"
	"fmt"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/layout"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/go-gl/mathgl/mgl32"
)

func newCube(name string) model.Model {
	v, i := model.Cube(1)
	return model.NewModel(model.WithName(name), model.WithMesh(v, i))
}

func initScene(t *testing.T, s Graph) *gputest.Context {
	t.Helper()
	ctx := gputest.NewContext()
	reg, err := layout.NewRegistry(ctx)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if err := s.Init(ctx, reg); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return ctx
}

func TestIterateOrder(t *testing.T) {
	red := material.NewMaterial(material.WithName("red"))
	blue := material.NewMaterial(material.WithName("blue"))
	a, b, c := newCube("a"), newCube("b"), newCube("c")

	n1 := NewNode("n1")
	n1.AddPrimitive(red, a)
	n1.AddPrimitive(blue, b)
	n1.AddPrimitive(red, c)
	n2 := NewNode("n2")
	n2.AddPrimitive(blue, a)

	s := NewScene("order", WithNodes(n1, n2), WithComputeWorkers(2))

	var got []string
	s.Iterate(
		func(n Node) { got = append(got, "node "+n.(SceneNode).Name()) },
		func(m Material) { got = append(got, "material "+m.(material.Material).Name()) },
		func(p Primitive) { got = append(got, "primitive "+p.(model.Model).Name()) },
	)

	want := []string{
		"node n1", "material red", "primitive a", "primitive c", "material blue", "primitive b",
		"node n2", "material blue", "primitive a",
	}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Iterate visited\n  %v\nwant\n  %v", got, want)
	}
}

func TestIterateEmpty(t *testing.T) {
	calls := 0
	NewScene("empty").Iterate(
		func(Node) { calls++ },
		func(Material) { calls++ },
		func(Primitive) { calls++ },
	)
	if calls != 0 {
		t.Errorf("Iterate on an empty scene made %d calls, want 0", calls)
	}
}

func TestInitCreatesResources(t *testing.T) {
	shared := material.NewMaterial(material.WithName("shared"))
	cube := newCube("cube")
	n1 := NewNode("n1", WithTranslation(1, 2, 3))
	n1.AddPrimitive(shared, cube)
	n2 := NewNode("n2")
	n2.AddPrimitive(shared, cube)

	s := NewScene("init")
	s.AddNode(n1)
	s.AddNode(n2)
	ctx := initScene(t, s)

	if n1.ModelBindGroup() == nil || n2.ModelBindGroup() == nil {
		t.Fatal("node bind groups not created")
	}
	if shared.MaterialBindGroup() == nil || cube.VertexBuffer() == nil {
		t.Fatal("material or primitive resources not created")
	}
	// 2 node groups + 1 shared material group.
	if len(ctx.BindGroups) != 3 {
		t.Errorf("created %d bind groups, want 3", len(ctx.BindGroups))
	}
	if len(ctx.Textures) != 1 {
		t.Errorf("created %d textures, want 1 for the shared material", len(ctx.Textures))
	}

	buf := n1.Provider().Buffer(layout.BindingModel).(*gputest.Buffer)
	if buf.Desc.Size != model.GPUModelDataSize {
		t.Errorf("node buffer size = %d, want %d", buf.Desc.Size, model.GPUModelDataSize)
	}
	// Translation lives in elements 12..14 of the column-major model matrix.
	for i, want := range []float32{1, 2, 3} {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf.Data[(12+i)*4:]))
		if got != want {
			t.Errorf("model[%d] = %v, want %v", 12+i, got, want)
		}
	}
	if n1.Dirty() {
		t.Error("node still dirty after Init uploaded it")
	}

	// A second Init creates nothing new.
	reg, _ := layout.NewRegistry(ctx)
	before := len(ctx.BindGroups)
	if err := s.Init(ctx, reg); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	if len(ctx.BindGroups) != before {
		t.Errorf("second Init created %d bind groups", len(ctx.BindGroups)-before)
	}
}

func TestUploadTransformsOnlyDirty(t *testing.T) {
	nodes := make([]SceneNode, 8)
	for i := range nodes {
		nodes[i] = NewNode(fmt.Sprintf("n%d", i))
		nodes[i].AddPrimitive(material.NewMaterial(), newCube(fmt.Sprintf("c%d", i)))
	}
	s := NewScene("upload", WithNodes(nodes...), WithComputeWorkers(3))
	ctx := initScene(t, s)

	if n := s.UploadTransforms(ctx); n != 0 {
		t.Errorf("UploadTransforms with no changes wrote %d nodes, want 0", n)
	}

	nodes[2].SetTransform(mgl32.Scale3D(2, 2, 2))
	nodes[5].SetTransform(mgl32.Translate3D(0, 0, -4))
	if n := s.UploadTransforms(ctx); n != 2 {
		t.Fatalf("UploadTransforms wrote %d nodes, want 2", n)
	}

	buf := nodes[2].Provider().Buffer(layout.BindingModel).(*gputest.Buffer)
	if buf.Writes != 2 {
		t.Errorf("node 2 buffer writes = %d, want 2 (init + change)", buf.Writes)
	}
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf.Data[0:])); got != 2 {
		t.Errorf("model[0] = %v, want 2", got)
	}
	// The normal matrix of a uniform scale by 2 is a uniform scale by 0.5.
	if got := math.Float32frombits(binary.LittleEndian.Uint32(buf.Data[64:])); math.Abs(float64(got)-0.5) > 1e-6 {
		t.Errorf("normal[0] = %v, want 0.5", got)
	}
	if w := nodes[3].Provider().Buffer(layout.BindingModel).(*gputest.Buffer).Writes; w != 1 {
		t.Errorf("unchanged node buffer writes = %d, want 1", w)
	}
}

func TestModelDataSingular(t *testing.T) {
	n := NewNode("flat", WithTransform(mgl32.Scale3D(1, 0, 1)))
	if got := n.ModelData().Normal; got != [16]float32(mgl32.Ident4()) {
		t.Errorf("normal matrix of a singular transform = %v, want identity", got)
	}
}

func TestRelease(t *testing.T) {
	shared := material.NewMaterial()
	cube := newCube("cube")
	n1, n2 := NewNode("n1"), NewNode("n2")
	n1.AddPrimitive(shared, cube)
	n2.AddPrimitive(shared, cube)
	s := NewScene("release", WithNodes(n1, n2))
	ctx := initScene(t, s)

	s.Release()
	for _, bg := range ctx.BindGroups {
		if !bg.Released {
			t.Errorf("bind group %q not released", bg.Desc.Label)
		}
	}
	for _, b := range ctx.Buffers {
		if !b.Released {
			t.Errorf("buffer %q not released", b.Desc.Label)
		}
	}
}
