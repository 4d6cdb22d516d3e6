package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/gpu/gputest"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// within1e4 compares with an absolute tolerance; mgl32's thresholds are relative and
// never match float32 noise against an expected zero.
func within1e4(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func readFloat(buf []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset:]))
}

func TestUniformMarshalLayout(t *testing.T) {
	u := GPUCameraUniform{
		ScreenSize: [2]float32{1280, 720},
		Near:       0.5,
		Far:        50,
	}
	u.ViewProj[0] = 1
	u.View[5] = 2
	u.InvProj[15] = 3

	if u.Size() != GPUCameraUniformSize {
		t.Fatalf("Size() = %d, want %d", u.Size(), GPUCameraUniformSize)
	}
	buf := u.Marshal()
	if len(buf) != GPUCameraUniformSize {
		t.Fatalf("len(Marshal()) = %d, want %d", len(buf), GPUCameraUniformSize)
	}
	tests := []struct {
		name   string
		offset int
		want   float32
	}{
		{"viewProj[0]", 0, 1},
		{"view[5]", 64 + 5*4, 2},
		{"invProj[15]", 128 + 15*4, 3},
		{"screenSize.x", 192, 1280},
		{"screenSize.y", 196, 720},
		{"near", 200, 0.5},
		{"far", 204, 50},
	}
	for _, tt := range tests {
		if got := readFloat(buf, tt.offset); got != tt.want {
			t.Errorf("%s at %d = %v, want %v", tt.name, tt.offset, got, tt.want)
		}
	}
}

func TestProjectionDepthRange(t *testing.T) {
	c := NewCamera(WithClipPlanes(0.5, 50))
	proj := c.ProjectionMatrix()

	tests := []struct {
		viewZ float32
		want  float32
	}{
		{-0.5, 0},
		{-50, 1},
	}
	for _, tt := range tests {
		clip := proj.Mul4x1(mgl32.Vec4{0, 0, tt.viewZ, 1})
		if got := clip.Z() / clip.W(); math.Abs(float64(got-tt.want)) > 1e-5 {
			t.Errorf("depth at view z %v = %v, want %v", tt.viewZ, got, tt.want)
		}
	}

	if !c.InverseProjectionMatrix().Mul4(proj).ApproxFuncEqual(mgl32.Ident4(), within1e4) {
		t.Error("InverseProjectionMatrix * ProjectionMatrix is not identity")
	}
}

func TestViewLooksAtTarget(t *testing.T) {
	ctrl := NewCameraController(WithTarget(1, 2, 3), WithRadius(10))
	c := NewCamera(WithController(ctrl))

	got := c.ViewMatrix().Mul4x1(mgl32.Vec4{1, 2, 3, 1})
	want := mgl32.Vec4{0, 0, -10, 1}
	if !got.ApproxFuncEqual(want, within1e4) {
		t.Errorf("target in view space = %v, want %v", got, want)
	}
}

func TestSetScreenSize(t *testing.T) {
	c := NewCamera()
	c.SetScreenSize(1000, 500)
	if c.Aspect() != 2 {
		t.Errorf("Aspect() = %v, want 2", c.Aspect())
	}
	c.SetScreenSize(0, 500)
	if w, h := c.ScreenSize(); w != 1000 || h != 500 {
		t.Errorf("ScreenSize() = %vx%v after zero width, want 1000x500", w, h)
	}
	if u := c.Uniform(); u.ScreenSize != [2]float32{1000, 500} {
		t.Errorf("Uniform().ScreenSize = %v, want [1000 500]", u.ScreenSize)
	}
}

func TestInitAndUpload(t *testing.T) {
	ctx := gputest.NewContext()
	c := NewCamera()
	if c.UniformBuffer() != nil {
		t.Fatal("UniformBuffer() before Init is not nil")
	}
	if err := c.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	buf, ok := c.UniformBuffer().(*gputest.Buffer)
	if !ok {
		t.Fatalf("UniformBuffer() = %T, want *gputest.Buffer", c.UniformBuffer())
	}
	if buf.Desc.Size != GPUCameraUniformSize || buf.Desc.Usage != wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst {
		t.Errorf("buffer desc = %+v, want 208 bytes uniform|copy dst", buf.Desc)
	}
	if readFloat(buf.Data, 192) != 800 || readFloat(buf.Data, 196) != 600 {
		t.Errorf("uploaded screen size = %vx%v, want the 800x600 surface", readFloat(buf.Data, 192), readFloat(buf.Data, 196))
	}

	if err := c.Init(ctx); err != nil || len(ctx.Buffers) != 1 {
		t.Errorf("second Init = %v with %d buffers, want nil and 1 buffer", err, len(ctx.Buffers))
	}

	c.Controller().Orbit(10, 0)
	c.Upload(ctx)
	if buf.Writes != 2 {
		t.Errorf("Writes = %d, want 2", buf.Writes)
	}
	if c.UniformBuffer() != buf {
		t.Error("Upload replaced the uniform buffer")
	}

	c.Release()
	if !buf.Released {
		t.Error("Release did not release the uniform buffer")
	}
}

func TestControllerBounds(t *testing.T) {
	ctrl := NewCameraController(
		WithRadius(10),
		WithRadiusBounds(5, 15),
		WithElevation(0),
		WithElevationBounds(-0.5, 0.5),
		WithOrbitSpeed(0.1),
	)

	ctrl.Zoom(100)
	if ctrl.Radius() != 5 {
		t.Errorf("Radius() after zoom in = %v, want 5", ctrl.Radius())
	}
	ctrl.Zoom(-100)
	if ctrl.Radius() != 15 {
		t.Errorf("Radius() after zoom out = %v, want 15", ctrl.Radius())
	}
	ctrl.Orbit(0, 100)
	if ctrl.Elevation() != 0.5 {
		t.Errorf("Elevation() = %v, want 0.5", ctrl.Elevation())
	}
	ctrl.Orbit(3, 0)
	if math.Abs(float64(ctrl.Azimuth()-0.3)) > 1e-6 {
		t.Errorf("Azimuth() = %v, want 0.3", ctrl.Azimuth())
	}
	if d := ctrl.Position().Sub(ctrl.Target()).Len(); math.Abs(float64(d-15)) > 1e-4 {
		t.Errorf("distance to target = %v, want 15", d)
	}
}
