package input

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

func TestCameraOrbit(t *testing.T) {
	tests := []struct {
		name string
		keys []uint32
		want Orbit
	}{
		{"none", nil, Orbit{}},
		{"right arrow", []uint32{common.KeyRight}, Orbit{Azimuth: 1}},
		{"a", []uint32{common.KeyA}, Orbit{Azimuth: -1}},
		{"right and d count once", []uint32{common.KeyRight, common.KeyD}, Orbit{Azimuth: 1}},
		{"opposites cancel", []uint32{common.KeyUp, common.KeyDown}, Orbit{}},
		{"zoom in and raise", []uint32{common.KeyE, common.KeyW}, Orbit{Elevation: 1, Zoom: 1}},
		{"page down", []uint32{common.KeyPageDown}, Orbit{Zoom: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var k KeyState
			for _, key := range tt.keys {
				k.Press(key)
			}
			if got := CameraOrbit(&k); got != tt.want {
				t.Errorf("CameraOrbit() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestKeyStateRelease(t *testing.T) {
	var k KeyState
	k.Release(common.KeyL)
	k.Press(common.KeyL)
	if !k.Held(common.KeyL) {
		t.Fatal("Held() = false after Press")
	}
	k.Release(common.KeyL)
	if k.Held(common.KeyL) {
		t.Error("Held() = true after Release")
	}
	if !CameraOrbit(&k).Zero() {
		t.Error("orbit not zero with no keys held")
	}
}
