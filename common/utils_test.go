package common

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestCoalesce(t *testing.T) {
	if got := Coalesce(0, 0, 3, 4); got != 3 {
		t.Errorf("Coalesce(0, 0, 3, 4) = %d, want 3", got)
	}
	if got := Coalesce("", ""); got != "" {
		t.Errorf("Coalesce of empty strings = %q, want empty", got)
	}
}

func TestCeilDiv(t *testing.T) {
	tests := []struct {
		n, d, want uint32
	}{
		{16, 4, 4},
		{9, 4, 3},
		{24, 4, 6},
		{1, 4, 1},
		{0, 4, 0},
	}
	for _, tt := range tests {
		if got := CeilDiv(tt.n, tt.d); got != tt.want {
			t.Errorf("CeilDiv(%d, %d) = %d, want %d", tt.n, tt.d, got, tt.want)
		}
	}
}

func TestSolidTexture(t *testing.T) {
	tex := SolidTexture([4]uint8{10, 20, 30, 255})
	if tex.Width != 1 || tex.Height != 1 {
		t.Errorf("size = %dx%d, want 1x1", tex.Width, tex.Height)
	}
	if !bytes.Equal(tex.Pixels, []byte{10, 20, 30, 255}) {
		t.Errorf("Pixels = %v, want [10 20 30 255]", tex.Pixels)
	}
}

func TestDecodeTexture(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	img.Set(1, 2, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}

	tex, err := DecodeTexture(&buf)
	if err != nil {
		t.Fatalf("DecodeTexture: %v", err)
	}
	if tex.Width != 2 || tex.Height != 3 {
		t.Fatalf("size = %dx%d, want 2x3", tex.Width, tex.Height)
	}
	if len(tex.Pixels) != 2*3*4 {
		t.Fatalf("len(Pixels) = %d, want 24", len(tex.Pixels))
	}
	off := (2*2 + 1) * 4
	if got := tex.Pixels[off : off+4]; !bytes.Equal(got, []byte{200, 100, 50, 255}) {
		t.Errorf("pixel(1,2) = %v, want [200 100 50 255]", got)
	}
}

func TestDecodeTextureInvalid(t *testing.T) {
	if _, err := DecodeTexture(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("DecodeTexture(garbage) returned nil error")
	}
}
