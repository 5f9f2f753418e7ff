package fingerprint

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

// gradient returns an image getting brighter (or darker) left to right.
func gradient(w, h int, reverse bool) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		v := uint8(x * 255 / (w - 1))
		if reverse {
			v = 255 - v
		}
		for y := range h {
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Hash
		expected int
	}{
		{"identical", 0xdeadbeef, 0xdeadbeef, 0},
		{"one bit", 0b1000, 0b0000, 1},
		{"all bits", 0, ^Hash(0), 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.expected {
				t.Errorf("Distance() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestCompute_Gradients(t *testing.T) {
	darkening := Compute(gradient(90, 80, true))
	if darkening != ^Hash(0) {
		t.Errorf("darkening gradient should set every bit, got %s", darkening)
	}

	brightening := Compute(gradient(90, 80, false))
	if brightening != 0 {
		t.Errorf("brightening gradient should set no bits, got %s", brightening)
	}
}

func TestCompute_ScaleInvariant(t *testing.T) {
	src := gradient(180, 160, true)
	scaled := imaging.Resize(src, 45, 40, imaging.Lanczos)

	if d := Distance(Compute(src), Compute(scaled)); d > 4 {
		t.Errorf("resized copy differs by %d bits", d)
	}
}

func TestHash_String(t *testing.T) {
	if got := Hash(0xab).String(); got != "00000000000000ab" {
		t.Errorf("String() = %q", got)
	}
}

func TestIndex_Add(t *testing.T) {
	idx := NewIndex(4)

	if _, dup := idx.Add("alice/1.jpg", 0xff00); dup {
		t.Error("first entry cannot be a duplicate")
	}
	if _, dup := idx.Add("bob/1.jpg", 0x00ff); dup {
		t.Error("distant hash reported as duplicate")
	}
	original, dup := idx.Add("alice/1-copy.jpg", 0xff01)
	if !dup || original != "alice/1.jpg" {
		t.Errorf("expected duplicate of alice/1.jpg, got %q (%v)", original, dup)
	}
	if idx.Len() != 3 {
		t.Errorf("expected 3 entries, got %d", idx.Len())
	}
}
