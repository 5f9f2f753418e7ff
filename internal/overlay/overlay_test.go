package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/kozaktomas/face-attendance/internal/facematch"
	"golang.org/x/image/colornames"
)

func sameColor(a, b color.Color) bool {
	r1, g1, b1, a1 := a.RGBA()
	r2, g2, b2, a2 := b.RGBA()
	return r1 == r2 && g1 == g2 && b1 == b2 && a1 == a2
}

func blankImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.Black)
		}
	}
	return img
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		input    string
		expected color.Color
		wantErr  bool
	}{
		{"blue", colornames.Blue, false},
		{"White", colornames.White, false},
		{"#ff0000", color.RGBA{R: 255, A: 255}, false},
		{"#0f0", color.RGBA{G: 255, A: 255}, false},
		{"not-a-color", nil, true},
		{"#12", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			c, err := ParseColor(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseColor(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseColor(%q) unexpected error: %v", tt.input, err)
			}
			if !sameColor(c, tt.expected) {
				t.Errorf("ParseColor(%q) = %v, want %v", tt.input, c, tt.expected)
			}
		})
	}
}

func TestNewStyle_Invalid(t *testing.T) {
	if _, err := NewStyle("blurple", "white"); err == nil {
		t.Error("expected error for unknown box color")
	}
	if _, err := NewStyle("blue", "blurple"); err == nil {
		t.Error("expected error for unknown text color")
	}
}

func TestAnnotate_DrawsBoxAndCaption(t *testing.T) {
	src := blankImage(120, 120)
	box := facematch.Box{Top: 10, Right: 60, Bottom: 50, Left: 20}

	out := Annotate(src, []Label{{Box: box, Text: "Alice"}}, DefaultStyle())

	if out.Bounds() != src.Bounds() {
		t.Fatalf("bounds changed: %v -> %v", src.Bounds(), out.Bounds())
	}

	// Middle of the top edge is painted with the box colour
	if edge := out.At(40, 10); sameColor(edge, color.Black) {
		t.Errorf("expected box outline at (40,10), pixel still black")
	}

	// Inside the face box stays untouched
	if inner := out.At(40, 30); !sameColor(inner, color.Black) {
		t.Errorf("expected untouched pixel inside box, got %v", inner)
	}

	// Caption background starts just below the bottom-left corner
	if caption := out.At(21, 52); sameColor(caption, color.Black) {
		t.Errorf("expected caption background at (21,52), pixel still black")
	}

	// Source image is not modified
	if !sameColor(src.At(40, 10), color.Black) {
		t.Error("Annotate modified the source image")
	}
}

func TestAnnotate_NoLabels(t *testing.T) {
	src := blankImage(10, 10)

	out := Annotate(src, nil, DefaultStyle())

	for x := range 10 {
		for y := range 10 {
			if !sameColor(out.At(x, y), color.Black) {
				t.Fatalf("pixel (%d,%d) changed without labels", x, y)
			}
		}
	}
}
