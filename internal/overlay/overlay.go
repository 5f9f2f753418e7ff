// Package overlay draws face bounding boxes and name captions onto images.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/fogleman/gg"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"golang.org/x/image/colornames"
)

// Style controls box and caption colours.
type Style struct {
	BoxColor  color.Color
	TextColor color.Color
	LineWidth float64
}

// DefaultStyle is a blue box with white caption text.
func DefaultStyle() Style {
	return Style{
		BoxColor:  colornames.Blue,
		TextColor: colornames.White,
		LineWidth: 1,
	}
}

// ParseColor resolves an SVG colour name ("blue") or a hex string ("#0000ff").
func ParseColor(s string) (color.Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	if strings.HasPrefix(s, "#") {
		var r, g, b uint8
		switch len(s) {
		case 7:
			if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err == nil {
				return color.RGBA{R: r, G: g, B: b, A: 255}, nil
			}
		case 4:
			if _, err := fmt.Sscanf(s, "#%1x%1x%1x", &r, &g, &b); err == nil {
				return color.RGBA{R: r * 17, G: g * 17, B: b * 17, A: 255}, nil
			}
		}
	}
	return nil, fmt.Errorf("unknown color %q", s)
}

// NewStyle builds a Style from colour names.
func NewStyle(box, text string) (Style, error) {
	style := DefaultStyle()
	var err error
	if box != "" {
		if style.BoxColor, err = ParseColor(box); err != nil {
			return style, fmt.Errorf("box color: %w", err)
		}
	}
	if text != "" {
		if style.TextColor, err = ParseColor(text); err != nil {
			return style, fmt.Errorf("text color: %w", err)
		}
	}
	return style, nil
}

// Label is one face to annotate.
type Label struct {
	Box  facematch.Box
	Text string
}

// Canvas accumulates annotations over a copy of the source image.
type Canvas struct {
	dc    *gg.Context
	style Style
}

// NewCanvas copies img into a drawing context.
func NewCanvas(img image.Image, style Style) *Canvas {
	dc := gg.NewContextForImage(img)
	return &Canvas{dc: dc, style: style}
}

// DrawFace outlines the face and places a filled caption whose top-left
// corner sits on the box's bottom-left corner.
func (c *Canvas) DrawFace(l Label) {
	left, top := float64(l.Box.Left), float64(l.Box.Top)
	right, bottom := float64(l.Box.Right), float64(l.Box.Bottom)

	c.dc.SetColor(c.style.BoxColor)
	c.dc.SetLineWidth(c.style.LineWidth)
	c.dc.DrawRectangle(left, top, right-left, bottom-top)
	c.dc.Stroke()

	text := facematch.ASCIILabel(l.Text)
	if text == "" {
		return
	}
	w, h := c.dc.MeasureString(text)
	c.dc.DrawRectangle(left, bottom, w, h)
	c.dc.Fill()

	c.dc.SetColor(c.style.TextColor)
	c.dc.DrawStringAnchored(text, left, bottom, 0, 1)
}

// Image returns the annotated image.
func (c *Canvas) Image() image.Image {
	return c.dc.Image()
}

// Annotate draws every label onto a copy of img.
func Annotate(img image.Image, labels []Label, style Style) image.Image {
	canvas := NewCanvas(img, style)
	for _, l := range labels {
		canvas.DrawFace(l)
	}
	return canvas.Image()
}
