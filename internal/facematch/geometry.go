package facematch

import "image"

// Box is a face rectangle in pixel coordinates of the analysed image.
type Box struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// BoxFromRect converts an image.Rectangle to a Box.
func BoxFromRect(r image.Rectangle) Box {
	r = r.Canon()
	return Box{Top: r.Min.Y, Right: r.Max.X, Bottom: r.Max.Y, Left: r.Min.X}
}

// Rect returns the box as an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right, b.Bottom)
}

// Corners returns the box as [x1, y1, x2, y2].
func (b Box) Corners() []float64 {
	return []float64{float64(b.Left), float64(b.Top), float64(b.Right), float64(b.Bottom)}
}

// ComputeIoU calculates Intersection over Union between two bounding boxes.
// bbox1 and bbox2 are [x1, y1, x2, y2] in the same coordinate system.
func ComputeIoU(bbox1, bbox2 []float64) float64 {
	if len(bbox1) != 4 || len(bbox2) != 4 {
		return 0
	}

	// Calculate intersection.
	x1 := max(bbox1[0], bbox2[0])
	y1 := max(bbox1[1], bbox2[1])
	x2 := min(bbox1[2], bbox2[2])
	y2 := min(bbox1[3], bbox2[3])

	if x2 <= x1 || y2 <= y1 {
		return 0 // No intersection
	}

	intersection := (x2 - x1) * (y2 - y1)

	// Calculate union.
	area1 := (bbox1[2] - bbox1[0]) * (bbox1[3] - bbox1[1])
	area2 := (bbox2[2] - bbox2[0]) * (bbox2[3] - bbox2[1])
	union := area1 + area2 - intersection

	if union <= 0 {
		return 0
	}

	return intersection / union
}

// ConvertPixelBBoxToRelative converts pixel bbox to relative (0-1) coordinates.
// Input bbox is [x1, y1, x2, y2] in pixels, output is [x1, y1, x2, y2] in relative coords.
func ConvertPixelBBoxToRelative(bbox []float64, width, height int) []float64 {
	if len(bbox) != 4 || width <= 0 || height <= 0 {
		return bbox
	}
	return []float64{
		bbox[0] / float64(width),
		bbox[1] / float64(height),
		bbox[2] / float64(width),
		bbox[3] / float64(height),
	}
}
