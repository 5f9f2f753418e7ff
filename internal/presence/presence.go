// Package presence runs the pigo cascade classifier to check whether a
// frame contains a face before it is handed to the slower encoder.
package presence

import (
	"fmt"
	"image"
	"os"
	"sort"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// Params tune the cascade run.
type Params struct {
	MinSize      int
	MaxSize      int
	ShiftFactor  float64
	ScaleFactor  float64
	IoUThreshold float64
	MinScore     float32 // detections below this quality are dropped
}

// DefaultParams mirror pigo's documented defaults.
func DefaultParams() Params {
	return Params{
		MinSize:      20,
		MaxSize:      1000,
		ShiftFactor:  0.1,
		ScaleFactor:  1.1,
		IoUThreshold: constants.IoUThreshold,
		MinScore:     5.0,
	}
}

// Detector finds face regions with a pigo cascade.
type Detector struct {
	classifier *pigo.Pigo
	params     Params
}

// Load reads a facefinder cascade file.
func Load(path string, params Params) (*Detector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cascade file %s: %w", path, err)
	}
	return New(data, params)
}

// New unpacks a cascade from memory.
func New(cascade []byte, params Params) (*Detector, error) {
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpacking cascade: %w", err)
	}
	return &Detector{classifier: classifier, params: params}, nil
}

// Detect returns face boxes ordered by detection quality.
func (d *Detector) Detect(img image.Image) []facematch.Box {
	src := imaging.Clone(img)
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()

	cParams := pigo.CascadeParams{
		MinSize:     d.params.MinSize,
		MaxSize:     d.params.MaxSize,
		ShiftFactor: d.params.ShiftFactor,
		ScaleFactor: d.params.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(src),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := d.classifier.RunCascade(cParams, 0)
	dets = d.classifier.ClusterDetections(dets, d.params.IoUThreshold)

	scored := make([]scoredBox, 0, len(dets))
	for _, det := range dets {
		if det.Q < d.params.MinScore {
			continue
		}
		scored = append(scored, scoredBox{box: detectionBox(det), score: det.Q})
	}
	return dedupe(scored, d.params.IoUThreshold)
}

// HasFace reports whether img contains at least one face.
func (d *Detector) HasFace(img image.Image) bool {
	return len(d.Detect(img)) > 0
}

type scoredBox struct {
	box   facematch.Box
	score float32
}

// detectionBox converts a pigo centre/scale detection into a pixel box.
func detectionBox(det pigo.Detection) facematch.Box {
	half := det.Scale / 2
	return facematch.Box{
		Top:    det.Row - half,
		Right:  det.Col + half,
		Bottom: det.Row + half,
		Left:   det.Col - half,
	}
}

// dedupe keeps the best scoring box of every group overlapping by more
// than threshold. Clustering alone leaves nested boxes at different scales.
func dedupe(boxes []scoredBox, threshold float64) []facematch.Box {
	sort.SliceStable(boxes, func(i, j int) bool { return boxes[i].score > boxes[j].score })

	var kept []facematch.Box
	for _, candidate := range boxes {
		overlaps := false
		for _, k := range kept {
			if facematch.ComputeIoU(candidate.box.Corners(), k.Corners()) > threshold {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, candidate.box)
		}
	}
	return kept
}
