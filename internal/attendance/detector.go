// Package attendance ties the encoder, the encoding store and the overlay
// together into the train / recognize / validate workflow.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/facerec"
	"github.com/kozaktomas/face-attendance/internal/overlay"
	"github.com/kozaktomas/face-attendance/internal/report"
	"github.com/sirupsen/logrus"
)

// ErrNoEncodings is returned when recognition runs before any training.
var ErrNoEncodings = errors.New("no known face encodings, run the train command first")

// Recognition is the outcome for one face found in an image.
type Recognition struct {
	Name     string        `json:"name"`
	Matched  bool          `json:"matched"`
	Votes    int           `json:"votes"`
	Box      facematch.Box `json:"box"`
	Distance float64       `json:"-"` // +Inf when the set is empty
}

// Result is what RecognizeFaces produced for a single file.
type Result struct {
	Source       string        `json:"source"`
	Output       string        `json:"output,omitempty"` // annotated image
	Recognitions []Recognition `json:"recognitions"`
}

// Names returns the matched names in detector order.
func (r *Result) Names() []string {
	var names []string
	for _, rec := range r.Recognitions {
		if rec.Matched {
			names = append(names, rec.Name)
		}
	}
	return names
}

// ReportEntries converts recognitions for the CSV report.
func ReportEntries(recs []Recognition) []report.Entry {
	entries := make([]report.Entry, len(recs))
	for i, rec := range recs {
		entries[i] = report.Entry{Name: rec.Name, Matched: rec.Matched}
	}
	return entries
}

// Detector runs the attendance workflow.
type Detector struct {
	cfg        *config.Config
	encoder    facerec.Encoder
	store      database.EncodingStore
	attendance database.AttendanceWriter
	style      overlay.Style
	now        func() time.Time
}

// Option customises a Detector.
type Option func(*Detector)

// WithAttendanceWriter persists recognized names after each run.
func WithAttendanceWriter(w database.AttendanceWriter) Option {
	return func(d *Detector) { d.attendance = w }
}

// WithClock overrides time.Now, used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// NewDetector builds a Detector. The overlay colours come from cfg.Display.
func NewDetector(cfg *config.Config, encoder facerec.Encoder, store database.EncodingStore, opts ...Option) (*Detector, error) {
	style, err := overlay.NewStyle(cfg.Display.BoxColor, cfg.Display.TextColor)
	if err != nil {
		return nil, err
	}
	d := &Detector{
		cfg:     cfg,
		encoder: encoder,
		store:   store,
		style:   style,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Config returns the configuration the detector was built with.
func (d *Detector) Config() *config.Config {
	return d.cfg
}

// Now returns the detector clock.
func (d *Detector) Now() time.Time {
	return d.now()
}

// EnsureDirs creates the working directories.
func (d *Detector) EnsureDirs() error {
	for _, dir := range []string{
		d.cfg.Paths.TrainingDir,
		d.cfg.Paths.OutputDir,
		d.cfg.Paths.ValidationDir,
		d.cfg.Paths.SnapshotDir,
	} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}

// loadKnown fetches the encoding set, mapping a missing set to ErrNoEncodings.
func (d *Detector) loadKnown(ctx context.Context) (*facematch.KnownFaces, error) {
	known, err := d.store.Load(ctx)
	if errors.Is(err, database.ErrNoEncodings) {
		return nil, fmt.Errorf("%w: %w", ErrNoEncodings, err)
	}
	if err != nil {
		return nil, fmt.Errorf("loading encodings: %w", err)
	}
	return known, nil
}

// StoredEncodings reports how many encodings the store currently holds.
// Stores without a cheap count are loaded in full.
func (d *Detector) StoredEncodings(ctx context.Context) (int, error) {
	if counter, ok := d.store.(database.EncodingCounter); ok {
		return counter.Count(ctx)
	}
	known, err := d.store.Load(ctx)
	if errors.Is(err, database.ErrNoEncodings) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("loading encodings: %w", err)
	}
	return known.Len(), nil
}

// RecognizeImage encodes img, votes for every face and returns the
// recognitions together with the annotated copy of img.
func (d *Detector) RecognizeImage(ctx context.Context, img image.Image, model facerec.Model) ([]Recognition, image.Image, error) {
	known, err := d.loadKnown(ctx)
	if err != nil {
		return nil, nil, err
	}

	faces, err := d.encoder.Encode(ctx, img, model)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding image: %w", err)
	}

	recs := make([]Recognition, 0, len(faces))
	labels := make([]overlay.Label, 0, len(faces))
	for _, f := range faces {
		match := facematch.Vote(known, f.Encoding, d.cfg.Recognition.Tolerance)
		rec := Recognition{
			Name:     match.Name,
			Matched:  match.Matched,
			Votes:    match.Votes,
			Box:      f.Box,
			Distance: match.BestDistance,
		}
		recs = append(recs, rec)

		label := rec.Name
		if !rec.Matched {
			label = d.cfg.Display.UnknownLabel
		}
		labels = append(labels, overlay.Label{Box: f.Box, Text: label})
	}

	logrus.WithFields(logrus.Fields{
		"faces":   len(faces),
		"matched": countMatched(recs),
		"model":   model,
	}).Debug("recognized image")

	return recs, overlay.Annotate(img, labels, d.style), nil
}

// RecognizeFaces runs recognition on the image at path and saves the
// annotated copy into the output directory.
func (d *Detector) RecognizeFaces(ctx context.Context, path string, model facerec.Model) (*Result, error) {
	img, err := facerec.LoadImage(path, d.cfg.Recognition.MaxImageSize)
	if err != nil {
		return nil, err
	}

	recs, annotated, err := d.RecognizeImage(ctx, img, model)
	if err != nil {
		return nil, err
	}

	out := d.annotatedPath(path)
	if err := saveJPEG(annotated, out); err != nil {
		return nil, fmt.Errorf("saving annotated image: %w", err)
	}

	return &Result{Source: path, Output: out, Recognitions: recs}, nil
}

// annotatedPath maps a source image to <output>/<name>-annotated.jpg.
// Images below the validation directory keep their sub-path, and a non-.jpg
// extension is kept in the name, so validation/alice/1.jpg becomes
// alice_1-annotated.jpg and class.png becomes class_png-annotated.jpg.
func (d *Detector) annotatedPath(source string) string {
	name := filepath.Base(source)
	if root := d.cfg.Paths.ValidationDir; root != "" {
		if rel, err := filepath.Rel(root, source); err == nil && filepath.IsLocal(rel) {
			name = rel
		}
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if ext != "" && ext != ".jpg" {
		stem += "_" + strings.TrimPrefix(ext, ".")
	}
	stem = strings.ReplaceAll(filepath.ToSlash(stem), "/", "_")
	return filepath.Join(d.cfg.Paths.OutputDir, stem+"-annotated.jpg")
}

// saveJPEG writes img through a temporary file and renames it into place, so
// concurrent requests for the same source never leave a torn file behind.
func saveJPEG(img image.Image, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".annotated-*.jpg")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if err := imaging.Encode(tmp, img, imaging.JPEG); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func countMatched(recs []Recognition) int {
	n := 0
	for _, r := range recs {
		if r.Matched {
			n++
		}
	}
	return n
}
