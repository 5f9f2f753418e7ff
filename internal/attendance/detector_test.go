package attendance

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/facerec"
)

// fakeEncoder returns faces keyed by image width so tests can choose
// the outcome per file.
type fakeEncoder struct {
	byWidth    map[int][]facerec.Face
	errByWidth map[int]error
	calls      int
}

func (f *fakeEncoder) Encode(ctx context.Context, img image.Image, model facerec.Model) ([]facerec.Face, error) {
	f.calls++
	w := img.Bounds().Dx()
	if err := f.errByWidth[w]; err != nil {
		return nil, err
	}
	return f.byWidth[w], nil
}

func (f *fakeEncoder) Close() error { return nil }

func face(box facematch.Box, enc ...float32) facerec.Face {
	return facerec.Face{Box: box, Encoding: facematch.Encoding(enc)}
}

func writeImage(t *testing.T, path string, width int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	img := imaging.New(width, 80, color.White)
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("failed to write image %s: %v", path, err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Load()
	cfg.Paths.TrainingDir = filepath.Join(root, "training")
	cfg.Paths.ValidationDir = filepath.Join(root, "validation")
	cfg.Paths.OutputDir = filepath.Join(root, "output")
	cfg.Paths.SnapshotDir = filepath.Join(root, "class-snapshot")
	cfg.Paths.EncodingsFile = filepath.Join(root, "output", "encodings.gob")
	cfg.Recognition.Tolerance = 0.5
	cfg.Recognition.MaxImageSize = 0
	cfg.Display.BoxColor = "blue"
	cfg.Display.TextColor = "white"
	cfg.Display.UnknownLabel = "Unknown"
	return cfg
}

func newTestDetector(t *testing.T, cfg *config.Config, enc facerec.Encoder, store database.EncodingStore, opts ...Option) *Detector {
	t.Helper()
	d, err := NewDetector(cfg, enc, store, opts...)
	if err != nil {
		t.Fatalf("NewDetector() error: %v", err)
	}
	return d
}

var box = facematch.Box{Top: 10, Right: 40, Bottom: 40, Left: 10}

func TestNewDetector_InvalidColor(t *testing.T) {
	cfg := testConfig(t)
	cfg.Display.BoxColor = "blurple"

	if _, err := NewDetector(cfg, &fakeEncoder{}, mock.NewMockEncodingStore(nil)); err == nil {
		t.Error("expected error for unknown box color")
	}
}

func TestEnsureDirs(t *testing.T) {
	cfg := testConfig(t)
	d := newTestDetector(t, cfg, &fakeEncoder{}, mock.NewMockEncodingStore(nil))

	if err := d.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs() error: %v", err)
	}

	for _, dir := range []string{cfg.Paths.TrainingDir, cfg.Paths.OutputDir, cfg.Paths.ValidationDir, cfg.Paths.SnapshotDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s to exist", dir)
		}
	}
}

func TestEncodeKnownFaces(t *testing.T) {
	cfg := testConfig(t)
	writeImage(t, filepath.Join(cfg.Paths.TrainingDir, "alice", "a1.png"), 50)
	writeImage(t, filepath.Join(cfg.Paths.TrainingDir, "alice", "a2.png"), 51)
	writeImage(t, filepath.Join(cfg.Paths.TrainingDir, "bob", "b1.png"), 60)
	writeFile(t, filepath.Join(cfg.Paths.TrainingDir, "bob", "notes.txt"), "not an image")
	writeFile(t, filepath.Join(cfg.Paths.TrainingDir, "README.md"), "ignored")

	enc := &fakeEncoder{byWidth: map[int][]facerec.Face{
		50: {face(box, 0, 0)},
		51: {face(box, 0.1, 0)},
		60: {face(box, 5, 5)},
	}}
	store := mock.NewMockEncodingStore(nil)
	d := newTestDetector(t, cfg, enc, store)

	var progressed []string
	summary, err := d.EncodeKnownFaces(context.Background(), facerec.ModelHOG, func(f TrainingFile, faces int, err error) {
		progressed = append(progressed, f.Person)
	})
	if err != nil {
		t.Fatalf("EncodeKnownFaces() error: %v", err)
	}

	if summary.Files != 4 {
		t.Errorf("expected 4 files, got %d", summary.Files)
	}
	if summary.Skipped != 1 {
		t.Errorf("expected 1 skipped file, got %d", summary.Skipped)
	}
	if summary.Images != 3 {
		t.Errorf("expected 3 fingerprinted images, got %d", summary.Images)
	}
	if summary.Encodings != 3 || summary.People != 2 {
		t.Errorf("expected 3 encodings for 2 people, got %d for %d", summary.Encodings, summary.People)
	}
	if len(progressed) != 4 {
		t.Errorf("expected progress for 4 files, got %d", len(progressed))
	}
	if enc.calls != 3 {
		t.Errorf("expected encoder to run 3 times, got %d", enc.calls)
	}

	known, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	expected := []string{"alice", "alice", "bob"}
	for i, name := range expected {
		if known.Names[i] != name {
			t.Errorf("Names[%d] = %q, want %q", i, known.Names[i], name)
		}
	}
}

func TestEncodeKnownFaces_EncoderFailureIsSkipped(t *testing.T) {
	cfg := testConfig(t)
	writeImage(t, filepath.Join(cfg.Paths.TrainingDir, "alice", "good.png"), 50)
	writeImage(t, filepath.Join(cfg.Paths.TrainingDir, "alice", "bad.png"), 70)

	enc := &fakeEncoder{
		byWidth:    map[int][]facerec.Face{50: {face(box, 0, 0)}},
		errByWidth: map[int]error{70: errors.New("boom")},
	}
	store := mock.NewMockEncodingStore(nil)
	d := newTestDetector(t, cfg, enc, store)

	summary, err := d.EncodeKnownFaces(context.Background(), facerec.ModelHOG, nil)
	if err != nil {
		t.Fatalf("EncodeKnownFaces() error: %v", err)
	}
	if summary.Failed != 1 || summary.Encodings != 1 {
		t.Errorf("expected 1 failure and 1 encoding, got %+v", summary)
	}
	// The failing image was decoded before the encoder rejected it
	if summary.Images != 2 {
		t.Errorf("expected 2 fingerprinted images, got %d", summary.Images)
	}
}

func TestStoredEncodings(t *testing.T) {
	cfg := testConfig(t)
	writeImage(t, filepath.Join(cfg.Paths.TrainingDir, "alice", "a1.png"), 50)
	writeImage(t, filepath.Join(cfg.Paths.TrainingDir, "bob", "b1.png"), 60)

	enc := &fakeEncoder{byWidth: map[int][]facerec.Face{
		50: {face(box, 0, 0)},
		60: {face(box, 5, 5), face(box, 6, 6)},
	}}
	store := mock.NewMockEncodingStore(nil)

	tests := []struct {
		name       string
		store      database.EncodingStore
		wantBefore int
	}{
		{"counting store", store, 0},
		// Hides Count so the detector falls back to Load; runs after the
		// first case trained the shared store
		{"plain store", struct{ database.EncodingStore }{store}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDetector(t, cfg, enc, tt.store)

			before, err := d.StoredEncodings(context.Background())
			if err != nil {
				t.Fatalf("StoredEncodings() error: %v", err)
			}
			if before != tt.wantBefore {
				t.Errorf("expected %d encodings before training, got %d", tt.wantBefore, before)
			}

			summary, err := d.EncodeKnownFaces(context.Background(), facerec.ModelHOG, nil)
			if err != nil {
				t.Fatalf("EncodeKnownFaces() error: %v", err)
			}
			stored, err := d.StoredEncodings(context.Background())
			if err != nil {
				t.Fatalf("StoredEncodings() error: %v", err)
			}
			if stored != 3 || stored != summary.Encodings {
				t.Errorf("StoredEncodings() = %d, want 3 (summary %d)", stored, summary.Encodings)
			}
		})
	}
}

func TestEncodeKnownFaces_ReportsDuplicates(t *testing.T) {
	cfg := testConfig(t)
	// Blank images share a difference hash
	writeImage(t, filepath.Join(cfg.Paths.TrainingDir, "alice", "a1.png"), 50)
	writeImage(t, filepath.Join(cfg.Paths.TrainingDir, "alice", "a1-copy.png"), 50)

	enc := &fakeEncoder{byWidth: map[int][]facerec.Face{50: {face(box, 0, 0)}}}
	d := newTestDetector(t, cfg, enc, mock.NewMockEncodingStore(nil))

	summary, err := d.EncodeKnownFaces(context.Background(), facerec.ModelHOG, nil)
	if err != nil {
		t.Fatalf("EncodeKnownFaces() error: %v", err)
	}
	if summary.Duplicate != 1 {
		t.Errorf("expected 1 duplicate, got %d", summary.Duplicate)
	}
	// Copies are still encoded
	if summary.Encodings != 2 {
		t.Errorf("expected 2 encodings, got %d", summary.Encodings)
	}
}

func TestEncodeKnownFaces_MissingTrainingDir(t *testing.T) {
	cfg := testConfig(t)
	d := newTestDetector(t, cfg, &fakeEncoder{}, mock.NewMockEncodingStore(nil))

	if _, err := d.EncodeKnownFaces(context.Background(), facerec.ModelHOG, nil); err == nil {
		t.Error("expected error for missing training directory")
	}
}

func TestEncodeKnownFaces_SaveError(t *testing.T) {
	cfg := testConfig(t)
	writeImage(t, filepath.Join(cfg.Paths.TrainingDir, "alice", "a1.png"), 50)

	store := mock.NewMockEncodingStore(nil)
	store.SaveError = errors.New("disk full")
	d := newTestDetector(t, cfg, &fakeEncoder{}, store)

	if _, err := d.EncodeKnownFaces(context.Background(), facerec.ModelHOG, nil); err == nil {
		t.Error("expected save error to propagate")
	}
}

func knownAliceBob() *facematch.KnownFaces {
	known := &facematch.KnownFaces{}
	known.Add("alice", facematch.Encoding{0, 0})
	known.Add("alice", facematch.Encoding{0.1, 0})
	known.Add("bob", facematch.Encoding{5, 5})
	return known
}

func TestRecognizeFaces(t *testing.T) {
	cfg := testConfig(t)
	src := filepath.Join(t.TempDir(), "class.png")
	writeImage(t, src, 100)

	enc := &fakeEncoder{byWidth: map[int][]facerec.Face{
		100: {
			face(box, 0.05, 0),
			face(facematch.Box{Top: 10, Right: 90, Bottom: 40, Left: 60}, 9, 9),
		},
	}}
	d := newTestDetector(t, cfg, enc, mock.NewMockEncodingStore(knownAliceBob()))

	result, err := d.RecognizeFaces(context.Background(), src, facerec.ModelHOG)
	if err != nil {
		t.Fatalf("RecognizeFaces() error: %v", err)
	}

	if len(result.Recognitions) != 2 {
		t.Fatalf("expected 2 recognitions, got %d", len(result.Recognitions))
	}
	first, second := result.Recognitions[0], result.Recognitions[1]
	if !first.Matched || first.Name != "alice" || first.Votes != 2 {
		t.Errorf("unexpected first recognition: %+v", first)
	}
	if second.Matched || second.Name != "" {
		t.Errorf("expected second face to be unknown, got %+v", second)
	}
	if names := result.Names(); len(names) != 1 || names[0] != "alice" {
		t.Errorf("Names() = %v", names)
	}

	expectedOut := filepath.Join(cfg.Paths.OutputDir, "class_png-annotated.jpg")
	if result.Output != expectedOut {
		t.Errorf("Output = %q, want %q", result.Output, expectedOut)
	}
	if _, err := os.Stat(expectedOut); err != nil {
		t.Errorf("annotated image not written: %v", err)
	}
}

func TestRecognizeFaces_NoEncodings(t *testing.T) {
	cfg := testConfig(t)
	src := filepath.Join(t.TempDir(), "class.png")
	writeImage(t, src, 100)

	d := newTestDetector(t, cfg, &fakeEncoder{}, mock.NewMockEncodingStore(nil))

	_, err := d.RecognizeFaces(context.Background(), src, facerec.ModelHOG)
	if !errors.Is(err, ErrNoEncodings) {
		t.Errorf("expected ErrNoEncodings, got %v", err)
	}
	if !errors.Is(err, database.ErrNoEncodings) {
		t.Errorf("expected wrapped database.ErrNoEncodings, got %v", err)
	}
}

func TestRecognizeFaces_MissingImage(t *testing.T) {
	cfg := testConfig(t)
	d := newTestDetector(t, cfg, &fakeEncoder{}, mock.NewMockEncodingStore(knownAliceBob()))

	if _, err := d.RecognizeFaces(context.Background(), filepath.Join(t.TempDir(), "nope.jpg"), facerec.ModelHOG); err == nil {
		t.Error("expected error for missing image")
	}
}

func TestValidate(t *testing.T) {
	cfg := testConfig(t)
	writeImage(t, filepath.Join(cfg.Paths.ValidationDir, "group.png"), 100)
	writeImage(t, filepath.Join(cfg.Paths.ValidationDir, "nested", "solo.png"), 50)
	writeFile(t, filepath.Join(cfg.Paths.ValidationDir, "notes.txt"), "skip me")

	enc := &fakeEncoder{byWidth: map[int][]facerec.Face{
		100: {face(box, 5, 5)},
		50:  {face(box, 0, 0)},
	}}
	d := newTestDetector(t, cfg, enc, mock.NewMockEncodingStore(knownAliceBob()))

	results, err := d.Validate(context.Background(), facerec.ModelHOG)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("%s: unexpected error %v", r.Path, r.Err)
		}
	}
}

func TestValidate_SameNameInSubdirectories(t *testing.T) {
	cfg := testConfig(t)
	writeImage(t, filepath.Join(cfg.Paths.ValidationDir, "alice", "1.jpg"), 100)
	writeImage(t, filepath.Join(cfg.Paths.ValidationDir, "bob", "1.jpg"), 50)
	writeImage(t, filepath.Join(cfg.Paths.ValidationDir, "bob", "1.png"), 50)

	enc := &fakeEncoder{byWidth: map[int][]facerec.Face{
		100: {face(box, 0, 0)},
		50:  {face(box, 5, 5)},
	}}
	d := newTestDetector(t, cfg, enc, mock.NewMockEncodingStore(knownAliceBob()))

	results, err := d.Validate(context.Background(), facerec.ModelHOG)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	want := map[string]bool{
		filepath.Join(cfg.Paths.OutputDir, "alice_1-annotated.jpg"):   true,
		filepath.Join(cfg.Paths.OutputDir, "bob_1-annotated.jpg"):     true,
		filepath.Join(cfg.Paths.OutputDir, "bob_1_png-annotated.jpg"): true,
	}
	seen := make(map[string]bool)
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("%s: unexpected error %v", r.Path, r.Err)
		}
		if seen[r.Result.Output] {
			t.Errorf("output %s written twice", r.Result.Output)
		}
		seen[r.Result.Output] = true
		if !want[r.Result.Output] {
			t.Errorf("unexpected output %s for %s", r.Result.Output, r.Path)
		}
		if _, err := os.Stat(r.Result.Output); err != nil {
			t.Errorf("annotated image not written: %v", err)
		}
	}

	entries, err := os.ReadDir(cfg.Paths.OutputDir)
	if err != nil {
		t.Fatalf("ReadDir() error: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 files in output dir, got %d", len(entries))
	}
}

func TestValidate_NoEncodings(t *testing.T) {
	cfg := testConfig(t)
	writeImage(t, filepath.Join(cfg.Paths.ValidationDir, "group.png"), 100)
	d := newTestDetector(t, cfg, &fakeEncoder{}, mock.NewMockEncodingStore(nil))

	if _, err := d.Validate(context.Background(), facerec.ModelHOG); !errors.Is(err, ErrNoEncodings) {
		t.Errorf("expected ErrNoEncodings, got %v", err)
	}
}

func TestRecord(t *testing.T) {
	cfg := testConfig(t)
	writer := mock.NewMockAttendanceWriter()
	ts := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	d := newTestDetector(t, cfg, &fakeEncoder{}, mock.NewMockEncodingStore(nil),
		WithAttendanceWriter(writer), WithClock(func() time.Time { return ts }))

	recs := []Recognition{
		{Name: "alice", Matched: true, Votes: 2},
		{Matched: false},
		{Name: "bob", Matched: true, Votes: 1},
	}

	session, err := d.Record(context.Background(), "webcam", recs)
	if err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	if _, err := uuid.Parse(session); err != nil {
		t.Errorf("session %q is not a UUID: %v", session, err)
	}

	stored := writer.Records()
	if len(stored) != 2 {
		t.Fatalf("expected 2 records, got %d", len(stored))
	}
	for _, r := range stored {
		if r.SessionID != session || r.Source != "webcam" || !r.RecordedAt.Equal(ts) {
			t.Errorf("unexpected record %+v", r)
		}
	}
}

func TestRecord_WithoutWriter(t *testing.T) {
	cfg := testConfig(t)
	d := newTestDetector(t, cfg, &fakeEncoder{}, mock.NewMockEncodingStore(nil))

	session, err := d.Record(context.Background(), "file", []Recognition{{Name: "alice", Matched: true}})
	if err != nil || session != "" {
		t.Errorf("expected no-op, got session=%q err=%v", session, err)
	}
}

func TestReportEntries(t *testing.T) {
	entries := ReportEntries([]Recognition{{Name: "alice", Matched: true}, {Matched: false}})
	if len(entries) != 2 || !entries[0].Matched || entries[1].Matched {
		t.Errorf("unexpected entries %+v", entries)
	}
}
