package handlers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/mock"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/facerec"
)

// testConfig creates a config rooted in a temp directory
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Load()
	cfg.Paths.OutputDir = filepath.Join(root, "output")
	cfg.Paths.ReportFile = filepath.Join(root, "report.csv")
	cfg.Paths.SnapshotDir = filepath.Join(root, "class-snapshot")
	cfg.Recognition.Model = "hog"
	cfg.Recognition.Tolerance = 0.5
	cfg.Recognition.MaxImageSize = 0
	cfg.Web.Source = config.SourceFile
	cfg.Web.SourceImage = filepath.Join(root, "IMG_5477-converted.jpg")
	cfg.Web.ReportName = "users.csv"
	return cfg
}

// fakeEncoder returns the same faces for every image
type fakeEncoder struct {
	faces []facerec.Face
	err   error
}

func (f *fakeEncoder) Encode(ctx context.Context, img image.Image, model facerec.Model) ([]facerec.Face, error) {
	return f.faces, f.err
}

func (f *fakeEncoder) Close() error { return nil }

// fakeCapturer stands in for the webcam
type fakeCapturer struct {
	path  string
	err   error
	calls int
}

func (f *fakeCapturer) Capture(ctx context.Context) (string, error) {
	f.calls++
	return f.path, f.err
}

var (
	aliceFace   = facerec.Face{Box: facematch.Box{Top: 10, Right: 40, Bottom: 40, Left: 10}, Encoding: facematch.Encoding{0.05, 0}}
	strangeFace = facerec.Face{Box: facematch.Box{Top: 10, Right: 90, Bottom: 40, Left: 60}, Encoding: facematch.Encoding{9, 9}}
)

func knownFaces() *facematch.KnownFaces {
	known := &facematch.KnownFaces{}
	known.Add("alice", facematch.Encoding{0, 0})
	known.Add("alice", facematch.Encoding{0.1, 0})
	known.Add("bob", facematch.Encoding{5, 5})
	return known
}

// newDetector builds a real detector around fakes
func newDetector(t *testing.T, cfg *config.Config, enc facerec.Encoder, known *facematch.KnownFaces, writer database.AttendanceWriter) *attendance.Detector {
	t.Helper()
	var opts []attendance.Option
	if writer != nil {
		opts = append(opts, attendance.WithAttendanceWriter(writer))
	}
	d, err := attendance.NewDetector(cfg, enc, mock.NewMockEncodingStore(known), opts...)
	if err != nil {
		t.Fatalf("NewDetector() error: %v", err)
	}
	return d
}

// writeImage stores a blank image at path
func writeImage(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := imaging.Save(imaging.New(100, 60, color.White), path); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
}

// multipartImageRequest builds a POST with a PNG in the given form field
func multipartImageRequest(t *testing.T, target, field string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if field != "" {
		part, err := writer.CreateFormFile(field, "class.png")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if err := imaging.Encode(part, imaging.New(100, 60, color.White), imaging.PNG); err != nil {
			t.Fatalf("failed to encode image: %v", err)
		}
	} else if err := writer.WriteField("note", "no image"); err != nil {
		t.Fatalf("failed to write field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}
