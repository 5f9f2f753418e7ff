// Package webcam captures snapshots from a local video device with gocv.
package webcam

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/kozaktomas/face-attendance/internal/camera"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Webcam implements camera.Capturer.
type Webcam struct {
	cfg  config.CameraConfig
	dir  string
	gate camera.FaceGate
	now  func() time.Time
}

// New returns a Webcam writing snapshots into dir. gate may be nil.
func New(cfg config.CameraConfig, dir string, gate camera.FaceGate) *Webcam {
	return &Webcam{cfg: cfg, dir: dir, gate: gate, now: time.Now}
}

// matSource adapts a gocv capture to camera.FrameSource.
type matSource struct {
	capture *gocv.VideoCapture
	frame   gocv.Mat
}

func (s *matSource) Next() (image.Image, bool) {
	if ok := s.capture.Read(&s.frame); !ok || s.frame.Empty() {
		return nil, false
	}
	img, err := s.frame.ToImage()
	if err != nil {
		logrus.WithError(err).Warn("failed to convert webcam frame")
		return nil, false
	}
	return img, true
}

// Capture opens the device, waits for the warm-up delay, grabs a frame and
// saves it as a JPEG. The device is released before returning.
func (w *Webcam) Capture(ctx context.Context) (string, error) {
	capture, err := gocv.OpenVideoCapture(w.cfg.Device)
	if err != nil {
		return "", fmt.Errorf("%w: opening device %d: %w", camera.ErrCaptureFailed, w.cfg.Device, err)
	}
	defer capture.Close()

	logrus.WithFields(logrus.Fields{
		"device": w.cfg.Device,
		"warmup": w.cfg.Warmup,
	}).Info("webcam opened")

	if err := camera.Warmup(ctx, w.cfg.Warmup); err != nil {
		return "", err
	}

	src := &matSource{capture: capture, frame: gocv.NewMat()}
	defer src.frame.Close()

	img, accepted, err := camera.SelectFrame(ctx, src, w.gate, w.cfg.MaxFrames)
	if err != nil {
		return "", err
	}
	if w.gate != nil && !accepted {
		logrus.WithField("frames", w.cfg.MaxFrames).Warn("no face seen on webcam, keeping last frame")
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating snapshot directory: %w", err)
	}
	path := camera.SnapshotPath(w.dir, w.now())
	if err := imaging.Save(img, path); err != nil {
		return "", fmt.Errorf("saving snapshot: %w", err)
	}

	logrus.WithField("path", filepath.Clean(path)).Info("snapshot saved")
	return path, nil
}
