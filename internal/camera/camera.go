// Package camera defines webcam snapshot capture. The gocv backed
// implementation lives in the webcam subpackage.
package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

// ErrCaptureFailed is returned when no frame could be read from the device.
var ErrCaptureFailed = errors.New("failed to capture frame from the webcam")

// Capturer takes a snapshot and returns the path of the saved image.
type Capturer interface {
	Capture(ctx context.Context) (string, error)
}

// FaceGate decides whether a frame is worth keeping.
type FaceGate interface {
	HasFace(img image.Image) bool
}

// SnapshotPath returns <dir>/class-snapshot-<unix>.jpg.
func SnapshotPath(dir string, at time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%d.jpg", constants.SnapshotPrefix, at.Unix()))
}

// Warmup blocks for d so the sensor can adjust exposure, or until ctx ends.
func Warmup(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FrameSource yields frames from an opened device.
type FrameSource interface {
	// Next returns the next frame; ok is false when the device returned nothing.
	Next() (img image.Image, ok bool)
}

// SelectFrame reads up to maxFrames frames and returns the first one the
// gate accepts. Without a gate the first frame wins. When no frame passes
// the gate, the last frame read is returned with accepted=false.
func SelectFrame(ctx context.Context, src FrameSource, gate FaceGate, maxFrames int) (img image.Image, accepted bool, err error) {
	if gate == nil || maxFrames < 1 {
		maxFrames = 1
	}
	var last image.Image
	for range maxFrames {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		frame, ok := src.Next()
		if !ok {
			if last != nil {
				return last, false, nil
			}
			return nil, false, ErrCaptureFailed
		}
		if gate == nil || gate.HasFace(frame) {
			return frame, true, nil
		}
		last = frame
	}
	return last, false, nil
}
