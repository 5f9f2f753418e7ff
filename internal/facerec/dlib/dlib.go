// Package dlib implements facerec.Encoder on top of dlib via go-face.
//
// The models directory must contain shape_predictor_5_face_landmarks.dat and
// dlib_face_recognition_resnet_model_v1.dat; the cnn model additionally needs
// mmod_human_face_detector.dat.
package dlib

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/Kagami/go-face"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/facerec"
	"github.com/sirupsen/logrus"
)

// Encoder runs dlib face detection and the ResNet encoding model.
type Encoder struct {
	mu  sync.Mutex
	rec *face.Recognizer
}

// NewEncoder loads the dlib models from modelsDir.
func NewEncoder(modelsDir string) (*Encoder, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("loading face models from %s: %w", modelsDir, err)
	}
	return &Encoder{rec: rec}, nil
}

// Encode implements facerec.Encoder. go-face only accepts JPEG input, so
// the image is re-encoded before being handed to dlib.
func (e *Encoder) Encode(ctx context.Context, img image.Image, model facerec.Model) ([]facerec.Face, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := facerec.EncodeJPEG(img, constants.EncoderJPEGQuality)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rec == nil {
		return nil, errors.New("encoder is closed")
	}

	var faces []face.Face
	switch model {
	case facerec.ModelCNN:
		faces, err = e.rec.RecognizeCNN(data)
	default:
		faces, err = e.rec.Recognize(data)
	}
	if err != nil {
		return nil, fmt.Errorf("recognizing faces (%s): %w", model, err)
	}

	logrus.WithFields(logrus.Fields{"model": model, "faces": len(faces)}).Debug("dlib encode")

	result := make([]facerec.Face, 0, len(faces))
	for _, f := range faces {
		enc := make(facematch.Encoding, len(f.Descriptor))
		copy(enc, f.Descriptor[:])
		result = append(result, facerec.Face{
			Box:      facematch.BoxFromRect(f.Rectangle),
			Encoding: enc,
		})
	}
	return result, nil
}

// Close releases the dlib models.
func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.rec != nil {
		e.rec.Close()
		e.rec = nil
	}
	return nil
}
