// Package facerec wraps the face localisation and encoding backend.
package facerec

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// Model selects the face detector used before encoding.
type Model string

const (
	ModelHOG Model = "hog" // CPU friendly histogram-of-oriented-gradients detector
	ModelCNN Model = "cnn" // more accurate CNN detector, slow without a GPU
)

// ErrInvalidModel is returned by ParseModel for anything other than hog or cnn.
var ErrInvalidModel = errors.New("invalid model")

// ParseModel validates a model name.
func ParseModel(s string) (Model, error) {
	switch m := Model(strings.ToLower(strings.TrimSpace(s))); m {
	case ModelHOG, ModelCNN:
		return m, nil
	case "":
		return ModelHOG, nil
	default:
		return "", fmt.Errorf("%w %q: choose from %s, %s", ErrInvalidModel, s, ModelHOG, ModelCNN)
	}
}

// Face is a single detected face with its encoding.
type Face struct {
	Box      facematch.Box
	Encoding facematch.Encoding
}

// Encoder finds faces in an image and computes an encoding for each.
type Encoder interface {
	// Encode returns faces in detector order. An image without faces yields an empty slice.
	Encode(ctx context.Context, img image.Image, model Model) ([]Face, error)
	Close() error
}
