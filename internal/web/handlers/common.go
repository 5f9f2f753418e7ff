package handlers

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/facerec"
	"github.com/sirupsen/logrus"
)

// Error messages returned by the report route.
const (
	errGeneric       = "An error occurred."
	errCaptureFailed = "Failed to capture frame from the webcam."
)

// Recognizer is the part of attendance.Detector the handlers use.
type Recognizer interface {
	RecognizeFaces(ctx context.Context, path string, model facerec.Model) (*attendance.Result, error)
	RecognizeImage(ctx context.Context, img image.Image, model facerec.Model) ([]attendance.Recognition, image.Image, error)
	Record(ctx context.Context, source string, recs []attendance.Recognition) (string, error)
}

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logrus.WithError(err).Warn("failed to encode response")
		}
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
