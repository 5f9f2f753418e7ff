package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/camera"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/facerec"
	"github.com/kozaktomas/face-attendance/internal/report"
	"github.com/sirupsen/logrus"
)

// ReportHandler serves the attendance CSV for the configured source.
type ReportHandler struct {
	config     *config.Config
	recognizer Recognizer
	capturer   camera.Capturer
	model      facerec.Model
	now        func() time.Time
}

// NewReportHandler creates a report handler. capturer may be nil when the
// source is a file.
func NewReportHandler(cfg *config.Config, recognizer Recognizer, capturer camera.Capturer) (*ReportHandler, error) {
	model, err := facerec.ParseModel(cfg.Recognition.Model)
	if err != nil {
		return nil, err
	}
	return &ReportHandler{
		config:     cfg,
		recognizer: recognizer,
		capturer:   capturer,
		model:      model,
		now:        time.Now,
	}, nil
}

// sourceImage returns the image the report is built from.
func (h *ReportHandler) sourceImage(r *http.Request) (string, error) {
	if h.config.Web.Source != config.SourceWebcam {
		return h.config.Web.SourceImage, nil
	}
	if h.capturer == nil {
		return "", errors.New("webcam source configured without a capture device")
	}
	return h.capturer.Capture(r.Context())
}

// Date recognizes the faces in the source image, writes the CSV report
// and returns it as an attachment.
func (h *ReportHandler) Date(w http.ResponseWriter, r *http.Request) {
	path, err := h.sourceImage(r)
	if err != nil {
		logrus.WithError(err).Error("failed to obtain attendance image")
		if errors.Is(err, camera.ErrCaptureFailed) {
			respondError(w, http.StatusInternalServerError, errCaptureFailed)
			return
		}
		respondError(w, http.StatusInternalServerError, errGeneric)
		return
	}

	result, err := h.recognizer.RecognizeFaces(r.Context(), path, h.model)
	if err != nil {
		logrus.WithError(err).WithField("path", sanitizeForLog(path)).Error("failed to recognize attendance image")
		respondError(w, http.StatusInternalServerError, errGeneric)
		return
	}

	rows := report.Build(attendance.ReportEntries(result.Recognitions), h.now)
	data, err := report.WriteFile(h.config.Paths.ReportFile, rows)
	if err != nil {
		logrus.WithError(err).Error("failed to write attendance report")
		respondError(w, http.StatusInternalServerError, errGeneric)
		return
	}

	if _, err := h.recognizer.Record(r.Context(), h.config.Web.Source, result.Recognitions); err != nil {
		logrus.WithError(err).Warn("failed to persist attendance")
	}

	logrus.WithFields(logrus.Fields{
		"faces":   len(result.Recognitions),
		"present": len(rows),
	}).Info("attendance report generated")

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.config.Web.ReportName))
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck // client may have gone away
}
