package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/kozaktomas/face-attendance/internal/facerec"
	"github.com/sirupsen/logrus"
)

// RecognizeHandler runs recognition on uploaded images.
type RecognizeHandler struct {
	config     *config.Config
	recognizer Recognizer
}

// NewRecognizeHandler creates a recognize handler.
func NewRecognizeHandler(cfg *config.Config, recognizer Recognizer) *RecognizeHandler {
	return &RecognizeHandler{config: cfg, recognizer: recognizer}
}

// RecognizedFace is a recognition plus its box relative to the image size,
// so clients can overlay it at any display resolution.
type RecognizedFace struct {
	attendance.Recognition
	RelativeBox []float64 `json:"relative_box"`
}

// RecognizeResponse is the JSON body of a successful recognition.
type RecognizeResponse struct {
	Faces        int              `json:"faces"`
	Recognitions []RecognizedFace `json:"recognitions"`
	SessionID    string           `json:"session_id,omitempty"`
}

// Recognize handles a multipart upload with an "image" field. The model can
// be overridden with ?model=cnn and ?record=true persists the matched names.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}

	modelName := r.URL.Query().Get("model")
	if modelName == "" {
		modelName = h.config.Recognition.Model
	}
	model, err := facerec.ParseModel(modelName)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	maxSize := h.config.Recognition.MaxImageSize
	if maxSize <= 0 {
		maxSize = constants.MaxImageSize
	}
	img, err := facerec.DecodeImage(file, maxSize)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unsupported or corrupt image")
		return
	}

	recs, _, err := h.recognizer.RecognizeImage(r.Context(), img, model)
	if errors.Is(err, attendance.ErrNoEncodings) {
		respondError(w, http.StatusConflict, "no known faces yet, train first")
		return
	}
	if err != nil {
		logrus.WithError(err).Error("failed to recognize uploaded image")
		respondError(w, http.StatusInternalServerError, errGeneric)
		return
	}

	bounds := img.Bounds()
	faces := make([]RecognizedFace, 0, len(recs))
	for _, rec := range recs {
		faces = append(faces, RecognizedFace{
			Recognition: rec,
			RelativeBox: facematch.ConvertPixelBBoxToRelative(rec.Box.Corners(), bounds.Dx(), bounds.Dy()),
		})
	}
	response := RecognizeResponse{Faces: len(recs), Recognitions: faces}

	if record, _ := strconv.ParseBool(r.URL.Query().Get("record")); record {
		session, err := h.recognizer.Record(r.Context(), "upload", recs)
		if err != nil {
			logrus.WithError(err).Error("failed to persist attendance")
			respondError(w, http.StatusInternalServerError, errGeneric)
			return
		}
		response.SessionID = session
	}

	respondJSON(w, http.StatusOK, response)
}
