package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/sirupsen/logrus"
)

// AttendanceHandler lists persisted attendance records.
type AttendanceHandler struct {
	reader database.AttendanceReader
}

// NewAttendanceHandler creates an attendance handler. reader is nil when no
// database is configured.
func NewAttendanceHandler(reader database.AttendanceReader) *AttendanceHandler {
	return &AttendanceHandler{reader: reader}
}

// AttendanceResponse wraps the listed records.
type AttendanceResponse struct {
	Records []database.AttendanceRecord `json:"records"`
	Count   int                         `json:"count"`
}

// List handles GET /api/v1/attendance?session=&name=&since=&limit=
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		respondError(w, http.StatusServiceUnavailable, "attendance database is not configured")
		return
	}

	query := r.URL.Query()
	var filter database.AttendanceFilter

	if session := query.Get("session"); session != "" {
		if _, err := uuid.Parse(session); err != nil {
			respondError(w, http.StatusBadRequest, "session must be a UUID")
			return
		}
		filter.SessionID = session
	}
	filter.Name = query.Get("name")

	if since := query.Get("since"); since != "" {
		ts, err := time.Parse(time.RFC3339, since)
		if err != nil {
			respondError(w, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = ts
	}

	if limit := query.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = n
	}

	records, err := h.reader.ListAttendance(r.Context(), filter)
	if err != nil {
		logrus.WithError(err).Error("failed to list attendance")
		respondError(w, http.StatusInternalServerError, errGeneric)
		return
	}
	if records == nil {
		records = []database.AttendanceRecord{}
	}

	respondJSON(w, http.StatusOK, AttendanceResponse{Records: records, Count: len(records)})
}
