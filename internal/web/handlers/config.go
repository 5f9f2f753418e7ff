package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// ConfigHandler exposes the non-secret runtime settings.
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	Model              string  `json:"model"`
	Tolerance          float64 `json:"tolerance"`
	Source             string  `json:"source"`
	ReportName         string  `json:"report_name"`
	AttendanceDatabase bool    `json:"attendance_database"`
}

// Get returns the active configuration
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ConfigResponse{
		Model:              h.config.Recognition.Model,
		Tolerance:          h.config.Recognition.Tolerance,
		Source:             h.config.Web.Source,
		ReportName:         h.config.Web.ReportName,
		AttendanceDatabase: database.IsInitialized(),
	})
}
