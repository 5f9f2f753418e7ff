package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/face-attendance/internal/web/handlers"
	"github.com/kozaktomas/face-attendance/internal/web/static"
)

func (s *Server) setupRoutes() error {
	reportHandler, err := handlers.NewReportHandler(s.config, s.deps.Recognizer, s.deps.Capturer)
	if err != nil {
		return err
	}
	recognizeHandler := handlers.NewRecognizeHandler(s.config, s.deps.Recognizer)
	attendanceHandler := handlers.NewAttendanceHandler(s.deps.Attendance)
	configHandler := handlers.NewConfigHandler(s.config)

	// Report download kept at its historical path
	s.router.Get("/date", reportHandler.Date)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/config", configHandler.Get)
		r.Post("/recognize", recognizeHandler.Recognize)
		r.Get("/attendance", attendanceHandler.List)
	})

	s.router.Handle("/*", static.Handler())
	return nil
}
