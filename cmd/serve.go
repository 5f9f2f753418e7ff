package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/web"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the attendance web server.

GET /date recognizes the faces in the configured source (a fixed image file
or a webcam snapshot) and returns the attendance report as users.csv.
The JSON API lives under /api/v1.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides web.port)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides web.host)")
	serveCmd.Flags().String("source", "", "Attendance source: file or webcam (overrides web.source)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if port := mustGetInt(cmd, "port"); port > 0 {
		a.cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		a.cfg.Web.Host = host
	}
	if source := mustGetString(cmd, "source"); source != "" {
		a.cfg.Web.Source = source
		if err := a.cfg.Validate(); err != nil {
			return err
		}
	}

	deps := web.Deps{Recognizer: a.detector, Attendance: a.attendance}
	if a.cfg.Web.Source == config.SourceWebcam {
		if deps.Capturer, err = newCapturer(a.cfg); err != nil {
			return err
		}
	}

	server, err := web.NewServer(a.cfg, deps)
	if err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("error during shutdown")
		}
	}()

	fmt.Printf("Serving attendance on http://%s (source: %s)\n", server.Addr(), a.cfg.Web.Source)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
