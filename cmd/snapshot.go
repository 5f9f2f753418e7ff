package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kozaktomas/face-attendance/internal/camera"
	"github.com/kozaktomas/face-attendance/internal/camera/webcam"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/presence"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Take a webcam snapshot and recognize the faces in it",
	Long: `Open the webcam, wait for the sensor to warm up, save a frame to the
snapshot directory and run recognition on it.

When camera.cascade_file points to a pigo facefinder cascade, frames are read
until one contains a face (at most camera.max_frames).`,
	Args: cobra.NoArgs,
	RunE: runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.Flags().Int("device", -1, "Video device index (overrides camera.device)")
	snapshotCmd.Flags().Bool("no-recognize", false, "Only save the snapshot")
	snapshotCmd.Flags().Bool("record", false, "Persist recognized names (requires DATABASE_URL)")
}

// newCapturer builds the webcam capturer with the optional presence gate.
func newCapturer(cfg *config.Config) (camera.Capturer, error) {
	var gate camera.FaceGate
	if cfg.Camera.CascadeFile != "" {
		detector, err := presence.Load(cfg.Camera.CascadeFile, presence.DefaultParams())
		if err != nil {
			return nil, err
		}
		gate = detector
		logrus.WithField("cascade", cfg.Camera.CascadeFile).Debug("presence gate enabled")
	}
	return webcam.New(cfg.Camera, cfg.Paths.SnapshotDir, gate), nil
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if device := mustGetInt(cmd, "device"); device >= 0 {
		a.cfg.Camera.Device = device
	}

	capturer, err := newCapturer(a.cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Capturing from device %d (warm-up %s)...\n", a.cfg.Camera.Device, a.cfg.Camera.Warmup)
	path, err := capturer.Capture(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Snapshot saved to %s\n", path)

	if mustGetBool(cmd, "no-recognize") {
		return nil
	}

	result, err := a.detector.RecognizeFaces(ctx, path, a.model)
	if err != nil {
		return err
	}
	printResult(result, a.cfg.Display.UnknownLabel)

	if mustGetBool(cmd, "record") {
		session, err := a.detector.Record(ctx, config.SourceWebcam, result.Recognitions)
		if err != nil {
			return err
		}
		if session != "" {
			fmt.Printf("Attendance recorded, session %s\n", session)
		}
	}
	return nil
}
