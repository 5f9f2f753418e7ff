package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
	"github.com/kozaktomas/face-attendance/internal/facerec"
	"github.com/kozaktomas/face-attendance/internal/facerec/dlib"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// loadConfig reads --config (or $ATTENDANCE_CONFIG) over the built-in
// defaults and configures logging from the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := mustGetString(cmd, "config")
	if path == "" {
		path = os.Getenv("ATTENDANCE_CONFIG")
	}

	var cfg *config.Config
	if path != "" {
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			return nil, err
		}
	} else {
		cfg = config.Load()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	configureLogging(cfg.Log.Level)
	return cfg, nil
}

func configureLogging(level string) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.WithField("level", level).Warn("unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

// resolveModel returns the -m flag when given, otherwise the configured model.
func resolveModel(cmd *cobra.Command, cfg *config.Config) (facerec.Model, error) {
	name := mustGetString(cmd, "model")
	if name == "" {
		name = cfg.Recognition.Model
	}
	return facerec.ParseModel(name)
}

// app holds the collaborators shared by the recognition commands.
type app struct {
	cfg        *config.Config
	model      facerec.Model
	encoder    facerec.Encoder
	pool       *postgres.Pool
	store      database.EncodingStore
	attendance database.AttendanceWriter
	detector   *attendance.Detector
}

// newApp loads config, connects to PostgreSQL when DATABASE_URL is set and
// loads the dlib models.
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	model, err := resolveModel(cmd, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, model: model}

	if cfg.HasDatabase() {
		logrus.Debug("connecting to PostgreSQL")
		pool, err := postgres.Initialize(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		a.pool = pool
		if a.attendance, err = database.GetAttendanceWriter(); err != nil {
			a.Close()
			return nil, err
		}
	}
	a.store = database.GetEncodingStore(cfg.Paths.EncodingsFile)

	encoder, err := dlib.NewEncoder(cfg.Recognition.ModelsDir)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.encoder = encoder

	var opts []attendance.Option
	if a.attendance != nil {
		opts = append(opts, attendance.WithAttendanceWriter(a.attendance))
	}
	a.detector, err = attendance.NewDetector(cfg, encoder, a.store, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}

	if err := a.detector.EnsureDirs(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the encoder and the database pool.
func (a *app) Close() {
	if a.encoder != nil {
		if err := a.encoder.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close encoder")
		}
	}
	if a.pool != nil {
		database.ResetBackend()
		if err := a.pool.Close(); err != nil {
			logrus.WithError(err).Warn("failed to close database pool")
		}
	}
}

// printResult writes one recognition result in the CLI format.
func printResult(res *attendance.Result, unknownLabel string) {
	fmt.Printf("%s: %d face(s)\n", res.Source, len(res.Recognitions))
	for i, rec := range res.Recognitions {
		name := rec.Name
		if !rec.Matched {
			name = unknownLabel
		}
		fmt.Printf("  #%d %-20s votes=%d box=(%d,%d)-(%d,%d)\n",
			i+1, name, rec.Votes, rec.Box.Left, rec.Box.Top, rec.Box.Right, rec.Box.Bottom)
	}
	if res.Output != "" {
		fmt.Printf("  annotated image: %s\n", res.Output)
	}
}
