package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Encode the known faces from the training directory",
	Long: `Encode every face found in training/<name>/* images and store the
resulting encoding set. The person's name is the name of the directory the
image is in. The previous encoding set is replaced.

Examples:
  face-attendance train
  face-attendance train -m cnn`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	files, err := a.detector.TrainingFiles()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Printf("No training images found in %s/<name>/\n", a.cfg.Paths.TrainingDir)
		return nil
	}

	fmt.Printf("Encoding %d file(s) with the %s model\n", len(files), a.model)

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Encoding faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	summary, err := a.detector.EncodeKnownFaces(ctx, a.model, func(attendance.TrainingFile, int, error) {
		bar.Add(1) //nolint:errcheck // progress output only
	})
	bar.Finish() //nolint:errcheck // progress output only
	fmt.Println()
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	stored, err := a.detector.StoredEncodings(ctx)
	if err != nil {
		return fmt.Errorf("reading back encodings: %w", err)
	}
	fmt.Printf("Encoded %d face(s) of %d person(s) from %d image(s)\n", summary.Encodings, summary.People, summary.Images)
	fmt.Printf("Encoding store now holds %d encoding(s)\n", stored)
	if summary.Skipped > 0 {
		fmt.Printf("Skipped %d non-image file(s)\n", summary.Skipped)
	}
	if summary.Duplicate > 0 {
		fmt.Printf("Warning: %d image(s) look like copies of another training image\n", summary.Duplicate)
	}
	if summary.Failed > 0 {
		fmt.Printf("Failed to read %d image(s), see log for details\n", summary.Failed)
	}
	return nil
}
