package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var recognizeCmd = &cobra.Command{
	Use:     "recognize",
	Aliases: []string{"test"},
	Short:   "Recognize the faces in a single image",
	Long: `Recognize the faces in an image using the stored encoding set, draw a box
and name label for each face and save the annotated image to the output
directory.

Examples:
  face-attendance recognize -f class.jpg
  face-attendance test -f class.jpg -m cnn --record`,
	Args: cobra.NoArgs,
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)
	recognizeCmd.Flags().StringP("file", "f", "", "Image to recognize")
	recognizeCmd.Flags().Bool("record", false, "Persist recognized names (requires DATABASE_URL)")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	path := mustGetString(cmd, "file")
	if path == "" {
		return errors.New("an image is required: use -f <path>")
	}
	record := mustGetBool(cmd, "record")

	ctx := context.Background()
	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if record && a.attendance == nil {
		return errors.New("--record requires DATABASE_URL")
	}

	result, err := a.detector.RecognizeFaces(ctx, path, a.model)
	if err != nil {
		return err
	}
	printResult(result, a.cfg.Display.UnknownLabel)

	if record {
		session, err := a.detector.Record(ctx, "file", result.Recognitions)
		if err != nil {
			return err
		}
		fmt.Printf("Attendance recorded, session %s\n", session)
	}
	return nil
}
