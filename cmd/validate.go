package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Recognize every image in the validation directory",
	Long: `Run recognition on every image below the validation directory, recursively.
Annotated copies are written to the output directory.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.detector.Validate(ctx, a.model)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Printf("No images found in %s\n", a.cfg.Paths.ValidationDir)
		return nil
	}

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Printf("%s: error: %v\n", r.Path, r.Err)
			continue
		}
		printResult(r.Result, a.cfg.Display.UnknownLabel)
	}

	fmt.Printf("\nValidated %d image(s), %d failed\n", len(results), failed)
	return nil
}
