package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-attendance",
	Short: "Take class attendance from photos using face recognition",
	Long: `Face Attendance encodes the known faces found in training/<name>/ images,
then recognizes the people in a class photo or webcam snapshot by majority
vote among the known encodings. Results are drawn onto the image and can be
downloaded as a CSV attendance report from a small web server.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().String("config", "", "YAML config file (defaults to $ATTENDANCE_CONFIG)")
	rootCmd.PersistentFlags().StringP("model", "m", "", "Face detection model: hog (CPU) or cnn (GPU)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
