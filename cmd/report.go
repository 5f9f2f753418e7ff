package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kozaktomas/face-attendance/internal/report"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the last attendance report",
	Long: `Print the attendance CSV written by the last /date request.
The file is read from paths.report_file unless --file is given.

Examples:
  face-attendance report
  face-attendance report -f output/monday.csv`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringP("file", "f", "", "Report file (defaults to paths.report_file)")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	path := mustGetString(cmd, "file")
	if path == "" {
		path = cfg.Paths.ReportFile
	}

	rows, err := report.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Printf("No report at %s yet, request /date first\n", path)
		return nil
	}
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("Report is empty, nobody was recognized.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tNAME")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\n", r.Timestamp, r.Name)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d person(s) present\n", len(rows))
	return nil
}
