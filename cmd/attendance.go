package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
	"github.com/spf13/cobra"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "List recorded attendance",
	Long: `List attendance records stored in PostgreSQL, newest first.
Requires DATABASE_URL.

Examples:
  face-attendance attendance
  face-attendance attendance --session 0b6f... --json
  face-attendance attendance --name alice --since 2024-09-01T00:00:00Z`,
	Args: cobra.NoArgs,
	RunE: runAttendance,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
	attendanceCmd.Flags().String("session", "", "Only records of this session")
	attendanceCmd.Flags().String("name", "", "Only records of this person")
	attendanceCmd.Flags().String("since", "", "Only records at or after this RFC 3339 time")
	attendanceCmd.Flags().Int("limit", constants.DefaultAttendanceLimit, "Maximum number of records")
	attendanceCmd.Flags().Bool("json", false, "Output as JSON")
}

func runAttendance(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.HasDatabase() {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	filter := database.AttendanceFilter{
		SessionID: mustGetString(cmd, "session"),
		Name:      mustGetString(cmd, "name"),
		Limit:     mustGetInt(cmd, "limit"),
	}
	if since := mustGetString(cmd, "since"); since != "" {
		if filter.Since, err = time.Parse(time.RFC3339, since); err != nil {
			return fmt.Errorf("invalid --since: %w", err)
		}
	}

	ctx := context.Background()
	pool, err := postgres.Initialize(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	writer, err := database.GetAttendanceWriter()
	if err != nil {
		return err
	}
	records, err := writer.ListAttendance(ctx, filter)
	if err != nil {
		return err
	}

	if mustGetBool(cmd, "json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No attendance recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tNAME\tVOTES\tSOURCE\tSESSION")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			r.RecordedAt.Local().Format(constants.ReportTimeLayout), r.Name, r.Votes, r.Source, r.SessionID)
	}
	return w.Flush()
}
