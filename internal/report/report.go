// Package report renders attendance as CSV.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/kozaktomas/face-attendance/internal/constants"
)

// Row is a single attendance line.
type Row struct {
	Timestamp string `csv:"Timestamp"`
	Name      string `csv:"Name"`
}

// Entry is the minimal view of a recognition the report needs.
type Entry struct {
	Name    string
	Matched bool
}

// Build turns recognitions into rows, skipping faces nobody matched.
// Each row is stamped with now() at the moment it is added.
func Build(entries []Entry, now func() time.Time) []Row {
	if now == nil {
		now = time.Now
	}
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		if !e.Matched || e.Name == "" {
			continue
		}
		rows = append(rows, Row{
			Timestamp: now().Format(constants.ReportTimeLayout),
			Name:      e.Name,
		})
	}
	return rows
}

// header is written even when there are no rows.
var header = []string{"Timestamp", "Name"}

// Encode renders rows as CSV including the header line.
func Encode(rows []Row) ([]byte, error) {
	if len(rows) == 0 {
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "%s,%s\n", header[0], header[1])
		return buf.Bytes(), nil
	}
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	return data, nil
}

// Decode parses a report produced by Encode.
func Decode(data []byte) ([]Row, error) {
	var rows []Row
	if err := csvutil.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	return rows, nil
}

// WriteFile encodes rows and writes them to path, creating parent directories.
// The encoded bytes are returned so callers can serve them directly.
func WriteFile(path string, rows []Row) ([]byte, error) {
	data, err := Encode(rows)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // report is meant to be shared
		return nil, fmt.Errorf("writing report %s: %w", path, err)
	}
	return data, nil
}

// ReadFile loads a report written by WriteFile.
func ReadFile(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	return Decode(data)
}
