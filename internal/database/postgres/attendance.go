package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// AttendanceRepository provides PostgreSQL-backed attendance history.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// RecordAttendance inserts all records in a single transaction.
func (r *AttendanceRepository) RecordAttendance(ctx context.Context, records []database.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i := range records {
		rec := &records[i]
		err := tx.QueryRowContext(ctx, `
			INSERT INTO attendance (session_id, name, name_key, source, votes, recorded_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, rec.SessionID, rec.Name, facematch.NormalizePersonName(rec.Name), rec.Source, rec.Votes, rec.RecordedAt).Scan(&rec.ID)
		if err != nil {
			return fmt.Errorf("insert attendance for %s: %w", rec.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListAttendance returns records matching filter, newest first.
func (r *AttendanceRepository) ListAttendance(
	ctx context.Context, filter database.AttendanceFilter,
) ([]database.AttendanceRecord, error) {
	var where []string
	var args []any

	if filter.SessionID != "" {
		args = append(args, filter.SessionID)
		where = append(where, fmt.Sprintf("session_id = $%d", len(args)))
	}
	if filter.Name != "" {
		args = append(args, facematch.NormalizePersonName(filter.Name))
		where = append(where, fmt.Sprintf("name_key = $%d", len(args)))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		where = append(where, fmt.Sprintf("recorded_at >= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = constants.DefaultAttendanceLimit
	}
	args = append(args, limit)

	query := "SELECT id, session_id, name, source, votes, recorded_at FROM attendance"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY recorded_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var records []database.AttendanceRecord
	for rows.Next() {
		var rec database.AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Name, &rec.Source, &rec.Votes, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}
	return records, nil
}
