package attendance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-attendance/internal/database"
)

// Record persists matched recognitions under a new session ID. Without an
// attendance writer it does nothing and returns an empty session.
func (d *Detector) Record(ctx context.Context, source string, recs []Recognition) (string, error) {
	if d.attendance == nil {
		return "", nil
	}

	session := uuid.NewString()
	now := d.now()
	var records []database.AttendanceRecord
	for _, rec := range recs {
		if !rec.Matched {
			continue
		}
		records = append(records, database.AttendanceRecord{
			SessionID:  session,
			Name:       rec.Name,
			Source:     source,
			Votes:      rec.Votes,
			RecordedAt: now,
		})
	}
	if len(records) == 0 {
		return session, nil
	}

	if err := d.attendance.RecordAttendance(ctx, records); err != nil {
		return "", fmt.Errorf("recording attendance: %w", err)
	}
	return session, nil
}
