package database

import (
	"context"
	"errors"

	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// ErrNoEncodings is returned by EncodingStore.Load when nothing has been trained yet.
var ErrNoEncodings = errors.New("no face encodings stored")

// EncodingStore persists the known face set produced by training
type EncodingStore interface {
	// Save replaces the stored set
	Save(ctx context.Context, known *facematch.KnownFaces) error
	// Load returns the stored set or ErrNoEncodings
	Load(ctx context.Context) (*facematch.KnownFaces, error)
}

// EncodingCounter is implemented by stores that can report their size
// without the caller decoding the whole set.
type EncodingCounter interface {
	Count(ctx context.Context) (int, error)
}

// AttendanceWriter records recognized people
type AttendanceWriter interface {
	AttendanceReader

	// RecordAttendance stores all records of one run atomically
	RecordAttendance(ctx context.Context, records []AttendanceRecord) error
}

// AttendanceReader provides read-only access to attendance history
type AttendanceReader interface {
	// ListAttendance returns records newest first
	ListAttendance(ctx context.Context, filter AttendanceFilter) ([]AttendanceRecord, error)
}
