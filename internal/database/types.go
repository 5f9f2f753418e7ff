package database

import (
	"time"
)

// AttendanceRecord is one recognized person in one attendance run.
type AttendanceRecord struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"` // UUID shared by all records of a single run
	Name       string    `json:"name"`
	Source     string    `json:"source"` // file, webcam or upload
	Votes      int       `json:"votes"`
	RecordedAt time.Time `json:"recorded_at"`
}

// AttendanceFilter narrows ListAttendance results.
type AttendanceFilter struct {
	SessionID string
	Name      string // compared by facematch.NormalizePersonName
	Since     time.Time
	Limit     int
}

// encodingsFile is the on-disk gob layout of the known face set.
type encodingsFile struct {
	Version   int
	SavedAt   time.Time
	Names     []string
	Encodings [][]float32
}

const currentEncodingsVersion = 1
