package database

import (
	"fmt"
)

var (
	postgresEncodingStore    func() EncodingStore
	postgresAttendanceWriter func() AttendanceWriter
	postgresInitialized      bool
)

// RegisterPostgresBackend registers PostgreSQL repository constructors.
// This is called by the postgres package to avoid import cycles.
func RegisterPostgresBackend(
	encodings func() EncodingStore,
	attendance func() AttendanceWriter,
) {
	postgresEncodingStore = encodings
	postgresAttendanceWriter = attendance
	postgresInitialized = true
}

// ResetBackend forgets any registered backend. Used by tests and on shutdown.
func ResetBackend() {
	postgresEncodingStore = nil
	postgresAttendanceWriter = nil
	postgresInitialized = false
}

// IsInitialized returns whether the PostgreSQL backend has been initialized.
func IsInitialized() bool {
	return postgresInitialized
}

// GetEncodingStore returns the PostgreSQL store when the backend is
// registered, otherwise a gob file store at fallbackPath.
func GetEncodingStore(fallbackPath string) EncodingStore {
	if postgresInitialized && postgresEncodingStore != nil {
		return postgresEncodingStore()
	}
	return NewFileEncodingStore(fallbackPath)
}

// GetAttendanceWriter returns an AttendanceWriter from the PostgreSQL backend
func GetAttendanceWriter() (AttendanceWriter, error) {
	if !postgresInitialized {
		return nil, fmt.Errorf("PostgreSQL backend not initialized: DATABASE_URL is required")
	}
	if postgresAttendanceWriter == nil {
		return nil, fmt.Errorf("PostgreSQL attendance writer not registered")
	}
	return postgresAttendanceWriter(), nil
}
