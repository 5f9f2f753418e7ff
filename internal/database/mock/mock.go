// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// MockEncodingStore is an in-memory implementation of database.EncodingStore
type MockEncodingStore struct {
	mu    sync.RWMutex
	known *facematch.KnownFaces
	saves int

	// Error injection
	SaveError error
	LoadError error
}

// NewMockEncodingStore creates a store, optionally pre-populated.
func NewMockEncodingStore(known *facematch.KnownFaces) *MockEncodingStore {
	return &MockEncodingStore{known: known}
}

// Save replaces the stored set
func (m *MockEncodingStore) Save(ctx context.Context, known *facematch.KnownFaces) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	if err := known.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.known = known
	m.saves++
	return nil
}

// Load returns the stored set or database.ErrNoEncodings
func (m *MockEncodingStore) Load(ctx context.Context) (*facematch.KnownFaces, error) {
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.known.Len() == 0 {
		return nil, fmt.Errorf("%w: mock store is empty", database.ErrNoEncodings)
	}
	return m.known, nil
}

// Count returns the number of stored encodings
func (m *MockEncodingStore) Count(ctx context.Context) (int, error) {
	if m.LoadError != nil {
		return 0, m.LoadError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.known.Len(), nil
}

// Saves returns how many times Save succeeded
func (m *MockEncodingStore) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// MockAttendanceWriter is an in-memory implementation of database.AttendanceWriter
type MockAttendanceWriter struct {
	mu      sync.RWMutex
	records []database.AttendanceRecord
	nextID  int64

	// Error injection
	RecordError error
	ListError   error
}

// NewMockAttendanceWriter creates an empty attendance store
func NewMockAttendanceWriter() *MockAttendanceWriter {
	return &MockAttendanceWriter{nextID: 1}
}

// RecordAttendance stores records and assigns IDs
func (m *MockAttendanceWriter) RecordAttendance(ctx context.Context, records []database.AttendanceRecord) error {
	if m.RecordError != nil {
		return m.RecordError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range records {
		records[i].ID = m.nextID
		m.nextID++
		m.records = append(m.records, records[i])
	}
	return nil
}

// ListAttendance filters records and returns them newest first
func (m *MockAttendanceWriter) ListAttendance(
	ctx context.Context, filter database.AttendanceFilter,
) ([]database.AttendanceRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	nameKey := facematch.NormalizePersonName(filter.Name)
	var result []database.AttendanceRecord
	for _, rec := range m.records {
		if filter.SessionID != "" && rec.SessionID != filter.SessionID {
			continue
		}
		if nameKey != "" && facematch.NormalizePersonName(rec.Name) != nameKey {
			continue
		}
		if !filter.Since.IsZero() && rec.RecordedAt.Before(filter.Since) {
			continue
		}
		result = append(result, rec)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].RecordedAt.Equal(result[j].RecordedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].RecordedAt.After(result[j].RecordedAt)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = constants.DefaultAttendanceLimit
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Records returns a copy of everything recorded so far
func (m *MockAttendanceWriter) Records() []database.AttendanceRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.AttendanceRecord, len(m.records))
	copy(out, m.records)
	return out
}
