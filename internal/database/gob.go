package database

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// FileEncodingStore keeps the known face set in a single gob file.
type FileEncodingStore struct {
	path string
}

// NewFileEncodingStore creates a store backed by path.
func NewFileEncodingStore(path string) *FileEncodingStore {
	return &FileEncodingStore{path: path}
}

// Path returns the backing file path.
func (s *FileEncodingStore) Path() string {
	return s.path
}

// Save writes the set to a temporary file and renames it over the old one.
func (s *FileEncodingStore) Save(ctx context.Context, known *facematch.KnownFaces) error {
	if err := known.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating encodings directory: %w", err)
	}

	data := encodingsFile{
		Version: currentEncodingsVersion,
		SavedAt: time.Now(),
	}
	if known != nil {
		data.Names = known.Names
		data.Encodings = make([][]float32, len(known.Encodings))
		for i, enc := range known.Encodings {
			data.Encodings[i] = enc
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".encodings-*.gob")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := gob.NewEncoder(tmp).Encode(&data); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding face set: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

// Load reads the set back. A missing file or a set without faces yields
// ErrNoEncodings, the same as an empty known_faces table.
func (s *FileEncodingStore) Load(ctx context.Context) (*facematch.KnownFaces, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s does not exist", ErrNoEncodings, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.path, err)
	}
	defer f.Close()

	var data encodingsFile
	if err := gob.NewDecoder(f).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.path, err)
	}
	if data.Version > currentEncodingsVersion {
		return nil, fmt.Errorf("encodings file version %d is newer than supported version %d", data.Version, currentEncodingsVersion)
	}

	known := &facematch.KnownFaces{
		Names:     data.Names,
		Encodings: make([]facematch.Encoding, len(data.Encodings)),
	}
	for i, enc := range data.Encodings {
		known.Encodings[i] = enc
	}
	if err := known.Validate(); err != nil {
		return nil, fmt.Errorf("corrupt encodings file %s: %w", s.path, err)
	}
	if known.Len() == 0 {
		return nil, fmt.Errorf("%w: %s holds no faces", ErrNoEncodings, s.path)
	}
	return known, nil
}

// Count returns the number of stored encodings, zero before any training.
func (s *FileEncodingStore) Count(ctx context.Context) (int, error) {
	known, err := s.Load(ctx)
	if errors.Is(err, ErrNoEncodings) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return known.Len(), nil
}
