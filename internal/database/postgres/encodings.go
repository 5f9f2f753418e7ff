package postgres

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-attendance/internal/database"
	"github.com/kozaktomas/face-attendance/internal/facematch"
	"github.com/pgvector/pgvector-go"
)

// EncodingRepository stores the known face set in the known_faces table.
type EncodingRepository struct {
	pool *Pool
}

// NewEncodingRepository creates a new PostgreSQL encoding repository.
func NewEncodingRepository(pool *Pool) *EncodingRepository {
	return &EncodingRepository{pool: pool}
}

// Save replaces every stored encoding inside one transaction.
func (r *EncodingRepository) Save(ctx context.Context, known *facematch.KnownFaces) error {
	if err := known.Validate(); err != nil {
		return err
	}

	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM known_faces"); err != nil {
		return fmt.Errorf("clear known faces: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO known_faces (position, name, embedding)
		VALUES ($1, $2, $3::vector)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range known.Len() {
		vec := pgvector.NewVector(known.Encodings[i])
		if _, err := stmt.ExecContext(ctx, i, known.Names[i], vec); err != nil {
			return fmt.Errorf("insert known face %d (%s): %w", i, known.Names[i], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Load returns the stored set in training order, or database.ErrNoEncodings when empty.
func (r *EncodingRepository) Load(ctx context.Context) (*facematch.KnownFaces, error) {
	rows, err := r.pool.Query(ctx, "SELECT name, embedding FROM known_faces ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query known faces: %w", err)
	}
	defer rows.Close()

	known := &facematch.KnownFaces{}
	for rows.Next() {
		var name string
		var vec pgvector.Vector
		if err := rows.Scan(&name, &vec); err != nil {
			return nil, fmt.Errorf("scan known face: %w", err)
		}
		known.Add(name, vec.Slice())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate known faces: %w", err)
	}

	if known.Len() == 0 {
		return nil, fmt.Errorf("%w: known_faces table is empty", database.ErrNoEncodings)
	}
	return known, nil
}

// Count returns the number of stored encodings.
func (r *EncodingRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM known_faces").Scan(&count); err != nil {
		return 0, fmt.Errorf("count known faces: %w", err)
	}
	return count, nil
}
