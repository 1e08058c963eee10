package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/avelychko/lexiq/internal/domain"
)

// ProgressStore defines the interface for per-word learning record
// persistence.
type ProgressStore interface {
	// GetOrCreate returns the progress row for the given word, creating the
	// initial record if none exists yet.
	//
	// Idempotent: repeated calls for the same word ID return the same row
	// and never reset counters or create duplicates, including under a
	// concurrent first call for the same word.
	GetOrCreate(ctx context.Context, wordID uuid.UUID) (*domain.WordProgress, error)

	// Get retrieves the progress row for the given word.
	// Returns ErrProgressNotFound if no row exists.
	Get(ctx context.Context, wordID uuid.UUID) (*domain.WordProgress, error)

	// Update replaces the full progress row. The write is a whole-row
	// replace, so retrying a previously failed update is safe.
	// Returns ErrProgressNotFound if no row exists for the word.
	Update(ctx context.Context, progress *domain.WordProgress) error

	// SetStarred writes only the bookmark flag of the progress row, leaving
	// the scheduler fields and counters untouched. This keeps a star toggle
	// disjoint from a concurrently in-flight rating update on the same row.
	// Returns ErrProgressNotFound if no row exists for the word.
	SetStarred(ctx context.Context, wordID uuid.UUID, starred bool) error

	// WithTx returns a ProgressStore bound to the given transaction.
	WithTx(tx *sql.Tx) ProgressStore
}
