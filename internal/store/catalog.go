package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/avelychko/lexiq/internal/domain"
)

// WordList is a named collection of words a session is studied against.
type WordList struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// WordCatalog defines the interface for word and word-list lookups the queue
// builder resolves against.
type WordCatalog interface {
	// GetWord retrieves a word by its ID.
	// Returns ErrWordNotFound if the word does not exist.
	GetWord(ctx context.Context, id uuid.UUID) (*domain.Word, error)

	// DueWordIDs returns the IDs of words in the list whose progress row is
	// due at or before now, ordered earliest-due-first, truncated to limit.
	// Words with no progress row are not due; they are new.
	DueWordIDs(ctx context.Context, listID uuid.UUID, now time.Time, limit int) ([]uuid.UUID, error)

	// NewWordIDs returns up to limit IDs of words in the list that have no
	// progress row or whose progress is still unrated, in catalog order.
	NewWordIDs(ctx context.Context, listID uuid.UUID, limit int) ([]uuid.UUID, error)

	// CreateList creates a word list.
	// Returns ErrDuplicate if a list with the same ID already exists.
	CreateList(ctx context.Context, list *WordList) error

	// GetList retrieves a word list by ID.
	// Returns ErrWordListNotFound if the list does not exist.
	GetList(ctx context.Context, id uuid.UUID) (*WordList, error)

	// CountWords returns the number of words in the list.
	CountWords(ctx context.Context, listID uuid.UUID) (int, error)

	// AddWords inserts words into the catalog. Used by the importer; must be
	// run within a transaction when inserting more than one word.
	AddWords(ctx context.Context, words []*domain.Word) error

	// WithTx returns a WordCatalog bound to the given transaction.
	WithTx(tx *sql.Tx) WordCatalog
}
