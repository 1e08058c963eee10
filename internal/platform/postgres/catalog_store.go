package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/avelychko/lexiq/internal/domain"
	"github.com/avelychko/lexiq/internal/store"
)

// CatalogStore implements store.WordCatalog on PostgreSQL.
type CatalogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewCatalogStore creates a PostgreSQL implementation of store.WordCatalog.
// If logger is nil, a default logger is used.
func NewCatalogStore(db store.DBTX, logger *slog.Logger) *CatalogStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CatalogStore{
		db:     db,
		logger: logger.With(slog.String("component", "catalog_store")),
	}
}

// Verify interface compliance at compile time.
var _ store.WordCatalog = (*CatalogStore)(nil)

// GetWord implements store.WordCatalog.GetWord.
func (s *CatalogStore) GetWord(ctx context.Context, id uuid.UUID) (*domain.Word, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, list_id, term, translation, example, language_code, created_at
		FROM words
		WHERE id = $1
	`, id)

	var word domain.Word
	err := row.Scan(
		&word.ID,
		&word.ListID,
		&word.Term,
		&word.Translation,
		&word.Example,
		&word.LanguageCode,
		&word.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrWordNotFound
		}
		return nil, store.NewStoreError("word", "get", "scan failed", MapError(err))
	}
	word.CreatedAt = word.CreatedAt.UTC()

	return &word, nil
}

// DueWordIDs implements store.WordCatalog.DueWordIDs. Only words with a
// rated progress row can be due; earliest due date first.
func (s *CatalogStore) DueWordIDs(
	ctx context.Context,
	listID uuid.UUID,
	now time.Time,
	limit int,
) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT w.id
		FROM words w
		JOIN word_progress p ON p.word_id = w.id
		WHERE w.list_id = $1 AND p.is_new = FALSE AND p.due <= $2
		ORDER BY p.due
		LIMIT $3
	`, listID, now.UTC(), limit)
	if err != nil {
		return nil, store.NewStoreError("word", "due", "query failed", MapError(err))
	}

	return scanIDs(rows)
}

// NewWordIDs implements store.WordCatalog.NewWordIDs. Words with no
// progress row and words whose progress was created but never rated both
// count as new; catalog order keeps the study order stable across sessions.
func (s *CatalogStore) NewWordIDs(
	ctx context.Context,
	listID uuid.UUID,
	limit int,
) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT w.id
		FROM words w
		LEFT JOIN word_progress p ON p.word_id = w.id
		WHERE w.list_id = $1 AND (p.word_id IS NULL OR p.is_new = TRUE)
		ORDER BY w.created_at, w.id
		LIMIT $2
	`, listID, limit)
	if err != nil {
		return nil, store.NewStoreError("word", "new", "query failed", MapError(err))
	}

	return scanIDs(rows)
}

// CreateList implements store.WordCatalog.CreateList.
func (s *CatalogStore) CreateList(ctx context.Context, list *store.WordList) error {
	if list.ID == uuid.Nil || list.Name == "" {
		return fmt.Errorf("%w: word list needs an ID and a name", store.ErrInvalidEntity)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO word_lists (id, name, created_at)
		VALUES ($1, $2, $3)
	`, list.ID, list.Name, list.CreatedAt.UTC())
	if err != nil {
		return store.NewStoreError("word_list", "create", "insert failed", MapError(err))
	}

	return nil
}

// GetList implements store.WordCatalog.GetList.
func (s *CatalogStore) GetList(ctx context.Context, id uuid.UUID) (*store.WordList, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at
		FROM word_lists
		WHERE id = $1
	`, id)

	var list store.WordList
	if err := row.Scan(&list.ID, &list.Name, &list.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrWordListNotFound
		}
		return nil, store.NewStoreError("word_list", "get", "scan failed", MapError(err))
	}
	list.CreatedAt = list.CreatedAt.UTC()

	return &list, nil
}

// CountWords implements store.WordCatalog.CountWords.
func (s *CatalogStore) CountWords(ctx context.Context, listID uuid.UUID) (int, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM words WHERE list_id = $1
	`, listID)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, store.NewStoreError("word", "count", "scan failed", MapError(err))
	}

	return count, nil
}

// AddWords implements store.WordCatalog.AddWords.
func (s *CatalogStore) AddWords(ctx context.Context, words []*domain.Word) error {
	for _, word := range words {
		if err := word.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}

		_, err := s.db.ExecContext(ctx, `
			INSERT INTO words (id, list_id, term, translation, example, language_code, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			word.ID,
			word.ListID,
			word.Term,
			word.Translation,
			word.Example,
			word.LanguageCode,
			word.CreatedAt.UTC(),
		)
		if err != nil {
			return store.NewStoreError("word", "add", "insert failed", MapError(err))
		}
	}

	return nil
}

// WithTx implements store.WordCatalog.WithTx.
func (s *CatalogStore) WithTx(tx *sql.Tx) store.WordCatalog {
	return &CatalogStore{db: tx, logger: s.logger}
}

// scanIDs drains an ID-only result set.
func scanIDs(rows *sql.Rows) ([]uuid.UUID, error) {
	defer func() { _ = rows.Close() }()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, store.NewStoreError("word", "scan", "scan failed", MapError(err))
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("word", "scan", "iteration failed", MapError(err))
	}

	return ids, nil
}
