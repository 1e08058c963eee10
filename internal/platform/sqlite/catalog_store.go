package sqlite

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

// CatalogStore implements store.WordCatalog on SQLite.
type CatalogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewCatalogStore creates a SQLite implementation of store.WordCatalog.
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
		WHERE id = ?
	`, id.String())

	var (
		word      domain.Word
		rawID     string
		rawListID string
	)
	err := row.Scan(
		&rawID,
		&rawListID,
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
		return nil, store.NewStoreError("word", "get", "scan failed", mapError(err))
	}

	if word.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("invalid word ID %q: %w", rawID, err)
	}
	if word.ListID, err = uuid.Parse(rawListID); err != nil {
		return nil, fmt.Errorf("invalid list ID %q: %w", rawListID, err)
	}
	word.CreatedAt = word.CreatedAt.UTC()

	return &word, nil
}

// DueWordIDs implements store.WordCatalog.DueWordIDs: rated words with a
// due timestamp at or before now, earliest first.
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
		WHERE w.list_id = ? AND p.is_new = 0 AND p.due <= ?
		ORDER BY p.due, w.id
		LIMIT ?
	`, listID.String(), now.UTC(), limit)
	if err != nil {
		return nil, store.NewStoreError("word", "due_ids", "query failed", mapError(err))
	}
	defer func() { _ = rows.Close() }()

	return scanIDs(rows)
}

// NewWordIDs implements store.WordCatalog.NewWordIDs: words never rated, in
// catalog order.
func (s *CatalogStore) NewWordIDs(
	ctx context.Context,
	listID uuid.UUID,
	limit int,
) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT w.id
		FROM words w
		LEFT JOIN word_progress p ON p.word_id = w.id
		WHERE w.list_id = ? AND (p.word_id IS NULL OR p.is_new = 1)
		ORDER BY w.created_at, w.id
		LIMIT ?
	`, listID.String(), limit)
	if err != nil {
		return nil, store.NewStoreError("word", "new_ids", "query failed", mapError(err))
	}
	defer func() { _ = rows.Close() }()

	return scanIDs(rows)
}

// CreateList implements store.WordCatalog.CreateList.
func (s *CatalogStore) CreateList(ctx context.Context, list *store.WordList) error {
	if list.ID == uuid.Nil || list.Name == "" {
		return fmt.Errorf("%w: word list needs an ID and a name", store.ErrInvalidEntity)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO word_lists (id, name, created_at)
		VALUES (?, ?, ?)
	`, list.ID.String(), list.Name, list.CreatedAt.UTC())
	if err != nil {
		return store.NewStoreError("word_list", "create", "insert failed", mapError(err))
	}

	return nil
}

// GetList implements store.WordCatalog.GetList.
func (s *CatalogStore) GetList(ctx context.Context, id uuid.UUID) (*store.WordList, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at
		FROM word_lists
		WHERE id = ?
	`, id.String())

	var (
		list  store.WordList
		rawID string
	)
	if err := row.Scan(&rawID, &list.Name, &list.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrWordListNotFound
		}
		return nil, store.NewStoreError("word_list", "get", "scan failed", mapError(err))
	}

	parsed, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid list ID %q: %w", rawID, err)
	}
	list.ID = parsed
	list.CreatedAt = list.CreatedAt.UTC()

	return &list, nil
}

// CountWords implements store.WordCatalog.CountWords.
func (s *CatalogStore) CountWords(ctx context.Context, listID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM words WHERE list_id = ?
	`, listID.String()).Scan(&count)
	if err != nil {
		return 0, store.NewStoreError("word", "count", "query failed", mapError(err))
	}
	return count, nil
}

// AddWords implements store.WordCatalog.AddWords. Run within a transaction
// when inserting more than one word.
func (s *CatalogStore) AddWords(ctx context.Context, words []*domain.Word) error {
	for _, word := range words {
		if err := word.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}

		_, err := s.db.ExecContext(ctx, `
			INSERT INTO words (id, list_id, term, translation, example, language_code, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			word.ID.String(),
			word.ListID.String(),
			word.Term,
			word.Translation,
			word.Example,
			word.LanguageCode,
			word.CreatedAt.UTC(),
		)
		if err != nil {
			return store.NewStoreError("word", "add", "insert failed", mapError(err))
		}
	}

	return nil
}

// WithTx implements store.WordCatalog.WithTx.
func (s *CatalogStore) WithTx(tx *sql.Tx) store.WordCatalog {
	return &CatalogStore{db: tx, logger: s.logger}
}

// scanIDs collects a single-column result set of UUIDs.
func scanIDs(rows *sql.Rows) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan ID: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid ID %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate IDs: %w", err)
	}
	return ids, nil
}
