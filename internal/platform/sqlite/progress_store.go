package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sky-flux/flux"

	"github.com/avelychko/lexiq/internal/domain"
	"github.com/avelychko/lexiq/internal/store"
)

// ProgressStore implements store.ProgressStore on SQLite.
type ProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewProgressStore creates a SQLite implementation of store.ProgressStore.
// If logger is nil, a default logger is used.
func NewProgressStore(db store.DBTX, logger *slog.Logger) *ProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// Verify interface compliance at compile time.
var _ store.ProgressStore = (*ProgressStore)(nil)

const progressColumns = `word_id, state, step, stability, difficulty, due, last_review,
	reps, lapses, total_reviews, correct_reviews, is_new, is_starred, mastery_level,
	created_at, updated_at`

// GetOrCreate implements store.ProgressStore.GetOrCreate. The insert is a
// no-op when a row already exists, so concurrent first calls for the same
// word cannot create duplicates or reset counters.
func (s *ProgressStore) GetOrCreate(
	ctx context.Context,
	wordID uuid.UUID,
) (*domain.WordProgress, error) {
	initial, err := domain.NewWordProgress(wordID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO word_progress (`+progressColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(word_id) DO NOTHING
	`, progressArgs(initial)...)
	if err != nil {
		return nil, store.NewStoreError("word_progress", "get_or_create", "insert failed", mapError(err))
	}

	return s.Get(ctx, wordID)
}

// Get implements store.ProgressStore.Get.
func (s *ProgressStore) Get(ctx context.Context, wordID uuid.UUID) (*domain.WordProgress, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+progressColumns+`
		FROM word_progress
		WHERE word_id = ?
	`, wordID.String())

	progress, err := scanProgress(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrProgressNotFound
		}
		return nil, store.NewStoreError("word_progress", "get", "scan failed", mapError(err))
	}

	return progress, nil
}

// Update implements store.ProgressStore.Update as a full-row replace.
func (s *ProgressStore) Update(ctx context.Context, progress *domain.WordProgress) error {
	if err := progress.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE word_progress
		SET state = ?, step = ?, stability = ?, difficulty = ?, due = ?, last_review = ?,
			reps = ?, lapses = ?, total_reviews = ?, correct_reviews = ?,
			is_new = ?, is_starred = ?, mastery_level = ?, updated_at = ?
		WHERE word_id = ?
	`,
		int(progress.State),
		nullableInt(progress.Step),
		nullableFloat(progress.Stability),
		nullableFloat(progress.Difficulty),
		progress.Due.UTC(),
		nullableTime(progress.LastReview),
		progress.Reps,
		progress.Lapses,
		progress.TotalReviews,
		progress.CorrectReviews,
		progress.IsNew,
		progress.IsStarred,
		progress.MasteryLevel,
		progress.UpdatedAt.UTC(),
		progress.WordID.String(),
	)
	if err != nil {
		return store.NewStoreError("word_progress", "update", "update failed", mapError(err))
	}

	return checkRowsAffected(result, store.ErrProgressNotFound)
}

// SetStarred implements store.ProgressStore.SetStarred, touching only the
// bookmark flag.
func (s *ProgressStore) SetStarred(ctx context.Context, wordID uuid.UUID, starred bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE word_progress
		SET is_starred = ?, updated_at = ?
		WHERE word_id = ?
	`, starred, time.Now().UTC(), wordID.String())
	if err != nil {
		return store.NewStoreError("word_progress", "set_starred", "update failed", mapError(err))
	}

	return checkRowsAffected(result, store.ErrProgressNotFound)
}

// WithTx implements store.ProgressStore.WithTx.
func (s *ProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return &ProgressStore{db: tx, logger: s.logger}
}

// progressArgs flattens a progress row into insert arguments in
// progressColumns order.
func progressArgs(p *domain.WordProgress) []any {
	return []any{
		p.WordID.String(),
		int(p.State),
		nullableInt(p.Step),
		nullableFloat(p.Stability),
		nullableFloat(p.Difficulty),
		p.Due.UTC(),
		nullableTime(p.LastReview),
		p.Reps,
		p.Lapses,
		p.TotalReviews,
		p.CorrectReviews,
		p.IsNew,
		p.IsStarred,
		p.MasteryLevel,
		p.CreatedAt.UTC(),
		p.UpdatedAt.UTC(),
	}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanProgress reads one progress row in progressColumns order.
func scanProgress(row rowScanner) (*domain.WordProgress, error) {
	var (
		p          domain.WordProgress
		id         string
		state      int
		step       sql.NullInt64
		stability  sql.NullFloat64
		difficulty sql.NullFloat64
		lastReview sql.NullTime
	)

	err := row.Scan(
		&id,
		&state,
		&step,
		&stability,
		&difficulty,
		&p.Due,
		&lastReview,
		&p.Reps,
		&p.Lapses,
		&p.TotalReviews,
		&p.CorrectReviews,
		&p.IsNew,
		&p.IsStarred,
		&p.MasteryLevel,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	wordID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid word ID %q: %w", id, err)
	}

	p.WordID = wordID
	p.State = flux.State(state)
	if step.Valid {
		v := int(step.Int64)
		p.Step = &v
	}
	if stability.Valid {
		v := stability.Float64
		p.Stability = &v
	}
	if difficulty.Valid {
		v := difficulty.Float64
		p.Difficulty = &v
	}
	if lastReview.Valid {
		v := lastReview.Time.UTC()
		p.LastReview = &v
	}
	p.Due = p.Due.UTC()

	return &p, nil
}

// nullableInt converts an optional int to its driver value.
func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

// nullableFloat converts an optional float to its driver value.
func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// nullableTime converts an optional timestamp to its driver value in UTC.
func nullableTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC()
}
