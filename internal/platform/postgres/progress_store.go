package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sky-flux/flux"

	"github.com/avelychko/lexiq/internal/domain"
	"github.com/avelychko/lexiq/internal/store"
)

// ProgressStore implements store.ProgressStore on PostgreSQL.
type ProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewProgressStore creates a PostgreSQL implementation of
// store.ProgressStore. If logger is nil, a default logger is used.
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

// GetOrCreate implements store.ProgressStore.GetOrCreate. ON CONFLICT DO
// NOTHING keeps concurrent first calls from creating duplicates or
// resetting counters.
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (word_id) DO NOTHING
	`,
		initial.WordID,
		int(initial.State),
		initial.Step,
		initial.Stability,
		initial.Difficulty,
		initial.Due.UTC(),
		initial.LastReview,
		initial.Reps,
		initial.Lapses,
		initial.TotalReviews,
		initial.CorrectReviews,
		initial.IsNew,
		initial.IsStarred,
		initial.MasteryLevel,
		initial.CreatedAt.UTC(),
		initial.UpdatedAt.UTC(),
	)
	if err != nil {
		return nil, store.NewStoreError("word_progress", "get_or_create", "insert failed", MapError(err))
	}

	return s.Get(ctx, wordID)
}

// Get implements store.ProgressStore.Get.
func (s *ProgressStore) Get(ctx context.Context, wordID uuid.UUID) (*domain.WordProgress, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+progressColumns+`
		FROM word_progress
		WHERE word_id = $1
	`, wordID)

	var (
		p          domain.WordProgress
		state      int
		step       sql.NullInt64
		stability  sql.NullFloat64
		difficulty sql.NullFloat64
		lastReview sql.NullTime
	)
	err := row.Scan(
		&p.WordID,
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
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProgressNotFound
		}
		return nil, store.NewStoreError("word_progress", "get", "scan failed", MapError(err))
	}

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

// Update implements store.ProgressStore.Update as a full-row replace.
func (s *ProgressStore) Update(ctx context.Context, progress *domain.WordProgress) error {
	if err := progress.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	var lastReview *time.Time
	if progress.LastReview != nil {
		v := progress.LastReview.UTC()
		lastReview = &v
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE word_progress
		SET state = $1, step = $2, stability = $3, difficulty = $4, due = $5,
			last_review = $6, reps = $7, lapses = $8, total_reviews = $9,
			correct_reviews = $10, is_new = $11, is_starred = $12,
			mastery_level = $13, updated_at = $14
		WHERE word_id = $15
	`,
		int(progress.State),
		progress.Step,
		progress.Stability,
		progress.Difficulty,
		progress.Due.UTC(),
		lastReview,
		progress.Reps,
		progress.Lapses,
		progress.TotalReviews,
		progress.CorrectReviews,
		progress.IsNew,
		progress.IsStarred,
		progress.MasteryLevel,
		progress.UpdatedAt.UTC(),
		progress.WordID,
	)
	if err != nil {
		return store.NewStoreError("word_progress", "update", "update failed", MapError(err))
	}

	return CheckRowsAffected(result, store.ErrProgressNotFound)
}

// SetStarred implements store.ProgressStore.SetStarred, touching only the
// bookmark flag.
func (s *ProgressStore) SetStarred(ctx context.Context, wordID uuid.UUID, starred bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE word_progress
		SET is_starred = $1, updated_at = $2
		WHERE word_id = $3
	`, starred, time.Now().UTC(), wordID)
	if err != nil {
		return store.NewStoreError("word_progress", "set_starred", "update failed", MapError(err))
	}

	return CheckRowsAffected(result, store.ErrProgressNotFound)
}

// WithTx implements store.ProgressStore.WithTx.
func (s *ProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return &ProgressStore{db: tx, logger: s.logger}
}
