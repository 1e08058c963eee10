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

// SessionStore implements store.SessionStore on PostgreSQL.
type SessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSessionStore creates a PostgreSQL implementation of store.SessionStore.
// If logger is nil, a default logger is used.
func NewSessionStore(db store.DBTX, logger *slog.Logger) *SessionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

// Verify interface compliance at compile time.
var _ store.SessionStore = (*SessionStore)(nil)

// Create implements store.SessionStore.Create.
func (s *SessionStore) Create(ctx context.Context, session *domain.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	var finishedAt *time.Time
	if session.FinishedAt != nil {
		v := session.FinishedAt.UTC()
		finishedAt = &v
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, type, list_id, new_count, review_count,
			correct_count, incorrect_count, starred_delta, started_at,
			finished_at, duration_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		session.ID,
		string(session.Type),
		session.ListID,
		session.NewCount,
		session.ReviewCount,
		session.CorrectCount,
		session.IncorrectCount,
		session.StarredDelta,
		session.StartedAt.UTC(),
		finishedAt,
		session.DurationSeconds,
	)
	if err != nil {
		return store.NewStoreError("session", "create", "insert failed", MapError(err))
	}

	return nil
}

// GetByID implements store.SessionStore.GetByID.
func (s *SessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, list_id, new_count, review_count, correct_count,
			incorrect_count, starred_delta, started_at, finished_at, duration_seconds
		FROM sessions
		WHERE id = $1
	`, id)

	var (
		session    domain.Session
		rawType    string
		finishedAt sql.NullTime
	)
	err := row.Scan(
		&session.ID,
		&rawType,
		&session.ListID,
		&session.NewCount,
		&session.ReviewCount,
		&session.CorrectCount,
		&session.IncorrectCount,
		&session.StarredDelta,
		&session.StartedAt,
		&finishedAt,
		&session.DurationSeconds,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		return nil, store.NewStoreError("session", "get", "scan failed", MapError(err))
	}

	session.Type = domain.SessionType(rawType)
	session.StartedAt = session.StartedAt.UTC()
	if finishedAt.Valid {
		v := finishedAt.Time.UTC()
		session.FinishedAt = &v
	}

	return &session, nil
}

// Finish implements store.SessionStore.Finish. The guard on finished_at
// makes the terminal write exactly-once: a second call matches no rows and
// is reported as ErrSessionFinished.
func (s *SessionStore) Finish(ctx context.Context, session *domain.Session) error {
	if session.FinishedAt == nil {
		return fmt.Errorf("%w: session has no terminal aggregate", store.ErrInvalidEntity)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions
		SET new_count = $1, review_count = $2, correct_count = $3, incorrect_count = $4,
			starred_delta = $5, finished_at = $6, duration_seconds = $7
		WHERE id = $8 AND finished_at IS NULL
	`,
		session.NewCount,
		session.ReviewCount,
		session.CorrectCount,
		session.IncorrectCount,
		session.StarredDelta,
		session.FinishedAt.UTC(),
		session.DurationSeconds,
		session.ID,
	)
	if err != nil {
		return store.NewStoreError("session", "finish", "update failed", MapError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		// Either the session does not exist or it is already finished.
		if _, getErr := s.GetByID(ctx, session.ID); getErr != nil {
			return getErr
		}
		return store.ErrSessionFinished
	}

	return nil
}

// AppendReviewLog implements store.SessionStore.AppendReviewLog.
func (s *SessionStore) AppendReviewLog(ctx context.Context, entry *domain.ReviewLogEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_logs (id, session_id, word_id, rating, reviewed_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		entry.ID,
		entry.SessionID,
		entry.WordID,
		int(entry.Rating),
		entry.ReviewedAt.UTC(),
		[]byte(entry.Payload),
	)
	if err != nil {
		return store.NewStoreError("review_log", "append", "insert failed", MapError(err))
	}

	return nil
}

// ReviewLogs implements store.SessionStore.ReviewLogs.
func (s *SessionStore) ReviewLogs(
	ctx context.Context,
	sessionID uuid.UUID,
) ([]*domain.ReviewLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, word_id, rating, reviewed_at, payload
		FROM review_logs
		WHERE session_id = $1
		ORDER BY reviewed_at, id
	`, sessionID)
	if err != nil {
		return nil, store.NewStoreError("review_log", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var entries []*domain.ReviewLogEntry
	for rows.Next() {
		var (
			entry   domain.ReviewLogEntry
			rating  int
			payload []byte
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.SessionID,
			&entry.WordID,
			&rating,
			&entry.ReviewedAt,
			&payload,
		); err != nil {
			return nil, store.NewStoreError("review_log", "list", "scan failed", MapError(err))
		}

		entry.Rating = flux.Rating(rating)
		entry.ReviewedAt = entry.ReviewedAt.UTC()
		entry.Payload = payload

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("review_log", "list", "iteration failed", MapError(err))
	}

	return entries, nil
}

// WithTx implements store.SessionStore.WithTx.
func (s *SessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &SessionStore{db: tx, logger: s.logger}
}
