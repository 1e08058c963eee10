package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sky-flux/flux"

	"github.com/avelychko/lexiq/internal/domain"
	"github.com/avelychko/lexiq/internal/store"
)

// SessionStore implements store.SessionStore on SQLite.
type SessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSessionStore creates a SQLite implementation of store.SessionStore.
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, type, list_id, new_count, review_count,
			correct_count, incorrect_count, starred_delta, started_at,
			finished_at, duration_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		session.ID.String(),
		string(session.Type),
		session.ListID.String(),
		session.NewCount,
		session.ReviewCount,
		session.CorrectCount,
		session.IncorrectCount,
		session.StarredDelta,
		session.StartedAt.UTC(),
		nullableTime(session.FinishedAt),
		session.DurationSeconds,
	)
	if err != nil {
		return store.NewStoreError("session", "create", "insert failed", mapError(err))
	}

	return nil
}

// GetByID implements store.SessionStore.GetByID.
func (s *SessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, list_id, new_count, review_count, correct_count,
			incorrect_count, starred_delta, started_at, finished_at, duration_seconds
		FROM sessions
		WHERE id = ?
	`, id.String())

	var (
		session    domain.Session
		rawID      string
		rawType    string
		rawListID  string
		finishedAt sql.NullTime
	)

	err := row.Scan(
		&rawID,
		&rawType,
		&rawListID,
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
		return nil, store.NewStoreError("session", "get", "scan failed", mapError(err))
	}

	if session.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("invalid session ID %q: %w", rawID, err)
	}
	if session.ListID, err = uuid.Parse(rawListID); err != nil {
		return nil, fmt.Errorf("invalid list ID %q: %w", rawListID, err)
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
		SET new_count = ?, review_count = ?, correct_count = ?, incorrect_count = ?,
			starred_delta = ?, finished_at = ?, duration_seconds = ?
		WHERE id = ? AND finished_at IS NULL
	`,
		session.NewCount,
		session.ReviewCount,
		session.CorrectCount,
		session.IncorrectCount,
		session.StarredDelta,
		session.FinishedAt.UTC(),
		session.DurationSeconds,
		session.ID.String(),
	)
	if err != nil {
		return store.NewStoreError("session", "finish", "update failed", mapError(err))
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
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		entry.ID.String(),
		entry.SessionID.String(),
		entry.WordID.String(),
		int(entry.Rating),
		entry.ReviewedAt.UTC(),
		string(entry.Payload),
	)
	if err != nil {
		return store.NewStoreError("review_log", "append", "insert failed", mapError(err))
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
		WHERE session_id = ?
		ORDER BY reviewed_at, id
	`, sessionID.String())
	if err != nil {
		return nil, store.NewStoreError("review_log", "list", "query failed", mapError(err))
	}
	defer func() { _ = rows.Close() }()

	var entries []*domain.ReviewLogEntry
	for rows.Next() {
		var (
			entry     domain.ReviewLogEntry
			rawID     string
			rawSessID string
			rawWordID string
			rating    int
			payload   string
		)
		if err := rows.Scan(&rawID, &rawSessID, &rawWordID, &rating, &entry.ReviewedAt, &payload); err != nil {
			return nil, store.NewStoreError("review_log", "list", "scan failed", mapError(err))
		}

		if entry.ID, err = uuid.Parse(rawID); err != nil {
			return nil, fmt.Errorf("invalid log ID %q: %w", rawID, err)
		}
		if entry.SessionID, err = uuid.Parse(rawSessID); err != nil {
			return nil, fmt.Errorf("invalid session ID %q: %w", rawSessID, err)
		}
		if entry.WordID, err = uuid.Parse(rawWordID); err != nil {
			return nil, fmt.Errorf("invalid word ID %q: %w", rawWordID, err)
		}
		entry.Rating = flux.Rating(rating)
		entry.ReviewedAt = entry.ReviewedAt.UTC()
		entry.Payload = []byte(payload)

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("review_log", "list", "iteration failed", mapError(err))
	}

	return entries, nil
}

// WithTx implements store.SessionStore.WithTx.
func (s *SessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &SessionStore{db: tx, logger: s.logger}
}
