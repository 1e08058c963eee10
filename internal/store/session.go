package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/avelychko/lexiq/internal/domain"
)

// SessionStore defines the interface for study session and review log
// persistence.
type SessionStore interface {
	// Create saves a new session row at session start.
	// Returns ErrDuplicate if a session with the same ID already exists.
	Create(ctx context.Context, session *domain.Session) error

	// GetByID retrieves a session by its ID.
	// Returns ErrSessionNotFound if the session does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)

	// Finish writes the terminal aggregate for the session exactly once.
	// A second Finish for the same session ID returns ErrSessionFinished
	// and leaves the stored aggregate untouched.
	// Returns ErrSessionNotFound if the session does not exist.
	Finish(ctx context.Context, session *domain.Session) error

	// AppendReviewLog appends one review log entry. Entries are append-only
	// and scoped to their session; they are never updated or deleted.
	AppendReviewLog(ctx context.Context, entry *domain.ReviewLogEntry) error

	// ReviewLogs returns the log entries of a session in append order.
	ReviewLogs(ctx context.Context, sessionID uuid.UUID) ([]*domain.ReviewLogEntry, error)

	// WithTx returns a SessionStore bound to the given transaction.
	WithTx(tx *sql.Tx) SessionStore
}
