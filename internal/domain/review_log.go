package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sky-flux/flux"
)

// Review-log validation errors
var (
	// ErrLogSessionIDEmpty is returned when a log entry has no session ID.
	ErrLogSessionIDEmpty = errors.New("review log session ID cannot be empty")

	// ErrLogWordIDEmpty is returned when a log entry has no word ID.
	ErrLogWordIDEmpty = errors.New("review log word ID cannot be empty")

	// ErrLogInvalidRating is returned when a log entry carries an invalid rating.
	ErrLogInvalidRating = errors.New("review log rating is invalid")
)

// ReviewLogEntry is an append-only record of a single rating, scoped to the
// session it happened in. Payload holds the scheduler-produced review log
// verbatim so the scheduling state can be replayed or re-optimized later.
type ReviewLogEntry struct {
	ID         uuid.UUID       `json:"id"`
	SessionID  uuid.UUID       `json:"session_id"`
	WordID     uuid.UUID       `json:"word_id"`
	Rating     flux.Rating     `json:"rating"`
	ReviewedAt time.Time       `json:"reviewed_at"`
	Payload    json.RawMessage `json:"payload"`
}

// NewReviewLogEntry creates a log entry for one rating, serializing the
// scheduler's review log as the opaque payload.
func NewReviewLogEntry(
	sessionID, wordID uuid.UUID,
	rating flux.Rating,
	schedulerLog flux.ReviewLog,
	reviewedAt time.Time,
) (*ReviewLogEntry, error) {
	payload, err := json.Marshal(schedulerLog)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize scheduler log: %w", err)
	}

	entry := &ReviewLogEntry{
		ID:         uuid.New(),
		SessionID:  sessionID,
		WordID:     wordID,
		Rating:     rating,
		ReviewedAt: reviewedAt.UTC(),
		Payload:    payload,
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks that the ReviewLogEntry has valid data.
func (e *ReviewLogEntry) Validate() error {
	if e.SessionID == uuid.Nil {
		return ErrLogSessionIDEmpty
	}

	if e.WordID == uuid.Nil {
		return ErrLogWordIDEmpty
	}

	if !e.Rating.IsValid() {
		return ErrLogInvalidRating
	}

	return nil
}
