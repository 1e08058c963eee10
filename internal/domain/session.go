package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionType identifies the study mode a session was started in.
type SessionType string

// Possible session types.
const (
	SessionTypeFlashcard SessionType = "flashcard"
	SessionTypeQuiz      SessionType = "quiz"
	SessionTypeAudio     SessionType = "audio"
)

// Session-specific validation errors
var (
	// ErrSessionIDEmpty is returned when a session ID is empty or nil.
	ErrSessionIDEmpty = errors.New("session ID cannot be empty")

	// ErrSessionListIDEmpty is returned when a session's list ID is empty or nil.
	ErrSessionListIDEmpty = errors.New("session list ID cannot be empty")

	// ErrInvalidSessionType is returned when a session type is not recognized.
	ErrInvalidSessionType = errors.New("invalid session type")

	// ErrSessionAlreadyFinished is returned when a terminal aggregate is
	// written for a session that already has one.
	ErrSessionAlreadyFinished = errors.New("session already finished")
)

// Session records one pass through a study queue. Running counters are
// mutated by the session state machine while the session is active; the
// terminal aggregate (FinishedAt, DurationSeconds) is written exactly once
// on completion.
type Session struct {
	ID     uuid.UUID   `json:"id"`
	Type   SessionType `json:"type"`
	ListID uuid.UUID   `json:"list_id"`

	NewCount       int `json:"new_count"`
	ReviewCount    int `json:"review_count"`
	CorrectCount   int `json:"correct_count"`
	IncorrectCount int `json:"incorrect_count"`
	StarredDelta   int `json:"starred_delta"`

	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`
}

// NewSession creates a Session with a generated ID, the current start time
// and zeroed counters. Returns an error if validation fails.
func NewSession(sessionType SessionType, listID uuid.UUID) (*Session, error) {
	session := &Session{
		ID:        uuid.New(),
		Type:      sessionType,
		ListID:    listID,
		StartedAt: time.Now().UTC(),
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}

	return session, nil
}

// Validate checks that the Session has valid data.
func (s *Session) Validate() error {
	if s.ID == uuid.Nil {
		return ErrSessionIDEmpty
	}

	if s.ListID == uuid.Nil {
		return ErrSessionListIDEmpty
	}

	switch s.Type {
	case SessionTypeFlashcard, SessionTypeQuiz, SessionTypeAudio:
	default:
		return ErrInvalidSessionType
	}

	return nil
}

// IsFinished reports whether the terminal aggregate has been written.
func (s *Session) IsFinished() bool {
	return s.FinishedAt != nil
}

// Finish writes the terminal aggregate. It is an error to finish a session
// twice; callers treat ErrSessionAlreadyFinished as a no-op signal.
func (s *Session) Finish(now time.Time) error {
	if s.IsFinished() {
		return ErrSessionAlreadyFinished
	}

	finished := now.UTC()
	s.FinishedAt = &finished
	s.DurationSeconds = int(finished.Sub(s.StartedAt).Seconds())
	return nil
}

// CorrectRate returns the fraction of rated items answered correctly,
// defined as 0 before any rating has occurred.
func (s *Session) CorrectRate() float64 {
	total := s.CorrectCount + s.IncorrectCount
	if total == 0 {
		return 0
	}
	return float64(s.CorrectCount) / float64(total)
}
