package session

import (
	"errors"
	"fmt"
)

// Common session errors.
var (
	// ErrInvalidPolicy indicates that the study policy is malformed: nil
	// list ID, unknown mode or order, or negative limits.
	ErrInvalidPolicy = errors.New("invalid study policy")

	// ErrEmptyWordList indicates the policy selected a word list that
	// contains no words at all. Rejected before a session starts; this is
	// distinct from a list whose words simply are not due.
	ErrEmptyWordList = errors.New("word list has no words")

	// ErrAlreadyStarted indicates Start was called on a session that has
	// already been started.
	ErrAlreadyStarted = errors.New("session already started")

	// ErrNotActive indicates an intent was issued while the session was not
	// in the Active state.
	ErrNotActive = errors.New("session is not active")

	// ErrRevealNotAllowed indicates RevealAnswer was called in a session
	// type that shows the answer together with the stimulus.
	ErrRevealNotAllowed = errors.New("reveal is not part of this session type")

	// ErrAnswerNotRevealed indicates Rate was called before the answer was
	// revealed in a flashcard-style session.
	ErrAnswerNotRevealed = errors.New("answer has not been revealed")

	// ErrAlreadyRevealed indicates RevealAnswer was called twice for the
	// same item.
	ErrAlreadyRevealed = errors.New("answer already revealed")

	// ErrInvalidRating indicates an out-of-range rating value.
	ErrInvalidRating = errors.New("invalid rating")
)

// IntentError wraps errors from session intents with the operation that
// failed, so consumers can differentiate failures with errors.As instead of
// string matching.
type IntentError struct {
	// Op is the intent that failed (e.g., "start", "rate").
	Op string
	// Message is a human-readable description of the failure.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface for IntentError.
func (e *IntentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s intent failed: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s intent failed: %s", e.Op, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *IntentError) Unwrap() error {
	return e.Err
}

// newIntentError creates a new IntentError for the given operation.
func newIntentError(op, message string, err error) *IntentError {
	return &IntentError{Op: op, Message: message, Err: err}
}
