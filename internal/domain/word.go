package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Word-specific validation errors
var (
	// ErrWordIDEmpty is returned when a word ID is empty or nil.
	ErrWordIDEmpty = errors.New("word ID cannot be empty")

	// ErrWordListIDEmpty is returned when a word's list ID is empty or nil.
	ErrWordListIDEmpty = errors.New("word list ID cannot be empty")

	// ErrWordTermEmpty is returned when a word's term is empty.
	ErrWordTermEmpty = errors.New("word term cannot be empty")

	// ErrWordTranslationEmpty is returned when a word's translation is empty.
	ErrWordTranslationEmpty = errors.New("word translation cannot be empty")

	// ErrWordLanguageEmpty is returned when a word's language code is empty.
	ErrWordLanguageEmpty = errors.New("word language code cannot be empty")
)

// Word represents a single vocabulary entry belonging to a word list.
// Example holds an optional example sentence used by the audio sequencer.
type Word struct {
	ID           uuid.UUID `json:"id"`
	ListID       uuid.UUID `json:"list_id"`
	Term         string    `json:"term"`
	Translation  string    `json:"translation"`
	Example      string    `json:"example,omitempty"`
	LanguageCode string    `json:"language_code"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewWord creates a new Word with a generated ID and creation timestamp.
// Returns an error if validation fails.
func NewWord(listID uuid.UUID, term, translation, example, languageCode string) (*Word, error) {
	word := &Word{
		ID:           uuid.New(),
		ListID:       listID,
		Term:         strings.TrimSpace(term),
		Translation:  strings.TrimSpace(translation),
		Example:      strings.TrimSpace(example),
		LanguageCode: strings.ToLower(strings.TrimSpace(languageCode)),
		CreatedAt:    time.Now().UTC(),
	}

	if err := word.Validate(); err != nil {
		return nil, err
	}

	return word, nil
}

// Validate checks that the Word has valid data.
func (w *Word) Validate() error {
	if w.ID == uuid.Nil {
		return ErrWordIDEmpty
	}

	if w.ListID == uuid.Nil {
		return ErrWordListIDEmpty
	}

	if w.Term == "" {
		return ErrWordTermEmpty
	}

	if w.Translation == "" {
		return ErrWordTranslationEmpty
	}

	if w.LanguageCode == "" {
		return ErrWordLanguageEmpty
	}

	return nil
}

// HasExample reports whether the word carries an example sentence.
func (w *Word) HasExample() bool {
	return w.Example != ""
}
