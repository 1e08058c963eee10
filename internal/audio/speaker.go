package audio

import (
	"context"
	"errors"
)

// Playback errors. Both are non-fatal notices: the item flow continues
// without audio.
var (
	// ErrNotReady is returned when the playback engine is not initialized.
	ErrNotReady = errors.New("playback engine not ready")

	// ErrLanguageNotSupported is returned when no playback voice exists for
	// the requested language.
	ErrLanguageNotSupported = errors.New("language not supported by playback engine")
)

// Speaker is the playback engine consumed by the sequencer. Implemented
// elsewhere (platform TTS, external process); the engine only needs these
// three operations.
type Speaker interface {
	// Speak synthesizes the text in the given language and blocks until
	// playback finishes or ctx is cancelled. Returns
	// ErrLanguageNotSupported when no voice exists for languageCode.
	Speak(ctx context.Context, text, languageCode string) error

	// Stop interrupts any in-flight playback.
	Stop()

	// SupportsLanguage reports whether a voice exists for the language.
	SupportsLanguage(languageCode string) bool
}
