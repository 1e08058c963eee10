package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWord(t *testing.T) {
	t.Parallel()

	t.Run("trims and normalizes fields", func(t *testing.T) {
		t.Parallel()

		w, err := NewWord(uuid.New(), "  haus ", " house ", "", " DE ")
		require.NoError(t, err)

		assert.Equal(t, "haus", w.Term)
		assert.Equal(t, "house", w.Translation)
		assert.Equal(t, "de", w.LanguageCode)
		assert.False(t, w.HasExample())
	})

	t.Run("rejects empty term", func(t *testing.T) {
		t.Parallel()

		_, err := NewWord(uuid.New(), "   ", "house", "", "de")
		assert.ErrorIs(t, err, ErrWordTermEmpty)
	})

	t.Run("rejects empty translation", func(t *testing.T) {
		t.Parallel()

		_, err := NewWord(uuid.New(), "haus", "  ", "", "de")
		assert.ErrorIs(t, err, ErrWordTranslationEmpty)
	})

	t.Run("rejects missing language", func(t *testing.T) {
		t.Parallel()

		_, err := NewWord(uuid.New(), "haus", "house", "", "")
		assert.ErrorIs(t, err, ErrWordLanguageEmpty)
	})

	t.Run("rejects nil list ID", func(t *testing.T) {
		t.Parallel()

		_, err := NewWord(uuid.Nil, "haus", "house", "", "de")
		assert.ErrorIs(t, err, ErrWordListIDEmpty)
	})
}
