package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	t.Parallel()

	t.Run("creates a running session with zero counters", func(t *testing.T) {
		t.Parallel()

		listID := uuid.New()
		s, err := NewSession(SessionTypeFlashcard, listID)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, s.ID)
		assert.Equal(t, listID, s.ListID)
		assert.False(t, s.IsFinished())
		assert.Zero(t, s.CorrectCount)
	})

	t.Run("rejects unknown session type", func(t *testing.T) {
		t.Parallel()

		_, err := NewSession(SessionType("podcast"), uuid.New())
		assert.ErrorIs(t, err, ErrInvalidSessionType)
	})

	t.Run("rejects nil list ID", func(t *testing.T) {
		t.Parallel()

		_, err := NewSession(SessionTypeQuiz, uuid.Nil)
		assert.ErrorIs(t, err, ErrSessionListIDEmpty)
	})
}

func TestSessionFinish(t *testing.T) {
	t.Parallel()

	s, err := NewSession(SessionTypeAudio, uuid.New())
	require.NoError(t, err)

	finish := s.StartedAt.Add(90 * time.Second)
	require.NoError(t, s.Finish(finish))

	assert.True(t, s.IsFinished())
	require.NotNil(t, s.FinishedAt)
	assert.Equal(t, 90, s.DurationSeconds)

	// The terminal aggregate is written exactly once.
	err = s.Finish(finish.Add(time.Hour))
	assert.ErrorIs(t, err, ErrSessionAlreadyFinished)
	assert.Equal(t, 90, s.DurationSeconds)
}

func TestSessionCorrectRate(t *testing.T) {
	t.Parallel()

	s, err := NewSession(SessionTypeFlashcard, uuid.New())
	require.NoError(t, err)

	// Defined as zero before any rating.
	assert.Zero(t, s.CorrectRate())

	s.CorrectCount = 3
	s.IncorrectCount = 1
	assert.InDelta(t, 0.75, s.CorrectRate(), 1e-9)
}
