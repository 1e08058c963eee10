package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sky-flux/flux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWordProgress(t *testing.T) {
	t.Parallel()

	t.Run("creates an unrated learning record due immediately", func(t *testing.T) {
		t.Parallel()

		wordID := uuid.New()
		p, err := NewWordProgress(wordID)
		require.NoError(t, err)

		assert.Equal(t, wordID, p.WordID)
		assert.Equal(t, flux.Learning, p.State)
		assert.True(t, p.IsNew)
		assert.Equal(t, MasteryNew, p.MasteryLevel)
		assert.Zero(t, p.Reps)
		assert.Zero(t, p.TotalReviews)
		assert.False(t, p.Due.After(time.Now().UTC()))
	})

	t.Run("rejects nil word ID", func(t *testing.T) {
		t.Parallel()

		_, err := NewWordProgress(uuid.Nil)
		assert.ErrorIs(t, err, ErrProgressWordIDEmpty)
	})
}

func TestWordProgressValidate(t *testing.T) {
	t.Parallel()

	p, err := NewWordProgress(uuid.New())
	require.NoError(t, err)
	assert.NoError(t, p.Validate())

	p.Lapses = -1
	assert.ErrorIs(t, p.Validate(), ErrNegativeCounter)
}

func TestApplyReview(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	due := now.Add(24 * time.Hour)
	stability := 4.5
	difficulty := 5.2

	reviewedCard := func() flux.Card {
		return flux.Card{
			State:      flux.Review,
			Stability:  &stability,
			Difficulty: &difficulty,
			Due:        due,
			LastReview: &now,
		}
	}

	t.Run("good rating updates counters and clears IsNew", func(t *testing.T) {
		t.Parallel()

		p, err := NewWordProgress(uuid.New())
		require.NoError(t, err)

		p.ApplyReview(reviewedCard(), flux.Good, now)

		assert.False(t, p.IsNew)
		assert.Equal(t, 1, p.Reps)
		assert.Equal(t, 1, p.TotalReviews)
		assert.Equal(t, 1, p.CorrectReviews)
		assert.Zero(t, p.Lapses)
		assert.Equal(t, flux.Review, p.State)
		assert.Equal(t, due, p.Due)
		require.NotNil(t, p.Stability)
		assert.InDelta(t, stability, *p.Stability, 1e-9)
	})

	t.Run("again rating counts a lapse and not a correct answer", func(t *testing.T) {
		t.Parallel()

		p, err := NewWordProgress(uuid.New())
		require.NoError(t, err)

		card := reviewedCard()
		card.State = flux.Relearning
		p.ApplyReview(card, flux.Again, now)

		assert.Equal(t, 1, p.Lapses)
		assert.Zero(t, p.CorrectReviews)
		assert.Equal(t, 1, p.TotalReviews)
	})

	t.Run("hard counts as incorrect for statistics", func(t *testing.T) {
		t.Parallel()

		p, err := NewWordProgress(uuid.New())
		require.NoError(t, err)

		p.ApplyReview(reviewedCard(), flux.Hard, now)

		assert.Zero(t, p.CorrectReviews)
		assert.Zero(t, p.Lapses)
		assert.Equal(t, 1, p.TotalReviews)
	})

	t.Run("mastery tracks scheduler state and stability", func(t *testing.T) {
		t.Parallel()

		p, err := NewWordProgress(uuid.New())
		require.NoError(t, err)

		// Still in learning steps.
		step := 1
		learningCard := flux.Card{
			State:      flux.Learning,
			Step:       &step,
			Stability:  &stability,
			Difficulty: &difficulty,
			Due:        due,
			LastReview: &now,
		}
		p.ApplyReview(learningCard, flux.Good, now)
		assert.Equal(t, MasteryLearning, p.MasteryLevel)

		// Graduated with modest stability.
		p.ApplyReview(reviewedCard(), flux.Good, now)
		assert.Equal(t, MasteryYoung, p.MasteryLevel)

		// Long-interval review card.
		mature := reviewedCard()
		highStability := 42.0
		mature.Stability = &highStability
		p.ApplyReview(mature, flux.Good, now)
		assert.Equal(t, MasteryMature, p.MasteryLevel)
	})
}

func TestCard(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("round-trips a healthy record", func(t *testing.T) {
		t.Parallel()

		p, err := NewWordProgress(uuid.New())
		require.NoError(t, err)

		stability := 3.3
		difficulty := 6.1
		p.State = flux.Review
		p.Step = nil
		p.Stability = &stability
		p.Difficulty = &difficulty
		p.Due = now
		p.LastReview = &now

		card := p.Card()
		assert.Equal(t, flux.Review, card.State)
		assert.Equal(t, now, card.Due)
		require.NotNil(t, card.Stability)
		assert.InDelta(t, stability, *card.Stability, 1e-9)
	})

	t.Run("returned card does not alias the record", func(t *testing.T) {
		t.Parallel()

		p, err := NewWordProgress(uuid.New())
		require.NoError(t, err)

		card := p.Card()
		require.NotNil(t, card.Step)
		*card.Step = 99

		assert.Equal(t, 0, *p.Step)
	})

	t.Run("unknown state falls back to a fresh card", func(t *testing.T) {
		t.Parallel()

		p, err := NewWordProgress(uuid.New())
		require.NoError(t, err)
		p.State = flux.State(42)

		card := p.Card()
		assert.Equal(t, flux.Learning, card.State)
		assert.Nil(t, card.LastReview)
	})

	t.Run("reviewed card without memory estimates falls back", func(t *testing.T) {
		t.Parallel()

		p, err := NewWordProgress(uuid.New())
		require.NoError(t, err)
		p.State = flux.Review
		p.Step = nil
		p.LastReview = &now
		p.Stability = nil
		p.Difficulty = nil

		card := p.Card()
		assert.Equal(t, flux.Learning, card.State)
	})

	t.Run("zero due date falls back", func(t *testing.T) {
		t.Parallel()

		p, err := NewWordProgress(uuid.New())
		require.NoError(t, err)
		p.Due = time.Time{}

		card := p.Card()
		assert.False(t, card.Due.IsZero())
	})
}
