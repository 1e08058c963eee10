package srs

import (
	"testing"
	"time"

	"github.com/sky-flux/flux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("zero config uses scheduler defaults", func(t *testing.T) {
		t.Parallel()

		s, err := New(Config{})
		require.NoError(t, err)
		assert.NotNil(t, s)
	})

	t.Run("invalid retention is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := New(Config{DesiredRetention: 1.5})
		assert.Error(t, err)
	})
}

func TestReview(t *testing.T) {
	t.Parallel()

	s, err := NewDeterministic(Config{})
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	card := flux.NewCard(1)
	card.Due = now

	t.Run("does not mutate the input card", func(t *testing.T) {
		original := card
		updated, log := s.Review(card, flux.Good, now)

		assert.Equal(t, original.State, card.State)
		assert.True(t, updated.Due.After(now))
		assert.Equal(t, flux.Good, log.Rating)
	})

	t.Run("good ratings walk through the learning steps", func(t *testing.T) {
		first, _ := s.Review(card, flux.Good, now)
		assert.Equal(t, flux.Learning, first.State)

		second, _ := s.Review(first, flux.Good, first.Due)
		assert.Equal(t, flux.Review, second.State)
		require.NotNil(t, second.Stability)
		assert.Positive(t, *second.Stability)
	})

	t.Run("again on a review card starts relearning", func(t *testing.T) {
		first, _ := s.Review(card, flux.Good, now)
		second, _ := s.Review(first, flux.Good, first.Due)
		require.Equal(t, flux.Review, second.State)

		lapsed, _ := s.Review(second, flux.Again, second.Due)
		assert.Equal(t, flux.Relearning, lapsed.State)
	})
}

func TestRetrievability(t *testing.T) {
	t.Parallel()

	s, err := NewDeterministic(Config{})
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	card := flux.NewCard(1)
	card.Due = now

	reviewed, _ := s.Review(card, flux.Good, now)

	r := s.Retrievability(reviewed, now)
	assert.GreaterOrEqual(t, r, 0.0)
	assert.LessOrEqual(t, r, 1.0)

	// Recall probability decays with elapsed time.
	later := s.Retrievability(reviewed, now.Add(90*24*time.Hour))
	assert.Less(t, later, r)
}

func TestIsCorrect(t *testing.T) {
	t.Parallel()

	assert.False(t, IsCorrect(flux.Again))
	assert.False(t, IsCorrect(flux.Hard))
	assert.True(t, IsCorrect(flux.Good))
	assert.True(t, IsCorrect(flux.Easy))
}
