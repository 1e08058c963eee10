// Package srs adapts the external flux forgetting-curve scheduler behind a
// small interface. The engine treats scheduling as a pure function: cards and
// ratings go in, an updated card and a log entry come out. All algorithm
// configuration (retention target, step sequences, interval cap, fuzzing)
// lives here; none of the math does.
package srs

import (
	"fmt"
	"time"

	"github.com/sky-flux/flux"
)

// Scheduler is the forgetting-curve contract consumed by the session engine.
type Scheduler interface {
	// Review processes one rating of a card at the given time and returns
	// the updated card plus a review log. Pure: the input card is not
	// mutated, and repeated calls with identical inputs are safe.
	Review(card flux.Card, rating flux.Rating, now time.Time) (flux.Card, flux.ReviewLog)

	// Retrievability estimates the probability of recalling the card right
	// now. Display and analytics only; it must never gate scheduling.
	Retrievability(card flux.Card, now time.Time) float64
}

// Config carries the externally-owned scheduler settings. Zero values fall
// back to flux defaults (0.9 retention, [1m 10m] learning steps, [10m]
// relearning steps, 36500-day cap, fuzzing on).
type Config struct {
	DesiredRetention float64
	LearningSteps    []time.Duration
	RelearningSteps  []time.Duration
	MaximumInterval  int
	DisableFuzzing   bool
}

// fluxScheduler implements Scheduler on top of flux's FSRS v6 implementation.
type fluxScheduler struct {
	inner *flux.Scheduler
}

// Verify interface compliance at compile time.
var _ Scheduler = (*fluxScheduler)(nil)

// New creates a Scheduler from the given config.
func New(cfg Config) (Scheduler, error) {
	inner, err := flux.NewScheduler(flux.SchedulerConfig{
		DesiredRetention: cfg.DesiredRetention,
		LearningSteps:    cfg.LearningSteps,
		RelearningSteps:  cfg.RelearningSteps,
		MaximumInterval:  cfg.MaximumInterval,
		DisableFuzzing:   cfg.DisableFuzzing,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build scheduler: %w", err)
	}

	return &fluxScheduler{inner: inner}, nil
}

// NewDeterministic creates a Scheduler with fuzzing disabled regardless of
// config. Used by tests that assert on exact due dates.
func NewDeterministic(cfg Config) (Scheduler, error) {
	cfg.DisableFuzzing = true
	return New(cfg)
}

// Review implements Scheduler.Review.
func (s *fluxScheduler) Review(
	card flux.Card,
	rating flux.Rating,
	now time.Time,
) (flux.Card, flux.ReviewLog) {
	return s.inner.ReviewCard(card, rating, now)
}

// Retrievability implements Scheduler.Retrievability.
func (s *fluxScheduler) Retrievability(card flux.Card, now time.Time) float64 {
	return s.inner.Retrievability(card, now)
}

// IsCorrect reports whether a rating counts as a correct answer for
// aggregate statistics: Good and Easy do, Again and Hard do not.
func IsCorrect(rating flux.Rating) bool {
	return rating >= flux.Good
}
