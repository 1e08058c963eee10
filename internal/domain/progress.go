package domain

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sky-flux/flux"
)

// Mastery levels denormalized onto WordProgress. They are derived from the
// scheduler state and recomputed on every applied review.
const (
	MasteryNew      = 0 // never rated
	MasteryLearning = 1 // in learning or relearning steps
	MasteryYoung    = 2 // in review with stability below the mature threshold
	MasteryMature   = 3 // in review with stability at or above the threshold
)

// matureStabilityDays is the stability (in days) at which a reviewed word
// counts as mature.
const matureStabilityDays = 21.0

// Progress-specific validation errors
var (
	// ErrProgressWordIDEmpty is returned when a progress row has no word ID.
	ErrProgressWordIDEmpty = errors.New("progress word ID cannot be empty")

	// ErrNegativeCounter is returned when any review counter is negative.
	ErrNegativeCounter = errors.New("progress counters cannot be negative")
)

// WordProgress is the authoritative per-word learning record. The scheduler
// owns State, Step, Stability, Difficulty, Due and LastReview; those six
// fields are only ever written together via ApplyReview, immediately after a
// scheduler call. Due is always stored in UTC. IsNew is true exactly until
// the first rating is applied.
type WordProgress struct {
	WordID uuid.UUID `json:"word_id"`

	State      flux.State `json:"state"`
	Step       *int       `json:"step,omitempty"`
	Stability  *float64   `json:"stability,omitempty"`
	Difficulty *float64   `json:"difficulty,omitempty"`
	Due        time.Time  `json:"due"`
	LastReview *time.Time `json:"last_review,omitempty"`

	Reps           int `json:"reps"`
	Lapses         int `json:"lapses"`
	TotalReviews   int `json:"total_reviews"`
	CorrectReviews int `json:"correct_reviews"`

	IsNew        bool `json:"is_new"`
	IsStarred    bool `json:"is_starred"`
	MasteryLevel int  `json:"mastery_level"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewWordProgress creates the initial learning record for a word: a fresh
// Learning-state card due immediately, with zeroed counters.
func NewWordProgress(wordID uuid.UUID) (*WordProgress, error) {
	if wordID == uuid.Nil {
		return nil, ErrProgressWordIDEmpty
	}

	now := time.Now().UTC()
	step := 0
	return &WordProgress{
		WordID:       wordID,
		State:        flux.Learning,
		Step:         &step,
		Due:          now,
		IsNew:        true,
		MasteryLevel: MasteryNew,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Validate checks that the WordProgress has valid data.
func (p *WordProgress) Validate() error {
	if p.WordID == uuid.Nil {
		return ErrProgressWordIDEmpty
	}

	if p.Reps < 0 || p.Lapses < 0 || p.TotalReviews < 0 || p.CorrectReviews < 0 {
		return ErrNegativeCounter
	}

	return nil
}

// Card converts the stored scheduler fields into a flux.Card snapshot.
//
// A persisted row that has decayed into an inconsistent shape (unknown state,
// a reviewed card with no stability, a zero due date) is treated as a brand
// new card rather than rejected: a single stale row should cost the learner
// one relearn pass, not a crashed session.
func (p *WordProgress) Card() flux.Card {
	if p.isCorrupt() {
		return flux.NewCard(cardID(p.WordID))
	}

	card := flux.Card{
		CardID: cardID(p.WordID),
		State:  p.State,
		Due:    p.Due,
	}
	if p.Step != nil {
		step := *p.Step
		card.Step = &step
	}
	if p.Stability != nil {
		s := *p.Stability
		card.Stability = &s
	}
	if p.Difficulty != nil {
		d := *p.Difficulty
		card.Difficulty = &d
	}
	if p.LastReview != nil {
		lr := *p.LastReview
		card.LastReview = &lr
	}
	return card
}

// isCorrupt reports whether the scheduler fields are mutually inconsistent.
func (p *WordProgress) isCorrupt() bool {
	switch p.State {
	case flux.Learning, flux.Review, flux.Relearning:
	default:
		return true
	}

	if p.Due.IsZero() {
		return true
	}

	// A card past its first review must carry memory estimates.
	if p.LastReview != nil && (p.Stability == nil || p.Difficulty == nil) {
		return true
	}

	// A settled Review card has no step; a step-less Learning card with no
	// history has lost track of its position.
	if p.State != flux.Review && p.Step == nil && p.LastReview == nil {
		return true
	}

	return false
}

// ApplyReview writes the scheduler-owned fields from the updated card as a
// unit, updates the app-tracked counters and clears the IsNew flag. A rating
// counts as correct iff it is Good or Easy.
func (p *WordProgress) ApplyReview(card flux.Card, rating flux.Rating, now time.Time) {
	p.State = card.State
	if card.Step != nil {
		step := *card.Step
		p.Step = &step
	} else {
		p.Step = nil
	}
	if card.Stability != nil {
		s := *card.Stability
		p.Stability = &s
	} else {
		p.Stability = nil
	}
	if card.Difficulty != nil {
		d := *card.Difficulty
		p.Difficulty = &d
	} else {
		p.Difficulty = nil
	}
	p.Due = card.Due.UTC()
	if card.LastReview != nil {
		lr := card.LastReview.UTC()
		p.LastReview = &lr
	}

	p.Reps++
	p.TotalReviews++
	if rating == flux.Again {
		p.Lapses++
	}
	if rating >= flux.Good {
		p.CorrectReviews++
	}

	p.IsNew = false
	p.MasteryLevel = p.mastery()
	p.UpdatedAt = now.UTC()
}

// mastery derives the denormalized mastery level from the scheduler fields.
func (p *WordProgress) mastery() int {
	if p.IsNew {
		return MasteryNew
	}
	if p.State != flux.Review {
		return MasteryLearning
	}
	if p.Stability != nil && *p.Stability >= matureStabilityDays {
		return MasteryMature
	}
	return MasteryYoung
}

// cardID derives a stable int64 card identifier from a word UUID. flux only
// uses it to match cards against their review logs.
func cardID(id uuid.UUID) int64 {
	return int64(binary.BigEndian.Uint64(id[:8]))
}
