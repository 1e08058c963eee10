package session

import (
	"github.com/google/uuid"

	"github.com/avelychko/lexiq/internal/domain"
)

// Mode controls which candidate words enter a study queue.
type Mode string

// Possible queue modes.
const (
	// ModeMixed interleaves due reviews with new words at a 5:1 cadence.
	ModeMixed Mode = "mixed"

	// ModeNewOnly studies only words that have never been rated.
	ModeNewOnly Mode = "new_only"

	// ModeReviewOnly studies only words whose review is due.
	ModeReviewOnly Mode = "review_only"
)

// Order controls the final ordering of a built queue.
type Order string

// Possible queue orders.
const (
	OrderSequential Order = "sequential"
	OrderRandom     Order = "random"
)

// ItemFilter decides at build time whether a word may enter the queue.
// The audio sequencer uses it to exclude words whose language has no
// playback engine.
type ItemFilter func(word *domain.Word) bool

// Policy describes one study queue to build.
type Policy struct {
	// ListID selects the word list to study.
	ListID uuid.UUID

	// NewLimit caps how many new words enter the queue. Ignored in
	// ModeReviewOnly.
	NewLimit int

	// ReviewLimit caps how many due words enter the queue. Ignored in
	// ModeNewOnly.
	ReviewLimit int

	// Mode selects the candidate sets; see the Mode constants.
	Mode Mode

	// Order selects sequential or shuffled ordering of the built queue.
	Order Order

	// Filter, when non-nil, excludes words from the queue at build time.
	Filter ItemFilter
}

// Validate checks that the policy is well-formed. List existence and
// emptiness are checked against the catalog at session start, not here.
func (p Policy) Validate() error {
	if p.ListID == uuid.Nil {
		return ErrInvalidPolicy
	}

	switch p.Mode {
	case ModeMixed, ModeNewOnly, ModeReviewOnly:
	default:
		return ErrInvalidPolicy
	}

	switch p.Order {
	case OrderSequential, OrderRandom:
	default:
		return ErrInvalidPolicy
	}

	if p.NewLimit < 0 || p.ReviewLimit < 0 {
		return ErrInvalidPolicy
	}

	return nil
}
