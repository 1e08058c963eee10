package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/avelychko/lexiq/internal/domain"
	"github.com/avelychko/lexiq/internal/platform/logger"
	"github.com/avelychko/lexiq/internal/store"
)

// reviewRunLength is the number of review items taken before each new item
// when interleaving a Mixed-mode queue.
const reviewRunLength = 5

// Reason explains why a session reached the Completed state.
type Reason string

// Completion reasons.
const (
	// ReasonNone: the session has not completed.
	ReasonNone Reason = ""

	// ReasonFinished: the queue was worked through to the end.
	ReasonFinished Reason = "finished"

	// ReasonStopped: the caller stopped the session before the queue was
	// exhausted.
	ReasonStopped Reason = "stopped"

	// ReasonNothingDue: the policy produced no candidate words at all.
	ReasonNothingDue Reason = "nothing_due"

	// ReasonNoSupportedWords: candidates existed but the build-time filter
	// excluded every one of them (e.g. no playback engine for any word's
	// language).
	ReasonNoSupportedWords Reason = "no_supported_words"
)

// QueueBuilder turns a study policy into an ordered sequence of study items,
// resolving word IDs through the catalog and lazily creating progress rows.
type QueueBuilder struct {
	catalog  store.WordCatalog
	progress store.ProgressStore
	logger   *slog.Logger
	now      func() time.Time
	rng      *rand.Rand
}

// NewQueueBuilder creates a QueueBuilder. If logger is nil, a default logger
// is used.
func NewQueueBuilder(
	catalog store.WordCatalog,
	progress store.ProgressStore,
	logger *slog.Logger,
) *QueueBuilder {
	if catalog == nil {
		panic("catalog cannot be nil")
	}
	if progress == nil {
		panic("progress store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &QueueBuilder{
		catalog:  catalog,
		progress: progress,
		logger:   logger.With(slog.String("component", "queue_builder")),
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Build produces the ordered study queue for the policy.
//
// An empty queue is not an error: the returned Reason tells the caller apart
// whether nothing was due at all, or candidates existed but the build-time
// filter excluded every one of them.
func (b *QueueBuilder) Build(
	ctx context.Context,
	policy Policy,
) ([]*domain.StudyItem, Reason, error) {
	log := logger.FromContextOrDefault(ctx, b.logger)

	if err := policy.Validate(); err != nil {
		return nil, ReasonNone, err
	}

	var dueIDs, newIDs []uuid.UUID
	var err error

	if policy.Mode != ModeNewOnly {
		dueIDs, err = b.catalog.DueWordIDs(ctx, policy.ListID, b.now().UTC(), policy.ReviewLimit)
		if err != nil {
			return nil, ReasonNone, fmt.Errorf("failed to fetch due words: %w", err)
		}
	}

	if policy.Mode != ModeReviewOnly {
		newIDs, err = b.catalog.NewWordIDs(ctx, policy.ListID, policy.NewLimit)
		if err != nil {
			return nil, ReasonNone, fmt.Errorf("failed to fetch new words: %w", err)
		}
	}

	if len(dueIDs) == 0 && len(newIDs) == 0 {
		return nil, ReasonNothingDue, nil
	}

	reviews, reviewsFiltered, err := b.resolve(ctx, dueIDs, false, policy.Filter)
	if err != nil {
		return nil, ReasonNone, err
	}

	news, newsFiltered, err := b.resolve(ctx, newIDs, true, policy.Filter)
	if err != nil {
		return nil, ReasonNone, err
	}

	var items []*domain.StudyItem
	switch policy.Mode {
	case ModeNewOnly:
		items = news
	case ModeReviewOnly:
		items = reviews
	default:
		items = interleave(reviews, news)
	}

	if len(items) == 0 {
		if reviewsFiltered+newsFiltered > 0 {
			return nil, ReasonNoSupportedWords, nil
		}
		return nil, ReasonNothingDue, nil
	}

	if policy.Order == OrderRandom {
		// The whole interleaved sequence is shuffled uniformly; the 5:1
		// cadence established above does not survive a random order.
		b.rng.Shuffle(len(items), func(i, j int) {
			items[i], items[j] = items[j], items[i]
		})
	}

	log.Debug("built study queue",
		slog.String("list_id", policy.ListID.String()),
		slog.String("mode", string(policy.Mode)),
		slog.Int("reviews", len(reviews)),
		slog.Int("new", len(news)),
		slog.Int("total", len(items)))

	return items, ReasonNone, nil
}

// resolve turns word IDs into study items: the word is fetched, the filter
// applied, and the progress row created on first sight. Words that vanished
// between candidate selection and resolution are skipped, not fatal.
func (b *QueueBuilder) resolve(
	ctx context.Context,
	ids []uuid.UUID,
	isNew bool,
	filter ItemFilter,
) ([]*domain.StudyItem, int, error) {
	items := make([]*domain.StudyItem, 0, len(ids))
	filtered := 0

	for _, id := range ids {
		word, err := b.catalog.GetWord(ctx, id)
		if err != nil {
			if store.IsNotFoundError(err) {
				b.logger.Debug("skipping vanished word",
					slog.String("word_id", id.String()))
				continue
			}
			return nil, 0, fmt.Errorf("failed to resolve word %s: %w", id, err)
		}

		if filter != nil && !filter(word) {
			filtered++
			continue
		}

		progress, err := b.progress.GetOrCreate(ctx, id)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load progress for word %s: %w", id, err)
		}

		items = append(items, &domain.StudyItem{
			Word:      word,
			Progress:  progress,
			IsNewWord: isNew,
		})
	}

	return items, filtered, nil
}

// interleave merges review and new items at a 5:1 cadence: up to five review
// items, then one new item, advancing two independent cursors until both
// lists are drained. Once one side runs out the other continues in the same
// cadence, which degenerates into a contiguous tail.
func interleave(reviews, news []*domain.StudyItem) []*domain.StudyItem {
	out := make([]*domain.StudyItem, 0, len(reviews)+len(news))
	ri, ni := 0, 0

	for ri < len(reviews) || ni < len(news) {
		for k := 0; k < reviewRunLength && ri < len(reviews); k++ {
			out = append(out, reviews[ri])
			ri++
		}
		if ni < len(news) {
			out = append(out, news[ni])
			ni++
		}
	}

	return out
}
