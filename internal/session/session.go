// Package session implements the spaced-repetition study engine: building an
// ordered queue of study items from a policy and driving the per-item
// reveal/rate/requeue protocol against the external forgetting-curve
// scheduler. Every intent returns a read-only snapshot of session state, so
// ordering and delivery are caller-visible.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sky-flux/flux"

	"github.com/avelychko/lexiq/internal/domain"
	"github.com/avelychko/lexiq/internal/events"
	"github.com/avelychko/lexiq/internal/platform/logger"
	"github.com/avelychko/lexiq/internal/srs"
	"github.com/avelychko/lexiq/internal/store"
)

// State is the lifecycle state of a session.
type State string

// Session lifecycle states.
const (
	StateLoading   State = "loading"
	StateActive    State = "active"
	StateCompleted State = "completed"
)

// Stage is the per-item sub-state while a session is active.
type Stage string

// Per-item stages. Quiz-style sessions skip StageAwaitingReveal because the
// stimulus and candidate answers are shown together.
const (
	StageAwaitingReveal Stage = "awaiting_reveal"
	StageAwaitingRating Stage = "awaiting_rating"
)

// Stats is the running aggregate exposed in snapshots.
type Stats struct {
	New          int     `json:"new"`
	Review       int     `json:"review"`
	Correct      int     `json:"correct"`
	Incorrect    int     `json:"incorrect"`
	StarredDelta int     `json:"starred_delta"`
	CorrectRate  float64 `json:"correct_rate"`
}

// Snapshot is the read-only view of session state returned from every
// intent. Word points at the current item's word while the session is
// active; callers must not mutate it.
type Snapshot struct {
	SessionID      uuid.UUID          `json:"session_id"`
	Type           domain.SessionType `json:"type"`
	State          State              `json:"state"`
	Stage          Stage              `json:"stage,omitempty"`
	Reason         Reason             `json:"reason,omitempty"`
	Index          int                `json:"index"`
	Total          int                `json:"total"`
	Word           *domain.Word       `json:"word,omitempty"`
	IsNewWord      bool               `json:"is_new_word"`
	IsStarred      bool               `json:"is_starred"`
	Retrievability float64            `json:"retrievability"`
	Stats          Stats              `json:"stats"`
}

// Completed reports whether the session has reached its terminal state.
func (s Snapshot) Completed() bool {
	return s.State == StateCompleted
}

// Session drives one pass through a study queue. It is an explicitly owned
// handle: every intent is called on it and returns the resulting snapshot,
// with no ambient shared state.
//
// Intents are serialized by an internal mutex; only one rating operation is
// ever in flight. The index and queue are the single authority for "current
// item."
type Session struct {
	mu sync.Mutex

	typ       domain.SessionType
	builder   *QueueBuilder
	scheduler srs.Scheduler
	catalog   store.WordCatalog
	progress  store.ProgressStore
	sessions  store.SessionStore
	emitter   events.Emitter
	logger    *slog.Logger
	now       func() time.Time

	record    *domain.Session
	queue     []*domain.StudyItem
	index     int
	state     State
	stage     Stage
	reason    Reason
	finalized bool
}

// New creates a session handle of the given type. The emitter may be nil,
// in which case no events are published. If log is nil, a default logger is
// used.
func New(
	typ domain.SessionType,
	builder *QueueBuilder,
	scheduler srs.Scheduler,
	catalog store.WordCatalog,
	progress store.ProgressStore,
	sessions store.SessionStore,
	emitter events.Emitter,
	log *slog.Logger,
) *Session {
	if builder == nil {
		panic("builder cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if catalog == nil {
		panic("catalog cannot be nil")
	}
	if progress == nil {
		panic("progress store cannot be nil")
	}
	if sessions == nil {
		panic("session store cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Session{
		typ:       typ,
		builder:   builder,
		scheduler: scheduler,
		catalog:   catalog,
		progress:  progress,
		sessions:  sessions,
		emitter:   emitter,
		logger:    log.With(slog.String("component", "session")),
		now:       time.Now,
		state:     StateLoading,
	}
}

// Start builds the study queue for the policy, persists the session row and
// activates the session. A policy that selects an unknown or empty word list
// is rejected; a valid policy that yields no study items completes the
// session immediately with the reason carried in the snapshot.
func (s *Session) Start(ctx context.Context, policy Policy) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logger.FromContextOrDefault(ctx, s.logger)

	if s.state != StateLoading {
		return s.snapshotLocked(), newIntentError("start", "session was already started", ErrAlreadyStarted)
	}

	if err := policy.Validate(); err != nil {
		return s.snapshotLocked(), newIntentError("start", "malformed policy", err)
	}

	if _, err := s.catalog.GetList(ctx, policy.ListID); err != nil {
		if store.IsNotFoundError(err) {
			return s.snapshotLocked(), newIntentError("start", "unknown word list",
				fmt.Errorf("%w: %v", ErrInvalidPolicy, err))
		}
		return s.snapshotLocked(), newIntentError("start", "failed to load word list", err)
	}

	count, err := s.catalog.CountWords(ctx, policy.ListID)
	if err != nil {
		return s.snapshotLocked(), newIntentError("start", "failed to count words", err)
	}
	if count == 0 {
		return s.snapshotLocked(), newIntentError("start", "word list is empty", ErrEmptyWordList)
	}

	record, err := domain.NewSession(s.typ, policy.ListID)
	if err != nil {
		return s.snapshotLocked(), newIntentError("start", "failed to create session", err)
	}

	queue, emptyReason, err := s.builder.Build(ctx, policy)
	if err != nil {
		return s.snapshotLocked(), newIntentError("start", "failed to build queue", err)
	}

	if err := s.sessions.Create(ctx, record); err != nil {
		return s.snapshotLocked(), newIntentError("start", "failed to persist session", err)
	}

	s.record = record
	s.queue = queue
	s.index = 0

	if len(queue) == 0 {
		// Immediate completion with zero aggregate stats; not an error.
		if err := s.completeLocked(ctx, emptyReason); err != nil {
			return s.snapshotLocked(), newIntentError("start", "failed to finalize empty session", err)
		}
		log.Info("session completed immediately",
			slog.String("session_id", record.ID.String()),
			slog.String("reason", string(emptyReason)))
		s.emitLocked(ctx, events.KindSessionCompleted)
		return s.snapshotLocked(), nil
	}

	for _, item := range queue {
		if item.IsNewWord {
			record.NewCount++
		} else {
			record.ReviewCount++
		}
	}

	s.state = StateActive
	s.stage = s.initialStage()

	log.Info("session started",
		slog.String("session_id", record.ID.String()),
		slog.String("type", string(s.typ)),
		slog.Int("queue_length", len(queue)))

	s.emitLocked(ctx, events.KindSessionStarted)
	return s.snapshotLocked(), nil
}

// RevealAnswer moves the current item from awaiting-reveal to
// awaiting-rating. Valid only in flashcard-style session types.
func (s *Session) RevealAnswer(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return s.snapshotLocked(), newIntentError("reveal", "session not active", ErrNotActive)
	}
	if s.typ == domain.SessionTypeQuiz {
		return s.snapshotLocked(), newIntentError("reveal", "quiz items have no hidden answer", ErrRevealNotAllowed)
	}
	if s.stage != StageAwaitingReveal {
		return s.snapshotLocked(), newIntentError("reveal", "item already revealed", ErrAlreadyRevealed)
	}

	s.stage = StageAwaitingRating
	s.emitLocked(ctx, events.KindSessionRevealed)
	return s.snapshotLocked(), nil
}

// Rate applies one rating to the current item: the scheduler computes the
// updated card, the full progress row and a review log entry are persisted,
// counters are updated, and the index advances by exactly one. Rating Again
// re-appends the current item to the queue tail first.
//
// If persistence fails the session does not advance; the caller may retry
// safely because the scheduler call is pure and the progress write is a
// full-row replace.
func (s *Session) Rate(ctx context.Context, rating flux.Rating) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logger.FromContextOrDefault(ctx, s.logger)

	if s.state != StateActive {
		return s.snapshotLocked(), newIntentError("rate", "session not active", ErrNotActive)
	}
	if s.stage != StageAwaitingRating {
		return s.snapshotLocked(), newIntentError("rate", "reveal the answer first", ErrAnswerNotRevealed)
	}
	if !rating.IsValid() {
		return s.snapshotLocked(), newIntentError("rate", "rating out of range", ErrInvalidRating)
	}

	item := s.queue[s.index]
	now := s.now().UTC()

	card := item.Progress.Card()
	updatedCard, schedulerLog := s.scheduler.Review(card, rating, now)

	// Apply to a copy first; in-memory state is only committed after both
	// writes succeed, which keeps a retry starting from the original card.
	updated := *item.Progress
	updated.ApplyReview(updatedCard, rating, now)

	entry, err := domain.NewReviewLogEntry(s.record.ID, item.Word.ID, rating, schedulerLog, now)
	if err != nil {
		return s.snapshotLocked(), newIntentError("rate", "failed to build review log", err)
	}

	if err := s.progress.Update(ctx, &updated); err != nil {
		log.Error("failed to persist progress",
			slog.String("session_id", s.record.ID.String()),
			slog.String("word_id", item.Word.ID.String()),
			slog.String("error", err.Error()))
		return s.snapshotLocked(), newIntentError("rate", "failed to persist progress", err)
	}

	if err := s.sessions.AppendReviewLog(ctx, entry); err != nil {
		log.Error("failed to append review log",
			slog.String("session_id", s.record.ID.String()),
			slog.String("word_id", item.Word.ID.String()),
			slog.String("error", err.Error()))
		return s.snapshotLocked(), newIntentError("rate", "failed to append review log", err)
	}

	*item.Progress = updated

	if srs.IsCorrect(rating) {
		s.record.CorrectCount++
	} else {
		s.record.IncorrectCount++
	}

	if rating == flux.Again {
		// The same item, not a copy: progress mutations stay visible at
		// every queue position it occupies.
		s.queue = append(s.queue, item)
	}

	s.index++
	s.stage = s.initialStage()

	if s.index >= len(s.queue) {
		if err := s.completeLocked(ctx, ReasonFinished); err != nil {
			return s.snapshotLocked(), newIntentError("rate", "failed to finalize session", err)
		}
		log.Info("session completed",
			slog.String("session_id", s.record.ID.String()),
			slog.Int("correct", s.record.CorrectCount),
			slog.Int("incorrect", s.record.IncorrectCount))
		s.emitLocked(ctx, events.KindSessionCompleted)
		return s.snapshotLocked(), nil
	}

	s.emitLocked(ctx, events.KindSessionRated)
	return s.snapshotLocked(), nil
}

// ToggleStar flips the bookmark flag of the current item, in the queue entry
// and in the persisted row. It touches no scheduler fields or counters other
// than the running starred delta, and is independent of rating progression.
func (s *Session) ToggleStar(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return s.snapshotLocked(), newIntentError("toggle_star", "session not active", ErrNotActive)
	}

	item := s.queue[s.index]
	starred := !item.Progress.IsStarred

	if err := s.progress.SetStarred(ctx, item.Word.ID, starred); err != nil {
		return s.snapshotLocked(), newIntentError("toggle_star", "failed to persist star", err)
	}

	item.Progress.IsStarred = starred
	if starred {
		s.record.StarredDelta++
	} else {
		s.record.StarredDelta--
	}

	s.emitLocked(ctx, events.KindSessionStarred)
	return s.snapshotLocked(), nil
}

// Stop ends the session before the queue is exhausted, writing the terminal
// aggregate. Stopping a completed session is a no-op.
func (s *Session) Stop(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateCompleted:
		return s.snapshotLocked(), nil
	case StateLoading:
		return s.snapshotLocked(), newIntentError("stop", "session never started", ErrNotActive)
	}

	if err := s.completeLocked(ctx, ReasonStopped); err != nil {
		return s.snapshotLocked(), newIntentError("stop", "failed to finalize session", err)
	}

	s.emitLocked(ctx, events.KindSessionCompleted)
	return s.snapshotLocked(), nil
}

// Snapshot returns the current read-only view of session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// completeLocked transitions to Completed and writes the terminal aggregate
// exactly once. A failed aggregate write leaves finalization pending so a
// later Stop can retry it. Callers must hold s.mu.
func (s *Session) completeLocked(ctx context.Context, reason Reason) error {
	s.state = StateCompleted
	s.stage = ""
	if s.reason == ReasonNone {
		s.reason = reason
	}

	if s.finalized {
		return nil
	}

	if err := s.record.Finish(s.now()); err != nil {
		if !errors.Is(err, domain.ErrSessionAlreadyFinished) {
			return err
		}
	}

	if err := s.sessions.Finish(ctx, s.record); err != nil {
		if errors.Is(err, store.ErrSessionFinished) {
			// The aggregate is already durable; nothing left to write.
			s.finalized = true
			return nil
		}
		return err
	}

	s.finalized = true
	return nil
}

// emitLocked publishes the current snapshot under the given event kind.
// Event delivery is best-effort; failures are logged, never surfaced.
// Callers must hold s.mu.
func (s *Session) emitLocked(ctx context.Context, kind string) {
	if s.emitter == nil || s.record == nil {
		return
	}

	event, err := events.NewSessionEvent(s.record.ID, kind, s.snapshotLocked())
	if err != nil {
		s.logger.Error("failed to build session event",
			slog.String("kind", kind),
			slog.String("error", err.Error()))
		return
	}

	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Warn("session event delivery failed",
			slog.String("kind", kind),
			slog.String("error", err.Error()))
	}
}

// initialStage returns the stage a fresh item starts in for this session
// type.
func (s *Session) initialStage() Stage {
	if s.typ == domain.SessionTypeQuiz {
		return StageAwaitingRating
	}
	return StageAwaitingReveal
}

// snapshotLocked builds the read-only state view. Callers must hold s.mu.
func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Type:   s.typ,
		State:  s.state,
		Stage:  s.stage,
		Reason: s.reason,
		Index:  s.index,
		Total:  len(s.queue),
	}

	if s.record != nil {
		snap.SessionID = s.record.ID
		snap.Stats = Stats{
			New:          s.record.NewCount,
			Review:       s.record.ReviewCount,
			Correct:      s.record.CorrectCount,
			Incorrect:    s.record.IncorrectCount,
			StarredDelta: s.record.StarredDelta,
			CorrectRate:  s.record.CorrectRate(),
		}
	}

	if s.state == StateActive && s.index < len(s.queue) {
		item := s.queue[s.index]
		snap.Word = item.Word
		snap.IsNewWord = item.IsNewWord
		snap.IsStarred = item.Progress.IsStarred
		snap.Retrievability = s.scheduler.Retrievability(item.Progress.Card(), s.now().UTC())
	}

	return snap
}
