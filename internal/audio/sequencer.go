// Package audio implements the audio-review variant of the study session:
// the same queue and rating machinery as package session, plus phase-
// sequenced speech playback and an optional timer-driven auto mode for
// hands-free review.
//
// Ratings are binary here (correct/incorrect) and map onto the scheduler's
// four-level scale as Good/Again.
package audio

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sky-flux/flux"

	"github.com/avelychko/lexiq/internal/domain"
	"github.com/avelychko/lexiq/internal/events"
	"github.com/avelychko/lexiq/internal/session"
)

// Phase is the playback sub-state of the current item.
type Phase string

// Playback phases. The sequence for each item is
// Idle → PlayingWord → (fixed pause) → PlayingSentence (if an example
// exists) → Idle, triggered whenever the item changes or is replayed.
const (
	PhaseIdle            Phase = "idle"
	PhasePlayingWord     Phase = "playing_word"
	PhasePlayingSentence Phase = "playing_sentence"
)

// Config carries the sequencer's timing and autonomy settings.
type Config struct {
	// Auto enables timer-driven review: the answer is revealed a fixed
	// delay after playback idles, and the item is auto-rated correct a
	// further delay after the reveal.
	Auto bool

	// RevealDelay is the auto-reveal delay measured from playback idling.
	RevealDelay time.Duration

	// RateDelay is the auto-rate delay measured from the reveal.
	RateDelay time.Duration

	// WordSentencePause is the fixed pause between the word and its
	// example sentence.
	WordSentencePause time.Duration
}

// DefaultConfig returns the sequencer timing defaults.
func DefaultConfig() Config {
	return Config{
		RevealDelay:       3 * time.Second,
		RateDelay:         2 * time.Second,
		WordSentencePause: 800 * time.Millisecond,
	}
}

// Sequencer drives an audio review session. It owns its timers: every
// pending timer is cancelled on manual reveal or rate, explicit stop, item
// change and replay, so a stale callback can never mutate a superseded item.
type Sequencer struct {
	mu sync.Mutex

	inner   *session.Session
	speaker Speaker
	cfg     Config
	emitter events.Emitter
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	phase Phase

	// gen is bumped on every transition that supersedes pending timers or
	// in-flight playback. Callbacks capture the gen they were scheduled
	// under and become no-ops when it has moved on.
	gen         int
	revealTimer *time.Timer
	rateTimer   *time.Timer
}

// NewSequencer creates an audio sequencer over the given session handle.
// The session must be of type domain.SessionTypeAudio and not yet started.
// The emitter may be nil. If log is nil, a default logger is used.
func NewSequencer(
	inner *session.Session,
	speaker Speaker,
	cfg Config,
	emitter events.Emitter,
	log *slog.Logger,
) *Sequencer {
	if inner == nil {
		panic("session cannot be nil")
	}
	if speaker == nil {
		panic("speaker cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	if cfg.RevealDelay <= 0 {
		cfg.RevealDelay = DefaultConfig().RevealDelay
	}
	if cfg.RateDelay <= 0 {
		cfg.RateDelay = DefaultConfig().RateDelay
	}
	if cfg.WordSentencePause <= 0 {
		cfg.WordSentencePause = DefaultConfig().WordSentencePause
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Sequencer{
		inner:   inner,
		speaker: speaker,
		cfg:     cfg,
		emitter: emitter,
		logger:  log.With(slog.String("component", "audio_sequencer")),
		ctx:     ctx,
		cancel:  cancel,
		phase:   PhaseIdle,
	}
}

// Start builds the queue and begins playback of the first item. Words whose
// language has no playback voice are excluded from the queue at build time;
// when that filtering empties a non-empty candidate set, the snapshot
// carries the distinct no-supported-words completion reason.
func (s *Sequencer) Start(ctx context.Context, policy session.Policy) (session.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	policy.Filter = func(word *domain.Word) bool {
		return s.speaker.SupportsLanguage(word.LanguageCode)
	}

	snap, err := s.inner.Start(ctx, policy)
	if err != nil || snap.Completed() {
		return snap, err
	}

	s.startItemLocked(snap)
	return snap, nil
}

// RevealAnswer reveals the current item manually. Any pending auto-reveal
// timer is cancelled first; in auto mode the auto-rate timer is scheduled
// from the reveal.
func (s *Sequencer) RevealAnswer(ctx context.Context) (session.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimersLocked()

	snap, err := s.inner.RevealAnswer(ctx)
	if err != nil {
		return snap, err
	}

	if s.cfg.Auto {
		s.scheduleRateLocked(s.gen)
	}
	return snap, nil
}

// Rate rates the current item with the binary audio-review verdict and
// advances to the next item, restarting playback for it. All pending timers
// are cancelled.
func (s *Sequencer) Rate(ctx context.Context, correct bool) (session.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rateLocked(ctx, correct)
}

// ToggleStar flips the bookmark flag of the current item. Playback and
// timers are unaffected.
func (s *Sequencer) ToggleStar(ctx context.Context) (session.Snapshot, error) {
	return s.inner.ToggleStar(ctx)
}

// Replay restarts the playback phase sequence for the current item. Pending
// timers are cancelled; in auto mode the reveal timer is rescheduled once
// the new playback idles.
func (s *Sequencer) Replay(ctx context.Context) (session.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.inner.Snapshot()
	if snap.State != session.StateActive {
		return snap, session.ErrNotActive
	}

	s.speaker.Stop()
	s.startItemLocked(snap)
	return snap, nil
}

// Stop ends the session: timers cancelled, playback interrupted, terminal
// aggregate written. Stopping twice is a no-op.
func (s *Sequencer) Stop(ctx context.Context) (session.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTimersLocked()
	s.gen++
	s.cancel()
	s.speaker.Stop()
	s.phase = PhaseIdle

	return s.inner.Stop(ctx)
}

// Snapshot returns the inner session snapshot.
func (s *Sequencer) Snapshot() session.Snapshot {
	return s.inner.Snapshot()
}

// Phase returns the current playback phase.
func (s *Sequencer) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// rateLocked maps the verdict, cancels timers, rates through the inner
// session and starts playback for the next item. Callers must hold s.mu.
func (s *Sequencer) rateLocked(ctx context.Context, correct bool) (session.Snapshot, error) {
	s.cancelTimersLocked()

	snap, err := s.inner.Rate(ctx, ratingFor(correct))
	if err != nil {
		return snap, err
	}

	if snap.Completed() {
		s.gen++
		s.speaker.Stop()
		s.phase = PhaseIdle
		return snap, nil
	}

	s.startItemLocked(snap)
	return snap, nil
}

// startItemLocked begins the playback sequence for the item in snap,
// superseding any earlier playback or timers. Callers must hold s.mu.
func (s *Sequencer) startItemLocked(snap session.Snapshot) {
	s.cancelTimersLocked()
	s.gen++
	gen := s.gen

	word := snap.Word
	if word == nil {
		return
	}

	go s.playback(gen, word)
}

// playback runs the phase sequence for one item on its own goroutine,
// checking at every boundary that it has not been superseded.
func (s *Sequencer) playback(gen int, word *domain.Word) {
	if !s.enterPhase(gen, PhasePlayingWord) {
		return
	}
	s.speak(word.Term, word.LanguageCode)

	if s.stale(gen) {
		return
	}
	time.Sleep(s.cfg.WordSentencePause)

	if word.HasExample() {
		if !s.enterPhase(gen, PhasePlayingSentence) {
			return
		}
		s.speak(word.Example, word.LanguageCode)
	}

	if !s.enterPhase(gen, PhaseIdle) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || !s.cfg.Auto {
		return
	}
	if s.inner.Snapshot().Stage == session.StageAwaitingReveal {
		s.scheduleRevealLocked(gen)
	}
}

// speak plays one utterance, logging playback failures as notices. A word
// that cannot be spoken still flows through the session.
func (s *Sequencer) speak(text, languageCode string) {
	if err := s.speaker.Speak(s.ctx, text, languageCode); err != nil {
		s.logger.Warn("playback failed",
			slog.String("language", languageCode),
			slog.String("error", err.Error()))
	}
}

// scheduleRevealLocked arms the auto-reveal timer. Callers must hold s.mu.
func (s *Sequencer) scheduleRevealLocked(gen int) {
	s.revealTimer = time.AfterFunc(s.cfg.RevealDelay, func() {
		s.autoReveal(gen)
	})
}

// scheduleRateLocked arms the auto-rate timer. Callers must hold s.mu.
func (s *Sequencer) scheduleRateLocked(gen int) {
	s.rateTimer = time.AfterFunc(s.cfg.RateDelay, func() {
		s.autoRate(gen)
	})
}

// autoReveal is the auto-reveal timer callback.
func (s *Sequencer) autoReveal(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		// Superseded by a manual interaction or item change after the
		// timer fired but before it acquired the lock.
		return
	}

	snap, err := s.inner.RevealAnswer(s.ctx)
	if err != nil {
		// A manual reveal that won the race leaves the item revealed;
		// nothing to do.
		s.logger.Debug("auto reveal skipped", slog.String("error", err.Error()))
		return
	}

	s.emitPhaseEvent(events.KindAutoRevealed, snap)
	s.scheduleRateLocked(gen)
}

// autoRate is the auto-rate timer callback. Autonomous review counts an
// unanswered item as correct.
func (s *Sequencer) autoRate(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return
	}

	snap, err := s.rateLocked(s.ctx, true)
	if err != nil {
		s.logger.Warn("auto rate failed", slog.String("error", err.Error()))
		return
	}

	s.emitPhaseEvent(events.KindAutoRated, snap)
}

// cancelTimersLocked stops any pending auto timers. Callers must hold s.mu.
// Timers whose callback already fired are neutralized by the gen check.
func (s *Sequencer) cancelTimersLocked() {
	if s.revealTimer != nil {
		s.revealTimer.Stop()
		s.revealTimer = nil
	}
	if s.rateTimer != nil {
		s.rateTimer.Stop()
		s.rateTimer = nil
	}
}

// enterPhase publishes a playback phase transition if the playback
// generation is still current. Returns false when superseded.
func (s *Sequencer) enterPhase(gen int, phase Phase) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return false
	}

	s.phase = phase
	s.emitPhaseEvent(events.KindPlaybackPhase, s.inner.Snapshot())
	return true
}

// stale reports whether the playback generation has been superseded.
func (s *Sequencer) stale(gen int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen != s.gen
}

// emitPhaseEvent publishes a sequencer event, best-effort. Callers must
// hold s.mu.
func (s *Sequencer) emitPhaseEvent(kind string, snap session.Snapshot) {
	if s.emitter == nil {
		return
	}

	payload := struct {
		Phase    Phase            `json:"phase"`
		Snapshot session.Snapshot `json:"snapshot"`
	}{Phase: s.phase, Snapshot: snap}

	event, err := events.NewSessionEvent(snap.SessionID, kind, payload)
	if err != nil {
		s.logger.Error("failed to build sequencer event",
			slog.String("kind", kind),
			slog.String("error", err.Error()))
		return
	}

	if err := s.emitter.EmitEvent(s.ctx, event); err != nil {
		s.logger.Warn("sequencer event delivery failed",
			slog.String("kind", kind),
			slog.String("error", err.Error()))
	}
}

// ratingFor maps the binary audio verdict onto the scheduler's scale.
func ratingFor(correct bool) flux.Rating {
	if correct {
		return flux.Good
	}
	return flux.Again
}
