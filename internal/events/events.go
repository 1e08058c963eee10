// Package events provides a minimal in-process event channel between the
// session engine and a presentation layer. Timer-driven transitions in the
// audio sequencer happen without any user intent, so a caller that only sees
// intent return values would miss them; subscribing a handler makes every
// transition observable and the delivery order caller-visible.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Session event kinds emitted by the engine.
const (
	KindSessionStarted   = "session.started"
	KindSessionRevealed  = "session.revealed"
	KindSessionRated     = "session.rated"
	KindSessionStarred   = "session.starred"
	KindSessionCompleted = "session.completed"
	KindPlaybackPhase    = "audio.phase"
	KindAutoRevealed     = "audio.auto_revealed"
	KindAutoRated        = "audio.auto_rated"
)

// SessionEvent carries one session state transition. Payload holds the
// post-transition snapshot serialized as JSON, so handlers have no
// compile-time dependency on the session package.
type SessionEvent struct {
	// ID is a unique identifier for this event.
	ID uuid.UUID `json:"id"`

	// SessionID identifies the session the transition happened in.
	SessionID uuid.UUID `json:"session_id"`

	// Kind is one of the Kind* constants above.
	Kind string `json:"kind"`

	// Payload is the serialized post-transition session snapshot.
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created.
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *SessionEvent) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewSessionEvent creates a SessionEvent of the given kind, serializing the
// snapshot as the payload.
func NewSessionEvent(sessionID uuid.UUID, kind string, snapshot any) (*SessionEvent, error) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}

	return &SessionEvent{
		ID:        uuid.New(),
		SessionID: sessionID,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Handler processes session events. Handlers must be fast or hand off
// internally; they are invoked synchronously on the emitting goroutine.
type Handler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *SessionEvent) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, event *SessionEvent) error

// HandleEvent implements Handler.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *SessionEvent) error {
	return f(ctx, event)
}

// Emitter publishes session events to registered handlers.
type Emitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *SessionEvent) error
}
