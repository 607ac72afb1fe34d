package gateway

import (
	"context"

	"github.com/google/uuid"
)

// EventType classifies change-feed events. Exactly one typed dispatcher (the
// chat.Listener) consumes these, so the fallback-vs-push race is resolved in
// one auditable place instead of scattered per-event closures.
type EventType string

const (
	// EventConversationChanged covers any insert/update/delete on
	// conversations or participants. The listener reacts coarsely: reload
	// the whole directory. Lists are small and a refresh is cheap, so no
	// incremental patching.
	EventConversationChanged EventType = "conversation_changed"

	// EventMessageInserted is a new message row. Carries the message id so
	// a sender's pending fallback timer can be cancelled.
	EventMessageInserted EventType = "message_inserted"

	// EventMessageUpdated is an edit or soft delete of an existing message.
	EventMessageUpdated EventType = "message_updated"

	// EventResubscribed is synthesized locally by a Feed implementation
	// after it drops and re-establishes its channel. Anything pushed during
	// the outage is gone — the feed is not a durable log — so the listener
	// must fully reload the window and the directory on this event.
	EventResubscribed EventType = "resubscribed"
)

// Event is one change-feed notification. ConversationID and MessageID are
// zero-valued when the event type doesn't carry them (EventResubscribed
// carries neither).
type Event struct {
	Type           EventType `json:"type"`
	ConversationID uuid.UUID `json:"conversation_id,omitempty"`
	MessageID      int64     `json:"message_id,omitempty"`
	SenderID       uuid.UUID `json:"sender_id,omitempty"`
}

// Handler consumes feed events. Implementations are called from the feed's
// own goroutine and must not block for long.
type Handler func(Event)

// Feed is the server-to-client push channel.
type Feed interface {
	// Subscribe starts delivering events to handler until the subscription
	// is closed or ctx is cancelled. The feed owns reconnection: after an
	// outage it re-establishes itself and delivers EventResubscribed.
	Subscribe(ctx context.Context, handler Handler) (Subscription, error)
}

type Subscription interface {
	Close() error
}

// Publisher is the write side of the feed, used by the store (and the feed
// bridge) to emit events after successful writes.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
