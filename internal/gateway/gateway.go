// Package gateway defines the contracts the sync core uses to reach the
// remote store, the change feed, and the outbound notification service.
//
// The core only ever sees these interfaces. In production they are backed by
// Postgres and Redis (see the postgres, redisfeed, and wsfeed subpackages);
// in tests they are func-field mocks.
package gateway

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lukose-dev/pawstream/internal/models"
)

// ErrNotJoinable is returned by Store.JoinConversation when the target is
// not a discoverable group — private conversations exist for exactly their
// pair, and a missing conversation is not joinable either.
var ErrNotJoinable = errors.New("conversation is not joinable")

// Why context.Context as the first parameter on every method?
//   - Everything here does I/O. Context carries deadlines and cancellation:
//     when the user navigates away, the in-flight query stops too.

// CreateConversationParams describes a new group conversation.
// Private conversations never go through this path — they use
// EnsurePrivateConversation so pair uniqueness is enforced server-side.
type CreateConversationParams struct {
	Type         models.ConversationType
	Title        string
	Description  string
	SubjectRef   *uuid.UUID
	CreatedBy    uuid.UUID
	Participants []uuid.UUID // extra members beyond the creator
}

// CreateMessageParams describes a message insert. The message id and
// timestamps are absent on purpose: the server assigns them, and
// CreateMessage must return them before the call completes.
type CreateMessageParams struct {
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Content        string
	MessageType    models.MessageType
	ImageRef       string
	ReplyToID      *int64
}

// Store is the row-level CRUD surface of the remote store.
type Store interface {
	// ListConversations returns the viewer's conversations, most recently
	// active first, with preview and per-viewer unread count filled in.
	// Returns empty slice (not nil) so JSON serializes to [] not null.
	ListConversations(ctx context.Context, viewerID uuid.UUID) ([]models.Conversation, error)

	// EnsurePrivateConversation returns the unique private conversation for
	// the unordered pair {a, b}, creating it if absent. The look-up-or-create
	// is a single server-side idempotent operation: two concurrent calls for
	// the same pair must return the same conversation.
	EnsurePrivateConversation(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error)

	// CreateConversation inserts a group conversation, its creator as an
	// admin participant, and any extra participants as members.
	CreateConversation(ctx context.Context, params CreateConversationParams) (*models.Conversation, error)

	// JoinConversation adds the user as an active member. Idempotent:
	// joining a conversation you are already in is a no-op success. Only
	// group types are joinable; a private or unknown target returns
	// ErrNotJoinable.
	JoinConversation(ctx context.Context, conversationID, userID uuid.UUID) error

	// MarkRead advances the participant's lastReadAt to now. It never moves
	// the timestamp backward, so repeated calls are harmless.
	MarkRead(ctx context.Context, conversationID, userID uuid.UUID) error

	// ListMessages returns one page of non-deleted messages for the
	// conversation, newest first, offset/limit addressed. offset 0 is the
	// latest page; larger offsets walk backward in history.
	ListMessages(ctx context.Context, conversationID uuid.UUID, offset, limit int) ([]models.Message, error)

	// CreateMessage persists a message and returns it with the
	// server-assigned ID and CreatedAt populated.
	CreateMessage(ctx context.Context, params CreateMessageParams) (*models.Message, error)

	// ListActiveParticipants returns the active participants of a
	// conversation (used to pick notification recipients).
	ListActiveParticipants(ctx context.Context, conversationID uuid.UUID) ([]models.Participant, error)

	// UpsertPresence records best-effort presence for a user.
	UpsertPresence(ctx context.Context, presence models.Presence) error
}

// UserStore is the small account surface the feed bridge's login needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Notifier delivers out-of-band "new message" pings to other participants.
// Fire-and-forget from the core's perspective: a failure here must never
// fail or delay a send.
type Notifier interface {
	Notify(ctx context.Context, recipients []uuid.UUID, payload NotifyPayload) error
}

type NotifyPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	MessageID      int64     `json:"message_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Preview        string    `json:"preview"`
}
