package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/lukose-dev/pawstream/internal/gateway"
	"github.com/lukose-dev/pawstream/internal/models"
	"github.com/lukose-dev/pawstream/internal/session"
	"go.uber.org/zap"
)

// DirectoryStore is the slice of the gateway the directory needs.
type DirectoryStore interface {
	ListConversations(ctx context.Context, viewerID uuid.UUID) ([]models.Conversation, error)
	EnsurePrivateConversation(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error)
	CreateConversation(ctx context.Context, params gateway.CreateConversationParams) (*models.Conversation, error)
	JoinConversation(ctx context.Context, conversationID, userID uuid.UUID) error
	MarkRead(ctx context.Context, conversationID, userID uuid.UUID) error
}

// Directory holds the signed-in user's conversation list, most recently
// active first, enriched with previews and unread counts.
type Directory struct {
	store  DirectoryStore
	sess   *session.Session
	logger *zap.Logger

	mu            sync.RWMutex
	conversations []models.Conversation
}

func NewDirectory(store DirectoryStore, sess *session.Session, logger *zap.Logger) *Directory {
	return &Directory{store: store, sess: sess, logger: logger}
}

// List returns the last successfully loaded conversation list. It may be
// stale; it is never torn.
func (d *Directory) List() []models.Conversation {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.conversations
}

// Refresh reloads the full list. Coarse-grained on purpose: conversation
// lists are small and a reload is cheap, so the directory never patches
// entries incrementally. On failure the previous list stays in place.
func (d *Directory) Refresh(ctx context.Context) error {
	viewerID, ok := d.sess.CurrentUserID()
	if !ok {
		return ErrNotAuthenticated
	}

	conversations, err := d.store.ListConversations(ctx, viewerID)
	if err != nil {
		return fmt.Errorf("%w: list conversations: %v", ErrReadFailed, err)
	}

	d.mu.Lock()
	d.conversations = conversations
	d.mu.Unlock()
	return nil
}

// CreatePrivate returns the id of the unique private conversation between
// the current user and otherUser, creating it if needed. Idempotent under
// concurrency: the store resolves the pair server-side, so two racing calls
// return the same id.
func (d *Directory) CreatePrivate(ctx context.Context, otherUser uuid.UUID) (uuid.UUID, error) {
	userID, ok := d.sess.CurrentUserID()
	if !ok {
		return uuid.Nil, ErrNotAuthenticated
	}

	conversation, err := d.store.EnsurePrivateConversation(ctx, userID, otherUser)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: ensure private conversation: %v", ErrWriteFailed, err)
	}

	d.refreshAfterMutation(ctx)
	return conversation.ID, nil
}

// CreateParams describes a new group conversation from the caller's side;
// the creator is implied by the session.
type CreateParams struct {
	Type         models.ConversationType
	Title        string
	Description  string
	SubjectRef   *uuid.UUID
	Participants []uuid.UUID
}

// Create makes a dog_discussion or location_group conversation with the
// current user as admin and any listed participants as members.
func (d *Directory) Create(ctx context.Context, params CreateParams) (uuid.UUID, error) {
	userID, ok := d.sess.CurrentUserID()
	if !ok {
		return uuid.Nil, ErrNotAuthenticated
	}
	if !params.Type.IsGroup() {
		return uuid.Nil, fmt.Errorf("%w: type %q is not a group type", ErrWriteFailed, params.Type)
	}

	conversation, err := d.store.CreateConversation(ctx, gateway.CreateConversationParams{
		Type:         params.Type,
		Title:        params.Title,
		Description:  params.Description,
		SubjectRef:   params.SubjectRef,
		CreatedBy:    userID,
		Participants: params.Participants,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: create conversation: %v", ErrWriteFailed, err)
	}

	d.refreshAfterMutation(ctx)
	return conversation.ID, nil
}

// Join adds the current user to a discoverable group conversation.
// Joining twice is a no-op success. Private conversations are never
// joinable; the store reports that as gateway.ErrNotJoinable, which stays
// in the chain so callers can tell it from a transient write failure.
func (d *Directory) Join(ctx context.Context, conversationID uuid.UUID) error {
	userID, ok := d.sess.CurrentUserID()
	if !ok {
		return ErrNotAuthenticated
	}

	if err := d.store.JoinConversation(ctx, conversationID, userID); err != nil {
		if errors.Is(err, gateway.ErrNotJoinable) {
			return fmt.Errorf("join conversation: %w", err)
		}
		return fmt.Errorf("%w: join conversation: %v", ErrWriteFailed, err)
	}

	d.refreshAfterMutation(ctx)
	return nil
}

// MarkRead advances the current user's read marker for a conversation.
// Idempotent; exposed for the UI to call when a conversation is opened.
func (d *Directory) MarkRead(ctx context.Context, conversationID uuid.UUID) error {
	userID, ok := d.sess.CurrentUserID()
	if !ok {
		return ErrNotAuthenticated
	}

	if err := d.store.MarkRead(ctx, conversationID, userID); err != nil {
		return fmt.Errorf("%w: mark read: %v", ErrWriteFailed, err)
	}
	return nil
}

// refreshAfterMutation makes a successful create/join visible immediately
// instead of waiting for the push event. The mutation already succeeded, so
// a refresh failure is logged, not surfaced.
func (d *Directory) refreshAfterMutation(ctx context.Context) {
	if err := d.Refresh(ctx); err != nil {
		d.logger.Warn("directory refresh after mutation failed", zap.Error(err))
	}
}
