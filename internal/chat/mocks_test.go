package chat

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lukose-dev/pawstream/internal/gateway"
	"github.com/lukose-dev/pawstream/internal/models"
)

// ===========================================================================
// Manual mocks (func fields, with counters for the calls the tests assert on)
// ===========================================================================

type mockStore struct {
	listMessagesCalls      atomic.Int64
	listConversationsCalls atomic.Int64

	ListMessagesFunc              func(ctx context.Context, conversationID uuid.UUID, offset, limit int) ([]models.Message, error)
	CreateMessageFunc             func(ctx context.Context, params gateway.CreateMessageParams) (*models.Message, error)
	ListActiveParticipantsFunc    func(ctx context.Context, conversationID uuid.UUID) ([]models.Participant, error)
	ListConversationsFunc         func(ctx context.Context, viewerID uuid.UUID) ([]models.Conversation, error)
	EnsurePrivateConversationFunc func(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error)
	CreateConversationFunc        func(ctx context.Context, params gateway.CreateConversationParams) (*models.Conversation, error)
	JoinConversationFunc          func(ctx context.Context, conversationID, userID uuid.UUID) error
	MarkReadFunc                  func(ctx context.Context, conversationID, userID uuid.UUID) error
	UpsertPresenceFunc            func(ctx context.Context, presence models.Presence) error
}

func (m *mockStore) ListMessages(ctx context.Context, conversationID uuid.UUID, offset, limit int) ([]models.Message, error) {
	m.listMessagesCalls.Add(1)
	if m.ListMessagesFunc != nil {
		return m.ListMessagesFunc(ctx, conversationID, offset, limit)
	}
	return []models.Message{}, nil
}

func (m *mockStore) CreateMessage(ctx context.Context, params gateway.CreateMessageParams) (*models.Message, error) {
	if m.CreateMessageFunc != nil {
		return m.CreateMessageFunc(ctx, params)
	}
	return &models.Message{
		ID:             1,
		ConversationID: params.ConversationID,
		SenderID:       params.SenderID,
		Content:        params.Content,
		MessageType:    models.MessageText,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}, nil
}

func (m *mockStore) ListActiveParticipants(ctx context.Context, conversationID uuid.UUID) ([]models.Participant, error) {
	if m.ListActiveParticipantsFunc != nil {
		return m.ListActiveParticipantsFunc(ctx, conversationID)
	}
	return []models.Participant{}, nil
}

func (m *mockStore) ListConversations(ctx context.Context, viewerID uuid.UUID) ([]models.Conversation, error) {
	m.listConversationsCalls.Add(1)
	if m.ListConversationsFunc != nil {
		return m.ListConversationsFunc(ctx, viewerID)
	}
	return []models.Conversation{}, nil
}

func (m *mockStore) EnsurePrivateConversation(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error) {
	if m.EnsurePrivateConversationFunc != nil {
		return m.EnsurePrivateConversationFunc(ctx, a, b)
	}
	return &models.Conversation{ID: uuid.New(), Type: models.ConversationPrivate}, nil
}

func (m *mockStore) CreateConversation(ctx context.Context, params gateway.CreateConversationParams) (*models.Conversation, error) {
	if m.CreateConversationFunc != nil {
		return m.CreateConversationFunc(ctx, params)
	}
	return &models.Conversation{ID: uuid.New(), Type: params.Type}, nil
}

func (m *mockStore) JoinConversation(ctx context.Context, conversationID, userID uuid.UUID) error {
	if m.JoinConversationFunc != nil {
		return m.JoinConversationFunc(ctx, conversationID, userID)
	}
	return nil
}

func (m *mockStore) MarkRead(ctx context.Context, conversationID, userID uuid.UUID) error {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, conversationID, userID)
	}
	return nil
}

func (m *mockStore) UpsertPresence(ctx context.Context, presence models.Presence) error {
	if m.UpsertPresenceFunc != nil {
		return m.UpsertPresenceFunc(ctx, presence)
	}
	return nil
}

type mockNotifier struct {
	NotifyFunc func(ctx context.Context, recipients []uuid.UUID, payload gateway.NotifyPayload) error
}

func (m *mockNotifier) Notify(ctx context.Context, recipients []uuid.UUID, payload gateway.NotifyPayload) error {
	if m.NotifyFunc != nil {
		return m.NotifyFunc(ctx, recipients, payload)
	}
	return nil
}

type mockFeed struct {
	mu      sync.Mutex
	handler gateway.Handler
	closed  bool
}

func (m *mockFeed) Subscribe(ctx context.Context, handler gateway.Handler) (gateway.Subscription, error) {
	m.mu.Lock()
	m.handler = handler
	m.mu.Unlock()
	return m, nil
}

func (m *mockFeed) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// ===========================================================================
// Fixture helpers
// ===========================================================================

func message(id int64, conversationID uuid.UUID, createdAt time.Time, content string) models.Message {
	return models.Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       uuid.New(),
		Content:        content,
		MessageType:    models.MessageText,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}
}

func contents(messages []models.Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.Content)
	}
	return out
}

func (s *Sender) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
