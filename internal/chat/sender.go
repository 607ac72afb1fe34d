package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lukose-dev/pawstream/internal/gateway"
	"github.com/lukose-dev/pawstream/internal/models"
	"github.com/lukose-dev/pawstream/internal/session"
	"go.uber.org/zap"
)

// DefaultFallbackDelay bounds how long a sender trusts the push channel to
// surface its own insert before refreshing the window itself. Tunable via
// config; too aggressive a value double-refreshes on slow networks.
const DefaultFallbackDelay = 150 * time.Millisecond

// SendStore is the slice of the gateway the sender needs.
type SendStore interface {
	CreateMessage(ctx context.Context, params gateway.CreateMessageParams) (*models.Message, error)
	ListActiveParticipants(ctx context.Context, conversationID uuid.UUID) ([]models.Participant, error)
}

// SendParams is a message as composed by the user. No id, no timestamp —
// the server assigns both.
type SendParams struct {
	ConversationID uuid.UUID
	Content        string
	MessageType    models.MessageType
	ImageRef       string
	ReplyToID      *int64
}

// Sender executes message sends and resolves the race between the push
// channel and its own fallback refresh.
//
// After a successful write the new message should appear in the window via
// whichever path arrives first: the push insert event (preferred — it also
// refreshes the directory preview in the same pass) or a short fallback
// timer (a correctness net for push outages, not the primary path). The
// race is cancel-on-first-observed: pending maps message id → timer, and
// whichever side takes the entry out performs the refresh; the loser finds
// the entry gone and does nothing. Taking is the only removal, so a timer
// firing after cancellation is a harmless no-op, never a double refresh.
type Sender struct {
	store         SendStore
	window        *Window
	notifier      gateway.Notifier
	sess          *session.Session
	logger        *zap.Logger
	fallbackDelay time.Duration

	mu      sync.Mutex
	pending map[int64]*time.Timer
}

func NewSender(store SendStore, window *Window, notifier gateway.Notifier, sess *session.Session, fallbackDelay time.Duration, logger *zap.Logger) *Sender {
	if fallbackDelay <= 0 {
		fallbackDelay = DefaultFallbackDelay
	}
	return &Sender{
		store:         store,
		window:        window,
		notifier:      notifier,
		sess:          sess,
		logger:        logger,
		fallbackDelay: fallbackDelay,
		pending:       make(map[int64]*time.Timer),
	}
}

// Send writes the message through the gateway. A nil return means the write
// itself succeeded — visibility in the window and out-of-band notification
// are handled asynchronously and never affect the result. On any error the
// caller must leave the composer content intact so the user can retry
// without retyping.
func (s *Sender) Send(ctx context.Context, params SendParams) error {
	senderID, ok := s.sess.CurrentUserID()
	if !ok {
		return ErrNotAuthenticated
	}

	msg, err := s.store.CreateMessage(ctx, gateway.CreateMessageParams{
		ConversationID: params.ConversationID,
		SenderID:       senderID,
		Content:        params.Content,
		MessageType:    params.MessageType,
		ImageRef:       params.ImageRef,
		ReplyToID:      params.ReplyToID,
	})
	if err != nil {
		return fmt.Errorf("%w: create message: %v", ErrWriteFailed, err)
	}

	// The fallback only matters when the user is looking at the target
	// conversation; for any other conversation the directory refresh from
	// the push path (or the next manual refresh) is enough.
	if s.window.ActiveConversation() == msg.ConversationID {
		s.armFallback(msg)
	}

	go s.notifyParticipants(msg)

	return nil
}

// armFallback schedules the bounded refresh for a just-sent message.
func (s *Sender) armFallback(msg *models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending[msg.ID] = time.AfterFunc(s.fallbackDelay, func() {
		if !s.take(msg.ID) {
			// The push event won the race and already refreshed.
			return
		}
		s.logger.Debug("push channel silent, fallback refresh",
			zap.Int64("message_id", msg.ID),
		)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.window.Load(ctx, msg.ConversationID, 0, DefaultPageSize); err != nil {
			s.logger.Warn("fallback window refresh failed", zap.Error(err))
		}
	})
}

// CancelFallback is called by the change-feed listener when it observes the
// insert event for a message id. Reports whether a fallback was pending;
// cancelling an id with no pending timer is a no-op.
func (s *Sender) CancelFallback(messageID int64) bool {
	s.mu.Lock()
	timer, ok := s.pending[messageID]
	if ok {
		delete(s.pending, messageID)
	}
	s.mu.Unlock()

	if ok {
		timer.Stop()
	}
	return ok
}

// take removes the pending entry for id, returning false if someone else
// (the push path, or an earlier firing) already did. The map entry is
// removed exactly once; only the remover acts.
func (s *Sender) take(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[id]; !ok {
		return false
	}
	delete(s.pending, id)
	return true
}

// notifyParticipants pings the other active participants out-of-band.
// Fire-and-forget: failures are logged and swallowed, never surfaced as a
// send failure.
func (s *Sender) notifyParticipants(msg *models.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	participants, err := s.store.ListActiveParticipants(ctx, msg.ConversationID)
	if err != nil {
		s.logger.Warn("list participants for notification failed", zap.Error(err))
		return
	}

	recipients := make([]uuid.UUID, 0, len(participants))
	for _, p := range participants {
		if p.UserID != msg.SenderID {
			recipients = append(recipients, p.UserID)
		}
	}
	if len(recipients) == 0 {
		return
	}

	err = s.notifier.Notify(ctx, recipients, gateway.NotifyPayload{
		ConversationID: msg.ConversationID,
		MessageID:      msg.ID,
		SenderID:       msg.SenderID,
		Preview:        preview(msg.Content),
	})
	if err != nil {
		s.logger.Warn("participant notification failed",
			zap.Int64("message_id", msg.ID),
			zap.Error(err),
		)
	}
}

func preview(content string) string {
	const max = 80
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max])
}
