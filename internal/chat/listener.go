package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lukose-dev/pawstream/internal/gateway"
	"go.uber.org/zap"
)

// Listener subscribes to the change feed for the lifetime of a session and
// routes every event class through one dispatcher. Keeping all routing —
// including the fallback-timer cancellation — in a single switch makes the
// cancel-on-first-observed race auditable in one place.
type Listener struct {
	feed      gateway.Feed
	directory *Directory
	window    *Window
	sender    *Sender
	logger    *zap.Logger

	mu  sync.Mutex
	sub gateway.Subscription
}

func NewListener(feed gateway.Feed, directory *Directory, window *Window, sender *Sender, logger *zap.Logger) *Listener {
	return &Listener{
		feed:      feed,
		directory: directory,
		window:    window,
		sender:    sender,
		logger:    logger,
	}
}

// Start subscribes to the feed. Call once per signed-in session.
func (l *Listener) Start(ctx context.Context) error {
	sub, err := l.feed.Subscribe(ctx, l.Handle)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.sub = sub
	l.mu.Unlock()
	return nil
}

// Stop unsubscribes. Safe to call without a prior Start.
func (l *Listener) Stop() {
	l.mu.Lock()
	sub := l.sub
	l.sub = nil
	l.mu.Unlock()

	if sub != nil {
		if err := sub.Close(); err != nil {
			l.logger.Warn("close feed subscription failed", zap.Error(err))
		}
	}
}

// Handle routes one feed event. Exported because the feed calls it from its
// receive goroutine; nothing else should.
func (l *Listener) Handle(event gateway.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch event.Type {
	case gateway.EventConversationChanged:
		// Coarse: any conversation/participant mutation reloads the list.
		l.refreshDirectory(ctx)

	case gateway.EventMessageInserted:
		// If this insert is one of our own just-sent messages, the push
		// path wins the race here and the fallback timer dies.
		l.sender.CancelFallback(event.MessageID)
		l.reloadWindowIfActive(ctx, event.ConversationID)
		// Always refresh the directory too — preview and unread counts
		// change no matter which conversation is on screen.
		l.refreshDirectory(ctx)

	case gateway.EventMessageUpdated:
		// Same routing as inserts minus the cancellation: edits and
		// soft-deletes never have a fallback timer.
		l.reloadWindowIfActive(ctx, event.ConversationID)
		l.refreshDirectory(ctx)

	case gateway.EventResubscribed:
		// The feed dropped and came back. It has no replay, so anything
		// missed is gone: reload the active window and the directory.
		if active := l.window.ActiveConversation(); active != uuid.Nil {
			if err := l.window.Load(ctx, active, 0, DefaultPageSize); err != nil {
				l.logger.Warn("window reload after resubscribe failed", zap.Error(err))
			}
		}
		l.refreshDirectory(ctx)

	default:
		l.logger.Warn("unknown feed event type", zap.String("type", string(event.Type)))
	}
}

func (l *Listener) reloadWindowIfActive(ctx context.Context, conversationID uuid.UUID) {
	if l.window.ActiveConversation() != conversationID {
		return
	}
	if err := l.window.Load(ctx, conversationID, 0, DefaultPageSize); err != nil {
		l.logger.Warn("window reload from feed failed", zap.Error(err))
	}
}

func (l *Listener) refreshDirectory(ctx context.Context) {
	if err := l.directory.Refresh(ctx); err != nil {
		l.logger.Warn("directory refresh from feed failed", zap.Error(err))
	}
}
