package chat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lukose-dev/pawstream/internal/gateway"
	"github.com/lukose-dev/pawstream/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type listenerFixture struct {
	store    *mockStore
	feed     *mockFeed
	window   *Window
	sender   *Sender
	listener *Listener
}

func newListenerFixture(t *testing.T) *listenerFixture {
	t.Helper()

	sess := session.New()
	sess.SignIn(uuid.New())

	logger := zap.NewNop()
	store := &mockStore{}
	feed := &mockFeed{}
	window := NewWindow(store, logger)
	directory := NewDirectory(store, sess, logger)
	sender := NewSender(store, window, &mockNotifier{}, sess, time.Hour, logger)
	listener := NewListener(feed, directory, window, sender, logger)

	return &listenerFixture{
		store:    store,
		feed:     feed,
		window:   window,
		sender:   sender,
		listener: listener,
	}
}

func TestListener_ConversationChangedRefreshesDirectoryOnly(t *testing.T) {
	f := newListenerFixture(t)
	f.window.Activate(uuid.New())

	f.listener.Handle(gateway.Event{Type: gateway.EventConversationChanged, ConversationID: uuid.New()})

	assert.Equal(t, int64(1), f.store.listConversationsCalls.Load())
	assert.Equal(t, int64(0), f.store.listMessagesCalls.Load(), "conversation events never touch the window")
}

func TestListener_MessageInsertedForActiveConversation(t *testing.T) {
	f := newListenerFixture(t)
	conv := uuid.New()
	f.window.Activate(conv)

	f.listener.Handle(gateway.Event{Type: gateway.EventMessageInserted, ConversationID: conv, MessageID: 7})

	assert.Equal(t, int64(1), f.store.listMessagesCalls.Load(), "active conversation reloads")
	assert.Equal(t, int64(1), f.store.listConversationsCalls.Load(), "directory refreshes for preview/unread")
}

func TestListener_MessageInsertedForOtherConversation(t *testing.T) {
	f := newListenerFixture(t)
	f.window.Activate(uuid.New())

	f.listener.Handle(gateway.Event{Type: gateway.EventMessageInserted, ConversationID: uuid.New(), MessageID: 7})

	assert.Equal(t, int64(0), f.store.listMessagesCalls.Load(), "inactive conversation does not reload the window")
	assert.Equal(t, int64(1), f.store.listConversationsCalls.Load(), "directory still refreshes")
}

func TestListener_MessageUpdatedSkipsFallbackCancellation(t *testing.T) {
	f := newListenerFixture(t)
	conv := uuid.New()
	f.window.Activate(conv)

	// Arm a fallback for message 1 (fixture delay is an hour, so only an
	// explicit cancel can remove it).
	require.NoError(t, f.sender.Send(context.Background(), SendParams{ConversationID: conv, Content: "hi"}))
	require.Equal(t, 1, f.sender.pendingCount())

	f.listener.Handle(gateway.Event{Type: gateway.EventMessageUpdated, ConversationID: conv, MessageID: 1})

	assert.Equal(t, 1, f.sender.pendingCount(), "edits have no fallback timer to cancel")
	f.sender.CancelFallback(1)
}

func TestListener_ResubscribedReloadsWindowAndDirectory(t *testing.T) {
	f := newListenerFixture(t)
	f.window.Activate(uuid.New())

	f.listener.Handle(gateway.Event{Type: gateway.EventResubscribed})

	assert.Equal(t, int64(1), f.store.listMessagesCalls.Load(), "missed events are unrecoverable, reload the window")
	assert.Equal(t, int64(1), f.store.listConversationsCalls.Load())
}

func TestListener_ResubscribedWithoutActiveWindow(t *testing.T) {
	f := newListenerFixture(t)

	f.listener.Handle(gateway.Event{Type: gateway.EventResubscribed})

	assert.Equal(t, int64(0), f.store.listMessagesCalls.Load())
	assert.Equal(t, int64(1), f.store.listConversationsCalls.Load())
}

func TestListener_StartAndStopManageSubscription(t *testing.T) {
	f := newListenerFixture(t)

	require.NoError(t, f.listener.Start(context.Background()))
	f.feed.mu.Lock()
	assert.NotNil(t, f.feed.handler)
	f.feed.mu.Unlock()

	f.listener.Stop()
	f.feed.mu.Lock()
	assert.True(t, f.feed.closed)
	f.feed.mu.Unlock()

	f.listener.Stop() // second stop is safe
}
