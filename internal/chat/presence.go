package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lukose-dev/pawstream/internal/models"
	"github.com/lukose-dev/pawstream/internal/session"
	"go.uber.org/zap"
)

// PresenceWriter is the slice of the gateway the tracker needs.
type PresenceWriter interface {
	UpsertPresence(ctx context.Context, presence models.Presence) error
}

// PresenceTracker is a best-effort map of who is online. It enriches the UI
// and nothing else: no delivery or read-receipt semantics hang off it, a
// failure is logged and forgotten, and an empty tracker is a valid one.
type PresenceTracker struct {
	store  PresenceWriter
	sess   *session.Session
	logger *zap.Logger

	mu       sync.RWMutex
	statuses map[uuid.UUID]models.PresenceStatus
}

func NewPresenceTracker(store PresenceWriter, sess *session.Session, logger *zap.Logger) *PresenceTracker {
	return &PresenceTracker{
		store:    store,
		sess:     sess,
		logger:   logger,
		statuses: make(map[uuid.UUID]models.PresenceStatus),
	}
}

// SetStatus publishes the current user's status, optionally tagged with the
// conversation they are looking at. Errors never propagate.
func (t *PresenceTracker) SetStatus(ctx context.Context, status models.PresenceStatus, activeConversation *uuid.UUID) {
	userID, ok := t.sess.CurrentUserID()
	if !ok {
		return
	}
	if !status.IsValid() {
		t.logger.Warn("ignoring invalid presence status", zap.String("status", string(status)))
		return
	}

	err := t.store.UpsertPresence(ctx, models.Presence{
		UserID:               userID,
		Status:               status,
		ActiveConversationID: activeConversation,
		UpdatedAt:            time.Now(),
	})
	if err != nil {
		t.logger.Warn("presence update failed", zap.Error(err))
		return
	}

	t.mu.Lock()
	t.statuses[userID] = status
	t.mu.Unlock()
}

// Observe records another user's status, e.g. from a future presence feed.
func (t *PresenceTracker) Observe(userID uuid.UUID, status models.PresenceStatus) {
	if !status.IsValid() {
		return
	}
	t.mu.Lock()
	t.statuses[userID] = status
	t.mu.Unlock()
}

// Get returns the last known status for a user. Absence means offline,
// never an error.
func (t *PresenceTracker) Get(userID uuid.UUID) models.PresenceStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if status, ok := t.statuses[userID]; ok {
		return status
	}
	return models.PresenceOffline
}
