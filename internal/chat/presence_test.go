package chat

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lukose-dev/pawstream/internal/models"
	"github.com/lukose-dev/pawstream/internal/session"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestPresence_UnknownUserIsOffline(t *testing.T) {
	tracker := NewPresenceTracker(&mockStore{}, session.New(), zap.NewNop())
	assert.Equal(t, models.PresenceOffline, tracker.Get(uuid.New()))
}

func TestPresence_SetStatusFailureIsSilent(t *testing.T) {
	sess := session.New()
	userID := uuid.New()
	sess.SignIn(userID)

	store := &mockStore{
		UpsertPresenceFunc: func(ctx context.Context, presence models.Presence) error {
			return assert.AnError
		},
	}
	tracker := NewPresenceTracker(store, sess, zap.NewNop())

	// Must not panic or propagate; and the local map keeps the old answer.
	tracker.SetStatus(context.Background(), models.PresenceOnline, nil)
	assert.Equal(t, models.PresenceOffline, tracker.Get(userID))
}

func TestPresence_SetStatusRecordsLocally(t *testing.T) {
	sess := session.New()
	userID := uuid.New()
	sess.SignIn(userID)

	tracker := NewPresenceTracker(&mockStore{}, sess, zap.NewNop())
	tracker.SetStatus(context.Background(), models.PresenceAway, nil)
	assert.Equal(t, models.PresenceAway, tracker.Get(userID))
}

func TestPresence_ObserveAndInvalidStatus(t *testing.T) {
	tracker := NewPresenceTracker(&mockStore{}, session.New(), zap.NewNop())
	other := uuid.New()

	tracker.Observe(other, models.PresenceBusy)
	assert.Equal(t, models.PresenceBusy, tracker.Get(other))

	tracker.Observe(other, models.PresenceStatus("sleeping"))
	assert.Equal(t, models.PresenceBusy, tracker.Get(other), "invalid statuses are ignored")
}
