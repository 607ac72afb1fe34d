package chat

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lukose-dev/pawstream/internal/gateway"
	"github.com/lukose-dev/pawstream/internal/models"
	"github.com/lukose-dev/pawstream/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func signedInDirectory(store *mockStore) (*Directory, uuid.UUID) {
	sess := session.New()
	userID := uuid.New()
	sess.SignIn(userID)
	return NewDirectory(store, sess, zap.NewNop()), userID
}

func TestDirectory_CreatePrivateIsIdempotent(t *testing.T) {
	other := uuid.New()
	shared := &models.Conversation{ID: uuid.New(), Type: models.ConversationPrivate}

	store := &mockStore{
		EnsurePrivateConversationFunc: func(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error) {
			// The store resolves the pair server-side; every call for the
			// same pair lands on the same row.
			return shared, nil
		},
	}
	d, _ := signedInDirectory(store)

	first, err := d.CreatePrivate(context.Background(), other)
	require.NoError(t, err)
	second, err := d.CreatePrivate(context.Background(), other)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same pair, same conversation id")
}

func TestDirectory_RefreshFailureKeepsLastList(t *testing.T) {
	loaded := []models.Conversation{
		{ID: uuid.New(), Type: models.ConversationDogDiscussion, Title: "corgi corner"},
		{ID: uuid.New(), Type: models.ConversationPrivate},
	}
	var fail bool
	store := &mockStore{
		ListConversationsFunc: func(ctx context.Context, viewerID uuid.UUID) ([]models.Conversation, error) {
			if fail {
				return nil, assert.AnError
			}
			return loaded, nil
		},
	}
	d, _ := signedInDirectory(store)

	require.NoError(t, d.Refresh(context.Background()))
	require.Len(t, d.List(), 2)

	fail = true
	err := d.Refresh(context.Background())
	require.ErrorIs(t, err, ErrReadFailed)
	assert.Len(t, d.List(), 2, "failed refresh must not tear the loaded list")
}

func TestDirectory_CreateAndJoinTriggerRefresh(t *testing.T) {
	store := &mockStore{}
	d, _ := signedInDirectory(store)

	_, err := d.Create(context.Background(), CreateParams{
		Type:  models.ConversationDogDiscussion,
		Title: "ball appreciation",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), store.listConversationsCalls.Load())

	require.NoError(t, d.Join(context.Background(), uuid.New()))
	assert.Equal(t, int64(2), store.listConversationsCalls.Load(),
		"create/join must make the change visible without waiting for a push event")
}

func TestDirectory_JoinPrivateConversationRejected(t *testing.T) {
	store := &mockStore{
		JoinConversationFunc: func(ctx context.Context, conversationID, userID uuid.UUID) error {
			return gateway.ErrNotJoinable
		},
	}
	d, _ := signedInDirectory(store)

	err := d.Join(context.Background(), uuid.New())
	require.ErrorIs(t, err, gateway.ErrNotJoinable)
	assert.NotErrorIs(t, err, ErrWriteFailed, "a rejected join is not a transient write failure")
	assert.Equal(t, int64(0), store.listConversationsCalls.Load(),
		"a rejected join must not refresh the list")
}

func TestDirectory_CreateRejectsNonGroupType(t *testing.T) {
	store := &mockStore{
		CreateConversationFunc: func(ctx context.Context, params gateway.CreateConversationParams) (*models.Conversation, error) {
			t.Fatal("private conversations must not reach CreateConversation")
			return nil, nil
		},
	}
	d, _ := signedInDirectory(store)

	_, err := d.Create(context.Background(), CreateParams{Type: models.ConversationPrivate})
	require.ErrorIs(t, err, ErrWriteFailed)
}

func TestDirectory_MutationsRequireSession(t *testing.T) {
	d := NewDirectory(&mockStore{}, session.New(), zap.NewNop())

	_, err := d.CreatePrivate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = d.Create(context.Background(), CreateParams{Type: models.ConversationLocationGroup})
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	assert.ErrorIs(t, d.Join(context.Background(), uuid.New()), ErrNotAuthenticated)
	assert.ErrorIs(t, d.MarkRead(context.Background(), uuid.New()), ErrNotAuthenticated)
	assert.ErrorIs(t, d.Refresh(context.Background()), ErrNotAuthenticated)
}

func TestDirectory_MarkReadDelegatesToStore(t *testing.T) {
	conv := uuid.New()
	var got uuid.UUID
	store := &mockStore{
		MarkReadFunc: func(ctx context.Context, conversationID, userID uuid.UUID) error {
			got = conversationID
			return nil
		},
	}
	d, _ := signedInDirectory(store)

	require.NoError(t, d.MarkRead(context.Background(), conv))
	assert.Equal(t, conv, got)
}
