package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lukose-dev/pawstream/internal/gateway"
	"github.com/lukose-dev/pawstream/internal/models"
)

// JoinConversation adds the user as an active member. Joining twice is a
// no-op success: the upsert re-activates a soft-removed row and leaves an
// active one alone.
//
// The INSERT ... SELECT restricts the target to group types in the same
// statement, so "is this joinable" and "join it" can't race: a private
// conversation (exactly two participants, always) or an unknown id selects
// zero rows and the caller gets ErrNotJoinable.
func (s *Store) JoinConversation(ctx context.Context, conversationID, userID uuid.UUID) error {
	query := `
		INSERT INTO participants (conversation_id, user_id, role, is_active)
		SELECT c.id, $2, 'member', true
		FROM conversations c
		WHERE c.id = $1 AND c.type IN ('dog_discussion', 'location_group')
		ON CONFLICT (conversation_id, user_id) DO UPDATE SET is_active = true`

	tag, err := s.pool.Exec(ctx, query, conversationID, userID)
	if err != nil {
		return fmt.Errorf("join conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("join conversation %s: %w", conversationID, gateway.ErrNotJoinable)
	}

	s.publish(gateway.Event{Type: gateway.EventConversationChanged, ConversationID: conversationID})
	return nil
}

// MarkRead advances the viewer's lastReadAt. GREATEST keeps the timestamp
// forward-only: a late or repeated call can never regress read state.
func (s *Store) MarkRead(ctx context.Context, conversationID, userID uuid.UUID) error {
	query := `
		UPDATE participants
		SET last_read_at = GREATEST(COALESCE(last_read_at, '-infinity'::timestamptz), now())
		WHERE conversation_id = $1 AND user_id = $2 AND is_active`

	if _, err := s.pool.Exec(ctx, query, conversationID, userID); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (s *Store) ListActiveParticipants(ctx context.Context, conversationID uuid.UUID) ([]models.Participant, error) {
	query := `
		SELECT conversation_id, user_id, role, is_active, last_read_at
		FROM participants
		WHERE conversation_id = $1 AND is_active`

	rows, err := s.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	participants := make([]models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(
			&p.ConversationID,
			&p.UserID,
			&p.Role,
			&p.IsActive,
			&p.LastReadAt,
		); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}

	return participants, nil
}
