package postgres

import (
	"context"
	"fmt"

	"github.com/lukose-dev/pawstream/internal/models"
)

// UpsertPresence records best-effort presence. No feed event: presence is
// advisory and never drives a reload.
func (s *Store) UpsertPresence(ctx context.Context, presence models.Presence) error {
	if !presence.Status.IsValid() {
		return fmt.Errorf("upsert presence: invalid status %q", presence.Status)
	}

	query := `
		INSERT INTO presence (user_id, status, active_conversation_id, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id) DO UPDATE
		SET status = EXCLUDED.status,
		    active_conversation_id = EXCLUDED.active_conversation_id,
		    updated_at = now()`

	if _, err := s.pool.Exec(ctx, query, presence.UserID, presence.Status, presence.ActiveConversationID); err != nil {
		return fmt.Errorf("upsert presence: %w", err)
	}
	return nil
}
