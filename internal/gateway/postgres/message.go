package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lukose-dev/pawstream/internal/gateway"
	"github.com/lukose-dev/pawstream/internal/models"
)

// CreateMessage persists a message. Postgres assigns the id (bigserial) and
// both timestamps; RETURNING hands them back before this call completes, so
// the sender always leaves with the authoritative id in hand.
func (s *Store) CreateMessage(ctx context.Context, params gateway.CreateMessageParams) (*models.Message, error) {
	messageType := params.MessageType
	if messageType == "" {
		messageType = models.MessageText
	}
	if !messageType.IsValid() {
		return nil, fmt.Errorf("create message: invalid message type %q", messageType)
	}

	query := `
		INSERT INTO messages (conversation_id, sender_id, content, message_type, image_ref, reply_to_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, conversation_id, sender_id, content, message_type,
		          COALESCE(image_ref, ''), reply_to_id,
		          created_at, updated_at, is_edited, is_deleted`

	var msg models.Message
	err := s.pool.QueryRow(ctx, query,
		params.ConversationID,
		params.SenderID,
		params.Content,
		messageType,
		nullString(params.ImageRef),
		params.ReplyToID,
	).Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.SenderID,
		&msg.Content,
		&msg.MessageType,
		&msg.ImageRef,
		&msg.ReplyToID,
		&msg.CreatedAt,
		&msg.UpdatedAt,
		&msg.IsEdited,
		&msg.IsDeleted,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	s.publish(gateway.Event{
		Type:           gateway.EventMessageInserted,
		ConversationID: msg.ConversationID,
		MessageID:      msg.ID,
		SenderID:       msg.SenderID,
	})
	return &msg, nil
}

// ListMessages returns one offset/limit page, newest first. Soft-deleted
// rows are returned with is_deleted set rather than filtered out: the
// window hides them from its view, and seeing the flag is how a client
// that already holds the message learns the deletion happened.
//
// offset 0 is always "the latest page": the window calls it both for the
// initial load and for every push- or fallback-driven refresh, and merges
// by id, so overlap between pages is expected and harmless.
func (s *Store) ListMessages(ctx context.Context, conversationID uuid.UUID, offset, limit int) ([]models.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, content, message_type,
		       COALESCE(image_ref, ''), reply_to_id,
		       created_at, updated_at, is_edited, is_deleted
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC
		OFFSET $2
		LIMIT $3`

	rows, err := s.pool.Query(ctx, query, conversationID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.SenderID,
			&msg.Content,
			&msg.MessageType,
			&msg.ImageRef,
			&msg.ReplyToID,
			&msg.CreatedAt,
			&msg.UpdatedAt,
			&msg.IsEdited,
			&msg.IsDeleted,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

// nullString maps "" to SQL NULL for optional text columns.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
