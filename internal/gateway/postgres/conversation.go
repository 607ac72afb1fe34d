package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lukose-dev/pawstream/internal/gateway"
	"github.com/lukose-dev/pawstream/internal/models"
)

// ListConversations returns the viewer's active conversations, most recently
// active first.
//
// Preview, last-activity timestamp, participant count, and the per-viewer
// unread count are all computed here, in one query, rather than kept as
// denormalized columns. Conversation lists are small; recomputing on every
// refresh keeps the write path trivial and can never drift.
func (s *Store) ListConversations(ctx context.Context, viewerID uuid.UUID) ([]models.Conversation, error) {
	query := `
		SELECT
			c.id, c.type,
			COALESCE(c.title, ''), COALESCE(c.description, ''),
			c.subject_ref, c.created_by, c.created_at,
			COALESCE(lm.content, ''), lm.created_at,
			(SELECT count(*) FROM participants a
			  WHERE a.conversation_id = c.id AND a.is_active),
			(SELECT count(*) FROM messages m
			  WHERE m.conversation_id = c.id
			    AND NOT m.is_deleted
			    AND m.sender_id <> p.user_id
			    AND (p.last_read_at IS NULL OR m.created_at > p.last_read_at))
		FROM conversations c
		JOIN participants p
		  ON p.conversation_id = c.id AND p.user_id = $1 AND p.is_active
		LEFT JOIN LATERAL (
			SELECT content, created_at
			FROM messages m
			WHERE m.conversation_id = c.id AND NOT m.is_deleted
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT 1
		) lm ON true
		ORDER BY COALESCE(lm.created_at, c.created_at) DESC`

	rows, err := s.pool.Query(ctx, query, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	conversations := make([]models.Conversation, 0)
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(
			&c.ID,
			&c.Type,
			&c.Title,
			&c.Description,
			&c.SubjectRef,
			&c.CreatedBy,
			&c.CreatedAt,
			&c.LastMessagePreview,
			&c.LastMessageAt,
			&c.ParticipantCount,
			&c.UnreadCount,
		); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}

	return conversations, nil
}

// privatePairKey is the normalized identity of an unordered user pair. A
// unique index on conversations.private_pair_key makes the pair's
// conversation unique at the database, which is what makes
// EnsurePrivateConversation safe under concurrent calls.
func privatePairKey(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if strings.Compare(x, y) > 0 {
		x, y = y, x
	}
	return x + ":" + y
}

// EnsurePrivateConversation looks up or creates the 1:1 conversation for
// {a, b}. The insert races through the unique index, not a client-side
// check-then-insert: both of two concurrent callers attempt the insert, at
// most one row lands, and both then select the same row. The conversation
// and its two participant rows commit together, so a half-created private
// conversation with nobody in it can never be observed.
func (s *Store) EnsurePrivateConversation(ctx context.Context, a, b uuid.UUID) (*models.Conversation, error) {
	if a == b {
		return nil, errors.New("private conversation needs two distinct users")
	}
	key := privatePairKey(a, b)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO conversations (type, created_by, private_pair_key)
		VALUES ($1, $2, $3)
		ON CONFLICT (private_pair_key) DO NOTHING
		RETURNING id`

	var created bool
	var createdID uuid.UUID
	err = tx.QueryRow(ctx, insert, models.ConversationPrivate, a, key).Scan(&createdID)
	switch {
	case err == nil:
		members := `
			INSERT INTO participants (conversation_id, user_id, role, is_active)
			VALUES ($1, $2, 'member', true), ($1, $3, 'member', true)
			ON CONFLICT (conversation_id, user_id) DO UPDATE SET is_active = true`
		if _, err := tx.Exec(ctx, members, createdID, a, b); err != nil {
			return nil, fmt.Errorf("attach private participants: %w", err)
		}
		created = true
	case errors.Is(err, pgx.ErrNoRows):
		// Conflict: the pair's conversation already exists. Fall through to
		// the select below.
	default:
		return nil, fmt.Errorf("ensure private conversation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	if created {
		s.publish(gateway.Event{Type: gateway.EventConversationChanged, ConversationID: createdID})
	}

	query := `
		SELECT id, type, COALESCE(title, ''), COALESCE(description, ''),
		       subject_ref, created_by, created_at
		FROM conversations
		WHERE private_pair_key = $1`

	var c models.Conversation
	err = s.pool.QueryRow(ctx, query, key).Scan(
		&c.ID, &c.Type, &c.Title, &c.Description,
		&c.SubjectRef, &c.CreatedBy, &c.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("select private conversation: %w", err)
	}
	return &c, nil
}

// CreateConversation inserts a group conversation with its creator as admin
// and any extra participant ids as members, in one transaction.
func (s *Store) CreateConversation(ctx context.Context, params gateway.CreateConversationParams) (*models.Conversation, error) {
	if !params.Type.IsGroup() {
		return nil, fmt.Errorf("create conversation: type %q is not a group type", params.Type)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO conversations (type, title, description, subject_ref, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	c := models.Conversation{
		Type:        params.Type,
		Title:       params.Title,
		Description: params.Description,
		SubjectRef:  params.SubjectRef,
		CreatedBy:   params.CreatedBy,
	}
	err = tx.QueryRow(ctx, insert,
		params.Type, params.Title, params.Description, params.SubjectRef, params.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}

	member := `
		INSERT INTO participants (conversation_id, user_id, role, is_active)
		VALUES ($1, $2, $3, true)
		ON CONFLICT (conversation_id, user_id) DO UPDATE SET is_active = true`

	if _, err := tx.Exec(ctx, member, c.ID, params.CreatedBy, models.RoleAdmin); err != nil {
		return nil, fmt.Errorf("insert creator participant: %w", err)
	}
	for _, userID := range params.Participants {
		if userID == params.CreatedBy {
			continue
		}
		if _, err := tx.Exec(ctx, member, c.ID, userID, models.RoleMember); err != nil {
			return nil, fmt.Errorf("insert participant %s: %w", userID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	c.ParticipantCount = 1 + len(params.Participants)
	s.publish(gateway.Event{Type: gateway.EventConversationChanged, ConversationID: c.ID})
	return &c, nil
}
