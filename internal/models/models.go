package models

import (
	"time"

	"github.com/google/uuid"
)

// ConversationType distinguishes the three kinds of channels in the app.
//
// Why a string type with constants instead of iota?
//   - The value is stored in Postgres and serialized to JSON. A string
//     round-trips cleanly through both; an int enum would need mapping
//     code in every direction.
//   - New types can be added without renumbering anything.
type ConversationType string

const (
	// ConversationPrivate is a 1:1 thread between exactly two users.
	// There is at most one such conversation per unordered user pair.
	ConversationPrivate ConversationType = "private"

	// ConversationDogDiscussion is a group thread attached to a dog record.
	ConversationDogDiscussion ConversationType = "dog_discussion"

	// ConversationLocationGroup is a group thread attached to a location
	// (a park, a neighborhood).
	ConversationLocationGroup ConversationType = "location_group"
)

func (ct ConversationType) IsValid() bool {
	switch ct {
	case ConversationPrivate, ConversationDogDiscussion, ConversationLocationGroup:
		return true
	}
	return false
}

// IsGroup reports whether the type is discoverable/joinable. Private
// conversations are never joined; they exist for exactly their pair.
func (ct ConversationType) IsGroup() bool {
	return ct == ConversationDogDiscussion || ct == ConversationLocationGroup
}

// Conversation is a directory-level summary of one channel, as seen by the
// signed-in user.
//
// LastMessagePreview / LastMessageAt / UnreadCount are denormalized for list
// display. They are eventually consistent with the message window: the
// directory refresh recomputes them, it never patches them incrementally.
type Conversation struct {
	ID                 uuid.UUID        `json:"id"`
	Type               ConversationType `json:"type"`
	Title              string           `json:"title,omitempty"`
	Description        string           `json:"description,omitempty"`
	SubjectRef         *uuid.UUID       `json:"subject_ref,omitempty"`
	CreatedBy          uuid.UUID        `json:"created_by"`
	CreatedAt          time.Time        `json:"created_at"`
	LastMessagePreview string           `json:"last_message_preview,omitempty"`
	LastMessageAt      *time.Time       `json:"last_message_at,omitempty"`
	ParticipantCount   int              `json:"participant_count"`
	UnreadCount        int              `json:"unread_count"`
}

// Participant is the conversation ↔ user join row.
//
// IsActive goes false on leave — rows are never hard-deleted, so read
// history (LastReadAt) survives a leave/rejoin cycle. LastReadAt only moves
// forward; the store enforces that, not the caller.
type Participant struct {
	ConversationID uuid.UUID  `json:"conversation_id"`
	UserID         uuid.UUID  `json:"user_id"`
	Role           string     `json:"role"`
	IsActive       bool       `json:"is_active"`
	LastReadAt     *time.Time `json:"last_read_at,omitempty"`
}

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// MessageType is the payload kind of a message.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
)

func (mt MessageType) IsValid() bool {
	switch mt {
	case MessageText, MessageImage:
		return true
	}
	return false
}

// Message is a single chat message.
//
// Why int64 for ID (not UUID)?
//   - Messages are the highest-volume table. bigserial is smaller,
//     naturally ordered, and index-friendly.
//   - The id is server-assigned: the client never has a message id until
//     the insert's RETURNING hands it one. The window's merge keys on this
//     id, so its global uniqueness is load-bearing.
//
// CreatedAt is the server clock, non-decreasing within a conversation. The
// window orders by it (id as tiebreak), never by arrival order.
type Message struct {
	ID             int64       `json:"id"`
	ConversationID uuid.UUID   `json:"conversation_id"`
	SenderID       uuid.UUID   `json:"sender_id"`
	Content        string      `json:"content"`
	MessageType    MessageType `json:"message_type"`
	ImageRef       string      `json:"image_ref,omitempty"`
	ReplyToID      *int64      `json:"reply_to_id,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	IsEdited       bool        `json:"is_edited"`
	IsDeleted      bool        `json:"is_deleted"`
}

// PresenceStatus is advisory only. A missing presence row means offline;
// nothing in message delivery reads it.
type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceAway    PresenceStatus = "away"
	PresenceBusy    PresenceStatus = "busy"
	PresenceOffline PresenceStatus = "offline"
)

func (ps PresenceStatus) IsValid() bool {
	switch ps {
	case PresenceOnline, PresenceAway, PresenceBusy, PresenceOffline:
		return true
	}
	return false
}

type Presence struct {
	UserID               uuid.UUID      `json:"user_id"`
	Status               PresenceStatus `json:"status"`
	ActiveConversationID *uuid.UUID     `json:"active_conversation_id,omitempty"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// User is the minimal account shape the feed bridge needs for login.
// Profile data (dogs, favorites, settings) lives in the surrounding product
// and never passes through this module.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
