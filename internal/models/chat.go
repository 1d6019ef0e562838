package models

import "time"

// Conversation links exactly one user with one therapist. The pair is unique
// at the storage level; last_message and last_message_at are denormalized
// preview fields refreshed opportunistically after each send.
type Conversation struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	TherapistID   int64      `json:"therapist_id"`
	LastMessage   string     `json:"last_message"`
	LastMessageAt *time.Time `json:"last_message_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Message carries text content, an attachment URL, or both; never neither.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	Content        string    `json:"content"`
	AttachmentURL  *string   `json:"attachment_url,omitempty"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

type ConversationSummary struct {
	Conversation
	UnreadCount int `json:"unread_count"`
}
