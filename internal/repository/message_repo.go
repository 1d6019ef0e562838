package repository

import (
	"context"

	"github.com/haritha-dev/TherapyAppBack/internal/models"
)

type CreateMessageInput struct {
	ConversationID int64
	SenderID       int64
	Content        string
	AttachmentURL  *string
}

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, input CreateMessageInput) (*models.Message, error) {
	query := `
		INSERT INTO messages (conversation_id, sender_id, content, attachment_url, is_read)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING id, conversation_id, sender_id, content, attachment_url, is_read, created_at
	`

	var message models.Message
	err := r.db.QueryRow(
		ctx,
		query,
		input.ConversationID,
		input.SenderID,
		input.Content,
		input.AttachmentURL,
	).Scan(
		&message.ID,
		&message.ConversationID,
		&message.SenderID,
		&message.Content,
		&message.AttachmentURL,
		&message.IsRead,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &message, nil
}

// ListByConversation returns the oldest messages first, capped at limit.
func (r *MessageRepository) ListByConversation(
	ctx context.Context,
	conversationID int64,
	limit int,
) ([]models.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, content, attachment_url, is_read, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var message models.Message
		if err := rows.Scan(
			&message.ID,
			&message.ConversationID,
			&message.SenderID,
			&message.Content,
			&message.AttachmentURL,
			&message.IsRead,
			&message.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

// ListUnreadFromOthers returns messages the reader has not seen yet, i.e.
// unread messages authored by the other participant.
func (r *MessageRepository) ListUnreadFromOthers(
	ctx context.Context,
	conversationID int64,
	readerID int64,
) ([]models.Message, error) {
	clause, args := Where(And(
		Eq("conversation_id", conversationID),
		Neq("sender_id", readerID),
		Eq("is_read", false),
	))

	query := `
		SELECT id, conversation_id, sender_id, content, attachment_url, is_read, created_at
		FROM messages
		WHERE ` + clause + `
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var message models.Message
		if err := rows.Scan(
			&message.ID,
			&message.ConversationID,
			&message.SenderID,
			&message.Content,
			&message.AttachmentURL,
			&message.IsRead,
			&message.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, messageID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE messages
		SET is_read = TRUE
		WHERE id = $1 AND is_read = FALSE
	`, messageID)
	return err
}
