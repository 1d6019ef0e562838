package repository

import (
	"context"
	"time"

	"github.com/haritha-dev/TherapyAppBack/internal/models"
)

type ConversationRepository struct {
	db DBTX
}

func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// CreateOrGet resolves the user/therapist pair to its single conversation.
// The unique constraint on the pair turns a concurrent duplicate create into
// the get path, so both racers end up with the same row.
func (r *ConversationRepository) CreateOrGet(
	ctx context.Context,
	userID int64,
	therapistID int64,
) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (user_id, therapist_id, last_message)
		VALUES ($1, $2, '')
		ON CONFLICT (user_id, therapist_id)
		DO UPDATE SET updated_at = conversations.updated_at
		RETURNING id, user_id, therapist_id, last_message, last_message_at, created_at, updated_at
	`

	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, userID, therapistID).Scan(
		&conversation.ID,
		&conversation.UserID,
		&conversation.TherapistID,
		&conversation.LastMessage,
		&conversation.LastMessageAt,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *ConversationRepository) GetByIDForParticipant(
	ctx context.Context,
	conversationID int64,
	participantID int64,
) (*models.Conversation, error) {
	query := `
		SELECT id, user_id, therapist_id, last_message, last_message_at, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND (user_id = $2 OR therapist_id = $2)
	`

	var conversation models.Conversation
	err := r.db.QueryRow(ctx, query, conversationID, participantID).Scan(
		&conversation.ID,
		&conversation.UserID,
		&conversation.TherapistID,
		&conversation.LastMessage,
		&conversation.LastMessageAt,
		&conversation.CreatedAt,
		&conversation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &conversation, nil
}

func (r *ConversationRepository) ListForParticipant(
	ctx context.Context,
	participantID int64,
) ([]models.ConversationSummary, error) {
	query := `
		SELECT
			c.id,
			c.user_id,
			c.therapist_id,
			c.last_message,
			c.last_message_at,
			c.created_at,
			c.updated_at,
			COALESCE(uc.unread_count, 0)
		FROM conversations c
		LEFT JOIN LATERAL (
			SELECT COUNT(*) AS unread_count
			FROM messages
			WHERE conversation_id = c.id
			  AND sender_id <> $1
			  AND is_read = FALSE
		) uc ON TRUE
		WHERE c.user_id = $1 OR c.therapist_id = $1
		ORDER BY COALESCE(c.last_message_at, c.created_at) DESC, c.id DESC
	`

	rows, err := r.db.Query(ctx, query, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.ConversationSummary, 0)
	for rows.Next() {
		var summary models.ConversationSummary
		if err := rows.Scan(
			&summary.ID,
			&summary.UserID,
			&summary.TherapistID,
			&summary.LastMessage,
			&summary.LastMessageAt,
			&summary.CreatedAt,
			&summary.UpdatedAt,
			&summary.UnreadCount,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

// UpdatePreview refreshes the denormalized last-message fields.
func (r *ConversationRepository) UpdatePreview(
	ctx context.Context,
	conversationID int64,
	lastMessage string,
	lastMessageAt time.Time,
) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations
		SET last_message = $2,
			last_message_at = $3,
			updated_at = NOW()
		WHERE id = $1
	`, conversationID, lastMessage, lastMessageAt)
	return err
}
