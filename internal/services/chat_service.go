package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/haritha-dev/TherapyAppBack/internal/models"
	"github.com/haritha-dev/TherapyAppBack/internal/realtime"
	"github.com/haritha-dev/TherapyAppBack/internal/repository"
)

const defaultMessageLimit = 200

const attachmentPreview = "\U0001F4CE Attachment"

type conversationStore interface {
	CreateOrGet(ctx context.Context, userID int64, therapistID int64) (*models.Conversation, error)
	GetByIDForParticipant(ctx context.Context, conversationID int64, participantID int64) (*models.Conversation, error)
	ListForParticipant(ctx context.Context, participantID int64) ([]models.ConversationSummary, error)
	UpdatePreview(ctx context.Context, conversationID int64, lastMessage string, lastMessageAt time.Time) error
}

type messageStore interface {
	Create(ctx context.Context, input repository.CreateMessageInput) (*models.Message, error)
	ListByConversation(ctx context.Context, conversationID int64, limit int) ([]models.Message, error)
	ListUnreadFromOthers(ctx context.Context, conversationID int64, readerID int64) ([]models.Message, error)
	MarkRead(ctx context.Context, messageID int64) error
}

type userReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type ChatService struct {
	conversationRepo conversationStore
	messageRepo      messageStore
	userRepo         userReader
	feed             realtime.Feed
}

func NewChatService(
	conversationRepo conversationStore,
	messageRepo messageStore,
	userRepo userReader,
	feed realtime.Feed,
) *ChatService {
	return &ChatService{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
		feed:             feed,
	}
}

type SendMessageInput struct {
	ConversationID int64
	SenderID       int64
	Content        string
	AttachmentURL  *string
}

// CreateOrGetConversation resolves the single conversation for a
// user/therapist pair, creating it with empty preview fields on first
// contact. Both branches return the same row thanks to the pair constraint.
// Both sides of the pair are role-checked, so a therapist initiating a
// conversation cannot put another therapist on the user side.
func (s *ChatService) CreateOrGetConversation(
	ctx context.Context,
	userID int64,
	therapistID int64,
) (*models.Conversation, error) {
	if userID <= 0 || therapistID <= 0 || userID == therapistID {
		return nil, ErrInvalidInput
	}

	therapist, err := s.userRepo.GetByID(ctx, therapistID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTherapistNotFound
		}
		return nil, err
	}
	if therapist.Role != models.RoleTherapist {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidInput
		}
		return nil, err
	}
	if user.Role != models.RoleUser {
		return nil, ErrInvalidInput
	}

	return s.conversationRepo.CreateOrGet(ctx, userID, therapistID)
}

func (s *ChatService) ListConversations(
	ctx context.Context,
	participantID int64,
) ([]models.ConversationSummary, error) {
	if participantID <= 0 {
		return nil, ErrInvalidInput
	}
	return s.conversationRepo.ListForParticipant(ctx, participantID)
}

// ListMessages returns up to limit messages oldest-first. A zero limit means
// the default of 200.
func (s *ChatService) ListMessages(
	ctx context.Context,
	actorID int64,
	conversationID int64,
	limit int,
) ([]models.Message, error) {
	if actorID <= 0 || conversationID <= 0 {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = defaultMessageLimit
	}

	if _, err := s.conversationRepo.GetByIDForParticipant(ctx, conversationID, actorID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return s.messageRepo.ListByConversation(ctx, conversationID, limit)
}

// SendMessage stores a message carrying content, an attachment, or both.
// The send is successful once the message row exists; refreshing the
// conversation preview and publishing the feed event are best-effort.
func (s *ChatService) SendMessage(ctx context.Context, input SendMessageInput) (*models.Message, error) {
	if input.ConversationID <= 0 || input.SenderID <= 0 {
		return nil, ErrInvalidInput
	}

	content := strings.TrimSpace(input.Content)
	if content == "" && input.AttachmentURL == nil {
		return nil, ErrInvalidInput
	}

	if _, err := s.conversationRepo.GetByIDForParticipant(ctx, input.ConversationID, input.SenderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrForbidden
		}
		return nil, err
	}

	message, err := s.messageRepo.Create(ctx, repository.CreateMessageInput{
		ConversationID: input.ConversationID,
		SenderID:       input.SenderID,
		Content:        content,
		AttachmentURL:  input.AttachmentURL,
	})
	if err != nil {
		return nil, err
	}

	preview := content
	if preview == "" {
		preview = attachmentPreview
	}
	if err := s.conversationRepo.UpdatePreview(ctx, input.ConversationID, preview, message.CreatedAt); err != nil {
		log.Printf("chat: update conversation %d preview: %v", input.ConversationID, err)
	}

	s.publish(ctx, realtime.Event{Action: realtime.ActionCreate, Message: *message})

	return message, nil
}

// MarkRead flips every unread message authored by the other participant.
// The sweep is best-effort: each flip is independent and failures are
// logged, never surfaced.
func (s *ChatService) MarkRead(ctx context.Context, conversationID int64, readerID int64) error {
	if conversationID <= 0 || readerID <= 0 {
		return ErrInvalidInput
	}

	if _, err := s.conversationRepo.GetByIDForParticipant(ctx, conversationID, readerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		log.Printf("chat: mark read lookup conversation %d: %v", conversationID, err)
		return nil
	}

	unread, err := s.messageRepo.ListUnreadFromOthers(ctx, conversationID, readerID)
	if err != nil {
		log.Printf("chat: list unread for conversation %d: %v", conversationID, err)
		return nil
	}

	for _, message := range unread {
		if err := s.messageRepo.MarkRead(ctx, message.ID); err != nil {
			log.Printf("chat: mark message %d read: %v", message.ID, err)
			continue
		}
		message.IsRead = true
		s.publish(ctx, realtime.Event{Action: realtime.ActionUpdate, Message: message})
	}

	return nil
}

func (s *ChatService) publish(ctx context.Context, event realtime.Event) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, event); err != nil {
		log.Printf("chat: publish %s event for conversation %d: %v", event.Action, event.Message.ConversationID, err)
	}
}
