package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/haritha-dev/TherapyAppBack/internal/models"
	"github.com/haritha-dev/TherapyAppBack/internal/realtime"
	"github.com/haritha-dev/TherapyAppBack/internal/repository"
)

type stubConversationStore struct {
	createOrGetFn   func(ctx context.Context, userID, therapistID int64) (*models.Conversation, error)
	getFn           func(ctx context.Context, conversationID, participantID int64) (*models.Conversation, error)
	listFn          func(ctx context.Context, participantID int64) ([]models.ConversationSummary, error)
	updatePreviewFn func(ctx context.Context, conversationID int64, lastMessage string, lastMessageAt time.Time) error
}

func (s *stubConversationStore) CreateOrGet(ctx context.Context, userID, therapistID int64) (*models.Conversation, error) {
	return s.createOrGetFn(ctx, userID, therapistID)
}

func (s *stubConversationStore) GetByIDForParticipant(ctx context.Context, conversationID, participantID int64) (*models.Conversation, error) {
	if s.getFn == nil {
		return &models.Conversation{ID: conversationID}, nil
	}
	return s.getFn(ctx, conversationID, participantID)
}

func (s *stubConversationStore) ListForParticipant(ctx context.Context, participantID int64) ([]models.ConversationSummary, error) {
	return s.listFn(ctx, participantID)
}

func (s *stubConversationStore) UpdatePreview(ctx context.Context, conversationID int64, lastMessage string, lastMessageAt time.Time) error {
	if s.updatePreviewFn == nil {
		return nil
	}
	return s.updatePreviewFn(ctx, conversationID, lastMessage, lastMessageAt)
}

type stubMessageStore struct {
	createFn     func(ctx context.Context, input repository.CreateMessageInput) (*models.Message, error)
	listFn       func(ctx context.Context, conversationID int64, limit int) ([]models.Message, error)
	listUnreadFn func(ctx context.Context, conversationID, readerID int64) ([]models.Message, error)
	markedRead   []int64
}

func (s *stubMessageStore) Create(ctx context.Context, input repository.CreateMessageInput) (*models.Message, error) {
	return s.createFn(ctx, input)
}

func (s *stubMessageStore) ListByConversation(ctx context.Context, conversationID int64, limit int) ([]models.Message, error) {
	return s.listFn(ctx, conversationID, limit)
}

func (s *stubMessageStore) ListUnreadFromOthers(ctx context.Context, conversationID, readerID int64) ([]models.Message, error) {
	return s.listUnreadFn(ctx, conversationID, readerID)
}

func (s *stubMessageStore) MarkRead(ctx context.Context, messageID int64) error {
	s.markedRead = append(s.markedRead, messageID)
	return nil
}

type stubUserReader struct {
	users map[int64]*models.User
}

func (s *stubUserReader) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func therapistUser(id int64) *models.User {
	return &models.User{ID: id, Name: "Dr. Mehta", Role: models.RoleTherapist}
}

func regularUser(id int64) *models.User {
	return &models.User{ID: id, Name: "Ann", Role: models.RoleUser}
}

func TestCreateOrGetConversationReturnsSameRow(t *testing.T) {
	conversation := &models.Conversation{ID: 42, UserID: 1, TherapistID: 2}
	calls := 0
	conversations := &stubConversationStore{
		createOrGetFn: func(ctx context.Context, userID, therapistID int64) (*models.Conversation, error) {
			calls++
			return conversation, nil
		},
	}
	users := &stubUserReader{users: map[int64]*models.User{
		1: regularUser(1),
		2: therapistUser(2),
	}}
	service := NewChatService(conversations, &stubMessageStore{}, users, nil)

	first, err := service.CreateOrGetConversation(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := service.CreateOrGetConversation(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same conversation, got %d and %d", first.ID, second.ID)
	}
	if calls != 2 {
		t.Fatalf("expected 2 store calls, got %d", calls)
	}
}

func TestCreateOrGetConversationRejectsNonTherapist(t *testing.T) {
	users := &stubUserReader{users: map[int64]*models.User{2: regularUser(2)}}
	service := NewChatService(&stubConversationStore{}, &stubMessageStore{}, users, nil)

	if _, err := service.CreateOrGetConversation(context.Background(), 1, 2); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	if _, err := service.CreateOrGetConversation(context.Background(), 1, 9); !errors.Is(err, ErrTherapistNotFound) {
		t.Fatalf("expected ErrTherapistNotFound for unknown id, got %v", err)
	}

	if _, err := service.CreateOrGetConversation(context.Background(), 3, 3); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for self pair, got %v", err)
	}
}

func TestCreateOrGetConversationRejectsNonUserOnUserSide(t *testing.T) {
	created := false
	conversations := &stubConversationStore{
		createOrGetFn: func(ctx context.Context, userID, therapistID int64) (*models.Conversation, error) {
			created = true
			return &models.Conversation{ID: 1, UserID: userID, TherapistID: therapistID}, nil
		},
	}
	users := &stubUserReader{users: map[int64]*models.User{
		2: therapistUser(2),
		3: therapistUser(3),
		4: {ID: 4, Name: "Root", Role: models.RoleAdmin},
	}}
	service := NewChatService(conversations, &stubMessageStore{}, users, nil)

	// A therapist initiating must still name an account with role user.
	if _, err := service.CreateOrGetConversation(context.Background(), 3, 2); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for therapist on user side, got %v", err)
	}
	if _, err := service.CreateOrGetConversation(context.Background(), 4, 2); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for admin on user side, got %v", err)
	}
	if _, err := service.CreateOrGetConversation(context.Background(), 9, 2); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown user side, got %v", err)
	}
	if created {
		t.Fatal("expected no conversation to be created")
	}
}

func TestSendMessageRequiresContentOrAttachment(t *testing.T) {
	service := NewChatService(&stubConversationStore{}, &stubMessageStore{}, &stubUserReader{}, nil)

	_, err := service.SendMessage(context.Background(), SendMessageInput{
		ConversationID: 1,
		SenderID:       2,
		Content:        "   ",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSendMessageAttachmentOnly(t *testing.T) {
	var created repository.CreateMessageInput
	messages := &stubMessageStore{
		createFn: func(ctx context.Context, input repository.CreateMessageInput) (*models.Message, error) {
			created = input
			return &models.Message{
				ID:             7,
				ConversationID: input.ConversationID,
				SenderID:       input.SenderID,
				AttachmentURL:  input.AttachmentURL,
				CreatedAt:      time.Now(),
			}, nil
		},
	}
	var preview string
	conversations := &stubConversationStore{
		updatePreviewFn: func(ctx context.Context, conversationID int64, lastMessage string, lastMessageAt time.Time) error {
			preview = lastMessage
			return nil
		},
	}
	broker := realtime.NewBroker()
	events, unsubscribe, _ := broker.Subscribe(context.Background(), 1)
	defer unsubscribe()

	service := NewChatService(conversations, messages, &stubUserReader{}, broker)

	url := "https://storage.example.com/attachments/report.pdf"
	message, err := service.SendMessage(context.Background(), SendMessageInput{
		ConversationID: 1,
		SenderID:       2,
		AttachmentURL:  &url,
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if message.ID != 7 {
		t.Fatalf("unexpected message %+v", message)
	}
	if created.Content != "" || created.AttachmentURL == nil {
		t.Fatalf("unexpected create input %+v", created)
	}
	if preview != "\U0001F4CE Attachment" {
		t.Fatalf("unexpected preview %q", preview)
	}

	select {
	case event := <-events:
		if event.Action != realtime.ActionCreate || event.Message.ID != 7 {
			t.Fatalf("unexpected event %+v", event)
		}
	default:
		t.Fatal("expected a create event on the feed")
	}
}

func TestSendMessageSucceedsWhenPreviewUpdateFails(t *testing.T) {
	messages := &stubMessageStore{
		createFn: func(ctx context.Context, input repository.CreateMessageInput) (*models.Message, error) {
			return &models.Message{ID: 8, ConversationID: input.ConversationID, SenderID: input.SenderID, Content: input.Content}, nil
		},
	}
	conversations := &stubConversationStore{
		updatePreviewFn: func(ctx context.Context, conversationID int64, lastMessage string, lastMessageAt time.Time) error {
			return errors.New("connection reset")
		},
	}
	service := NewChatService(conversations, messages, &stubUserReader{}, nil)

	message, err := service.SendMessage(context.Background(), SendMessageInput{
		ConversationID: 1,
		SenderID:       2,
		Content:        "hello",
	})
	if err != nil {
		t.Fatalf("expected send to succeed despite preview failure, got %v", err)
	}
	if message.ID != 8 {
		t.Fatalf("unexpected message %+v", message)
	}
}

func TestSendMessageToForeignConversationIsForbidden(t *testing.T) {
	conversations := &stubConversationStore{
		getFn: func(ctx context.Context, conversationID, participantID int64) (*models.Conversation, error) {
			return nil, pgx.ErrNoRows
		},
	}
	service := NewChatService(conversations, &stubMessageStore{}, &stubUserReader{}, nil)

	_, err := service.SendMessage(context.Background(), SendMessageInput{
		ConversationID: 1,
		SenderID:       2,
		Content:        "hello",
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestMarkReadFlipsOnlyOtherSendersMessages(t *testing.T) {
	messages := &stubMessageStore{
		listUnreadFn: func(ctx context.Context, conversationID, readerID int64) ([]models.Message, error) {
			return []models.Message{
				{ID: 21, ConversationID: conversationID, SenderID: 5},
				{ID: 22, ConversationID: conversationID, SenderID: 5},
			}, nil
		},
	}
	broker := realtime.NewBroker()
	events, unsubscribe, _ := broker.Subscribe(context.Background(), 1)
	defer unsubscribe()

	service := NewChatService(&stubConversationStore{}, messages, &stubUserReader{}, broker)

	if err := service.MarkRead(context.Background(), 1, 2); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if len(messages.markedRead) != 2 {
		t.Fatalf("expected 2 messages flipped, got %v", messages.markedRead)
	}

	for i := 0; i < 2; i++ {
		select {
		case event := <-events:
			if event.Action != realtime.ActionUpdate || !event.Message.IsRead {
				t.Fatalf("unexpected event %+v", event)
			}
		default:
			t.Fatalf("expected update event %d on the feed", i+1)
		}
	}
}

func TestMarkReadUnknownConversation(t *testing.T) {
	conversations := &stubConversationStore{
		getFn: func(ctx context.Context, conversationID, participantID int64) (*models.Conversation, error) {
			return nil, pgx.ErrNoRows
		},
	}
	service := NewChatService(conversations, &stubMessageStore{}, &stubUserReader{}, nil)

	if err := service.MarkRead(context.Background(), 1, 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListMessagesAppliesDefaultLimit(t *testing.T) {
	var gotLimit int
	messages := &stubMessageStore{
		listFn: func(ctx context.Context, conversationID int64, limit int) ([]models.Message, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	service := NewChatService(&stubConversationStore{}, messages, &stubUserReader{}, nil)

	if _, err := service.ListMessages(context.Background(), 2, 1, 0); err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotLimit != 200 {
		t.Fatalf("expected default limit 200, got %d", gotLimit)
	}
}
