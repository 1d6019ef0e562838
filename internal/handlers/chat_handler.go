package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/haritha-dev/TherapyAppBack/internal/models"
	"github.com/haritha-dev/TherapyAppBack/internal/services"
	chatws "github.com/haritha-dev/TherapyAppBack/internal/websocket"
	"github.com/haritha-dev/TherapyAppBack/pkg/utils"
)

type chatApplicationService interface {
	ListConversations(ctx context.Context, participantID int64) ([]models.ConversationSummary, error)
	CreateOrGetConversation(ctx context.Context, userID int64, therapistID int64) (*models.Conversation, error)
	ListMessages(ctx context.Context, actorID int64, conversationID int64, limit int) ([]models.Message, error)
	SendMessage(ctx context.Context, input services.SendMessageInput) (*models.Message, error)
	MarkRead(ctx context.Context, conversationID int64, readerID int64) error
}

type ChatHandler struct {
	service     chatApplicationService
	hub         *chatws.Hub
	attachments services.AttachmentStore
	jwtSecret   string
}

type createConversationRequest struct {
	TherapistID int64 `json:"therapist_id"`
	UserID      int64 `json:"user_id"`
}

func NewChatHandler(
	service chatApplicationService,
	hub *chatws.Hub,
	attachments services.AttachmentStore,
	jwtSecret string,
) *ChatHandler {
	return &ChatHandler{
		service:     service,
		hub:         hub,
		attachments: attachments,
		jwtSecret:   jwtSecret,
	}
}

func (h *ChatHandler) ListConversations(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	conversations, err := h.service.ListConversations(c.Context(), actorID)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"conversations": conversations})
}

// CreateConversation resolves the pair from the caller's role: users name the
// therapist, therapists name the user. Either party may initiate.
func (h *ChatHandler) CreateConversation(c *fiber.Ctx) error {
	role, ok := c.Locals("role").(string)
	if !ok || (role != models.RoleUser && role != models.RoleTherapist) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req createConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	userID, therapistID := actorID, req.TherapistID
	if role == models.RoleTherapist {
		userID, therapistID = req.UserID, actorID
	}

	conversation, err := h.service.CreateOrGetConversation(c.Context(), userID, therapistID)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"conversation": conversation})
}

func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	conversationID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || conversationID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	limit := parsePositiveInt(c.Query("limit"), 0)

	messages, err := h.service.ListMessages(c.Context(), actorID, conversationID, limit)
	if err != nil {
		return mapChatError(c, err)
	}

	return c.JSON(fiber.Map{"messages": messages})
}

// SendMessage accepts a multipart form with an optional content field and an
// optional attachment file. The attachment uploads first so the message row
// records its URL.
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	conversationID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || conversationID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	content := c.FormValue("content")

	var attachmentURL *string
	fileHeader, err := c.FormFile("attachment")
	if err == nil && fileHeader != nil {
		if h.attachments == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Attachment storage not configured"})
		}
		file, err := fileHeader.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid attachment"})
		}
		defer file.Close()

		url, err := h.attachments.Upload(c.Context(), file, fileHeader.Filename)
		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Failed to store attachment"})
		}
		attachmentURL = &url
	}

	message, err := h.service.SendMessage(c.Context(), services.SendMessageInput{
		ConversationID: conversationID,
		SenderID:       actorID,
		Content:        content,
		AttachmentURL:  attachmentURL,
	})
	if err != nil {
		return mapChatError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": message})
}

func (h *ChatHandler) MarkRead(c *fiber.Ctx) error {
	actorID, err := parseActorID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	conversationID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || conversationID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid conversation id"})
	}

	if err := h.service.MarkRead(c.Context(), conversationID, actorID); err != nil {
		return mapChatError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *ChatHandler) SignAttachment(c *fiber.Ctx) error {
	if h.attachments == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Attachment storage not configured"})
	}

	fileURL := strings.TrimSpace(c.Query("url"))
	if fileURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "url query parameter is required"})
	}

	signed, err := h.attachments.SignedURL(c.Context(), fileURL)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Failed to sign attachment url"})
	}

	return c.JSON(fiber.Map{"url": signed})
}

func (h *ChatHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	c.Locals("user_id", claims.UserID)
	c.Locals("role", claims.Role)
	return c.Next()
}

func (h *ChatHandler) HandleWebSocket(conn *websocket.Conn) {
	userIDValue, _ := conn.Locals("user_id").(string)
	userID, err := strconv.ParseInt(userIDValue, 10, 64)
	if err != nil || userID <= 0 {
		_ = conn.Close()
		return
	}

	client := chatws.NewClient(h.hub, conn, userID)
	go client.WritePump()
	client.ReadPump(h.service)
}

func (h *ChatHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}

func mapChatError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Not authenticated"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrTherapistNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Therapist not found"})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Conversation not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process chat request"})
	}
}
