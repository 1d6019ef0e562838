package routes

import (
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/haritha-dev/TherapyAppBack/internal/config"
	"github.com/haritha-dev/TherapyAppBack/internal/handlers"
	"github.com/haritha-dev/TherapyAppBack/internal/middleware"
	"github.com/haritha-dev/TherapyAppBack/internal/realtime"
	"github.com/haritha-dev/TherapyAppBack/internal/repository"
	"github.com/haritha-dev/TherapyAppBack/internal/services"
	chatws "github.com/haritha-dev/TherapyAppBack/internal/websocket"
)

// RegisterRoutes wires every dependency explicitly; nothing reaches for a
// package global.
func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, feed realtime.Feed) {
	userRepo := repository.NewUserRepository(db)
	therapistProfileRepo := repository.NewTherapistProfileRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	var attachments services.AttachmentStore
	if cfg.SupabaseURL != "" && cfg.SupabaseBucket != "" && cfg.SupabaseServiceKey != "" {
		attachments = services.NewSupabaseAttachmentStore(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey)
	}

	chatService := services.NewChatService(conversationRepo, messageRepo, userRepo, feed)
	bookingService := services.NewBookingService(db, bookingRepo, paymentRepo, userRepo, therapistProfileRepo)

	chatHub := chatws.NewHub(feed)
	go chatHub.Run()

	chatHandler := handlers.NewChatHandler(chatService, chatHub, attachments, cfg.JWTSecret)
	bookingHandler := handlers.NewBookingHandler(bookingService)

	api := app.Group("/api")
	authProtected := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	conversations := authProtected.Group("/conversations")
	conversations.Get("", chatHandler.ListConversations)
	conversations.Post("", chatHandler.CreateConversation)
	conversations.Get("/:id/messages", chatHandler.GetMessages)
	conversations.Post("/:id/messages", chatHandler.SendMessage)
	conversations.Post("/:id/read", chatHandler.MarkRead)

	authProtected.Get("/attachments/sign", chatHandler.SignAttachment)

	therapists := authProtected.Group("/therapists")
	therapists.Get("/:id/availability", bookingHandler.GetAvailability)

	bookings := authProtected.Group("/bookings")
	bookings.Post("", bookingHandler.SubmitRequest)
	bookings.Get("", bookingHandler.ListBookings)
	bookings.Get("/:id", bookingHandler.GetBooking)
	bookings.Put("/:id/status", bookingHandler.UpdateStatus)
	bookings.Post("/:id/pay", bookingHandler.PayForBooking)

	api.Use("/v1/ws", chatHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(chatHandler.HandleWebSocket))
}
