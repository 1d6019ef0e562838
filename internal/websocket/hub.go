package chatws

import (
	"context"
	"encoding/json"
	"log"
	"time"

	websocket "github.com/gofiber/contrib/websocket"

	"github.com/haritha-dev/TherapyAppBack/internal/models"
	"github.com/haritha-dev/TherapyAppBack/internal/realtime"
	"github.com/haritha-dev/TherapyAppBack/internal/services"
)

// Hub fans conversation events out to connected clients. Each conversation
// with at least one joined client holds one feed subscription and a Timeline
// reconciling the snapshot with pushed events, so late joiners receive the
// merged history instead of re-reading the store.
type Hub struct {
	feed   realtime.Feed
	join   chan joinRequest
	leave  chan leaveRequest
	detach chan *Client
	events chan roomEvent
	rooms  map[int64]*room
}

type room struct {
	clients     map[*Client]struct{}
	timeline    *realtime.Timeline
	unsubscribe realtime.UnsubscribeFunc
}

type joinRequest struct {
	client         *Client
	conversationID int64
	snapshot       []models.Message
}

type leaveRequest struct {
	client         *Client
	conversationID int64
}

type roomEvent struct {
	conversationID int64
	event          realtime.Event
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID int64
	send   chan []byte
}

type chatSender interface {
	SendMessage(ctx context.Context, input services.SendMessageInput) (*models.Message, error)
	MarkRead(ctx context.Context, conversationID int64, readerID int64) error
	ListMessages(ctx context.Context, actorID int64, conversationID int64, limit int) ([]models.Message, error)
}

// Frame is the wire shape in both directions. Inbound types: join, leave,
// message, read. Outbound types: history, event, error.
type Frame struct {
	Type           string           `json:"type"`
	ConversationID int64            `json:"conversation_id,omitempty"`
	Action         realtime.Action  `json:"action,omitempty"`
	Message        *models.Message  `json:"message,omitempty"`
	Messages       []models.Message `json:"messages,omitempty"`
	Content        string           `json:"content,omitempty"`
	AttachmentURL  *string          `json:"attachment_url,omitempty"`
	Error          string           `json:"error,omitempty"`
	Timestamp      string           `json:"timestamp,omitempty"`
}

func NewHub(feed realtime.Feed) *Hub {
	return &Hub{
		feed:   feed,
		join:   make(chan joinRequest),
		leave:  make(chan leaveRequest),
		detach: make(chan *Client),
		events: make(chan roomEvent, 64),
		rooms:  make(map[int64]*room),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int64) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case request := <-h.join:
			h.handleJoin(request)
		case request := <-h.leave:
			h.removeFromRoom(request.conversationID, request.client)
		case client := <-h.detach:
			for conversationID := range h.rooms {
				h.removeFromRoom(conversationID, client)
			}
			close(client.send)
		case event := <-h.events:
			h.deliver(event)
		}
	}
}

func (h *Hub) Join(client *Client, conversationID int64, snapshot []models.Message) {
	h.join <- joinRequest{client: client, conversationID: conversationID, snapshot: snapshot}
}

func (h *Hub) Leave(client *Client, conversationID int64) {
	h.leave <- leaveRequest{client: client, conversationID: conversationID}
}

func (h *Hub) Detach(client *Client) {
	h.detach <- client
}

func (h *Hub) handleJoin(request joinRequest) {
	existing, ok := h.rooms[request.conversationID]
	if !ok {
		events, unsubscribe, err := h.feed.Subscribe(context.Background(), request.conversationID)
		if err != nil {
			log.Printf("chat hub: subscribe conversation %d: %v", request.conversationID, err)
			request.client.enqueue(encodeFrame(&Frame{
				Type:           "error",
				ConversationID: request.conversationID,
				Error:          "subscription failed",
				Timestamp:      formatTimestamp(time.Now().UTC()),
			}))
			return
		}

		existing = &room{
			clients:     make(map[*Client]struct{}),
			timeline:    realtime.NewTimeline(request.snapshot),
			unsubscribe: unsubscribe,
		}
		h.rooms[request.conversationID] = existing

		conversationID := request.conversationID
		go func() {
			for event := range events {
				h.events <- roomEvent{conversationID: conversationID, event: event}
			}
		}()
	}

	existing.clients[request.client] = struct{}{}
	request.client.enqueue(encodeFrame(&Frame{
		Type:           "history",
		ConversationID: request.conversationID,
		Messages:       existing.timeline.Messages(),
		Timestamp:      formatTimestamp(time.Now().UTC()),
	}))
}

func (h *Hub) removeFromRoom(conversationID int64, client *Client) {
	existing, ok := h.rooms[conversationID]
	if !ok {
		return
	}
	delete(existing.clients, client)
	if len(existing.clients) == 0 {
		existing.unsubscribe()
		delete(h.rooms, conversationID)
	}
}

func (h *Hub) deliver(event roomEvent) {
	existing, ok := h.rooms[event.conversationID]
	if !ok {
		return
	}

	existing.timeline.Apply(event.event)

	message := event.event.Message
	payload := encodeFrame(&Frame{
		Type:           "event",
		ConversationID: event.conversationID,
		Action:         event.event.Action,
		Message:        &message,
		Timestamp:      formatTimestamp(time.Now().UTC()),
	})
	if payload == nil {
		return
	}

	for client := range existing.clients {
		select {
		case client.send <- payload:
		default:
			// Slow consumer: drop it from the room. Its channel is closed
			// once on detach, when the connection itself goes away.
			delete(existing.clients, client)
		}
	}
	if len(existing.clients) == 0 {
		existing.unsubscribe()
		delete(h.rooms, event.conversationID)
	}
}

func (c *Client) ReadPump(service chatSender) {
	defer func() {
		c.hub.Detach(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming Frame
		if err := json.Unmarshal(payload, &incoming); err != nil {
			c.writeError(0, "invalid frame payload")
			continue
		}
		if incoming.ConversationID <= 0 {
			c.writeError(0, "invalid conversation id")
			continue
		}

		switch incoming.Type {
		case "join":
			snapshot, err := service.ListMessages(context.Background(), c.userID, incoming.ConversationID, 0)
			if err != nil {
				c.writeError(incoming.ConversationID, "failed to join conversation")
				continue
			}
			c.hub.Join(c, incoming.ConversationID, snapshot)
		case "leave":
			c.hub.Leave(c, incoming.ConversationID)
		case "message":
			_, err := service.SendMessage(context.Background(), services.SendMessageInput{
				ConversationID: incoming.ConversationID,
				SenderID:       c.userID,
				Content:        incoming.Content,
				AttachmentURL:  incoming.AttachmentURL,
			})
			if err != nil {
				c.writeError(incoming.ConversationID, "failed to send message")
			}
			// Delivery to subscribers happens through the feed event.
		case "read":
			if err := service.MarkRead(context.Background(), incoming.ConversationID, c.userID); err != nil {
				c.writeError(incoming.ConversationID, "failed to mark conversation read")
			}
		default:
			c.writeError(incoming.ConversationID, "unsupported frame type")
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func (c *Client) enqueue(payload []byte) {
	if payload == nil {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}

func (c *Client) writeError(conversationID int64, message string) {
	c.enqueue(encodeFrame(&Frame{
		Type:           "error",
		ConversationID: conversationID,
		Error:          message,
		Timestamp:      formatTimestamp(time.Now().UTC()),
	}))
}

func encodeFrame(frame *Frame) []byte {
	payload, err := json.Marshal(frame)
	if err != nil {
		log.Printf("chat hub: encode frame: %v", err)
		return nil
	}
	return payload
}

func formatTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
