package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisFeed carries conversation events over Redis pub/sub so pushes reach
// subscribers on every server instance, one channel per conversation.
type RedisFeed struct {
	client *redis.Client
}

func NewRedisFeed(client *redis.Client) *RedisFeed {
	return &RedisFeed{client: client}
}

func (f *RedisFeed) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return f.client.Publish(ctx, channelName(event.Message.ConversationID), payload).Err()
}

func (f *RedisFeed) Subscribe(ctx context.Context, conversationID int64) (<-chan Event, UnsubscribeFunc, error) {
	pubsub := f.client.Subscribe(ctx, channelName(conversationID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe conversation %d: %w", conversationID, err)
	}

	events := make(chan Event, subscriberBuffer)
	go func() {
		defer close(events)
		for msg := range pubsub.Channel() {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("realtime redis: bad event payload on %s: %v", msg.Channel, err)
				continue
			}
			select {
			case events <- event:
			default:
				log.Printf("realtime redis: dropping event for conversation %d (slow subscriber)", conversationID)
			}
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			// Closing the pubsub ends the forwarding goroutine, which closes events.
			_ = pubsub.Close()
		})
	}

	return events, unsubscribe, nil
}

func channelName(conversationID int64) string {
	return fmt.Sprintf("chat.conversation.%d", conversationID)
}
