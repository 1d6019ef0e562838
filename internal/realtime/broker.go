package realtime

import (
	"context"
	"log"
	"sync"
)

const subscriberBuffer = 32

// Broker is the in-process Feed used when no Redis URL is configured and in
// tests. Events published to a conversation fan out to its live subscribers;
// a subscriber that cannot keep up has events dropped rather than blocking
// the publisher.
type Broker struct {
	mu          sync.Mutex
	subscribers map[int64]map[chan Event]struct{}
}

func NewBroker() *Broker {
	return &Broker{subscribers: make(map[int64]map[chan Event]struct{})}
}

func (b *Broker) Publish(_ context.Context, event Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subscribers[event.Message.ConversationID] {
		select {
		case ch <- event:
		default:
			log.Printf("realtime broker: dropping event for conversation %d (slow subscriber)", event.Message.ConversationID)
		}
	}
	return nil
}

func (b *Broker) Subscribe(_ context.Context, conversationID int64) (<-chan Event, UnsubscribeFunc, error) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	set, ok := b.subscribers[conversationID]
	if !ok {
		set = make(map[chan Event]struct{})
		b.subscribers[conversationID] = set
	}
	set[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			if set, ok := b.subscribers[conversationID]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(b.subscribers, conversationID)
				}
			}
			b.mu.Unlock()
			close(ch)
		})
	}

	return ch, unsubscribe, nil
}
