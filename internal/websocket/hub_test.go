package chatws

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/haritha-dev/TherapyAppBack/internal/models"
	"github.com/haritha-dev/TherapyAppBack/internal/realtime"
)

type stubFeed struct {
	events       chan realtime.Event
	subscribed   chan int64
	unsubscribed chan int64
}

func newStubFeed() *stubFeed {
	return &stubFeed{
		events:       make(chan realtime.Event, 64),
		subscribed:   make(chan int64, 4),
		unsubscribed: make(chan int64, 4),
	}
}

func (f *stubFeed) Publish(_ context.Context, _ realtime.Event) error {
	return nil
}

func (f *stubFeed) Subscribe(_ context.Context, conversationID int64) (<-chan realtime.Event, realtime.UnsubscribeFunc, error) {
	f.subscribed <- conversationID
	var once sync.Once
	return f.events, func() {
		once.Do(func() { f.unsubscribed <- conversationID })
	}, nil
}

func readFrame(t *testing.T, client *Client) Frame {
	t.Helper()
	select {
	case payload := <-client.send:
		var frame Frame
		if err := json.Unmarshal(payload, &frame); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		return frame
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a frame")
		return Frame{}
	}
}

func expectSignal(t *testing.T, ch chan int64, what string) int64 {
	t.Helper()
	select {
	case id := <-ch:
		return id
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %s", what)
		return 0
	}
}

func TestHubFansOutEventsToJoinedClients(t *testing.T) {
	feed := newStubFeed()
	hub := NewHub(feed)
	go hub.Run()

	first := NewClient(hub, nil, 1)
	second := NewClient(hub, nil, 2)

	snapshot := []models.Message{{ID: 10, ConversationID: 7, SenderID: 2, Content: "hello"}}
	hub.Join(first, 7, snapshot)

	if id := expectSignal(t, feed.subscribed, "feed subscription"); id != 7 {
		t.Fatalf("subscribed to conversation %d, want 7", id)
	}

	history := readFrame(t, first)
	if history.Type != "history" || history.ConversationID != 7 {
		t.Fatalf("unexpected first frame %+v", history)
	}
	if len(history.Messages) != 1 || history.Messages[0].ID != 10 {
		t.Fatalf("unexpected history payload %+v", history.Messages)
	}

	// A late joiner gets the room's merged timeline and must not open a
	// second feed subscription.
	hub.Join(second, 7, nil)
	history = readFrame(t, second)
	if history.Type != "history" || len(history.Messages) != 1 {
		t.Fatalf("unexpected late-join history %+v", history)
	}
	select {
	case id := <-feed.subscribed:
		t.Fatalf("unexpected extra subscription to conversation %d", id)
	default:
	}

	feed.events <- realtime.Event{
		Action:  realtime.ActionCreate,
		Message: models.Message{ID: 11, ConversationID: 7, SenderID: 1, Content: "hi back"},
	}

	for _, client := range []*Client{first, second} {
		frame := readFrame(t, client)
		if frame.Type != "event" || frame.Action != realtime.ActionCreate {
			t.Fatalf("unexpected frame %+v", frame)
		}
		if frame.Message == nil || frame.Message.ID != 11 {
			t.Fatalf("unexpected event message %+v", frame.Message)
		}
	}

	hub.Leave(first, 7)
	select {
	case id := <-feed.unsubscribed:
		t.Fatalf("room released with a client still joined (conversation %d)", id)
	case <-time.After(50 * time.Millisecond):
	}

	hub.Leave(second, 7)
	if id := expectSignal(t, feed.unsubscribed, "feed release"); id != 7 {
		t.Fatalf("unsubscribed conversation %d, want 7", id)
	}
}

func TestHubDropsSlowClientAndReleasesRoom(t *testing.T) {
	feed := newStubFeed()
	hub := NewHub(feed)
	go hub.Run()

	client := NewClient(hub, nil, 1)
	hub.Join(client, 3, nil)
	expectSignal(t, feed.subscribed, "feed subscription")
	readFrame(t, client)

	// Never drain the client; once its send buffer is full the hub drops it,
	// and the now-empty room releases its subscription.
	for i := 0; i < cap(client.send)+1; i++ {
		feed.events <- realtime.Event{
			Action:  realtime.ActionCreate,
			Message: models.Message{ID: int64(100 + i), ConversationID: 3, SenderID: 2, Content: "backlog"},
		}
	}

	if id := expectSignal(t, feed.unsubscribed, "feed release"); id != 3 {
		t.Fatalf("unsubscribed conversation %d, want 3", id)
	}
}
