package realtime

import (
	"testing"
	"time"

	"github.com/haritha-dev/TherapyAppBack/internal/models"
)

func messageAt(id int64, at time.Time) models.Message {
	return models.Message{ID: id, ConversationID: 1, SenderID: 2, Content: "hello", CreatedAt: at}
}

func TestTimelineOrdersSnapshot(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	timeline := NewTimeline([]models.Message{
		messageAt(3, base.Add(2*time.Minute)),
		messageAt(1, base),
		messageAt(2, base.Add(time.Minute)),
	})

	messages := timeline.Messages()
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	for i, want := range []int64{1, 2, 3} {
		if messages[i].ID != want {
			t.Fatalf("position %d: expected message %d, got %d", i, want, messages[i].ID)
		}
	}
}

func TestTimelineCreateIsUpsert(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	timeline := NewTimeline([]models.Message{messageAt(1, base)})

	// Replaying a create for a message already in the snapshot must not
	// duplicate it.
	timeline.Apply(Event{Action: ActionCreate, Message: messageAt(1, base)})
	if timeline.Len() != 1 {
		t.Fatalf("expected 1 message after duplicate create, got %d", timeline.Len())
	}

	timeline.Apply(Event{Action: ActionCreate, Message: messageAt(2, base.Add(time.Minute))})
	if timeline.Len() != 2 {
		t.Fatalf("expected 2 messages, got %d", timeline.Len())
	}
}

func TestTimelineUpdateReplacesInPlace(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	timeline := NewTimeline([]models.Message{messageAt(1, base), messageAt(2, base.Add(time.Minute))})

	read := messageAt(1, base)
	read.IsRead = true
	timeline.Apply(Event{Action: ActionUpdate, Message: read})

	messages := timeline.Messages()
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages after update, got %d", len(messages))
	}
	if !messages[0].IsRead {
		t.Fatal("expected message 1 to be marked read")
	}
	if messages[1].IsRead {
		t.Fatal("expected message 2 untouched")
	}
}

func TestTimelineUpdateForUnknownMessageInserts(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	timeline := NewTimeline(nil)

	timeline.Apply(Event{Action: ActionUpdate, Message: messageAt(5, base)})
	if timeline.Len() != 1 {
		t.Fatalf("expected update of unseen message to insert it, got %d messages", timeline.Len())
	}
}

func TestTimelineDelete(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	timeline := NewTimeline([]models.Message{messageAt(1, base), messageAt(2, base.Add(time.Minute))})

	timeline.Apply(Event{Action: ActionDelete, Message: models.Message{ID: 1}})
	messages := timeline.Messages()
	if len(messages) != 1 || messages[0].ID != 2 {
		t.Fatalf("unexpected messages after delete: %+v", messages)
	}

	// Deleting an unknown message is a no-op.
	timeline.Apply(Event{Action: ActionDelete, Message: models.Message{ID: 9}})
	if timeline.Len() != 1 {
		t.Fatalf("expected delete of unknown message to be ignored, got %d", timeline.Len())
	}
}

func TestTimelineTiesBreakOnID(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	timeline := NewTimeline([]models.Message{messageAt(4, at), messageAt(2, at)})

	messages := timeline.Messages()
	if messages[0].ID != 2 || messages[1].ID != 4 {
		t.Fatalf("expected ID order for equal timestamps, got %+v", messages)
	}
}
