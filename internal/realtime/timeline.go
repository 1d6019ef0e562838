package realtime

import (
	"sort"

	"github.com/haritha-dev/TherapyAppBack/internal/models"
)

// Timeline is the ordered local view of one conversation's messages. It
// merges a snapshot fetch with feed events that may duplicate or race the
// snapshot: create and update are both upserts keyed by message ID, so
// replaying an event for a message already present replaces it instead of
// appending a duplicate.
type Timeline struct {
	messages []models.Message
}

func NewTimeline(snapshot []models.Message) *Timeline {
	t := &Timeline{messages: make([]models.Message, len(snapshot))}
	copy(t.messages, snapshot)
	t.sort()
	return t
}

func (t *Timeline) Apply(event Event) {
	switch event.Action {
	case ActionCreate, ActionUpdate:
		t.upsert(event.Message)
	case ActionDelete:
		t.remove(event.Message.ID)
	}
}

func (t *Timeline) Len() int {
	return len(t.messages)
}

// Messages returns a copy ordered by creation time, oldest first.
func (t *Timeline) Messages() []models.Message {
	out := make([]models.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *Timeline) upsert(message models.Message) {
	for i := range t.messages {
		if t.messages[i].ID == message.ID {
			t.messages[i] = message
			t.sort()
			return
		}
	}
	t.messages = append(t.messages, message)
	t.sort()
}

func (t *Timeline) remove(messageID int64) {
	for i := range t.messages {
		if t.messages[i].ID == messageID {
			t.messages = append(t.messages[:i], t.messages[i+1:]...)
			return
		}
	}
}

func (t *Timeline) sort() {
	sort.SliceStable(t.messages, func(i, j int) bool {
		a, b := t.messages[i], t.messages[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
