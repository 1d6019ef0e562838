package realtime

import (
	"context"

	"github.com/haritha-dev/TherapyAppBack/internal/models"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Event is one change to a conversation's message set, pushed to every
// subscriber of that conversation. Delivery order matches publish order per
// subscription; ordering relative to a snapshot fetched separately is not
// guaranteed, which is why consumers merge through Timeline.
type Event struct {
	Action  Action         `json:"action"`
	Message models.Message `json:"record"`
}

// UnsubscribeFunc stops delivery and releases the subscription's channel.
// Safe to call more than once.
type UnsubscribeFunc func()

type Feed interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(ctx context.Context, conversationID int64) (<-chan Event, UnsubscribeFunc, error)
}
