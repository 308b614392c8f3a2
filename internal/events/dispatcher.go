package events

import (
	"context"
	"time"
)

const (
	ContactUpdated = "contact.updated"
	ContactCreated = "contact.created"
)

type Event struct {
	Name      string         `json:"name"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload"`
}

// Dispatcher fans events out to whatever is listening (webhooks, widget
// pubsub). Fire-and-forget: callers do not depend on delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, timestamp time.Time, payload map[string]any)
	Close() error
}
