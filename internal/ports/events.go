package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent is the write-side shape of a loan lifecycle event. It is stored
// transactionally with the state change and published asynchronously.
type OutboxEvent struct {
	EventID    uuid.UUID
	EventType  string
	Payload    []byte
	OccurredAt time.Time
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload []byte) error
}
