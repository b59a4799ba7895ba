package events

import (
	"context"
	"log/slog"
)

// LoggingPublisher writes events to the structured log. It is the default
// publisher when no broker is configured, which keeps local runs dependency-free.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, eventType string, payload []byte) error {
	p.logger.InfoContext(ctx, "published event",
		"module", "events",
		"layer", "adapter",
		"event_type", eventType,
		"payload", string(payload),
	)
	return nil
}
