package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/capitalize-ai/appbuilder/internal/model"
	"github.com/capitalize-ai/appbuilder/pkg/logger"
	"github.com/capitalize-ai/appbuilder/pkg/metrics"
)

const (
	// StreamName is the name of the conversation events stream.
	StreamName = "APPBUILDER_EVENTS"

	// SubjectPrefix is the prefix for all event subjects.
	SubjectPrefix = "appbuilder"
)

// EventPublisher writes conversation lifecycle events to JetStream.
type EventPublisher struct {
	client *Client
	logger *logger.Logger
}

// NewEventPublisher creates a new event publisher.
func NewEventPublisher(client *Client, log *logger.Logger) *EventPublisher {
	return &EventPublisher{client: client, logger: log}
}

// EnsureStream ensures the events stream exists with proper configuration.
func (p *EventPublisher) EnsureStream(ctx context.Context) error {
	js := p.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		MaxBytes:    1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Conversation and generation lifecycle events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// EventSubject returns the subject for an event.
func EventSubject(conversationID string, eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, eventType, conversationID)
}

// PublishEvent publishes an event to JetStream.
func (p *EventPublisher) PublishEvent(ctx context.Context, event *model.ConversationEvent) error {
	subject := EventSubject(event.ConversationID, event.Type)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := p.client.JetStream().Publish(ctx, subject, data, jetstream.WithMsgID(event.ID))
	if err != nil {
		metrics.RecordEvent(string(event.Type), "error")
		return fmt.Errorf("failed to publish event: %w", err)
	}

	metrics.RecordEvent(string(event.Type), "ok")
	p.logger.Debug("event published",
		zap.String("subject", subject),
		zap.Uint64("sequence", ack.Sequence),
	)
	return nil
}
