package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/appbuilder/internal/model"
	"github.com/capitalize-ai/appbuilder/pkg/logger"
)

// EventPublisher receives conversation lifecycle events.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *model.ConversationEvent) error
}

// NopPublisher drops every event. It is used when NATS is not configured.
type NopPublisher struct{}

func (NopPublisher) PublishEvent(context.Context, *model.ConversationEvent) error { return nil }

// emit publishes an event. Failures are logged and never fail the request.
func emit(ctx context.Context, pub EventPublisher, log *logger.Logger, eventType model.EventType, userID, conversationID, reason string, metadata map[string]any) {
	event := &model.ConversationEvent{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		UserID:         userID,
		Type:           eventType,
		Reason:         reason,
		Metadata:       metadata,
		CreatedAt:      time.Now().UTC(),
	}
	if err := pub.PublishEvent(ctx, event); err != nil {
		log.Warn("failed to publish event",
			zap.String("type", string(eventType)),
			zap.String("conversation_id", conversationID),
			zap.Error(err),
		)
	}
}
