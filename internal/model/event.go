package model

import (
	"time"
)

// EventType represents the type of conversation event.
type EventType string

const (
	EventTypeConversationCreated EventType = "conversation_created"
	EventTypeConversationDeleted EventType = "conversation_deleted"
	EventTypeGenerationCompleted EventType = "generation_completed"
	EventTypeGenerationFailed    EventType = "generation_failed"
)

// ConversationEvent represents an event in a conversation.
type ConversationEvent struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id"`
	UserID         string         `json:"user_id"`
	Type           EventType      `json:"type"`
	Reason         string         `json:"reason,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
