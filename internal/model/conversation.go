// Package model defines data structures for the app builder.
package model

import (
	"strings"
	"time"
)

// DefaultTitle is the title sentinel of a conversation that has not been named yet.
const DefaultTitle = "New Chat"

// Conversation represents a conversation thread owned by one user.
type Conversation struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	Title     *string   `json:"title" db:"title"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// HasDefaultTitle reports whether the title is still unset or the "New Chat" sentinel.
func (c *Conversation) HasDefaultTitle() bool {
	return c.Title == nil || *c.Title == DefaultTitle
}

// DisplayTitle returns the title shown in conversation lists: the stored title when it
// was set, else the first user message, else the default sentinel.
func (c *Conversation) DisplayTitle(messages []Message) string {
	if c.Title != nil && *c.Title != DefaultTitle && strings.TrimSpace(*c.Title) != "" {
		return *c.Title
	}
	for _, msg := range messages {
		if msg.Role == RoleUser && strings.TrimSpace(msg.Content) != "" {
			return TruncateTitle(msg.Content)
		}
	}
	return DefaultTitle
}

// TitleMaxRunes is the number of prompt characters kept when a title is bootstrapped.
const TitleMaxRunes = 50

// TruncateTitle shortens a prompt to a conversation title.
func TruncateTitle(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= TitleMaxRunes {
		return prompt
	}
	return string(runes[:TitleMaxRunes]) + "..."
}

// ConversationState describes how far a conversation has progressed.
type ConversationState string

const (
	// StateEmpty means no generated codebase exists yet.
	StateEmpty ConversationState = "empty"
	// StateInProgress means a previous turn produced a codebase that is being refined.
	StateInProgress ConversationState = "in_progress"
)

// CreateConversationRequest is the request to create a new conversation.
type CreateConversationRequest struct {
	Title *string `json:"title,omitempty"`
}

// UpdateConversationRequest is the request to rename a conversation.
type UpdateConversationRequest struct {
	Title string `json:"title"`
}

// ConversationView is a conversation as returned to clients.
type ConversationView struct {
	Conversation
	DisplayTitle string `json:"displayTitle"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []ConversationView `json:"conversations"`
	Total         int                `json:"total"`
	HasMore       bool               `json:"hasMore"`
}
