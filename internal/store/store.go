// Package store persists conversations and their messages.
package store

import (
	"context"
	"errors"

	"github.com/capitalize-ai/appbuilder/internal/model"
)

// ErrNotFound is returned when a conversation does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence boundary for conversations and messages.
// Messages are append-only; AppendMessage also bumps the parent's UpdatedAt.
type Store interface {
	CreateConversation(ctx context.Context, conv *model.Conversation) error
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	// ListConversations returns the user's conversations, most recently updated first,
	// together with the total count.
	ListConversations(ctx context.Context, userID string, limit, offset int) ([]model.Conversation, int, error)
	// LatestConversation returns the user's most recently updated conversation.
	LatestConversation(ctx context.Context, userID string) (*model.Conversation, error)
	UpdateTitle(ctx context.Context, id string, title *string) error
	// DeleteConversation removes the conversation and all of its messages.
	DeleteConversation(ctx context.Context, id string) error

	AppendMessage(ctx context.Context, msg *model.Message) error
	// ListMessages returns a conversation's messages oldest first.
	ListMessages(ctx context.Context, conversationID string) ([]model.Message, error)

	Ping(ctx context.Context) error
	Close() error
}
