package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/capitalize-ai/appbuilder/internal/model"
)

// Memory is a process-local Store used when no database is configured and in tests.
type Memory struct {
	mu            sync.RWMutex
	conversations map[string]*model.Conversation
	messages      map[string][]model.Message
	now           func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		conversations: make(map[string]*model.Conversation),
		messages:      make(map[string][]model.Message),
		now:           time.Now,
	}
}

func (m *Memory) CreateConversation(_ context.Context, conv *model.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *conv
	m.conversations[c.ID] = &c
	return nil
}

func (m *Memory) GetConversation(_ context.Context, id string) (*model.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conv, ok := m.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *conv
	return &c, nil
}

func (m *Memory) ListConversations(_ context.Context, userID string, limit, offset int) ([]model.Conversation, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	owned := m.owned(userID)
	total := len(owned)

	if offset >= total {
		return []model.Conversation{}, total, nil
	}
	owned = owned[offset:]
	if limit > 0 && len(owned) > limit {
		owned = owned[:limit]
	}
	return owned, total, nil
}

func (m *Memory) LatestConversation(_ context.Context, userID string) (*model.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	owned := m.owned(userID)
	if len(owned) == 0 {
		return nil, ErrNotFound
	}
	return &owned[0], nil
}

// owned returns copies of the user's conversations sorted by UpdatedAt desc. Callers hold mu.
func (m *Memory) owned(userID string) []model.Conversation {
	var out []model.Conversation
	for _, conv := range m.conversations {
		if conv.UserID == userID {
			out = append(out, *conv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

func (m *Memory) UpdateTitle(_ context.Context, id string, title *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.conversations[id]
	if !ok {
		return ErrNotFound
	}
	if title != nil {
		t := *title
		title = &t
	}
	conv.Title = title
	conv.UpdatedAt = m.now()
	return nil
}

func (m *Memory) DeleteConversation(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conversations[id]; !ok {
		return ErrNotFound
	}
	delete(m.conversations, id)
	delete(m.messages, id)
	return nil
}

func (m *Memory) AppendMessage(_ context.Context, msg *model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.conversations[msg.ConversationID]
	if !ok {
		return ErrNotFound
	}
	m.messages[msg.ConversationID] = append(m.messages[msg.ConversationID], *msg)

	if msg.CreatedAt.After(conv.UpdatedAt) {
		conv.UpdatedAt = msg.CreatedAt
	}
	return nil
}

func (m *Memory) ListMessages(_ context.Context, conversationID string) ([]model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := m.messages[conversationID]
	out := make([]model.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
