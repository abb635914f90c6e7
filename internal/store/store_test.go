package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/appbuilder/internal/model"
)

// runStoreSuite exercises behaviour every Store implementation must share.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	newConv := func(userID string, at time.Time) *model.Conversation {
		return &model.Conversation{
			ID:        uuid.Must(uuid.NewV7()).String(),
			UserID:    userID,
			CreatedAt: at,
			UpdatedAt: at,
		}
	}
	newMsg := func(convID string, role model.Role, content string, at time.Time) *model.Message {
		return &model.Message{
			ID:             uuid.Must(uuid.NewV7()).String(),
			ConversationID: convID,
			Role:           role,
			Content:        content,
			Format:         model.FormatText,
			CreatedAt:      at,
		}
	}

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetConversation(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("append orders messages and bumps updated_at", func(t *testing.T) {
		s := newStore(t)
		conv := newConv("user-1", base)
		require.NoError(t, s.CreateConversation(ctx, conv))

		require.NoError(t, s.AppendMessage(ctx, newMsg(conv.ID, model.RoleUser, "first", base.Add(time.Second))))
		require.NoError(t, s.AppendMessage(ctx, newMsg(conv.ID, model.RoleAssistant, "second", base.Add(2*time.Second))))

		msgs, err := s.ListMessages(ctx, conv.ID)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "first", msgs[0].Content)
		assert.Equal(t, "second", msgs[1].Content)
		assert.Equal(t, model.FormatText, msgs[1].Format)

		got, err := s.GetConversation(ctx, conv.ID)
		require.NoError(t, err)
		assert.True(t, got.UpdatedAt.Equal(base.Add(2*time.Second)), "updated_at = %s", got.UpdatedAt)
	})

	t.Run("append to missing conversation", func(t *testing.T) {
		s := newStore(t)
		err := s.AppendMessage(ctx, newMsg(uuid.NewString(), model.RoleUser, "x", base))
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list is per user and most recent first", func(t *testing.T) {
		s := newStore(t)
		older := newConv("user-1", base)
		newer := newConv("user-1", base.Add(time.Minute))
		other := newConv("user-2", base.Add(time.Hour))
		for _, c := range []*model.Conversation{older, newer, other} {
			require.NoError(t, s.CreateConversation(ctx, c))
		}

		convs, total, err := s.ListConversations(ctx, "user-1", 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, convs, 2)
		assert.Equal(t, newer.ID, convs[0].ID)
		assert.Equal(t, older.ID, convs[1].ID)

		// a new message moves the older conversation to the top
		require.NoError(t, s.AppendMessage(ctx, newMsg(older.ID, model.RoleUser, "hi", base.Add(2*time.Minute))))
		latest, err := s.LatestConversation(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, older.ID, latest.ID)

		page, total, err := s.ListConversations(ctx, "user-1", 1, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, page, 1)
		assert.Equal(t, newer.ID, page[0].ID)
	})

	t.Run("latest with no conversations", func(t *testing.T) {
		s := newStore(t)
		_, err := s.LatestConversation(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update title", func(t *testing.T) {
		s := newStore(t)
		conv := newConv("user-1", base)
		require.NoError(t, s.CreateConversation(ctx, conv))

		title := "Todo app"
		require.NoError(t, s.UpdateTitle(ctx, conv.ID, &title))

		got, err := s.GetConversation(ctx, conv.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Title)
		assert.Equal(t, "Todo app", *got.Title)

		assert.ErrorIs(t, s.UpdateTitle(ctx, uuid.NewString(), &title), ErrNotFound)
	})

	t.Run("delete cascades", func(t *testing.T) {
		s := newStore(t)
		conv := newConv("user-1", base)
		require.NoError(t, s.CreateConversation(ctx, conv))
		require.NoError(t, s.AppendMessage(ctx, newMsg(conv.ID, model.RoleUser, "hi", base.Add(time.Second))))

		require.NoError(t, s.DeleteConversation(ctx, conv.ID))

		_, err := s.GetConversation(ctx, conv.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		msgs, err := s.ListMessages(ctx, conv.ID)
		require.NoError(t, err)
		assert.Empty(t, msgs)

		assert.ErrorIs(t, s.DeleteConversation(ctx, conv.ID), ErrNotFound)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store { return NewMemory() })
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	conv := &model.Conversation{ID: uuid.NewString(), UserID: "u", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, s.CreateConversation(ctx, conv))

	got, err := s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	got.UserID = "mutated"

	again, err := s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "u", again.UserID)
}
