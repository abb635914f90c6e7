// Package service provides the business logic of the app builder.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/appbuilder/internal/history"
	"github.com/capitalize-ai/appbuilder/internal/model"
	"github.com/capitalize-ai/appbuilder/internal/store"
	"github.com/capitalize-ai/appbuilder/pkg/logger"
	"github.com/capitalize-ai/appbuilder/pkg/metrics"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ConversationService handles conversation operations.
type ConversationService struct {
	store     store.Store
	publisher EventPublisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewConversationService creates a new conversation service. A nil publisher disables events.
func NewConversationService(s store.Store, publisher EventPublisher, log *logger.Logger) *ConversationService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &ConversationService{
		store:     s,
		publisher: publisher,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create creates a new conversation owned by userID.
func (s *ConversationService) Create(ctx context.Context, userID string, req *model.CreateConversationRequest) (*model.Conversation, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	now := s.now()
	conv := &model.Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req != nil && req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title != "" {
			conv.Title = &title
		}
	}

	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, &PersistenceError{Op: "create conversation", Err: err}
	}

	metrics.RecordConversation()
	s.logger.Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("user_id", userID),
	)
	emit(ctx, s.publisher, s.logger, model.EventTypeConversationCreated, userID, conv.ID, "", nil)

	return conv, nil
}

// GetOrCreateDefault returns the user's most recently updated conversation, creating
// one when the user has none.
func (s *ConversationService) GetOrCreateDefault(ctx context.Context, userID string) (*model.Conversation, bool, error) {
	if userID == "" {
		return nil, false, ErrUnauthenticated
	}

	conv, err := s.store.LatestConversation(ctx, userID)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, &PersistenceError{Op: "load conversations", Err: err}
	}

	conv, err = s.Create(ctx, userID, nil)
	if err != nil {
		return nil, false, err
	}
	return conv, true, nil
}

// Authorize loads a conversation and checks that userID owns it.
func (s *ConversationService) Authorize(ctx context.Context, userID, conversationID string) (*model.Conversation, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(conversationID) == "" {
		return nil, invalid("conversationId", "Conversation ID is required")
	}
	if _, err := uuid.Parse(conversationID); err != nil {
		return nil, invalid("conversationId", "invalid conversation ID")
	}

	conv, err := s.store.GetConversation(ctx, conversationID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "fetch conversation", Err: err}
	}

	if conv.UserID != userID {
		s.logger.Warn("conversation access denied",
			zap.String("conversation_id", conversationID),
			zap.String("user_id", userID),
		)
		return nil, ErrForbidden
	}

	return conv, nil
}

// Get retrieves a conversation with its display title.
func (s *ConversationService) Get(ctx context.Context, userID, conversationID string) (*model.ConversationView, error) {
	conv, err := s.Authorize(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, conv)
}

func (s *ConversationService) view(ctx context.Context, conv *model.Conversation) (*model.ConversationView, error) {
	var msgs []model.Message
	if conv.HasDefaultTitle() || strings.TrimSpace(*conv.Title) == "" {
		var err error
		msgs, err = s.store.ListMessages(ctx, conv.ID)
		if err != nil {
			return nil, &PersistenceError{Op: "fetch messages", Err: err}
		}
	}
	return &model.ConversationView{Conversation: *conv, DisplayTitle: conv.DisplayTitle(msgs)}, nil
}

// List lists the user's conversations, most recently updated first.
func (s *ConversationService) List(ctx context.Context, userID string, limit, offset int) (*model.ListConversationsResponse, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	convs, total, err := s.store.ListConversations(ctx, userID, limit, offset)
	if err != nil {
		return nil, &PersistenceError{Op: "fetch conversations", Err: err}
	}

	views := make([]model.ConversationView, 0, len(convs))
	for i := range convs {
		v, err := s.view(ctx, &convs[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}

	return &model.ListConversationsResponse{
		Conversations: views,
		Total:         total,
		HasMore:       offset+len(convs) < total,
	}, nil
}

// UpdateTitle renames a conversation.
func (s *ConversationService) UpdateTitle(ctx context.Context, userID, conversationID string, req *model.UpdateConversationRequest) (*model.ConversationView, error) {
	conv, err := s.Authorize(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalid("title", "Title is required")
	}

	if err := s.store.UpdateTitle(ctx, conv.ID, &title); err != nil {
		return nil, &PersistenceError{Op: "update conversation", Err: err}
	}
	conv.Title = &title

	return s.view(ctx, conv)
}

// Delete removes a conversation and its messages.
func (s *ConversationService) Delete(ctx context.Context, userID, conversationID string) error {
	conv, err := s.Authorize(ctx, userID, conversationID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteConversation(ctx, conv.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return &PersistenceError{Op: "delete conversation", Err: err}
	}

	s.logger.Info("conversation deleted",
		zap.String("conversation_id", conv.ID),
		zap.String("user_id", userID),
	)
	emit(ctx, s.publisher, s.logger, model.EventTypeConversationDeleted, userID, conv.ID, "", nil)

	return nil
}

// Transcript returns the conversation prepared for display: chat turns, the current
// file set and the conversation state.
func (s *ConversationService) Transcript(ctx context.Context, userID, conversationID string) (*model.Transcript, error) {
	conv, err := s.Authorize(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.store.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, &PersistenceError{Op: "fetch messages", Err: err}
	}

	transcript := history.RecoverForDisplay(msgs)
	return &transcript, nil
}

// AppendMessage stores a plain-text message in a conversation the user owns.
func (s *ConversationService) AppendMessage(ctx context.Context, userID, conversationID string, req *model.AppendMessageRequest) (*model.Message, error) {
	if !req.Role.Valid() {
		return nil, invalid("role", "role must be USER or ASSISTANT")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, invalid("content", "content is required")
	}

	conv, err := s.Authorize(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	return s.appendMessage(ctx, conv.ID, req.Role, req.Content, model.FormatText)
}

func (s *ConversationService) appendMessage(ctx context.Context, conversationID string, role model.Role, content string, format model.Format) (*model.Message, error) {
	msg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Format:         format,
		CreatedAt:      s.now(),
	}

	if err := s.store.AppendMessage(ctx, msg); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "save message", Err: err}
	}

	metrics.RecordMessage(string(role))
	return msg, nil
}
