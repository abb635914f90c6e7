package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/appbuilder/internal/extract"
	"github.com/capitalize-ai/appbuilder/internal/history"
	"github.com/capitalize-ai/appbuilder/internal/llm"
	"github.com/capitalize-ai/appbuilder/internal/model"
	"github.com/capitalize-ai/appbuilder/internal/prompt"
	"github.com/capitalize-ai/appbuilder/pkg/logger"
	"github.com/capitalize-ai/appbuilder/pkg/metrics"
	"github.com/capitalize-ai/appbuilder/pkg/tracing"
)

// GenerationService runs one generation round: it turns a user prompt into a file set
// and records both turns in the conversation.
type GenerationService struct {
	conversations *ConversationService
	generator     llm.Generator
	publisher     EventPublisher
	logger        *logger.Logger
	tracer        trace.Tracer
}

// NewGenerationService creates a new generation service. A nil publisher disables events.
func NewGenerationService(conversations *ConversationService, generator llm.Generator, publisher EventPublisher, log *logger.Logger) *GenerationService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &GenerationService{
		conversations: conversations,
		generator:     generator,
		publisher:     publisher,
		logger:        log,
		tracer:        tracing.Tracer("appbuilder/service"),
	}
}

// Generate handles a generation request for userID. The user turn is stored before the
// model is called and is kept when generation fails; the assistant turn is stored only
// on success. For update rounds the stored turn carries the merged file set while the
// returned payload carries only the files the model returned.
func (s *GenerationService) Generate(ctx context.Context, userID string, req *model.GenerateRequest) (payload *model.GenerationPayload, err error) {
	start := time.Now()
	mode := "fresh"

	ctx, span := s.tracer.Start(ctx, "GenerationService.Generate")
	defer func() {
		outcome := "success"
		files := 0
		if err != nil {
			outcome = "failure"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			files = len(payload.Files)
		}
		metrics.RecordGeneration(mode, outcome, time.Since(start).Seconds(), files)
		span.End()
	}()

	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, invalid("prompt", "Prompt is required")
	}
	if strings.TrimSpace(req.ConversationID) == "" {
		return nil, invalid("conversationId", "Conversation ID is required")
	}

	conv, err := s.conversations.Authorize(ctx, userID, req.ConversationID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("conversation.id", conv.ID))
	log := s.logger.With(zap.String("conversation_id", conv.ID), zap.String("user_id", userID))

	msgs, err := s.conversations.store.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, &PersistenceError{Op: "fetch messages", Err: err}
	}

	prior, priorJSON, _ := history.RecoverForPrompting(msgs)
	gc := prompt.NewContext(req.Prompt, prior, priorJSON)
	if gc.IsUpdate() {
		mode = "update"
	}
	span.SetAttributes(
		attribute.String("generation.state", string(gc.State)),
		attribute.Int("generation.prior_files", len(prior)),
	)
	fullPrompt := prompt.Assemble(gc)

	if _, err := s.conversations.appendMessage(ctx, conv.ID, model.RoleUser, req.Prompt, model.FormatText); err != nil {
		return nil, err
	}

	if conv.HasDefaultTitle() {
		title := model.TruncateTitle(strings.TrimSpace(req.Prompt))
		if err := s.conversations.store.UpdateTitle(ctx, conv.ID, &title); err != nil {
			return nil, &PersistenceError{Op: "update conversation title", Err: err}
		}
	}

	log.Info("generating", zap.String("mode", mode), zap.Int("prior_files", len(prior)))

	raw, err := s.callModel(ctx, fullPrompt)
	if err != nil {
		log.Error("generation failed", zap.Error(err))
		s.failed(ctx, userID, conv.ID, err)
		return nil, &UpstreamError{Err: err}
	}

	payload, err = extract.Extract(raw, gc.IsUpdate())
	if err != nil {
		log.Error("unusable model response", zap.Error(err), zap.Int("response_bytes", len(raw)))
		s.failed(ctx, userID, conv.ID, err)
		return nil, &UpstreamError{Err: err}
	}

	stored := &model.GenerationPayload{
		Description: payload.Description,
		Files:       payload.Files,
		IsUpdate:    payload.IsUpdate,
	}
	if gc.IsUpdate() {
		stored.Files = prior.Merge(payload.Files)
	}

	content, format, err := history.EncodeGeneration(stored)
	if err != nil {
		return nil, &PersistenceError{Op: "encode assistant message", Err: err}
	}
	if _, err := s.conversations.appendMessage(ctx, conv.ID, model.RoleAssistant, content, format); err != nil {
		return nil, err
	}

	log.Info("generation completed",
		zap.String("mode", mode),
		zap.Int("files", len(payload.Files)),
		zap.Duration("duration", time.Since(start)),
	)
	emit(ctx, s.publisher, s.logger, model.EventTypeGenerationCompleted, userID, conv.ID, "", map[string]any{
		"mode":  mode,
		"files": len(payload.Files),
	})

	return payload, nil
}

func (s *GenerationService) callModel(ctx context.Context, fullPrompt string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "llm.Generate")
	defer span.End()

	span.SetAttributes(attribute.Int("prompt.bytes", len(fullPrompt)))
	raw, err := s.generator.Generate(ctx, fullPrompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("response.bytes", len(raw)))
	return raw, nil
}

func (s *GenerationService) failed(ctx context.Context, userID, conversationID string, cause error) {
	emit(ctx, s.publisher, s.logger, model.EventTypeGenerationFailed, userID, conversationID, cause.Error(), nil)
}
