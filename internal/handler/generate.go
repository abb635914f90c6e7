package handler

import (
	"net/http"

	"github.com/capitalize-ai/appbuilder/internal/middleware"
	"github.com/capitalize-ai/appbuilder/internal/model"
	"github.com/capitalize-ai/appbuilder/internal/service"
	"github.com/capitalize-ai/appbuilder/pkg/logger"
)

// GenerateHandler handles the generation endpoint.
type GenerateHandler struct {
	service *service.GenerationService
	logger  *logger.Logger
}

// NewGenerateHandler creates a new generate handler.
func NewGenerateHandler(svc *service.GenerationService, log *logger.Logger) *GenerateHandler {
	return &GenerateHandler{
		service: svc,
		logger:  log,
	}
}

// Generate handles POST /api/v1/generate
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.GenerateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidatePrompt(req.Prompt); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateConversationID(req.ConversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	payload, err := h.service.Generate(ctx, middleware.GetUserID(ctx), &req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, model.GenerateResponse{
		Success: true,
		Data:    payload,
	})
}
