package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/appbuilder/internal/service"
	"github.com/capitalize-ai/appbuilder/pkg/logger"
)

const maxBodyBytes = 2 << 20

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps service errors to status codes.
func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error) {
	var (
		validation  *service.ValidationError
		upstream    *service.UpstreamError
		persistence *service.PersistenceError
	)

	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Message)
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "Unauthorized access to conversation")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Conversation not found")
	case errors.As(err, &upstream):
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Generation failed",
			Details: upstream.Details(),
		})
	case errors.As(err, &persistence):
		log.Error("persistence failure", zap.String("op", persistence.Op), zap.Error(persistence.Err))
		writeError(w, http.StatusInternalServerError, "Failed to "+persistence.Op)
	default:
		log.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads a JSON request body into v. An empty body leaves v untouched when
// allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, allowEmpty bool) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(body).Decode(v)
	if errors.Is(err, io.EOF) && allowEmpty {
		return nil
	}
	return err
}
