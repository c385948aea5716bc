package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/docwise/docwise/internal/assistant"
)

// ErrorResponse is the JSON body for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// writeError sends a JSON error body.
func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// statusForAskError maps engine errors to HTTP status codes.
func statusForAskError(err error) int {
	switch {
	case errors.Is(err, assistant.ErrNoContext):
		return http.StatusUnprocessableEntity
	case errors.Is(err, assistant.ErrSessionClosed):
		return http.StatusConflict
	case errors.Is(err, assistant.ErrRetrieval),
		errors.Is(err, assistant.ErrCompletion):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
