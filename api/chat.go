package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/docwise/docwise/internal/assistant"
)

// maxQuestionBytes bounds the request body.
const maxQuestionBytes = 64 * 1024

// ChatHandler serves question endpoints.
type ChatHandler struct {
	registry *SessionRegistry
	logger   *slog.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(registry *SessionRegistry, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{registry: registry, logger: logger}
}

// RegisterRoutes wires the chat endpoints into mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.handleChat)
	mux.HandleFunc("POST /api/chat/stream", h.handleChatStream)
}

// ChatRequest is the body of both chat endpoints.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

// ChatResponse is the synchronous answer.
type ChatResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
}

// streamChunk is the payload of an SSE "chunk" event.
type streamChunk struct {
	Content string `json:"content"`
}

// streamDone is the payload of an SSE "done" event.
type streamDone struct {
	Response   string `json:"response"`
	Incomplete bool   `json:"incomplete,omitempty"`
}

// streamError is the payload of an SSE "error" event.
type streamError struct {
	Error string `json:"error"`
}

func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	req, session, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	answer, err := session.Ask(r.Context(), req.Question, nil)
	if err != nil {
		h.logger.Error("chat request failed", "session_id", req.SessionID, "error", err)
		writeError(w, h.logger, statusForAskError(err), err.Error())
		return
	}
	writeJSON(w, h.logger, http.StatusOK, ChatResponse{
		SessionID: req.SessionID,
		Response:  answer,
	})
}

func (h *ChatHandler) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, session, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, h.logger, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	emit := func(_ context.Context, fragment string) error {
		if err := writeEvent(w, "chunk", streamChunk{Content: fragment}); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	answer, err := session.Ask(r.Context(), req.Question, emit)
	if err != nil {
		// Headers are already sent; the error has to travel in-band.
		h.logger.Error("chat stream failed", "session_id", req.SessionID, "error", err)
		if answer != "" {
			// Partial answer was committed; tell the client what survived.
			_ = writeEvent(w, "done", streamDone{Response: answer, Incomplete: true})
		} else {
			_ = writeEvent(w, "error", streamError{Error: err.Error()})
		}
		flusher.Flush()
		return
	}
	if err := writeEvent(w, "done", streamDone{Response: answer}); err != nil {
		h.logger.Error("failed to write done event", "error", err)
		return
	}
	flusher.Flush()
}

// parseRequest decodes the body and resolves the session, writing the error
// response itself on failure.
func (h *ChatHandler) parseRequest(w http.ResponseWriter, r *http.Request) (ChatRequest, *assistant.Session, bool) {
	var req ChatRequest
	body := http.MaxBytesReader(w, r.Body, maxQuestionBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return ChatRequest{}, nil, false
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, h.logger, http.StatusBadRequest, "question is required")
		return ChatRequest{}, nil, false
	}
	id, err := uuid.Parse(req.SessionID)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid session id")
		return ChatRequest{}, nil, false
	}
	session, ok := h.registry.Get(id)
	if !ok {
		writeError(w, h.logger, http.StatusNotFound, "session not found")
		return ChatRequest{}, nil, false
	}
	return req, session, true
}

// writeEvent writes one SSE event with a JSON payload.
func writeEvent(w http.ResponseWriter, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
