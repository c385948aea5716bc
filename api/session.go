package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docwise/docwise/internal/assistant"
)

// SessionRegistry holds live conversations keyed by session ID.
// All sessions share one engine; each keeps its own history and rate gate.
type SessionRegistry struct {
	engine *assistant.Engine

	mu       sync.RWMutex
	sessions map[uuid.UUID]*sessionEntry
}

type sessionEntry struct {
	session   *assistant.Session
	createdAt time.Time
}

// NewSessionRegistry returns an empty registry backed by engine.
func NewSessionRegistry(engine *assistant.Engine) *SessionRegistry {
	return &SessionRegistry{
		engine:   engine,
		sessions: make(map[uuid.UUID]*sessionEntry),
	}
}

// Create starts a new session and returns its ID.
func (r *SessionRegistry) Create() uuid.UUID {
	id := uuid.New()
	r.mu.Lock()
	r.sessions[id] = &sessionEntry{
		session:   assistant.NewSession(r.engine),
		createdAt: time.Now(),
	}
	r.mu.Unlock()
	return id
}

// Get looks up a session by ID.
func (r *SessionRegistry) Get(id uuid.UUID) (*assistant.Session, bool) {
	r.mu.RLock()
	entry, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return entry.session, true
}

// Delete removes a session entirely. Returns false when the ID is unknown.
func (r *SessionRegistry) Delete(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// Len reports the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// SessionHandler serves session lifecycle endpoints.
type SessionHandler struct {
	registry *SessionRegistry
	logger   *slog.Logger
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(registry *SessionRegistry, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{registry: registry, logger: logger}
}

// RegisterRoutes wires the session endpoints into mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", h.handleCreate)
	mux.HandleFunc("GET /api/sessions/{id}/messages", h.handleMessages)
	mux.HandleFunc("POST /api/sessions/{id}/reset", h.handleReset)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.handleDelete)
}

// SessionResponse is returned on session creation.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// MessageResponse is one conversation message for rendering.
type MessageResponse struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	Incomplete bool   `json:"incomplete,omitempty"`
}

// MessagesResponse is the conversation log of a session.
type MessagesResponse struct {
	SessionID string            `json:"session_id"`
	Messages  []MessageResponse `json:"messages"`
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, _ *http.Request) {
	id := h.registry.Create()
	h.logger.Info("session created", "session_id", id)
	writeJSON(w, h.logger, http.StatusCreated, SessionResponse{SessionID: id.String()})
}

func (h *SessionHandler) handleMessages(w http.ResponseWriter, r *http.Request) {
	id, session, ok := h.lookup(w, r)
	if !ok {
		return
	}

	messages := session.Messages()
	resp := MessagesResponse{
		SessionID: id.String(),
		Messages:  make([]MessageResponse, 0, len(messages)),
	}
	for _, m := range messages {
		resp.Messages = append(resp.Messages, MessageResponse{
			Role:       string(m.Role),
			Content:    m.Content,
			Incomplete: m.Incomplete,
		})
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

func (h *SessionHandler) handleReset(w http.ResponseWriter, r *http.Request) {
	id, session, ok := h.lookup(w, r)
	if !ok {
		return
	}
	session.Reset()
	h.logger.Info("session reset", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid session id")
		return
	}
	if !h.registry.Delete(id) {
		writeError(w, h.logger, http.StatusNotFound, "session not found")
		return
	}
	h.logger.Info("session deleted", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// lookup parses the path ID and resolves the session, writing the error
// response itself on failure.
func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (uuid.UUID, *assistant.Session, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid session id")
		return uuid.Nil, nil, false
	}
	session, ok := h.registry.Get(id)
	if !ok {
		writeError(w, h.logger, http.StatusNotFound, "session not found")
		return uuid.Nil, nil, false
	}
	return id, session, true
}
