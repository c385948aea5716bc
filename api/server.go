// Package api exposes the assistant over HTTP.
//
// Endpoints:
//
//	GET  /health                      liveness probe
//	GET  /ready                       readiness probe (pings the database)
//	POST /api/sessions                create a session
//	GET  /api/sessions/{id}/messages  conversation log for rendering
//	POST /api/sessions/{id}/reset     clear a session
//	POST /api/chat                    synchronous question (JSON)
//	POST /api/chat/stream             streaming question (SSE)
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: recovery and request logging
//   - session.go: in-memory session registry and endpoints
//   - chat.go: question endpoints
//   - health.go: probes
//   - response.go: JSON helpers
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:3400"

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout guards against slow-header clients.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is generous because answers stream for a while.
	WriteTimeout = 5 * time.Minute

	// IdleTimeout closes stale keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// Server is the assistant's HTTP server.
type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger

	health   *HealthHandler
	sessions *SessionHandler
	chat     *ChatHandler
}

// NewServer registers all routes over the given session registry.
// pinger backs the readiness probe; nil disables the database check.
func NewServer(registry *SessionRegistry, pinger Pinger, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:      mux,
		logger:   logger,
		health:   NewHealthHandler(pinger, logger),
		sessions: NewSessionHandler(registry, logger),
		chat:     NewChatHandler(registry, logger),
	}
	s.health.RegisterRoutes(mux)
	s.sessions.RegisterRoutes(mux)
	s.chat.RegisterRoutes(mux)
	return s
}

// Handler returns the handler with middleware applied.
// Order: recovery → logging → routes.
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoveryMiddleware(s.logger), loggingMiddleware(s.logger))
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
