// Package api exposes the orchestration entry point over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/vinayprograms/agentkit/logging"

	"github.com/mfriebe/claimpilot/internal/router"
	"github.com/mfriebe/claimpilot/internal/stream"
)

// ChatRequest is the body of POST /api/v1/chat.
type ChatRequest struct {
	Prompt   string `json:"prompt"`
	ThreadID string `json:"thread_id,omitempty"`
}

// ChatResponse is the reply. UIResource is only present when a worker's
// tool output embedded an interactive payload.
type ChatResponse struct {
	ThreadID   string           `json:"thread_id"`
	Response   string           `json:"response"`
	Hops       int              `json:"hops"`
	UIResource *stream.Resource `json:"ui_resource,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server serves the chat API.
type Server struct {
	orchestrator router.Orchestrator
	httpServer   *http.Server
	logger       *logging.Logger
}

// NewServer creates the HTTP server on the given address.
func NewServer(addr string, orchestrator router.Orchestrator) *Server {
	s := &Server{
		orchestrator: orchestrator,
		logger:       logging.New().WithComponent("api"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/chat", s.handleChat)
	mux.HandleFunc("/healthz", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", map[string]interface{}{
			"addr": s.httpServer.Addr,
		})
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// Handler returns the underlying handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Prompt == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "prompt is required"})
		return
	}

	// The request context propagates to every model and tool call, so a
	// disconnected client cancels the whole turn.
	result, err := s.orchestrator.Handle(r.Context(), req.Prompt, req.ThreadID)
	if err != nil {
		s.logger.Error("turn failed", map[string]interface{}{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		ThreadID:   result.ThreadID,
		Response:   result.Response,
		Hops:       result.Hops,
		UIResource: result.Resource,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
