package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/actionplan/internal/chat"
	"github.com/rpggio/actionplan/internal/outbox"
)

const (
	maxEventBytes = 1 << 20
	healthTimeout = 2 * time.Second
)

// EventHandler handles one inbound chat event.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev chat.Event)
}

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Config contains HTTP server configuration.
type Config struct {
	// Events receives webhook events. Replies are collected through the
	// outbox, so the handler must send via an outbox.Sender.
	Events EventHandler
	Health HealthChecker
	// WebhookSecret guards POST /events when set.
	WebhookSecret string
	// MCP is mounted at /mcp when set.
	MCP    http.Handler
	Logger *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	events EventHandler
	health HealthChecker
	logger *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(cfg Config) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	srv := &Server{events: cfg.Events, health: cfg.Health, logger: logger}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)

	r.Get("/health", srv.handleHealth)
	r.Group(func(r chi.Router) {
		if cfg.WebhookSecret != "" {
			r.Use(WebhookAuth(cfg.WebhookSecret))
		}
		r.Post("/events", srv.handleEvent)
	})
	if cfg.MCP != nil {
		r.Mount("/mcp", cfg.MCP)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := s.health.HealthCheck(ctx); err != nil {
			s.logger.Warn("health check failed", "error", err)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var in EventRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err := dec.Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ev, err := in.Event()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, collector := outbox.WithCollector(r.Context())
	s.events.HandleEvent(ctx, ev)

	requestID, _ := RequestIDFromContext(r.Context())
	s.logger.Debug("event processed", "request_id", requestID, "handle", ev.From.Handle, "kind", ev.Kind().String())
	writeJSON(w, http.StatusOK, EventResponse{Replies: collector.Messages()})
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrInvalidEvent indicates a webhook payload that is not a chat event.
var ErrInvalidEvent = errors.New("invalid event")
