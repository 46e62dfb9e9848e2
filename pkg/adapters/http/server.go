package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/aretw0/commitquest"
	"github.com/aretw0/commitquest/internal/logging"
	"github.com/aretw0/commitquest/pkg/domain"
	"github.com/aretw0/commitquest/pkg/runner"
	"github.com/aretw0/commitquest/pkg/session"
)

// AppName is reported by GET /info.
const AppName = "commitquest-http"

// CreateSessionRequest is the optional body of POST /sessions.
type CreateSessionRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// SubmitRequest is the body of POST /sessions/{id}/submit.
type SubmitRequest struct {
	Input string `json:"input"`
}

// SubmitResponse carries the new state and what changed.
type SubmitResponse struct {
	State *domain.State     `json:"state"`
	Diff  *domain.StateDiff `json:"diff,omitempty"`
}

// ListResponse is the body of GET /sessions.
type ListResponse struct {
	Sessions []string `json:"sessions"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server exposes quest sessions over HTTP.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager

	limiters *limiterPool
	metrics  http.Handler
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStreams shares a StreamManager that the session manager observes.
// Pass streams.Observe to session.WithObserver to feed GET /sessions/{id}/events.
func WithStreams(streams *StreamManager) Option {
	return func(s *Server) {
		s.Streams = streams
	}
}

// WithRateLimit bounds submissions per session. perSecond <= 0 disables it.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		s.limiters = newLimiterPool(perSecond, burst)
	}
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer creates a Server over manager.
func NewServer(manager *session.Manager, opts ...Option) *Server {
	s := &Server{
		Sessions: manager,
		limiters: newLimiterPool(0, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}
	return s
}

// NewHandler creates the HTTP handler for manager.
func NewHandler(manager *session.Manager, opts ...Option) http.Handler {
	return NewServer(manager, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/submit", s.Submit)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     AppName,
		"version": strings.TrimSpace(commitquest.Version),
	})
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, r, "", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ListResponse{Sessions: ids})
}

// CreateSession handles the POST /sessions request.
// An existing session with the requested ID is returned unchanged.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body CreateSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			s.logger.Warn("create session: invalid request body", "err", err)
			return
		}
	}
	if body.SessionID == "" {
		body.SessionID = uuid.NewString()
	}

	state, err := s.Sessions.LoadOrStart(r.Context(), body.SessionID)
	if err != nil {
		s.fail(w, r, body.SessionID, err)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	state, err := s.Sessions.Load(r.Context(), sessionID)
	if err != nil {
		s.fail(w, r, sessionID, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := s.Sessions.Delete(r.Context(), sessionID); err != nil {
		s.fail(w, r, sessionID, err)
		return
	}
	s.limiters.forget(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

// Submit handles the POST /sessions/{id}/submit request.
// Submitting to an unknown session starts it first.
func (s *Server) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var body SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("submit: invalid request body", "session_id", sessionID, "err", err)
		return
	}

	input, err := runner.SanitizeInput(body.Input)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid input: %v", err))
		s.logger.Warn("submit: input rejected", "session_id", sessionID, "err", err, "size", len(body.Input))
		return
	}

	if !s.limiters.allow(sessionID) {
		writeError(w, http.StatusTooManyRequests, "too many submissions, slow down")
		return
	}

	state, diff, err := s.Sessions.Submit(r.Context(), sessionID, input)
	if err != nil {
		s.fail(w, r, sessionID, err)
		return
	}
	writeJSON(w, http.StatusOK, SubmitResponse{State: state, Diff: diff})
}

// SubscribeEvents handles the GET /sessions/{id}/events request (SSE).
// Each event carries one JSON encoded domain.StateDiff.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		s.logger.Error("SSE: streaming not supported")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Info("SSE: client subscribed", "session_id", sessionID)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// fail maps domain errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, sessionID string, err error) {
	var (
		inputErr  *domain.InputError
		configErr *domain.ConfigurationError
	)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &inputErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &configErr):
		writeError(w, http.StatusInternalServerError, err.Error())
		s.logger.Error("configuration error", "session_id", sessionID, "err", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// The client went away mid-call; the stored session is untouched.
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
		s.logger.Info("request cancelled", "session_id", sessionID, "path", r.URL.Path)
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
		s.logger.Error("request failed", "session_id", sessionID, "path", r.URL.Path, "err", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
