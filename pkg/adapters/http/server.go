// Package http exposes the pivot navigator over HTTP and provides the MDX query
// client used as the default fetcher.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/lightpivot/internal/logging"
	"github.com/aretw0/lightpivot/pkg/domain"
	"github.com/aretw0/lightpivot/pkg/ports"
)

// Server serves a Navigator over HTTP.
type Server struct {
	Navigator ports.Navigator
	Streams   *StreamManager

	version string
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// NewServer creates a server for nav.
func NewServer(nav ports.Navigator, opts ...Option) *Server {
	s := &Server{
		Navigator: nav,
		Streams:   NewStreamManager(),
		version:   "dev",
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return s
}

// NewHandler creates an HTTP handler for nav.
func NewHandler(nav ports.Navigator, opts ...Option) http.Handler {
	return NewServer(nav, opts...).Routes()
}

// Routes returns the router of the API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/state", s.GetState)
	r.Get("/model", s.GetModel)
	r.Get("/query", s.GetQuery)
	r.Get("/rows", s.GetRows)
	r.Get("/selected-rows", s.GetSelectedRows)
	r.Get("/pivot-properties", s.GetPivotProperty)
	r.Get("/events", s.SubscribeEvents)

	r.Post("/refresh", s.Refresh)
	r.Post("/base-query", s.ChangeBaseQuery)
	r.Post("/drill-down", s.DrillDown)
	r.Post("/drill-through", s.DrillThrough)
	r.Post("/back", s.Back)
	r.Post("/filters", s.SetFilter)
	r.Delete("/filters", s.ClearFilters)
	r.Put("/row-count", s.SetRowCount)

	return enableCORS(r)
}

// Hooks returns lifecycle hooks that publish step events to /events subscribers.
func (s *Server) Hooks() domain.LifecycleHooks {
	publish := func(_ context.Context, e *domain.StepEvent) {
		payload := stepEventPayload{StepEvent: e}
		if e.Err != nil {
			payload.Error = e.Err.Error()
		}
		data, err := json.Marshal(payload)
		if err != nil {
			s.logger.Warn("step event encode failed", "err", err)
			return
		}
		s.Streams.Broadcast(string(data))
	}
	return domain.LifecycleHooks{OnCommit: publish, OnRollback: publish}
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type stepEventPayload struct {
	*domain.StepEvent
	Error string `json:"error,omitempty"`
}

// StepResponse is the body returned by navigation endpoints.
type StepResponse struct {
	Outcome domain.Outcome  `json:"outcome"`
	State   domain.Snapshot `json:"state"`
}

type queryBody struct {
	Query string `json:"query"`
}

type filterBody struct {
	Filter string `json:"filter"`
}

type drillThroughBody struct {
	Filters any `json:"filters"`
}

type rowCountBody struct {
	RowCount int `json:"rowCount"`
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "lightpivot-http",
		"version": strings.TrimSpace(s.version),
	})
}

// GetState handles GET /state.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Navigator.Snapshot())
}

// GetModel handles GET /model.
func (s *Server) GetModel(w http.ResponseWriter, r *http.Request) {
	model := s.Navigator.Model()
	if model == nil {
		http.Error(w, "No data loaded", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, model)
}

// GetQuery handles GET /query.
func (s *Server) GetQuery(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, queryBody{Query: s.Navigator.EffectiveQuery()})
}

// GetRows handles GET /rows?rows=1,2.
func (s *Server) GetRows(w http.ResponseWriter, r *http.Request) {
	var rows []int
	if raw := r.URL.Query().Get("rows"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				http.Error(w, fmt.Sprintf("Invalid row index %q", part), http.StatusBadRequest)
				return
			}
			rows = append(rows, n)
		}
	}
	s.writeJSON(w, http.StatusOK, s.Navigator.RowsValues(rows...))
}

// GetSelectedRows handles GET /selected-rows.
func (s *Server) GetSelectedRows(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Navigator.SelectedRows())
}

// GetPivotProperty handles GET /pivot-properties?path=a.b.
func (s *Server) GetPivotProperty(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("path")
	if raw == "" {
		http.Error(w, "Missing path", http.StatusBadRequest)
		return
	}
	value, ok := s.Navigator.PivotProperty(strings.Split(raw, ".")...)
	if !ok {
		http.Error(w, "Property not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"path": raw, "value": value})
}

// Refresh handles POST /refresh.
func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	s.writeStep(w, s.Navigator.Refresh(r.Context()))
}

// ChangeBaseQuery handles POST /base-query.
func (s *Server) ChangeBaseQuery(w http.ResponseWriter, r *http.Request) {
	var body queryBody
	if !s.decode(w, r, &body) {
		return
	}
	s.writeStep(w, s.Navigator.ChangeBaseQuery(r.Context(), body.Query))
}

// DrillDown handles POST /drill-down.
func (s *Server) DrillDown(w http.ResponseWriter, r *http.Request) {
	var body filterBody
	if !s.decode(w, r, &body) {
		return
	}
	s.writeStep(w, s.Navigator.TryDrillDown(r.Context(), body.Filter))
}

// DrillThrough handles POST /drill-through.
// An absent or null filters field opens the listing without filters.
func (s *Server) DrillThrough(w http.ResponseWriter, r *http.Request) {
	var body drillThroughBody
	if !s.decode(w, r, &body) {
		return
	}
	if body.Filters == nil {
		s.writeStep(w, s.Navigator.TryDrillThrough(r.Context(), nil))
		return
	}
	s.writeStep(w, s.Navigator.CustomDrillThrough(r.Context(), body.Filters))
}

// Back handles POST /back.
func (s *Server) Back(w http.ResponseWriter, r *http.Request) {
	s.writeStep(w, s.Navigator.Back())
}

// SetFilter handles POST /filters.
func (s *Server) SetFilter(w http.ResponseWriter, r *http.Request) {
	var body filterBody
	if !s.decode(w, r, &body) {
		return
	}
	s.Navigator.SetFilter(body.Filter)
	s.writeJSON(w, http.StatusOK, s.Navigator.Snapshot())
}

// ClearFilters handles DELETE /filters.
func (s *Server) ClearFilters(w http.ResponseWriter, r *http.Request) {
	s.Navigator.ClearFilters()
	s.writeJSON(w, http.StatusOK, s.Navigator.Snapshot())
}

// SetRowCount handles PUT /row-count.
func (s *Server) SetRowCount(w http.ResponseWriter, r *http.Request) {
	var body rowCountBody
	if !s.decode(w, r, &body) {
		return
	}
	s.Navigator.SetRowCount(body.RowCount)
	s.writeJSON(w, http.StatusOK, s.Navigator.Snapshot())
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	http.Error(w, "Invalid request body", http.StatusBadRequest)
	s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
	return false
}

func (s *Server) writeStep(w http.ResponseWriter, outcome domain.Outcome) {
	status := http.StatusOK
	if outcome == domain.OutcomeRejected {
		status = http.StatusUnprocessableEntity
	}
	s.writeJSON(w, status, StepResponse{Outcome: outcome, State: s.Navigator.Snapshot()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// StreamManager fans step events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan string]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates an empty stream manager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan string]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a subscriber. The returned func unregisters it.
func (sm *StreamManager) Subscribe() (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	sm.subscribers[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Broadcast sends msg to every subscriber. Slow subscribers drop messages.
func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("sse client buffer full, dropping message")
		}
	}
}

// SubscribeEvents handles GET /events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
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
