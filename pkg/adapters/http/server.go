package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/presence"
	"github.com/aretw0/presence/internal/logging"
	"github.com/aretw0/presence/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controller is the part of presence.Presence the server drives.
type Controller interface {
	Status() []presence.Status
	Snapshot() *domain.NodeSnapshot
	Enter(ctx context.Context, key string) error
	Exit(ctx context.Context, key string) error
}

// Server exposes a coordinator tree over HTTP.
type Server struct {
	Controller Controller
	Streams    *StreamManager
	gatherer   prometheus.Gatherer
	logger     *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics serves gatherer on GET /metrics.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

// WithStreams shares an existing StreamManager, typically one that is also
// registered as the presence publisher.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHandler creates the HTTP handler for ctrl.
func NewHandler(ctrl Controller, opts ...Option) http.Handler {
	server := &Server{
		Controller: ctrl,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}
	if server.Streams == nil {
		server.Streams = NewStreamManager()
	}

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/tree", server.GetTree)
	r.Get("/coordinators", server.GetCoordinators)
	r.Post("/coordinators/{key}/enter", server.PostEnter)
	r.Post("/coordinators/{key}/exit", server.PostExit)
	r.Get("/events", server.SubscribeEvents)
	if server.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(server.gatherer, promhttp.HandlerOpts{}))
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"app":     "presence-http",
		"version": strings.TrimSpace(presence.Version),
	})
}

// GetTree handles the GET /tree request.
func (s *Server) GetTree(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.Controller.Snapshot())
}

// GetCoordinators handles the GET /coordinators request.
func (s *Server) GetCoordinators(w http.ResponseWriter, r *http.Request) {
	status := s.Controller.Status()
	if status == nil {
		status = []presence.Status{}
	}
	s.writeJSON(w, status)
}

// PostEnter handles the POST /coordinators/{key}/enter request.
func (s *Server) PostEnter(w http.ResponseWriter, r *http.Request) {
	s.cycle(w, r, domain.PhaseEnter, s.Controller.Enter)
}

// PostExit handles the POST /coordinators/{key}/exit request.
func (s *Server) PostExit(w http.ResponseWriter, r *http.Request) {
	s.cycle(w, r, domain.PhaseExit, s.Controller.Exit)
}

func (s *Server) cycle(w http.ResponseWriter, r *http.Request, phase domain.Phase, run func(context.Context, string) error) {
	key := chi.URLParam(r, "key")
	if err := run(r.Context(), key); err != nil {
		if errors.Is(err, domain.ErrCoordinatorNotFound) {
			http.Error(w, fmt.Sprintf("Coordinator %q not found", key), http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("%s error: %v", phase, err), http.StatusInternalServerError)
		s.logger.Error("imperative transition failed", "phase", phase, "presence_key", key, "error", err)
		return
	}
	s.writeJSON(w, map[string]string{"presence_key": key, "phase": string(phase), "status": "done"})
}

// StreamManager fans lifecycle events out to SSE clients. It implements
// ports.Publisher.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan<- string]string // channel -> presence key filter
	closed      bool
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan<- string]string),
	}
}

// Subscribe registers a client. An empty key receives every event.
func (sm *StreamManager) Subscribe(key string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 16)
	if sm.closed {
		close(ch)
		return ch, func() {}
	}
	sm.subscribers[ch] = key

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Publish broadcasts event to the matching clients, dropping it for slow ones.
func (sm *StreamManager) Publish(ctx context.Context, event domain.LifecycleEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	key := event.Base().PresenceKey

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for ch, filter := range sm.subscribers {
		if filter != "" && filter != key {
			continue
		}
		select {
		case ch <- string(payload):
		default:
			slog.Warn("SSE: Client buffer full, dropping event", "presence_key", key)
		}
	}
	return nil
}

// Close disconnects every client.
func (sm *StreamManager) Close() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.closed {
		return nil
	}
	sm.closed = true
	for ch := range sm.subscribers {
		delete(sm.subscribers, ch)
		close(ch)
	}
	return nil
}

// SubscribeEvents handles the GET /events request (SSE). The optional
// presence_key query parameter narrows the stream to one coordinator.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	key := r.URL.Query().Get("presence_key")
	ch, cancel := s.Streams.Subscribe(key)
	defer cancel()
	s.logger.Info("SSE: client subscribed", "presence_key", key)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected")
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
