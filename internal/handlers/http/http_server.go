package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gboigwe/nuru-sub002/internal/domain/useCases"
	"github.com/gboigwe/nuru-sub002/internal/handlers/websocket"
)

// DroppedCounter reports how many terminal events referenced unknown orders;
// it shows up on /health so silent drops stay observable.
type DroppedCounter interface {
	DroppedEvents() uint64
}

// Server represents an HTTP server with all routes configured
type Server struct {
	query       useCases.StatsQuery
	broadcaster *websocket.WebSocketBroadcaster
	dropped     DroppedCounter
	mux         *http.ServeMux
	server      *http.Server
}

// NewServer creates a new HTTP server with configured routes
func NewServer(addr string, query useCases.StatsQuery, broadcaster *websocket.WebSocketBroadcaster, dropped DroppedCounter) *Server {
	mux := http.NewServeMux()

	server := &Server{
		query:       query,
		broadcaster: broadcaster,
		dropped:     dropped,
		mux:         mux,
		server: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	// Register routes
	server.registerRoutes()

	return server
}

// registerRoutes configures all HTTP routes
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/stats", s.handleProtocolStats)
	s.mux.HandleFunc("/stats/daily", s.handleDailyStats)
	s.mux.HandleFunc("/stats/currencies", s.handleCurrencyStats)
	s.mux.HandleFunc("/users", s.handleUsers)

	// Health check endpoint
	s.mux.HandleFunc("/health", s.handleHealth)

	// WebSocket endpoint
	s.mux.HandleFunc("/ws", s.broadcaster.Handler())
}

// handleProtocolStats serves the protocol-wide rollup
func (s *Server) handleProtocolStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.query.ProtocolStats(r.Context())
	if err != nil {
		http.Error(w, "failed to get stats", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, stats)
}

// handleDailyStats serves all daily buckets
func (s *Server) handleDailyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.query.DailyStats(r.Context())
	if err != nil {
		http.Error(w, "failed to get daily stats", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, stats)
}

// handleCurrencyStats serves all per-currency rollups
func (s *Server) handleCurrencyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.query.CurrencyStats(r.Context())
	if err != nil {
		http.Error(w, "failed to get currency stats", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, stats)
}

// handleUsers serves one user when ?address= is given, all users otherwise
func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address != "" {
		user, err := s.query.UserStats(r.Context(), address)
		if err != nil {
			http.Error(w, "failed to get user", http.StatusInternalServerError)
			return
		}
		if user == nil {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		s.writeJSON(w, user)
		return
	}

	users, err := s.query.AllUsers(r.Context())
	if err != nil {
		http.Error(w, "failed to get users", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, users)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if s.dropped != nil {
		resp["dropped_events"] = s.dropped.DroppedEvents()
	}
	s.writeJSON(w, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
