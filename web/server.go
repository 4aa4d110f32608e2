package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"markestedt/emoki/config"
	"markestedt/emoki/emoji"
	"markestedt/emoki/storage"
)

//go:embed static/*
var staticFiles embed.FS

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Dashboard is served on localhost only
	},
}

// Status is the live state reported by /api/status
type Status struct {
	Capture   string        `json:"capture"` // running, paused or disabled
	Buffer    string        `json:"buffer"`
	Results   []emoji.Match `json:"results"`
	Selected  int           `json:"selected"`
	Injecting bool          `json:"injecting"`
	Shortcuts int           `json:"shortcuts"`
}

// StatusSource provides the live state
type StatusSource interface {
	Status() Status
}

// Server represents the web server. It also mirrors the suggestion overlay
// to connected dashboards.
type Server struct {
	db     *storage.DB
	config *config.Config
	status StatusSource
	port   int
	hub    *Hub
	mu     sync.RWMutex
}

// NewServer creates a new web server. db may be nil when history is disabled.
func NewServer(db *storage.DB, cfg *config.Config, status StatusSource) *Server {
	hub := NewHub()
	go hub.Run()

	return &Server{
		db:     db,
		config: cfg,
		status: status,
		port:   cfg.Web.Port,
		hub:    hub,
	}
}

// Handler returns the HTTP routes
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()

	// API endpoints
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/history/", s.handleHistory)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/ws", s.handleWebSocket)

	// Static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to load static files: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(staticFS)))

	return mux, nil
}

// Start serves the dashboard on localhost until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		s.hub.Stop()
	}()

	slog.Info("Starting web server", "port", s.port, "url", s.URL())

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// URL returns the dashboard address
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// GetConfig returns the current configuration (thread-safe)
func (s *Server) GetConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// UpdateConfig updates the configuration (thread-safe)
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
}

// UpdateResults mirrors a new suggestion list
func (s *Server) UpdateResults(results []emoji.Match) {
	s.hub.BroadcastMessage(Message{Type: MessageTypeResults, Data: results})
}

// SelectionChanged mirrors the highlight
func (s *Server) SelectionChanged(index int) {
	s.hub.BroadcastMessage(Message{Type: MessageTypeSelection, Data: map[string]int{"index": index}})
}

// Hide mirrors the overlay being hidden
func (s *Server) Hide() {
	s.hub.BroadcastMessage(Message{Type: MessageTypeHide})
}

// Window returns 0; the dashboard is not a native overlay
func (s *Server) Window() uintptr { return 0 }

func (s *Server) currentStatus() Status {
	status := Status{Capture: "disabled", Selected: -1}
	if s.status != nil {
		status = s.status.Status()
	}
	if status.Results == nil {
		status.Results = []emoji.Match{}
	}
	return status
}

// BroadcastStatus broadcasts a capture state change to all connected clients
func (s *Server) BroadcastStatus(status string) {
	s.hub.BroadcastMessage(Message{
		Type: MessageTypeStatus,
		Data: map[string]string{"capture": status},
	})
}

// BroadcastInjection broadcasts a finished injection to all connected clients
func (s *Server) BroadcastInjection(in *storage.Injection) {
	s.hub.BroadcastMessage(Message{Type: MessageTypeInjection, Data: in})
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "error", err)
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	if data, err := json.Marshal(Message{Type: MessageTypeStatus, Data: s.currentStatus()}); err == nil {
		client.initial = data
	}

	select {
	case client.hub.register <- client:
	case <-client.hub.done:
		conn.Close()
		return
	}

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}
