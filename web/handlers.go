package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"markestedt/emoki/storage"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// handleConfig handles GET and PUT requests for configuration
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleGetConfig(w, r)
	case http.MethodPut:
		s.handlePutConfig(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type configView struct {
	CaptureEnabled bool   `json:"captureEnabled"`
	Toggle         string `json:"toggle"`
	FocusDelayMs   int    `json:"focusDelayMs"`
	DatabasePath   string `json:"databasePath"`
	HistoryEnabled bool   `json:"historyEnabled"`
	WebEnabled     bool   `json:"webEnabled"`
	WebPort        int    `json:"webPort"`
	TrayEnabled    bool   `json:"trayEnabled"`
	LogLevel       string `json:"logLevel"`
}

// handleGetConfig returns the current configuration
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.GetConfig()

	writeJSON(w, configView{
		CaptureEnabled: cfg.Capture.Enabled,
		Toggle:         cfg.Capture.Toggle,
		FocusDelayMs:   cfg.Injection.FocusDelayMs,
		DatabasePath:   cfg.Database.Path,
		HistoryEnabled: cfg.History.Enabled,
		WebEnabled:     cfg.Web.Enabled,
		WebPort:        cfg.Web.Port,
		TrayEnabled:    cfg.Tray.Enabled,
		LogLevel:       cfg.Logging.Level,
	})
}

// handlePutConfig updates the configuration. Changes take effect on restart.
func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CaptureEnabled *bool   `json:"captureEnabled"`
		Toggle         *string `json:"toggle"`
		FocusDelayMs   *int    `json:"focusDelayMs"`
		DatabasePath   *string `json:"databasePath"`
		HistoryEnabled *bool   `json:"historyEnabled"`
		WebEnabled     *bool   `json:"webEnabled"`
		WebPort        *int    `json:"webPort"`
		TrayEnabled    *bool   `json:"trayEnabled"`
		LogLevel       *string `json:"logLevel"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Work on a copy so a rejected update leaves the live config alone
	cfg := s.GetConfig().Clone()

	if req.CaptureEnabled != nil {
		cfg.Capture.Enabled = *req.CaptureEnabled
	}
	if req.Toggle != nil {
		cfg.Capture.Toggle = *req.Toggle
	}
	if req.FocusDelayMs != nil {
		cfg.Injection.FocusDelayMs = *req.FocusDelayMs
	}
	if req.DatabasePath != nil {
		cfg.Database.Path = *req.DatabasePath
	}
	if req.HistoryEnabled != nil {
		cfg.History.Enabled = *req.HistoryEnabled
	}
	if req.WebEnabled != nil {
		cfg.Web.Enabled = *req.WebEnabled
	}
	if req.WebPort != nil {
		cfg.Web.Port = *req.WebPort
	}
	if req.TrayEnabled != nil {
		cfg.Tray.Enabled = *req.TrayEnabled
	}
	if req.LogLevel != nil {
		cfg.Logging.Level = *req.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Save to file
	if err := cfg.Save(); err != nil {
		slog.Error("Failed to save config", "error", err)
		http.Error(w, "Failed to save configuration", http.StatusInternalServerError)
		return
	}

	// Update in-memory config
	s.UpdateConfig(cfg)

	writeJSON(w, map[string]interface{}{"status": "success", "restartRequired": true})
}

// handleStats returns statistics for the specified time range
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.db == nil {
		http.Error(w, "History is disabled", http.StatusServiceUnavailable)
		return
	}

	daysStr := r.URL.Query().Get("days")
	days := 7 // default to 7 days
	if daysStr != "" {
		if d, err := strconv.Atoi(daysStr); err == nil && d > 0 {
			days = d
		}
	}

	overall, err := s.db.GetOverallStats(days)
	if err != nil {
		slog.Error("Failed to get overall stats", "error", err)
		http.Error(w, "Failed to get statistics", http.StatusInternalServerError)
		return
	}

	daily, err := s.db.GetDailyStats(days)
	if err != nil {
		slog.Error("Failed to get daily stats", "error", err)
		http.Error(w, "Failed to get statistics", http.StatusInternalServerError)
		return
	}

	top, err := s.db.GetTopShortcuts(days, 10)
	if err != nil {
		slog.Error("Failed to get top shortcuts", "error", err)
		http.Error(w, "Failed to get statistics", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"overall":   overall,
		"daily":     daily,
		"shortcuts": top,
	})
}

// handleHistory handles GET and DELETE requests for injection history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		http.Error(w, "History is disabled", http.StatusServiceUnavailable)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetHistory(w, r)
	case http.MethodDelete:
		s.handleDeleteHistory(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleGetHistory returns paginated injection history
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	limit := 50 // default
	offset := 0

	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	if offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	injections, err := s.db.GetInjections(limit, offset)
	if err != nil {
		slog.Error("Failed to get injections", "error", err)
		http.Error(w, "Failed to get history", http.StatusInternalServerError)
		return
	}
	if injections == nil {
		injections = []storage.Injection{}
	}

	total, err := s.db.GetInjectionCount()
	if err != nil {
		slog.Error("Failed to get injection count", "error", err)
		http.Error(w, "Failed to get history", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"injections": injections,
		"total":      total,
		"limit":      limit,
		"offset":     offset,
	})
}

// handleDeleteHistory deletes an injection by ID
func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	// Extract ID from path (e.g., /api/history/123)
	idStr := strings.TrimPrefix(r.URL.Path, "/api/history/")
	if idStr == "" || idStr == r.URL.Path {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	if err := s.db.DeleteInjection(id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "Injection not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to delete injection", "error", err, "id", id)
		http.Error(w, "Failed to delete injection", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "success"})
}

// handleStatus returns the live capture and suggestion state
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, s.currentStatus())
}
