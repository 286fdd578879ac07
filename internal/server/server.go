// Package server provides the HTTP surface of the Expressora recognition
// system: health, diagnostics, the recognition event stream, the vocabulary
// and history APIs, and the camera preview.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/expressora/expressora/internal/capture"
	"github.com/expressora/expressora/internal/diag"
	"github.com/expressora/expressora/internal/server/api"
	"github.com/expressora/expressora/internal/store"
)

// Controller is the subset of application control the HTTP surface needs.
type Controller interface {
	SetEnabled(enabled bool)
	IsEnabled() bool
	SwitchProfile(name string) error
	Backspace()
	ClearBuffer()
	CommitBuffer()
}

// Info describes the running pipeline for the diagnostics endpoint.
type Info struct {
	Profile string `json:"profile"`
	Mode    string `json:"mode"` // adaptive load level label
	Backend string `json:"backend"`
	Variant string `json:"variant"`
	Enabled bool   `json:"enabled"`
}

// Config holds the server configuration. Nil fields disable the
// corresponding routes.
type Config struct {
	StaticDir  string
	Store      *store.Store
	Camera     capture.Camera
	Events     *EventHub
	Stats      *diag.Stats
	Info       func() Info
	Controller Controller
}

// Server represents the HTTP server for the Expressora application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Stats != nil {
		s.mux.HandleFunc("/api/diag", s.handleDiag)
	}

	if s.config.Store != nil {
		vocabHandler := api.NewVocabHandler(s.config.Store)
		s.mux.Handle("/api/vocab", vocabHandler)
		s.mux.Handle("/api/vocab/", vocabHandler)

		sequencesHandler := api.NewSequencesHandler(s.config.Store)
		s.mux.Handle("/api/sequences", sequencesHandler)
		s.mux.Handle("/api/sequences/", sequencesHandler)
	}

	if s.config.Controller != nil {
		s.mux.HandleFunc("/api/control", s.handleControl)
	}

	if s.config.Events != nil {
		s.mux.Handle("/api/events", s.config.Events)
	}

	if s.config.Camera != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Camera))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// handleDiag handles GET requests to /api/diag.
func (s *Server) handleDiag(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := struct {
		diag.Snapshot
		Info *Info `json:"info,omitempty"`
	}{Snapshot: s.config.Stats.Read()}

	if s.config.Info != nil {
		info := s.config.Info()
		response.Info = &info
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// controlRequest is the body of POST /api/control. Action is one of
// "enable", "disable", "profile", "backspace", "clear", "commit".
type controlRequest struct {
	Action  string `json:"action"`
	Profile string `json:"profile,omitempty"`
}

// handleControl handles POST requests to /api/control.
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	c := s.config.Controller
	switch req.Action {
	case "enable":
		c.SetEnabled(true)
	case "disable":
		c.SetEnabled(false)
	case "profile":
		if err := c.SwitchProfile(req.Profile); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	case "backspace":
		c.Backspace()
	case "clear":
		c.ClearBuffer()
	case "commit":
		c.CommitBuffer()
	default:
		http.Error(w, "Unknown action", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"ok": true, "enabled": c.IsEnabled()})
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
