// Package api exposes a local read-only mirror of the dashboard session so
// a browser (or curl) can follow an analysis without the TUI.
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/codebase-genius/genius-cli/internal/backend"
	"github.com/codebase-genius/genius-cli/internal/session"
)

// Snapshot is the JSON view of the current session
type Snapshot struct {
	SessionID          string         `json:"session_id,omitempty"`
	RepoURL            string         `json:"repo_url,omitempty"`
	TaskID             string         `json:"task_id,omitempty"`
	Status             string         `json:"status"`
	ProgressPercentage float64        `json:"progress_percentage"`
	CurrentStep        string         `json:"current_step,omitempty"`
	Stats              *backend.Stats `json:"stats,omitempty"`
	RepoInfo           map[string]any `json:"repo_info,omitempty"`
	DocumentationSize  int            `json:"documentation_size,omitempty"`
	Error              string         `json:"error,omitempty"`
	BackendHealthy     bool           `json:"backend_healthy"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// SnapshotSession converts a session into its mirror view
func SnapshotSession(s *session.Session, healthy bool) Snapshot {
	return Snapshot{
		SessionID:          s.ID.String(),
		RepoURL:            s.RepoURL,
		TaskID:             s.TaskID,
		Status:             string(s.Status),
		ProgressPercentage: s.Percent,
		CurrentStep:        s.CurrentStep,
		Stats:              s.Stats,
		RepoInfo:           s.RepoInfo,
		DocumentationSize:  len(s.Documentation),
		Error:              s.Err,
		BackendHealthy:     healthy,
		UpdatedAt:          time.Now(),
	}
}

// Server is the local mirror HTTP server
type Server struct {
	addr   string
	mux    *http.ServeMux
	sseHub *SSEHub

	mu   sync.RWMutex
	snap Snapshot
}

// NewServer creates a mirror server
func NewServer(addr string) *Server {
	s := &Server{
		addr:   addr,
		mux:    http.NewServeMux(),
		sseHub: NewSSEHub(),
		snap:   Snapshot{Status: string(session.StatusUnknown)},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/session", s.sessionHandler())
	s.mux.HandleFunc("/api/events", s.sseHandler())
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go s.sseHub.Run()
	return http.ListenAndServe(s.addr, s.mux)
}

// Publish records the latest snapshot and streams it to SSE clients
func (s *Server) Publish(snap Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	s.sseHub.Broadcast(SSEEvent{Type: "session", Data: snap})
}

func (s *Server) sessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		s.mu.RLock()
		snap := s.snap
		s.mu.RUnlock()

		writeJSON(w, snap)
	}
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
