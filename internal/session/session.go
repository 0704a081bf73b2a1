package session

import (
	"github.com/google/uuid"

	"github.com/codebase-genius/genius-cli/internal/backend"
)

// Status represents the lifecycle state of an analysis task
type Status string

const (
	StatusUnknown    Status = "unknown"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// ParseStatus maps a wire status string onto the known lifecycle states.
// Strings the backend invents that we don't recognize stay unknown.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusProcessing, StatusCompleted, StatusError:
		return Status(s)
	default:
		return StatusUnknown
	}
}

// IsTerminal reports whether a wire status string ends polling
func IsTerminal(s string) bool {
	st := ParseStatus(s)
	return st == StatusCompleted || st == StatusError
}

// Session is the explicit view state for the dashboard: one repository,
// at most one active task. It replaces ambient globals with defined
// transitions so the state machine is testable without any renderer.
type Session struct {
	ID          uuid.UUID
	RepoURL     string
	TaskID      string
	Status      Status
	// WireStatus is the raw status string from the last applied poll
	WireStatus  string
	Percent     float64
	CurrentStep string
	Stats       *backend.Stats
	RepoInfo    map[string]any

	Documentation string
	DocDelivered  bool

	Err string
}

// New creates an empty session
func New() *Session {
	return &Session{
		ID:     uuid.New(),
		Status: StatusUnknown,
	}
}

// Begin records a freshly submitted task, superseding any prior one.
// The backend offers no cancellation; an old task keeps running but its
// updates will be discarded as stale.
func (s *Session) Begin(repoURL, taskID string) {
	s.RepoURL = repoURL
	s.TaskID = taskID
	s.Status = StatusProcessing
	s.WireStatus = ""
	s.Percent = 0
	s.CurrentStep = ""
	s.Stats = nil
	s.RepoInfo = nil
	s.Documentation = ""
	s.DocDelivered = false
	s.Err = ""
}

// ApplyStatus folds a poll response into the session. It returns false for
// updates that change nothing: stale task ids and repeats of a terminal
// status.
func (s *Session) ApplyStatus(taskID string, resp backend.StatusResponse) bool {
	if taskID != s.TaskID || s.TaskID == "" {
		return false
	}
	if s.Terminal() {
		return false
	}

	s.WireStatus = resp.Progress.Status

	status := ParseStatus(resp.Progress.Status)
	if status == StatusUnknown {
		// A status outside the known vocabulary renders as a warning but
		// does not move the machine
		return true
	}

	s.Status = status
	s.CurrentStep = resp.Progress.CurrentStep

	switch status {
	case StatusCompleted:
		s.Percent = 100
	case StatusError:
		s.Percent = 0
		s.Err = resp.Error
	default:
		s.Percent = resp.Progress.ProgressPercentage
	}

	if r := resp.Progress.Result; r != nil {
		stats := r.Stats
		s.Stats = &stats
		s.RepoInfo = r.RepoInfo
	}

	return true
}

// AttachDocumentation stores the downloaded document. The first delivery
// wins; repeated completed polls must not trigger a refetch, and a caller
// can use NeedsDocumentation to guarantee exactly one fetch per task.
func (s *Session) AttachDocumentation(doc backend.Documentation) bool {
	if s.DocDelivered {
		return false
	}
	if doc.Error != "" {
		s.Err = doc.Error
		return false
	}
	s.Documentation = doc.Content
	s.DocDelivered = true
	return true
}

// UnrecognizedWireStatus reports whether the last applied poll carried a
// status string outside the known vocabulary
func (s *Session) UnrecognizedWireStatus() bool {
	return s.WireStatus != "" && ParseStatus(s.WireStatus) == StatusUnknown
}

// Active reports whether a task has been submitted and is not yet terminal
func (s *Session) Active() bool {
	return s.TaskID != "" && !s.Terminal()
}

// Terminal reports whether the task reached completed or error
func (s *Session) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusError
}

// NeedsDocumentation reports whether a completed task still awaits its
// document download
func (s *Session) NeedsDocumentation() bool {
	return s.Status == StatusCompleted && !s.DocDelivered && s.Err == ""
}
