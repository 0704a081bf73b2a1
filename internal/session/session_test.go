package session

import (
	"testing"

	"github.com/codebase-genius/genius-cli/internal/backend"
)

func processing(pct float64, step string) backend.StatusResponse {
	return backend.StatusResponse{
		Progress: backend.Progress{
			Status:             "processing",
			ProgressPercentage: pct,
			CurrentStep:        step,
		},
	}
}

func completed() backend.StatusResponse {
	return backend.StatusResponse{
		Progress: backend.Progress{
			Status:             "completed",
			ProgressPercentage: 100,
			Result: &backend.Result{
				Stats:    backend.Stats{TotalFiles: 10, TotalEntities: 42, DocumentationSize: 4096},
				RepoInfo: map[string]any{"name": "widgets"},
			},
		},
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input string
		want  Status
	}{
		{"processing", StatusProcessing},
		{"completed", StatusCompleted},
		{"error", StatusError},
		{"unknown", StatusUnknown},
		{"something-new", StatusUnknown},
		{"", StatusUnknown},
	}

	for _, tt := range tests {
		if got := ParseStatus(tt.input); got != tt.want {
			t.Errorf("ParseStatus(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSession_Lifecycle(t *testing.T) {
	s := New()

	if s.Active() {
		t.Error("fresh session should not be active")
	}
	if s.Status != StatusUnknown {
		t.Errorf("Status = %v, want unknown", s.Status)
	}

	s.Begin("https://github.com/acme/widgets", "task-1")

	if !s.Active() {
		t.Error("session should be active after Begin")
	}
	if s.Status != StatusProcessing {
		t.Errorf("Status = %v, want processing", s.Status)
	}

	if !s.ApplyStatus("task-1", processing(40, "building code graph")) {
		t.Error("ApplyStatus should report a change")
	}
	if s.Percent != 40 {
		t.Errorf("Percent = %v, want 40", s.Percent)
	}
	if s.CurrentStep != "building code graph" {
		t.Errorf("CurrentStep = %q", s.CurrentStep)
	}

	if !s.ApplyStatus("task-1", completed()) {
		t.Error("ApplyStatus should report the terminal transition")
	}
	if !s.Terminal() {
		t.Error("session should be terminal after completed")
	}
	if s.Percent != 100 {
		t.Errorf("Percent = %v, want 100", s.Percent)
	}
	if s.Stats == nil || s.Stats.TotalEntities != 42 {
		t.Errorf("Stats = %+v, want TotalEntities 42", s.Stats)
	}
	if !s.NeedsDocumentation() {
		t.Error("completed session should need its documentation")
	}
}

func TestSession_StaleTaskIDDiscarded(t *testing.T) {
	s := New()
	s.Begin("https://github.com/acme/widgets", "task-1")
	s.Begin("https://github.com/acme/gadgets", "task-2")

	if s.ApplyStatus("task-1", completed()) {
		t.Error("update for a superseded task must be discarded")
	}
	if s.Terminal() {
		t.Error("stale update must not transition the session")
	}

	if !s.ApplyStatus("task-2", processing(10, "cloning")) {
		t.Error("update for the current task should apply")
	}
}

func TestSession_TerminalIsIdempotent(t *testing.T) {
	s := New()
	s.Begin("https://github.com/acme/widgets", "task-1")
	s.ApplyStatus("task-1", completed())

	if s.ApplyStatus("task-1", completed()) {
		t.Error("repeated terminal poll should be a no-op")
	}
	if s.ApplyStatus("task-1", processing(50, "late update")) {
		t.Error("no transitions out of a terminal status")
	}
	if s.Status != StatusCompleted {
		t.Errorf("Status = %v, want completed", s.Status)
	}
}

func TestSession_UnrecognizedWireStatusDoesNotTransition(t *testing.T) {
	s := New()
	s.Begin("https://github.com/acme/widgets", "task-1")
	s.ApplyStatus("task-1", processing(40, "building code graph"))

	resp := backend.StatusResponse{Progress: backend.Progress{Status: "rebalancing"}}
	if !s.ApplyStatus("task-1", resp) {
		t.Error("unrecognized status should still report a change for rendering")
	}
	if s.Status != StatusProcessing {
		t.Errorf("Status = %v after unrecognized wire status, want processing (no transition)", s.Status)
	}
	if s.Percent != 40 {
		t.Errorf("Percent = %v, want 40 preserved", s.Percent)
	}
	if s.CurrentStep != "building code graph" {
		t.Errorf("CurrentStep = %q, want preserved", s.CurrentStep)
	}
	if !s.UnrecognizedWireStatus() {
		t.Error("the raw wire status should be flagged for the warning line")
	}
	if s.WireStatus != "rebalancing" {
		t.Errorf("WireStatus = %q, want rebalancing", s.WireStatus)
	}

	// The machine still reaches terminal from here
	if !s.ApplyStatus("task-1", completed()) {
		t.Error("completed should apply after an unrecognized status")
	}
	if s.Status != StatusCompleted {
		t.Errorf("Status = %v, want completed", s.Status)
	}
	if s.UnrecognizedWireStatus() {
		t.Error("a recognized poll should clear the warning")
	}
}

func TestSession_ErrorStatus(t *testing.T) {
	s := New()
	s.Begin("https://github.com/acme/widgets", "task-1")

	resp := backend.StatusResponse{
		Progress: backend.Progress{Status: "error"},
		Error:    "clone failed",
	}
	if !s.ApplyStatus("task-1", resp) {
		t.Error("error transition should apply")
	}
	if s.Status != StatusError {
		t.Errorf("Status = %v, want error", s.Status)
	}
	if s.Err != "clone failed" {
		t.Errorf("Err = %q, want clone failed", s.Err)
	}
	if s.NeedsDocumentation() {
		t.Error("errored session must not request documentation")
	}
}

func TestSession_AttachDocumentationOnce(t *testing.T) {
	s := New()
	s.Begin("https://github.com/acme/widgets", "task-1")
	s.ApplyStatus("task-1", completed())

	if !s.AttachDocumentation(backend.Documentation{Content: "# Docs"}) {
		t.Error("first delivery should succeed")
	}
	if s.NeedsDocumentation() {
		t.Error("documentation should be marked delivered")
	}
	if s.AttachDocumentation(backend.Documentation{Content: "# Other"}) {
		t.Error("second delivery must be rejected")
	}
	if s.Documentation != "# Docs" {
		t.Errorf("Documentation = %q, want the first delivery", s.Documentation)
	}
}

func TestSession_AttachDocumentationError(t *testing.T) {
	s := New()
	s.Begin("https://github.com/acme/widgets", "task-1")
	s.ApplyStatus("task-1", completed())

	if s.AttachDocumentation(backend.Documentation{Error: "not found"}) {
		t.Error("error delivery should report failure")
	}
	if s.Err != "not found" {
		t.Errorf("Err = %q, want not found", s.Err)
	}
}

func TestSession_BeginResetsState(t *testing.T) {
	s := New()
	s.Begin("https://github.com/acme/widgets", "task-1")
	s.ApplyStatus("task-1", completed())
	s.AttachDocumentation(backend.Documentation{Content: "# Docs"})

	s.Begin("https://github.com/acme/gadgets", "task-2")

	if s.Documentation != "" || s.DocDelivered {
		t.Error("Begin should clear the previous document")
	}
	if s.Stats != nil {
		t.Error("Begin should clear previous stats")
	}
	if s.Terminal() {
		t.Error("Begin should restart the state machine")
	}
}
