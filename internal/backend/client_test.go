package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/codebase-genius/genius-cli/internal/config"
)

func testClient(url string) *Client {
	return NewClient(config.BackendConfig{
		URL:           url,
		RepoURLPrefix: "https://github.com/",
	})
}

func TestValidateRepoURL(t *testing.T) {
	if err := ValidateRepoURL("", "https://github.com/"); !errors.Is(err, ErrEmptyRepoURL) {
		t.Errorf("empty URL: err = %v, want ErrEmptyRepoURL", err)
	}
	if err := ValidateRepoURL("   ", "https://github.com/"); !errors.Is(err, ErrEmptyRepoURL) {
		t.Errorf("blank URL: err = %v, want ErrEmptyRepoURL", err)
	}
	if err := ValidateRepoURL("not-a-url", "https://github.com/"); !errors.Is(err, ErrInvalidRepoURL) {
		t.Errorf("bad prefix: err = %v, want ErrInvalidRepoURL", err)
	}
	if err := ValidateRepoURL("https://github.com/acme/widgets", "https://github.com/"); err != nil {
		t.Errorf("valid URL: err = %v, want nil", err)
	}
}

func TestSubmitAnalysis_InvalidURLNeverHitsNetwork(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	client := testClient(server.URL)

	_, err := client.SubmitAnalysis(context.Background(), "not-a-url")
	if !errors.Is(err, ErrInvalidRepoURL) {
		t.Errorf("err = %v, want ErrInvalidRepoURL", err)
	}
	_, err = client.SubmitAnalysis(context.Background(), "")
	if !errors.Is(err, ErrEmptyRepoURL) {
		t.Errorf("err = %v, want ErrEmptyRepoURL", err)
	}

	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("backend saw %d calls, want 0", n)
	}
}

func TestSubmitAnalysis_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/analyze_repo" {
			t.Errorf("got %s %s, want POST /analyze_repo", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"task_id": "abc-123"}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	resp, err := client.SubmitAnalysis(context.Background(), "https://github.com/acme/widgets")
	if err != nil {
		t.Fatal(err)
	}
	if resp.TaskID != "abc-123" {
		t.Errorf("TaskID = %q, want abc-123", resp.TaskID)
	}
	if resp.Error != "" {
		t.Errorf("Error = %q, want empty", resp.Error)
	}
}

func TestSubmitAnalysis_Non200IsErrorShaped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := testClient(server.URL)
	resp, err := client.SubmitAnalysis(context.Background(), "https://github.com/acme/widgets")
	if err != nil {
		t.Fatalf("transport failures must not surface as errors, got %v", err)
	}
	if resp.Error == "" {
		t.Error("Error should be set for a 500 response")
	}
}

func TestSubmitAnalysis_UnreachableBackend(t *testing.T) {
	client := testClient("http://127.0.0.1:1")

	resp, err := client.SubmitAnalysis(context.Background(), "https://github.com/acme/widgets")
	if err != nil {
		t.Fatalf("err = %v, want error-shaped response", err)
	}
	if resp.Error == "" {
		t.Error("Error should carry the transport failure message")
	}
}

func TestPollStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status/abc-123" {
			t.Errorf("path = %s, want /status/abc-123", r.URL.Path)
		}
		w.Write([]byte(`{"progress": {"status": "processing", "progress_percentage": 40, "current_step": "building code graph"}}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	status := client.PollStatus(context.Background(), "abc-123")

	if status.Progress.Status != "processing" {
		t.Errorf("Status = %q, want processing", status.Progress.Status)
	}
	if status.Progress.ProgressPercentage != 40 {
		t.Errorf("ProgressPercentage = %v, want 40", status.Progress.ProgressPercentage)
	}
	if status.Progress.CurrentStep != "building code graph" {
		t.Errorf("CurrentStep = %q", status.Progress.CurrentStep)
	}
}

func TestPollStatus_FailureIsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(server.URL)
	status := client.PollStatus(context.Background(), "missing")

	if status.Progress.Status != "error" {
		t.Errorf("Status = %q, want error", status.Progress.Status)
	}
	if status.Error == "" {
		t.Error("Error message should be set")
	}
}

func TestPollStatus_CompletedWithResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"progress": {"status": "completed", "progress_percentage": 100,
			"result": {"stats": {"total_files": 12, "total_entities": 48, "documentation_size": 20480},
			"repo_info": {"name": "widgets", "owner": "acme"}}}}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	status := client.PollStatus(context.Background(), "abc-123")

	if status.Progress.Result == nil {
		t.Fatal("Result should be present on completed status")
	}
	if status.Progress.Result.Stats.TotalFiles != 12 {
		t.Errorf("TotalFiles = %d, want 12", status.Progress.Result.Stats.TotalFiles)
	}
	if status.Progress.Result.RepoInfo["owner"] != "acme" {
		t.Errorf("RepoInfo[owner] = %v, want acme", status.Progress.Result.RepoInfo["owner"])
	}
}

func TestFetchDocumentation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/download/abc-123" {
			t.Errorf("path = %s, want /download/abc-123", r.URL.Path)
		}
		w.Write([]byte(`{"doc_content": "# Widgets\n\nGenerated docs."}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	doc := client.FetchDocumentation(context.Background(), "abc-123")

	if doc.Error != "" {
		t.Fatalf("Error = %q, want empty", doc.Error)
	}
	if doc.Content != "# Widgets\n\nGenerated docs." {
		t.Errorf("Content = %q", doc.Content)
	}
}

func TestFetchDocumentation_Failure(t *testing.T) {
	client := testClient("http://127.0.0.1:1")
	doc := client.FetchDocumentation(context.Background(), "abc-123")

	if doc.Error == "" {
		t.Error("Error should be set when the backend is unreachable")
	}
	if doc.Content != "" {
		t.Errorf("Content = %q, want empty", doc.Content)
	}
}

func TestHealth(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %s, want /health", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	if !testClient(healthy.URL).Health(context.Background()) {
		t.Error("Health() = false for a 200 backend")
	}

	unhealthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer unhealthy.Close()

	if testClient(unhealthy.URL).Health(context.Background()) {
		t.Error("Health() = true for a 503 backend")
	}

	if testClient("http://127.0.0.1:1").Health(context.Background()) {
		t.Error("Health() = true for an unreachable backend")
	}
}
