package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/codebase-genius/genius-cli/internal/config"
)

// Validation errors returned by SubmitAnalysis before any network call
var (
	ErrEmptyRepoURL   = errors.New("repository URL is empty")
	ErrInvalidRepoURL = errors.New("repository URL does not match the required prefix")
)

// Client talks to the documentation backend. Every call converts transport
// failures and non-200 responses into error-shaped results; no call ever
// terminates the process.
type Client struct {
	baseURL       string
	repoPrefix    string
	healthTimeout time.Duration
	submitTimeout time.Duration
	statusTimeout time.Duration
	httpClient    *http.Client
}

// NewClient creates a client from backend configuration
func NewClient(cfg config.BackendConfig) *Client {
	return &Client{
		baseURL:       strings.TrimRight(cfg.URL, "/"),
		repoPrefix:    cfg.RepoURLPrefix,
		healthTimeout: secondsOr(cfg.HealthTimeoutSecs, 5),
		submitTimeout: secondsOr(cfg.SubmitTimeoutSecs, 10),
		statusTimeout: secondsOr(cfg.StatusTimeoutSecs, 5),
		httpClient:    &http.Client{},
	}
}

func secondsOr(secs, fallback int) time.Duration {
	if secs <= 0 {
		secs = fallback
	}
	return time.Duration(secs) * time.Second
}

// RepoURLPrefix returns the prefix submitted URLs must carry
func (c *Client) RepoURLPrefix() string {
	return c.repoPrefix
}

// ValidateRepoURL checks a repository URL against the required prefix.
// Used by callers to reject input before a submit is attempted.
func ValidateRepoURL(repoURL, prefix string) error {
	if strings.TrimSpace(repoURL) == "" {
		return ErrEmptyRepoURL
	}
	if prefix != "" && !strings.HasPrefix(repoURL, prefix) {
		return fmt.Errorf("%w: want %s...", ErrInvalidRepoURL, prefix)
	}
	return nil
}

// Health reports backend reachability. Any transport failure or non-200
// status maps to false.
func (c *Client) Health(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// SubmitAnalysis starts a repository analysis. The URL is validated first;
// a validation failure is returned as an error without contacting the
// backend. Transport failures and non-200 responses come back as an
// error-shaped AnalyzeResponse.
func (c *Client) SubmitAnalysis(ctx context.Context, repoURL string) (AnalyzeResponse, error) {
	if err := ValidateRepoURL(repoURL, c.repoPrefix); err != nil {
		return AnalyzeResponse{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	defer cancel()

	body, err := json.Marshal(analyzeRequest{RepoURL: repoURL})
	if err != nil {
		return AnalyzeResponse{Error: err.Error()}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze_repo", bytes.NewReader(body))
	if err != nil {
		return AnalyzeResponse{Error: err.Error()}, nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return AnalyzeResponse{Error: err.Error()}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return AnalyzeResponse{Error: fmt.Sprintf("failed with status code: %d", resp.StatusCode)}, nil
	}

	var out AnalyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return AnalyzeResponse{Error: fmt.Sprintf("decoding response: %v", err)}, nil
	}
	return out, nil
}

// PollStatus fetches the status record for a task. Failures yield a
// status of "error" with the message attached; the caller owns the cadence.
func (c *Client) PollStatus(ctx context.Context, taskID string) StatusResponse {
	ctx, cancel := context.WithTimeout(ctx, c.statusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status/"+taskID, nil)
	if err != nil {
		return errorStatus(err.Error())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errorStatus(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errorStatus("failed to check status")
	}

	var out StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return errorStatus(fmt.Sprintf("decoding status: %v", err))
	}
	return out
}

// FetchDocumentation downloads the generated document for a task
func (c *Client) FetchDocumentation(ctx context.Context, taskID string) Documentation {
	ctx, cancel := context.WithTimeout(ctx, c.statusTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/download/"+taskID, nil)
	if err != nil {
		return Documentation{Error: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Documentation{Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Documentation{Error: "failed to download documentation"}
	}

	var out Documentation
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Documentation{Error: fmt.Sprintf("decoding documentation: %v", err)}
	}
	return out
}

func errorStatus(msg string) StatusResponse {
	return StatusResponse{
		Progress: Progress{Status: "error"},
		Error:    msg,
	}
}
