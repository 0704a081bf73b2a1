package backend

// analyzeRequest is the POST body for /analyze_repo
type analyzeRequest struct {
	RepoURL string `json:"repo_url"`
}

// AnalyzeResponse is the backend's reply to a submission. Exactly one of
// TaskID and Error is set.
type AnalyzeResponse struct {
	TaskID string `json:"task_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Stats summarizes an analysis result
type Stats struct {
	TotalFiles        int `json:"total_files"`
	TotalEntities     int `json:"total_entities"`
	DocumentationSize int `json:"documentation_size"`
}

// Result carries the payload attached to a completed status record
type Result struct {
	Stats    Stats          `json:"stats"`
	RepoInfo map[string]any `json:"repo_info,omitempty"`
}

// Progress is the backend's view of a running task
type Progress struct {
	Status             string  `json:"status"`
	ProgressPercentage float64 `json:"progress_percentage"`
	CurrentStep        string  `json:"current_step"`
	Result             *Result `json:"result,omitempty"`
}

// StatusResponse is the record returned by /status/{id}
type StatusResponse struct {
	Progress Progress `json:"progress"`
	Error    string   `json:"error,omitempty"`
}

// Documentation is the artifact returned by /download/{id}
type Documentation struct {
	Content string `json:"doc_content"`
	Error   string `json:"error,omitempty"`
}
