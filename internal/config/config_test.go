package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Default()

	if cfg.Backend.URL != "http://localhost:8000" {
		t.Errorf("Backend.URL = %q, want http://localhost:8000", cfg.Backend.URL)
	}
	if cfg.Backend.RepoURLPrefix != "https://github.com/" {
		t.Errorf("RepoURLPrefix = %q, want https://github.com/", cfg.Backend.RepoURLPrefix)
	}
	if cfg.UI.PollIntervalSecs != 3 {
		t.Errorf("PollIntervalSecs = %d, want 3", cfg.UI.PollIntervalSecs)
	}
	if len(cfg.UI.ExampleRepos) != 3 {
		t.Errorf("ExampleRepos count = %d, want 3", len(cfg.UI.ExampleRepos))
	}
	if !cfg.Notifications.Desktop {
		t.Error("desktop notifications should be on by default")
	}
	if cfg.Web.Enabled {
		t.Error("web mirror should be off by default")
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	content := `
[backend]
url = "http://docs.internal:9000"
repo_url_prefix = "https://git.example.com/"

[ui]
poll_interval_secs = 10

[web]
enabled = true
addr = "127.0.0.1:7070"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Backend.URL != "http://docs.internal:9000" {
		t.Errorf("Backend.URL = %q, want http://docs.internal:9000", cfg.Backend.URL)
	}
	if cfg.Backend.RepoURLPrefix != "https://git.example.com/" {
		t.Errorf("RepoURLPrefix = %q, want https://git.example.com/", cfg.Backend.RepoURLPrefix)
	}
	if cfg.UI.PollIntervalSecs != 10 {
		t.Errorf("PollIntervalSecs = %d, want 10", cfg.UI.PollIntervalSecs)
	}
	if !cfg.Web.Enabled {
		t.Error("Web.Enabled should be true")
	}
	// Unset sections keep their defaults
	if cfg.Backend.SubmitTimeoutSecs != 10 {
		t.Errorf("SubmitTimeoutSecs = %d, want default 10", cfg.Backend.SubmitTimeoutSecs)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v, want defaults", err)
	}
	if cfg.Backend.URL != "http://localhost:8000" {
		t.Errorf("Backend.URL = %q, want default", cfg.Backend.URL)
	}
}

func TestPollInterval(t *testing.T) {
	cfg := Default()
	if cfg.PollInterval() != 3*time.Second {
		t.Errorf("PollInterval() = %v, want 3s", cfg.PollInterval())
	}

	cfg.UI.PollIntervalSecs = 0
	if cfg.PollInterval() != 3*time.Second {
		t.Errorf("PollInterval() with zero = %v, want fallback 3s", cfg.PollInterval())
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input string
		want  string
	}{
		{"~/docs", filepath.Join(home, "docs")},
		{"/absolute/path", "/absolute/path"},
		{"relative", "relative"},
	}

	for _, tt := range tests {
		got := ExpandPath(tt.input)
		if got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
