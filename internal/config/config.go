package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	Backend       BackendConfig       `toml:"backend"`
	UI            UIConfig            `toml:"ui"`
	Notifications NotificationsConfig `toml:"notifications"`
	Watch         WatchConfig         `toml:"watch"`
	Web           WebConfig           `toml:"web"`
}

// BackendConfig holds settings for the documentation backend
type BackendConfig struct {
	URL               string `toml:"url"`
	RepoURLPrefix     string `toml:"repo_url_prefix"`
	HealthTimeoutSecs int    `toml:"health_timeout_secs"`
	SubmitTimeoutSecs int    `toml:"submit_timeout_secs"`
	StatusTimeoutSecs int    `toml:"status_timeout_secs"`
}

// UIConfig holds dashboard settings
type UIConfig struct {
	PollIntervalSecs int      `toml:"poll_interval_secs"`
	ExampleRepos     []string `toml:"example_repos"`
	OutputDir        string   `toml:"output_dir"`
}

// NotificationsConfig holds notification settings
type NotificationsConfig struct {
	Desktop      bool   `toml:"desktop"`
	SlackWebhook string `toml:"slack_webhook"`
}

// WatchConfig holds settings for watch mode
type WatchConfig struct {
	WatchlistPath string   `toml:"watchlist_path"`
	Cron          string   `toml:"cron"`
	Repos         []string `toml:"repos"`
}

// WebConfig holds settings for the local status mirror
type WebConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Backend: BackendConfig{
			URL:               "http://localhost:8000",
			RepoURLPrefix:     "https://github.com/",
			HealthTimeoutSecs: 5,
			SubmitTimeoutSecs: 10,
			StatusTimeoutSecs: 5,
		},
		UI: UIConfig{
			PollIntervalSecs: 3,
			ExampleRepos: []string{
				"https://github.com/jaseci-labs/jaclang",
				"https://github.com/fastapi/fastapi",
				"https://github.com/pallets/flask",
			},
			OutputDir: filepath.Join(home, "genius-docs"),
		},
		Notifications: NotificationsConfig{
			Desktop: true,
		},
		Watch: WatchConfig{
			WatchlistPath: filepath.Join(home, ".config", "genius", "watchlist.md"),
		},
		Web: WebConfig{
			Enabled: false,
			Addr:    "127.0.0.1:8090",
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Expand paths
	cfg.UI.OutputDir = ExpandPath(cfg.UI.OutputDir)
	cfg.Watch.WatchlistPath = ExpandPath(cfg.Watch.WatchlistPath)

	return cfg, nil
}

// PollInterval returns the status poll cadence as a duration
func (c *Config) PollInterval() time.Duration {
	secs := c.UI.PollIntervalSecs
	if secs <= 0 {
		secs = 3
	}
	return time.Duration(secs) * time.Second
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "genius", "config.toml")
}
