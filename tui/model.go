package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/codebase-genius/genius-cli/internal/backend"
	"github.com/codebase-genius/genius-cli/internal/config"
	"github.com/codebase-genius/genius-cli/internal/docfile"
	"github.com/codebase-genius/genius-cli/internal/notify"
	"github.com/codebase-genius/genius-cli/internal/poller"
	"github.com/codebase-genius/genius-cli/internal/session"
)

// Result tabs
const (
	tabPreview = iota
	tabRaw
	tabStats
	tabCount
)

// healthInterval is how often the backend health indicator refreshes
const healthInterval = 10 * time.Second

// Model is the TUI application model
type Model struct {
	cfg      *config.Config
	client   *backend.Client
	notifier notify.Notifier
	onUpdate func(s *session.Session, healthy bool)

	sess *session.Session

	// Widgets
	input    textinput.Model
	prog     progress.Model
	spin     spinner.Model
	viewport viewport.Model

	// UI state
	width         int
	height        int
	activeTab     int
	inputErr      string
	flash         string
	flashIsErr    bool
	flashExp      time.Time
	savedPath     string
	submitting    bool
	showExamples  bool
	selectedExamp int

	// Backend health
	healthy       bool
	healthChecked bool

	// Polling
	updates    <-chan poller.Update
	pollCancel context.CancelFunc

	// Rendered markdown cache, keyed by width
	renderedFor int
	rendered    string

	// Frontmatter of the delivered document, shown on the stats tab
	fm *docfile.Frontmatter
}

// ModelConfig holds dependencies for the TUI model
type ModelConfig struct {
	Config   *config.Config
	Client   *backend.Client
	Notifier notify.Notifier
	// OnUpdate is invoked after every session change, for the web mirror
	OnUpdate func(s *session.Session, healthy bool)
}

// NewModel creates a new TUI model
func NewModel(mc ModelConfig) Model {
	input := textinput.New()
	input.Placeholder = "https://github.com/username/repository"
	input.CharLimit = 256
	input.Focus()

	notifier := mc.Notifier
	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}

	return Model{
		cfg:      mc.Config,
		client:   mc.Client,
		notifier: notifier,
		onUpdate: mc.OnUpdate,
		sess:     session.New(),
		input:    input,
		prog:     progress.New(progress.WithDefaultGradient()),
		spin:     spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

// Session exposes the view state, mainly for tests
func (m Model) Session() *session.Session {
	return m.sess
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.checkHealthCmd(),
		healthTickCmd(),
		m.spin.Tick,
	)
}

// healthMsg carries a backend reachability probe result
type healthMsg bool

// healthTickMsg schedules the next health probe
type healthTickMsg time.Time

// submitResultMsg carries the backend's reply to a submission
type submitResultMsg struct {
	repoURL string
	resp    backend.AnalyzeResponse
}

// pollUpdateMsg carries one status poll result
type pollUpdateMsg poller.Update

// pollDoneMsg signals the poll loop has ended
type pollDoneMsg struct{}

// docMsg carries the downloaded documentation
type docMsg backend.Documentation

// savedMsg reports a documentation save
type savedMsg struct {
	path string
	err  error
}

// flashExpireMsg clears a transient status line
type flashExpireMsg struct{}

func healthTickCmd() tea.Cmd {
	return tea.Tick(healthInterval, func(t time.Time) tea.Msg {
		return healthTickMsg(t)
	})
}

func (m Model) checkHealthCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		return healthMsg(client.Health(context.Background()))
	}
}

func (m Model) submitCmd(repoURL string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		resp, err := client.SubmitAnalysis(context.Background(), repoURL)
		if err != nil {
			// Validation is done before this command runs; anything left is
			// surfaced as an error-shaped response
			resp.Error = err.Error()
		}
		return submitResultMsg{repoURL: repoURL, resp: resp}
	}
}

// waitForUpdateCmd blocks on the poller channel and forwards one update
func waitForUpdateCmd(updates <-chan poller.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return pollDoneMsg{}
		}
		return pollUpdateMsg(u)
	}
}

func (m Model) fetchDocCmd(taskID string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		return docMsg(client.FetchDocumentation(context.Background(), taskID))
	}
}

func (m Model) saveDocCmd() tea.Cmd {
	dir := m.cfg.UI.OutputDir
	content := m.sess.Documentation
	return func() tea.Msg {
		path, err := saveDocumentation(dir, content)
		return savedMsg{path: path, err: err}
	}
}

func flashExpireCmd() tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return flashExpireMsg{}
	})
}
