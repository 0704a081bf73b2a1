package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/codebase-genius/genius-cli/internal/backend"
	"github.com/codebase-genius/genius-cli/internal/docfile"
	"github.com/codebase-genius/genius-cli/internal/notify"
	"github.com/codebase-genius/genius-cli/internal/poller"
	"github.com/codebase-genius/genius-cli/internal/session"
)

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = min(msg.Width-8, 80)
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = max(msg.Height-16, 5)
		m.refreshViewport()
		return m, nil

	case healthMsg:
		m.healthy = bool(msg)
		m.healthChecked = true
		m.publish()
		return m, nil

	case healthTickMsg:
		return m, tea.Batch(m.checkHealthCmd(), healthTickCmd())

	case submitResultMsg:
		return m.updateSubmitResult(msg)

	case pollUpdateMsg:
		return m.updatePoll(poller.Update(msg))

	case pollDoneMsg:
		return m, nil

	case docMsg:
		return m.updateDoc(backend.Documentation(msg))

	case savedMsg:
		if msg.err != nil {
			m.setFlash("Save failed: "+msg.err.Error(), true)
		} else {
			m.savedPath = msg.path
			m.setFlash("Saved "+msg.path, false)
		}
		return m, flashExpireCmd()

	case flashExpireMsg:
		if time.Now().After(m.flashExp) {
			m.flash = ""
		}
		return m, nil

	default:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.stopPolling()
		return m, tea.Quit
	}

	if m.showExamples {
		return m.updateExamplesKey(msg)
	}

	if m.input.Focused() {
		switch msg.String() {
		case "enter":
			return m.submit()
		case "esc":
			m.input.Blur()
			return m, nil
		case "ctrl+e":
			m.showExamples = true
			return m, nil
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			m.inputErr = ""
			return m, cmd
		}
	}

	switch msg.String() {
	case "q":
		m.stopPolling()
		return m, tea.Quit
	case "i", "/":
		m.input.Focus()
		return m, nil
	case "e", "ctrl+e":
		m.showExamples = true
		return m, nil
	case "tab":
		if m.hasResult() {
			m.activeTab = (m.activeTab + 1) % tabCount
			m.refreshViewport()
		}
		return m, nil
	case "shift+tab":
		if m.hasResult() {
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			m.refreshViewport()
		}
		return m, nil
	case "s":
		if m.sess.DocDelivered {
			return m, m.saveDocCmd()
		}
		return m, nil
	case "r":
		return m, m.checkHealthCmd()
	case "j", "down", "k", "up", "pgdown", "pgup", "g", "G":
		if m.hasResult() && m.activeTab != tabStats {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

func (m Model) updateExamplesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	examples := m.cfg.UI.ExampleRepos

	switch msg.String() {
	case "esc", "e", "ctrl+e":
		m.showExamples = false
	case "j", "down":
		if m.selectedExamp < len(examples)-1 {
			m.selectedExamp++
		}
	case "k", "up":
		if m.selectedExamp > 0 {
			m.selectedExamp--
		}
	case "enter":
		if len(examples) > 0 {
			m.input.SetValue(examples[m.selectedExamp])
			m.inputErr = ""
		}
		m.showExamples = false
		m.input.Focus()
	}
	return m, nil
}

// submit validates the entered URL and, only if it passes, contacts the
// backend. An invalid URL never issues a network call.
func (m Model) submit() (tea.Model, tea.Cmd) {
	repoURL := m.input.Value()

	if err := backend.ValidateRepoURL(repoURL, m.client.RepoURLPrefix()); err != nil {
		m.inputErr = err.Error()
		return m, nil
	}

	m.inputErr = ""
	m.submitting = true
	return m, tea.Batch(m.submitCmd(repoURL), m.spin.Tick)
}

func (m Model) updateSubmitResult(msg submitResultMsg) (tea.Model, tea.Cmd) {
	m.submitting = false

	if msg.resp.Error != "" {
		m.setFlash("Error: "+msg.resp.Error, true)
		return m, flashExpireCmd()
	}

	m.stopPolling()
	m.sess.Begin(msg.repoURL, msg.resp.TaskID)
	m.savedPath = ""
	m.activeTab = tabPreview
	m.rendered = ""
	m.renderedFor = 0
	m.fm = nil
	m.input.Blur()
	m.setFlash("Analysis started, task "+msg.resp.TaskID, false)
	m.publish()

	ctx, cancel := context.WithCancel(context.Background())
	m.pollCancel = cancel
	m.updates = poller.New(m.client, m.cfg.PollInterval()).Run(ctx, msg.resp.TaskID)

	return m, tea.Batch(waitForUpdateCmd(m.updates), m.spin.Tick, flashExpireCmd())
}

func (m Model) updatePoll(u poller.Update) (tea.Model, tea.Cmd) {
	changed := m.sess.ApplyStatus(u.TaskID, u.Status)
	if !changed {
		// Stale or repeated terminal update; keep draining the channel
		return m, waitForUpdateCmd(m.updates)
	}

	m.publish()

	cmds := []tea.Cmd{waitForUpdateCmd(m.updates)}

	if m.sess.Terminal() {
		ok := m.sess.Status == session.StatusCompleted
		m.notifier.Send(notify.AnalysisFinished(m.sess.RepoURL, m.sess.TaskID, ok, m.sess.Err))
	}
	if m.sess.NeedsDocumentation() {
		cmds = append(cmds, m.fetchDocCmd(m.sess.TaskID))
	}

	return m, tea.Batch(cmds...)
}

func (m Model) updateDoc(doc backend.Documentation) (tea.Model, tea.Cmd) {
	if !m.sess.AttachDocumentation(doc) {
		if doc.Error != "" {
			m.setFlash("Error downloading documentation: "+doc.Error, true)
			return m, flashExpireCmd()
		}
		return m, nil
	}

	m.fm, _, _ = docfile.ParseFrontmatter([]byte(doc.Content))
	m.refreshViewport()
	m.publish()
	return m, nil
}

func (m *Model) stopPolling() {
	if m.pollCancel != nil {
		m.pollCancel()
		m.pollCancel = nil
	}
}

func (m *Model) setFlash(text string, isErr bool) {
	m.flash = text
	m.flashIsErr = isErr
	m.flashExp = time.Now().Add(3 * time.Second)
}

func (m *Model) publish() {
	if m.onUpdate != nil {
		m.onUpdate(m.sess, m.healthy)
	}
}

func (m Model) hasResult() bool {
	return m.sess.DocDelivered
}

// refreshViewport re-renders the active tab's content into the viewport
func (m *Model) refreshViewport() {
	if !m.hasResult() || m.viewport.Width <= 0 {
		return
	}

	switch m.activeTab {
	case tabPreview:
		if m.rendered == "" || m.renderedFor != m.viewport.Width {
			m.rendered = renderMarkdown(m.sess.Documentation, m.viewport.Width)
			m.renderedFor = m.viewport.Width
		}
		m.viewport.SetContent(m.rendered)
	case tabRaw:
		m.viewport.SetContent(m.sess.Documentation)
	}
	m.viewport.GotoTop()
}

func saveDocumentation(dir, content string) (string, error) {
	return docfile.Save(dir, content, time.Now())
}
