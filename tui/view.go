package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/codebase-genius/genius-cli/internal/session"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	healthyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("255"))

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Underline(true)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244"))

	metricStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))
)

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	// Header
	header := " Codebase Genius │ " + m.healthText()
	if m.sess.TaskID != "" {
		header += fmt.Sprintf(" │ Task: %s", m.sess.TaskID)
	}
	b.WriteString(headerStyle.Width(m.width).Render(header))
	b.WriteString("\n")

	if m.showExamples {
		b.WriteString(sectionStyle.Width(m.width - 2).Render(m.renderExamples()))
		b.WriteString("\n")
	} else {
		b.WriteString(sectionStyle.Width(m.width - 2).Render(m.renderInput()))
		b.WriteString("\n")

		if m.sess.TaskID != "" {
			b.WriteString(sectionStyle.Width(m.width - 2).Render(m.renderStatus()))
			b.WriteString("\n")
		}

		if m.hasResult() {
			b.WriteString(m.renderTabs())
			b.WriteString("\n")
			b.WriteString(sectionStyle.Width(m.width - 2).Render(m.renderResult()))
			b.WriteString("\n")
		}
	}

	// Flash message
	if m.flash != "" {
		style := healthyStyle
		if m.flashIsErr {
			style = errorStyle
		}
		b.WriteString(style.Width(m.width).Render(" " + m.flash + " "))
		b.WriteString("\n")
	}

	b.WriteString(statusBarStyle.Width(m.width).Render(m.statusBar()))

	return b.String()
}

func (m Model) healthText() string {
	if !m.healthChecked {
		return dimStyle.Render("checking backend...")
	}
	if m.healthy {
		return healthyStyle.Render("backend running")
	}
	return errorStyle.Render("backend not responding")
}

func (m Model) renderInput() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("GENERATE DOCUMENTATION"))
	b.WriteString("\n")
	b.WriteString("  GitHub repository URL:\n")
	b.WriteString("  " + m.input.View())
	b.WriteString("\n")

	if m.inputErr != "" {
		b.WriteString(errorStyle.Render("  " + m.inputErr))
		b.WriteString("\n")
	}

	if m.healthChecked && !m.healthy {
		b.WriteString(warningStyle.Render("  Backend is unreachable. Start it with: jac serve main.jac"))
		b.WriteString("\n")
	}

	if m.submitting {
		b.WriteString(dimStyle.Render("  " + m.spin.View() + " Starting analysis..."))
		b.WriteString("\n")
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) renderExamples() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("EXAMPLE REPOSITORIES"))
	b.WriteString("\n")

	examples := m.cfg.UI.ExampleRepos
	if len(examples) == 0 {
		b.WriteString(dimStyle.Render("  No examples configured"))
		return b.String()
	}

	for i, repo := range examples {
		if i == m.selectedExamp {
			b.WriteString(tabActiveStyle.Render("> " + repo))
		} else {
			b.WriteString(dimStyle.Render("  " + repo))
		}
		b.WriteString("\n")
	}

	b.WriteString(dimStyle.Render("  [j/k]navigate [enter]use [esc]back"))
	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) renderStatus() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("STATUS"))
	b.WriteString("\n")

	switch m.sess.Status {
	case session.StatusCompleted:
		b.WriteString(healthyStyle.Render("  ✓ Completed"))
		b.WriteString("\n")
		b.WriteString("  " + m.prog.ViewAs(1.0))
	case session.StatusError:
		msg := m.sess.Err
		if msg == "" {
			msg = "analysis failed"
		}
		b.WriteString(errorStyle.Render("  ✗ Error: " + msg))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("  Submit the repository again to retry."))
	case session.StatusProcessing:
		step := m.sess.CurrentStep
		if step == "" {
			step = "working..."
		}
		b.WriteString(fmt.Sprintf("  %s %s", m.spin.View(), step))
		b.WriteString("\n")
		b.WriteString("  " + m.prog.ViewAs(m.sess.Percent/100))
		if m.sess.UnrecognizedWireStatus() {
			b.WriteString("\n")
			b.WriteString(warningStyle.Render(fmt.Sprintf("  Backend reported status %q", m.sess.WireStatus)))
		}
	default:
		b.WriteString(warningStyle.Render(fmt.Sprintf("  Status: %s", m.sess.Status)))
		b.WriteString("\n")
		b.WriteString("  " + m.prog.ViewAs(0))
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) renderTabs() string {
	tabs := []string{"Preview", "Raw Markdown", "Stats"}
	var parts []string

	for i, tab := range tabs {
		if i == m.activeTab {
			parts = append(parts, tabActiveStyle.Render(fmt.Sprintf(" %s ", tab)))
		} else {
			parts = append(parts, tabInactiveStyle.Render(fmt.Sprintf(" %s ", tab)))
		}
	}

	return strings.Join(parts, "│")
}

func (m Model) renderResult() string {
	if m.activeTab == tabStats {
		return m.renderStats()
	}

	if m.sess.Documentation == "" {
		return dimStyle.Render("  Documentation is empty or not yet generated.")
	}

	return m.viewport.View()
}

func (m Model) renderStats() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("ANALYSIS STATS"))
	b.WriteString("\n")

	stats := m.sess.Stats
	if stats == nil {
		b.WriteString(dimStyle.Render("  No stats available"))
		return b.String()
	}

	b.WriteString(fmt.Sprintf("  Total Files:    %s\n", metricStyle.Render(humanize.Comma(int64(stats.TotalFiles)))))
	b.WriteString(fmt.Sprintf("  Total Entities: %s\n", metricStyle.Render(humanize.Comma(int64(stats.TotalEntities)))))
	b.WriteString(fmt.Sprintf("  Doc Size:       %s chars\n", metricStyle.Render(humanize.Comma(int64(stats.DocumentationSize)))))

	if len(m.sess.RepoInfo) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("REPOSITORY"))
		b.WriteString("\n")

		keys := make([]string, 0, len(m.sess.RepoInfo))
		for k := range m.sess.RepoInfo {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			b.WriteString(fmt.Sprintf("  %-16s %v\n", k+":", m.sess.RepoInfo[k]))
		}
	}

	if fm := m.fm; fm != nil && (fm.Title != "" || fm.Repo != "" || fm.GeneratedAt != "") {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("DOCUMENT"))
		b.WriteString("\n")
		if fm.Title != "" {
			b.WriteString(fmt.Sprintf("  %-16s %s\n", "title:", fm.Title))
		}
		if fm.Repo != "" {
			b.WriteString(fmt.Sprintf("  %-16s %s\n", "repo:", fm.Repo))
		}
		if fm.GeneratedAt != "" {
			b.WriteString(fmt.Sprintf("  %-16s %s\n", "generated:", fm.GeneratedAt))
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) statusBar() string {
	if m.showExamples {
		return " [j/k]navigate [enter]use example [esc]back "
	}
	if m.input.Focused() {
		return " [enter]analyze [ctrl+e]examples [esc]unfocus [ctrl+c]quit "
	}
	if m.hasResult() {
		return " [tab]switch view [j/k]scroll [s]ave [i]nput [e]xamples [q]uit "
	}
	return " [i]nput [e]xamples [r]echeck backend [q]uit "
}

// renderMarkdown renders markdown with glamour, falling back to the raw
// source when the renderer fails
func renderMarkdown(content string, width int) string {
	if width < 10 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return content
	}

	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return out
}
