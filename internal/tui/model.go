// Package tui implements the terminal status view shown while documents are
// open. It lists the coordinated instances, offers the close command on a
// key, and quits once every instance is gone.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/tandem/internal/coordinator"
	"github.com/Iron-Ham/tandem/internal/tui/styles"
)

// Controller is the part of the coordinator the view drives.
type Controller interface {
	CloseAll() error
	Instances() []coordinator.Status
	CommandLabel() string
	Terminated() bool
}

// Messages delivered from the event bus.
type (
	instanceDeletedMsg struct {
		id   string
		live int
	}
	closeStartedMsg  struct{ pending int }
	closeFinishedMsg struct{ attempted, failed int }
	terminatedMsg    struct{ code int }
	closeResultMsg   struct{ err error }
)

// Model is the bubbletea model of the status view.
type Model struct {
	ctrl  Controller
	title string
	hint  string

	statuses    []coordinator.Status
	live        int
	closing     bool
	terminated  bool
	interrupted bool
	lastErr     error
	lastEvent   string

	keys  keyMap
	help  help.Model
	width int
}

// NewModel returns a status view model for ctrl. hint is shown under the
// title, e.g. how to attach to the tool.
func NewModel(ctrl Controller, title, hint string) Model {
	statuses := ctrl.Instances()
	live := 0
	for _, s := range statuses {
		if !s.Deleted {
			live++
		}
	}
	return Model{
		ctrl:     ctrl,
		title:    title,
		hint:     hint,
		statuses: statuses,
		live:     live,
		keys:     defaultKeyMap(ctrl.CommandLabel()),
		help:     help.New(),
	}
}

// Terminated reports whether the view quit because every instance closed.
func (m Model) Terminated() bool { return m.terminated }

// Interrupted reports whether the user asked to close everything and exit.
func (m Model) Interrupted() bool { return m.interrupted }

// Init implements tea.Model. A coordinator that terminated before the view
// subscribed to the bus quits the view right away.
func (m Model) Init() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		if ctrl.Terminated() {
			return terminatedMsg{code: coordinator.ExitSuccess}
		}
		return nil
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.CloseAll):
			if m.closing {
				return m, nil
			}
			m.closing = true
			return m, m.closeAll()
		case key.Matches(msg, m.keys.Interrupt):
			m.interrupted = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Detach):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		return m, nil

	case closeStartedMsg:
		m.closing = true
		m.lastEvent = fmt.Sprintf("closing %d document(s)", msg.pending)

	case closeFinishedMsg:
		m.closing = false
		if msg.failed > 0 {
			m.lastEvent = fmt.Sprintf("%d of %d close request(s) failed", msg.failed, msg.attempted)
		} else {
			m.lastEvent = fmt.Sprintf("requested close of %d document(s)", msg.attempted)
		}

	case closeResultMsg:
		m.closing = false
		m.lastErr = msg.err

	case instanceDeletedMsg:
		m.live = msg.live
		m.lastEvent = fmt.Sprintf("%s closed, %d still open", msg.id, msg.live)

	case terminatedMsg:
		m.terminated = true
		m.statuses = m.ctrl.Instances()
		return m, tea.Quit
	}

	m.statuses = m.ctrl.Instances()
	return m, nil
}

func (m Model) closeAll() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		return closeResultMsg{err: ctrl.CloseAll()}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render(m.title))
	b.WriteString("\n")
	if m.hint != "" {
		b.WriteString(styles.Muted.Render(m.hint))
		b.WriteString("\n\n")
	}

	rows := make([]string, 0, len(m.statuses))
	for _, s := range m.statuses {
		rows = append(rows, m.renderRow(s))
	}
	if len(rows) == 0 {
		rows = append(rows, styles.Muted.Render("no documents"))
	}
	b.WriteString(styles.ContentBox.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
	b.WriteString("\n")

	status := fmt.Sprintf("%d open in this process", m.live)
	if m.lastEvent != "" {
		status += " · " + m.lastEvent
	}
	b.WriteString(styles.StatusLine.Render(status))
	b.WriteString("\n")
	if m.lastErr != nil {
		b.WriteString(styles.Error.Render(m.lastErr.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderRow(s coordinator.Status) string {
	state := styles.StateOpen
	switch {
	case s.Deleted:
		state = styles.StateClosed
	case m.closing:
		state = styles.StateClosing
	}
	color := styles.StatusColor(state)
	icon := lipgloss.NewStyle().Foreground(color).Render(styles.StatusIcon(state))
	label := lipgloss.NewStyle().Foreground(color).Render(state)
	return fmt.Sprintf("%s %s %-8s %s", icon, styles.InstanceID.Render(s.ID), label, s.Source)
}
