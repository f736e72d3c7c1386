package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/flatsync/internal/domain"
	"github.com/mmcdole/flatsync/internal/tui/styles"
)

const (
	defaultBarWidth = 40
	maxBarWidth     = 80
)

// SyncModel renders the status stream of one sync run and exits once the run
// reaches a terminal state.
type SyncModel struct {
	statuses <-chan domain.SyncStatus
	keys     KeyMap
	spinner  spinner.Model
	progress progress.Model

	status   domain.SyncStatus
	started  bool // A run-owned (non-idle) status has been seen
	finished bool
	aborted  bool
}

// NewSyncModel creates a model reading from statuses
func NewSyncModel(statuses <-chan domain.SyncStatus) SyncModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.AccentStyle

	return SyncModel{
		statuses: statuses,
		keys:     DefaultKeyMap(),
		spinner:  sp,
		progress: progress.New(
			progress.WithGradient(string(styles.Accent), string(styles.AccentEnd)),
			progress.WithWidth(defaultBarWidth),
		),
		status: domain.StatusIdle(),
	}
}

func (m SyncModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, WaitForStatus(m.statuses))
}

func (m SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StatusMsg:
		return m.handleStatus(domain.SyncStatus(msg))

	case StatusClosedMsg:
		m.finished = true
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.aborted = true
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.progress.Width = min(max(msg.Width-8, 10), maxBarWidth)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m SyncModel) handleStatus(status domain.SyncStatus) (tea.Model, tea.Cmd) {
	m.status = status

	switch {
	case status.Active():
		m.started = true
	case status.Phase == domain.PhaseIdle && !m.started:
		// Subscribed before the run started
	default:
		// completed, error, or idle after a run whose completion was conflated away
		m.finished = true
		return m, tea.Quit
	}

	return m, WaitForStatus(m.statuses)
}

func (m SyncModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("Offline sync"))
	b.WriteString("\n\n")

	s := m.status
	switch s.Phase {
	case domain.PhaseProcessing:
		b.WriteString(m.spinner.View() + " " + styles.SubtitleStyle.Render(s.Message))
	case domain.PhaseDownloading:
		b.WriteString(m.spinner.View() + " " + styles.SubtitleStyle.Render("downloading images"))
		b.WriteString("\n")
		b.WriteString(m.progress.ViewAs(s.Progress()))
		b.WriteString(styles.DimStyle.Render(fmt.Sprintf(" %d/%d", s.Current, s.Total)))
	case domain.PhaseCompleted:
		b.WriteString(styles.SuccessStyle.Render(styles.CompletedChar + " sync completed"))
	case domain.PhaseError:
		b.WriteString(styles.ErrorStyle.Render(styles.ErrorChar + " " + s.Message))
	default:
		b.WriteString(styles.DimStyle.Render(styles.IdleChar + " waiting"))
	}

	if !m.finished {
		help := m.keys.Quit.Help()
		b.WriteString("\n\n")
		b.WriteString(styles.HelpKeyStyle.Render(help.Key) + " " + styles.HelpDescStyle.Render(help.Desc))
	}

	return styles.PanelStyle.Render(b.String()) + "\n"
}

// Status returns the last status the model rendered
func (m SyncModel) Status() domain.SyncStatus {
	return m.status
}

// Aborted reports whether the user quit before the run finished
func (m SyncModel) Aborted() bool {
	return m.aborted
}
