package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/flatsync/internal/domain"
)

// WaitForStatus returns a command that reads the next status from ch.
// Update re-issues it after every StatusMsg so the program keeps pumping.
func WaitForStatus(ch <-chan domain.SyncStatus) tea.Cmd {
	return func() tea.Msg {
		status, ok := <-ch
		if !ok {
			return StatusClosedMsg{}
		}
		return StatusMsg(status)
	}
}
