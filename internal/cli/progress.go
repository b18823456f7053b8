package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// itemDoneMsg reports one finished download. Sent from the downloader's
// progress callback via Program.Send, so it may arrive from any goroutine.
type itemDoneMsg struct {
	done  int
	total int
}

// downloadsFinishedMsg ends the program once the run completes, whether or
// not every item succeeded.
type downloadsFinishedMsg struct{}

// downloadModel renders a textual progress bar while tarballs download.
type downloadModel struct {
	done  int
	total int
	width int
}

func newDownloadModel(total int) downloadModel {
	return downloadModel{total: total, width: 30}
}

func (m downloadModel) Init() tea.Cmd {
	return nil
}

func (m downloadModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case itemDoneMsg:
		m.done = msg.done
		m.total = msg.total
		if m.done >= m.total {
			return m, tea.Quit
		}
	case downloadsFinishedMsg:
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m downloadModel) View() string {
	if m.total == 0 {
		return ""
	}

	filled := m.width * m.done / m.total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", m.width-filled)
	return fmt.Sprintf("  %s %s\n",
		styleIconSpinner.Render(bar),
		StyleDim.Render(fmt.Sprintf("%d/%d packages", m.done, m.total)))
}
