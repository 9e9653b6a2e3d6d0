package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zarlcorp/core/pkg/zstyle"
)

// hrmAccent is the brand colour of the HRM app.
var hrmAccent = lipgloss.Color("#02c3cc")

// splashDoneMsg ends the splash screen.
type splashDoneMsg struct{}

// splashModel shows the logo for a fixed delay, then always moves on.
type splashModel struct {
	delay   time.Duration
	version string
}

func newSplashModel(delay time.Duration, version string) splashModel {
	return splashModel{delay: delay, version: version}
}

func (m splashModel) Init() tea.Cmd {
	if m.delay <= 0 {
		return func() tea.Msg { return splashDoneMsg{} }
	}
	return tea.Tick(m.delay, func(time.Time) tea.Msg { return splashDoneMsg{} })
}

func (m splashModel) Update(msg tea.Msg) (splashModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		// any key skips the wait
		return m, func() tea.Msg { return splashDoneMsg{} }
	}
	return m, nil
}

func (m splashModel) View() string {
	indent := lipgloss.NewStyle().MarginLeft(2)
	logo := indent.Render(zstyle.StyledLogo(lipgloss.NewStyle().Foreground(hrmAccent)))
	title := indent.Render(lipgloss.NewStyle().Foreground(hrmAccent).Bold(true).Render("Global HRM"))
	ver := indent.Render(zstyle.MutedText.Render("zhrm " + m.version))

	return "\n" + logo + "\n\n" + title + "\n" + ver + "\n"
}
