package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/zarlcorp/core/pkg/zstyle"
)

type menuChoice int

const (
	menuProfile menuChoice = iota
	menuSettings
	menuSignOut
	menuQuit
)

var menuItems = []string{
	"View profile",
	"Server settings",
	"Sign out",
	"Quit",
}

// menuModel is the main menu view.
type menuModel struct {
	cursor     int
	version    string
	employeeID string
	server     string
}

// navigateMsg tells the root model to switch views.
type navigateMsg struct {
	view viewID
}

// signOutMsg tells the root to clear the cached employee id.
type signOutMsg struct{}

func newMenuModel(version, employeeID, server string) menuModel {
	return menuModel{version: version, employeeID: employeeID, server: server}
}

func (m menuModel) Init() tea.Cmd {
	return nil
}

func (m menuModel) Update(msg tea.Msg) (menuModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, zstyle.KeyQuit) {
			return m, tea.Quit
		}

		if key.Matches(msg, zstyle.KeyUp) {
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		}

		if key.Matches(msg, zstyle.KeyDown) {
			if m.cursor < len(menuItems)-1 {
				m.cursor++
			}
			return m, nil
		}

		if key.Matches(msg, zstyle.KeyEnter) {
			return m, m.selectItem()
		}

		switch msg.String() {
		case "p":
			return m, func() tea.Msg { return navigateMsg{view: viewProfile} }
		case "s":
			return m, func() tea.Msg { return navigateMsg{view: viewSettings} }
		}
	}

	return m, nil
}

func (m menuModel) selectItem() tea.Cmd {
	switch menuChoice(m.cursor) {
	case menuProfile:
		return func() tea.Msg { return navigateMsg{view: viewProfile} }
	case menuSettings:
		return func() tea.Msg { return navigateMsg{view: viewSettings} }
	case menuSignOut:
		return func() tea.Msg { return signOutMsg{} }
	case menuQuit:
		return tea.Quit
	}
	return nil
}

func (m menuModel) View() string {
	title := zstyle.Title.Render("zhrm")
	ver := zstyle.MutedText.Render(m.version)

	s := fmt.Sprintf("\n  %s %s\n", title, ver)
	s += "  " + zstyle.MutedText.Render(fmt.Sprintf("signed in as %s  %s", m.employeeID, m.server)) + "\n\n"

	for i, item := range menuItems {
		mi := zstyle.MenuItem{
			Label:  item,
			Active: m.cursor == i,
		}
		s += zstyle.RenderMenuItem(mi, hrmAccent) + "\n"
	}

	s += "\n  " + zstyle.MutedText.Render("j/k navigate  enter select  q quit") + "\n\n"
	return s
}
