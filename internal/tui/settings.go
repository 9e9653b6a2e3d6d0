package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zarlcorp/core/pkg/zstyle"
	"github.com/zarlcorp/zhrm/internal/hrm"
)

type serverField int

const (
	srvBaseURL serverField = iota
	srvUploadEndpoint
	srvFieldCount
)

var serverLabels = [srvFieldCount]string{
	"server url",
	"upload path",
}

// saveServerMsg requests saving server settings.
type saveServerMsg struct {
	settings ServerSettings
}

// serverSavedMsg confirms the settings were stored.
type serverSavedMsg struct{}

// settingsModel is the form for overriding the HRM server.
type settingsModel struct {
	inputs   []textinput.Model
	focus    int
	flash    string
	defaults ServerSettings
}

// newSettingsModel fills the form with the saved overrides; defaults are
// shown as placeholders.
func newSettingsModel(saved, defaults ServerSettings) settingsModel {
	inputs := make([]textinput.Model, srvFieldCount)

	for i := range inputs {
		ti := textinput.New()
		ti.CharLimit = 256
		ti.Width = 50
		inputs[i] = ti
	}

	inputs[srvBaseURL].Placeholder = defaults.BaseURL
	inputs[srvBaseURL].SetValue(saved.BaseURL)

	inputs[srvUploadEndpoint].Placeholder = defaults.UploadEndpoint
	inputs[srvUploadEndpoint].SetValue(saved.UploadEndpoint)

	inputs[0].Focus()

	return settingsModel{inputs: inputs, defaults: defaults}
}

func (m settingsModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m settingsModel) Update(msg tea.Msg) (settingsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}

		if msg.Type == tea.KeyEsc {
			return m, func() tea.Msg { return navigateMsg{view: viewMenu} }
		}

		if key.Matches(msg, zstyle.KeyTab) || msg.Type == tea.KeyDown {
			return m.nextField(), nil
		}

		if msg.Type == tea.KeyUp || msg.Type == tea.KeyShiftTab {
			return m.prevField(), nil
		}

		if key.Matches(msg, zstyle.KeyEnter) {
			// enter on last field saves; otherwise advance
			if m.focus == int(srvFieldCount)-1 {
				return m.save()
			}
			return m.nextField(), nil
		}

		switch msg.String() {
		case "ctrl+s":
			return m.save()
		case "ctrl+r":
			// clear overrides back to the environment defaults
			for i := range m.inputs {
				m.inputs[i].SetValue("")
			}
			return m, nil
		}

	case serverSavedMsg:
		m.flash = "saved"
		return m, clearFlashAfter()

	case flashMsg:
		m.flash = ""
		return m, nil
	}

	return m.updateInput(msg)
}

func (m settingsModel) current() ServerSettings {
	return ServerSettings{
		BaseURL:        strings.TrimRight(strings.TrimSpace(m.inputs[srvBaseURL].Value()), "/"),
		UploadEndpoint: strings.TrimSpace(m.inputs[srvUploadEndpoint].Value()),
	}
}

func (m settingsModel) save() (settingsModel, tea.Cmd) {
	s := m.current()
	if err := s.Validate(); err != nil {
		m.flash = err.Error()
		return m, clearFlashAfter()
	}

	return m, func() tea.Msg { return saveServerMsg{settings: s} }
}

func (m settingsModel) nextField() settingsModel {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + 1) % int(srvFieldCount)
	m.inputs[m.focus].Focus()
	return m
}

func (m settingsModel) prevField() settingsModel {
	m.inputs[m.focus].Blur()
	m.focus--
	if m.focus < 0 {
		m.focus = int(srvFieldCount) - 1
	}
	m.inputs[m.focus].Focus()
	return m
}

func (m settingsModel) updateInput(msg tea.Msg) (settingsModel, tea.Cmd) {
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m settingsModel) View() string {
	accentStyle := lipgloss.NewStyle().Foreground(hrmAccent).Bold(true)

	s := "\n"

	for i, input := range m.inputs {
		label := zstyle.MutedText.Render(fmt.Sprintf("  %-12s", serverLabels[i]))
		if i == m.focus {
			s += accentStyle.Render("▸") + " " + label + input.View() + "\n"
		} else {
			s += "  " + label + input.View() + "\n"
		}
	}

	s += "\n  " + zstyle.MutedText.Render(fmt.Sprintf("upload path is %s or %s; leave blank for defaults",
		hrm.UploadProfileImage, hrm.UploadAvatar)) + "\n\n"

	if m.flash != "" {
		style := zstyle.StatusOK
		if m.flash != "saved" {
			style = zstyle.StatusErr
		}
		s += "  " + style.Render(m.flash) + "\n"
	} else {
		s += "\n"
	}

	return s
}
