package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zarlcorp/core/pkg/zstyle"
)

type loginStage int

const (
	stageUnlock loginStage = iota
	stageEmployee
)

type pwField int

const (
	pwFieldPassword pwField = iota
	pwFieldConfirm
)

// passwordSubmitMsg is sent when the user submits the store passphrase.
type passwordSubmitMsg struct {
	password string
}

// passwordErrMsg is sent when the store could not be opened.
type passwordErrMsg struct {
	err error
}

// employeeSubmitMsg is sent when the user enters their employee id.
type employeeSubmitMsg struct {
	id string
}

// employeeErrMsg is sent when the employee id could not be cached.
type employeeErrMsg struct {
	err error
}

// loginModel unlocks the local store, then asks for the employee id when
// none is cached.
type loginModel struct {
	stage    loginStage
	firstRun bool
	password textinput.Model
	confirm  textinput.Model
	employee textinput.Model
	focused  pwField
	errMsg   string
}

func newSecretInput() textinput.Model {
	ti := textinput.New()
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '*'
	ti.CharLimit = 128
	ti.Width = 40
	return ti
}

func newLoginModel(firstRun bool) loginModel {
	pw := newSecretInput()
	pw.Focus()

	emp := textinput.New()
	emp.Placeholder = "e.g. E123"
	emp.CharLimit = 64
	emp.Width = 40

	return loginModel{
		firstRun: firstRun,
		password: pw,
		confirm:  newSecretInput(),
		employee: emp,
	}
}

// askEmployee switches to the employee id prompt.
func (m loginModel) askEmployee() loginModel {
	m.stage = stageEmployee
	m.password.Blur()
	m.confirm.Blur()
	m.password.SetValue("")
	m.confirm.SetValue("")
	m.employee.SetValue("")
	m.employee.Focus()
	m.errMsg = ""
	return m
}

func (m loginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}

		if key.Matches(msg, zstyle.KeyEnter) {
			if m.stage == stageEmployee {
				return m.submitEmployee()
			}
			return m.submitPassword()
		}

		if m.stage == stageUnlock && m.firstRun && key.Matches(msg, zstyle.KeyTab) {
			return m.toggleField(), nil
		}

		m.errMsg = ""

	case passwordErrMsg:
		m.errMsg = msg.err.Error()
		m.password.SetValue("")
		m.confirm.SetValue("")
		m = m.focusField(pwFieldPassword)
		return m, nil

	case employeeErrMsg:
		m.errMsg = msg.err.Error()
		return m, nil
	}

	return m.updateInput(msg)
}

func (m loginModel) submitPassword() (loginModel, tea.Cmd) {
	pass := m.password.Value()
	if pass == "" {
		m.errMsg = "password cannot be empty"
		return m, nil
	}

	if m.firstRun {
		if m.focused == pwFieldPassword {
			return m.focusField(pwFieldConfirm), nil
		}
		if m.confirm.Value() != pass {
			m.errMsg = "passwords do not match"
			m.confirm.SetValue("")
			return m, nil
		}
	}

	m.errMsg = ""
	return m, func() tea.Msg { return passwordSubmitMsg{password: pass} }
}

func (m loginModel) submitEmployee() (loginModel, tea.Cmd) {
	id := strings.TrimSpace(m.employee.Value())
	if id == "" {
		m.errMsg = "employee id cannot be empty"
		return m, nil
	}

	m.errMsg = ""
	return m, func() tea.Msg { return employeeSubmitMsg{id: id} }
}

func (m loginModel) toggleField() loginModel {
	if m.focused == pwFieldPassword {
		return m.focusField(pwFieldConfirm)
	}
	return m.focusField(pwFieldPassword)
}

func (m loginModel) focusField(f pwField) loginModel {
	m.focused = f
	if f == pwFieldPassword {
		m.password.Focus()
		m.confirm.Blur()
	} else {
		m.confirm.Focus()
		m.password.Blur()
	}
	return m
}

func (m loginModel) updateInput(msg tea.Msg) (loginModel, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.stage == stageEmployee:
		m.employee, cmd = m.employee.Update(msg)
	case m.focused == pwFieldConfirm:
		m.confirm, cmd = m.confirm.Update(msg)
	default:
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m loginModel) View() string {
	indent := lipgloss.NewStyle().MarginLeft(2)
	logo := indent.Render(zstyle.StyledLogo(lipgloss.NewStyle().Foreground(hrmAccent)))
	toolName := indent.Render(zstyle.MutedText.Render("zhrm"))

	s := "\n" + logo + "\n" + toolName + "\n\n"

	switch {
	case m.stage == stageEmployee:
		s += "  " + zstyle.Subtitle.Render("sign in") + "\n"
		s += "  " + zstyle.MutedText.Render("enter your employee id") + "\n\n"
		s += "  employee id  " + m.employee.View() + "\n"

	case m.firstRun:
		s += "  " + zstyle.Subtitle.Render("create new store") + "\n"
		s += "  " + zstyle.MutedText.Render("choose a passphrase to protect your session") + "\n\n"
		s += "  password  " + m.password.View() + "\n"
		s += "  confirm   " + m.confirm.View() + "\n"

	default:
		s += "  " + zstyle.Subtitle.Render("unlock store") + "\n"
		s += "  " + zstyle.MutedText.Render("enter your passphrase") + "\n\n"
		s += "  password  " + m.password.View() + "\n"
	}

	if m.errMsg != "" {
		s += "\n  " + zstyle.StatusErr.Render(m.errMsg) + "\n"
	}

	s += "\n"
	return s
}
