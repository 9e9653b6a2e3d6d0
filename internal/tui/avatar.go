package tui

import (
	"path/filepath"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zarlcorp/core/pkg/zstyle"
	"github.com/zarlcorp/zhrm/internal/avatar"
)

type avatarPhase int

const (
	avatarPicking avatarPhase = iota
	avatarUploading
	avatarFailed
)

// avatarSelectedMsg carries the image the user picked.
type avatarSelectedMsg struct {
	path string
}

// avatarCancelMsg closes the dialog without touching the avatar.
type avatarCancelMsg struct{}

// avatarResultMsg carries a finished upload.
type avatarResultMsg struct {
	seq    int
	result avatar.Result
}

// avatarModel is the change-avatar dialog: pick an image, upload it, and
// stay open with the error if the upload fails.
type avatarModel struct {
	seq     int
	phase   avatarPhase
	picker  filepicker.Model
	spinner spinner.Model
	path    string
	errMsg  string
}

func newAvatarModel(seq int, dir string, width, height int) avatarModel {
	fp := filepicker.New()
	fp.CurrentDirectory = dir
	fp.AllowedTypes = avatar.Extensions
	if height <= 0 {
		height = 24
	}
	// size the list to the terminal before the first directory read
	fp, _ = fp.Update(tea.WindowSizeMsg{Width: width, Height: height - 6})

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(hrmAccent)

	return avatarModel{
		seq:     seq,
		picker:  fp,
		spinner: sp,
	}
}

func (m avatarModel) Init() tea.Cmd {
	return m.picker.Init()
}

func (m avatarModel) Update(msg tea.Msg) (avatarModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.phase == avatarUploading {
			return m, nil
		}
		// the picker treats esc as "up a directory"; here it cancels
		if msg.Type == tea.KeyEsc {
			return m, func() tea.Msg { return avatarCancelMsg{} }
		}
		if m.phase == avatarFailed {
			m.phase = avatarPicking
			m.errMsg = ""
			return m, nil
		}

	case spinner.TickMsg:
		if m.phase != avatarUploading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case avatarResultMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		// success and cancel are handled by the root, which closes the dialog
		m.phase = avatarFailed
		m.errMsg = msg.result.Summary()
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.phase = avatarUploading
		m.path = path
		m.errMsg = ""
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg { return avatarSelectedMsg{path: path} })
	}

	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.errMsg = filepath.Base(path) + " is not a supported image (png, jpg, gif)"
		return m, cmd
	}

	return m, cmd
}

func (m avatarModel) View() string {
	s := "\n  " + zstyle.Subtitle.Render("choose a new avatar") + "\n"
	s += "  " + zstyle.MutedText.Render(m.picker.CurrentDirectory) + "\n\n"

	switch m.phase {
	case avatarUploading:
		s += "  " + m.spinner.View() + " uploading " + filepath.Base(m.path) + "...\n"
		return s

	case avatarFailed:
		s += "  " + zstyle.StatusErr.Render(m.errMsg) + "\n\n"
		s += "  " + zstyle.MutedText.Render("press any key to pick another image, esc to close") + "\n"
		return s
	}

	s += m.picker.View() + "\n"
	if m.errMsg != "" {
		s += "\n  " + zstyle.StatusWarn.Render(m.errMsg) + "\n"
	}
	return s
}
