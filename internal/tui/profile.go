package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zarlcorp/core/pkg/zstyle"
	"github.com/zarlcorp/zhrm/internal/employee"
	"github.com/zarlcorp/zhrm/internal/profile"
)

// profileLoadedMsg carries a finished load for the profile screen with seq.
type profileLoadedMsg struct {
	seq    int
	result profile.Result
}

// reloadProfileMsg asks the root to fetch the profile again.
type reloadProfileMsg struct{}

// changeAvatarMsg asks the root to start the avatar change flow.
type changeAvatarMsg struct{}

// profileField is one selectable line of the profile.
type profileField struct {
	section string
	label   string
	value   string
}

// profileModel renders the employee profile through its load states.
type profileModel struct {
	seq      int
	loading  bool
	result   profile.Result
	spinner  spinner.Model
	fields   []profileField
	cursor   int
	thumb    string
	thumbErr error
	alert    string
	flash    string
}

func newProfileModel(seq int) profileModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(hrmAccent)

	return profileModel{
		seq:     seq,
		loading: true,
		spinner: sp,
	}
}

// reloading marks the screen as loading for a new request, keeping the
// last result on screen until it is replaced.
func (m profileModel) reloading(seq int) profileModel {
	m.seq = seq
	m.loading = true
	m.alert = ""
	return m
}

// withAvatar swaps the avatar reference after a successful upload.
func (m profileModel) withAvatar(ref string) profileModel {
	m.result.Profile.Avatar = ref
	m.thumb = ""
	m.thumbErr = nil
	m.fields = profileFields(m.result.Profile)
	return m
}

func (m profileModel) avatarRef() string {
	return m.result.Profile.Avatar
}

func profileFields(p employee.Profile) []profileField {
	fields := []profileField{{section: "account", label: "employee id", value: p.EmployeeID}}
	for _, f := range p.Personal.Fields {
		fields = append(fields, profileField{section: "personal", label: f.Key, value: f.Value})
	}
	for _, f := range p.Work.Fields {
		fields = append(fields, profileField{section: "work", label: f.Key, value: f.Value})
	}
	if p.Avatar != "" {
		fields = append(fields, profileField{section: "avatar", label: "url", value: p.Avatar})
	}
	return fields
}

func (m profileModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m profileModel) Update(msg tea.Msg) (profileModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case profileLoadedMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		m.result = msg.result
		m.fields = profileFields(msg.result.Profile)
		m.cursor = 0
		return m, nil

	case thumbnailMsg:
		if msg.seq != m.seq || msg.ref != m.avatarRef() {
			return m, nil
		}
		m.thumb, m.thumbErr = msg.block, msg.err
		return m, nil

	case flashMsg:
		m.flash = ""
		return m, nil
	}

	return m, nil
}

func (m profileModel) handleKey(msg tea.KeyMsg) (profileModel, tea.Cmd) {
	if m.alert != "" {
		// any key dismisses the alert
		m.alert = ""
		return m, nil
	}

	if key.Matches(msg, zstyle.KeyQuit) {
		return m, tea.Quit
	}

	if key.Matches(msg, zstyle.KeyBack) {
		return m, func() tea.Msg { return navigateMsg{view: viewMenu} }
	}

	if m.loading {
		return m, nil
	}

	if key.Matches(msg, zstyle.KeyUp) {
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	}

	if key.Matches(msg, zstyle.KeyDown) {
		if m.cursor < len(m.fields)-1 {
			m.cursor++
		}
		return m, nil
	}

	if key.Matches(msg, zstyle.KeyEnter) && m.result.State == profile.Loaded && len(m.fields) > 0 {
		if err := copyToClipboard(m.fields[m.cursor].value); err != nil {
			m.flash = "copy: " + err.Error()
			return m, clearFlashAfter()
		}
		m.flash = "copied!"
		return m, clearFlashAfter()
	}

	switch msg.String() {
	case "r":
		return m, func() tea.Msg { return reloadProfileMsg{} }

	case "a":
		if m.result.State != profile.Loaded {
			return m, nil
		}
		return m, func() tea.Msg { return changeAvatarMsg{} }

	case "c":
		if m.result.State != profile.Loaded {
			return m, nil
		}
		if err := copyToClipboard(m.allFieldsText()); err != nil {
			m.flash = "copy: " + err.Error()
			return m, clearFlashAfter()
		}
		m.flash = "copied all!"
		return m, clearFlashAfter()
	}

	return m, nil
}

func (m profileModel) allFieldsText() string {
	var b strings.Builder
	for _, f := range m.fields {
		fmt.Fprintf(&b, "%s: %s\n", f.label, f.value)
	}
	return b.String()
}

func (m profileModel) View() string {
	if m.loading {
		return "\n  " + m.spinner.View() + " " + zstyle.MutedText.Render("loading profile...") + "\n"
	}

	var s string
	switch m.result.State {
	case profile.AwaitingIdentifier:
		s = "\n  " + zstyle.StatusWarn.Render("no employee id is cached") + "\n"
		s += "  " + zstyle.MutedText.Render("sign out from the menu and sign in again") + "\n"

	case profile.Idle:
		s = "\n  " + zstyle.MutedText.Render("loading was canceled. r to retry") + "\n"

	case profile.Error:
		s = "\n  " + zstyle.StatusErr.Render("could not load profile") + "\n"
		s += "  " + zstyle.MutedText.Render(errText(m.result.Err)) + "\n\n"
		s += "  " + zstyle.MutedText.Render("r to retry") + "\n"

	case profile.Empty:
		s = "\n  " + zstyle.StatusWarn.Render("No personal details found for "+m.result.Profile.EmployeeID+".") + "\n"

	case profile.Loaded:
		s = m.viewLoaded()
	}

	if m.alert != "" {
		box := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#e5c07b")).
			Padding(0, 2).
			Render(zstyle.StatusWarn.Render(m.alert) + "\n\n" + zstyle.MutedText.Render("press any key"))
		s += "\n" + lipgloss.NewStyle().MarginLeft(2).Render(box) + "\n"
	}

	s += "\n"

	// always reserve a line for flash to prevent layout shift
	if m.flash != "" {
		s += "  " + zstyle.StatusOK.Render(m.flash) + "\n"
	} else {
		s += "\n"
	}

	return s
}

func (m profileModel) viewLoaded() string {
	p := m.result.Profile
	accentStyle := lipgloss.NewStyle().Foreground(hrmAccent).Bold(true)

	thumb := m.thumb
	if thumb == "" {
		placeholder := "loading..."
		if m.thumbErr != nil {
			placeholder = "no image"
		}
		thumb = lipgloss.NewStyle().
			Width(thumbCols).Height(thumbRows).
			Align(lipgloss.Center, lipgloss.Center).
			Border(lipgloss.NormalBorder()).
			BorderForeground(hrmAccent).
			Render(zstyle.MutedText.Render(placeholder))
	}

	card := []string{
		zstyle.Subtitle.Render(p.Personal.Name),
		accentStyle.Render(p.Work.Designation),
		"",
		"Supervisor: " + p.Work.Supervisor,
		"Email: " + p.Work.WorkEmail,
		"Work Phone: " + p.Work.WorkPhone,
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		thumb,
		lipgloss.NewStyle().MarginLeft(3).Render(strings.Join(card, "\n")),
	)

	s := "\n" + lipgloss.NewStyle().MarginLeft(2).Render(header) + "\n"

	if m.result.WorkErr != nil {
		s += "\n  " + zstyle.StatusWarn.Render("work details unavailable: "+errText(m.result.WorkErr)) + "\n"
	}
	if m.result.PictureErr != nil {
		s += "\n  " + zstyle.StatusWarn.Render("profile picture unavailable: "+errText(m.result.PictureErr)) + "\n"
	}

	section := ""
	for i, f := range m.fields {
		if f.section != section {
			section = f.section
			s += "\n  " + zstyle.MutedText.Render(section) + "\n"
		}
		label := zstyle.MutedText.Render(fmt.Sprintf("%-14s", f.label))
		if i == m.cursor {
			s += "  " + accentStyle.Render("▸") + " " + label + " " + f.value + "\n"
		} else {
			s += "    " + label + " " + f.value + "\n"
		}
	}

	return s
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
