// Package tui implements the root Bubble Tea model for zhrm.
package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zarlcorp/core/pkg/zfilesystem"
	"github.com/zarlcorp/core/pkg/zstore"
	"github.com/zarlcorp/core/pkg/zstyle"
	"github.com/zarlcorp/zhrm/internal/avatar"
	"github.com/zarlcorp/zhrm/internal/config"
	"github.com/zarlcorp/zhrm/internal/hrm"
	"github.com/zarlcorp/zhrm/internal/profile"
	"github.com/zarlcorp/zhrm/internal/session"
)

type viewID int

const (
	viewSplash viewID = iota
	viewLogin
	viewMenu
	viewProfile
	viewAvatar
	viewSettings
)

// Model is the root TUI model.
type Model struct {
	version  string
	dataDir  string
	cfg      config.Config
	firstRun bool
	log      *slog.Logger

	store   *zstore.Store
	session *session.Store
	configs *zstore.Collection[configEnvelope]
	server  ServerSettings
	client  *hrm.Client
	thumbs  *thumbnails

	active      viewID
	splash      splashModel
	login       loginModel
	menu        menuModel
	profileView profileModel
	avatarView  avatarModel
	settings    settingsModel

	// profile screen lifecycle; leaving the screen cancels in-flight work
	// and seq lets late results be recognised and dropped
	ctx           context.Context
	profileCtx    context.Context
	cancelProfile context.CancelFunc
	seq           int

	// terminal dimensions
	width  int
	height int
}

// New creates the root TUI model.
func New(version, dataDir string, cfg config.Config, firstRun bool) Model {
	m := Model{
		version:  version,
		dataDir:  dataDir,
		cfg:      cfg,
		firstRun: firstRun,
		log:      slog.Default(),
		ctx:      context.Background(),
		active:   viewSplash,
		splash:   newSplashModel(cfg.SplashDelay, version),
		login:    newLoginModel(firstRun),
	}
	m.thumbs = newThumbnails(nil)
	m.setClient(hrm.NewClient(m.server.ClientConfig(cfg)))
	return m
}

func (m Model) Init() tea.Cmd {
	return m.splash.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case splashDoneMsg:
		if m.active != viewSplash {
			return m, nil
		}
		m.active = viewLogin
		return m, tea.Batch(tea.ClearScreen, m.login.Init())

	case passwordSubmitMsg:
		return m.openStore(msg.password)

	case employeeSubmitMsg:
		return m.signIn(msg.id)

	case signOutMsg:
		return m.signOut()

	case navigateMsg:
		return m.navigate(msg.view)

	case profileLoadedMsg:
		return m.handleProfileLoaded(msg)

	case thumbnailMsg:
		if msg.err != nil {
			m.log.Warn("avatar thumbnail", "ref", msg.ref, "err", msg.err)
		}
		m.profileView, _ = m.profileView.Update(msg)
		return m, nil

	case reloadProfileMsg:
		return m.reloadProfile()

	case changeAvatarMsg:
		return m.startAvatarChange()

	case avatarSelectedMsg:
		return m.uploadAvatar(msg.path)

	case avatarResultMsg:
		return m.handleAvatarResult(msg)

	case avatarCancelMsg:
		m.active = viewProfile
		return m, tea.ClearScreen

	case saveServerMsg:
		return m.handleSaveServer(msg.settings)
	}

	return m.updateActive(msg)
}

func (m Model) View() string {
	// splash and login include the logo, render directly
	switch m.active {
	case viewSplash:
		return m.splash.View()
	case viewLogin:
		return m.login.View()
	case viewMenu:
		return m.menu.View()
	}

	// all other views: header + separator + content + footer
	var content string
	switch m.active {
	case viewProfile:
		content = m.profileView.View()
	case viewAvatar:
		content = m.avatarView.View()
	case viewSettings:
		content = m.settings.View()
	}

	header := zstyle.RenderHeader("zhrm", viewTitle(m.active), hrmAccent)
	sep := zstyle.RenderSeparator(m.width)
	footer := zstyle.RenderFooter(helpFor(m.active))

	return "\n" + header + "\n" + sep + "\n" + content + "\n" + footer + "\n"
}

// viewTitle returns the display title for each view.
func viewTitle(id viewID) string {
	switch id {
	case viewProfile:
		return "Profile"
	case viewAvatar:
		return "Change Avatar"
	case viewSettings:
		return "Server Settings"
	}
	return ""
}

// helpFor returns keybinding pairs for each view's footer.
func helpFor(id viewID) []zstyle.HelpPair {
	switch id {
	case viewProfile:
		return []zstyle.HelpPair{
			{Key: "j/k", Desc: "navigate"},
			{Key: "enter", Desc: "copy field"},
			{Key: "c", Desc: "copy all"},
			{Key: "a", Desc: "change avatar"},
			{Key: "r", Desc: "reload"},
			{Key: "esc", Desc: "back"},
			{Key: "q", Desc: "quit"},
		}
	case viewAvatar:
		return []zstyle.HelpPair{
			{Key: "j/k", Desc: "navigate"},
			{Key: "l/enter", Desc: "open/select"},
			{Key: "h", Desc: "up"},
			{Key: "esc", Desc: "cancel"},
		}
	case viewSettings:
		return []zstyle.HelpPair{
			{Key: "tab", Desc: "next"},
			{Key: "ctrl+s", Desc: "save"},
			{Key: "ctrl+r", Desc: "reset"},
			{Key: "esc", Desc: "back"},
		}
	}
	return nil
}

func (m Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.active {
	case viewSplash:
		m.splash, cmd = m.splash.Update(msg)
	case viewLogin:
		m.login, cmd = m.login.Update(msg)
	case viewMenu:
		m.menu, cmd = m.menu.Update(msg)
	case viewProfile:
		m.profileView, cmd = m.profileView.Update(msg)
	case viewAvatar:
		m.avatarView, cmd = m.avatarView.Update(msg)
	case viewSettings:
		m.settings, cmd = m.settings.Update(msg)
	}

	return m, cmd
}

func (m Model) openStore(password string) (tea.Model, tea.Cmd) {
	if err := os.MkdirAll(m.dataDir, 0o700); err != nil {
		m.login, _ = m.login.Update(passwordErrMsg{
			err: fmt.Errorf("create data dir: %w", err),
		})
		return m, nil
	}

	fsys := zfilesystem.NewOSFileSystem(m.dataDir)
	s, err := zstore.Open(fsys, []byte(password))
	if err != nil {
		m.login, _ = m.login.Update(passwordErrMsg{err: err})
		return m, nil
	}

	sess, err := session.New(s)
	if err != nil {
		s.Close()
		m.login, _ = m.login.Update(passwordErrMsg{err: err})
		return m, nil
	}

	cfgCol, err := zstore.NewCollection[configEnvelope](s, "config")
	if err != nil {
		s.Close()
		m.login, _ = m.login.Update(passwordErrMsg{err: err})
		return m, nil
	}

	m.store = s
	m.session = sess
	m.configs = cfgCol
	m.loadConfigs()

	if _, err := sess.EmployeeID(); err != nil {
		m.login = m.login.askEmployee()
		return m, nil
	}

	return m.navigate(viewMenu)
}

func (m Model) signIn(id string) (tea.Model, tea.Cmd) {
	if m.session == nil {
		return m, nil
	}

	if err := m.session.SetEmployeeID(id, time.Now()); err != nil {
		m.login, _ = m.login.Update(employeeErrMsg{err: err})
		return m, nil
	}

	m.log.Info("signed in", "employee", id)
	return m.navigate(viewMenu)
}

func (m Model) signOut() (tea.Model, tea.Cmd) {
	m.stopProfile()

	if m.session != nil {
		if err := m.session.Clear(); err != nil {
			m.log.Error("sign out", "err", err)
		}
	}

	m.login = m.login.askEmployee()
	m.active = viewLogin
	return m, tea.Batch(tea.ClearScreen, m.login.Init())
}

func (m Model) navigate(view viewID) (tea.Model, tea.Cmd) {
	if view != viewProfile && view != viewAvatar {
		m.stopProfile()
	}

	switch view {
	case viewMenu:
		id, _ := m.employeeID()
		m.menu = newMenuModel(m.version, id, m.client.BaseURL())
		m.active = viewMenu
		return m, tea.ClearScreen

	case viewProfile:
		var cmd tea.Cmd
		m, cmd = m.startProfile()
		return m, tea.Batch(cmd, tea.ClearScreen)

	case viewSettings:
		defaults := ServerSettings{BaseURL: m.cfg.BaseURL, UploadEndpoint: m.cfg.UploadEndpoint}
		m.settings = newSettingsModel(m.server, defaults)
		m.active = viewSettings
		return m, tea.Batch(tea.ClearScreen, m.settings.Init())
	}

	return m, nil
}

func (m Model) employeeID() (string, error) {
	if m.session == nil {
		return "", fmt.Errorf("store is locked")
	}
	return m.session.EmployeeID()
}

func (m Model) loader() *profile.Loader {
	var ids profile.IdentifierSource = lockedSession{}
	if m.session != nil {
		ids = m.session
	}
	return profile.New(m.client, ids,
		profile.WithResolver(m.client.Resolve),
		profile.WithDefaultAvatar(m.client.DefaultAvatar()),
	)
}

// startProfile opens the profile screen with a fresh lifecycle and starts
// the load.
func (m Model) startProfile() (Model, tea.Cmd) {
	m.stopProfile()

	ctx, cancel := context.WithCancel(m.ctx)
	m.profileCtx = ctx
	m.cancelProfile = cancel
	m.seq++
	seq := m.seq

	m.profileView = newProfileModel(seq)
	m.active = viewProfile

	l := m.loader()
	load := func() tea.Msg {
		return profileLoadedMsg{seq: seq, result: l.Load(ctx)}
	}
	return m, tea.Batch(m.profileView.Init(), load)
}

func (m Model) reloadProfile() (tea.Model, tea.Cmd) {
	from := m.profileView.result.State
	id := m.profileView.result.Profile.EmployeeID

	// canceled or identifier-less screens start over from the session
	switch {
	case m.cancelProfile == nil, id == "":
		return m.startProfile()
	case from != profile.Loaded && from != profile.Empty && from != profile.Error:
		return m.startProfile()
	}

	m.seq++
	seq := m.seq
	m.profileView = m.profileView.reloading(seq)

	ctx, _ := m.profileContext()
	l := m.loader()
	reload := func() tea.Msg {
		return profileLoadedMsg{seq: seq, result: l.Reload(ctx, from, id)}
	}
	return m, tea.Batch(m.profileView.Init(), reload)
}

func (m Model) handleProfileLoaded(msg profileLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.profileView.seq {
		m.log.Debug("dropping stale profile result", "seq", msg.seq)
		return m, nil
	}

	r := msg.result
	switch {
	case r.State == profile.Error:
		m.log.Error("load profile", "err", r.Err)
	case r.State == profile.AwaitingIdentifier:
		m.log.Warn("load profile", "err", r.Err)
	case r.Partial():
		m.log.Warn("load profile partially", "work_err", r.WorkErr, "picture_err", r.PictureErr)
	}

	m.profileView, _ = m.profileView.Update(msg)

	if r.State != profile.Loaded || r.Profile.Avatar == "" {
		return m, nil
	}
	return m, m.thumbnailCmd(r.Profile.Avatar)
}

func (m Model) thumbnailCmd(ref string) tea.Cmd {
	ctx, ok := m.profileContext()
	if !ok {
		ctx = m.ctx
	}
	return m.thumbs.loadCmd(ctx, m.profileView.seq, ref)
}

func (m Model) startAvatarChange() (tea.Model, tea.Cmd) {
	if err := avatar.Authorize(avatar.DirPermission{Dir: m.cfg.PicturesDir}); err != nil {
		m.log.Warn("avatar change denied", "err", err)
		m.profileView.alert = avatar.Result{Outcome: avatar.Denied}.Summary()
		return m, nil
	}

	m.avatarView = newAvatarModel(m.profileView.seq, m.cfg.PicturesDir, m.width, m.height)
	m.active = viewAvatar
	return m, tea.Batch(tea.ClearScreen, m.avatarView.Init())
}

func (m Model) uploadAvatar(path string) (tea.Model, tea.Cmd) {
	ctx, ok := m.profileContext()
	if !ok {
		return m, nil
	}

	req := avatar.Request{
		EmployeeID: m.profileView.result.Profile.EmployeeID,
		Current:    m.profileView.avatarRef(),
		Uploader:   m.client,
	}
	seq := m.avatarView.seq

	// forward to the dialog so it shows the uploading state
	m.avatarView, _ = m.avatarView.Update(avatarSelectedMsg{path: path})

	return m, func() tea.Msg {
		return avatarResultMsg{seq: seq, result: avatar.Upload(ctx, req, path)}
	}
}

func (m Model) handleAvatarResult(msg avatarResultMsg) (tea.Model, tea.Cmd) {
	if msg.seq != m.profileView.seq || m.active != viewAvatar {
		return m, nil
	}

	r := msg.result
	switch r.Outcome {
	case avatar.Updated:
		m.log.Info("avatar updated", "employee", m.profileView.result.Profile.EmployeeID, "avatar", r.Avatar)
		m.profileView = m.profileView.withAvatar(r.Avatar)
		m.profileView.flash = r.Summary()
		m.active = viewProfile
		return m, tea.Batch(tea.ClearScreen, clearFlashAfter(), m.thumbnailCmd(r.Avatar))

	case avatar.Canceled:
		m.active = viewProfile
		return m, tea.ClearScreen
	}

	m.log.Error("avatar upload", "path", r.Path, "err", r.Err)
	m.avatarView, _ = m.avatarView.Update(msg)
	return m, nil
}

func (m Model) handleSaveServer(s ServerSettings) (tea.Model, tea.Cmd) {
	if err := saveConfig(m.configs, serverConfigKey, s); err != nil {
		m.settings.flash = "save: " + err.Error()
		return m, clearFlashAfter()
	}

	m.server = s
	m.setClient(hrm.NewClient(s.ClientConfig(m.cfg)))
	m.log.Info("server settings saved", "base_url", m.client.BaseURL())

	var cmd tea.Cmd
	m.settings, cmd = m.settings.Update(serverSavedMsg{})
	return m, cmd
}

// profileContext returns the live profile screen context.
func (m Model) profileContext() (context.Context, bool) {
	if m.cancelProfile == nil {
		return nil, false
	}
	return m.profileCtx, true
}

// stopProfile cancels the profile screen's in-flight work.
func (m *Model) stopProfile() {
	if m.cancelProfile != nil {
		m.cancelProfile()
		m.cancelProfile = nil
		m.profileCtx = nil
	}
}

// loadConfigs reads stored settings into cached fields. Missing configs are
// silently ignored (zero value = environment defaults).
func (m *Model) loadConfigs() {
	m.server = loadConfig[ServerSettings](m.configs, serverConfigKey)
	m.setClient(hrm.NewClient(m.server.ClientConfig(m.cfg)))
}

// setClient swaps the API client. The thumbnail cache is shared by every
// copy of the model, so its fetcher follows the new client.
func (m *Model) setClient(c *hrm.Client) {
	m.client = c
	m.thumbs.fetch = func(ctx context.Context, ref string) (image.Image, error) {
		return c.FetchImage(ctx, ref)
	}
}

// loadConfig reads a typed config from the envelope collection.
func loadConfig[T any](col *zstore.Collection[configEnvelope], key string) T {
	var zero T
	if col == nil {
		return zero
	}

	env, err := col.Get(key)
	if err != nil {
		return zero
	}

	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return zero
	}

	return v
}

// saveConfig persists a typed config into the envelope collection.
func saveConfig[T any](col *zstore.Collection[configEnvelope], key string, v T) error {
	if col == nil {
		return errors.New("store is locked")
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return col.Put(key, configEnvelope{Data: data})
}

// lockedSession stands in for the session store before it is opened.
type lockedSession struct{}

func (lockedSession) EmployeeID() (string, error) { return "", errors.New("store is locked") }

// Close cleans up resources. Call after the program exits.
func (m Model) Close() {
	m.stopProfile()
	if m.store != nil {
		m.store.Close()
	}
}
