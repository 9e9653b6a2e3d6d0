package tui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zarlcorp/core/pkg/zfilesystem"
	"github.com/zarlcorp/core/pkg/zstore"
	"github.com/zarlcorp/zhrm/internal/avatar"
	"github.com/zarlcorp/zhrm/internal/config"
	"github.com/zarlcorp/zhrm/internal/demo"
	"github.com/zarlcorp/zhrm/internal/profile"
	"github.com/zarlcorp/zhrm/internal/session"
)

type harness struct {
	srv  *demo.Server
	url  string
	hits atomic.Int32
}

func jane() demo.Employee {
	return demo.Employee{
		ID: "E123",
		Personal: demo.Personal{
			Name:  "Jane Doe",
			Email: "jane@mail.test",
		},
		Work: demo.Work{
			Designation: "Engineer",
			Supervisor:  "Ann Lee",
			WorkEmail:   "jane@corp.test",
			WorkPhone:   "+1 555 0100",
		},
	}
}

// startServer runs the demo HRM server, counting requests.
func startServer(t *testing.T) *harness {
	t.Helper()
	h := &harness{srv: demo.NewServer(demo.WithEmployees(jane()))}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.hits.Add(1)
		h.srv.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)
	h.url = ts.URL
	return h
}

// setupModel creates a root Model with a real zstore pointed at the demo
// server, bypassing the login flow.
func setupModel(t *testing.T, h *harness, employeeID string) Model {
	t.Helper()

	fs := zfilesystem.NewOSFileSystem(t.TempDir())
	s, err := zstore.Open(fs, []byte("testpass"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	sess, err := session.New(s)
	if err != nil {
		t.Fatal(err)
	}
	if employeeID != "" {
		if err := sess.SetEmployeeID(employeeID, time.Now()); err != nil {
			t.Fatal(err)
		}
	}

	cfgCol, err := zstore.NewCollection[configEnvelope](s, "config")
	if err != nil {
		t.Fatal(err)
	}

	cfg := config.Config{
		BaseURL:     h.url,
		HTTPTimeout: 5 * time.Second,
		PicturesDir: t.TempDir(),
	}

	m := New("1.0", t.TempDir(), cfg, false)
	m.store = s
	m.session = sess
	m.configs = cfgCol
	m.loadConfigs()
	m.active = viewMenu
	return m
}

// pump runs cmd and feeds the app messages it yields back into the model
// until none are left. Terminal housekeeping messages are dropped.
func pump(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}

		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case profileLoadedMsg, thumbnailMsg, navigateMsg, reloadProfileMsg,
			changeAvatarMsg, avatarSelectedMsg, avatarResultMsg, avatarCancelMsg,
			saveServerMsg, signOutMsg:
			result, next := m.Update(msg)
			m = result.(Model)
			queue = append(queue, next)
		}
	}
	return m
}

// send delivers msg to the model and processes everything that follows.
func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	result, cmd := m.Update(msg)
	return pump(t, result.(Model), cmd)
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{0, 200, 200, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func openProfile(t *testing.T, m Model) Model {
	t.Helper()
	m = send(t, m, navigateMsg{view: viewProfile})
	if m.active != viewProfile {
		t.Fatalf("active = %d, want viewProfile", m.active)
	}
	return m
}

// profile loading

func TestIntegrationProfileLoads(t *testing.T) {
	h := startServer(t)
	m := openProfile(t, setupModel(t, h, "E123"))

	r := m.profileView.result
	if r.State != profile.Loaded {
		t.Fatalf("state = %s, want loaded (err %v)", r.State, r.Err)
	}

	wantTrace := []profile.State{profile.AwaitingIdentifier, profile.Loading, profile.Loaded}
	if len(r.Trace) != len(wantTrace) {
		t.Fatalf("trace = %v, want %v", r.Trace, wantTrace)
	}
	for i := range wantTrace {
		if r.Trace[i] != wantTrace[i] {
			t.Fatalf("trace = %v, want %v", r.Trace, wantTrace)
		}
	}

	if r.Profile.Personal.Name != "Jane Doe" || r.Profile.Work.Designation != "Engineer" {
		t.Errorf("profile = %+v", r.Profile)
	}
	if r.Profile.Avatar != h.url+"/images/avatar.png" {
		t.Errorf("avatar = %q, want default avatar", r.Profile.Avatar)
	}
	if m.profileView.thumb == "" {
		t.Error("default avatar thumbnail should be rendered")
	}

	view := m.View()
	for _, want := range []string{"Jane Doe", "Engineer", "Supervisor: Ann Lee", "Work Phone: +1 555 0100"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestIntegrationProfileWithoutIdentifier(t *testing.T) {
	h := startServer(t)
	m := openProfile(t, setupModel(t, h, ""))

	if m.profileView.result.State != profile.AwaitingIdentifier {
		t.Fatalf("state = %s, want awaiting identifier", m.profileView.result.State)
	}
	if n := h.hits.Load(); n != 0 {
		t.Errorf("server got %d requests, want none", n)
	}
}

func TestIntegrationProfileEmpty(t *testing.T) {
	h := startServer(t)
	m := openProfile(t, setupModel(t, h, "E404"))

	if m.profileView.result.State != profile.Empty {
		t.Fatalf("state = %s, want empty", m.profileView.result.State)
	}
	if !strings.Contains(m.View(), "No personal details found for E404.") {
		t.Error("empty state message missing")
	}
}

func TestIntegrationProfileServerDown(t *testing.T) {
	h := startServer(t)
	m := setupModel(t, h, "E123")
	m = send(t, m, saveServerMsg{settings: ServerSettings{BaseURL: "http://127.0.0.1:1"}})
	m = openProfile(t, m)

	if m.profileView.result.State != profile.Error {
		t.Fatalf("state = %s, want error", m.profileView.result.State)
	}
	if !strings.Contains(m.View(), "could not load profile") {
		t.Error("error state message missing")
	}
}

func TestIntegrationReload(t *testing.T) {
	h := startServer(t)
	m := openProfile(t, setupModel(t, h, "E123"))
	before := m.profileView.seq

	m = send(t, m, reloadProfileMsg{})

	r := m.profileView.result
	if r.State != profile.Loaded {
		t.Fatalf("state = %s, want loaded", r.State)
	}
	if m.profileView.seq == before {
		t.Error("reload should start a new request")
	}
	if len(r.Trace) != 2 || r.Trace[0] != profile.Loading {
		t.Errorf("reload trace = %v, want [loading loaded]", r.Trace)
	}
}

func TestIntegrationStaleResultDropped(t *testing.T) {
	h := startServer(t)
	m := openProfile(t, setupModel(t, h, "E123"))
	seq := m.profileView.seq

	m = send(t, m, reloadProfileMsg{})

	stale := profileLoadedMsg{seq: seq, result: profile.Result{State: profile.Error}}
	m = send(t, m, stale)

	if m.profileView.result.State != profile.Loaded {
		t.Error("result of a superseded load should be dropped")
	}
}

func TestIntegrationLeavingProfileCancels(t *testing.T) {
	h := startServer(t)
	m := openProfile(t, setupModel(t, h, "E123"))
	ctx, ok := m.profileContext()
	if !ok {
		t.Fatal("profile screen should have a live context")
	}

	m = send(t, m, navigateMsg{view: viewMenu})

	if m.active != viewMenu {
		t.Fatalf("active = %d, want viewMenu", m.active)
	}
	if ctx.Err() == nil {
		t.Error("leaving the profile should cancel its work")
	}
}

// avatar change

func TestIntegrationAvatarUpload(t *testing.T) {
	h := startServer(t)
	m := openProfile(t, setupModel(t, h, "E123"))
	path := writePNG(t, m.cfg.PicturesDir, "me.png")

	m = send(t, m, changeAvatarMsg{})
	if m.active != viewAvatar {
		t.Fatalf("active = %d, want viewAvatar", m.active)
	}

	m = send(t, m, avatarSelectedMsg{path: path})

	if m.active != viewProfile {
		t.Fatalf("active = %d, want viewProfile", m.active)
	}

	e, _ := h.srv.Employee("E123")
	if e.Personal.ProfilePic == "" {
		t.Fatal("server should store the new picture")
	}
	want := h.url + e.Personal.ProfilePic
	if got := m.profileView.avatarRef(); got != want {
		t.Errorf("avatar = %q, want %q", got, want)
	}
	if m.profileView.flash != "avatar updated" {
		t.Errorf("flash = %q", m.profileView.flash)
	}
	if m.profileView.thumb == "" {
		t.Error("new avatar thumbnail should be rendered")
	}

	// the server now reports the uploaded picture
	m = send(t, m, reloadProfileMsg{})
	if got := m.profileView.avatarRef(); got != want {
		t.Errorf("avatar after reload = %q, want %q", got, want)
	}
}

func TestIntegrationAvatarUploadRejected(t *testing.T) {
	h := startServer(t)
	m := openProfile(t, setupModel(t, h, "E123"))
	before := m.profileView.avatarRef()

	path := filepath.Join(m.cfg.PicturesDir, "fake.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o600); err != nil {
		t.Fatal(err)
	}

	m = send(t, m, changeAvatarMsg{})
	m = send(t, m, avatarSelectedMsg{path: path})

	if m.active != viewAvatar {
		t.Fatalf("active = %d, want the dialog to stay open", m.active)
	}
	if m.avatarView.phase != avatarFailed {
		t.Errorf("phase = %d, want failed", m.avatarView.phase)
	}
	if !strings.Contains(m.View(), "avatar upload failed") {
		t.Error("dialog should show the upload error")
	}
	if m.profileView.avatarRef() != before {
		t.Error("failed upload should keep the old avatar")
	}

	// closing the dialog returns to the unchanged profile
	m = send(t, m, escKey())
	if m.active != viewProfile {
		t.Fatalf("active = %d, want viewProfile", m.active)
	}
	if m.profileView.avatarRef() != before {
		t.Error("avatar changed after closing the dialog")
	}
}

func TestIntegrationAvatarCancel(t *testing.T) {
	h := startServer(t)
	m := openProfile(t, setupModel(t, h, "E123"))
	before := m.profileView.result
	hits := h.hits.Load()

	m = send(t, m, changeAvatarMsg{})
	m = send(t, m, escKey())

	if m.active != viewProfile {
		t.Fatalf("active = %d, want viewProfile", m.active)
	}
	if m.profileView.avatarRef() != before.Profile.Avatar || m.profileView.result.State != before.State {
		t.Error("canceling should leave the profile untouched")
	}
	if n := h.hits.Load(); n != hits {
		t.Errorf("cancel made %d requests", n-hits)
	}
}

func TestIntegrationAvatarPermissionDenied(t *testing.T) {
	h := startServer(t)
	m := openProfile(t, setupModel(t, h, "E123"))
	m.cfg.PicturesDir = filepath.Join(t.TempDir(), "missing")

	m = send(t, m, changeAvatarMsg{})

	if m.active != viewProfile {
		t.Fatalf("active = %d, want viewProfile", m.active)
	}
	want := avatar.Result{Outcome: avatar.Denied}.Summary()
	if m.profileView.alert != want {
		t.Errorf("alert = %q, want %q", m.profileView.alert, want)
	}
	if !strings.Contains(m.View(), want) {
		t.Error("view should show the permission alert")
	}
}

func TestIntegrationAvatarResultAfterLeaving(t *testing.T) {
	h := startServer(t)
	m := openProfile(t, setupModel(t, h, "E123"))
	seq := m.profileView.seq

	m = send(t, m, navigateMsg{view: viewMenu})
	m = send(t, m, avatarResultMsg{seq: seq, result: avatar.Result{Outcome: avatar.Updated, Avatar: "x"}})

	if m.active != viewMenu {
		t.Error("a late upload result should not reopen the profile")
	}
}

// session and store

func TestIntegrationLoginFlow(t *testing.T) {
	h := startServer(t)
	dir := t.TempDir()
	cfg := config.Config{BaseURL: h.url, HTTPTimeout: 5 * time.Second}

	m := New("1.0", dir, cfg, true)
	m = send(t, m, splashDoneMsg{})
	m = send(t, m, passwordSubmitMsg{password: "secret"})

	if m.active != viewLogin || m.login.stage != stageEmployee {
		t.Fatalf("first run should ask for the employee id (active %d, stage %d)", m.active, m.login.stage)
	}

	m = send(t, m, employeeSubmitMsg{id: "E123"})
	if m.active != viewMenu {
		t.Fatalf("active = %d, want viewMenu", m.active)
	}
	if !strings.Contains(m.View(), "E123") {
		t.Error("menu should show the signed in employee")
	}
	m.Close()

	// the id is remembered across runs
	m2 := New("1.0", dir, cfg, false)
	m2 = send(t, m2, passwordSubmitMsg{password: "secret"})
	t.Cleanup(m2.Close)

	if m2.active != viewMenu {
		t.Fatalf("active = %d, want viewMenu with a cached id", m2.active)
	}
	id, err := m2.session.EmployeeID()
	if err != nil || id != "E123" {
		t.Errorf("cached id = %q, %v", id, err)
	}
}

func TestIntegrationWrongPassword(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Config{BaseURL: "http://hrm.test"}

	m := New("1.0", dir, cfg, true)
	m = send(t, m, passwordSubmitMsg{password: "correct"})
	m.Close()

	m2 := New("1.0", dir, cfg, false)
	m2.active = viewLogin
	m2 = send(t, m2, passwordSubmitMsg{password: "wrong"})

	if m2.store != nil {
		t.Fatal("store should stay locked")
	}
	if m2.login.errMsg == "" {
		t.Error("login should show the error")
	}
}

func TestIntegrationSignOut(t *testing.T) {
	h := startServer(t)
	m := setupModel(t, h, "E123")

	m = send(t, m, signOutMsg{})

	if m.active != viewLogin || m.login.stage != stageEmployee {
		t.Fatal("sign out should return to the employee prompt")
	}
	if _, err := m.session.EmployeeID(); err == nil {
		t.Error("sign out should forget the employee id")
	}

	// profile without an id asks for one and makes no requests
	hits := h.hits.Load()
	m = openProfile(t, m)
	if m.profileView.result.State != profile.AwaitingIdentifier {
		t.Errorf("state = %s, want awaiting identifier", m.profileView.result.State)
	}
	if h.hits.Load() != hits {
		t.Error("no request should be made without an id")
	}
}

func TestIntegrationServerSettingsPersist(t *testing.T) {
	h := startServer(t)
	m := setupModel(t, h, "E123")

	want := ServerSettings{BaseURL: "http://other.test", UploadEndpoint: "uploadAvatar"}
	m = send(t, m, navigateMsg{view: viewSettings})
	m = send(t, m, saveServerMsg{settings: want})

	if m.client.BaseURL() != want.BaseURL {
		t.Errorf("client base url = %q, want %q", m.client.BaseURL(), want.BaseURL)
	}
	if m.settings.flash != "saved" {
		t.Errorf("flash = %q, want saved", m.settings.flash)
	}
	if got := loadConfig[ServerSettings](m.configs, serverConfigKey); got != want {
		t.Errorf("stored = %+v, want %+v", got, want)
	}
}
