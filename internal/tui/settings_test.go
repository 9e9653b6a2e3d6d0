package tui

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zarlcorp/core/pkg/zfilesystem"
	"github.com/zarlcorp/core/pkg/zstore"
	"github.com/zarlcorp/zhrm/internal/config"
	"github.com/zarlcorp/zhrm/internal/hrm"
)

// config round-trip tests

func openTestStore(t *testing.T) *zstore.Store {
	t.Helper()
	fs := zfilesystem.NewMemFS()
	s, err := zstore.Open(fs, []byte("test"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestServerSettingsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	col, err := zstore.NewCollection[configEnvelope](s, "config")
	if err != nil {
		t.Fatal(err)
	}

	want := ServerSettings{BaseURL: "http://localhost:8080", UploadEndpoint: hrm.UploadAvatar}
	if err := saveConfig(col, serverConfigKey, want); err != nil {
		t.Fatal(err)
	}

	got := loadConfig[ServerSettings](col, serverConfigKey)
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	s := openTestStore(t)
	col, err := zstore.NewCollection[configEnvelope](s, "config")
	if err != nil {
		t.Fatal(err)
	}

	if got := loadConfig[ServerSettings](col, serverConfigKey); got.Configured() {
		t.Errorf("missing config should be zero, got %+v", got)
	}
}

func TestLoadConfigNilCollection(t *testing.T) {
	if got := loadConfig[ServerSettings](nil, serverConfigKey); got.Configured() {
		t.Errorf("nil collection should give zero, got %+v", got)
	}
	if err := saveConfig(nil, serverConfigKey, ServerSettings{}); err == nil {
		t.Error("saving without a store should fail")
	}
}

func TestConfigEnvelopeJSON(t *testing.T) {
	want := ServerSettings{BaseURL: "https://hrm.test"}
	data, err := json.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}

	envJSON, err := json.Marshal(configEnvelope{Data: data})
	if err != nil {
		t.Fatal(err)
	}

	var env configEnvelope
	if err := json.Unmarshal(envJSON, &env); err != nil {
		t.Fatal(err)
	}

	var got ServerSettings
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("round-trip failed: got %+v, want %+v", got, want)
	}
}

// validation and conversion tests

func TestServerSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		s       ServerSettings
		wantErr bool
	}{
		{"empty", ServerSettings{}, false},
		{"https", ServerSettings{BaseURL: "https://hrm.test"}, false},
		{"http with port", ServerSettings{BaseURL: "http://127.0.0.1:8080"}, false},
		{"profile image endpoint", ServerSettings{UploadEndpoint: hrm.UploadProfileImage}, false},
		{"avatar endpoint", ServerSettings{UploadEndpoint: hrm.UploadAvatar}, false},
		{"no scheme", ServerSettings{BaseURL: "hrm.test"}, true},
		{"ftp", ServerSettings{BaseURL: "ftp://hrm.test"}, true},
		{"no host", ServerSettings{BaseURL: "http://"}, true},
		{"unknown endpoint", ServerSettings{UploadEndpoint: "uploadPhoto"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestServerSettingsClientConfig(t *testing.T) {
	cfg := config.Config{
		BaseURL:        "https://env.test",
		UploadEndpoint: hrm.UploadProfileImage,
		HTTPTimeout:    7 * time.Second,
	}

	got := ServerSettings{}.ClientConfig(cfg)
	want := hrm.Config{BaseURL: "https://env.test", UploadEndpoint: hrm.UploadProfileImage, Timeout: 7 * time.Second}
	if got != want {
		t.Errorf("defaults: got %+v, want %+v", got, want)
	}

	got = ServerSettings{BaseURL: "http://local.test/", UploadEndpoint: hrm.UploadAvatar}.ClientConfig(cfg)
	want = hrm.Config{BaseURL: "http://local.test", UploadEndpoint: hrm.UploadAvatar, Timeout: 7 * time.Second}
	if got != want {
		t.Errorf("overrides: got %+v, want %+v", got, want)
	}
}

// form tests

func TestSettingsFormPopulates(t *testing.T) {
	saved := ServerSettings{BaseURL: "http://local.test"}
	defaults := ServerSettings{BaseURL: hrm.DefaultBaseURL, UploadEndpoint: hrm.UploadProfileImage}
	m := newSettingsModel(saved, defaults)

	if m.inputs[srvBaseURL].Value() != "http://local.test" {
		t.Errorf("base url = %q", m.inputs[srvBaseURL].Value())
	}
	if m.inputs[srvUploadEndpoint].Placeholder != hrm.UploadProfileImage {
		t.Errorf("endpoint placeholder = %q", m.inputs[srvUploadEndpoint].Placeholder)
	}

	view := m.View()
	for _, label := range serverLabels {
		if !strings.Contains(view, label) {
			t.Errorf("view missing label %q", label)
		}
	}
}

func TestSettingsFormTabAdvances(t *testing.T) {
	m := newSettingsModel(ServerSettings{}, ServerSettings{})

	m, _ = m.Update(specialKey(tea.KeyTab))
	if m.focus != int(srvUploadEndpoint) {
		t.Errorf("focus = %d, want %d", m.focus, srvUploadEndpoint)
	}

	m, _ = m.Update(specialKey(tea.KeyTab))
	if m.focus != int(srvBaseURL) {
		t.Errorf("focus should wrap, got %d", m.focus)
	}

	m, _ = m.Update(specialKey(tea.KeyUp))
	if m.focus != int(srvUploadEndpoint) {
		t.Errorf("up should wrap backwards, got %d", m.focus)
	}
}

func TestSettingsFormSave(t *testing.T) {
	m := newSettingsModel(ServerSettings{}, ServerSettings{})
	m.inputs[srvBaseURL].SetValue(" http://local.test/ ")
	m.inputs[srvUploadEndpoint].SetValue(hrm.UploadAvatar)

	_, cmd := m.Update(specialKey(tea.KeyCtrlS))
	msg, ok := cmdMsg(cmd).(saveServerMsg)
	if !ok {
		t.Fatal("ctrl+s should emit saveServerMsg")
	}

	want := ServerSettings{BaseURL: "http://local.test", UploadEndpoint: hrm.UploadAvatar}
	if msg.settings != want {
		t.Errorf("settings = %+v, want %+v", msg.settings, want)
	}
}

func TestSettingsFormRejectsInvalid(t *testing.T) {
	m := newSettingsModel(ServerSettings{}, ServerSettings{})
	m.inputs[srvBaseURL].SetValue("not a url")

	m, _ = m.Update(specialKey(tea.KeyCtrlS))
	if m.flash == "" {
		t.Fatal("invalid url should show an error")
	}
	if !strings.Contains(m.View(), m.flash) {
		t.Error("error should be visible")
	}
}

func TestSettingsFormReset(t *testing.T) {
	m := newSettingsModel(ServerSettings{BaseURL: "http://local.test", UploadEndpoint: hrm.UploadAvatar}, ServerSettings{})

	m, _ = m.Update(specialKey(tea.KeyCtrlR))
	for i, in := range m.inputs {
		if in.Value() != "" {
			t.Errorf("field %d = %q, want empty", i, in.Value())
		}
	}
}

func TestSettingsFormFlash(t *testing.T) {
	m := newSettingsModel(ServerSettings{}, ServerSettings{})

	m, cmd := m.Update(serverSavedMsg{})
	if m.flash != "saved" || cmd == nil {
		t.Fatal("saved confirmation should flash")
	}

	m, _ = m.Update(flashMsg{})
	if m.flash != "" {
		t.Error("flash should clear")
	}
}

func TestSettingsEscGoesBack(t *testing.T) {
	m := newSettingsModel(ServerSettings{}, ServerSettings{})

	_, cmd := m.Update(escKey())
	if nav, ok := cmdMsg(cmd).(navigateMsg); !ok || nav.view != viewMenu {
		t.Error("esc should go back to the menu")
	}
}
