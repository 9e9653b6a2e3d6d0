package tui

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/zarlcorp/zhrm/internal/config"
	"github.com/zarlcorp/zhrm/internal/hrm"
)

// configEnvelope wraps a JSON-encoded config value so we can store
// heterogeneous config types in a single zstore collection.
type configEnvelope struct {
	Data json.RawMessage `json:"data"`
}

const serverConfigKey = "server"

// ServerSettings overrides the environment's HRM server settings.
type ServerSettings struct {
	BaseURL        string `json:"base_url"`
	UploadEndpoint string `json:"upload_endpoint"`
}

// Configured reports whether any override is set.
func (s ServerSettings) Configured() bool {
	return s.BaseURL != "" || s.UploadEndpoint != ""
}

// Validate checks the URL scheme and upload endpoint name.
func (s ServerSettings) Validate() error {
	if s.BaseURL != "" {
		u, err := url.Parse(s.BaseURL)
		if err != nil {
			return fmt.Errorf("server url: %w", err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("server url must be http(s)://host")
		}
	}

	switch s.UploadEndpoint {
	case "", hrm.UploadProfileImage, hrm.UploadAvatar:
		return nil
	}
	return fmt.Errorf("upload endpoint must be %s or %s", hrm.UploadProfileImage, hrm.UploadAvatar)
}

// ClientConfig merges the overrides onto the environment settings.
func (s ServerSettings) ClientConfig(cfg config.Config) hrm.Config {
	c := cfg.Client(strings.TrimRight(s.BaseURL, "/"))
	if s.UploadEndpoint != "" {
		c.UploadEndpoint = s.UploadEndpoint
	}
	return c
}
