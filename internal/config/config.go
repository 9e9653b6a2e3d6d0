// Package config reads zhrm settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zarlcorp/zhrm/internal/hrm"
)

type Config struct {
	// HRM server
	BaseURL        string
	UploadEndpoint string
	HTTPTimeout    time.Duration

	// TUI
	SplashDelay time.Duration
	PicturesDir string
	LogFile     string

	// demo server
	DemoAddr    string
	DemoOrigins []string
}

// Load reads the environment. Unset values fall back to defaults; malformed
// durations are an error.
func Load() (Config, error) {
	cfg := Config{
		BaseURL:        getenv("ZHRM_BASE_URL", hrm.DefaultBaseURL),
		UploadEndpoint: getenv("ZHRM_UPLOAD_ENDPOINT", hrm.UploadProfileImage),
		PicturesDir:    getenv("ZHRM_PICTURES_DIR", defaultPicturesDir()),
		LogFile:        os.Getenv("ZHRM_LOG_FILE"),
		DemoAddr:       getenv("ZHRM_DEMO_ADDR", "127.0.0.1:8080"),
		DemoOrigins:    splitList(getenv("ZHRM_DEMO_ORIGINS", "*")),
	}

	var errs []error

	d, err := getDuration("ZHRM_SPLASH_DELAY", time.Second)
	errs = append(errs, err)
	cfg.SplashDelay = d

	d, err = getDuration("ZHRM_HTTP_TIMEOUT", 30*time.Second)
	errs = append(errs, err)
	cfg.HTTPTimeout = d

	switch cfg.UploadEndpoint {
	case hrm.UploadProfileImage, hrm.UploadAvatar:
	default:
		errs = append(errs, fmt.Errorf("ZHRM_UPLOAD_ENDPOINT: must be %s or %s, got %q",
			hrm.UploadProfileImage, hrm.UploadAvatar, cfg.UploadEndpoint))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Client returns the HRM client settings. A non-empty baseURL overrides the
// environment.
func (c Config) Client(baseURL string) hrm.Config {
	if baseURL == "" {
		baseURL = c.BaseURL
	}
	return hrm.Config{
		BaseURL:        baseURL,
		UploadEndpoint: c.UploadEndpoint,
		Timeout:        c.HTTPTimeout,
	}
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

// splitList parses a comma separated list, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", k, err)
	}
	if d < 0 {
		return def, fmt.Errorf("%s: must not be negative", k)
	}
	return d, nil
}

func defaultPicturesDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	pics := filepath.Join(home, "Pictures")
	if info, err := os.Stat(pics); err == nil && info.IsDir() {
		return pics
	}
	return home
}
