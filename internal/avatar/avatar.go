// Package avatar implements the change-avatar flow: check photo library
// access, pick an image, upload it and swap the avatar reference on success.
package avatar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	ErrPermissionDenied = errors.New("photo library access denied")
	ErrCanceled         = errors.New("image selection canceled")
	ErrUnsupportedType  = errors.New("unsupported image type")
)

// Extensions lists the image types the server accepts.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif"}

// Supported reports whether path has an accepted image extension.
func Supported(path string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(path)))
}

// Permission grants or denies access to the photo library.
type Permission interface {
	Authorize() error
}

// Picker lets the user choose an image. It returns ErrCanceled when the user
// backs out.
type Picker interface {
	Pick(ctx context.Context) (string, error)
}

// Uploader sends an image to the server and returns its new URL.
type Uploader interface {
	UploadAvatar(ctx context.Context, employeeID, filename string, r io.Reader) (string, error)
}

// DirPermission treats a readable directory as photo library access.
type DirPermission struct {
	Dir string
}

func (p DirPermission) Authorize() error {
	if p.Dir == "" {
		return fmt.Errorf("%w: no pictures directory configured", ErrPermissionDenied)
	}

	info, err := os.Stat(p.Dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrPermissionDenied, p.Dir)
	}

	f, err := os.Open(p.Dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	f.Close()

	return nil
}

// PathPicker returns a path chosen up front, e.g. from the command line.
// An empty path counts as a cancel.
type PathPicker struct {
	Path string
}

func (p PathPicker) Pick(_ context.Context) (string, error) {
	if p.Path == "" {
		return "", ErrCanceled
	}
	return p.Path, nil
}

// Outcome is how an avatar change ended.
type Outcome int

const (
	Updated Outcome = iota
	Denied
	Canceled
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Updated:
		return "updated"
	case Denied:
		return "denied"
	case Canceled:
		return "canceled"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Request describes one avatar change.
type Request struct {
	EmployeeID string
	Current    string // avatar reference before the change
	Permission Permission
	Picker     Picker
	Uploader   Uploader
	Open       func(path string) (io.ReadCloser, error) // nil uses os.Open
}

// Result summarizes an avatar change. Avatar is the server URL after an
// upload answered with 200 and Current otherwise.
type Result struct {
	Outcome Outcome
	Avatar  string
	Path    string
	Err     error
}

// Changed reports whether the avatar reference was replaced.
func (r Result) Changed() bool { return r.Outcome == Updated }

// Summary returns a one-line human-readable description.
func (r Result) Summary() string {
	switch r.Outcome {
	case Updated:
		return "avatar updated"
	case Denied:
		return "photo library access is required to change your avatar"
	case Canceled:
		return "avatar unchanged"
	}
	return fmt.Sprintf("avatar upload failed: %v", r.Err)
}

// Authorize checks photo library access. A nil Permission always grants.
func Authorize(p Permission) error {
	if p == nil {
		return nil
	}
	if err := p.Authorize(); err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return nil
}

// Run executes the full flow. It stops at the first step that does not
// succeed and never alters the avatar unless the upload succeeds.
func Run(ctx context.Context, req Request) Result {
	if err := Authorize(req.Permission); err != nil {
		return Result{Outcome: Denied, Avatar: req.Current, Err: err}
	}

	path, err := req.Picker.Pick(ctx)
	if err != nil {
		if errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled) {
			return Result{Outcome: Canceled, Avatar: req.Current, Err: ErrCanceled}
		}
		return Result{Outcome: Failed, Avatar: req.Current, Err: fmt.Errorf("pick image: %w", err)}
	}

	return Upload(ctx, req, path)
}

// Upload sends the image at path. Authorization and picking are assumed
// done, as when the TUI's file picker already produced the path.
func Upload(ctx context.Context, req Request, path string) Result {
	r := Result{Outcome: Failed, Avatar: req.Current, Path: path}

	if !Supported(path) {
		r.Err = fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(path))
		return r
	}

	open := req.Open
	if open == nil {
		open = func(p string) (io.ReadCloser, error) { return os.Open(p) }
	}

	f, err := open(path)
	if err != nil {
		r.Err = fmt.Errorf("open image: %w", err)
		return r
	}
	defer f.Close()

	url, err := req.Uploader.UploadAvatar(ctx, req.EmployeeID, filepath.Base(path), f)
	if err != nil {
		if ctx.Err() != nil {
			r.Outcome, r.Err = Canceled, ctx.Err()
			return r
		}
		r.Err = err
		return r
	}

	r.Outcome = Updated
	r.Avatar = url
	r.Err = nil
	return r
}
