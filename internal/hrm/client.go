// Package hrm provides a client for the Global HRM employee REST API.
package hrm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/zarlcorp/zhrm/internal/employee"
)

const (
	// DefaultBaseURL is the hosted HRM server.
	DefaultBaseURL = "https://global-hrm-mobile-server.vercel.app"

	// upload endpoints; servers expose one or the other
	UploadProfileImage = "uploadProfileImage"
	UploadAvatar       = "uploadAvatar"

	// FormField is the multipart field carrying the image.
	FormField = "profilePic"

	defaultAvatarPath = "/images/avatar.png"
	defaultTimeout    = 30 * time.Second
	maxImageBytes     = 10 << 20
)

// ErrNoPictureURL is returned when an upload succeeds but the server does
// not say where the new picture lives.
var ErrNoPictureURL = errors.New("upload response has no picture url")

// Config holds client settings.
type Config struct {
	BaseURL        string
	UploadEndpoint string
	Timeout        time.Duration
}

// Client communicates with the HRM REST API.
type Client struct {
	baseURL        string
	uploadEndpoint string
	http           *http.Client
}

// NewClient creates a client. Zero config values fall back to defaults.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}

	endpoint := cfg.UploadEndpoint
	if endpoint != UploadAvatar {
		endpoint = UploadProfileImage
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:        base,
		uploadEndpoint: endpoint,
		http:           &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the server authority all requests go to.
func (c *Client) BaseURL() string { return c.baseURL }

// DefaultAvatar is the placeholder image shown when an employee has none.
func (c *Client) DefaultAvatar() string { return c.baseURL + defaultAvatarPath }

// Resolve turns a server-relative reference into an absolute URL.
// absolute URLs and local file paths pass through unchanged.
func (c *Client) Resolve(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if strings.HasPrefix(ref, "/") {
		return c.baseURL + ref
	}
	return ref
}

// PersonalDetails fetches the personal details of an employee. A null or
// empty body yields empty details, not an error.
func (c *Client) PersonalDetails(ctx context.Context, employeeID string) (employee.Personal, error) {
	var p employee.Personal

	body, err := c.doGet(ctx, c.employeeURL("getPersonalDetails", employeeID))
	if err != nil {
		return p, fmt.Errorf("personal details: %w", err)
	}

	if err := json.Unmarshal(orNull(body), &p); err != nil {
		return p, fmt.Errorf("personal details: unmarshal: %w", err)
	}

	return p, nil
}

// WorkDetails fetches the work details of an employee.
func (c *Client) WorkDetails(ctx context.Context, employeeID string) (employee.Work, error) {
	var w employee.Work

	body, err := c.doGet(ctx, c.employeeURL("getWorkDetails", employeeID))
	if err != nil {
		return w, fmt.Errorf("work details: %w", err)
	}

	if err := json.Unmarshal(orNull(body), &w); err != nil {
		return w, fmt.Errorf("work details: unmarshal: %w", err)
	}

	return w, nil
}

// ProfilePicture returns the absolute URL of the employee's profile
// picture, or "" when the server has none on record.
func (c *Client) ProfilePicture(ctx context.Context, employeeID string) (string, error) {
	body, err := c.doGet(ctx, c.employeeURL("getProfilePicture", employeeID))
	if err != nil {
		return "", fmt.Errorf("profile picture: %w", err)
	}

	var resp pictureResponse
	if err := json.Unmarshal(orNull(body), &resp); err != nil {
		return "", fmt.Errorf("profile picture: unmarshal: %w", err)
	}

	return c.Resolve(resp.url()), nil
}

// UploadAvatar posts an image as multipart form data and returns the
// absolute URL the server now serves it from. Only HTTP 200 counts as
// success.
func (c *Client) UploadAvatar(ctx context.Context, employeeID, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("upload avatar: read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return "", fmt.Errorf("upload avatar: image exceeds %d bytes", maxImageBytes)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FormField, filepath.Base(filename)))
	h.Set("Content-Type", http.DetectContentType(data))

	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("upload avatar: create part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("upload avatar: write part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("upload avatar: close form: %w", err)
	}

	u := c.employeeURL(c.uploadEndpoint, employeeID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &buf)
	if err != nil {
		return "", fmt.Errorf("upload avatar: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload avatar: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("upload avatar: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload avatar: %w", apiError(resp.StatusCode, body))
	}

	var pr pictureResponse
	if err := json.Unmarshal(orNull(body), &pr); err != nil {
		return "", fmt.Errorf("upload avatar: unmarshal: %w", err)
	}

	ref := pr.url()
	if ref == "" {
		return "", fmt.Errorf("upload avatar: %w", ErrNoPictureURL)
	}

	return c.Resolve(ref), nil
}

// FetchImage downloads and decodes an image (png, jpeg or gif).
func (c *Client) FetchImage(ctx context.Context, ref string) (image.Image, error) {
	body, err := c.doGet(ctx, c.Resolve(ref))
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fetch image: decode: %w", err)
	}

	return img, nil
}

func (c *Client) employeeURL(op, employeeID string) string {
	return c.baseURL + "/employees/" + op + "/" + url.PathEscape(employeeID)
}

func (c *Client) doGet(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, apiError(resp.StatusCode, body)
	}

	return body, nil
}

func orNull(body []byte) []byte {
	if len(bytes.TrimSpace(body)) == 0 {
		return []byte("null")
	}
	return body
}

// Error represents a non-success response from the HRM API.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("hrm: %s (status %d)", e.Message, e.StatusCode)
}

func apiError(status int, body []byte) error {
	var ae apiErrorResponse
	if err := json.Unmarshal(body, &ae); err == nil {
		if msg := ae.text(); msg != "" {
			return &Error{StatusCode: status, Message: msg}
		}
	}
	return &Error{StatusCode: status, Message: http.StatusText(status)}
}

// json wire types

type pictureResponse struct {
	ProfilePictureURL string `json:"profilePictureUrl"`
	ProfilePic        string `json:"profilepic"`
	URL               string `json:"url"`
}

func (p pictureResponse) url() string {
	switch {
	case p.ProfilePictureURL != "":
		return p.ProfilePictureURL
	case p.ProfilePic != "":
		return p.ProfilePic
	}
	return p.URL
}

type apiErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (a apiErrorResponse) text() string {
	if a.Message != "" {
		return a.Message
	}
	return a.Error
}
