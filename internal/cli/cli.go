// Package cli implements zhrm's command-line subcommands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/zarlcorp/core/pkg/zfilesystem"
	"github.com/zarlcorp/core/pkg/zstore"
	"github.com/zarlcorp/zhrm/internal/avatar"
	"github.com/zarlcorp/zhrm/internal/config"
	"github.com/zarlcorp/zhrm/internal/demo"
	"github.com/zarlcorp/zhrm/internal/hrm"
	"github.com/zarlcorp/zhrm/internal/profile"
	"github.com/zarlcorp/zhrm/internal/session"
	"golang.org/x/term"
)

// DataDir returns the default data directory for zhrm.
func DataDir() string {
	if d := os.Getenv("XDG_DATA_HOME"); d != "" {
		return d + "/zhrm"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".zhrm"
	}
	return home + "/.local/share/zhrm"
}

// ReadPassword prompts for a passphrase on w and reads it without echo.
func ReadPassword(prompt string, w io.Writer) (string, error) {
	fmt.Fprint(w, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// ReadNewPassword prompts for a new passphrase with confirmation.
func ReadNewPassword(w io.Writer) (string, error) {
	pass, err := ReadPassword("passphrase: ", w)
	if err != nil {
		return "", err
	}
	confirm, err := ReadPassword("confirm passphrase: ", w)
	if err != nil {
		return "", err
	}
	if pass != confirm {
		return "", fmt.Errorf("passphrases do not match")
	}
	return pass, nil
}

// IsFirstRun checks whether the store has been initialized.
func IsFirstRun(dir string) bool {
	_, err := os.Stat(dir + "/salt")
	return err != nil
}

// OpenStore prompts for the passphrase and opens the local store, returning
// it with the session collection.
func OpenStore(dir string) (*zstore.Store, *session.Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}

	var pass string
	var err error
	if IsFirstRun(dir) {
		pass, err = ReadNewPassword(os.Stderr)
	} else {
		pass, err = ReadPassword("passphrase: ", os.Stderr)
	}
	if err != nil {
		return nil, nil, err
	}

	fsys := zfilesystem.NewOSFileSystem(dir)
	s, err := zstore.Open(fsys, []byte(pass))
	if err != nil {
		return nil, nil, err
	}

	sess, err := session.New(s)
	if err != nil {
		s.Close()
		return nil, nil, err
	}

	return s, sess, nil
}

// CmdUse caches the employee id used by every other command.
func CmdUse(id string) {
	s, sess, err := OpenStore(DataDir())
	if err != nil {
		fail(err)
	}
	defer s.Close()

	if err := sess.SetEmployeeID(id, time.Now()); err != nil {
		fail(err)
	}
	fmt.Printf("signed in as %s\n", strings.TrimSpace(id))
}

// CmdWhoami prints the cached employee id.
func CmdWhoami() {
	s, sess, err := OpenStore(DataDir())
	if err != nil {
		fail(err)
	}
	defer s.Close()

	cur, err := sess.Current()
	if err != nil {
		fmt.Println("not signed in (run: zhrm use <employee-id>)")
		return
	}
	fmt.Printf("%s (since %s)\n", cur.EmployeeID, cur.SignedInAt.Local().Format("2006-01-02 15:04"))
}

// CmdForget signs out.
func CmdForget() {
	s, sess, err := OpenStore(DataDir())
	if err != nil {
		fail(err)
	}
	defer s.Close()

	if err := sess.Clear(); err != nil {
		fail(err)
	}
	fmt.Println("signed out")
}

// CmdProfile loads and prints the signed-in employee's profile.
func CmdProfile(ctx context.Context, cfg config.Config, args []string) {
	s, sess, err := OpenStore(DataDir())
	if err != nil {
		fail(err)
	}
	defer s.Close()

	c := hrm.NewClient(cfg.Client(""))
	l := profile.New(c, sess, profile.WithResolver(c.Resolve), profile.WithDefaultAvatar(c.DefaultAvatar()))

	r := l.Load(ctx)
	if err := writeProfile(os.Stdout, r, hasFlag(args, "--json")); err != nil {
		fail(err)
	}
}

// CmdAvatar uploads a new avatar for the signed-in employee.
func CmdAvatar(ctx context.Context, cfg config.Config, path string) {
	s, sess, err := OpenStore(DataDir())
	if err != nil {
		fail(err)
	}
	defer s.Close()

	id, err := sess.EmployeeID()
	if err != nil {
		fail(err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fail(err)
	}

	c := hrm.NewClient(cfg.Client(""))
	r := avatar.Run(ctx, avatar.Request{
		EmployeeID: id,
		Permission: avatar.DirPermission{Dir: filepath.Dir(abs)},
		Picker:     avatar.PathPicker{Path: abs},
		Uploader:   c,
	})
	if !r.Changed() {
		fail(fmt.Errorf("%s", r.Summary()))
	}
	fmt.Printf("%s: %s\n", r.Summary(), r.Avatar)
}

// CmdDemo runs the demo server until ctx is canceled.
func CmdDemo(ctx context.Context, addr string, origins []string, n int) {
	es := demo.NewGenerator().Directory(n)
	srv := demo.NewServer(
		demo.WithEmployees(es...),
		demo.WithAutoCreate(),
		demo.WithCORS(origins...),
		demo.WithAccessLog(os.Stderr),
		demo.WithLogger(slog.Default()),
	)

	ids := srv.IDs()
	sort.Strings(ids)
	fmt.Fprintf(os.Stderr, "demo server on http://%s with employees %s..%s\n", addr, ids[0], ids[len(ids)-1])
	fmt.Fprintf(os.Stderr, "point the client at it with ZHRM_BASE_URL=http://%s\n", addr)

	if err := srv.Run(ctx, addr); err != nil {
		fail(err)
	}
}

// writeProfile renders a load result as text or JSON.
func writeProfile(w io.Writer, r profile.Result, asJSON bool) error {
	switch r.State {
	case profile.AwaitingIdentifier:
		return fmt.Errorf("not signed in (run: zhrm use <employee-id>)")
	case profile.Error, profile.Idle:
		return fmt.Errorf("load profile: %w", r.Err)
	case profile.Empty:
		fmt.Fprintf(w, "no personal details on record for %s\n", r.Profile.EmployeeID)
		return nil
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r.Profile); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}

	p := r.Profile
	fmt.Fprintf(w, "  id:          %s\n", p.EmployeeID)
	fmt.Fprintf(w, "  name:        %s\n", p.Personal.Name)
	fmt.Fprintf(w, "  designation: %s\n", p.Work.Designation)
	fmt.Fprintf(w, "  supervisor:  %s\n", p.Work.Supervisor)
	fmt.Fprintf(w, "  email:       %s\n", p.Work.WorkEmail)
	fmt.Fprintf(w, "  work phone:  %s\n", p.Work.WorkPhone)
	fmt.Fprintf(w, "  avatar:      %s\n", p.Avatar)

	if r.WorkErr != nil {
		fmt.Fprintf(w, "  (work details unavailable: %v)\n", r.WorkErr)
	}
	if r.PictureErr != nil {
		fmt.Fprintf(w, "  (profile picture unavailable: %v)\n", r.PictureErr)
	}
	return nil
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "zhrm: %v\n", err)
	os.Exit(1)
}

func hasFlag(args []string, flag string) bool {
	for _, a := range args {
		if strings.EqualFold(a, flag) {
			return true
		}
	}
	return false
}
