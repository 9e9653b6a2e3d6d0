package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/zarlcorp/zhrm/internal/employee"
)

// Fetcher reads employee records from the HRM server.
type Fetcher interface {
	PersonalDetails(ctx context.Context, employeeID string) (employee.Personal, error)
	WorkDetails(ctx context.Context, employeeID string) (employee.Work, error)
	ProfilePicture(ctx context.Context, employeeID string) (string, error)
}

// IdentifierSource reads the cached employee identifier.
type IdentifierSource interface {
	EmployeeID() (string, error)
}

// Option configures a Loader.
type Option func(*Loader)

// WithResolver sets how server-relative picture paths become URLs.
func WithResolver(resolve func(string) string) Option {
	return func(l *Loader) { l.resolve = resolve }
}

// WithDefaultAvatar sets the avatar used when the server has none.
func WithDefaultAvatar(ref string) Option {
	return func(l *Loader) { l.defaultAvatar = ref }
}

// Loader runs one profile load per call. It holds no per-load state, so a
// single Loader can be shared by concurrent loads.
type Loader struct {
	fetch         Fetcher
	ids           IdentifierSource
	resolve       func(string) string
	defaultAvatar string
}

// New creates a Loader.
func New(fetch Fetcher, ids IdentifierSource, opts ...Option) *Loader {
	l := &Loader{
		fetch:   fetch,
		ids:     ids,
		resolve: func(s string) string { return s },
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Result is the typed outcome of a load.
//
// State is AwaitingIdentifier when no identifier is cached (no request is
// made), Loaded once personal details resolve, Empty when the server has no
// personal details, Error when personal details could not be fetched and
// Idle when the load was canceled. Work and picture failures leave the state
// at Loaded and are reported in WorkErr and PictureErr.
type Result struct {
	State      State
	Profile    employee.Profile
	Err        error
	WorkErr    error
	PictureErr error
	Trace      []State
}

// Partial reports whether some secondary fetch failed.
func (r Result) Partial() bool {
	return r.WorkErr != nil || r.PictureErr != nil
}

// Load resolves the identifier and fetches the profile. Requests are issued
// sequentially, one per data category.
func (l *Loader) Load(ctx context.Context) Result {
	r := Result{}
	m := machine{state: Idle}

	m.fire(Start)

	id, err := l.ids.EmployeeID()
	if err != nil || id == "" {
		m.fire(IdentifierMissing)
		if err == nil {
			err = employee.ErrNoIdentifier
		}
		r.State, r.Err, r.Trace = m.state, err, m.trace
		return r
	}

	m.fire(IdentifierResolved)
	return l.fetchAll(ctx, id, &m, r)
}

// Reload fetches the profile again for a known identifier, starting from a
// finished state.
func (l *Loader) Reload(ctx context.Context, from State, employeeID string) Result {
	r := Result{}
	m := machine{state: from}

	if err := m.fire(Reload); err != nil {
		r.State, r.Err = from, err
		return r
	}

	return l.fetchAll(ctx, employeeID, &m, r)
}

func (l *Loader) fetchAll(ctx context.Context, id string, m *machine, r Result) Result {
	r.Profile.EmployeeID = id

	personal, err := l.fetch.PersonalDetails(ctx, id)
	if err != nil {
		return l.fail(ctx, m, r, err)
	}
	r.Profile.Personal = personal

	work, err := l.fetch.WorkDetails(ctx, id)
	if err != nil {
		if canceled(ctx, err) {
			return l.fail(ctx, m, r, err)
		}
		r.WorkErr = err
	}
	r.Profile.Work = work

	picture, err := l.fetch.ProfilePicture(ctx, id)
	if err != nil {
		if canceled(ctx, err) {
			return l.fail(ctx, m, r, err)
		}
		r.PictureErr = err
	}
	r.Profile.Avatar = l.avatarFor(picture, personal)

	if personal.Empty() {
		m.fire(PersonalEmpty)
	} else {
		m.fire(PersonalLoaded)
	}

	r.State, r.Trace = m.state, m.trace
	return r
}

func (l *Loader) fail(ctx context.Context, m *machine, r Result, err error) Result {
	if canceled(ctx, err) {
		m.fire(Cancel)
	} else {
		m.fire(FetchFailed)
	}
	r.State, r.Err, r.Trace = m.state, err, m.trace
	return r
}

// avatarFor picks the picture endpoint's URL, then the personal record's
// profilepic path, then the default avatar.
func (l *Loader) avatarFor(picture string, personal employee.Personal) string {
	if picture != "" {
		return l.resolve(picture)
	}
	if personal.ProfilePic != "" {
		return l.resolve(personal.ProfilePic)
	}
	return l.defaultAvatar
}

func canceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}

// machine walks the transition table and records the states it visits.
type machine struct {
	state State
	trace []State
}

func (m *machine) fire(e Event) error {
	to, err := Next(m.state, e)
	if err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	m.state = to
	m.trace = append(m.trace, to)
	return nil
}
