// Package session caches the signed-in employee identifier in the local
// encrypted store.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zarlcorp/core/pkg/zstore"
	"github.com/zarlcorp/zhrm/internal/employee"
)

// Key is the entry the identifier is stored under.
const Key = "empId"

const collection = "session"

var ErrEmptyIdentifier = errors.New("employee id must not be empty")

// Session is the cached sign-in.
type Session struct {
	EmployeeID string    `json:"employee_id"`
	SignedInAt time.Time `json:"signed_in_at"`
}

// Store reads and writes the session entry.
type Store struct {
	col *zstore.Collection[Session]
}

// New opens the session collection in s.
func New(s *zstore.Store) (*Store, error) {
	col, err := zstore.NewCollection[Session](s, collection)
	if err != nil {
		return nil, fmt.Errorf("open session collection: %w", err)
	}
	return &Store{col: col}, nil
}

// Current returns the cached session. Any read failure, including a missing
// entry, is reported as employee.ErrNoIdentifier.
func (s *Store) Current() (Session, error) {
	sess, err := s.col.Get(Key)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", employee.ErrNoIdentifier, err)
	}
	if sess.EmployeeID == "" {
		return Session{}, employee.ErrNoIdentifier
	}
	return sess, nil
}

// EmployeeID returns the cached identifier.
func (s *Store) EmployeeID() (string, error) {
	sess, err := s.Current()
	if err != nil {
		return "", err
	}
	return sess.EmployeeID, nil
}

// SetEmployeeID caches id as the signed-in employee.
func (s *Store) SetEmployeeID(id string, now time.Time) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrEmptyIdentifier
	}

	if err := s.col.Put(Key, Session{EmployeeID: id, SignedInAt: now.UTC()}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear signs out. Clearing an empty session is not an error.
func (s *Store) Clear() error {
	if _, err := s.Current(); err != nil {
		return nil
	}
	if err := s.col.Delete(Key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
