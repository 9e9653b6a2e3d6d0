package session

import (
	"errors"
	"testing"
	"time"

	"github.com/zarlcorp/core/pkg/zfilesystem"
	"github.com/zarlcorp/core/pkg/zstore"
	"github.com/zarlcorp/zhrm/internal/employee"
)

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

func newTestSession(t *testing.T) *Store {
	t.Helper()
	s, err := New(openTestStore(t))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestEmployeeIDMissing(t *testing.T) {
	s := newTestSession(t)

	id, err := s.EmployeeID()
	if !errors.Is(err, employee.ErrNoIdentifier) {
		t.Fatalf("err = %v, want ErrNoIdentifier", err)
	}
	if id != "" {
		t.Errorf("id = %q, want empty", id)
	}
}

func TestSetAndReadEmployeeID(t *testing.T) {
	s := newTestSession(t)
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	if err := s.SetEmployeeID("  E123 ", now); err != nil {
		t.Fatal(err)
	}

	id, err := s.EmployeeID()
	if err != nil {
		t.Fatal(err)
	}
	if id != "E123" {
		t.Errorf("id = %q, want E123", id)
	}

	sess, err := s.Current()
	if err != nil {
		t.Fatal(err)
	}
	if !sess.SignedInAt.Equal(now) {
		t.Errorf("SignedInAt = %v, want %v", sess.SignedInAt, now)
	}
}

func TestSetEmployeeIDOverwrites(t *testing.T) {
	s := newTestSession(t)

	if err := s.SetEmployeeID("E1", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := s.SetEmployeeID("E2", time.Now()); err != nil {
		t.Fatal(err)
	}

	id, _ := s.EmployeeID()
	if id != "E2" {
		t.Errorf("id = %q, want E2", id)
	}
}

func TestSetEmployeeIDRejectsEmpty(t *testing.T) {
	s := newTestSession(t)

	for _, id := range []string{"", "   "} {
		if err := s.SetEmployeeID(id, time.Now()); !errors.Is(err, ErrEmptyIdentifier) {
			t.Errorf("SetEmployeeID(%q) = %v, want ErrEmptyIdentifier", id, err)
		}
	}
}

func TestClear(t *testing.T) {
	s := newTestSession(t)

	if err := s.SetEmployeeID("E123", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.EmployeeID(); !errors.Is(err, employee.ErrNoIdentifier) {
		t.Errorf("after clear err = %v, want ErrNoIdentifier", err)
	}

	// clearing twice is fine
	if err := s.Clear(); err != nil {
		t.Errorf("second clear: %v", err)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	fs := zfilesystem.NewOSFileSystem(t.TempDir())

	s1, err := zstore.Open(fs, []byte("pass"))
	if err != nil {
		t.Fatal(err)
	}
	sess1, err := New(s1)
	if err != nil {
		t.Fatal(err)
	}
	if err := sess1.SetEmployeeID("E77", time.Now()); err != nil {
		t.Fatal(err)
	}
	s1.Close()

	s2, err := zstore.Open(fs, []byte("pass"))
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	sess2, err := New(s2)
	if err != nil {
		t.Fatal(err)
	}
	id, err := sess2.EmployeeID()
	if err != nil {
		t.Fatal(err)
	}
	if id != "E77" {
		t.Errorf("id = %q, want E77", id)
	}
}
