package bridge

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/pier-term/piercore/internal/sshclient"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := New(filepath.Join(t.TempDir(), "known_hosts"))
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestSSHSessionHandleLifecycle(t *testing.T) {
	r := newTestRegistry(t)
	handle := r.CreateSSHSession(sshclient.DefaultConfig())

	if _, ok := r.SSHSession(handle); !ok {
		t.Fatal("expected session to be registered")
	}
	if err := r.DestroySSHSession(handle); err != nil {
		t.Fatal(err)
	}
	if _, ok := r.SSHSession(handle); ok {
		t.Fatal("expected session to be forgotten after destroy")
	}
}

func TestDestroyUnknownHandleErrors(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.DestroySSHSession(999); err == nil {
		t.Fatal("expected error for unknown handle")
	}
}

func TestEncodeError(t *testing.T) {
	out := EncodeError(errors.New("boom"))
	if out != `{"error":"boom"}` {
		t.Fatalf("got %q", out)
	}
}

func TestHandlesAreUnique(t *testing.T) {
	r := newTestRegistry(t)
	a := r.CreateSSHSession(sshclient.DefaultConfig())
	b := r.CreateSSHSession(sshclient.DefaultConfig())
	if a == b {
		t.Fatalf("expected distinct handles, got %d twice", a)
	}
}
