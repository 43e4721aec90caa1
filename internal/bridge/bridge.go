// Package bridge is the pure-Go half of the C-ABI boundary layer: an
// opaque-handle registry for terminal sessions and SSH sessions, and
// JSON encoders for every structured result the boundary returns. It
// has no cgo in it so it stays independently testable; cmd/piercorelib
// supplies the thin //export wrappers that marshal C strings at the
// edge and call into this package.
package bridge

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/pier-term/piercore/internal/graph"
	"github.com/pier-term/piercore/internal/logx"
	"github.com/pier-term/piercore/internal/search"
	"github.com/pier-term/piercore/internal/sshclient"
	"github.com/pier-term/piercore/internal/terminal"
)

var nextHandle int64

func allocHandle() uint64 {
	return uint64(atomic.AddInt64(&nextHandle, 1))
}

// Registry holds every live terminal and SSH session behind opaque
// uint64 handles, since the C-ABI surface can't carry Go pointers
// across the boundary directly.
type Registry struct {
	mu        sync.Mutex
	terminals map[uint64]*terminal.Session
	sessions  map[uint64]*sshclient.Session
	hostKeys  *sshclient.KnownHostsStore
}

// New builds an empty registry backed by a known-hosts store at
// knownHostsPath.
func New(knownHostsPath string) (*Registry, error) {
	store, err := sshclient.NewKnownHostsStore(knownHostsPath)
	if err != nil {
		return nil, err
	}
	return &Registry{
		terminals: make(map[uint64]*terminal.Session),
		sessions:  make(map[uint64]*sshclient.Session),
		hostKeys:  store,
	}, nil
}

// CreateTerminal spawns a PTY session and returns its handle.
func (r *Registry) CreateTerminal(cols, rows int, shell string) (uint64, error) {
	sess, err := terminal.Create(cols, rows, shell)
	if err != nil {
		return 0, err
	}
	h := allocHandle()
	r.mu.Lock()
	r.terminals[h] = sess
	r.mu.Unlock()
	logx.WithField("correlation_id", uuid.New().String()).WithField("handle", h).Info("terminal created")
	return h, nil
}

// CreateTerminalWithArgs spawns program with args under a PTY and
// returns its handle.
func (r *Registry) CreateTerminalWithArgs(cols, rows int, program string, args ...string) (uint64, error) {
	sess, err := terminal.CreateWithArgs(cols, rows, program, args...)
	if err != nil {
		return 0, err
	}
	h := allocHandle()
	r.mu.Lock()
	r.terminals[h] = sess
	r.mu.Unlock()
	logx.WithField("correlation_id", uuid.New().String()).WithField("handle", h).Info("terminal created")
	return h, nil
}

// Terminal resolves a terminal handle, or ok=false if it doesn't exist.
func (r *Registry) Terminal(handle uint64) (*terminal.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.terminals[handle]
	return sess, ok
}

// DestroyTerminal closes and forgets a terminal handle.
func (r *Registry) DestroyTerminal(handle uint64) error {
	r.mu.Lock()
	sess, ok := r.terminals[handle]
	delete(r.terminals, handle)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("bridge: unknown terminal handle %d", handle)
	}
	return sess.Close()
}

// CreateSSHSession registers a not-yet-connected SSH session and
// returns its handle.
func (r *Registry) CreateSSHSession(cfg sshclient.Config) uint64 {
	sess := sshclient.New(cfg, r.hostKeys)
	h := allocHandle()
	r.mu.Lock()
	r.sessions[h] = sess
	r.mu.Unlock()
	logx.WithField("correlation_id", uuid.New().String()).WithField("handle", h).WithField("host", cfg.Host).Info("ssh session registered")
	return h
}

// SSHSession resolves an SSH session handle.
func (r *Registry) SSHSession(handle uint64) (*sshclient.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[handle]
	return sess, ok
}

// DestroySSHSession disconnects and forgets an SSH session handle.
func (r *Registry) DestroySSHSession(handle uint64) error {
	r.mu.Lock()
	sess, ok := r.sessions[handle]
	delete(r.sessions, handle)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("bridge: unknown ssh session handle %d", handle)
	}
	sess.Disconnect()
	return nil
}

// errorEnvelope is the JSON shape every failed boundary call returns.
type errorEnvelope struct {
	Error string `json:"error"`
}

// EncodeError JSON-encodes err for the boundary; never fails.
func EncodeError(err error) string {
	data, _ := json.Marshal(errorEnvelope{Error: err.Error()})
	return string(data)
}

// EncodeOK JSON-encodes an arbitrary success payload for the boundary.
func EncodeOK(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// EncodeSearchResults JSON-encodes a file search result set.
func EncodeSearchResults(entries []search.Entry) (string, error) {
	return EncodeOK(entries)
}

// EncodeGraphRows JSON-encodes a computed commit graph layout.
func EncodeGraphRows(rows []graph.Row) (string, error) {
	return EncodeOK(rows)
}
