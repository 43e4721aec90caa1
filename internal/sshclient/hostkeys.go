package sshclient

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/pier-term/piercore/internal/logx"
	"github.com/pier-term/piercore/internal/pierr"
)

// KnownHostsStore is a persistent TOFU store of (host, port, key)
// tuples backed by an OpenSSH-format known_hosts file, the same
// format and library (golang.org/x/crypto/ssh/knownhosts) the teacher
// uses for strict host checking. Safe for concurrent use: every
// query+persist round trip is serialized by a mutex, matching the
// "process-wide, safe for concurrent read/write" requirement.
type KnownHostsStore struct {
	path string
	mu   sync.Mutex
}

// DefaultKnownHostsPath returns the platform-standard known_hosts
// path used when the host application doesn't override it.
func DefaultKnownHostsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".piercore/known_hosts"
	}
	return filepath.Join(home, ".config", "piercore", "known_hosts")
}

// NewKnownHostsStore opens (creating if necessary) a known_hosts file
// at path.
func NewKnownHostsStore(path string) (*KnownHostsStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create known_hosts dir: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("create known_hosts file: %w", err)
		}
		f.Close()
	}
	return &KnownHostsStore{path: path}, nil
}

// HostKeyCallback implements the TOFU policy described in the
// specification: a matching known host is accepted; a mismatching one
// is refused with ErrHostKeyMismatch (a possible MITM, never silently
// trusted); an unknown host is persisted and accepted, with a
// persistence failure only logged.
func (s *KnownHostsStore) HostKeyCallback() ssh.HostKeyCallback {
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		cb, err := knownhosts.New(s.path)
		if err != nil {
			return fmt.Errorf("%w: load known_hosts: %v", pierr.ErrIoError, err)
		}
		err = cb(hostname, remote, key)
		if err == nil {
			return nil // known-and-matches
		}

		var keyErr *knownhosts.KeyError
		if errors.As(err, &keyErr) && len(keyErr.Want) > 0 {
			return fmt.Errorf("%w: %s presented a different host key than known", pierr.ErrHostKeyMismatch, hostname)
		}

		// unknown: TOFU — persist and accept.
		line := knownhosts.Line([]string{knownhosts.Normalize(hostname)}, key)
		f, openErr := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if openErr != nil {
			logx.WithError(openErr).WithField("host", hostname).Warn("known_hosts: persist failed, continuing")
			return nil
		}
		defer f.Close()
		if _, writeErr := f.WriteString(line + "\n"); writeErr != nil {
			logx.WithError(writeErr).WithField("host", hostname).Warn("known_hosts: persist failed, continuing")
		}
		return nil
	}
}
