// Package sshclient implements the SSH Session of the specification:
// connect with TOFU host-key verification, password/keyfile
// authentication, command execution with layered timeouts, an
// interactive shell channel, and disconnect — plus the port forwarder,
// SFTP client, and service detector that build on top of one shared
// transport. Every exported operation bridges onto the shared
// sshruntime executor, matching the "every SSH boundary call is
// synchronous to the host and internally bridges to the executor via
// block-on" concurrency model.
package sshclient

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/pier-term/piercore/internal/logx"
	"github.com/pier-term/piercore/internal/pierr"
	"github.com/pier-term/piercore/internal/sshruntime"
)

const (
	connectTimeout    = 10 * time.Second
	disconnectTimeout = 5 * time.Second
	execOverall       = 60 * time.Second
	execPerMessage    = 10 * time.Second
)

// Session is the SSH Session of the data model: a config, an optional
// shared transport, and the set of active local-port forwards. A zero
// Session is not connected; construct with New.
type Session struct {
	config Config
	store  *KnownHostsStore

	mu        sync.Mutex // guards transport; released before forward copy loops
	transport *ssh.Client

	forwardsMu sync.Mutex
	forwards   map[uint16]*forwardTask
}

// New builds a disconnected Session for config, using store for host-key
// verification.
func New(config Config, store *KnownHostsStore) *Session {
	return &Session{
		config:   config,
		store:    store,
		forwards: make(map[uint16]*forwardTask),
	}
}

// Connect dials config.Host:config.Port with a 10-second timeout,
// verifies the host key via the TOFU store, and authenticates with the
// configured method.
func (s *Session) Connect() error {
	method, err := s.authMethod()
	if err != nil {
		return err
	}

	clientConfig := &ssh.ClientConfig{
		User:            s.config.Username,
		Auth:            []ssh.AuthMethod{method},
		HostKeyCallback: s.store.HostKeyCallback(),
		Timeout:         connectTimeout,
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	return sshruntime.RunErr(func() error {
		conn, err := net.DialTimeout("tcp", addr, connectTimeout)
		if err != nil {
			return fmt.Errorf("%w: %v", pierr.ErrConnectTimeout, err)
		}
		sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
		if err != nil {
			conn.Close()
			if strings.Contains(err.Error(), "unable to authenticate") {
				return fmt.Errorf("%w: %v", pierr.ErrAuthFailed, err)
			}
			if isHostKeyErr(err) {
				return err // already wrapped with ErrHostKeyMismatch
			}
			return fmt.Errorf("%w: %v", pierr.ErrAuthFailed, err)
		}
		client := ssh.NewClient(sshConn, chans, reqs)
		s.mu.Lock()
		s.transport = client
		s.mu.Unlock()
		return nil
	})
}

func isHostKeyErr(err error) bool {
	return strings.Contains(err.Error(), pierr.ErrHostKeyMismatch.Error())
}

func (s *Session) authMethod() (ssh.AuthMethod, error) {
	switch s.config.Auth.Kind {
	case AuthPassword:
		return ssh.Password(s.config.Auth.Password), nil
	case AuthKeyFile:
		keyBytes, err := os.ReadFile(s.config.Auth.KeyFile.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: read key file: %v", pierr.ErrInvalidArgument, err)
		}
		var signer ssh.Signer
		if s.config.Auth.KeyFile.Passphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(keyBytes, []byte(s.config.Auth.KeyFile.Passphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(keyBytes)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: parse private key: %v", pierr.ErrInvalidArgument, err)
		}
		return ssh.PublicKeys(signer), nil
	case AuthAgent:
		return nil, fmt.Errorf("%w: agent auth", pierr.ErrUnsupported)
	default:
		return nil, fmt.Errorf("%w: unknown auth kind", pierr.ErrInvalidArgument)
	}
}

// IsConnected reports whether the session currently holds a transport.
func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport != nil
}

// client returns the shared transport, or nil if not connected.
func (s *Session) client() *ssh.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transport
}

// ExecResult is the structured result of ExecCommand.
type ExecResult struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
}

// ExecCommand runs cmd on a new session channel, concatenating stdout
// and stderr in arrival order, bounded by an overall 60-second deadline
// and a per-message deadline of min(10s, remaining overall). If no exit
// status arrives, ExitCode is -1.
func (s *Session) ExecCommand(cmd string) (ExecResult, error) {
	client := s.client()
	if client == nil {
		return ExecResult{ExitCode: -1, Stdout: "Error: command timed out after 60s"}, nil
	}

	type outcome struct {
		res ExecResult
	}
	resultCh := make(chan outcome, 1)

	sshruntime.Run(func() {
		resultCh <- outcome{res: execOnClient(client, cmd)}
	})

	select {
	case out := <-resultCh:
		return out.res, nil
	case <-time.After(execOverall + time.Second):
		return ExecResult{ExitCode: -1, Stdout: "Error: command timed out after 60s"}, nil
	}
}

func execOnClient(client *ssh.Client, cmd string) ExecResult {
	session, err := client.NewSession()
	if err != nil {
		return ExecResult{ExitCode: -1, Stdout: "Error: command timed out after 60s"}
	}
	defer session.Close()

	var buf bytes.Buffer
	session.Stdout = &buf
	session.Stderr = &buf

	if err := session.Start(cmd); err != nil {
		return ExecResult{ExitCode: -1, Stdout: "Error: command timed out after 60s"}
	}

	waitDone := make(chan error, 1)
	go func() { waitDone <- session.Wait() }()

	deadline := time.Now().Add(execOverall)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ExecResult{ExitCode: -1, Stdout: "Error: command timed out after 60s"}
		}
		perMsg := execPerMessage
		if remaining < perMsg {
			perMsg = remaining
		}
		select {
		case err := <-waitDone:
			exitCode := 0
			if err != nil {
				if exitErr, ok := err.(*ssh.ExitError); ok {
					exitCode = exitErr.ExitStatus()
				} else {
					exitCode = -1
				}
			}
			return ExecResult{ExitCode: exitCode, Stdout: strings.TrimSpace(buf.String())}
		case <-time.After(perMsg):
			// per-message deadline elapsed without completion; loop to
			// re-check the overall deadline.
		}
	}
}

// OpenShell opens an interactive session channel with a requested
// xterm-256color pty sized cols x rows and starts a shell. Errors from
// the underlying library propagate verbatim.
func (s *Session) OpenShell(cols, rows int) (*ssh.Session, error) {
	client := s.client()
	if client == nil {
		return nil, fmt.Errorf("%w: not connected", pierr.ErrIoError)
	}
	sess, err := client.NewSession()
	if err != nil {
		return nil, err
	}
	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := sess.RequestPty("xterm-256color", rows, cols, modes); err != nil {
		sess.Close()
		return nil, err
	}
	if err := sess.Shell(); err != nil {
		sess.Close()
		return nil, err
	}
	return sess, nil
}

// Disconnect closes the transport, giving the close handshake up to 5
// seconds to complete before the handle is dropped unconditionally.
// golang.org/x/crypto/ssh exposes no API to send a reasoned
// SSH_MSG_DISCONNECT (RFC 4253 §11.1) above the transport layer, so
// Close's transport-level teardown is the closest available match to
// a disconnect-with-reason.
func (s *Session) Disconnect() {
	s.StopAllForwards()

	s.mu.Lock()
	client := s.transport
	s.transport = nil
	s.mu.Unlock()
	if client == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		client.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(disconnectTimeout):
		logx.WithField("host", s.config.Host).Warn("disconnect: timed out, dropping transport")
		client.Close()
	}
}
