// Package pty wraps a forked child process behind a pseudo-terminal:
// non-blocking master I/O, resize, and a teardown protocol that never
// leaves a zombie behind.
package pty

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"

	"github.com/pier-term/piercore/internal/logx"
	"github.com/pier-term/piercore/internal/pierr"
)

// Session owns one forked child process and its PTY master descriptor.
// The zero value is not usable; construct with Spawn.
type Session struct {
	master *os.File
	cmd    *exec.Cmd

	mu     sync.Mutex
	closed bool
}

const (
	maxReadSize    = 64 * 1024
	reapGracePause = 100 * time.Millisecond
)

// Spawn opens a PTY master/slave pair, forks, and execs program with
// argv[0]=program followed by args, sized cols x rows. The child's
// environment carries TERM=xterm-256color and the en_US.UTF-8 locale
// variables.
func Spawn(cols, rows int, program string, args ...string) (*Session, error) {
	cmd := exec.Command(program, args...)
	cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"LANG=en_US.UTF-8",
		"LC_ALL=en_US.UTF-8",
	)

	master, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: spawn %s: %v", pierr.ErrIoError, program, err)
	}

	if err := setNonblock(master); err != nil {
		master.Close()
		_ = cmd.Process.Kill()
		return nil, fmt.Errorf("%w: set nonblocking: %v", pierr.ErrIoError, err)
	}

	return &Session{master: master, cmd: cmd}, nil
}

// Resize updates the kernel window size on the master. Idempotent.
func (s *Session) Resize(cols, rows int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("%w: session closed", pierr.ErrIoError)
	}
	if err := pty.Setsize(s.master, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)}); err != nil {
		return fmt.Errorf("%w: resize: %v", pierr.ErrIoError, err)
	}
	return nil
}

// Write writes to the master. Partial writes are success; a
// would-block condition reports zero bytes written, not an error.
func (s *Session) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, fmt.Errorf("%w: session closed", pierr.ErrIoError)
	}
	n, err := syscall.Write(int(s.master.Fd()), data)
	if err != nil {
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			return 0, nil
		}
		return n, fmt.Errorf("%w: write: %v", pierr.ErrIoError, err)
	}
	return n, nil
}

// Read performs a single non-blocking read of up to 64 KiB. A
// would-block condition or EOF both return an empty, non-error
// buffer.
func (s *Session) Read() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("%w: session closed", pierr.ErrIoError)
	}
	buf := make([]byte, maxReadSize)
	n, err := syscall.Read(int(s.master.Fd()), buf)
	if err != nil {
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read: %v", pierr.ErrIoError, err)
	}
	if n == 0 {
		return nil, nil // EOF
	}
	return buf[:n], nil
}

// Fd exposes the OS descriptor for an external poll loop.
func (s *Session) Fd() uintptr {
	return s.master.Fd()
}

// Pid returns the child's process id.
func (s *Session) Pid() int {
	if s.cmd.Process == nil {
		return -1
	}
	return s.cmd.Process.Pid
}

// Close runs the teardown protocol: SIGTERM, non-blocking reap, a
// 100ms grace wait, another non-blocking reap, then SIGKILL with a
// blocking reap. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	defer s.master.Close()

	proc := s.cmd.Process
	if proc == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		s.cmd.Wait()
		close(done)
	}()

	_ = proc.Signal(syscall.SIGTERM)
	select {
	case <-done:
		return nil
	default:
	}

	select {
	case <-done:
		return nil
	case <-time.After(reapGracePause):
	}

	select {
	case <-done:
		return nil
	default:
	}

	if err := proc.Kill(); err != nil {
		logx.WithError(err).WithField("pid", proc.Pid).Warn("pty teardown: SIGKILL failed")
	}
	<-done
	return nil
}

func setNonblock(f *os.File) error {
	return syscall.SetNonblock(int(f.Fd()), true)
}
