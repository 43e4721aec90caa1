// Package terminal composes a PTY session with the VT emulator and a
// scrollback log, matching the Terminal Session of the data model: a
// PTY handle, the live screen, and an ordered sequence of rendered
// lines.
package terminal

import (
	"sync"

	"github.com/pier-term/piercore/internal/pty"
	"github.com/pier-term/piercore/internal/vt"
)

const defaultShell = "/bin/sh"

// Session wires a PTY child process to a VT emulator and keeps a
// capped scrollback of rendered rows every time the emulator scrolls.
type Session struct {
	mu        sync.Mutex
	pty       *pty.Session
	emulator  *vt.Emulator
	scrollback []string
	maxScroll  int
	cols, rows int
}

// Create spawns shell (or the platform default if empty) under a PTY
// sized cols x rows.
func Create(cols, rows int, shell string) (*Session, error) {
	if shell == "" {
		shell = defaultShell
	}
	return CreateWithArgs(cols, rows, shell)
}

// CreateWithArgs spawns program with args under a PTY sized cols x rows.
func CreateWithArgs(cols, rows int, program string, args ...string) (*Session, error) {
	p, err := pty.Spawn(cols, rows, program, args...)
	if err != nil {
		return nil, err
	}
	return &Session{
		pty:       p,
		emulator:  vt.NewEmulator(cols, rows),
		maxScroll: 10000,
		cols:      cols,
		rows:      rows,
	}, nil
}

// Write forwards bytes to the PTY master; see pty.Session.Write.
func (s *Session) Write(data []byte) (int, error) {
	return s.pty.Write(data)
}

// Read drains one non-blocking chunk from the PTY and feeds it
// through the emulator, appending any newly scrolled-off row to
// scrollback. It returns the raw bytes read, the same contract as the
// PTY layer, so a host polling raw_fd can mirror the bytes elsewhere.
func (s *Session) Read() ([]byte, error) {
	data, err := s.pty.Read()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return data, nil
	}
	s.mu.Lock()
	beforeTop := s.emulator.Screen.Render(0)
	s.emulator.Feed(data)
	afterTop := s.emulator.Screen.Render(0)
	if beforeTop != afterTop {
		s.appendScrollback(beforeTop)
	}
	s.mu.Unlock()
	return data, nil
}

func (s *Session) appendScrollback(line string) {
	s.scrollback = append(s.scrollback, line)
	if len(s.scrollback) > s.maxScroll {
		s.scrollback = s.scrollback[len(s.scrollback)-s.maxScroll:]
	}
}

// Resize reshapes both the PTY kernel window size and the emulator grid.
func (s *Session) Resize(cols, rows int) error {
	if err := s.pty.Resize(cols, rows); err != nil {
		return err
	}
	s.mu.Lock()
	s.emulator.Resize(cols, rows)
	s.cols, s.rows = cols, rows
	s.mu.Unlock()
	return nil
}

// Fd exposes the PTY master descriptor for a host poll loop.
func (s *Session) Fd() uintptr {
	return s.pty.Fd()
}

// Screen returns the live screen; callers must not mutate it.
func (s *Session) Screen() *vt.Screen {
	return s.emulator.Screen
}

// Scrollback returns a snapshot of rendered lines that have scrolled
// off the top of the screen.
func (s *Session) Scrollback() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.scrollback))
	copy(out, s.scrollback)
	return out
}

// Close runs the PTY teardown protocol.
func (s *Session) Close() error {
	return s.pty.Close()
}
