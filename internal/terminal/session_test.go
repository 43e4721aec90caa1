package terminal

import (
	"strings"
	"testing"
	"time"
)

func TestSessionEchoesAndReads(t *testing.T) {
	sess, err := Create(80, 24, "")
	if err != nil {
		t.Skipf("pty unavailable in this environment: %v", err)
	}
	defer sess.Close()

	if _, err := sess.Write([]byte("echo hi\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	var seen string
	for time.Now().Before(deadline) {
		data, err := sess.Read()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		seen += string(data)
		if strings.Contains(seen, "hi") {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !strings.Contains(seen, "hi") {
		t.Fatalf("expected output to contain 'hi', got %q", seen)
	}
}

func TestResizeReshapesScreen(t *testing.T) {
	sess, err := Create(80, 24, "")
	if err != nil {
		t.Skipf("pty unavailable in this environment: %v", err)
	}
	defer sess.Close()

	if err := sess.Resize(40, 12); err != nil {
		t.Fatalf("resize: %v", err)
	}
	if sess.Screen().Cols != 40 || sess.Screen().Rows != 12 {
		t.Fatalf("screen = %dx%d, want 40x12", sess.Screen().Cols, sess.Screen().Rows)
	}
}
