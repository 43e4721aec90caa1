package sshclient

import (
	"errors"
	"testing"

	"github.com/pier-term/piercore/internal/pierr"
)

func TestStartPortForwardRequiresConnection(t *testing.T) {
	s := New(DefaultConfig(), nil)
	err := s.StartPortForward(0, "example.com", 80)
	if !errors.Is(err, pierr.ErrIoError) {
		t.Fatalf("expected ErrIoError when not connected, got %v", err)
	}
}

func TestStopPortForwardNotFound(t *testing.T) {
	s := New(DefaultConfig(), nil)
	err := s.StopPortForward(9999)
	if !errors.Is(err, pierr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestActiveForwardsEmptyInitially(t *testing.T) {
	s := New(DefaultConfig(), nil)
	forwards := s.ActiveForwards()
	if len(forwards) != 0 {
		t.Fatalf("expected no active forwards, got %d", len(forwards))
	}
}
