package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileReturnsDefault(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Fatalf("got %+v, want default %+v", cfg, Default())
	}
}

func TestLoadFromMergesOverOnlyGivenFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("default_shell: /bin/zsh\nlane_width: 32\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultShell != "/bin/zsh" {
		t.Errorf("DefaultShell = %q, want /bin/zsh", cfg.DefaultShell)
	}
	if cfg.LaneWidth != 32 {
		t.Errorf("LaneWidth = %v, want 32", cfg.LaneWidth)
	}
	if cfg.RowHeight != Default().RowHeight {
		t.Errorf("RowHeight = %v, want default %v", cfg.RowHeight, Default().RowHeight)
	}
}
