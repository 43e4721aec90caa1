package search

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFilesCaseInsensitiveSubstring(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "README.md"), "x")
	writeFile(t, filepath.Join(root, "src", "reader.go"), "x")

	results, err := Files(root, "read", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2: %+v", len(results), results)
	}
}

func TestFilesHonorsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "build/\n")
	writeFile(t, filepath.Join(root, "build", "readme.txt"), "x")
	writeFile(t, filepath.Join(root, "readme.txt"), "x")

	results, err := Files(root, "readme", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 (build/ ignored): %+v", len(results), results)
	}
}

func TestListDirectoryDirsFirstThenAlpha(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.txt"), "x")
	writeFile(t, filepath.Join(root, "a.txt"), "x")
	if err := os.Mkdir(filepath.Join(root, "zdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	entries, err := ListDirectory(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if !entries[0].IsDir || entries[0].Name != "zdir" {
		t.Fatalf("first entry = %+v, want dir zdir first", entries[0])
	}
	if entries[1].Name != "a.txt" || entries[2].Name != "b.txt" {
		t.Fatalf("file order = %q, %q, want a.txt, b.txt", entries[1].Name, entries[2].Name)
	}
}
