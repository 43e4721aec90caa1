package gitlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func initRepoWithCommits(t *testing.T, messages ...string) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}

	sig := &object.Signature{Name: "Test Author", Email: "test@example.com", When: time.Unix(1700000000, 0)}
	for i, msg := range messages {
		fname := filepath.Join(dir, "file.txt")
		if err := os.WriteFile(fname, []byte(msg), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := wt.Add("file.txt"); err != nil {
			t.Fatal(err)
		}
		sig.When = sig.When.Add(time.Duration(i) * time.Minute)
		if _, err := wt.Commit(msg, &git.CommitOptions{Author: sig}); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestEnumerateReturnsCommitsNewestFirst(t *testing.T) {
	dir := initRepoWithCommits(t, "first", "second", "third")

	commits, err := Enumerate(dir, Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(commits) != 3 {
		t.Fatalf("got %d commits, want 3", len(commits))
	}
	if commits[0].Message != "third" {
		t.Errorf("newest commit message = %q, want %q", commits[0].Message, "third")
	}
	if commits[2].Message != "first" {
		t.Errorf("oldest commit message = %q, want %q", commits[2].Message, "first")
	}
	if commits[0].Parents != commits[1].Hash {
		t.Errorf("commits[0].Parents = %q, want %q", commits[0].Parents, commits[1].Hash)
	}
}

func TestEnumerateRespectsLimit(t *testing.T) {
	dir := initRepoWithCommits(t, "a", "b", "c", "d")

	commits, err := Enumerate(dir, Filter{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(commits) != 2 {
		t.Fatalf("got %d commits, want 2", len(commits))
	}
}

func TestEnumerateFiltersByAuthorSubstring(t *testing.T) {
	dir := initRepoWithCommits(t, "only commit")

	commits, err := Enumerate(dir, Filter{Author: "nonexistent"})
	if err != nil {
		t.Fatal(err)
	}
	if len(commits) != 0 {
		t.Fatalf("got %d commits, want 0 for non-matching author", len(commits))
	}
}

func TestDetectDefaultBranchReturnsNonEmptyGuess(t *testing.T) {
	dir := initRepoWithCommits(t, "only commit")

	branch, err := DetectDefaultBranch(dir)
	if err != nil {
		t.Fatal(err)
	}
	if branch == "" {
		t.Fatal("expected a non-empty branch guess")
	}
}

func TestAuthorsReturnsUniqueSortedNames(t *testing.T) {
	dir := initRepoWithCommits(t, "one", "two")

	authors, err := Authors(dir, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(authors) != 1 || authors[0] != "Test Author" {
		t.Fatalf("got %v, want [Test Author]", authors)
	}
}
