// Package search implements the file-search and directory-listing
// helpers exposed at the boundary: a gitignore-aware recursive
// filename search, whose results come back in walk order, and a
// non-recursive directory listing sorted directories-first then
// case-insensitive by name.
package search

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Entry is one result row for both search and list operations.
type Entry struct {
	Path  string `json:"path"`
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size"`
}

const maxDepth = 10

// Files walks root up to maxDepth, honoring .gitignore files the way
// a git-aware file finder does, and returns up to maxResults entries
// whose name case-insensitively contains pattern.
func Files(root, pattern string, maxResults int) ([]Entry, error) {
	ignore := loadGitignore(root)
	needle := strings.ToLower(pattern)

	var results []Entry
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort walk, skip unreadable entries
		}
		if len(results) >= maxResults {
			return filepath.SkipAll
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if rel == "." {
			return nil
		}
		depth := strings.Count(rel, string(filepath.Separator)) + 1
		if depth > maxDepth {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ignore.matches(rel, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.Contains(strings.ToLower(info.Name()), needle) {
			results = append(results, Entry{
				Path: path, Name: info.Name(), IsDir: info.IsDir(), Size: info.Size(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListDirectory lists the immediate children of path, directories
// first, then case-insensitive alphabetical.
func ListDirectory(path string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Path: filepath.Join(path, de.Name()), Name: de.Name(),
			IsDir: de.IsDir(), Size: info.Size(),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	return entries, nil
}

// gitignoreSet holds the glob patterns collected from .gitignore files
// found from root downward, applied relative to root.
type gitignoreSet struct {
	patterns []string
}

func loadGitignore(root string) gitignoreSet {
	var patterns []string
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if info.Name() != ".gitignore" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		dir, _ := filepath.Rel(root, filepath.Dir(path))
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if dir != "." {
				line = filepath.ToSlash(filepath.Join(dir, line))
			}
			patterns = append(patterns, line)
		}
		return nil
	})
	patterns = append(patterns, ".git/**")
	return gitignoreSet{patterns: patterns}
}

func (g gitignoreSet) matches(rel string, isDir bool) bool {
	slashRel := filepath.ToSlash(rel)
	for _, p := range g.patterns {
		pat := p
		if isDir {
			pat = strings.TrimSuffix(pat, "/")
		}
		if ok, _ := doublestar.Match(pat, slashRel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pat+"/**", slashRel); ok {
			return true
		}
	}
	return false
}
