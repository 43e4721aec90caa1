// Package gitlog enumerates commits from an on-disk git repository,
// in-process via go-git, supplying the ordered commit list that
// internal/graph.Layout treats as a pure input. It is deliberately
// decoupled from the layout engine: nothing here knows about lanes,
// columns, or colors, and nothing in internal/graph opens a
// repository.
package gitlog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/pier-term/piercore/internal/graph"
)

// Filter selects and orders which commits Enumerate returns. The zero
// value enumerates the full history of HEAD in reverse-time order.
type Filter struct {
	Branch          string
	Author          string
	SearchText      string
	AfterTimestamp  int64 // 0 = no filter
	TopoOrder       bool
	FirstParentOnly bool
	NoMerges        bool
	Paths           []string
	Limit           int
	Skip            int
}

// Enumerate walks repoPath's history under filter and returns commits
// in the order the revwalk visits them, ready to feed to graph.Layout.
func Enumerate(repoPath string, filter Filter) ([]graph.Commit, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	start, err := startHash(repo, filter.Branch)
	if err != nil {
		return nil, err
	}

	order := object.LogOrderCommitterTime
	if filter.TopoOrder {
		order = object.LogOrderDFS
	}

	logOpts := &git.LogOptions{From: start, Order: order}
	iter, err := repo.Log(logOpts)
	if err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}
	defer iter.Close()

	decorations, err := buildRefDecorations(repo)
	if err != nil {
		decorations = map[string][]string{}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 1 << 30
	}

	var results []graph.Commit
	skipped := 0
	firstParentChain := map[plumbing.Hash]struct{}{start: {}} // reached from start via first parents

	err = iter.ForEach(func(c *object.Commit) error {
		if len(results) >= limit {
			return storerStop
		}
		if filter.FirstParentOnly {
			// The walk also visits merged-in side branches; keep only
			// commits reached from start through first parents.
			if _, ok := firstParentChain[c.Hash]; !ok {
				return nil
			}
			if c.NumParents() > 0 {
				firstParentChain[c.ParentHashes[0]] = struct{}{}
			}
		}
		if filter.NoMerges && c.NumParents() > 1 {
			return nil
		}
		if filter.Author != "" && !strings.Contains(strings.ToLower(c.Author.Name), strings.ToLower(filter.Author)) {
			return nil
		}
		if filter.AfterTimestamp > 0 && c.Author.When.Unix() < filter.AfterTimestamp {
			return nil
		}
		if filter.SearchText != "" {
			needle := strings.ToLower(filter.SearchText)
			msg := strings.ToLower(c.Message)
			hash := strings.ToLower(c.Hash.String())
			if !strings.Contains(msg, needle) && !strings.HasPrefix(hash, needle) {
				return nil
			}
		}
		if len(filter.Paths) > 0 {
			touches, err := commitTouchesPaths(c, filter.Paths)
			if err != nil || !touches {
				return nil
			}
		}
		if skipped < filter.Skip {
			skipped++
			return nil
		}

		hash := c.Hash.String()
		parents := parentHashes(c, filter.FirstParentOnly)
		results = append(results, graph.Commit{
			Hash:          hash,
			Parents:       strings.Join(parents, " "),
			ShortHash:     shortHash(hash),
			Refs:          formatRefs(decorations[hash]),
			Message:       firstLine(c.Message),
			Author:        c.Author.Name,
			DateTimestamp: c.Author.When.Unix(),
		})
		return nil
	})
	if err != nil && err != storerStop {
		return nil, fmt.Errorf("walk: %w", err)
	}
	return results, nil
}

var storerStop = fmt.Errorf("gitlog: stop iteration")

func parentHashes(c *object.Commit, firstParentOnly bool) []string {
	if firstParentOnly {
		if c.NumParents() == 0 {
			return nil
		}
		return []string{c.ParentHashes[0].String()}
	}
	out := make([]string, 0, c.NumParents())
	for _, p := range c.ParentHashes {
		out = append(out, p.String())
	}
	return out
}

func shortHash(hash string) string {
	if len(hash) < 7 {
		return hash
	}
	return hash[:7]
}

func firstLine(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return message[:i]
	}
	return message
}

func startHash(repo *git.Repository, branch string) (plumbing.Hash, error) {
	if branch == "" {
		head, err := repo.Head()
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("resolve HEAD: %w", err)
		}
		return head.Hash(), nil
	}
	for _, prefix := range []string{"refs/heads/", "refs/remotes/", ""} {
		ref, err := repo.Reference(plumbing.ReferenceName(prefix+branch), true)
		if err == nil {
			return ref.Hash(), nil
		}
	}
	if h := plumbing.NewHash(branch); !h.IsZero() {
		return h, nil
	}
	return plumbing.ZeroHash, fmt.Errorf("branch or ref not found: %s", branch)
}

func commitTouchesPaths(c *object.Commit, paths []string) (bool, error) {
	tree, err := c.Tree()
	if err != nil {
		return false, err
	}
	if c.NumParents() == 0 {
		for _, p := range paths {
			if _, err := tree.FindEntry(p); err == nil {
				return true, nil
			}
		}
		return false, nil
	}
	parent, err := c.Parent(0)
	if err != nil {
		return false, err
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return false, err
	}
	changes, err := parentTree.Diff(tree)
	if err != nil {
		return false, err
	}
	for _, change := range changes {
		for _, p := range paths {
			if strings.HasPrefix(change.From.Name, p) || strings.HasPrefix(change.To.Name, p) {
				return true, nil
			}
		}
	}
	return false, nil
}

// buildRefDecorations maps commit hash -> decoration strings such as
// "HEAD -> main", a bare branch name, or "tag: v1.0".
func buildRefDecorations(repo *git.Repository) (map[string][]string, error) {
	out := make(map[string][]string)

	head, err := repo.Head()
	if err == nil {
		hash := head.Hash().String()
		if head.Name().IsBranch() {
			out[hash] = append(out[hash], "HEAD -> "+head.Name().Short())
		} else {
			out[hash] = append(out[hash], "HEAD")
		}
	}

	branches, err := repo.Branches()
	if err == nil {
		_ = branches.ForEach(func(ref *plumbing.Reference) error {
			hash := ref.Hash().String()
			name := ref.Name().Short()
			for _, d := range out[hash] {
				if strings.Contains(d, name) {
					return nil
				}
			}
			out[hash] = append(out[hash], name)
			return nil
		})
	}

	tags, err := repo.Tags()
	if err == nil {
		_ = tags.ForEach(func(ref *plumbing.Reference) error {
			hash := ref.Hash().String()
			if tagObj, err := repo.TagObject(ref.Hash()); err == nil {
				if c, err := tagObj.Commit(); err == nil {
					hash = c.Hash.String()
				}
			}
			out[hash] = append(out[hash], "tag: "+ref.Name().Short())
			return nil
		})
	}

	return out, nil
}

func formatRefs(decorations []string) string {
	if len(decorations) == 0 {
		return ""
	}
	return " (" + strings.Join(decorations, ", ") + ")"
}

// Branches lists local and remote branch names, sorted.
func Branches(repoPath string) ([]string, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	var names []string
	refs, err := repo.References()
	if err != nil {
		return nil, err
	}
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name()
		if name.IsBranch() || name.IsRemote() {
			names = append(names, name.Short())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Authors returns unique commit author names reachable from HEAD,
// sorted, up to limit commits walked.
func Authors(repoPath string, limit int) ([]string, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	seen := make(map[string]struct{})
	count := 0
	err = iter.ForEach(func(c *object.Commit) error {
		if limit > 0 && count >= limit {
			return storerStop
		}
		seen[c.Author.Name] = struct{}{}
		count++
		return nil
	})
	if err != nil && err != storerStop {
		return nil, err
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// FirstParentChain walks repoPath from branch (HEAD if empty) following
// only first parents, returning the set of hashes on that chain. Useful
// for classifying merged-in commits against the mainline a caller
// already rendered.
func FirstParentChain(repoPath string, branch string) (map[string]struct{}, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	hash, err := startHash(repo, branch)
	if err != nil {
		return nil, err
	}

	chain := make(map[string]struct{})
	for !hash.IsZero() {
		chain[hash.String()] = struct{}{}
		c, err := repo.CommitObject(hash)
		if err != nil {
			return nil, fmt.Errorf("walk first-parent chain: %w", err)
		}
		if c.NumParents() == 0 {
			break
		}
		hash = c.ParentHashes[0]
	}
	return chain, nil
}

// ListTrackedFiles returns every file path tracked in HEAD's tree.
func ListTrackedFiles(repoPath string) ([]string, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD commit: %w", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD tree: %w", err)
	}

	var files []string
	fileIter := tree.Files()
	defer fileIter.Close()
	err = fileIter.ForEach(func(f *object.File) error {
		files = append(files, f.Name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk tree: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// DetectDefaultBranch guesses the repository's primary branch: the
// remote HEAD symref, then common remote/local conventions, falling
// back to "HEAD".
func DetectDefaultBranch(repoPath string) (string, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return "", fmt.Errorf("open repo: %w", err)
	}
	if ref, err := repo.Reference("refs/remotes/origin/HEAD", true); err == nil {
		return ref.Name().Short(), nil
	}
	for _, name := range []string{"origin/master", "origin/main"} {
		if _, err := repo.Reference(plumbing.ReferenceName("refs/remotes/"+name), true); err == nil {
			return name, nil
		}
	}
	for _, name := range []string{"master", "main"} {
		if _, err := repo.Reference(plumbing.ReferenceName("refs/heads/"+name), true); err == nil {
			return name, nil
		}
	}
	return "HEAD", nil
}
